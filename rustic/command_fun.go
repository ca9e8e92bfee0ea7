package rustic

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"

	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"
)

const (
	retryNotice     = "Something went wrong, please try again later."
	noResultsNotice = "No results found, sorry."
)

var (
	catAPIURL   = "https://shibe.online/api/cats"
	urbanAPIURL = "https://api.urbandictionary.com/v0/define"
)

var eightballResponses = []string{
	"It is certain.",
	"It is decidedly so.",
	"Without a doubt.",
	"Yes definitely.",
	"You may rely on it.",
	"As I see it, yes.",
	"Most likely.",
	"Outlook good.",
	"Yes.",
	"Signs point to yes.",
	"Reply hazy, try again.",
	"Ask again later.",
	"Better not tell you now.",
	"Cannot predict now.",
	"Concentrate and ask again.",
	"Don't count on it.",
	"My reply is no.",
	"My sources say no.",
	"Outlook not so good.",
	"Very doubtful.",
}

// cmdCat posts a random cat picture.
func (b *Bot) cmdCat(ctx context.Context, inv *Invocation) error {
	resp, err := b.httpGet(ctx, catAPIURL, nil)
	if err != nil {
		b.logger.ErrorContext(ctx, "cat API request failed", tint.Err(err))
		return inv.Reply(retryNotice)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		b.logger.WarnContext(
			ctx,
			"cat API returned non-200",
			"status_code", resp.StatusCode,
		)
		return inv.Reply(retryNotice)
	}

	var images []string
	if err = json.NewDecoder(resp.Body).Decode(&images); err != nil {
		b.logger.ErrorContext(ctx, "error decoding cat API response", tint.Err(err))
		return inv.Reply(retryNotice)
	}
	if len(images) == 0 {
		return inv.Reply(noResultsNotice)
	}

	embed := &discordgo.MessageEmbed{
		Title: "Have a cute cat!",
		Image: &discordgo.MessageEmbedImage{URL: images[0]},
		Color: embedColor,
	}
	return inv.ReplyEmbed(embed)
}

// cmdEightball answers a question with one of the twenty classic replies.
func (b *Bot) cmdEightball(_ context.Context, inv *Invocation) error {
	answer := eightballResponses[rand.Intn(len(eightballResponses))]
	return inv.ReplyTo(fmt.Sprintf(":8ball: **8ball:** %s", answer))
}

type urbanResponse struct {
	List []urbanDefinition `json:"list"`
}

type urbanDefinition struct {
	Definition string `json:"definition"`
	Permalink  string `json:"permalink"`
	Word       string `json:"word"`
	Author     string `json:"author"`
	ThumbsUp   int    `json:"thumbs_up"`
	ThumbsDown int    `json:"thumbs_down"`
}

// cmdUrban searches urban dictionary for the given term.
func (b *Bot) cmdUrban(ctx context.Context, inv *Invocation) error {
	if inv.Rest == "" {
		return inv.Reply("Give me a word to look up for.")
	}

	resp, err := b.httpGet(ctx, urbanAPIURL, url.Values{"term": []string{inv.Rest}})
	if err != nil {
		b.logger.ErrorContext(ctx, "urban dictionary request failed", tint.Err(err))
		return inv.Reply(retryNotice)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		b.logger.WarnContext(
			ctx,
			"urban dictionary returned non-200",
			"status_code", resp.StatusCode,
		)
		return inv.Reply(retryNotice)
	}

	var response urbanResponse
	if err = json.NewDecoder(resp.Body).Decode(&response); err != nil {
		b.logger.ErrorContext(
			ctx,
			"error decoding urban dictionary response",
			tint.Err(err),
		)
		return inv.Reply(retryNotice)
	}
	if len(response.List) == 0 {
		return inv.Reply(noResultsNotice)
	}

	definition := response.List[0]
	embed := &discordgo.MessageEmbed{
		Title:       definition.Word,
		URL:         definition.Permalink,
		Description: truncate(definition.Definition, discordMaxMessageLength),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: "Votes",
				Value: fmt.Sprintf(
					":thumbsup: %d :thumbsdown: %d",
					definition.ThumbsUp,
					definition.ThumbsDown,
				),
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("by %s", definition.Author),
		},
		Color: embedColor,
	}
	return inv.ReplyEmbed(embed)
}
