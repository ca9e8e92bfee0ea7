package rustic

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// cmdPing reports the gateway heartbeat latency.
func (b *Bot) cmdPing(_ context.Context, inv *Invocation) error {
	latency := "?ms"
	if hb := inv.session.HeartbeatLatency(); hb > 0 {
		latency = fmt.Sprintf("%dms", hb.Milliseconds())
	}

	embed := &discordgo.MessageEmbed{
		Author:      &discordgo.MessageEmbedAuthor{Name: "Pong!", IconURL: b.botAvatarURL(inv)},
		Description: fmt.Sprintf("**Heartbeat**: %s", latency),
		Color:       embedColor,
	}
	return inv.ReplyEmbed(embed)
}

// cmdAbout shows general bot statistics: guild/user counts, memory usage
// and uptime.
func (b *Bot) cmdAbout(_ context.Context, inv *Invocation) error {
	guilds, members := inv.session.GuildCount()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	name := "Rustic"
	if u := inv.session.BotUser(); u != nil {
		name = u.Username
	}

	embed := &discordgo.MessageEmbed{
		Author: &discordgo.MessageEmbedAuthor{
			Name:    name,
			IconURL: b.botAvatarURL(inv),
		},
		Description: "Rustic is an open source multi-purpose bot packed with features. " +
			"You can find my source code on [github](https://github.com/MrArkon/Rustic).",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Guilds", Value: fmt.Sprintf("%d", guilds), Inline: true},
			{Name: "Users", Value: fmt.Sprintf("%d", members), Inline: true},
			{
				Name:   "Memory Usage",
				Value:  fmt.Sprintf("%d MB", memStats.Sys/(1024*1024)),
				Inline: true,
			},
			{
				Name:   "Uptime",
				Value:  time.Since(b.startedAt).Round(time.Second).String(),
				Inline: true,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Written with Go & discordgo"},
		Color:  embedColor,
	}
	return inv.ReplyEmbed(embed)
}

// cmdHelp lists all commands, or details a single one.
func (b *Bot) cmdHelp(_ context.Context, inv *Invocation) error {
	if len(inv.Args) == 0 {
		var sb strings.Builder
		for _, c := range b.registry.Commands() {
			fmt.Fprintf(&sb, "`%s` - %s\n", c.Name, c.Description)
		}
		embed := &discordgo.MessageEmbed{
			Title:       "Commands",
			Description: sb.String(),
			Footer: &discordgo.MessageEmbedFooter{
				Text: fmt.Sprintf(
					"Use %shelp <command> for details on a command",
					inv.bot.config.Discord.DefaultPrefix,
				),
			},
			Color: embedColor,
		}
		return inv.ReplyEmbed(embed)
	}

	name := inv.Args[0]
	cmd := b.registry.Lookup(name)
	if cmd == nil {
		if suggestion := b.registry.Suggest(name, DefaultSuggestionMax); suggestion != "" {
			return inv.Reply(fmt.Sprintf("No command named `%s`. Did you mean `%s`?", name, suggestion))
		}
		return inv.Reply(fmt.Sprintf("No command named `%s`.", name))
	}

	embed := &discordgo.MessageEmbed{
		Title:       cmd.Name,
		Description: cmd.Description,
		Color:       embedColor,
	}
	if cmd.Usage != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Usage",
			Value: fmt.Sprintf("`%s%s %s`", inv.bot.config.Discord.DefaultPrefix, cmd.Name, cmd.Usage),
		})
	}
	if len(cmd.Aliases) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Aliases",
			Value: strings.Join(cmd.Aliases, ", "),
		})
	}
	return inv.ReplyEmbed(embed)
}

// botAvatarURL returns the bot user's avatar URL, or "" if the session
// state isn't populated yet.
func (b *Bot) botAvatarURL(inv *Invocation) string {
	if u := inv.session.BotUser(); u != nil {
		return u.AvatarURL("256")
	}
	return ""
}
