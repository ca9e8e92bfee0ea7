package rustic

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"unicode"

	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"
)

const (
	cooldownNoticeFormat = ":hourglass: | **Cooldown:** Try this again in %d seconds."
	guildOnlyNotice      = "This command can only be used in a server."
	usageNoticeFormat    = "Usage: `%s%s %s`"
	suggestNoticeFormat  = "Unknown command. Did you mean `%s%s`?"
)

// Dispatcher turns incoming messages into command invocations: it resolves
// the effective prefix, matches the command name, applies rate limits,
// parses arguments, and runs the handler.
//
// Each message is handled independently (the gateway handler runs
// HandleMessage in its own goroutine); the guild store and bucket limiter
// are the only shared mutable state, and both are concurrency-safe.
type Dispatcher struct {
	registry *Registry
	limiter  *BucketLimiter
	store    *GuildStore
	session  SessionHandler
	config   *DiscordConfig
	logger   *slog.Logger
	bot      *Bot

	metricMessagesSeen    atomic.Int64
	metricCommandsRun     atomic.Int64
	metricCommandErrors   atomic.Int64
	metricRateLimited     atomic.Int64
	metricUnknownCommands atomic.Int64
}

func newDispatcher(
	registry *Registry,
	limiter *BucketLimiter,
	store *GuildStore,
	config *DiscordConfig,
	logger *slog.Logger,
) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		registry: registry,
		limiter:  limiter,
		store:    store,
		config:   config,
		logger:   logger.With(loggerNameKey, "dispatcher"),
	}
}

// HandleMessage processes one incoming message end to end. Messages that
// don't resolve to a command invocation are ignored silently - that's the
// common case, not an error.
func (d *Dispatcher) HandleMessage(ctx context.Context, m *discordgo.MessageCreate) {
	d.metricMessagesSeen.Add(1)

	author := messageAuthor(m.Message)
	if author == nil || author.Bot {
		return
	}
	if bot := d.session.BotUser(); bot != nil && author.ID == bot.ID {
		return
	}

	prefix, ok := d.resolvePrefix(ctx, m.Message)
	if !ok {
		return
	}

	rest := strings.TrimSpace(m.Content[len(prefix):])
	if rest == "" {
		return
	}

	name := rest
	remainder := ""
	if idx := strings.IndexFunc(rest, unicode.IsSpace); idx >= 0 {
		name, remainder = rest[:idx], strings.TrimSpace(rest[idx:])
	}

	cmd := d.registry.Lookup(name)
	if cmd == nil {
		d.metricUnknownCommands.Add(1)
		if d.config.SuggestCommands {
			if suggestion := d.registry.Suggest(name, DefaultSuggestionMax); suggestion != "" {
				d.sendNotice(
					ctx,
					m.ChannelID,
					fmt.Sprintf(suggestNoticeFormat, d.displayPrefix(prefix), suggestion),
				)
			}
		}
		return
	}

	if cmd.GuildOnly && m.GuildID == "" {
		d.sendNotice(ctx, m.ChannelID, guildOnlyNotice)
		return
	}

	if cmd.Bucket != "" {
		rv := d.limiter.Check(cmd.Bucket, author.ID)
		if !rv.Allowed {
			d.metricRateLimited.Add(1)
			d.logger.InfoContext(
				ctx,
				"rate limited",
				"command", cmd.Name,
				"user_id", author.ID,
				"bucket", cmd.Bucket,
				"retry_after", rv.RetryAfter,
			)
			if rv.FirstTry {
				d.sendNotice(
					ctx,
					m.ChannelID,
					fmt.Sprintf(cooldownNoticeFormat, cooldownSeconds(rv.RetryAfter)),
				)
			}
			return
		}
	}

	var args []string
	switch cmd.Args {
	case ArgsNone:
		remainder = ""
	case ArgsSingle:
		tokens := splitArgs(remainder)
		if len(tokens) > 1 {
			tokens = tokens[:1]
		}
		args = tokens
	case ArgsRest:
		args = splitArgs(remainder)
	}

	if len(args) < cmd.MinArgs {
		d.sendNotice(
			ctx,
			m.ChannelID,
			fmt.Sprintf(usageNoticeFormat, d.displayPrefix(prefix), cmd.Name, cmd.Usage),
		)
		return
	}

	inv := &Invocation{
		Command: cmd,
		Message: m.Message,
		Prefix:  prefix,
		Args:    args,
		Rest:    remainder,
		session: d.session,
		bot:     d.bot,
	}

	d.logger.InfoContext(
		ctx,
		"dispatching command",
		"command", cmd.Name,
		"user_id", author.ID,
		"guild_id", m.GuildID,
		"channel_id", m.ChannelID,
	)

	if err := cmd.Run(ctx, inv); err != nil {
		d.metricCommandErrors.Add(1)
		d.logger.ErrorContext(
			ctx,
			"command returned an error",
			"command", cmd.Name,
			"user_id", author.ID,
			tint.Err(err),
		)
		return
	}
	d.metricCommandsRun.Add(1)
}

// resolvePrefix determines the prefix to strip from the message before
// command matching, and whether dispatch may proceed at all.
//
// A leading mention of the bot user always counts as an alternate prefix
// in guilds. Outside guilds the DM policy applies: 'deny' ignores the
// message entirely, 'mention' allows only mention-prefixed invocation
// (a bare DM is never interpreted as a command).
func (d *Dispatcher) resolvePrefix(
	ctx context.Context,
	m *discordgo.Message,
) (string, bool) {
	content := m.Content

	if bot := d.session.BotUser(); bot != nil {
		for _, mention := range []string{"<@" + bot.ID + ">", "<@!" + bot.ID + ">"} {
			if strings.HasPrefix(content, mention) {
				if m.GuildID == "" && d.config.DMPolicy != DMPolicyMention {
					return "", false
				}
				return mention, true
			}
		}
	}

	if m.GuildID == "" {
		return "", false
	}

	prefix := d.store.GetPrefix(ctx, m.GuildID)
	if prefix == "" {
		return "", false
	}
	if len(content) >= len(prefix) && strings.EqualFold(content[:len(prefix)], prefix) {
		return content[:len(prefix)], true
	}
	return "", false
}

// displayPrefix returns a prefix suitable for showing in a notice: mention
// prefixes are swapped for the default, since raw mention markup reads
// poorly inline.
func (d *Dispatcher) displayPrefix(prefix string) string {
	if strings.HasPrefix(prefix, "<@") {
		return d.config.DefaultPrefix
	}
	return prefix
}

// sendNotice sends a user-facing dispatch notice (cooldown, usage,
// suggestion). Send failures are logged, never propagated.
func (d *Dispatcher) sendNotice(ctx context.Context, channelID string, content string) {
	if _, err := d.session.ChannelMessageSend(channelID, content); err != nil {
		d.logger.ErrorContext(
			ctx,
			"error sending dispatch notice",
			"channel_id", channelID,
			"content", content,
			tint.Err(err),
		)
	}
}
