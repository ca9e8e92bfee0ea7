package rustic

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// ArgMode declares the shape of a command's arguments, which controls how
// the dispatcher parses the text remaining after the command name.
type ArgMode int

const (
	// ArgsNone ignores any trailing text.
	ArgsNone ArgMode = iota

	// ArgsSingle takes the first whitespace-delimited token; a double-quoted
	// run counts as one token with the quotes stripped.
	ArgsSingle

	// ArgsRest passes the rest of the message through untouched (put split
	// into fields for MinArgs checks).
	ArgsRest
)

// HandlerFunc is the signature every command handler implements.
type HandlerFunc func(ctx context.Context, inv *Invocation) error

// Command describes one registered text command: its identity, dispatch
// constraints, and handler. The registry treats these as immutable after
// startup.
type Command struct {
	// Name is the canonical, lowercase command name.
	Name string

	// Aliases are alternate names resolving to this command.
	Aliases []string

	Description string

	// Usage is the argument signature shown in help output, e.g. "<question>".
	Usage string

	// Bucket names the rate-limit bucket gating this command; empty means
	// un-throttled.
	Bucket string

	// GuildOnly commands can't be invoked from direct messages.
	GuildOnly bool

	// Args declares the argument shape.
	Args ArgMode

	// MinArgs is the minimum number of argument tokens required.
	MinArgs int

	Run HandlerFunc
}

// Invocation carries everything a handler needs for one command execution.
// It exists only for the duration of dispatch.
type Invocation struct {
	Command *Command
	Message *discordgo.Message

	// Prefix is the resolved prefix that was stripped from the message.
	Prefix string

	// Args are the parsed argument tokens (quoted runs already collapsed).
	Args []string

	// Rest is the raw text after the command name, whitespace-trimmed.
	Rest string

	session SessionHandler
	bot     *Bot
}

// Reply sends a plain message to the invocation's channel.
func (inv *Invocation) Reply(content string) error {
	_, err := inv.session.ChannelMessageSend(
		inv.Message.ChannelID,
		truncate(content, discordMaxMessageLength),
	)
	return err
}

// ReplyTo sends a message referencing (replying to) the invoking message.
func (inv *Invocation) ReplyTo(content string) error {
	_, err := inv.session.ChannelMessageSendReply(
		inv.Message.ChannelID,
		truncate(content, discordMaxMessageLength),
		inv.Message.Reference(),
	)
	return err
}

// ReplyEmbed sends a rich embed to the invocation's channel.
func (inv *Invocation) ReplyEmbed(embed *discordgo.MessageEmbed) error {
	_, err := inv.session.ChannelMessageSendEmbed(inv.Message.ChannelID, embed)
	return err
}

// ReplyComplex sends an arbitrary message payload (used for attachments).
func (inv *Invocation) ReplyComplex(data *discordgo.MessageSend) error {
	_, err := inv.session.ChannelMessageSendComplex(inv.Message.ChannelID, data)
	return err
}

// Registry is the command name/alias table. Built once at startup and
// read-only afterwards, so lookups need no locking.
type Registry struct {
	commands []*Command
	byName   map[string]*Command
}

// NewRegistry returns a registry containing the given commands. Duplicate
// names or aliases panic: they're a startup wiring error, not a runtime
// condition.
func NewRegistry(commands ...*Command) *Registry {
	r := &Registry{byName: map[string]*Command{}}
	for _, c := range commands {
		r.add(c)
	}
	return r
}

func (r *Registry) add(c *Command) {
	names := append([]string{c.Name}, c.Aliases...)
	for _, name := range names {
		key := strings.ToLower(name)
		if _, exists := r.byName[key]; exists {
			panic(fmt.Sprintf("duplicate command name %q", key))
		}
		r.byName[key] = c
	}
	r.commands = append(r.commands, c)
}

// Lookup resolves a command by name or alias, case-insensitively.
func (r *Registry) Lookup(name string) *Command {
	return r.byName[strings.ToLower(name)]
}

// Commands returns all registered commands, sorted by canonical name.
func (r *Registry) Commands() []*Command {
	out := make([]*Command, len(r.commands))
	copy(out, r.commands)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns all canonical command names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.commands))
	for _, c := range r.commands {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return names
}

// Suggest returns the closest canonical name within the given edit
// distance of the input, or "" if none qualifies. Aliases are considered
// but the canonical name is always returned.
func (r *Registry) Suggest(input string, maxDistance int) string {
	input = strings.ToLower(input)
	best := ""
	bestDistance := maxDistance + 1
	for name, c := range r.byName {
		d := levenshtein(input, name)
		if d < bestDistance || (d == bestDistance && best != "" && c.Name < best) {
			best = c.Name
			bestDistance = d
		}
	}
	if bestDistance > maxDistance {
		return ""
	}
	return best
}
