package rustic

import (
	"context"
	"errors"
	"fmt"
)

// cmdPrefix shows or changes the guild's command prefix. With no argument
// it reports the effective prefix; with one it upserts the stored prefix.
// A quoted argument may contain spaces.
func (b *Bot) cmdPrefix(ctx context.Context, inv *Invocation) error {
	guildID := inv.Message.GuildID

	if len(inv.Args) == 0 {
		prefix := b.store.GetPrefix(ctx, guildID)
		return inv.Reply(fmt.Sprintf("The current guild prefix is: `%s`", prefix))
	}

	newPrefix := inv.Args[0]
	if err := b.store.SetPrefix(ctx, guildID, newPrefix); err != nil {
		if errors.Is(err, ErrEmptyPrefix) {
			return inv.Reply("The prefix can't be empty.")
		}
		if replyErr := inv.Reply(
			"Something went wrong while updating the prefix, please try again later.",
		); replyErr != nil {
			return errors.Join(err, replyErr)
		}
		return err
	}

	return inv.Reply(fmt.Sprintf("Updated prefix to: `%s`", newPrefix))
}
