// Package rustic implements a general-purpose Discord bot built around
// prefix-based text commands.
//
// Rustic listens to the Discord gateway for messages, resolves the
// effective command prefix for each one (per-guild custom prefixes are
// stored in a relational database, with a process-wide default as
// fallback), and dispatches matching messages to registered command
// handlers.
//
// Key components of the package include:
//
//   - Bot: The main struct that encapsulates the bot's core functionality.
//   - Discord: Handles the gateway connection and session state.
//   - Dispatcher: Turns incoming messages into command invocations.
//   - Registry: The command name/alias table.
//   - GuildStore: Reads and writes per-guild configuration.
//   - BucketLimiter: Applies fixed-window rate limits to command use.
//   - API: An optional read-only HTTP server exposing bot status.
//
// The bot ships with a small set of commands:
//
//   - ping: Gateway latency check.
//   - about: Bot statistics (guilds, memory, uptime).
//   - help: Command listing and per-command details.
//   - cat, eightball, urban: Fun and lookup commands.
//   - grayscale: Avatar image manipulation.
//   - prefix: Shows or sets the guild's custom prefix.
//
// Commands sharing a rate-limit bucket are throttled per user, with a
// single cooldown notice per window. Unknown command names can optionally
// produce a "did you mean" suggestion based on edit distance.
package rustic
