// Package transport defines the boundary contract between C4 and whatever
// chat network delivers messages to it. Real IRC/Discord shims are out of
// scope (spec.md §1 Non-goals); this package only carries the contract a
// real shim would implement, plus a mock used to exercise the dispatcher
// in tests.
package transport

import "context"

// Event is a single inbound chat message, transport-agnostic.
type Event struct {
	// Network identifies which configured bot instance the message came
	// from (internal/config.Bot.Name), used for per-transport ignore
	// lists and secret-token lookups.
	Network string
	// Channel is the reply target: a channel/guild-channel name for a
	// public message, or the sender's nick/user id for a private one.
	Channel string
	// Sender is the nick/username that sent the message.
	Sender string
	// IsPrivate is true when Channel is actually a private-message target
	// rather than a shared channel, so replies can be routed back the
	// same way the request arrived.
	IsPrivate bool
	// Text is the raw message body.
	Text string
}

// Replier sends lines back to wherever an Event came from.
type Replier interface {
	Reply(ctx context.Context, ev Event, lines []string) error
}

// ReplierFunc adapts a function to Replier.
type ReplierFunc func(ctx context.Context, ev Event, lines []string) error

func (f ReplierFunc) Reply(ctx context.Context, ev Event, lines []string) error {
	return f(ctx, ev, lines)
}
