package contact

import (
	"context"

	"github.com/rs/zerolog"
)

// Transport hands an accepted message to whatever delivers it. A nil error
// counts as a successful submission.
type Transport interface {
	Deliver(ctx context.Context, msg Fields) error
}

// LogTransport records the message and reports success. No mail is sent.
type LogTransport struct {
	Log zerolog.Logger
}

func (t LogTransport) Deliver(_ context.Context, msg Fields) error {
	t.Log.Info().
		Str("from", msg.Name).
		Str("reply_to", msg.Email).
		Int("message_len", len(msg.Message)).
		Msg("contact message accepted")
	return nil
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, msg Fields) error

func (f TransportFunc) Deliver(ctx context.Context, msg Fields) error {
	return f(ctx, msg)
}
