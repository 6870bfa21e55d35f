package ports

import (
	"context"

	"bookpulse/internal/types"
)

// MessageStore is the durable side of a conversation. The SSE stream is only a
// nudge; clients re-fetch from here after a disconnect.
// Implementations MUST keep per-topic ordering by SentAt and SHOULD cap stored
// history to a bounded recent window.
type MessageStore interface {
	// Append persists one message.
	Append(ctx context.Context, msg types.Message) error

	// Recent returns up to limit messages for a topic, oldest first.
	// An unknown topic MUST return an empty slice, not an error.
	Recent(ctx context.Context, topicID string, limit int) ([]types.Message, error)

	// ClearAll purges all stored messages. Used in tests only.
	ClearAll(ctx context.Context) error
}
