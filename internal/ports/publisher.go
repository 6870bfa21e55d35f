package ports

import "context"

// Publisher bridges a topic event to the external push pipeline when no live
// stream connection is there to receive it. Delivery is best effort; the
// durable history has already been committed by the time this runs.
type Publisher interface {
	// PublishRaw forwards one event payload for topicID to the target ARN.
	PublishRaw(ctx context.Context, arn, topicID string, payload []byte) error
}
