package redis

import (
	"context"
	"fmt"

	"bookpulse/internal/types"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
	"github.com/redis/go-redis/v9"
)

const (
	msgKeyNameTemplate = "_bookpulse_msgs_%s"

	// HardLimitRecentItems caps stored history per topic; clients needing more
	// than this window should page from the primary database, not from here.
	HardLimitRecentItems = 512
)

var enc, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
var dec, _ = zstd.NewReader(nil)

// MessageStore implements ports.MessageStore as a capped Redis list per topic.
// Entries are zstd-compressed JSON; chat bodies compress well and the list is
// read far less often than it is written.
type MessageStore struct {
	cli *redis.Client
}

func NewMessageStore(cli *redis.Client) *MessageStore {
	return &MessageStore{cli: cli}
}

func (s *MessageStore) Append(ctx context.Context, msg types.Message) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	blob := enc.EncodeAll(b, nil)
	key := getMsgKeyName(msg.TopicID)
	if err := s.cli.RPush(ctx, key, blob).Err(); err != nil {
		return types.Err(types.ErrStoreAccess, err, "append message")
	}
	// Keep only the newest window.
	if err := s.cli.LTrim(ctx, key, -HardLimitRecentItems, -1).Err(); err != nil {
		return types.Err(types.ErrStoreAccess, err, "trim messages")
	}
	return nil
}

func (s *MessageStore) Recent(ctx context.Context, topicID string, limit int) ([]types.Message, error) {
	out := s.cli.LRange(ctx, getMsgKeyName(topicID), int64(-limit), -1)
	if out.Err() != nil {
		return nil, types.Err(types.ErrStoreAccess, out.Err(), "read messages")
	}
	raw := out.Val()
	msgs := make([]types.Message, 0, len(raw))
	for _, blob := range raw {
		b, err := dec.DecodeAll([]byte(blob), nil)
		if err != nil {
			return nil, fmt.Errorf("decompress message: %w", err)
		}
		var m types.Message
		if err := json.Unmarshal(b, &m); err != nil {
			return nil, fmt.Errorf("invalid message record: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

func (s *MessageStore) ClearAll(ctx context.Context) error {
	out := s.cli.Keys(ctx, getMsgKeyName("*"))
	if out.Err() != nil {
		return out.Err()
	}
	if len(out.Val()) == 0 {
		return nil
	}
	return s.cli.Del(ctx, out.Val()...).Err()
}

func getMsgKeyName(topicID string) string {
	return fmt.Sprintf(msgKeyNameTemplate, topicID)
}
