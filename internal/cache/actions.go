package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/swarnasn29/LiarsPoker-SOL/engine"
)

// ActionRecord is one entry of the append-only action log: who did what to
// which session. The log is an audit trail for history views; gameplay never
// reads it back.
type ActionRecord struct {
	ID        uuid.UUID      `json:"id"`
	Session   engine.Address `json:"session"`
	Actor     engine.Address `json:"actor"`
	Action    string         `json:"action"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp int64          `json:"timestamp"` // unix millis
}

// ActionLogger records action entries.
type ActionLogger interface {
	LogAction(ctx context.Context, rec ActionRecord) error
}

// LogAction pushes the record onto the Redis action queue.
func (r *Redis) LogAction(ctx context.Context, rec ActionRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal action record: %w", err)
	}
	if err := r.rdb.LPush(ctx, actionQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("push action record: %w", err)
	}
	return nil
}

// NopActionLogger discards action records.
type NopActionLogger struct{}

func (NopActionLogger) LogAction(context.Context, ActionRecord) error { return nil }
