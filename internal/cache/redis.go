package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/swarnasn29/LiarsPoker-SOL/engine"
)

const (
	sessionChannelPrefix = "liarspoker:session:"
	actionQueueKey       = "liarspoker:actions"
)

// Redis is the cross-process Notifier and action log, backed by Redis
// pub/sub and a list queue.
type Redis struct {
	rdb *redis.Client
	log *logrus.Entry
}

// NewRedis connects a Redis-backed notifier.
func NewRedis(addr, password string, db int, log *logrus.Entry) *Redis {
	return &Redis{
		rdb: redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}),
		log: log,
	}
}

// Ping verifies connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Close releases the client.
func (r *Redis) Close() error { return r.rdb.Close() }

func sessionChannel(session engine.Address) string {
	return sessionChannelPrefix + session.String()
}

// Publish implements Notifier.
func (r *Redis) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := r.rdb.Publish(ctx, sessionChannel(ev.Session), payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Subscribe implements Notifier. The returned channel closes when the
// context ends or cancel is called.
func (r *Redis) Subscribe(ctx context.Context, session engine.Address) (<-chan Event, func(), error) {
	pubsub := r.rdb.Subscribe(ctx, sessionChannel(session))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe %s: %w", session.Short(), err)
	}

	out := make(chan Event, 16)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				r.log.WithError(err).Warn("dropping malformed notification")
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	cancel := func() { _ = pubsub.Close() }
	return out, cancel, nil
}
