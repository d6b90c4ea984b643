package cache

import (
	"context"
	"sync"

	"github.com/swarnasn29/LiarsPoker-SOL/engine"
)

// Bus is the in-process Notifier: per-session subscriber sets with buffered,
// drop-on-full delivery. A dropped event is harmless because subscribers
// re-fetch the full record on any event; the next event re-syncs them.
type Bus struct {
	mu   sync.Mutex
	subs map[engine.Address]map[chan Event]struct{}
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[engine.Address]map[chan Event]struct{})}
}

// Publish implements Notifier.
func (b *Bus) Publish(ctx context.Context, ev Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[ev.Session] {
		select {
		case ch <- ev:
		default: // subscriber lagging; it will catch up on the next fetch
		}
	}
	return nil
}

// Subscribe implements Notifier.
func (b *Bus) Subscribe(ctx context.Context, session engine.Address) (<-chan Event, func(), error) {
	ch := make(chan Event, 16)

	b.mu.Lock()
	set, ok := b.subs[session]
	if !ok {
		set = make(map[chan Event]struct{})
		b.subs[session] = set
	}
	set[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if set, ok := b.subs[session]; ok {
			if _, live := set[ch]; live {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(b.subs, session)
			}
		}
	}
	return ch, cancel, nil
}
