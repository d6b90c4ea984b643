// Package cache carries the asynchronous side channels of the service: the
// session-changed notification fan-out consumed by the sync layer, and the
// append-only action log. Notifications carry identifiers only — consumers
// must re-fetch the authoritative record, never trust a delta.
package cache

import (
	"context"

	"github.com/swarnasn29/LiarsPoker-SOL/engine"
)

// EventKind discriminates notification events.
type EventKind string

const (
	EventSessionChanged     EventKind = "session_changed"
	EventParticipantChanged EventKind = "participant_changed"
)

// Event names a changed session (and optionally a participant) with no
// payload beyond the identifiers.
type Event struct {
	Kind        EventKind      `json:"kind"`
	Session     engine.Address `json:"session"`
	Participant engine.Address `json:"participant,omitempty"`
}

// Notifier is the notification channel contract. Publish delivers an event
// to every live subscription on the session; Subscribe returns a channel of
// events for one session plus a cancel function. Delivery is best-effort and
// unordered — consumers reconcile via authoritative fetch.
type Notifier interface {
	Publish(ctx context.Context, ev Event) error
	Subscribe(ctx context.Context, session engine.Address) (<-chan Event, func(), error)
}
