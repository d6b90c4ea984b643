package game

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/swarnasn29/LiarsPoker-SOL/engine"
	"github.com/swarnasn29/LiarsPoker-SOL/internal/ledger"
)

// Reaper cancels sessions that sat in Created or Waiting past the idle TTL,
// acting on the creator's behalf so abandoned lobbies do not pin the
// creator's derived session address forever.
type Reaper struct {
	ctrl     *Controller
	store    ledger.Store
	ttl      time.Duration
	interval time.Duration
	log      *logrus.Entry
}

// NewReaper builds a reaper sweeping every interval for open sessions idle
// longer than ttl.
func NewReaper(ctrl *Controller, store ledger.Store, ttl, interval time.Duration, log *logrus.Entry) *Reaper {
	return &Reaper{ctrl: ctrl, store: store, ttl: ttl, interval: interval, log: log}
}

// Run sweeps until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep performs one pass: every open session whose last update is older
// than the TTL gets cancelled as its creator. A sweep failure on one session
// does not stop the pass.
func (r *Reaper) Sweep(ctx context.Context) {
	recs, err := r.store.ListOpenSessions(ctx)
	if err != nil {
		r.log.WithError(err).Warn("reaper list failed")
		return
	}
	cutoff := time.Now().Add(-r.ttl).Unix()
	for _, rec := range recs {
		if rec.UpdatedAt > cutoff {
			continue
		}
		err := r.ctrl.CancelSession(ctx, rec.Address, rec.Session.Creator)
		switch {
		case err == nil:
			r.log.WithField("session", rec.Address.Short()).Info("reaped idle session")
		case errors.Is(err, ledger.ErrNotFound), errors.As(err, new(engine.Reject)):
			// The session moved on between the listing and the cancel.
		default:
			r.log.WithError(err).WithField("session", rec.Address.Short()).Warn("reap failed")
		}
	}
}
