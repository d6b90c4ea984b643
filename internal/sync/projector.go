package sync

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/swarnasn29/LiarsPoker-SOL/internal/cache"
	"github.com/swarnasn29/LiarsPoker-SOL/internal/ledger"
)

// Projector keeps projections current: it subscribes to change
// notifications and re-fetches the authoritative record on every event.
// Notifications carry no payload, so a dropped or duplicated event costs at
// most one redundant fetch, never a wrong view.
type Projector struct {
	store    ledger.Store
	notifier cache.Notifier
	log      *logrus.Entry
}

// NewProjector wires a projector over the given store and notifier.
func NewProjector(store ledger.Store, notifier cache.Notifier, log *logrus.Entry) *Projector {
	return &Projector{store: store, notifier: notifier, log: log}
}

// Watch drives proj until ctx is cancelled or the subscription closes. It
// applies one snapshot up front so the projection is usable before the first
// change arrives.
func (p *Projector) Watch(ctx context.Context, proj *Projection) error {
	events, cancel, err := p.notifier.Subscribe(ctx, proj.Address())
	if err != nil {
		return err
	}
	defer cancel()

	p.Refresh(ctx, proj)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-events:
			if !ok {
				return nil
			}
			p.Refresh(ctx, proj)
		}
	}
}

// Refresh fetches the current record and applies it. A missing session is
// not an error here; the session may have been created but not committed
// yet, or reaped.
func (p *Projector) Refresh(ctx context.Context, proj *Projection) {
	rec, err := p.store.GetSession(ctx, proj.Address())
	if errors.Is(err, ledger.ErrNotFound) {
		return
	}
	if err != nil {
		p.log.WithError(err).WithField("session", proj.Address().Short()).Warn("projection refresh failed")
		return
	}
	proj.ApplySnapshot(rec)
}
