// Package sync maintains client-facing projections of session state. A
// Projection is one observer's materialized view: snapshots from the ledger
// overwrite it wholesale, stale or duplicate snapshots are discarded, and
// local scratch state (chat draft, input buffers) survives every overwrite.
package sync

import (
	stdsync "sync"

	"github.com/swarnasn29/LiarsPoker-SOL/engine"
	"github.com/swarnasn29/LiarsPoker-SOL/internal/ledger"
)

// View is the read side of a projection: the full session snapshot plus
// derivations clients render directly.
type View struct {
	Session   engine.Session
	Version   uint64
	UpdatedAt int64
	Bids      []engine.Bid
	// LastBid holds each participant's most recent bid, derived from the
	// bid log.
	LastBid map[engine.Address]engine.Bid
}

// Scratch is observer-local state the projection never touches on snapshot
// application. Clients park in-progress input here so a concurrent overwrite
// cannot eat a half-typed message.
type Scratch struct {
	ChatDraft string
	Inputs    map[string]string
}

// Projection tracks one observer's view of one session.
type Projection struct {
	mu       stdsync.Mutex
	session  engine.Address
	observer engine.Address
	view     View
	scratch  Scratch
	applied  bool

	revealFired   bool
	finishedFired bool

	// OnApply fires after every applied snapshot with the new view.
	OnApply func(View)
	// OnRevealRequired fires once per challenge when the session enters
	// Revealing and the observer still holds an unrevealed digit.
	OnRevealRequired func()
	// OnFinished fires exactly once when the session completes.
	OnFinished func(winner engine.Address, prizePool uint64)
}

// NewProjection builds an empty projection for observer's view of the
// session at addr.
func NewProjection(addr, observer engine.Address) *Projection {
	return &Projection{
		session:  addr,
		observer: observer,
		scratch:  Scratch{Inputs: make(map[string]string)},
	}
}

// Address returns the observed session address.
func (p *Projection) Address() engine.Address { return p.session }

// ApplySnapshot installs a ledger snapshot into the view. Stale and
// duplicate snapshots — version not beyond the last applied, for the same
// session incarnation — are discarded, so redelivered notifications are
// harmless. A snapshot carrying a different session identity at the same
// address (the prior session ended and the creator opened a new one) always
// applies and re-arms the one-time signals. Returns whether the view
// changed.
func (p *Projection) ApplySnapshot(rec ledger.Record) bool {
	p.mu.Lock()

	sameIncarnation := p.applied &&
		rec.Session.ID == p.view.Session.ID &&
		rec.Session.CreatedAt == p.view.Session.CreatedAt
	if sameIncarnation && rec.Version <= p.view.Version {
		p.mu.Unlock()
		return false
	}
	if !sameIncarnation {
		p.revealFired = false
		p.finishedFired = false
	}

	bids := make([]engine.Bid, len(rec.Bids))
	copy(bids, rec.Bids)
	last := make(map[engine.Address]engine.Bid, rec.Session.NumPlayers)
	for _, b := range bids {
		last[b.Bidder] = b
	}
	p.view = View{
		Session:   rec.Session,
		Version:   rec.Version,
		UpdatedAt: rec.UpdatedAt,
		Bids:      bids,
		LastBid:   last,
	}
	p.applied = true

	var fire []func()
	if p.OnApply != nil {
		view := p.view
		fire = append(fire, func() { p.OnApply(view) })
	}
	if rec.Session.State == engine.StateRevealing && !p.revealFired && p.OnRevealRequired != nil {
		if idx := rec.Session.PlayerIndex(p.observer); idx >= 0 && !rec.Session.Revealed[idx] {
			p.revealFired = true
			fire = append(fire, p.OnRevealRequired)
		}
	}
	if rec.Session.State == engine.StateCompleted && !p.finishedFired && p.OnFinished != nil {
		p.finishedFired = true
		winner, pool := rec.Session.Winner, rec.Session.PrizePool
		fire = append(fire, func() { p.OnFinished(winner, pool) })
	}

	p.mu.Unlock()
	for _, f := range fire {
		f()
	}
	return true
}

// Snapshot returns a copy of the current view and whether any snapshot has
// been applied yet.
func (p *Projection) Snapshot() (View, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v := p.view
	v.Bids = append([]engine.Bid(nil), p.view.Bids...)
	v.LastBid = make(map[engine.Address]engine.Bid, len(p.view.LastBid))
	for k, b := range p.view.LastBid {
		v.LastBid[k] = b
	}
	return v, p.applied
}

// SetChatDraft stores the observer's in-progress chat text.
func (p *Projection) SetChatDraft(draft string) {
	p.mu.Lock()
	p.scratch.ChatDraft = draft
	p.mu.Unlock()
}

// SetInput stores a named input buffer (bid digit field, stake field).
func (p *Projection) SetInput(name, value string) {
	p.mu.Lock()
	p.scratch.Inputs[name] = value
	p.mu.Unlock()
}

// ScratchState returns a copy of the observer-local scratch state.
func (p *Projection) ScratchState() Scratch {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := Scratch{ChatDraft: p.scratch.ChatDraft, Inputs: make(map[string]string, len(p.scratch.Inputs))}
	for k, v := range p.scratch.Inputs {
		out.Inputs[k] = v
	}
	return out
}
