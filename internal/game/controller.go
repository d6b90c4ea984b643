// Package game hosts the session lifecycle controller: the one place that
// sequences validate-then-commit transitions against the ledger and fans out
// change notifications. The controller owns no rules — the engine package
// decides legality — and translates no rejections: an engine.Reject passes
// through to the caller verbatim.
package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/swarnasn29/LiarsPoker-SOL/engine"
	"github.com/swarnasn29/LiarsPoker-SOL/internal/cache"
	"github.com/swarnasn29/LiarsPoker-SOL/internal/ledger"
)

// maxCommitAttempts bounds the re-fetch-and-retry loop on version conflicts.
// Conflicts are rare by construction (turn order serializes most actions);
// the retries cover the join/reveal races.
const maxCommitAttempts = 3

// Controller orchestrates session lifecycle transitions.
type Controller struct {
	store    ledger.Store
	notifier cache.Notifier
	actions  cache.ActionLogger
	log      *logrus.Entry
	now      func() time.Time
}

// New wires a controller. actions may be cache.NopActionLogger{}.
func New(store ledger.Store, notifier cache.Notifier, actions cache.ActionLogger, log *logrus.Entry) *Controller {
	return &Controller{
		store:    store,
		notifier: notifier,
		actions:  actions,
		log:      log,
		now:      time.Now,
	}
}

// mutation is the ledger side-effect bundle an action produces alongside the
// new session record.
type mutation struct {
	accounts  []ledger.PlayerAccount
	transfers []ledger.Transfer
	action    string
	actor     engine.Address
	payload   map[string]any
}

// mutate runs one validate-then-commit cycle against the session at addr:
// fetch the authoritative record, let fn validate and mutate a copy, commit
// against the fetched version. On a version conflict the cycle restarts from
// a fresh fetch — validation always re-runs against current state, a losing
// commit is never merged.
func (c *Controller) mutate(ctx context.Context, addr engine.Address, fn func(rec *ledger.Record) (mutation, error)) error {
	for attempt := 0; attempt < maxCommitAttempts; attempt++ {
		rec, err := c.store.GetSession(ctx, addr)
		if err != nil {
			return err
		}
		expect := rec.Version

		mut, err := fn(&rec)
		if err != nil {
			return err
		}
		rec.UpdatedAt = c.now().Unix()

		err = c.store.Commit(ctx, ledger.Commit{
			Record:    rec,
			Expect:    expect,
			Accounts:  mut.accounts,
			Transfers: mut.transfers,
		})
		if errors.Is(err, ledger.ErrConflict) {
			c.log.WithField("session", addr.Short()).Debug("commit conflict, retrying from fresh fetch")
			continue
		}
		if err != nil {
			return err
		}

		c.afterCommit(ctx, addr, mut)
		return nil
	}
	return ledger.ErrConflict
}

// afterCommit logs the action and publishes change notifications. Both are
// best-effort side channels; a failure never unwinds the committed state.
func (c *Controller) afterCommit(ctx context.Context, addr engine.Address, mut mutation) {
	if err := c.actions.LogAction(ctx, cache.ActionRecord{
		ID:        uuid.New(),
		Session:   addr,
		Actor:     mut.actor,
		Action:    mut.action,
		Payload:   mut.payload,
		Timestamp: c.now().UnixMilli(),
	}); err != nil {
		c.log.WithError(err).Warn("action log write failed")
	}

	if err := c.notifier.Publish(ctx, cache.Event{Kind: cache.EventSessionChanged, Session: addr}); err != nil {
		c.log.WithError(err).Warn("session notification failed")
	}
	for _, acct := range mut.accounts {
		ev := cache.Event{Kind: cache.EventParticipantChanged, Session: addr, Participant: acct.Address}
		if err := c.notifier.Publish(ctx, ev); err != nil {
			c.log.WithError(err).Warn("participant notification failed")
		}
	}
}

// CreateSession creates one session per creator at the derived session
// address. A second create while the creator's session is still live fails
// with ledger.ErrAlreadyActive.
func (c *Controller) CreateSession(ctx context.Context, creator engine.Address, params engine.Params) (engine.SessionID, engine.Address, error) {
	sess, err := engine.NewSession(creator, params, c.now().Unix())
	if err != nil {
		return 0, engine.ZeroAddress, err
	}
	addr := engine.DeriveSessionAddress(creator)
	rec := ledger.Record{
		Address:   addr,
		Session:   sess,
		UpdatedAt: sess.CreatedAt,
	}

	if err := c.store.Commit(ctx, ledger.Commit{Record: rec}); err != nil {
		return 0, engine.ZeroAddress, err
	}
	c.afterCommit(ctx, addr, mutation{
		action: "create",
		actor:  creator,
		payload: map[string]any{
			"requiredPlayers": params.RequiredPlayers,
			"minBid":          params.MinBid,
		},
	})
	c.log.WithFields(logrus.Fields{
		"session": addr.Short(),
		"creator": creator.Short(),
		"players": params.RequiredPlayers,
	}).Info("session created")
	return sess.ID, addr, nil
}

// JoinSession adds participant to the session and records their hidden digit
// commitment in a fresh participant account. The commitment is opaque here;
// it is checked against the disclosed digit at reveal time.
func (c *Controller) JoinSession(ctx context.Context, session, participant engine.Address, commitment [32]byte) error {
	return c.mutate(ctx, session, func(rec *ledger.Record) (mutation, error) {
		if err := rec.Session.Join(participant); err != nil {
			return mutation{}, err
		}
		acct := ledger.PlayerAccount{
			Address:    engine.DeriveParticipantAddress(session, participant),
			Session:    session,
			Player:     participant,
			Commitment: commitment,
		}
		return mutation{
			accounts: []ledger.PlayerAccount{acct},
			action:   "join",
			actor:    participant,
		}, nil
	})
}

// StartSession begins play. Only the creator of a full Waiting session may
// start it.
func (c *Controller) StartSession(ctx context.Context, session, actor engine.Address) error {
	return c.mutate(ctx, session, func(rec *ledger.Record) (mutation, error) {
		if err := rec.Session.Start(actor); err != nil {
			return mutation{}, err
		}
		return mutation{action: "start", actor: actor}, nil
	})
}

// PlaceBid validates and applies a bid, escrowing the stake from the actor's
// account into the session's prize pool.
func (c *Controller) PlaceBid(ctx context.Context, session, actor engine.Address, digit, quantity uint8, stake uint64) error {
	return c.mutate(ctx, session, func(rec *ledger.Record) (mutation, error) {
		if err := rec.Session.PlaceBid(actor, digit, quantity, stake, c.now().Unix()); err != nil {
			return mutation{}, err
		}
		rec.Bids = append(rec.Bids, rec.Session.CurrentBid)
		return mutation{
			transfers: []ledger.Transfer{{From: actor, To: session, Amount: stake}},
			action:    "bid",
			actor:     actor,
			payload: map[string]any{
				"digit":    digit,
				"quantity": quantity,
				"stake":    stake,
			},
		}, nil
	})
}

// Challenge disputes the current bid and opens the reveal phase.
func (c *Controller) Challenge(ctx context.Context, session, actor engine.Address) error {
	return c.mutate(ctx, session, func(rec *ledger.Record) (mutation, error) {
		if err := rec.Session.Challenge(actor); err != nil {
			return mutation{}, err
		}
		return mutation{action: "challenge", actor: actor}, nil
	})
}

// Reveal discloses actor's hidden digit. The digit and salt must reproduce
// the commitment stored at join time (engine.RejectRevealMismatch
// otherwise). The reveal that settles the challenge also pays the prize pool
// out of session escrow to the winner, in the same commit.
func (c *Controller) Reveal(ctx context.Context, session, actor engine.Address, digit uint8, salt [32]byte) error {
	pAddr := engine.DeriveParticipantAddress(session, actor)
	acct, err := c.store.GetParticipant(ctx, pAddr)
	if err != nil {
		return err
	}
	if engine.CommitDigit(session, pAddr, digit, salt) != acct.Commitment {
		return engine.RejectRevealMismatch
	}

	return c.mutate(ctx, session, func(rec *ledger.Record) (mutation, error) {
		if err := rec.Session.Reveal(actor, digit); err != nil {
			return mutation{}, err
		}
		acct.Revealed = true
		acct.Digit = digit
		mut := mutation{
			accounts: []ledger.PlayerAccount{acct},
			action:   "reveal",
			actor:    actor,
		}
		if rec.Session.State == engine.StateCompleted {
			mut.transfers = []ledger.Transfer{{
				From:   session,
				To:     rec.Session.Winner,
				Amount: rec.Session.PrizePool,
			}}
			mut.payload = map[string]any{
				"winner":    rec.Session.Winner.String(),
				"prizePool": rec.Session.PrizePool,
			}
		}
		return mut, nil
	})
}

// CancelSession abandons a session that has not started. Only the creator
// may cancel; the reaper cancels on the creator's behalf after the idle TTL.
func (c *Controller) CancelSession(ctx context.Context, session, actor engine.Address) error {
	return c.mutate(ctx, session, func(rec *ledger.Record) (mutation, error) {
		if err := rec.Session.Cancel(actor); err != nil {
			return mutation{}, err
		}
		if rec.Session.PrizePool != 0 {
			// Cannot happen: bids exist only in InProgress, and cancel is
			// rejected there. Guard the invariant anyway.
			return mutation{}, fmt.Errorf("cancel with non-zero prize pool %d", rec.Session.PrizePool)
		}
		return mutation{action: "cancel", actor: actor}, nil
	})
}

// FetchSession returns the authoritative session record.
func (c *Controller) FetchSession(ctx context.Context, session engine.Address) (ledger.Record, error) {
	return c.store.GetSession(ctx, session)
}

// FetchParticipant returns a participant account for a session member.
func (c *Controller) FetchParticipant(ctx context.Context, session, participant engine.Address) (ledger.PlayerAccount, error) {
	return c.store.GetParticipant(ctx, engine.DeriveParticipantAddress(session, participant))
}

// ListOpenSessions returns the sessions currently accepting joins.
func (c *Controller) ListOpenSessions(ctx context.Context) ([]ledger.Record, error) {
	return c.store.ListOpenSessions(ctx)
}

// History returns the caller's archived terminal sessions.
func (c *Controller) History(ctx context.Context, creator engine.Address) ([]ledger.Record, error) {
	return c.store.ListHistory(ctx, creator)
}

// Balance returns the lamport balance of an account.
func (c *Controller) Balance(ctx context.Context, addr engine.Address) (uint64, error) {
	return c.store.Balance(ctx, addr)
}
