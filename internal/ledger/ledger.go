// Package ledger defines the contract of the ledger collaborator: the single
// place where a validated session transition, its participant account
// updates, and its balance movements commit atomically. The engine decides
// what transition is legal; a Store guarantees that validate-then-commit
// pairs on the same session never interleave (optimistic concurrency via a
// monotonic record version).
package ledger

import (
	"context"
	"errors"

	"github.com/swarnasn29/LiarsPoker-SOL/engine"
)

var (
	// ErrConflict reports that the session's version changed between the
	// read used for validation and the commit. Recoverable: re-fetch and
	// retry. Never silently merged.
	ErrConflict = errors.New("ledger: version conflict")

	// ErrNotFound reports an unknown session or participant address.
	ErrNotFound = errors.New("ledger: not found")

	// ErrAlreadyActive reports a create against a session address occupied
	// by a non-terminal session.
	ErrAlreadyActive = errors.New("ledger: creator already has an active session")

	// ErrInsufficientFunds reports a transfer exceeding the source balance.
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")

	// ErrUnavailable reports a submission whose outcome is unknown (the
	// backing store did not confirm). Callers must re-derive truth via a
	// fetch before retrying; the commit may or may not have applied.
	ErrUnavailable = errors.New("ledger: outcome unknown, re-fetch before retrying")
)

// Record is the durable representation of one session: the engine state plus
// the append-only bid log and the version counter that serializes commits.
type Record struct {
	Address   engine.Address `json:"address"`
	Session   engine.Session `json:"session"`
	Bids      []engine.Bid   `json:"bids,omitempty"`
	Version   uint64         `json:"version"`
	UpdatedAt int64          `json:"updatedAt"`
}

// PlayerAccount is one participant's membership record for a session. The
// commitment is opaque here; its construction and verification live with the
// caller (see engine.CommitDigit).
type PlayerAccount struct {
	Address    engine.Address `json:"address"` // derived participant address
	Session    engine.Address `json:"session"` // owning session, back-reference only
	Player     engine.Address `json:"player"`
	Commitment [32]byte       `json:"commitment"`
	Revealed   bool           `json:"revealed"`
	Digit      uint8          `json:"digit"` // meaningful once Revealed
}

// Transfer moves lamports between accounts as part of a commit.
type Transfer struct {
	From   engine.Address
	To     engine.Address
	Amount uint64
}

// Commit is the atomic unit a Store applies: the new session record, any
// participant account upserts, and any balance movements. Expect is the
// version the caller validated against; zero means "create".
type Commit struct {
	Record    Record
	Expect    uint64
	Accounts  []PlayerAccount
	Transfers []Transfer
}

// Store is the ledger collaborator surface. Every Commit either applies in
// full or not at all; concurrent commits against the same session serialize
// on the record version.
type Store interface {
	// Commit applies c atomically. With Expect == 0 it creates the session,
	// failing with ErrAlreadyActive while a non-terminal session occupies
	// the address (a terminal one is archived and replaced — sessions are
	// history, never destroyed). With Expect > 0 it replaces the record iff
	// the stored version equals Expect, else ErrConflict.
	Commit(ctx context.Context, c Commit) error

	// GetSession returns the authoritative record at a session address.
	GetSession(ctx context.Context, addr engine.Address) (Record, error)

	// GetParticipant returns a participant account by derived address.
	GetParticipant(ctx context.Context, addr engine.Address) (PlayerAccount, error)

	// ListOpenSessions returns sessions that have not started yet
	// (Created or Waiting).
	ListOpenSessions(ctx context.Context) ([]Record, error)

	// ListHistory returns archived terminal sessions for a creator, oldest
	// first.
	ListHistory(ctx context.Context, creator engine.Address) ([]Record, error)

	// Balance returns the lamport balance of an account. Unknown accounts
	// hold zero.
	Balance(ctx context.Context, addr engine.Address) (uint64, error)

	// Deposit credits an account. External funding enters the ledger here.
	Deposit(ctx context.Context, addr engine.Address, amount uint64) error
}
