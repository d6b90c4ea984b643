package engine

import (
	"encoding/hex"
	"fmt"
	"strconv"
)

const (
	// MinPlayers and MaxPlayers bound RequiredPlayers at session creation.
	MinPlayers uint8 = 2
	MaxPlayers uint8 = 6

	// MaxDigit is the highest biddable digit.
	MaxDigit uint8 = 9
)

// Address is a 32-byte account identity: a participant's public key or a
// derived session/participant account address.
type Address [32]byte

// ZeroAddress represents the absence of an identity.
var ZeroAddress Address

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool { return a == ZeroAddress }

// String returns the full lowercase hex encoding of the address.
func (a Address) String() string { return hex.EncodeToString(a[:]) }

// Short returns the first 8 hex characters, for logs.
func (a Address) Short() string { return a.String()[:8] }

// MarshalText implements encoding.TextMarshaler (hex).
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	raw, err := hex.DecodeString(string(text))
	if err != nil {
		return fmt.Errorf("decode address: %w", err)
	}
	if len(raw) != len(a) {
		return fmt.Errorf("decode address: got %d bytes, want %d", len(raw), len(a))
	}
	copy(a[:], raw)
	return nil
}

// SessionID is the 8-byte external handle of a session, derived from the
// creator identity and creation timestamp. See DeriveSessionID.
type SessionID uint64

// MarshalText renders the id as a decimal string; 64-bit values do not
// survive JSON number decoding in browser clients.
func (id SessionID) MarshalText() ([]byte, error) {
	return strconv.AppendUint(nil, uint64(id), 10), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *SessionID) UnmarshalText(text []byte) error {
	v, err := strconv.ParseUint(string(text), 10, 64)
	if err != nil {
		return fmt.Errorf("decode session id: %w", err)
	}
	*id = SessionID(v)
	return nil
}

// State is the session lifecycle state. Exactly one state holds at any time;
// the closed enum replaces the original's set of boolean-like variant flags.
type State uint8

const (
	StateCreated State = iota
	StateWaiting
	StateInProgress
	StateRevealing
	StateCompleted
	StateCancelled
)

// Terminal reports whether the state admits no further transitions.
func (s State) Terminal() bool { return s == StateCompleted || s == StateCancelled }

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateWaiting:
		return "waiting"
	case StateInProgress:
		return "in_progress"
	case StateRevealing:
		return "revealing"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Bid is a claim that at least Quantity occurrences of Digit exist among all
// participants' hidden digits, staking Stake lamports into the prize pool.
type Bid struct {
	Bidder    Address
	Digit     uint8
	Quantity  uint8
	Stake     uint64 // lamports
	Timestamp int64  // unix seconds
}

// Dominates reports whether b is a strict escalation over prev: at least one
// of quantity, digit, or stake strictly increases. Ties on all three (or
// decreases across the board) are not acceptable.
func (b Bid) Dominates(prev Bid) bool {
	return b.Quantity > prev.Quantity || b.Digit > prev.Digit || b.Stake > prev.Stake
}

// Session is the complete, self-contained ledger record of one game session.
// It is a flat value type (no pointers, no slices) so a copy is a snapshot
// and equality is bytewise; all mutation goes through the transition methods
// in actions.go.
type Session struct {
	ID              SessionID
	Creator         Address
	State           State
	RequiredPlayers uint8
	MinBid          uint64 // lamports
	CreatedAt       int64  // unix seconds

	// Players in join order; join order is turn order. Slots at index
	// >= NumPlayers are zero.
	Players    [MaxPlayers]Address
	NumPlayers uint8

	// Bidding. HasBid distinguishes the zero Bid from "no bid yet".
	CurrentBid Bid
	HasBid     bool
	LastBidder Address
	TurnIdx    uint8 // index into Players; meaningful only in StateInProgress

	// Challenge / reveal. Challenger is set when a challenge moves the
	// session into StateRevealing.
	Challenger  Address
	Revealed    [MaxPlayers]bool
	Digits      [MaxPlayers]uint8 // meaningful where Revealed[i]
	NumRevealed uint8

	// Outcome.
	Winner    Address
	HasWinner bool
	PrizePool uint64 // lamports
}

// CurrentTurn returns the identity of the participant who must act next.
// Defined only in StateInProgress; returns ZeroAddress otherwise.
func (s *Session) CurrentTurn() Address {
	if s.State != StateInProgress {
		return ZeroAddress
	}
	return s.Players[s.TurnIdx]
}

// PlayerIndex returns the join-order index of actor, or -1 if not a member.
func (s *Session) PlayerIndex(actor Address) int {
	for i := uint8(0); i < s.NumPlayers; i++ {
		if s.Players[i] == actor {
			return int(i)
		}
	}
	return -1
}

// Full reports whether the session has all required players.
func (s *Session) Full() bool { return s.NumPlayers == s.RequiredPlayers }

// CountDigit returns the number of occurrences of digit among digits revealed
// so far.
func (s *Session) CountDigit(digit uint8) uint8 {
	var n uint8
	for i := uint8(0); i < s.NumPlayers; i++ {
		if s.Revealed[i] && s.Digits[i] == digit {
			n++
		}
	}
	return n
}

// Snapshot is a complete value-copy of Session.
type Snapshot Session

// Save returns a snapshot of the current session state.
func (s *Session) Save() Snapshot { return Snapshot(*s) }

// Restore replaces the session state with the given snapshot.
func (s *Session) Restore(snap Snapshot) { *s = Session(snap) }
