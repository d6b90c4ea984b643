package ws

import (
	"encoding/hex"
	"fmt"

	"github.com/swarnasn29/LiarsPoker-SOL/engine"
	ssync "github.com/swarnasn29/LiarsPoker-SOL/internal/sync"
)

// Request is the client-to-gateway message envelope. Type selects the
// action; unused fields stay zero.
type Request struct {
	Type    string         `json:"type"`
	Session engine.Address `json:"session,omitempty"`

	// create
	RequiredPlayers uint8  `json:"requiredPlayers,omitempty"`
	MinBid          uint64 `json:"minBid,omitempty"`

	// join
	Commitment string `json:"commitment,omitempty"` // hex, 32 bytes

	// bid
	Digit    uint8  `json:"digit,omitempty"`
	Quantity uint8  `json:"quantity,omitempty"`
	Stake    uint64 `json:"stake,omitempty"`

	// reveal (Digit shared with bid)
	Salt string `json:"salt,omitempty"` // hex, 32 bytes
}

// Response is the gateway-to-client message envelope.
type Response struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`

	Session   engine.Address   `json:"session,omitempty"`
	SessionID engine.SessionID `json:"sessionId,omitempty"`
	Lamports  uint64           `json:"lamports,omitempty"`
	View      *ssync.View      `json:"view,omitempty"`
	Sessions  []SessionSummary `json:"sessions,omitempty"`

	Winner    engine.Address `json:"winner,omitempty"`
	PrizePool uint64         `json:"prizePool,omitempty"`
}

// SessionSummary is one row of the open-session listing.
type SessionSummary struct {
	Address         engine.Address   `json:"address"`
	ID              engine.SessionID `json:"id"`
	Creator         engine.Address   `json:"creator"`
	State           string           `json:"state"`
	NumPlayers      uint8            `json:"numPlayers"`
	RequiredPlayers uint8            `json:"requiredPlayers"`
	MinBid          uint64           `json:"minBid"`
}

const (
	msgOK             = "ok"
	msgError          = "error"
	msgCreated        = "created"
	msgSnapshot       = "snapshot"
	msgSessions       = "sessions"
	msgBalance        = "balance"
	msgFinished       = "finished"
	msgRevealRequired = "reveal_required"
)

// decode32 parses a 32-byte hex field such as a commitment or salt.
func decode32(field, s string) ([32]byte, error) {
	var out [32]byte
	raw, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("%s: %w", field, err)
	}
	if len(raw) != len(out) {
		return out, fmt.Errorf("%s: need %d bytes, got %d", field, len(out), len(raw))
	}
	copy(out[:], raw)
	return out, nil
}
