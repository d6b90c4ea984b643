// Package engine implements the Liar's Poker session rules.
//
// The package is pure decision logic: given a session record and a proposed
// action it either rejects the action with a named reason or applies the
// resulting transition in place. It holds no I/O, no clocks, and no
// concurrency; the ledger collaborator (internal/ledger) is responsible for
// committing a validated transition atomically.
package engine

// NewSession creates a session record in StateCreated. createdAt is the
// creation time in unix seconds and, together with the creator identity,
// fixes the session's 8-byte external id.
func NewSession(creator Address, params Params, createdAt int64) (Session, error) {
	if err := params.Validate(); err != nil {
		return Session{}, err
	}
	return Session{
		ID:              DeriveSessionID(creator, createdAt),
		Creator:         creator,
		State:           StateCreated,
		RequiredPlayers: params.RequiredPlayers,
		MinBid:          params.MinBid,
		CreatedAt:       createdAt,
	}, nil
}
