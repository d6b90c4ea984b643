package engine

// Params holds the fixed-at-creation parameters of a session.
type Params struct {
	RequiredPlayers uint8
	MinBid          uint64 // lamports
}

// Validate checks creation bounds: 2–6 players, positive minimum bid.
func (p Params) Validate() error {
	if p.RequiredPlayers < MinPlayers || p.RequiredPlayers > MaxPlayers {
		return RejectInvalidPlayerCount
	}
	if p.MinBid == 0 {
		return RejectInvalidBidAmount
	}
	return nil
}

// DefaultParams returns the standard table: two players, 0.1 SOL minimum.
func DefaultParams() Params {
	return Params{
		RequiredPlayers: 2,
		MinBid:          100_000_000, // 0.1 SOL
	}
}
