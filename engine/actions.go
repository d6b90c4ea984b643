package engine

// Join adds actor to the session. Legal while the session is Created or
// Waiting, has a free seat, and actor is not already a member. The first
// successful join moves a Created session to Waiting; filling the last seat
// leaves the session in Waiting (ready to start) — it never auto-starts.
func (s *Session) Join(actor Address) error {
	if s.State != StateCreated && s.State != StateWaiting {
		return RejectRoomNotJoinable
	}
	if s.Full() {
		return RejectRoomFull
	}
	if s.PlayerIndex(actor) >= 0 {
		return RejectAlreadyJoined
	}

	s.Players[s.NumPlayers] = actor
	s.NumPlayers++
	s.State = StateWaiting
	return nil
}

// Start moves a full Waiting session into InProgress. Only the creator may
// start; the first joiner takes the first turn.
func (s *Session) Start(actor Address) error {
	if actor != s.Creator {
		return RejectNotAuthorized
	}
	if s.State != StateWaiting {
		return RejectInvalidState
	}
	if !s.Full() {
		return RejectNotEnoughPlayers
	}

	s.State = StateInProgress
	s.TurnIdx = 0
	return nil
}

// PlaceBid validates and applies a bid by actor. The first bid of a session
// is unconstrained beyond the digit/quantity bounds and the minimum stake.
// Every subsequent bid must strictly dominate the current one: at least one
// of quantity, digit, or stake must strictly increase. On acceptance the
// stake joins the prize pool and the turn advances to the next player in
// join order.
func (s *Session) PlaceBid(actor Address, digit, quantity uint8, stake uint64, now int64) error {
	if s.State != StateInProgress {
		return RejectInvalidState
	}
	if actor != s.CurrentTurn() {
		return RejectNotYourTurn
	}
	if digit > MaxDigit || quantity == 0 {
		return RejectInvalidBid
	}
	if stake < s.MinBid {
		return RejectInvalidBidAmount
	}
	bid := Bid{Bidder: actor, Digit: digit, Quantity: quantity, Stake: stake, Timestamp: now}
	if s.HasBid && !bid.Dominates(s.CurrentBid) {
		return RejectInvalidBid
	}

	s.CurrentBid = bid
	s.HasBid = true
	s.LastBidder = actor
	s.PrizePool += stake
	s.advanceTurn()
	return nil
}

// Challenge disputes the current bid and moves the session into Revealing.
// Legal only for the participant on turn, and only once a bid exists.
func (s *Session) Challenge(actor Address) error {
	if s.State != StateInProgress {
		return RejectInvalidState
	}
	if actor != s.CurrentTurn() {
		return RejectNotYourTurn
	}
	if !s.HasBid {
		return RejectNoBidToChallenge
	}

	s.Challenger = actor
	s.State = StateRevealing
	return nil
}

// Reveal records actor's hidden digit during the Revealing phase. The
// challenge settles as soon as the outcome is decided: the bid holder wins
// once the running count of the bid digit reaches the claimed quantity, and
// the challenger wins once the digits still hidden can no longer close the
// gap. The final reveal always lands in one of the two cases.
//
// The digit's match against the participant's join-time commitment is the
// caller's responsibility; the engine trusts the value it is given.
func (s *Session) Reveal(actor Address, digit uint8) error {
	if s.State != StateRevealing {
		return RejectInvalidState
	}
	idx := s.PlayerIndex(actor)
	if idx < 0 {
		return RejectNotInRoom
	}
	if s.Revealed[idx] {
		return RejectAlreadyRevealed
	}
	if digit > MaxDigit {
		return RejectInvalidBid
	}

	s.Revealed[idx] = true
	s.Digits[idx] = digit
	s.NumRevealed++

	count := s.CountDigit(s.CurrentBid.Digit)
	if count >= s.CurrentBid.Quantity {
		s.complete(s.LastBidder)
		return nil
	}
	// Every hidden digit matching the bid could at best raise the count by
	// one; once even that cannot reach the claimed quantity the bid is
	// falsified and the remaining reveals are moot.
	if count+(s.NumPlayers-s.NumRevealed) < s.CurrentBid.Quantity {
		s.complete(s.Challenger)
	}
	return nil
}

// Cancel abandons a session that has not started. Only the creator may
// cancel, and only from Created or Waiting; no stake has been escrowed at
// that point, so there is nothing to refund.
func (s *Session) Cancel(actor Address) error {
	if actor != s.Creator {
		return RejectNotAuthorized
	}
	if s.State != StateCreated && s.State != StateWaiting {
		return RejectInvalidState
	}

	s.State = StateCancelled
	return nil
}

// advanceTurn rotates to the next player in join order, wrapping around.
func (s *Session) advanceTurn() {
	s.TurnIdx = (s.TurnIdx + 1) % s.NumPlayers
}

// complete finalizes the session with the given winner. Payout of the prize
// pool is the ledger collaborator's move, signalled by the state change.
func (s *Session) complete(winner Address) {
	s.Winner = winner
	s.HasWinner = true
	s.State = StateCompleted
}
