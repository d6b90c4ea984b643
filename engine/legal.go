package engine

// ActionKind enumerates the session actions for legality queries.
type ActionKind uint8

const (
	ActionJoin ActionKind = iota
	ActionStart
	ActionBid
	ActionChallenge
	ActionReveal
	ActionCancel

	NumActions
)

func (k ActionKind) String() string {
	switch k {
	case ActionJoin:
		return "join"
	case ActionStart:
		return "start"
	case ActionBid:
		return "bid"
	case ActionChallenge:
		return "challenge"
	case ActionReveal:
		return "reveal"
	case ActionCancel:
		return "cancel"
	}
	return "unknown"
}

// setBit sets bit k in the mask.
func setBit(mask *uint8, k ActionKind) { *mask |= 1 << k }

// LegalActions returns a bitmask of the actions actor could currently take.
// Bit k is set when action k would pass validation (bid parameter bounds
// excepted — a set ActionBid bit means some bid is acceptable).
func (s *Session) LegalActions(actor Address) uint8 {
	var mask uint8

	switch s.State {
	case StateCreated, StateWaiting:
		if !s.Full() && s.PlayerIndex(actor) < 0 {
			setBit(&mask, ActionJoin)
		}
		if actor == s.Creator {
			if s.State == StateWaiting && s.Full() {
				setBit(&mask, ActionStart)
			}
			setBit(&mask, ActionCancel)
		}

	case StateInProgress:
		if actor == s.CurrentTurn() {
			setBit(&mask, ActionBid)
			if s.HasBid {
				setBit(&mask, ActionChallenge)
			}
		}

	case StateRevealing:
		if idx := s.PlayerIndex(actor); idx >= 0 && !s.Revealed[idx] {
			setBit(&mask, ActionReveal)
		}
	}

	return mask
}

// Legal reports whether action k is currently legal for actor.
func (s *Session) Legal(actor Address, k ActionKind) bool {
	return s.LegalActions(actor)&(1<<k) != 0
}

// LegalActionsList returns the legal actions as a slice (for testing;
// allocates).
func (s *Session) LegalActionsList(actor Address) []ActionKind {
	mask := s.LegalActions(actor)
	var actions []ActionKind
	for k := ActionKind(0); k < NumActions; k++ {
		if mask&(1<<k) != 0 {
			actions = append(actions, k)
		}
	}
	return actions
}
