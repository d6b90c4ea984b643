package engine

import "testing"

// addr builds a distinct test identity from a single byte.
func addr(b byte) Address {
	var a Address
	a[0] = b
	return a
}

// TestStateTerminal verifies exactly Completed and Cancelled are terminal.
func TestStateTerminal(t *testing.T) {
	terminal := map[State]bool{
		StateCreated:    false,
		StateWaiting:    false,
		StateInProgress: false,
		StateRevealing:  false,
		StateCompleted:  true,
		StateCancelled:  true,
	}
	for state, want := range terminal {
		if got := state.Terminal(); got != want {
			t.Errorf("%v.Terminal() = %v, want %v", state, got, want)
		}
	}
}

// TestStateString verifies every state has a distinct name.
func TestStateString(t *testing.T) {
	seen := make(map[string]State)
	for _, s := range []State{StateCreated, StateWaiting, StateInProgress, StateRevealing, StateCompleted, StateCancelled} {
		name := s.String()
		if name == "unknown" {
			t.Errorf("state %d has no name", s)
		}
		if prev, dup := seen[name]; dup {
			t.Errorf("states %d and %d share name %q", prev, s, name)
		}
		seen[name] = s
	}
	if State(99).String() != "unknown" {
		t.Errorf("out-of-range state should stringify as unknown")
	}
}

// TestBidDominates verifies the strict (quantity, digit, stake) escalation
// rule: an increase in any single dimension suffices, ties do not.
func TestBidDominates(t *testing.T) {
	prev := Bid{Digit: 5, Quantity: 3, Stake: 500}
	cases := []struct {
		name string
		next Bid
		want bool
	}{
		{"quantity up", Bid{Digit: 5, Quantity: 4, Stake: 500}, true},
		{"digit up", Bid{Digit: 6, Quantity: 3, Stake: 500}, true},
		{"stake up", Bid{Digit: 5, Quantity: 3, Stake: 501}, true},
		{"stake up others down", Bid{Digit: 4, Quantity: 2, Stake: 600}, true},
		{"identical", Bid{Digit: 5, Quantity: 3, Stake: 500}, false},
		{"all down", Bid{Digit: 4, Quantity: 2, Stake: 300}, false},
		{"all equal or down", Bid{Digit: 5, Quantity: 2, Stake: 500}, false},
	}
	for _, tc := range cases {
		if got := tc.next.Dominates(prev); got != tc.want {
			t.Errorf("%s: Dominates = %v, want %v", tc.name, got, tc.want)
		}
	}
}

// TestPlayerIndex verifies membership lookup respects join order and bounds.
func TestPlayerIndex(t *testing.T) {
	s, err := NewSession(addr(1), Params{RequiredPlayers: 3, MinBid: 1}, 1000)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	for i, b := range []byte{1, 2, 3} {
		if err := s.Join(addr(b)); err != nil {
			t.Fatalf("Join(%d): %v", i, err)
		}
	}
	for i, b := range []byte{1, 2, 3} {
		if got := s.PlayerIndex(addr(b)); got != i {
			t.Errorf("PlayerIndex(addr(%d)) = %d, want %d", b, got, i)
		}
	}
	if got := s.PlayerIndex(addr(9)); got != -1 {
		t.Errorf("PlayerIndex(non-member) = %d, want -1", got)
	}
}

// TestCountDigit verifies counting only covers revealed slots.
func TestCountDigit(t *testing.T) {
	var s Session
	s.NumPlayers = 3
	s.Revealed = [MaxPlayers]bool{true, false, true}
	s.Digits = [MaxPlayers]uint8{5, 5, 1}

	if got := s.CountDigit(5); got != 1 {
		t.Errorf("CountDigit(5) = %d, want 1 (middle slot unrevealed)", got)
	}
	if got := s.CountDigit(1); got != 1 {
		t.Errorf("CountDigit(1) = %d, want 1", got)
	}
	if got := s.CountDigit(9); got != 0 {
		t.Errorf("CountDigit(9) = %d, want 0", got)
	}
}

// TestSnapshotRestore verifies Save/Restore round-trips the full record.
func TestSnapshotRestore(t *testing.T) {
	s, _ := NewSession(addr(1), DefaultParams(), 1000)
	_ = s.Join(addr(1))
	snap := s.Save()

	_ = s.Join(addr(2))
	if s.NumPlayers != 2 {
		t.Fatalf("NumPlayers = %d, want 2", s.NumPlayers)
	}

	s.Restore(snap)
	if s.NumPlayers != 1 {
		t.Errorf("after Restore NumPlayers = %d, want 1", s.NumPlayers)
	}
	if s.State != StateWaiting {
		t.Errorf("after Restore State = %v, want waiting", s.State)
	}
}
