package engine

import (
	"encoding/binary"
	"testing"
)

// TestDeriveSessionAddressDeterministic verifies derivation is pure and
// distinct per creator.
func TestDeriveSessionAddressDeterministic(t *testing.T) {
	a1 := DeriveSessionAddress(addr(1))
	a2 := DeriveSessionAddress(addr(1))
	if a1 != a2 {
		t.Errorf("same creator derived different session addresses")
	}
	if a1 == DeriveSessionAddress(addr(2)) {
		t.Errorf("different creators derived the same session address")
	}
	if a1.IsZero() {
		t.Errorf("derived address is zero")
	}
	if a1 == addr(1) {
		t.Errorf("derived address equals creator identity")
	}
}

// TestDeriveParticipantAddress verifies the (session, participant) pair
// fully determines the participant account address.
func TestDeriveParticipantAddress(t *testing.T) {
	room := DeriveSessionAddress(addr(1))
	p1 := DeriveParticipantAddress(room, addr(2))
	if p1 != DeriveParticipantAddress(room, addr(2)) {
		t.Errorf("derivation not deterministic")
	}
	if p1 == DeriveParticipantAddress(room, addr(3)) {
		t.Errorf("different participants collided")
	}
	otherRoom := DeriveSessionAddress(addr(9))
	if p1 == DeriveParticipantAddress(otherRoom, addr(2)) {
		t.Errorf("same participant in different sessions collided")
	}
}

// TestDeriveSessionID verifies the bit-exact layout: first 8 bytes of
// creator || le64(timestamp), read little-endian.
func TestDeriveSessionID(t *testing.T) {
	var creator Address
	for i := range creator {
		creator[i] = byte(i + 1)
	}
	got := DeriveSessionID(creator, 0x1122334455667788)

	// The creator contributes 32 bytes, so the id is exactly its first 8
	// bytes little-endian regardless of the timestamp.
	want := SessionID(binary.LittleEndian.Uint64(creator[:8]))
	if got != want {
		t.Fatalf("DeriveSessionID = %#x, want %#x", got, want)
	}
	if got != DeriveSessionID(creator, 99) {
		t.Errorf("timestamp changed the id despite 32-byte creator prefix")
	}
}

// TestCommitDigit verifies the commitment binds every input.
func TestCommitDigit(t *testing.T) {
	room := DeriveSessionAddress(addr(1))
	player := DeriveParticipantAddress(room, addr(2))
	var salt [32]byte
	salt[0] = 0xAA

	c := CommitDigit(room, player, 5, salt)
	if c != CommitDigit(room, player, 5, salt) {
		t.Errorf("commitment not deterministic")
	}
	if c == CommitDigit(room, player, 6, salt) {
		t.Errorf("digit change did not change commitment")
	}
	var salt2 [32]byte
	salt2[0] = 0xAB
	if c == CommitDigit(room, player, 5, salt2) {
		t.Errorf("salt change did not change commitment")
	}
	if c == CommitDigit(room, DeriveParticipantAddress(room, addr(3)), 5, salt) {
		t.Errorf("participant change did not change commitment")
	}
}
