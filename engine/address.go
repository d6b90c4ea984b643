package engine

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// Namespace seeds for derived account addresses. They match the seeds the
// on-chain program uses, so every collaborator re-derives identical
// addresses from identities alone.
const (
	sessionSeed     = "room"
	participantSeed = "player"
)

// DeriveSessionAddress maps a creator identity to its session account
// address: blake2b-256 over the namespace tag and the creator bytes. A
// creator has exactly one session address, which is what forces the
// "already active" failure mode on a second create.
func DeriveSessionAddress(creator Address) Address {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(sessionSeed))
	h.Write(creator[:])
	var out Address
	copy(out[:], h.Sum(nil))
	return out
}

// DeriveParticipantAddress maps (session, participant) to the participant's
// per-session account address.
func DeriveParticipantAddress(session, participant Address) Address {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(participantSeed))
	h.Write(session[:])
	h.Write(participant[:])
	var out Address
	copy(out[:], h.Sum(nil))
	return out
}

// DeriveSessionID computes the session's 8-byte external handle: the first
// 8 bytes of the creator's canonical bytes concatenated with the
// little-endian 8-byte timestamp, read as a little-endian integer. The
// layout is bit-exact with the ledger program's own derivation; the id
// appears in subsequent lookups and must round-trip unchanged.
func DeriveSessionID(creator Address, createdAt int64) SessionID {
	buf := make([]byte, 0, len(creator)+8)
	buf = append(buf, creator[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(createdAt))
	return SessionID(binary.LittleEndian.Uint64(buf[:8]))
}

// CommitDigit produces the commitment stored in a participant account at
// join time: blake2b-256 over the session address, the participant address,
// the hidden digit, and a random salt. The reveal path recomputes it to
// check the disclosed digit.
func CommitDigit(session, participant Address, digit uint8, salt [32]byte) [32]byte {
	h, _ := blake2b.New256(nil)
	h.Write(session[:])
	h.Write(participant[:])
	h.Write([]byte{digit})
	h.Write(salt[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
