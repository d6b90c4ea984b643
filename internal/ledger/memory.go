package ledger

import (
	"context"
	"sync"

	"github.com/swarnasn29/LiarsPoker-SOL/engine"
)

// MemoryStore is the in-process reference Store: a mutex-serialized arena of
// session records keyed by address. It is the authoritative ledger in tests
// and single-node deployments; internal/database provides the same contract
// on Postgres.
type MemoryStore struct {
	mu           sync.RWMutex
	sessions     map[engine.Address]Record
	participants map[engine.Address]PlayerAccount
	balances     map[engine.Address]uint64
	history      map[engine.Address][]Record // keyed by creator identity
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:     make(map[engine.Address]Record),
		participants: make(map[engine.Address]PlayerAccount),
		balances:     make(map[engine.Address]uint64),
		history:      make(map[engine.Address][]Record),
	}
}

// Commit implements Store.
func (m *MemoryStore) Commit(ctx context.Context, c Commit) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	addr := c.Record.Address
	existing, exists := m.sessions[addr]

	if c.Expect == 0 {
		if exists {
			if !existing.Session.State.Terminal() {
				return ErrAlreadyActive
			}
			creator := existing.Session.Creator
			m.history[creator] = append(m.history[creator], existing)
		}
	} else {
		if !exists {
			return ErrNotFound
		}
		if existing.Version != c.Expect {
			return ErrConflict
		}
	}

	// Check funds before mutating anything; the whole commit is one atom.
	debits := make(map[engine.Address]uint64)
	for _, t := range c.Transfers {
		debits[t.From] += t.Amount
	}
	for from, total := range debits {
		if m.balances[from] < total {
			return ErrInsufficientFunds
		}
	}

	for _, t := range c.Transfers {
		m.balances[t.From] -= t.Amount
		m.balances[t.To] += t.Amount
	}
	for _, acct := range c.Accounts {
		m.participants[acct.Address] = acct
	}

	rec := c.Record
	rec.Version = c.Expect + 1
	m.sessions[addr] = rec
	return nil
}

// GetSession implements Store.
func (m *MemoryStore) GetSession(ctx context.Context, addr engine.Address) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.sessions[addr]
	if !ok {
		return Record{}, ErrNotFound
	}
	// Copy the bid log so callers never alias the stored slice.
	rec.Bids = append([]engine.Bid(nil), rec.Bids...)
	return rec, nil
}

// GetParticipant implements Store.
func (m *MemoryStore) GetParticipant(ctx context.Context, addr engine.Address) (PlayerAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acct, ok := m.participants[addr]
	if !ok {
		return PlayerAccount{}, ErrNotFound
	}
	return acct, nil
}

// ListOpenSessions implements Store.
func (m *MemoryStore) ListOpenSessions(ctx context.Context) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var open []Record
	for _, rec := range m.sessions {
		s := rec.Session
		if s.State == engine.StateCreated || s.State == engine.StateWaiting {
			rec.Bids = append([]engine.Bid(nil), rec.Bids...)
			open = append(open, rec)
		}
	}
	return open, nil
}

// ListHistory implements Store.
func (m *MemoryStore) ListHistory(ctx context.Context, creator engine.Address) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Record(nil), m.history[creator]...), nil
}

// Balance implements Store.
func (m *MemoryStore) Balance(ctx context.Context, addr engine.Address) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balances[addr], nil
}

// Deposit implements Store.
func (m *MemoryStore) Deposit(ctx context.Context, addr engine.Address, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[addr] += amount
	return nil
}
