package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swarnasn29/LiarsPoker-SOL/engine"
)

func testAddr(b byte) engine.Address {
	var a engine.Address
	a[0] = b
	return a
}

func testRecord(creator engine.Address) Record {
	sess, _ := engine.NewSession(creator, engine.Params{RequiredPlayers: 2, MinBid: 1}, 1000)
	return Record{
		Address: engine.DeriveSessionAddress(creator),
		Session: sess,
	}
}

func TestCommitCreateAndFetch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	rec := testRecord(testAddr(1))

	require.NoError(t, store.Commit(ctx, Commit{Record: rec}))

	got, err := store.GetSession(ctx, rec.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got.Version)
	assert.Equal(t, engine.StateCreated, got.Session.State)

	_, err = store.GetSession(ctx, testAddr(9))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommitAlreadyActive(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	rec := testRecord(testAddr(1))

	require.NoError(t, store.Commit(ctx, Commit{Record: rec}))
	assert.ErrorIs(t, store.Commit(ctx, Commit{Record: rec}), ErrAlreadyActive)
}

func TestCommitArchivesTerminalOnRecreate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	creator := testAddr(1)
	rec := testRecord(creator)
	require.NoError(t, store.Commit(ctx, Commit{Record: rec}))

	// Cancel the session, then create anew at the same address.
	got, err := store.GetSession(ctx, rec.Address)
	require.NoError(t, err)
	require.NoError(t, got.Session.Cancel(creator))
	require.NoError(t, store.Commit(ctx, Commit{Record: got, Expect: got.Version}))

	fresh := testRecord(creator)
	fresh.Session.CreatedAt = 2000
	require.NoError(t, store.Commit(ctx, Commit{Record: fresh}))

	latest, err := store.GetSession(ctx, rec.Address)
	require.NoError(t, err)
	assert.Equal(t, engine.StateCreated, latest.Session.State)
	assert.Equal(t, uint64(1), latest.Version, "recreate restarts the version counter")

	hist, err := store.ListHistory(ctx, creator)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, engine.StateCancelled, hist[0].Session.State)
}

func TestCommitVersionConflict(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	rec := testRecord(testAddr(1))
	require.NoError(t, store.Commit(ctx, Commit{Record: rec}))

	// Two actors fetch version 1; the second commit must lose.
	a, err := store.GetSession(ctx, rec.Address)
	require.NoError(t, err)
	b := a

	require.NoError(t, a.Session.Join(testAddr(2)))
	require.NoError(t, store.Commit(ctx, Commit{Record: a, Expect: a.Version}))

	require.NoError(t, b.Session.Join(testAddr(3)))
	assert.ErrorIs(t, store.Commit(ctx, Commit{Record: b, Expect: b.Version}), ErrConflict)

	got, err := store.GetSession(ctx, rec.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), got.Version)
	assert.Equal(t, 0, got.Session.PlayerIndex(testAddr(2)), "winning commit applied")
	assert.Equal(t, -1, got.Session.PlayerIndex(testAddr(3)), "losing commit not merged")
}

func TestCommitTransfersAtomic(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	rec := testRecord(testAddr(1))
	escrow := rec.Address
	player := testAddr(2)
	require.NoError(t, store.Deposit(ctx, player, 100))
	require.NoError(t, store.Commit(ctx, Commit{Record: rec}))

	got, err := store.GetSession(ctx, rec.Address)
	require.NoError(t, err)

	// A transfer exceeding the balance fails the whole commit.
	err = store.Commit(ctx, Commit{
		Record: got, Expect: got.Version,
		Transfers: []Transfer{{From: player, To: escrow, Amount: 150}},
	})
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	bal, _ := store.Balance(ctx, player)
	assert.Equal(t, uint64(100), bal, "failed commit must not move funds")
	unchanged, _ := store.GetSession(ctx, rec.Address)
	assert.Equal(t, got.Version, unchanged.Version, "failed commit must not bump version")

	// A covered transfer applies with the record.
	require.NoError(t, store.Commit(ctx, Commit{
		Record: got, Expect: got.Version,
		Transfers: []Transfer{{From: player, To: escrow, Amount: 60}},
	}))
	bal, _ = store.Balance(ctx, player)
	assert.Equal(t, uint64(40), bal)
	bal, _ = store.Balance(ctx, escrow)
	assert.Equal(t, uint64(60), bal)
}

func TestParticipantAccounts(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	rec := testRecord(testAddr(1))
	pAddr := engine.DeriveParticipantAddress(rec.Address, testAddr(2))

	_, err := store.GetParticipant(ctx, pAddr)
	assert.ErrorIs(t, err, ErrNotFound)

	acct := PlayerAccount{Address: pAddr, Session: rec.Address, Player: testAddr(2)}
	require.NoError(t, store.Commit(ctx, Commit{Record: rec, Accounts: []PlayerAccount{acct}}))

	got, err := store.GetParticipant(ctx, pAddr)
	require.NoError(t, err)
	assert.Equal(t, testAddr(2), got.Player)
	assert.False(t, got.Revealed)
}

func TestListOpenSessions(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	created := testRecord(testAddr(1))
	require.NoError(t, store.Commit(ctx, Commit{Record: created}))

	// A full but unstarted lobby still lists; only a start removes it.
	waiting := testRecord(testAddr(2))
	require.NoError(t, waiting.Session.Join(testAddr(2)))
	require.NoError(t, waiting.Session.Join(testAddr(3)))
	require.NoError(t, store.Commit(ctx, Commit{Record: waiting}))

	running := testRecord(testAddr(4))
	require.NoError(t, running.Session.Join(testAddr(4)))
	require.NoError(t, running.Session.Join(testAddr(5)))
	require.NoError(t, running.Session.Start(testAddr(4)))
	require.NoError(t, store.Commit(ctx, Commit{Record: running}))

	got, err := store.ListOpenSessions(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, rec := range got {
		assert.NotEqual(t, running.Address, rec.Address)
	}
}
