package sync

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swarnasn29/LiarsPoker-SOL/engine"
	"github.com/swarnasn29/LiarsPoker-SOL/internal/cache"
	"github.com/swarnasn29/LiarsPoker-SOL/internal/ledger"
)

func addr(b byte) engine.Address {
	var a engine.Address
	a[0] = b
	return a
}

// record builds a snapshot at the given version for a two-player session.
func record(t *testing.T, version uint64, mut func(*engine.Session)) ledger.Record {
	t.Helper()
	sess, err := engine.NewSession(addr(1), engine.Params{RequiredPlayers: 2, MinBid: 100}, 1700000000)
	require.NoError(t, err)
	require.NoError(t, sess.Join(addr(1)))
	require.NoError(t, sess.Join(addr(2)))
	if mut != nil {
		mut(&sess)
	}
	return ledger.Record{
		Address:   engine.DeriveSessionAddress(addr(1)),
		Session:   sess,
		Version:   version,
		UpdatedAt: 1700000000 + int64(version),
	}
}

func TestApplySnapshotOverwrites(t *testing.T) {
	p := NewProjection(engine.DeriveSessionAddress(addr(1)), addr(2))

	assert.True(t, p.ApplySnapshot(record(t, 3, nil)))
	v, ok := p.Snapshot()
	require.True(t, ok)
	assert.Equal(t, uint64(3), v.Version)
	assert.Equal(t, engine.StateWaiting, v.Session.State)
}

func TestApplySnapshotDiscardsStale(t *testing.T) {
	p := NewProjection(engine.DeriveSessionAddress(addr(1)), addr(2))
	require.True(t, p.ApplySnapshot(record(t, 5, nil)))

	// A duplicate and an older snapshot both leave the view untouched.
	assert.False(t, p.ApplySnapshot(record(t, 5, nil)))
	assert.False(t, p.ApplySnapshot(record(t, 4, nil)))
	v, _ := p.Snapshot()
	assert.Equal(t, uint64(5), v.Version)
}

func TestApplySnapshotNewIncarnation(t *testing.T) {
	p := NewProjection(engine.DeriveSessionAddress(addr(1)), addr(2))
	require.True(t, p.ApplySnapshot(record(t, 5, nil)))

	// Same address, different creation time: a fresh session after the old
	// one was archived. Its version restarts below the last applied one but
	// the snapshot must apply anyway.
	sess, err := engine.NewSession(addr(1), engine.Params{RequiredPlayers: 2, MinBid: 100}, 1700009999)
	require.NoError(t, err)
	fresh := ledger.Record{
		Address: engine.DeriveSessionAddress(addr(1)),
		Session: sess,
		Version: 1,
	}
	assert.True(t, p.ApplySnapshot(fresh))
	v, _ := p.Snapshot()
	assert.Equal(t, uint64(1), v.Version)
	assert.Equal(t, engine.StateCreated, v.Session.State)
}

func TestLastBidDerivation(t *testing.T) {
	p := NewProjection(engine.DeriveSessionAddress(addr(1)), addr(2))

	rec := record(t, 4, func(s *engine.Session) {
		require.NoError(t, s.Start(addr(1)))
		require.NoError(t, s.PlaceBid(addr(1), 7, 2, 100, 10))
		require.NoError(t, s.PlaceBid(addr(2), 7, 3, 100, 11))
		require.NoError(t, s.PlaceBid(addr(1), 8, 3, 100, 12))
	})
	rec.Bids = []engine.Bid{
		{Bidder: addr(1), Digit: 7, Quantity: 2, Stake: 100, Timestamp: 10},
		{Bidder: addr(2), Digit: 7, Quantity: 3, Stake: 100, Timestamp: 11},
		{Bidder: addr(1), Digit: 8, Quantity: 3, Stake: 100, Timestamp: 12},
	}
	require.True(t, p.ApplySnapshot(rec))

	v, _ := p.Snapshot()
	require.Len(t, v.Bids, 3)
	assert.Equal(t, uint8(8), v.LastBid[addr(1)].Digit)
	assert.Equal(t, uint8(7), v.LastBid[addr(2)].Digit)
	assert.Equal(t, int64(11), v.LastBid[addr(2)].Timestamp)
}

func TestOnRevealRequiredFiresOnce(t *testing.T) {
	p := NewProjection(engine.DeriveSessionAddress(addr(1)), addr(2))
	var fired int
	p.OnRevealRequired = func() { fired++ }

	revealing := func(version uint64) ledger.Record {
		return record(t, version, func(s *engine.Session) {
			require.NoError(t, s.Start(addr(1)))
			require.NoError(t, s.PlaceBid(addr(1), 7, 3, 100, 10))
			require.NoError(t, s.Challenge(addr(2)))
		})
	}
	require.True(t, p.ApplySnapshot(revealing(4)))
	require.True(t, p.ApplySnapshot(revealing(5)))
	assert.Equal(t, 1, fired)
}

func TestOnRevealRequiredSkipsRevealedObserver(t *testing.T) {
	p := NewProjection(engine.DeriveSessionAddress(addr(1)), addr(2))
	var fired int
	p.OnRevealRequired = func() { fired++ }

	rec := record(t, 5, func(s *engine.Session) {
		require.NoError(t, s.Start(addr(1)))
		require.NoError(t, s.PlaceBid(addr(1), 7, 1, 100, 10))
		require.NoError(t, s.Challenge(addr(2)))
		require.NoError(t, s.Reveal(addr(2), 1))
	})
	require.True(t, p.ApplySnapshot(rec))
	assert.Zero(t, fired)
}

func TestOnFinishedFiresOnce(t *testing.T) {
	p := NewProjection(engine.DeriveSessionAddress(addr(1)), addr(2))
	var winners []engine.Address
	var pools []uint64
	p.OnFinished = func(w engine.Address, pool uint64) {
		winners = append(winners, w)
		pools = append(pools, pool)
	}

	completed := func(version uint64) ledger.Record {
		return record(t, version, func(s *engine.Session) {
			require.NoError(t, s.Start(addr(1)))
			require.NoError(t, s.PlaceBid(addr(1), 7, 3, 100, 10))
			require.NoError(t, s.Challenge(addr(2)))
			// Zero 7s shown with one digit hidden falsifies the bid of
			// three; the challenger wins without the second reveal.
			require.NoError(t, s.Reveal(addr(1), 5))
		})
	}
	require.True(t, p.ApplySnapshot(completed(6)))
	require.True(t, p.ApplySnapshot(completed(7)))

	require.Len(t, winners, 1)
	assert.Equal(t, addr(2), winners[0])
	assert.Equal(t, uint64(100), pools[0])
}

func TestScratchSurvivesSnapshots(t *testing.T) {
	p := NewProjection(engine.DeriveSessionAddress(addr(1)), addr(2))
	p.SetChatDraft("nice bluff")
	p.SetInput("stake", "250")

	require.True(t, p.ApplySnapshot(record(t, 3, nil)))
	require.True(t, p.ApplySnapshot(record(t, 4, nil)))

	s := p.ScratchState()
	assert.Equal(t, "nice bluff", s.ChatDraft)
	assert.Equal(t, "250", s.Inputs["stake"])
}

func TestProjectorWatch(t *testing.T) {
	store := ledger.NewMemoryStore()
	bus := cache.NewBus()
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	prj := NewProjector(store, bus, logrus.NewEntry(l))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess, err := engine.NewSession(addr(1), engine.Params{RequiredPlayers: 2, MinBid: 100}, 1700000000)
	require.NoError(t, err)
	sAddr := engine.DeriveSessionAddress(addr(1))
	require.NoError(t, store.Commit(ctx, ledger.Commit{Record: ledger.Record{Address: sAddr, Session: sess}}))

	p := NewProjection(sAddr, addr(2))
	done := make(chan error, 1)
	go func() { done <- prj.Watch(ctx, p) }()

	// The initial refresh applies the existing record without any event.
	require.Eventually(t, func() bool {
		_, ok := p.Snapshot()
		return ok
	}, time.Second, 5*time.Millisecond)

	// A committed change plus a notification reaches the view.
	rec, err := store.GetSession(ctx, sAddr)
	require.NoError(t, err)
	require.NoError(t, rec.Session.Join(addr(2)))
	require.NoError(t, store.Commit(ctx, ledger.Commit{Record: rec, Expect: rec.Version}))
	require.NoError(t, bus.Publish(ctx, cache.Event{Kind: cache.EventSessionChanged, Session: sAddr}))

	require.Eventually(t, func() bool {
		v, ok := p.Snapshot()
		return ok && v.Session.NumPlayers == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}
