package memory

import (
	"context"
	"errors"
	"testing"

	"nftlend/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserveVersionGuard(t *testing.T) {
	ctx := context.Background()
	s := New()
	reserves := s.Reserves()

	r, err := reserves.Find(ctx, "usdc")
	require.NoError(t, err)
	assert.EqualValues(t, 0, r.Version)
	assert.False(t, r.Initialized())

	r = core.NewReserve("usdc", 100)
	require.NoError(t, reserves.Save(ctx, r))
	assert.EqualValues(t, 1, r.Version)

	stale := r.Clone()
	r.AvailableLiquidity = decimal.NewFromInt(10)
	require.NoError(t, reserves.Save(ctx, r))

	stale.AvailableLiquidity = decimal.NewFromInt(20)
	assert.ErrorIs(t, reserves.Save(ctx, stale), core.ErrVersionConflict)

	stored, err := reserves.Find(ctx, "usdc")
	require.NoError(t, err)
	assert.Equal(t, "10", stored.AvailableLiquidity.String())
	assert.EqualValues(t, 2, stored.Version)
}

func TestTxRollback(t *testing.T) {
	ctx := context.Background()
	s := New()
	accounts := s.Accounts()

	a := core.NewAccount("alice")
	a.PutToken(&core.NFTPosition{Collection: "punks", TokenID: "1", Owner: "alice"})
	require.NoError(t, accounts.Save(ctx, a))

	boom := errors.New("boom")
	err := s.Tx(ctx, func(ctx context.Context) error {
		a, err := accounts.Find(ctx, "alice")
		require.NoError(t, err)
		a.RemoveToken("punks", "1")
		a.PutToken(&core.NFTPosition{Collection: "punks", TokenID: "2", Owner: "alice"})
		require.NoError(t, accounts.Save(ctx, a))

		require.NoError(t, s.Reserves().Save(ctx, core.NewReserve("usdc", 1)))
		require.NoError(t, s.Events().Create(ctx, &core.LiquidationEvent{TraceID: "t1", Borrower: "alice"}))
		return boom
	})
	assert.Equal(t, boom, err)

	owner, err := accounts.FindTokenOwner(ctx, "punks", "1")
	require.NoError(t, err)
	assert.Equal(t, "alice", owner)

	owner, err = accounts.FindTokenOwner(ctx, "punks", "2")
	require.NoError(t, err)
	assert.Empty(t, owner)

	stored, err := accounts.Find(ctx, "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 1, stored.Version)

	r, err := s.Reserves().Find(ctx, "usdc")
	require.NoError(t, err)
	assert.EqualValues(t, 0, r.Version)

	events, err := s.Events().List(ctx, "", 0)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestListBorrowers(t *testing.T) {
	ctx := context.Background()
	s := New()

	for _, id := range []string{"carol", "alice", "bob"} {
		a := core.NewAccount(id)
		if id != "bob" {
			require.NoError(t, a.Config.SetBorrowing(0, true))
		}
		require.NoError(t, s.Accounts().Save(ctx, a))
	}

	users, err := s.Accounts().ListBorrowers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "carol"}, users)
}

func TestEvents(t *testing.T) {
	ctx := context.Background()
	s := New()
	events := s.Events()

	require.NoError(t, events.Create(ctx, &core.LiquidationEvent{TraceID: "a", Borrower: "alice"}))
	require.NoError(t, events.Create(ctx, &core.LiquidationEvent{TraceID: "b", Borrower: "bob"}))
	require.NoError(t, events.Create(ctx, &core.LiquidationEvent{TraceID: "c", Borrower: "alice"}))
	// duplicate trace id
	require.NoError(t, events.Create(ctx, &core.LiquidationEvent{TraceID: "a", Borrower: "alice"}))

	all, err := events.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].TraceID)

	alice, err := events.List(ctx, "alice", 1)
	require.NoError(t, err)
	require.Len(t, alice, 1)
	assert.Equal(t, "c", alice[0].TraceID)
}
