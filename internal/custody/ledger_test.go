package custody

import (
	"context"
	"testing"

	"nftlend/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerUnderlying(t *testing.T) {
	ctx := context.Background()
	l := NewLedger()
	l.Fund("usdc", "alice", decimal.NewFromInt(100))

	require.NoError(t, l.TransferUnderlying(ctx, "usdc", "alice", core.PoolAccount, decimal.NewFromInt(60)))
	assert.Equal(t, "40", l.BalanceOf("usdc", "alice").String())
	assert.Equal(t, "60", l.BalanceOf("usdc", core.PoolAccount).String())

	err := l.TransferUnderlying(ctx, "usdc", "alice", core.PoolAccount, decimal.NewFromInt(41))
	assert.ErrorIs(t, err, core.ErrInsufficientBalance)
	assert.Equal(t, "40", l.BalanceOf("usdc", "alice").String())
}

func TestLedgerShares(t *testing.T) {
	ctx := context.Background()
	l := NewLedger()

	require.NoError(t, l.MintShare(ctx, "usdc", "alice", decimal.NewFromInt(10)))
	require.NoError(t, l.BurnShare(ctx, "usdc", "alice", decimal.NewFromInt(4)))
	assert.Equal(t, "6", l.ShareOf("usdc", "alice").String())
	assert.ErrorIs(t, l.BurnShare(ctx, "usdc", "alice", decimal.NewFromInt(7)), core.ErrInsufficientBalance)
}

func TestLedgerNFT(t *testing.T) {
	ctx := context.Background()
	l := NewLedger()
	l.MintNFT("punks", "1", "alice")

	assert.ErrorIs(t, l.TransferNFT(ctx, "punks", "1", "bob", core.PoolAccount), core.ErrTokenNotOwned)
	require.NoError(t, l.TransferNFT(ctx, "punks", "1", "alice", core.PoolAccount))

	owner, err := l.OwnerOf(ctx, "punks", "1")
	require.NoError(t, err)
	assert.Equal(t, core.PoolAccount, owner)
}
