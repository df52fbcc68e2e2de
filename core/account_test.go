package core

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaledAmount(t *testing.T) {
	index := decimal.RequireFromString("1.25")
	s, err := Scale(decimal.NewFromInt(100), index)
	require.NoError(t, err)
	assert.Equal(t, "80", s.Raw().String())
	assert.True(t, s.Reindex(index).Equal(decimal.NewFromInt(100)))
	assert.True(t, s.Reindex(decimal.RequireFromString("1.5")).Equal(decimal.NewFromInt(120)))

	_, err = Scale(decimal.NewFromInt(1), decimal.Zero)
	assert.ErrorIs(t, err, ErrInvariantDivisionByZero)

	_, err = Scale(decimal.NewFromInt(-1), index)
	assert.ErrorIs(t, err, ErrInvariantNegativeValue)

	_, err = ZeroScaled.Sub(s)
	assert.ErrorIs(t, err, ErrInvariantNegativeValue)
	assert.True(t, IsInvariant(err))
}

func TestAccountClone(t *testing.T) {
	a := NewAccount("alice")
	a.Balance("usdc").ScaledSupply = ScaledFromDecimal(decimal.NewFromInt(10))
	require.NoError(t, a.Config.SetUsingAsCollateral(1, true))
	a.PutToken(&NFTPosition{
		Collection: "punks",
		TokenID:    "7",
		Owner:      "alice",
		Auction:    &AuctionState{StartTime: 1},
	})

	c := a.Clone()
	c.Balance("usdc").ScaledSupply = ZeroScaled
	c.Token("punks", "7").Auction.StartTime = 99
	require.NoError(t, c.Config.SetUsingAsCollateral(1, false))

	assert.Equal(t, "10", a.Balance("usdc").ScaledSupply.String())
	assert.Equal(t, int64(1), a.Token("punks", "7").Auction.StartTime)
	assert.True(t, a.Config.IsUsingAsCollateral(1))
}

func TestAccountJSON(t *testing.T) {
	a := NewAccount("bob")
	a.Balance("weth").ScaledDebt = ScaledFromDecimal(decimal.RequireFromString("1.000000000000000000000000001"))
	require.NoError(t, a.Config.SetBorrowing(2, true))
	a.PutToken(&NFTPosition{Collection: "apes", TokenID: "1", Owner: "bob", UseAsCollateral: true})

	b, err := json.Marshal(a)
	require.NoError(t, err)

	var out Account
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, "1.000000000000000000000000001", out.Balance("weth").ScaledDebt.String())
	assert.True(t, out.Config.IsBorrowing(2))
	assert.True(t, out.Token("apes", "1").UseAsCollateral)
	assert.Len(t, out.CollectionTokens("apes"), 1)
}

func TestAssetRegistry(t *testing.T) {
	_, err := NewAssetRegistry([]*AssetConfig{
		{ID: 0, AssetID: "a", LTV: 8000, LiquidationThreshold: 8500, LiquidationBonus: 10500, Active: true},
		{ID: 0, AssetID: "b", LTV: 8000, LiquidationThreshold: 8500, LiquidationBonus: 10500, Active: true},
	})
	assert.ErrorIs(t, err, ErrInvalidAssetConfig)

	_, err = NewAssetRegistry([]*AssetConfig{
		{ID: 0, AssetID: "a", LTV: 9000, LiquidationThreshold: 8500, LiquidationBonus: 10500},
	})
	assert.ErrorIs(t, err, ErrInvalidAssetConfig, "threshold below ltv")

	r, err := NewAssetRegistry([]*AssetConfig{
		{ID: 5, AssetID: "b", LTV: 8000, LiquidationThreshold: 8500, LiquidationBonus: 10500},
		{ID: 1, AssetID: "a", LTV: 8000, LiquidationThreshold: 8500, LiquidationBonus: 10500},
	})
	require.NoError(t, err)
	assert.Equal(t, "a", r.All()[0].AssetID)

	c, ok := r.FindByID(5)
	require.True(t, ok)
	assert.Equal(t, "b", c.AssetID)
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "100202 health factor not below threshold", ErrHealthFactorNotBelowThreshold.Error())
	assert.True(t, ErrInvariantOverflow.IsInvariant())
	assert.False(t, ErrInsufficientBalance.IsInvariant())
	assert.Equal(t, ErrReserveFrozen, CodeOf(ErrReserveFrozen))
}
