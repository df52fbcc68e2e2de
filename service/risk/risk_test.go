package risk

import (
	"context"
	"testing"

	"nftlend/core"
	"nftlend/internal/oracle"
	"nftlend/pkg/lending"
	"nftlend/service/auction"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticReserves map[string]*core.Reserve

func (s staticReserves) Reserve(ctx context.Context, assetID string) (*core.Reserve, error) {
	if r, ok := s[assetID]; ok {
		return r, nil
	}

	return core.NewReserve(assetID, 0), nil
}

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func setup(t *testing.T) (*Aggregator, *oracle.Static, *core.AssetRegistry) {
	assets, err := core.NewAssetRegistry([]*core.AssetConfig{
		{ID: 0, AssetID: "a", Decimals: 18, LTV: 8000, LiquidationThreshold: 9000, LiquidationBonus: 10500, Active: true, Collateralizable: true, Borrowable: true},
		{ID: 1, AssetID: "b", Decimals: 6, LTV: 7000, LiquidationThreshold: 7500, LiquidationBonus: 11000, Active: true, Collateralizable: true, Borrowable: true},
		{ID: 2, AssetID: "punks", Kind: core.AssetKindNonFungible, LTV: 4000, LiquidationThreshold: 6000, LiquidationBonus: 10500, Active: true, Collateralizable: true},
	})
	require.NoError(t, err)

	registry, err := auction.NewRegistry([]auction.Config{{
		Collection:         "punks",
		TickLength:         100,
		MinPriceMultiplier: d("0.5"),
		MaxPriceMultiplier: d("1"),
		Step:               d("0.1"),
	}})
	require.NoError(t, err)

	o := oracle.NewStatic()
	o.SetAssetPrice("a", d("1"))
	o.SetAssetPrice("b", d("1"))
	o.SetCollectionPrice("punks", d("1000"))

	return New(assets, o, auction.New(registry)), o, assets
}

func supply(t *testing.T, acc *core.Account, id uint16, assetID, amount string) {
	s, err := core.Scale(d(amount), decimal.New(1, 0))
	require.NoError(t, err)
	acc.Balance(assetID).ScaledSupply = s
	require.NoError(t, acc.Config.SetUsingAsCollateral(id, true))
}

func borrow(t *testing.T, acc *core.Account, id uint16, assetID, amount string) {
	s, err := core.Scale(d(amount), decimal.New(1, 0))
	require.NoError(t, err)
	acc.Balance(assetID).ScaledDebt = s
	require.NoError(t, acc.Config.SetBorrowing(id, true))
}

func TestComputeAccountDataNoDebt(t *testing.T) {
	ctx := context.Background()
	agg, _, _ := setup(t)

	acc := core.NewAccount("alice")
	supply(t, acc, 0, "a", "100")

	data, err := agg.ComputeAccountData(ctx, acc, staticReserves{}, 0)
	require.NoError(t, err)
	assert.Equal(t, "100", data.TotalCollateralValue.String())
	assert.True(t, data.HealthFactor.Equal(lending.HealthFactorMax))
	assert.True(t, data.NftHealthFactor.Equal(lending.HealthFactorMax))
	assert.Equal(t, "80", data.AvailableToBorrow.String())
}

func TestComputeAccountDataWeighted(t *testing.T) {
	ctx := context.Background()
	agg, _, _ := setup(t)

	acc := core.NewAccount("alice")
	supply(t, acc, 0, "a", "100")
	supply(t, acc, 1, "b", "100")
	borrow(t, acc, 1, "b", "50")

	data, err := agg.ComputeAccountData(ctx, acc, staticReserves{}, 0)
	require.NoError(t, err)
	assert.Equal(t, "7500", data.WeightedLTV.String())
	assert.Equal(t, "8250", data.WeightedLiquidationThreshold.String())
	// 200 * 0.825 / 50
	assert.Equal(t, "3.3", data.HealthFactor.String())
	assert.Equal(t, "100", data.AvailableToBorrow.String())
}

func TestComputeAccountDataAuction(t *testing.T) {
	ctx := context.Background()
	agg, _, _ := setup(t)

	acc := core.NewAccount("bob")
	pos := &core.NFTPosition{Collection: "punks", TokenID: "1", Owner: "bob", UseAsCollateral: true}
	acc.PutToken(pos)
	require.NoError(t, acc.Config.SetUsingAsCollateral(2, true))
	borrow(t, acc, 0, "a", "300")

	data, err := agg.ComputeAccountData(ctx, acc, staticReserves{}, 0)
	require.NoError(t, err)
	assert.Equal(t, "1000", data.TotalCollateralValue.String())
	assert.Equal(t, "2", data.HealthFactor.String())

	pos.Auction = &core.AuctionState{StartTime: 0, TickLength: 100, MinPriceMultiplier: d("0.5"), MaxPriceMultiplier: d("1"), Step: d("0.1")}
	data, err = agg.ComputeAccountData(ctx, acc, staticReserves{}, 300)
	require.NoError(t, err)
	assert.Equal(t, "700", data.TotalCollateralValue.String())
	assert.Equal(t, "1.4", data.NftHealthFactor.String())
}

func TestComputeAccountDataBadDebt(t *testing.T) {
	ctx := context.Background()
	agg, _, _ := setup(t)

	acc := core.NewAccount("carol")
	borrow(t, acc, 0, "a", "1")

	data, err := agg.ComputeAccountData(ctx, acc, staticReserves{}, 0)
	require.NoError(t, err)
	assert.True(t, data.HealthFactor.IsZero())
	assert.True(t, data.NftHealthFactor.IsZero())
	assert.True(t, data.BadDebt())
	assert.True(t, data.AvailableToBorrow.IsZero())
}

func TestComputeAccountDataPriceDrop(t *testing.T) {
	ctx := context.Background()
	agg, o, _ := setup(t)

	acc := core.NewAccount("dave")
	supply(t, acc, 0, "a", "10000")
	borrow(t, acc, 1, "b", "9000")

	data, err := agg.ComputeAccountData(ctx, acc, staticReserves{}, 0)
	require.NoError(t, err)
	assert.Equal(t, "1", data.HealthFactor.String())

	o.SetAssetPrice("a", d("0.85"))
	data, err = agg.ComputeAccountData(ctx, acc, staticReserves{}, 0)
	require.NoError(t, err)
	assert.True(t, data.HealthFactor.LessThan(lending.HealthFactorLiquidationThreshold))
}

func TestVerifyConfiguration(t *testing.T) {
	_, _, assets := setup(t)

	acc := core.NewAccount("erin")
	supply(t, acc, 0, "a", "1")
	require.NoError(t, VerifyConfiguration(assets, acc))

	require.NoError(t, acc.Config.SetBorrowing(1, true))
	assert.ErrorIs(t, VerifyConfiguration(assets, acc), core.ErrInvariantUserConfigDrift)
	require.NoError(t, acc.Config.SetBorrowing(1, false))

	acc.PutToken(&core.NFTPosition{Collection: "punks", TokenID: "3", UseAsCollateral: true})
	assert.ErrorIs(t, VerifyConfiguration(assets, acc), core.ErrInvariantUserConfigDrift)
	require.NoError(t, acc.Config.SetUsingAsCollateral(2, true))
	require.NoError(t, VerifyConfiguration(assets, acc))
}
