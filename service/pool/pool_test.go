package pool

import (
	"context"
	"fmt"
	"testing"

	"nftlend/core"
	"nftlend/internal/custody"
	"nftlend/internal/oracle"
	"nftlend/internal/ratemodel"
	"nftlend/pkg/lending"
	"nftlend/service/accrual"
	"nftlend/service/auction"
	"nftlend/service/liquidation"
	"nftlend/service/state"
	"nftlend/store/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

type fixture struct {
	pool   *Pool
	ledger *custody.Ledger
	prices *oracle.Static
	store  *memory.Store
	now    int64
}

func newFixture(t *testing.T) *fixture {
	assets, err := core.NewAssetRegistry([]*core.AssetConfig{
		{ID: 0, AssetID: "usdc", Symbol: "USDC", Decimals: 6, LTV: 8000, LiquidationThreshold: 8500, LiquidationBonus: 10500, Active: true, Collateralizable: true, Borrowable: true},
		{ID: 1, AssetID: "weth", Symbol: "WETH", Decimals: 18, LTV: 7500, LiquidationThreshold: 8000, LiquidationBonus: 11000, LiquidationProtocolFee: 1000, ReserveFactor: 1000, Active: true, Collateralizable: true, Borrowable: true, BaseRate: d("0.02"), Multiplier: d("0.2"), JumpMultiplier: d("1"), Kink: d("0.8")},
		{ID: 2, AssetID: "punks", Kind: core.AssetKindNonFungible, LTV: 5000, LiquidationThreshold: 7000, LiquidationBonus: 10500, Active: true, Collateralizable: true},
		{ID: 3, AssetID: "apes", Kind: core.AssetKindNonFungible, LTV: 5000, LiquidationThreshold: 7000, LiquidationBonus: 10500, Active: true, Collateralizable: true},
	})
	require.NoError(t, err)

	strategies, err := auction.NewRegistry([]auction.Config{{
		Collection:         "punks",
		Strategy:           auction.StrategyLinear,
		TickLength:         3600,
		MinPriceMultiplier: d("0.8"),
		MaxPriceMultiplier: d("1"),
		Step:               d("0.05"),
	}})
	require.NoError(t, err)

	f := &fixture{
		ledger: custody.NewLedger(),
		prices: oracle.NewStatic(),
		store:  memory.New(),
		now:    1700000000,
	}

	f.prices.SetAssetPrice("usdc", d("1"))
	f.prices.SetAssetPrice("weth", d("1000"))
	f.prices.SetCollectionPrice("punks", d("100"))
	f.prices.SetCollectionPrice("apes", d("100"))

	deps := &state.Deps{
		Assets:   assets,
		Tracker:  accrual.New(ratemodel.New()),
		Reserves: f.store.Reserves(),
		Accounts: f.store.Accounts(),
		Events:   f.store.Events(),
	}

	f.pool = New(
		Config{SecondsPerBlock: 15, RecoveryHealthFactor: d("1.5"), Treasury: "treasury"},
		deps, f.store, f.ledger, f.prices, strategies,
		WithClock(func() int64 { return f.now }),
	)

	return f
}

func (f *fixture) advance(seconds int64) {
	f.now += seconds
}

// seed funds user and supplies amount of asset
func (f *fixture) seed(t *testing.T, user, asset, amount string) {
	f.ledger.Fund(asset, user, d(amount))
	require.NoError(t, f.pool.Supply(context.Background(), user, asset, d(amount)))
}

func (f *fixture) supplyPunk(t *testing.T, user, collection, tokenID string) {
	f.ledger.MintNFT(collection, tokenID, user)
	require.NoError(t, f.pool.SupplyNonFungible(context.Background(), user, collection, []string{tokenID}))
}

func (f *fixture) custodyOwner(t *testing.T, collection, tokenID string) string {
	owner, err := f.ledger.OwnerOf(context.Background(), collection, tokenID)
	require.NoError(t, err)
	return owner
}

func (f *fixture) debt(t *testing.T, user, asset string) decimal.Decimal {
	view, err := f.pool.Account(context.Background(), user)
	require.NoError(t, err)
	return view.Debts[asset]
}

func (f *fixture) supplied(t *testing.T, user, asset string) decimal.Decimal {
	view, err := f.pool.Account(context.Background(), user)
	require.NoError(t, err)
	return view.Supplies[asset]
}

func TestSupplyWithdraw(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.seed(t, "alice", "usdc", "100")
	assert.Equal(t, "100", f.supplied(t, "alice", "usdc").String())
	assert.True(t, f.ledger.BalanceOf("usdc", "alice").IsZero())
	assert.Equal(t, "100", f.ledger.ShareOf("usdc", "alice").String())

	data, err := f.pool.ComputeAccountData(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "80", data.AvailableToBorrow.String())

	_, err = f.pool.Withdraw(ctx, "alice", "usdc", d("101"))
	assert.ErrorIs(t, err, core.ErrInsufficientBalance)

	withdrawn, err := f.pool.Withdraw(ctx, "alice", "usdc", lending.MaxAmount)
	require.NoError(t, err)
	assert.Equal(t, "100", withdrawn.String())
	assert.Equal(t, "100", f.ledger.BalanceOf("usdc", "alice").String())
	assert.True(t, f.ledger.ShareOf("usdc", "alice").IsZero())

	view, err := f.pool.Account(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, view.Account.Config.IsEmpty())

	assert.ErrorIs(t, f.pool.Supply(ctx, "alice", "punks", d("1")), core.ErrInvalidAssetType)
	assert.ErrorIs(t, f.pool.Supply(ctx, "alice", "usdc", d("0")), core.ErrInvalidAmount)
	assert.ErrorIs(t, f.pool.Supply(ctx, "alice", "doge", d("1")), core.ErrAssetNotFound)
}

func TestBorrowLimits(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "lp", "usdc", "10000")

	assert.ErrorIs(t, f.pool.Borrow(ctx, "bob", "usdc", d("1")), core.ErrCollateralCannotCoverNewBorrow)

	f.seed(t, "bob", "weth", "1")
	assert.ErrorIs(t, f.pool.Borrow(ctx, "bob", "usdc", d("751")), core.ErrCollateralCannotCoverNewBorrow)
	require.NoError(t, f.pool.Borrow(ctx, "bob", "usdc", d("750")))
	assert.Equal(t, "750", f.ledger.BalanceOf("usdc", "bob").String())
	assert.Equal(t, "750", f.debt(t, "bob", "usdc").String())

	data, err := f.pool.ComputeAccountData(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, data.AvailableToBorrow.IsZero())

	// collateral still backs the debt
	_, err = f.pool.Withdraw(ctx, "bob", "weth", d("0.1"))
	assert.ErrorIs(t, err, core.ErrHealthFactorLowerThanLiquidationThreshold)
	assert.ErrorIs(t, f.pool.SetAssetCollateral(ctx, "bob", "weth", false), core.ErrHealthFactorLowerThanLiquidationThreshold)

	r, err := f.pool.Reserve(ctx, "usdc")
	require.NoError(t, err)
	assert.Equal(t, "9250", r.AvailableLiquidity.String())
}

func TestSameBlockBorrowRepay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "lp", "usdc", "10000")
	f.seed(t, "bob", "weth", "1")

	require.NoError(t, f.pool.Borrow(ctx, "bob", "usdc", d("100")))
	_, err := f.pool.Repay(ctx, "bob", "usdc", d("10"))
	assert.ErrorIs(t, err, core.ErrSameBlockBorrowRepay)

	f.advance(15)
	repaid, err := f.pool.Repay(ctx, "bob", "usdc", d("10"))
	require.NoError(t, err)
	assert.Equal(t, "10", repaid.String())

	assert.ErrorIs(t, f.pool.Borrow(ctx, "bob", "usdc", d("10")), core.ErrSameBlockBorrowRepay)

	f.advance(15)
	require.NoError(t, f.pool.Borrow(ctx, "bob", "usdc", d("10")))
	assert.Equal(t, "100", f.debt(t, "bob", "usdc").String())

	_, err = f.pool.Repay(ctx, "carol", "usdc", d("1"))
	assert.ErrorIs(t, err, core.ErrNoDebtOfSelectedType)
}

func TestInterestAccrual(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "lp", "weth", "10")
	f.seed(t, "carol", "usdc", "100000")

	require.NoError(t, f.pool.Borrow(ctx, "carol", "weth", d("5")))

	before, err := f.pool.Reserve(ctx, "weth")
	require.NoError(t, err)
	assert.Equal(t, "0.5", before.Utilization().String())
	assert.Equal(t, "0.12", before.VariableBorrowRate.String())

	f.advance(lending.SecondsPerYear)

	after, err := f.pool.Reserve(ctx, "weth")
	require.NoError(t, err)
	assert.True(t, after.LiquidityIndex.GreaterThan(before.LiquidityIndex))
	assert.True(t, after.VariableBorrowIndex.GreaterThan(before.VariableBorrowIndex))
	assert.True(t, after.AccruedToTreasury.IsPositive())

	debt := f.debt(t, "carol", "weth")
	assert.True(t, debt.GreaterThan(d("5.6")), debt.String())
	assert.True(t, debt.LessThan(d("5.7")), debt.String())
	assert.True(t, f.supplied(t, "lp", "weth").GreaterThan(d("10.5")))

	f.ledger.Fund("weth", "carol", d("1"))
	repaid, err := f.pool.Repay(ctx, "carol", "weth", lending.MaxAmount)
	require.NoError(t, err)
	assert.True(t, repaid.Equal(debt))

	view, err := f.pool.Account(ctx, "carol")
	require.NoError(t, err)
	assert.False(t, view.Account.Config.IsBorrowingAny())
	assert.Empty(t, view.Debts)
}

// alice: 1 weth collateral, 700 usdc debt
func setupFungibleLiquidation(t *testing.T) *fixture {
	f := newFixture(t)
	f.seed(t, "lp", "usdc", "10000")
	f.seed(t, "alice", "weth", "1")
	require.NoError(t, f.pool.Borrow(context.Background(), "alice", "usdc", d("700")))

	f.prices.SetAssetPrice("weth", d("850"))
	f.advance(60)
	return f
}

func TestLiquidateFungible(t *testing.T) {
	ctx := context.Background()
	f := setupFungibleLiquidation(t)
	f.ledger.Fund("usdc", "liquidator", d("1000"))

	result, err := f.pool.LiquidateFungible(ctx, liquidation.FungibleRequest{
		Borrower:        "alice",
		Liquidator:      "liquidator",
		CollateralAsset: "weth",
		DebtAsset:       "usdc",
		DebtToCover:     lending.MaxAmount,
	})
	require.NoError(t, err)

	// close factor 50% above 0.95
	assert.Equal(t, "350", result.TotalDebtRepaid().String())
	assert.Equal(t, "350", f.debt(t, "alice", "usdc").String())
	assert.True(t, result.After.HealthFactor.GreaterThan(result.Before.HealthFactor))
	assert.True(t, result.ProtocolFee.IsPositive())
	assert.True(t, result.ProtocolFee.Add(result.LiquidatorReceived).Equal(result.CollateralSeized))

	assert.Equal(t, "650", f.ledger.BalanceOf("usdc", "liquidator").String())
	assert.True(t, f.ledger.BalanceOf("weth", "liquidator").Equal(result.LiquidatorReceived))
	assert.True(t, f.supplied(t, "treasury", "weth").Equal(result.ProtocolFee))
	assert.True(t, f.supplied(t, "alice", "weth").Equal(d("1").Sub(result.CollateralSeized)))

	events, err := f.pool.Liquidations(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, result.TraceID, events[0].TraceID)
}

func TestLiquidateFungibleCashRefund(t *testing.T) {
	ctx := context.Background()
	f := setupFungibleLiquidation(t)
	f.ledger.Fund("usdc", "liquidator", d("1000"))

	result, err := f.pool.LiquidateFungible(ctx, liquidation.FungibleRequest{
		Borrower:        "alice",
		Liquidator:      "liquidator",
		CollateralAsset: "weth",
		DebtAsset:       "usdc",
		DebtToCover:     d("500"),
		ReceiveAsShare:  true,
		Cash:            true,
	})
	require.NoError(t, err)

	assert.Equal(t, "150", result.Refund.String())
	assert.Equal(t, "650", f.ledger.BalanceOf("usdc", "liquidator").String())
	assert.True(t, f.supplied(t, "liquidator", "weth").Equal(result.LiquidatorReceived))
	assert.True(t, f.ledger.BalanceOf("weth", "liquidator").IsZero())

	_, err = f.pool.LiquidateFungible(ctx, liquidation.FungibleRequest{
		Borrower:        "alice",
		Liquidator:      "liquidator",
		CollateralAsset: "weth",
		DebtAsset:       "usdc",
		DebtToCover:     lending.MaxAmount,
		Cash:            true,
	})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
}

func TestLiquidateFungibleRejects(t *testing.T) {
	ctx := context.Background()
	f := setupFungibleLiquidation(t)

	req := liquidation.FungibleRequest{
		Borrower:        "alice",
		Liquidator:      "liquidator",
		CollateralAsset: "weth",
		DebtAsset:       "usdc",
		DebtToCover:     d("100"),
	}

	self := req
	self.Liquidator = "alice"
	_, err := f.pool.LiquidateFungible(ctx, self)
	assert.ErrorIs(t, err, core.ErrSelfLiquidation)

	wrongDebt := req
	wrongDebt.DebtAsset = "weth"
	_, err = f.pool.LiquidateFungible(ctx, wrongDebt)
	assert.ErrorIs(t, err, core.ErrSpecifiedCurrencyNotBorrowed)

	wrongCollateral := req
	wrongCollateral.CollateralAsset = "usdc"
	_, err = f.pool.LiquidateFungible(ctx, wrongCollateral)
	assert.ErrorIs(t, err, core.ErrCollateralCannotBeLiquidated)

	// liquidator has no usdc
	_, err = f.pool.LiquidateFungible(ctx, req)
	assert.ErrorIs(t, err, core.ErrInsufficientBalance)
	assert.Equal(t, "700", f.debt(t, "alice", "usdc").String())
	assert.Equal(t, "1", f.supplied(t, "alice", "weth").String())

	weth, ok := f.pool.deps.Assets.Find("weth")
	require.True(t, ok)
	weth.Active = false
	_, err = f.pool.LiquidateFungible(ctx, req)
	assert.ErrorIs(t, err, core.ErrCollateralCannotBeLiquidated)
	weth.Active = true

	weth.Frozen = true
	_, err = f.pool.LiquidateFungible(ctx, req)
	assert.ErrorIs(t, err, core.ErrCollateralCannotBeLiquidated)
	weth.Frozen = false

	f.prices.SetAssetPrice("weth", d("1000"))
	_, err = f.pool.LiquidateFungible(ctx, req)
	assert.ErrorIs(t, err, core.ErrHealthFactorNotBelowThreshold)
}

func TestLiquidateFungibleFullCloseFactor(t *testing.T) {
	ctx := context.Background()
	f := setupFungibleLiquidation(t)
	f.ledger.Fund("usdc", "liquidator", d("1000"))

	// health factor 800 * 0.8 / 700 ~ 0.914, at or below 0.95
	f.prices.SetAssetPrice("weth", d("800"))

	result, err := f.pool.LiquidateFungible(ctx, liquidation.FungibleRequest{
		Borrower:        "alice",
		Liquidator:      "liquidator",
		CollateralAsset: "weth",
		DebtAsset:       "usdc",
		DebtToCover:     lending.MaxAmount,
	})
	require.NoError(t, err)
	assert.True(t, result.Before.HealthFactor.LessThanOrEqual(lending.CloseFactorHFThreshold))

	assert.Equal(t, "700", result.TotalDebtRepaid().String())
	assert.Equal(t, "0.9625", result.CollateralSeized.String())
	assert.Equal(t, "0.00875", result.ProtocolFee.String())
	assert.True(t, f.debt(t, "alice", "usdc").IsZero())

	view, err := f.pool.Account(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, view.Account.Config.IsBorrowingAny())
	assert.Equal(t, "0.0375", view.Supplies["weth"].String())
	assert.True(t, view.Data.HealthFactor.Equal(lending.HealthFactorMax))
}

func TestLiquidateFungibleBadDebt(t *testing.T) {
	ctx := context.Background()
	f := setupFungibleLiquidation(t)
	f.ledger.Fund("usdc", "liquidator", d("1000"))

	// 700 usdc at a 10% bonus needs more weth than alice holds
	f.prices.SetAssetPrice("weth", d("600"))

	result, err := f.pool.LiquidateFungible(ctx, liquidation.FungibleRequest{
		Borrower:        "alice",
		Liquidator:      "liquidator",
		CollateralAsset: "weth",
		DebtAsset:       "usdc",
		DebtToCover:     lending.MaxAmount,
	})
	require.NoError(t, err)

	assert.Equal(t, "1", result.CollateralSeized.String())
	assert.Equal(t, "545.454545", result.TotalDebtRepaid().String())
	assert.True(t, result.ProtocolFee.Add(result.LiquidatorReceived).Equal(result.CollateralSeized))

	assert.True(t, result.After.HealthFactor.IsZero())
	assert.True(t, result.After.NftHealthFactor.IsZero())
	assert.True(t, result.After.BadDebt())
	assert.Equal(t, StateBadDebt, f.pool.RiskState(&result.After))

	view, err := f.pool.Account(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, view.Account.Config.IsBorrowing(0))
	assert.False(t, view.Account.Config.IsUsingAsCollateral(1))
	assert.Equal(t, "154.545455", view.Debts["usdc"].String())
	assert.True(t, view.Supplies["weth"].IsZero())
}

func TestLiquidateFungibleResupplyRestoresCollateral(t *testing.T) {
	ctx := context.Background()
	f := setupFungibleLiquidation(t)
	f.ledger.Fund("usdc", "liquidator", d("1000"))

	result, err := f.pool.LiquidateFungible(ctx, liquidation.FungibleRequest{
		Borrower:        "alice",
		Liquidator:      "liquidator",
		CollateralAsset: "weth",
		DebtAsset:       "usdc",
		DebtToCover:     d("200"),
	})
	require.NoError(t, err)
	assert.True(t, result.After.TotalCollateralValue.LessThan(result.Before.TotalCollateralValue))

	// seized includes the protocol fee
	f.seed(t, "alice", "weth", result.CollateralSeized.String())

	data, err := f.pool.ComputeAccountData(ctx, "alice")
	require.NoError(t, err)
	diff := data.TotalCollateralValue.Sub(result.Before.TotalCollateralValue).Abs()
	assert.True(t, diff.LessThanOrEqual(d("0.000001")), diff.String())
}

// bob: punk #1 priced 100, 50 usdc debt, nft health factor 1.4
func setupPunk(t *testing.T) *fixture {
	f := newFixture(t)
	f.seed(t, "lp", "usdc", "10000")
	f.supplyPunk(t, "bob", "punks", "1")
	require.NoError(t, f.pool.Borrow(context.Background(), "bob", "usdc", d("50")))
	f.advance(15)
	return f
}

func TestAuctionLifecycle(t *testing.T) {
	ctx := context.Background()
	f := setupPunk(t)

	data, err := f.pool.ComputeAccountData(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "1.4", data.NftHealthFactor.String())

	require.NoError(t, f.pool.StartAuction(ctx, "bob", "punks", "1"))
	assert.ErrorIs(t, f.pool.StartAuction(ctx, "bob", "punks", "1"), core.ErrAuctionAlreadyStarted)
	assert.ErrorIs(t, f.pool.EndAuction(ctx, "bob", "punks", "1"), core.ErrHealthFactorNotRecovered)

	f.advance(2 * 3600)
	m, err := f.pool.AuctionMultiplier(ctx, "punks", "1")
	require.NoError(t, err)
	assert.Equal(t, "0.9", m.String())

	assert.ErrorIs(t, f.pool.WithdrawNonFungible(ctx, "bob", "punks", []string{"1"}), core.ErrTokenInAuction)
	assert.ErrorIs(t, f.pool.SetCollateralFlag(ctx, "bob", "punks", "1", false), core.ErrTokenInAuction)

	f.prices.SetCollectionPrice("punks", d("300"))
	require.NoError(t, f.pool.EndAuction(ctx, "bob", "punks", "1"))
	assert.ErrorIs(t, f.pool.StartAuction(ctx, "bob", "punks", "1"), core.ErrHealthFactorNotBelowRecovery)

	m, err = f.pool.AuctionMultiplier(ctx, "punks", "1")
	require.NoError(t, err)
	assert.Equal(t, "1", m.String())
}

func TestRepayAllEndsAuctions(t *testing.T) {
	ctx := context.Background()
	f := setupPunk(t)

	require.NoError(t, f.pool.StartAuction(ctx, "bob", "punks", "1"))
	f.advance(15)

	_, err := f.pool.Repay(ctx, "bob", "usdc", lending.MaxAmount)
	require.NoError(t, err)

	view, err := f.pool.Account(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, view.Account.Token("punks", "1").InAuction())

	require.NoError(t, f.pool.WithdrawNonFungible(ctx, "bob", "punks", []string{"1"}))
	owner, err := f.pool.OwnerOf(ctx, "punks", "1")
	require.NoError(t, err)
	assert.Equal(t, "bob", owner)
	assert.Equal(t, "bob", f.custodyOwner(t, "punks", "1"))
}

func TestSupplyNonFungible(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.supplyPunk(t, "bob", "punks", "1")

	owner, err := f.pool.OwnerOf(ctx, "punks", "1")
	require.NoError(t, err)
	assert.Equal(t, "bob", owner)
	assert.Equal(t, core.PoolAccount, f.custodyOwner(t, "punks", "1"))

	assert.ErrorIs(t, f.pool.SupplyNonFungible(ctx, "carol", "punks", []string{"1"}), core.ErrTokenAlreadySupplied)
	assert.ErrorIs(t, f.pool.WithdrawNonFungible(ctx, "carol", "punks", []string{"1"}), core.ErrTokenNotOwned)

	// not owned in custody
	assert.ErrorIs(t, f.pool.SupplyNonFungible(ctx, "carol", "punks", []string{"2"}), core.ErrTokenNotOwned)
	owner, err = f.pool.OwnerOf(ctx, "punks", "2")
	require.NoError(t, err)
	assert.Empty(t, owner)

	require.NoError(t, f.pool.SetCollateralFlag(ctx, "bob", "punks", "1", false))
	data, err := f.pool.ComputeAccountData(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, data.TotalCollateralValue.IsZero())
	require.NoError(t, f.pool.SetCollateralFlag(ctx, "bob", "punks", "1", true))
}

func TestLiquidateNonFungibleCoversDebt(t *testing.T) {
	for _, asShare := range []bool{false, true} {
		t.Run(fmt.Sprintf("share=%v", asShare), func(t *testing.T) {
			ctx := context.Background()
			f := setupPunk(t)
			f.ledger.Fund("usdc", "liquidator", d("200"))

			req := liquidation.NonFungibleRequest{
				Borrower:         "bob",
				Liquidator:       "liquidator",
				Collection:       "punks",
				TokenID:          "1",
				LiquidationAsset: "usdc",
				MaxPayment:       d("100"),
				ReceiveAsShare:   asShare,
			}

			_, err := f.pool.LiquidateNonFungible(ctx, req)
			assert.ErrorIs(t, err, core.ErrAuctionNotStarted)

			require.NoError(t, f.pool.StartAuction(ctx, "bob", "punks", "1"))

			low := req
			low.MaxPayment = d("95")
			_, err = f.pool.LiquidateNonFungible(ctx, low)
			assert.ErrorIs(t, err, core.ErrLiquidationAmountNotEnough)

			result, err := f.pool.LiquidateNonFungible(ctx, req)
			require.NoError(t, err)

			// 100 / 1.05
			assert.Equal(t, "95.238096", result.Paid.String())
			assert.Equal(t, "50", result.DebtRepaid["usdc"].String())
			assert.Equal(t, "45.238095", result.ExcessCredited.String())
			assert.Equal(t, "45.238095", f.supplied(t, "bob", "usdc").String())
			assert.True(t, f.debt(t, "bob", "usdc").IsZero())

			view, err := f.pool.Account(ctx, "bob")
			require.NoError(t, err)
			assert.Nil(t, view.Account.Token("punks", "1"))
			assert.False(t, view.Account.Config.IsUsingAsCollateral(2))
			assert.True(t, view.Account.Config.IsUsingAsCollateral(0))

			owner, err := f.pool.OwnerOf(ctx, "punks", "1")
			require.NoError(t, err)
			assert.Equal(t, "liquidator", owner)

			if asShare {
				assert.Equal(t, core.PoolAccount, f.custodyOwner(t, "punks", "1"))
			} else {
				assert.Equal(t, "liquidator", f.custodyOwner(t, "punks", "1"))
			}

			assert.Equal(t, "104.761905", f.ledger.BalanceOf("usdc", "liquidator").String())
		})
	}
}

func TestLiquidateNonFungiblePartial(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "lp", "usdc", "10000")
	f.supplyPunk(t, "bob", "punks", "1")
	f.supplyPunk(t, "bob", "punks", "2")
	require.NoError(t, f.pool.Borrow(ctx, "bob", "usdc", d("100")))
	f.ledger.Fund("usdc", "liquidator", d("200"))

	require.NoError(t, f.pool.StartAuction(ctx, "bob", "punks", "1"))
	f.advance(4 * 3600)

	data, err := f.pool.ComputeAccountData(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "1.26", data.NftHealthFactor.String())

	result, err := f.pool.LiquidateNonFungible(ctx, liquidation.NonFungibleRequest{
		Borrower:         "bob",
		Liquidator:       "liquidator",
		Collection:       "punks",
		TokenID:          "1",
		LiquidationAsset: "usdc",
		MaxPayment:       d("80"),
	})
	require.NoError(t, err)

	// 100 * 0.8 / 1.05
	assert.Equal(t, "0.8", result.PriceMultiplier.String())
	assert.Equal(t, "76.190477", result.Paid.String())
	assert.True(t, result.ExcessCredited.IsZero())
	assert.Equal(t, "23.809523", f.debt(t, "bob", "usdc").String())

	view, err := f.pool.Account(ctx, "bob")
	require.NoError(t, err)
	assert.NotNil(t, view.Account.Token("punks", "2"))
	assert.True(t, view.Account.Config.IsUsingAsCollateral(2))
	assert.True(t, view.Account.Config.IsBorrowing(0))
}

func TestLiquidateNonFungibleWithoutAuction(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "lp", "usdc", "10000")
	f.supplyPunk(t, "bob", "apes", "7")
	require.NoError(t, f.pool.Borrow(ctx, "bob", "usdc", d("50")))
	f.ledger.Fund("usdc", "liquidator", d("100"))

	req := liquidation.NonFungibleRequest{
		Borrower:         "bob",
		Liquidator:       "liquidator",
		Collection:       "apes",
		TokenID:          "7",
		LiquidationAsset: "usdc",
		MaxPayment:       d("100"),
	}

	_, err := f.pool.LiquidateNonFungible(ctx, req)
	assert.ErrorIs(t, err, core.ErrHealthFactorNotBelowThreshold)
	assert.ErrorIs(t, f.pool.StartAuction(ctx, "bob", "apes", "7"), core.ErrAuctionNotEnabled)

	f.prices.SetCollectionPrice("apes", d("60"))

	apes, ok := f.pool.deps.Assets.Find("apes")
	require.True(t, ok)
	apes.Frozen = true
	_, err = f.pool.LiquidateNonFungible(ctx, req)
	assert.ErrorIs(t, err, core.ErrCollateralCannotBeLiquidated)
	assert.Equal(t, "bob", f.custodyOwner(t, "apes", "7"))
	apes.Frozen = false

	result, err := f.pool.LiquidateNonFungible(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "7.142857", result.ExcessCredited.String())
	assert.Equal(t, "liquidator", f.custodyOwner(t, "apes", "7"))
}

func TestLiquidateNonFungibleCustodyFailure(t *testing.T) {
	ctx := context.Background()
	f := setupPunk(t)
	require.NoError(t, f.pool.StartAuction(ctx, "bob", "punks", "1"))

	_, err := f.pool.LiquidateNonFungible(ctx, liquidation.NonFungibleRequest{
		Borrower:         "bob",
		Liquidator:       "broke",
		Collection:       "punks",
		TokenID:          "1",
		LiquidationAsset: "usdc",
		MaxPayment:       d("100"),
	})
	assert.ErrorIs(t, err, core.ErrInsufficientBalance)

	owner, err := f.pool.OwnerOf(ctx, "punks", "1")
	require.NoError(t, err)
	assert.Equal(t, "bob", owner)
	assert.Equal(t, "50", f.debt(t, "bob", "usdc").String())

	events, err := f.pool.Liquidations(ctx, "", 0)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestConcurrentSupply(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var g errgroup.Group
	for i := 0; i < 20; i++ {
		user := fmt.Sprintf("user-%d", i)
		f.ledger.Fund("usdc", user, d("10"))

		g.Go(func() error {
			return f.pool.Supply(ctx, user, "usdc", d("10"))
		})
	}
	require.NoError(t, g.Wait())

	r, err := f.pool.Reserve(ctx, "usdc")
	require.NoError(t, err)
	assert.Equal(t, "200", r.TotalScaledSupply.String())
	assert.Equal(t, "200", r.AvailableLiquidity.String())
	assert.Equal(t, "200", f.ledger.BalanceOf("usdc", core.PoolAccount).String())
}

func TestRiskState(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, StateHealthy, f.pool.RiskState(&core.AccountData{HealthFactor: d("2"), NftHealthFactor: d("2"), TotalCollateralValue: d("1"), TotalDebtValue: d("1")}))
	assert.Equal(t, StateAuctionable, f.pool.RiskState(&core.AccountData{HealthFactor: d("1.2"), NftHealthFactor: d("1.2"), TotalCollateralValue: d("1"), TotalDebtValue: d("1")}))
	assert.Equal(t, StateLiquidatable, f.pool.RiskState(&core.AccountData{HealthFactor: d("0.9"), NftHealthFactor: d("0.9"), TotalCollateralValue: d("1"), TotalDebtValue: d("1")}))
	assert.Equal(t, StateBadDebt, f.pool.RiskState(&core.AccountData{TotalCollateralValue: decimal.Zero, TotalDebtValue: d("1")}))
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{}.Validate())
	assert.NoError(t, Config{RecoveryHealthFactor: d("1.01")}.Validate())
	assert.ErrorIs(t, Config{RecoveryHealthFactor: d("1")}.Validate(), core.ErrInvalidAssetConfig)
	assert.ErrorIs(t, Config{RecoveryHealthFactor: d("0.8")}.Validate(), core.ErrInvalidAssetConfig)
}
