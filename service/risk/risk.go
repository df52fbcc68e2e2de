package risk

import (
	"context"
	"fmt"

	"nftlend/core"
	"nftlend/pkg/lending"
	"nftlend/pkg/number"
	"nftlend/service/auction"

	"github.com/shopspring/decimal"
)

// ReserveReader yields reserves already brought current
type ReserveReader interface {
	Reserve(ctx context.Context, assetID string) (*core.Reserve, error)
}

// Aggregator computes the risk snapshot of an account. It never writes.
type Aggregator struct {
	assets   *core.AssetRegistry
	oracle   core.IPriceOracle
	auctions *auction.Engine
}

// New risk aggregator
func New(assets *core.AssetRegistry, oracle core.IPriceOracle, auctions *auction.Engine) *Aggregator {
	return &Aggregator{
		assets:   assets,
		oracle:   oracle,
		auctions: auctions,
	}
}

// SupplyBalance current deposit, rounded down to the asset decimals
func SupplyBalance(asset *core.AssetConfig, reserve *core.Reserve, b *core.Balance) decimal.Decimal {
	return number.Floor(b.ScaledSupply.Reindex(reserve.LiquidityIndex), asset.Decimals)
}

// DebtBalance current debt, rounded up to the asset decimals
func DebtBalance(asset *core.AssetConfig, reserve *core.Reserve, b *core.Balance) decimal.Decimal {
	return number.Ceil(b.ScaledDebt.Reindex(reserve.VariableBorrowIndex), asset.Decimals)
}

// TokenPrice oracle price, auction multiplier and their product
func (a *Aggregator) TokenPrice(ctx context.Context, pos *core.NFTPosition, now int64) (price, multiplier, effective decimal.Decimal, err error) {
	price, err = a.oracle.GetTokenPrice(ctx, pos.Collection, pos.TokenID)
	if err != nil {
		return
	}

	if !price.IsPositive() {
		err = core.ErrInvalidPrice
		return
	}

	multiplier, err = a.auctions.Multiplier(ctx, pos, now)
	if err != nil {
		return
	}

	effective, err = number.Mul(price, multiplier)
	return
}

// AssetPrice oracle price of a fungible asset, rejecting non positive values
func (a *Aggregator) AssetPrice(ctx context.Context, assetID string) (decimal.Decimal, error) {
	price, err := a.oracle.GetAssetPrice(ctx, assetID)
	if err != nil {
		return decimal.Zero, err
	}

	if !price.IsPositive() {
		return decimal.Zero, core.ErrInvalidPrice
	}

	return price, nil
}

// ComputeAccountData walks the configuration bits of account and values its
// collateral and debt at now. Both health factors share one formula; the
// threshold each is compared against is up to the caller.
func (a *Aggregator) ComputeAccountData(ctx context.Context, account *core.Account, reserves ReserveReader, now int64) (*core.AccountData, error) {
	var (
		totalCollateral = decimal.Zero
		totalDebt       = decimal.Zero
		weightedLTV     = decimal.Zero
		weightedLT      = decimal.Zero
	)

	for _, id := range account.Config.CollateralIDs() {
		asset, ok := a.assets.FindByID(id)
		if !ok {
			return nil, fmt.Errorf("collateral bit %d: %w", id, core.ErrInvariantUserConfigDrift)
		}

		value, err := a.collateralValue(ctx, account, asset, reserves, now)
		if err != nil {
			return nil, err
		}

		if totalCollateral, err = number.Add(totalCollateral, value); err != nil {
			return nil, err
		}

		weightedLTV = weightedLTV.Add(value.Mul(decimal.NewFromInt(int64(asset.LTV))))
		weightedLT = weightedLT.Add(value.Mul(decimal.NewFromInt(int64(asset.LiquidationThreshold))))
	}

	for _, id := range account.Config.BorrowingIDs() {
		asset, ok := a.assets.FindByID(id)
		if !ok || asset.IsNonFungible() {
			return nil, fmt.Errorf("borrowing bit %d: %w", id, core.ErrInvariantUserConfigDrift)
		}

		reserve, err := reserves.Reserve(ctx, asset.AssetID)
		if err != nil {
			return nil, err
		}

		price, err := a.AssetPrice(ctx, asset.AssetID)
		if err != nil {
			return nil, err
		}

		b := account.BalanceOf(asset.AssetID)
		debt := DebtBalance(asset, reserve, &b)
		value, err := number.Mul(debt, price)
		if err != nil {
			return nil, err
		}

		if totalDebt, err = number.Add(totalDebt, value); err != nil {
			return nil, err
		}
	}

	data := &core.AccountData{
		TotalCollateralValue:         totalCollateral,
		TotalDebtValue:               totalDebt,
		WeightedLTV:                  decimal.Zero,
		WeightedLiquidationThreshold: decimal.Zero,
	}

	if totalCollateral.IsPositive() {
		data.WeightedLTV = weightedLTV.DivRound(totalCollateral, number.RayPrecision)
		data.WeightedLiquidationThreshold = weightedLT.DivRound(totalCollateral, number.RayPrecision)
	}

	hf, err := lending.CalculateHealthFactor(totalCollateral, totalDebt, data.WeightedLiquidationThreshold)
	if err != nil {
		return nil, err
	}

	data.HealthFactor = hf
	data.NftHealthFactor = hf

	if data.AvailableToBorrow, err = lending.CalculateAvailableBorrows(totalCollateral, totalDebt, data.WeightedLTV); err != nil {
		return nil, err
	}

	return data, nil
}

func (a *Aggregator) collateralValue(ctx context.Context, account *core.Account, asset *core.AssetConfig, reserves ReserveReader, now int64) (decimal.Decimal, error) {
	if asset.IsNonFungible() {
		total := decimal.Zero
		for _, pos := range account.CollectionTokens(asset.AssetID) {
			if !pos.UseAsCollateral {
				continue
			}

			_, _, effective, err := a.TokenPrice(ctx, pos, now)
			if err != nil {
				return decimal.Zero, err
			}

			if total, err = number.Add(total, effective); err != nil {
				return decimal.Zero, err
			}
		}

		return total, nil
	}

	reserve, err := reserves.Reserve(ctx, asset.AssetID)
	if err != nil {
		return decimal.Zero, err
	}

	price, err := a.AssetPrice(ctx, asset.AssetID)
	if err != nil {
		return decimal.Zero, err
	}

	b := account.BalanceOf(asset.AssetID)
	return number.Mul(SupplyBalance(asset, reserve, &b), price)
}

// VerifyConfiguration checks the configuration bits of account against its
// balances and positions. Any mismatch is an invariant violation.
func VerifyConfiguration(assets *core.AssetRegistry, account *core.Account) error {
	for _, asset := range assets.All() {
		borrowing := account.Config.IsBorrowing(asset.ID)
		collateral := account.Config.IsUsingAsCollateral(asset.ID)

		if asset.IsNonFungible() {
			enabled := false
			for _, pos := range account.CollectionTokens(asset.AssetID) {
				enabled = enabled || pos.UseAsCollateral
			}

			if borrowing || collateral != enabled {
				return fmt.Errorf("%s of %s: %w", asset.AssetID, account.UserID, core.ErrInvariantUserConfigDrift)
			}

			continue
		}

		b, ok := account.Balances[asset.AssetID]
		hasDebt := ok && !b.ScaledDebt.IsZero()
		hasSupply := ok && !b.ScaledSupply.IsZero()

		if borrowing != hasDebt || (collateral && !hasSupply) {
			return fmt.Errorf("%s of %s: %w", asset.AssetID, account.UserID, core.ErrInvariantUserConfigDrift)
		}
	}

	return nil
}
