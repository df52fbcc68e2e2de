package state

import (
	"context"

	"nftlend/core"
	"nftlend/pkg/number"
	"nftlend/service/risk"

	"github.com/shopspring/decimal"
)

// AutoCollateral a first deposit of asset is enabled as collateral
func AutoCollateral(asset *core.AssetConfig) bool {
	return asset.Collateralizable && asset.LTV > 0
}

// Deposit credits amount of asset to account and returns the scaled amount
// minted. The first deposit of an AutoCollateral asset turns the collateral
// bit on.
func (t *Txn) Deposit(ctx context.Context, asset *core.AssetConfig, account *core.Account, amount decimal.Decimal) (core.ScaledAmount, error) {
	reserve, err := t.Reserve(ctx, asset.AssetID)
	if err != nil {
		return core.ZeroScaled, err
	}

	scaled, err := core.Scale(amount, reserve.LiquidityIndex)
	if err != nil {
		return core.ZeroScaled, err
	}

	b := account.Balance(asset.AssetID)
	first := b.ScaledSupply.IsZero()
	b.ScaledSupply = b.ScaledSupply.Add(scaled)

	if reserve.TotalScaledSupply, err = number.Add(reserve.TotalScaledSupply, scaled.Raw()); err != nil {
		return core.ZeroScaled, err
	}

	if first && AutoCollateral(asset) {
		if err := account.Config.SetUsingAsCollateral(asset.ID, true); err != nil {
			return core.ZeroScaled, err
		}
	}

	return scaled, nil
}

// Redeem burns amount of the deposit of account, the whole deposit when
// amount covers it. The collateral bit is cleared once nothing is left.
func (t *Txn) Redeem(ctx context.Context, asset *core.AssetConfig, account *core.Account, amount decimal.Decimal) (core.ScaledAmount, error) {
	reserve, err := t.Reserve(ctx, asset.AssetID)
	if err != nil {
		return core.ZeroScaled, err
	}

	b := account.Balance(asset.AssetID)
	scaled := b.ScaledSupply
	if amount.LessThan(risk.SupplyBalance(asset, reserve, b)) {
		s, err := core.Scale(amount, reserve.LiquidityIndex)
		if err != nil {
			return core.ZeroScaled, err
		}

		scaled = s.Min(scaled)
	}

	if b.ScaledSupply, err = b.ScaledSupply.Sub(scaled); err != nil {
		return core.ZeroScaled, err
	}

	if reserve.TotalScaledSupply, err = number.Sub(reserve.TotalScaledSupply, scaled.Raw()); err != nil {
		return core.ZeroScaled, err
	}

	if b.ScaledSupply.IsZero() {
		if err := account.Config.SetUsingAsCollateral(asset.ID, false); err != nil {
			return core.ZeroScaled, err
		}
	}

	return scaled, nil
}

// MoveDeposit transfers amount of deposit between accounts without touching
// the underlying. The receiver follows the first deposit rule.
func (t *Txn) MoveDeposit(ctx context.Context, asset *core.AssetConfig, from, to *core.Account, amount decimal.Decimal) (core.ScaledAmount, error) {
	reserve, err := t.Reserve(ctx, asset.AssetID)
	if err != nil {
		return core.ZeroScaled, err
	}

	scaled, err := t.Redeem(ctx, asset, from, amount)
	if err != nil {
		return core.ZeroScaled, err
	}

	b := to.Balance(asset.AssetID)
	first := b.ScaledSupply.IsZero()
	b.ScaledSupply = b.ScaledSupply.Add(scaled)

	if reserve.TotalScaledSupply, err = number.Add(reserve.TotalScaledSupply, scaled.Raw()); err != nil {
		return core.ZeroScaled, err
	}

	if first && AutoCollateral(asset) {
		if err := to.Config.SetUsingAsCollateral(asset.ID, true); err != nil {
			return core.ZeroScaled, err
		}
	}

	t.BurnShare(asset.AssetID, from.UserID, scaled)
	t.MintShare(asset.AssetID, to.UserID, scaled)
	return scaled, nil
}

// MintDebt opens amount of variable debt and sets the borrowing bit
func (t *Txn) MintDebt(ctx context.Context, asset *core.AssetConfig, account *core.Account, amount decimal.Decimal) error {
	reserve, err := t.Reserve(ctx, asset.AssetID)
	if err != nil {
		return err
	}

	scaled, err := core.Scale(amount, reserve.VariableBorrowIndex)
	if err != nil {
		return err
	}

	b := account.Balance(asset.AssetID)
	b.ScaledDebt = b.ScaledDebt.Add(scaled)

	if reserve.TotalScaledVariableDebt, err = number.Add(reserve.TotalScaledVariableDebt, scaled.Raw()); err != nil {
		return err
	}

	return account.Config.SetBorrowing(asset.ID, true)
}

// BurnDebt repays up to amount of the debt of account and returns what was
// actually repaid. The borrowing bit is cleared once the debt is gone.
func (t *Txn) BurnDebt(ctx context.Context, asset *core.AssetConfig, account *core.Account, amount decimal.Decimal) (decimal.Decimal, error) {
	reserve, err := t.Reserve(ctx, asset.AssetID)
	if err != nil {
		return decimal.Zero, err
	}

	b := account.Balance(asset.AssetID)
	debt := risk.DebtBalance(asset, reserve, b)

	repaid := debt
	scaled := b.ScaledDebt
	if amount.LessThan(debt) {
		s, err := core.Scale(amount, reserve.VariableBorrowIndex)
		if err != nil {
			return decimal.Zero, err
		}

		repaid = amount
		scaled = s.Min(scaled)
	}

	if b.ScaledDebt, err = b.ScaledDebt.Sub(scaled); err != nil {
		return decimal.Zero, err
	}

	if reserve.TotalScaledVariableDebt, err = number.Sub(reserve.TotalScaledVariableDebt, scaled.Raw()); err != nil {
		return decimal.Zero, err
	}

	if b.ScaledDebt.IsZero() {
		if err := account.Config.SetBorrowing(asset.ID, false); err != nil {
			return decimal.Zero, err
		}
	}

	return repaid, nil
}

// AdjustLiquidity adds delta to the underlying held by the reserve
func (t *Txn) AdjustLiquidity(ctx context.Context, asset *core.AssetConfig, delta decimal.Decimal) error {
	reserve, err := t.Reserve(ctx, asset.AssetID)
	if err != nil {
		return err
	}

	next := reserve.AvailableLiquidity.Add(delta)
	if next.IsNegative() {
		return core.ErrInsufficientLiquidity
	}

	reserve.AvailableLiquidity = next
	return nil
}

// SyncCollectionBit sets the collateral bit of a collection iff at least one
// token of it is enabled
func SyncCollectionBit(asset *core.AssetConfig, account *core.Account) error {
	enabled := false
	for _, pos := range account.CollectionTokens(asset.AssetID) {
		enabled = enabled || pos.UseAsCollateral
	}

	return account.Config.SetUsingAsCollateral(asset.ID, enabled)
}
