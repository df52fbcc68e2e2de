package accrual

import (
	"context"
	"fmt"

	"nftlend/core"
	"nftlend/pkg/lending"
	"nftlend/pkg/number"

	"github.com/fox-one/pkg/logger"
	"github.com/shopspring/decimal"
)

// Tracker keeps reserve indices current
type Tracker struct {
	rates core.IInterestRateModel
}

// New accrual tracker on top of a rate model
func New(rates core.IInterestRateModel) *Tracker {
	return &Tracker{rates: rates}
}

// BringCurrent fast forwards the indices of reserve to now and refreshes
// its rates. Calling it again with the same now is a no-op. On error the
// reserve is left untouched.
func (t *Tracker) BringCurrent(ctx context.Context, asset *core.AssetConfig, reserve *core.Reserve, now int64) error {
	log := logger.FromContext(ctx).WithField("asset", asset.AssetID)

	if !reserve.Initialized() {
		next := reserve.Clone()
		next.AssetID = asset.AssetID
		next.LiquidityIndex = number.One
		next.VariableBorrowIndex = number.One
		next.LastUpdateTime = now
		if err := t.updateRates(ctx, asset, next); err != nil {
			return err
		}

		*reserve = *next
		return nil
	}

	elapsed := now - reserve.LastUpdateTime
	if elapsed <= 0 {
		return nil
	}

	next, err := t.accrue(asset, reserve, elapsed)
	if err != nil {
		log.WithError(err).Errorln("accrual.accrue")
		return err
	}

	next.LastUpdateTime = now
	*reserve = *next
	return nil
}

// Preview current copy of reserve, the stored one is not modified
func (t *Tracker) Preview(ctx context.Context, asset *core.AssetConfig, reserve *core.Reserve, now int64) (*core.Reserve, error) {
	next := reserve.Clone()
	if err := t.BringCurrent(ctx, asset, next, now); err != nil {
		return nil, err
	}

	return next, nil
}

// UpdateRates recomputes the rates after liquidity or debt changed
func (t *Tracker) UpdateRates(ctx context.Context, asset *core.AssetConfig, reserve *core.Reserve) error {
	next := reserve.Clone()
	if err := t.updateRates(ctx, asset, next); err != nil {
		return err
	}

	*reserve = *next
	return nil
}

func (t *Tracker) accrue(asset *core.AssetConfig, reserve *core.Reserve, elapsed int64) (*core.Reserve, error) {
	next := reserve.Clone()

	linear, err := lending.CalculateLinearInterest(reserve.LiquidityRate, elapsed)
	if err != nil {
		return nil, err
	}

	if next.LiquidityIndex, err = number.Mul(reserve.LiquidityIndex, linear); err != nil {
		return nil, err
	}
	next.LiquidityIndex = next.LiquidityIndex.Truncate(core.ScaledPrecision)

	compounded, err := lending.CalculateCompoundedInterest(reserve.VariableBorrowRate, elapsed)
	if err != nil {
		return nil, err
	}

	if next.VariableBorrowIndex, err = number.Mul(reserve.VariableBorrowIndex, compounded); err != nil {
		return nil, err
	}
	next.VariableBorrowIndex = next.VariableBorrowIndex.Truncate(core.ScaledPrecision)

	if next.LiquidityIndex.LessThan(reserve.LiquidityIndex) || next.VariableBorrowIndex.LessThan(reserve.VariableBorrowIndex) {
		return nil, core.ErrInvariantIndexDecreased
	}

	// treasury share of the debt interest accrued since the last update
	if asset.ReserveFactor > 0 && reserve.TotalScaledVariableDebt.IsPositive() {
		prevDebt := reserve.TotalScaledVariableDebt.Mul(reserve.VariableBorrowIndex)
		currDebt := reserve.TotalScaledVariableDebt.Mul(next.VariableBorrowIndex)

		toTreasury, err := number.MulBps(currDebt.Sub(prevDebt), asset.ReserveFactor)
		if err != nil {
			return nil, err
		}

		scaled, err := number.Div(toTreasury, next.LiquidityIndex)
		if err != nil {
			return nil, err
		}

		if next.AccruedToTreasury, err = number.Add(reserve.AccruedToTreasury, scaled); err != nil {
			return nil, err
		}
	}

	return next, nil
}

func (t *Tracker) updateRates(ctx context.Context, asset *core.AssetConfig, reserve *core.Reserve) error {
	utilization := reserve.Utilization()

	borrowRate, err := t.rates.GetCurrentBorrowRate(ctx, asset, utilization)
	if err != nil {
		return fmt.Errorf("borrow rate of %s: %w", asset.AssetID, err)
	}

	supplyRate, err := t.rates.GetCurrentSupplyRate(ctx, asset, utilization)
	if err != nil {
		return fmt.Errorf("supply rate of %s: %w", asset.AssetID, err)
	}

	if borrowRate.IsNegative() || supplyRate.IsNegative() {
		return core.ErrInvariantNegativeRate
	}

	if _, err := number.Check(borrowRate); err != nil {
		return err
	}

	reserve.VariableBorrowRate = borrowRate
	reserve.LiquidityRate = supplyRate
	return nil
}

// ReserveTotals current totals of a reserve, for reporting
func ReserveTotals(reserve *core.Reserve) (supply, debt decimal.Decimal) {
	supply = reserve.TotalScaledSupply.Mul(reserve.LiquidityIndex)
	debt = reserve.TotalScaledVariableDebt.Mul(reserve.VariableBorrowIndex)
	return
}
