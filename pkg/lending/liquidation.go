package lending

import (
	"nftlend/core"
	"nftlend/pkg/number"

	"github.com/shopspring/decimal"
)

// CollateralToLiquidate amounts of one fungible liquidation
type CollateralToLiquidate struct {
	// collateral taken from the borrower, bonus included
	CollateralAmount decimal.Decimal
	// debt the liquidator repays
	DebtAmount decimal.Decimal
	// treasury share of the bonus, part of CollateralAmount
	ProtocolFee decimal.Decimal
}

// LiquidatorAmount collateral delivered to the liquidator
func (c CollateralToLiquidate) LiquidatorAmount() decimal.Decimal {
	return c.CollateralAmount.Sub(c.ProtocolFee)
}

// MaxLiquidatableDebt userDebt * closeFactor, rounded down to the debt decimals
func MaxLiquidatableDebt(userDebt, healthFactor decimal.Decimal, debtDecimals int32) decimal.Decimal {
	cf := CloseFactor(healthFactor)
	if cf == MaxCloseFactor {
		return userDebt
	}

	return userDebt.Mul(decimal.NewFromInt(int64(cf))).Div(number.Bps).Truncate(debtDecimals)
}

// CalculateCollateralToLiquidate collateral seized for debtToCover, capped at
// userCollateral. When the cap binds, the debt is recomputed from the capped
// collateral so the liquidator never takes more than the borrower holds.
func CalculateCollateralToLiquidate(
	collateral, debt *core.AssetConfig,
	debtToCover, collateralPrice, debtPrice, userCollateral decimal.Decimal,
) (CollateralToLiquidate, error) {
	var out CollateralToLiquidate

	if !collateralPrice.IsPositive() || !debtPrice.IsPositive() {
		return out, core.ErrInvalidPrice
	}

	if debtToCover.IsNegative() || userCollateral.IsNegative() {
		return out, core.ErrInvariantNegativeValue
	}

	debtValue, err := number.Mul(debtToCover, debtPrice)
	if err != nil {
		return out, err
	}

	baseCollateral, err := number.Div(debtValue, collateralPrice)
	if err != nil {
		return out, err
	}

	maxCollateral, err := number.MulBps(baseCollateral, collateral.LiquidationBonus)
	if err != nil {
		return out, err
	}
	maxCollateral = maxCollateral.Truncate(collateral.Decimals)

	if maxCollateral.GreaterThan(userCollateral) {
		out.CollateralAmount = userCollateral

		value, err := number.Mul(userCollateral, collateralPrice)
		if err != nil {
			return out, err
		}

		base, err := number.Div(value, debtPrice)
		if err != nil {
			return out, err
		}

		debtAmount, err := number.DivBps(base, collateral.LiquidationBonus)
		if err != nil {
			return out, err
		}

		out.DebtAmount = debtAmount.Truncate(debt.Decimals)
	} else {
		out.CollateralAmount = maxCollateral
		out.DebtAmount = debtToCover
	}

	if collateral.LiquidationProtocolFee > 0 {
		withoutBonus, err := number.DivBps(out.CollateralAmount, collateral.LiquidationBonus)
		if err != nil {
			return out, err
		}

		bonus := out.CollateralAmount.Sub(withoutBonus)
		fee, err := number.MulBps(bonus, collateral.LiquidationProtocolFee)
		if err != nil {
			return out, err
		}

		out.ProtocolFee = fee.Truncate(collateral.Decimals)
	}

	return out, nil
}

// DiscountedTokenPrice price a liquidator pays for a token. The bonus discount
// applies only when the payment asset is debt the borrower actually owes.
func DiscountedTokenPrice(effectivePrice decimal.Decimal, liquidationBonus uint64, assetBorrowed bool) (decimal.Decimal, error) {
	if !assetBorrowed {
		return effectivePrice, nil
	}

	return number.DivBps(effectivePrice, liquidationBonus)
}
