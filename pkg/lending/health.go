package lending

import (
	"nftlend/pkg/number"

	"github.com/shopspring/decimal"
)

const (
	// DefaultCloseFactor half of the debt per call
	DefaultCloseFactor uint64 = 5000
	// MaxCloseFactor whole debt per call
	MaxCloseFactor uint64 = 10000
)

var (
	// HealthFactorMax reported when there is no debt
	HealthFactorMax = number.MaxValue
	// HealthFactorLiquidationThreshold fungible liquidation below 1.0
	HealthFactorLiquidationThreshold = number.One
	// CloseFactorHFThreshold full close factor at or below 0.95
	CloseFactorHFThreshold = decimal.RequireFromString("0.95")
	// DefaultAuctionRecoveryHealthFactor auctions may start below 1.5
	DefaultAuctionRecoveryHealthFactor = decimal.RequireFromString("1.5")

	// largest finite health factor, one wad below the no debt sentinel
	healthFactorCeiling = HealthFactorMax.Sub(decimal.New(1, -number.WadPrecision))
)

// CalculateHealthFactor totalCollateral * weightedLT / 10000 / totalDebt.
// No debt yields HealthFactorMax, no collateral with debt yields zero.
func CalculateHealthFactor(totalCollateral, totalDebt, weightedLT decimal.Decimal) (decimal.Decimal, error) {
	if !totalDebt.IsPositive() {
		return HealthFactorMax, nil
	}

	if !totalCollateral.IsPositive() {
		return decimal.Zero, nil
	}

	adjusted, err := number.Mul(totalCollateral, weightedLT)
	if err != nil {
		return decimal.Zero, err
	}

	hf := adjusted.DivRound(totalDebt.Mul(number.Bps), number.WadPrecision)
	switch {
	case hf.GreaterThan(healthFactorCeiling):
		hf = healthFactorCeiling
	case hf.IsZero():
		hf = decimal.New(1, -number.WadPrecision)
	}

	return hf, nil
}

// CalculateAvailableBorrows max(0, totalCollateral * weightedLTV / 10000 - totalDebt)
func CalculateAvailableBorrows(totalCollateral, totalDebt, weightedLTV decimal.Decimal) (decimal.Decimal, error) {
	credit, err := number.Mul(totalCollateral, weightedLTV)
	if err != nil {
		return decimal.Zero, err
	}

	credit = credit.DivRound(number.Bps, number.RayPrecision)

	if credit.LessThanOrEqual(totalDebt) {
		return decimal.Zero, nil
	}

	return credit.Sub(totalDebt), nil
}

// CloseFactor share of a debt position liquidatable in one call, bps
func CloseFactor(healthFactor decimal.Decimal) uint64 {
	if healthFactor.GreaterThan(CloseFactorHFThreshold) {
		return DefaultCloseFactor
	}

	return MaxCloseFactor
}
