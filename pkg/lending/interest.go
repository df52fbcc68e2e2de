package lending

import (
	"nftlend/core"
	"nftlend/pkg/number"

	"github.com/shopspring/decimal"
)

var (
	// SecondsPerYear 365 days
	SecondsPerYear = decimal.NewFromInt(365 * 24 * 3600)

	two = decimal.NewFromInt(2)
	six = decimal.NewFromInt(6)
)

// CalculateLinearInterest 1 + rate * elapsed / year
func CalculateLinearInterest(rate decimal.Decimal, elapsed int64) (decimal.Decimal, error) {
	if rate.IsNegative() {
		return decimal.Zero, core.ErrInvariantNegativeRate
	}

	if elapsed <= 0 {
		return number.One, nil
	}

	v := rate.Mul(decimal.NewFromInt(elapsed)).DivRound(SecondsPerYear, number.RayPrecision)
	return number.Check(number.One.Add(v))
}

// CalculateCompoundedInterest binomial approximation of (1 + rate/year)^elapsed
// with three terms: 1 + n*x + n(n-1)/2*x^2 + n(n-1)(n-2)/6*x^3
func CalculateCompoundedInterest(rate decimal.Decimal, elapsed int64) (decimal.Decimal, error) {
	if rate.IsNegative() {
		return decimal.Zero, core.ErrInvariantNegativeRate
	}

	if elapsed <= 0 {
		return number.One, nil
	}

	n := decimal.NewFromInt(elapsed)
	nm1 := decimal.NewFromInt(elapsed - 1)
	nm2 := decimal.NewFromInt(elapsed - 2)
	if nm2.IsNegative() {
		nm2 = decimal.Zero
	}

	rps := rate.DivRound(SecondsPerYear, number.RayPrecision)
	bp2 := rps.Mul(rps)
	bp3 := bp2.Mul(rps)

	t1 := n.Mul(rps)
	t2 := n.Mul(nm1).Mul(bp2).DivRound(two, number.RayPrecision)
	t3 := n.Mul(nm1).Mul(nm2).Mul(bp3).DivRound(six, number.RayPrecision)

	v := number.One.Add(t1).Add(t2).Add(t3).Truncate(number.RayPrecision)
	return number.Check(v)
}

// BorrowRate annual borrow rate of the kinked model
func BorrowRate(utilization, baseRate, multiplier, jumpMultiplier, kink decimal.Decimal) decimal.Decimal {
	if kink.IsZero() || utilization.LessThanOrEqual(kink) {
		return utilization.Mul(multiplier).Add(baseRate).Truncate(number.RayPrecision)
	}

	normalRate := kink.Mul(multiplier).Add(baseRate)
	excessUtil := utilization.Sub(kink)
	return excessUtil.Mul(jumpMultiplier).Add(normalRate).Truncate(number.RayPrecision)
}

// SupplyRate annual supply rate: borrowRate * utilization * (1 - reserveFactor)
func SupplyRate(utilization, borrowRate decimal.Decimal, reserveFactor uint64) decimal.Decimal {
	oneMinusReserveFactor := number.Bps.Sub(decimal.NewFromInt(int64(reserveFactor))).Div(number.Bps)
	rateToPool := borrowRate.Mul(oneMinusReserveFactor)
	return utilization.Mul(rateToPool).Truncate(number.RayPrecision)
}
