package number

import (
	"math"

	"nftlend/core"

	"github.com/shopspring/decimal"
)

const (
	// WadPrecision digits of 1.0 in fixed point
	WadPrecision int32 = 18
	// RayPrecision digits of index math
	RayPrecision int32 = 27
)

var (
	// One 1.0
	One = decimal.New(1, 0)
	// Bps 10000 basis points
	Bps = decimal.NewFromInt(10000)
	// MaxUint256 2^256 - 1
	MaxUint256 = decimal.RequireFromString("115792089237316195423570985008687907853269984665640564039457584007913129639935")
	// MaxValue largest magnitude representable as a wad in a 256 bit word
	MaxValue = MaxUint256.Shift(-WadPrecision)
)

func Decimal(v string) decimal.Decimal {
	d, _ := decimal.NewFromString(v)
	return d
}

func Sqrt(d decimal.Decimal) decimal.Decimal {
	f, _ := d.Float64()
	f = math.Sqrt(f)
	return decimal.NewFromFloat(f)
}

func Ceil(d decimal.Decimal, precision int32) decimal.Decimal {
	return d.Shift(precision).Ceil().Shift(-precision)
}

func Floor(d decimal.Decimal, precision int32) decimal.Decimal {
	return d.Shift(precision).Floor().Shift(-precision)
}

// Check rejects values out of the 256 bit wad range
func Check(d decimal.Decimal) (decimal.Decimal, error) {
	if d.Abs().GreaterThan(MaxValue) {
		return decimal.Zero, core.ErrInvariantOverflow
	}

	return d, nil
}

// Add checked a + b
func Add(a, b decimal.Decimal) (decimal.Decimal, error) {
	return Check(a.Add(b))
}

// Sub checked a - b, negative results are rejected
func Sub(a, b decimal.Decimal) (decimal.Decimal, error) {
	r := a.Sub(b)
	if r.IsNegative() {
		return decimal.Zero, core.ErrInvariantNegativeValue
	}

	return r, nil
}

// Mul checked a * b
func Mul(a, b decimal.Decimal) (decimal.Decimal, error) {
	return Check(a.Mul(b))
}

// Div checked a / b rounded half up at ray precision
func Div(a, b decimal.Decimal) (decimal.Decimal, error) {
	if b.IsZero() {
		return decimal.Zero, core.ErrInvariantDivisionByZero
	}

	return Check(a.DivRound(b, RayPrecision))
}

// MulBps a * bps / 10000
func MulBps(a decimal.Decimal, bps uint64) (decimal.Decimal, error) {
	return Mul(a, decimal.NewFromInt(int64(bps)).Div(Bps))
}

// DivBps a * 10000 / bps
func DivBps(a decimal.Decimal, bps uint64) (decimal.Decimal, error) {
	return Div(a.Mul(Bps), decimal.NewFromInt(int64(bps)))
}

// NonNegative rejects negative values
func NonNegative(d decimal.Decimal) (decimal.Decimal, error) {
	if d.IsNegative() {
		return decimal.Zero, core.ErrInvariantNegativeValue
	}

	return d, nil
}
