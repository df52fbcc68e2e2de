package core

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// ScaledPrecision digits kept on scaled balances and indices
const ScaledPrecision int32 = 27

// ScaledAmount principal normalized balance. It has no meaning on its own
// and must be multiplied by a live index through Reindex.
type ScaledAmount struct {
	v decimal.Decimal
}

// ZeroScaled empty balance
var ZeroScaled = ScaledAmount{v: decimal.Zero}

// Scale converts a current amount to a scaled amount with the given index
func Scale(amount, index decimal.Decimal) (ScaledAmount, error) {
	if !index.IsPositive() {
		return ZeroScaled, ErrInvariantDivisionByZero
	}

	if amount.IsNegative() {
		return ZeroScaled, ErrInvariantNegativeValue
	}

	return ScaledAmount{v: amount.DivRound(index, ScaledPrecision)}, nil
}

// ScaledFromDecimal restores a persisted raw value
func ScaledFromDecimal(d decimal.Decimal) ScaledAmount {
	return ScaledAmount{v: d}
}

// Reindex current amount under index
func (s ScaledAmount) Reindex(index decimal.Decimal) decimal.Decimal {
	return s.v.Mul(index)
}

// Raw scaled value, for persistence and totals only
func (s ScaledAmount) Raw() decimal.Decimal {
	return s.v
}

// IsZero no balance
func (s ScaledAmount) IsZero() bool {
	return s.v.IsZero()
}

// Add s + o
func (s ScaledAmount) Add(o ScaledAmount) ScaledAmount {
	return ScaledAmount{v: s.v.Add(o.v)}
}

// Sub s - o, negative results are an invariant violation
func (s ScaledAmount) Sub(o ScaledAmount) (ScaledAmount, error) {
	r := s.v.Sub(o.v)
	if r.IsNegative() {
		return s, ErrInvariantNegativeValue
	}

	return ScaledAmount{v: r}, nil
}

// Min smaller of s and o
func (s ScaledAmount) Min(o ScaledAmount) ScaledAmount {
	if s.v.LessThan(o.v) {
		return s
	}

	return o
}

func (s ScaledAmount) String() string {
	return s.v.String()
}

// MarshalJSON implements json.Marshaler
func (s ScaledAmount) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.v)
}

// UnmarshalJSON implements json.Unmarshaler
func (s *ScaledAmount) UnmarshalJSON(b []byte) error {
	return json.Unmarshal(b, &s.v)
}
