package core

import (
	"github.com/shopspring/decimal"
)

// AccountData risk snapshot of a user, values in the oracle base unit.
// Weighted ratios are basis points.
type AccountData struct {
	TotalCollateralValue         decimal.Decimal `json:"total_collateral_value"`
	TotalDebtValue               decimal.Decimal `json:"total_debt_value"`
	WeightedLTV                  decimal.Decimal `json:"weighted_ltv"`
	WeightedLiquidationThreshold decimal.Decimal `json:"weighted_liquidation_threshold"`
	HealthFactor                 decimal.Decimal `json:"health_factor"`
	NftHealthFactor              decimal.Decimal `json:"nft_health_factor"`
	AvailableToBorrow            decimal.Decimal `json:"available_to_borrow"`
}

// HasDebt any debt value
func (d *AccountData) HasDebt() bool {
	return d.TotalDebtValue.IsPositive()
}

// BadDebt collateral exhausted while debt remains
func (d *AccountData) BadDebt() bool {
	return d.TotalCollateralValue.IsZero() && d.TotalDebtValue.IsPositive()
}
