package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Reserve mutable accrual state of a fungible asset
type Reserve struct {
	ID      uint64 `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	AssetID string `sql:"size:64;unique_index:reserve_asset_idx" json:"asset_id"`
	// deposit index, grows linearly between updates
	LiquidityIndex decimal.Decimal `sql:"type:decimal(64,27)" json:"liquidity_index"`
	// debt index, compounds between updates
	VariableBorrowIndex decimal.Decimal `sql:"type:decimal(64,27)" json:"variable_borrow_index"`
	// annual rates of the last update
	LiquidityRate      decimal.Decimal `sql:"type:decimal(48,27)" json:"liquidity_rate"`
	VariableBorrowRate decimal.Decimal `sql:"type:decimal(48,27)" json:"variable_borrow_rate"`
	LastUpdateTime     int64           `json:"last_update_time"`
	// scaled totals
	TotalScaledSupply       decimal.Decimal `sql:"type:decimal(64,27)" json:"total_scaled_supply"`
	TotalScaledVariableDebt decimal.Decimal `sql:"type:decimal(64,27)" json:"total_scaled_variable_debt"`
	// treasury share, scaled by the liquidity index
	AccruedToTreasury decimal.Decimal `sql:"type:decimal(64,27)" json:"accrued_to_treasury"`
	// underlying held by the pool
	AvailableLiquidity decimal.Decimal `sql:"type:decimal(64,18)" json:"available_liquidity"`
	Version            int64           `sql:"default:0" json:"version"`
	CreatedAt          time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// NewReserve reserve with unit indices
func NewReserve(assetID string, now int64) *Reserve {
	return &Reserve{
		AssetID:             assetID,
		LiquidityIndex:      decimal.New(1, 0),
		VariableBorrowIndex: decimal.New(1, 0),
		LastUpdateTime:      now,
	}
}

// Initialized indices set
func (r *Reserve) Initialized() bool {
	return r.LiquidityIndex.IsPositive() && r.VariableBorrowIndex.IsPositive()
}

// TotalDebt current variable debt under the stored index
func (r *Reserve) TotalDebt() decimal.Decimal {
	return r.TotalScaledVariableDebt.Mul(r.VariableBorrowIndex)
}

// Utilization debt / (liquidity + debt)
func (r *Reserve) Utilization() decimal.Decimal {
	debt := r.TotalDebt()
	total := debt.Add(r.AvailableLiquidity)
	if !total.IsPositive() {
		return decimal.Zero
	}

	return debt.DivRound(total, ScaledPrecision)
}

// Clone deep enough copy, decimals are immutable values
func (r *Reserve) Clone() *Reserve {
	c := *r
	return &c
}

// IReserveStore reserve store interface
type IReserveStore interface {
	// Find returns an empty reserve (ID 0) when none is stored
	Find(ctx context.Context, assetID string) (*Reserve, error)
	// Save creates or updates with a version guard
	Save(ctx context.Context, reserve *Reserve) error
	All(ctx context.Context) ([]*Reserve, error)
}
