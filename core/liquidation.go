package core

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
)

// LiquidationProtocol fungible or non fungible
type LiquidationProtocol string

const (
	// LiquidationFungible divisible collateral
	LiquidationFungible LiquidationProtocol = "fungible"
	// LiquidationNonFungible whole token
	LiquidationNonFungible LiquidationProtocol = "non_fungible"
)

// LiquidationResult outcome of a successful liquidation
type LiquidationResult struct {
	TraceID         string              `json:"trace_id"`
	Protocol        LiquidationProtocol `json:"protocol"`
	Borrower        string              `json:"borrower"`
	Liquidator      string              `json:"liquidator"`
	CollateralAsset string              `json:"collateral_asset"`
	TokenID         string              `json:"token_id,omitempty"`
	DebtAsset       string              `json:"debt_asset"`

	// debt repaid per asset, in asset units
	DebtRepaid map[string]decimal.Decimal `json:"debt_repaid"`
	// collateral taken from the borrower, zero for tokens
	CollateralSeized decimal.Decimal `json:"collateral_seized"`
	ProtocolFee      decimal.Decimal `json:"protocol_fee"`
	// collateralSeized - protocolFee
	LiquidatorReceived decimal.Decimal `json:"liquidator_received"`
	ReceivedAsShare    bool            `json:"received_as_share"`

	// pulled from the liquidator, in debt asset units
	Paid decimal.Decimal `json:"paid"`
	// tendered but unused, returned to the liquidator
	Refund decimal.Decimal `json:"refund"`
	// excess deposited for the borrower, in debt asset units
	ExcessCredited decimal.Decimal `json:"excess_credited"`

	// token pricing
	PriceMultiplier decimal.Decimal `json:"price_multiplier,omitempty"`
	DiscountedPrice decimal.Decimal `json:"discounted_price,omitempty"`

	Before AccountData `json:"before"`
	After  AccountData `json:"after"`
}

// TotalDebtRepaid debt repaid in asset units of DebtAsset
func (r *LiquidationResult) TotalDebtRepaid() decimal.Decimal {
	return r.DebtRepaid[r.DebtAsset]
}

// LiquidationEvent persisted record of a liquidation
type LiquidationEvent struct {
	ID              uint64              `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	TraceID         string              `sql:"size:36;unique_index:liquidation_trace_idx" json:"trace_id"`
	Protocol        LiquidationProtocol `sql:"size:16" json:"protocol"`
	Borrower        string              `sql:"size:64;index:liquidation_borrower_idx" json:"borrower"`
	Liquidator      string              `sql:"size:64" json:"liquidator"`
	CollateralAsset string              `sql:"size:64" json:"collateral_asset"`
	TokenID         string              `sql:"size:128" json:"token_id,omitempty"`
	DebtAsset       string              `sql:"size:64" json:"debt_asset"`
	HealthBefore    decimal.Decimal     `sql:"type:decimal(64,18)" json:"health_before"`
	HealthAfter     decimal.Decimal     `sql:"type:decimal(64,18)" json:"health_after"`
	Data            types.JSONText      `sql:"type:TEXT" json:"data,omitempty"`
	CreatedAt       time.Time           `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// ILiquidationEventStore liquidation event store interface
type ILiquidationEventStore interface {
	Create(ctx context.Context, event *LiquidationEvent) error
	// List newest first, empty borrower lists all
	List(ctx context.Context, borrower string, limit int) ([]*LiquidationEvent, error)
}
