package core

import (
	"context"

	"github.com/shopspring/decimal"
)

// PoolAccount custody account of the pool itself
const PoolAccount = "pool"

// IPriceOracle synchronous price reads, in a shared base unit
type IPriceOracle interface {
	GetAssetPrice(ctx context.Context, assetID string) (decimal.Decimal, error)
	GetTokenPrice(ctx context.Context, collection, tokenID string) (decimal.Decimal, error)
}

// IInterestRateModel annual rates by utilization
type IInterestRateModel interface {
	GetCurrentBorrowRate(ctx context.Context, asset *AssetConfig, utilization decimal.Decimal) (decimal.Decimal, error)
	GetCurrentSupplyRate(ctx context.Context, asset *AssetConfig, utilization decimal.Decimal) (decimal.Decimal, error)
}

// ICustody token movements
type ICustody interface {
	TransferUnderlying(ctx context.Context, assetID, from, to string, amount decimal.Decimal) error
	MintShare(ctx context.Context, assetID, to string, amount decimal.Decimal) error
	BurnShare(ctx context.Context, assetID, from string, amount decimal.Decimal) error
	TransferNFT(ctx context.Context, collection, tokenID, from, to string) error
	OwnerOf(ctx context.Context, collection, tokenID string) (string, error)
}

// IAuctionStrategy decaying price multiplier curve of a collection
type IAuctionStrategy interface {
	Name() string
	// NewAuction state for an auction starting at now
	NewAuction(now int64) *AuctionState
	// PriceMultiplier after ticks elapsed, non increasing and floored at the minimum
	PriceMultiplier(state *AuctionState, ticks int64) decimal.Decimal
}

// IAuctionStrategyProvider admin configured strategies
type IAuctionStrategyProvider interface {
	GetAuctionStrategy(ctx context.Context, collection string) (IAuctionStrategy, bool)
}

// ITransactor runs fn atomically against the stores
type ITransactor interface {
	Tx(ctx context.Context, fn func(ctx context.Context) error) error
}
