package core

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// AssetKind fungible or non fungible
type AssetKind int

const (
	// AssetKindFungible erc20 style
	AssetKindFungible AssetKind = iota
	// AssetKindNonFungible per token collateral
	AssetKindNonFungible
)

func (k AssetKind) String() string {
	switch k {
	case AssetKindNonFungible:
		return "non_fungible"
	default:
		return "fungible"
	}
}

// MarshalText implements encoding.TextMarshaler
func (k AssetKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *AssetKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "", "fungible", "erc20":
		*k = AssetKindFungible
	case "non_fungible", "erc721", "nft":
		*k = AssetKindNonFungible
	default:
		return fmt.Errorf("unknown asset kind %q", string(b))
	}

	return nil
}

// AssetConfig admin configured reserve parameters, immutable at runtime.
// Ratios are basis points.
type AssetConfig struct {
	// ID bit position inside UserConfiguration, [0, MaxAssets)
	ID       uint16    `json:"id"`
	AssetID  string    `json:"asset_id"`
	Symbol   string    `json:"symbol"`
	Kind     AssetKind `json:"kind"`
	Decimals int32     `json:"decimals"`

	LTV                    uint64 `json:"ltv"`
	LiquidationThreshold   uint64 `json:"liquidation_threshold"`
	LiquidationBonus       uint64 `json:"liquidation_bonus"`
	LiquidationProtocolFee uint64 `json:"liquidation_protocol_fee"`
	ReserveFactor          uint64 `json:"reserve_factor"`

	Active           bool `json:"active"`
	Frozen           bool `json:"frozen"`
	Collateralizable bool `json:"collateralizable"`
	Borrowable       bool `json:"borrowable"`

	// AuctionStrategy registered strategy name, non fungible only
	AuctionStrategy string `json:"auction_strategy,omitempty"`

	// interest rate model, per year
	BaseRate       decimal.Decimal `json:"base_rate"`
	Multiplier     decimal.Decimal `json:"multiplier"`
	JumpMultiplier decimal.Decimal `json:"jump_multiplier"`
	Kink           decimal.Decimal `json:"kink"`
}

// IsNonFungible reports whether the asset is a collection
func (a *AssetConfig) IsNonFungible() bool {
	return a.Kind == AssetKindNonFungible
}

// Liquidatable reports whether collateral of the asset can be seized
func (a *AssetConfig) Liquidatable() bool {
	return a.Active && !a.Frozen
}

// Validate checks the static invariants of the configuration
func (a *AssetConfig) Validate() error {
	if a.AssetID == "" || a.ID >= MaxAssets {
		return ErrInvalidAssetConfig
	}

	if a.LiquidationThreshold < a.LTV || a.LiquidationThreshold > 10000 {
		return ErrInvalidAssetConfig
	}

	if a.LiquidationThreshold > 0 && a.LiquidationBonus <= 10000 {
		return ErrInvalidAssetConfig
	}

	// bonus applied to the liquidation threshold must not exceed 100%
	if a.LiquidationThreshold*a.LiquidationBonus > 10000*10000 {
		return ErrInvalidAssetConfig
	}

	if a.LiquidationProtocolFee > 10000 || a.ReserveFactor > 10000 {
		return ErrInvalidAssetConfig
	}

	if a.Decimals < 0 || a.Decimals > 36 {
		return ErrInvalidAssetConfig
	}

	if a.IsNonFungible() && a.Borrowable {
		return ErrInvalidAssetConfig
	}

	return nil
}

// AssetRegistry immutable set of configured assets
type AssetRegistry struct {
	byAsset map[string]*AssetConfig
	byID    map[uint16]*AssetConfig
	list    []*AssetConfig
}

// NewAssetRegistry validates and indexes the configs
func NewAssetRegistry(configs []*AssetConfig) (*AssetRegistry, error) {
	r := &AssetRegistry{
		byAsset: make(map[string]*AssetConfig, len(configs)),
		byID:    make(map[uint16]*AssetConfig, len(configs)),
	}

	for _, c := range configs {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("asset %s: %w", c.AssetID, err)
		}

		if _, ok := r.byAsset[c.AssetID]; ok {
			return nil, fmt.Errorf("asset %s: duplicated asset id: %w", c.AssetID, ErrInvalidAssetConfig)
		}

		if _, ok := r.byID[c.ID]; ok {
			return nil, fmt.Errorf("asset %s: duplicated bit id %d: %w", c.AssetID, c.ID, ErrInvalidAssetConfig)
		}

		cfg := *c
		r.byAsset[c.AssetID] = &cfg
		r.byID[c.ID] = &cfg
		r.list = append(r.list, &cfg)
	}

	sort.Slice(r.list, func(i, j int) bool { return r.list[i].ID < r.list[j].ID })
	return r, nil
}

// Find asset by asset id
func (r *AssetRegistry) Find(assetID string) (*AssetConfig, bool) {
	c, ok := r.byAsset[assetID]
	return c, ok
}

// FindByID asset by bit id
func (r *AssetRegistry) FindByID(id uint16) (*AssetConfig, bool) {
	c, ok := r.byID[id]
	return c, ok
}

// All assets ordered by bit id
func (r *AssetRegistry) All() []*AssetConfig {
	return r.list
}
