package oracle

import (
	"context"
	"sync"

	"nftlend/core"

	"github.com/shopspring/decimal"
)

// Static in memory prices, set by the operator or a feed
type Static struct {
	mux         sync.RWMutex
	assets      map[string]decimal.Decimal
	tokens      map[string]decimal.Decimal
	collections map[string]decimal.Decimal
}

// NewStatic empty price table
func NewStatic() *Static {
	return &Static{
		assets:      map[string]decimal.Decimal{},
		tokens:      map[string]decimal.Decimal{},
		collections: map[string]decimal.Decimal{},
	}
}

// SetAssetPrice price of a fungible asset
func (o *Static) SetAssetPrice(assetID string, price decimal.Decimal) {
	o.mux.Lock()
	defer o.mux.Unlock()
	o.assets[assetID] = price
}

// SetTokenPrice price of a single token
func (o *Static) SetTokenPrice(collection, tokenID string, price decimal.Decimal) {
	o.mux.Lock()
	defer o.mux.Unlock()
	o.tokens[core.TokenKey(collection, tokenID)] = price
}

// SetCollectionPrice floor price used for tokens without their own price
func (o *Static) SetCollectionPrice(collection string, price decimal.Decimal) {
	o.mux.Lock()
	defer o.mux.Unlock()
	o.collections[collection] = price
}

func (o *Static) GetAssetPrice(ctx context.Context, assetID string) (decimal.Decimal, error) {
	o.mux.RLock()
	defer o.mux.RUnlock()

	price, ok := o.assets[assetID]
	if !ok || !price.IsPositive() {
		return decimal.Zero, core.ErrInvalidPrice
	}

	return price, nil
}

func (o *Static) GetTokenPrice(ctx context.Context, collection, tokenID string) (decimal.Decimal, error) {
	o.mux.RLock()
	defer o.mux.RUnlock()

	price, ok := o.tokens[core.TokenKey(collection, tokenID)]
	if !ok {
		price, ok = o.collections[collection]
	}

	if !ok || !price.IsPositive() {
		return decimal.Zero, core.ErrInvalidPrice
	}

	return price, nil
}
