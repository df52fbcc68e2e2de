package auction

import (
	"context"
	"fmt"

	"nftlend/core"
	"nftlend/pkg/number"

	"github.com/shopspring/decimal"
)

// Registry strategies by collection
type Registry struct {
	strategies map[string]core.IAuctionStrategy
}

// NewRegistry builds one strategy per configured collection
func NewRegistry(configs []Config) (*Registry, error) {
	r := &Registry{strategies: make(map[string]core.IAuctionStrategy, len(configs))}
	for _, cfg := range configs {
		if _, ok := r.strategies[cfg.Collection]; ok {
			return nil, fmt.Errorf("auction %s: duplicated collection: %w", cfg.Collection, core.ErrInvalidAssetConfig)
		}

		s, err := NewStrategy(cfg)
		if err != nil {
			return nil, err
		}

		r.strategies[cfg.Collection] = s
	}

	return r, nil
}

func (r *Registry) GetAuctionStrategy(ctx context.Context, collection string) (core.IAuctionStrategy, bool) {
	s, ok := r.strategies[collection]
	return s, ok
}

// Engine per token auction state machine. Threshold checks against the
// nft health factor belong to the caller.
type Engine struct {
	strategies core.IAuctionStrategyProvider
}

// New auction engine
func New(strategies core.IAuctionStrategyProvider) *Engine {
	return &Engine{strategies: strategies}
}

// Enabled collection has an auction strategy
func (e *Engine) Enabled(ctx context.Context, collection string) bool {
	_, ok := e.strategies.GetAuctionStrategy(ctx, collection)
	return ok
}

// Start inactive -> active
func (e *Engine) Start(ctx context.Context, pos *core.NFTPosition, now int64) error {
	strategy, ok := e.strategies.GetAuctionStrategy(ctx, pos.Collection)
	if !ok {
		return core.ErrAuctionNotEnabled
	}

	if pos.InAuction() {
		return core.ErrAuctionAlreadyStarted
	}

	pos.Auction = strategy.NewAuction(now)
	return nil
}

// End active -> inactive
func (e *Engine) End(pos *core.NFTPosition) error {
	if !pos.InAuction() {
		return core.ErrAuctionNotStarted
	}

	pos.Auction = nil
	return nil
}

// Ticks elapsed since the auction started
func Ticks(state *core.AuctionState, now int64) int64 {
	if state.TickLength <= 0 || now <= state.StartTime {
		return 0
	}

	return (now - state.StartTime) / state.TickLength
}

// Multiplier current price multiplier of pos, 1 without an auction
func (e *Engine) Multiplier(ctx context.Context, pos *core.NFTPosition, now int64) (decimal.Decimal, error) {
	if !pos.InAuction() {
		return number.One, nil
	}

	strategy, ok := e.strategies.GetAuctionStrategy(ctx, pos.Collection)
	if !ok {
		return decimal.Zero, core.ErrAuctionNotEnabled
	}

	m := strategy.PriceMultiplier(pos.Auction, Ticks(pos.Auction, now))
	if m.LessThan(pos.Auction.MinPriceMultiplier) {
		m = pos.Auction.MinPriceMultiplier
	}

	if !m.IsPositive() {
		return decimal.Zero, core.ErrInvariantNegativeValue
	}

	return m, nil
}

// EndAll tears down every auction of account, returns how many were active
func (e *Engine) EndAll(account *core.Account) int {
	n := 0
	for _, pos := range account.Tokens {
		if pos.InAuction() {
			pos.Auction = nil
			n++
		}
	}

	return n
}
