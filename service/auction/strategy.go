package auction

import (
	"fmt"

	"nftlend/core"
	"nftlend/pkg/number"

	"github.com/shopspring/decimal"
)

const (
	// StrategyLinear multiplier drops by a fixed step per tick
	StrategyLinear = "linear"
	// StrategyExponential multiplier drops by a fixed ratio per tick
	StrategyExponential = "exponential"
)

// Config admin configured auction of a collection
type Config struct {
	Collection         string          `json:"collection" yaml:"collection"`
	Strategy           string          `json:"strategy" yaml:"strategy"`
	TickLength         int64           `json:"tick_length" yaml:"tick_length"`
	MinPriceMultiplier decimal.Decimal `json:"min_price_multiplier" yaml:"min_price_multiplier"`
	MaxPriceMultiplier decimal.Decimal `json:"max_price_multiplier" yaml:"max_price_multiplier"`
	// Step per tick decrement (linear) or decay ratio (exponential)
	Step decimal.Decimal `json:"step" yaml:"step"`
}

// NewStrategy builds the strategy named by cfg
func NewStrategy(cfg Config) (core.IAuctionStrategy, error) {
	if cfg.TickLength <= 0 {
		return nil, fmt.Errorf("auction %s: tick length must be positive: %w", cfg.Collection, core.ErrInvalidAssetConfig)
	}

	if !cfg.MinPriceMultiplier.IsPositive() || cfg.MaxPriceMultiplier.LessThan(cfg.MinPriceMultiplier) {
		return nil, fmt.Errorf("auction %s: invalid multiplier range: %w", cfg.Collection, core.ErrInvalidAssetConfig)
	}

	if cfg.Step.IsNegative() {
		return nil, fmt.Errorf("auction %s: negative step: %w", cfg.Collection, core.ErrInvalidAssetConfig)
	}

	switch cfg.Strategy {
	case StrategyLinear, "":
		return &linear{cfg: cfg}, nil
	case StrategyExponential:
		if cfg.Step.GreaterThanOrEqual(number.One) {
			return nil, fmt.Errorf("auction %s: decay ratio must be below 1: %w", cfg.Collection, core.ErrInvalidAssetConfig)
		}
		return &exponential{cfg: cfg}, nil
	default:
		return nil, fmt.Errorf("auction %s: unknown strategy %q: %w", cfg.Collection, cfg.Strategy, core.ErrInvalidAssetConfig)
	}
}

func newState(cfg Config, name string, now int64) *core.AuctionState {
	return &core.AuctionState{
		StartTime:          now,
		TickLength:         cfg.TickLength,
		MinPriceMultiplier: cfg.MinPriceMultiplier,
		MaxPriceMultiplier: cfg.MaxPriceMultiplier,
		Step:               cfg.Step,
		Strategy:           name,
	}
}

func floor(v, min decimal.Decimal) decimal.Decimal {
	if v.LessThan(min) {
		return min
	}

	return v
}

// max - step * ticks
type linear struct {
	cfg Config
}

func (s *linear) Name() string { return StrategyLinear }

func (s *linear) NewAuction(now int64) *core.AuctionState {
	return newState(s.cfg, StrategyLinear, now)
}

func (s *linear) PriceMultiplier(state *core.AuctionState, ticks int64) decimal.Decimal {
	if ticks <= 0 {
		return state.MaxPriceMultiplier
	}

	v := state.MaxPriceMultiplier.Sub(state.Step.Mul(decimal.NewFromInt(ticks)))
	return floor(v, state.MinPriceMultiplier)
}

// max * (1 - step)^ticks
type exponential struct {
	cfg Config
}

func (s *exponential) Name() string { return StrategyExponential }

func (s *exponential) NewAuction(now int64) *core.AuctionState {
	return newState(s.cfg, StrategyExponential, now)
}

func (s *exponential) PriceMultiplier(state *core.AuctionState, ticks int64) decimal.Decimal {
	if ticks <= 0 || state.Step.IsZero() {
		return state.MaxPriceMultiplier
	}

	ratio := number.One.Sub(state.Step)
	if !ratio.IsPositive() {
		return state.MinPriceMultiplier
	}

	// ratio^ticks by squaring, stops once the floor is reached
	v := state.MaxPriceMultiplier
	for n := ticks; n > 0; n >>= 1 {
		if n&1 == 1 {
			v = v.Mul(ratio).Truncate(number.WadPrecision)
			if v.LessThanOrEqual(state.MinPriceMultiplier) {
				return state.MinPriceMultiplier
			}
		}

		ratio = ratio.Mul(ratio).Truncate(number.WadPrecision)
	}

	return v
}
