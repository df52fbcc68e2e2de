package pool

import (
	"context"
	"fmt"
	"time"

	"nftlend/core"
	"nftlend/internal/metrics"
	"nftlend/pkg/lending"
	"nftlend/service/auction"
	"nftlend/service/liquidation"
	"nftlend/service/risk"
	"nftlend/service/state"

	"github.com/fox-one/pkg/logger"
	"github.com/shopspring/decimal"
)

// Config pool wide parameters
type Config struct {
	// Genesis and SecondsPerBlock map wall clock time to blocks for the
	// same block borrow / repay guard
	Genesis         int64 `json:"genesis"`
	SecondsPerBlock int64 `json:"seconds_per_block"`
	// RecoveryHealthFactor nft health factor an auction must recover to
	RecoveryHealthFactor decimal.Decimal `json:"recovery_health_factor"`
	// Treasury account credited with liquidation protocol fees
	Treasury string `json:"treasury"`
}

// Validate rejects a recovery health factor that does not sit above the
// liquidation threshold. Zero means the default.
func (c Config) Validate() error {
	if c.RecoveryHealthFactor.IsZero() {
		return nil
	}

	if c.RecoveryHealthFactor.LessThanOrEqual(lending.HealthFactorLiquidationThreshold) {
		return fmt.Errorf("recovery health factor %s must be above %s: %w",
			c.RecoveryHealthFactor, lending.HealthFactorLiquidationThreshold, core.ErrInvalidAssetConfig)
	}

	return nil
}

// Option pool option
type Option func(p *Pool)

// WithClock overrides the wall clock, unix seconds
func WithClock(clock func() int64) Option {
	return func(p *Pool) {
		p.clock = clock
	}
}

// Pool entry point of every state transition. Each operation locks the users
// it touches, then the reserves it touches, runs on a private state.Txn and
// commits it atomically.
type Pool struct {
	cfg         Config
	deps        *state.Deps
	transactor  core.ITransactor
	custody     core.ICustody
	risk        *risk.Aggregator
	auctions    *auction.Engine
	liquidation *liquidation.Engine
	locks       *locker
	clock       func() int64
}

// New pool, cfg must pass Validate
func New(
	cfg Config,
	deps *state.Deps,
	transactor core.ITransactor,
	custody core.ICustody,
	oracle core.IPriceOracle,
	strategies core.IAuctionStrategyProvider,
	opts ...Option,
) *Pool {
	if !cfg.RecoveryHealthFactor.IsPositive() {
		cfg.RecoveryHealthFactor = lending.DefaultAuctionRecoveryHealthFactor
	}

	if cfg.Treasury == "" {
		cfg.Treasury = "treasury"
	}

	auctions := auction.New(strategies)
	agg := risk.New(deps.Assets, oracle, auctions)

	p := &Pool{
		cfg:         cfg,
		deps:        deps,
		transactor:  transactor,
		custody:     custody,
		risk:        agg,
		auctions:    auctions,
		liquidation: liquidation.New(agg, auctions, cfg.Treasury, cfg.RecoveryHealthFactor),
		locks:       newLocker(),
		clock: func() int64 {
			return time.Now().Unix()
		},
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Assets configured asset registry
func (p *Pool) Assets() *core.AssetRegistry {
	return p.deps.Assets
}

// lock users first, then every fungible asset their configurations reference
// plus the extra assets of the operation
func (p *Pool) lock(ctx context.Context, users []string, assets []string) (func(), error) {
	unlockUsers := p.locks.Lock("user:", users)

	all := append([]string{}, assets...)
	for _, userID := range uniq(users) {
		account, err := p.deps.Accounts.Find(ctx, userID)
		if err != nil {
			unlockUsers()
			return nil, err
		}

		ids := append(account.Config.CollateralIDs(), account.Config.BorrowingIDs()...)
		for _, id := range ids {
			if asset, ok := p.deps.Assets.FindByID(id); ok && !asset.IsNonFungible() {
				all = append(all, asset.AssetID)
			}
		}
	}

	unlockAssets := p.locks.Lock("asset:", all)
	return func() {
		unlockAssets()
		unlockUsers()
	}, nil
}

// run executes fn on a fresh transition and commits it
func (p *Pool) run(ctx context.Context, operation string, users, assets []string, fn func(ctx context.Context, txn *state.Txn) error) (err error) {
	log := logger.FromContext(ctx).WithField("operation", operation)
	ctx = logger.WithContext(ctx, log)

	defer func() {
		result := "ok"
		if err != nil {
			result = core.CodeOf(err).String()
		}

		metrics.Operations.WithLabelValues(operation, result).Inc()
	}()

	unlock, err := p.lock(ctx, users, assets)
	if err != nil {
		log.WithError(err).Errorln("pool.lock")
		return err
	}
	defer unlock()

	txn := state.Begin(p.deps, p.clock())
	if err := fn(ctx, txn); err != nil {
		if core.IsInvariant(err) {
			log.WithError(err).Errorln("invariant violated")
		}

		return err
	}

	if err := txn.Commit(ctx, p.transactor, p.custody); err != nil {
		log.WithError(err).Errorln("txn.Commit")
		return err
	}

	return nil
}

// requireHealthy health factor of account at least 1 after the mutation
func (p *Pool) requireHealthy(ctx context.Context, txn *state.Txn, account *core.Account, code core.ErrorCode) error {
	data, err := p.risk.ComputeAccountData(ctx, account, txn, txn.Now())
	if err != nil {
		return err
	}

	return lending.Require(data.HealthFactor.GreaterThanOrEqual(lending.HealthFactorLiquidationThreshold), code)
}

func (p *Pool) sameBlock(a, b int64) bool {
	return lending.SameBlock(p.cfg.Genesis, p.cfg.SecondsPerBlock, a, b)
}

func (p *Pool) fungible(txn *state.Txn, assetID string) (*core.AssetConfig, error) {
	asset, err := txn.Asset(assetID)
	if err != nil {
		return nil, err
	}

	if asset.IsNonFungible() {
		return nil, core.ErrInvalidAssetType
	}

	return asset, nil
}

func (p *Pool) collection(txn *state.Txn, collection string) (*core.AssetConfig, error) {
	asset, err := txn.Asset(collection)
	if err != nil {
		return nil, err
	}

	if !asset.IsNonFungible() {
		return nil, core.ErrInvalidAssetType
	}

	return asset, nil
}
