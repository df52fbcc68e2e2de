package state

import (
	"context"
	"fmt"
	"sort"

	"nftlend/core"
	"nftlend/internal/metrics"
	"nftlend/service/accrual"
	"nftlend/service/risk"

	"github.com/fox-one/pkg/logger"
)

// Deps stores and engines a transition works against
type Deps struct {
	Assets   *core.AssetRegistry
	Tracker  *accrual.Tracker
	Reserves core.IReserveStore
	Accounts core.IAccountStore
	Events   core.ILiquidationEventStore
}

// Txn one state transition. Reserves are brought current the first time
// they are read and every entity is a private copy until Commit.
type Txn struct {
	deps *Deps
	now  int64

	reserves map[string]*core.Reserve
	accounts map[string]*core.Account
	ops      []op
	events   []*core.LiquidationEvent
}

// Begin a transition at unix time now
func Begin(deps *Deps, now int64) *Txn {
	return &Txn{
		deps:     deps,
		now:      now,
		reserves: map[string]*core.Reserve{},
		accounts: map[string]*core.Account{},
	}
}

// Now timestamp of the transition
func (t *Txn) Now() int64 {
	return t.now
}

// Asset config of a fungible or non fungible asset
func (t *Txn) Asset(assetID string) (*core.AssetConfig, error) {
	asset, ok := t.deps.Assets.Find(assetID)
	if !ok {
		return nil, fmt.Errorf("asset %s: %w", assetID, core.ErrAssetNotFound)
	}

	return asset, nil
}

// AssetByID config behind a configuration bit
func (t *Txn) AssetByID(id uint16) (*core.AssetConfig, error) {
	asset, ok := t.deps.Assets.FindByID(id)
	if !ok {
		return nil, fmt.Errorf("asset #%d: %w", id, core.ErrInvariantUserConfigDrift)
	}

	return asset, nil
}

// Reserve of a fungible asset, accrued up to Now exactly once per transition
func (t *Txn) Reserve(ctx context.Context, assetID string) (*core.Reserve, error) {
	if r, ok := t.reserves[assetID]; ok {
		return r, nil
	}

	asset, err := t.Asset(assetID)
	if err != nil {
		return nil, err
	}

	if asset.IsNonFungible() {
		return nil, fmt.Errorf("reserve of %s: %w", assetID, core.ErrInvalidAssetType)
	}

	stored, err := t.deps.Reserves.Find(ctx, assetID)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Errorln("reserves.Find")
		return nil, err
	}

	r := stored.Clone()
	if err := t.deps.Tracker.BringCurrent(ctx, asset, r, t.now); err != nil {
		return nil, err
	}

	t.reserves[assetID] = r
	return r, nil
}

// Account private copy of the account of userID
func (t *Txn) Account(ctx context.Context, userID string) (*core.Account, error) {
	if a, ok := t.accounts[userID]; ok {
		return a, nil
	}

	stored, err := t.deps.Accounts.Find(ctx, userID)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Errorln("accounts.Find")
		return nil, err
	}

	a := stored.Clone()
	t.accounts[userID] = a
	return a, nil
}

// Record queues a liquidation event for persistence
func (t *Txn) Record(event *core.LiquidationEvent) {
	t.events = append(t.events, event)
}

// Commit refreshes the rates of every touched reserve, verifies every touched
// account and persists them together with the queued events. Custody ops run
// last inside the same store transaction; the first failing op reverts the
// ones already executed and rolls the stores back.
func (t *Txn) Commit(ctx context.Context, transactor core.ITransactor, custody core.ICustody) error {
	log := logger.FromContext(ctx)

	reserveIDs := sortedKeys(t.reserves)
	for _, id := range reserveIDs {
		asset, err := t.Asset(id)
		if err != nil {
			return err
		}

		if err := t.deps.Tracker.UpdateRates(ctx, asset, t.reserves[id]); err != nil {
			log.WithError(err).Errorln("tracker.UpdateRates")
			return err
		}
	}

	userIDs := sortedKeys(t.accounts)
	for _, id := range userIDs {
		account := t.accounts[id]
		account.Prune()
		if err := risk.VerifyConfiguration(t.deps.Assets, account); err != nil {
			log.WithError(err).Errorln("risk.VerifyConfiguration")
			return err
		}
	}

	err := transactor.Tx(ctx, func(ctx context.Context) error {
		for _, id := range reserveIDs {
			if err := t.deps.Reserves.Save(ctx, t.reserves[id]); err != nil {
				log.WithError(err).Errorln("reserves.Save")
				return err
			}
		}

		for _, id := range userIDs {
			if err := t.deps.Accounts.Save(ctx, t.accounts[id]); err != nil {
				log.WithError(err).Errorln("accounts.Save")
				return err
			}
		}

		for _, event := range t.events {
			if err := t.deps.Events.Create(ctx, event); err != nil {
				log.WithError(err).Errorln("events.Create")
				return err
			}
		}

		return t.execute(ctx, custody)
	})

	if err != nil {
		return err
	}

	for _, id := range reserveIDs {
		r := t.reserves[id]
		metrics.ReserveIndex.WithLabelValues(id, "liquidity").Set(r.LiquidityIndex.InexactFloat64())
		metrics.ReserveIndex.WithLabelValues(id, "variable_borrow").Set(r.VariableBorrowIndex.InexactFloat64())
		metrics.ReserveUtilization.WithLabelValues(id).Set(r.Utilization().InexactFloat64())
	}

	return nil
}

func (t *Txn) execute(ctx context.Context, custody core.ICustody) error {
	log := logger.FromContext(ctx)

	for idx, o := range t.ops {
		if err := o.apply(ctx, custody); err != nil {
			log.WithError(err).Errorf("custody %s", o)

			for i := idx - 1; i >= 0; i-- {
				if err := t.ops[i].revert(ctx, custody); err != nil {
					log.WithError(err).Errorf("revert custody %s", t.ops[i])
				}
			}

			return err
		}
	}

	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)
	return keys
}
