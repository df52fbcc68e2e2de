package simulate

import (
	"context"
	"fmt"

	"nftlend/core"
	"nftlend/internal/custody"
	"nftlend/internal/oracle"
	"nftlend/internal/ratemodel"
	"nftlend/pkg/id"
	"nftlend/service/accrual"
	"nftlend/service/auction"
	"nftlend/service/liquidation"
	"nftlend/service/pool"
	"nftlend/service/state"
	"nftlend/store/memory"

	"github.com/fox-one/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Setup static parameters of a simulation
type Setup struct {
	Pool             pool.Config
	Assets           []*core.AssetConfig
	Auctions         []auction.Config
	AssetPrices      map[string]decimal.Decimal
	CollectionPrices map[string]decimal.Decimal
}

// Result outcome of one step
type Result struct {
	Index  int               `json:"index"`
	Time   int64             `json:"time"`
	Action string            `json:"action"`
	User   string            `json:"user,omitempty"`
	Error  string            `json:"error,omitempty"`
	Output interface{}       `json:"output,omitempty"`
	Data   *core.AccountData `json:"data,omitempty"`
}

// Runner replays scenarios on in memory stores, custody and oracle
type Runner struct {
	pool   *pool.Pool
	ledger *custody.Ledger
	prices *oracle.Static
	now    int64
}

// New runner with a fresh pool
func New(setup Setup) (*Runner, error) {
	if err := setup.Pool.Validate(); err != nil {
		return nil, err
	}

	assets, err := core.NewAssetRegistry(setup.Assets)
	if err != nil {
		return nil, err
	}

	strategies, err := auction.NewRegistry(setup.Auctions)
	if err != nil {
		return nil, err
	}

	r := &Runner{
		ledger: custody.NewLedger(),
		prices: oracle.NewStatic(),
	}

	for assetID, price := range setup.AssetPrices {
		r.prices.SetAssetPrice(assetID, price)
	}

	for collection, price := range setup.CollectionPrices {
		r.prices.SetCollectionPrice(collection, price)
	}

	store := memory.New()
	deps := &state.Deps{
		Assets:   assets,
		Tracker:  accrual.New(ratemodel.New()),
		Reserves: store.Reserves(),
		Accounts: store.Accounts(),
		Events:   store.Events(),
	}

	r.pool = pool.New(setup.Pool, deps, store, r.ledger, r.prices, strategies, pool.WithClock(func() int64 {
		return r.now
	}))

	return r, nil
}

// Pool pool under simulation
func (r *Runner) Pool() *pool.Pool {
	return r.pool
}

// Run replays s step by step. It stops at the first step whose outcome
// differs from its expectation.
func (r *Runner) Run(ctx context.Context, s *Scenario) ([]*Result, error) {
	log := logger.FromContext(ctx).WithField("scenario", s.Name)

	results := make([]*Result, 0, len(s.Steps))
	for i, step := range s.Steps {
		r.now = s.Start + step.At

		result := &Result{
			Index:  i,
			Time:   r.now,
			Action: step.Action,
			User:   step.User,
		}
		results = append(results, result)

		output, err := r.apply(logger.WithContext(ctx, log.WithField("step", i)), s, i, step)
		result.Output = output

		if err != nil {
			result.Error = err.Error()
			if step.Expect == "" || core.CodeOf(err).String() != step.Expect {
				return results, fmt.Errorf("step %d %s: %w", i, step.Action, err)
			}
		} else if step.Expect != "" {
			return results, fmt.Errorf("step %d %s: expected error %s", i, step.Action, step.Expect)
		}

		if step.User != "" {
			data, err := r.pool.ComputeAccountData(ctx, step.User)
			if err != nil {
				return results, err
			}

			result.Data = data
		}

		log.WithFields(logrus.Fields{
			"step":   i,
			"action": step.Action,
			"error":  result.Error,
		}).Debugln("step done")
	}

	return results, nil
}

func (r *Runner) apply(ctx context.Context, s *Scenario, index int, step *Step) (interface{}, error) {
	switch step.Action {
	case ActionFund:
		amount, err := step.amount()
		if err != nil {
			return nil, err
		}

		r.ledger.Fund(step.Asset, step.User, amount)
		return nil, nil

	case ActionMint:
		for _, tokenID := range step.Tokens {
			r.ledger.MintNFT(step.Asset, tokenID, step.User)
		}
		return nil, nil

	case ActionPrice:
		price, err := step.price()
		if err != nil {
			return nil, err
		}

		asset, ok := r.pool.Assets().Find(step.Asset)
		if !ok {
			return nil, core.ErrAssetNotFound
		}

		switch {
		case len(step.Tokens) > 0:
			for _, tokenID := range step.Tokens {
				r.prices.SetTokenPrice(step.Asset, tokenID, price)
			}
		case asset.IsNonFungible():
			r.prices.SetCollectionPrice(step.Asset, price)
		default:
			r.prices.SetAssetPrice(step.Asset, price)
		}
		return nil, nil

	case ActionSupply:
		amount, err := step.amount()
		if err != nil {
			return nil, err
		}
		return nil, r.pool.Supply(ctx, step.User, step.Asset, amount)

	case ActionWithdraw:
		amount, err := step.amount()
		if err != nil {
			return nil, err
		}
		return r.pool.Withdraw(ctx, step.User, step.Asset, amount)

	case ActionBorrow:
		amount, err := step.amount()
		if err != nil {
			return nil, err
		}
		return nil, r.pool.Borrow(ctx, step.User, step.Asset, amount)

	case ActionRepay:
		amount, err := step.amount()
		if err != nil {
			return nil, err
		}
		return r.pool.Repay(ctx, step.User, step.Asset, amount)

	case ActionSetCollateral:
		return nil, r.pool.SetAssetCollateral(ctx, step.User, step.Asset, step.Enabled)

	case ActionSupplyNFT:
		return nil, r.pool.SupplyNonFungible(ctx, step.User, step.Asset, step.Tokens)

	case ActionWithdrawNFT:
		return nil, r.pool.WithdrawNonFungible(ctx, step.User, step.Asset, step.Tokens)

	case ActionSetTokenCollateral, ActionStartAuction, ActionEndAuction:
		tokenID, err := step.token()
		if err != nil {
			return nil, err
		}

		switch step.Action {
		case ActionSetTokenCollateral:
			return nil, r.pool.SetCollateralFlag(ctx, step.User, step.Asset, tokenID, step.Enabled)
		case ActionStartAuction:
			return nil, r.pool.StartAuction(ctx, step.User, step.Asset, tokenID)
		default:
			return nil, r.pool.EndAuction(ctx, step.User, step.Asset, tokenID)
		}

	case ActionLiquidate:
		amount, err := step.amount()
		if err != nil {
			return nil, err
		}

		return r.pool.LiquidateFungible(ctx, liquidation.FungibleRequest{
			TraceID:         traceID(s, index),
			Borrower:        step.User,
			Liquidator:      step.Liquidator,
			CollateralAsset: step.Asset,
			DebtAsset:       step.DebtAsset,
			DebtToCover:     amount,
			ReceiveAsShare:  step.ReceiveAsShare,
			Cash:            step.Cash,
		})

	case ActionLiquidateNFT:
		tokenID, err := step.token()
		if err != nil {
			return nil, err
		}

		amount, err := step.amount()
		if err != nil {
			return nil, err
		}

		return r.pool.LiquidateNonFungible(ctx, liquidation.NonFungibleRequest{
			TraceID:          traceID(s, index),
			Borrower:         step.User,
			Liquidator:       step.Liquidator,
			Collection:       step.Asset,
			TokenID:          tokenID,
			LiquidationAsset: step.DebtAsset,
			MaxPayment:       amount,
			ReceiveAsShare:   step.ReceiveAsShare,
		})

	case ActionAccount:
		return r.pool.Account(ctx, step.User)

	default:
		return nil, fmt.Errorf("unknown action %q", step.Action)
	}
}

// traceID stable across replays of the same scenario
func traceID(s *Scenario, index int) string {
	return id.TraceIDFrom(fmt.Sprintf("%s:%d", s.Name, index))
}
