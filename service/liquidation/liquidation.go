package liquidation

import (
	"context"
	"encoding/json"
	"fmt"

	"nftlend/core"
	"nftlend/service/auction"
	"nftlend/service/risk"
	"nftlend/service/state"

	"github.com/shopspring/decimal"
)

// Engine fungible and non fungible liquidation protocols. It only mutates
// the transition it is handed; committing is up to the caller.
type Engine struct {
	risk     *risk.Aggregator
	auctions *auction.Engine
	treasury string
	recovery decimal.Decimal
}

// New liquidation engine. Protocol fees are credited to treasury; token
// auctions settle while the nft health factor is below recovery.
func New(agg *risk.Aggregator, auctions *auction.Engine, treasury string, recovery decimal.Decimal) *Engine {
	return &Engine{
		risk:     agg,
		auctions: auctions,
		treasury: treasury,
		recovery: recovery,
	}
}

func (e *Engine) accountData(ctx context.Context, txn *state.Txn, account *core.Account) (*core.AccountData, error) {
	return e.risk.ComputeAccountData(ctx, account, txn, txn.Now())
}

// NewEvent persisted form of a liquidation result
func NewEvent(result *core.LiquidationResult) (*core.LiquidationEvent, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal liquidation %s: %w", result.TraceID, err)
	}

	return &core.LiquidationEvent{
		TraceID:         result.TraceID,
		Protocol:        result.Protocol,
		Borrower:        result.Borrower,
		Liquidator:      result.Liquidator,
		CollateralAsset: result.CollateralAsset,
		TokenID:         result.TokenID,
		DebtAsset:       result.DebtAsset,
		HealthBefore:    result.Before.HealthFactor,
		HealthAfter:     result.After.HealthFactor,
		Data:            data,
	}, nil
}
