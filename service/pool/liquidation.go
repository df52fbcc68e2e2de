package pool

import (
	"context"

	"nftlend/core"
	"nftlend/internal/metrics"
	"nftlend/service/liquidation"
	"nftlend/service/state"

	"github.com/fox-one/pkg/uuid"
)

// LiquidateFungible see liquidation.Engine.LiquidateFungible
func (p *Pool) LiquidateFungible(ctx context.Context, req liquidation.FungibleRequest) (*core.LiquidationResult, error) {
	if req.TraceID == "" {
		req.TraceID = uuid.New()
	}

	var result *core.LiquidationResult
	users := []string{req.Borrower, req.Liquidator, p.cfg.Treasury}
	assets := []string{req.CollateralAsset, req.DebtAsset}

	err := p.run(ctx, "liquidate", users, assets, func(ctx context.Context, txn *state.Txn) (err error) {
		result, err = p.liquidation.LiquidateFungible(ctx, txn, req)
		return err
	})

	if err != nil {
		return nil, err
	}

	metrics.Liquidations.WithLabelValues(string(core.LiquidationFungible)).Inc()
	return result, nil
}

// LiquidateNonFungible see liquidation.Engine.LiquidateNonFungible
func (p *Pool) LiquidateNonFungible(ctx context.Context, req liquidation.NonFungibleRequest) (*core.LiquidationResult, error) {
	if req.TraceID == "" {
		req.TraceID = uuid.New()
	}

	var result *core.LiquidationResult
	users := []string{req.Borrower, req.Liquidator}
	assets := append(tokenKeys(req.Collection, []string{req.TokenID}), req.LiquidationAsset)

	err := p.run(ctx, "liquidate_nft", users, assets, func(ctx context.Context, txn *state.Txn) (err error) {
		result, err = p.liquidation.LiquidateNonFungible(ctx, txn, req)
		return err
	})

	if err != nil {
		return nil, err
	}

	metrics.Liquidations.WithLabelValues(string(core.LiquidationNonFungible)).Inc()
	metrics.Auctions.WithLabelValues("settle").Inc()
	return result, nil
}
