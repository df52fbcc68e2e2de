package liquidation

import (
	"context"

	"nftlend/core"
	"nftlend/pkg/lending"
	"nftlend/service/risk"
	"nftlend/service/state"

	"github.com/fox-one/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// FungibleRequest repay debt of an unhealthy borrower and seize collateral
type FungibleRequest struct {
	TraceID         string
	Borrower        string
	Liquidator      string
	CollateralAsset string
	DebtAsset       string
	// DebtToCover lending.MaxAmount repays as much as the close factor allows
	DebtToCover decimal.Decimal
	// ReceiveAsShare take the collateral as a deposit instead of the underlying
	ReceiveAsShare bool
	// Cash pull DebtToCover in full and refund what was not needed
	Cash bool
}

// LiquidateFungible runs the fungible protocol against txn
func (e *Engine) LiquidateFungible(ctx context.Context, txn *state.Txn, req FungibleRequest) (*core.LiquidationResult, error) {
	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"borrower":   req.Borrower,
		"liquidator": req.Liquidator,
		"collateral": req.CollateralAsset,
		"debt":       req.DebtAsset,
	})
	ctx = logger.WithContext(ctx, log)

	if err := lending.Require(req.Borrower != req.Liquidator, core.ErrSelfLiquidation); err != nil {
		log.WithError(err).Infoln("skip: self liquidation")
		return nil, err
	}

	if err := lending.Require(
		req.DebtToCover.IsPositive() && !(req.Cash && lending.IsMaxAmount(req.DebtToCover)),
		core.ErrInvalidAmount,
	); err != nil {
		log.WithError(err).Infoln("skip: invalid debt to cover")
		return nil, err
	}

	collateral, err := txn.Asset(req.CollateralAsset)
	if err != nil {
		return nil, err
	}

	debt, err := txn.Asset(req.DebtAsset)
	if err != nil {
		return nil, err
	}

	if err := lending.Require(!collateral.IsNonFungible(), core.ErrCollateralCannotBeLiquidated); err != nil {
		log.WithError(err).Infoln("skip: token collateral")
		return nil, err
	}

	if err := lending.Require(!debt.IsNonFungible(), core.ErrInvalidAssetType); err != nil {
		log.WithError(err).Infoln("skip: token debt")
		return nil, err
	}

	if err := lending.Require(collateral.Liquidatable(), core.ErrCollateralCannotBeLiquidated); err != nil {
		log.WithError(err).Infoln("skip: collateral reserve inactive or frozen")
		return nil, err
	}

	if err := lending.Require(debt.Active, core.ErrReserveInactive); err != nil {
		log.WithError(err).Infoln("skip: debt reserve inactive")
		return nil, err
	}

	borrower, err := txn.Account(ctx, req.Borrower)
	if err != nil {
		return nil, err
	}

	liquidator, err := txn.Account(ctx, req.Liquidator)
	if err != nil {
		return nil, err
	}

	before, err := e.accountData(ctx, txn, borrower)
	if err != nil {
		log.WithError(err).Errorln("risk.ComputeAccountData")
		return nil, err
	}

	if err := lending.Require(
		before.HealthFactor.LessThan(lending.HealthFactorLiquidationThreshold),
		core.ErrHealthFactorNotBelowThreshold,
	); err != nil {
		log.WithError(err).Infoln("skip: healthy")
		return nil, err
	}

	if err := lending.Require(borrower.Config.IsBorrowing(debt.ID), core.ErrSpecifiedCurrencyNotBorrowed); err != nil {
		log.WithError(err).Infoln("skip: not borrowed")
		return nil, err
	}

	if err := lending.Require(
		borrower.Config.IsUsingAsCollateral(collateral.ID) && collateral.LiquidationThreshold > 0,
		core.ErrCollateralCannotBeLiquidated,
	); err != nil {
		log.WithError(err).Infoln("skip: not collateral")
		return nil, err
	}

	debtReserve, err := txn.Reserve(ctx, debt.AssetID)
	if err != nil {
		return nil, err
	}

	collateralReserve, err := txn.Reserve(ctx, collateral.AssetID)
	if err != nil {
		return nil, err
	}

	collateralPrice, err := e.risk.AssetPrice(ctx, collateral.AssetID)
	if err != nil {
		return nil, err
	}

	debtPrice, err := e.risk.AssetPrice(ctx, debt.AssetID)
	if err != nil {
		return nil, err
	}

	debtBalance := borrower.BalanceOf(debt.AssetID)
	collateralBalance := borrower.BalanceOf(collateral.AssetID)

	userDebt := risk.DebtBalance(debt, debtReserve, &debtBalance)
	maxDebt := lending.MaxLiquidatableDebt(userDebt, before.HealthFactor, debt.Decimals)
	toCover := decimal.Min(req.DebtToCover, maxDebt)

	amounts, err := lending.CalculateCollateralToLiquidate(
		collateral, debt,
		toCover, collateralPrice, debtPrice,
		risk.SupplyBalance(collateral, collateralReserve, &collateralBalance),
	)
	if err != nil {
		log.WithError(err).Errorln("lending.CalculateCollateralToLiquidate")
		return nil, err
	}

	if err := lending.Require(amounts.DebtAmount.IsPositive(), core.ErrInvalidAmount); err != nil {
		log.WithError(err).Infoln("skip: nothing to liquidate")
		return nil, err
	}

	// debt
	repaid, err := txn.BurnDebt(ctx, debt, borrower, amounts.DebtAmount)
	if err != nil {
		return nil, err
	}

	if err := txn.AdjustLiquidity(ctx, debt, repaid); err != nil {
		return nil, err
	}

	refund := decimal.Zero
	if req.Cash {
		refund = req.DebtToCover.Sub(repaid)
		txn.TransferUnderlying(debt.AssetID, liquidator.UserID, core.PoolAccount, req.DebtToCover)
		txn.TransferUnderlying(debt.AssetID, core.PoolAccount, liquidator.UserID, refund)
	} else {
		txn.TransferUnderlying(debt.AssetID, liquidator.UserID, core.PoolAccount, repaid)
	}

	// protocol fee, always as a deposit of the treasury
	if amounts.ProtocolFee.IsPositive() {
		treasury, err := txn.Account(ctx, e.treasury)
		if err != nil {
			return nil, err
		}

		if _, err := txn.MoveDeposit(ctx, collateral, borrower, treasury, amounts.ProtocolFee); err != nil {
			return nil, err
		}
	}

	received := amounts.LiquidatorAmount()
	if req.ReceiveAsShare {
		if _, err := txn.MoveDeposit(ctx, collateral, borrower, liquidator, received); err != nil {
			return nil, err
		}
	} else {
		scaled, err := txn.Redeem(ctx, collateral, borrower, received)
		if err != nil {
			return nil, err
		}

		if err := txn.AdjustLiquidity(ctx, collateral, received.Neg()); err != nil {
			log.WithError(err).Infoln("skip: not enough liquidity to pay out the collateral")
			return nil, err
		}

		txn.BurnShare(collateral.AssetID, borrower.UserID, scaled)
		txn.TransferUnderlying(collateral.AssetID, core.PoolAccount, liquidator.UserID, received)
	}

	if !borrower.Config.IsBorrowingAny() {
		e.auctions.EndAll(borrower)
	}

	after, err := e.accountData(ctx, txn, borrower)
	if err != nil {
		log.WithError(err).Errorln("risk.ComputeAccountData")
		return nil, err
	}

	result := &core.LiquidationResult{
		TraceID:            req.TraceID,
		Protocol:           core.LiquidationFungible,
		Borrower:           borrower.UserID,
		Liquidator:         liquidator.UserID,
		CollateralAsset:    collateral.AssetID,
		DebtAsset:          debt.AssetID,
		DebtRepaid:         map[string]decimal.Decimal{debt.AssetID: repaid},
		CollateralSeized:   amounts.CollateralAmount,
		ProtocolFee:        amounts.ProtocolFee,
		LiquidatorReceived: received,
		ReceivedAsShare:    req.ReceiveAsShare,
		Paid:               repaid,
		Refund:             refund,
		ExcessCredited:     decimal.Zero,
		Before:             *before,
		After:              *after,
	}

	event, err := NewEvent(result)
	if err != nil {
		log.WithError(err).Errorln("NewEvent")
		return nil, err
	}

	txn.Record(event)
	log.Infof("liquidated %s %s for %s %s", result.CollateralSeized, collateral.AssetID, repaid, debt.AssetID)
	return result, nil
}
