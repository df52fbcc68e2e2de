package liquidation

import (
	"context"

	"nftlend/core"
	"nftlend/pkg/lending"
	"nftlend/pkg/number"
	"nftlend/service/state"

	"github.com/fox-one/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// NonFungibleRequest buy a collateral token of an unhealthy borrower
type NonFungibleRequest struct {
	TraceID    string
	Borrower   string
	Liquidator string
	Collection string
	TokenID    string
	// LiquidationAsset fungible asset the liquidator pays with
	LiquidationAsset string
	// MaxPayment upper bound of the price, in LiquidationAsset units
	MaxPayment decimal.Decimal
	// ReceiveAsShare keep the token in the pool as a position of the liquidator
	ReceiveAsShare bool
}

// LiquidateNonFungible runs the token protocol against txn.
//
// A collection with an auction strategy is liquidatable only while the token
// is in auction and the nft health factor is below the recovery threshold;
// other collections follow the plain health factor. The liquidator pays the
// discounted token price. If that covers the whole debt of the borrower every
// debt is settled in its own asset and the rest of the price is deposited for
// the borrower; otherwise the price repays the debt in the liquidation asset
// and any remainder is deposited.
func (e *Engine) LiquidateNonFungible(ctx context.Context, txn *state.Txn, req NonFungibleRequest) (*core.LiquidationResult, error) {
	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"borrower":   req.Borrower,
		"liquidator": req.Liquidator,
		"collection": req.Collection,
		"token_id":   req.TokenID,
		"asset":      req.LiquidationAsset,
	})
	ctx = logger.WithContext(ctx, log)

	if err := lending.Require(req.Borrower != req.Liquidator, core.ErrSelfLiquidation); err != nil {
		log.WithError(err).Infoln("skip: self liquidation")
		return nil, err
	}

	if err := lending.Require(req.MaxPayment.IsPositive(), core.ErrInvalidAmount); err != nil {
		log.WithError(err).Infoln("skip: invalid max payment")
		return nil, err
	}

	collection, err := txn.Asset(req.Collection)
	if err != nil {
		return nil, err
	}

	payAsset, err := txn.Asset(req.LiquidationAsset)
	if err != nil {
		return nil, err
	}

	if err := lending.Require(collection.IsNonFungible() && !payAsset.IsNonFungible(), core.ErrInvalidAssetType); err != nil {
		log.WithError(err).Infoln("skip: asset kinds")
		return nil, err
	}

	if err := lending.Require(collection.Liquidatable(), core.ErrCollateralCannotBeLiquidated); err != nil {
		log.WithError(err).Infoln("skip: collection inactive or frozen")
		return nil, err
	}

	if err := lending.Require(payAsset.Active, core.ErrReserveInactive); err != nil {
		log.WithError(err).Infoln("skip: pay reserve inactive")
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

	pos := borrower.Token(collection.AssetID, req.TokenID)
	if err := lending.Require(pos != nil && pos.UseAsCollateral, core.ErrCollateralCannotBeLiquidated); err != nil {
		log.WithError(err).Infoln("skip: token is not collateral")
		return nil, err
	}

	before, err := e.accountData(ctx, txn, borrower)
	if err != nil {
		log.WithError(err).Errorln("risk.ComputeAccountData")
		return nil, err
	}

	if e.auctions.Enabled(ctx, collection.AssetID) {
		if err := lending.Require(pos.InAuction(), core.ErrAuctionNotStarted); err != nil {
			log.WithError(err).Infoln("skip: not in auction")
			return nil, err
		}

		if err := lending.Require(before.NftHealthFactor.LessThan(e.recovery), core.ErrHealthFactorNotBelowRecovery); err != nil {
			log.WithError(err).Infoln("skip: recovered")
			return nil, err
		}
	} else if err := lending.Require(
		before.HealthFactor.LessThan(lending.HealthFactorLiquidationThreshold),
		core.ErrHealthFactorNotBelowThreshold,
	); err != nil {
		log.WithError(err).Infoln("skip: healthy")
		return nil, err
	}

	_, multiplier, effective, err := e.risk.TokenPrice(ctx, pos, txn.Now())
	if err != nil {
		return nil, err
	}

	borrowed := borrower.Config.IsBorrowing(payAsset.ID)
	discounted, err := lending.DiscountedTokenPrice(effective, collection.LiquidationBonus, borrowed)
	if err != nil {
		return nil, err
	}

	payPrice, err := e.risk.AssetPrice(ctx, payAsset.AssetID)
	if err != nil {
		return nil, err
	}

	amount, err := number.Div(discounted, payPrice)
	if err != nil {
		return nil, err
	}
	amount = number.Ceil(amount, payAsset.Decimals)

	if err := lending.Require(req.MaxPayment.GreaterThanOrEqual(amount), core.ErrLiquidationAmountNotEnough); err != nil {
		log.WithError(err).Infof("skip: price %s above max payment", amount)
		return nil, err
	}

	repaid := map[string]decimal.Decimal{}
	excess := decimal.Zero

	if discounted.GreaterThan(before.TotalDebtValue) {
		for _, id := range borrower.Config.BorrowingIDs() {
			asset, err := txn.AssetByID(id)
			if err != nil {
				return nil, err
			}

			r, err := txn.BurnDebt(ctx, asset, borrower, lending.MaxAmount)
			if err != nil {
				return nil, err
			}

			if err := txn.AdjustLiquidity(ctx, asset, r); err != nil {
				return nil, err
			}

			txn.TransferUnderlying(asset.AssetID, liquidator.UserID, core.PoolAccount, r)
			repaid[asset.AssetID] = r
		}

		value, err := number.Div(discounted.Sub(before.TotalDebtValue), payPrice)
		if err != nil {
			return nil, err
		}

		excess = number.Floor(value, payAsset.Decimals)
		if err := txn.AdjustLiquidity(ctx, payAsset, excess); err != nil {
			return nil, err
		}

		txn.TransferUnderlying(payAsset.AssetID, liquidator.UserID, core.PoolAccount, excess)
	} else {
		excess = amount
		if borrowed {
			r, err := txn.BurnDebt(ctx, payAsset, borrower, amount)
			if err != nil {
				return nil, err
			}

			repaid[payAsset.AssetID] = r
			excess = amount.Sub(r)
		}

		if err := txn.AdjustLiquidity(ctx, payAsset, amount); err != nil {
			return nil, err
		}

		txn.TransferUnderlying(payAsset.AssetID, liquidator.UserID, core.PoolAccount, amount)
	}

	if excess.IsPositive() {
		scaled, err := txn.Deposit(ctx, payAsset, borrower, excess)
		if err != nil {
			return nil, err
		}

		txn.MintShare(payAsset.AssetID, borrower.UserID, scaled)
	}

	// the token changes hands exactly once
	borrower.RemoveToken(collection.AssetID, pos.TokenID)
	if err := state.SyncCollectionBit(collection, borrower); err != nil {
		return nil, err
	}

	if req.ReceiveAsShare {
		liquidator.PutToken(&core.NFTPosition{
			Collection:      collection.AssetID,
			TokenID:         pos.TokenID,
			Owner:           liquidator.UserID,
			UseAsCollateral: collection.Collateralizable,
		})

		if err := state.SyncCollectionBit(collection, liquidator); err != nil {
			return nil, err
		}
	} else {
		txn.TransferNFT(collection.AssetID, pos.TokenID, core.PoolAccount, liquidator.UserID)
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
		Protocol:           core.LiquidationNonFungible,
		Borrower:           borrower.UserID,
		Liquidator:         liquidator.UserID,
		CollateralAsset:    collection.AssetID,
		TokenID:            pos.TokenID,
		DebtAsset:          payAsset.AssetID,
		DebtRepaid:         repaid,
		CollateralSeized:   decimal.Zero,
		ProtocolFee:        decimal.Zero,
		LiquidatorReceived: decimal.Zero,
		ReceivedAsShare:    req.ReceiveAsShare,
		Paid:               amount,
		Refund:             decimal.Zero,
		ExcessCredited:     excess,
		PriceMultiplier:    multiplier,
		DiscountedPrice:    discounted,
		Before:             *before,
		After:              *after,
	}

	event, err := NewEvent(result)
	if err != nil {
		log.WithError(err).Errorln("NewEvent")
		return nil, err
	}

	txn.Record(event)
	log.Infof("token sold for %s %s", amount, payAsset.AssetID)
	return result, nil
}
