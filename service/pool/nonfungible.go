package pool

import (
	"context"

	"nftlend/core"
	"nftlend/internal/metrics"
	"nftlend/pkg/lending"
	"nftlend/service/state"

	"github.com/fox-one/pkg/logger"
	"github.com/sirupsen/logrus"
)

func tokenKeys(collection string, tokenIDs []string) []string {
	keys := make([]string, 0, len(tokenIDs)+1)
	keys = append(keys, collection)
	for _, id := range tokenIDs {
		keys = append(keys, core.TokenKey(collection, id))
	}

	return keys
}

// SupplyNonFungible moves tokens of user into the pool. Tokens of a
// collateralizable collection are enabled as collateral.
func (p *Pool) SupplyNonFungible(ctx context.Context, userID, collection string, tokenIDs []string) error {
	return p.run(ctx, "supply_nft", []string{userID}, tokenKeys(collection, tokenIDs), func(ctx context.Context, txn *state.Txn) error {
		log := logger.FromContext(ctx).WithFields(logrus.Fields{
			"user":       userID,
			"collection": collection,
			"tokens":     tokenIDs,
		})

		asset, err := p.collection(txn, collection)
		if err != nil {
			return err
		}

		if err := lending.Require(len(tokenIDs) > 0, core.ErrInvalidAmount); err != nil {
			log.WithError(err).Infoln("skip: no tokens")
			return err
		}

		if err := lending.Require(asset.Active, core.ErrReserveInactive); err != nil {
			log.WithError(err).Infoln("skip: collection inactive")
			return err
		}

		if err := lending.Require(!asset.Frozen, core.ErrReserveFrozen); err != nil {
			log.WithError(err).Infoln("skip: collection frozen")
			return err
		}

		account, err := txn.Account(ctx, userID)
		if err != nil {
			return err
		}

		for _, id := range uniq(tokenIDs) {
			owner, err := p.deps.Accounts.FindTokenOwner(ctx, asset.AssetID, id)
			if err != nil {
				log.WithError(err).Errorln("accounts.FindTokenOwner")
				return err
			}

			if err := lending.Require(owner == "" && account.Token(asset.AssetID, id) == nil, core.ErrTokenAlreadySupplied); err != nil {
				log.WithError(err).Infof("skip: token %s already supplied", id)
				return err
			}

			account.PutToken(&core.NFTPosition{
				Collection:      asset.AssetID,
				TokenID:         id,
				Owner:           userID,
				UseAsCollateral: asset.Collateralizable && asset.LiquidationThreshold > 0,
			})
			txn.TransferNFT(asset.AssetID, id, userID, core.PoolAccount)
		}

		return state.SyncCollectionBit(asset, account)
	})
}

// WithdrawNonFungible returns tokens from the pool to user. A token in
// auction can only leave once the user has no debt left.
func (p *Pool) WithdrawNonFungible(ctx context.Context, userID, collection string, tokenIDs []string) error {
	return p.run(ctx, "withdraw_nft", []string{userID}, tokenKeys(collection, tokenIDs), func(ctx context.Context, txn *state.Txn) error {
		log := logger.FromContext(ctx).WithFields(logrus.Fields{
			"user":       userID,
			"collection": collection,
			"tokens":     tokenIDs,
		})

		asset, err := p.collection(txn, collection)
		if err != nil {
			return err
		}

		if err := lending.Require(len(tokenIDs) > 0, core.ErrInvalidAmount); err != nil {
			log.WithError(err).Infoln("skip: no tokens")
			return err
		}

		account, err := txn.Account(ctx, userID)
		if err != nil {
			return err
		}

		collateralRemoved := false
		for _, id := range uniq(tokenIDs) {
			pos := account.Token(asset.AssetID, id)
			if err := lending.Require(pos != nil, core.ErrTokenNotOwned); err != nil {
				log.WithError(err).Infof("skip: token %s not owned", id)
				return err
			}

			if err := lending.Require(!pos.InAuction() || !account.Config.IsBorrowingAny(), core.ErrTokenInAuction); err != nil {
				log.WithError(err).Infof("skip: token %s in auction", id)
				return err
			}

			collateralRemoved = collateralRemoved || pos.UseAsCollateral
			account.RemoveToken(asset.AssetID, id)
			txn.TransferNFT(asset.AssetID, id, core.PoolAccount, userID)
		}

		if err := state.SyncCollectionBit(asset, account); err != nil {
			return err
		}

		if collateralRemoved && account.Config.IsBorrowingAny() {
			if err := p.requireHealthy(ctx, txn, account, core.ErrHealthFactorLowerThanLiquidationThreshold); err != nil {
				log.WithError(err).Infoln("skip: withdraw would leave the account unhealthy")
				return err
			}
		}

		return nil
	})
}

// SetCollateralFlag toggles whether one supplied token backs the debt of user
func (p *Pool) SetCollateralFlag(ctx context.Context, userID, collection, tokenID string, enabled bool) error {
	return p.run(ctx, "set_collateral_flag", []string{userID}, tokenKeys(collection, []string{tokenID}), func(ctx context.Context, txn *state.Txn) error {
		log := logger.FromContext(ctx).WithFields(logrus.Fields{
			"user":       userID,
			"collection": collection,
			"token_id":   tokenID,
			"enabled":    enabled,
		})

		asset, err := p.collection(txn, collection)
		if err != nil {
			return err
		}

		account, err := txn.Account(ctx, userID)
		if err != nil {
			return err
		}

		pos := account.Token(asset.AssetID, tokenID)
		if err := lending.Require(pos != nil, core.ErrTokenNotOwned); err != nil {
			log.WithError(err).Infoln("skip: token not owned")
			return err
		}

		if pos.UseAsCollateral == enabled {
			return nil
		}

		if enabled {
			if err := lending.Require(asset.Collateralizable && asset.LiquidationThreshold > 0, core.ErrCollateralNotEnabled); err != nil {
				log.WithError(err).Infoln("skip: not collateralizable")
				return err
			}
		} else if err := lending.Require(!pos.InAuction(), core.ErrTokenInAuction); err != nil {
			log.WithError(err).Infoln("skip: token in auction")
			return err
		}

		pos.UseAsCollateral = enabled
		if err := state.SyncCollectionBit(asset, account); err != nil {
			return err
		}

		if !enabled && account.Config.IsBorrowingAny() {
			if err := p.requireHealthy(ctx, txn, account, core.ErrHealthFactorLowerThanLiquidationThreshold); err != nil {
				log.WithError(err).Infoln("skip: disabling would leave the account unhealthy")
				return err
			}
		}

		return nil
	})
}

// StartAuction puts a collateral token of user up for auction. Anyone may
// call it while the nft health factor of user is below recovery.
func (p *Pool) StartAuction(ctx context.Context, userID, collection, tokenID string) error {
	return p.run(ctx, "start_auction", []string{userID}, tokenKeys(collection, []string{tokenID}), func(ctx context.Context, txn *state.Txn) error {
		log := logger.FromContext(ctx).WithFields(logrus.Fields{
			"user":       userID,
			"collection": collection,
			"token_id":   tokenID,
		})

		asset, err := p.collection(txn, collection)
		if err != nil {
			return err
		}

		account, err := txn.Account(ctx, userID)
		if err != nil {
			return err
		}

		pos := account.Token(asset.AssetID, tokenID)
		if err := lending.Require(pos != nil, core.ErrTokenNotOwned); err != nil {
			log.WithError(err).Infoln("skip: token not owned")
			return err
		}

		if err := lending.Require(pos.UseAsCollateral, core.ErrCollateralNotEnabled); err != nil {
			log.WithError(err).Infoln("skip: token is not collateral")
			return err
		}

		if err := lending.Require(p.auctions.Enabled(ctx, asset.AssetID), core.ErrAuctionNotEnabled); err != nil {
			log.WithError(err).Infoln("skip: auctions disabled")
			return err
		}

		if err := lending.Require(!pos.InAuction(), core.ErrAuctionAlreadyStarted); err != nil {
			log.WithError(err).Infoln("skip: already in auction")
			return err
		}

		data, err := p.risk.ComputeAccountData(ctx, account, txn, txn.Now())
		if err != nil {
			log.WithError(err).Errorln("risk.ComputeAccountData")
			return err
		}

		if err := lending.Require(data.NftHealthFactor.LessThan(p.cfg.RecoveryHealthFactor), core.ErrHealthFactorNotBelowRecovery); err != nil {
			log.WithError(err).Infof("skip: nft health factor %s", data.NftHealthFactor)
			return err
		}

		if err := p.auctions.Start(ctx, pos, txn.Now()); err != nil {
			return err
		}

		metrics.Auctions.WithLabelValues("start").Inc()
		return nil
	})
}

// EndAuction cancels the auction of a token once the nft health factor of
// user has recovered
func (p *Pool) EndAuction(ctx context.Context, userID, collection, tokenID string) error {
	return p.run(ctx, "end_auction", []string{userID}, tokenKeys(collection, []string{tokenID}), func(ctx context.Context, txn *state.Txn) error {
		log := logger.FromContext(ctx).WithFields(logrus.Fields{
			"user":       userID,
			"collection": collection,
			"token_id":   tokenID,
		})

		asset, err := p.collection(txn, collection)
		if err != nil {
			return err
		}

		account, err := txn.Account(ctx, userID)
		if err != nil {
			return err
		}

		pos := account.Token(asset.AssetID, tokenID)
		if err := lending.Require(pos != nil, core.ErrTokenNotOwned); err != nil {
			log.WithError(err).Infoln("skip: token not owned")
			return err
		}

		if err := lending.Require(pos.InAuction(), core.ErrAuctionNotStarted); err != nil {
			log.WithError(err).Infoln("skip: not in auction")
			return err
		}

		data, err := p.risk.ComputeAccountData(ctx, account, txn, txn.Now())
		if err != nil {
			log.WithError(err).Errorln("risk.ComputeAccountData")
			return err
		}

		if err := lending.Require(data.NftHealthFactor.GreaterThanOrEqual(p.cfg.RecoveryHealthFactor), core.ErrHealthFactorNotRecovered); err != nil {
			log.WithError(err).Infof("skip: nft health factor %s", data.NftHealthFactor)
			return err
		}

		if err := p.auctions.End(pos); err != nil {
			return err
		}

		metrics.Auctions.WithLabelValues("end").Inc()
		return nil
	})
}
