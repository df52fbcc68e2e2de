package pool

import (
	"context"

	"nftlend/core"
	"nftlend/pkg/lending"
	"nftlend/pkg/number"
	"nftlend/service/risk"
	"nftlend/service/state"

	"github.com/fox-one/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Supply deposits amount of a fungible asset for user
func (p *Pool) Supply(ctx context.Context, userID, assetID string, amount decimal.Decimal) error {
	return p.run(ctx, "supply", []string{userID}, []string{assetID}, func(ctx context.Context, txn *state.Txn) error {
		log := logger.FromContext(ctx).WithFields(logrus.Fields{
			"user":   userID,
			"asset":  assetID,
			"amount": amount,
		})

		asset, err := p.fungible(txn, assetID)
		if err != nil {
			return err
		}

		amount = number.Floor(amount, asset.Decimals)
		if err := lending.Require(amount.IsPositive(), core.ErrInvalidAmount); err != nil {
			log.WithError(err).Infoln("skip: invalid amount")
			return err
		}

		if err := lending.Require(asset.Active, core.ErrReserveInactive); err != nil {
			log.WithError(err).Infoln("skip: reserve inactive")
			return err
		}

		if err := lending.Require(!asset.Frozen, core.ErrReserveFrozen); err != nil {
			log.WithError(err).Infoln("skip: reserve frozen")
			return err
		}

		account, err := txn.Account(ctx, userID)
		if err != nil {
			return err
		}

		scaled, err := txn.Deposit(ctx, asset, account, amount)
		if err != nil {
			return err
		}

		if err := txn.AdjustLiquidity(ctx, asset, amount); err != nil {
			return err
		}

		txn.TransferUnderlying(asset.AssetID, userID, core.PoolAccount, amount)
		txn.MintShare(asset.AssetID, userID, scaled)
		return nil
	})
}

// Withdraw redeems amount of the deposit of user, lending.MaxAmount redeems
// everything. Returns the amount actually withdrawn.
func (p *Pool) Withdraw(ctx context.Context, userID, assetID string, amount decimal.Decimal) (decimal.Decimal, error) {
	withdrawn := decimal.Zero

	err := p.run(ctx, "withdraw", []string{userID}, []string{assetID}, func(ctx context.Context, txn *state.Txn) error {
		log := logger.FromContext(ctx).WithFields(logrus.Fields{
			"user":   userID,
			"asset":  assetID,
			"amount": amount,
		})

		asset, err := p.fungible(txn, assetID)
		if err != nil {
			return err
		}

		if err := lending.Require(amount.IsPositive(), core.ErrInvalidAmount); err != nil {
			log.WithError(err).Infoln("skip: invalid amount")
			return err
		}

		if err := lending.Require(asset.Active, core.ErrReserveInactive); err != nil {
			log.WithError(err).Infoln("skip: reserve inactive")
			return err
		}

		account, err := txn.Account(ctx, userID)
		if err != nil {
			return err
		}

		reserve, err := txn.Reserve(ctx, asset.AssetID)
		if err != nil {
			return err
		}

		b := account.BalanceOf(asset.AssetID)
		balance := risk.SupplyBalance(asset, reserve, &b)
		if lending.IsMaxAmount(amount) {
			amount = balance
		}

		if err := lending.Require(amount.IsPositive() && amount.LessThanOrEqual(balance), core.ErrInsufficientBalance); err != nil {
			log.WithError(err).Infof("skip: balance %s", balance)
			return err
		}

		if err := lending.Require(amount.LessThanOrEqual(reserve.AvailableLiquidity), core.ErrInsufficientLiquidity); err != nil {
			log.WithError(err).Infof("skip: liquidity %s", reserve.AvailableLiquidity)
			return err
		}

		collateral := account.Config.IsUsingAsCollateral(asset.ID)

		scaled, err := txn.Redeem(ctx, asset, account, amount)
		if err != nil {
			return err
		}

		if err := txn.AdjustLiquidity(ctx, asset, amount.Neg()); err != nil {
			return err
		}

		if collateral && account.Config.IsBorrowingAny() {
			if err := p.requireHealthy(ctx, txn, account, core.ErrHealthFactorLowerThanLiquidationThreshold); err != nil {
				log.WithError(err).Infoln("skip: withdraw would leave the account unhealthy")
				return err
			}
		}

		txn.BurnShare(asset.AssetID, userID, scaled)
		txn.TransferUnderlying(asset.AssetID, core.PoolAccount, userID, amount)
		withdrawn = amount
		return nil
	})

	return withdrawn, err
}

// Borrow opens amount of variable debt for user against its collateral
func (p *Pool) Borrow(ctx context.Context, userID, assetID string, amount decimal.Decimal) error {
	return p.run(ctx, "borrow", []string{userID}, []string{assetID}, func(ctx context.Context, txn *state.Txn) error {
		log := logger.FromContext(ctx).WithFields(logrus.Fields{
			"user":   userID,
			"asset":  assetID,
			"amount": amount,
		})

		asset, err := p.fungible(txn, assetID)
		if err != nil {
			return err
		}

		amount = number.Ceil(amount, asset.Decimals)
		if err := lending.Require(amount.IsPositive(), core.ErrInvalidAmount); err != nil {
			log.WithError(err).Infoln("skip: invalid amount")
			return err
		}

		if err := lending.Require(asset.Active, core.ErrReserveInactive); err != nil {
			log.WithError(err).Infoln("skip: reserve inactive")
			return err
		}

		if err := lending.Require(!asset.Frozen, core.ErrReserveFrozen); err != nil {
			log.WithError(err).Infoln("skip: reserve frozen")
			return err
		}

		if err := lending.Require(asset.Borrowable, core.ErrBorrowingNotEnabled); err != nil {
			log.WithError(err).Infoln("skip: borrowing disabled")
			return err
		}

		account, err := txn.Account(ctx, userID)
		if err != nil {
			return err
		}

		b := account.Balance(asset.AssetID)
		if err := lending.Require(!p.sameBlock(b.LastRepayAt, txn.Now()), core.ErrSameBlockBorrowRepay); err != nil {
			log.WithError(err).Infoln("skip: repaid in this block")
			return err
		}

		reserve, err := txn.Reserve(ctx, asset.AssetID)
		if err != nil {
			return err
		}

		if err := lending.Require(amount.LessThanOrEqual(reserve.AvailableLiquidity), core.ErrInsufficientLiquidity); err != nil {
			log.WithError(err).Infof("skip: liquidity %s", reserve.AvailableLiquidity)
			return err
		}

		data, err := p.risk.ComputeAccountData(ctx, account, txn, txn.Now())
		if err != nil {
			log.WithError(err).Errorln("risk.ComputeAccountData")
			return err
		}

		if err := lending.Require(data.TotalCollateralValue.IsPositive(), core.ErrCollateralCannotCoverNewBorrow); err != nil {
			log.WithError(err).Infoln("skip: no collateral")
			return err
		}

		if err := lending.Require(
			data.HealthFactor.GreaterThanOrEqual(lending.HealthFactorLiquidationThreshold),
			core.ErrHealthFactorLowerThanLiquidationThreshold,
		); err != nil {
			log.WithError(err).Infoln("skip: unhealthy")
			return err
		}

		price, err := p.risk.AssetPrice(ctx, asset.AssetID)
		if err != nil {
			return err
		}

		value, err := number.Mul(amount, price)
		if err != nil {
			return err
		}

		if err := lending.Require(value.LessThanOrEqual(data.AvailableToBorrow), core.ErrCollateralCannotCoverNewBorrow); err != nil {
			log.WithError(err).Infof("skip: available %s", data.AvailableToBorrow)
			return err
		}

		if err := txn.MintDebt(ctx, asset, account, amount); err != nil {
			return err
		}

		if err := txn.AdjustLiquidity(ctx, asset, amount.Neg()); err != nil {
			return err
		}

		if err := p.requireHealthy(ctx, txn, account, core.ErrCollateralCannotCoverNewBorrow); err != nil {
			log.WithError(err).Infoln("skip: borrow would leave the account unhealthy")
			return err
		}

		b.LastBorrowAt = txn.Now()
		txn.TransferUnderlying(asset.AssetID, core.PoolAccount, userID, amount)
		return nil
	})
}

// Repay pays back up to amount of the debt of user, lending.MaxAmount repays
// everything. Returns the amount actually repaid. Paying off the last debt
// ends every auction of the user.
func (p *Pool) Repay(ctx context.Context, userID, assetID string, amount decimal.Decimal) (decimal.Decimal, error) {
	repaid := decimal.Zero

	err := p.run(ctx, "repay", []string{userID}, []string{assetID}, func(ctx context.Context, txn *state.Txn) error {
		log := logger.FromContext(ctx).WithFields(logrus.Fields{
			"user":   userID,
			"asset":  assetID,
			"amount": amount,
		})

		asset, err := p.fungible(txn, assetID)
		if err != nil {
			return err
		}

		if err := lending.Require(amount.IsPositive(), core.ErrInvalidAmount); err != nil {
			log.WithError(err).Infoln("skip: invalid amount")
			return err
		}

		if err := lending.Require(asset.Active, core.ErrReserveInactive); err != nil {
			log.WithError(err).Infoln("skip: reserve inactive")
			return err
		}

		account, err := txn.Account(ctx, userID)
		if err != nil {
			return err
		}

		if err := lending.Require(account.Config.IsBorrowing(asset.ID), core.ErrNoDebtOfSelectedType); err != nil {
			log.WithError(err).Infoln("skip: no debt")
			return err
		}

		b := account.Balance(asset.AssetID)
		if err := lending.Require(!p.sameBlock(b.LastBorrowAt, txn.Now()), core.ErrSameBlockBorrowRepay); err != nil {
			log.WithError(err).Infoln("skip: borrowed in this block")
			return err
		}

		if !lending.IsMaxAmount(amount) {
			amount = number.Floor(amount, asset.Decimals)
		}

		r, err := txn.BurnDebt(ctx, asset, account, amount)
		if err != nil {
			return err
		}

		if err := txn.AdjustLiquidity(ctx, asset, r); err != nil {
			return err
		}

		if !account.Config.IsBorrowingAny() {
			if n := p.auctions.EndAll(account); n > 0 {
				log.Infof("%d auctions cancelled", n)
			}
		}

		b.LastRepayAt = txn.Now()
		txn.TransferUnderlying(asset.AssetID, userID, core.PoolAccount, r)
		repaid = r
		return nil
	})

	return repaid, err
}

// SetAssetCollateral toggles whether the deposit of a fungible asset backs
// the debt of user
func (p *Pool) SetAssetCollateral(ctx context.Context, userID, assetID string, enabled bool) error {
	return p.run(ctx, "set_asset_collateral", []string{userID}, []string{assetID}, func(ctx context.Context, txn *state.Txn) error {
		log := logger.FromContext(ctx).WithFields(logrus.Fields{
			"user":    userID,
			"asset":   assetID,
			"enabled": enabled,
		})

		asset, err := p.fungible(txn, assetID)
		if err != nil {
			return err
		}

		account, err := txn.Account(ctx, userID)
		if err != nil {
			return err
		}

		if account.Config.IsUsingAsCollateral(asset.ID) == enabled {
			return nil
		}

		if enabled {
			if err := lending.Require(asset.Collateralizable && asset.LiquidationThreshold > 0, core.ErrCollateralNotEnabled); err != nil {
				log.WithError(err).Infoln("skip: not collateralizable")
				return err
			}

			b := account.BalanceOf(asset.AssetID)
			if err := lending.Require(!b.ScaledSupply.IsZero(), core.ErrInsufficientBalance); err != nil {
				log.WithError(err).Infoln("skip: no deposit")
				return err
			}
		}

		if err := account.Config.SetUsingAsCollateral(asset.ID, enabled); err != nil {
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
