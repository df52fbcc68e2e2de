package core

import (
	"errors"
	"strconv"
)

// ErrorCode int
type ErrorCode int

const (
	// ErrUnknown unkown
	ErrUnknown ErrorCode = 100000
	// ErrOperationForbidden operation forbidden
	ErrOperationForbidden ErrorCode = 100001
	// ErrInvalidArgument invalid argument
	ErrInvalidArgument ErrorCode = 100002
	// ErrVersionConflict record modified concurrently
	ErrVersionConflict ErrorCode = 100003

	// ErrAssetNotFound no asset configured
	ErrAssetNotFound ErrorCode = 100100
	// ErrInvalidAmount invalid amount
	ErrInvalidAmount ErrorCode = 100101
	// ErrReserveInactive reserve not active
	ErrReserveInactive ErrorCode = 100102
	// ErrReserveFrozen reserve frozen
	ErrReserveFrozen ErrorCode = 100103
	// ErrBorrowingNotEnabled borrowing disabled on the reserve
	ErrBorrowingNotEnabled ErrorCode = 100104
	// ErrInsufficientBalance insufficient balance
	ErrInsufficientBalance ErrorCode = 100105
	// ErrInsufficientLiquidity insufficient liquidity
	ErrInsufficientLiquidity ErrorCode = 100106
	// ErrInvalidPrice invalid price
	ErrInvalidPrice ErrorCode = 100107
	// ErrInvalidAssetType fungible operation on a non-fungible asset or vice versa
	ErrInvalidAssetType ErrorCode = 100108
	// ErrNoDebtOfSelectedType nothing to repay
	ErrNoDebtOfSelectedType ErrorCode = 100109
	// ErrSameBlockBorrowRepay borrow and repay in the same block
	ErrSameBlockBorrowRepay ErrorCode = 100110
	// ErrTokenNotOwned token not supplied by the user
	ErrTokenNotOwned ErrorCode = 100111
	// ErrTokenAlreadySupplied token already held by the pool
	ErrTokenAlreadySupplied ErrorCode = 100112
	// ErrCollateralNotEnabled asset cannot be used as collateral
	ErrCollateralNotEnabled ErrorCode = 100113
	// ErrInvalidAssetConfig bad admin configuration
	ErrInvalidAssetConfig ErrorCode = 100114

	// ErrHealthFactorLowerThanLiquidationThreshold voluntary action would leave hf < 1
	ErrHealthFactorLowerThanLiquidationThreshold ErrorCode = 100200
	// ErrCollateralCannotCoverNewBorrow borrow over the available credit line
	ErrCollateralCannotCoverNewBorrow ErrorCode = 100201
	// ErrHealthFactorNotBelowThreshold position not eligible for liquidation
	ErrHealthFactorNotBelowThreshold ErrorCode = 100202
	// ErrSpecifiedCurrencyNotBorrowed debt asset not borrowed by the user
	ErrSpecifiedCurrencyNotBorrowed ErrorCode = 100203
	// ErrCollateralCannotBeLiquidated collateral not held or not liquidatable
	ErrCollateralCannotBeLiquidated ErrorCode = 100204
	// ErrLiquidationAmountNotEnough payment does not cover the liquidation price
	ErrLiquidationAmountNotEnough ErrorCode = 100205
	// ErrSelfLiquidation liquidator and borrower are the same user
	ErrSelfLiquidation ErrorCode = 100206

	// ErrAuctionNotEnabled collection has no auction strategy
	ErrAuctionNotEnabled ErrorCode = 100300
	// ErrAuctionAlreadyStarted token already in auction
	ErrAuctionAlreadyStarted ErrorCode = 100301
	// ErrAuctionNotStarted token not in auction
	ErrAuctionNotStarted ErrorCode = 100302
	// ErrHealthFactorNotBelowRecovery nft health factor at or above the recovery threshold
	ErrHealthFactorNotBelowRecovery ErrorCode = 100303
	// ErrHealthFactorNotRecovered nft health factor still below the recovery threshold
	ErrHealthFactorNotRecovered ErrorCode = 100304
	// ErrTokenInAuction token is locked by an active auction
	ErrTokenInAuction ErrorCode = 100305

	// ErrInvariantOverflow value out of range
	ErrInvariantOverflow ErrorCode = 100900
	// ErrInvariantDivisionByZero division by zero
	ErrInvariantDivisionByZero ErrorCode = 100901
	// ErrInvariantNegativeValue negative balance or amount
	ErrInvariantNegativeValue ErrorCode = 100902
	// ErrInvariantNegativeRate rate model returned a negative rate
	ErrInvariantNegativeRate ErrorCode = 100903
	// ErrInvariantUserConfigDrift user configuration bits disagree with balances
	ErrInvariantUserConfigDrift ErrorCode = 100904
	// ErrInvariantIndexDecreased accrual index went backwards
	ErrInvariantIndexDecreased ErrorCode = 100905
)

var errorTexts = map[ErrorCode]string{
	ErrUnknown:                                   "unknown",
	ErrOperationForbidden:                        "operation forbidden",
	ErrInvalidArgument:                           "invalid argument",
	ErrVersionConflict:                           "version conflict",
	ErrAssetNotFound:                             "asset not found",
	ErrInvalidAmount:                             "invalid amount",
	ErrReserveInactive:                           "reserve inactive",
	ErrReserveFrozen:                             "reserve frozen",
	ErrBorrowingNotEnabled:                       "borrowing not enabled",
	ErrInsufficientBalance:                       "insufficient balance",
	ErrInsufficientLiquidity:                     "insufficient liquidity",
	ErrInvalidPrice:                              "invalid price",
	ErrInvalidAssetType:                          "invalid asset type",
	ErrNoDebtOfSelectedType:                      "no debt of selected type",
	ErrSameBlockBorrowRepay:                      "same block borrow repay",
	ErrTokenNotOwned:                             "token not owned",
	ErrTokenAlreadySupplied:                      "token already supplied",
	ErrCollateralNotEnabled:                      "collateral not enabled",
	ErrInvalidAssetConfig:                        "invalid asset config",
	ErrHealthFactorLowerThanLiquidationThreshold: "health factor lower than liquidation threshold",
	ErrCollateralCannotCoverNewBorrow:            "collateral cannot cover new borrow",
	ErrHealthFactorNotBelowThreshold:             "health factor not below threshold",
	ErrSpecifiedCurrencyNotBorrowed:              "specified currency not borrowed by user",
	ErrCollateralCannotBeLiquidated:              "collateral cannot be liquidated",
	ErrLiquidationAmountNotEnough:                "liquidation amount not enough",
	ErrSelfLiquidation:                           "self liquidation",
	ErrAuctionNotEnabled:                         "auction not enabled",
	ErrAuctionAlreadyStarted:                     "auction already started",
	ErrAuctionNotStarted:                         "auction not started",
	ErrHealthFactorNotBelowRecovery:              "nft health factor not below recovery threshold",
	ErrHealthFactorNotRecovered:                  "nft health factor not recovered",
	ErrTokenInAuction:                            "token in auction",
	ErrInvariantOverflow:                         "invariant: overflow",
	ErrInvariantDivisionByZero:                   "invariant: division by zero",
	ErrInvariantNegativeValue:                    "invariant: negative value",
	ErrInvariantNegativeRate:                     "invariant: negative rate",
	ErrInvariantUserConfigDrift:                  "invariant: user configuration drift",
	ErrInvariantIndexDecreased:                   "invariant: index decreased",
}

func (e ErrorCode) String() string {
	return strconv.Itoa(int(e))
}

func (e ErrorCode) Error() string {
	if text, ok := errorTexts[e]; ok {
		return e.String() + " " + text
	}

	return e.String()
}

// IsInvariant reports whether the code is an invariant violation
func (e ErrorCode) IsInvariant() bool {
	return e >= ErrInvariantOverflow && e < ErrInvariantOverflow+100
}

// IsInvariant reports whether err wraps an invariant violation
func IsInvariant(err error) bool {
	var code ErrorCode
	if errors.As(err, &code) {
		return code.IsInvariant()
	}

	return false
}

// CodeOf extracts the error code, ErrUnknown if err carries none
func CodeOf(err error) ErrorCode {
	var code ErrorCode
	if errors.As(err, &code) {
		return code
	}

	return ErrUnknown
}
