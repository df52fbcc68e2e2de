package ratemodel

import (
	"context"

	"nftlend/core"
	"nftlend/pkg/lending"
	"nftlend/pkg/number"

	"github.com/shopspring/decimal"
)

type kinkedModel struct{}

// New kinked (jump) rate model reading its parameters from the asset config
func New() core.IInterestRateModel {
	return &kinkedModel{}
}

func (m *kinkedModel) GetCurrentBorrowRate(ctx context.Context, asset *core.AssetConfig, utilization decimal.Decimal) (decimal.Decimal, error) {
	if err := checkUtilization(utilization); err != nil {
		return decimal.Zero, err
	}

	rate := lending.BorrowRate(utilization, asset.BaseRate, asset.Multiplier, asset.JumpMultiplier, asset.Kink)
	if rate.IsNegative() {
		return decimal.Zero, core.ErrInvariantNegativeRate
	}

	return rate, nil
}

func (m *kinkedModel) GetCurrentSupplyRate(ctx context.Context, asset *core.AssetConfig, utilization decimal.Decimal) (decimal.Decimal, error) {
	borrowRate, err := m.GetCurrentBorrowRate(ctx, asset, utilization)
	if err != nil {
		return decimal.Zero, err
	}

	return lending.SupplyRate(utilization, borrowRate, asset.ReserveFactor), nil
}

func checkUtilization(u decimal.Decimal) error {
	if u.IsNegative() || u.GreaterThan(number.One) {
		return core.ErrInvalidArgument
	}

	return nil
}
