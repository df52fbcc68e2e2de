package views

import (
	"nftlend/core"
	"nftlend/pkg/number"

	"github.com/shopspring/decimal"
)

// Reserve reserve view
type Reserve struct {
	*core.Reserve
	Symbol      string          `json:"symbol"`
	Decimals    int32           `json:"decimals"`
	Utilization decimal.Decimal `json:"utilization"`
	TotalSupply decimal.Decimal `json:"total_supply"`
	TotalDebt   decimal.Decimal `json:"total_debt"`
}

// ReserveFrom view of r at its current indices
func ReserveFrom(asset *core.AssetConfig, r *core.Reserve) *Reserve {
	return &Reserve{
		Reserve:     r,
		Symbol:      asset.Symbol,
		Decimals:    asset.Decimals,
		Utilization: r.Utilization(),
		TotalSupply: number.Floor(r.TotalScaledSupply.Mul(r.LiquidityIndex), asset.Decimals),
		TotalDebt:   number.Ceil(r.TotalDebt(), asset.Decimals),
	}
}
