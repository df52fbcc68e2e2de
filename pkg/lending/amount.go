package lending

import (
	"nftlend/pkg/number"

	"github.com/shopspring/decimal"
)

// MaxAmount sentinel for withdraw everything / repay everything requests
var MaxAmount = number.MaxValue

// IsMaxAmount amount asks for everything
func IsMaxAmount(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(MaxAmount)
}
