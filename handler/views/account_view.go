package views

import (
	"sort"

	"nftlend/core"

	"github.com/shopspring/decimal"
)

// Token supplied token view
type Token struct {
	*core.NFTPosition
	PriceMultiplier decimal.Decimal `json:"price_multiplier"`
}

// Account account view
type Account struct {
	UserID   string                     `json:"user_id"`
	State    string                     `json:"state"`
	Data     *core.AccountData          `json:"data"`
	Supplies map[string]decimal.Decimal `json:"supplies"`
	Debts    map[string]decimal.Decimal `json:"debts"`
	Tokens   []*Token                   `json:"tokens"`
}

// SortTokens orders tokens by collection and token id
func (a *Account) SortTokens() {
	sort.Slice(a.Tokens, func(i, j int) bool {
		if a.Tokens[i].Collection != a.Tokens[j].Collection {
			return a.Tokens[i].Collection < a.Tokens[j].Collection
		}

		return a.Tokens[i].TokenID < a.Tokens[j].TokenID
	})
}
