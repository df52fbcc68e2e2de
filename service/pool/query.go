package pool

import (
	"context"

	"nftlend/core"
	"nftlend/pkg/lending"
	"nftlend/service/risk"
	"nftlend/service/state"

	"github.com/shopspring/decimal"
)

// Reads run on a transition that is never committed, so reserves are
// previewed at the current time and nothing is written.

// ComputeAccountData risk snapshot of user right now
func (p *Pool) ComputeAccountData(ctx context.Context, userID string) (*core.AccountData, error) {
	txn := state.Begin(p.deps, p.clock())
	account, err := txn.Account(ctx, userID)
	if err != nil {
		return nil, err
	}

	return p.risk.ComputeAccountData(ctx, account, txn, txn.Now())
}

// AccountView account with its current balances and risk snapshot
type AccountView struct {
	Account  *core.Account              `json:"account"`
	Data     *core.AccountData          `json:"data"`
	Supplies map[string]decimal.Decimal `json:"supplies"`
	Debts    map[string]decimal.Decimal `json:"debts"`
}

// Account current view of user
func (p *Pool) Account(ctx context.Context, userID string) (*AccountView, error) {
	txn := state.Begin(p.deps, p.clock())
	account, err := txn.Account(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &AccountView{
		Account:  account,
		Supplies: map[string]decimal.Decimal{},
		Debts:    map[string]decimal.Decimal{},
	}

	for assetID, b := range account.Balances {
		asset, err := p.fungible(txn, assetID)
		if err != nil {
			return nil, err
		}

		reserve, err := txn.Reserve(ctx, assetID)
		if err != nil {
			return nil, err
		}

		if !b.ScaledSupply.IsZero() {
			view.Supplies[assetID] = risk.SupplyBalance(asset, reserve, b)
		}

		if !b.ScaledDebt.IsZero() {
			view.Debts[assetID] = risk.DebtBalance(asset, reserve, b)
		}
	}

	if view.Data, err = p.risk.ComputeAccountData(ctx, account, txn, txn.Now()); err != nil {
		return nil, err
	}

	return view, nil
}

// Reserve current state of the reserve of assetID
func (p *Pool) Reserve(ctx context.Context, assetID string) (*core.Reserve, error) {
	txn := state.Begin(p.deps, p.clock())
	return txn.Reserve(ctx, assetID)
}

// Reserves current state of every fungible reserve
func (p *Pool) Reserves(ctx context.Context) ([]*core.Reserve, error) {
	txn := state.Begin(p.deps, p.clock())

	var reserves []*core.Reserve
	for _, asset := range p.deps.Assets.All() {
		if asset.IsNonFungible() {
			continue
		}

		r, err := txn.Reserve(ctx, asset.AssetID)
		if err != nil {
			return nil, err
		}

		reserves = append(reserves, r)
	}

	return reserves, nil
}

// OwnerOf beneficial owner of a token: the user holding the position while
// the pool keeps it, the custody owner otherwise
func (p *Pool) OwnerOf(ctx context.Context, collection, tokenID string) (string, error) {
	owner, err := p.deps.Accounts.FindTokenOwner(ctx, collection, tokenID)
	if err != nil {
		return "", err
	}

	if owner != "" {
		return owner, nil
	}

	return p.custody.OwnerOf(ctx, collection, tokenID)
}

// AuctionMultiplier current price multiplier of a supplied token, 1 when it
// is not in auction
func (p *Pool) AuctionMultiplier(ctx context.Context, collection, tokenID string) (decimal.Decimal, error) {
	owner, err := p.deps.Accounts.FindTokenOwner(ctx, collection, tokenID)
	if err != nil {
		return decimal.Zero, err
	}

	if owner == "" {
		return decimal.Zero, core.ErrTokenNotOwned
	}

	account, err := p.deps.Accounts.Find(ctx, owner)
	if err != nil {
		return decimal.Zero, err
	}

	pos := account.Token(collection, tokenID)
	if pos == nil {
		return decimal.Zero, core.ErrTokenNotOwned
	}

	return p.auctions.Multiplier(ctx, pos, p.clock())
}

// Liquidations newest liquidation events, of one borrower if not empty
func (p *Pool) Liquidations(ctx context.Context, borrower string, limit int) ([]*core.LiquidationEvent, error) {
	return p.deps.Events.List(ctx, borrower, limit)
}

// Borrowers users with open debt
func (p *Pool) Borrowers(ctx context.Context) ([]string, error) {
	return p.deps.Accounts.ListBorrowers(ctx)
}

// risk states of an account
const (
	StateHealthy      = "healthy"
	StateAuctionable  = "auctionable"
	StateLiquidatable = "liquidatable"
	StateBadDebt      = "bad_debt"
)

// RiskState classifies data for keepers and metrics
func (p *Pool) RiskState(data *core.AccountData) string {
	switch {
	case data.BadDebt():
		return StateBadDebt
	case data.HealthFactor.LessThan(lending.HealthFactorLiquidationThreshold):
		return StateLiquidatable
	case data.HasDebt() && data.NftHealthFactor.LessThan(p.cfg.RecoveryHealthFactor):
		return StateAuctionable
	default:
		return StateHealthy
	}
}
