package custody

import (
	"context"
	"sync"

	"nftlend/core"

	"github.com/shopspring/decimal"
)

// Ledger in memory custody of underlying assets, shares and tokens
type Ledger struct {
	mux        sync.RWMutex
	underlying map[string]map[string]decimal.Decimal
	shares     map[string]map[string]decimal.Decimal
	nfts       map[string]string
}

// NewLedger empty ledger
func NewLedger() *Ledger {
	return &Ledger{
		underlying: map[string]map[string]decimal.Decimal{},
		shares:     map[string]map[string]decimal.Decimal{},
		nfts:       map[string]string{},
	}
}

// Fund credits underlying to an account out of thin air
func (l *Ledger) Fund(assetID, account string, amount decimal.Decimal) {
	l.mux.Lock()
	defer l.mux.Unlock()
	credit(l.underlying, assetID, account, amount)
}

// MintNFT assigns a new token to owner
func (l *Ledger) MintNFT(collection, tokenID, owner string) {
	l.mux.Lock()
	defer l.mux.Unlock()
	l.nfts[core.TokenKey(collection, tokenID)] = owner
}

// BalanceOf underlying held by account
func (l *Ledger) BalanceOf(assetID, account string) decimal.Decimal {
	l.mux.RLock()
	defer l.mux.RUnlock()
	return l.underlying[assetID][account]
}

// ShareOf interest bearing shares minted to account
func (l *Ledger) ShareOf(assetID, account string) decimal.Decimal {
	l.mux.RLock()
	defer l.mux.RUnlock()
	return l.shares[assetID][account]
}

func (l *Ledger) TransferUnderlying(ctx context.Context, assetID, from, to string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return core.ErrInvariantNegativeValue
	}

	l.mux.Lock()
	defer l.mux.Unlock()

	if err := debit(l.underlying, assetID, from, amount); err != nil {
		return err
	}

	credit(l.underlying, assetID, to, amount)
	return nil
}

func (l *Ledger) MintShare(ctx context.Context, assetID, to string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return core.ErrInvariantNegativeValue
	}

	l.mux.Lock()
	defer l.mux.Unlock()
	credit(l.shares, assetID, to, amount)
	return nil
}

func (l *Ledger) BurnShare(ctx context.Context, assetID, from string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return core.ErrInvariantNegativeValue
	}

	l.mux.Lock()
	defer l.mux.Unlock()
	return debit(l.shares, assetID, from, amount)
}

func (l *Ledger) TransferNFT(ctx context.Context, collection, tokenID, from, to string) error {
	l.mux.Lock()
	defer l.mux.Unlock()

	key := core.TokenKey(collection, tokenID)
	if l.nfts[key] != from {
		return core.ErrTokenNotOwned
	}

	l.nfts[key] = to
	return nil
}

func (l *Ledger) OwnerOf(ctx context.Context, collection, tokenID string) (string, error) {
	l.mux.RLock()
	defer l.mux.RUnlock()
	return l.nfts[core.TokenKey(collection, tokenID)], nil
}

func credit(book map[string]map[string]decimal.Decimal, assetID, account string, amount decimal.Decimal) {
	accounts, ok := book[assetID]
	if !ok {
		accounts = map[string]decimal.Decimal{}
		book[assetID] = accounts
	}

	accounts[account] = accounts[account].Add(amount)
}

func debit(book map[string]map[string]decimal.Decimal, assetID, account string, amount decimal.Decimal) error {
	balance := book[assetID][account]
	if balance.LessThan(amount) {
		return core.ErrInsufficientBalance
	}

	if amount.IsZero() {
		return nil
	}

	book[assetID][account] = balance.Sub(amount)
	return nil
}
