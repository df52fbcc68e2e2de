package core

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Balance scaled position of one user in one fungible reserve
type Balance struct {
	ScaledSupply ScaledAmount `json:"scaled_supply"`
	ScaledDebt   ScaledAmount `json:"scaled_debt"`
	// unix seconds of the last borrow / repay, 0 means never
	LastBorrowAt int64 `json:"last_borrow_at,omitempty"`
	LastRepayAt  int64 `json:"last_repay_at,omitempty"`
}

// IsEmpty no supply and no debt
func (b *Balance) IsEmpty() bool {
	return b.ScaledSupply.IsZero() && b.ScaledDebt.IsZero()
}

// AuctionState active auction of one token
type AuctionState struct {
	StartTime          int64           `json:"start_time"`
	TickLength         int64           `json:"tick_length"`
	MinPriceMultiplier decimal.Decimal `json:"min_price_multiplier"`
	MaxPriceMultiplier decimal.Decimal `json:"max_price_multiplier"`
	// Step curve parameter, per tick decrement or decay rate
	Step     decimal.Decimal `json:"step"`
	Strategy string          `json:"strategy"`
}

// NFTPosition token supplied by a user
type NFTPosition struct {
	Collection      string        `json:"collection"`
	TokenID         string        `json:"token_id"`
	Owner           string        `json:"owner"`
	UseAsCollateral bool          `json:"use_as_collateral"`
	Auction         *AuctionState `json:"auction,omitempty"`
}

// InAuction auction state present
func (p *NFTPosition) InAuction() bool {
	return p.Auction != nil
}

// TokenKey map key of a token
func TokenKey(collection, tokenID string) string {
	return collection + ":" + tokenID
}

// Account everything a user holds in the pool
type Account struct {
	UserID   string                  `json:"user_id"`
	Config   UserConfiguration       `json:"config"`
	Balances map[string]*Balance     `json:"balances,omitempty"`
	Tokens   map[string]*NFTPosition `json:"tokens,omitempty"`
	// optimistic lock, 0 for a new account
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewAccount empty account
func NewAccount(userID string) *Account {
	return &Account{
		UserID:   userID,
		Balances: map[string]*Balance{},
		Tokens:   map[string]*NFTPosition{},
	}
}

// Balance of asset, never nil
func (a *Account) Balance(assetID string) *Balance {
	if a.Balances == nil {
		a.Balances = map[string]*Balance{}
	}

	b, ok := a.Balances[assetID]
	if !ok {
		b = &Balance{ScaledSupply: ZeroScaled, ScaledDebt: ZeroScaled}
		a.Balances[assetID] = b
	}

	return b
}

// BalanceOf read only copy of the balance of asset
func (a *Account) BalanceOf(assetID string) Balance {
	if b, ok := a.Balances[assetID]; ok {
		return *b
	}

	return Balance{ScaledSupply: ZeroScaled, ScaledDebt: ZeroScaled}
}

// Token position, nil if not held
func (a *Account) Token(collection, tokenID string) *NFTPosition {
	return a.Tokens[TokenKey(collection, tokenID)]
}

// PutToken stores the position under its key
func (a *Account) PutToken(p *NFTPosition) {
	if a.Tokens == nil {
		a.Tokens = map[string]*NFTPosition{}
	}

	a.Tokens[TokenKey(p.Collection, p.TokenID)] = p
}

// RemoveToken drops the position
func (a *Account) RemoveToken(collection, tokenID string) {
	delete(a.Tokens, TokenKey(collection, tokenID))
}

// CollectionTokens positions of a collection, sorted by token id
func (a *Account) CollectionTokens(collection string) []*NFTPosition {
	var tokens []*NFTPosition
	for _, p := range a.Tokens {
		if p.Collection == collection {
			tokens = append(tokens, p)
		}
	}

	sort.Slice(tokens, func(i, j int) bool { return tokens[i].TokenID < tokens[j].TokenID })
	return tokens
}

// Prune drops empty balances
func (a *Account) Prune() {
	for id, b := range a.Balances {
		if b.IsEmpty() && b.LastBorrowAt == 0 && b.LastRepayAt == 0 {
			delete(a.Balances, id)
		}
	}
}

// Clone deep copy
func (a *Account) Clone() *Account {
	c := &Account{
		UserID:    a.UserID,
		Config:    a.Config,
		Balances:  make(map[string]*Balance, len(a.Balances)),
		Tokens:    make(map[string]*NFTPosition, len(a.Tokens)),
		Version:   a.Version,
		UpdatedAt: a.UpdatedAt,
	}

	for k, b := range a.Balances {
		bb := *b
		c.Balances[k] = &bb
	}

	for k, p := range a.Tokens {
		pp := *p
		if p.Auction != nil {
			auction := *p.Auction
			pp.Auction = &auction
		}
		c.Tokens[k] = &pp
	}

	return c
}

// IAccountStore account store interface
type IAccountStore interface {
	// Find returns a new empty account (Version 0) when none is stored
	Find(ctx context.Context, userID string) (*Account, error)
	// Save creates or updates with a version guard
	Save(ctx context.Context, account *Account) error
	// FindTokenOwner user holding the position, empty if none
	FindTokenOwner(ctx context.Context, collection, tokenID string) (string, error)
	// ListBorrowers users with at least one borrowing bit
	ListBorrowers(ctx context.Context) ([]string, error)
}
