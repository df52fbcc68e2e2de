package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"nftlend/core"
)

// Store in memory reserves, accounts and liquidation events. Tx undoes the
// writes made inside a failed transaction only, so concurrent transactions
// on other keys are left alone.
type Store struct {
	mux      sync.RWMutex
	reserves map[string]*core.Reserve
	accounts map[string]*core.Account
	owners   map[string]string
	events   []*core.LiquidationEvent
	eventID  uint64
}

// New empty store
func New() *Store {
	return &Store{
		reserves: map[string]*core.Reserve{},
		accounts: map[string]*core.Account{},
		owners:   map[string]string{},
	}
}

// Reserves reserve store view
func (s *Store) Reserves() core.IReserveStore {
	return (*reserveStore)(s)
}

// Accounts account store view
func (s *Store) Accounts() core.IAccountStore {
	return (*accountStore)(s)
}

// Events liquidation event store view
func (s *Store) Events() core.ILiquidationEventStore {
	return (*eventStore)(s)
}

type journalKey struct{}

type journal struct {
	undo []func()
}

func record(ctx context.Context, fn func()) {
	if j, ok := ctx.Value(journalKey{}).(*journal); ok {
		j.undo = append(j.undo, fn)
	}
}

func (s *Store) Tx(ctx context.Context, fn func(ctx context.Context) error) error {
	j := &journal{}
	if err := fn(context.WithValue(ctx, journalKey{}, j)); err != nil {
		s.mux.Lock()
		for i := len(j.undo) - 1; i >= 0; i-- {
			j.undo[i]()
		}
		s.mux.Unlock()
		return err
	}

	return nil
}

type reserveStore Store

func (s *reserveStore) Find(ctx context.Context, assetID string) (*core.Reserve, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()

	if r, ok := s.reserves[assetID]; ok {
		return r.Clone(), nil
	}

	return &core.Reserve{AssetID: assetID}, nil
}

func (s *reserveStore) Save(ctx context.Context, reserve *core.Reserve) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	prev, ok := s.reserves[reserve.AssetID]
	if ok && prev.Version != reserve.Version {
		return core.ErrVersionConflict
	}

	if !ok && reserve.Version != 0 {
		return core.ErrVersionConflict
	}

	assetID := reserve.AssetID
	record(ctx, func() {
		if ok {
			s.reserves[assetID] = prev
		} else {
			delete(s.reserves, assetID)
		}
	})

	now := time.Now()
	if !ok {
		reserve.CreatedAt = now
	}
	reserve.Version++
	reserve.UpdatedAt = now
	s.reserves[assetID] = reserve.Clone()
	return nil
}

func (s *reserveStore) All(ctx context.Context) ([]*core.Reserve, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()

	reserves := make([]*core.Reserve, 0, len(s.reserves))
	for _, r := range s.reserves {
		reserves = append(reserves, r.Clone())
	}

	sort.Slice(reserves, func(i, j int) bool { return reserves[i].AssetID < reserves[j].AssetID })
	return reserves, nil
}

type accountStore Store

func (s *accountStore) Find(ctx context.Context, userID string) (*core.Account, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()

	if a, ok := s.accounts[userID]; ok {
		return a.Clone(), nil
	}

	return core.NewAccount(userID), nil
}

func (s *accountStore) Save(ctx context.Context, account *core.Account) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	prev, ok := s.accounts[account.UserID]
	if (ok && prev.Version != account.Version) || (!ok && account.Version != 0) {
		return core.ErrVersionConflict
	}

	var prevTokens []string
	if ok {
		for key := range prev.Tokens {
			prevTokens = append(prevTokens, key)
		}
	}

	userID := account.UserID
	record(ctx, func() {
		s.dropOwners(userID)
		if ok {
			s.accounts[userID] = prev
			for _, key := range prevTokens {
				s.owners[key] = userID
			}
		} else {
			delete(s.accounts, userID)
		}
	})

	account.Version++
	account.UpdatedAt = time.Now()

	s.dropOwners(userID)
	for key := range account.Tokens {
		s.owners[key] = userID
	}

	s.accounts[userID] = account.Clone()
	return nil
}

func (s *accountStore) dropOwners(userID string) {
	for key, owner := range s.owners {
		if owner == userID {
			delete(s.owners, key)
		}
	}
}

func (s *accountStore) FindTokenOwner(ctx context.Context, collection, tokenID string) (string, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.owners[core.TokenKey(collection, tokenID)], nil
}

func (s *accountStore) ListBorrowers(ctx context.Context) ([]string, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()

	var users []string
	for id, a := range s.accounts {
		if a.Config.IsBorrowingAny() {
			users = append(users, id)
		}
	}

	sort.Strings(users)
	return users, nil
}

type eventStore Store

func (s *eventStore) Create(ctx context.Context, event *core.LiquidationEvent) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	for _, e := range s.events {
		if e.TraceID == event.TraceID {
			return nil
		}
	}

	s.eventID++
	event.ID = s.eventID
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	c := *event
	s.events = append(s.events, &c)

	id := event.ID
	record(ctx, func() {
		for i, e := range s.events {
			if e.ID == id {
				s.events = append(s.events[:i], s.events[i+1:]...)
				break
			}
		}
	})

	return nil
}

func (s *eventStore) List(ctx context.Context, borrower string, limit int) ([]*core.LiquidationEvent, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()

	var events []*core.LiquidationEvent
	for i := len(s.events) - 1; i >= 0; i-- {
		e := s.events[i]
		if borrower != "" && e.Borrower != borrower {
			continue
		}

		c := *e
		events = append(events, &c)
		if limit > 0 && len(events) >= limit {
			break
		}
	}

	return events, nil
}
