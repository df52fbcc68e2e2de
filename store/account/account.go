package account

import (
	"context"
	"encoding/json"
	"time"

	"nftlend/core"
	"nftlend/store/dbtx"

	"github.com/fox-one/pkg/store"
	"github.com/fox-one/pkg/store/db"
	"github.com/jinzhu/gorm"
	"github.com/jmoiron/sqlx/types"
)

// Account row, positions are kept as a json document
type Account struct {
	ID        uint64         `sql:"PRIMARY_KEY;AUTO_INCREMENT"`
	UserID    string         `sql:"size:64;unique_index:account_user_idx"`
	Borrowing bool           `sql:"index:account_borrowing_idx"`
	Data      types.JSONText `sql:"type:TEXT"`
	Version   int64          `sql:"default:0"`
	CreatedAt time.Time      `sql:"default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time      `sql:"default:CURRENT_TIMESTAMP"`
}

// TokenOwner index of the user holding a supplied token
type TokenOwner struct {
	ID         uint64 `sql:"PRIMARY_KEY;AUTO_INCREMENT"`
	Collection string `sql:"size:64;unique_index:token_owner_idx"`
	TokenID    string `sql:"size:128;unique_index:token_owner_idx"`
	UserID     string `sql:"size:64;index:token_owner_user_idx"`
}

type accountStore struct {
	db *db.DB
}

// New new account store
func New(db *db.DB) core.IAccountStore {
	return &accountStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(Account{})
		if err := tx.AutoMigrate(Account{}).Error; err != nil {
			return err
		}

		tx = db.Update().Model(TokenOwner{})
		if err := tx.AutoMigrate(TokenOwner{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *accountStore) Find(ctx context.Context, userID string) (*core.Account, error) {
	var row Account
	if err := dbtx.FromContext(ctx, s.db).View().Where("user_id=?", userID).First(&row).Error; err != nil {
		if store.IsErrNotFound(err) {
			return core.NewAccount(userID), nil
		}

		return nil, err
	}

	account := core.NewAccount(userID)
	if err := row.Data.Unmarshal(account); err != nil {
		return nil, err
	}

	account.UserID = row.UserID
	account.Version = row.Version
	account.UpdatedAt = row.UpdatedAt
	return account, nil
}

func (s *accountStore) Save(ctx context.Context, account *core.Account) error {
	if dbtx.InTx(ctx) {
		return s.save(dbtx.FromContext(ctx, s.db), account)
	}

	return s.db.Tx(func(tx *db.DB) error {
		return s.save(tx, account)
	})
}

func (s *accountStore) save(tx *db.DB, account *core.Account) error {
	data, err := json.Marshal(account)
	if err != nil {
		return err
	}

	now := time.Now()
	version := account.Version

	if version == 0 {
		row := &Account{
			UserID:    account.UserID,
			Borrowing: account.Config.IsBorrowingAny(),
			Data:      data,
			Version:   1,
		}

		if err := tx.Update().Create(row).Error; err != nil {
			return err
		}
	} else {
		update := tx.Update().Model(Account{}).Where("user_id=? and version=?", account.UserID, version).Updates(map[string]interface{}{
			"borrowing":  account.Config.IsBorrowingAny(),
			"data":       data,
			"version":    gorm.Expr("version + 1"),
			"updated_at": now,
		})

		if update.Error != nil {
			return update.Error
		}

		if update.RowsAffected == 0 {
			return core.ErrVersionConflict
		}
	}

	if err := tx.Update().Where("user_id=?", account.UserID).Delete(TokenOwner{}).Error; err != nil {
		return err
	}

	for _, pos := range account.Tokens {
		owner := &TokenOwner{
			Collection: pos.Collection,
			TokenID:    pos.TokenID,
			UserID:     account.UserID,
		}

		if err := tx.Update().Create(owner).Error; err != nil {
			return err
		}
	}

	account.Version = version + 1
	account.UpdatedAt = now
	return nil
}

func (s *accountStore) FindTokenOwner(ctx context.Context, collection, tokenID string) (string, error) {
	var owner TokenOwner
	if err := dbtx.FromContext(ctx, s.db).View().Where("collection=? and token_id=?", collection, tokenID).First(&owner).Error; err != nil {
		if store.IsErrNotFound(err) {
			return "", nil
		}

		return "", err
	}

	return owner.UserID, nil
}

func (s *accountStore) ListBorrowers(ctx context.Context) ([]string, error) {
	var users []string
	if err := dbtx.FromContext(ctx, s.db).View().Model(Account{}).Where("borrowing=?", true).Order("user_id").Pluck("user_id", &users).Error; err != nil {
		return nil, err
	}

	return users, nil
}
