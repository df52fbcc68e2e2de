package reserve

import (
	"context"
	"time"

	"nftlend/core"
	"nftlend/store/dbtx"

	"github.com/fox-one/pkg/store"
	"github.com/fox-one/pkg/store/db"
	"github.com/jinzhu/gorm"
)

type reserveStore struct {
	db *db.DB
}

// New new reserve store
func New(db *db.DB) core.IReserveStore {
	return &reserveStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.Reserve{})
		if err := tx.AutoMigrate(core.Reserve{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *reserveStore) Find(ctx context.Context, assetID string) (*core.Reserve, error) {
	var reserve core.Reserve
	if err := dbtx.FromContext(ctx, s.db).View().Where("asset_id=?", assetID).First(&reserve).Error; err != nil {
		if store.IsErrNotFound(err) {
			return &core.Reserve{AssetID: assetID}, nil
		}

		return nil, err
	}

	return &reserve, nil
}

func (s *reserveStore) Save(ctx context.Context, reserve *core.Reserve) error {
	tx := dbtx.FromContext(ctx, s.db)

	if reserve.Version == 0 {
		reserve.Version = 1
		if err := tx.Update().Create(reserve).Error; err != nil {
			reserve.Version = 0
			return err
		}

		return nil
	}

	version := reserve.Version
	update := tx.Update().Model(core.Reserve{}).Where("asset_id=? and version=?", reserve.AssetID, version).Updates(map[string]interface{}{
		"liquidity_index":            reserve.LiquidityIndex,
		"variable_borrow_index":      reserve.VariableBorrowIndex,
		"liquidity_rate":             reserve.LiquidityRate,
		"variable_borrow_rate":       reserve.VariableBorrowRate,
		"last_update_time":           reserve.LastUpdateTime,
		"total_scaled_supply":        reserve.TotalScaledSupply,
		"total_scaled_variable_debt": reserve.TotalScaledVariableDebt,
		"accrued_to_treasury":        reserve.AccruedToTreasury,
		"available_liquidity":        reserve.AvailableLiquidity,
		"version":                    gorm.Expr("version + 1"),
		"updated_at":                 time.Now(),
	})

	if update.Error != nil {
		return update.Error
	}

	if update.RowsAffected == 0 {
		return core.ErrVersionConflict
	}

	reserve.Version = version + 1
	return nil
}

func (s *reserveStore) All(ctx context.Context) ([]*core.Reserve, error) {
	var reserves []*core.Reserve
	if err := dbtx.FromContext(ctx, s.db).View().Order("asset_id").Find(&reserves).Error; err != nil {
		return nil, err
	}

	return reserves, nil
}
