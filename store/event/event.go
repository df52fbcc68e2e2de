package event

import (
	"context"

	"nftlend/core"
	"nftlend/store/dbtx"

	"github.com/fox-one/pkg/store/db"
)

type eventStore struct {
	db *db.DB
}

// New new liquidation event store
func New(db *db.DB) core.ILiquidationEventStore {
	return &eventStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.LiquidationEvent{})
		if err := tx.AutoMigrate(core.LiquidationEvent{}).Error; err != nil {
			return err
		}

		return nil
	})
}

// Create is idempotent on the trace id
func (s *eventStore) Create(ctx context.Context, event *core.LiquidationEvent) error {
	return dbtx.FromContext(ctx, s.db).Update().Where("trace_id=?", event.TraceID).FirstOrCreate(event).Error
}

func (s *eventStore) List(ctx context.Context, borrower string, limit int) ([]*core.LiquidationEvent, error) {
	query := dbtx.FromContext(ctx, s.db).View()
	if borrower != "" {
		query = query.Where("borrower=?", borrower)
	}

	if limit > 0 {
		query = query.Limit(limit)
	}

	var events []*core.LiquidationEvent
	if err := query.Order("id desc").Find(&events).Error; err != nil {
		return nil, err
	}

	return events, nil
}
