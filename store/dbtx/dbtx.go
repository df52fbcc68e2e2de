package dbtx

import (
	"context"

	"nftlend/core"

	"github.com/fox-one/pkg/store/db"
)

type txKey struct{}

// WithTx ctx carrying tx
func WithTx(ctx context.Context, tx *db.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// FromContext transaction carried by ctx, fallback outside of one
func FromContext(ctx context.Context, fallback *db.DB) *db.DB {
	if tx, ok := ctx.Value(txKey{}).(*db.DB); ok {
		return tx
	}

	return fallback
}

// InTx ctx already carries a transaction
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*db.DB)
	return ok
}

type transactor struct {
	db *db.DB
}

// New transactor running fn in one database transaction, nested calls join
// the outer one
func New(db *db.DB) core.ITransactor {
	return &transactor{db: db}
}

func (t *transactor) Tx(ctx context.Context, fn func(ctx context.Context) error) error {
	if InTx(ctx) {
		return fn(ctx)
	}

	return t.db.Tx(func(tx *db.DB) error {
		return fn(WithTx(ctx, tx))
	})
}
