package cmd

import (
	"nftlend/core"
	"nftlend/store/account"
	"nftlend/store/dbtx"
	"nftlend/store/event"
	"nftlend/store/reserve"

	"github.com/fox-one/pkg/property"
	"github.com/fox-one/pkg/store/db"
	propertystore "github.com/fox-one/pkg/store/property"
)

func provideDatabase() *db.DB {
	return db.MustOpen(cfg.DB)
}

func providePropertyStore(db *db.DB) property.Store {
	return propertystore.New(db)
}

func provideTransactor(db *db.DB) core.ITransactor {
	return dbtx.New(db)
}

func provideReserveStore(db *db.DB) core.IReserveStore {
	return reserve.New(db)
}

func provideAccountStore(db *db.DB) core.IAccountStore {
	return account.New(db)
}

func provideEventStore(db *db.DB) core.ILiquidationEventStore {
	return event.New(db)
}
