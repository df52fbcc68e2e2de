package cmd

import (
	"context"
	"time"

	"nftlend/core"
	"nftlend/internal/custody"
	"nftlend/internal/oracle"
	"nftlend/internal/ratemodel"
	"nftlend/service/accrual"
	"nftlend/service/auction"
	"nftlend/service/pool"
	"nftlend/service/state"

	"github.com/fox-one/pkg/logger"
	"github.com/fox-one/pkg/property"
	"github.com/fox-one/pkg/store/db"
)

const genesisKey = "pool_genesis"

func provideAssets() *core.AssetRegistry {
	assets, err := core.NewAssetRegistry(cfg.Assets)
	if err != nil {
		panic(err)
	}

	return assets
}

func provideAuctionStrategies() *auction.Registry {
	strategies, err := auction.NewRegistry(cfg.Auctions)
	if err != nil {
		panic(err)
	}

	return strategies
}

func provideStaticOracle() *oracle.Static {
	o := oracle.NewStatic()
	for assetID, price := range cfg.Oracle.Assets {
		o.SetAssetPrice(assetID, price)
	}

	for collection, price := range cfg.Oracle.Collections {
		o.SetCollectionPrice(collection, price)
	}

	return o
}

func provideOracle() core.IPriceOracle {
	var o core.IPriceOracle = provideStaticOracle()
	if cfg.Oracle.Endpoint != "" {
		o = oracle.NewFeed(cfg.Oracle.Endpoint)
	}

	if cfg.Pool.PriceCacheSeconds > 0 {
		o = oracle.Cache(o, time.Duration(cfg.Pool.PriceCacheSeconds)*time.Second)
	}

	return o
}

// provideGenesis pins the block genesis on first start so block numbers
// survive restarts
func provideGenesis(ctx context.Context, properties property.Store) int64 {
	if cfg.Pool.Genesis > 0 {
		return cfg.Pool.Genesis
	}

	log := logger.FromContext(ctx)

	v, err := properties.Get(ctx, genesisKey)
	if err != nil {
		log.WithError(err).Panicln("property.Get", genesisKey)
	}

	if genesis := v.Int64(); genesis > 0 {
		return genesis
	}

	genesis := time.Now().Unix()
	if err := properties.Save(ctx, genesisKey, genesis); err != nil {
		log.WithError(err).Panicln("property.Save", genesisKey)
	}

	return genesis
}

func providePool(ctx context.Context, database *db.DB, properties property.Store) *pool.Pool {
	deps := &state.Deps{
		Assets:   provideAssets(),
		Tracker:  accrual.New(ratemodel.New()),
		Reserves: provideReserveStore(database),
		Accounts: provideAccountStore(database),
		Events:   provideEventStore(database),
	}

	poolCfg := cfg.Pool.Config
	poolCfg.Genesis = provideGenesis(ctx, properties)

	return pool.New(
		poolCfg,
		deps,
		provideTransactor(database),
		custody.NewLedger(),
		provideOracle(),
		provideAuctionStrategies(),
	)
}
