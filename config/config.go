package config

import (
	"nftlend/core"
	"nftlend/service/auction"
	"nftlend/service/pool"
	"nftlend/worker/scanner"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

// Config config
type Config struct {
	DB       db.Config           `json:"db"`
	Pool     Pool                `json:"pool"`
	Assets   []*core.AssetConfig `json:"assets"`
	Auctions []auction.Config    `json:"auctions"`
	Oracle   Oracle              `json:"oracle"`
	Scanner  scanner.Config      `json:"scanner"`
}

// Pool pool parameters
type Pool struct {
	pool.Config
	// PriceCacheSeconds oracle reads are cached this long, 0 disables
	PriceCacheSeconds int64 `json:"price_cache_seconds"`
}

// Oracle prices in the base unit. Endpoint selects the http price feed,
// the static tables are used otherwise.
type Oracle struct {
	Endpoint    string                     `json:"endpoint"`
	Assets      map[string]decimal.Decimal `json:"assets"`
	Collections map[string]decimal.Decimal `json:"collections"`
}
