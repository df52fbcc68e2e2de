package oracle

import (
	"context"
	"fmt"
	"time"

	"nftlend/core"

	"github.com/bluele/gcache"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// Cache wraps oracle with a short lived LRU, concurrent misses share one read
func Cache(oracle core.IPriceOracle, exp time.Duration) core.IPriceOracle {
	return &cacheOracle{
		IPriceOracle: oracle,
		cache:        gcache.New(2048).LRU().Expiration(exp).Build(),
		sf:           &singleflight.Group{},
	}
}

type cacheOracle struct {
	core.IPriceOracle
	cache gcache.Cache
	sf    *singleflight.Group
}

func (s *cacheOracle) GetAssetPrice(ctx context.Context, assetID string) (decimal.Decimal, error) {
	return s.load(s.assetKey(assetID), func() (decimal.Decimal, error) {
		return s.IPriceOracle.GetAssetPrice(ctx, assetID)
	})
}

func (s *cacheOracle) GetTokenPrice(ctx context.Context, collection, tokenID string) (decimal.Decimal, error) {
	return s.load(s.tokenKey(collection, tokenID), func() (decimal.Decimal, error) {
		return s.IPriceOracle.GetTokenPrice(ctx, collection, tokenID)
	})
}

func (s *cacheOracle) load(key string, fn func() (decimal.Decimal, error)) (decimal.Decimal, error) {
	if v, err := s.cache.Get(key); err == nil {
		if price, ok := v.(decimal.Decimal); ok {
			return price, nil
		}
	}

	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		price, err := fn()
		if err != nil {
			return nil, err
		}

		_ = s.cache.Set(key, price)
		return price, nil
	})
	if err != nil {
		return decimal.Zero, err
	}

	return v.(decimal.Decimal), nil
}

func (s *cacheOracle) assetKey(assetID string) string {
	return fmt.Sprintf("price:asset:%s", assetID)
}

func (s *cacheOracle) tokenKey(collection, tokenID string) string {
	return fmt.Sprintf("price:token:%s:%s", collection, tokenID)
}
