package oracle

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"nftlend/core"
	"nftlend/pkg/resthttp"

	"github.com/shopspring/decimal"
)

// Feed reads prices from an http price service:
//
//	GET {endpoint}/assets/{asset}
//	GET {endpoint}/collections/{collection}/tokens/{token}
//
// both answering {"price": "<decimal>"}
type Feed struct {
	endpoint string
}

// NewFeed price feed at endpoint
func NewFeed(endpoint string) *Feed {
	return &Feed{endpoint: strings.TrimSuffix(endpoint, "/")}
}

type priceResponse struct {
	Price decimal.Decimal `json:"price"`
}

func (f *Feed) GetAssetPrice(ctx context.Context, assetID string) (decimal.Decimal, error) {
	return f.get(ctx, fmt.Sprintf("%s/assets/%s", f.endpoint, url.PathEscape(assetID)))
}

func (f *Feed) GetTokenPrice(ctx context.Context, collection, tokenID string) (decimal.Decimal, error) {
	return f.get(ctx, fmt.Sprintf("%s/collections/%s/tokens/%s", f.endpoint, url.PathEscape(collection), url.PathEscape(tokenID)))
}

func (f *Feed) get(ctx context.Context, u string) (decimal.Decimal, error) {
	var resp priceResponse
	if _, err := resthttp.Execute(resthttp.Request(ctx), http.MethodGet, u, nil, &resp); err != nil {
		return decimal.Zero, fmt.Errorf("price feed: %w", err)
	}

	if !resp.Price.IsPositive() {
		return decimal.Zero, core.ErrInvalidPrice
	}

	return resp.Price, nil
}
