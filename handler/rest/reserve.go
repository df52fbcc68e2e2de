package rest

import (
	"net/http"

	"nftlend/core"
	"nftlend/handler/render"
	"nftlend/handler/views"
	"nftlend/service/pool"

	"github.com/go-chi/chi"
)

func reservesHandler(p *pool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reserves, err := p.Reserves(r.Context())
		if err != nil {
			render.Err(w, err)
			return
		}

		items := make([]*views.Reserve, 0, len(reserves))
		for _, reserve := range reserves {
			asset, ok := p.Assets().Find(reserve.AssetID)
			if !ok {
				continue
			}

			items = append(items, views.ReserveFrom(asset, reserve))
		}

		render.JSON(w, items)
	}
}

func reserveHandler(p *pool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assetID := chi.URLParam(r, "asset")
		asset, ok := p.Assets().Find(assetID)
		if !ok {
			render.Err(w, core.ErrAssetNotFound)
			return
		}

		reserve, err := p.Reserve(r.Context(), assetID)
		if err != nil {
			render.Err(w, err)
			return
		}

		render.JSON(w, views.ReserveFrom(asset, reserve))
	}
}
