package rest

import (
	"net/http"
	"strconv"

	"nftlend/handler/render"
	"nftlend/service/pool"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

func liquidationsHandler(p *pool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		limit := defaultLimit
		if v := query.Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				render.BadRequest(w, strconv.ErrSyntax)
				return
			}

			if n < maxLimit {
				limit = n
			} else {
				limit = maxLimit
			}
		}

		events, err := p.Liquidations(r.Context(), query.Get("borrower"), limit)
		if err != nil {
			render.Err(w, err)
			return
		}

		render.JSON(w, events)
	}
}
