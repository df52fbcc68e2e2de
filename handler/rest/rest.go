package rest

import (
	"errors"
	"net/http"

	"nftlend/handler/render"
	"nftlend/service/pool"

	"github.com/go-chi/chi"
)

// Handle handle rest api request
func Handle(p *pool.Pool) http.Handler {
	router := chi.NewRouter()

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.NotFoundRequest(w, errors.New("not found"))
	})

	router.Get("/reserves", reservesHandler(p))
	router.Get("/reserves/{asset}", reserveHandler(p))
	router.Get("/accounts/{user}", accountHandler(p))
	router.Get("/tokens/{collection}/{token}", tokenHandler(p))
	router.Get("/liquidations", liquidationsHandler(p))

	return router
}
