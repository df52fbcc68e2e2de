package hc

import (
	"context"
	"net/http"
	"time"

	"nftlend/core"
	"nftlend/handler/render"

	"github.com/fox-one/pkg/logger"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
)

// Reserves reads every reserve, a failure means the store is unreachable
type Reserves interface {
	Reserves(ctx context.Context) ([]*core.Reserve, error)
}

// Handle health check: uptime and version, 503 while reserves cannot be read
func Handle(reserves Reserves, version string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.NoCache)
	r.Get("/", check(reserves, version))
	return r
}

func check(reserves Reserves, version string) http.HandlerFunc {
	started := time.Now()

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		resp := render.H{
			"uptime":  time.Since(started).Truncate(time.Millisecond).String(),
			"version": version,
			"started": started.Unix(),
		}

		list, err := reserves.Reserves(ctx)
		if err != nil {
			logger.FromContext(ctx).WithError(err).Errorln("hc: list reserves")
			resp["status"] = "unavailable"
			render.Status(w, http.StatusServiceUnavailable, resp)
			return
		}

		resp["status"] = "ok"
		resp["reserves"] = len(list)
		render.JSON(w, resp)
	}
}
