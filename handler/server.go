package handler

import (
	"net/http"

	"nftlend/handler/hc"
	"nftlend/handler/rest"
	"nftlend/service/pool"

	"github.com/fox-one/pkg/logger"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// Server server
type Server struct {
	pool    *pool.Pool
	version string
}

// New new server function
func New(p *pool.Pool, version string) Server {
	return Server{
		pool:    p,
		version: version,
	}
}

// Handler mounts hc, metrics and the restful apis
func (s Server) Handler() http.Handler {
	mux := chi.NewMux()
	mux.Use(middleware.Recoverer)
	mux.Use(middleware.StripSlashes)
	mux.Use(cors.AllowAll().Handler)
	mux.Use(logger.WithRequestID)
	mux.Use(middleware.Logger)
	mux.Use(middleware.NewCompressor(5).Handler)

	mux.Mount("/hc", hc.Handle(s.pool, s.version))
	mux.Mount("/metrics", promhttp.Handler())
	mux.Mount("/api", s.HandleRestAPI())

	return mux
}

// HandleRestAPI handle restful apis
func (s Server) HandleRestAPI() http.Handler {
	return rest.Handle(s.pool)
}
