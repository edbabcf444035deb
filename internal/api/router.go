package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"cohortmatch/internal/config"
	"cohortmatch/internal/middleware"
)

// NewRouter assembles the chi router: public health endpoint, middleware
// stack, and the /v1 API (bearer-authenticated when a JWT secret is set).
func NewRouter(h *Handler, cfg *config.Config) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(h.logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}))

	r.Get("/healthz", h.Health)

	r.Route("/v1", func(r chi.Router) {
		if cfg.AuthEnabled() {
			r.Use(middleware.Auth([]byte(cfg.JWTSecret)))
		}
		r.Get("/entities", h.ListEntities)
		r.Get("/entities/{eid}", h.GetEntity)
		r.Get("/entities/{eid}/cohorts", h.MatchEntity)
		r.Get("/cohorts", h.ListCohorts)
		r.Post("/cohorts", h.AddCohort)
		r.Get("/stats", h.Stats)
	})

	return r
}
