package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/nuworks/agentia/internal/api/handlers"
	"github.com/nuworks/agentia/internal/api/middleware"
	"github.com/nuworks/agentia/internal/audit"
	"github.com/nuworks/agentia/internal/auth"
	"github.com/nuworks/agentia/internal/config"
	"github.com/nuworks/agentia/internal/llm"
	"github.com/nuworks/agentia/internal/pipeline"
)

// Deps are the services the API drives. DB and Audit are nil when the
// service runs without Postgres.
type Deps struct {
	Pipeline *pipeline.Service
	Gateway  llm.Gateway
	Audit    *audit.Service
	DB       handlers.Pinger
}

type Router struct {
	mux    *chi.Mux
	cfg    *config.Config
	deps   Deps
	apikey *auth.APIKeyMiddleware
	rl     *middleware.RateLimiter
}

func NewRouter(cfg *config.Config, deps Deps) *Router {
	rps := cfg.Server.RateLimitRPS
	if rps <= 0 {
		rps = 5
	}
	return &Router{
		mux:    chi.NewRouter(),
		cfg:    cfg,
		deps:   deps,
		apikey: auth.NewAPIKeyMiddleware(cfg.Auth.OperatorKey, cfg.Auth.APIKeyHeader),
		rl:     middleware.NewRateLimiter(float64(rps), rps*2),
	}
}

// Close stops background work started by the router.
func (rt *Router) Close() {
	rt.rl.Stop()
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(rt.cfg.Server.CORSOrigins))

	// Health endpoints (no auth)
	health := handlers.NewHealthHandler(rt.deps.DB)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	maxBytes := int64(rt.cfg.Server.MaxUploadMB) << 20

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.rl.Limit)
		r.Use(rt.apikey.Authenticate)

		catalogH := handlers.NewCatalogHandler(rt.deps.Pipeline.Catalog())
		r.Get("/catalog", catalogH.Get)

		llmH := handlers.NewLLMHandler(rt.deps.Gateway)
		r.Get("/llm/models", llmH.Models)

		scriptH := handlers.NewScriptHandler(rt.deps.Pipeline, maxBytes)
		r.Post("/scripts", scriptH.Create)

		orderH := handlers.NewOrderHandler(rt.deps.Pipeline, rt.deps.Audit, maxBytes)
		r.Post("/orders", orderH.Create)

		// Order history needs the database.
		if rt.deps.Audit != nil {
			r.Get("/orders", orderH.List)

			adminH := handlers.NewAdminHandler(rt.deps.Audit)
			r.Get("/admin/usage", adminH.Usage)
		}
	})

	return r
}
