package api

import (
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig holds settings for the API router.
// Passed from main.go so the router can configure CORS and auth from env vars.
type RouterConfig struct {
	// BackendAPIKey is the key that must be provided in X-API-Key or Authorization: Bearer <key>.
	// If empty, auth middleware is skipped (development mode).
	BackendAPIKey string

	// CorsAllowedOrigins is a comma-separated list of allowed origins.
	// If empty, defaults to "*" (development mode).
	CorsAllowedOrigins string
}

func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (applied to all routes including /health)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS: restrict origins when configured, otherwise allow all (dev mode)
	allowedOrigins := []string{"*"}
	if cfg.CorsAllowedOrigins != "" {
		origins := strings.Split(cfg.CorsAllowedOrigins, ",")
		trimmed := make([]string, 0, len(origins))
		for _, o := range origins {
			if s := strings.TrimSpace(o); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			allowedOrigins = trimmed
		}
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check — public, no auth required
	r.Get("/health", h.Health)

	// API routes — protected by API key auth
	r.Route("/v1", func(r chi.Router) {
		// Apply auth middleware only to /v1 routes
		if cfg.BackendAPIKey != "" {
			r.Use(APIKeyAuth(cfg.BackendAPIKey))
		}

		// Content packages
		r.Post("/packages", h.CreatePackage)
		r.Get("/packages", h.ListPackages)
		r.Get("/packages/{id}", h.GetPackage)
		r.Get("/packages/{id}/download", h.DownloadPackage)
		r.Post("/packages/{id}/deliver", h.RedeliverPackage)

		// Daily batch and job polling
		r.Post("/runs/daily", h.TriggerDailyRun)
		r.Get("/jobs/{id}", h.GetJob)

		// Blog articles
		r.Post("/articles", h.CreateArticle)
		r.Get("/articles", h.ListArticles)
		r.Get("/articles/{id}", h.GetArticle)

		// Image sets
		r.Post("/images", h.CreateImageSet)
		r.Get("/images/{id}", h.GetImageSet)

		// Outreach leads
		r.Post("/leads/scan", h.ScanLeads)
		r.Get("/leads", h.ListLeads)
		r.Get("/leads/{id}", h.GetLead)

		// Distribution
		r.Post("/distribution/daily", h.TriggerDistribution)
		r.Get("/distribution/actions", h.ListDistributionActions)
		r.Get("/opportunities", h.ListOpportunities)
		r.Post("/opportunities/scan", h.ScanOpportunities)
		r.Patch("/opportunities/{id}", h.UpdateOpportunity)

		// Operators and ops utilities
		r.Get("/operators", h.ListOperators)
		r.Post("/operators", h.CreateOperator)
		r.Patch("/operators/{id}", h.UpdateOperator)
		r.Get("/clips", h.ListClips)
		r.Get("/stats", h.Stats)
		r.Post("/telegram/test", h.TelegramTest)
	})

	return r
}
