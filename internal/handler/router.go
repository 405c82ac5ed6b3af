package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/prn-tf/meridian-accounts/internal/config"
	"github.com/prn-tf/meridian-accounts/internal/metrics"
)

// HealthChecker reports backend availability for the health endpoint.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// RouterConfig contains everything the router wires together.
type RouterConfig struct {
	AuthHandler    *AuthHandler
	AccountHandler *AccountHandler
	FileHandler    *FileHandler
	Health         HealthChecker
	Metrics        *metrics.Metrics
	MetricsPath    string
	CORS           config.ServerConfig
	Logger         zerolog.Logger
}

// NewRouter builds the HTTP routing tree.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(requestLogger(cfg.Logger.With().Str("component", "http").Logger(), cfg.Metrics))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", cfg.AuthHandler.Login)
		r.Post("/logout", cfg.AuthHandler.Logout)
		r.Get("/status", cfg.AuthHandler.Status)
		r.Get("/user", cfg.AuthHandler.User)
	})

	r.Route("/users", func(r chi.Router) {
		r.Post("/", cfg.AccountHandler.Register)
		r.Get("/{id}", cfg.AccountHandler.Get)
		r.Put("/{id}", cfg.AccountHandler.Update)
		r.Delete("/{id}", cfg.AccountHandler.Delete)
	})

	r.Route("/files", func(r chi.Router) {
		r.Post("/", cfg.FileHandler.Create)
		r.Get("/{id}", cfg.FileHandler.Get)
		r.Put("/{id}", cfg.FileHandler.Update)
		r.Delete("/{id}", cfg.FileHandler.Delete)
	})

	r.Get("/health", healthHandler(cfg.Health))

	if cfg.Metrics != nil && cfg.MetricsPath != "" {
		r.Method(http.MethodGet, cfg.MetricsPath, cfg.Metrics.Handler())
	}

	return r
}

// healthHandler reports liveness of the process and its database.
func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if checker != nil {
			if err := checker.Health(ctx); err != nil {
				respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}
}
