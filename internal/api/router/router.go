package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tourwise/persona-engine/internal/http/handlers"
	httpmiddleware "github.com/tourwise/persona-engine/internal/http/middleware"
	"github.com/tourwise/persona-engine/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Personalize        *handlers.PersonalizeHandler
	Feedback           *handlers.FeedbackHandler
	MetricsHandler     http.Handler
	AdminAuthSecret    string
	CORSAllowedOrigins []string

	// RateLimitPerSec enables per-IP rate limiting on the personalize
	// endpoint when positive.
	RateLimitPerSec float64
	RateLimitBurst  int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", handlers.Health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/v1", func(v1 chi.Router) {
		personalize := v1.With()
		if cfg.RateLimitPerSec > 0 {
			personalize = v1.With(httpmiddleware.RateLimit(cfg.RateLimitPerSec, cfg.RateLimitBurst))
		}
		personalize.Post("/personalize", cfg.Personalize.Personalize)
		v1.Post("/feedback", cfg.Feedback.Submit)

		v1.With(httpmiddleware.AdminJWT(cfg.AdminAuthSecret)).
			Get("/accuracy", cfg.Feedback.Accuracy)
	})

	return r
}
