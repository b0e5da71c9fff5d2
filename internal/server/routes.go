package server

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/notes/tarefas/internal/auth"
	"github.com/notes/tarefas/internal/handler"
	"github.com/notes/tarefas/internal/middleware"
)

// RouterConfig carries everything the router mounts.
type RouterConfig struct {
	Logger   *slog.Logger
	Tasks    *handler.TaskHandler
	Util     *handler.UtilHandler
	Health   *handler.HealthHandler
	Metrics  *handler.MetricsHandler
	Verifier auth.Verifier

	IsDevelopment      bool
	CORSAllowedOrigins []string
	MaxRequestBodySize int64
	// AuthFailureDelay slows down rejected requests. Zero disables it.
	AuthFailureDelay time.Duration
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment}))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	if cfg.MaxRequestBodySize > 0 {
		r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))
	}
	r.Use(middleware.TokenAuth(middleware.TokenAuthConfig{
		Logger:         logger,
		Verifier:       cfg.Verifier,
		PublicPrefixes: middleware.DefaultPublicPrefixes,
		FailureDelay:   cfg.AuthFailureDelay,
	}))

	// Operational endpoints
	if cfg.Health != nil {
		r.Get("/healthz", cfg.Health.Healthz)
		r.Get("/readyz", cfg.Health.Readyz)
	}
	if cfg.Metrics != nil {
		r.Get("/metrics", cfg.Metrics.Metrics)
	}

	// Utility endpoints
	if cfg.Util != nil {
		r.Get("/hello", cfg.Util.Hello)
		r.Get("/status", cfg.Util.Status)
		r.Post("/echo", cfg.Util.Echo)
		r.Get("/saudacao/{nome}", cfg.Util.Greeting)
	}

	// Task endpoints
	r.Route("/tarefas", func(r chi.Router) {
		r.Get("/", cfg.Tasks.List)
		r.Post("/", cfg.Tasks.Create)
		r.Get("/{id}", cfg.Tasks.Get)
		r.Put("/{id}", cfg.Tasks.Update)
		r.Delete("/{id}", cfg.Tasks.Delete)
	})

	// 404 and 405 handlers
	h := handler.New(logger)
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
