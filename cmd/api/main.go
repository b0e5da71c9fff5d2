// Package main is the entrypoint for the Tarefas API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/notes/tarefas/internal/auth"
	"github.com/notes/tarefas/internal/cache"
	"github.com/notes/tarefas/internal/config"
	"github.com/notes/tarefas/internal/handler"
	"github.com/notes/tarefas/internal/metrics"
	"github.com/notes/tarefas/internal/repository"
	"github.com/notes/tarefas/internal/server"
	"github.com/notes/tarefas/internal/service"
	"github.com/notes/tarefas/internal/validation"
)

// authFailureDelay is the minimum time spent on a rejected request.
const authFailureDelay = 100 * time.Millisecond

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	verifier, err := auth.NewVerifier(cfg.AuthToken, cfg.AuthTokenHash)
	if err != nil {
		return fmt.Errorf("auth token: %w", err)
	}

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL, cfg.DB)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		return errors.New("database unavailable")
	}
	logger.Info("connected to database",
		"dialect", repo.Dialect(),
		"database_url", redactURL(cfg.DatabaseURL),
	)

	// Initialize cache. The service and health handler take interfaces,
	// so they only see a cache when one was actually opened.
	var (
		taskCache    service.TaskCache
		cacheChecker handler.HealthChecker
		cacheClient  *cache.Cache
	)
	if cfg.CacheEnabled() {
		cacheClient, err = cache.New(ctx, cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			_ = repo.Close()
			return errors.New("cache unavailable")
		}
		taskCache = cacheClient
		cacheChecker = cacheClient

		// IDs restart with a fresh database; entries from a previous run would alias them.
		purged, err := cacheClient.PurgeTasks(ctx)
		if err != nil {
			logger.Warn("failed to purge task cache", "error", err)
		}
		logger.Info("connected to Redis",
			"redis_url", redactURL(cfg.RedisURL),
			"ttl", cacheClient.TTL(),
			"purged", purged,
		)
	} else {
		logger.Info("task cache disabled")
	}

	// Initialize services
	recorder := metrics.NewInMemory()
	taskService := service.NewTaskService(repo, taskCache, recorder, logger)

	// Setup router
	router := server.NewRouter(server.RouterConfig{
		Logger:             logger,
		Tasks:              handler.NewTaskHandler(taskService, validation.New(), logger),
		Util:               handler.NewUtilHandler(),
		Health:             handler.NewHealthHandler(repo, cacheChecker, logger),
		Metrics:            handler.NewMetricsHandler(recorder, repo),
		Verifier:           verifier,
		IsDevelopment:      cfg.IsDevelopment(),
		CORSAllowedOrigins: cfg.GetCORSAllowedOrigins(),
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		AuthFailureDelay:   authFailureDelay,
	})

	// Create and run server
	srv := server.New(router, server.Options{
		Addr:            fmt.Sprintf(":%d", cfg.AppPort),
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	srv.OnShutdown("database", func(context.Context) error { return repo.Close() })
	if cacheClient != nil {
		srv.OnShutdown("cache", func(context.Context) error { return cacheClient.Close() })
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"auth", authMode(cfg),
	)

	return srv.Run(ctx)
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func authMode(cfg *config.Config) string {
	if cfg.AuthTokenHash != "" {
		return "argon2id"
	}
	return "plaintext"
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s&]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	if q := parsed.Query(); q.Has("password") {
		q.Set("password", "redacted")
		parsed.RawQuery = q.Encode()
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
