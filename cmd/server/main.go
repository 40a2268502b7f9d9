// Package main is the entrypoint for the risk analysis API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/myhousemouse/Risk-api-server/internal/ai/provider"
	"github.com/myhousemouse/Risk-api-server/internal/api"
	"github.com/myhousemouse/Risk-api-server/internal/api/handler"
	mw "github.com/myhousemouse/Risk-api-server/internal/api/middleware"
	"github.com/myhousemouse/Risk-api-server/internal/api/response"
	"github.com/myhousemouse/Risk-api-server/internal/cache"
	"github.com/myhousemouse/Risk-api-server/internal/config"
	"github.com/myhousemouse/Risk-api-server/internal/export"
	"github.com/myhousemouse/Risk-api-server/internal/session"
	"github.com/myhousemouse/Risk-api-server/internal/store"
	"github.com/myhousemouse/Risk-api-server/internal/workflow"
)

const (
	shutdownTimeout      = 30 * time.Second
	memoryCleanup        = time.Minute
	sessionPurgeInterval = 10 * time.Minute
	writeTimeoutMargin   = 30 * time.Second

	// aiCallsPerStage is the most sequential AI calls of a non-question
	// stage: validation plus classification, or scoring plus summary.
	aiCallsPerStage = 2
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config; fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Server.LogLevel})))
	slog.Info("config loaded",
		"ai_provider", cfg.AI.Provider,
		"session_backend", cfg.Session.Backend,
		"auth_enabled", cfg.Auth.Enabled,
		"env", cfg.Server.Env,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]pinger{}

	// 2. Connect to database (optional unless sessions or auth need it)
	var (
		pool    *pgxpool.Pool
		pgStore *store.PostgresStore
	)
	if cfg.Database.URL != "" {
		pool, err = store.Connect(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()
		slog.Info("database connected")

		if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		slog.Info("database migrations applied")

		pgStore = store.NewPostgresStore(pool)
		checks["database"] = pgStore
	}

	// 3. Redis, when configured
	var redisCache *cache.RedisCache
	if cfg.Redis.URL != "" {
		redisCache, err = cache.NewRedisCache(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("create redis cache: %w", err)
		}
		defer redisCache.Close()

		if err := redisCache.Ping(ctx); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		slog.Info("redis connected")
		checks["cache"] = redisCache
	}

	// 4. Session store
	sessions, err := newSessionStore(ctx, cfg, redisCache, pool)
	if err != nil {
		return err
	}
	checks["sessions"] = sessions

	// 5. AI provider
	aiProvider, err := provider.New(ctx, cfg.AI)
	if err != nil {
		return fmt.Errorf("create AI provider: %w", err)
	}
	slog.Info("AI provider initialized", "provider", aiProvider.Name())

	// 6. Workflow and exports
	var opts []workflow.Option
	if pgStore != nil {
		opts = append(opts, workflow.WithArchive(pgStore))
	}
	wf := workflow.New(sessions, aiProvider, cfg.Workflow, opts...)

	exports := export.NewFactory(cfg.Export.PDFFontPath)
	mdRenderer, err := exports.Create(export.FormatMarkdown)
	if err != nil {
		return fmt.Errorf("create markdown renderer: %w", err)
	}
	pdfRenderer, err := exports.Create(export.FormatPDF)
	if err != nil {
		return fmt.Errorf("create pdf renderer: %w", err)
	}

	// 7. Build router with dependencies
	var limiterCache cache.Cache = redisCache
	if redisCache == nil {
		mem := cache.NewMemoryCache(memoryCleanup)
		defer mem.Close()
		limiterCache = mem
	}

	var archive handler.ReportArchive
	if pgStore != nil {
		archive = pgStore
	}

	deps := api.Dependencies{
		RateLimit: mw.NewRateLimit(limiterCache, cfg.Auth.RateLimitPerMinute),

		HealthHandler: healthHandler(checks),

		CreateSession:     handler.NewCreateSessionHandler(wf),
		GetSession:        handler.NewGetSessionHandler(wf),
		GenerateQuestions: handler.NewQuestionsHandler(wf),
		SubmitAnswers:     handler.NewAnswersHandler(wf),
		GenerateReport:    handler.NewReportHandler(wf),
		ExportMarkdown:    handler.NewExportReportHandler(wf, archive, mdRenderer),
		ExportPDF:         handler.NewExportReportHandler(wf, archive, pdfRenderer),
	}
	if pgStore != nil {
		deps.GetArchivedReport = handler.NewGetArchivedReportHandler(pgStore)
		deps.ListReports = handler.NewListReportsHandler(pgStore)
	}
	if cfg.Auth.Enabled {
		deps.Auth = mw.NewAuth(pgStore)
		deps.CreateKeyHandler = handler.NewCreateKeyHandler(pgStore)
		deps.ListKeysHandler = handler.NewListKeysHandler(pgStore)
		deps.RevokeKeyHandler = handler.NewRevokeKeyHandler(pgStore)
	}

	router := api.NewRouter(deps)

	// 8. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: stageWriteTimeout(cfg.AI, cfg.Workflow),
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// newSessionStore builds the configured session backend. The postgres
// backend also starts a purge loop that stops with ctx.
func newSessionStore(ctx context.Context, cfg *config.Config, rc *cache.RedisCache, pool *pgxpool.Pool) (session.Store, error) {
	switch cfg.Session.Backend {
	case config.BackendRedis:
		if rc == nil {
			return nil, fmt.Errorf("session backend redis: REDIS_URL is not set")
		}
		return session.NewCacheStore(rc, cfg.Session.TTL), nil
	case config.BackendPostgres:
		if pool == nil {
			return nil, fmt.Errorf("session backend postgres: DATABASE_URL is not set")
		}
		ps := session.NewPostgresStore(pool, cfg.Session.TTL)
		go purgeSessions(ctx, ps, sessionPurgeInterval)
		return ps, nil
	default:
		return session.NewCacheStore(cache.NewMemoryCache(memoryCleanup), cfg.Session.TTL), nil
	}
}

// stageWriteTimeout bounds the slowest stage: every sequential AI call uses
// all of its attempts and waits the longest backoff between them. The
// questions stage makes one call per method.
func stageWriteTimeout(aiCfg config.AIConfig, wf config.WorkflowConfig) time.Duration {
	attempts := time.Duration(max(aiCfg.RetryAttempts, 1))
	perCall := attempts*aiCfg.InferenceTimeout + (attempts-1)*provider.RetryMaxDelay
	calls := time.Duration(max(wf.MethodCount, aiCallsPerStage))
	return calls*perCall + writeTimeoutMargin
}

type sessionPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

func purgeSessions(ctx context.Context, p sessionPurger, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.PurgeExpired(ctx)
			if err != nil {
				slog.Warn("session purge failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("expired sessions purged", "count", n)
			}
		}
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

// healthHandler checks connectivity of every configured backend.
func healthHandler(deps map[string]pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]string, len(deps))
		degraded := false
		for name, p := range deps {
			checks[name] = "ok"
			if err := p.Ping(r.Context()); err != nil {
				slog.Warn("health check failed", "service", name, "error", err)
				checks[name] = "degraded"
				degraded = true
			}
		}

		if degraded {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
