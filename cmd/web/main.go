package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/config"
	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/db"
	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/live"
	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/metrics"
	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/middleware"
	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/service"
	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/store"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

type application struct {
	logger         *slog.Logger
	registry       *prometheus.Registry
	hub            *live.Hub
	scoreLimiter   *middleware.IPRateLimiter
	tournaments    *service.TournamentService
	categorization *service.CategorizationService
	matches        *service.MatchService
	results        *service.ResultService
}

func newApplication(database *sqlx.DB, cfg *config.Config, logger *slog.Logger, tracer trace.Tracer, hub *live.Hub) *application {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	deps := service.NewDeps(logger, tracer, metrics.NewEngine(registry), hub)
	tournamentStore := store.NewTournamentStore(database)
	brackets := service.NewBracketService(database, tournamentStore, deps)
	results := service.NewResultService(database, tournamentStore, deps)

	return &application{
		logger:         logger,
		registry:       registry,
		hub:            hub,
		scoreLimiter:   middleware.NewIPRateLimiter(rate.Limit(cfg.RateLimit.Score), cfg.RateLimit.Burst),
		tournaments:    service.NewTournamentService(database, tournamentStore),
		categorization: service.NewCategorizationService(database, tournamentStore, store.NewRegistrationStore(database), brackets, deps),
		matches:        service.NewMatchService(database, tournamentStore, results, deps),
		results:        results,
	}
}

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	database, err := db.InitDB(cfg.Database.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.RunMigrations(database.DB, cfg.Database.MigrationsPath); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := live.NewHub(logger)
	go hub.Run(ctx)

	app := newApplication(database, cfg, logger, otel.Tracer("dojo"), hub)
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           newRouter(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("server starting", "addr", cfg.Addr())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
