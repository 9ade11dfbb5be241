package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rtplan-service/internal/plans"
	"rtplan-service/internal/platform/config"
	"rtplan-service/internal/platform/logger"
	"rtplan-service/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	shutdownTimeout = 10 * time.Second
	pingTimeout     = 5 * time.Second
)

func main() {
	_ = config.Load()

	cfg, err := config.ServerFromEnv()
	if err != nil {
		logger.New("error", "json").Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	var store plans.Store = plans.NewInMemoryStore()
	if cfg.PlanStore == config.StoreRedis {
		rs := plans.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
			plans.WithPrefix(cfg.RedisPrefix),
			plans.WithTTL(cfg.RedisPlanTTL),
		)
		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		err := rs.Ping(ctx)
		cancel()
		if err != nil {
			log.Error("redis unavailable", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		defer rs.Close()
		store = rs
	}

	repo := plans.NewRepositoryWithStore(store)
	svc := plans.NewService(repo, cfg.SheetParticles)
	var met *metrics.Metrics
	if cfg.MetricsEnabled {
		met = metrics.New()
	}
	h := plans.NewHandler(svc, log, met, cfg.MaxPlanBytes)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(logger.RequestLogger(log))
	if met != nil {
		r.Use(metrics.RequestMiddleware(met))
		r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			met.Handler(func() {
				n, err := repo.PlanCount(r.Context())
				if err != nil {
					log.Warn("count plans failed", "error", err)
					return
				}
				met.SetStoredPlans(n)
			}).ServeHTTP(w, r)
		})
	}
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	h.Routes(r)

	addr := ":" + cfg.Port
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("server starting",
		"port", cfg.Port,
		"plan_store", cfg.PlanStore,
		"max_plan_bytes", cfg.MaxPlanBytes,
		"metrics_enabled", cfg.MetricsEnabled,
		"log_level", cfg.LogLevel,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, draining connections")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
