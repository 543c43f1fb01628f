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

	"shadi-recommendations/internal/audit"
	"shadi-recommendations/internal/auth"
	"shadi-recommendations/internal/config"
	"shadi-recommendations/internal/httpapi"
	"shadi-recommendations/internal/obs"
	"shadi-recommendations/internal/profile"
	"shadi-recommendations/internal/restaurant"
	"shadi-recommendations/internal/security"
	"shadi-recommendations/internal/session"
	"shadi-recommendations/pkg/logger"
	"shadi-recommendations/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	obs.Init()

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	sessions, err := session.NewStore(rdb, cfg.Auth.SessionTTL)
	if err != nil {
		log.Error("session store init failed", "err", err)
		os.Exit(1)
	}

	profiles, err := profile.NewPGStore(db)
	if err != nil {
		log.Error("profile store init failed", "err", err)
		os.Exit(1)
	}

	auditRepo, err := audit.NewPGRepo(db)
	if err != nil {
		log.Error("audit repo init failed", "err", err)
		os.Exit(1)
	}
	auditLogger, err := audit.NewLogger(auditRepo, log,
		audit.WithBufferSize(cfg.Audit.BufferSize),
		audit.WithFlushInterval(cfg.Audit.FlushInterval))
	if err != nil {
		log.Error("audit logger init failed", "err", err)
		os.Exit(1)
	}
	defer auditLogger.Close()

	verifier, err := security.NewVerifier(authManager, sessions, profiles)
	if err != nil {
		log.Error("verifier init failed", "err", err)
		os.Exit(1)
	}
	tracker := security.NewTracker(auditLogger,
		security.TrackerWithLimits(cfg.Security.ActivityCap, cfg.Security.RateThreshold,
			cfg.Security.FailureThreshold, cfg.Security.Window))
	guard, err := security.NewGuard(verifier, auditLogger, tracker)
	if err != nil {
		log.Error("guard init failed", "err", err)
		os.Exit(1)
	}

	restaurantStore, err := restaurant.NewPGStore(db)
	if err != nil {
		log.Error("restaurant store init failed", "err", err)
		os.Exit(1)
	}

	h := httpapi.Handlers{
		Auth:          authManager,
		Sessions:      sessions,
		Profiles:      profiles,
		Audit:         auditLogger,
		Guard:         guard,
		Restaurants:   restaurant.NewService(restaurantStore),
		Purger:        auditRepo,
		SessionTTL:    cfg.Auth.SessionTTL,
		RetentionDays: cfg.Audit.RetentionDays,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	r.Use(obs.Instrument())
	r.Use(httpapi.RequestMeta())
	r.Use(httpapi.SecurityHeaders())
	r.Use(httpapi.RateLimit(20, 40))

	registerRoutes(r, db, h, guard)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
