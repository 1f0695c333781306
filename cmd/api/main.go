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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"incidentlog/internal/auth"
	"incidentlog/internal/config"
	"incidentlog/internal/db"
	"incidentlog/internal/incident"
	"incidentlog/internal/logging"
	"incidentlog/internal/middleware"
	"incidentlog/internal/router"
	"incidentlog/internal/storage"
)

func main() {
	if err := run(); err != nil {
		slog.Error("startup failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// ───────────────────────── ENV ─────────────────────────
	if os.Getenv("APP_ENV") != config.EnvProduction {
		_ = godotenv.Load()
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logging.New(os.Stdout, cfg.LogLevel, cfg.IsProduction())
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ───────────────────────── STORES ─────────────────────────
	var (
		userRepo     auth.UserRepository
		incidentRepo incident.Repository
	)
	if cfg.DatabaseURL != "" {
		pool, err := db.ConnectPostgres(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return err
		}
		defer pool.Close()

		userRepo = auth.NewPostgresUserRepository(pool)
		incidentRepo = incident.NewPostgresRepository(pool)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory store; data is lost on exit")
		userRepo = auth.NewInMemoryUserRepository()
		incidentRepo = incident.NewInMemoryRepository()
	}

	var objects incident.ObjectStore
	if cfg.Storage.Enabled() {
		r2, err := storage.NewR2Client(ctx, cfg.Storage)
		if err != nil {
			return err
		}
		objects = r2
	}

	// ───────────────────────── AUTH ─────────────────────────
	hasher, err := auth.NewPasswordHasher(cfg.BcryptCost)
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokenService([]byte(cfg.JWTSecret), cfg.TokenTTL)
	if err != nil {
		return err
	}
	credentials := auth.NewCredentialStore(userRepo, hasher)
	authService := auth.NewService(credentials, tokens, log)
	gate := middleware.NewGate(tokens, credentials, log)

	// ───────────────────────── INCIDENTS ─────────────────────────
	incidentService := incident.NewService(incidentRepo, objects, log)

	r := router.NewRouter(router.Deps{
		Log:            log,
		Gate:           gate,
		Auth:           auth.NewHandler(authService),
		Incidents:      incident.NewHandler(incidentService),
		Attachments:    incidentService.AttachmentsEnabled(),
		CORSOrigins:    cfg.CORSAllowedOrigins,
		ExposeInternal: !cfg.IsProduction(),
	})

	// ───────────────────────── START ─────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server running", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
