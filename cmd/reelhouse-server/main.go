// Package main is the entry point for the Reelhouse server: a streaming
// catalog backend with session authentication and an audit trail.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/prn-tf/reelhouse/internal/audit"
	"github.com/prn-tf/reelhouse/internal/config"
	"github.com/prn-tf/reelhouse/internal/handler"
	"github.com/prn-tf/reelhouse/internal/repository"
	"github.com/prn-tf/reelhouse/internal/repository/postgres"
	"github.com/prn-tf/reelhouse/internal/repository/redisstore"
	"github.com/prn-tf/reelhouse/internal/repository/sqlite"
	"github.com/prn-tf/reelhouse/internal/service"
	"github.com/prn-tf/reelhouse/internal/storage"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// sessionSweepInterval is how often the SQL session stores are swept.
const sessionSweepInterval = time.Hour

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)
	logger := setupLogger(cfg.Logging)

	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("starting Reelhouse server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	// Database
	repos, health, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer health.Close()

	// Session store: the SQL-backed store is the default; Redis replaces
	// it when configured, delegating expiry to key TTLs.
	if cfg.Session.Store == "redis" {
		client, err := redisstore.NewClient(ctx, cfg.Redis, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer client.Close()
		repos.Session = redisstore.NewSessionRepository(client, logger)
	}

	// Media store
	media, err := openMediaStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	// Services
	recorder := audit.NewRecorder(repos.Activity, logger)
	authService := service.NewAuthService(repos.User, repos.Session, recorder, logger)
	userService := service.NewUserService(repos.User, recorder, logger)
	movieService := service.NewMovieService(repos.Movie, recorder, logger)
	activityService := service.NewActivityService(repos.Activity, repos.User, repos.Movie, logger)

	// HTTP layer
	secret := []byte(cfg.Session.Secret)
	authMW := handler.NewAuthMiddleware(authService, cfg.Session.CookieName, secret, logger)
	router := handler.NewRouter(handler.RouterConfig{
		AuthHandler: handler.NewAuthHandler(handler.AuthHandlerConfig{
			AuthService:  authService,
			CookieName:   cfg.Session.CookieName,
			CookieSecure: cfg.Session.CookieSecure,
			Secret:       secret,
			Logger:       logger,
		}),
		MovieHandler: handler.NewMovieHandler(movieService, logger),
		AdminHandler: handler.NewAdminHandler(handler.AdminHandlerConfig{
			MovieService:    movieService,
			UserService:     userService,
			ActivityService: activityService,
			Media:           media,
			MaxUploadSize:   cfg.Media.MaxUploadSize,
			Logger:          logger,
		}),
		AuthMiddleware: authMW,
		Recorder:       recorder,
		Health:         health,
		Media:          media,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 2)

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	// Metrics listener on its own port so it can stay cluster-internal.
	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler: mux,
		}
		go func() {
			logger.Info().Str("addr", metricsSrv.Addr).Msg("metrics server listening")
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	// Periodic sweep of expired sessions; a no-op on the Redis store.
	go func() {
		ticker := time.NewTicker(sessionSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				authService.SweepExpiredSessions(ctx)
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown failed")
		}
	}

	logger.Info().Msg("server stopped")
	return nil
}

// openDatabase connects to the configured backend and runs startup
// migrations.
func openDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*repository.Repositories, repository.DatabaseHealth, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		db, err := sqlite.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to migrate sqlite: %w", err)
		}
		return sqlite.NewRepositories(db), db, nil
	case "postgres":
		db, err := postgres.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to migrate postgres: %w", err)
		}
		return postgres.NewRepositories(db), db, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
}

// openMediaStore builds the configured media backend.
func openMediaStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (storage.MediaStore, error) {
	switch cfg.Media.Backend {
	case "filesystem":
		return storage.NewFilesystemStore(cfg.Media.Dir, "/uploads", logger)
	case "s3":
		return storage.NewS3Store(ctx, cfg.Media.S3, logger)
	default:
		return nil, fmt.Errorf("unsupported media backend: %s", cfg.Media.Backend)
	}
}

// setupLogger configures the global zerolog logger from configuration.
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = cfg.TimeFormat

	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	return log.Logger
}
