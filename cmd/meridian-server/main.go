// Package main is the entry point for the Meridian accounts server, a
// multi-tenant account backend with bearer-token authentication and
// account-owned file records.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prn-tf/meridian-accounts/internal/config"
	"github.com/prn-tf/meridian-accounts/internal/database"
	"github.com/prn-tf/meridian-accounts/internal/handler"
	"github.com/prn-tf/meridian-accounts/internal/lock"
	"github.com/prn-tf/meridian-accounts/internal/metrics"
	"github.com/prn-tf/meridian-accounts/internal/pkg/crypto"
	"github.com/prn-tf/meridian-accounts/internal/repository"
	"github.com/prn-tf/meridian-accounts/internal/service"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)

	logger := newLogger(cfg.Logging)
	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("starting meridian accounts server")

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	db, err := database.Open(ctx, cfg.Database, logger.With().Str("component", "database").Logger())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}

	// Signing keys
	privateKey, err := crypto.LoadPrivateKey(cfg.Auth.PrivateKeyPath)
	if err != nil {
		return err
	}
	publicKey, err := crypto.LoadPublicKey(cfg.Auth.PublicKeyPath)
	if err != nil {
		return err
	}

	// Locking backend
	locker, err := newLocker(cfg, logger)
	if err != nil {
		return err
	}

	// Services
	hasher := crypto.NewHasher(crypto.DefaultHashParams())
	signer := crypto.NewTokenSigner(privateKey, publicKey, cfg.Auth.TokenLifetime, cfg.Auth.ValidateExpiry)

	accounts := service.NewAccountService(
		db,
		repository.NewAccountRepository(),
		hasher,
		locker,
		cfg.Lock.TTL,
		cfg.Defaults.ProfilePictureURL,
		logger,
	)
	files := service.NewFileService(db, repository.NewFileRepository(), logger)
	auth := service.NewAuthService(accounts, hasher, signer, logger)

	// HTTP
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	router := handler.NewRouter(handler.RouterConfig{
		AuthHandler:    handler.NewAuthHandler(auth, m, logger),
		AccountHandler: handler.NewAccountHandler(accounts, auth, m, logger),
		FileHandler:    handler.NewFileHandler(files, auth, logger),
		Health:         db,
		Metrics:        m,
		MetricsPath:    cfg.Metrics.Path,
		CORS:           cfg.Server,
		Logger:         logger,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", server.Addr).
			Bool("tls", cfg.Server.TLSEnabled()).
			Msg("listening")

		var err error
		if cfg.Server.TLSEnabled() {
			err = server.ListenAndServeTLS(cfg.Server.TLSCertPath, cfg.Server.TLSKeyPath)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}

// newLogger configures the process logger from config.
func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}

	return logger.Level(level).With().Timestamp().Logger()
}

// newLocker builds the configured lock backend.
func newLocker(cfg *config.Config, logger zerolog.Logger) (lock.Locker, error) {
	switch cfg.Lock.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:        cfg.Redis.Addr(),
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			PoolSize:    cfg.Redis.PoolSize,
			DialTimeout: cfg.Redis.DialTimeout,
		})

		pingCtx, cancel := context.WithTimeout(context.Background(), cfg.Redis.DialTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return nil, err
		}

		logger.Info().Str("addr", cfg.Redis.Addr()).Msg("using redis lock backend")
		return lock.NewRedisLocker(client), nil

	case "noop":
		logger.Warn().Msg("registration locking disabled")
		return lock.NewNoOpLocker(), nil

	default:
		return lock.NewMemoryLocker(), nil
	}
}
