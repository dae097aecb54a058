package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/medibook/hospital-api/internal/api"
	"github.com/medibook/hospital-api/internal/appointment"
	"github.com/medibook/hospital-api/internal/auth"
	"github.com/medibook/hospital-api/internal/config"
	"github.com/medibook/hospital-api/internal/db"
	"github.com/medibook/hospital-api/internal/prescription"
	"github.com/medibook/hospital-api/internal/profile"
	redisclient "github.com/medibook/hospital-api/internal/redis"
	"github.com/medibook/hospital-api/internal/schedule"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("config load error")
	}

	logger := newLogger(cfg.Env)
	logger.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to Postgres")

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(redisclient.Options{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
		PoolSize: cfg.RedisPoolSize,
		Timeout:  cfg.RedisTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Warn().Err(err).Msg("error closing redis")
		}
	}()
	logger.Info().Msg("connected to Redis")

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	locker := redisclient.NewRedisSlotLocker(rdb, cfg.LockTTL)

	userRepo := auth.NewPgRepository(pgPool)
	profileRepo := profile.NewPgRepository(pgPool)
	scheduleRepo := schedule.NewPgRepository(pgPool)
	appointmentRepo := appointment.NewPgRepository(pgPool)
	prescriptionRepo := prescription.NewPgRepository(pgPool)

	authSvc := auth.NewService(userRepo, tokens, cfg.BcryptCost, logger)
	profileSvc := profile.NewService(profileRepo, userRepo, cfg.BcryptCost, logger)
	scheduleSvc := schedule.NewService(scheduleRepo, logger)
	appointmentSvc := appointment.NewService(appointmentRepo, scheduleRepo, locker, logger)
	prescriptionSvc := prescription.NewService(prescriptionRepo, appointmentRepo, logger)

	router := api.NewRouter(api.RouterConfig{
		Auth:          authSvc,
		Tokens:        tokens,
		Profiles:      profileSvc,
		Schedules:     scheduleSvc,
		Appointments:  appointmentSvc,
		Prescriptions: prescriptionSvc,
		PgPool:        pgPool,
		Redis:         rdb,
		Logger:        logger,
		Env:           cfg.Env,
		Version:       version,
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server error")
		}
	case <-rootCtx.Done():
	}

	logger.Info().Msg("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func newLogger(env string) zerolog.Logger {
	if env == "dev" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
