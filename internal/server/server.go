// Package server defines the core Server struct that composes the app's main dependencies.
//
// It owns the lifecycle of:
//   - configuration
//   - logger + optional New Relic service wrapper
//   - database handle
//   - optional redis client
//   - cache, metrics and notification clients
//   - background job service (asynq or inline)
//   - http.Server
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/deppfellow/storeops/internal/config"
	"github.com/deppfellow/storeops/internal/database"
	"github.com/deppfellow/storeops/internal/lib/cache"
	"github.com/deppfellow/storeops/internal/lib/email"
	"github.com/deppfellow/storeops/internal/lib/job"
	"github.com/deppfellow/storeops/internal/lib/metrics"
	"github.com/deppfellow/storeops/internal/lib/telegram"
	"github.com/newrelic/go-agent/v3/integrations/nrredis-v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	loggerPkg "github.com/deppfellow/storeops/internal/logger"
)

// Server is the application container that holds shared resources.
// It is not the HTTP server itself.
type Server struct {
	Config        *config.Config
	Logger        *zerolog.Logger
	LoggerService *loggerPkg.LoggerService
	DB            *database.Database

	// Redis is nil when no address is configured.
	Redis *redis.Client

	Job      *job.JobService
	Cache    cache.Cache
	Metrics  *metrics.Metrics
	Email    *email.Client
	Telegram *telegram.Client

	httpServer *http.Server
}

// New constructs a Server and initializes core dependencies. Background
// workers are started by Start so services can register handlers first.
//
// A configured but unreachable Redis does not block startup.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*Server, error) {
	db, err := database.New(cfg, logger, loggerService)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		if loggerService.GetApplication() != nil {
			redisClient.AddHook(nrredis.NewHook(redisClient.Options()))
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Error().Err(err).Msg("failed to connect to Redis, continuing")
		}
	}

	c, err := cache.New(cfg, redisClient, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	m := metrics.New()
	emailClient := email.NewClient(cfg, logger)
	telegramClient := telegram.NewClient(cfg, logger)

	jobService := job.NewJobService(logger, cfg, m)
	jobService.InitHandlers(emailClient, telegramClient)

	return &Server{
		Config:        cfg,
		Logger:        logger,
		LoggerService: loggerService,
		DB:            db,
		Redis:         redisClient,
		Job:           jobService,
		Cache:         c,
		Metrics:       m,
		Email:         emailClient,
		Telegram:      telegramClient,
	}, nil
}

// SetupHTTPServer configures the internal net/http server around handler.
func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:         ":" + s.Config.Server.Port,
		Handler:      handler,
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}
}

// Start launches background jobs and then serves HTTP until Shutdown.
// It requires SetupHTTPServer to be called first.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("HTTP server not initialized")
	}

	if err := s.Job.Start(); err != nil {
		return fmt.Errorf("failed to start job service: %w", err)
	}

	s.Logger.Info().
		Str("port", s.Config.Server.Port).
		Str("env", s.Config.Primary.Env).
		Str("database", string(s.DB.Dialect)).
		Msg("starting server")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, drains in-flight work and closes
// every dependency.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown HTTP server: %w", err)
		}
	}

	return s.Close()
}

// Close releases dependencies without touching the HTTP server. CLI commands
// that never serve use it directly.
func (s *Server) Close() error {
	if s.Job != nil {
		s.Job.Stop()
	}

	if m, ok := s.Cache.(*cache.Memory); ok {
		m.Close()
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			s.Logger.Error().Err(err).Msg("failed to close redis client")
		}
	}

	if err := s.DB.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	return nil
}
