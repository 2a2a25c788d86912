package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/deppfellow/storeops/internal/config"
	loggerPkg "github.com/deppfellow/storeops/internal/logger"
	"github.com/deppfellow/storeops/internal/repository"
	"github.com/deppfellow/storeops/internal/server"
	"github.com/deppfellow/storeops/internal/service"
)

type globalOptions struct {
	envFile  string
	logLevel string
}

// app carries what every config-backed command needs.
type app struct {
	cfg           *config.Config
	logger        zerolog.Logger
	loggerService *loggerPkg.LoggerService
}

func newApp(opts *globalOptions) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.logLevel != "" {
		cfg.Observability.Logging.Level = opts.logLevel
	}

	loggerService := loggerPkg.NewLoggerService(cfg.Observability)
	logger := loggerPkg.NewLoggerWithService(cfg.Observability, loggerService)

	return &app{cfg: cfg, logger: logger, loggerService: loggerService}, nil
}

// close flushes the New Relic application, if any.
func (a *app) close() {
	a.loggerService.Shutdown()
}

// wired bundles the server with its repositories and services.
// Background workers are not started; only serve does that.
type wired struct {
	server   *server.Server
	repos    *repository.Repositories
	services *service.Services
}

// open builds the server and services, applying pending migrations first
// unless migrate is false.
func (a *app) open(ctx context.Context, migrate bool) (*wired, error) {
	srv, err := server.New(a.cfg, &a.logger, a.loggerService)
	if err != nil {
		return nil, err
	}

	if migrate {
		if err := srv.DB.Migrate(ctx, &a.logger); err != nil {
			_ = srv.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	repos := repository.NewRepositories(srv)
	services, err := service.NewService(srv, repos)
	if err != nil {
		_ = srv.Close()
		return nil, fmt.Errorf("init services: %w", err)
	}

	return &wired{server: srv, repos: repos, services: services}, nil
}

func (r *wired) close() {
	if err := r.server.Close(); err != nil {
		r.server.Logger.Error().Err(err).Msg("failed to close server resources")
	}
}
