package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/deppfellow/storeops/internal/handler"
	"github.com/deppfellow/storeops/internal/router"
)

const shutdownTimeout = 30 * time.Second

func serveCmd(opts *globalOptions) *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, background workers and the report scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			return a.serve(cmd.Context(), !skipMigrate)
		},
	}

	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "Do not apply pending migrations on startup")

	return cmd
}

func (a *app) serve(ctx context.Context, migrate bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := a.open(ctx, migrate)
	if err != nil {
		return err
	}

	h := handler.NewHandlers(w.server, w.services)
	r := router.NewRouter(w.server, h, w.services)
	w.server.SetupHTTPServer(r)

	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Start()
	}()

	select {
	case err := <-errCh:
		// Start only returns early when listening fails.
		w.close()
		return err
	case <-ctx.Done():
	}

	a.logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := w.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("server forced to shutdown")
		return err
	}

	a.logger.Info().Msg("server exited properly")
	return nil
}
