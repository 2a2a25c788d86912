// Package main provides the storeops binary: the HTTP API plus the
// operational commands around it (migrations, fixtures, flight reports).
package main

import (
	"fmt"
	"os"
	"runtime"

	// Embedded zone database so store timezones resolve in slim images.
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const appName = "storeops"

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var opts globalOptions

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Multi-store employee and operations backend",
		Long: `storeops runs the store operations API: staff accounts, geofenced
attendance, revenue, product orders, maintenance tickets and the daily
flight report pushed to Telegram.

Configuration is read from STOREOPS_* environment variables and an
optional .env file in the working directory.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.envFile == "" {
				return nil
			}
			if err := godotenv.Load(opts.envFile); err != nil {
				return fmt.Errorf("load env file %s: %w", opts.envFile, err)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "Additional env file to load before reading configuration")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")

	cmd.AddCommand(
		serveCmd(&opts),
		migrateCmd(&opts),
		seedCmd(&opts),
		reportCmd(&opts),
		hashPasswordCmd(),
	)

	return cmd
}
