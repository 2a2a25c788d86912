package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deppfellow/storeops/internal/lib/telegram"
	"github.com/deppfellow/storeops/internal/lib/utils"
	"github.com/deppfellow/storeops/internal/model"
)

func reportCmd(opts *globalOptions) *cobra.Command {
	var (
		storeID int64
		date    string
		dryRun  bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Build the daily flight report and push it to Telegram",
		Long: `Build the daily flight report for every store, or one store with --store,
and send it to the configured Telegram chat.

With --dry-run the report is printed instead of sent; --json prints the
structured report rather than the message text.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var day model.Date
			if date != "" {
				d, err := model.ParseDate(date)
				if err != nil {
					return err
				}
				day = d
			}

			var store *int64
			if cmd.Flags().Changed("store") {
				if storeID <= 0 {
					return fmt.Errorf("--store must be a positive id")
				}
				store = &storeID
			}

			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			w, err := a.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer w.close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if !dryRun {
				text, err := w.services.Report.Send(ctx, store, day)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, text)
				return err
			}

			report, err := w.services.Report.BuildDailyReport(ctx, store, day)
			if err != nil {
				return err
			}
			if asJSON {
				return utils.PrintJSON(out, report)
			}

			text, err := telegram.FormatFlightReport(report)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, text)
			return err
		},
	}

	cmd.Flags().Int64Var(&storeID, "store", 0, "Limit the report to one store id")
	cmd.Flags().StringVar(&date, "date", "", "Report day as YYYY-MM-DD (default: today in the scheduler timezone)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the report instead of sending it")
	cmd.Flags().BoolVar(&asJSON, "json", false, "With --dry-run, print the report as JSON")

	return cmd
}
