package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"bizdash/internal/cli"
	"bizdash/internal/core"
	"bizdash/internal/export"
	"bizdash/internal/ledger"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations to the configured database",
		Long: `Opening a SQL backend applies its migrations: embedded SQL files
for sqlite, automatic schema migration for postgres. The memory backend
has nothing to migrate.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := cli.Bootstrap(commandContext(cmd))
			if err != nil {
				return err
			}
			defer app.Close()
			app.Logger.Info("Database is up to date", "backend", app.Config.DataBackend)
			return nil
		},
	}
}

func alertsCmd() *cobra.Command {
	var (
		year      int
		month     int
		dismissed []string
	)
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Print overdue payments and unpaid projects of a month",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			app, err := cli.Bootstrap(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			now := time.Now().In(app.Config.Location())
			period, err := flagPeriod(year, month, now)
			if err != nil {
				return err
			}
			snap, err := ledger.LoadSnapshot(ctx, app.Store)
			if err != nil {
				return err
			}
			alerts := ledger.BuildOverdueAlerts(snap.Payments, snap.Projects, snap.Clients,
				period, core.DateOf(now), ledger.ParseDismissed(dismissed))
			return printAlerts(cmd.OutOrStdout(), period, alerts)
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "Year (default: current year)")
	cmd.Flags().IntVar(&month, "month", 0, "Month 1-12 (default: current month)")
	cmd.Flags().StringSliceVar(&dismissed, "dismissed", nil, "Alert ids to leave out")
	return cmd
}

func exportCmd() *cobra.Command {
	var (
		year int
		out  string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the payments and revenue of a year to an xlsx workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			app, err := cli.Bootstrap(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			now := time.Now().In(app.Config.Location())
			if year == 0 {
				year = now.Year()
			}
			if out == "" {
				out = export.FileName(year, now)
			}
			snap, err := ledger.LoadSnapshot(ctx, app.Store)
			if err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := export.WriteLedger(f, snap, year); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			app.Logger.Info("Ledger exported", "year", year, "file", out, "payments", len(snap.Payments))
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "Year (default: current year)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default: generated name in the working directory)")
	return cmd
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// flagPeriod resolves --year/--month, each defaulting to now.
func flagPeriod(year, month int, now time.Time) (core.Period, error) {
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	return core.NewPeriod(year, time.Month(month))
}

func printAlerts(w io.Writer, period core.Period, alerts []ledger.Alert) error {
	if len(alerts) == 0 {
		_, err := fmt.Fprintf(w, "No overdue items for %s\n", period)
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tDATE\tCLIENT\tTITLE\tAMOUNT\tID")
	for _, a := range alerts {
		date := a.Date.String()
		if date == "" {
			date = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", a.Kind, date, a.ClientName, a.Title, a.Amount, a.ID)
	}
	return tw.Flush()
}
