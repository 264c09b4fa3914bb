// Command bizdash runs the dashboard API and its maintenance tasks.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bizdash",
		Short: "Small-business dashboard: clients, payments, projects and revenue",
		Long: `bizdash keeps the payment ledger of a small business and serves
the dashboard API over it.

Configuration is read from the environment (and a .env file when present).`,
		SilenceUsage: true,
	}
	cmd.AddCommand(serveCmd(), migrateCmd(), alertsCmd(), exportCmd())
	return cmd
}
