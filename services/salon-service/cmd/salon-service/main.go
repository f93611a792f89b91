// Command salon-service runs the salon booking API and its maintenance tasks.
package main

import (
	"fmt"
	"os"

	"github.com/md-rashed-zaman/salonbook/libs/config"
	"github.com/spf13/cobra"
)

const serviceName = "salon-service"

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   serviceName,
		Short: "Salon booking backend",
		Long: `salon-service serves the salon's booking, slot, catalog and review API.

Configuration comes from the environment (and a .env file when present).
Running without a subcommand is the same as "serve".`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}

	cmd.AddCommand(serveCmd(), migrateCmd(), repairSlotsCmd(), seedServicesCmd())
	return cmd
}
