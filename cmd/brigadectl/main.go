package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "brigadectl",
		Short:         "Database and storage maintenance for brigade-service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(seedAdminCmd())
	rootCmd.AddCommand(seedDemoCmd())
	rootCmd.AddCommand(sweepCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
