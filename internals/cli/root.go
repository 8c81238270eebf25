// Package cli implements festctl, the operator command line for the tech-fest backend.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"techfest_backend/internals/configs"
	"techfest_backend/internals/logging"
)

var (
	envFile string
	rootCmd *cobra.Command
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "festctl",
		Short: "festctl - tech-fest registration operations",
		Long: `festctl runs maintenance tasks against the registration database:
schema migration, event seeding, registration listing and admin password hashing.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if envFile != "" {
				configs.LoadEnv(envFile)
			} else {
				configs.LoadEnv()
			}
			cfg := configs.Load()
			logging.Init(cfg.LogLevel, "console")
		},
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load environment from this file instead of .env")
}

// Execute runs the root command.
func Execute(version string) error {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(registrationsCmd)
	rootCmd.AddCommand(hashPasswordCmd)
	rootCmd.AddCommand(outboxCmd)

	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
