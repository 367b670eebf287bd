package main

import (
	"fmt"
	"os"

	"dashboard_backend/internal/config"
	"dashboard_backend/pkg/utils"

	"github.com/spf13/cobra"
)

var (
	configPath string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "dashboard-server",
	Short:         "Per-user dashboard settings service",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return utils.InitLogger(cfg.Logging.Level, cfg.Logging.Format)
	},
	// Running the binary without a subcommand starts the server.
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (default $APP_CONFIG)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
