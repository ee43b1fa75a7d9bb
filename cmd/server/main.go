package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chantierdirect/backend/internal/config"
	"github.com/chantierdirect/backend/internal/logging"
)

const serviceName = "chantier-direct"

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Chantier-Direct marketplace backend",
	Long: `Chantier-Direct connects donneurs d'ordre with verified sous-traitants.

Available subcommands:
  serve   - Run the HTTP API, the job worker and the schedules
  migrate - Apply database migrations and exit
  catalog - Print the document catalog in effect`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, catalogCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads the configuration and builds the process logger
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg := config.LoadConfig()
	logger, err := logging.New(serviceName, cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
