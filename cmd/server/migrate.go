package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chantierdirect/backend/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		db, err := database.InitDB(cfg.Database, !cfg.IsProduction(), logger)
		if err != nil {
			return err
		}
		defer database.Close(db) //nolint:errcheck

		if err := database.Migrate(db); err != nil {
			return err
		}
		logger.Info("migrations applied", zap.String("environment", cfg.Environment))
		return nil
	},
}
