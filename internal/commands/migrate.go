package commands

import (
	"errors"
	"log/slog"
	"os"

	"github.com/SscSPs/cashdesk/internal/platform/config"
	"github.com/SscSPs/cashdesk/pkg/database"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply every pending migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrations(database.MigrateUp)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrations(database.MigrateDown)
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
}

func runMigrations(direction database.MigrationDirection) error {
	logger := newLogger(os.Stdout)
	cfg, err := loadConfig(logger)
	if err != nil {
		return err
	}
	if cfg.StorageDriver == config.StorageMemory {
		return errors.New("migrations need STORAGE_DRIVER=postgres")
	}
	if err := database.RunMigrations(logger, cfg.DatabaseURL, cfg.MigrationsPath, direction); err != nil {
		logger.Error("Failed to run migrations", slog.String("error", err.Error()))
		return err
	}
	return nil
}
