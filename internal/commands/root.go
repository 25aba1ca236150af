// Package commands holds the cashdesk command line: the HTTP server, schema migrations
// and offline reports.
package commands

import (
	"io"
	"log/slog"

	"github.com/SscSPs/cashdesk/internal/platform/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cashdesk",
	Short: "Cash register session management",
	Long: `cashdesk manages cash drawer sessions: opening with a float, recording movements
into an append-only ledger, closing with reconciliation, and reporting.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(reportCmd)
}

// newLogger builds the JSON logger every command writes through.
func newLogger(w io.Writer) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, nil))
	slog.SetDefault(logger)
	return logger
}

// loadConfig is shared by every subcommand.
func loadConfig(logger *slog.Logger) (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		return nil, err
	}
	return cfg, nil
}
