package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	"github.com/SscSPs/cashdesk/internal/core/services"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print cash reports",
}

var (
	reportDate   string
	reportBranch string
)

var reportDailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Print the daily summary as JSON",
	Long:  "Aggregates every movement dated on --date (operating timezone, default today) across open and closed sessions.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := ctxOrBackground(cmd.Context())
		return runDailyReport(ctx, cmd)
	},
}

func init() {
	reportDailyCmd.Flags().StringVar(&reportDate, "date", "", "day to summarize (YYYY-MM-DD)")
	reportDailyCmd.Flags().StringVar(&reportBranch, "branch", "", "restrict to one branch")
	reportCmd.AddCommand(reportDailyCmd)
}

func runDailyReport(ctx context.Context, cmd *cobra.Command) error {
	logger := newLogger(os.Stderr)
	cfg, err := loadConfig(logger)
	if err != nil {
		return err
	}
	// Reports never write, so there is nothing to migrate.
	cfg.RunMigrations = false

	infra, err := buildInfrastructure(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize storage", slog.String("error", err.Error()))
		return err
	}
	defer infra.Close()

	container := services.NewServiceContainer(cfg, infra.repos)

	var branchID *string
	if reportBranch != "" {
		branchID = &reportBranch
	}
	summary, err := container.Reporting.DailySummary(ctx, reportDate, branchID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
