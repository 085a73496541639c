package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/talent-engine/internal/config"
	"github.com/jonathan/talent-engine/internal/db"
	"github.com/jonathan/talent-engine/internal/report"
	"github.com/jonathan/talent-engine/internal/talent"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	reportRange     string
	reportCandidate string
	reportActor     string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print talent-pool analytics in the terminal",
	Long: `Print the analytics summary for a range. With --candidate, print that
candidate's recommended jobs instead; with --actor, print one recruiter's activity.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportRange, "range", "30d", "Reporting range: 7d, 30d, 90d or 1y")
	reportCmd.Flags().StringVar(&reportCandidate, "candidate", "", "Candidate ID to recommend jobs for")
	reportCmd.Flags().StringVar(&reportActor, "actor", "", "Recruiter ID to report activity for")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}

	ctx := context.Background()
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	engine := talent.New(database, nil, zap.NewNop())
	return printReport(ctx, engine, report.NewPrinter(cmd.OutOrStdout()))
}

func printReport(ctx context.Context, engine *talent.Engine, printer *report.Printer) error {
	switch {
	case reportCandidate != "":
		id, err := uuid.Parse(reportCandidate)
		if err != nil {
			return fmt.Errorf("invalid candidate ID: %w", err)
		}
		recs, err := engine.Pool.Recommend(ctx, id)
		if err != nil {
			return err
		}
		printer.PrintRecommendations(recs)
	case reportActor != "":
		id, err := uuid.Parse(reportActor)
		if err != nil {
			return fmt.Errorf("invalid actor ID: %w", err)
		}
		activity, err := engine.Analytics.Productivity(ctx, id, reportRange)
		if err != nil {
			return err
		}
		printer.PrintActivity(activity)
	default:
		summary, err := engine.Analytics.Summarize(ctx, reportRange)
		if err != nil {
			return err
		}
		printer.PrintSummary(summary)
	}
	return nil
}
