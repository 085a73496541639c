package main

import (
	"context"
	"fmt"

	"github.com/jonathan/talent-engine/internal/config"
	"github.com/jonathan/talent-engine/internal/db"
	"github.com/jonathan/talent-engine/internal/logging"
	"github.com/jonathan/talent-engine/internal/talent"
	"github.com/spf13/cobra"
)

var expireInvitationsCmd = &cobra.Command{
	Use:   "expire-invitations",
	Short: "Mark open invitations past their deadline as expired",
	Long: `Persist expiry for every sent or viewed invitation whose deadline has passed.
Reads already treat such invitations as expired; this keeps stored statuses current.`,
	RunE: runExpireInvitations,
}

func init() {
	rootCmd.AddCommand(expireInvitationsCmd)
}

func runExpireInvitations(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	engine := talent.New(database, nil, logger)
	n, err := engine.Invitations.ExpireStale(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "expired %d invitation(s)\n", n)
	return nil
}
