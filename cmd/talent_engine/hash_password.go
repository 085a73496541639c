package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/talent-engine/internal/config"
	"github.com/jonathan/talent-engine/internal/db"
	"github.com/spf13/cobra"
)

var hashPasswordEmail string

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Hash a password read from stdin",
	Long: `Read a password from the first line of stdin and print its bcrypt hash.
With --email, store the hash on that account instead of printing it.`,
	RunE: runHashPassword,
}

func init() {
	hashPasswordCmd.Flags().StringVar(&hashPasswordEmail, "email", "", "Account to set the password on")
	rootCmd.AddCommand(hashPasswordCmd)
}

func runHashPassword(cmd *cobra.Command, _ []string) error {
	passwordCfg, err := config.NewPasswordConfig()
	if err != nil {
		return err
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("failed to read password: %w", err)
	}
	hash, err := passwordCfg.HashPassword(strings.TrimRight(line, "\r\n"))
	if err != nil {
		return err
	}

	if hashPasswordEmail == "" {
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	}

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

	user, err := database.GetUserByEmail(ctx, hashPasswordEmail)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("no account with email %s", hashPasswordEmail)
	}
	if err := database.SetPassword(ctx, user.ID, hash); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "password updated for %s\n", user.Email)
	return nil
}
