// Package main provides the entry point for the talent-pool engagement engine.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "talent_engine",
	Short: "Talent-pool engagement engine",
	Long:  "Talent engine lets recruiters invite and source candidates from a talent pool, records every touchpoint and reports engagement analytics.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
