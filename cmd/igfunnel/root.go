package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "igfunnel",
	Short: "Instagram lead-generation funnel",
	Long: `igfunnel discovers high-engagement Instagram content for a niche,
qualifies the accounts behind it, and extracts comment audiences from
their best-performing reels.

Runs are sequential by design: one request at a time, with fixed
cooldowns between pages and exponential backoff on rate limits.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches .igfunnel.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}
