package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "portico",
	Short: "Portico - Anthropic Messages API proxy",
	Long: `Portico is an HTTP proxy that serves the Anthropic Messages API and
fulfills requests against a CodeWhisperer-style backend.

It converts Messages API requests into the backend's conversation-state
format, manages a pool of refreshable OAuth credentials with failover,
and reassembles the backend's binary event stream into Anthropic-shaped
responses, streaming and non-streaming alike.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
