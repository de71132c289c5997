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
	Use:   "keybridge",
	Short: "Keybridge - server-side API key proxy for LLM providers",
	Long: `Keybridge is an HTTP proxy that keeps LLM provider API keys out of
browser clients.

It provides:
  - Server-side credential storage (keys never reach the client)
  - Key format and liveness validation per provider
  - Chat request forwarding with normalized responses
  - SSE stream relaying with provider-neutral events`,
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
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
