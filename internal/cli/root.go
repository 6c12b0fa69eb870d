// Package cli wires the uirecorder commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"uirecorder/internal/config"
	"uirecorder/pkg/logger"
)

var flagVerbose bool

var rootCmd = &cobra.Command{
	Use:   "uirecorder",
	Short: "uirecorder - record browser interactions and replay them as tests",
	Long: `uirecorder records user interactions in Chrome and replays them as tests.

Quick start:
  uirecorder serve                          # Run the recorder API
  uirecorder replay flow.yaml               # Replay a recorded flow
  uirecorder check flow.yaml                # Check locators against the live page
  uirecorder generate flow.yaml -o flow_test.go
  uirecorder export cases.json -o cases.xlsx`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Verbose logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(devicesCmd)
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setup loads the configuration and initializes logging.
func setup() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	mode := cfg.Server.Mode
	if flagVerbose {
		mode = "debug"
	}
	if err := logger.Init(mode); err != nil {
		return nil, err
	}
	return cfg, nil
}
