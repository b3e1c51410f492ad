// Package cli wires the loader's cobra commands.
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dvloznov/orb-loader/internal/config"
	"github.com/dvloznov/orb-loader/internal/logger"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "orb-loader",
	Short: "Load transaction records into Orb as usage events",
	Long: `orb-loader reads a CSV table of transactions and records each one as
a billable usage event on the Orb billing platform, creating the
customer for a transaction's account when it does not exist yet.

The API key is read from the ORB_API_KEY environment variable.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI. The caller maps a returned error to exit code 1.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./orb-loader.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not load config: %v\n", err)
		cfg = config.Default()
	}
}

// newLogger builds the run logger, letting --log-level override config.
func newLogger(cmd *cobra.Command) zerolog.Logger {
	level := cfg.LogLevel
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		level = v
	}
	return logger.New(level)
}
