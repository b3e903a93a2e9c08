// Package cli wires the report pipeline into the serve and batch commands.
package cli

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fmuoria/interview-report-agent/internal/config"
	"github.com/fmuoria/interview-report-agent/internal/logging"
)

// globalFlags are shared by every subcommand
type globalFlags struct {
	configPath string
	logLevel   string
	pretty     bool
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "interview-report-agent",
		Short:         "Turns interview metric tables into narrated PDF reports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to a JSON or YAML config file")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().BoolVar(&flags.pretty, "pretty", false, "Human-readable console logs")

	rootCmd.AddCommand(
		newServeCmd(flags),
		newBatchCmd(flags),
	)

	return rootCmd
}

// load reads the configuration and installs the logger it names
func (f *globalFlags) load() (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	logging.Setup(cfg.LogLevel, f.pretty)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Debug().
		Str("provider", cfg.LLMProvider).
		Str("model", cfg.Model).
		Str("chart_format", cfg.ChartFormat).
		Msg("configuration loaded")
	return cfg, nil
}
