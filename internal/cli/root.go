// Package cli implements the robostorm command line.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/robostorm/robostorm/internal/config"
	"github.com/robostorm/robostorm/pkg/logger"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string

	cfg *config.Config
}

// Config returns the configuration loaded before the subcommand ran.
func (o *RootOptions) Config() *config.Config {
	return o.cfg
}

// NewRootCommand creates the root command for the robostorm CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "robostorm",
		Short: "RoboStorm robot comparison engine",
		Long: `Side-by-side robot comparisons, interaction analytics and a curated
robot catalog served over HTTP.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd.Context())
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "YAML config file (defaults to $ROBOSTORM_CONFIG)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewNewsCommand(opts))

	return cmd
}

// load reads configuration and initializes the global logger.
func (o *RootOptions) load(ctx context.Context) error {
	var (
		cfg *config.Config
		err error
	)
	if o.ConfigPath != "" {
		cfg, err = config.LoadFile(ctx, o.ConfigPath)
	} else {
		cfg, err = config.Load(ctx)
	}
	if err != nil {
		return err
	}

	if err := logger.InitWithFormat(cfg.LogFormat, os.Stderr); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	o.cfg = cfg
	return nil
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
