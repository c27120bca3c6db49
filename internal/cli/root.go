package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/terraincognita07/ecgscan/internal/config"
)

// ServeFunc runs the HTTP server until ctx is cancelled.
type ServeFunc func(ctx context.Context, cfg config.Config, logger *logrus.Logger) error

// RootOptions is filled in before any subcommand runs.
type RootOptions struct {
	Verbose bool

	Config config.Config
	Logger *logrus.Logger

	// Stdin and Stdout are overridable for tests.
	Stdin  io.Reader
	Stdout io.Writer
}

func NewRootCommand(serve ServeFunc) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "ecgscan",
		Short:         "ECG triage service",
		Long:          "ecgscan receives ECG tracings from nurses, queues them by priority and lets physicians laud them.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			level := cfg.LogLevel
			if opts.Verbose {
				level = "debug"
			}
			opts.Config = cfg
			opts.Logger = config.NewLogger(level, cfg.LogFormat)
			opts.Stdin = cmd.InOrStdin()
			opts.Stdout = cmd.OutOrStdout()
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(NewServeCommand(opts, serve))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedUsersCommand(opts))
	cmd.AddCommand(NewCreateUserCommand(opts))
	cmd.AddCommand(NewResetPasswordCommand(opts))

	return cmd
}
