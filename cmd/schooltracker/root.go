package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-schooltracker-client/internal/config"
)

type rootFlags struct {
	output   string
	logLevel string
	timeout  time.Duration
}

// rootCmd builds the command tree. cleanup releases what the executed command
// opened and must run even when it failed.
func rootCmd() (root *cobra.Command, cleanup func()) {
	flags := &rootFlags{}
	var a *app
	stopTracing := func() {}

	cmd := &cobra.Command{
		Use:           "schooltracker",
		Short:         "Track school applications, documents and deadlines",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New()
			if err != nil {
				return err
			}
			setupLogging(cfg, flags.logLevel)

			stop, err := setupTracing(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			stopTracing = stop
			a, err = newApp(cfg)
			if err != nil {
				return err
			}
			return a.restore(cmd.Context())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			displayAppname(a.cfg.GetAppName())
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVarP(&flags.output, "output", "o", outputYAML, "output format: yaml or json")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override the configured log level")
	cmd.PersistentFlags().DurationVar(&flags.timeout, "timeout", time.Minute, "overall command timeout")

	// Commands reach the wired app through this accessor; it is populated by
	// PersistentPreRunE before any RunE executes.
	env := func(cmd *cobra.Command) (*app, context.Context, context.CancelFunc, printer) {
		ctx, cancel := context.WithTimeout(cmd.Context(), flags.timeout)
		return a, ctx, cancel, newPrinter(cmd.OutOrStdout(), flags.output)
	}

	cmd.AddCommand(signInCmd(env))
	cmd.AddCommand(signUpCmd(env))
	cmd.AddCommand(signOutCmd(env))
	cmd.AddCommand(statusCmd(env))
	cmd.AddCommand(resetCmd(env))
	cmd.AddCommand(applicationsCmd(env))
	cmd.AddCommand(documentsCmd(env))
	cmd.AddCommand(eventsCmd(env))

	return cmd, func() {
		if a != nil {
			a.close()
		}
		stopTracing()
	}
}

type envFunc func(cmd *cobra.Command) (*app, context.Context, context.CancelFunc, printer)

func setupLogging(cfg config.EnvConfig, override string) {
	level := cfg.GetLogLevel()
	if override != "" {
		level = override
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}
