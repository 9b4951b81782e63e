package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type globalOptions struct {
	logLevel string
	logJSON  bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "dramsched",
		Short: "dramsched simulates the command scheduler of a DRAM controller.",
		Long: `dramsched simulates the command scheduler of a DRAM controller. ` +
			`Commands wait in per-bank queues and each channel admits at most ` +
			`one command per cycle, visiting its banks round-robin.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info",
		"Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&opts.logJSON, "log-json", false,
		"Write logs as JSON instead of the console format")

	rootCmd.AddCommand(newRunCmd(opts))
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func newLogger(opts *globalOptions, out io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(opts.logLevel)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level: %w", err)
	}

	if out == nil {
		out = os.Stderr
	}

	if !opts.logJSON {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}
