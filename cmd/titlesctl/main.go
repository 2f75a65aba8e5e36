// Command titlesctl runs the land titles join offline: load a workbook or
// database export, join it and write Tabel_Titluri_Export.xlsx.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rpattn/landtitles/internal/config"
	"github.com/rpattn/landtitles/internal/logger"
)

const (
	exitFailure    = 1
	exitUsage      = 2
	exitValidation = 3
	exitDB         = 4
)

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

func exitCode(err error) int {
	var coded *exitError
	if errors.As(err, &coded) {
		return coded.code
	}
	return exitFailure
}

type globalOptions struct {
	configPath string
	verbose    bool

	cfg config.Config
	log *logger.Logger
}

func newRootCmd() *cobra.Command {
	var opts globalOptions

	root := &cobra.Command{
		Use:           "titlesctl",
		Short:         "Join land titles, owners and parcels into the export workbook",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return withCode(exitUsage, err)
			}
			opts.cfg = cfg

			level := zerolog.InfoLevel
			if opts.verbose {
				level = zerolog.DebugLevel
			}
			opts.log = logger.NewWithWriter(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}, level)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Directory holding config.yaml (optional)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Debug logging")

	root.AddCommand(newProcessCmd(&opts))
	root.AddCommand(newProcessPostgresCmd(&opts))
	root.AddCommand(newTablesCmd(&opts))
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "titlesctl: %v\n", err)
		stop()
		os.Exit(exitCode(err))
	}
}
