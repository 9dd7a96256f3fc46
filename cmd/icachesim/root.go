package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sarchlab/icachesim/store"
)

// Environment variables that supply flag defaults. They may be set in a .env
// file in the working directory.
const (
	envLogLevel = "ICACHESIM_LOG_LEVEL"
	envDB       = "ICACHESIM_DB"
)

const (
	formatTable = "table"
	formatCSV   = "csv"
	formatJSON  = "json"
)

type globalOptions struct {
	logLevel string
	dbPath   string
	format   string

	logger *logrus.Logger
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// newRootCmd builds the command tree. Flag defaults are read from the
// environment when it is called.
func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "icachesim",
		Short: "Instruction cache simulator for RISC-V disassembly listings",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log",
		envOr(envLogLevel, "warn"),
		"Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&opts.format, "format", formatTable,
		"Output format (table, csv, json)")

	rootCmd.AddCommand(newRunCmd(opts))
	rootCmd.AddCommand(newSweepCmd(opts))
	rootCmd.AddCommand(newDisasCmd(opts))

	return rootCmd
}

// addDBFlag registers --db on commands that can store results.
func addDBFlag(cmd *cobra.Command, opts *globalOptions) {
	cmd.Flags().StringVar(&opts.dbPath, "db", envOr(envDB, ""),
		"SQLite database to store results in")
}

func (o *globalOptions) setup(cmd *cobra.Command) error {
	level, err := logrus.ParseLevel(o.logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", o.logLevel, err)
	}

	switch o.format {
	case formatTable, formatCSV, formatJSON:
	default:
		return fmt.Errorf("unknown format %q", o.format)
	}

	o.logger = logrus.New()
	o.logger.SetOutput(cmd.ErrOrStderr())
	o.logger.SetLevel(level)

	return nil
}

// openStore opens the results database named by --db, or returns nil when
// none is set.
func (o *globalOptions) openStore() (*store.SQLiteWriter, error) {
	if o.dbPath == "" {
		return nil, nil
	}

	w := store.NewSQLiteWriter(o.dbPath)
	if err := w.Init(); err != nil {
		return nil, err
	}

	o.logger.WithField("db", w.Name()).Info("Storing results")
	return w, nil
}
