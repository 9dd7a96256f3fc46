package main

import (
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sarchlab/icachesim/cache"
	"github.com/sarchlab/icachesim/emu"
	"github.com/sarchlab/icachesim/loader"
	"github.com/sarchlab/icachesim/report"
)

type runOptions struct {
	*globalOptions

	configPath      string
	size            int
	ways            int
	line            int
	addrWidth       int
	maxInstructions uint64
}

func newRunCmd(global *globalOptions) *cobra.Command {
	opts := &runOptions{globalOptions: global}
	defaults := cache.DefaultConfig()

	runCmd := &cobra.Command{
		Use:   "run <listing>",
		Short: "Replay a listing through the instruction cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, args[0])
		},
	}

	runCmd.Flags().StringVar(&opts.configPath, "config", "",
		"Cache configuration file (.json, .yaml)")
	runCmd.Flags().IntVar(&opts.size, "size", defaults.Size, "Cache size in bytes")
	runCmd.Flags().IntVar(&opts.ways, "ways", defaults.Associativity, "Associativity")
	runCmd.Flags().IntVar(&opts.line, "line", defaults.BlockSize, "Line size in bytes")
	runCmd.Flags().IntVar(&opts.addrWidth, "addr-width", defaults.AddressWidth,
		"Address width in bits")
	runCmd.Flags().Uint64Var(&opts.maxInstructions, "max-instrs",
		emu.DefaultMaxInstructions, "Maximum number of instructions to run")
	addDBFlag(runCmd, global)

	return runCmd
}

// cacheConfig starts from the --config file, if any, and applies the
// geometry flags that were set explicitly.
func (o *runOptions) cacheConfig(cmd *cobra.Command) (cache.Config, error) {
	cfg := cache.DefaultConfig()
	if o.configPath != "" {
		var err error
		cfg, err = cache.LoadConfig(o.configPath)
		if err != nil {
			return cache.Config{}, err
		}
	}

	flags := cmd.Flags()
	if o.configPath == "" || flags.Changed("size") {
		cfg.Size = o.size
	}
	if o.configPath == "" || flags.Changed("ways") {
		cfg.Associativity = o.ways
	}
	if o.configPath == "" || flags.Changed("line") {
		cfg.BlockSize = o.line
	}
	if o.configPath == "" || flags.Changed("addr-width") {
		cfg.AddressWidth = o.addrWidth
	}

	if err := cfg.Validate(); err != nil {
		return cache.Config{}, err
	}

	return cfg, nil
}

func (o *runOptions) run(cmd *cobra.Command, path string) error {
	cfg, err := o.cacheConfig(cmd)
	if err != nil {
		return err
	}

	prog, err := loader.Load(path)
	if err != nil {
		return err
	}

	o.logger.WithFields(logrus.Fields{
		"listing":      path,
		"instructions": prog.Len(),
		"entry":        fmt.Sprintf("0x%x", prog.Entry()),
		"cache":        cfg.String(),
	}).Info("Starting simulation")

	result, err := emu.Simulate(prog, cache.New(cfg), o.maxInstructions,
		emu.WithLogger(o.logger))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	if err := o.print(cmd, result, cfg); err != nil {
		return err
	}

	return o.store(filepath.Base(path), cfg, result)
}

func (o *runOptions) print(cmd *cobra.Command, result *emu.Result, cfg cache.Config) error {
	out := cmd.OutOrStdout()

	switch o.format {
	case formatCSV:
		return report.PrintCSV(out, result)
	case formatJSON:
		return report.PrintJSON(out, result, cfg)
	default:
		_, _ = fmt.Fprintf(out, "Cache: %s\n\n", cfg)
		return report.PrintTable(out, result)
	}
}

func (o *runOptions) store(program string, cfg cache.Config, result *emu.Result) error {
	w, err := o.openStore()
	if err != nil || w == nil {
		return err
	}

	id, err := w.WriteRun(program, cfg, result)
	if err != nil {
		_ = w.Close()
		return err
	}

	o.logger.WithField("run", id).Info("Stored run")
	return w.Close()
}
