package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/icachesim/benchmarks"
	"github.com/sarchlab/icachesim/cache"
)

type sweepOptions struct {
	*globalOptions

	builtin         bool
	sizes           []int
	ways            []int
	lines           []int
	addrWidth       int
	maxInstructions uint64
	verbose         bool
}

func newSweepCmd(global *globalOptions) *cobra.Command {
	opts := &sweepOptions{globalOptions: global}

	sweepCmd := &cobra.Command{
		Use:   "sweep [listing...]",
		Short: "Run listings under every combination of cache geometries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, args)
		},
	}

	sweepCmd.Flags().BoolVar(&opts.builtin, "builtin", false,
		"Include the built-in synthetic benchmarks")
	sweepCmd.Flags().IntSliceVar(&opts.sizes, "sizes",
		[]int{1024, 2048, 4096, 8192}, "Cache sizes in bytes")
	sweepCmd.Flags().IntSliceVar(&opts.ways, "ways-list", []int{1, 2, 4},
		"Associativities")
	sweepCmd.Flags().IntSliceVar(&opts.lines, "lines", []int{8, 16},
		"Line sizes in bytes")
	sweepCmd.Flags().IntVar(&opts.addrWidth, "addr-width",
		cache.DefaultConfig().AddressWidth, "Address width in bits")
	sweepCmd.Flags().Uint64Var(&opts.maxInstructions, "max-instrs", 10000,
		"Maximum number of instructions per run")
	sweepCmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false,
		"Log every finished run")
	addDBFlag(sweepCmd, global)

	return sweepCmd
}

func (o *sweepOptions) run(cmd *cobra.Command, paths []string) error {
	if len(paths) == 0 && !o.builtin {
		return fmt.Errorf("no listings given; pass listing files or --builtin")
	}

	configs := benchmarks.SweepConfigs(o.sizes, o.ways, o.lines, o.addrWidth)
	if len(configs) == 0 {
		return fmt.Errorf("%w: no valid geometry in the sweep", cache.ErrInvalidConfig)
	}

	config := benchmarks.DefaultConfig()
	config.Configs = configs
	config.MaxInstructions = o.maxInstructions
	config.Output = cmd.OutOrStdout()
	config.Logger = o.logger
	config.Verbose = o.verbose

	w, err := o.openStore()
	if err != nil {
		return err
	}
	if w != nil {
		config.Writer = w
		defer func() { _ = w.Close() }()
	}

	harness := benchmarks.NewHarness(config)
	if o.builtin {
		harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())
	}
	for _, path := range paths {
		bench, err := benchmarks.LoadBenchmark(path)
		if err != nil {
			return err
		}
		harness.AddBenchmark(bench)
	}

	results := harness.RunAll()

	switch o.format {
	case formatCSV:
		harness.PrintCSV(results)
	case formatJSON:
		if err := harness.PrintJSON(results); err != nil {
			return err
		}
	default:
		harness.PrintResults(results)
	}

	if failed := benchmarks.Summarize(results).FailedRuns; failed > 0 {
		return fmt.Errorf("%d of %d runs failed", failed, len(results))
	}

	return nil
}
