// Package benchmarks provides instruction cache sweeps over listing programs.
package benchmarks

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/icachesim/cache"
	"github.com/sarchlab/icachesim/emu"
	"github.com/sarchlab/icachesim/loader"
)

// BenchmarkResult holds the results of one benchmark under one cache
// configuration.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark exercises
	Description string `json:"description"`

	// Config is the cache geometry of the run
	Config cache.Config `json:"config"`

	// InstructionsRetired is the number of completed instructions
	InstructionsRetired uint64 `json:"instructions_retired"`

	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`

	// HitRatePercent is 100 * hits / retired instructions
	HitRatePercent float64 `json:"hit_rate_percent"`

	// Evictions is the number of valid lines replaced
	Evictions uint64 `json:"evictions"`

	// State is the state the simulation ended in
	State emu.State `json:"-"`

	// Status is the printable State
	Status string `json:"status"`

	// Error is set when the benchmark could not run
	Error string `json:"error,omitempty"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark exercises
	Description string

	// Setup presets registers before the run
	Setup func(regFile *emu.RegFile)

	// Program is the listing to replay
	Program *loader.Program
}

// LoadBenchmark creates a benchmark from a listing file, named after the
// file.
func LoadBenchmark(path string) (Benchmark, error) {
	prog, err := loader.Load(path)
	if err != nil {
		return Benchmark{}, err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Benchmark{
		Name:        name,
		Description: path,
		Program:     prog,
	}, nil
}

// ResultWriter stores the full result of a run.
type ResultWriter interface {
	WriteRun(program string, cfg cache.Config, result *emu.Result) (string, error)
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Configs lists the cache geometries every benchmark runs under
	Configs []cache.Config

	// MaxInstructions bounds every run
	MaxInstructions uint64

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Writer, if set, receives the per-address results of every run
	Writer ResultWriter

	// Logger receives diagnostics (default: the standard logger)
	Logger logrus.FieldLogger

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Configs:         []cache.Config{cache.DefaultConfig()},
		MaxInstructions: 10000,
		Output:          os.Stdout,
		Logger:          logrus.StandardLogger(),
	}
}

// SweepConfigs returns the cross product of sizes, associativities and block
// sizes, keeping addressWidth. Geometries that fail validation are skipped.
func SweepConfigs(sizes, ways, lines []int, addressWidth int) []cache.Config {
	configs := []cache.Config{}

	for _, size := range sizes {
		for _, assoc := range ways {
			for _, line := range lines {
				cfg := cache.Config{
					Size:          size,
					Associativity: assoc,
					BlockSize:     line,
					AddressWidth:  addressWidth,
				}
				if cfg.Validate() != nil {
					continue
				}
				configs = append(configs, cfg)
			}
		}
	}

	return configs
}

// Harness runs benchmarks under a set of cache configurations and reports
// results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Logger == nil {
		config.Logger = logrus.StandardLogger()
	}
	if len(config.Configs) == 0 {
		config.Configs = []cache.Config{cache.DefaultConfig()}
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes every benchmark under every configuration, benchmark by
// benchmark, and returns the results in that order.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0,
		len(h.benchmarks)*len(h.config.Configs))

	for _, bench := range h.benchmarks {
		for _, cfg := range h.config.Configs {
			result := h.runBenchmark(bench, cfg)
			results = append(results, result)
		}
	}

	return results
}

// runBenchmark executes a single benchmark on a fresh cache.
func (h *Harness) runBenchmark(bench Benchmark, cfg cache.Config) BenchmarkResult {
	result := BenchmarkResult{
		Name:        bench.Name,
		Description: bench.Description,
		Config:      cfg,
	}

	logger := h.config.Logger.WithFields(logrus.Fields{
		"benchmark": bench.Name,
		"cache":     cfg.String(),
	})

	if err := cfg.Validate(); err != nil {
		return h.fail(result, err, logger)
	}

	regFile := &emu.RegFile{}
	if bench.Setup != nil {
		bench.Setup(regFile)
	}

	c := cache.New(cfg)

	start := time.Now()
	run, err := emu.Simulate(bench.Program, c, h.config.MaxInstructions,
		emu.WithRegFile(regFile),
		emu.WithLogger(logger))
	result.WallTime = time.Since(start)

	if err != nil {
		if errors.Is(err, emu.ErrStartNotFound) {
			result.State = emu.StateFailedNoStart
			result.Status = result.State.String()
		}
		return h.fail(result, err, logger)
	}

	result.InstructionsRetired = run.InstructionsRetired
	result.Hits = run.TotalHits()
	result.Misses = run.TotalMisses()
	result.HitRatePercent = 100 * run.HitRate()
	result.Evictions = c.Stats().Evictions
	result.State = run.Status
	result.Status = run.Status.String()

	if h.config.Writer != nil {
		if _, err := h.config.Writer.WriteRun(bench.Name, cfg, run); err != nil {
			logger.WithError(err).Error("Failed to store run")
		}
	}

	if h.config.Verbose {
		logger.WithFields(logrus.Fields{
			"retired":  result.InstructionsRetired,
			"hit_rate": fmt.Sprintf("%.2f%%", result.HitRatePercent),
		}).Info("Benchmark finished")
	}

	return result
}

func (h *Harness) fail(
	result BenchmarkResult,
	err error,
	logger logrus.FieldLogger,
) BenchmarkResult {
	logger.WithError(err).Error("Benchmark failed")

	result.Error = err.Error()
	if result.Status == "" {
		result.Status = "failed"
	}

	return result
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	out := h.config.Output

	_, _ = fmt.Fprintln(out, "=== Instruction Cache Sweep Results ===")
	_, _ = fmt.Fprintln(out, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(out, "Benchmark: %s [%s]\n", r.Name, r.Config)
		_, _ = fmt.Fprintf(out, "  Description: %s\n", r.Description)
		if r.Error != "" {
			_, _ = fmt.Fprintf(out, "  Error: %s\n", r.Error)
			_, _ = fmt.Fprintln(out, "")
			continue
		}
		_, _ = fmt.Fprintf(out, "  Instructions Retired: %d\n", r.InstructionsRetired)
		_, _ = fmt.Fprintf(out, "  Hits:                 %d\n", r.Hits)
		_, _ = fmt.Fprintf(out, "  Misses:               %d\n", r.Misses)
		_, _ = fmt.Fprintf(out, "  Evictions:            %d\n", r.Evictions)
		_, _ = fmt.Fprintf(out, "  Hit Rate:             %.2f%%\n", r.HitRatePercent)
		_, _ = fmt.Fprintf(out, "  Status:               %s\n", r.Status)
		_, _ = fmt.Fprintf(out, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(out, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,size,ways,line,instructions,hits,misses,evictions,hit_rate,status")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%d,%d,%d,%d,%d,%.2f,%s\n",
			r.Name,
			r.Config.Size,
			r.Config.Associativity,
			r.Config.BlockSize,
			r.InstructionsRetired,
			r.Hits,
			r.Misses,
			r.Evictions,
			r.HitRatePercent,
			r.Status,
		)
	}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	// Metadata about the benchmark run
	Metadata ReportMetadata `json:"metadata"`

	// Results is the list of individual benchmark results
	Results []BenchmarkResult `json:"results"`

	// Summary contains aggregate statistics
	Summary ReportSummary `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	// Timestamp when the benchmark was run
	Timestamp string `json:"timestamp"`

	// MaxInstructions is the per-run instruction limit
	MaxInstructions uint64 `json:"max_instructions"`

	// Configs lists the swept cache geometries
	Configs []cache.Config `json:"configs"`
}

// ReportSummary contains aggregate statistics across all results.
type ReportSummary struct {
	TotalRuns         int     `json:"total_runs"`
	FailedRuns        int     `json:"failed_runs"`
	TotalInstructions uint64  `json:"total_instructions"`
	TotalHits         uint64  `json:"total_hits"`
	HitRatePercent    float64 `json:"hit_rate_percent"`

	// TotalWallTime is the total wall clock time for all runs
	TotalWallTime time.Duration `json:"total_wall_time_ns"`
}

// Summarize aggregates results.
func Summarize(results []BenchmarkResult) ReportSummary {
	summary := ReportSummary{TotalRuns: len(results)}

	for _, r := range results {
		if r.Error != "" {
			summary.FailedRuns++
		}
		summary.TotalInstructions += r.InstructionsRetired
		summary.TotalHits += r.Hits
		summary.TotalWallTime += r.WallTime
	}

	if summary.TotalInstructions > 0 {
		summary.HitRatePercent = 100 * float64(summary.TotalHits) /
			float64(summary.TotalInstructions)
	}

	return summary
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp:       time.Now().UTC().Format(time.RFC3339),
			MaxInstructions: h.config.MaxInstructions,
			Configs:         h.config.Configs,
		},
		Results: results,
		Summary: Summarize(results),
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
