// Package report prints the results of an instruction cache simulation.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/sarchlab/icachesim/cache"
	"github.com/sarchlab/icachesim/emu"
)

// HitRatePercent returns 100 * hits / retired instructions, or 0 when
// nothing retired.
func HitRatePercent(result *emu.Result) float64 {
	return 100 * result.HitRate()
}

// PrintTable writes the per-address table followed by the hit rate and the
// number of instructions run.
func PrintTable(w io.Writer, result *emu.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(tw, "Address\tInstruction\tHits\tMisses\t")
	for _, row := range result.Rows() {
		_, _ = fmt.Fprintf(tw, "%x\t%s\t%d\t%d\t\n",
			row.Addr, row.Mnemonic, row.Hits, row.Misses)
	}
	_, _ = fmt.Fprintf(tw, "Total\t\t%d\t%d\t\n",
		result.TotalHits(), result.TotalMisses())

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Hit rate: %.2f%%\n", HitRatePercent(result))
	_, _ = fmt.Fprintf(w, "Instructions run: %d\n", result.InstructionsRetired)

	if result.Status == emu.StateHaltedMissingAddress {
		_, err := fmt.Fprintf(w, "Stopped: no instruction at 0x%x\n", result.HaltPC)
		return err
	}

	return nil
}

// PrintCSV writes one row per address under an address,instruction,hits,misses
// header.
func PrintCSV(w io.Writer, result *emu.Result) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"address", "instruction", "hits", "misses"}); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}

	for _, row := range result.Rows() {
		record := []string{
			strconv.FormatUint(row.Addr, 16),
			row.Mnemonic,
			strconv.FormatUint(row.Hits, 10),
			strconv.FormatUint(row.Misses, 10),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Report is the JSON document written by PrintJSON.
type Report struct {
	// Config is the cache geometry the run used.
	Config cache.Config `json:"config"`

	// Entries lists per-address statistics in listing order.
	Entries []emu.AddrStats `json:"entries"`

	Summary Summary `json:"summary"`
}

// Summary holds the totals of a run.
type Summary struct {
	Hits                uint64  `json:"hits"`
	Misses              uint64  `json:"misses"`
	InstructionsRetired uint64  `json:"instructions_retired"`
	HitRatePercent      float64 `json:"hit_rate_percent"`
	Status              string  `json:"status"`
	HaltPC              *uint64 `json:"halt_pc,omitempty"`
}

// NewReport builds the JSON document of a run.
func NewReport(result *emu.Result, cfg cache.Config) Report {
	r := Report{
		Config:  cfg,
		Entries: result.Rows(),
		Summary: Summary{
			Hits:                result.TotalHits(),
			Misses:              result.TotalMisses(),
			InstructionsRetired: result.InstructionsRetired,
			HitRatePercent:      HitRatePercent(result),
			Status:              result.Status.String(),
		},
	}

	if result.Status == emu.StateHaltedMissingAddress {
		pc := result.HaltPC
		r.Summary.HaltPC = &pc
	}

	return r
}

// PrintJSON writes the run as an indented JSON document.
func PrintJSON(w io.Writer, result *emu.Result, cfg cache.Config) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewReport(result, cfg))
}
