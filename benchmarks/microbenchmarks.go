package benchmarks

import (
	"github.com/sarchlab/icachesim/emu"
	"github.com/sarchlab/icachesim/insts"
)

// BaseAddress is where the synthetic benchmarks are placed.
const BaseAddress = 0x80000000

// GetMicrobenchmarks returns the standard set of synthetic listings. Each one
// targets a specific fetch pattern.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		straightLine(),
		tightLoop(),
		nestedLoops(),
		callReturn(),
		setConflict(),
		largeLoop(),
	}
}

// GetCoreBenchmarks returns a minimal set of 3 benchmarks for quick runs:
// loop reuse, call/return locality and set conflicts.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		tightLoop(),
		callReturn(),
		setConflict(),
	}
}

// 1. Straight Line - cold misses only, no reuse
func straightLine() Benchmark {
	return Benchmark{
		Name:        "straight_line",
		Description: "1536 nops (6 KiB) then a self jump - one cold miss per line",
		Program: NewListing(BaseAddress).
			NOPs(1536).
			Halt().
			MustBuild(),
	}
}

// 2. Tight Loop - two-instruction loop body on one line
func tightLoop() Benchmark {
	return Benchmark{
		Name:        "tight_loop",
		Description: "100 iterations of addi/bnez with the counter preset in t0",
		Setup: func(regFile *emu.RegFile) {
			regFile.WriteReg(insts.RegT0, 100)
		},
		Program: NewListing(BaseAddress).
			Label("loop").
			ADDI(insts.RegT0, insts.RegT0, -1).
			BNEZ(insts.RegT0, "loop").
			Halt().
			MustBuild(),
	}
}

// 3. Nested Loops - 10 x 10 counted loops
func nestedLoops() Benchmark {
	return Benchmark{
		Name:        "nested_loops",
		Description: "10 outer iterations of a 10 iteration inner loop",
		Program: NewListing(BaseAddress).
			LI(insts.RegS0, 10).
			Label("outer").
			LI(insts.RegS1, 10).
			Label("inner").
			ADDI(insts.RegS1, insts.RegS1, -1).
			BNEZ(insts.RegS1, "inner").
			ADDI(insts.RegS0, insts.RegS0, -1).
			BNEZ(insts.RegS0, "outer").
			Halt().
			MustBuild(),
	}
}

// 4. Call/Return - loop calling a function placed 256 bytes away
func callReturn() Benchmark {
	return Benchmark{
		Name:        "call_return",
		Description: "100 calls to a two-instruction function in another set",
		Program: NewListing(BaseAddress).
			LI(insts.RegS0, 100).
			Label("loop").
			Call("body").
			ADDI(insts.RegS0, insts.RegS0, -1).
			BNEZ(insts.RegS0, "loop").
			Halt().
			Org(BaseAddress+0x100).
			Label("body").
			ADDI(insts.RegS1, insts.RegS1, 1).
			RET().
			MustBuild(),
	}
}

// 5. Set Conflict - three functions aliasing the loop's set under the
// default geometry
func setConflict() Benchmark {
	return Benchmark{
		Name:        "set_conflict",
		Description: "50 iterations calling three functions 4 KiB apart",
		Program: NewListing(BaseAddress).
			LI(insts.RegS0, 50).
			Label("loop").
			Call("f1").
			Call("f2").
			Call("f3").
			ADDI(insts.RegS0, insts.RegS0, -1).
			BNEZ(insts.RegS0, "loop").
			Halt().
			Org(BaseAddress+0x1000).Label("f1").RET().
			Org(BaseAddress+0x2000).Label("f2").RET().
			Org(BaseAddress+0x3000).Label("f3").RET().
			MustBuild(),
	}
}

// 6. Large Loop - loop body larger than the default cache
func largeLoop() Benchmark {
	return Benchmark{
		Name:        "large_loop",
		Description: "5 iterations over 1200 nops (4.7 KiB body)",
		Program: NewListing(BaseAddress).
			LI(insts.RegS0, 5).
			Label("loop").
			NOPs(1200).
			ADDI(insts.RegS0, insts.RegS0, -1).
			BNEZ(insts.RegS0, "loop").
			Halt().
			MustBuild(),
	}
}
