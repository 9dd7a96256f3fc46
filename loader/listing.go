// Package loader provides loading of RISC-V disassembly listings.
package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/icachesim/insts"
)

// HeaderDisassembly is the header keyword of a disassembly listing.
const HeaderDisassembly = "#disas"

var (
	// ErrUnsupportedFormat is returned when the listing header names a
	// format other than a disassembly.
	ErrUnsupportedFormat = errors.New("unsupported listing format")

	// ErrMalformedHeader is returned when the header lacks a start address.
	ErrMalformedHeader = errors.New("malformed listing header")
)

// Program represents a loaded listing ready for simulation.
type Program struct {
	// EntryPoint is the address where execution should begin.
	EntryPoint uint64
	// Compressed is set when the header carries the C flag.
	Compressed bool
	// Instructions maps addresses to decoded instructions.
	Instructions map[uint64]*insts.Instruction

	order []uint64
}

// NewProgram creates an empty program starting at entry.
func NewProgram(entry uint64) *Program {
	return &Program{
		EntryPoint:   entry,
		Instructions: make(map[uint64]*insts.Instruction),
	}
}

// Add inserts an instruction. A later instruction at the same address
// replaces the earlier one but keeps its position.
func (p *Program) Add(inst *insts.Instruction) {
	if _, ok := p.Instructions[inst.Addr]; !ok {
		p.order = append(p.order, inst.Addr)
	}
	p.Instructions[inst.Addr] = inst
}

// Entry returns the entry point.
func (p *Program) Entry() uint64 {
	return p.EntryPoint
}

// Lookup returns the instruction at addr.
func (p *Program) Lookup(addr uint64) (*insts.Instruction, bool) {
	inst, ok := p.Instructions[addr]
	return inst, ok
}

// Addresses returns instruction addresses in listing order.
func (p *Program) Addresses() []uint64 {
	addrs := make([]uint64, len(p.order))
	copy(addrs, p.order)
	return addrs
}

// Len returns the number of instructions.
func (p *Program) Len() int {
	return len(p.order)
}

// Load reads a disassembly listing file.
func Load(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open listing: %w", err)
	}
	defer func() { _ = f.Close() }()

	prog, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return prog, nil
}

// Parse reads a disassembly listing. The first line is the header
//
//	#disas <start address> [C]
//
// and every following line that holds an instruction is decoded.
func Parse(r io.Reader) (*Program, error) {
	scanner := bufio.NewScanner(r)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read listing: %w", err)
		}
		return nil, fmt.Errorf("%w: empty listing", ErrMalformedHeader)
	}

	prog, err := parseHeader(scanner.Text())
	if err != nil {
		return nil, fmt.Errorf("line 1: %w", err)
	}

	decoder := insts.NewDecoder()
	lineNum := 1
	for scanner.Scan() {
		lineNum++

		inst, err := decoder.Decode(scanner.Text())
		if errors.Is(err, insts.ErrNotInstruction) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		prog.Add(inst)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read listing: %w", err)
	}

	return prog, nil
}

func parseHeader(line string) (*Program, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty header", ErrMalformedHeader)
	}
	if fields[0] != HeaderDisassembly {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, fields[0])
	}
	if len(fields) < 2 {
		return nil, fmt.Errorf("%w: missing start address", ErrMalformedHeader)
	}

	start, err := strconv.ParseUint(strings.TrimPrefix(fields[1], "0x"), 16, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad start address %q", ErrMalformedHeader, fields[1])
	}

	prog := NewProgram(start)
	for _, flag := range fields[2:] {
		if flag == "C" {
			prog.Compressed = true
		}
	}

	return prog, nil
}
