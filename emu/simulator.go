package emu

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/icachesim/cache"
	"github.com/sarchlab/icachesim/insts"
)

// DefaultMaxInstructions is the instruction limit used when none is given.
const DefaultMaxInstructions = 100

// ErrStartNotFound is returned when the program has no instruction at its
// entry point.
var ErrStartNotFound = errors.New("could not find start instruction")

// State is the state of a simulation.
type State uint8

// Simulation states. All but StateRunning are terminal.
const (
	StateRunning State = iota
	StateHaltedMaxInstrs
	StateHaltedMissingAddress
	StateFailedNoStart
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateHaltedMaxInstrs:
		return "halted: instruction limit"
	case StateHaltedMissingAddress:
		return "halted: missing instruction"
	case StateFailedNoStart:
		return "failed: missing start instruction"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Program supplies the instructions the simulator replays.
type Program interface {
	// Entry returns the address execution starts at.
	Entry() uint64
	// Lookup returns the instruction at addr.
	Lookup(addr uint64) (*insts.Instruction, bool)
	// Addresses returns all instruction addresses in listing order.
	Addresses() []uint64
}

// Cache classifies instruction fetches as hits or misses. An access that
// misses allocates the line.
type Cache interface {
	Access(addr uint64) cache.AccessResult
}

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// PC is the address the step fetched from.
	PC uint64

	// Inst is the executed instruction, nil if none was executed.
	Inst *insts.Instruction

	// Hit is true if the fetch hit in the cache.
	Hit bool

	// Halted is true if the simulation has reached a terminal state.
	Halted bool

	// State is the simulation state after the step.
	State State
}

// Simulator replays a program, fetching every executed instruction through
// an instruction cache and recording per-address hits and misses.
type Simulator struct {
	program Program
	cache   Cache
	regFile *RegFile

	// Execution units
	alu        *ALU
	branchUnit *BranchUnit

	logger logrus.FieldLogger

	// Execution state
	state           State
	result          *Result
	maxInstructions uint64
}

// SimulatorOption is a functional option for configuring the Simulator.
type SimulatorOption func(*Simulator)

// WithMaxInstructions sets the maximum number of instructions to execute.
func WithMaxInstructions(max uint64) SimulatorOption {
	return func(s *Simulator) {
		s.maxInstructions = max
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger logrus.FieldLogger) SimulatorOption {
	return func(s *Simulator) {
		s.logger = logger
	}
}

// WithRegFile sets the register file, e.g. to start from preset values.
func WithRegFile(regFile *RegFile) SimulatorOption {
	return func(s *Simulator) {
		s.regFile = regFile
	}
}

// NewSimulator creates a simulator for program fetching through c. It fails
// with ErrStartNotFound, without running anything, when the program has no
// instruction at its entry point.
func NewSimulator(program Program, c Cache, opts ...SimulatorOption) (*Simulator, error) {
	s := &Simulator{
		program:         program,
		cache:           c,
		regFile:         &RegFile{},
		logger:          logrus.StandardLogger(),
		maxInstructions: DefaultMaxInstructions,
	}

	for _, opt := range opts {
		opt(s)
	}

	entry := program.Entry()
	if _, ok := program.Lookup(entry); !ok {
		return nil, fmt.Errorf("%w at 0x%x", ErrStartNotFound, entry)
	}

	s.alu = NewALU(s.regFile)
	s.branchUnit = NewBranchUnit(s.regFile)
	s.result = NewResult(program)
	s.regFile.PC = entry
	s.state = StateRunning

	return s, nil
}

// RegFile returns the simulator's register file.
func (s *Simulator) RegFile() *RegFile {
	return s.regFile
}

// PC returns the program counter.
func (s *Simulator) PC() uint64 {
	return s.regFile.PC
}

// State returns the simulation state.
func (s *Simulator) State() State {
	return s.state
}

// Result returns the statistics gathered so far.
func (s *Simulator) Result() *Result {
	return s.result
}

// InstructionCount returns the number of instructions executed.
func (s *Simulator) InstructionCount() uint64 {
	return s.result.InstructionsRetired
}

// Step executes a single instruction.
// Returns a StepResult indicating whether simulation should continue.
func (s *Simulator) Step() StepResult {
	if s.state == StateRunning && s.result.InstructionsRetired >= s.maxInstructions {
		s.halt(StateHaltedMaxInstrs)
	}

	if s.state != StateRunning {
		return StepResult{PC: s.regFile.PC, Halted: true, State: s.state}
	}

	pc := s.regFile.PC

	// 1. Fetch
	inst, ok := s.program.Lookup(pc)
	if !ok {
		s.logger.WithField("pc", fmt.Sprintf("0x%x", pc)).
			Warn("Could not find instruction, ending simulation")
		s.result.HaltPC = pc
		s.halt(StateHaltedMissingAddress)
		return StepResult{PC: pc, Halted: true, State: s.state}
	}

	// 2. Cache lookup, allocating on a miss
	access := s.cache.Access(pc)
	s.result.record(pc, inst.Mnemonic, access.Hit)

	// 3. Execute
	s.execute(inst)

	// 4. Retire
	s.result.InstructionsRetired++
	if s.result.InstructionsRetired >= s.maxInstructions {
		s.halt(StateHaltedMaxInstrs)
	}

	s.logger.WithFields(logrus.Fields{
		"pc":   fmt.Sprintf("0x%x", pc),
		"inst": inst.Mnemonic,
		"hit":  access.Hit,
		"next": fmt.Sprintf("0x%x", s.regFile.PC),
	}).Trace("Step")

	return StepResult{
		PC:     pc,
		Inst:   inst,
		Hit:    access.Hit,
		Halted: s.state != StateRunning,
		State:  s.state,
	}
}

// Run executes instructions until the simulation halts and returns the
// gathered statistics.
func (s *Simulator) Run() *Result {
	for {
		if result := s.Step(); result.Halted {
			break
		}
	}

	s.logger.WithFields(logrus.Fields{
		"retired": s.result.InstructionsRetired,
		"hits":    s.result.TotalHits(),
		"misses":  s.result.TotalMisses(),
		"state":   s.state.String(),
	}).Debug("Simulation finished")

	return s.result
}

func (s *Simulator) halt(state State) {
	s.state = state
	s.result.Status = state
}

// execute applies the semantic effect of an instruction, including the PC
// update.
func (s *Simulator) execute(inst *insts.Instruction) {
	switch op := inst.Operation.(type) {
	case insts.Jump:
		s.branchUnit.JAL(op.Link, op.Target)
	case insts.Branch:
		s.branchUnit.Branch(op)
	case insts.LoadImm:
		s.alu.LI(op.Rd, op.Imm)
		s.regFile.PC += InstSize
	case insts.AddImm:
		s.alu.ADDI(op.Rd, op.Rs1, op.Imm)
		s.regFile.PC += InstSize
	case insts.Return:
		s.branchUnit.RET()
	default:
		s.regFile.PC += InstSize
	}
}

// Simulate replays program through c for at most maxInstructions
// instructions.
func Simulate(program Program, c Cache, maxInstructions uint64, opts ...SimulatorOption) (*Result, error) {
	opts = append([]SimulatorOption{WithMaxInstructions(maxInstructions)}, opts...)

	s, err := NewSimulator(program, c, opts...)
	if err != nil {
		return nil, err
	}

	return s.Run(), nil
}
