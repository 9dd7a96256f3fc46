package insts

import "fmt"

// Op represents a RISC-V mnemonic known to the simulator.
type Op uint8

// RISC-V opcodes.
const (
	OpUnknown Op = iota
	OpJAL
	OpJ
	OpBEQ
	OpBEQZ
	OpBNE
	OpBNEZ
	OpBLT
	OpBLTU
	OpBGE
	OpBGEU
	OpLI
	OpADDI
	OpRET
)

var opNames = map[Op]string{
	OpUnknown: "unknown",
	OpJAL:     "jal",
	OpJ:       "j",
	OpBEQ:     "beq",
	OpBEQZ:    "beqz",
	OpBNE:     "bne",
	OpBNEZ:    "bnez",
	OpBLT:     "blt",
	OpBLTU:    "bltu",
	OpBGE:     "bge",
	OpBGEU:    "bgeu",
	OpLI:      "li",
	OpADDI:    "addi",
	OpRET:     "ret",
}

var opByMnemonic = func() map[string]Op {
	m := make(map[string]Op, len(opNames))
	for op, name := range opNames {
		if op != OpUnknown {
			m[name] = op
		}
	}
	return m
}()

func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return fmt.Sprintf("Op(%d)", uint8(op))
}

// LookupOp returns the Op for a mnemonic, or OpUnknown.
func LookupOp(mnemonic string) Op {
	return opByMnemonic[mnemonic]
}

// Cond represents a branch comparison.
type Cond uint8

// Branch comparisons. The unsigned mnemonics share the signed comparisons,
// and CondGE holds when rs1 <= rs2.
const (
	CondEQ Cond = iota // rs1 == rs2
	CondNE             // rs1 != rs2
	CondLT             // rs1 < rs2 (blt, bltu)
	CondGE             // rs1 <= rs2 (bge, bgeu)
)

func (c Cond) String() string {
	switch c {
	case CondEQ:
		return "eq"
	case CondNE:
		return "ne"
	case CondLT:
		return "lt"
	case CondGE:
		return "ge"
	default:
		return fmt.Sprintf("Cond(%d)", uint8(c))
	}
}

// Address is a branch or jump target.
type Address uint64

// Immediate is a literal integer operand.
type Immediate int64

// Operation is the semantic family of an instruction. The set of
// implementations is closed: Jump, Branch, LoadImm, AddImm, Return, Unknown.
type Operation interface {
	isOperation()
}

// Jump writes the return address to Link and continues at Target.
type Jump struct {
	Link   Reg
	Target Address
}

// Branch continues at Target when Cond holds for Rs1 and Rs2.
type Branch struct {
	Cond   Cond
	Rs1    Reg
	Rs2    Reg
	Target Address
}

// LoadImm writes Imm to Rd.
type LoadImm struct {
	Rd  Reg
	Imm Immediate
}

// AddImm writes Rs1 + Imm to Rd.
type AddImm struct {
	Rd  Reg
	Rs1 Reg
	Imm Immediate
}

// Return continues at the address held in ra.
type Return struct{}

// Unknown falls through to the next instruction.
type Unknown struct{}

func (Jump) isOperation()    {}
func (Branch) isOperation()  {}
func (LoadImm) isOperation() {}
func (AddImm) isOperation()  {}
func (Return) isOperation()  {}
func (Unknown) isOperation() {}

// Instruction represents a decoded listing line.
type Instruction struct {
	Addr     uint64 // Address of the instruction
	Size     int    // Encoding size in bytes
	Encoding string // Encoding as printed in the listing (hex)
	Mnemonic string // Mnemonic as printed in the listing
	Operands string // Operand text as printed in the listing
	Raw      string // Whole listing line, trimmed

	Op        Op
	Operation Operation
}

// Compressed reports whether the instruction uses a 16-bit encoding.
func (i *Instruction) Compressed() bool {
	return i.Size == 2
}

// String renders the instruction like a disassembler line.
func (i *Instruction) String() string {
	if i.Operands == "" {
		return fmt.Sprintf("%x: %s %s", i.Addr, i.Encoding, i.Mnemonic)
	}
	return fmt.Sprintf("%x: %s %s %s", i.Addr, i.Encoding, i.Mnemonic, i.Operands)
}
