package emu

import "github.com/sarchlab/icachesim/insts"

// InstSize is the PC increment of a fall-through instruction. It does not
// depend on the encoding size of the instruction.
const InstSize = 4

// BranchUnit implements jumps, conditional branches and returns.
type BranchUnit struct {
	regFile *RegFile
}

// NewBranchUnit creates a new BranchUnit connected to the given register file.
func NewBranchUnit(regFile *RegFile) *BranchUnit {
	return &BranchUnit{regFile: regFile}
}

// JAL writes the return address (PC + 4) to link, then jumps to target.
func (b *BranchUnit) JAL(link insts.Reg, target insts.Address) {
	b.regFile.WriteReg(link, int64(b.regFile.PC+InstSize))
	b.regFile.PC = uint64(target)
}

// Branch jumps to the target when the condition holds for rs1 and rs2,
// otherwise falls through.
func (b *BranchUnit) Branch(br insts.Branch) {
	rs1 := b.regFile.ReadReg(br.Rs1)
	rs2 := b.regFile.ReadReg(br.Rs2)

	if CheckCondition(br.Cond, rs1, rs2) {
		b.regFile.PC = uint64(br.Target)
	} else {
		b.regFile.PC += InstSize
	}
}

// RET jumps to the address held in ra.
func (b *BranchUnit) RET() {
	b.regFile.PC = uint64(b.regFile.ReadReg(insts.RegRA))
}

// CheckCondition evaluates a branch comparison.
// Unsigned mnemonics compare signed values, and CondGE holds for rs1 <= rs2.
func CheckCondition(cond insts.Cond, rs1, rs2 int64) bool {
	switch cond {
	case insts.CondEQ:
		return rs1 == rs2
	case insts.CondNE:
		return rs1 != rs2
	case insts.CondLT:
		return rs1 < rs2
	case insts.CondGE:
		return rs1 <= rs2
	default:
		return false
	}
}
