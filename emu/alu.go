package emu

import "github.com/sarchlab/icachesim/insts"

// ALU implements the immediate arithmetic of the replayed subset.
// Values are native int64 and wrap on overflow.
type ALU struct {
	regFile *RegFile
}

// NewALU creates a new ALU connected to the given register file.
func NewALU(regFile *RegFile) *ALU {
	return &ALU{regFile: regFile}
}

// LI loads an immediate: rd = imm
func (a *ALU) LI(rd insts.Reg, imm insts.Immediate) {
	a.regFile.WriteReg(rd, int64(imm))
}

// ADDI adds an immediate: rd = rs1 + imm
func (a *ALU) ADDI(rd, rs1 insts.Reg, imm insts.Immediate) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rs1)+int64(imm))
}
