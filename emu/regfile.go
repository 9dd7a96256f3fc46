// Package emu provides functional RISC-V replay of disassembly listings.
package emu

import "github.com/sarchlab/icachesim/insts"

// RegFile represents the RISC-V integer register file.
// It contains 32 integer registers (x0-x31) and the program counter (PC).
type RegFile struct {
	// X holds integer registers x0-x31.
	// X[0] is the zero register which always reads as 0.
	X [insts.NumRegs]int64

	// PC is the program counter.
	PC uint64
}

// ReadReg reads a register value. The zero register returns 0.
func (r *RegFile) ReadReg(reg insts.Reg) int64 {
	if reg == insts.RegZero || int(reg) >= insts.NumRegs {
		return 0
	}
	return r.X[reg]
}

// WriteReg writes a value to a register. Writes to the zero register are
// ignored.
func (r *RegFile) WriteReg(reg insts.Reg, value int64) {
	if reg == insts.RegZero || int(reg) >= insts.NumRegs {
		return
	}
	r.X[reg] = value
}

// Read reads a register by ABI name. fp reads s0.
func (r *RegFile) Read(name string) (int64, error) {
	reg, err := insts.ParseReg(name)
	if err != nil {
		return 0, err
	}
	return r.ReadReg(reg), nil
}

// Write writes a register by ABI name. fp writes s0.
func (r *RegFile) Write(name string, value int64) error {
	reg, err := insts.ParseReg(name)
	if err != nil {
		return err
	}
	r.WriteReg(reg, value)
	return nil
}
