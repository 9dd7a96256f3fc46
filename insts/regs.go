package insts

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownRegister is returned for a name that is not one of the 32
// integer registers.
var ErrUnknownRegister = errors.New("unknown register")

// Reg identifies an integer register by its architectural number.
type Reg uint8

// NumRegs is the number of integer registers.
const NumRegs = 32

// RISC-V integer registers, in x0..x31 order.
const (
	RegZero Reg = iota
	RegRA
	RegSP
	RegGP
	RegTP
	RegT0
	RegT1
	RegT2
	RegS0
	RegS1
	RegA0
	RegA1
	RegA2
	RegA3
	RegA4
	RegA5
	RegA6
	RegA7
	RegS2
	RegS3
	RegS4
	RegS5
	RegS6
	RegS7
	RegS8
	RegS9
	RegS10
	RegS11
	RegT3
	RegT4
	RegT5
	RegT6
)

// RegFP is the frame pointer, another name for s0.
const RegFP = RegS0

var regNames = [NumRegs]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

var regByName = func() map[string]Reg {
	m := make(map[string]Reg, NumRegs+1)
	for i, name := range regNames {
		m[name] = Reg(i)
	}
	m["fp"] = RegFP
	return m
}()

// String returns the ABI name of the register.
func (r Reg) String() string {
	if int(r) < NumRegs {
		return regNames[r]
	}
	return fmt.Sprintf("x%d", r)
}

// RegNames returns the ABI names of all registers in x0..x31 order.
func RegNames() []string {
	names := make([]string, NumRegs)
	copy(names, regNames[:])
	return names
}

// ParseReg resolves an ABI name ("a0", "fp") or a numeric name ("x10").
func ParseReg(name string) (Reg, error) {
	if r, ok := regByName[name]; ok {
		return r, nil
	}

	if num, ok := strings.CutPrefix(name, "x"); ok {
		n, err := strconv.Atoi(num)
		if err == nil && n >= 0 && n < NumRegs {
			return Reg(n), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownRegister, name)
}
