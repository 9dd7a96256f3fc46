// Package insts provides RISC-V instruction definitions and decoding of
// disassembly listing lines.
//
// Only the subset of instructions that steers control flow is given meaning:
//   - Jumps: JAL, J
//   - Conditional branches: BEQ(Z), BNE(Z), BLT(U), BGE(U)
//   - Immediates: LI, ADDI
//   - Return: RET
//
// Every other mnemonic decodes to an Unknown operation that falls through.
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst, err := decoder.Decode("80000004: 00150513 addi a0,a0,1")
//	add := inst.Operation.(insts.AddImm)
//	fmt.Printf("Op: %v, Rd: %v, Rs1: %v, Imm: %d\n", inst.Op, add.Rd, add.Rs1, add.Imm)
package insts
