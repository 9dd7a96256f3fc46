package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/icachesim/insts"
)

var _ = Describe("Decoder", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	decode := func(line string) *insts.Instruction {
		inst, err := decoder.Decode(line)
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
		return inst
	}

	Describe("line structure", func() {
		It("should decode address, encoding and mnemonic", func() {
			inst := decode("  80000004:\t00150513          \taddi\ta0,a0,1")

			Expect(inst.Addr).To(Equal(uint64(0x80000004)))
			Expect(inst.Encoding).To(Equal("00150513"))
			Expect(inst.Size).To(Equal(4))
			Expect(inst.Compressed()).To(BeFalse())
			Expect(inst.Mnemonic).To(Equal("addi"))
			Expect(inst.Operands).To(Equal("a0,a0,1"))
			Expect(inst.Op).To(Equal(insts.OpADDI))
		})

		It("should size compressed encodings", func() {
			inst := decode("80000008: 0505 addi a0,a0,1")
			Expect(inst.Size).To(Equal(2))
			Expect(inst.Compressed()).To(BeTrue())
		})

		It("should ignore a trailing symbol", func() {
			inst := decode("8000000c: 00c0006f j 80000018 <loop>")
			Expect(inst.Operands).To(Equal("80000018"))
			Expect(inst.Operation).To(Equal(insts.Jump{Link: insts.RegRA, Target: 0x80000018}))
		})

		DescribeTable("should skip lines without an instruction",
			func(line string) {
				_, err := decoder.Decode(line)
				Expect(err).To(MatchError(insts.ErrNotInstruction))
			},
			Entry("blank", "   "),
			Entry("section banner", "Disassembly of section .text:"),
			Entry("symbol label", "80000000 <_start>:"),
			Entry("named label", "main:"),
		)

		It("should reject an address without a mnemonic", func() {
			_, err := decoder.Decode("80000000: 00000013")
			Expect(err).To(MatchError(insts.ErrMalformedOperands))
		})
	})

	Describe("jumps", func() {
		It("should decode jal with an explicit link register", func() {
			inst := decode("80000000: 010000ef jal ra,80000010 <func>")
			Expect(inst.Operation).To(Equal(insts.Jump{Link: insts.RegRA, Target: 0x80000010}))
		})

		It("should decode jal without a link register", func() {
			inst := decode("80000000: 010000ef jal 80000010")
			Expect(inst.Operation).To(Equal(insts.Jump{Link: insts.RegRA, Target: 0x80000010}))
		})

		It("should link ra for j", func() {
			inst := decode("80000000: 0000006f j 80000000")
			Expect(inst.Op).To(Equal(insts.OpJ))
			Expect(inst.Operation).To(Equal(insts.Jump{Link: insts.RegRA, Target: 0x80000000}))
		})

		It("should decode ret", func() {
			inst := decode("80000020: 00008067 ret")
			Expect(inst.Operation).To(Equal(insts.Return{}))
			Expect(inst.Operands).To(BeEmpty())
		})
	})

	Describe("branches", func() {
		DescribeTable("should map mnemonics to comparisons",
			func(line string, want insts.Branch) {
				Expect(decode(line).Operation).To(Equal(want))
			},
			Entry("beq", "10: 00b50463 beq a0,a1,18",
				insts.Branch{Cond: insts.CondEQ, Rs1: insts.RegA0, Rs2: insts.RegA1, Target: 0x18}),
			Entry("bne", "10: 00b51463 bne a0,a1,18",
				insts.Branch{Cond: insts.CondNE, Rs1: insts.RegA0, Rs2: insts.RegA1, Target: 0x18}),
			Entry("blt", "10: 00b54463 blt a0,a1,18",
				insts.Branch{Cond: insts.CondLT, Rs1: insts.RegA0, Rs2: insts.RegA1, Target: 0x18}),
			Entry("bltu", "10: 00b56463 bltu a0,a1,18",
				insts.Branch{Cond: insts.CondLT, Rs1: insts.RegA0, Rs2: insts.RegA1, Target: 0x18}),
			Entry("bge", "10: 00b55463 bge a0,a1,18",
				insts.Branch{Cond: insts.CondGE, Rs1: insts.RegA0, Rs2: insts.RegA1, Target: 0x18}),
			Entry("bgeu", "10: 00b57463 bgeu a0,a1,18",
				insts.Branch{Cond: insts.CondGE, Rs1: insts.RegA0, Rs2: insts.RegA1, Target: 0x18}),
			Entry("beqz", "10: 00050463 beqz a0,18",
				insts.Branch{Cond: insts.CondEQ, Rs1: insts.RegA0, Rs2: insts.RegZero, Target: 0x18}),
			Entry("bnez", "10: fe051ee3 bnez s0,c <loop>",
				insts.Branch{Cond: insts.CondNE, Rs1: insts.RegS0, Rs2: insts.RegZero, Target: 0xc}),
			Entry("fp operand", "10: 00041463 bne fp,zero,18",
				insts.Branch{Cond: insts.CondNE, Rs1: insts.RegS0, Rs2: insts.RegZero, Target: 0x18}),
		)

		It("should reject a branch with a missing target", func() {
			_, err := decoder.Decode("10: 00b50463 beq a0,a1")
			Expect(err).To(MatchError(insts.ErrMalformedOperands))
		})

		It("should reject an unknown register", func() {
			_, err := decoder.Decode("10: 00b50463 beq a0,fa1,18")
			Expect(err).To(MatchError(insts.ErrMalformedOperands))
			Expect(err).To(MatchError(insts.ErrUnknownRegister))
		})
	})

	Describe("immediates", func() {
		It("should decode li", func() {
			inst := decode("0: 00a00513 li a0,10")
			Expect(inst.Operation).To(Equal(insts.LoadImm{Rd: insts.RegA0, Imm: 10}))
		})

		It("should decode negative addi", func() {
			inst := decode("4: fff50513 addi a0,a0,-1")
			Expect(inst.Operation).To(Equal(insts.AddImm{Rd: insts.RegA0, Rs1: insts.RegA0, Imm: -1}))
		})

		It("should decode hex immediates", func() {
			inst := decode("4: 10000537 li a0,0x100")
			Expect(inst.Operation).To(Equal(insts.LoadImm{Rd: insts.RegA0, Imm: 0x100}))
		})

		It("should reject a non-numeric immediate", func() {
			_, err := decoder.Decode("4: fff50513 addi a0,a0,one")
			Expect(err).To(MatchError(insts.ErrMalformedOperands))
		})
	})

	Describe("other mnemonics", func() {
		It("should decode as unknown without checking operands", func() {
			inst := decode("8: 00112623 sw ra,12(sp)")
			Expect(inst.Op).To(Equal(insts.OpUnknown))
			Expect(inst.Operation).To(Equal(insts.Unknown{}))
			Expect(inst.String()).To(Equal("8: 00112623 sw ra,12(sp)"))
		})
	})
})
