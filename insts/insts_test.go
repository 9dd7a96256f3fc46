package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/icachesim/insts"
)

var _ = Describe("Insts Package", func() {
	It("should have an Instruction type", func() {
		var i insts.Instruction
		Expect(i).To(BeZero())
	})

	It("should have a Decoder type", func() {
		decoder := insts.NewDecoder()
		Expect(decoder).ToNot(BeNil())
	})

	It("should look up mnemonics", func() {
		Expect(insts.LookupOp("bgeu")).To(Equal(insts.OpBGEU))
		Expect(insts.LookupOp("sw")).To(Equal(insts.OpUnknown))
		Expect(insts.OpADDI.String()).To(Equal("addi"))
	})
})

var _ = Describe("Registers", func() {
	It("should name all 32 registers in architectural order", func() {
		names := insts.RegNames()
		Expect(names).To(HaveLen(32))
		Expect(names[0]).To(Equal("zero"))
		Expect(names[8]).To(Equal("s0"))
		Expect(names[10]).To(Equal("a0"))
		Expect(names[31]).To(Equal("t6"))
	})

	It("should resolve fp to s0", func() {
		r, err := insts.ParseReg("fp")
		Expect(err).NotTo(HaveOccurred())
		Expect(r).To(Equal(insts.RegS0))
		Expect(r.String()).To(Equal("s0"))
	})

	It("should accept numeric names", func() {
		r, err := insts.ParseReg("x1")
		Expect(err).NotTo(HaveOccurred())
		Expect(r).To(Equal(insts.RegRA))
	})

	DescribeTable("should reject unknown names",
		func(name string) {
			_, err := insts.ParseReg(name)
			Expect(err).To(MatchError(insts.ErrUnknownRegister))
		},
		Entry("float register", "fa0"),
		Entry("out of range", "x32"),
		Entry("bare x", "x"),
		Entry("empty", ""),
	)
})
