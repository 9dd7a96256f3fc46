package benchmarks

import (
	"fmt"
	"strings"

	"github.com/sarchlab/icachesim/emu"
	"github.com/sarchlab/icachesim/insts"
	"github.com/sarchlab/icachesim/loader"
)

type listingLine struct {
	addr     uint64
	encoding string
	mnemonic string
	operands string
	label    string
}

// ListingBuilder assembles disassembly listings for synthetic benchmarks.
// Branch and jump targets are labels that resolve when the listing is
// rendered.
type ListingBuilder struct {
	start  uint64
	pc     uint64
	lines  []listingLine
	labels map[string]uint64
}

// NewListing starts a listing whose execution begins at start.
func NewListing(start uint64) *ListingBuilder {
	return &ListingBuilder{
		start:  start,
		pc:     start,
		labels: make(map[string]uint64),
	}
}

// Org moves the emit address to addr.
func (b *ListingBuilder) Org(addr uint64) *ListingBuilder {
	b.pc = addr
	return b
}

// Label names the current emit address.
func (b *ListingBuilder) Label(name string) *ListingBuilder {
	b.labels[name] = b.pc
	return b
}

// Here returns the current emit address.
func (b *ListingBuilder) Here() uint64 {
	return b.pc
}

func (b *ListingBuilder) emit(encoding, mnemonic, operands, label string) *ListingBuilder {
	b.lines = append(b.lines, listingLine{
		addr:     b.pc,
		encoding: encoding,
		mnemonic: mnemonic,
		operands: operands,
		label:    label,
	})
	b.pc += emu.InstSize
	return b
}

// NOP emits a nop.
func (b *ListingBuilder) NOP() *ListingBuilder {
	return b.emit("00000013", "nop", "", "")
}

// NOPs emits n nops.
func (b *ListingBuilder) NOPs(n int) *ListingBuilder {
	for i := 0; i < n; i++ {
		b.NOP()
	}
	return b
}

// LI emits rd = imm.
func (b *ListingBuilder) LI(rd insts.Reg, imm int64) *ListingBuilder {
	return b.emit("00000013", "li", fmt.Sprintf("%s,%d", rd, imm), "")
}

// ADDI emits rd = rs1 + imm.
func (b *ListingBuilder) ADDI(rd, rs1 insts.Reg, imm int64) *ListingBuilder {
	return b.emit("00000013", "addi", fmt.Sprintf("%s,%s,%d", rd, rs1, imm), "")
}

// JAL emits a jump to label that links into link.
func (b *ListingBuilder) JAL(link insts.Reg, label string) *ListingBuilder {
	return b.emit("0000006f", "jal", link.String()+",", label)
}

// Call emits a jal through ra.
func (b *ListingBuilder) Call(label string) *ListingBuilder {
	return b.JAL(insts.RegRA, label)
}

// J emits an unconditional jump to label.
func (b *ListingBuilder) J(label string) *ListingBuilder {
	return b.emit("0000006f", "j", "", label)
}

// Halt emits a jump to itself.
func (b *ListingBuilder) Halt() *ListingBuilder {
	name := fmt.Sprintf(".halt%x", b.pc)
	return b.Label(name).J(name)
}

// BNEZ emits a branch to label taken when rs != 0.
func (b *ListingBuilder) BNEZ(rs insts.Reg, label string) *ListingBuilder {
	return b.emit("00000063", "bnez", rs.String()+",", label)
}

// BLT emits a branch to label taken when rs1 < rs2.
func (b *ListingBuilder) BLT(rs1, rs2 insts.Reg, label string) *ListingBuilder {
	return b.emit("00000063", "blt", fmt.Sprintf("%s,%s,", rs1, rs2), label)
}

// RET emits a return through ra.
func (b *ListingBuilder) RET() *ListingBuilder {
	return b.emit("00008067", "ret", "", "")
}

// Text renders the listing.
func (b *ListingBuilder) Text() (string, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s %x\n", loader.HeaderDisassembly, b.start)

	for _, line := range b.lines {
		operands := line.operands
		symbol := ""
		if line.label != "" {
			target, ok := b.labels[line.label]
			if !ok {
				return "", fmt.Errorf("undefined label %q at %x", line.label, line.addr)
			}
			operands += fmt.Sprintf("%x", target)
			symbol = fmt.Sprintf(" <%s>", line.label)
		}

		fmt.Fprintf(&sb, "%8x:\t%s          \t%s", line.addr, line.encoding, line.mnemonic)
		if operands != "" {
			fmt.Fprintf(&sb, "\t%s%s", operands, symbol)
		}
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

// Build renders and parses the listing.
func (b *ListingBuilder) Build() (*loader.Program, error) {
	text, err := b.Text()
	if err != nil {
		return nil, err
	}
	return loader.Parse(strings.NewReader(text))
}

// MustBuild is Build that panics on error.
func (b *ListingBuilder) MustBuild() *loader.Program {
	prog, err := b.Build()
	if err != nil {
		panic(err)
	}
	return prog
}
