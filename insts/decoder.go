package insts

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrNotInstruction is returned for listing lines that carry no
	// instruction: blank lines, section banners and symbol labels.
	ErrNotInstruction = errors.New("not an instruction line")

	// ErrMalformedOperands is returned when a known mnemonic carries operands
	// that cannot be decoded.
	ErrMalformedOperands = errors.New("malformed operands")
)

// Decoder decodes disassembly listing lines into instructions.
type Decoder struct{}

// NewDecoder creates a new listing decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes one listing line of the form
//
//	<addr>: <encoding> <mnemonic> [operands] [<symbol>]
//
// Lines whose first field is not a hex address followed by a colon yield
// ErrNotInstruction.
func (d *Decoder) Decode(line string) (*Instruction, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, ErrNotInstruction
	}

	addrText, ok := strings.CutSuffix(fields[0], ":")
	if !ok {
		return nil, ErrNotInstruction
	}

	addr, err := strconv.ParseUint(addrText, 16, 64)
	if err != nil {
		return nil, ErrNotInstruction
	}

	if len(fields) < 3 {
		return nil, fmt.Errorf("%w: instruction at %x has no mnemonic",
			ErrMalformedOperands, addr)
	}

	inst := &Instruction{
		Addr:     addr,
		Size:     len(fields[1]) / 2,
		Encoding: fields[1],
		Mnemonic: fields[2],
		Raw:      strings.TrimSpace(line),
		Op:       LookupOp(fields[2]),
	}
	if len(fields) > 3 && !strings.HasPrefix(fields[3], "<") {
		inst.Operands = fields[3]
	}

	inst.Operation, err = d.decodeOperation(inst.Op, inst.Operands)
	if err != nil {
		return nil, fmt.Errorf("%s at %x: %w", inst.Mnemonic, addr, err)
	}

	return inst, nil
}

// decodeOperation builds the semantic variant of an instruction.
func (d *Decoder) decodeOperation(op Op, operands string) (Operation, error) {
	var args []string
	if operands != "" {
		args = strings.Split(operands, ",")
	}

	switch op {
	case OpJAL:
		return d.decodeJAL(args)
	case OpJ:
		if err := expectArgs(args, 1); err != nil {
			return nil, err
		}
		target, err := parseTarget(args[0])
		if err != nil {
			return nil, err
		}
		return Jump{Link: RegRA, Target: target}, nil
	case OpBEQ, OpBNE, OpBLT, OpBLTU, OpBGE, OpBGEU:
		if err := expectArgs(args, 3); err != nil {
			return nil, err
		}
		return d.decodeBranch(op, args[0], args[1], args[2])
	case OpBEQZ, OpBNEZ:
		if err := expectArgs(args, 2); err != nil {
			return nil, err
		}
		return d.decodeBranch(op, args[0], RegZero.String(), args[1])
	case OpLI:
		return d.decodeLI(args)
	case OpADDI:
		return d.decodeADDI(args)
	case OpRET:
		return Return{}, nil
	default:
		return Unknown{}, nil
	}
}

// decodeJAL accepts both "jal rd,target" and the short "jal target" form
// that links ra.
func (d *Decoder) decodeJAL(args []string) (Operation, error) {
	switch len(args) {
	case 1:
		target, err := parseTarget(args[0])
		if err != nil {
			return nil, err
		}
		return Jump{Link: RegRA, Target: target}, nil
	case 2:
		link, err := parseReg(args[0])
		if err != nil {
			return nil, err
		}
		target, err := parseTarget(args[1])
		if err != nil {
			return nil, err
		}
		return Jump{Link: link, Target: target}, nil
	default:
		return nil, fmt.Errorf("%w: expected 1 or 2 operands, got %d",
			ErrMalformedOperands, len(args))
	}
}

func (d *Decoder) decodeBranch(op Op, rs1Text, rs2Text, targetText string) (Operation, error) {
	rs1, err := parseReg(rs1Text)
	if err != nil {
		return nil, err
	}
	rs2, err := parseReg(rs2Text)
	if err != nil {
		return nil, err
	}
	target, err := parseTarget(targetText)
	if err != nil {
		return nil, err
	}

	var cond Cond
	switch op {
	case OpBEQ, OpBEQZ:
		cond = CondEQ
	case OpBNE, OpBNEZ:
		cond = CondNE
	case OpBLT, OpBLTU:
		cond = CondLT
	case OpBGE, OpBGEU:
		cond = CondGE
	}

	return Branch{Cond: cond, Rs1: rs1, Rs2: rs2, Target: target}, nil
}

func (d *Decoder) decodeLI(args []string) (Operation, error) {
	if err := expectArgs(args, 2); err != nil {
		return nil, err
	}
	rd, err := parseReg(args[0])
	if err != nil {
		return nil, err
	}
	imm, err := parseImmediate(args[1])
	if err != nil {
		return nil, err
	}
	return LoadImm{Rd: rd, Imm: imm}, nil
}

func (d *Decoder) decodeADDI(args []string) (Operation, error) {
	if err := expectArgs(args, 3); err != nil {
		return nil, err
	}
	rd, err := parseReg(args[0])
	if err != nil {
		return nil, err
	}
	rs1, err := parseReg(args[1])
	if err != nil {
		return nil, err
	}
	imm, err := parseImmediate(args[2])
	if err != nil {
		return nil, err
	}
	return AddImm{Rd: rd, Rs1: rs1, Imm: imm}, nil
}

func expectArgs(args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("%w: expected %d operands, got %d",
			ErrMalformedOperands, n, len(args))
	}
	return nil
}

func parseReg(text string) (Reg, error) {
	r, err := ParseReg(text)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMalformedOperands, err)
	}
	return r, nil
}

// parseTarget reads a jump or branch target printed as bare hex.
func parseTarget(text string) (Address, error) {
	text = strings.TrimPrefix(strings.ToLower(text), "0x")
	v, err := strconv.ParseUint(text, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad target %q", ErrMalformedOperands, text)
	}
	return Address(v), nil
}

// parseImmediate reads a decimal literal, or hex with a 0x prefix.
func parseImmediate(text string) (Immediate, error) {
	base := 10
	lower := strings.ToLower(text)
	if strings.HasPrefix(lower, "0x") || strings.HasPrefix(lower, "-0x") {
		base = 0
	}

	v, err := strconv.ParseInt(lower, base, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad immediate %q", ErrMalformedOperands, text)
	}
	return Immediate(v), nil
}
