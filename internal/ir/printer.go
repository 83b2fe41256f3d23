package ir

import "strings"

// Printer renders a Context back to the textual IR grammar spec.md §4.2/§6
// defines, following the teacher's switch-based Printer shape (a
// strings.Builder plus writeLine/write helpers) adapted from a
// type-switch-per-instruction-kind printer to a single opcode-string
// printer, since venom's Instruction is generic rather than a concrete
// type per opcode.
type Printer struct {
	sb strings.Builder
}

func NewPrinter() *Printer { return &Printer{} }

func (p *Printer) writeLine(s string) {
	p.sb.WriteString(s)
	p.sb.WriteString("\n")
}

func PrintContext(ctx *Context) string {
	p := NewPrinter()
	for _, fn := range ctx.Functions {
		p.printFunction(fn)
	}
	if len(ctx.DataSegments) > 0 {
		p.printDataSegments(ctx.DataSegments)
	}
	return p.sb.String()
}

func (p *Printer) printFunction(fn *Function) {
	p.writeLine("function " + fn.Name + " {")
	for _, bb := range fn.Blocks() {
		p.printBlock(bb)
	}
	p.writeLine("}")
}

func (p *Printer) printBlock(bb *BasicBlock) {
	p.writeLine(bb.Label.Name + ":")
	for _, inst := range bb.Instructions {
		p.writeLine("    " + p.instructionText(inst))
	}
}

func (p *Printer) instructionText(inst *Instruction) string {
	body := p.opcodeAndOperandsText(inst)
	if inst.Output != nil {
		return inst.Output.String() + " = " + body
	}
	return body
}

func (p *Printer) opcodeAndOperandsText(inst *Instruction) string {
	ops := sourceOrderOperands(inst.Opcode, inst.Operands)
	var sb strings.Builder
	sb.WriteString(inst.Opcode)
	for i, op := range ops {
		if i == 0 {
			sb.WriteString(" ")
		} else {
			sb.WriteString(", ")
		}
		sb.WriteString(op.String())
	}
	return sb.String()
}

// sourceOrderOperands reverses reorderParsedOperands, recovering the
// left-to-right textual order from the internal rightmost-first order.
func sourceOrderOperands(opcode string, operands []Operand) []Operand {
	switch opcode {
	case "jmp", "jnz", "djmp", "phi":
		return operands
	case "invoke":
		if len(operands) == 0 {
			return operands
		}
		out := make([]Operand, 0, len(operands))
		out = append(out, operands[0])
		for i := len(operands) - 1; i >= 1; i-- {
			out = append(out, operands[i])
		}
		return out
	default:
		out := make([]Operand, len(operands))
		for i, op := range operands {
			out[len(operands)-1-i] = op
		}
		return out
	}
}

func (p *Printer) printDataSegments(segments []DataSegment) {
	p.writeLine("data readonly {")
	for _, seg := range segments {
		p.writeLine("    dbsection " + seg.Label.Name + ":")
		for _, item := range seg.Items {
			if item.LabelRef != nil {
				p.writeLine("        db " + item.LabelRef.String())
				continue
			}
			p.writeLine("        db x\"" + hexEncode(item.Bytes) + "\"")
		}
	}
	p.writeLine("}")
}

func hexEncode(b []byte) string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hexDigits[c>>4]
		out[i*2+1] = hexDigits[c&0xF]
	}
	return string(out)
}
