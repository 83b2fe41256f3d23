package ir

import "strings"

// Compile lowers every function in ctx to a flat AsmItem stream, grounded
// on vyper's venom_to_assembly.py: walk each function's blocks in
// reverse-postorder, maintain an abstract StackModel of what's live on the
// real EVM stack, and for each instruction bring its operands to the top
// (via the StackSpiller's native DUP/SWAP or its spill-to-memory fallback
// past the 16-slot limit) before emitting the opcode itself.
//
// This is a single-pass, single-running-stack code generator: one
// StackModel is carried from block to block in reverse-postorder, and
// stack layouts are not reconciled at block boundaries. Phi instructions
// emit no code, and no predecessor places a phi's value on the stack, so
// a phi output never enters the StackModel and an instruction that reads
// one fails with a CompilerPanic (operand not live on the stack).
func Compile(ctx *Context, spiller *StackSpiller) (map[string]*Assembly, error) {
	out := make(map[string]*Assembly, len(ctx.Functions))
	for _, fn := range ctx.Functions {
		asm, err := compileFunction(spiller, fn)
		if err != nil {
			return nil, err
		}
		out[fn.Name] = asm
	}
	return out, nil
}

func compileFunction(spiller *StackSpiller, fn *Function) (*Assembly, error) {
	asm := NewAssembly()
	stack := NewStackModel()
	spilled := map[Operand]int64{}
	spiller.SetCurrentFunction(fn)

	// palloca/calloca reservations are made abstractly (by ID) during
	// lowering and only get real memory addresses here: Concretize packs
	// them upward from fn.Allocator.Base (0 unless set). The spiller's slots
	// are not Allocator reservations; they start at the spiller's own base
	// (defaultStackSpillBase unless overridden), and nothing checks that the
	// two regions stay apart.
	fn.Allocator.Concretize()

	asm.MarkLabel(NewSymbolLabel(fn.Name))
	for _, p := range fn.Params {
		stack.Push(p)
	}

	dt := RequestDominatorTree(fn)
	for _, bb := range dt.RPOOrder() {
		if bb != fn.EntryBlock() {
			asm.MarkLabel(bb.Label)
		}
		for _, inst := range bb.Instructions {
			if err := emitInstruction(spiller, fn, asm, stack, spilled, inst); err != nil {
				return nil, err
			}
		}
	}
	return asm, nil
}

func emitInstruction(spiller *StackSpiller, fn *Function, asm *Assembly, stack *StackModel, spilled map[Operand]int64, inst *Instruction) error {
	switch inst.Opcode {
	case "phi", "param", "nop":
		return nil
	case "palloca", "calloca", "alloca":
		if len(inst.Operands) != 1 {
			return NewCompilerPanic("%s: expected 1 operand, got %d", inst.Opcode, len(inst.Operands))
		}
		lit, ok := AsLiteral(inst.Operands[0])
		if !ok {
			return NewCompilerPanic("%s: operand is not an allocation id literal", inst.Opcode)
		}
		offset, ok := fn.Allocator.Offset(int(lit.Value.Uint64()))
		if !ok {
			return NewCompilerPanic("%s: allocation %s was never concretized", inst.Opcode, lit.Value.String())
		}
		value := Uint256FromInt64(offset)
		asm.Items = append(asm.Items, AsmItem{Push: &value})
		if inst.Output != nil {
			stack.Push(inst.Output)
		}
		return nil
	case "assign":
		if len(inst.Operands) != 1 {
			return NewCompilerPanic("assign: expected 1 operand, got %d", len(inst.Operands))
		}
		if err := bringToTop(spiller, asm, stack, spilled, inst.Operands[0], false); err != nil {
			return err
		}
		stack.Poke(0, inst.Output)
		return nil
	case "jmp":
		if len(inst.Operands) != 1 {
			return NewCompilerPanic("jmp: expected 1 operand, got %d", len(inst.Operands))
		}
		lbl, ok := AsLabel(inst.Operands[0])
		if !ok {
			return NewCompilerPanic("jmp: operand is not a label")
		}
		asm.PushLabelRef(lbl)
		asm.Op("JUMP")
		return nil
	case "jnz":
		if len(inst.Operands) != 3 {
			return NewCompilerPanic("jnz: expected 3 operands, got %d", len(inst.Operands))
		}
		cond, thenLbl, elseLbl := inst.Operands[0], inst.Operands[1], inst.Operands[2]
		thenL, ok1 := AsLabel(thenLbl)
		elseL, ok2 := AsLabel(elseLbl)
		if !ok1 || !ok2 {
			return NewCompilerPanic("jnz: branch targets are not labels")
		}
		if err := bringToTop(spiller, asm, stack, spilled, cond, false); err != nil {
			return err
		}
		asm.PushLabelRef(thenL)
		asm.Op("JUMPI")
		stack.Pop(1)
		asm.PushLabelRef(elseL)
		asm.Op("JUMP")
		return nil
	case "djmp":
		if len(inst.Operands) == 0 {
			return NewCompilerPanic("djmp: expected at least 1 operand")
		}
		if err := bringToTop(spiller, asm, stack, spilled, inst.Operands[0], false); err != nil {
			return err
		}
		asm.Op("JUMP")
		stack.Pop(1)
		return nil
	}

	for i, op := range inst.Operands {
		forceDup := operandRepeatsLater(inst.Operands, i)
		if err := bringToTop(spiller, asm, stack, spilled, op, forceDup); err != nil {
			return err
		}
	}
	asm.Op(opcodeMnemonic(inst.Opcode))
	stack.Pop(len(inst.Operands))
	if inst.Output != nil {
		stack.Push(inst.Output)
	}
	return nil
}

// bringToTop ensures operand sits on top of the real stack after this
// call, pushing a fresh literal/label or duplicating an existing stack
// entry as needed. An operand already on top is consumed in place rather
// than duplicated, UNLESS forceDup is set: a single instruction can name
// the same operand more than once (e.g. `mul x, x`), and since the real
// stack holds only one physical copy of a top-of-stack value, every
// occurrence but the last one needs its own DUP to avoid the instruction
// popping the same slot twice.
func bringToTop(spiller *StackSpiller, asm *Assembly, stack *StackModel, spilled map[Operand]int64, op Operand, forceDup bool) error {
	switch v := op.(type) {
	case *Literal:
		value := v.Value
		asm.Items = append(asm.Items, AsmItem{Push: &value})
		stack.Push(op)
		return nil
	case *Label:
		asm.PushLabelRef(v)
		stack.Push(op)
		return nil
	}

	if key, ok := findSpilledKey(spilled, op); ok {
		spiller.RestoreSpilledOperand(asm, stack, spilled, key, false)
		return nil
	}

	depth := stack.Depth(op)
	if depth == NotInStack {
		return NewCompilerPanic("operand %s is not live on the stack or in a spill slot", op.String())
	}
	if depth == 0 && !forceDup {
		return nil
	}
	return spiller.Dup(asm, stack, depth, false)
}

// operandRepeatsLater reports whether ops[i] is value-equal to some later
// operand in the same instruction's operand list.
func operandRepeatsLater(ops []Operand, i int) bool {
	for j := i + 1; j < len(ops); j++ {
		if operandsEqual(ops[i], ops[j]) {
			return true
		}
	}
	return false
}

// findSpilledKey scans spilled for an entry value-equal to op, returning
// the map's own stored key (not necessarily the same pointer as op, since
// distinct parses/copies of the same SSA variable are distinct *Variable
// allocations with equal identity by value, not by pointer) so callers
// delete/restore through the exact key the map holds.
func findSpilledKey(spilled map[Operand]int64, op Operand) (Operand, bool) {
	for k := range spilled {
		if operandsEqual(k, op) {
			return k, true
		}
	}
	return nil, false
}

// opcodeMnemonic maps a venom opcode to its EVM assembly mnemonic.
func opcodeMnemonic(opcode string) string {
	switch opcode {
	case "sha3", "keccak256":
		return "SHA3"
	default:
		return strings.ToUpper(opcode)
	}
}
