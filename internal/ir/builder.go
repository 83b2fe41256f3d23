package ir

// Builder provides the fluent, append-to-current-block construction API
// spec.md §4.1 describes: a cursor over one function's "current block",
// monotonic variable/block counters owned by the Function itself, and
// automatic int-literal wrapping for convenience call sites.
//
// Builder mirrors the teacher's AST-lowering builder.go in shape (a
// stateful struct walked by a single caller, one block/variable counter
// per function) but is generic over opcodes instead of hard-coding one
// concrete instruction type per AST node.
type Builder struct {
	Context  *Context
	fn       *Function
	current  *BasicBlock
}

func NewBuilder(ctx *Context) *Builder {
	return &Builder{Context: ctx}
}

// CreateFunction starts a new function with one entry block and makes it
// current.
func (b *Builder) CreateFunction(name string) *Function {
	b.fn = b.Context.CreateFunction(name)
	b.current = b.fn.AppendBlock("entry")
	return b.fn
}

// Function returns the function currently being built.
func (b *Builder) Function() *Function { return b.fn }

// CreateBlock allocates a block without linking it as current or touching
// control flow — spec.md §4.1 distinguishes this "create, don't switch"
// operation from AppendBlock, which both creates and switches.
func (b *Builder) CreateBlock(nameHint string) *BasicBlock {
	return b.fn.AppendBlock(nameHint)
}

// SetCurrentBlock switches the builder's insertion cursor.
func (b *Builder) SetCurrentBlock(bb *BasicBlock) { b.current = bb }

func (b *Builder) CurrentBlock() *BasicBlock { return b.current }

// wrapOperand auto-wraps a raw int64 as a *Literal the way spec.md §4.1
// requires of the builder's emission helpers, so call sites can pass Go
// integer constants directly instead of constructing Literal values.
func wrapOperand(v any) Operand {
	switch x := v.(type) {
	case Operand:
		return x
	case int:
		return LiteralFromInt64(int64(x))
	case int64:
		return LiteralFromInt64(x)
	case Uint256:
		return NewLiteral(x)
	default:
		panic("wrapOperand: unsupported operand type")
	}
}

func wrapOperands(vs []any) []Operand {
	out := make([]Operand, len(vs))
	for i, v := range vs {
		out[i] = wrapOperand(v)
	}
	return out
}

// requireOpenBlock enforces spec.md §4.1(a): no instruction may be
// appended after a block's terminator. Like wrapOperand's unsupported-type
// case, this guards a programmer error in the builder's own call
// sequence, not a malformed-input condition a caller can recover from, so
// it panics rather than threading an error return through every Emit/
// EmitVoid/Param call site.
func (b *Builder) requireOpenBlock() {
	if term := b.current.Terminator(); term != nil && term.IsTerminator() {
		panic("ir.Builder: cannot append to block " + b.current.Label.Name + " after its terminator")
	}
}

// Emit appends an instruction producing a fresh output variable to the
// current block and returns that variable. Operands are given in natural
// left-to-right conceptual order (Emit("sub", "t", a, b) means a - b); Emit
// stores them internally in the rightmost-first order every other entry
// point into the IR (the textual parser, the printer) agrees on, via the
// same reorderParsedOperands rule the parser applies when reading source
// text.
func (b *Builder) Emit(opcode string, resultHint string, operands ...any) *Variable {
	b.requireOpenBlock()
	out := b.fn.FreshVariable(resultHint)
	inst := newInstruction(opcode, reorderParsedOperands(opcode, wrapOperands(operands)), out)
	b.current.Append(inst)
	return out
}

// EmitVoid appends a no-output instruction (stores, terminators, logs...).
func (b *Builder) EmitVoid(opcode string, operands ...any) *Instruction {
	b.requireOpenBlock()
	inst := newInstruction(opcode, reorderParsedOperands(opcode, wrapOperands(operands)), nil)
	b.current.Append(inst)
	return inst
}

// Param declares a function parameter: a fresh SSA variable bound by a
// leading "param" pseudo-instruction in the entry block (the StackSpiller
// and asm emission both rely on every param instruction coming first, in
// declaration order, before any other entry-block instruction) and
// registered in Function.Params so callers can see the function's arity.
func (b *Builder) Param(nameHint string) *Variable {
	b.requireOpenBlock()
	out := b.fn.FreshVariable(nameHint)
	inst := newInstruction("param", nil, out)
	b.current.Append(inst)
	b.fn.Params = append(b.fn.Params, out)
	return out
}

// Jump appends an unconditional jmp terminator to target.
func (b *Builder) Jump(target *BasicBlock) *Instruction {
	inst := b.EmitVoid("jmp", target.Label)
	b.current.RecomputeCFGOut()
	return inst
}

// Branch appends a jnz terminator: jumps to ifTrue when cond != 0, else
// ifFalse. Operand order mirrors spec.md's jnz grammar: cond, then-label,
// else-label, kept in source order (jnz is one of the operand-order
// exceptions, like phi).
func (b *Builder) Branch(cond Operand, ifTrue, ifFalse *BasicBlock) *Instruction {
	inst := b.EmitVoid("jnz", cond, ifTrue.Label, ifFalse.Label)
	b.current.RecomputeCFGOut()
	return inst
}

// Return appends a stop terminator when value is nil, else a ret of value.
func (b *Builder) Return(value Operand) *Instruction {
	if value == nil {
		return b.EmitVoid("stop")
	}
	return b.EmitVoid("ret", value)
}

// Invoke appends a call to another venom function, enforcing that the
// number of requested return values matches returns (spec.md §4.1
// "invoke returns=k output count enforcement"). k==0 -> no output, k==1 ->
// single Variable output; k>1 is rejected since this target machine has a
// single-word return convention per function (multi-value returns are
// encoded by the front end as a tuple in memory, out of the core's scope).
func (b *Builder) Invoke(callee *Label, returns int, resultHint string, args ...any) (*Variable, error) {
	if returns > 1 {
		return nil, NewCompilerPanic("invoke: %d return values requested, core supports at most 1", returns)
	}
	operands := append([]any{callee}, args...)
	if returns == 0 {
		b.EmitVoid("invoke", operands...)
		return nil, nil
	}
	return b.Emit("invoke", resultHint, operands...), nil
}

// Phi appends a phi instruction to the current block with the given
// (predecessor label, value) pairs, in source order (not reversed).
func (b *Builder) Phi(resultHint string, pairs ...[2]any) *Variable {
	out := b.fn.FreshVariable(resultHint)
	operands := make([]Operand, 0, len(pairs)*2)
	for _, p := range pairs {
		operands = append(operands, wrapOperand(p[0]), wrapOperand(p[1]))
	}
	inst := newInstruction("phi", operands, out)
	b.current.InsertBefore(len(b.current.Phis()), inst)
	return out
}

// Alloca reserves a memory region via the function's Allocator and returns
// a literal placeholder variable representing its (not-yet-concrete)
// address; Compile emits it as a PUSH of the offset Allocator.Concretize
// assigns.
func (b *Builder) Alloca(size int64, isCallArg bool) *Variable {
	alloc := b.fn.Allocator.Reserve(size, isCallArg)
	opcode := "palloca"
	if isCallArg {
		opcode = "calloca"
	}
	out := b.fn.FreshVariable("alloca")
	inst := newInstruction(opcode, []Operand{LiteralFromInt64(int64(alloc.ID))}, out)
	b.current.Append(inst)
	return out
}
