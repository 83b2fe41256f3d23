package passes

import "venomc/internal/ir"

// Inline performs cross-function inlining of small, straight-line invoke
// call sites, grounded on vyper's IRFunction.copy/Inline handling in
// venom/passes/function_inlining.py: a callee consisting of a single basic
// block (no internal branches) below a size threshold is spliced directly
// into each of its call sites, with every local variable's name freshened
// by a per-call-site prefix so SSA uniqueness is
// preserved across the merge (the "freshen_varnames" idea SPEC_FULL.md §10
// describes). Unlike the per-function Pass interface, Inline mutates the
// whole Context at once (it deletes invoke instructions in one function's
// body by splicing another function's), so it is driven by Pipeline.Run as
// a dedicated pre-pass rather than being registered in the per-function
// pass list.
type Inline struct {
	MaxCalleeInstructions int
	counter               int
}

func NewInline() *Inline {
	return &Inline{MaxCalleeInstructions: 12}
}

func (*Inline) Name() string { return "inline" }

func (*Inline) Description() string {
	return "splice small single-block call targets into their call sites"
}

// ApplyContext inlines call sites to a fixed point (an eligible callee
// contains no invoke, so each splice removes one call site and adds none,
// and this always terminates).
func (p *Inline) ApplyContext(ctx *ir.Context) (bool, error) {
	changedAny := false
	for _, fn := range ctx.Functions {
		for {
			if !p.inlineOneCallSite(ctx, fn) {
				break
			}
			changedAny = true
		}
	}
	if changedAny {
		for _, fn := range ctx.Functions {
			fn.Cache().InvalidateAll()
		}
	}
	return changedAny, nil
}

func (p *Inline) inlineOneCallSite(ctx *ir.Context, fn *ir.Function) bool {
	for _, bb := range fn.Blocks() {
		for i, inst := range bb.Instructions {
			if inst.Opcode != "invoke" || len(inst.Operands) == 0 {
				continue
			}
			calleeLbl, ok := ir.AsLabel(inst.Operands[0])
			if !ok {
				continue
			}
			callee := ctx.GetFunction(calleeLbl.Name)
			if callee == nil || callee == fn || !p.eligible(callee) {
				continue
			}
			p.splice(fn, bb, i, inst, callee)
			return true
		}
	}
	return false
}

// eligible restricts inlining to single-block, small callees that contain
// no invoke of their own: splicing a multi-block callee would require rewriting the
// caller's CFG edges and phi nodes, which this pass deliberately leaves to
// a full SimplifyCFG-capable inliner outside this exercise's scope.
func (p *Inline) eligible(callee *ir.Function) bool {
	if len(callee.Blocks()) != 1 {
		return false
	}
	body := callee.EntryBlock().Instructions
	if len(body) == 0 || len(body) > p.MaxCalleeInstructions {
		return false
	}
	for _, inst := range body {
		if inst.Opcode == "invoke" {
			return false
		}
	}
	term := body[len(body)-1]
	return term.Opcode == "ret" || term.Opcode == "stop"
}

// invokeArgs recovers the call arguments in natural left-to-right order
// from an invoke instruction's internally-reversed trailing operands.
func invokeArgs(inst *ir.Instruction) []ir.Operand {
	args := make([]ir.Operand, 0, len(inst.Operands)-1)
	for i := len(inst.Operands) - 1; i >= 1; i-- {
		args = append(args, inst.Operands[i])
	}
	return args
}

func (p *Inline) splice(fn *ir.Function, bb *ir.BasicBlock, idx int, call *ir.Instruction, callee *ir.Function) {
	p.counter++
	prefix := "inline" + itoa(p.counter) + "_"

	args := invokeArgs(call)
	rename := map[string]ir.Operand{}
	paramIdx := 0
	entry := callee.EntryBlock()

	var cloned []*ir.Instruction
	var returnValue ir.Operand

	for _, inst := range entry.Instructions {
		if inst.Opcode == "param" {
			if inst.Output != nil && paramIdx < len(args) {
				rename[inst.Output.IdentityKey().(string)] = args[paramIdx]
			}
			paramIdx++
			continue
		}
		if inst.Opcode == "ret" {
			if len(inst.Operands) == 1 {
				returnValue = substitute(inst.Operands[0], rename)
			}
			continue
		}
		if inst.Opcode == "stop" {
			continue
		}

		newOperands := make([]ir.Operand, len(inst.Operands))
		for k, op := range inst.Operands {
			newOperands[k] = substitute(op, rename)
		}
		var newOutput *ir.Variable
		if inst.Output != nil {
			newOutput = fn.FreshVariable(prefix + inst.Output.Name)
			rename[inst.Output.IdentityKey().(string)] = newOutput
		}
		cloned = append(cloned, &ir.Instruction{
			Opcode:     inst.Opcode,
			Operands:   newOperands,
			Output:     newOutput,
			Annotation: inst.Annotation,
		})
	}

	for _, c := range cloned {
		c.Block = bb
	}
	newInstructions := make([]*ir.Instruction, 0, len(bb.Instructions)+len(cloned))
	newInstructions = append(newInstructions, bb.Instructions[:idx]...)
	newInstructions = append(newInstructions, cloned...)
	newInstructions = append(newInstructions, bb.Instructions[idx+1:]...)
	bb.Instructions = newInstructions

	if call.Output != nil && returnValue != nil {
		replaceVariable(fn, call.Output, returnValue)
	}
}

// substitute resolves op through the callee-local rename map built while
// cloning the callee's body (param bindings and freshened local outputs);
// non-variable operands and variables not yet bound pass through unchanged.
func substitute(op ir.Operand, rename map[string]ir.Operand) ir.Operand {
	v, ok := ir.AsVariable(op)
	if !ok {
		return op
	}
	if repl, ok := rename[v.IdentityKey().(string)]; ok {
		return repl
	}
	return op
}

// replaceVariable rewrites every operand referencing old, function-wide,
// with replacement — used to thread an inlined callee's return value to
// every former use of the invoke's output.
func replaceVariable(fn *ir.Function, old *ir.Variable, replacement ir.Operand) {
	oldKey := old.IdentityKey().(string)
	for _, bb := range fn.Blocks() {
		for _, inst := range bb.Instructions {
			for i, op := range inst.Operands {
				if v, ok := ir.AsVariable(op); ok && v.IdentityKey().(string) == oldKey {
					inst.Operands[i] = replacement
				}
			}
		}
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
