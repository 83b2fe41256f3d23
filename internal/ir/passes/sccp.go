package passes

import (
	"venomc/internal/ir"
)

// SCCP is sparse conditional constant propagation, grounded on vyper's
// venom/passes/sccp/sccp.py: a lattice of TOP (unknown)/constant/BOTTOM
// (not-constant) per SSA variable, combined with block reachability so a
// branch whose condition folds to a constant prunes the untaken side
// before its instructions can pollute the lattice. Unlike vyper's
// dual-worklist (flow-edge queue + SSA-edge queue) implementation, this
// repeatedly re-evaluates every reachable instruction to a fixed point —
// equivalent for any function without unreachable-code-only definitions,
// simpler to keep correct by hand (documented in DESIGN.md).
type SCCP struct{}

func (*SCCP) Name() string { return "sccp" }

func (*SCCP) Description() string {
	return "propagate constants and fold statically-determined branches"
}

func (s *SCCP) Apply(fn *ir.Function) (bool, error) {
	entry := fn.EntryBlock()
	if entry == nil {
		return false, nil
	}

	reachable := map[string]bool{entry.Label.Name: true}
	constVal := map[string]*ir.Literal{}
	notConst := map[string]bool{}
	takenBranch := map[*ir.Instruction]string{}

	changed := true
	for changed {
		changed = false
		for _, bb := range fn.Blocks() {
			if !reachable[bb.Label.Name] {
				continue
			}
			for _, inst := range bb.Instructions {
				if inst.Opcode == "phi" {
					if s.evalPhi(inst, reachable, constVal, notConst) {
						changed = true
					}
					continue
				}
				if inst.Opcode == "jnz" {
					if s.evalJnz(bb, inst, constVal, notConst, reachable, takenBranch) {
						changed = true
					}
					continue
				}
				if inst.Opcode == "jmp" || inst.Opcode == "djmp" {
					if s.evalUnconditionalJump(inst, reachable) {
						changed = true
					}
					continue
				}
				if inst.Output == nil {
					continue
				}
				if s.evalInstruction(inst, constVal, notConst) {
					changed = true
				}
			}
		}
	}

	rewrote := false
	for _, bb := range fn.Blocks() {
		if !reachable[bb.Label.Name] {
			continue
		}
		for _, inst := range bb.Instructions {
			if inst.Opcode == "jnz" {
				if target, ok := takenBranch[inst]; ok {
					inst.Opcode = "jmp"
					inst.Operands = []ir.Operand{ir.NewSymbolLabel(target)}
					bb.RecomputeCFGOut()
					rewrote = true
				}
				continue
			}
			if inst.Opcode == "assert" && len(inst.Operands) == 1 {
				if lit, ok := ir.AsLiteral(inst.Operands[0]); ok {
					if lit.Value.IsZero() {
						return rewrote, ir.NewStaticAssertionFailure("assert condition is statically false")
					}
					inst.MakeNop()
					rewrote = true
					continue
				}
				if v, ok := ir.AsVariable(inst.Operands[0]); ok {
					if lit, ok := constVal[v.IdentityKey().(string)]; ok {
						if lit.Value.IsZero() {
							return rewrote, ir.NewStaticAssertionFailure("assert condition is statically false")
						}
						inst.MakeNop()
						rewrote = true
					}
				}
			}
			if inst.Output == nil {
				continue
			}
			key := inst.Output.IdentityKey().(string)
			lit, ok := constVal[key]
			if !ok || inst.Opcode == "assign" {
				continue
			}
			if ir.IsVolatile(inst.Opcode) {
				continue
			}
			inst.MakeAssign(lit)
			rewrote = true
		}
	}

	if rewrote {
		propagateConstantUses(fn, constVal)
		fn.Cache().InvalidateAll()
	}

	return rewrote, nil
}

func (s *SCCP) evalPhi(inst *ir.Instruction, reachable map[string]bool, constVal map[string]*ir.Literal, notConst map[string]bool) bool {
	if inst.Output == nil {
		return false
	}
	key := inst.Output.IdentityKey().(string)
	if notConst[key] {
		return false
	}
	var merged *ir.Literal
	sawAny := false
	for _, pair := range inst.PhiOperandPairs() {
		lbl, _ := ir.AsLabel(pair[0])
		if lbl == nil || !reachable[lbl.Name] {
			continue
		}
		lit := resolveOperand(pair[1], constVal)
		if lit == nil {
			return false
		}
		sawAny = true
		if merged == nil {
			merged = lit
		} else if !merged.Value.Equal(lit.Value) {
			if !notConst[key] {
				notConst[key] = true
				return true
			}
			return false
		}
	}
	if !sawAny || merged == nil {
		return false
	}
	if cur, ok := constVal[key]; ok && cur.Value.Equal(merged.Value) {
		return false
	}
	constVal[key] = merged
	return true
}

func (s *SCCP) evalJnz(bb *ir.BasicBlock, inst *ir.Instruction, constVal map[string]*ir.Literal, notConst map[string]bool, reachable map[string]bool, taken map[*ir.Instruction]string) bool {
	if len(inst.Operands) != 3 {
		return false
	}
	lit := resolveOperand(inst.Operands[0], constVal)
	changedAny := false
	thenLbl, _ := ir.AsLabel(inst.Operands[1])
	elseLbl, _ := ir.AsLabel(inst.Operands[2])
	if lit == nil {
		if thenLbl != nil && !reachable[thenLbl.Name] {
			reachable[thenLbl.Name] = true
			changedAny = true
		}
		if elseLbl != nil && !reachable[elseLbl.Name] {
			reachable[elseLbl.Name] = true
			changedAny = true
		}
		return changedAny
	}
	var target *ir.Label
	if !lit.Value.IsZero() {
		target = thenLbl
	} else {
		target = elseLbl
	}
	if target != nil && !reachable[target.Name] {
		reachable[target.Name] = true
		changedAny = true
	}
	if _, ok := taken[inst]; !ok && target != nil {
		taken[inst] = target.Name
		changedAny = true
	}
	return changedAny
}

// evalUnconditionalJump marks every label operand of a jmp/djmp terminator
// reachable. djmp's target isn't known statically (it's resolved off a
// runtime index into a jump table), so every listed label is conservatively
// treated as reachable rather than attempting to narrow it.
func (s *SCCP) evalUnconditionalJump(inst *ir.Instruction, reachable map[string]bool) bool {
	changedAny := false
	for _, op := range inst.Operands {
		lbl, ok := ir.AsLabel(op)
		if !ok {
			continue
		}
		if !reachable[lbl.Name] {
			reachable[lbl.Name] = true
			changedAny = true
		}
	}
	return changedAny
}

func (s *SCCP) evalInstruction(inst *ir.Instruction, constVal map[string]*ir.Literal, notConst map[string]bool) bool {
	key := inst.Output.IdentityKey().(string)
	if notConst[key] {
		return false
	}
	resolved := make([]ir.Operand, len(inst.Operands))
	for i, op := range inst.Operands {
		if v, ok := ir.AsVariable(op); ok {
			lit := resolveOperand(v, constVal)
			if lit == nil {
				return false
			}
			resolved[i] = lit
		} else {
			resolved[i] = op
		}
	}
	lit, ok := ir.EvalArith(inst.Opcode, resolved)
	if !ok {
		return false
	}
	if cur, ok := constVal[key]; ok && cur.Value.Equal(lit.Value) {
		return false
	}
	constVal[key] = lit
	return true
}

func resolveOperand(op ir.Operand, constVal map[string]*ir.Literal) *ir.Literal {
	if lit, ok := ir.AsLiteral(op); ok {
		return lit
	}
	if v, ok := ir.AsVariable(op); ok {
		if lit, ok := constVal[v.IdentityKey().(string)]; ok {
			return lit
		}
	}
	return nil
}

// propagateConstantUses rewrites every operand reference to a now-constant
// variable with a fresh Literal copy; required because Operand identity is
// value-based (distinct *Variable allocations with the same name/version
// are already equal), but the instruction still stores a *Variable, not
// a *Literal, until this pass substitutes it.
func propagateConstantUses(fn *ir.Function, constVal map[string]*ir.Literal) {
	for _, bb := range fn.Blocks() {
		for _, inst := range bb.Instructions {
			for i, op := range inst.Operands {
				v, ok := ir.AsVariable(op)
				if !ok {
					continue
				}
				if lit, ok := constVal[v.IdentityKey().(string)]; ok {
					inst.Operands[i] = lit
				}
			}
		}
	}
}
