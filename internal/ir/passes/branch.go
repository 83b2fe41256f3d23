package passes

import "venomc/internal/ir"

// BranchOptimization simplifies jnz terminators, grounded on vyper's
// venom/passes/branch_optimization.py: when the condition is produced by
// a single iszero, the branch tests iszero's operand directly (swapping
// the then/else targets to compensate), and a jnz whose two targets are
// identical collapses into a plain jmp. Comparator conditions are left
// as they are.
type BranchOptimization struct{}

func (*BranchOptimization) Name() string { return "branch_optimization" }

func (*BranchOptimization) Description() string {
	return "unwrap iszero-negated branch conditions and collapse same-target branches"
}

func (p *BranchOptimization) Apply(fn *ir.Function) (bool, error) {
	dfg := fn.Cache().Request(&ir.DFGAnalysis{}).(*ir.DFGAnalysis)
	changed := false
	for _, bb := range fn.Blocks() {
		term := bb.Terminator()
		if term == nil || term.Opcode != "jnz" || len(term.Operands) != 3 {
			continue
		}
		cond, thenLbl, elseLbl := term.Operands[0], term.Operands[1], term.Operands[2]

		if tl, ok1 := ir.AsLabel(thenLbl); ok1 {
			if el, ok2 := ir.AsLabel(elseLbl); ok2 && tl.Name == el.Name {
				term.Opcode = "jmp"
				term.Operands = []ir.Operand{thenLbl}
				bb.RecomputeCFGOut()
				changed = true
				continue
			}
		}

		v, ok := ir.AsVariable(cond)
		if !ok {
			continue
		}
		producer := dfg.Producer(v)
		if producer == nil {
			continue
		}
		if producer.Opcode == "iszero" && len(producer.Operands) == 1 {
			term.Operands = []ir.Operand{producer.Operands[0], elseLbl, thenLbl}
			changed = true
			continue
		}
	}
	if changed {
		fn.Cache().InvalidateAll()
	}
	return changed, nil
}
