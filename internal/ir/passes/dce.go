package passes

import "venomc/internal/ir"

// DeadCodeElimination removes instructions whose output is never used and
// which have no side effect, grounded on vyper's
// venom/passes/dead_code_elimination.py: it sweeps the function, turning
// every non-volatile instruction whose output has zero uses (per
// DFGAnalysis) into a nop, and repeats the sweep with a recomputed DFG
// until one removes nothing, since removing a use can make its producer
// dead in turn.
type DeadCodeElimination struct{}

func (*DeadCodeElimination) Name() string { return "dead_code_elimination" }

func (*DeadCodeElimination) Description() string {
	return "remove instructions whose results are never used"
}

func (p *DeadCodeElimination) Apply(fn *ir.Function) (bool, error) {
	dfg := ir.RequestDFG(fn)
	changed := false

	for {
		roundChanged := false
		for _, bb := range fn.Blocks() {
			for _, inst := range bb.Instructions {
				if inst.Output == nil || inst.Opcode == "nop" {
					continue
				}
				if ir.IsVolatile(inst.Opcode) || ir.IsPseudo(inst.Opcode) {
					continue
				}
				if dfg.UseCount(inst.Output) > 0 {
					continue
				}
				inst.MakeNop()
				changed = true
				roundChanged = true
			}
		}
		if !roundChanged {
			break
		}
		fn.Cache().Invalidate(&ir.DFGAnalysis{})
		dfg = ir.RequestDFG(fn)
	}

	if changed {
		fn.Cache().InvalidateAll()
	}
	return changed, nil
}
