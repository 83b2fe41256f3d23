package ir

// LivenessAnalysis computes, per block, the set of variables live on entry
// (LiveIn) and live on exit (LiveOut), via the standard backward fixed
// point: live_out(b) = union over successors s of live_in(s), projecting
// phi operands to the predecessor-specific value; live_in(b) = (live_out(b)
// - defs(b)) union uses(b), walking b's instructions bottom-up.
type LivenessAnalysis struct {
	liveIn  map[string]map[string]*Variable
	liveOut map[string]map[string]*Variable
}

func (*LivenessAnalysis) Compute(fn *Function) Analysis {
	la := &LivenessAnalysis{
		liveIn:  map[string]map[string]*Variable{},
		liveOut: map[string]map[string]*Variable{},
	}
	for _, bb := range fn.Blocks() {
		la.liveIn[bb.Label.Name] = map[string]*Variable{}
		la.liveOut[bb.Label.Name] = map[string]*Variable{}
	}

	changed := true
	for changed {
		changed = false
		for _, bb := range fn.Blocks() {
			liveOut := map[string]*Variable{}
			for _, succ := range bb.CFGOut() {
				for _, v := range la.liveIn[succ.Label.Name] {
					liveOut[v.qualifiedName()] = v
				}
				for _, phi := range succ.Phis() {
					for _, pair := range phi.PhiOperandPairs() {
						lbl, ok := AsLabel(pair[0])
						if !ok || lbl.Name != bb.Label.Name {
							continue
						}
						if v, ok := AsVariable(pair[1]); ok {
							liveOut[v.qualifiedName()] = v
						}
					}
				}
			}

			live := map[string]*Variable{}
			for k, v := range liveOut {
				live[k] = v
			}
			insts := bb.Instructions
			for i := len(insts) - 1; i >= 0; i-- {
				inst := insts[i]
				if inst.Output != nil {
					delete(live, inst.Output.qualifiedName())
				}
				if inst.Opcode == "phi" {
					continue
				}
				for _, op := range inst.Operands {
					if v, ok := AsVariable(op); ok {
						live[v.qualifiedName()] = v
					}
				}
			}
			// phi operands are uses attributed to the predecessor block,
			// not to this block's live_in, so they are handled above via
			// liveOut projection rather than here.

			liveIn := live

			if !varSetEqual(la.liveOut[bb.Label.Name], liveOut) {
				la.liveOut[bb.Label.Name] = liveOut
				changed = true
			}
			if !varSetEqual(la.liveIn[bb.Label.Name], liveIn) {
				la.liveIn[bb.Label.Name] = liveIn
				changed = true
			}
		}
	}

	return la
}

func varSetEqual(a, b map[string]*Variable) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

func (la *LivenessAnalysis) LiveIn(bb *BasicBlock) map[string]*Variable {
	return la.liveIn[bb.Label.Name]
}

func (la *LivenessAnalysis) LiveOut(bb *BasicBlock) map[string]*Variable {
	return la.liveOut[bb.Label.Name]
}

func (la *LivenessAnalysis) IsLiveAt(v *Variable, bb *BasicBlock) bool {
	_, ok := la.liveOut[bb.Label.Name][v.qualifiedName()]
	return ok
}

func RequestLiveness(fn *Function) *LivenessAnalysis {
	return fn.Cache().Request(&LivenessAnalysis{}).(*LivenessAnalysis)
}
