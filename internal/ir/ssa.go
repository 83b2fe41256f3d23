package ir

// MakeSSA converts fn from flat (name-only, unversioned) form into SSA
// form: it inserts phi instructions at the iterated dominance frontier of
// each variable's definition sites (with no liveness check, so a phi may
// be placed for a variable that is dead at the join), then renames every definition and
// use to a fresh (name, version) pair via a dominator-tree-walk with a
// per-variable version stack (spec.md §4.8). A final pass simplifies
// degenerate phis: zero operands -> nop, exactly one operand -> assign.
func MakeSSA(fn *Function) error {
	if fn.EntryBlock() == nil {
		return nil
	}
	dt := RequestDominatorTree(fn)

	defBlocks := collectDefBlocks(fn)
	placePhis(fn, dt, defBlocks)

	r := &renamer{fn: fn, dt: dt, stacks: map[string][]*Variable{}, counters: map[string]int{}}
	r.renameBlock(fn.EntryBlock())

	simplifyDegeneratePhis(fn)
	resyncParams(fn)

	fn.Cache().InvalidateAll()
	return nil
}

// resyncParams repoints fn.Params at the renamed *Variable each "param"
// instruction now carries. renameBlock gives every instruction's output a
// fresh (name, version) pair by allocating a new *Variable and reassigning
// inst.Output, which leaves fn.Params — a separate slice holding the
// original, pre-rename objects — pointing at stale, version-0 variables
// that no longer match what the function body actually references. Left
// unsynced, compileFunction's initial `stack.Push(p)` over fn.Params would
// seed the real stack model with the wrong identity for every parameter.
func resyncParams(fn *Function) {
	if len(fn.Params) == 0 {
		return
	}
	var renamed []*Variable
	for _, inst := range fn.EntryBlock().Instructions {
		if inst.Opcode == "param" {
			renamed = append(renamed, inst.Output)
		}
	}
	if len(renamed) == len(fn.Params) {
		fn.Params = renamed
	}
}

func collectDefBlocks(fn *Function) map[string]map[string]bool {
	defs := map[string]map[string]bool{}
	for _, bb := range fn.Blocks() {
		for _, inst := range bb.Instructions {
			if inst.Output == nil {
				continue
			}
			name := inst.Output.Name
			if defs[name] == nil {
				defs[name] = map[string]bool{}
			}
			defs[name][bb.Label.Name] = true
		}
	}
	return defs
}

func placePhis(fn *Function, dt *DominatorTree, defBlocks map[string]map[string]bool) {
	for varName, blocks := range defBlocks {
		if len(blocks) <= 1 {
			continue
		}
		hasPhi := map[string]bool{}
		onWorklist := map[string]bool{}
		var worklist []*BasicBlock
		for name := range blocks {
			bb := fn.GetBasicBlock(name)
			worklist = append(worklist, bb)
			onWorklist[name] = true
		}
		for len(worklist) > 0 {
			x := worklist[0]
			worklist = worklist[1:]
			for _, y := range dt.DominanceFrontier(x) {
				if hasPhi[y.Label.Name] {
					continue
				}
				insertEmptyPhi(y, varName)
				hasPhi[y.Label.Name] = true
				if !onWorklist[y.Label.Name] {
					worklist = append(worklist, y)
					onWorklist[y.Label.Name] = true
				}
			}
		}
	}
}

func insertEmptyPhi(bb *BasicBlock, varName string) {
	var operands []Operand
	for _, pred := range bb.CFGIn() {
		operands = append(operands, NewLabel(pred.Label.Name), NewVariable(varName))
	}
	out := NewVariable(varName)
	inst := &Instruction{Opcode: "phi", Operands: operands, Output: out}
	bb.InsertBefore(len(bb.Phis()), inst)
}

type renamer struct {
	fn       *Function
	dt       *DominatorTree
	stacks   map[string][]*Variable
	counters map[string]int
}

func (r *renamer) fresh(base string) *Variable {
	r.counters[base]++
	v := &Variable{Name: base, Version: r.counters[base]}
	r.stacks[base] = append(r.stacks[base], v)
	return v
}

func (r *renamer) top(base string) *Variable {
	stack := r.stacks[base]
	if len(stack) == 0 {
		// No reaching definition (use before any assignment on this path);
		// synthesize a version-0 placeholder rather than panic, mirroring
		// an uninitialized-variable read, which the front end's semantic
		// analysis is expected to reject before reaching the core.
		return &Variable{Name: base, Version: 0}
	}
	return stack[len(stack)-1]
}

func (r *renamer) renameBlock(bb *BasicBlock) {
	pushed := map[string]int{}

	for _, phi := range bb.Phis() {
		base := phi.Output.Name
		nv := r.fresh(base)
		phi.Output = nv
		pushed[base]++
	}

	for _, inst := range bb.NonPhiInstructions() {
		for i, op := range inst.Operands {
			if v, ok := AsVariable(op); ok {
				inst.Operands[i] = r.top(v.Name)
			}
		}
		if inst.Output != nil {
			base := inst.Output.Name
			nv := r.fresh(base)
			inst.Output = nv
			pushed[base]++
		}
	}

	for _, succ := range bb.CFGOut() {
		for _, phi := range succ.Phis() {
			fillPhiOperand(phi, bb.Label.Name, r)
		}
	}

	for _, child := range r.dt.Dominated(bb) {
		r.renameBlock(child)
	}

	for base, n := range pushed {
		stack := r.stacks[base]
		r.stacks[base] = stack[:len(stack)-n]
	}
}

func fillPhiOperand(phi *Instruction, predName string, r *renamer) {
	for i := 0; i+1 < len(phi.Operands); i += 2 {
		lbl, ok := AsLabel(phi.Operands[i])
		if !ok || lbl.Name != predName {
			continue
		}
		v, ok := AsVariable(phi.Operands[i+1])
		if !ok {
			continue
		}
		phi.Operands[i+1] = r.top(v.Name)
	}
}

// simplifyDegeneratePhis folds phi instructions down per spec.md §8
// boundary behavior: zero operands (all predecessors pruned) -> nop;
// exactly one operand, or all operands equal -> assign.
func simplifyDegeneratePhis(fn *Function) {
	for _, bb := range fn.Blocks() {
		for _, inst := range bb.Instructions {
			if inst.Opcode != "phi" {
				continue
			}
			pairs := inst.PhiOperandPairs()
			if len(pairs) == 0 {
				inst.MakeNop()
				continue
			}
			allSame := true
			first := pairs[0][1]
			for _, p := range pairs[1:] {
				if !operandsEqual(p[1], first) {
					allSame = false
					break
				}
			}
			if len(pairs) == 1 || allSame {
				inst.MakeAssign(first)
			}
		}
	}
}
