package ir

import "fmt"

// FreshenVarnames renumbers every variable and block label in fn to a
// dense, deterministic sequence (v0, v1, ... in def order; bb0, bb1, ...
// in block order), the last step of spec.md §4.12 step 1's normalization
// sub-pipeline. Two functions that reach the same shape through different
// optimization orderings print byte-for-byte identical IR afterward,
// which is what the round-trip/idempotence properties in spec.md §8 rely
// on; without it, surviving variable names still carry whatever the
// lowering or an intermediate pass happened to call them.
func FreshenVarnames(fn *Function) {
	if fn.EntryBlock() == nil {
		return
	}

	varNames := map[string]string{}
	nextVar := 0
	freshVar := func(v *Variable) {
		key := v.qualifiedName()
		name, ok := varNames[key]
		if !ok {
			name = fmt.Sprintf("v%d", nextVar)
			nextVar++
			varNames[key] = name
		}
		v.Name = name
		v.Version = 0
	}

	blockNames := map[string]string{}
	nextBlock := 0
	for _, bb := range fn.Blocks() {
		if _, ok := blockNames[bb.Label.Name]; !ok {
			blockNames[bb.Label.Name] = fmt.Sprintf("bb%d", nextBlock)
			nextBlock++
		}
	}

	for _, p := range fn.Params {
		freshVar(p)
	}
	for _, bb := range fn.Blocks() {
		for _, inst := range bb.Instructions {
			if inst.Output != nil {
				freshVar(inst.Output)
			}
			for _, op := range inst.Operands {
				if v, ok := AsVariable(op); ok {
					freshVar(v)
				}
			}
		}
	}

	// Jump/branch/phi label operands are the same *Label the target
	// block's own Label field points to (Builder.Jump/Branch/Phi pass
	// target.Label straight through), so rewriting bb.Label.Name in place
	// already updates every reference; the operand walk below only
	// catches the rarer case of a label built as a separate value with a
	// matching name (e.g. a djmp jump table built by hand).
	for _, bb := range fn.Blocks() {
		oldName := bb.Label.Name
		bb.Label.Name = blockNames[oldName]
	}
	// blockByID is keyed by name and only kept in sync by
	// AppendBlock/InsertBlockAfter/RemoveBlock; renaming labels directly
	// above requires an explicit reindex or GetBasicBlock (and anything
	// built on it, like RecomputeCFGOut) would still resolve by the old
	// names.
	fn.reindexBlocks()
	for _, bb := range fn.Blocks() {
		for _, inst := range bb.Instructions {
			for _, op := range inst.Operands {
				if lbl, ok := AsLabel(op); ok {
					if newName, ok := blockNames[lbl.Name]; ok {
						lbl.Name = newName
					}
				}
			}
		}
	}

	fn.RecomputeAllCFG()
	fn.Cache().InvalidateAll()
}
