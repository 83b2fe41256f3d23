package passes

import "venomc/internal/ir"

// LoadElimination forwards stored values straight to later loads from the
// same concrete memory/storage/transient location, grounded on vyper's
// venom/passes/load_elimination.py: a flow-sensitive per-block map from
// MemoryLocation to the last-known value, invalidated whenever an
// intervening instruction's effects could alias it (per
// MemoryAliasAnalysis/Conflicts). A location resolved to FullMemoryAccess
// (variable address) invalidates every tracked location in the same
// effect domain, matching the alias analysis's conservative fallback.
type LoadElimination struct{}

func (*LoadElimination) Name() string { return "load_elimination" }

func (*LoadElimination) Description() string {
	return "forward stored values to later loads of the same location"
}

func (p *LoadElimination) Apply(fn *ir.Function) (bool, error) {
	alias := ir.RequestMemoryAlias(fn)
	changed := false
	// tracked records the domain (opcode's first letter: m, s or t) of each
	// known value, so locations in different domains never forward.
	type tracked struct {
		domain byte
		value  ir.Operand
	}
	for _, bb := range fn.Blocks() {
		known := map[ir.MemoryLocation]tracked{}
		for _, inst := range bb.Instructions {
			opcode := inst.Opcode
			isLoad := opcode == "mload" || opcode == "sload" || opcode == "tload"
			isStore := opcode == "mstore" || opcode == "mstore8" || opcode == "sstore" || opcode == "tstore"

			if isLoad {
				if loc, ok := alias.ReadLocation(inst); ok && !loc.IsFull() {
					if t, ok := known[loc]; ok && t.domain == opcode[0] {
						inst.MakeAssign(t.value)
						changed = true
						continue
					}
					if inst.Output != nil {
						known[loc] = tracked{opcode[0], inst.Output}
					}
				}
				continue
			}

			if isStore {
				loc, ok := alias.WriteLocation(inst)
				if !ok || loc.IsFull() {
					known = map[ir.MemoryLocation]tracked{}
					continue
				}
				for other := range known {
					if other.Overlaps(loc) {
						delete(known, other)
					}
				}
				if len(inst.Operands) >= 2 {
					// operand 0 is the stored value, operand 1 the
					// address, per the rightmost-operand-first convention.
					known[loc] = tracked{opcode[0], inst.Operands[0]}
				}
				continue
			}

			if ir.WriteEffects(opcode) != 0 {
				known = map[ir.MemoryLocation]tracked{}
			}
		}
	}
	if changed {
		fn.Cache().InvalidateAll()
	}
	return changed, nil
}
