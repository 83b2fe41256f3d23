package passes

import "venomc/internal/ir"

// DeadStoreElimination removes a store whose value is fully overwritten by
// a later store to the same concrete location before any intervening
// instruction could read it, grounded on vyper's
// venom/passes/dead_store_elimination.py: walk each block backward,
// tracking locations written but "not yet observed"; a second write to an
// already-pending location retires the earlier, now-provably-dead store; a
// read, call, or volatile/variable-address access clears pending writes it
// could alias (conservatively clearing everything on a volatile access).
type DeadStoreElimination struct{}

func (*DeadStoreElimination) Name() string { return "dead_store_elimination" }

func (*DeadStoreElimination) Description() string {
	return "drop stores fully overwritten before any intervening read"
}

func (p *DeadStoreElimination) Apply(fn *ir.Function) (bool, error) {
	alias := ir.RequestMemoryAlias(fn)
	changed := false
	for _, bb := range fn.Blocks() {
		pending := map[ir.MemoryLocation]*ir.Instruction{}
		insts := bb.Instructions
		for i := len(insts) - 1; i >= 0; i-- {
			inst := insts[i]
			opcode := inst.Opcode
			isStore := opcode == "mstore" || opcode == "mstore8" || opcode == "sstore" || opcode == "tstore"

			if isStore {
				loc, ok := alias.WriteLocation(inst)
				if ok && !loc.IsFull() {
					// pending[loc], if present, is the nearest surviving
					// store to this location later in program order (we
					// are walking backward). inst's write is retired
					// before that later store is ever observed, so inst
					// itself is dead; the surviving store stays pending
					// unchanged so an even-earlier store compares against
					// it too, not against inst. Only a store in the same
					// domain (memory, storage or transient) shadows inst.
					if prev, shadowed := pending[loc]; shadowed && prev.Opcode[0] == opcode[0] {
						inst.MakeNop()
						changed = true
						continue
					}
					pending[loc] = inst
					continue
				}
				pending = map[ir.MemoryLocation]*ir.Instruction{}
				continue
			}

			if loc, ok := alias.ReadLocation(inst); ok {
				if loc.IsFull() {
					pending = map[ir.MemoryLocation]*ir.Instruction{}
				} else {
					for other := range pending {
						if other.Overlaps(loc) {
							delete(pending, other)
						}
					}
				}
				continue
			}

			if ir.IsVolatile(opcode) || ir.ReadEffects(opcode) != 0 {
				pending = map[ir.MemoryLocation]*ir.Instruction{}
			}
		}
	}
	if changed {
		fn.Cache().InvalidateAll()
	}
	return changed, nil
}
