package ir

// MemoryAliasAnalysis computes the MemoryLocation each memory/storage/
// transient instruction reads or writes, resolving concrete (offset, size)
// pairs when the address operand is a Literal and falling back to
// FullMemoryAccess (volatile) when it's a Variable — the same
// literal-vs-variable split vyper's venom memory alias analysis uses.
type MemoryAliasAnalysis struct {
	reads  map[*Instruction]MemoryLocation
	writes map[*Instruction]MemoryLocation
}

func (*MemoryAliasAnalysis) Compute(fn *Function) Analysis {
	m := &MemoryAliasAnalysis{
		reads:  map[*Instruction]MemoryLocation{},
		writes: map[*Instruction]MemoryLocation{},
	}
	for _, bb := range fn.Blocks() {
		for _, inst := range bb.Instructions {
			if loc, ok := readLocation(inst); ok {
				m.reads[inst] = loc
			}
			if loc, ok := writeLocation(inst); ok {
				m.writes[inst] = loc
			}
		}
	}
	return m
}

func (m *MemoryAliasAnalysis) ReadLocation(inst *Instruction) (MemoryLocation, bool) {
	loc, ok := m.reads[inst]
	return loc, ok
}

func (m *MemoryAliasAnalysis) WriteLocation(inst *Instruction) (MemoryLocation, bool) {
	loc, ok := m.writes[inst]
	return loc, ok
}

// readLocation/writeLocation resolve an instruction's memory footprint
// from its address operand. mload/sload/tload take a single operand
// (trivially operand 0, the address). The two-operand stores
// (mstore/mstore8/sstore/tstore) are built as EmitVoid(opcode, addr,
// value) — by the rightmost-operand-first storage convention (see
// eval.go's EvalArith note) that leaves the address last: operand 0 is
// the stored value, operand 1 is the address.
func readLocation(inst *Instruction) (MemoryLocation, bool) {
	switch inst.Opcode {
	case "mload":
		return locationFromAddr(inst.Operands[0], opcodeAccessSize(inst.Opcode)), true
	case "sload":
		return locationFromAddr(inst.Operands[0], 1), true
	case "tload":
		return locationFromAddr(inst.Operands[0], 1), true
	default:
		return MemoryLocation{}, false
	}
}

func writeLocation(inst *Instruction) (MemoryLocation, bool) {
	switch inst.Opcode {
	case "mstore":
		return locationFromAddr(storeAddrOperand(inst), opcodeAccessSize(inst.Opcode)), true
	case "mstore8":
		return locationFromAddr(storeAddrOperand(inst), 1), true
	case "sstore":
		return locationFromAddr(storeAddrOperand(inst), 1), true
	case "tstore":
		return locationFromAddr(storeAddrOperand(inst), 1), true
	default:
		return MemoryLocation{}, false
	}
}

// storeAddrOperand returns a two-operand store's address operand (the
// last element, per the rightmost-first convention).
func storeAddrOperand(inst *Instruction) Operand {
	return inst.Operands[len(inst.Operands)-1]
}

// storeValueOperand returns a two-operand store's stored-value operand
// (the first element, per the rightmost-first convention).
func storeValueOperand(inst *Instruction) Operand {
	return inst.Operands[0]
}

func locationFromAddr(addr Operand, size int64) MemoryLocation {
	lit, ok := AsLiteral(addr)
	if !ok {
		return FullMemoryAccess
	}
	return MemoryLocation{Offset: lit.Value.BigInt().Int64(), Size: size}
}

func RequestMemoryAlias(fn *Function) *MemoryAliasAnalysis {
	return fn.Cache().Request(&MemoryAliasAnalysis{}).(*MemoryAliasAnalysis)
}
