package ir

// defaultStackSpillBase is the scratch memory offset the spiller's slots
// start from; vyper reserves a fixed low memory region (MemoryPositions.
// STACK_SPILL_BASE) for this purpose. venomc's demonstration assembler
// reserves the same kind of fixed low region, configurable per spiller via
// NewStackSpiller's initialOffset parameter.
const defaultStackSpillBase = 0x0180

// StackSpiller bridges SSA operand placement and the EVM's 16-deep native
// stack addressability limit (spec.md §4.11), grounded 1:1 on vyper's
// venom stack_spiller.py: a monotonic spill-region pointer, a free-list of
// reclaimed 32-byte slots, and synthesized `alloca` instructions recording
// each claimed slot, with its already-fixed offset, at the entry block.
// These slots are not part of the function's Allocator reservations.
type StackSpiller struct {
	ctx *Context

	spillFreeSlots    []int64
	spillSlotOffsets  map[*Function][]int64
	spillInsertIndex  map[*Function]int
	nextSpillOffset   int64
	nextSpillAllocaID int

	currentFunction *Function
}

func NewStackSpiller(ctx *Context, initialOffset *int64) *StackSpiller {
	base := int64(defaultStackSpillBase)
	if initialOffset != nil {
		base = *initialOffset
	}
	return &StackSpiller{
		ctx:              ctx,
		spillSlotOffsets: map[*Function][]int64{},
		spillInsertIndex: map[*Function]int{},
		nextSpillOffset:  base,
	}
}

func (s *StackSpiller) SetCurrentFunction(fn *Function) {
	s.currentFunction = fn
	if fn != nil {
		s.prepareSpillState(fn)
	}
}

func (s *StackSpiller) ResetSpillSlots() { s.spillFreeSlots = nil }

func (s *StackSpiller) prepareSpillState(fn *Function) {
	if _, ok := s.spillSlotOffsets[fn]; ok {
		return
	}
	entry := fn.EntryBlock()
	insertIdx := 0
	if entry != nil {
		for _, inst := range entry.Instructions {
			if inst.Opcode == "param" {
				insertIdx++
			} else {
				break
			}
		}
	}
	s.spillSlotOffsets[fn] = nil
	s.spillInsertIndex[fn] = insertIdx
}

// SpillOperand spills the operand at depth to memory, recording its offset
// in spilled so RestoreSpilledOperand can later bring it back.
func (s *StackSpiller) SpillOperand(asm *Assembly, stack *StackModel, spilled map[Operand]int64, depth int, dryRun bool) error {
	operand := stack.Peek(depth)
	if _, ok := AsVariable(operand); !ok {
		return NewCompilerPanic("spill_operand: operand at depth %d is not a variable", depth)
	}
	if depth != 0 {
		if _, err := s.Swap(asm, stack, depth, dryRun); err != nil {
			return err
		}
	}
	offset := s.getSpillSlot(dryRun)
	asm.PushImmediate(offset)
	asm.Op("MSTORE")
	stack.Pop(1)
	spilled[operand] = offset
	return nil
}

func (s *StackSpiller) RestoreSpilledOperand(asm *Assembly, stack *StackModel, spilled map[Operand]int64, op Operand, dryRun bool) {
	offset := spilled[op]
	delete(spilled, op)
	if !dryRun {
		s.spillFreeSlots = append(s.spillFreeSlots, offset)
	}
	asm.PushImmediate(offset)
	asm.Op("MLOAD")
	stack.Push(op)
}

// ReleaseDeadSpills frees memory slots for spilled operands no longer in
// liveSet.
func (s *StackSpiller) ReleaseDeadSpills(spilled map[Operand]int64, liveSet map[string]*Variable) {
	for op, offset := range spilled {
		if v, ok := AsVariable(op); ok {
			if _, live := liveSet[v.qualifiedName()]; live {
				continue
			}
		}
		delete(spilled, op)
		s.spillFreeSlots = append(s.spillFreeSlots, offset)
	}
}

// Swap rearranges stack so the operand at depth ends up swapped with the
// top, emitting a native SWAPk when swap_idx<=16, otherwise spilling the
// full [0, swap_idx] chunk to memory and restoring it with positions 0 and
// swap_idx exchanged.
func (s *StackSpiller) Swap(asm *Assembly, stack *StackModel, depth int, dryRun bool) (int, error) {
	if depth == 0 {
		return 0, nil
	}
	swapIdx := -depth
	if swapIdx < 1 {
		return 0, NewStackTooDeep("unsupported swap depth %d", swapIdx)
	}
	if swapIdx <= 16 {
		stack.Swap(depth)
		asm.Op(swapMnemonic(swapIdx))
		return 1, nil
	}

	chunkSize := swapIdx + 1
	spillOps, offsets, cost := s.spillStackSegment(asm, stack, chunkSize, dryRun)

	indices := rangeInts(chunkSize)
	var desired []int
	if chunkSize == 1 {
		desired = indices
	} else {
		desired = append([]int{indices[len(indices)-1]}, indices[1:len(indices)-1]...)
		desired = append(desired, indices[0])
	}

	cost += s.restoreSpilledSegment(asm, stack, spillOps, offsets, desired, dryRun)
	return cost, nil
}

// Dup brings a copy of the operand at depth onto the top, same native/spill
// split as Swap but with a shift-and-duplicate rotation instead of an
// exchange.
func (s *StackSpiller) Dup(asm *Assembly, stack *StackModel, depth int, dryRun bool) error {
	dupIdx := 1 - depth
	if dupIdx < 1 {
		return NewStackTooDeep("unsupported dup depth %d", dupIdx)
	}
	if dupIdx <= 16 {
		stack.Dup(depth)
		asm.Op(dupMnemonic(dupIdx))
		return nil
	}

	chunkSize := dupIdx
	spillOps, offsets, _ := s.spillStackSegment(asm, stack, chunkSize, dryRun)

	indices := rangeInts(chunkSize)
	desired := append([]int{indices[len(indices)-1]}, indices...)

	s.restoreSpilledSegment(asm, stack, spillOps, offsets, desired, dryRun)
	return nil
}

func (s *StackSpiller) spillStackSegment(asm *Assembly, stack *StackModel, count int, dryRun bool) ([]Operand, []int64, int) {
	var spillOps []Operand
	var offsets []int64
	cost := 0
	for i := 0; i < count; i++ {
		op := stack.Peek(0)
		spillOps = append(spillOps, op)
		offset := s.acquireSpillOffset(dryRun)
		offsets = append(offsets, offset)
		asm.PushImmediate(offset)
		asm.Op("MSTORE")
		stack.Pop(1)
		cost += 2
	}
	return spillOps, offsets, cost
}

func (s *StackSpiller) restoreSpilledSegment(asm *Assembly, stack *StackModel, spillOps []Operand, offsets []int64, desiredIndices []int, dryRun bool) int {
	cost := 0
	for i := len(desiredIndices) - 1; i >= 0; i-- {
		idx := desiredIndices[i]
		asm.PushImmediate(offsets[idx])
		asm.Op("MLOAD")
		stack.Push(spillOps[idx])
		cost += 2
	}
	if !dryRun {
		s.spillFreeSlots = append(s.spillFreeSlots, offsets...)
	}
	return cost
}

func (s *StackSpiller) getSpillSlot(dryRun bool) int64 {
	if dryRun {
		return s.acquireSpillOffset(dryRun)
	}
	if s.currentFunction == nil {
		offset := s.nextSpillOffset
		s.nextSpillOffset += 32
		return offset
	}
	return s.allocateSpillSlot(s.currentFunction)
}

func (s *StackSpiller) acquireSpillOffset(dryRun bool) int64 {
	if n := len(s.spillFreeSlots); n > 0 {
		if dryRun {
			return s.spillFreeSlots[n-1]
		}
		offset := s.spillFreeSlots[n-1]
		s.spillFreeSlots = s.spillFreeSlots[:n-1]
		return offset
	}
	return s.getSpillSlot(dryRun)
}

func (s *StackSpiller) allocateSpillSlot(fn *Function) int64 {
	entry := fn.EntryBlock()
	insertIdx := s.spillInsertIndex[fn]

	offset := s.nextSpillOffset
	s.nextSpillOffset += 32

	id := s.nextSpillAllocaID
	s.nextSpillAllocaID++

	outputVar := fn.FreshVariable("spill")
	inst := &Instruction{
		Opcode:   "alloca",
		Operands: []Operand{LiteralFromInt64(offset), LiteralFromInt64(32), LiteralFromInt64(int64(id))},
		Output:   outputVar,
	}
	entry.InsertBefore(insertIdx, inst)
	s.spillInsertIndex[fn]++

	s.spillSlotOffsets[fn] = append(s.spillSlotOffsets[fn], offset)
	return offset
}

func rangeInts(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func swapMnemonic(idx int) string { return "SWAP" + itoa(idx) }

func dupMnemonic(idx int) string { return "DUP" + itoa(idx) }
