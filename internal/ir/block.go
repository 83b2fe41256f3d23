package ir

import "strings"

// BasicBlock is a straight-line instruction sequence ending in exactly one
// terminator. cfg_out/cfg_in are maintained as non-owning index sets over
// the owning Function's block list — never pointers into a cyclic
// structure — recomputed from the terminator's label operands whenever the
// block's instructions change.
type BasicBlock struct {
	Label        *Label
	Instructions []*Instruction
	Function     *Function

	cfgOut map[string]*BasicBlock
	cfgIn  map[string]*BasicBlock
}

func NewBasicBlock(label *Label) *BasicBlock {
	return &BasicBlock{
		Label:  label,
		cfgOut: map[string]*BasicBlock{},
		cfgIn:  map[string]*BasicBlock{},
	}
}

// Append adds instruction to the end of the block's instruction list. The
// caller is responsible for ensuring a terminator is appended last; Append
// itself does not enforce block-validity invariants (that is Validate's
// job), so a builder can append a run of instructions before its
// terminator.
func (b *BasicBlock) Append(inst *Instruction) {
	inst.Block = b
	b.Instructions = append(b.Instructions, inst)
}

// InsertBefore inserts inst immediately before the instruction at index idx.
func (b *BasicBlock) InsertBefore(idx int, inst *Instruction) {
	inst.Block = b
	b.Instructions = append(b.Instructions, nil)
	copy(b.Instructions[idx+1:], b.Instructions[idx:])
	b.Instructions[idx] = inst
}

// Remove deletes the instruction at index idx from the block.
func (b *BasicBlock) Remove(idx int) {
	b.Instructions = append(b.Instructions[:idx], b.Instructions[idx+1:]...)
}

// IndexOf returns the index of inst within the block, or -1.
func (b *BasicBlock) IndexOf(inst *Instruction) int {
	for i, x := range b.Instructions {
		if x == inst {
			return i
		}
	}
	return -1
}

// Terminator returns the block's last instruction, or nil if empty.
func (b *BasicBlock) Terminator() *Instruction {
	if len(b.Instructions) == 0 {
		return nil
	}
	return b.Instructions[len(b.Instructions)-1]
}

// Phis returns the leading run of phi instructions.
func (b *BasicBlock) Phis() []*Instruction {
	var out []*Instruction
	for _, inst := range b.Instructions {
		if inst.Opcode != "phi" {
			break
		}
		out = append(out, inst)
	}
	return out
}

// NonPhiInstructions returns instructions after the leading phi run.
func (b *BasicBlock) NonPhiInstructions() []*Instruction {
	phis := b.Phis()
	return b.Instructions[len(phis):]
}

// RecomputeCFGOut derives cfg_out from the terminator's label operands;
// called by the builder/passes any time a terminator's operands change.
// Requires the owning Function to resolve label -> *BasicBlock.
func (b *BasicBlock) RecomputeCFGOut() {
	for _, succ := range b.cfgOut {
		delete(succ.cfgIn, b.Label.Name)
	}
	b.cfgOut = map[string]*BasicBlock{}
	term := b.Terminator()
	if term == nil || b.Function == nil {
		return
	}
	for _, op := range term.Operands {
		lbl, ok := AsLabel(op)
		if !ok {
			continue
		}
		succ := b.Function.GetBasicBlock(lbl.Name)
		if succ == nil {
			continue
		}
		b.cfgOut[lbl.Name] = succ
		succ.cfgIn[b.Label.Name] = b
	}
}

func (b *BasicBlock) CFGOut() []*BasicBlock { return sortedBlocks(b.cfgOut) }

func (b *BasicBlock) CFGIn() []*BasicBlock { return sortedBlocks(b.cfgIn) }

func (b *BasicBlock) CFGInCount() int { return len(b.cfgIn) }

func (b *BasicBlock) CFGOutCount() int { return len(b.cfgOut) }

func sortedBlocks(m map[string]*BasicBlock) []*BasicBlock {
	out := make([]*BasicBlock, 0, len(m))
	for _, bb := range m {
		out = append(out, bb)
	}
	// deterministic order: blocks are sorted by the order they appear in
	// the owning function's block list, not by label text, so output
	// matches source order when a block has multiple predecessors.
	if len(out) > 1 && out[0].Function != nil {
		order := out[0].Function.blockOrder()
		sortByOrder(out, order)
	}
	return out
}

func sortByOrder(blocks []*BasicBlock, order map[string]int) {
	for i := 1; i < len(blocks); i++ {
		j := i
		for j > 0 && order[blocks[j-1].Label.Name] > order[blocks[j].Label.Name] {
			blocks[j-1], blocks[j] = blocks[j], blocks[j-1]
			j--
		}
	}
}

// IsEmpty reports whether the block holds no instructions at all (invalid
// in a finished function; only transiently true mid-construction).
func (b *BasicBlock) IsEmpty() bool { return len(b.Instructions) == 0 }

// Validate checks the structural invariants spec.md §3/§8 require of a
// finished block: non-empty, exactly one terminator as the last
// instruction, phis precede all non-phi instructions, and phi operand
// label set matches cfg_in exactly.
func (b *BasicBlock) Validate() error {
	if b.IsEmpty() {
		return NewCompilerPanic("basic block %q is empty", b.Label.Name)
	}
	for idx, inst := range b.Instructions {
		isLast := idx == len(b.Instructions)-1
		if inst.IsTerminator() && !isLast {
			return NewCompilerPanic("terminator %q in block %q is not the last instruction", inst.Opcode, b.Label.Name)
		}
		if !inst.IsTerminator() && isLast {
			return NewCompilerPanic("block %q does not end in a terminator", b.Label.Name)
		}
	}
	sawNonPhi := false
	for _, inst := range b.Instructions {
		if inst.Opcode == "phi" {
			if sawNonPhi {
				return NewCompilerPanic("phi instruction after non-phi instruction in block %q", b.Label.Name)
			}
			continue
		}
		sawNonPhi = true
	}
	for _, phi := range b.Phis() {
		seen := map[string]struct{}{}
		for _, pair := range phi.PhiOperandPairs() {
			lbl, ok := AsLabel(pair[0])
			if !ok {
				return NewCompilerPanic("phi label operand is not a label in block %q", b.Label.Name)
			}
			seen[lbl.Name] = struct{}{}
		}
		for predName := range b.cfgIn {
			if _, ok := seen[predName]; !ok {
				return NewCompilerPanic("phi in block %q missing operand for predecessor %q", b.Label.Name, predName)
			}
		}
		for name := range seen {
			if _, ok := b.cfgIn[name]; !ok {
				return NewCompilerPanic("phi in block %q has operand for non-predecessor %q", b.Label.Name, name)
			}
		}
	}
	return nil
}

func (b *BasicBlock) String() string {
	var sb strings.Builder
	sb.WriteString(b.Label.Name)
	sb.WriteString(":\n")
	for _, inst := range b.Instructions {
		sb.WriteString("    ")
		sb.WriteString(inst.String())
		sb.WriteString("\n")
	}
	return sb.String()
}
