package ir

import "strings"

// Function owns an ordered list of basic blocks, the first of which is the
// entry block. Function is itself owned by a Context; instructions and
// blocks never outlive their Function.
type Function struct {
	Name    string
	Params  []*Variable
	Context *Context

	blocks    []*BasicBlock
	blockByID map[string]*BasicBlock

	varCounter   int
	blockCounter int

	cache *AnalysisCache

	// Allocator tracks memory-location reservations (allocas) made during
	// SSA construction; Compile concretizes them to fixed offsets through
	// Allocator.Concretize.
	Allocator *Allocator
}

func NewFunction(name string) *Function {
	f := &Function{
		Name:      name,
		blockByID: map[string]*BasicBlock{},
		Allocator: NewAllocator(),
	}
	f.cache = NewAnalysisCache(f)
	return f
}

// EntryBlock returns the function's first block, or nil if the function has
// none yet.
func (f *Function) EntryBlock() *BasicBlock {
	if len(f.blocks) == 0 {
		return nil
	}
	return f.blocks[0]
}

func (f *Function) Blocks() []*BasicBlock { return f.blocks }

func (f *Function) GetBasicBlock(name string) *BasicBlock { return f.blockByID[name] }

// AppendBlock creates a fresh block, appends it to the function's block
// list, and returns it — mirrors the builder's append_block vs create_block
// split in spec.md §4.1: AppendBlock both creates and links into the order.
func (f *Function) AppendBlock(nameHint string) *BasicBlock {
	name := f.freshBlockName(nameHint)
	bb := NewBasicBlock(NewLabel(name))
	bb.Function = f
	f.blocks = append(f.blocks, bb)
	f.blockByID[name] = bb
	f.invalidateStructural()
	return bb
}

// InsertBlockAfter inserts a newly created block immediately after `after`
// in block order, without requiring a full re-append; used by CFG-altering
// passes (SimplifyCFG, CFGNormalization) that need precise placement.
func (f *Function) InsertBlockAfter(after *BasicBlock, nameHint string) *BasicBlock {
	name := f.freshBlockName(nameHint)
	bb := NewBasicBlock(NewLabel(name))
	bb.Function = f
	idx := f.blockIndex(after)
	f.blocks = append(f.blocks, nil)
	copy(f.blocks[idx+2:], f.blocks[idx+1:])
	f.blocks[idx+1] = bb
	f.blockByID[name] = bb
	f.invalidateStructural()
	return bb
}

func (f *Function) blockIndex(bb *BasicBlock) int {
	for i, x := range f.blocks {
		if x == bb {
			return i
		}
	}
	return len(f.blocks) - 1
}

// RemoveBlock deletes bb from the function entirely; callers must have
// already redirected/cleared any cfg_in edges into bb.
func (f *Function) RemoveBlock(bb *BasicBlock) {
	for i, x := range f.blocks {
		if x == bb {
			f.blocks = append(f.blocks[:i], f.blocks[i+1:]...)
			break
		}
	}
	delete(f.blockByID, bb.Label.Name)
	f.invalidateStructural()
}

// reindexBlocks rebuilds blockByID from the current f.blocks/Label state;
// needed after anything renames a block's Label in place (FreshenVarnames)
// rather than going through AppendBlock/InsertBlockAfter/RemoveBlock, since
// those are the only other places blockByID is kept in sync with a block's
// name.
func (f *Function) reindexBlocks() {
	f.blockByID = make(map[string]*BasicBlock, len(f.blocks))
	for _, bb := range f.blocks {
		f.blockByID[bb.Label.Name] = bb
	}
}

func (f *Function) blockOrder() map[string]int {
	m := make(map[string]int, len(f.blocks))
	for i, bb := range f.blocks {
		m[bb.Label.Name] = i
	}
	return m
}

func (f *Function) freshBlockName(hint string) string {
	if hint == "" {
		hint = "block"
	}
	for {
		f.blockCounter++
		name := hint
		if _, used := f.blockByID[name]; !used {
			return name
		}
		name = hint + "_" + itoa(f.blockCounter)
		if _, used := f.blockByID[name]; !used {
			return name
		}
	}
}

// FreshVariable returns a new, function-unique base-named SSA variable
// (version 0; MakeSSA assigns real versions during renaming).
func (f *Function) FreshVariable(hint string) *Variable {
	if hint == "" {
		hint = "v"
	}
	f.varCounter++
	return NewVariable(hint + itoa(f.varCounter))
}

func (f *Function) Cache() *AnalysisCache { return f.cache }

func (f *Function) invalidateStructural() {
	f.cache.InvalidateAll()
}

// RecomputeAllCFG rebuilds cfg_in/cfg_out for every block from scratch;
// used after bulk structural edits (parsing, inlining) where incremental
// RecomputeCFGOut calls would be error-prone to sequence correctly.
func (f *Function) RecomputeAllCFG() {
	for _, bb := range f.blocks {
		bb.cfgOut = map[string]*BasicBlock{}
		bb.cfgIn = map[string]*BasicBlock{}
	}
	for _, bb := range f.blocks {
		bb.RecomputeCFGOut()
	}
}

// Validate checks every block's local invariants plus whole-function
// reachability-independent structure (unreachable blocks are allowed to
// exist transiently but SimplifyCFG is expected to prune them).
func (f *Function) Validate() error {
	if len(f.blocks) == 0 {
		return NewCompilerPanic("function %q has no blocks", f.Name)
	}
	for _, bb := range f.blocks {
		if err := bb.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (f *Function) String() string {
	var sb strings.Builder
	sb.WriteString("function ")
	sb.WriteString(f.Name)
	sb.WriteString("(")
	for i, p := range f.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.String())
	}
	sb.WriteString(") {\n")
	for _, bb := range f.blocks {
		sb.WriteString(bb.String())
	}
	sb.WriteString("}\n")
	return sb.String()
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
