package passes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venomc/internal/ir"
)

func TestBranchOptimizationCollapsesSameTargetJnzToJmp(t *testing.T) {
	ctx := ir.NewContext()
	b := ir.NewBuilder(ctx)
	fn := b.CreateFunction("f")
	join := b.CreateBlock("join")
	cond := b.Param("cond")
	b.Branch(cond, join, join)
	b.SetCurrentBlock(join)
	b.Return(nil)

	changed, err := (&BranchOptimization{}).Apply(fn)
	require.NoError(t, err)
	assert.True(t, changed)

	term := fn.EntryBlock().Terminator()
	assert.Equal(t, "jmp", term.Opcode)
	require.Len(t, term.Operands, 1)
}

func TestBranchOptimizationUnwrapsIszeroBySwappingTargets(t *testing.T) {
	ctx := ir.NewContext()
	b := ir.NewBuilder(ctx)
	fn := b.CreateFunction("f")
	thenBB := b.CreateBlock("then")
	elseBB := b.CreateBlock("else")
	cond := b.Param("cond")
	notCond := b.Emit("iszero", "notcond", cond)
	b.Branch(notCond, thenBB, elseBB)
	b.SetCurrentBlock(thenBB)
	b.Return(nil)
	b.SetCurrentBlock(elseBB)
	b.Return(nil)

	changed, err := (&BranchOptimization{}).Apply(fn)
	require.NoError(t, err)
	assert.True(t, changed)

	term := fn.EntryBlock().Terminator()
	require.Equal(t, "jnz", term.Opcode)
	require.Len(t, term.Operands, 3)
	v, ok := ir.AsVariable(term.Operands[0])
	require.True(t, ok)
	assert.Equal(t, cond.Name, v.Name, "the branch must now test the un-negated condition directly")

	thenLbl, _ := ir.AsLabel(term.Operands[1])
	elseLbl, _ := ir.AsLabel(term.Operands[2])
	assert.Equal(t, "else", thenLbl.Name, "targets swap to compensate for dropping the negation")
	assert.Equal(t, "then", elseLbl.Name)
}

func TestBranchOptimizationLeavesOrdinaryBranchAlone(t *testing.T) {
	ctx := ir.NewContext()
	b := ir.NewBuilder(ctx)
	fn := b.CreateFunction("f")
	thenBB := b.CreateBlock("then")
	elseBB := b.CreateBlock("else")
	cond := b.Param("cond")
	b.Branch(cond, thenBB, elseBB)
	b.SetCurrentBlock(thenBB)
	b.Return(nil)
	b.SetCurrentBlock(elseBB)
	b.Return(nil)

	changed, err := (&BranchOptimization{}).Apply(fn)
	require.NoError(t, err)
	assert.False(t, changed)
}
