package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunctionAppendBlockUniquifiesRepeatedNameHints(t *testing.T) {
	fn := NewFunction("f")
	a := fn.AppendBlock("loop")
	b := fn.AppendBlock("loop")
	c := fn.AppendBlock("loop")

	assert.Equal(t, "loop", a.Label.Name)
	assert.Equal(t, "loop_2", b.Label.Name)
	assert.Equal(t, "loop_3", c.Label.Name)
	assert.Same(t, a, fn.EntryBlock())
}

func TestFunctionGetBasicBlockLooksUpByName(t *testing.T) {
	fn := NewFunction("f")
	bb := fn.AppendBlock("target")
	assert.Same(t, bb, fn.GetBasicBlock("target"))
	assert.Nil(t, fn.GetBasicBlock("missing"))
}

func TestFunctionInsertBlockAfterPreservesOrder(t *testing.T) {
	fn := NewFunction("f")
	first := fn.AppendBlock("first")
	last := fn.AppendBlock("last")
	middle := fn.InsertBlockAfter(first, "middle")

	blocks := fn.Blocks()
	require.Len(t, blocks, 3)
	assert.Same(t, first, blocks[0])
	assert.Same(t, middle, blocks[1])
	assert.Same(t, last, blocks[2])
}

func TestFunctionRemoveBlockDropsItFromOrderAndLookup(t *testing.T) {
	fn := NewFunction("f")
	fn.AppendBlock("entry")
	doomed := fn.AppendBlock("doomed")
	fn.AppendBlock("after")

	fn.RemoveBlock(doomed)

	assert.Len(t, fn.Blocks(), 2)
	assert.Nil(t, fn.GetBasicBlock("doomed"))
}

func TestFunctionFreshVariableIsUniquePerFunction(t *testing.T) {
	fn := NewFunction("f")
	a := fn.FreshVariable("t")
	b := fn.FreshVariable("t")
	assert.NotEqual(t, a.Name, b.Name)
}

func TestFunctionValidateRejectsAFunctionWithNoBlocks(t *testing.T) {
	fn := NewFunction("f")
	err := fn.Validate()
	require.Error(t, err)
}

func TestFunctionAppendBlockInvalidatesTheAnalysisCache(t *testing.T) {
	fn := NewFunction("f")
	fn.AppendBlock("entry")
	count := 0
	zero := &countingAnalysis{computeCount: &count}
	fn.Cache().Request(zero)
	fn.AppendBlock("more")
	fn.Cache().Request(zero)
	assert.Equal(t, 2, count, "structural edits must invalidate cached analyses")
}
