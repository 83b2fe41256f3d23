package passes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venomc/internal/ir"
)

func TestScheduleBodyReordersIndependentPureInstructions(t *testing.T) {
	ctx := ir.NewContext()
	b := ir.NewBuilder(ctx)
	fn := b.CreateFunction("f")
	pInst := b.Emit("iszero", "p", 1)
	qInst := b.Emit("iszero", "q", 2)
	b.Return(nil)

	dfg := ir.RequestDFG(fn)
	body := fn.EntryBlock().Instructions[0:2]
	pFirst := body[0].Output.Name == pInst.Name
	require.True(t, pFirst)

	scheduled := scheduleBody(body, dfg)
	require.Len(t, scheduled, 2)
	assert.Equal(t, qInst.Name, scheduled[0].Output.Name, "the independent second instruction may move ahead of the first")
	assert.Equal(t, pInst.Name, scheduled[1].Output.Name)
}

func TestScheduleBodyPreservesTrueDataDependency(t *testing.T) {
	ctx := ir.NewContext()
	b := ir.NewBuilder(ctx)
	fn := b.CreateFunction("f")
	x := b.Emit("add", "x", 1, 2)
	b.Emit("add", "y", x, 5)
	b.Return(nil)

	dfg := ir.RequestDFG(fn)
	body := fn.EntryBlock().Instructions[0:2]
	scheduled := scheduleBody(body, dfg)

	assert.Equal(t, body[0], scheduled[0], "a producer must never be scheduled after its consumer")
	assert.Equal(t, body[1], scheduled[1])
}

func TestScheduleBodyNeverCrossesAMemoryConflict(t *testing.T) {
	ctx := ir.NewContext()
	b := ir.NewBuilder(ctx)
	fn := b.CreateFunction("f")
	b.EmitVoid("mstore", 0, 1)
	b.Emit("mload", "v", 0)
	b.Return(nil)

	dfg := ir.RequestDFG(fn)
	body := fn.EntryBlock().Instructions[0:2]
	scheduled := scheduleBody(body, dfg)

	assert.Equal(t, "mstore", scheduled[0].Opcode, "a store must never be scheduled after a load it could alias")
	assert.Equal(t, "mload", scheduled[1].Opcode)
}

func TestDFTSchedulingApplyLeavesShortBlocksAlone(t *testing.T) {
	ctx := ir.NewContext()
	b := ir.NewBuilder(ctx)
	fn := b.CreateFunction("f")
	b.Return(nil)

	changed, err := (&DFTScheduling{}).Apply(fn)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestDFTSchedulingApplyReordersAndInvalidatesCache(t *testing.T) {
	ctx := ir.NewContext()
	b := ir.NewBuilder(ctx)
	fn := b.CreateFunction("f")
	b.Emit("iszero", "p", 1)
	b.Emit("iszero", "q", 2)
	b.Return(nil)

	changed, err := (&DFTScheduling{}).Apply(fn)
	require.NoError(t, err)
	assert.True(t, changed)
	require.NoError(t, fn.Validate())
}
