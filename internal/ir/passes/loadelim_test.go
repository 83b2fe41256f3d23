package passes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venomc/internal/ir"
)

func TestLoadEliminationForwardsStoredValueToMatchingLoad(t *testing.T) {
	ctx := ir.NewContext()
	b := ir.NewBuilder(ctx)
	fn := b.CreateFunction("f")
	x := b.Param("x")
	b.EmitVoid("mstore", 0, x)
	v := b.Emit("mload", "v", 0)
	b.Return(v)

	loadInst := fn.EntryBlock().Instructions[1]
	changed, err := (&LoadElimination{}).Apply(fn)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "assign", loadInst.Opcode)
	got, ok := ir.AsVariable(loadInst.Operands[0])
	require.True(t, ok)
	assert.Equal(t, x.Name, got.Name)
}

func TestLoadEliminationSkipsDistinctOffsets(t *testing.T) {
	ctx := ir.NewContext()
	b := ir.NewBuilder(ctx)
	fn := b.CreateFunction("f")
	x := b.Param("x")
	b.EmitVoid("mstore", 0, x)
	v := b.Emit("mload", "v", 32)
	b.Return(v)

	loadInst := fn.EntryBlock().Instructions[1]
	changed, err := (&LoadElimination{}).Apply(fn)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, "mload", loadInst.Opcode)
}

func TestLoadEliminationInvalidatesOnVariableAddressStore(t *testing.T) {
	ctx := ir.NewContext()
	b := ir.NewBuilder(ctx)
	fn := b.CreateFunction("f")
	x := b.Param("x")
	addr := b.Param("addr")
	z := b.Param("z")
	b.EmitVoid("mstore", 0, x)
	b.EmitVoid("mstore", addr, z)
	v := b.Emit("mload", "v", 0)
	b.Return(v)

	loadInst := fn.EntryBlock().Instructions[2]
	changed, err := (&LoadElimination{}).Apply(fn)
	require.NoError(t, err)
	assert.False(t, changed, "a store to an unresolved address must invalidate every tracked location")
	assert.Equal(t, "mload", loadInst.Opcode)
}

func TestLoadEliminationInvalidatesAcrossAnOpaqueCall(t *testing.T) {
	ctx := ir.NewContext()
	b := ir.NewBuilder(ctx)
	fn := b.CreateFunction("f")
	x := b.Param("x")
	b.EmitVoid("mstore", 0, x)
	b.EmitVoid("call", 0, 0, 0, 0, 0, 0)
	v := b.Emit("mload", "v", 0)
	b.Return(v)

	loadInst := fn.EntryBlock().Instructions[2]
	changed, err := (&LoadElimination{}).Apply(fn)
	require.NoError(t, err)
	assert.False(t, changed, "an opaque call could have overwritten the tracked location")
	assert.Equal(t, "mload", loadInst.Opcode)
}

func TestLoadEliminationForwardsRepeatedLoadWithoutInterveningStore(t *testing.T) {
	ctx := ir.NewContext()
	b := ir.NewBuilder(ctx)
	fn := b.CreateFunction("f")
	v1 := b.Emit("mload", "v1", 0)
	v2 := b.Emit("mload", "v2", 0)
	b.Return(v2)

	secondLoad := fn.EntryBlock().Instructions[1]
	changed, err := (&LoadElimination{}).Apply(fn)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "assign", secondLoad.Opcode)
	got, ok := ir.AsVariable(secondLoad.Operands[0])
	require.True(t, ok)
	assert.Equal(t, v1.Name, got.Name)
}
