package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildFlatDiamond builds, in flat (pre-SSA, name-only) form, a function
// that defines "x" differently on each arm of a diamond and reads it back
// at the join, so MakeSSA must insert a phi for x at join.
func buildFlatDiamond(t *testing.T) (*Function, *BasicBlock, *BasicBlock, *BasicBlock, *BasicBlock) {
	t.Helper()
	ctx := NewContext()
	fn := ctx.CreateFunction("f")
	entry := fn.AppendBlock("entry")
	left := fn.AppendBlock("left")
	right := fn.AppendBlock("right")
	join := fn.AppendBlock("join")

	entry.Append(&Instruction{Opcode: "add", Operands: []Operand{LiteralFromInt64(1), LiteralFromInt64(1)}, Output: NewVariable("x")})
	entry.Append(&Instruction{Opcode: "jnz", Operands: []Operand{NewVariable("x"), left.Label, right.Label}})
	entry.RecomputeCFGOut()

	left.Append(&Instruction{Opcode: "add", Operands: []Operand{NewVariable("x"), LiteralFromInt64(1)}, Output: NewVariable("x")})
	left.Append(&Instruction{Opcode: "jmp", Operands: []Operand{join.Label}})
	left.RecomputeCFGOut()

	right.Append(&Instruction{Opcode: "add", Operands: []Operand{NewVariable("x"), LiteralFromInt64(2)}, Output: NewVariable("x")})
	right.Append(&Instruction{Opcode: "jmp", Operands: []Operand{join.Label}})
	right.RecomputeCFGOut()

	join.Append(&Instruction{Opcode: "ret", Operands: []Operand{NewVariable("x")}})

	return fn, entry, left, right, join
}

func TestMakeSSAInsertsPhiAtJoin(t *testing.T) {
	fn, _, left, right, join := buildFlatDiamond(t)
	require.NoError(t, MakeSSA(fn))

	phis := join.Phis()
	require.Len(t, phis, 1, "the join block must gain exactly one phi for x")
	phi := phis[0]
	assert.Equal(t, "x", phi.Output.Name)
	assert.NotZero(t, phi.Output.Version, "the phi's own output must be a freshly versioned definition")

	pairs := phi.PhiOperandPairs()
	require.Len(t, pairs, 2)
	seen := map[string]*Variable{}
	for _, p := range pairs {
		lbl, ok := AsLabel(p[0])
		require.True(t, ok)
		v, ok := AsVariable(p[1])
		require.True(t, ok)
		seen[lbl.Name] = v
	}
	leftVal, ok := seen[left.Label.Name]
	require.True(t, ok)
	rightVal, ok := seen[right.Label.Name]
	require.True(t, ok)
	assert.NotEqual(t, leftVal.Version, rightVal.Version, "each arm must contribute its own distinct version of x")
}

func TestMakeSSAVersionsEveryDefinitionDistinctly(t *testing.T) {
	fn, entry, left, right, _ := buildFlatDiamond(t)
	require.NoError(t, MakeSSA(fn))

	entryDef := entry.Instructions[0].Output
	leftDef := left.Instructions[0].Output
	rightDef := right.Instructions[0].Output

	assert.Equal(t, "x", entryDef.Name)
	assert.NotEqual(t, entryDef.Version, leftDef.Version)
	assert.NotEqual(t, entryDef.Version, rightDef.Version)
	assert.NotEqual(t, leftDef.Version, rightDef.Version)
}

func TestMakeSSARenamesUsesToReachingDefinition(t *testing.T) {
	fn, entry, left, _, _ := buildFlatDiamond(t)
	require.NoError(t, MakeSSA(fn))

	entryDef := entry.Instructions[0].Output
	leftAdd := left.Instructions[0]
	used, ok := AsVariable(leftAdd.Operands[0])
	require.True(t, ok)
	assert.Equal(t, entryDef.Version, used.Version, "left's use of x must reach entry's definition, not a later one")
}

func TestMakeSSAKeepsFnParamsInSyncWithTheRenamedParamInstructions(t *testing.T) {
	ctx := NewContext()
	b := NewBuilder(ctx)
	fn := b.CreateFunction("f")
	x := b.Param("x")
	r := b.Emit("add", "r", x, 1)
	b.Return(r)

	require.NoError(t, MakeSSA(fn))

	require.Len(t, fn.Params, 1)
	paramInst := fn.EntryBlock().Instructions[0]
	require.Equal(t, "param", paramInst.Opcode)
	assert.Same(t, paramInst.Output, fn.Params[0], "fn.Params must point at the same renamed variable the param instruction now carries")

	addInst := fn.EntryBlock().Instructions[1]
	used, ok := AsVariable(addInst.Operands[0])
	require.True(t, ok)
	assert.Equal(t, fn.Params[0].Version, used.Version, "the body's reference to x must resolve to the same version fn.Params reports")
}

func TestSimplifyDegeneratePhiWithSinglePredecessorBecomesAssign(t *testing.T) {
	ctx := NewContext()
	fn := ctx.CreateFunction("f")
	entry := fn.AppendBlock("entry")
	join := fn.AppendBlock("join")
	entry.Append(&Instruction{Opcode: "jmp", Operands: []Operand{join.Label}})
	entry.RecomputeCFGOut()

	phi := &Instruction{
		Opcode:   "phi",
		Operands: []Operand{entry.Label, NewVariable("v")},
		Output:   NewVariable("out"),
	}
	join.Append(phi)
	join.Append(&Instruction{Opcode: "stop"})

	simplifyDegeneratePhis(fn)

	assert.Equal(t, "assign", phi.Opcode)
	require.Len(t, phi.Operands, 1)
}
