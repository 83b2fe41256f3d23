package passes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venomc/internal/ir"
)

func TestSCCPFoldsConstantArithmeticIntoAssign(t *testing.T) {
	ctx := ir.NewContext()
	b := ir.NewBuilder(ctx)
	fn := b.CreateFunction("f")
	x := b.Emit("add", "x", 1, 2)
	b.Return(x)

	changed, err := (&SCCP{}).Apply(fn)
	require.NoError(t, err)
	assert.True(t, changed)

	entry := fn.EntryBlock()
	inst := entry.Instructions[0]
	assert.Equal(t, "assign", inst.Opcode)
	lit, ok := ir.AsLiteral(inst.Operands[0])
	require.True(t, ok)
	assert.Equal(t, "3", lit.String())
}

func TestSCCPFoldsJnzWithConstantConditionToJmp(t *testing.T) {
	ctx := ir.NewContext()
	b := ir.NewBuilder(ctx)
	fn := b.CreateFunction("f")
	thenBB := b.CreateBlock("then")
	elseBB := b.CreateBlock("else")
	b.Branch(ir.LiteralFromInt64(1), thenBB, elseBB)
	b.SetCurrentBlock(thenBB)
	b.Return(nil)
	b.SetCurrentBlock(elseBB)
	b.Return(nil)

	changed, err := (&SCCP{}).Apply(fn)
	require.NoError(t, err)
	assert.True(t, changed)

	term := fn.EntryBlock().Terminator()
	require.Equal(t, "jmp", term.Opcode)
	lbl, ok := ir.AsLabel(term.Operands[0])
	require.True(t, ok)
	assert.Equal(t, "then", lbl.Name)
}

func TestSCCPStaticallyFalseAssertIsAnError(t *testing.T) {
	ctx := ir.NewContext()
	b := ir.NewBuilder(ctx)
	fn := b.CreateFunction("f")
	b.EmitVoid("assert", 0)
	b.Return(nil)

	_, err := (&SCCP{}).Apply(fn)
	require.Error(t, err)
	d, ok := err.(ir.Diagnostic)
	require.True(t, ok)
	assert.Equal(t, "static_assertion_failure", d.Kind())
}

func TestSCCPStaticallyTrueAssertBecomesNop(t *testing.T) {
	ctx := ir.NewContext()
	b := ir.NewBuilder(ctx)
	fn := b.CreateFunction("f")
	b.EmitVoid("assert", 1)
	b.Return(nil)

	changed, err := (&SCCP{}).Apply(fn)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "nop", fn.EntryBlock().Instructions[0].Opcode)
}

func TestSCCPPhiIgnoresUnreachablePredecessor(t *testing.T) {
	ctx := ir.NewContext()
	b := ir.NewBuilder(ctx)
	fn := b.CreateFunction("f")
	dead := b.CreateBlock("dead")
	live := b.CreateBlock("live")
	join := b.CreateBlock("join")

	b.Branch(ir.LiteralFromInt64(1), live, dead)

	b.SetCurrentBlock(dead)
	b.Jump(join)

	b.SetCurrentBlock(live)
	b.Jump(join)

	b.SetCurrentBlock(join)
	deadVal := ir.LiteralFromInt64(99)
	liveVal := ir.LiteralFromInt64(7)
	out := b.Phi("p", [2]any{dead.Label, deadVal}, [2]any{live.Label, liveVal})
	b.Return(out)

	changed, err := (&SCCP{}).Apply(fn)
	require.NoError(t, err)
	assert.True(t, changed)

	phiInst := join.Instructions[0]
	// the dead predecessor's value must never influence the merge: only
	// the live arm's constant (7) should have propagated, folding the phi
	// to an assign of 7 rather than leaving it unresolved or at 99.
	require.Equal(t, "assign", phiInst.Opcode, "join is reachable only via jmp edges and must still be visited")
	lit, ok := ir.AsLiteral(phiInst.Operands[0])
	require.True(t, ok)
	assert.Equal(t, "7", lit.String())
}
