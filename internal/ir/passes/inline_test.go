package passes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venomc/internal/ir"
)

func buildSmallCallee(ctx *ir.Context, name string) *ir.Function {
	b := ir.NewBuilder(ctx)
	callee := b.CreateFunction(name)
	p := b.Param("p")
	r := b.Emit("add", "r", p, 1)
	b.Return(r)
	return callee
}

func TestInlineSplicesSingleBlockCalleeIntoCallSite(t *testing.T) {
	ctx := ir.NewContext()
	callee := buildSmallCallee(ctx, "callee")

	b := ir.NewBuilder(ctx)
	caller := b.CreateFunction("caller")
	x := b.Param("x")
	result, err := b.Invoke(ir.NewLabel(callee.Name), 1, "result", x)
	require.NoError(t, err)
	b.Return(result)

	changed, err := NewInline().ApplyContext(ctx)
	require.NoError(t, err)
	assert.True(t, changed)

	entry := caller.EntryBlock()
	for _, inst := range entry.Instructions {
		assert.NotEqual(t, "invoke", inst.Opcode, "the call site must be fully replaced by the callee's body")
	}
	term := entry.Terminator()
	require.Equal(t, "ret", term.Opcode)
	v, ok := ir.AsVariable(term.Operands[0])
	require.True(t, ok)
	assert.Contains(t, v.Name, "inline", "the spliced return value should be a freshened local, not the caller's own variable")
}

func TestInlineRejectsMultiBlockCallee(t *testing.T) {
	ctx := ir.NewContext()
	b := ir.NewBuilder(ctx)
	callee := b.CreateFunction("callee")
	other := b.CreateBlock("other")
	b.Jump(other)
	b.SetCurrentBlock(other)
	b.Return(nil)

	b2 := ir.NewBuilder(ctx)
	caller := b2.CreateFunction("caller")
	_, err := b2.Invoke(ir.NewLabel(callee.Name), 0, "")
	require.NoError(t, err)
	b2.Return(nil)

	changed, err := NewInline().ApplyContext(ctx)
	require.NoError(t, err)
	assert.False(t, changed)

	entry := caller.EntryBlock()
	assert.Equal(t, "invoke", entry.Instructions[0].Opcode)
}

func TestInlineRejectsCalleeOverTheInstructionBudget(t *testing.T) {
	ctx := ir.NewContext()
	b := ir.NewBuilder(ctx)
	callee := b.CreateFunction("big")
	p := b.Param("p")
	v := p
	for i := 0; i < 20; i++ {
		v = b.Emit("add", "v", v, 1)
	}
	b.Return(v)

	b2 := ir.NewBuilder(ctx)
	caller := b2.CreateFunction("caller")
	x := b2.Param("x")
	_, err := b2.Invoke(ir.NewLabel(callee.Name), 1, "result", x)
	require.NoError(t, err)
	b2.Return(nil)

	inline := NewInline()
	inline.MaxCalleeInstructions = 12
	changed, err := inline.ApplyContext(ctx)
	require.NoError(t, err)
	assert.False(t, changed)

	entry := caller.EntryBlock()
	assert.Equal(t, "invoke", entry.Instructions[0].Opcode)
}
