package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileSimpleArithmeticAndReturn(t *testing.T) {
	ctx := NewContext()
	b := NewBuilder(ctx)
	b.CreateFunction("f")
	x := b.Emit("add", "x", 1, 2)
	b.Return(x)

	spiller := NewStackSpiller(ctx, nil)
	out, err := Compile(ctx, spiller)
	require.NoError(t, err)
	asm := out["f"]
	require.NotNil(t, asm)

	require.True(t, len(asm.Items) >= 4)
	assert.NotNil(t, asm.Items[0].Label)
	assert.Equal(t, "f", asm.Items[0].Label.Name)

	// add(1, 2) is stored internally as operands [2, 1]; emitInstruction
	// brings each to the top in list order, so 2 is pushed before 1.
	require.NotNil(t, asm.Items[1].Push)
	assert.Equal(t, "2", asm.Items[1].Push.String())
	require.NotNil(t, asm.Items[2].Push)
	assert.Equal(t, "1", asm.Items[2].Push.String())
	assert.Equal(t, "ADD", asm.Items[3].Op)

	foundRet := false
	for _, it := range asm.Items {
		if it.Op == "RET" {
			foundRet = true
		}
	}
	assert.True(t, foundRet, "a ret instruction must lower to a mnemonic")
}

func TestCompileBranchEmitsJumpiThenJump(t *testing.T) {
	ctx := NewContext()
	b := NewBuilder(ctx)
	b.CreateFunction("f")
	cond := b.Param("cond")
	thenBB := b.CreateBlock("then")
	elseBB := b.CreateBlock("else")
	b.Branch(cond, thenBB, elseBB)
	b.SetCurrentBlock(thenBB)
	b.Return(nil)
	b.SetCurrentBlock(elseBB)
	b.Return(nil)

	spiller := NewStackSpiller(ctx, nil)
	out, err := Compile(ctx, spiller)
	require.NoError(t, err)
	asm := out["f"]
	require.NotNil(t, asm)

	var ops []string
	var labels []string
	for _, it := range asm.Items {
		switch {
		case it.PushLabel != nil:
			ops = append(ops, "PUSHLABEL:"+it.PushLabel.Name)
		case it.Label != nil:
			labels = append(labels, it.Label.Name)
		case it.Op != "":
			ops = append(ops, it.Op)
		}
	}

	require.Contains(t, ops, "JUMPI")
	require.Contains(t, ops, "JUMP")
	jumpiIdx, jumpIdx := -1, -1
	for i, o := range ops {
		if o == "JUMPI" && jumpiIdx == -1 {
			jumpiIdx = i
		}
		if o == "JUMP" && jumpIdx == -1 {
			jumpIdx = i
		}
	}
	assert.Less(t, jumpiIdx, jumpIdx, "the conditional jump must be emitted before the fallthrough jump")

	assert.Contains(t, labels, "f")
	assert.Contains(t, labels, "then")
	assert.Contains(t, labels, "else")

	stopCount := 0
	for _, o := range ops {
		if o == "STOP" {
			stopCount++
		}
	}
	assert.Equal(t, 2, stopCount, "both branch arms terminate with stop")
}

func TestCompileDjmpPopsAfterJump(t *testing.T) {
	ctx := NewContext()
	b := NewBuilder(ctx)
	b.CreateFunction("f")
	target := b.Param("target")
	b.EmitVoid("djmp", target)

	spiller := NewStackSpiller(ctx, nil)
	out, err := Compile(ctx, spiller)
	require.NoError(t, err)
	asm := out["f"]

	sawJump := false
	for _, it := range asm.Items {
		if it.Op == "JUMP" {
			sawJump = true
		}
	}
	assert.True(t, sawJump)
}

func TestCompileAssignPokesOutputOverOperand(t *testing.T) {
	ctx := NewContext()
	b := NewBuilder(ctx)
	b.CreateFunction("f")
	y := b.Emit("assign", "y", 7)
	b.Return(y)

	spiller := NewStackSpiller(ctx, nil)
	out, err := Compile(ctx, spiller)
	require.NoError(t, err)
	asm := out["f"]

	require.NotNil(t, asm.Items[1].Push)
	assert.Equal(t, "7", asm.Items[1].Push.String())
}

func TestCompileDupsASharedOperandRatherThanConsumingIt(t *testing.T) {
	ctx := NewContext()
	b := NewBuilder(ctx)
	b.CreateFunction("f")
	x := b.Emit("add", "x", 1, 2)
	b.Emit("mul", "y", x, x)
	b.Return(nil)

	spiller := NewStackSpiller(ctx, nil)
	out, err := Compile(ctx, spiller)
	require.NoError(t, err)
	asm := out["f"]

	dupSeen := false
	for _, it := range asm.Items {
		if it.Op == "DUP1" {
			dupSeen = true
		}
	}
	assert.True(t, dupSeen, "re-reading the same live variable twice must duplicate it, not consume it")
}

func TestOpcodeMnemonicMapsSha3Alias(t *testing.T) {
	assert.Equal(t, "SHA3", opcodeMnemonic("sha3"))
	assert.Equal(t, "SHA3", opcodeMnemonic("keccak256"))
	assert.Equal(t, "ADD", opcodeMnemonic("add"))
}

func TestBringToTopRestoresFromSpillSlot(t *testing.T) {
	ctx := NewContext()
	fn := ctx.CreateFunction("f")
	fn.AppendBlock("entry")
	spiller := NewStackSpiller(ctx, nil)
	spiller.SetCurrentFunction(fn)

	stack := NewStackModel()
	v := NewVariable("x")
	asm := NewAssembly()
	spilled := map[Operand]int64{}
	stack.Push(v)
	require.NoError(t, spiller.SpillOperand(asm, stack, spilled, 0, false))

	require.NoError(t, bringToTop(spiller, asm, stack, spilled, v, false))
	assert.Equal(t, v, stack.Peek(0))
	_, stillSpilled := spilled[v]
	assert.False(t, stillSpilled)
}

func TestBringToTopRejectsOperandNotOnStackOrSpilled(t *testing.T) {
	ctx := NewContext()
	fn := ctx.CreateFunction("f")
	fn.AppendBlock("entry")
	spiller := NewStackSpiller(ctx, nil)
	spiller.SetCurrentFunction(fn)
	stack := NewStackModel()
	asm := NewAssembly()

	err := bringToTop(spiller, asm, stack, map[Operand]int64{}, NewVariable("ghost"), false)
	require.Error(t, err)
}
