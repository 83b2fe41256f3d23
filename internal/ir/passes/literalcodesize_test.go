package passes

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venomc/internal/ir"
)

func maxUint256() *big.Int {
	return new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
}

func TestLiteralCodesizeRewritesNearMaxValueAsComplement(t *testing.T) {
	ctx := ir.NewContext()
	b := ir.NewBuilder(ctx)
	fn := b.CreateFunction("f")
	v := new(big.Int).Sub(maxUint256(), big.NewInt(5))
	lit := ir.NewLiteral(ir.Uint256FromBigInt(v))
	b.Emit("assign", "out", lit)

	inst := fn.EntryBlock().Instructions[0]
	changed, err := (&LiteralCodesize{}).Apply(fn)
	require.NoError(t, err)
	assert.True(t, changed)
	require.Equal(t, "not", inst.Opcode)
	got, ok := ir.AsLiteral(inst.Operands[0])
	require.True(t, ok)
	assert.Equal(t, "5", got.String())
}

func TestLiteralCodesizeRewritesPowerOfTwoMultipleAsShift(t *testing.T) {
	ctx := ir.NewContext()
	b := ir.NewBuilder(ctx)
	fn := b.CreateFunction("f")
	v := new(big.Int).Lsh(big.NewInt(1), 32)
	lit := ir.NewLiteral(ir.Uint256FromBigInt(v))
	b.Emit("assign", "out", lit)

	inst := fn.EntryBlock().Instructions[0]
	changed, err := (&LiteralCodesize{}).Apply(fn)
	require.NoError(t, err)
	assert.True(t, changed)
	require.Equal(t, "shl", inst.Opcode)
	require.Len(t, inst.Operands, 2)
	reduced, ok := ir.AsLiteral(inst.Operands[0])
	require.True(t, ok)
	assert.Equal(t, "1", reduced.String())
	shift, ok := ir.AsLiteral(inst.Operands[1])
	require.True(t, ok)
	assert.Equal(t, "32", shift.String())
}

func TestLiteralCodesizeLeavesAnAlreadyCheapLiteralAlone(t *testing.T) {
	ctx := ir.NewContext()
	b := ir.NewBuilder(ctx)
	fn := b.CreateFunction("f")
	b.Emit("assign", "out", 42)

	inst := fn.EntryBlock().Instructions[0]
	changed, err := (&LiteralCodesize{}).Apply(fn)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, "assign", inst.Opcode)
	lit, ok := ir.AsLiteral(inst.Operands[0])
	require.True(t, ok)
	assert.Equal(t, "42", lit.String())
}

func TestLiteralCodesizeLeavesZeroAlone(t *testing.T) {
	ctx := ir.NewContext()
	b := ir.NewBuilder(ctx)
	fn := b.CreateFunction("f")
	b.Emit("assign", "out", 0)

	changed, err := (&LiteralCodesize{}).Apply(fn)
	require.NoError(t, err)
	assert.False(t, changed)
}
