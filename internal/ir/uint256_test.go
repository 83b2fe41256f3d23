package ir

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUint256FromBigIntWrapsNegativeIntoUnsignedRange(t *testing.T) {
	u := Uint256FromBigInt(big.NewInt(-1))
	assert.Equal(t, MaxUint256().String(), u.String())
}

func TestUint256FromBigIntWrapsValuesAboveTheCeiling(t *testing.T) {
	over := new(big.Int).Add(maxUint256, big.NewInt(5))
	u := Uint256FromBigInt(over)
	assert.Equal(t, "4", u.String())
}

func TestUint256ToSignedRoundTripsThroughFromSigned(t *testing.T) {
	neg := big.NewInt(-42)
	u := FromSigned(neg)
	assert.Equal(t, neg.String(), u.ToSigned().String())

	pos := big.NewInt(42)
	u2 := FromSigned(pos)
	assert.Equal(t, pos.String(), u2.ToSigned().String())
}

func TestUint256ToSignedTreatsTopBitAsNegative(t *testing.T) {
	u := MaxUint256()
	assert.Equal(t, "-1", u.ToSigned().String())
}

func TestUint256EqualAndCmp(t *testing.T) {
	a := Uint256FromInt64(7)
	b := Uint256FromInt64(7)
	c := Uint256FromInt64(9)
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.Equal(t, -1, a.Cmp(c))
	assert.Equal(t, 1, c.Cmp(a))
}

func TestUint256IsZero(t *testing.T) {
	assert.True(t, Uint256FromInt64(0).IsZero())
	assert.False(t, Uint256FromInt64(1).IsZero())
}

func TestUint256BigIntReturnsAnIndependentCopy(t *testing.T) {
	u := Uint256FromInt64(5)
	b := u.BigInt()
	b.Add(b, big.NewInt(100))
	assert.Equal(t, "5", u.String(), "mutating the returned big.Int must not alias the Uint256's internal value")
}

func TestBigIntHelperSetStringAndNegate(t *testing.T) {
	var b bigInt
	ok := b.setString("ff", 16)
	require.True(t, ok)
	assert.Equal(t, "255", b.v.String())

	b.negate()
	assert.Equal(t, "-255", b.v.String())

	want := new(big.Int).Sub(MaxUint256().BigInt(), big.NewInt(254))
	u := b.toUint256()
	assert.Equal(t, want.String(), u.String())
}

func TestBigIntHelperSetStringRejectsInvalidInput(t *testing.T) {
	var b bigInt
	ok := b.setString("not-a-number", 10)
	assert.False(t, ok)
}
