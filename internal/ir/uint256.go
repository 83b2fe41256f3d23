package ir

import "math/big"

// Uint256 wraps math/big.Int and keeps every value normalized into
// [0, 2**256) the way the EVM word model requires; all arithmetic helpers
// wrap rather than overflow, mirroring vyper's SizeLimits/evm_* helpers.
type Uint256 struct {
	v *big.Int
}

var (
	ceiling256 = new(big.Int).Lsh(big.NewInt(1), 256)
	maxUint256 = new(big.Int).Sub(ceiling256, big.NewInt(1))
)

func Uint256FromInt64(v int64) Uint256 {
	return Uint256FromBigInt(big.NewInt(v))
}

func Uint256FromBigInt(v *big.Int) Uint256 {
	r := new(big.Int).Mod(v, ceiling256)
	return Uint256{v: r}
}

func (u Uint256) BigInt() *big.Int { return new(big.Int).Set(u.v) }

func (u Uint256) String() string { return u.v.String() }

func (u Uint256) IsZero() bool { return u.v.Sign() == 0 }

func (u Uint256) Equal(o Uint256) bool { return u.v.Cmp(o.v) == 0 }

func (u Uint256) Cmp(o Uint256) int { return u.v.Cmp(o.v) }

// Uint64 returns the low 64 bits; used only where the caller has already
// bounded the value (e.g. shift amounts, byte counts).
func (u Uint256) Uint64() uint64 { return u.v.Uint64() }

func MaxUint256() Uint256 { return Uint256{v: new(big.Int).Set(maxUint256)} }

// ToSigned reinterprets u as a two's-complement signed 256-bit integer.
func (u Uint256) ToSigned() *big.Int {
	if u.v.Bit(255) == 0 {
		return new(big.Int).Set(u.v)
	}
	return new(big.Int).Sub(u.v, ceiling256)
}

// FromSigned wraps a (possibly negative) big.Int into unsigned 256-bit form.
func FromSigned(v *big.Int) Uint256 {
	return Uint256FromBigInt(v)
}

// bigInt is a thin helper around math/big used only by the textual-IR
// parser's fallback path for literals too large for int64 (the common
// case, small immediates, goes through strconv.ParseInt directly).
type bigInt struct {
	v *big.Int
}

func (b *bigInt) setString(s string, base int) bool {
	v, ok := new(big.Int).SetString(s, base)
	if !ok {
		return false
	}
	b.v = v
	return true
}

func (b *bigInt) negate() { b.v = new(big.Int).Neg(b.v) }

func (b *bigInt) toUint256() Uint256 { return Uint256FromBigInt(b.v) }
