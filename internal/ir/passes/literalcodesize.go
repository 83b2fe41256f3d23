package passes

import (
	"math/big"

	"venomc/internal/ir"
)

// LiteralCodesize rewrites a literal operand's construction to whichever
// encoding assembles to fewer bytes, grounded on vyper's
// venom/passes/literals_codesize.py: a literal close to the top of the
// 256-bit range is cheaper built as `not small-complement` than pushed
// directly (PUSH32 of a near-all-ones value vs PUSH of a short complement
// plus NOT), and a literal that is a round power-of-two multiple is
// cheaper built as a small PUSH plus SHL. This only matters at assembly
// emission time, but is expressed here as a same-shape IR rewrite
// (assign -> not/shl of a smaller literal) so the printer, tests and
// assembler see it as ordinary instructions; no pass after it in
// NewPipeline folds it back.
type LiteralCodesize struct{}

func (*LiteralCodesize) Name() string { return "literal_codesize" }

func (*LiteralCodesize) Description() string {
	return "rewrite wide literal constants to their cheapest construction"
}

func (p *LiteralCodesize) Apply(fn *ir.Function) (bool, error) {
	changed := false
	for _, bb := range fn.Blocks() {
		for _, inst := range bb.Instructions {
			if inst.Opcode != "assign" || inst.Output == nil || len(inst.Operands) != 1 {
				continue
			}
			lit, ok := ir.AsLiteral(inst.Operands[0])
			if !ok {
				continue
			}
			if rewriteAsComplement(inst, lit) {
				changed = true
				continue
			}
			if rewriteAsShift(inst, lit) {
				changed = true
			}
		}
	}
	if changed {
		fn.Cache().InvalidateAll()
	}
	return changed, nil
}

// rewriteAsComplement turns `out = assign V` into `out = not V'` where
// V' = ~V, when V' needs meaningfully fewer significant bytes than V
// (i.e. V is close to MaxUint256).
func rewriteAsComplement(inst *ir.Instruction, lit *ir.Literal) bool {
	complement := new(big.Int).Xor(lit.Value.BigInt(), new(big.Int).Sub(
		new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1)))
	if byteLen(complement) >= byteLen(lit.Value.BigInt()) {
		return false
	}
	inst.Opcode = "not"
	inst.Operands = []ir.Operand{ir.NewLiteral(ir.Uint256FromBigInt(complement))}
	return true
}

// rewriteAsShift turns `out = assign V` into `out = shl k (V >> k)` when V
// is exactly a smaller value shifted left by k trailing zero bits and that
// shorter representation needs fewer significant bytes.
func rewriteAsShift(inst *ir.Instruction, lit *ir.Literal) bool {
	v := lit.Value.BigInt()
	if v.Sign() == 0 {
		return false
	}
	trailing := 0
	for v.Bit(trailing) == 0 {
		trailing++
	}
	if trailing == 0 {
		return false
	}
	reduced := new(big.Int).Rsh(v, uint(trailing))
	if byteLen(reduced) >= byteLen(v) {
		return false
	}
	inst.Opcode = "shl"
	inst.Operands = []ir.Operand{
		ir.NewLiteral(ir.Uint256FromBigInt(reduced)),
		ir.LiteralFromInt64(int64(trailing)),
	}
	return true
}

func byteLen(v *big.Int) int {
	return (v.BitLen() + 7) / 8
}
