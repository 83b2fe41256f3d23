package passes

import (
	"math/big"

	"venomc/internal/ir"
)

// AlgebraicOptimization runs opcode-specific peephole rewrites that hold
// regardless of whether operands are constant, grounded on vyper's
// venom/passes/algebraic_optimization.py: identity/annihilator folds
// (x*1, x+0, x&0), power-of-two strength reduction (mul/div by 2**k ->
// shl/shr), and self-vs-self folds reached through equivalence classes
// rather than literal identity, sharing EvalArith's algebraic table with
// SCCP so the two passes never diverge on what counts as a safe fold.
type AlgebraicOptimization struct{}

func (*AlgebraicOptimization) Name() string { return "algebraic_optimization" }

func (*AlgebraicOptimization) Description() string {
	return "fold identities, annihilators and power-of-two strength reductions"
}

func (p *AlgebraicOptimization) Apply(fn *ir.Function) (bool, error) {
	eq := ir.RequestEquivalence(fn)
	changed := false
	for _, bb := range fn.Blocks() {
		for _, inst := range bb.Instructions {
			if inst.Output == nil || inst.Opcode == "assign" || ir.IsVolatile(inst.Opcode) {
				continue
			}
			canon := make([]ir.Operand, len(inst.Operands))
			for i, op := range inst.Operands {
				canon[i] = eq.CanonicalOperand(op)
			}
			if rewritten := p.strengthReduce(inst.Opcode, canon); rewritten != nil {
				inst.Opcode = rewritten.opcode
				inst.Operands = rewritten.operands
				changed = true
				continue
			}
			if lit, ok := ir.EvalArith(inst.Opcode, canon); ok {
				if inst.Opcode != "assign" {
					inst.MakeAssign(lit)
					changed = true
				}
			}
		}
	}
	if changed {
		fn.Cache().InvalidateAll()
	}
	return changed, nil
}

type rewrite struct {
	opcode   string
	operands []ir.Operand
}

// strengthReduce replaces mul/div/mod by a power of two with the
// equivalent shift/mask, and add-of-zero/sub-of-zero/or-of-zero with a
// direct assign — the canonical venom strength-reduction set.
func (p *AlgebraicOptimization) strengthReduce(opcode string, ops []ir.Operand) *rewrite {
	if len(ops) != 2 {
		return nil
	}
	// internal order: ops[1] is the first conceptual operand, ops[0] the
	// second (e.g. mul ops[1]*ops[0]).
	a, b := ops[1], ops[0]
	switch opcode {
	case "add", "or", "xor":
		if isZeroLiteral(b) {
			return &rewrite{opcode: "assign", operands: []ir.Operand{a}}
		}
		if isZeroLiteral(a) {
			return &rewrite{opcode: "assign", operands: []ir.Operand{b}}
		}
	case "sub":
		if isZeroLiteral(b) {
			return &rewrite{opcode: "assign", operands: []ir.Operand{a}}
		}
	case "mul":
		if isOneLiteral(b) {
			return &rewrite{opcode: "assign", operands: []ir.Operand{a}}
		}
		if isOneLiteral(a) {
			return &rewrite{opcode: "assign", operands: []ir.Operand{b}}
		}
		if k, ok := powerOfTwoShift(b); ok {
			return &rewrite{opcode: "shl", operands: []ir.Operand{a, ir.LiteralFromInt64(int64(k))}}
		}
		if k, ok := powerOfTwoShift(a); ok {
			return &rewrite{opcode: "shl", operands: []ir.Operand{b, ir.LiteralFromInt64(int64(k))}}
		}
	case "div":
		if isOneLiteral(b) {
			return &rewrite{opcode: "assign", operands: []ir.Operand{a}}
		}
		if k, ok := powerOfTwoShift(b); ok {
			return &rewrite{opcode: "shr", operands: []ir.Operand{a, ir.LiteralFromInt64(int64(k))}}
		}
	case "mod":
		if k, ok := powerOfTwoShift(b); ok {
			mask := ir.NewLiteral(ir.Uint256FromBigInt(shiftMask(k)))
			return &rewrite{opcode: "and", operands: []ir.Operand{a, mask}}
		}
	}
	return nil
}

// shiftMask returns 2**k - 1, the bitmask equivalent to `mod 2**k`.
func shiftMask(k int) *big.Int {
	return new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(k)), big.NewInt(1))
}

func isZeroLiteral(op ir.Operand) bool {
	lit, ok := ir.AsLiteral(op)
	return ok && lit.Value.IsZero()
}

func isOneLiteral(op ir.Operand) bool {
	lit, ok := ir.AsLiteral(op)
	return ok && lit.Value.Equal(ir.Uint256FromInt64(1))
}

// powerOfTwoShift reports the shift amount k such that op == 2**k, for
// literal op in [2, 2**255].
func powerOfTwoShift(op ir.Operand) (int, bool) {
	lit, ok := ir.AsLiteral(op)
	if !ok {
		return 0, false
	}
	v := lit.Value.BigInt()
	if v.Sign() <= 0 || v.BitLen() == 0 {
		return 0, false
	}
	bits := v.BitLen()
	if v.Bit(bits-1) != 1 {
		return 0, false
	}
	for i := 0; i < bits-1; i++ {
		if v.Bit(i) != 0 {
			return 0, false
		}
	}
	return bits - 1, true
}
