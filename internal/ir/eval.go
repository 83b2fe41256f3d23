package ir

import "math/big"

// EvalArith mirrors vyper's venom/passes/sccp/eval.py eval_arith: if every
// operand is a Literal, evaluate the opcode directly; otherwise fall back
// to the shared algebraic simplification table. Shared by the SCCP pass
// (constant folding) and the algebraic optimization pass (peephole
// rewrites on non-constant operands), per SPEC_FULL.md §4.14.
//
// Operand order note, preserved from eval.py: operands are stored
// internally with the rightmost conceptual operand first, so for a
// 2-operand opcode, ops[1] is the "first" conceptual argument and ops[0]
// is the "second" — e.g. `sub` computes ops[1] - ops[0].
func EvalArith(opcode string, ops []Operand) (*Literal, bool) {
	allLiteral := true
	for _, op := range ops {
		if _, ok := AsLiteral(op); !ok {
			allLiteral = false
			break
		}
	}
	if allLiteral {
		if lit, ok := evalArithmetic(opcode, ops); ok {
			return lit, true
		}
	}
	return algebraicEval(opcode, ops)
}

func litVal(op Operand) Uint256 {
	lit, _ := AsLiteral(op)
	return lit.Value
}

func evalArithmetic(opcode string, ops []Operand) (*Literal, bool) {
	switch opcode {
	case "add":
		return wrapBinop(ops, func(a, b *big.Int) *big.Int { return new(big.Int).Add(a, b) })
	case "sub":
		return wrapBinop(ops, func(a, b *big.Int) *big.Int { return new(big.Int).Sub(a, b) })
	case "mul":
		return wrapBinop(ops, func(a, b *big.Int) *big.Int { return new(big.Int).Mul(a, b) })
	case "div":
		return wrapBinop(ops, evmDiv)
	case "sdiv":
		return wrapSignedBinop(ops, evmDiv)
	case "mod":
		return wrapBinop(ops, evmMod)
	case "smod":
		return wrapSignedBinop(ops, evmMod)
	case "exp":
		return wrapBinop(ops, func(a, b *big.Int) *big.Int {
			return new(big.Int).Exp(a, b, ceiling256)
		})
	case "eq":
		return wrapBinop(ops, func(a, b *big.Int) *big.Int { return boolBig(a.Cmp(b) == 0) })
	case "lt":
		return wrapBinop(ops, func(a, b *big.Int) *big.Int { return boolBig(a.Cmp(b) < 0) })
	case "gt":
		return wrapBinop(ops, func(a, b *big.Int) *big.Int { return boolBig(a.Cmp(b) > 0) })
	case "slt":
		return wrapSignedBinop(ops, func(a, b *big.Int) *big.Int { return boolBig(a.Cmp(b) < 0) })
	case "sgt":
		return wrapSignedBinop(ops, func(a, b *big.Int) *big.Int { return boolBig(a.Cmp(b) > 0) })
	case "or":
		return wrapBinop(ops, func(a, b *big.Int) *big.Int { return new(big.Int).Or(a, b) })
	case "and":
		return wrapBinop(ops, func(a, b *big.Int) *big.Int { return new(big.Int).And(a, b) })
	case "xor":
		return wrapBinop(ops, func(a, b *big.Int) *big.Int { return new(big.Int).Xor(a, b) })
	case "not":
		return wrapUnop(ops, func(a *big.Int) *big.Int { return new(big.Int).Sub(maxUint256, a) })
	case "iszero":
		return wrapUnop(ops, func(a *big.Int) *big.Int { return boolBig(a.Sign() == 0) })
	case "shl":
		return wrapBinop(ops, func(shift, v *big.Int) *big.Int {
			if shift.Cmp(big.NewInt(256)) >= 0 {
				return big.NewInt(0)
			}
			return new(big.Int).Lsh(v, uint(shift.Uint64()))
		})
	case "shr":
		return wrapBinop(ops, func(shift, v *big.Int) *big.Int {
			if shift.Cmp(big.NewInt(256)) >= 0 {
				return big.NewInt(0)
			}
			return new(big.Int).Rsh(v, uint(shift.Uint64()))
		})
	case "sar":
		return wrapSignedBinop(ops, func(shift, v *big.Int) *big.Int {
			return new(big.Int).Rsh(v, uint(shift.Uint64()))
		})
	case "store", "assign":
		if len(ops) != 1 {
			return nil, false
		}
		lit, ok := AsLiteral(ops[0])
		if !ok {
			return nil, false
		}
		return lit, true
	default:
		return nil, false
	}
}

func boolBig(b bool) *big.Int {
	if b {
		return big.NewInt(1)
	}
	return big.NewInt(0)
}

func evmDiv(a, b *big.Int) *big.Int {
	if b.Sign() == 0 {
		return big.NewInt(0)
	}
	return new(big.Int).Div(a, b)
}

func evmMod(a, b *big.Int) *big.Int {
	if b.Sign() == 0 {
		return big.NewInt(0)
	}
	return new(big.Int).Mod(a, b)
}

// wrapBinop evaluates a 2-operand opcode unsigned, ops[1] op ops[0].
func wrapBinop(ops []Operand, op func(a, b *big.Int) *big.Int) (*Literal, bool) {
	if len(ops) != 2 {
		return nil, false
	}
	a, ok1 := AsLiteral(ops[1])
	b, ok2 := AsLiteral(ops[0])
	if !ok1 || !ok2 {
		return nil, false
	}
	return NewLiteral(Uint256FromBigInt(op(a.Value.BigInt(), b.Value.BigInt()))), true
}

func wrapSignedBinop(ops []Operand, op func(a, b *big.Int) *big.Int) (*Literal, bool) {
	if len(ops) != 2 {
		return nil, false
	}
	a, ok1 := AsLiteral(ops[1])
	b, ok2 := AsLiteral(ops[0])
	if !ok1 || !ok2 {
		return nil, false
	}
	return NewLiteral(FromSigned(op(a.Value.ToSigned(), b.Value.ToSigned()))), true
}

func wrapUnop(ops []Operand, op func(a *big.Int) *big.Int) (*Literal, bool) {
	if len(ops) != 1 {
		return nil, false
	}
	a, ok := AsLiteral(ops[0])
	if !ok {
		return nil, false
	}
	return NewLiteral(Uint256FromBigInt(op(a.Value.BigInt()))), true
}

// algebraicEval mirrors eval.py's _algebraic_eval: opcode-specific
// simplifications that hold even when operands aren't both constant
// (identity/annihilator rules, self-comparison folds).
func algebraicEval(opcode string, ops []Operand) (*Literal, bool) {
	switch opcode {
	case "mul", "smul", "and":
		for _, op := range ops {
			if litEq(op, 0) {
				return LiteralFromInt64(0), true
			}
		}
	case "div", "sdiv", "mod", "smod":
		if len(ops) == 2 && litEq(ops[0], 0) {
			return LiteralFromInt64(0), true
		}
	}
	if (opcode == "mod" || opcode == "smod") && len(ops) == 2 && litEq(ops[0], 1) {
		return LiteralFromInt64(0), true
	}
	if (opcode == "xor" || opcode == "sub") && len(ops) == 2 && operandsEqual(ops[0], ops[1]) {
		return LiteralFromInt64(0), true
	}
	if opcode == "eq" && len(ops) == 2 && operandsEqual(ops[0], ops[1]) {
		return LiteralFromInt64(1), true
	}
	if opcode == "or" {
		for _, op := range ops {
			if litEq(op, -1) {
				return NewLiteral(MaxUint256()), true
			}
		}
	}
	if opcode == "exp" && len(ops) == 2 {
		if litEq(ops[0], 0) {
			return LiteralFromInt64(1), true
		}
		if litEq(ops[1], 1) {
			return LiteralFromInt64(1), true
		}
	}
	if (opcode == "lt" || opcode == "gt" || opcode == "slt" || opcode == "sgt") && len(ops) == 2 {
		return comparisonEval(opcode, ops)
	}
	return nil, false
}

// litEq reports whether op is a Literal equal to val (val==-1 means
// MaxUint256, mirroring the MAX_UINT256 sentinel check in eval.py).
func litEq(op Operand, val int64) bool {
	lit, ok := AsLiteral(op)
	if !ok {
		return false
	}
	if val == -1 {
		return lit.Value.Equal(MaxUint256())
	}
	return lit.Value.Equal(Uint256FromInt64(val))
}

func comparisonEval(opcode string, ops []Operand) (*Literal, bool) {
	if operandsEqual(ops[0], ops[1]) {
		return LiteralFromInt64(0), true
	}
	signed := opcode == "slt" || opcode == "sgt"
	lo, hi := int256Bounds(signed)
	a, b := ops[1], ops[0]
	if opcode == "gt" || opcode == "sgt" {
		if litEqBound(a, lo) || litEqBound(b, hi) {
			return LiteralFromInt64(0), true
		}
	} else {
		if litEqBound(a, hi) || litEqBound(b, lo) {
			return LiteralFromInt64(0), true
		}
	}
	return nil, false
}

func int256Bounds(signed bool) (Uint256, Uint256) {
	if !signed {
		return Uint256FromInt64(0), MaxUint256()
	}
	minInt := new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 255))
	maxInt := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 255), big.NewInt(1))
	return FromSigned(minInt), FromSigned(maxInt)
}

func litEqBound(op Operand, bound Uint256) bool {
	lit, ok := AsLiteral(op)
	if !ok {
		return false
	}
	return lit.Value.Equal(bound)
}
