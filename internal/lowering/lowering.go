// Package lowering translates a parsed, semantically-checked Kanso contract
// into venom IR, the way the teacher's internal/ir.BuildProgram walks an
// *ast.Contract and a *semantic.ContextRegistry to build a concrete-opcode
// program. This package keeps that same walk (collect storage layout and
// event signatures up front, then lower function bodies one at a time) but
// targets venom's opcode-generic Builder instead of one hard-coded
// instruction type per AST node, and generalizes several teacher shortcuts
// (see collectEventSignatures and lowerEmit) to handle more than the
// Transfer/Approval event shapes the teacher's ERC20 sample hard-codes.
package lowering

import (
	"fmt"
	"hash/fnv"
	"math/big"
	"strings"

	"golang.org/x/crypto/sha3"

	"venomc/internal/ast"
	"venomc/internal/ir"
	"venomc/internal/semantic"
)

// storageField describes one #[storage] struct field's slot assignment.
type storageField struct {
	slot int64
}

type lowerer struct {
	ctx       *ir.Context
	builder   *ir.Builder
	registry  *semantic.ContextRegistry
	storage   map[string]storageField
	eventSigs map[string]ir.Uint256
	vars      map[string]ir.Operand
	scratch   *ir.Variable
}

// Lower builds a venom ir.Context from a parsed contract, grounded on the
// teacher's ir.BuildProgram(contract, context) entry point: collect the
// contract's storage layout and event signatures once, then lower every
// function body in declaration order.
func Lower(contract *ast.Contract, registry *semantic.ContextRegistry) (*ir.Context, error) {
	ctx := ir.NewContext()
	l := &lowerer{
		ctx:      ctx,
		registry: registry,
		storage:  map[string]storageField{},
	}
	l.collectStorageLayout(contract)

	sigs, err := l.collectEventSignatures(contract)
	if err != nil {
		return nil, err
	}
	l.eventSigs = sigs

	for _, item := range contract.Items {
		fn, ok := item.(*ast.Function)
		if !ok {
			continue
		}
		if err := l.lowerFunction(fn); err != nil {
			return nil, fmt.Errorf("function %q: %w", fn.Name.Value, err)
		}
	}
	return ctx, nil
}

// collectStorageLayout assigns each #[storage]-attributed struct's fields
// sequential slots, grounded on the teacher's collectStorageLayout: direct
// fields (U256, Address, bool, ...) get one slot each; Slots<K, V> mapping
// fields also get one slot, used as the base of a keccak256(key, slot)
// address computed per access rather than read/written directly.
func (l *lowerer) collectStorageLayout(contract *ast.Contract) {
	var slot int64
	for _, item := range contract.Items {
		st, ok := item.(*ast.Struct)
		if !ok || st.Attribute == nil || st.Attribute.Name != "storage" {
			continue
		}
		for _, si := range st.Items {
			field, ok := si.(*ast.StructField)
			if !ok {
				continue
			}
			l.storage[field.Name.Value] = storageField{slot: slot}
			slot++
		}
	}
}

// collectEventSignatures computes, for every #[event]-attributed struct,
// the Keccak256 hash of its ABI signature string ("Name(type1,type2,...)")
// at lowering time. The teacher resolves this same signature at runtime
// through a generated global constant; here the signature is always
// statically known from the struct declaration, so it is folded to a
// literal Uint256 once, up front, grounded on the teacher's
// collectEventSignatures/generateEventSignature/astTypeToABIString.
func (l *lowerer) collectEventSignatures(contract *ast.Contract) (map[string]ir.Uint256, error) {
	out := map[string]ir.Uint256{}
	for _, item := range contract.Items {
		st, ok := item.(*ast.Struct)
		if !ok || st.Attribute == nil || st.Attribute.Name != "event" {
			continue
		}
		var types []string
		for _, si := range st.Items {
			field, ok := si.(*ast.StructField)
			if !ok {
				continue
			}
			types = append(types, abiTypeName(field.VariableType))
		}
		sig := fmt.Sprintf("%s(%s)", st.Name.Value, strings.Join(types, ","))

		h := sha3.NewLegacyKeccak256()
		h.Write([]byte(sig))
		out[st.Name.Value] = ir.Uint256FromBigInt(new(big.Int).SetBytes(h.Sum(nil)))
	}
	return out, nil
}

// abiTypeName maps a Kanso VariableType to the ABI type name its Solidity
// counterpart would use, grounded on the teacher's astTypeToABIString.
func abiTypeName(t *ast.VariableType) string {
	switch t.Name.Value {
	case "U256":
		return "uint256"
	case "U64":
		return "uint64"
	case "U32":
		return "uint32"
	case "U8":
		return "uint8"
	case "Address":
		return "address"
	case "Bool":
		return "bool"
	default:
		return strings.ToLower(t.Name.Value)
	}
}

// lowerFunction emits one venom function per ast.Function, grounded on the
// teacher's buildFunction: bind each declared parameter to a fresh SSA
// variable via a leading "param" pseudo-instruction (Builder.Param), then
// lower the body's statements in order, and ensure a trailing "stop" if the
// body falls off the end without an explicit return.
func (l *lowerer) lowerFunction(astFn *ast.Function) error {
	l.builder = ir.NewBuilder(l.ctx)
	l.builder.CreateFunction(astFn.Name.Value)
	l.vars = map[string]ir.Operand{}
	l.scratch = nil

	for _, p := range astFn.Params {
		l.vars[p.Name.Value] = l.builder.Param(p.Name.Value)
	}

	if astFn.Body == nil {
		l.builder.Return(nil)
		return nil
	}
	if err := l.lowerBlock(astFn.Body); err != nil {
		return err
	}

	if astFn.Body.TailExpr != nil {
		v, err := l.lowerExpr(astFn.Body.TailExpr.Expr)
		if err != nil {
			return err
		}
		l.builder.Return(v)
		return nil
	}

	if len(astFn.Body.Items) == 0 {
		l.builder.Return(nil)
		return nil
	}
	if _, ok := astFn.Body.Items[len(astFn.Body.Items)-1].(*ast.ReturnStmt); !ok {
		l.builder.Return(nil)
	}
	return nil
}

func (l *lowerer) lowerBlock(block *ast.FunctionBlock) error {
	for _, item := range block.Items {
		if err := l.lowerBlockItem(item); err != nil {
			return err
		}
	}
	return nil
}

// lowerBlockItem dispatches on the concrete statement type.
func (l *lowerer) lowerBlockItem(item ast.FunctionBlockItem) error {
	switch s := item.(type) {
	case *ast.LetStmt:
		if s.Expr == nil {
			// uninitialized `let [mut] name: Type;` has no value to bind yet;
			// it becomes live only once a later assignment targets it.
			return nil
		}
		v, err := l.lowerExpr(s.Expr)
		if err != nil {
			return err
		}
		l.vars[s.Name.Value] = v
		return nil
	case *ast.AssignStmt:
		return l.lowerAssign(s)
	case *ast.RequireStmt:
		return l.lowerRequire(s)
	case *ast.IfStmt:
		return l.lowerIf(s)
	case *ast.ReturnStmt:
		var v ir.Operand
		if s.Value != nil {
			var err error
			v, err = l.lowerExpr(s.Value)
			if err != nil {
				return err
			}
		}
		l.builder.Return(v)
		return nil
	case *ast.ExprStmt:
		_, err := l.lowerExpr(s.Expr)
		return err
	case *ast.Comment:
		return nil
	default:
		return ir.NewCompilerPanic("lowering: unsupported statement %T", item)
	}
}

// lowerIf lowers an if/else statement to a three-block diamond (branch,
// then, else, merge), grounded on how the teacher's own control-flow-free
// front end never needed a CFG split but venom's Branch/Jump terminators
// give one directly. Variables reassigned differently on the two arms are
// reconciled with a Phi in the merge block; a branch that falls off the end
// via an explicit return contributes no merge edge.
func (l *lowerer) lowerIf(s *ast.IfStmt) error {
	cond, err := l.lowerExpr(s.Condition)
	if err != nil {
		return err
	}

	thenBlock := l.builder.CreateBlock("if_then")
	elseBlock := l.builder.CreateBlock("if_else")
	mergeBlock := l.builder.CreateBlock("if_end")
	l.builder.Branch(cond, thenBlock, elseBlock)

	varsBefore := cloneVars(l.vars)

	l.builder.SetCurrentBlock(thenBlock)
	l.vars = cloneVars(varsBefore)
	if err := l.lowerBranchBlock(&s.ThenBlock); err != nil {
		return err
	}
	thenEnd := l.builder.CurrentBlock()
	thenTerminated := blockTerminated(thenEnd)
	thenVars := l.vars
	if !thenTerminated {
		l.builder.Jump(mergeBlock)
	}

	l.builder.SetCurrentBlock(elseBlock)
	l.vars = cloneVars(varsBefore)
	if s.ElseBlock != nil {
		if err := l.lowerBranchBlock(s.ElseBlock); err != nil {
			return err
		}
	}
	elseEnd := l.builder.CurrentBlock()
	elseTerminated := blockTerminated(elseEnd)
	elseVars := l.vars
	if !elseTerminated {
		l.builder.Jump(mergeBlock)
	}

	l.builder.SetCurrentBlock(mergeBlock)
	merged := cloneVars(varsBefore)
	for name := range varsBefore {
		tv, tok := thenVars[name]
		ev, eok := elseVars[name]
		switch {
		case thenTerminated && elseTerminated:
			// unreachable merge; value doesn't matter, keep pre-if value
		case thenTerminated:
			if eok {
				merged[name] = ev
			}
		case elseTerminated:
			if tok {
				merged[name] = tv
			}
		case tok && eok && tv == ev:
			merged[name] = tv
		case tok && eok:
			merged[name] = l.builder.Phi(name, [2]any{thenEnd.Label, tv}, [2]any{elseEnd.Label, ev})
		}
	}
	l.vars = merged
	return nil
}

// lowerBranchBlock lowers a block nested inside an if-arm: its statements,
// then its optional tail expression (evaluated for side effects only, since
// a statement-position if has no value to hand the tail expression's result
// to).
func (l *lowerer) lowerBranchBlock(block *ast.FunctionBlock) error {
	if err := l.lowerBlock(block); err != nil {
		return err
	}
	if block.TailExpr != nil {
		if _, err := l.lowerExpr(block.TailExpr.Expr); err != nil {
			return err
		}
	}
	return nil
}

func cloneVars(vars map[string]ir.Operand) map[string]ir.Operand {
	out := make(map[string]ir.Operand, len(vars))
	for k, v := range vars {
		out[k] = v
	}
	return out
}

func blockTerminated(bb *ir.BasicBlock) bool {
	term := bb.Terminator()
	return term != nil && term.IsTerminator()
}

// lowerRequire lowers a require!(cond, reason) statement directly to the
// native assert opcode. The teacher instead splits the current block into a
// success/revert pair joined by a branch terminator and an Assume
// instruction on the success edge; venom already gives assert first-class
// treatment in SCCP (a literal-false condition folds to a static assertion
// failure, literal-true to a nop), so reaching for the branch-splitting
// idiom here would only reproduce by hand what the opcode already expresses.
func (l *lowerer) lowerRequire(s *ast.RequireStmt) error {
	if len(s.Args) == 0 {
		return ir.NewCompilerPanic("require!: expected at least 1 argument")
	}
	cond, err := l.lowerExpr(s.Args[0])
	if err != nil {
		return err
	}
	l.builder.EmitVoid("assert", cond)
	return nil
}

// lowerAssign lowers both plain assignment and compound assignment
// (+=, -=, *=, /=, %=) to State fields, State mappings, and local
// variables.
func (l *lowerer) lowerAssign(s *ast.AssignStmt) error {
	value, err := l.lowerExpr(s.Value)
	if err != nil {
		return err
	}

	if s.Operator != ast.ASSIGN {
		current, err := l.lowerExpr(s.Target)
		if err != nil {
			return err
		}
		opcode, err := compoundOpcode(s.Operator)
		if err != nil {
			return err
		}
		value = l.builder.Emit(opcode, opcode, current, value)
	}

	switch target := s.Target.(type) {
	case *ast.IdentExpr:
		l.vars[target.Name] = value
		return nil
	case *ast.FieldAccessExpr:
		if ident, ok := target.Target.(*ast.IdentExpr); ok && ident.Name == "State" {
			return l.storeStorage(target.Field, value)
		}
		return ir.NewCompilerPanic("lowering: unsupported assignment target %T", s.Target)
	case *ast.IndexExpr:
		return l.storeIndex(target, value)
	default:
		return ir.NewCompilerPanic("lowering: unsupported assignment target %T", s.Target)
	}
}

func compoundOpcode(op ast.AssignType) (string, error) {
	switch op {
	case ast.PLUS_ASSIGN:
		return "add", nil
	case ast.MINUS_ASSIGN:
		return "sub", nil
	case ast.STAR_ASSIGN:
		return "mul", nil
	case ast.SLASH_ASSIGN:
		return "div", nil
	case ast.PERCENT_ASSIGN:
		return "mod", nil
	default:
		return "", ir.NewCompilerPanic("lowering: unsupported compound assignment operator %v", op)
	}
}

// lowerExpr dispatches on the concrete expression type.
func (l *lowerer) lowerExpr(expr ast.Expr) (ir.Operand, error) {
	switch e := expr.(type) {
	case *ast.LiteralExpr:
		return l.lowerLiteral(e)
	case *ast.IdentExpr:
		if v, ok := l.vars[e.Name]; ok {
			return v, nil
		}
		return nil, ir.NewCompilerPanic("lowering: undefined identifier %q", e.Name)
	case *ast.ParenExpr:
		return l.lowerExpr(e.Value)
	case *ast.UnaryExpr:
		return l.lowerUnary(e)
	case *ast.BinaryExpr:
		return l.lowerBinary(e)
	case *ast.FieldAccessExpr:
		return l.lowerFieldAccess(e)
	case *ast.IndexExpr:
		return l.lowerIndex(e)
	case *ast.CallExpr:
		return l.lowerCall(e)
	case *ast.TupleExpr:
		if len(e.Elements) == 0 {
			return nil, ir.NewCompilerPanic("lowering: empty tuple expression")
		}
		return l.lowerExpr(e.Elements[0])
	default:
		return nil, ir.NewCompilerPanic("lowering: unsupported expression %T", expr)
	}
}

// lowerLiteral lowers numeric, boolean, and hex literals. String and other
// non-numeric literal kinds are out of scope for this core's EVM-word
// value model.
func (l *lowerer) lowerLiteral(e *ast.LiteralExpr) (ir.Operand, error) {
	switch e.Value {
	case "true":
		return ir.LiteralFromInt64(1), nil
	case "false":
		return ir.LiteralFromInt64(0), nil
	}
	n, ok := new(big.Int).SetString(e.Value, 0)
	if !ok {
		return nil, ir.NewCompilerPanic("lowering: unparseable literal %q", e.Value)
	}
	return ir.NewLiteral(ir.Uint256FromBigInt(n)), nil
}

// lowerUnary lowers "-", "!", and the reference-taking "&"/"*" operators.
// "&"/"*" are a borrow-checking concept the front end tracks for aliasing
// analysis; they have no EVM-level representation once every value is a
// 256-bit stack word, so they pass their operand through unchanged.
func (l *lowerer) lowerUnary(e *ast.UnaryExpr) (ir.Operand, error) {
	v, err := l.lowerExpr(e.Value)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case "-":
		return l.builder.Emit("sub", "neg", ir.LiteralFromInt64(0), v), nil
	case "!":
		return l.builder.Emit("iszero", "not", v), nil
	case "&", "*":
		return v, nil
	default:
		return nil, ir.NewCompilerPanic("lowering: unsupported unary operator %q", e.Op)
	}
}

// lowerBinary lowers a binary expression, evaluating the
// higher-register-pressure side first (Sethi-Ullman numbering, grounded on
// the teacher's buildBinaryOp/computeSeethiUllman) to keep the deeper
// subexpression's temporaries off the stack for less time. Arithmetic and
// comparison operators map to add/sub/mul/div/mod/eq/gt/lt (grounded on
// instruction.go's commutativeInstructions/comparatorInstructions sets),
// && and || map to and/or; !=, <=, and >= are synthesized from eq/gt/lt plus iszero the way the
// EVM's own instruction set has no native forms of them either.
func (l *lowerer) lowerBinary(e *ast.BinaryExpr) (ir.Operand, error) {
	left, right, err := l.lowerOperandPairOrdered(e.Left, e.Right)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case "+":
		return l.builder.Emit("add", "add", left, right), nil
	case "-":
		return l.builder.Emit("sub", "sub", left, right), nil
	case "*":
		return l.builder.Emit("mul", "mul", left, right), nil
	case "/":
		return l.builder.Emit("div", "div", left, right), nil
	case "%":
		return l.builder.Emit("mod", "mod", left, right), nil
	case "==":
		return l.builder.Emit("eq", "eq", left, right), nil
	case "!=":
		eq := l.builder.Emit("eq", "eq", left, right)
		return l.builder.Emit("iszero", "ne", eq), nil
	case "<":
		return l.builder.Emit("lt", "lt", left, right), nil
	case ">":
		return l.builder.Emit("gt", "gt", left, right), nil
	case "<=":
		gt := l.builder.Emit("gt", "gt", left, right)
		return l.builder.Emit("iszero", "le", gt), nil
	case ">=":
		lt := l.builder.Emit("lt", "lt", left, right)
		return l.builder.Emit("iszero", "ge", lt), nil
	case "&&":
		return l.builder.Emit("and", "and", left, right), nil
	case "||":
		return l.builder.Emit("or", "or", left, right), nil
	default:
		return nil, ir.NewCompilerPanic("lowering: unsupported binary operator %q", e.Op)
	}
}

// lowerOperandPairOrdered lowers two subexpressions in Sethi-Ullman order
// but always returns (left, right) in source order regardless of
// evaluation order, since the Builder takes operands in source order and IsCommutative is a property of the opcode the caller picks,
// not of how this helper schedules evaluation.
func (l *lowerer) lowerOperandPairOrdered(leftExpr, rightExpr ast.Expr) (ir.Operand, ir.Operand, error) {
	if seethiUllman(leftExpr) >= seethiUllman(rightExpr) {
		left, err := l.lowerExpr(leftExpr)
		if err != nil {
			return nil, nil, err
		}
		right, err := l.lowerExpr(rightExpr)
		if err != nil {
			return nil, nil, err
		}
		return left, right, nil
	}
	right, err := l.lowerExpr(rightExpr)
	if err != nil {
		return nil, nil, err
	}
	left, err := l.lowerExpr(leftExpr)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

// seethiUllman estimates the register pressure of evaluating expr,
// grounded on the teacher's computeSeethiUllman: a leaf costs 1; a binary
// node costs max(left, right), or one more when both sides tie (both
// operands need a register/stack slot alive before the operator can
// combine them).
func seethiUllman(expr ast.Expr) int {
	switch e := expr.(type) {
	case *ast.BinaryExpr:
		l, r := seethiUllman(e.Left), seethiUllman(e.Right)
		if l == r {
			return l + 1
		}
		if l > r {
			return l
		}
		return r
	case *ast.ParenExpr:
		return seethiUllman(e.Value)
	case *ast.UnaryExpr:
		return seethiUllman(e.Value)
	case *ast.CallExpr:
		max := 1
		for _, a := range e.Args {
			if s := seethiUllman(a); s > max {
				max = s
			}
		}
		return max
	case *ast.IndexExpr:
		return seethiUllman(e.Index) + 1
	default:
		return 1
	}
}

// lowerFieldAccess handles both State.field storage reads and
// module::constant references (e.g. errors::InvalidAmount), grounded on
// the teacher's observation that a use-imported module path like
// "errors::InvalidAmount" parses as a FieldAccessExpr whose Target is the
// module identifier, not a CalleePath.
func (l *lowerer) lowerFieldAccess(e *ast.FieldAccessExpr) (ir.Operand, error) {
	ident, ok := e.Target.(*ast.IdentExpr)
	if !ok {
		return nil, ir.NewCompilerPanic("lowering: unsupported field access target %T", e.Target)
	}
	if ident.Name == "State" {
		return l.loadStorage(e.Field)
	}
	return l.moduleConstant(ident.Name, e.Field), nil
}

// moduleConstant resolves a qualified constant like errors::InvalidAmount
// to a stable small integer, used as a revert reason code passed to
// assert. The stdlib's errors module (internal/stdlib/modules.go) models
// these as zero-argument functions rather than typed constant values, so
// there is no concrete value to look up; FNV-1a gives a deterministic,
// collision-resistant-enough symbol id for this purpose without reaching
// for the Keccak hasher, which this lowering reserves for real event
// topic0 values where the 32-byte width and cryptographic hash actually
// matter.
func (l *lowerer) moduleConstant(module, name string) ir.Operand {
	h := fnv.New32a()
	h.Write([]byte(module + "::" + name))
	return ir.LiteralFromInt64(int64(h.Sum32()))
}

// loadStorage emits an sload of a #[storage] struct field's slot.
func (l *lowerer) loadStorage(field string) (ir.Operand, error) {
	sf, ok := l.storage[field]
	if !ok {
		return nil, ir.NewCompilerPanic("lowering: unknown storage field %q", field)
	}
	return l.builder.Emit("sload", field+"_load", ir.LiteralFromInt64(sf.slot)), nil
}

// storeStorage emits an sstore to a #[storage] struct field's slot.
func (l *lowerer) storeStorage(field string, value ir.Operand) error {
	sf, ok := l.storage[field]
	if !ok {
		return ir.NewCompilerPanic("lowering: unknown storage field %q", field)
	}
	l.builder.EmitVoid("sstore", ir.LiteralFromInt64(sf.slot), value)
	return nil
}

// lowerIndex handles State.mapping[key] reads, grounded on the teacher's
// buildKeyedStorageLoad.
func (l *lowerer) lowerIndex(e *ast.IndexExpr) (ir.Operand, error) {
	field, err := l.mappingField(e.Target)
	if err != nil {
		return nil, err
	}
	addr, err := l.mappingAddress(l.storage[field].slot, e.Index)
	if err != nil {
		return nil, err
	}
	return l.builder.Emit("sload", field+"_load", addr), nil
}

// storeIndex handles State.mapping[key] = value writes, grounded on the
// teacher's buildKeyedStorageStore.
func (l *lowerer) storeIndex(e *ast.IndexExpr, value ir.Operand) error {
	field, err := l.mappingField(e.Target)
	if err != nil {
		return err
	}
	addr, err := l.mappingAddress(l.storage[field].slot, e.Index)
	if err != nil {
		return err
	}
	l.builder.EmitVoid("sstore", addr, value)
	return nil
}

func (l *lowerer) mappingField(target ast.Expr) (string, error) {
	fa, ok := target.(*ast.FieldAccessExpr)
	if !ok {
		return "", ir.NewCompilerPanic("lowering: indexing is only supported on State storage mappings")
	}
	ident, ok := fa.Target.(*ast.IdentExpr)
	if !ok || ident.Name != "State" {
		return "", ir.NewCompilerPanic("lowering: indexing is only supported on State storage mappings")
	}
	if _, ok := l.storage[fa.Field]; !ok {
		return "", ir.NewCompilerPanic("lowering: unknown storage field %q", fa.Field)
	}
	return fa.Field, nil
}

// mappingAddress computes a Solidity-style mapping slot address,
// keccak256(key ++ slot), folding once per key component for tuple-keyed
// (nested) mappings like State.allowances[(owner, spender)], grounded on
// the teacher's buildKeyedStorageLoad/buildKeyedStorageStore tuple-key
// handling.
func (l *lowerer) mappingAddress(baseSlot int64, index ast.Expr) (ir.Operand, error) {
	var keys []ast.Expr
	if tuple, ok := index.(*ast.TupleExpr); ok {
		keys = tuple.Elements
	} else {
		keys = []ast.Expr{index}
	}

	var slotOperand ir.Operand = ir.LiteralFromInt64(baseSlot)
	for _, keyExpr := range keys {
		keyVal, err := l.lowerExpr(keyExpr)
		if err != nil {
			return nil, err
		}
		slotOperand = l.keccakPair(keyVal, slotOperand)
	}
	return slotOperand, nil
}

// keccakPair computes keccak256(key . slot) via a 64-byte memory scratch
// region reused across the whole function (lazily allocated on first use).
// The scratch's address is itself an un-concretized SSA variable until
// asm emission, so any address arithmetic built on it will not be
// constant-folded by the earlier SCCP/algebraic passes, and the resulting
// loads/stores conservatively alias everything in load/dead-store
// elimination — an accepted tradeoff for this demonstration pipeline,
// exactly the same one the teacher's own scratch-memory ABI encoding
// accepts.
func (l *lowerer) keccakPair(key, slot ir.Operand) ir.Operand {
	base := l.hashScratch()
	high := l.builder.Emit("add", "scratch_hi", base, ir.LiteralFromInt64(32))
	l.builder.EmitVoid("mstore", base, key)
	l.builder.EmitVoid("mstore", high, slot)
	return l.builder.Emit("sha3", "mapping_addr", base, ir.LiteralFromInt64(64))
}

func (l *lowerer) hashScratch() *ir.Variable {
	if l.scratch == nil {
		l.scratch = l.builder.Alloca(64, false)
	}
	return l.scratch
}

// lowerCall handles std::evm::sender/emit, std::address::zero, and
// user-defined function calls (lowered to invoke).
func (l *lowerer) lowerCall(e *ast.CallExpr) (ir.Operand, error) {
	name, module := l.resolveCallee(e.Callee)

	switch {
	case (module == "" || module == "std::evm") && name == "sender":
		return l.builder.Emit("caller", "sender"), nil
	case (module == "" || module == "std::evm") && name == "emit":
		return l.lowerEmit(e)
	case (module == "" || module == "std::address") && name == "zero":
		return ir.LiteralFromInt64(0), nil
	}

	args := make([]any, 0, len(e.Args))
	for _, a := range e.Args {
		v, err := l.lowerExpr(a)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	out, err := l.builder.Invoke(ir.NewSymbolLabel(name), 1, name+"_result", args...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// resolveCallee splits a callee expression into (name, module). An
// IdentExpr callee is resolved against the semantic registry's imported
// function table when possible (so "sender" resolves to module
// "std::evm" even when called unqualified, matching how use imports work);
// a CalleePath callee's leading segments are the module path.
func (l *lowerer) resolveCallee(callee ast.Expr) (name, module string) {
	switch c := callee.(type) {
	case *ast.IdentExpr:
		if l.registry != nil {
			if imp := l.registry.GetImportedFunction(c.Name); imp != nil {
				return c.Name, imp.ModulePath
			}
		}
		return c.Name, ""
	case *ast.CalleePath:
		if len(c.Parts) == 0 {
			return "", ""
		}
		if len(c.Parts) == 1 {
			return c.Parts[0].Value, ""
		}
		parts := make([]string, len(c.Parts)-1)
		for i, p := range c.Parts[:len(c.Parts)-1] {
			parts[i] = p.Value
		}
		return c.Parts[len(c.Parts)-1].Value, strings.Join(parts, "::")
	default:
		return "", ""
	}
}

// lowerEmit lowers emit(EventStruct { ... }) to a single LOG1: topic0 is
// the event's precomputed signature hash, and every field is ABI-encoded
// (each field, being a single EVM word in this type system, occupies one
// contiguous 32-byte memory slot) into a scratch memory region that
// becomes the log's data. The teacher's buildEmitCall instead hard-codes
// the ERC20 Transfer/Approval shape directly (first two fields as extra
// LOG topics, third field as data, a fixed LOG3) — too narrow to carry
// over as-is, so this generalizes it to the general case of an arbitrary
// #[event] struct: one topic (the signature), all fields as data.
func (l *lowerer) lowerEmit(e *ast.CallExpr) (ir.Operand, error) {
	if len(e.Args) != 1 {
		return nil, ir.NewCompilerPanic("emit: expected 1 argument, got %d", len(e.Args))
	}
	lit, ok := e.Args[0].(*ast.StructLiteralExpr)
	if !ok {
		return nil, ir.NewCompilerPanic("emit: argument must be a struct literal")
	}
	sig, ok := l.eventSigs[lit.Name]
	if !ok {
		return nil, ir.NewCompilerPanic("emit: %q is not a #[event] struct", lit.Name)
	}

	size := int64(len(lit.Fields)) * 32
	data := l.builder.Alloca(size, true)
	for i, f := range lit.Fields {
		v, err := l.lowerExpr(f.Value)
		if err != nil {
			return nil, err
		}
		offset := l.builder.Emit("add", "field_offset", data, ir.LiteralFromInt64(int64(i)*32))
		l.builder.EmitVoid("mstore", offset, v)
	}

	l.builder.EmitVoid("log1", data, ir.LiteralFromInt64(size), ir.NewLiteral(sig))
	return nil, nil
}
