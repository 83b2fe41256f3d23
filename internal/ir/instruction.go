package ir

import "strings"

// Instruction is a single IR operation: an opcode, its operand list (in the
// IR's internal order — rightmost conceptual operand first, i.e. operand
// index 0 is what the textual grammar prints last), an optional single
// output variable, and bookkeeping fields used by analyses and passes.
//
// Instruction does not know which BasicBlock owns it beyond the back
// pointer set by BasicBlock.Append/InsertBefore; callers must go through
// the owning block's mutation helpers rather than editing Operands/Output
// directly, so the DFG and liveness caches can be invalidated correctly.
type Instruction struct {
	Opcode    string
	Operands  []Operand
	Output    *Variable // nil for no-output instructions
	Block     *BasicBlock

	// Annotation is a free-form debug string a pass may attach (e.g. "from
	// algebraic: x*1 -> x"); printed as a trailing comment by Printer.
	Annotation string

	// AstSource is an opaque back-reference into the front end's AST for
	// diagnostics; the core never dereferences it.
	AstSource any

	// ErrorMsg, when non-empty, marks this instruction as a deferred
	// compile-time error (used by assert-folding in SCCP): emitting code
	// for an instruction with a non-empty ErrorMsg is a StaticAssertion
	// failure, caught before assembly emission.
	ErrorMsg string
}

func newInstruction(opcode string, operands []Operand, output *Variable) *Instruction {
	return &Instruction{Opcode: opcode, Operands: append([]Operand(nil), operands...), Output: output}
}

// Closed classification sets, keyed by opcode string.

var bbTerminators = set("jmp", "djmp", "jnz", "ret", "return", "stop", "exit", "sink")

var cfgAlteringInstructions = set("jmp", "djmp", "jnz")

var noOutputInstructions = set(
	"jmp", "djmp", "jnz", "ret", "return", "stop", "exit", "sink",
	"mstore", "sstore", "tstore", "calldatacopy", "codecopy", "extcodecopy", "returndatacopy",
	"mcopy", "log0", "log1", "log2", "log3", "log4",
	"invalid", "selfdestruct", "assert", "assert_unreachable", "dloadbytes",
)

// volatileInstructions is a superset of noOutputInstructions: it also
// includes effectful instructions that DO produce an output (calls,
// sha3/keccak256 on memory, create/create2) and therefore can never be
// treated as pure by DCE or reordered across another volatile instruction
// by the DFT scheduler.
var volatileInstructions = unionSets(noOutputInstructions, set(
	"call", "staticcall", "delegatecall", "create", "create2",
	"sha3", "keccak256", "mload", "sload", "tload", "calldataload",
	"invoke", "param", "palloca", "calloca",
))

var commutativeInstructions = set("add", "mul", "smul", "or", "xor", "and", "eq")

var comparatorInstructions = set("gt", "lt", "sgt", "slt")

var pseudoInstructions = set("phi", "param")

func set(items ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, s := range items {
		m[s] = struct{}{}
	}
	return m
}

func unionSets(sets ...map[string]struct{}) map[string]struct{} {
	m := make(map[string]struct{})
	for _, s := range sets {
		for k := range s {
			m[k] = struct{}{}
		}
	}
	return m
}

func IsTerminator(opcode string) bool { _, ok := bbTerminators[opcode]; return ok }

func IsCFGAltering(opcode string) bool { _, ok := cfgAlteringInstructions[opcode]; return ok }

func IsNoOutput(opcode string) bool { _, ok := noOutputInstructions[opcode]; return ok }

func IsVolatile(opcode string) bool { _, ok := volatileInstructions[opcode]; return ok }

func IsCommutative(opcode string) bool { _, ok := commutativeInstructions[opcode]; return ok }

func IsComparator(opcode string) bool { _, ok := comparatorInstructions[opcode]; return ok }

func IsPseudo(opcode string) bool { _, ok := pseudoInstructions[opcode]; return ok }

func (i *Instruction) IsTerminator() bool { return IsTerminator(i.Opcode) }

func (i *Instruction) IsVolatile() bool { return IsVolatile(i.Opcode) }

func (i *Instruction) IsPseudo() bool { return IsPseudo(i.Opcode) }

// FlipComparisonOpcode returns the comparator that gives the same result
// with its two operands swapped (gt <-> lt, sgt <-> slt); it is not a
// negation. Only defined for the four comparator opcodes; returns
// ok=false otherwise.
func FlipComparisonOpcode(opcode string) (string, bool) {
	switch opcode {
	case "gt":
		return "lt", true
	case "lt":
		return "gt", true
	case "sgt":
		return "slt", true
	case "slt":
		return "sgt", true
	default:
		return "", false
	}
}

// PhiOperandPairs returns the (label, value) pairs of a phi instruction.
// Phi operands are stored flattened as [label0, value0, label1, value1...]
// in source order (phi is one of the opcodes whose operand order is kept
// as-written rather than reversed, since it must align 1:1 with cfg_in).
func (i *Instruction) PhiOperandPairs() [][2]Operand {
	if i.Opcode != "phi" {
		return nil
	}
	pairs := make([][2]Operand, 0, len(i.Operands)/2)
	for k := 0; k+1 < len(i.Operands); k += 2 {
		pairs = append(pairs, [2]Operand{i.Operands[k], i.Operands[k+1]})
	}
	return pairs
}

// MakeNop clears an instruction to a no-op in place, preserving its slot in
// the block's instruction list (used by dead-store elimination and the
// degenerate-phi cleanup, both of which must not disturb instruction
// ordering or other instructions' back references while erasing one).
func (i *Instruction) MakeNop() {
	i.Opcode = "nop"
	i.Operands = nil
	i.Output = nil
	i.Annotation = ""
}

// MakeAssign rewrites i in place into `output = assign value`, used when a
// phi degenerates to a single live predecessor, or when an optimization
// proves two variables equivalent.
func (i *Instruction) MakeAssign(value Operand) {
	i.Opcode = "assign"
	i.Operands = []Operand{value}
}

func (i *Instruction) String() string {
	var b strings.Builder
	if i.Output != nil {
		b.WriteString(i.Output.String())
		b.WriteString(" = ")
	}
	b.WriteString(i.Opcode)
	for _, op := range i.Operands {
		b.WriteString(" ")
		b.WriteString(op.String())
	}
	return b.String()
}
