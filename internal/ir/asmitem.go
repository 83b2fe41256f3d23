package ir

// AsmItem is one element of the flat opcode/immediate/label-marker stream
// the core hands to the downstream assembler (spec.md §6): exactly one of
// Push, Op, Label, or PushLabel is set.
type AsmItem struct {
	Push      *Uint256 // non-nil: push this immediate value
	Op        string   // non-empty: a bare mnemonic (MSTORE, SWAP3, ADD, ...)
	Label     *Label   // non-nil: a label marker (jump destination)
	PushLabel *Label   // non-nil: push this label's (link-time resolved) address
}

// Assembly is an append-only sink of AsmItems, used by both StackSpiller
// and the venom-to-assembly emission walk.
type Assembly struct {
	Items []AsmItem
}

func NewAssembly() *Assembly { return &Assembly{} }

func (a *Assembly) PushImmediate(v int64) {
	u := Uint256FromInt64(v)
	a.Items = append(a.Items, AsmItem{Push: &u})
}

func (a *Assembly) Op(mnemonic string) {
	a.Items = append(a.Items, AsmItem{Op: mnemonic})
}

func (a *Assembly) MarkLabel(l *Label) {
	a.Items = append(a.Items, AsmItem{Label: l})
}

// PushLabelRef emits a symbolic address push for a jump target; resolved
// to a concrete PC by the linker stage that assigns offsets to MarkLabel
// markers (out of this core's scope — spec.md §6 treats the AsmItem stream
// itself as the core's external interface).
func (a *Assembly) PushLabelRef(l *Label) {
	a.Items = append(a.Items, AsmItem{PushLabel: l})
}

func (a *Assembly) String() string {
	out := ""
	for _, it := range a.Items {
		switch {
		case it.Push != nil:
			out += "PUSH " + it.Push.String() + "\n"
		case it.PushLabel != nil:
			out += "PUSH @" + it.PushLabel.Name + "\n"
		case it.Label != nil:
			out += it.Label.Name + ":\n"
		default:
			out += it.Op + "\n"
		}
	}
	return out
}
