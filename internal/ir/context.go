package ir

// Context is the only resource shared across functions (spec.md §5): it
// owns the function list and, per spec.md §6, an optional data section
// (raw byte blobs emitted alongside code, e.g. string/bytes constants).
// Callers are expected to serialize access; the core itself never spawns
// goroutines over a Context.
type Context struct {
	Functions []*Function
	byName    map[string]*Function

	DataSegments []DataSegment

	EntryFunction string
}

// DataSegment is a named, read-only byte blob referenced by label from
// code (e.g. `dbsection` entries for event signatures/constant strings).
type DataSegment struct {
	Label *Label
	Items []DataItem
}

// DataItem is one item of a data segment: either raw bytes or a reference
// to another label (used for nested/constructor-appended data sections).
type DataItem struct {
	Bytes     []byte
	LabelRef  *Label
}

func NewContext() *Context {
	return &Context{byName: map[string]*Function{}}
}

func (c *Context) CreateFunction(name string) *Function {
	f := NewFunction(name)
	f.Context = c
	c.Functions = append(c.Functions, f)
	c.byName[name] = f
	return f
}

func (c *Context) GetFunction(name string) *Function { return c.byName[name] }

func (c *Context) AddDataSegment(seg DataSegment) { c.DataSegments = append(c.DataSegments, seg) }

func (c *Context) Validate() error {
	for _, f := range c.Functions {
		if err := f.Validate(); err != nil {
			return err
		}
	}
	return nil
}
