package ir

import "strconv"

// Parser is a hand-written recursive-descent parser over Lexer's token
// stream, grounded 1:1 on vyper's venom/parser.py LALR grammar (spec.md
// §4.2/§6): the grammar is LL(1) once operand alternatives are
// distinguished by lexical token type (VAR_IDENT/CONST/LABEL_REF never
// collide with a bare IDENT opcode name), so a hand-rolled parser captures
// it without needing a parser-generator dependency — unlike the front
// end's AST grammar, which stays on participle (see SPEC_FULL.md §4.14).
type Parser struct {
	file   string
	toks   []Token
	pos    int
}

func ParseVenom(file, src string) (*Context, error) {
	lx := NewLexer(file, src)
	var toks []Token
	for {
		t := lx.Next()
		toks = append(toks, t)
		if t.Type == TokEOF {
			break
		}
	}
	p := &Parser{file: file, toks: toks}
	return p.parseProgram()
}

func (p *Parser) cur() Token { return p.toks[p.pos] }

func (p *Parser) at(t TokenType) bool { return p.cur().Type == t }

func (p *Parser) atIdent(lit string) bool { return p.cur().Type == TokIdent && p.cur().Literal == lit }

func (p *Parser) advance() Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) skipNewlines() {
	for p.at(TokNewline) {
		p.advance()
	}
}

func (p *Parser) expectNewlines() error {
	if !p.at(TokNewline) {
		return p.errorf("expected newline after statement, got %q", p.cur().Literal)
	}
	p.skipNewlines()
	return nil
}

func (p *Parser) errorf(format string, args ...any) error {
	t := p.cur()
	return NewParseError(SourceSpan{File: p.file, Line: t.Line, Column: t.Column}, format, args...)
}

func (p *Parser) expect(t TokenType) (Token, error) {
	if !p.at(t) {
		return Token{}, p.errorf("expected %s, got %q", t, p.cur().Literal)
	}
	return p.advance(), nil
}

func (p *Parser) parseProgram() (*Context, error) {
	ctx := NewContext()
	p.skipNewlines()
	first := true
	for p.atIdent("function") {
		fn, err := p.parseFunction(ctx)
		if err != nil {
			return nil, err
		}
		if first {
			ctx.EntryFunction = fn.Name
			first = false
		}
		p.skipNewlines()
	}
	if p.atIdent("data") {
		if err := p.parseDataSegment(ctx); err != nil {
			return nil, err
		}
		p.skipNewlines()
	}
	if !p.at(TokEOF) {
		return nil, p.errorf("unexpected trailing token %q", p.cur().Literal)
	}
	return ctx, nil
}

func (p *Parser) parseFuncOrLabelName() (string, error) {
	switch p.cur().Type {
	case TokIdent:
		return p.advance().Literal, nil
	case TokString:
		return p.advance().Literal, nil
	default:
		return "", p.errorf("expected a name, got %q", p.cur().Literal)
	}
}

func (p *Parser) parseFunction(ctx *Context) (*Function, error) {
	p.advance() // "function"
	name, err := p.parseFuncOrLabelName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokLBrace); err != nil {
		return nil, err
	}
	p.skipNewlines()

	type rawBlock struct {
		label string
		insts []*Instruction
	}
	var blocks []rawBlock
	var curLabel string
	var curInsts []*Instruction
	haveLabel := false

	for !p.at(TokRBrace) && !p.at(TokEOF) {
		if p.isLabelDeclAhead() {
			name, err := p.parseFuncOrLabelName()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokColon); err != nil {
				return nil, err
			}
			if err := p.expectNewlines(); err != nil {
				return nil, err
			}
			if haveLabel {
				blocks = append(blocks, rawBlock{curLabel, curInsts})
			}
			curLabel = name
			curInsts = nil
			haveLabel = true
			continue
		}
		inst, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if !haveLabel {
			return nil, p.errorf("instruction found before any label declaration")
		}
		curInsts = append(curInsts, inst)
	}
	if haveLabel {
		blocks = append(blocks, rawBlock{curLabel, curInsts})
	}
	if _, err := p.expect(TokRBrace); err != nil {
		return nil, err
	}

	fn := ctx.CreateFunction(name)
	maxVar := 0
	for _, rb := range blocks {
		bb := NewBasicBlock(NewSymbolLabel(rb.label))
		bb.Function = fn
		fn.blocks = append(fn.blocks, bb)
		fn.blockByID[rb.label] = bb
		for _, inst := range rb.insts {
			bb.Append(inst)
			if inst.Output != nil {
				if n, err := strconv.Atoi(inst.Output.Name); err == nil && n > maxVar {
					maxVar = n
				}
			}
		}
	}
	fn.varCounter = maxVar
	fn.RecomputeAllCFG()
	return fn, nil
}

// isLabelDeclAhead peeks whether the upcoming tokens form `name ":"`
// (a label declaration) as opposed to the start of a statement; every
// statement alternative begins with VAR_IDENT (assignment) or IDENT
// immediately followed by an operand/newline, never by a bare colon.
func (p *Parser) isLabelDeclAhead() bool {
	if p.cur().Type != TokIdent && p.cur().Type != TokString {
		return false
	}
	next := p.toks[minInt(p.pos+1, len(p.toks)-1)]
	return next.Type == TokColon
}

func (p *Parser) parseStatement() (*Instruction, error) {
	var inst *Instruction
	var err error
	if p.at(TokVarIdent) {
		inst, err = p.parseAssignment()
	} else {
		inst, err = p.parseInstruction()
	}
	if err != nil {
		return nil, err
	}
	if err := p.expectNewlines(); err != nil {
		return nil, err
	}
	return inst, nil
}

func (p *Parser) parseAssignment() (*Instruction, error) {
	varTok, err := p.expect(TokVarIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokAssign); err != nil {
		return nil, err
	}
	out := parseVarIdentLiteral(varTok.Literal)

	if p.at(TokIdent) {
		inst, err := p.parseInstruction()
		if err != nil {
			return nil, err
		}
		inst.Output = out
		return inst, nil
	}
	op, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	return &Instruction{Opcode: "assign", Operands: []Operand{op}, Output: out}, nil
}

func (p *Parser) parseInstruction() (*Instruction, error) {
	opTok, err := p.expect(TokIdent)
	if err != nil {
		return nil, err
	}
	opcode := opTok.Literal
	var operands []Operand
	if p.at(TokVarIdent) || p.at(TokConst) || p.at(TokLabelRef) {
		operands, err = p.parseOperandsList()
		if err != nil {
			return nil, err
		}
	}
	operands = reorderParsedOperands(opcode, operands)
	return &Instruction{Opcode: opcode, Operands: operands}, nil
}

// reorderParsedOperands applies the textual-to-internal operand reordering
// rule from spec.md §4.2/§6: operands are written left-to-right in source
// but stored internally with the rightmost conceptual operand first,
// except for jmp/jnz/djmp/phi (kept as written) and invoke (only the
// trailing stack arguments are reversed; the callee label stays first).
func reorderParsedOperands(opcode string, operands []Operand) []Operand {
	switch opcode {
	case "jmp", "jnz", "djmp", "phi":
		return operands
	case "invoke":
		if len(operands) == 0 {
			return operands
		}
		out := make([]Operand, 0, len(operands))
		out = append(out, operands[0])
		for i := len(operands) - 1; i >= 1; i-- {
			out = append(out, operands[i])
		}
		return out
	default:
		out := make([]Operand, len(operands))
		for i, op := range operands {
			out[len(operands)-1-i] = op
		}
		return out
	}
}

func (p *Parser) parseOperandsList() ([]Operand, error) {
	var out []Operand
	op, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	out = append(out, op)
	for p.at(TokComma) {
		p.advance()
		op, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		out = append(out, op)
	}
	return out, nil
}

func (p *Parser) parseOperand() (Operand, error) {
	switch p.cur().Type {
	case TokVarIdent:
		t := p.advance()
		return parseVarIdentLiteral(t.Literal), nil
	case TokConst:
		t := p.advance()
		return parseConstLiteral(t.Literal)
	case TokLabelRef:
		t := p.advance()
		return NewSymbolLabel(t.Literal), nil
	default:
		return nil, p.errorf("expected an operand, got %q", p.cur().Literal)
	}
}

func parseVarIdentLiteral(lit string) *Variable {
	name := lit
	version := 0
	for i := len(lit) - 1; i >= 0; i-- {
		if lit[i] == ':' {
			if n, err := strconv.Atoi(lit[i+1:]); err == nil {
				name = lit[:i]
				version = n
			}
			break
		}
	}
	return &Variable{Name: name, Version: version}
}

func parseConstLiteral(lit string) (*Literal, error) {
	base := 10
	s := lit
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base = 16
		s = s[2:]
	}
	n, err := strconv.ParseInt(s, base, 64)
	if err != nil {
		v := new(bigInt)
		if !v.setString(s, base) {
			return nil, NewParseError(SourceSpan{}, "invalid literal %q", lit)
		}
		if neg {
			v.negate()
		}
		return NewLiteral(v.toUint256()), nil
	}
	if neg {
		n = -n
	}
	return LiteralFromInt64(n), nil
}

func (p *Parser) parseDataSegment(ctx *Context) error {
	p.advance() // "data"
	if !p.atIdent("readonly") {
		return p.errorf("expected 'readonly' after 'data'")
	}
	p.advance()
	if _, err := p.expect(TokLBrace); err != nil {
		return err
	}
	p.skipNewlines()
	for p.atIdent("dbsection") {
		seg, err := p.parseDataSection()
		if err != nil {
			return err
		}
		ctx.AddDataSegment(seg)
		p.skipNewlines()
	}
	_, err := p.expect(TokRBrace)
	return err
}

func (p *Parser) parseDataSection() (DataSegment, error) {
	p.advance() // "dbsection"
	name, err := p.parseFuncOrLabelName()
	if err != nil {
		return DataSegment{}, err
	}
	if _, err := p.expect(TokColon); err != nil {
		return DataSegment{}, err
	}
	if err := p.expectNewlines(); err != nil {
		return DataSegment{}, err
	}
	seg := DataSegment{Label: NewSymbolLabel(name)}
	for p.atIdent("db") {
		item, err := p.parseDataItem()
		if err != nil {
			return DataSegment{}, err
		}
		seg.Items = append(seg.Items, item)
	}
	return seg, nil
}

func (p *Parser) parseDataItem() (DataItem, error) {
	p.advance() // "db"
	var item DataItem
	switch p.cur().Type {
	case TokHexStr:
		t := p.advance()
		b, err := hexDecode(t.Literal)
		if err != nil {
			return DataItem{}, p.errorf("invalid hex string: %v", err)
		}
		item = DataItem{Bytes: b}
	case TokLabelRef:
		t := p.advance()
		item = DataItem{LabelRef: NewSymbolLabel(t.Literal)}
	default:
		return DataItem{}, p.errorf("expected hex string or label reference, got %q", p.cur().Literal)
	}
	if err := p.expectNewlines(); err != nil {
		return DataItem{}, err
	}
	return item, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func hexDecode(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, NewParseError(SourceSpan{}, "odd-length hex string")
	}
	out := make([]byte, len(s)/2)
	for i := 0; i < len(out); i++ {
		hi, err := hexNibble(s[i*2])
		if err != nil {
			return nil, err
		}
		lo, err := hexNibble(s[i*2+1])
		if err != nil {
			return nil, err
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexNibble(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	default:
		return 0, NewParseError(SourceSpan{}, "invalid hex digit %q", c)
	}
}
