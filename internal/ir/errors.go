package ir

import "fmt"

// Error codes, grouped the way the front end's internal/errors package
// groups semantic/parser/type codes: one contiguous range per diagnostic
// kind, so tooling can classify a venom-core failure by code prefix alone.
const (
	ErrorCompilerPanic          = "E0700"
	ErrorStaticAssertionFailure = "E0701"
	ErrorStackTooDeep           = "E0702"
	ErrorParse                  = "E0703"
	ErrorOverflow               = "E0704"
)

func GetErrorDescription(code string) string {
	switch code {
	case ErrorCompilerPanic:
		return "internal compiler invariant violated"
	case ErrorStaticAssertionFailure:
		return "assertion proven false at compile time"
	case ErrorStackTooDeep:
		return "value needed past the 16-slot stack addressability limit and could not be spilled"
	case ErrorParse:
		return "malformed textual IR"
	case ErrorOverflow:
		return "256-bit literal arithmetic overflow"
	default:
		return "unknown venom core error"
	}
}

// SourceSpan locates a diagnostic in the textual IR or, when AstSource is
// threaded through from the front end, in the original source file.
type SourceSpan struct {
	File        string
	Line, Column int
}

func (s SourceSpan) String() string {
	if s.File == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}

// Diagnostic is the common interface all five venom core error kinds
// satisfy; callers (CLI, LSP) can type-switch on Kind() without importing
// each concrete type.
type Diagnostic interface {
	error
	Kind() string
	Message() string
	Location() SourceSpan
}

type CompilerPanic struct {
	Msg string
	Loc SourceSpan
}

func NewCompilerPanic(format string, args ...any) *CompilerPanic {
	return &CompilerPanic{Msg: fmt.Sprintf(format, args...)}
}

func (e *CompilerPanic) Error() string      { return "compiler panic [" + ErrorCompilerPanic + "]: " + e.Msg }
func (e *CompilerPanic) Kind() string       { return "compiler_panic" }
func (e *CompilerPanic) Message() string    { return e.Msg }
func (e *CompilerPanic) Location() SourceSpan { return e.Loc }

type StaticAssertionFailure struct {
	Msg string
	Loc SourceSpan
}

func NewStaticAssertionFailure(format string, args ...any) *StaticAssertionFailure {
	return &StaticAssertionFailure{Msg: fmt.Sprintf(format, args...)}
}

func (e *StaticAssertionFailure) Error() string {
	return "static assertion failure [" + ErrorStaticAssertionFailure + "]: " + e.Msg
}
func (e *StaticAssertionFailure) Kind() string       { return "static_assertion_failure" }
func (e *StaticAssertionFailure) Message() string    { return e.Msg }
func (e *StaticAssertionFailure) Location() SourceSpan { return e.Loc }

type StackTooDeep struct {
	Msg string
	Loc SourceSpan
}

func NewStackTooDeep(format string, args ...any) *StackTooDeep {
	return &StackTooDeep{Msg: fmt.Sprintf(format, args...)}
}

func (e *StackTooDeep) Error() string      { return "stack too deep [" + ErrorStackTooDeep + "]: " + e.Msg }
func (e *StackTooDeep) Kind() string       { return "stack_too_deep" }
func (e *StackTooDeep) Message() string    { return e.Msg }
func (e *StackTooDeep) Location() SourceSpan { return e.Loc }

type ParseError struct {
	Msg string
	Loc SourceSpan
}

func NewParseError(loc SourceSpan, format string, args ...any) *ParseError {
	return &ParseError{Msg: fmt.Sprintf(format, args...), Loc: loc}
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error [%s] at %s: %s", ErrorParse, e.Loc, e.Msg)
}
func (e *ParseError) Kind() string       { return "parse_error" }
func (e *ParseError) Message() string    { return e.Msg }
func (e *ParseError) Location() SourceSpan { return e.Loc }

type OverflowError struct {
	Msg string
	Loc SourceSpan
}

func NewOverflowError(format string, args ...any) *OverflowError {
	return &OverflowError{Msg: fmt.Sprintf(format, args...)}
}

func (e *OverflowError) Error() string      { return "overflow [" + ErrorOverflow + "]: " + e.Msg }
func (e *OverflowError) Kind() string       { return "overflow" }
func (e *OverflowError) Message() string    { return e.Msg }
func (e *OverflowError) Location() SourceSpan { return e.Loc }
