package lang

import (
	"iter"
	"strings"
)

// Document is the root of a parsed ObjectText source: an ordered sequence
// of top-level statements plus the diagnostics recorded while parsing.
//
// A Document is never modified after parsing completes.
type Document struct {
	Statements  []Statement
	Diagnostics []*Diagnostic

	source   []byte
	filename string
	cause    error // set when parsing stopped early
}

// Source returns the text the document was parsed from.
func (d *Document) Source() string { return string(d.source) }

// Filename returns the name given with [WithFilename], if any.
func (d *Document) Filename() string { return d.filename }

// Errors returns an iterator over the error-severity diagnostics.
func (d *Document) Errors() iter.Seq[*Diagnostic] {
	return func(yield func(*Diagnostic) bool) {
		for _, diag := range d.Diagnostics {
			if diag.Severity == SeverityError && !yield(diag) {
				return
			}
		}
	}
}

// Err returns a [*ParseError] describing the error-severity diagnostics, or
// nil if there are none. If parsing was interrupted by context
// cancellation, the context error is returned wrapped in [ErrParse].
func (d *Document) Err() error {
	if d.cause != nil {
		return ErrParse.Wrap(d.cause)
	}

	var errs []*Diagnostic

	for diag := range d.Errors() {
		errs = append(errs, diag)
	}

	if len(errs) == 0 {
		return nil
	}

	return NewParseError(errs, string(d.source), d.filename)
}

// Node is implemented by every syntax tree node.
type Node interface {
	Span() Span
	node()
}

// Statement is a key-bound construct: an [*Assignment], or a keyed
// [*Block] or [*List].
type Statement interface {
	Node
	StatementKey() *Identifier
}

// Value is any node that can appear on the right of '=' or as a list
// element. Exactly one concrete type is active per value site.
type Value interface {
	Node
	Kind() Kind
}

// Expr is the arithmetic subset of [Value]: [*Number], [*Reference],
// [*UnaryExpr], [*BinaryExpr] and [*Call].
type Expr interface {
	Value
	expr()
}

// Kind identifies the concrete type of a [Value].
type Kind int

const (
	KindString     Kind = iota // String
	KindVerbatim               // Verbatim
	KindIdentifier             // Identifier
	KindBool                   // Bool
	KindNumber                 // Number
	KindUnary                  // UnaryExpr
	KindBinary                 // BinaryExpr
	KindCall                   // Call
	KindReference              // Reference
	KindBlock                  // Block
	KindList                   // List
	KindBareString             // BareString
)

// String returns the name of the value kind.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "String"

	case KindVerbatim:
		return "Verbatim"

	case KindIdentifier:
		return "Identifier"

	case KindBool:
		return "Bool"

	case KindNumber:
		return "Number"

	case KindUnary:
		return "UnaryExpr"

	case KindBinary:
		return "BinaryExpr"

	case KindCall:
		return "Call"

	case KindReference:
		return "Reference"

	case KindBlock:
		return "Block"

	case KindList:
		return "List"

	case KindBareString:
		return "BareString"

	default:
		return "Unknown"
	}
}

// Identifier is a dotted name. A leading dot is kept and is significant.
// Identifiers are used both as statement keys and as values.
type Identifier struct {
	Name string
	Pos  Span
}

// Relative reports whether the identifier starts with a dot.
func (id *Identifier) Relative() bool { return strings.HasPrefix(id.Name, ".") }

func (id *Identifier) Span() Span  { return id.Pos }
func (id *Identifier) Kind() Kind  { return KindIdentifier }
func (id *Identifier) String() string {
	if id == nil {
		return ""
	}

	return id.Name
}

// Assignment is `key = value`.
type Assignment struct {
	Key   *Identifier
	Value Value
	Pos   Span
}

func (a *Assignment) Span() Span               { return a.Pos }
func (a *Assignment) StatementKey() *Identifier { return a.Key }

// Block is `key [: extensions] { members }`. Key is nil for a block used as
// a value without a name.
type Block struct {
	Key        *Identifier
	Extensions []*Extension
	Members    []Statement
	Pos        Span

	// Incomplete is set when the closing '}' is missing.
	Incomplete bool
}

func (b *Block) Span() Span               { return b.Pos }
func (b *Block) Kind() Kind               { return KindBlock }
func (b *Block) StatementKey() *Identifier { return b.Key }

// List is `key [: extensions] [ elements ]`. Key is nil for a list used as
// a value without a name. Each element is either a [Statement] or a
// [Value].
type List struct {
	Key        *Identifier
	Extensions []*Extension
	Elements   []Node
	Pos        Span

	// Incomplete is set when the closing ']' is missing.
	Incomplete bool
}

func (l *List) Span() Span               { return l.Pos }
func (l *List) Kind() Kind               { return KindList }
func (l *List) StatementKey() *Identifier { return l.Key }

// Extension is one inheritance entry of a block or list. Extensions apply
// in declaration order.
type Extension struct {
	Path *Reference
}

func (e *Extension) Span() Span { return e.Path.Pos }

// String returns the extension path as written.
func (e *Extension) String() string { return e.Path.Path() }

// RefKind distinguishes internal and external references.
type RefKind int

const (
	RefInternal RefKind = iota // internal
	RefExternal                // external
)

// String returns "internal" or "external".
func (k RefKind) String() string {
	if k == RefExternal {
		return "external"
	}

	return "internal"
}

// Anchor is the optional leading group of an internal path.
type Anchor int

const (
	AnchorNone    Anchor = iota //
	AnchorCurrent               // ./
	AnchorHome                  // ~/
	AnchorRoot                  // /
)

// String returns the anchor as written in source.
func (a Anchor) String() string {
	switch a {
	case AnchorCurrent:
		return "./"
	case AnchorHome:
		return "~/"
	case AnchorRoot:
		return "/"
	default:
		return ""
	}
}

// SegmentKind classifies a path component.
type SegmentKind int

const (
	SegmentName     SegmentKind = iota // name
	SegmentParent                      // ..
	SegmentAncestor                    // ^
)

// Segment is one component of a reference path.
type Segment struct {
	Kind SegmentKind
	Name string
	Pos  Span
}

// String returns the segment as written in source.
func (s Segment) String() string {
	switch s.Kind {
	case SegmentParent:
		return ".."
	case SegmentAncestor:
		return "^"
	default:
		return s.Name
	}
}

// Reference is a symbolic path into the current document (internal) or
// into another file (external). References are never resolved by the
// parser.
type Reference struct {
	RefKind  RefKind
	File     string // external only, without angle brackets
	Anchor   Anchor // internal only
	Segments []Segment
	Pos      Span

	// Sigil is set when the path was written with a leading '&'.
	Sigil bool
}

func (r *Reference) Span() Span { return r.Pos }
func (r *Reference) Kind() Kind { return KindReference }
func (r *Reference) expr()      {}

// Path returns the path as written, without the '&' sigil.
func (r *Reference) Path() string {
	var b strings.Builder

	if r.RefKind == RefExternal {
		b.WriteString("<" + r.File + ">")

		for _, seg := range r.Segments {
			b.WriteString("/" + seg.String())
		}

		return b.String()
	}

	b.WriteString(r.Anchor.String())

	for i, seg := range r.Segments {
		if i > 0 {
			b.WriteByte('/')
		}

		b.WriteString(seg.String())
	}

	return b.String()
}

// String is a double-quoted string. Text is the decoded content.
type String struct {
	Text string
	Raw  string
	Pos  Span

	// Legacy is set for a string closed by end of line.
	Legacy bool
}

func (s *String) Span() Span { return s.Pos }
func (s *String) Kind() Kind { return KindString }

// Verbatim is an @"..." string. Text keeps escape sequences as written.
type Verbatim struct {
	Text string
	Raw  string
	Pos  Span
}

func (v *Verbatim) Span() Span { return v.Pos }
func (v *Verbatim) Kind() Kind { return KindVerbatim }

// Bool is `true` or `false`.
type Bool struct {
	Value bool
	Pos   Span
}

func (b *Bool) Span() Span { return b.Pos }
func (b *Bool) Kind() Kind { return KindBool }

// Number is a numeric literal. Value is parsed from Text with digit
// separators and the unit suffix removed.
type Number struct {
	Text  string
	Value float64
	Unit  string // "", "d", "r" or "%"
	Pos   Span
}

func (n *Number) Span() Span { return n.Pos }
func (n *Number) Kind() Kind { return KindNumber }
func (n *Number) expr()      {}

// Operator is an arithmetic operator.
type Operator byte

const (
	OpAdd Operator = '+'
	OpSub Operator = '-'
	OpMul Operator = '*'
	OpDiv Operator = '/'
	OpNeg Operator = '-'
)

// String returns the operator symbol.
func (o Operator) String() string { return string(rune(o)) }

// precedence returns the binding power of a binary operator.
func (o Operator) precedence() int {
	switch o {
	case OpMul, OpDiv:
		return 2
	default:
		return 1
	}
}

// UnaryExpr is `-operand`.
type UnaryExpr struct {
	Op      Operator
	Operand Expr
	Pos     Span
}

func (u *UnaryExpr) Span() Span { return u.Pos }
func (u *UnaryExpr) Kind() Kind { return KindUnary }
func (u *UnaryExpr) expr()      {}

// BinaryExpr is `left op right`.
type BinaryExpr struct {
	Op    Operator
	Left  Expr
	Right Expr
	Pos   Span
}

func (b *BinaryExpr) Span() Span { return b.Pos }
func (b *BinaryExpr) Kind() Kind { return KindBinary }
func (b *BinaryExpr) expr()      {}

// Call is `name(args...)`.
type Call struct {
	Func *Identifier
	Args []Expr
	Pos  Span
}

func (c *Call) Span() Span { return c.Pos }
func (c *Call) Kind() Kind { return KindCall }
func (c *Call) expr()      {}

// BareString is unquoted free text, the fallback value form.
type BareString struct {
	Text string
	Pos  Span
}

func (b *BareString) Span() Span { return b.Pos }
func (b *BareString) Kind() Kind { return KindBareString }

func (*Identifier) node()  {}
func (*Assignment) node()  {}
func (*Block) node()       {}
func (*List) node()        {}
func (*Extension) node()   {}
func (*Reference) node()   {}
func (*String) node()      {}
func (*Verbatim) node()    {}
func (*Bool) node()        {}
func (*Number) node()      {}
func (*UnaryExpr) node()   {}
func (*BinaryExpr) node()  {}
func (*Call) node()        {}
func (*BareString) node()  {}
