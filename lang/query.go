package lang

import (
	"context"
	"log/slog"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// QueryEnv is the environment a query predicate is evaluated against,
// once per node.
type QueryEnv struct {
	// Kind is the node type name, e.g. "Assignment", "Block" or "Number".
	Kind string `expr:"kind"`
	// Key is the statement key of keyed statements, empty otherwise.
	Key string `expr:"key"`
	// Path is the key path of the node (see [Cursor]).
	Path string `expr:"path"`
	// Text is the source text spanned by the node.
	Text string `expr:"text"`
	// Value is the decoded text of strings, the name of identifiers, the
	// path of references and "true" or "false" for booleans.
	Value string `expr:"value"`
	// Number is the parsed value of number literals.
	Number float64 `expr:"number"`
	// Unit is the unit suffix of number literals.
	Unit string `expr:"unit"`

	Depth  int `expr:"depth"`
	Line   int `expr:"line"`
	Column int `expr:"column"`

	// Extensions lists the extension paths of blocks and lists.
	Extensions []string `expr:"extensions"`
}

// Query is a compiled node predicate.
type Query struct {
	source  string
	program *vm.Program
}

// CompileQuery compiles a boolean expr-lang predicate over [QueryEnv].
func CompileQuery(predicate string) (*Query, error) {
	program, err := expr.Compile(predicate, expr.Env(QueryEnv{}), expr.AsBool())
	if err != nil {
		return nil, ErrQueryCompile.Wrap(err).
			With(slog.String("source", predicate))
	}

	return &Query{source: predicate, program: program}, nil
}

// String returns the predicate source.
func (q *Query) String() string { return q.source }

// Match evaluates the predicate for the node at c.
func (q *Query) Match(d *Document, c Cursor) (bool, error) {
	out, err := vm.Run(q.program, d.queryEnv(c))
	if err != nil {
		return false, ErrQueryEvaluate.Wrap(err).
			With(slog.String("source", q.source), slog.Any("span", c.Node.Span()))
	}

	ok, _ := out.(bool)

	return ok, nil
}

// Query returns the nodes, in document order, for which predicate holds.
// For example:
//
//	kind == "Number" && unit == "%"
//	kind == "Block" && "Base" in extensions
//	key startsWith "Sprite" && depth > 1
func (d *Document) Query(ctx context.Context, predicate string) ([]Cursor, error) {
	q, err := CompileQuery(predicate)
	if err != nil {
		return nil, err
	}

	return d.Select(ctx, q)
}

// Select returns the nodes, in document order, matched by q.
func (d *Document) Select(ctx context.Context, q *Query) ([]Cursor, error) {
	var matches []Cursor

	for c := range d.Walk() {
		if err := ctx.Err(); err != nil {
			return matches, ErrQueryEvaluate.Wrap(err)
		}

		ok, err := q.Match(d, c)
		if err != nil {
			return matches, err
		}

		if ok {
			matches = append(matches, c)
		}
	}

	return matches, nil
}

func (d *Document) queryEnv(c Cursor) QueryEnv {
	span := c.Node.Span()

	env := QueryEnv{
		Kind:   NodeKind(c.Node),
		Path:   c.Path,
		Depth:  c.Depth,
		Line:   span.Start.Line,
		Column: span.Start.Column,
	}

	if span.Start.Offset <= span.End.Offset && span.End.Offset <= len(d.source) {
		env.Text = string(d.source[span.Start.Offset:span.End.Offset])
	}

	if stmt, ok := c.Node.(Statement); ok && stmt.StatementKey() != nil {
		env.Key = stmt.StatementKey().Name
	}

	var exts []*Extension

	switch n := c.Node.(type) {
	case *Block:
		exts = n.Extensions
	case *List:
		exts = n.Extensions
	case *String:
		env.Value = n.Text
	case *Verbatim:
		env.Value = n.Text
	case *BareString:
		env.Value = n.Text
	case *Identifier:
		env.Value = n.Name
	case *Reference:
		env.Value = n.Path()
	case *Bool:
		env.Value = "false"
		if n.Value {
			env.Value = "true"
		}
	case *Number:
		env.Value = n.Text
		env.Number = n.Value
		env.Unit = n.Unit
	}

	for _, ext := range exts {
		env.Extensions = append(env.Extensions, ext.Path.Path())
	}

	return env
}

// NodeKind returns the type name of n, as matched by the kind field of a
// query.
func NodeKind(n Node) string {
	switch n := n.(type) {
	case Value:
		return n.Kind().String()
	case *Assignment:
		return "Assignment"
	case *Extension:
		return "Extension"
	default:
		return "Unknown"
	}
}
