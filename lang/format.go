package lang

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
)

// Format writes the document in canonical ObjectText syntax.
//
// With indent > 0 every statement and element is written on its own line,
// nested bodies indented by that many spaces. With indent == 0 each
// top-level statement is written on a single line.
func (d *Document) Format(_ context.Context, w io.Writer, indent int) error {
	bw := bufio.NewWriter(w)
	f := &formatter{w: bw, indent: indent}

	for i, stmt := range d.Statements {
		if i > 0 && indent > 0 {
			if _, isAssign := stmt.(*Assignment); !isAssign {
				f.newline()
			}
		}

		f.node(stmt, 0)
		f.newline()
	}

	return bw.Flush()
}

// FormatNode writes a single node in canonical ObjectText syntax.
func FormatNode(w io.Writer, n Node, indent int) error {
	bw := bufio.NewWriter(w)
	f := &formatter{w: bw, indent: indent}

	f.node(n, 0)

	return bw.Flush()
}

// FormatJSON writes the document as a JSON syntax tree.
func (d *Document) FormatJSON(_ context.Context, w io.Writer, indent int) error {
	var (
		jsonData []byte
		err      error
	)

	if indent > 0 {
		jsonData, err = json.MarshalIndent(d, "", strings.Repeat(" ", indent))
	} else {
		jsonData, err = json.Marshal(d)
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(jsonData))

	return err
}

// FormatYAML writes the document as a YAML syntax tree.
func (d *Document) FormatYAML(ctx context.Context, w io.Writer, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	yamlData, err := yaml.MarshalContext(ctx, d.ToNative(), opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(yamlData))

	return err
}

// formatter writes canonical syntax. Write errors are kept by the
// underlying bufio.Writer and reported by Flush.
type formatter struct {
	w      *bufio.Writer
	indent int
}

func (f *formatter) write(s ...string) {
	for _, v := range s {
		_, _ = f.w.WriteString(v)
	}
}

func (f *formatter) newline() { f.write("\n") }

func (f *formatter) pad(depth int) {
	f.write(strings.Repeat(" ", depth*f.indent))
}

func (f *formatter) node(n Node, depth int) {
	switch n := n.(type) {
	case *Assignment:
		f.write(n.Key.Name, " = ")
		f.node(n.Value, depth)

	case *Block:
		f.header(n.Key, n.Extensions)
		f.body("{", "}", len(n.Members), func(i int) { f.node(n.Members[i], depth+1) }, depth)

	case *List:
		f.header(n.Key, n.Extensions)
		f.body("[", "]", len(n.Elements), func(i int) { f.node(n.Elements[i], depth+1) }, depth)

	case *Extension:
		f.write(n.Path.Path())

	case Expr:
		f.write(formatExpr(n))

	case *String:
		f.write(quote(n.Text))

	case *Verbatim:
		f.write(`@"`, n.Text, `"`)

	case *Bool:
		if n.Value {
			f.write("true")
		} else {
			f.write("false")
		}

	case *Identifier:
		f.write(n.Name)

	case *BareString:
		f.write(n.Text)
	}
}

func (f *formatter) header(key *Identifier, exts []*Extension) {
	if key != nil {
		f.write(key.Name)

		if len(exts) == 0 {
			f.write(" ")
		}
	}

	if len(exts) > 0 {
		if key != nil {
			f.write(" ")
		}

		f.write(": ")

		for i, ext := range exts {
			if i > 0 {
				f.write(", ")
			}

			f.write(ext.Path.Path())
		}

		f.write(" ")
	}
}

func (f *formatter) body(open, close string, n int, elem func(int), depth int) {
	f.write(open)

	if n == 0 {
		f.write(close)

		return
	}

	if f.indent == 0 {
		f.write(" ")

		for i := range n {
			if i > 0 {
				f.write("; ")
			}

			elem(i)
		}

		f.write(" ", close)

		return
	}

	f.newline()

	for i := range n {
		f.pad(depth + 1)
		elem(i)
		f.newline()
	}

	f.pad(depth)
	f.write(close)
}

// formatExpr renders an expression with the minimum parentheses needed to
// parse back to the same tree.
func formatExpr(e Expr) string {
	switch e := e.(type) {
	case *Number:
		return e.Text

	case *Reference:
		return "&" + e.Path()

	case *UnaryExpr:
		operand := formatExpr(e.Operand)
		if _, ok := e.Operand.(*BinaryExpr); ok {
			operand = "(" + operand + ")"
		}

		return e.Op.String() + operand

	case *BinaryExpr:
		left := formatExpr(e.Left)
		if l, ok := e.Left.(*BinaryExpr); ok && l.Op.precedence() < e.Op.precedence() {
			left = "(" + left + ")"
		}

		right := formatExpr(e.Right)
		if r, ok := e.Right.(*BinaryExpr); ok && r.Op.precedence() <= e.Op.precedence() {
			right = "(" + right + ")"
		}

		return left + " " + e.Op.String() + " " + right

	case *Call:
		args := make([]string, len(e.Args))
		for i, arg := range e.Args {
			args[i] = formatExpr(arg)
		}

		return e.Func.Name + "(" + strings.Join(args, ", ") + ")"
	}

	return ""
}

// quote renders text as a double-quoted string using the escapes the
// scanner understands.
func quote(text string) string {
	var b strings.Builder

	b.WriteByte('"')

	for _, r := range text {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case 0:
			b.WriteString(`\0`)
		default:
			b.WriteRune(r)
		}
	}

	b.WriteByte('"')

	return b.String()
}

// Print writes an indented debugging tree of the document, one node per
// line with its source span.
func (d *Document) Print(w io.Writer) error {
	bw := bufio.NewWriter(w)

	for c := range d.Walk() {
		_, _ = fmt.Fprintf(bw, "%s%s %s\n", strings.Repeat("  ", c.Depth), describe(c.Node), c.Node.Span())
	}

	for _, diag := range d.Diagnostics {
		_, _ = fmt.Fprintf(bw, "%s %s: %s\n", diag.Severity, diag.Span.Start, diag.Message)
	}

	return bw.Flush()
}

// describe returns a one-line summary of n for debugging output.
func describe(n Node) string {
	switch n := n.(type) {
	case *Assignment:
		return "Assignment"
	case *Block:
		return summarize("Block", n.Incomplete)
	case *List:
		return summarize("List", n.Incomplete)
	case *Extension:
		return "Extension"
	case *Identifier:
		return "Identifier " + n.Name
	case *String:
		return "String " + quote(n.Text)
	case *Verbatim:
		return `Verbatim @"` + n.Text + `"`
	case *Bool:
		return fmt.Sprintf("Bool %t", n.Value)
	case *Number:
		return "Number " + n.Text
	case *UnaryExpr:
		return "UnaryExpr " + n.Op.String()
	case *BinaryExpr:
		return "BinaryExpr " + n.Op.String()
	case *Call:
		return "Call"
	case *Reference:
		return "Reference " + n.RefKind.String() + " " + n.Path()
	case *BareString:
		return "BareString " + quote(n.Text)
	default:
		return fmt.Sprintf("%T", n)
	}
}

func summarize(name string, incomplete bool) string {
	if incomplete {
		return name + " (incomplete)"
	}

	return name
}
