package lang

import (
	"errors"
	"iter"
	"log/slog"
	"strconv"
	"strings"
)

// Cursor describes a node reached while walking a document.
type Cursor struct {
	Node   Node
	Parent Node // nil for top-level statements
	Depth  int  // 0 for top-level statements

	// Path is the '/'-joined key path of the innermost keyed statement
	// containing the node, or of the node itself if it is keyed.
	Path string
}

// Children returns the direct children of n in source order.
func Children(n Node) []Node {
	var out []Node

	switch n := n.(type) {
	case *Assignment:
		out = append(out, n.Key)
		if n.Value != nil {
			out = append(out, n.Value)
		}

	case *Block:
		if n.Key != nil {
			out = append(out, n.Key)
		}

		for _, ext := range n.Extensions {
			out = append(out, ext)
		}

		for _, m := range n.Members {
			out = append(out, m)
		}

	case *List:
		if n.Key != nil {
			out = append(out, n.Key)
		}

		for _, ext := range n.Extensions {
			out = append(out, ext)
		}

		out = append(out, n.Elements...)

	case *Extension:
		out = append(out, n.Path)

	case *UnaryExpr:
		out = append(out, n.Operand)

	case *BinaryExpr:
		out = append(out, n.Left, n.Right)

	case *Call:
		out = append(out, n.Func)
		for _, arg := range n.Args {
			out = append(out, arg)
		}
	}

	return out
}

// Inspect returns an iterator over n and all of its descendants in
// preorder.
func Inspect(n Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		inspect(n, yield)
	}
}

func inspect(n Node, yield func(Node) bool) bool {
	if !yield(n) {
		return false
	}

	for _, c := range Children(n) {
		if !inspect(c, yield) {
			return false
		}
	}

	return true
}

// Walk returns an iterator over every node of the document in preorder,
// with its position in the tree.
func (d *Document) Walk() iter.Seq[Cursor] {
	return func(yield func(Cursor) bool) {
		for _, stmt := range d.Statements {
			var path string
			if key := stmt.StatementKey(); key != nil {
				path = key.Name
			}

			if !walk(Cursor{Node: stmt, Path: path}, yield) {
				return
			}
		}
	}
}

func walk(c Cursor, yield func(Cursor) bool) bool {
	if !yield(c) {
		return false
	}

	for _, child := range Children(c.Node) {
		next := Cursor{Node: child, Parent: c.Node, Depth: c.Depth + 1, Path: c.Path}

		if stmt, ok := child.(Statement); ok && stmt.StatementKey() != nil {
			next.Path = joinPath(c.Path, stmt.StatementKey().Name)
		}

		if !walk(next, yield) {
			return false
		}
	}

	return true
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}

	return parent + "/" + key
}

// Paths returns an iterator over the key path of every keyed statement
// in the document, including statements nested in blocks, lists and
// block or list values.
func (d *Document) Paths() iter.Seq2[string, Statement] {
	return func(yield func(string, Statement) bool) {
		for c := range d.Walk() {
			stmt, ok := c.Node.(Statement)
			if !ok || stmt.StatementKey() == nil {
				continue
			}

			if !yield(c.Path, stmt) {
				return
			}
		}
	}
}

// Lookup returns the first statement whose key path equals path. Leading
// and trailing slashes in path are ignored.
//
// Lookup is purely syntactic: references and extensions are not followed.
func (d *Document) Lookup(path string) (Statement, error) {
	want := strings.Trim(path, "/")

	for p, stmt := range d.Paths() {
		if p == want {
			return stmt, nil
		}
	}

	return nil, ErrPathNotFound.
		Wrap(errors.New(strconv.Quote(path))).
		With(slog.String("path", path))
}

// References returns an iterator over every reference in the document,
// both sigil references in values and extension paths.
func (d *Document) References() iter.Seq2[Cursor, *Reference] {
	return func(yield func(Cursor, *Reference) bool) {
		for c := range d.Walk() {
			if ref, ok := c.Node.(*Reference); ok {
				if !yield(c, ref) {
					return
				}
			}
		}
	}
}
