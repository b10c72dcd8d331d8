package lang

import (
	"encoding/json"
	"math"
)

// MarshalJSON implements json.Marshaler for Document.
func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.ToNative())
}

// ToNative converts the document to plain Go maps and slices describing
// its syntax tree, suitable for generic encoders.
func (d *Document) ToNative() map[string]any {
	stmts := make([]any, len(d.Statements))
	for i, stmt := range d.Statements {
		stmts[i] = ToNative(stmt)
	}

	result := map[string]any{"statements": stmts}

	if len(d.Diagnostics) > 0 {
		diags := make([]any, len(d.Diagnostics))
		for i, diag := range d.Diagnostics {
			diags[i] = diag.ToNative()
		}

		result["diagnostics"] = diags
	}

	if d.filename != "" {
		result["file"] = d.filename
	}

	return result
}

// ToNative converts a diagnostic to a plain map.
func (d *Diagnostic) ToNative() map[string]any {
	result := map[string]any{
		"kind":     d.Kind.String(),
		"severity": d.Severity.String(),
		"line":     d.Span.Start.Line,
		"column":   d.Span.Start.Column,
		"message":  d.Message,
	}

	if len(d.Expected) > 0 {
		result["expected"] = d.Expected
	}

	return result
}

// ToNative converts a node to plain Go maps and slices. Every map has a
// "type" entry naming the node.
func ToNative(n Node) any {
	switch n := n.(type) {
	case *Assignment:
		return map[string]any{
			"type":  "assignment",
			"key":   n.Key.Name,
			"value": ToNative(n.Value),
		}

	case *Block:
		members := make([]any, len(n.Members))
		for i, m := range n.Members {
			members[i] = ToNative(m)
		}

		return composite("block", n.Key, n.Extensions, n.Incomplete, "members", members)

	case *List:
		elems := make([]any, len(n.Elements))
		for i, e := range n.Elements {
			elems[i] = ToNative(e)
		}

		return composite("list", n.Key, n.Extensions, n.Incomplete, "elements", elems)

	case *Extension:
		return ToNative(n.Path)

	case *Reference:
		segs := make([]string, len(n.Segments))
		for i, seg := range n.Segments {
			segs[i] = seg.String()
		}

		result := map[string]any{
			"type":     "reference",
			"kind":     n.RefKind.String(),
			"path":     n.Path(),
			"segments": segs,
		}

		if n.RefKind == RefExternal {
			result["file"] = n.File
		} else if n.Anchor != AnchorNone {
			result["anchor"] = n.Anchor.String()
		}

		return result

	case *Identifier:
		return map[string]any{"type": "identifier", "name": n.Name}

	case *String:
		result := map[string]any{"type": "string", "value": n.Text}
		if n.Legacy {
			result["legacy"] = true
		}

		return result

	case *Verbatim:
		return map[string]any{"type": "verbatim", "value": n.Text}

	case *Bool:
		return map[string]any{"type": "bool", "value": n.Value}

	case *Number:
		result := map[string]any{"type": "number", "text": n.Text}

		// Encoders reject infinities; those literals keep only their text.
		if !math.IsInf(n.Value, 0) {
			result["value"] = n.Value
		}

		if n.Unit != "" {
			result["unit"] = n.Unit
		}

		return result

	case *UnaryExpr:
		return map[string]any{
			"type":    "unary",
			"op":      n.Op.String(),
			"operand": ToNative(n.Operand),
		}

	case *BinaryExpr:
		return map[string]any{
			"type":  "binary",
			"op":    n.Op.String(),
			"left":  ToNative(n.Left),
			"right": ToNative(n.Right),
		}

	case *Call:
		args := make([]any, len(n.Args))
		for i, arg := range n.Args {
			args[i] = ToNative(arg)
		}

		return map[string]any{"type": "call", "func": n.Func.Name, "args": args}

	case *BareString:
		return map[string]any{"type": "bare", "value": n.Text}

	default:
		return nil
	}
}

func composite(
	typ string,
	key *Identifier,
	exts []*Extension,
	incomplete bool,
	field string,
	children []any,
) map[string]any {
	result := map[string]any{"type": typ, field: children}

	if key != nil {
		result["key"] = key.Name
	}

	if len(exts) > 0 {
		paths := make([]string, len(exts))
		for i, ext := range exts {
			paths[i] = ext.Path.Path()
		}

		result["extensions"] = paths
	}

	if incomplete {
		result["incomplete"] = true
	}

	return result
}
