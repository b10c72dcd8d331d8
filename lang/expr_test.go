package lang

import (
	"math"
	"testing"
)

// shape renders an expression fully parenthesized.
func shape(e Expr) string {
	switch e := e.(type) {
	case *Number:
		return e.Text
	case *Reference:
		return "&" + e.Path()
	case *UnaryExpr:
		return "(" + e.Op.String() + shape(e.Operand) + ")"
	case *BinaryExpr:
		return "(" + shape(e.Left) + " " + e.Op.String() + " " + shape(e.Right) + ")"
	case *Call:
		s := e.Func.Name + "("
		for i, arg := range e.Args {
			if i > 0 {
				s += " "
			}

			s += shape(arg)
		}

		return s + ")"
	}

	return "?"
}

func TestParseExpr_Precedence(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"a = 1 + 2 * 3", "(1 + (2 * 3))"},
		{"a = -1 + 2", "((-1) + 2)"},
		{"a = (1 + 2) * 3", "((1 + 2) * 3)"},
		{"a = 1 - 2 - 3", "((1 - 2) - 3)"},
		{"a = 8 / 4 / 2", "((8 / 4) / 2)"},
		{"a = 1 - (2 - 3)", "(1 - (2 - 3))"},
		{"a = -2 * 3", "((-2) * 3)"},
		{"a = --1", "(-(-1))"},
		{"a = -(1 + 2)", "(-(1 + 2))"},
		{"a = 2 * -&x", "(2 * (-&x))"},
		{"a = ((1))", "1"},
		{"a = &a/b * 2", "(&a/b * 2)"},
		{"a = 1 + max(2, 3 * 4) / 5", "(1 + (max(2 (3 * 4)) / 5))"},
		{"a = f(1 2, 3)", "f(1 2 3)"},
		{"a = f(g(1))", "f(g(1))"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			e, ok := assigned(t, tt.input).(Expr)
			if !ok {
				t.Fatalf("value is not an expression")
			}

			if got := shape(e); got != tt.want {
				t.Errorf("shape = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseExpr_Numbers(t *testing.T) {
	tests := []struct {
		input string
		text  string
		value float64
		unit  string
	}{
		{"a = 42", "42", 42, ""},
		{"a = 1_000_000", "1_000_000", 1e6, ""},
		{"a = 3.25", "3.25", 3.25, ""},
		{"a = .5", ".5", 0.5, ""},
		{"a = 1.", "1.", 1, ""},
		{"a = 2e3", "2e3", 2000, ""},
		{"a = 1.5E-2", "1.5E-2", 0.015, ""},
		{"a = 90d", "90d", 90, "d"},
		{"a = 3.14r", "3.14r", 3.14, "r"},
		{"a = 50%", "50%", 50, "%"},
		{"a = +7", "+7", 7, ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			n, ok := assigned(t, tt.input).(*Number)
			if !ok {
				t.Fatalf("value is not a number")
			}

			if n.Text != tt.text || n.Unit != tt.unit {
				t.Errorf("text=%q unit=%q, want text=%q unit=%q", n.Text, n.Unit, tt.text, tt.unit)
			}

			if math.Abs(n.Value-tt.value) > 1e-12 {
				t.Errorf("value = %v, want %v", n.Value, tt.value)
			}
		})
	}
}

func TestParseExpr_OutOfRange(t *testing.T) {
	n, ok := assigned(t, "a = 1e999").(*Number)
	if !ok {
		t.Fatal("value is not a number")
	}

	if !math.IsInf(n.Value, 1) || n.Text != "1e999" {
		t.Errorf("got %v (%q)", n.Value, n.Text)
	}
}

func TestParseExpr_CallSpan(t *testing.T) {
	c, ok := assigned(t, "a = clamp(&x, 0, 1)").(*Call)
	if !ok {
		t.Fatal("value is not a call")
	}

	if c.Func.Name != "clamp" || len(c.Args) != 3 {
		t.Errorf("call = %s with %d args", c.Func.Name, len(c.Args))
	}

	if got := c.Span().String(); got != "1:5-1:20" {
		t.Errorf("span = %s, want 1:5-1:20", got)
	}
}
