package lang

import (
	"bytes"
	"context"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"
)

func TestDocument_Format_RoundTrip(t *testing.T) {
	doc := shipDocument(t)
	want := doc.ToNative()["statements"]

	for _, indent := range []int{0, 2, 4} {
		var buf bytes.Buffer
		if err := doc.Format(context.Background(), &buf, indent); err != nil {
			t.Fatalf("Format(%d): %v", indent, err)
		}

		again := parse(t, buf.String())
		if len(again.Diagnostics) > 0 {
			t.Fatalf("Format(%d) output has diagnostics %v:\n%s", indent, again.Diagnostics, buf.String())
		}

		if got := again.ToNative()["statements"]; !reflect.DeepEqual(got, want) {
			t.Errorf("Format(%d) changed the tree:\n%s", indent, buf.String())
		}
	}
}

func TestDocument_Format_Layout(t *testing.T) {
	doc := parse(t, "a = 1\nb : x, ../y { c = \"q\\\"t\"; d [1, two] }\ne {}")

	var buf bytes.Buffer
	if err := doc.Format(context.Background(), &buf, 2); err != nil {
		t.Fatal(err)
	}

	want := strings.Join([]string{
		`a = 1`,
		``,
		`b : x, ../y {`,
		`  c = "q\"t"`,
		`  d [`,
		`    1`,
		`    two`,
		`  ]`,
		`}`,
		``,
		`e {}`,
		``,
	}, "\n")

	if got := buf.String(); got != want {
		t.Errorf("Format =\n%s\nwant\n%s", got, want)
	}

	buf.Reset()

	if err := doc.Format(context.Background(), &buf, 0); err != nil {
		t.Fatal(err)
	}

	want = "a = 1\nb : x, ../y { c = \"q\\\"t\"; d [ 1; two ] }\ne {}\n"
	if got := buf.String(); got != want {
		t.Errorf("compact Format =\n%s\nwant\n%s", got, want)
	}
}

func TestFormatExpr_Parentheses(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"a = (1 + 2) * 3", "(1 + 2) * 3"},
		{"a = 1 + (2 * 3)", "1 + 2 * 3"},
		{"a = 1 - (2 - 3)", "1 - (2 - 3)"},
		{"a = (1 - 2) - 3", "1 - 2 - 3"},
		{"a = 8 / (4 * 2)", "8 / (4 * 2)"},
		{"a = -(1 + 2)", "-(1 + 2)"},
		{"a = -(-1)", "--1"},
		{"a = f( 1  2 )", "f(1, 2)"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			e, ok := assigned(t, tt.input).(Expr)
			if !ok {
				t.Fatal("value is not an expression")
			}

			if got := formatExpr(e); got != tt.want {
				t.Errorf("formatExpr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDocument_FormatJSON(t *testing.T) {
	doc := parse(t, "a = 90d\nb = \"x\"", WithFilename("t.rules"))

	var buf bytes.Buffer
	if err := doc.FormatJSON(context.Background(), &buf, 2); err != nil {
		t.Fatal(err)
	}

	var got struct {
		File       string `json:"file"`
		Statements []struct {
			Type  string         `json:"type"`
			Key   string         `json:"key"`
			Value map[string]any `json:"value"`
		} `json:"statements"`
	}

	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}

	if got.File != "t.rules" || len(got.Statements) != 2 {
		t.Fatalf("got %+v", got)
	}

	first := got.Statements[0]
	if first.Type != "assignment" || first.Key != "a" ||
		first.Value["type"] != "number" || first.Value["unit"] != "d" || first.Value["value"] != 90.0 {
		t.Errorf("first statement = %+v", first)
	}

	if v := got.Statements[1].Value; v["type"] != "string" || v["value"] != "x" {
		t.Errorf("second statement value = %v", v)
	}
}

func TestDocument_FormatYAML(t *testing.T) {
	doc := parse(t, "a { b = true }\nc = [1, x]")

	var buf bytes.Buffer
	if err := doc.FormatYAML(context.Background(), &buf, 2); err != nil {
		t.Fatal(err)
	}

	var got map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid YAML: %v\n%s", err, buf.String())
	}

	stmts, ok := got["statements"].([]any)
	if !ok || len(stmts) == 0 {
		t.Fatalf("statements = %#v", got["statements"])
	}

	block, ok := stmts[0].(map[string]any)
	if !ok || block["type"] != "block" || block["key"] != "a" {
		t.Errorf("first statement = %#v", stmts[0])
	}
}

func TestDocument_Print(t *testing.T) {
	doc := parse(t, "a { b = &x }\nc {")

	var buf bytes.Buffer
	if err := doc.Print(&buf); err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"Block 1:1-1:13\n",
		"    Reference internal x 1:9-1:11\n",
		"Block (incomplete) 2:1-",
		"error 2:3: ",
	} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("Print output missing %q:\n%s", want, buf.String())
		}
	}
}
