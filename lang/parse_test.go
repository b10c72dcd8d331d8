package lang

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func parse(t *testing.T, src string, opts ...Option) *Document {
	t.Helper()

	return ParseString(context.Background(), src, opts...)
}

// assigned returns the value of the single top-level assignment in src,
// failing the test if there are diagnostics.
func assigned(t *testing.T, src string) Value {
	t.Helper()

	doc := parse(t, src)
	if len(doc.Diagnostics) > 0 {
		t.Fatalf("unexpected diagnostics: %v", doc.Diagnostics)
	}

	if len(doc.Statements) != 1 {
		t.Fatalf("got %d statements, want 1", len(doc.Statements))
	}

	a, ok := doc.Statements[0].(*Assignment)
	if !ok {
		t.Fatalf("statement is %T, want *Assignment", doc.Statements[0])
	}

	return a.Value
}

func TestParse_StatementForms(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string // statement type and key
	}{
		{
			name:  "assignment",
			input: "a = 1",
			want:  []string{"*lang.Assignment a"},
		},
		{
			name:  "block",
			input: "a { b = 1 }",
			want:  []string{"*lang.Block a"},
		},
		{
			name:  "list",
			input: "a [ 1 2 3 ]",
			want:  []string{"*lang.List a"},
		},
		{
			name:  "extended block",
			input: "a : b { }",
			want:  []string{"*lang.Block a"},
		},
		{
			name:  "extended list",
			input: "a : b [ ]",
			want:  []string{"*lang.List a"},
		},
		{
			name:  "newline separated",
			input: "a = 1\nb = two\nc { }\nd [ ]",
			want:  []string{"*lang.Assignment a", "*lang.Assignment b", "*lang.Block c", "*lang.List d"},
		},
		{
			name:  "same line",
			input: "a = 1 b = 2; c = 3, d { }",
			want: []string{
				"*lang.Assignment a", "*lang.Assignment b",
				"*lang.Assignment c", "*lang.Block d",
			},
		},
		{
			name:  "body on next line",
			input: "Part : Base\n{\n\tID = x\n}",
			want:  []string{"*lang.Block Part"},
		},
		{
			name:  "numeric key",
			input: "10 = ten",
			want:  []string{"*lang.Assignment 10"},
		},
		{
			name:  "relative key",
			input: ".a = 1",
			want:  []string{"*lang.Assignment .a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parse(t, tt.input)
			if len(doc.Diagnostics) > 0 {
				t.Fatalf("unexpected diagnostics: %v", doc.Diagnostics)
			}

			var got []string
			for _, stmt := range doc.Statements {
				got = append(got, reflect.TypeOf(stmt).String()+" "+stmt.StatementKey().Name)
			}

			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("statements = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParse_ValueDisambiguation(t *testing.T) {
	tests := []struct {
		input string
		kind  Kind
		text  string // canonical form of the value
	}{
		{`a = "str"`, KindString, `"str"`},
		{`a = @"C:\dir"`, KindVerbatim, `@"C:\dir"`},
		{"a = { }", KindBlock, "{}"},
		{"a = [ ]", KindList, "[]"},
		{"a = Foo { x = 1 }", KindBlock, "Foo { x = 1 }"},
		{"a = : Base { }", KindBlock, ": Base {}"},
		{"a = Foo : Base [ 1 ]", KindList, "Foo : Base [ 1 ]"},
		{"a = b = { }", KindBlock, "b {}"},
		{"a = b = [ 1 ]", KindList, "b [ 1 ]"},
		{"a = 42", KindNumber, "42"},
		{"a = -1", KindUnary, "-1"},
		{"a = +1.5", KindNumber, "+1.5"},
		{"a = 1 + 2", KindBinary, "1 + 2"},
		{"a = &b/c", KindReference, "&b/c"},
		{"a = max(1, 2)", KindCall, "max(1, 2)"},
		{"a = f()", KindBareString, "f()"},
		{"a = true", KindBool, "true"},
		{"a = false // no", KindBool, "false"},
		{"a = b", KindIdentifier, "b"},
		{"a = foo.bar", KindIdentifier, "foo.bar"},
		{"a = 10px", KindIdentifier, "10px"},
		{"a = trueish", KindIdentifier, "trueish"},
		{"a = true love", KindBareString, "true love"},
		{"a = 5 apples", KindBareString, "5 apples"},
		{"a = max (1)", KindBareString, "max (1)"},
		{"a = f(x) and more", KindBareString, "f(x) and more"},
		{"a = b c d", KindBareString, "b c d"},
		{"a = some free text, not quoted", KindBareString, "some free text, not quoted"},
		{"a = ./x", KindBareString, "./x"},
		{"a = 1 +", KindBareString, "1 +"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v := assigned(t, tt.input)

			if v.Kind() != tt.kind {
				t.Fatalf("kind = %v, want %v", v.Kind(), tt.kind)
			}

			var b strings.Builder
			if err := FormatNode(&b, v, 0); err != nil {
				t.Fatal(err)
			}

			if b.String() != tt.text {
				t.Errorf("value = %q, want %q", b.String(), tt.text)
			}
		})
	}
}

func TestParse_ExtensionOrder(t *testing.T) {
	doc := parse(t, "a: <f>/x, <f>/y; ^/z ../w { }")
	if len(doc.Diagnostics) > 0 {
		t.Fatalf("unexpected diagnostics: %v", doc.Diagnostics)
	}

	b := doc.Statements[0].(*Block)

	var got []string
	for _, ext := range b.Extensions {
		got = append(got, ext.String())
	}

	want := []string{"<f>/x", "<f>/y", "^/z", "../w"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("extensions = %q, want %q", got, want)
	}

	if b.Extensions[0].Path.RefKind != RefExternal || b.Extensions[2].Path.RefKind != RefInternal {
		t.Error("extension kinds not recorded")
	}
}

func TestParse_ListElements(t *testing.T) {
	doc := parse(t, `l = [1, "two", three, &x, { a = 1 }, [2], k = v, b { }, it's fine]`)
	if len(doc.Diagnostics) > 0 {
		t.Fatalf("unexpected diagnostics: %v", doc.Diagnostics)
	}

	l := doc.Statements[0].(*Assignment).Value.(*List)

	var got []string
	for _, e := range l.Elements {
		got = append(got, reflect.TypeOf(e).String())
	}

	want := []string{
		"*lang.Number", "*lang.String", "*lang.Identifier", "*lang.Reference",
		"*lang.Block", "*lang.List", "*lang.Assignment", "*lang.Block",
		"*lang.BareString",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("elements = %q, want %q", got, want)
	}
}

func TestParse_ListWhitespaceSeparated(t *testing.T) {
	l := assigned(t, "l = [a b 1 \"c\"]").(*List)
	if len(l.Elements) != 4 {
		t.Errorf("got %d elements, want 4", len(l.Elements))
	}
}

func TestParse_Deterministic(t *testing.T) {
	src := "a : b { c = 1 + 2 * 3; d = [x, y] }\ne = free text\nf = \"s\""

	first := parse(t, src).ToNative()
	for range 5 {
		if got := parse(t, src).ToNative(); !reflect.DeepEqual(got, first) {
			t.Fatalf("parse is not deterministic:\n%v\n%v", got, first)
		}
	}
}

func TestParse_Spans(t *testing.T) {
	doc := parse(t, "a = 1\nbb { c = &x }")

	b := doc.Statements[1].(*Block)
	if got := b.Span().String(); got != "2:1-2:14" {
		t.Errorf("block span = %s, want 2:1-2:14", got)
	}

	ref := b.Members[0].(*Assignment).Value.(*Reference)
	if ref.Span().Start.Column != 10 || ref.Span().Len() != 2 {
		t.Errorf("reference span = %s (len %d)", ref.Span(), ref.Span().Len())
	}
}

func TestParse_Diagnostics(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		kinds      []DiagnosticKind
		statements int
		severity   Severity
	}{
		{
			name:       "legacy string",
			input:      "a = \"abc\nb = 1",
			kinds:      []DiagnosticKind{UnterminatedString},
			statements: 2,
			severity:   SeverityWarning,
		},
		{
			name:       "string at end of input",
			input:      "a = 1\nb = \"abc",
			kinds:      []DiagnosticKind{UnterminatedString},
			statements: 1,
			severity:   SeverityError,
		},
		{
			name:       "unterminated block",
			input:      "a { b = 1",
			kinds:      []DiagnosticKind{UnterminatedBlockOrList},
			statements: 1,
			severity:   SeverityError,
		},
		{
			name:       "unterminated list",
			input:      "a = [1, 2",
			kinds:      []DiagnosticKind{UnterminatedBlockOrList},
			statements: 1,
			severity:   SeverityError,
		},
		{
			name:       "empty extension chain",
			input:      "a : { }",
			kinds:      []DiagnosticKind{EmptyExtensionChain},
			statements: 1,
			severity:   SeverityError,
		},
		{
			name:       "sigil in extension",
			input:      "a : &b { }",
			kinds:      []DiagnosticKind{InvalidReferenceSyntax},
			statements: 1,
			severity:   SeverityError,
		},
		{
			name:       "missing value before next statement",
			input:      "a =\nb = 2",
			kinds:      []DiagnosticKind{UnexpectedToken},
			statements: 1,
			severity:   SeverityError,
		},
		{
			name:       "composite on the line after assignment",
			input:      "a =\nFoo { x = 1 }",
			kinds:      []DiagnosticKind{UnexpectedToken},
			statements: 1,
			severity:   SeverityError,
		},
		{
			name:       "missing value at end",
			input:      "a = 1\nb =",
			kinds:      []DiagnosticKind{UnexpectedToken},
			statements: 1,
			severity:   SeverityError,
		},
		{
			name:       "member without value",
			input:      "a { b }\nc = 1",
			kinds:      []DiagnosticKind{UnexpectedToken},
			statements: 2,
			severity:   SeverityError,
		},
		{
			name:       "value as block member",
			input:      "a { \"x\" b = 1 }",
			kinds:      []DiagnosticKind{UnexpectedToken},
			statements: 1,
			severity:   SeverityError,
		},
		{
			name:       "repeated assignment",
			input:      "a = = 3\nb = 1",
			kinds:      []DiagnosticKind{UnexpectedToken},
			statements: 1,
			severity:   SeverityError,
		},
		{
			name:       "value starting with colon",
			input:      "a = : 3\nb = 1",
			kinds:      []DiagnosticKind{UnexpectedToken},
			statements: 1,
			severity:   SeverityError,
		},
		{
			name:       "value starting with operator",
			input:      "a = * 2\nb = 1",
			kinds:      []DiagnosticKind{UnexpectedToken},
			statements: 1,
			severity:   SeverityError,
		},
		{
			name:       "stray closer",
			input:      "}\na = 1",
			kinds:      []DiagnosticKind{UnexpectedToken},
			statements: 1,
			severity:   SeverityError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parse(t, tt.input)

			var kinds []DiagnosticKind
			for _, d := range doc.Diagnostics {
				kinds = append(kinds, d.Kind)

				if d.Severity != tt.severity {
					t.Errorf("%v severity = %v, want %v", d.Kind, d.Severity, tt.severity)
				}
			}

			if !reflect.DeepEqual(kinds, tt.kinds) {
				t.Errorf("diagnostics = %v, want %v", kinds, tt.kinds)
			}

			if len(doc.Statements) != tt.statements {
				t.Errorf("got %d statements, want %d", len(doc.Statements), tt.statements)
			}
		})
	}
}

func TestParse_IncompleteIsMarked(t *testing.T) {
	doc := parse(t, "a { b [ 1")

	a := doc.Statements[0].(*Block)
	if !a.Incomplete {
		t.Error("outer block not marked incomplete")
	}

	if b := a.Members[0].(*List); !b.Incomplete || len(b.Elements) != 1 {
		t.Errorf("inner list incomplete=%v elements=%d", b.Incomplete, len(b.Elements))
	}
}

func TestParse_Recovery(t *testing.T) {
	src := strings.Join([]string{
		"= oops what",
		"Speed = 1 + 2",
		"Part : Base { Mass = 3 }",
		"Tags [ a, b ]",
	}, "\n")

	doc := parse(t, src)

	if len(doc.Diagnostics) != 1 {
		t.Fatalf("got %d diagnostics, want 1: %v", len(doc.Diagnostics), doc.Diagnostics)
	}

	d := doc.Diagnostics[0]
	if d.Kind != UnexpectedToken || d.Found != "'='" || !reflect.DeepEqual(d.Expected, []string{"identifier"}) {
		t.Errorf("diagnostic = %+v", d)
	}

	var keys []string
	for _, stmt := range doc.Statements {
		keys = append(keys, stmt.StatementKey().Name)
	}

	if want := []string{"Speed", "Part", "Tags"}; !reflect.DeepEqual(keys, want) {
		t.Errorf("statements = %q, want %q", keys, want)
	}
}

func TestParse_RecoveryInsideBlock(t *testing.T) {
	doc := parse(t, "a {\n  b c d\n  e = 1\n  f { g = }\n  h = 2\n}\ni = 3")

	if len(doc.Diagnostics) != 2 {
		t.Fatalf("got %d diagnostics, want 2: %v", len(doc.Diagnostics), doc.Diagnostics)
	}

	if len(doc.Statements) != 2 {
		t.Fatalf("got %d statements, want 2", len(doc.Statements))
	}

	a := doc.Statements[0].(*Block)

	var keys []string
	for _, m := range a.Members {
		keys = append(keys, m.StatementKey().Name)
	}

	if want := []string{"e", "f", "h"}; !reflect.DeepEqual(keys, want) {
		t.Errorf("members = %q, want %q", keys, want)
	}
}

func TestParse_MaxDepth(t *testing.T) {
	doc := parse(t, "a { b { c { d = 1 } } e = 2 }", WithMaxDepth(2))

	if len(doc.Diagnostics) != 1 || doc.Diagnostics[0].Kind != NestingTooDeep {
		t.Fatalf("diagnostics = %v, want one NestingTooDeep", doc.Diagnostics)
	}

	a := doc.Statements[0].(*Block)
	if len(a.Members) != 2 {
		t.Fatalf("got %d members, want 2", len(a.Members))
	}

	if b := a.Members[0].(*Block); len(b.Members) != 0 {
		t.Errorf("too deep block kept %d members", len(b.Members))
	}
}

func TestParse_MaxDepthExpression(t *testing.T) {
	src := "a = " + strings.Repeat("(", 10) + "1" + strings.Repeat(")", 10)

	doc := parse(t, src, WithMaxDepth(5))
	if len(doc.Diagnostics) != 1 || doc.Diagnostics[0].Kind != NestingTooDeep {
		t.Fatalf("diagnostics = %v, want one NestingTooDeep", doc.Diagnostics)
	}

	if len(doc.Statements) != 0 {
		t.Errorf("got %d statements, want 0", len(doc.Statements))
	}

	if doc := parse(t, src); len(doc.Diagnostics) != 0 {
		t.Errorf("default depth: unexpected diagnostics %v", doc.Diagnostics)
	}
}

func TestParse_DeepNestingDoesNotOverflow(t *testing.T) {
	src := "a = " + strings.Repeat("[", 100000)

	doc := parse(t, src)
	if doc.Err() == nil {
		t.Fatal("expected an error")
	}
}

func TestDocument_Err(t *testing.T) {
	doc := parse(t, "a = 1\nb c\n")

	err := doc.Err()
	if err == nil {
		t.Fatal("expected error")
	}

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error is %T, want *ParseError", err)
	}

	if !errors.Is(err, ErrParse) {
		t.Error("error does not match ErrParse")
	}

	var diag *Diagnostic
	if !errors.As(err, &diag) || diag.Kind != UnexpectedToken {
		t.Errorf("diagnostic not reachable through error: %v", diag)
	}

	msg := err.Error()
	for _, want := range []string{
		"parse error at 2:3",
		`unexpected identifier "c"`,
		"  2 | b c\n        ^",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q does not contain %q", msg, want)
		}
	}
}

func TestDocument_Err_WarningsOnly(t *testing.T) {
	doc := parse(t, "a = \"legacy\nb = 2")

	if len(doc.Diagnostics) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(doc.Diagnostics))
	}

	if err := doc.Err(); err != nil {
		t.Errorf("warnings produced error: %v", err)
	}
}

func TestDocument_Err_Filename(t *testing.T) {
	doc := parse(t, "a {", WithFilename("ship.rules"))

	if msg := doc.Err().Error(); !strings.HasPrefix(msg, "ship.rules:1:3: ") {
		t.Errorf("error = %q", msg)
	}
}

func TestParse_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	doc := Parse(ctx, []byte("a = 1"))
	if len(doc.Statements) != 0 {
		t.Errorf("got %d statements, want 0", len(doc.Statements))
	}

	if err := doc.Err(); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestParseReader(t *testing.T) {
	doc, err := ParseReader(context.Background(), strings.NewReader("a = 1"))
	if err != nil {
		t.Fatal(err)
	}

	if len(doc.Statements) != 1 || doc.Source() != "a = 1" {
		t.Errorf("statements=%d source=%q", len(doc.Statements), doc.Source())
	}
}

func TestParseReader_ReadError(t *testing.T) {
	_, err := ParseReader(context.Background(), failingReader{})
	if !errors.Is(err, ErrReadInput) {
		t.Errorf("err = %v, want ErrReadInput", err)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("boom") }
