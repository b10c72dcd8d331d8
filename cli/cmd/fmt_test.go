package cmd

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/ardnew/objecttext/lang"
)

func TestNative_Run(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		force   bool
		want    string
		wantErr error
	}{
		{
			name:  "assignment",
			input: "speed=1.5",
			want:  "speed = 1.5\n",
		},
		{
			name:  "block",
			input: "ship{mass=2*&base}",
			want:  "ship {\n  mass = 2 * &base\n}\n",
		},
		{
			name:    "syntax error",
			input:   "ship { mass = 2",
			wantErr: ErrInvalidSource,
		},
		{
			name:  "syntax error forced",
			input: "ship { mass = 2",
			force: true,
			want:  "mass = 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, stdout, _ := testEnv(t, tt.input)

			err := (&Native{Indent: 2, Force: tt.force, Source: stdinSource}).Run(ctx)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Run() error = %v, want %v", err, tt.wantErr)
				}

				if !errors.Is(err, lang.ErrParse) {
					t.Errorf("Run() error = %v does not wrap the parse error", err)
				}

				return
			}

			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			if got := stdout.String(); got != tt.want && !(tt.force && strings.Contains(got, tt.want)) {
				t.Errorf("output =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestJSON_Run(t *testing.T) {
	path := writeSource(t, "ship.rules", []byte("ship { mass = 3 }\n"))
	ctx, stdout, _ := testEnv(t, "")

	if err := (&JSON{Indent: 0, Source: path}).Run(ctx); err != nil {
		t.Fatal(err)
	}

	var got map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", stdout.String(), err)
	}

	if stmts, ok := got["statements"].([]any); !ok || len(stmts) != 1 {
		t.Errorf("statements = %v", got["statements"])
	}
}

func TestYAML_Run(t *testing.T) {
	ctx, stdout, _ := testEnv(t, "a = true")

	if err := (&YAML{Indent: 2, Source: stdinSource}).Run(ctx); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(stdout.String(), "statements:") {
		t.Errorf("unexpected YAML:\n%s", stdout.String())
	}
}

func TestAST_Run_BrokenInput(t *testing.T) {
	ctx, stdout, _ := testEnv(t, "a { b = 1")

	if err := (&AST{Source: stdinSource}).Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	out := stdout.String()
	for _, want := range []string{"Block (incomplete) 1:1-", "error "} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFmt_MissingFile(t *testing.T) {
	ctx, _, _ := testEnv(t, "")

	err := (&Native{Source: "/nonexistent/ship.rules"}).Run(ctx)
	if !errors.Is(err, ErrOpenSource) {
		t.Errorf("Run() error = %v, want ErrOpenSource", err)
	}
}
