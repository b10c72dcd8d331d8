package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardnew/objecttext/log"
)

// testEnv returns a context whose Env reads stdin from input and captures
// both output streams.
func testEnv(t *testing.T, input string) (context.Context, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	ctx := WithEnv(t.Context(), Env{
		Stdin:    strings.NewReader(input),
		Stdout:   &stdout,
		Stderr:   &stderr,
		Logger:   log.Make(nil),
		CacheDir: t.TempDir(),
	})

	return ctx, &stdout, &stderr
}

// writeSource writes content to name in a new temporary directory and
// returns its path.
func writeSource(t *testing.T, name string, content []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestEnvFrom_Defaults(t *testing.T) {
	env := envFrom(context.Background())

	if env.Stdin != os.Stdin || env.Stdout != os.Stdout || env.Stderr != os.Stderr {
		t.Error("streams not defaulted to the process streams")
	}

	if env.Logger.Logger == nil {
		t.Error("logger not defaulted")
	}

	if env.MaxDepth <= 0 {
		t.Errorf("MaxDepth = %d", env.MaxDepth)
	}
}

func TestEnvFrom_Stored(t *testing.T) {
	var buf bytes.Buffer

	env := envFrom(WithEnv(context.Background(), Env{Stdout: &buf, MaxDepth: 7}))

	if env.Stdout != &buf || env.MaxDepth != 7 {
		t.Errorf("stored env not returned: %+v", env)
	}
}
