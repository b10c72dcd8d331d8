package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ardnew/objecttext/cli/cmd"
)

func TestMain(m *testing.M) {
	home, err := os.MkdirTemp("", "otx-cli-test")
	if err != nil {
		panic(err)
	}

	os.Setenv("HOME", home)
	os.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	os.Setenv("XDG_CACHE_HOME", filepath.Join(home, ".cache"))
	os.Setenv("OBJECTTEXT_PATH", "")

	code := m.Run()

	os.RemoveAll(home)
	os.Exit(code)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func run(t *testing.T, args ...string) (int, error) {
	t.Helper()

	code := -1
	err := Run(t.Context(), func(c int) { code = c }, append([]string{"--no-log-pretty", "--log-level=error"}, args...)...)

	return code, err
}

func TestRun_Check(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.otx")
	writeFile(t, good, "ship { mass = 120 }\n")

	bad := filepath.Join(dir, "bad.otx")
	writeFile(t, bad, "ship {\n  mass = = 3\n}\n")

	if _, err := run(t, "check", good); err != nil {
		t.Errorf("check good: %v", err)
	}

	if _, err := run(t, "check", good, bad); !errors.Is(err, cmd.ErrCheckFailed) {
		t.Errorf("check bad = %v, want ErrCheckFailed", err)
	}
}

func TestRun_ConfigFile(t *testing.T) {
	if err := mkdirAllRequired(); err != nil {
		t.Fatal(err)
	}

	config := configPath(baseConfig)
	writeFile(t, config, "config {\n  max_depth = 2\n}\n")
	t.Cleanup(func() { os.Remove(config) })

	deep := filepath.Join(t.TempDir(), "deep.otx")
	writeFile(t, deep, "a { b { c { d { e = 1 } } } }\n")

	if _, err := run(t, "check", deep); !errors.Is(err, cmd.ErrCheckFailed) {
		t.Errorf("check with configured depth = %v, want ErrCheckFailed", err)
	}

	// The command line overrides the file.
	if _, err := run(t, "--max-depth=16", "check", deep); err != nil {
		t.Errorf("check with --max-depth: %v", err)
	}
}

func TestRun_Init(t *testing.T) {
	out := filepath.Join(t.TempDir(), "config")

	if _, err := run(t, "init", "--path", out); err != nil {
		t.Fatalf("init: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}

	if len(data) == 0 {
		t.Error("init wrote an empty file")
	}

	if _, err := run(t, "init", "--path", out); !errors.Is(err, cmd.ErrFileExists) {
		t.Errorf("second init = %v, want ErrFileExists", err)
	}
}

func TestRun_UnknownFlag(t *testing.T) {
	if _, err := run(t, "--no-such-flag", "check"); err == nil {
		t.Error("unknown flag accepted")
	}
}
