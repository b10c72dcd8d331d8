package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
)

const testConfig = `
other { log_level = error }

config {
  log_level = debug
  log {
    format = "json"
    pretty = false
  }
  max_depth = 64
  include = ["/usr/share/rules", "./rules"]
  ignored: Base { }
}
`

func loadConfig(t *testing.T, src string) kong.Resolver {
	t.Helper()

	res, err := resolve(context.Background(), baseConfig)(strings.NewReader(src))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	return res
}

func TestResolve_Values(t *testing.T) {
	res := loadConfig(t, testConfig)

	tests := map[string]any{
		"log-level":  "debug",
		"log-format": "json",
		"log-pretty": false,
		"max-depth":  "64",
		"include":    "/usr/share/rules,./rules",
		"missing":    nil,
		"log_level":  nil,
	}

	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := res.Resolve(nil, nil, &kong.Flag{Value: &kong.Value{Name: name}})
			if err != nil {
				t.Fatal(err)
			}

			if got != want {
				t.Errorf("Resolve(%q) = %#v, want %#v", name, got, want)
			}
		})
	}
}

func TestResolve_Ignored(t *testing.T) {
	for name, src := range map[string]string{
		"empty":        "",
		"no block":     "other { log_level = debug }",
		"not a block":  "config = 3",
		"syntax error": "config { log_level = debug",
	} {
		t.Run(name, func(t *testing.T) {
			res := loadConfig(t, src)

			got, _ := res.Resolve(nil, nil, &kong.Flag{Value: &kong.Value{Name: "log-level"}})
			if got != nil {
				t.Errorf("Resolve = %#v, want nil", got)
			}
		})
	}
}

func TestResolve_Kong(t *testing.T) {
	var cli struct {
		LogLevel  string   `default:"info"`
		LogPretty bool     `default:"true" negatable:""`
		MaxDepth  int      `default:"256"`
		Include   []string
	}

	parser, err := kong.New(&cli, kong.Resolvers(loadConfig(t, testConfig)))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := parser.Parse([]string{"--max-depth=8"}); err != nil {
		t.Fatal(err)
	}

	if cli.LogLevel != "debug" || cli.LogPretty {
		t.Errorf("log level=%q pretty=%v", cli.LogLevel, cli.LogPretty)
	}

	if cli.MaxDepth != 8 {
		t.Errorf("command line did not override file: max depth %d", cli.MaxDepth)
	}

	if len(cli.Include) != 2 || cli.Include[1] != "./rules" {
		t.Errorf("include = %q", cli.Include)
	}
}
