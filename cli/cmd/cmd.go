package cmd

import (
	"context"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"github.com/ardnew/objecttext/lang"
	"github.com/ardnew/objecttext/log"
)

// Env holds the state shared by all commands that does not come from their
// own flags.
type Env struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger

	// SearchPath lists the directories searched for external references.
	SearchPath []string
	// MaxDepth bounds nesting while parsing sources.
	MaxDepth int
	// CacheDir holds REPL history.
	CacheDir string
}

type envKey struct{}

// WithEnv returns a copy of ctx carrying env.
func WithEnv(ctx context.Context, env Env) context.Context {
	return context.WithValue(ctx, envKey{}, env)
}

// envFrom returns the Env stored in ctx with unset fields defaulted to the
// process streams, the package logger and [lang.DefaultMaxDepth].
func envFrom(ctx context.Context) Env {
	env, _ := ctx.Value(envKey{}).(Env)

	if env.Stdin == nil {
		env.Stdin = os.Stdin
	}

	if env.Stdout == nil {
		env.Stdout = os.Stdout
	}

	if env.Stderr == nil {
		env.Stderr = os.Stderr
	}

	if env.Logger.Logger == nil {
		env.Logger = log.Default()
	}

	if env.MaxDepth <= 0 {
		env.MaxDepth = lang.DefaultMaxDepth
	}

	return env
}

// parseOptions returns the parser options for a source named name.
func (e Env) parseOptions(name string) []lang.Option {
	return []lang.Option{
		lang.WithFilename(name),
		lang.WithLogger(e.Logger),
		lang.WithMaxDepth(e.MaxDepth),
	}
}

type kongKey struct{}

// WithContext returns a copy of ctx carrying the parsed command line.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, kongKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, _ := ctx.Value(kongKey{}).(*kong.Context)

	return ktx
}
