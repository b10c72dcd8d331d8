package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/charmbracelet/x/term"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/objecttext/cli/cmd/repl"
)

// Repl explores a parsed source interactively.
type Repl struct {
	Source string `arg:"" default:"-" help:"Source file or '-' for stdin." name:"source"`
}

// Run executes the command.
func (r *Repl) Run(ctx context.Context) error {
	env := envFrom(ctx)

	if !isTerminal(env.Stdout) {
		return ErrReplUnavailable
	}

	doc, err := env.load(ctx, r.Source)
	if err != nil {
		return err
	}

	if perr := doc.Err(); perr != nil {
		env.Logger.WarnContext(ctx, "exploring a source with syntax errors", slog.Any("error", perr))
	}

	opts := []tea.ProgramOption{tea.WithOutput(env.Stdout)}

	// The source was read from stdin, so keystrokes come from the terminal.
	if r.Source == stdinSource {
		opts = append(opts, tea.WithInputTTY())
	} else {
		opts = append(opts, tea.WithInput(env.Stdin))
	}

	return repl.Run(ctx, doc, repl.Config{
		CacheDir:       env.CacheDir,
		Logger:         env.Logger,
		ParseOptions:   env.parseOptions(doc.Filename()),
		ProgramOptions: opts,
	})
}

func isTerminal(w any) bool {
	f, ok := w.(*os.File)

	return ok && term.IsTerminal(f.Fd())
}
