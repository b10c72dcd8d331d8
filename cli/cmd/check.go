package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/ardnew/objecttext/lang"
)

// Check reports the diagnostics of each source and fails if any source has
// syntax errors.
type Check struct {
	Watch    bool          `help:"Keep running and re-check sources when they change." short:"w"`
	Debounce time.Duration `default:"250ms" help:"Quiet period after a change before re-checking."`

	Sources []string `arg:"" default:"-" help:"Source files or '-' for stdin." name:"source"`
}

// Run executes the command.
func (c *Check) Run(ctx context.Context) error {
	env := envFrom(ctx)
	sources := uniqueSources(c.Sources)

	if c.Watch && slices.Contains(sources, stdinSource) {
		return ErrWatch.Wrap(errors.New("standard input cannot be watched"))
	}

	failed := 0

	for _, src := range sources {
		ok, err := checkSource(ctx, env, src)
		if err != nil {
			return err
		}

		if !ok {
			failed++
		}
	}

	if c.Watch {
		return c.watch(ctx, env, sources)
	}

	if failed > 0 {
		return ErrCheckFailed.With(
			slog.Int("failed", failed),
			slog.Int("sources", len(sources)),
		)
	}

	return nil
}

// checkSource loads src and writes its diagnostics to env.Stdout. It
// reports whether src is free of errors.
func checkSource(ctx context.Context, env Env, src string) (bool, error) {
	doc, err := env.load(ctx, src)
	if err != nil {
		return false, err
	}

	if err := report(env.Stdout, doc); err != nil {
		return false, ErrWriteOutput.Wrap(err)
	}

	var perr *lang.ParseError

	switch err := doc.Err(); {
	case err == nil:
		return true, nil

	case errors.As(err, &perr):
		return false, nil

	default:
		// Parsing was interrupted.
		return false, err
	}
}

// report writes one entry per diagnostic: position, severity and message,
// followed by the offending source line.
func report(w io.Writer, doc *lang.Document) error {
	if len(doc.Diagnostics) == 0 {
		return nil
	}

	bw := bufio.NewWriter(w)
	pe := lang.NewParseError(doc.Diagnostics, doc.Source(), doc.Filename())

	for _, d := range doc.Diagnostics {
		fmt.Fprintf(bw, "%s:%s: %s: %s\n", doc.Filename(), d.Span.Start, d.Severity, d.Message)

		if snippet := pe.Snippet(d); snippet != "" {
			fmt.Fprintln(bw, snippet)
		}
	}

	return bw.Flush()
}

// watch re-checks each source whose content changes until ctx is done.
func (c *Check) watch(ctx context.Context, env Env, sources []string) error {
	w, err := newWatcher(sources, c.Debounce, env.Logger)
	if err != nil {
		return err
	}

	// Sources are keyed by the absolute paths the watcher reports.
	byPath := make(map[string]string, len(sources))
	digests := make(map[string]uint64, len(sources))

	for _, src := range sources {
		if abs, err := filepath.Abs(src); err == nil {
			byPath[abs] = src
			digests[abs], _ = digest(abs)
		}
	}

	env.Logger.InfoContext(ctx, "watching sources", slog.Int("count", len(sources)))

	return w.run(ctx, func(abs string) {
		sum, err := digest(abs)
		if err != nil {
			env.Logger.WarnContext(ctx, "read source", slog.String("path", abs), slog.Any("error", err))

			return
		}

		if prev, ok := digests[abs]; ok && prev == sum {
			env.Logger.DebugContext(ctx, "source unchanged", slog.String("path", abs))

			return
		}

		digests[abs] = sum

		ok, err := checkSource(ctx, env, byPath[abs])
		if err != nil {
			env.Logger.ErrorContext(ctx, "check failed", slog.Any("error", err))

			return
		}

		env.Logger.InfoContext(ctx, "checked",
			slog.String("path", byPath[abs]),
			slog.Bool("ok", ok),
		)
	})
}

// digest returns the xxh3 hash of the file at path.
func digest(path string) (uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	return xxh3.Hash(data), nil
}
