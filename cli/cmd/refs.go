package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/ardnew/objecttext/lang"
)

// Refs lists the references and extension paths of a source, and where
// each external file is found on the search path.
type Refs struct {
	Strict bool `help:"Fail if an external file is not found."`

	Source string `arg:"" default:"-" help:"Source file or '-' for stdin." name:"source"`
}

// Run executes the command.
func (r *Refs) Run(ctx context.Context) error {
	env := envFrom(ctx)

	doc, err := env.load(ctx, r.Source)
	if err != nil {
		return err
	}

	if perr := doc.Err(); perr != nil {
		env.Logger.WarnContext(ctx, "listing references of a source with syntax errors", slog.Any("error", perr))
	}

	dirs := env.SearchPath
	if r.Source != stdinSource {
		dirs = append([]string{filepath.Dir(r.Source)}, dirs...)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(false).
		Headers("AT", "IN", "KIND", "PATH", "FILE")

	missing := 0

	for c, ref := range doc.References() {
		kind := ref.RefKind.String()
		if _, ok := c.Parent.(*lang.Extension); ok {
			kind += " extension"
		}

		file := ""

		if ref.RefKind == lang.RefExternal {
			if found, ok := locate(ref.File, dirs); ok {
				file = found
			} else {
				file = "(not found)"
				missing++
			}
		}

		t.Row(ref.Pos.Start.String(), c.Path, kind, ref.Path(), file)
	}

	if _, err := fmt.Fprintln(env.Stdout, t.String()); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	if missing > 0 {
		env.Logger.WarnContext(ctx, "external files not found",
			slog.Int("count", missing),
			slog.Any("search", dirs),
		)

		if r.Strict {
			return ErrMissingRefs.With(slog.Int("count", missing))
		}
	}

	return nil
}

// locate returns the first regular file named file in dirs. Absolute names
// are checked as is.
func locate(file string, dirs []string) (string, bool) {
	if filepath.IsAbs(file) {
		return file, isFile(file)
	}

	for _, dir := range dirs {
		if p := filepath.Join(dir, file); isFile(p) {
			return p, true
		}
	}

	return "", false
}

func isFile(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}
