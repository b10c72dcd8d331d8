package cmd

import (
	"context"
	"io"
	"log/slog"
)

// Fmt parses a source and writes it back in the chosen format.
type Fmt struct {
	Native Native `cmd:"" default:"withargs" help:"Format as canonical ObjectText (default)."`
	JSON   JSON   `cmd:""                    help:"Format the syntax tree as JSON."`
	YAML   YAML   `cmd:""                    help:"Format the syntax tree as YAML."`
	AST    AST    `cmd:""                    help:"Print an indented debugging tree."`
}

// formatSource loads source and passes the document to write. Documents
// with syntax errors are rejected unless force is set.
func formatSource(
	ctx context.Context,
	format, source string,
	force bool,
	write func(w io.Writer, doc docWriter) error,
) error {
	env := envFrom(ctx)

	doc, err := env.load(ctx, source)
	if err != nil {
		return err
	}

	if perr := doc.Err(); perr != nil && !force {
		return ErrInvalidSource.Wrap(perr).With(slog.String("format", format))
	}

	if err := write(env.Stdout, doc); err != nil {
		return ErrWriteOutput.Wrap(err).With(slog.String("format", format))
	}

	return nil
}

// docWriter is the subset of [lang.Document] the formatters use.
type docWriter interface {
	Format(ctx context.Context, w io.Writer, indent int) error
	FormatJSON(ctx context.Context, w io.Writer, indent int) error
	FormatYAML(ctx context.Context, w io.Writer, indent int) error
	Print(w io.Writer) error
}

// Native formats a source as canonical ObjectText.
type Native struct {
	Indent int  `default:"2" help:"Indent width." short:"i"`
	Force  bool `help:"Format even if the source has syntax errors." short:"f"`

	Source string `arg:"" default:"-" help:"Source file or '-' for stdin." name:"source"`
}

// Run executes the command.
func (f *Native) Run(ctx context.Context) error {
	return formatSource(ctx, "native", f.Source, f.Force, func(w io.Writer, doc docWriter) error {
		return doc.Format(ctx, w, f.Indent)
	})
}

// JSON writes the syntax tree as JSON.
type JSON struct {
	Indent int  `default:"2" help:"Indent width, 0 for compact output." short:"i"`
	Force  bool `help:"Format even if the source has syntax errors." short:"f"`

	Source string `arg:"" default:"-" help:"Source file or '-' for stdin." name:"source"`
}

// Run executes the command.
func (j *JSON) Run(ctx context.Context) error {
	return formatSource(ctx, "json", j.Source, j.Force, func(w io.Writer, doc docWriter) error {
		return doc.FormatJSON(ctx, w, j.Indent)
	})
}

// YAML writes the syntax tree as YAML.
type YAML struct {
	Indent int  `default:"2" help:"Indent width." short:"i"`
	Force  bool `help:"Format even if the source has syntax errors." short:"f"`

	Source string `arg:"" default:"-" help:"Source file or '-' for stdin." name:"source"`
}

// Run executes the command.
func (y *YAML) Run(ctx context.Context) error {
	return formatSource(ctx, "yaml", y.Source, y.Force, func(w io.Writer, doc docWriter) error {
		return doc.FormatYAML(ctx, w, y.Indent)
	})
}

// AST prints the syntax tree with spans and diagnostics. It never rejects
// a source, since inspecting broken input is what it is for.
type AST struct {
	Source string `arg:"" default:"-" help:"Source file or '-' for stdin." name:"source"`
}

// Run executes the command.
func (a *AST) Run(ctx context.Context) error {
	return formatSource(ctx, "ast", a.Source, true, func(w io.Writer, doc docWriter) error {
		return doc.Print(w)
	})
}
