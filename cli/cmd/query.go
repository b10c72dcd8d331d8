package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ardnew/objecttext/lang"
)

// maxExcerpt bounds the source excerpt printed for each match.
const maxExcerpt = 60

// Query lists the nodes of a source matched by an expr-lang predicate.
type Query struct {
	Count bool `help:"Print only the number of matches." short:"c"`
	JSON  bool `help:"Write one JSON object per match." short:"j"`

	Predicate string `arg:"" help:"Predicate over kind, key, path, text, value, number, unit, depth, line, column and extensions."`
	Source    string `arg:"" default:"-" help:"Source file or '-' for stdin." name:"source"`
}

// Run executes the command.
func (q *Query) Run(ctx context.Context) error {
	env := envFrom(ctx)

	compiled, err := lang.CompileQuery(q.Predicate)
	if err != nil {
		return ErrQuery.Wrap(err)
	}

	doc, err := env.load(ctx, q.Source)
	if err != nil {
		return err
	}

	if perr := doc.Err(); perr != nil {
		env.Logger.WarnContext(ctx, "querying a source with syntax errors", slog.Any("error", perr))
	}

	matches, err := doc.Select(ctx, compiled)
	if err != nil {
		return ErrQuery.Wrap(err)
	}

	env.Logger.DebugContext(ctx, "query complete",
		slog.String("predicate", compiled.String()),
		slog.Int("matches", len(matches)),
	)

	bw := bufio.NewWriter(env.Stdout)

	switch {
	case q.Count:
		fmt.Fprintln(bw, len(matches))

	case q.JSON:
		enc := json.NewEncoder(bw)

		for _, c := range matches {
			if err := enc.Encode(match(doc, c)); err != nil {
				return ErrWriteOutput.Wrap(err)
			}
		}

	default:
		for _, c := range matches {
			start := c.Node.Span().Start

			fmt.Fprintf(bw, "%s:%s: %s", doc.Filename(), start, lang.NodeKind(c.Node))

			if c.Path != "" {
				fmt.Fprintf(bw, " %s", c.Path)
			}

			fmt.Fprintf(bw, ": %s\n", excerpt(doc, c.Node))
		}
	}

	if err := bw.Flush(); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}

// match is the JSON form of a query result.
func match(doc *lang.Document, c lang.Cursor) map[string]any {
	return map[string]any{
		"file":  doc.Filename(),
		"span":  c.Node.Span().String(),
		"kind":  lang.NodeKind(c.Node),
		"path":  c.Path,
		"depth": c.Depth,
		"node":  lang.ToNative(c.Node),
	}
}

// excerpt returns the first line of the source spanned by n, shortened to
// maxExcerpt runes.
func excerpt(doc *lang.Document, n lang.Node) string {
	span := n.Span()
	src := doc.Source()

	if span.Start.Offset < 0 || span.End.Offset > len(src) || span.Start.Offset > span.End.Offset {
		return ""
	}

	text := src[span.Start.Offset:span.End.Offset]

	line, _, multi := strings.Cut(text, "\n")
	line = strings.TrimRight(line, "\r")

	if r := []rune(line); len(r) > maxExcerpt {
		line, multi = string(r[:maxExcerpt]), true
	}

	if multi {
		line += " ..."
	}

	return line
}
