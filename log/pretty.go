package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// palette holds the styles of the pretty handlers. A lipgloss renderer
// bound to the output decides whether styles emit color, so output written
// to files and pipes stays plain.
type palette struct {
	key      lipgloss.Style
	text     lipgloss.Style
	number   lipgloss.Style
	yes      lipgloss.Style
	no       lipgloss.Style
	duration lipgloss.Style
	time     lipgloss.Style
}

func newPalette(w io.Writer) palette {
	r := lipgloss.NewRenderer(w)

	fg := func(c string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(c))
	}

	return palette{
		key:      fg("8"),
		text:     fg("6"),
		number:   fg("3"),
		yes:      fg("2"),
		no:       fg("1"),
		duration: fg("5"),
		time:     fg("4"),
	}
}

func (p palette) level(level slog.Level) lipgloss.Style {
	switch {
	case level >= slog.LevelError:
		return p.no.Bold(true)
	case level >= slog.LevelWarn:
		return p.number.Bold(true)
	case level >= slog.LevelInfo:
		return p.yes
	default:
		return p.time
	}
}

func (p palette) value(v slog.Value) string {
	switch v.Kind() {
	case slog.KindInt64, slog.KindUint64, slog.KindFloat64:
		return p.number.Render(v.String())

	case slog.KindBool:
		if v.Bool() {
			return p.yes.Render("true")
		}

		return p.no.Render("false")

	case slog.KindDuration:
		return p.duration.Render(v.Duration().String())

	case slog.KindTime:
		return p.time.Render(v.Time().Format(time.RFC3339))

	default:
		return p.text.Render(v.String())
	}
}

// builtins returns the time, level, source and message attributes of r,
// with opts.ReplaceAttr applied to each. Attributes replaced by an empty
// attribute are dropped.
func builtins(opts *slog.HandlerOptions, r slog.Record) []slog.Attr {
	attrs := make([]slog.Attr, 0, 4)

	if !r.Time.IsZero() {
		attrs = append(attrs, slog.Time(slog.TimeKey, r.Time))
	}

	attrs = append(attrs, slog.Any(slog.LevelKey, r.Level))

	if opts.AddSource {
		if src := r.Source(); src != nil && src.File != "" {
			attrs = append(attrs, slog.String(slog.SourceKey,
				fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line)))
		}
	}

	attrs = append(attrs, slog.String(slog.MessageKey, r.Message))

	if opts.ReplaceAttr == nil {
		return attrs
	}

	out := attrs[:0]

	for _, a := range attrs {
		if a = opts.ReplaceAttr(nil, a); a.Key != "" {
			out = append(out, a)
		}
	}

	return out
}

func minLevel(opts *slog.HandlerOptions) slog.Level {
	if opts.Level == nil {
		return slog.LevelInfo
	}

	return opts.Level.Level()
}

// prettyTextHandler writes one line per record as space-separated
// key=value pairs, without quoting.
type prettyTextHandler struct {
	opts   slog.HandlerOptions
	pal    palette
	mu     *sync.Mutex
	w      io.Writer
	prefix string // dotted group path for new attributes
	attrs  string // preformatted attributes from WithAttrs
}

func newPrettyTextHandler(w io.Writer, opts *slog.HandlerOptions) *prettyTextHandler {
	return &prettyTextHandler{
		opts: *opts,
		pal:  newPalette(w),
		mu:   &sync.Mutex{},
		w:    w,
	}
}

func (h *prettyTextHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= minLevel(&h.opts)
}

func (h *prettyTextHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	for _, a := range builtins(&h.opts, r) {
		buf.WriteByte(' ')
		buf.WriteString(h.pal.key.Render(a.Key))
		buf.WriteByte('=')

		if a.Key == slog.LevelKey {
			buf.WriteString(h.pal.level(r.Level).Render(a.Value.String()))
		} else {
			buf.WriteString(h.pal.value(a.Value))
		}
	}

	buf.WriteString(h.attrs)

	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(&buf, h.prefix, a)

		return true
	})

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	// Drop the separator in front of the first pair.
	_, err := h.w.Write(buf.Bytes()[1:])

	return err
}

func (h *prettyTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var buf bytes.Buffer

	for _, a := range attrs {
		h.writeAttr(&buf, h.prefix, a)
	}

	c := *h
	c.attrs += buf.String()

	return &c
}

func (h *prettyTextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.prefix += name + "."

	return &c
}

func (h *prettyTextHandler) writeAttr(buf *bytes.Buffer, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()

	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}

		for _, g := range a.Value.Group() {
			h.writeAttr(buf, prefix, g)
		}

		return
	}

	buf.WriteByte(' ')
	buf.WriteString(h.pal.key.Render(prefix + a.Key))
	buf.WriteByte('=')
	buf.WriteString(h.pal.value(a.Value))
}

// prettyJSONHandler writes each record as an indented object with unquoted
// keys and values. Groups become nested objects.
type prettyJSONHandler struct {
	opts   slog.HandlerOptions
	pal    palette
	mu     *sync.Mutex
	w      io.Writer
	groups []string
	attrs  []slog.Attr // from WithAttrs, already nested under their groups
}

func newPrettyJSONHandler(w io.Writer, opts *slog.HandlerOptions) *prettyJSONHandler {
	return &prettyJSONHandler{
		opts: *opts,
		pal:  newPalette(w),
		mu:   &sync.Mutex{},
		w:    w,
	}
}

func (h *prettyJSONHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= minLevel(&h.opts)
}

func (h *prettyJSONHandler) Handle(_ context.Context, r slog.Record) error {
	fields := builtins(&h.opts, r)
	fields = append(fields, h.attrs...)

	own := make([]slog.Attr, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		own = append(own, a)

		return true
	})

	fields = append(fields, nest(h.groups, own)...)

	var buf bytes.Buffer

	h.writeObject(&buf, fields, 1, r.Level)
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyJSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(h.attrs[:len(h.attrs):len(h.attrs)], nest(h.groups, attrs)...)

	return &c
}

func (h *prettyJSONHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.groups = append(h.groups[:len(h.groups):len(h.groups)], name)

	return &c
}

// nest wraps attrs in one group attribute per name, outermost first.
func nest(groups []string, attrs []slog.Attr) []slog.Attr {
	if len(attrs) == 0 {
		return nil
	}

	for i := len(groups) - 1; i >= 0; i-- {
		attrs = []slog.Attr{{Key: groups[i], Value: slog.GroupValue(attrs...)}}
	}

	return attrs
}

func (h *prettyJSONHandler) writeObject(buf *bytes.Buffer, attrs []slog.Attr, depth int, level slog.Level) {
	buf.WriteString("{\n")

	indent := strings.Repeat("  ", depth)
	first := true

	for _, a := range attrs {
		a.Value = a.Value.Resolve()

		if a.Equal(slog.Attr{}) {
			continue
		}

		if !first {
			buf.WriteString(",\n")
		}

		first = false

		buf.WriteString(indent)
		buf.WriteString(h.pal.key.Render(a.Key))
		buf.WriteString(": ")

		switch {
		case a.Value.Kind() == slog.KindGroup:
			h.writeObject(buf, a.Value.Group(), depth+1, level)

		case a.Key == slog.LevelKey && depth == 1:
			buf.WriteString(h.pal.level(level).Render(a.Value.String()))

		default:
			buf.WriteString(h.pal.value(a.Value))
		}
	}

	buf.WriteString("\n")
	buf.WriteString(strings.Repeat("  ", depth-1))
	buf.WriteString("}")
}
