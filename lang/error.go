package lang

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
)

// Predefined errors (sentinel values).
var (
	ErrReadInput     = NewError("failed to read input")
	ErrParse         = NewError("parse failed")
	ErrQueryCompile  = NewError("query compilation failed")
	ErrQueryEvaluate = NewError("query evaluation failed")
	ErrPathNotFound  = NewError("key path not found")
	ErrInvalidPath   = NewError("invalid reference path")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg   string
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	// One of "<msg>: <err>", "<msg>", "<err>" or "", depending on which
	// fields are set.
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the same sentinel, so that errors derived
// from a sentinel with Wrap or With still match it.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || t.msg == "" {
		return false
	}

	return e.msg == t.msg && t.err == nil
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:   e.msg,
		err:   err,
		attrs: e.attrs, // Share attrs
	}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		msg:   e.msg,
		err:   e.err,
		attrs: newAttrs,
	}
}

// ParseError reports the error-severity diagnostics of a document together
// with the source they refer to.
type ParseError struct {
	Diagnostics []*Diagnostic
	Source      string
	Filename    string
}

// NewParseError returns a ParseError for the given diagnostics.
func NewParseError(diags []*Diagnostic, source, filename string) *ParseError {
	return &ParseError{
		Diagnostics: diags,
		Source:      source,
		Filename:    filename,
	}
}

// Error implements the error interface. Only the first diagnostic is
// rendered with a source snippet; the rest are counted.
func (e *ParseError) Error() string {
	if len(e.Diagnostics) == 0 {
		return "parse error"
	}

	var buf strings.Builder

	buf.WriteString(e.header(e.Diagnostics[0]))
	buf.WriteString(e.Diagnostics[0].Message)

	if snippet := e.Snippet(e.Diagnostics[0]); snippet != "" {
		buf.WriteByte('\n')
		buf.WriteString(snippet)
	}

	if n := len(e.Diagnostics) - 1; n > 0 {
		buf.WriteString("\n(and ")
		buf.WriteString(strconv.Itoa(n))
		buf.WriteString(" more error")

		if n > 1 {
			buf.WriteByte('s')
		}

		buf.WriteByte(')')
	}

	return buf.String()
}

// Unwrap returns the diagnostics so errors.As can reach them.
func (e *ParseError) Unwrap() []error {
	errs := make([]error, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		errs[i] = d
	}

	return errs
}

// Is matches [ErrParse].
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// LogValue implements slog.LogValuer.
func (e *ParseError) LogValue() slog.Value {
	attrs := []slog.Attr{slog.Int("count", len(e.Diagnostics))}

	if e.Filename != "" {
		attrs = append(attrs, slog.String("file", e.Filename))
	}

	if len(e.Diagnostics) > 0 {
		attrs = append(attrs, slog.Any("first", e.Diagnostics[0]))
	}

	return slog.GroupValue(attrs...)
}

func (e *ParseError) header(d *Diagnostic) string {
	var buf strings.Builder

	if e.Filename != "" {
		buf.WriteString(e.Filename)
		buf.WriteByte(':')
	} else {
		buf.WriteString("parse error at ")
	}

	buf.WriteString(d.Span.Start.String())
	buf.WriteString(": ")

	return buf.String()
}

// Snippet renders the source line of d with a caret under its column.
func (e *ParseError) Snippet(d *Diagnostic) string {
	line := d.Span.Start.Line
	lines := strings.Split(e.Source, "\n")

	if line <= 0 || line > len(lines) {
		return ""
	}

	var src strings.Builder

	num := strconv.Itoa(line)

	src.WriteString("  ")
	src.WriteString(num)
	src.WriteString(" | ")
	src.WriteString(strings.TrimRight(lines[line-1], "\r"))
	src.WriteRune('\n')

	// 2 leading spaces + " | "
	padding := strings.Repeat(" ", len(num)+5)
	if d.Span.Start.Column > 0 {
		padding += strings.Repeat(" ", d.Span.Start.Column-1)
	}

	src.WriteString(padding + "^")

	return src.String()
}
