package lang

import (
	"log/slog"
	"strings"
)

// DiagnosticKind classifies a recorded parse problem.
type DiagnosticKind int

const (
	UnterminatedString      DiagnosticKind = iota // unterminated string
	UnterminatedBlockOrList                       // unterminated block or list
	UnexpectedToken                               // unexpected token
	EmptyExtensionChain                           // empty extension chain
	InvalidReferenceSyntax                        // invalid reference syntax
	NestingTooDeep                                // nesting too deep
)

// String returns the diagnostic kind name.
func (k DiagnosticKind) String() string {
	switch k {
	case UnterminatedString:
		return "UnterminatedString"
	case UnterminatedBlockOrList:
		return "UnterminatedBlockOrList"
	case UnexpectedToken:
		return "UnexpectedToken"
	case EmptyExtensionChain:
		return "EmptyExtensionChain"
	case InvalidReferenceSyntax:
		return "InvalidReferenceSyntax"
	case NestingTooDeep:
		return "NestingTooDeep"
	default:
		return "Unknown"
	}
}

// Severity of a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// String returns "error" or "warning".
func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}

	return "error"
}

// Diagnostic is a parse problem with its location. Found and Expected are
// set for UnexpectedToken.
type Diagnostic struct {
	Kind     DiagnosticKind
	Severity Severity
	Span     Span
	Message  string
	Found    string
	Expected []string
}

// Error implements the error interface as "line:col: message".
func (d *Diagnostic) Error() string {
	return d.Span.Start.String() + ": " + d.Message
}

// LogValue implements slog.LogValuer.
func (d *Diagnostic) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("kind", d.Kind.String()),
		slog.String("severity", d.Severity.String()),
		slog.Any("span", d.Span),
		slog.String("message", d.Message),
	}

	if d.Found != "" {
		attrs = append(attrs, slog.String("found", d.Found))
	}

	if len(d.Expected) > 0 {
		attrs = append(attrs, slog.String("expected", strings.Join(d.Expected, ", ")))
	}

	return slog.GroupValue(attrs...)
}

func newUnexpected(tok Token, expected ...string) *Diagnostic {
	found := tok.Describe()

	msg := "unexpected " + found
	if len(expected) > 0 {
		msg += ", expected " + joinAlternatives(expected)
	}

	return &Diagnostic{
		Kind:     UnexpectedToken,
		Severity: SeverityError,
		Span:     tok.Span,
		Message:  msg,
		Found:    found,
		Expected: expected,
	}
}

// joinAlternatives renders ["a", "b", "c"] as "a, b or c".
func joinAlternatives(alts []string) string {
	switch len(alts) {
	case 0:
		return ""
	case 1:
		return alts[0]
	}

	return strings.Join(alts[:len(alts)-1], ", ") + " or " + alts[len(alts)-1]
}
