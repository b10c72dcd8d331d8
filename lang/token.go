package lang

import (
	"log/slog"
	"strconv"
)

// Position is a location in the source text. Offset is a zero-based byte
// offset; Line and Column are one-based, with Column counted in runes.
type Position struct {
	Offset int
	Line   int
	Column int
}

// String returns the position formatted as "line:column".
func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// Span is the half-open source range [Start, End) of a token or node.
type Span struct {
	Start Position
	End   Position
}

// String returns the span formatted as "line:column-line:column".
func (s Span) String() string {
	return s.Start.String() + "-" + s.End.String()
}

// Len returns the length of the span in bytes.
func (s Span) Len() int { return s.End.Offset - s.Start.Offset }

// LogValue implements slog.LogValuer.
func (s Span) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("line", s.Start.Line),
		slog.Int("column", s.Start.Column),
		slog.Int("offset", s.Start.Offset),
		slog.Int("length", s.Len()),
	)
}

func spanOf(start, end Position) Span { return Span{Start: start, End: end} }

// TokenKind classifies a scanned token.
type TokenKind int

const (
	TokenEOF        TokenKind = iota // end of input
	TokenError                       // error sentinel
	TokenIdentifier                  // identifier
	TokenNumber                      // number
	TokenString                      // string
	TokenVerbatim                    // verbatim string
	TokenBareString                  // bare string
	TokenComment                     // comment
	TokenAssign                      // '='
	TokenColon                       // ':'
	TokenComma                       // ','
	TokenSemicolon                   // ';'
	TokenLBrace                      // '{'
	TokenRBrace                      // '}'
	TokenLBracket                    // '['
	TokenRBracket                    // ']'
	TokenLParen                      // '('
	TokenRParen                      // ')'
	TokenPlus                        // '+'
	TokenMinus                       // '-'
	TokenStar                        // '*'
	TokenSlash                       // '/'
	TokenAmpersand                   // '&'
)

var tokenKindName = [...]string{
	TokenEOF:        "end of input",
	TokenError:      "error",
	TokenIdentifier: "identifier",
	TokenNumber:     "number",
	TokenString:     "string",
	TokenVerbatim:   "verbatim string",
	TokenBareString: "bare string",
	TokenComment:    "comment",
	TokenAssign:     "'='",
	TokenColon:      "':'",
	TokenComma:      "','",
	TokenSemicolon:  "';'",
	TokenLBrace:     "'{'",
	TokenRBrace:     "'}'",
	TokenLBracket:   "'['",
	TokenRBracket:   "']'",
	TokenLParen:     "'('",
	TokenRParen:     "')'",
	TokenPlus:       "'+'",
	TokenMinus:      "'-'",
	TokenStar:       "'*'",
	TokenSlash:      "'/'",
	TokenAmpersand:  "'&'",
}

// String returns a human-readable name for the token kind.
func (k TokenKind) String() string {
	if k >= 0 && int(k) < len(tokenKindName) {
		return tokenKindName[k]
	}

	return "TokenKind(" + strconv.Itoa(int(k)) + ")"
}

// Token is a single lexical unit.
//
// Text holds the exact source text of the token. For strings and verbatim
// strings Value holds the decoded content (fragments joined, escapes
// interpreted for strings only); for all other kinds Value equals Text.
type Token struct {
	Kind  TokenKind
	Text  string
	Value string
	Span  Span

	// Legacy marks a string closed by end of line instead of a quote.
	Legacy bool
	// Unterminated marks a string that ran into end of input.
	Unterminated bool
}

// Is reports whether the token has one of the given kinds.
func (t Token) Is(kinds ...TokenKind) bool {
	for _, k := range kinds {
		if t.Kind == k {
			return true
		}
	}

	return false
}

// Describe returns the token as shown in diagnostics.
func (t Token) Describe() string {
	switch t.Kind {
	case TokenIdentifier, TokenNumber, TokenError:
		return t.Kind.String() + " " + strconv.Quote(t.Text)
	default:
		return t.Kind.String()
	}
}
