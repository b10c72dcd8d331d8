package lang

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Scanner is a read-only cursor over ObjectText source.
//
// Most of the grammar is tokenized by [Scanner.Next]. The context-sensitive
// pieces (bare strings and reference paths) are scanned on demand by the
// parser from an explicit position, which is why the cursor can be saved
// with [Scanner.Mark] and rewound with [Scanner.Reset].
type Scanner struct {
	src []byte
	pos Position

	// KeepComments makes Next return comment tokens instead of skipping them.
	KeepComments bool
}

// NewScanner returns a scanner positioned at the start of src.
func NewScanner(src []byte) *Scanner {
	return &Scanner{
		src: src,
		pos: Position{Offset: 0, Line: 1, Column: 1},
	}
}

// Mark returns the current cursor position.
func (s *Scanner) Mark() Position { return s.pos }

// Reset moves the cursor back to a position previously returned by Mark.
func (s *Scanner) Reset(p Position) { s.pos = p }

// EOF reports whether the cursor is at the end of input.
func (s *Scanner) EOF() bool { return s.pos.Offset >= len(s.src) }

// Text returns the source text between two positions.
func (s *Scanner) Text(from, to Position) string {
	return string(s.src[from.Offset:to.Offset])
}

// Tokens scans all remaining tokens, excluding the final EOF token.
func (s *Scanner) Tokens() []Token {
	var out []Token

	for {
		tok := s.Next()
		if tok.Kind == TokenEOF {
			return out
		}

		out = append(out, tok)
	}
}

func (s *Scanner) peek() rune {
	if s.EOF() {
		return 0
	}

	r, _ := utf8.DecodeRune(s.src[s.pos.Offset:])

	return r
}

// peekAt returns the byte n bytes past the cursor, or 0 past end of input.
func (s *Scanner) peekAt(n int) byte {
	if s.pos.Offset+n >= len(s.src) {
		return 0
	}

	return s.src[s.pos.Offset+n]
}

func (s *Scanner) advance() {
	if s.EOF() {
		return
	}

	r, size := utf8.DecodeRune(s.src[s.pos.Offset:])

	s.pos.Offset += size
	if r == '\n' {
		s.pos.Line++
		s.pos.Column = 1
	} else {
		s.pos.Column++
	}
}

func (s *Scanner) advanceN(n int) {
	for range n {
		s.advance()
	}
}

// skipSpace skips whitespace and comments. It reports whether a newline was
// crossed.
func (s *Scanner) skipSpace() (newline bool) {
	for !s.EOF() {
		switch c := s.peekAt(0); {
		case c == '\n':
			newline = true

			s.advance()
		case isSpace(c):
			s.advance()
		case c == '/' && s.peekAt(1) == '/':
			s.skipLineComment()
		case c == '/' && s.peekAt(1) == '*':
			if s.skipBlockComment() {
				newline = true
			}
		default:
			return newline
		}
	}

	return newline
}

// skipInlineSpace skips whitespace and comments without crossing a newline.
// A block comment that spans lines is left in place.
func (s *Scanner) skipInlineSpace() {
	for !s.EOF() {
		switch c := s.peekAt(0); {
		case isSpace(c):
			s.advance()
		case c == '/' && s.peekAt(1) == '/':
			s.skipLineComment()
		case c == '/' && s.peekAt(1) == '*':
			saved := s.pos
			if s.skipBlockComment() {
				s.pos = saved

				return
			}
		default:
			return
		}
	}
}

// skipLineComment skips to, but not past, the end of the line.
func (s *Scanner) skipLineComment() {
	for !s.EOF() && s.peekAt(0) != '\n' {
		s.advance()
	}
}

// skipBlockComment skips a /* */ comment and reports whether it contained a
// newline. An unclosed block comment runs to end of input.
func (s *Scanner) skipBlockComment() (newline bool) {
	s.advanceN(2)

	for !s.EOF() {
		if s.peekAt(0) == '*' && s.peekAt(1) == '/' {
			s.advanceN(2)

			return newline
		}

		if s.peekAt(0) == '\n' {
			newline = true
		}

		s.advance()
	}

	return newline
}

// Next skips whitespace and comments and scans one token.
func (s *Scanner) Next() Token {
	if s.KeepComments {
		for c := s.peekAt(0); isSpace(c) || c == '\n'; c = s.peekAt(0) {
			s.advance()
		}

		if s.peekAt(0) == '/' && (s.peekAt(1) == '/' || s.peekAt(1) == '*') {
			start := s.pos
			if s.peekAt(1) == '/' {
				s.skipLineComment()
			} else {
				s.skipBlockComment()
			}

			return s.token(TokenComment, start)
		}
	} else {
		s.skipSpace()
	}

	start := s.pos

	if s.EOF() {
		return Token{Kind: TokenEOF, Span: spanOf(start, start)}
	}

	c := s.peekAt(0)

	switch {
	case c == '"':
		return s.scanQuoted(false)

	case c == '@' && s.peekAt(1) == '"':
		return s.scanQuoted(true)

	case isDigit(c) || (c == '.' && isDigit(s.peekAt(1))):
		if tok, ok := s.scanNumber(); ok {
			return tok
		}

		if tok, ok := s.scanIdentifier(); ok {
			return tok
		}

	case isIdentStart(c) || (c == '.' && isIdentStart(s.peekAt(1))):
		if tok, ok := s.scanIdentifier(); ok {
			return tok
		}
	}

	if kind, ok := punctuation[c]; ok {
		s.advance()

		return s.token(kind, start)
	}

	// Nothing applies: emit a sentinel covering the offending rune.
	s.advance()

	return s.token(TokenError, start)
}

var punctuation = map[byte]TokenKind{
	'=': TokenAssign,
	':': TokenColon,
	',': TokenComma,
	';': TokenSemicolon,
	'{': TokenLBrace,
	'}': TokenRBrace,
	'[': TokenLBracket,
	']': TokenRBracket,
	'(': TokenLParen,
	')': TokenRParen,
	'+': TokenPlus,
	'-': TokenMinus,
	'*': TokenStar,
	'/': TokenSlash,
	'&': TokenAmpersand,
}

func (s *Scanner) token(kind TokenKind, start Position) Token {
	text := s.Text(start, s.pos)

	return Token{Kind: kind, Text: text, Value: text, Span: spanOf(start, s.pos)}
}

// scanIdentifier scans [.]?[A-Za-z0-9_][A-Za-z0-9_.]* at the cursor.
func (s *Scanner) scanIdentifier() (Token, bool) {
	start := s.pos

	n := 0
	if s.peekAt(0) == '.' {
		n++
	}

	if !isIdentStart(s.peekAt(n)) {
		return Token{}, false
	}

	for isIdentPart(s.peekAt(n)) {
		n++
	}

	s.advanceN(n)

	return s.token(TokenIdentifier, start), true
}

// scanNumber scans a decimal literal with optional fraction, exponent and
// unit suffix. It fails without moving the cursor if the literal runs
// directly into identifier characters (as in "10px").
func (s *Scanner) scanNumber() (Token, bool) {
	start := s.pos
	n := 0

	digits := func() int {
		count := 0

		for {
			c := s.peekAt(n)
			if isDigit(c) {
				n++
				count++

				continue
			}

			if c == '_' && count > 0 && isDigit(s.peekAt(n+1)) {
				n++

				continue
			}

			return count
		}
	}

	whole := digits()

	if s.peekAt(n) == '.' && (whole > 0 || isDigit(s.peekAt(n+1))) {
		n++

		digits()
	}

	if c := s.peekAt(n); c == 'e' || c == 'E' {
		m := n + 1
		if c := s.peekAt(m); c == '+' || c == '-' {
			m++
		}

		if isDigit(s.peekAt(m)) {
			n = m
			digits()
		}
	}

	switch s.peekAt(n) {
	case 'd', 'r', '%':
		n++
	}

	if isIdentPart(s.peekAt(n)) {
		return Token{}, false
	}

	s.advanceN(n)

	return s.token(TokenNumber, start), true
}

// scanQuoted scans a string or verbatim string, including any
// backslash-newline continuation fragments that follow it.
func (s *Scanner) scanQuoted(verbatim bool) Token {
	start := s.pos

	kind := TokenString
	if verbatim {
		kind = TokenVerbatim

		s.advance() // '@'
	}

	s.advance() // opening quote

	var buf strings.Builder

	for {
		if s.EOF() {
			tok := s.token(TokenError, start)
			tok.Value = buf.String()
			tok.Unterminated = true

			return tok
		}

		c := s.peekAt(0)

		switch {
		case c == '"':
			s.advance()

			if !s.continuation() {
				tok := s.token(kind, start)
				tok.Value = buf.String()

				return tok
			}

		case c == '\n':
			tok := s.token(kind, start)
			tok.Value = strings.TrimSuffix(buf.String(), "\r")
			tok.Legacy = true

			return tok

		case c == '\\' && (s.peekAt(1) == '\n' || (s.peekAt(1) == '\r' && s.peekAt(2) == '\n')):
			s.advance()

			for c := s.peekAt(0); isSpace(c) || c == '\n'; c = s.peekAt(0) {
				s.advance()
			}

			if s.peekAt(0) == '"' {
				s.advance()
			}

		case c == '\\':
			s.advance()

			if s.EOF() {
				continue
			}

			if verbatim {
				buf.WriteByte('\\')
				buf.WriteRune(s.peek())
				s.advance()
			} else {
				s.unescape(&buf)
			}

		default:
			buf.WriteRune(s.peek())
			s.advance()
		}
	}
}

// continuation consumes `\` newline `"` after a closed fragment and reports
// whether another fragment follows. The cursor is left unchanged otherwise.
func (s *Scanner) continuation() bool {
	saved := s.pos

	for isSpace(s.peekAt(0)) && s.peekAt(0) != '\r' {
		s.advance()
	}

	if s.peekAt(0) == '\\' {
		s.advance()

		if s.peekAt(0) == '\r' {
			s.advance()
		}

		if s.peekAt(0) == '\n' {
			s.skipSpace()

			if s.peekAt(0) == '"' {
				s.advance()

				return true
			}
		}
	}

	s.pos = saved

	return false
}

// unescape decodes the escape sequence following a consumed backslash.
func (s *Scanner) unescape(buf *strings.Builder) {
	c := s.peek()

	switch c {
	case 'n':
		buf.WriteByte('\n')
	case 't':
		buf.WriteByte('\t')
	case 'r':
		buf.WriteByte('\r')
	case '0':
		buf.WriteByte(0)
	case 'u':
		if s.pos.Offset+5 <= len(s.src) {
			hex := string(s.src[s.pos.Offset+1 : s.pos.Offset+5])
			if v, err := strconv.ParseUint(hex, 16, 32); err == nil {
				buf.WriteRune(rune(v))
				s.advanceN(5)

				return
			}
		}

		buf.WriteRune(c)
	default:
		buf.WriteRune(c)
	}

	s.advance()
}

// ScanBareString captures unquoted text from the cursor up to the next
// terminator: newline, ';', '}', ']', a comment that follows whitespace, or
// a ','. Inside lists every ',' terminates; elsewhere a ',' terminates only
// when a statement, a closing bracket or the end of the line follows it.
// Quoted segments are captured whole. Trailing whitespace is trimmed.
//
// The parser calls this only after every structured value form failed.
func (s *Scanner) ScanBareString(inList bool) Token {
	s.skipInlineSpace()

	start := s.pos
	end := s.pos

	for !s.EOF() {
		c := s.peekAt(0)

		switch {
		case c == '\n' || c == ';' || c == '}' || c == ']':
			return s.bareToken(start, end)

		case c == '\r' && s.peekAt(1) == '\n':
			return s.bareToken(start, end)

		case c == '/' && (s.peekAt(1) == '/' || s.peekAt(1) == '*') &&
			(s.pos == start || isSpace(s.src[s.pos.Offset-1])):
			return s.bareToken(start, end)

		case c == ',':
			if inList || s.commaEndsBareString() {
				return s.bareToken(start, end)
			}

			s.advance()
			end = s.pos

		case c == '"':
			s.skipQuotedSegment()
			end = s.pos

		default:
			s.advance()

			if !isSpace(c) {
				end = s.pos
			}
		}
	}

	return s.bareToken(start, end)
}

func (s *Scanner) bareToken(start, end Position) Token {
	s.pos = end
	if end.Offset == start.Offset {
		return Token{Kind: TokenError, Span: spanOf(start, end)}
	}

	return s.token(TokenBareString, start)
}

// commaEndsBareString looks past the ',' at the cursor without moving it.
func (s *Scanner) commaEndsBareString() bool {
	saved := s.pos
	defer s.Reset(saved)

	s.advance()
	s.skipInlineSpace()

	if s.EOF() {
		return true
	}

	switch s.peekAt(0) {
	case '\n', '\r', '}', ']':
		return true
	}

	return s.atStatementStart()
}

// skipQuotedSegment skips a quoted run inside a bare string, stopping at
// the closing quote or the end of the line.
func (s *Scanner) skipQuotedSegment() {
	s.advance()

	for !s.EOF() {
		switch s.peekAt(0) {
		case '\\':
			s.advanceN(2)

			continue
		case '\n':
			return
		case '"':
			s.advance()

			return
		}

		s.advance()
	}
}

// atStatementStart reports whether the cursor is at an identifier followed
// by '=', ':', '{' or '['. The cursor is not moved.
func (s *Scanner) atStatementStart() bool {
	saved := s.pos
	defer s.Reset(saved)

	if _, ok := s.scanIdentifier(); !ok {
		return false
	}

	s.skipSpace()

	switch s.peekAt(0) {
	case '=', ':', '{', '[':
		return true
	}

	return false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\v' || c == '\f'
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func isIdentStart(c byte) bool {
	return isDigit(c) || c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || c == '.' }
