package lang

import (
	"context"
	"io"
	"log/slog"
	"strconv"

	"github.com/klauspost/readahead"

	"github.com/ardnew/objecttext/log"
)

// DefaultMaxDepth is the default bound on nesting of blocks, lists and
// parenthesized expressions.
// Users may modify this before parsing to change the default.
var DefaultMaxDepth = 256

type options struct {
	logger   log.Logger
	filename string
	maxDepth int
}

// Option configures parsing behavior.
type Option func(*options)

// WithLogger sets the structured logger for trace-level debugging.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithFilename records the name of the source for error messages.
func WithFilename(name string) Option {
	return func(o *options) {
		o.filename = name
	}
}

// WithMaxDepth sets the maximum nesting depth. Values below 1 are ignored.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		if depth > 0 {
			o.maxDepth = depth
		}
	}
}

// ParseReader reads all of r and parses it. The returned error reports
// read failures only; parse problems are recorded as diagnostics on the
// document.
func ParseReader(
	ctx context.Context,
	r io.Reader,
	opts ...Option,
) (*Document, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadInput.Wrap(err)
	}

	return Parse(ctx, data, opts...), nil
}

// ParseString parses ObjectText source held in a string.
func ParseString(ctx context.Context, s string, opts ...Option) *Document {
	return Parse(ctx, []byte(s), opts...)
}

// Parse parses ObjectText source. It always returns a document: malformed
// statements are dropped and described by diagnostics, and parsing
// continues with the next statement.
//
// Parse stops early, keeping what it has, if ctx is canceled.
func Parse(ctx context.Context, src []byte, opts ...Option) *Document {
	o := options{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&o)
	}

	o.logger.TraceContext(ctx, "parse start",
		slog.String("file", o.filename),
		slog.Int("source_length", len(src)))

	p := &parser{
		ctx:      ctx,
		s:        NewScanner(src),
		logger:   o.logger,
		maxDepth: o.maxDepth,
	}

	doc := p.parseDocument()
	doc.source = src
	doc.filename = o.filename

	o.logger.TraceContext(ctx, "parse complete",
		slog.Int("statement_count", len(doc.Statements)),
		slog.Int("diagnostic_count", len(doc.Diagnostics)))

	return doc
}

// parser holds the parser state. A parser is used for one document only.
type parser struct {
	ctx    context.Context
	s      *Scanner
	logger log.Logger
	diags  []*Diagnostic

	depth    int
	maxDepth int

	// fatal is set when a construct cannot be parsed by any alternative
	// (nesting too deep); it aborts the enclosing statement.
	fatal *Diagnostic
}

func (p *parser) parseDocument() *Document {
	doc := &Document{}

	for {
		if err := p.ctx.Err(); err != nil {
			doc.cause = err

			break
		}

		p.s.skipSpace()

		if p.s.EOF() {
			break
		}

		start := p.s.Mark()

		stmt, diag := p.parseStatement()
		if diag != nil {
			p.report(diag)
			p.resync(start, 0)

			continue
		}

		doc.Statements = append(doc.Statements, stmt)

		p.skipSeparator()
	}

	doc.Diagnostics = p.diags

	return doc
}

// report records a diagnostic.
func (p *parser) report(d *Diagnostic) {
	p.logger.TraceContext(p.ctx, "diagnostic", slog.Any("diagnostic", d))

	p.diags = append(p.diags, d)
}

// peek returns the next token without consuming it.
func (p *parser) peek() Token {
	mark := p.s.Mark()
	tok := p.s.Next()
	p.s.Reset(mark)

	return tok
}

// skipSeparator consumes one optional ',' or ';'.
func (p *parser) skipSeparator() {
	if tok := p.peek(); tok.Is(TokenComma, TokenSemicolon) {
		p.s.Next()
	}
}

// enter increments the nesting depth. It reports false, recording a fatal
// diagnostic, when the depth limit is exceeded.
func (p *parser) enter(at Span) bool {
	p.depth++

	if p.depth > p.maxDepth {
		p.depth--

		if p.fatal == nil {
			p.fatal = &Diagnostic{
				Kind:     NestingTooDeep,
				Severity: SeverityError,
				Span:     at,
				Message:  "nesting exceeds maximum depth of " + strconv.Itoa(p.maxDepth),
			}
		}

		return false
	}

	return true
}

func (p *parser) leave() { p.depth-- }

// takeFatal returns and clears the pending fatal diagnostic.
func (p *parser) takeFatal() *Diagnostic {
	d := p.fatal
	p.fatal = nil

	return d
}

// identifier converts tok to an identifier if its text is a valid
// identifier. Number tokens such as "10" or "1.5" qualify.
func identifier(tok Token) (*Identifier, bool) {
	switch tok.Kind {
	case TokenIdentifier:
		return &Identifier{Name: tok.Text, Pos: tok.Span}, true

	case TokenNumber:
		s := NewScanner([]byte(tok.Text))
		if id, ok := s.scanIdentifier(); ok && s.EOF() {
			return &Identifier{Name: id.Text, Pos: tok.Span}, true
		}
	}

	return nil, false
}

// parseStatement parses
//
//	identifier ( '=' value | ':' extension+ ( '{' | '[' ) | '{' | '[' )
func (p *parser) parseStatement() (Statement, *Diagnostic) {
	tok := p.s.Next()

	key, ok := identifier(tok)
	if !ok {
		return nil, p.unexpected(tok, "identifier")
	}

	p.logger.TraceContext(p.ctx, "statement", slog.String("key", key.Name),
		slog.Any("span", key.Pos))

	next := p.s.Next()

	switch next.Kind {
	case TokenAssign:
		value, diag := p.parseAssignedValue()
		if diag != nil {
			return nil, diag
		}

		return &Assignment{
			Key:   key,
			Value: value,
			Pos:   spanOf(key.Pos.Start, value.Span().End),
		}, nil

	case TokenColon:
		exts, diag := p.parseExtensions(next)
		if diag != nil {
			return nil, diag
		}

		return p.parseBody(key, exts, p.s.Next())

	case TokenLBrace, TokenLBracket:
		return p.parseBody(key, nil, next)

	default:
		return nil, p.unexpected(next, "'='", "':'", "'{'", "'['")
	}
}

// parseBody parses a block or list whose opening token has been consumed.
func (p *parser) parseBody(key *Identifier, exts []*Extension, open Token) (Statement, *Diagnostic) {
	switch open.Kind {
	case TokenLBrace:
		b, diag := p.parseBlock(key, exts, open)
		if diag != nil {
			return nil, diag
		}

		return b, nil

	case TokenLBracket:
		l, diag := p.parseList(key, exts, open)
		if diag != nil {
			return nil, diag
		}

		return l, nil

	default:
		return nil, p.unexpected(open, "'{'", "'['")
	}
}

// parseExtensions parses the extension chain following ':'. Entries are
// paths without a sigil separated by optional ',' or ';', and the chain
// ends before '{' or '['. The closing token is not consumed.
func (p *parser) parseExtensions(colon Token) ([]*Extension, *Diagnostic) {
	var exts []*Extension

	for {
		p.s.skipSpace()

		if c := p.s.peekAt(0); c == '{' || c == '[' {
			if len(exts) == 0 {
				p.report(&Diagnostic{
					Kind:     EmptyExtensionChain,
					Severity: SeverityError,
					Span:     colon.Span,
					Message:  "':' must be followed by at least one extension",
				})
			}

			return exts, nil
		}

		start := p.s.Mark()

		if p.s.peekAt(0) == '&' {
			p.s.advance()

			p.report(&Diagnostic{
				Kind:     InvalidReferenceSyntax,
				Severity: SeverityError,
				Span:     spanOf(start, p.s.Mark()),
				Message:  "extension paths are written without '&'",
			})
		}

		ref, ok := p.s.scanPath()
		if !ok {
			p.s.Reset(start)

			return nil, p.unexpected(p.peek(), "extension path", "'{'", "'['")
		}

		exts = append(exts, &Extension{Path: ref})

		p.skipSeparator()
	}
}

func (p *parser) parseBlock(key *Identifier, exts []*Extension, open Token) (*Block, *Diagnostic) {
	if !p.enter(open.Span) {
		p.skipBalanced()

		return nil, p.takeFatal()
	}
	defer p.leave()

	b := &Block{Key: key, Extensions: exts}

	start := open.Span.Start
	if key != nil {
		start = key.Pos.Start
	}

	for {
		p.s.skipSpace()

		if p.s.EOF() {
			b.Incomplete = true
			b.Pos = spanOf(start, p.s.Mark())

			p.report(unterminated(open, "block"))

			return b, nil
		}

		if tok := p.peek(); tok.Is(TokenRBrace, TokenRBracket) {
			if tok.Kind == TokenRBracket {
				// Leave the mismatched closer to an enclosing list.
				b.Incomplete = true
				b.Pos = spanOf(start, tok.Span.Start)

				p.report(p.unexpected(tok, "'}'"))

				return b, nil
			}

			p.s.Next()

			b.Pos = spanOf(start, tok.Span.End)

			return b, nil
		}

		memberStart := p.s.Mark()

		stmt, diag := p.parseStatement()
		if diag != nil {
			p.report(diag)
			p.resync(memberStart, p.depth)

			continue
		}

		b.Members = append(b.Members, stmt)

		p.skipSeparator()
	}
}

func (p *parser) parseList(key *Identifier, exts []*Extension, open Token) (*List, *Diagnostic) {
	if !p.enter(open.Span) {
		p.skipBalanced()

		return nil, p.takeFatal()
	}
	defer p.leave()

	l := &List{Key: key, Extensions: exts}

	start := open.Span.Start
	if key != nil {
		start = key.Pos.Start
	}

	for {
		p.s.skipSpace()

		if p.s.EOF() {
			l.Incomplete = true
			l.Pos = spanOf(start, p.s.Mark())

			p.report(unterminated(open, "list"))

			return l, nil
		}

		if tok := p.peek(); tok.Is(TokenRBrace, TokenRBracket) {
			if tok.Kind == TokenRBrace {
				l.Incomplete = true
				l.Pos = spanOf(start, tok.Span.Start)

				p.report(p.unexpected(tok, "']'"))

				return l, nil
			}

			p.s.Next()

			l.Pos = spanOf(start, tok.Span.End)

			return l, nil
		}

		elemStart := p.s.Mark()

		elem, diag := p.parseElement()
		if diag != nil {
			p.report(diag)
			p.resync(elemStart, p.depth)

			continue
		}

		l.Elements = append(l.Elements, elem)

		p.skipSeparator()
	}
}

// parseElement parses a list element: a statement if one starts here,
// otherwise a value.
func (p *parser) parseElement() (Node, *Diagnostic) {
	if p.s.atStatementStart() {
		stmt, diag := p.parseStatement()
		if diag != nil {
			return nil, diag
		}

		return stmt, nil
	}

	v, diag := p.parseValue(true)
	if diag != nil {
		return nil, diag
	}

	return v, nil
}

// parseAssignedValue parses the value after '='. A value that would start
// a new statement on a later line is treated as missing.
func (p *parser) parseAssignedValue() (Value, *Diagnostic) {
	mark := p.s.Mark()

	if p.s.skipSpace() && p.s.atStatementStart() {
		return nil, p.unexpected(p.peek(), "value")
	}

	p.s.Reset(mark)

	return p.parseValue(false)
}

// parseValue tries each value form in order from the same position:
// string, verbatim, block, list, expression, bool, identifier and finally
// bare string. Expression, bool and identifier are accepted only when they
// end at a value boundary.
func (p *parser) parseValue(inList bool) (Value, *Diagnostic) {
	p.s.skipSpace()

	mark := p.s.Mark()
	tok := p.s.Next()

	switch tok.Kind {
	case TokenEOF, TokenRBrace, TokenRBracket, TokenComma, TokenSemicolon:
		return nil, p.unexpected(tok, "value")

	case TokenString:
		if tok.Legacy {
			p.report(&Diagnostic{
				Kind:     UnterminatedString,
				Severity: SeverityWarning,
				Span:     tok.Span,
				Message:  "string closed by end of line",
			})
		}

		return &String{Text: tok.Value, Raw: tok.Text, Pos: tok.Span, Legacy: tok.Legacy}, nil

	case TokenVerbatim:
		if tok.Legacy {
			p.report(&Diagnostic{
				Kind:     UnterminatedString,
				Severity: SeverityWarning,
				Span:     tok.Span,
				Message:  "verbatim string closed by end of line",
			})
		}

		return &Verbatim{Text: tok.Value, Raw: tok.Text, Pos: tok.Span}, nil

	case TokenError:
		if tok.Unterminated {
			return nil, p.unexpected(tok)
		}
	}

	p.s.Reset(mark)

	if v, diag, ok := p.tryComposite(); ok || diag != nil {
		return v, diag
	}

	// A bare string never begins with punctuation that has structural
	// meaning; "a = = 3" is a misplaced token, not the text "= 3".
	switch tok.Kind {
	case TokenAssign, TokenColon, TokenRParen, TokenStar, TokenSlash:
		p.s.Reset(mark)

		return nil, p.unexpected(p.s.Next(), "value")
	}

	p.s.Reset(mark)

	e, ok := p.parseExpr()
	if diag := p.takeFatal(); diag != nil {
		return nil, diag
	}

	if ok && p.atValueBoundary(inList) {
		return e, nil
	}

	p.s.Reset(mark)

	tok = p.s.Next()
	if tok.Kind == TokenIdentifier && (tok.Text == "true" || tok.Text == "false") &&
		p.atValueBoundary(inList) {
		return &Bool{Value: tok.Text == "true", Pos: tok.Span}, nil
	}

	if id, ok := identifier(tok); ok && p.atValueBoundary(inList) {
		return id, nil
	}

	p.s.Reset(mark)

	bare := p.s.ScanBareString(inList)
	if bare.Kind != TokenBareString {
		return nil, p.unexpected(p.peek(), "value")
	}

	p.logger.TraceContext(p.ctx, "bare string fallback", slog.Any("span", bare.Span))

	return &BareString{Text: bare.Text, Pos: bare.Span}, nil
}

// tryComposite parses a block or list used as a value:
//
//	[identifier] [ '=' | ':' extension+ ] ( '{' | '[' )
//
// The '=' form lets a keyed composite appear as an assigned value, as in
// "a = b = { }".
//
// It reports ok=false, with no diagnostic and no recorded side effects,
// when the input does not have that shape.
func (p *parser) tryComposite() (Value, *Diagnostic, bool) {
	count := len(p.diags)
	rewind := func() (Value, *Diagnostic, bool) {
		p.diags = p.diags[:count]

		return nil, nil, false
	}

	tok := p.s.Next()

	var key *Identifier
	if id, ok := identifier(tok); ok {
		key = id
		tok = p.s.Next()
	}

	var exts []*Extension

	switch {
	case key != nil && tok.Kind == TokenAssign:
		tok = p.s.Next()

	case tok.Kind == TokenColon:
		var diag *Diagnostic

		exts, diag = p.parseExtensions(tok)
		if diag != nil {
			return rewind()
		}

		tok = p.s.Next()
	}

	switch tok.Kind {
	case TokenLBrace:
		b, diag := p.parseBlock(key, exts, tok)
		if diag != nil {
			return nil, diag, false
		}

		return b, nil, true

	case TokenLBracket:
		l, diag := p.parseList(key, exts, tok)
		if diag != nil {
			return nil, diag, false
		}

		return l, nil, true
	}

	return rewind()
}

// atValueBoundary reports whether a value may end at the cursor: only
// spaces and comments remain before the end of input, a newline, a
// separator, a closer, or the start of a statement. Inside lists the start
// of another value also qualifies. The cursor is not moved.
func (p *parser) atValueBoundary(inList bool) bool {
	mark := p.s.Mark()
	defer p.s.Reset(mark)

	p.s.skipInlineSpace()

	if p.s.EOF() {
		return true
	}

	switch c := p.s.peekAt(0); {
	case c == '\n', c == ',', c == ';', c == '}', c == ']':
		return true
	case c == '\r' && p.s.peekAt(1) == '\n':
		return true
	case c == '/' && p.s.peekAt(1) == '*':
		// A block comment spanning lines is left by skipInlineSpace.
		return true
	case inList && startsValue(c, p.s.peekAt(1)):
		return true
	}

	return p.s.atStatementStart()
}

// startsValue reports whether a value may begin with c followed by next.
func startsValue(c, next byte) bool {
	switch {
	case c == '"', c == '{', c == '[', c == '&', c == '(', c == '-', c == '+':
		return true
	case c == '@':
		return next == '"'
	case c == '.':
		return isIdentStart(next)
	}

	return isIdentStart(c)
}

// resync discards input after a malformed statement that began at from.
// It stops at the next statement start, at a closer belonging to an
// enclosing construct (depth > 0), or at end of input. Bracketed groups
// are skipped whole. At least one token is always consumed.
func (p *parser) resync(from Position, depth int) {
	p.s.Reset(from)

	p.logger.TraceContext(p.ctx, "resync", slog.Any("from", from))

	first := true

	for {
		p.s.skipSpace()

		if p.s.EOF() {
			return
		}

		if !first {
			if p.s.atStatementStart() {
				return
			}

			if c := p.s.peekAt(0); depth > 0 && (c == '}' || c == ']') {
				return
			}
		}

		first = false

		switch tok := p.s.Next(); tok.Kind {
		case TokenLBrace, TokenLBracket:
			p.skipBalanced()
		}
	}
}

// skipBalanced skips input up to and including the closer that matches an
// opener already consumed. Strings are skipped as tokens so that brackets
// inside them do not count.
func (p *parser) skipBalanced() {
	for open := 1; open > 0; {
		switch tok := p.s.Next(); tok.Kind {
		case TokenEOF:
			return
		case TokenLBrace, TokenLBracket:
			open++
		case TokenRBrace, TokenRBracket:
			open--
		}
	}
}

func (p *parser) unexpected(tok Token, expected ...string) *Diagnostic {
	if tok.Kind == TokenError && tok.Unterminated {
		return &Diagnostic{
			Kind:     UnterminatedString,
			Severity: SeverityError,
			Span:     tok.Span,
			Message:  "string not terminated before end of input",
		}
	}

	return newUnexpected(tok, expected...)
}

func unterminated(open Token, what string) *Diagnostic {
	closer := "'}'"
	if open.Kind == TokenLBracket {
		closer = "']'"
	}

	return &Diagnostic{
		Kind:     UnterminatedBlockOrList,
		Severity: SeverityError,
		Span:     open.Span,
		Message:  what + " opened here is missing " + closer,
		Found:    TokenEOF.String(),
		Expected: []string{closer},
	}
}
