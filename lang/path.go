package lang

import (
	"log/slog"
	"strings"
)

// scanPath scans a reference path at the cursor, without a sigil. It
// returns false and leaves the cursor unchanged if no path starts here.
//
// The path grammar is scanned from raw characters rather than tokens since
// identifiers may contain dots and '/' separates components only when no
// whitespace surrounds it.
func (s *Scanner) scanPath() (*Reference, bool) {
	if s.peekAt(0) == '<' {
		return s.scanExternalPath()
	}

	return s.scanInternalPath()
}

func (s *Scanner) scanExternalPath() (*Reference, bool) {
	start := s.pos

	s.advance() // '<'

	fileStart := s.pos

	for !s.EOF() && s.peekAt(0) != '>' && s.peekAt(0) != '\n' {
		s.advance()
	}

	if s.EOF() || s.peekAt(0) != '>' || s.pos == fileStart {
		s.Reset(start)

		return nil, false
	}

	ref := &Reference{RefKind: RefExternal, File: s.Text(fileStart, s.pos)}

	s.advance() // '>'

	for s.peekAt(0) == '/' {
		saved := s.pos

		s.advance()

		segStart := s.pos

		tok, ok := s.scanIdentifier()
		if !ok {
			s.Reset(saved)

			break
		}

		ref.Segments = append(ref.Segments, Segment{
			Kind: SegmentName,
			Name: tok.Text,
			Pos:  spanOf(segStart, s.pos),
		})
	}

	ref.Pos = spanOf(start, s.pos)

	return ref, true
}

func (s *Scanner) scanInternalPath() (*Reference, bool) {
	start := s.pos
	ref := &Reference{RefKind: RefInternal}

	switch c0, c1 := s.peekAt(0), s.peekAt(1); {
	case c0 == '.' && c1 == '/':
		ref.Anchor = AnchorCurrent

		s.advanceN(2)
	case c0 == '~' && c1 == '/':
		ref.Anchor = AnchorHome

		s.advanceN(2)
	case c0 == '/':
		ref.Anchor = AnchorRoot

		s.advance()
	}

	seg, ok := s.scanSegment()
	if !ok {
		s.Reset(start)

		return nil, false
	}

	ref.Segments = append(ref.Segments, seg)

	for s.peekAt(0) == '/' {
		saved := s.pos

		s.advance()

		seg, ok := s.scanSegment()
		if !ok {
			s.Reset(saved)

			break
		}

		ref.Segments = append(ref.Segments, seg)
	}

	ref.Pos = spanOf(start, s.pos)

	return ref, true
}

// scanSegment scans one internal path component: '^', '..' or an
// identifier.
func (s *Scanner) scanSegment() (Segment, bool) {
	start := s.pos

	switch {
	case s.peekAt(0) == '^':
		s.advance()

		return Segment{Kind: SegmentAncestor, Pos: spanOf(start, s.pos)}, true

	case s.peekAt(0) == '.' && s.peekAt(1) == '.' && !isIdentPart(s.peekAt(2)):
		s.advanceN(2)

		return Segment{Kind: SegmentParent, Pos: spanOf(start, s.pos)}, true
	}

	tok, ok := s.scanIdentifier()
	if !ok {
		return Segment{}, false
	}

	return Segment{Kind: SegmentName, Name: tok.Text, Pos: tok.Span}, true
}

// ParseReference parses a single reference path such as "&../a/b" or
// "<file.txt>/part". The '&' sigil is optional. The whole string must be
// consumed.
func ParseReference(path string) (*Reference, error) {
	s := NewScanner([]byte(path))

	sigil := s.peekAt(0) == '&'
	if sigil {
		s.advance()
	}

	ref, ok := s.scanPath()
	if !ok || !s.EOF() {
		return nil, ErrInvalidPath.With(
			slog.String("path", path),
			slog.Int("offset", s.Mark().Offset),
		)
	}

	ref.Sigil = sigil
	if sigil {
		ref.Pos.Start = Position{Offset: 0, Line: 1, Column: 1}
	}

	return ref, nil
}

// Names returns the named segments of the path, skipping '..' and '^'.
func (r *Reference) Names() []string {
	names := make([]string, 0, len(r.Segments))

	for _, seg := range r.Segments {
		if seg.Kind == SegmentName {
			names = append(names, seg.Name)
		}
	}

	return names
}

// Relative reports whether an internal path is resolved against the
// location where it appears rather than the document root.
func (r *Reference) Relative() bool {
	if r.RefKind == RefExternal || r.Anchor == AnchorRoot || r.Anchor == AnchorHome {
		return false
	}

	return r.Anchor == AnchorCurrent || len(r.Segments) == 0 ||
		r.Segments[0].Kind != SegmentName || strings.HasPrefix(r.Segments[0].Name, ".")
}
