package repl

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/objecttext/lang"
)

// ctrlCommands are the available command-mode commands.
var ctrlCommands = []string{"help", "paths", "show", "diag", "refs", "edit", "clear", "quit"}

// queryFields are the names a query predicate can refer to.
var queryFields = func() []string {
	t := reflect.TypeFor[lang.QueryEnv]()
	names := make([]string, 0, t.NumField())

	for i := range t.NumField() {
		if name := t.Field(i).Tag.Get("expr"); name != "" {
			names = append(names, name)
		}
	}

	return names
}()

// isWordBoundary reports whether r delimits a completion word. Slashes
// and dots belong to key paths, so neither is a boundary.
func isWordBoundary(r rune) bool {
	switch r {
	case ' ', '\t', '"', '\'',
		'(', ')', '[', ']', '{', '}',
		'+', '-', '*', '%',
		'<', '>', '=', '!',
		'&', '|', ',', '?', ':', ';':
		return true
	}

	return false
}

// wordBounds returns the word around cursor and its byte offsets in
// input. The word is empty when the cursor sits on a boundary.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(max(cursor, 0), len(input))

	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// pathCandidates returns every key path of doc, followed by the query
// field names.
func pathCandidates(doc *lang.Document) []string {
	var names []string

	if doc != nil {
		seen := make(map[string]bool)

		for path := range doc.Paths() {
			if !seen[path] {
				seen[path] = true
				names = append(names, path)
			}
		}
	}

	return append(names, queryFields...)
}

// commandWords returns the words completed at the given position of a
// command line: command names first, then key paths as arguments.
func commandWords(input string, wordStart int, paths []string) []string {
	if strings.TrimSpace(input[:wordStart]) == "" {
		return ctrlCommands
	}

	return paths
}

// find ranks candidates against word, best first. A word ending in '/'
// lists the direct children of that path in document order.
func find(word string, candidates []string) fuzzy.Matches {
	if parent, ok := strings.CutSuffix(word, "/"); ok && parent != "" {
		var out fuzzy.Matches

		for i, c := range candidates {
			rest, ok := strings.CutPrefix(c, word)
			if ok && rest != "" && !strings.Contains(rest, "/") {
				idx := make([]int, len(word))
				for j := range idx {
					idx[j] = j
				}

				out = append(out, fuzzy.Match{Str: c, Index: i, MatchedIndexes: idx})
			}
		}

		return out
	}

	return fuzzy.Find(word, candidates)
}

// renderCandidateBar renders matches on one line no wider than width.
// Candidates that do not fit are replaced by an ellipsis.
func renderCandidateBar(matches fuzzy.Matches, selected int, width int) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	ellipsis := hintStyle.Render("...")
	room := width - lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		rendered := renderCandidate(match, i == selected)

		w := lipgloss.Width(rendered)
		if i > 0 {
			w += len(sep)
		}

		if i > 0 && used+w > room && i < len(matches)-1 {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += w
	}

	return b.String()
}

// renderCandidate renders one candidate with its matched characters
// emphasized.
func renderCandidate(match fuzzy.Match, selected bool) string {
	base := suggestionStyle
	if selected {
		base = selectedStyle
	}

	emph := base.Bold(true).Underline(true)

	var b strings.Builder

	for i, r := range match.Str {
		if slices.Contains(match.MatchedIndexes, i) {
			b.WriteString(emph.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}

	return b.String()
}

// preview summarizes a statement on one line.
func preview(stmt lang.Statement) string {
	switch s := stmt.(type) {
	case *lang.Assignment:
		if s.Value == nil {
			return "="
		}

		return "= " + excerpt(s.Value)

	case *lang.Block:
		return fmt.Sprintf("{ %d members }%s", len(s.Members), extensions(s.Extensions))

	case *lang.List:
		return fmt.Sprintf("[ %d elements ]%s", len(s.Elements), extensions(s.Extensions))

	default:
		return lang.NodeKind(stmt)
	}
}

func extensions(exts []*lang.Extension) string {
	if len(exts) == 0 {
		return ""
	}

	names := make([]string, len(exts))
	for i, e := range exts {
		names[i] = e.String()
	}

	return " : " + strings.Join(names, ", ")
}

const maxPreview = 40

func excerpt(n lang.Node) string {
	var b strings.Builder

	if err := lang.FormatNode(&b, n, 0); err != nil {
		return lang.NodeKind(n)
	}

	s := strings.Join(strings.Fields(b.String()), " ")
	if utf8.RuneCountInString(s) > maxPreview {
		s = string([]rune(s)[:maxPreview-3]) + "..."
	}

	return s
}
