package repl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/objecttext/lang"
	"github.com/ardnew/objecttext/log"
)

// editedMsg is sent when editing produced a document without errors.
type editedMsg struct{ doc *lang.Document }

// editCancelledMsg is sent when the user cleared the editor content.
type editCancelledMsg struct{}

// editDeclinedMsg is sent when the user declined to re-edit after a parse
// error.
type editDeclinedMsg struct{}

// editErrorMsg is sent when the edit process fails for any other reason.
type editErrorMsg struct{ err error }

const (
	queryPrompt = "➜ "
	ctrlPrompt  = " :"
)

const helpText = `
: Commands (press Esc to toggle mode):

  help          Print this text
  paths [path]  List key paths, optionally only those under path
  show path     Print the statement at path
  diag          List diagnostics
  refs          List references and extension paths
  edit          Edit the source in $EDITOR and reparse it
  clear         Clear screen
  quit          Exit

Usage:
  Type a key path to print its statement, or a predicate to list the
  nodes it matches (fields: kind, key, path, text, value, number, unit,
  depth, line, column, extensions)
  Press Tab / Shift-Tab to cycle through completions
  Type '/' after a path to list its children
  Use Up/Down for history, Shift+Up/Shift+Down within the current mode
  Press Ctrl+C on an empty line or Ctrl+D to exit
`

// inputMode is the interpretation of entered lines.
type inputMode int

const (
	modeQuery inputMode = iota
	modeCtrl
)

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	warnStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	selectedStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
)

func echo(mode inputMode, input string) string {
	if mode == modeCtrl {
		return ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(input)
	}

	return promptStyle.Render(queryPrompt) + inputStyle.Render(input)
}

// Config configures an explorer session.
type Config struct {
	// CacheDir holds the history file. History is not persisted if empty.
	CacheDir string
	Logger   log.Logger
	// ParseOptions are used to reparse the source after editing.
	ParseOptions []lang.Option
	// ProgramOptions are passed to the Bubble Tea program.
	ProgramOptions []tea.ProgramOption
}

// savedInput is the input line of the inactive mode.
type savedInput struct {
	text   string
	cursor int
}

// model is the Bubble Tea model of the explorer.
type model struct {
	ctxFunc      func() context.Context
	input        textinput.Model
	doc          *lang.Document
	opts         []lang.Option
	logger       log.Logger
	history      *History
	historyIdx   int
	paths        []string      // completion candidates of doc
	matches      fuzzy.Matches // ranked completions of the current word
	wordStart    int
	wordEnd      int
	suggIdx      int // selected completion, -1 if none
	tabActive    bool
	preTabText   string
	preTabCursor int
	width        int
	quitting     bool
	mode         inputMode
	saved        [2]savedInput // indexed by inputMode
}

// Run explores doc interactively until the user quits or ctx is done.
func Run(ctx context.Context, doc *lang.Document, cfg Config) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	if doc == nil {
		return ErrNoSource
	}

	cfg.Logger.TraceContext(ctx, "repl start",
		slog.String("file", doc.Filename()),
		slog.String("cache_dir", cfg.CacheDir),
		slog.Int("statements", len(doc.Statements)))

	var history *History
	if cfg.CacheDir != "" {
		history = NewHistory(filepath.Join(cfg.CacheDir, baseHistory))
	} else {
		history = NewHistory("")
	}

	if err := history.Load(); err != nil {
		cfg.Logger.WarnContext(ctx, "could not load history", slog.Any("error", err))
	}

	m := newModel(ctx, doc, history, cfg)

	opts := append([]tea.ProgramOption{tea.WithContext(ctx)}, cfg.ProgramOptions...)

	_, err = tea.NewProgram(m, opts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}

	return err
}

const defaultWidth = 80

func newModel(ctx context.Context, doc *lang.Document, history *History, cfg Config) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(queryPrompt)
	ti.Focus()
	ti.CharLimit = 1024
	ti.Width = defaultWidth

	return model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		doc:        doc,
		opts:       cfg.ParseOptions,
		logger:     cfg.Logger,
		history:    history,
		historyIdx: history.Len(),
		paths:      pathCandidates(doc),
		suggIdx:    -1,
		width:      defaultWidth,
		mode:       modeQuery,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(queryPrompt) - 2

		return m, nil

	case editedMsg:
		m.doc = msg.doc
		m.paths = pathCandidates(msg.doc)
		m.logger.TraceContext(m.ctxFunc(), "repl edit complete",
			slog.Int("statements", len(msg.doc.Statements)))

		return m, tea.Println(resultStyle.Render("source updated"))

	case editCancelledMsg:
		return m, tea.Println(hintStyle.Render("edit cancelled"))

	case editDeclinedMsg:
		m.quitting = true

		return m, tea.Quit

	case editErrorMsg:
		return m, tea.Println(errorStyle.Render("error: " + msg.err.Error()))
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")

	switch {
	case m.historyIdx < m.history.Len():
		hint := fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx+1)),
			m.history.Len())
		b.WriteString(hintStyle.Render(hint))

	case strings.TrimSpace(m.input.Value()) == "":
		hint := "Type a key path or predicate, or press Esc for commands"
		if m.mode == modeCtrl {
			hint = "Type: " + strings.Join(ctrlCommands, ", ") + " (press Esc to return)"
		}

		b.WriteString(hintStyle.Render(hint))

	default:
		b.WriteString(renderCandidateBar(m.matches, m.selected(), m.width))
	}

	b.WriteString("\n")

	return b.String()
}

// selected returns the highlighted completion, or -1 if none is.
func (m model) selected() int {
	if m.tabActive {
		return m.suggIdx
	}

	return -1
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(m.ctxFunc(), "repl keypress", slog.String("key", msg.String()))

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.tabActive = false
		m.historyIdx = m.history.Len()
		m.refresh()

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		if m.tabActive && len(m.matches) > 0 {
			// Accept the selected completion without executing.
			m.tabActive = false
			m.refresh()

			return m, nil
		}

		return m.execute()

	case tea.KeyTab:
		return m.cycle(1), nil

	case tea.KeyShiftTab:
		return m.cycle(-1), nil

	case tea.KeyUp:
		return m.recall(-1, false), nil

	case tea.KeyDown:
		return m.recall(1, false), nil

	case tea.KeyShiftUp:
		return m.recall(-1, true), nil

	case tea.KeyShiftDown:
		return m.recall(1, true), nil

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabCursor)
			m.refresh()

			return m, nil
		}

		return m.switchMode(1 - m.mode), nil
	}

	var cmd tea.Cmd

	m.tabActive = false
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	m.refresh()

	return m, cmd
}

// cycle moves the completion selection by step, wrapping at either end.
// A single completion is accepted immediately.
func (m model) cycle(step int) model {
	switch len(m.matches) {
	case 0:
		return m

	case 1:
		m.replaceWord(m.matches[0].Str)
		m.tabActive = false
		m.matches = nil

		return m
	}

	if m.tabActive {
		m.suggIdx = (m.suggIdx + step + len(m.matches)) % len(m.matches)
	} else {
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()
		m.suggIdx = 0

		if step < 0 {
			m.suggIdx = len(m.matches) - 1
		}
	}

	m.replaceWord(m.matches[m.suggIdx].Str)

	return m
}

// replaceWord replaces the current completion word with s.
func (m *model) replaceWord(s string) {
	input := m.input.Value()

	m.input.SetValue(input[:m.wordStart] + s + input[m.wordEnd:])
	m.input.SetCursor(m.wordStart + len(s))
	m.wordEnd = m.wordStart + len(s)
}

// refresh recomputes the completions of the word at the cursor.
func (m *model) refresh() {
	input := m.input.Value()

	word, start, end := wordBounds(input, m.input.Position())
	m.wordStart, m.wordEnd = start, end

	if !m.tabActive {
		m.suggIdx = -1
	}

	if word == "" {
		m.matches = nil

		return
	}

	candidates := m.paths
	if m.mode == modeCtrl {
		candidates = commandWords(input, start, m.paths)
	}

	m.matches = find(word, candidates)
}

// recall steps through history. Entries of the other mode switch modes
// unless sameMode is set, in which case they are skipped.
func (m model) recall(step int, sameMode bool) model {
	for i := m.historyIdx + step; i >= 0 && i < m.history.Len(); i += step {
		entry, err := m.history.Entry(i)
		if err != nil {
			break
		}

		if sameMode && entry.Mode != m.mode {
			continue
		}

		if entry.Mode != m.mode {
			m = m.switchMode(entry.Mode)
		}

		m.historyIdx = i
		m.input.SetValue(entry.Line)
		m.input.SetCursor(len(entry.Line))
		m.refresh()

		return m
	}

	if step > 0 && m.historyIdx < m.history.Len() {
		m.historyIdx = m.history.Len()
		m.input.SetValue("")
		m.refresh()
	}

	return m
}

// switchMode activates mode, keeping the input line of each mode.
func (m model) switchMode(mode inputMode) model {
	if mode == m.mode {
		return m
	}

	m.saved[m.mode] = savedInput{text: m.input.Value(), cursor: m.input.Position()}
	m.mode = mode

	if mode == modeCtrl {
		m.input.Prompt = ctrlPromptStyle.Render(ctrlPrompt)
	} else {
		m.input.Prompt = promptStyle.Render(queryPrompt)
	}

	m.input.SetValue(m.saved[mode].text)
	m.input.SetCursor(m.saved[mode].cursor)
	m.tabActive = false
	m.refresh()

	return m
}

func (m model) execute() (model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" {
		return m, nil
	}

	m.saved = [2]savedInput{}
	m.input.SetValue("")
	m.matches = nil

	if err := m.history.Add(input, m.mode); err != nil {
		m.logger.WarnContext(m.ctxFunc(), "could not save history", slog.Any("error", err))
	}

	m.historyIdx = m.history.Len()

	m.logger.TraceContext(m.ctxFunc(), "repl input",
		slog.String("input", input),
		slog.Int("mode", int(m.mode)))

	echoCmd := tea.Println(echo(m.mode, input))

	if m.mode == modeCtrl {
		return m.command(input, echoCmd)
	}

	out, err := m.evaluate(input)
	if err != nil {
		return m, tea.Sequence(echoCmd, tea.Println(errorStyle.Render("error: "+err.Error())))
	}

	return m, tea.Sequence(echoCmd, tea.Println(out))
}

// evaluate prints the statement at key path input, or, if there is none,
// the nodes matched by input as a query predicate.
func (m model) evaluate(input string) (string, error) {
	if stmt, err := m.doc.Lookup(input); err == nil {
		return show(stmt)
	}

	q, err := lang.CompileQuery(input)
	if err != nil {
		return "", err
	}

	matches, err := m.doc.Select(m.ctxFunc(), q)
	if err != nil {
		return "", err
	}

	if len(matches) == 0 {
		return hintStyle.Render("no matches"), nil
	}

	var b strings.Builder

	for i, c := range matches {
		if i > 0 {
			b.WriteString("\n")
		}

		fmt.Fprintf(&b, "%s %s", hintStyle.Render(c.Node.Span().Start.String()), lang.NodeKind(c.Node))

		if c.Path != "" {
			fmt.Fprintf(&b, " %s", resultStyle.Render(c.Path))
		}

		fmt.Fprintf(&b, " %s", hintStyle.Render(excerpt(c.Node)))
	}

	return b.String(), nil
}

func (m model) command(input string, echoCmd tea.Cmd) (model, tea.Cmd) {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	reply := func(s string) (model, tea.Cmd) {
		return m, tea.Sequence(echoCmd, tea.Println(s))
	}

	switch name {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Sequence(echoCmd, tea.Quit)

	case "h", "help":
		return reply(helpText)

	case "p", "paths":
		return reply(m.listPaths(arg))

	case "s", "show":
		stmt, err := m.doc.Lookup(arg)
		if err != nil {
			return reply(errorStyle.Render("error: " + err.Error()))
		}

		out, err := show(stmt)
		if err != nil {
			return reply(errorStyle.Render("error: " + err.Error()))
		}

		return reply(out)

	case "d", "diag":
		return reply(m.listDiagnostics())

	case "r", "refs":
		return reply(m.listReferences())

	case "c", "clear":
		return m, tea.ClearScreen

	case "e", "edit":
		return m, tea.Sequence(echoCmd, m.edit())

	default:
		return m, tea.Println(errorStyle.Render("unknown command: " + name + " (try 'help')"))
	}
}

func (m model) edit() tea.Cmd {
	cmd := &editCommand{
		doc:     m.doc,
		opts:    m.opts,
		ctxFunc: m.ctxFunc,
		logger:  m.logger,
	}

	return tea.Exec(cmd, func(err error) tea.Msg {
		switch {
		case errors.Is(err, ErrEditDeclined):
			return editDeclinedMsg{}

		case err != nil:
			return editErrorMsg{err: err}

		case cmd.edited == nil:
			return editCancelledMsg{}

		default:
			return editedMsg{doc: cmd.edited}
		}
	})
}

// show formats stmt in canonical syntax.
func show(stmt lang.Statement) (string, error) {
	var b strings.Builder

	if err := lang.FormatNode(&b, stmt, 2); err != nil {
		return "", err
	}

	return resultStyle.Render(strings.TrimRight(b.String(), "\n")), nil
}

// listPaths lists every key path at or below prefix.
func (m model) listPaths(prefix string) string {
	prefix = strings.Trim(prefix, "/")

	var b strings.Builder

	for path, stmt := range m.doc.Paths() {
		if prefix != "" && path != prefix && !strings.HasPrefix(path, prefix+"/") {
			continue
		}

		fmt.Fprintf(&b, "  %s %s\n", path, hintStyle.Render(preview(stmt)))
	}

	if b.Len() == 0 {
		return hintStyle.Render("no paths")
	}

	return strings.TrimRight(b.String(), "\n")
}

func (m model) listDiagnostics() string {
	if len(m.doc.Diagnostics) == 0 {
		return resultStyle.Render("no diagnostics")
	}

	pe := lang.NewParseError(m.doc.Diagnostics, m.doc.Source(), m.doc.Filename())

	var b strings.Builder

	for i, d := range m.doc.Diagnostics {
		if i > 0 {
			b.WriteString("\n")
		}

		style := errorStyle
		if d.Severity != lang.SeverityError {
			style = warnStyle
		}

		fmt.Fprintf(&b, "%s: %s", d.Span.Start, style.Render(d.Severity.String()+": "+d.Message))

		if snippet := pe.Snippet(d); snippet != "" {
			b.WriteString("\n" + hintStyle.Render(snippet))
		}
	}

	return b.String()
}

func (m model) listReferences() string {
	var b strings.Builder

	for c, ref := range m.doc.References() {
		kind := ref.RefKind.String()
		if _, ok := c.Parent.(*lang.Extension); ok {
			kind += " extension"
		}

		fmt.Fprintf(&b, "  %s %s %s", hintStyle.Render(ref.Pos.Start.String()), kind, resultStyle.Render(ref.Path()))

		if c.Path != "" {
			fmt.Fprintf(&b, " %s", hintStyle.Render("in "+c.Path))
		}

		b.WriteString("\n")
	}

	if b.Len() == 0 {
		return hintStyle.Render("no references")
	}

	return strings.TrimRight(b.String(), "\n")
}
