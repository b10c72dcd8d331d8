package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/ardnew/objecttext/lang"
	"github.com/ardnew/objecttext/log"
)

const defaultEditor = "vi"

// editCommand implements [tea.ExecCommand] for the edit-parse-retry loop.
// It writes the document source to a temp file, opens the user's editor,
// and parses the result. While the result has syntax errors the user is
// asked whether to edit again; declining exits the program.
type editCommand struct {
	doc     *lang.Document
	opts    []lang.Option
	ctxFunc func() context.Context
	logger  log.Logger
	edited  *lang.Document
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

func (c *editCommand) SetStdin(r io.Reader)  { c.stdin = r }
func (c *editCommand) SetStdout(w io.Writer) { c.stdout = w }
func (c *editCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the loop. It returns [ErrEditDeclined] if the user stops
// editing a source with errors, and leaves c.edited nil if the user
// clears the file.
func (c *editCommand) Run() error {
	ctx := c.ctxFunc()

	f, err := os.CreateTemp("", "otx-repl-*.otx")
	if err != nil {
		return err
	}

	tmp := f.Name()

	defer os.Remove(tmp)

	if err := f.Close(); err != nil {
		return err
	}

	content := c.doc.Source()

	for {
		if err := os.WriteFile(tmp, []byte(content), 0o600); err != nil {
			return err
		}

		if err := runEditor(ctx, c.stdin, c.stdout, c.stderr, tmp); err != nil {
			return err
		}

		data, err := os.ReadFile(tmp)
		if err != nil {
			return err
		}

		if strings.TrimSpace(string(data)) == "" {
			return nil
		}

		doc := lang.Parse(ctx, data, c.opts...)
		perr := doc.Err()

		c.logger.TraceContext(ctx, "editor parse attempt",
			slog.Int("bytes", len(data)),
			slog.Bool("success", perr == nil))

		if perr == nil {
			c.edited = doc

			return nil
		}

		fmt.Fprintf(c.stderr, "\n%s\n", perr)
		fmt.Fprint(c.stdout, "Re-edit? [Y/n] ")

		scanner := bufio.NewScanner(c.stdin)
		if !scanner.Scan() {
			return ErrEditDeclined
		}

		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "n", "no":
			return ErrEditDeclined
		}

		content = string(data)
	}
}

// runEditor runs $EDITOR, or vi if unset, on path.
func runEditor(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, path string) error {
	args := strings.Fields(os.Getenv("EDITOR"))
	if len(args) == 0 {
		args = []string{defaultEditor}
	}

	cmd := exec.CommandContext(ctx, args[0], append(args[1:], path)...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	return cmd.Run()
}
