package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/pkg/errors"

	"github.com/thomasrohde/smoke/pkg/ast"
	"github.com/thomasrohde/smoke/pkg/config"
	"github.com/thomasrohde/smoke/pkg/diagnostics"
	"github.com/thomasrohde/smoke/pkg/evaluator"
	"github.com/thomasrohde/smoke/pkg/parser"
	"github.com/thomasrohde/smoke/pkg/runtime"
)

const replHelp = `Enter Smoke expressions; separate several with ";".
Input continues on the next line while it is incomplete.

  :env     list global bindings
  :reset   discard all bindings
  :help    show this message
  :quit    leave the session
`

// replState evaluates REPL submissions against one persistent runtime.
type replState struct {
	rt      *runtime.Runtime
	out     io.Writer
	errOut  io.Writer
	printer diagnostics.Printer
}

func (s *session) newReplState() *replState {
	printer := s.printer
	printer.Pretty = true
	return &replState{
		rt:      s.newRuntime(),
		out:     s.stdout,
		errOut:  s.stderr,
		printer: printer,
	}
}

// handle processes one submission. It returns false when the session should
// end.
func (r *replState) handle(ctx context.Context, code string) bool {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return true
	}

	if strings.HasPrefix(trimmed, ":") {
		switch strings.ToLower(trimmed) {
		case ":quit", ":q":
			return false
		case ":env":
			for _, b := range r.rt.Globals().Bindings {
				fmt.Fprintf(r.out, "%s = %s\n", b.Name, evaluator.Inspect(b.Value))
			}
		case ":reset":
			r.rt.Reset()
		case ":help":
			fmt.Fprint(r.out, replHelp)
		default:
			fmt.Fprintf(r.out, "unknown command %s. Type :help for a list.\n", trimmed)
		}
		return true
	}

	v, err := r.rt.Run(ctx, code, ast.ReplSource())
	if err != nil {
		fmt.Fprintln(r.errOut, r.printer.Format(diagnostics.FromError(err, diagnostics.EInternal)))
		return true
	}
	fmt.Fprintln(r.out, evaluator.Inspect(v))
	return true
}

// incomplete reports whether src needs more lines before it can be run.
func (r *replState) incomplete(src string) bool {
	if strings.HasPrefix(strings.TrimSpace(src), ":") {
		return false
	}
	_, err := r.rt.Parse(src, ast.ReplSource())
	return parser.IsIncomplete(err)
}

// repl runs an interactive session on the terminal.
func (s *session) repl(ctx context.Context) error {
	state := s.newReplState()

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	histPath := config.ExpandHome(s.cfg.HistoryFile)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if err := os.MkdirAll(filepath.Dir(histPath), 0o755); err != nil {
			s.log.Warningf("cannot create history directory: %s", err)
			return
		}
		f, err := os.Create(histPath)
		if err != nil {
			s.log.Warningf("cannot write history: %s", err)
			return
		}
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}()

	prompt := s.cfg.Prompt
	cont := continuationPrompt(prompt)

	fmt.Fprintln(s.stdout, "Smoke REPL. Type :help for commands, :quit to exit.")
	for {
		code, ok := readSubmission(ln, state, prompt, cont)
		if !ok {
			fmt.Fprintln(s.stdout)
			return nil
		}
		if !state.handle(ctx, code) {
			return nil
		}
		if strings.TrimSpace(code) != "" {
			ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
		}
	}
}

// continuationPrompt returns dots as wide as prompt, keeping its trailing
// spaces.
func continuationPrompt(prompt string) string {
	body := strings.TrimRight(prompt, " ")
	return strings.Repeat(".", len(body)) + prompt[len(body):]
}

// readSubmission reads lines until they form a complete submission. It
// returns false at end of input.
func readSubmission(ln *liner.State, state *replState, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			// Ctrl-C discards the pending input.
			return "", true
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if !state.incomplete(src) {
			return src, true
		}
	}
}
