// Command smoke is the Smoke language CLI and REPL.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jcgregorio/logger"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/thomasrohde/smoke/pkg/ast"
	"github.com/thomasrohde/smoke/pkg/config"
	"github.com/thomasrohde/smoke/pkg/diagnostics"
	"github.com/thomasrohde/smoke/pkg/runtime"
)

// flag names
const (
	configFlagName   = "config"
	verboseFlagName  = "verbose"
	colorFlagName    = "color"
	maxDepthFlagName = "max-depth"
	prettyFlagName   = "pretty"
)

func main() {
	os.Exit(run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	s := &session{stdin: stdin, stdout: stdout, stderr: stderr}
	err := s.app().Run(args)
	return s.exitCode(err)
}

// session holds the state shared by every command of one invocation.
type session struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	cfg     *config.Config
	log     *logger.Logger
	printer diagnostics.Printer
}

func (s *session) app() *cli.App {
	return &cli.App{
		Name:      "smoke",
		Usage:     "evaluate Smoke expressions",
		Reader:    s.stdin,
		Writer:    s.stdout,
		ErrWriter: s.stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  configFlagName,
				Usage: "path to a YAML config file",
			},
			&cli.BoolFlag{
				Name:    verboseFlagName,
				Aliases: []string{"v"},
				Usage:   "log debug output to stderr",
			},
			&cli.StringFlag{
				Name:  colorFlagName,
				Usage: "colour diagnostics: auto, always or never",
			},
			&cli.IntFlag{
				Name:  maxDepthFlagName,
				Usage: "evaluation depth limit",
			},
			&cli.BoolFlag{
				Name:  prettyFlagName,
				Usage: "print human-readable diagnostics instead of JSON",
			},
		},
		Before: s.before,
		Action: s.defaultAction,
		Commands: []*cli.Command{
			s.runCommand(),
			s.replCommand(),
			s.checkCommand(),
			s.fmtCommand(),
			s.tokensCommand(),
			s.astCommand(),
			s.traceCommand(),
			s.docCommand(),
		},
		// Exit codes are mapped by run, not by the cli package.
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

func (s *session) before(c *cli.Context) error {
	s.log = logger.NewFromOptions(&logger.Options{
		SyncWriter:   asSyncWriter(s.stderr),
		IncludeDebug: c.Bool(verboseFlagName),
	})
	s.printer = diagnostics.Printer{Pretty: c.Bool(prettyFlagName)}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	cfg, path, err := config.Load(c.String(configFlagName), cwd)
	if err != nil {
		s.report(diagnostics.MakeDiag(diagnostics.EConfig, err.Error(), nil, ""))
		return cli.Exit("", runtime.ExitUsage)
	}
	if c.IsSet(maxDepthFlagName) {
		cfg.MaxDepth = c.Int(maxDepthFlagName)
	}
	if c.IsSet(colorFlagName) {
		cfg.Color = c.String(colorFlagName)
	}
	if err := cfg.Validate(); err != nil {
		s.report(diagnostics.MakeDiag(diagnostics.EConfig, err.Error(), nil, ""))
		return cli.Exit("", runtime.ExitUsage)
	}
	if path != "" {
		s.log.Debugf("config loaded from %s", path)
	}

	s.cfg = cfg
	s.printer.Color = colorEnabled(cfg.Color, s.stderr)
	return nil
}

// defaultAction starts the REPL on a terminal and otherwise runs stdin.
func (s *session) defaultAction(c *cli.Context) error {
	if c.Args().Present() {
		return s.runSource(c, c.Args().First(), false, s.cfg.Trace)
	}
	if isTerminal(s.stdin) {
		return s.repl(c.Context)
	}
	return s.runSource(c, "-", false, s.cfg.Trace)
}

func (s *session) newRuntime(opts ...runtime.Option) *runtime.Runtime {
	base := []runtime.Option{
		runtime.WithConfig(s.cfg),
		runtime.WithLogger(s.log),
	}
	return runtime.New(append(base, opts...)...)
}

// readSource reads a program from path, or from stdin when path is "-".
func (s *session) readSource(path string) (string, ast.Source, error) {
	if path == "-" {
		data, err := io.ReadAll(s.stdin)
		if err != nil {
			return "", ast.Source{}, errors.Wrap(err, "cannot read stdin")
		}
		return string(data), ast.FileSource("<stdin>"), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", ast.Source{}, errors.Wrapf(err, "cannot read file %s", path)
	}
	return string(data), ast.FileSource(path), nil
}

// report prints diagnostics to stderr.
func (s *session) report(diags ...diagnostics.Diagnostic) {
	fmt.Fprintln(s.stderr, s.printer.FormatAll(diags))
}

// fail reports err and returns the matching exit error.
func (s *session) fail(err error) error {
	s.report(diagnostics.FromError(err, diagnostics.EInternal))
	return cli.Exit("", runtime.ExitCode(err))
}

// failIO reports an I/O failure.
func (s *session) failIO(err error) error {
	s.report(ioDiag(err))
	return cli.Exit("", runtime.ExitUsage)
}

func ioDiag(err error) diagnostics.Diagnostic {
	return diagnostics.MakeDiag(diagnostics.EIO, err.Error(), nil, "")
}

func (s *session) exitCode(err error) int {
	if err == nil {
		return runtime.ExitOK
	}
	if msg := err.Error(); msg != "" {
		fmt.Fprintln(s.stderr, msg)
	}
	var coder cli.ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return runtime.ExitUsage
}

// syncWriter adapts a plain io.Writer to logger.SyncWriter.
type syncWriter struct {
	io.Writer
}

func (syncWriter) Sync() error {
	return nil
}

func asSyncWriter(w io.Writer) logger.SyncWriter {
	if sw, ok := w.(logger.SyncWriter); ok {
		return sw
	}
	return syncWriter{w}
}

func isTerminal(v interface{}) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func colorEnabled(mode string, w io.Writer) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	return isTerminal(w)
}
