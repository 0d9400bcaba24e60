package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/hashicorp/go-multierror"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/thomasrohde/smoke/pkg/ast"
	"github.com/thomasrohde/smoke/pkg/evaluator"
	"github.com/thomasrohde/smoke/pkg/help"
	"github.com/thomasrohde/smoke/pkg/runtime"
)

// flag names
const (
	jsonFlagName  = "json"
	traceFlagName = "trace"
	writeFlagName = "write"
	dumpFlagName  = "dump"
	textFlagName  = "text"
	indexFlagName = "index"
)

func (s *session) runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "evaluate a program and print its value",
		ArgsUsage: "<file|->",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  jsonFlagName,
				Usage: "print the value as JSON",
			},
			&cli.BoolFlag{
				Name:  traceFlagName,
				Usage: "write trace events to stderr as JSON lines",
			},
		},
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				path = "-"
			}
			return s.runSource(c, path, c.Bool(jsonFlagName), c.Bool(traceFlagName) || s.cfg.Trace)
		},
	}
}

func (s *session) runSource(c *cli.Context, path string, asJSON, trace bool) error {
	source, src, err := s.readSource(path)
	if err != nil {
		return s.failIO(err)
	}

	var opts []runtime.Option
	if trace {
		enc := json.NewEncoder(s.stderr)
		opts = append(opts, runtime.WithTrace(func(event evaluator.TraceEvent) {
			_ = enc.Encode(event)
		}))
	}
	rt := s.newRuntime(opts...)

	value, err := rt.Run(c.Context, source, src)
	if err != nil {
		return s.fail(err)
	}
	stats := rt.Stats()
	s.log.Debugf("run %s: %d evaluations, %d calls, peak depth %d", rt.LastRunID(), stats.Evaluations, stats.Calls, stats.PeakDepth)

	if asJSON {
		out, err := evaluator.ValueToJSON(value)
		if err != nil {
			return s.fail(errors.Wrap(err, "error serializing result"))
		}
		fmt.Fprintln(s.stdout, string(out))
		return nil
	}
	fmt.Fprintln(s.stdout, evaluator.Inspect(value))
	return nil
}

func (s *session) replCommand() *cli.Command {
	return &cli.Command{
		Name:  "repl",
		Usage: "start an interactive session",
		Action: func(c *cli.Context) error {
			return s.repl(c.Context)
		},
	}
}

func (s *session) checkCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "parse and statically check programs without running them",
		ArgsUsage: "<files...>",
		Action: func(c *cli.Context) error {
			if !c.Args().Present() {
				return cli.Exit("usage: smoke check <files...>", runtime.ExitUsage)
			}
			return s.check(c.Args().Slice())
		},
	}
}

func (s *session) check(paths []string) error {
	var result *multierror.Error
	code := runtime.ExitOK
	for _, path := range paths {
		source, src, err := s.readSource(path)
		if err != nil {
			s.report(ioDiag(err))
			result = multierror.Append(result, err)
			code = runtime.ExitUsage
			continue
		}

		diags := s.newRuntime().Check(source, src)
		if len(diags) > 0 {
			s.report(diags...)
			result = multierror.Append(result, errors.Wrap(runtime.AsError(diags), path))
			if code == runtime.ExitOK {
				code = runtime.ExitCheck
			}
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		s.log.Debugf("check failed: %s", err)
		if s.printer.Pretty {
			fmt.Fprintln(s.stderr, err)
		}
		return cli.Exit("", code)
	}

	if s.printer.Pretty {
		fmt.Fprintln(s.stdout, "No errors found.")
	} else {
		fmt.Fprintln(s.stdout, "[]")
	}
	return nil
}

func (s *session) fmtCommand() *cli.Command {
	return &cli.Command{
		Name:      "fmt",
		Usage:     "print a program in canonical form",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  writeFlagName,
				Usage: "rewrite the file in place",
			},
		},
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				return cli.Exit("usage: smoke fmt <file> [--write]", runtime.ExitUsage)
			}
			source, src, err := s.readSource(path)
			if err != nil {
				return s.failIO(err)
			}

			formatted, err := s.newRuntime().Format(source, src)
			if err != nil {
				return s.fail(err)
			}

			if c.Bool(writeFlagName) {
				if err := os.WriteFile(path, []byte(formatted), 0644); err != nil {
					return s.failIO(errors.Wrapf(err, "error writing file %s", path))
				}
				return nil
			}
			// Format already ends with a newline.
			fmt.Fprint(s.stdout, formatted)
			return nil
		},
	}
}

func (s *session) tokensCommand() *cli.Command {
	return &cli.Command{
		Name:      "tokens",
		Usage:     "print the token stream of a program",
		ArgsUsage: "<file|->",
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				path = "-"
			}
			source, src, err := s.readSource(path)
			if err != nil {
				return s.failIO(err)
			}
			tokens, err := s.newRuntime().Tokens(source, src)
			if err != nil {
				return s.fail(err)
			}

			table := tablewriter.NewWriter(s.stdout)
			table.SetHeader([]string{"Span", "Kind", "Token", "Lexeme"})
			table.SetAutoWrapText(false)
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			for _, tok := range tokens {
				table.Append([]string{
					tok.Lexeme.Span.String(),
					tok.Kind.String(),
					tok.Token.String(),
					tok.Lexeme.Content,
				})
			}
			table.Render()
			return nil
		},
	}
}

func (s *session) astCommand() *cli.Command {
	return &cli.Command{
		Name:      "ast",
		Usage:     "print the syntax tree of a program",
		ArgsUsage: "<file|->",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  dumpFlagName,
				Usage: "dump the raw node structures",
			},
		},
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				path = "-"
			}
			source, src, err := s.readSource(path)
			if err != nil {
				return s.failIO(err)
			}
			program, err := s.newRuntime().Parse(source, src)
			if err != nil {
				return s.fail(err)
			}

			if c.Bool(dumpFlagName) {
				cfg := spew.ConfigState{
					Indent:                  "  ",
					DisablePointerAddresses: true,
					DisableCapacities:       true,
				}
				cfg.Fdump(s.stdout, program)
				return nil
			}
			lines := make([]string, len(program.Body))
			for i, e := range program.Body {
				lines[i] = ast.Describe(e)
			}
			if len(lines) > 0 {
				fmt.Fprintln(s.stdout, strings.Join(lines, "\n"))
			}
			return nil
		},
	}
}

func (s *session) traceCommand() *cli.Command {
	return &cli.Command{
		Name:      "trace",
		Usage:     "summarize a trace written by `smoke run --trace`",
		ArgsUsage: "<file.jsonl>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  textFlagName,
				Usage: "print a text summary instead of JSON",
			},
		},
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				return cli.Exit("usage: smoke trace <file.jsonl> [--text]", runtime.ExitUsage)
			}
			f, err := os.Open(path)
			if err != nil {
				return s.failIO(errors.Wrapf(err, "cannot read file %s", path))
			}
			defer f.Close()

			summary := computeTraceSummary(f)
			if c.Bool(textFlagName) {
				printTraceSummaryText(s.stdout, summary)
				return nil
			}
			b, _ := json.Marshal(summary)
			fmt.Fprintln(s.stdout, string(b))
			return nil
		},
	}
}

func (s *session) docCommand() *cli.Command {
	return &cli.Command{
		Name:      "doc",
		Usage:     "show the language guide",
		ArgsUsage: "[topic]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  indexFlagName,
				Usage: "print the operator precedence table (syntax topic only)",
			},
		},
		Action: func(c *cli.Context) error {
			topic := c.Args().First()
			if c.Bool(indexFlagName) {
				if name, _, err := help.MatchTopic(topic); err != nil || name != "syntax" {
					return cli.Exit("error: --index is only supported for the syntax topic", runtime.ExitUsage)
				}
				fmt.Fprint(s.stdout, help.OperatorIndex())
				return nil
			}

			if topic == "" {
				fmt.Fprint(s.stdout, help.QUICKREF)
				return nil
			}
			_, content, err := help.MatchTopic(topic)
			if err != nil {
				return cli.Exit(fmt.Sprintf("%s\nAvailable topics: %s", err, strings.Join(help.TopicList, ", ")), runtime.ExitUsage)
			}
			fmt.Fprint(s.stdout, content)
			return nil
		},
	}
}
