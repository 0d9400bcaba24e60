// Package runtime provides the top-level Smoke runtime orchestrator.
package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/thomasrohde/smoke/pkg/ast"
	"github.com/thomasrohde/smoke/pkg/config"
	"github.com/thomasrohde/smoke/pkg/diagnostics"
	"github.com/thomasrohde/smoke/pkg/evaluator"
	"github.com/thomasrohde/smoke/pkg/formatter"
	"github.com/thomasrohde/smoke/pkg/lexer"
	"github.com/thomasrohde/smoke/pkg/parser"
	"github.com/thomasrohde/smoke/pkg/validator"
)

// Logger is the subset of a leveled logger the runtime writes to.
// *logger.Logger from github.com/jcgregorio/logger satisfies it.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{})   {}
func (nopLogger) Infof(string, ...interface{})    {}
func (nopLogger) Warningf(string, ...interface{}) {}
func (nopLogger) Errorf(string, ...interface{})   {}

// Runtime wires together all Smoke components. It owns one long-lived
// Environment, so declarations made by one Run are visible to the next.
// A Runtime must be used from a single goroutine.
type Runtime struct {
	env           *evaluator.Environment
	ev            *evaluator.Evaluator
	log           Logger
	maxDepth      int
	maxParseDepth int
	trace         func(event evaluator.TraceEvent)
	runID         string
	lastRunID     string
}

// Option is a functional option for configuring the Runtime.
type Option func(*Runtime)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l Logger) Option {
	return func(rt *Runtime) {
		if l != nil {
			rt.log = l
		}
	}
}

// WithMaxDepth sets the evaluation depth limit.
func WithMaxDepth(n int) Option {
	return func(rt *Runtime) {
		rt.maxDepth = n
	}
}

// WithMaxParseDepth sets the parser nesting limit.
func WithMaxParseDepth(n int) Option {
	return func(rt *Runtime) {
		rt.maxParseDepth = n
	}
}

// WithConfig applies the limits from cfg.
func WithConfig(cfg *config.Config) Option {
	return func(rt *Runtime) {
		rt.maxDepth = cfg.MaxDepth
		rt.maxParseDepth = cfg.MaxParseDepth
	}
}

// WithRunID sets a fixed run ID for trace events. By default every Run gets
// a fresh random ID.
func WithRunID(id string) Option {
	return func(rt *Runtime) {
		rt.runID = id
	}
}

// WithTrace sets the trace callback.
func WithTrace(fn func(event evaluator.TraceEvent)) Option {
	return func(rt *Runtime) {
		rt.trace = fn
	}
}

// New creates a new Runtime with the given options.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		log:           nopLogger{},
		maxDepth:      evaluator.DefaultMaxDepth,
		maxParseDepth: parser.DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(rt)
	}
	rt.ev = evaluator.New(
		evaluator.WithMaxDepth(rt.maxDepth),
		evaluator.WithTrace(rt.trace),
	)
	rt.env = evaluator.NewEnvironment()
	return rt
}

// Env returns the runtime's environment.
func (rt *Runtime) Env() *evaluator.Environment {
	return rt.env
}

// Globals returns a snapshot of the global bindings.
func (rt *Runtime) Globals() evaluator.ScopeValue {
	return rt.env.Global()
}

// Stats returns the evaluator's work counters.
func (rt *Runtime) Stats() evaluator.Stats {
	return rt.ev.Stats()
}

// LastRunID returns the ID used by the most recent Run.
func (rt *Runtime) LastRunID() string {
	return rt.lastRunID
}

// Reset discards every binding.
func (rt *Runtime) Reset() {
	rt.env = evaluator.NewEnvironment()
	rt.log.Debugf("environment reset")
}

// Tokens tokenizes source.
func (rt *Runtime) Tokens(source string, src ast.Source) ([]lexer.TokenExt, error) {
	return lexer.Tokenize(source, src)
}

// Parse tokenizes and parses source.
func (rt *Runtime) Parse(source string, src ast.Source) (*ast.Program, error) {
	return parser.ParseSource(source, src, parser.WithMaxDepth(rt.maxParseDepth))
}

// Run parses and evaluates source in the runtime's environment and returns
// the value of its last expression. Evaluation stops at the first error;
// declarations made before it are kept. ctx is checked between top-level
// expressions.
func (rt *Runtime) Run(ctx context.Context, source string, src ast.Source) (evaluator.Value, error) {
	program, err := rt.Parse(source, src)
	if err != nil {
		rt.log.Debugf("parse failed for %s: %s", src.Origin, err)
		return nil, err
	}

	rt.lastRunID = rt.runID
	if rt.lastRunID == "" {
		rt.lastRunID = uuid.NewString()
	}
	rt.ev.SetRunID(rt.lastRunID)
	rt.log.Debugf("run %s: %d top-level expression(s) from %s", rt.lastRunID, len(program.Body), src.Origin)

	var result evaluator.Value = evaluator.NewNil()
	for _, expr := range program.Body {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := rt.ev.Evaluate(expr, rt.env)
		if err != nil {
			rt.log.Debugf("run %s failed: %s", rt.lastRunID, err)
			return nil, err
		}
		result = v
	}
	return result, nil
}

// Check parses and validates source without executing it. Names bound in the
// runtime's global scope count as declared.
func (rt *Runtime) Check(source string, src ast.Source) []diagnostics.Diagnostic {
	program, err := rt.Parse(source, src)
	if err != nil {
		return []diagnostics.Diagnostic{diagnostics.FromError(err, diagnostics.EInternal)}
	}

	globals := rt.env.Global().Bindings
	known := make([]string, len(globals))
	for i, b := range globals {
		known[i] = b.Name
	}
	return validator.Validate(program, validator.WithKnownNames(known...))
}

// Format parses and formats source.
func (rt *Runtime) Format(source string, src ast.Source) (string, error) {
	program, err := rt.Parse(source, src)
	if err != nil {
		return "", err
	}
	return formatter.Format(program), nil
}

// DiagnosticError wraps diagnostics as an error.
type DiagnosticError struct {
	Diagnostics []diagnostics.Diagnostic
}

// AsError returns diags as a *DiagnosticError, or nil when there are none.
func AsError(diags []diagnostics.Diagnostic) error {
	if len(diags) == 0 {
		return nil
	}
	return &DiagnosticError{Diagnostics: diags}
}

func (e *DiagnosticError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return strings.Join(msgs, "; ")
}

// Diagnostic returns the first diagnostic.
func (e *DiagnosticError) Diagnostic() diagnostics.Diagnostic {
	return e.Diagnostics[0]
}
