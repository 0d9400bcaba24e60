package runtime_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomasrohde/smoke/pkg/ast"
	"github.com/thomasrohde/smoke/pkg/config"
	"github.com/thomasrohde/smoke/pkg/diagnostics"
	"github.com/thomasrohde/smoke/pkg/evaluator"
	"github.com/thomasrohde/smoke/pkg/lexer"
	"github.com/thomasrohde/smoke/pkg/parser"
	"github.com/thomasrohde/smoke/pkg/runtime"
)

type recordingLogger struct {
	lines []string
}

func (l *recordingLogger) record(level, format string, args ...interface{}) {
	l.lines = append(l.lines, level+": "+fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Debugf(format string, args ...interface{}) {
	l.record("D", format, args...)
}

func (l *recordingLogger) Infof(format string, args ...interface{}) {
	l.record("I", format, args...)
}

func (l *recordingLogger) Warningf(format string, args ...interface{}) {
	l.record("W", format, args...)
}

func (l *recordingLogger) Errorf(format string, args ...interface{}) {
	l.record("E", format, args...)
}

func run(t *testing.T, rt *runtime.Runtime, source string) evaluator.Value {
	t.Helper()
	v, err := rt.Run(context.Background(), source, ast.ReplSource())
	require.NoError(t, err)
	return v
}

func TestRunReturnsLastValue(t *testing.T) {
	rt := runtime.New()
	assert.Equal(t, evaluator.NewInt(5), run(t, rt, `fn add(a, b) a + b; add(2, 3)`))
}

func TestRunEmptyIsNil(t *testing.T) {
	rt := runtime.New()
	assert.Equal(t, evaluator.NewNil(), run(t, rt, ""))
	assert.Equal(t, evaluator.NewNil(), run(t, rt, ";;"))
}

func TestBindingsPersistAcrossRuns(t *testing.T) {
	rt := runtime.New()
	run(t, rt, `let x = 40`)
	run(t, rt, `fn inc(n) n + 1`)
	assert.Equal(t, evaluator.NewInt(41), run(t, rt, `inc(x) + 0`))

	names := []string{}
	for _, b := range rt.Globals().Bindings {
		names = append(names, b.Name)
	}
	assert.Equal(t, []string{"x", "inc"}, names)
}

func TestFailedRunKeepsEarlierDeclarations(t *testing.T) {
	rt := runtime.New()
	_, err := rt.Run(context.Background(), `let a = 1; { let inner = 2; missing }; let b = 2`, ast.ReplSource())

	var undefined *evaluator.ReferenceUndefinedError
	require.ErrorAs(t, err, &undefined)
	assert.Equal(t, "missing", undefined.Name)

	assert.Equal(t, 1, rt.Env().Depth(), "scopes are balanced after an error")
	_, ok := rt.Env().Lookup("a")
	assert.True(t, ok)
	_, ok = rt.Env().Lookup("inner")
	assert.False(t, ok)
	_, ok = rt.Env().Lookup("b")
	assert.False(t, ok)

	// The session continues.
	assert.Equal(t, evaluator.NewInt(3), run(t, rt, `a + 2`))
}

func TestRunParseError(t *testing.T) {
	rt := runtime.New()
	_, err := rt.Run(context.Background(), `let = 1`, ast.FileSource("bad.smk"))

	var unexpected *parser.UnexpectedTokenError
	require.ErrorAs(t, err, &unexpected)
	assert.Equal(t, "identifier", unexpected.Expected)
	assert.Equal(t, diagnostics.EParse, diagnostics.FromError(err, diagnostics.EInternal).Code)
}

func TestRunLexError(t *testing.T) {
	rt := runtime.New()
	_, err := rt.Run(context.Background(), `1 @ 2`, ast.ReplSource())

	var unrecognized *lexer.UnrecognizedCharacterError
	require.ErrorAs(t, err, &unrecognized)
	assert.Equal(t, '@', unrecognized.Char)
}

func TestRunHonorsCancelledContext(t *testing.T) {
	rt := runtime.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := rt.Run(ctx, `let x = 1`, ast.ReplSource())
	assert.ErrorIs(t, err, context.Canceled)
	_, ok := rt.Env().Lookup("x")
	assert.False(t, ok)
}

func TestMaxDepthOptions(t *testing.T) {
	rt := runtime.New(runtime.WithMaxParseDepth(4))
	_, err := rt.Run(context.Background(), `((((((1))))))`, ast.ReplSource())
	var parseDepth *parser.DepthError
	assert.ErrorAs(t, err, &parseDepth)

	rt = runtime.New(runtime.WithMaxDepth(8))
	_, err = rt.Run(context.Background(), `fn loop(n) loop(n); loop(1)`, ast.ReplSource())
	var evalDepth *evaluator.DepthError
	assert.ErrorAs(t, err, &evalDepth)
	assert.Equal(t, 1, rt.Env().Depth())
}

func TestWithConfig(t *testing.T) {
	cfg := config.Default()
	cfg.MaxDepth = 8
	rt := runtime.New(runtime.WithConfig(cfg))
	_, err := rt.Run(context.Background(), `fn loop(n) loop(n); loop(1)`, ast.ReplSource())
	var evalDepth *evaluator.DepthError
	require.ErrorAs(t, err, &evalDepth)
	assert.Equal(t, 8, evalDepth.Limit)
}

func TestTraceCarriesRunID(t *testing.T) {
	var events []evaluator.TraceEvent
	rt := runtime.New(
		runtime.WithRunID("fixed"),
		runtime.WithTrace(func(e evaluator.TraceEvent) { events = append(events, e) }),
	)
	run(t, rt, `{ 1 }`)

	require.Len(t, events, 2)
	for _, e := range events {
		assert.Equal(t, "fixed", e.RunID)
	}
	assert.Equal(t, "fixed", rt.LastRunID())
}

func TestRunIDsAreFreshPerRun(t *testing.T) {
	rt := runtime.New()
	run(t, rt, `1`)
	first := rt.LastRunID()
	run(t, rt, `2`)
	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, rt.LastRunID())
}

func TestLoggerReceivesDebug(t *testing.T) {
	log := &recordingLogger{}
	rt := runtime.New(runtime.WithLogger(log), runtime.WithRunID("r1"))
	run(t, rt, `1; 2`)
	require.NotEmpty(t, log.lines)
	assert.Contains(t, log.lines[0], "run r1: 2 top-level expression(s)")
}

func TestReset(t *testing.T) {
	rt := runtime.New()
	run(t, rt, `let x = 1`)
	rt.Reset()
	_, err := rt.Run(context.Background(), `x`, ast.ReplSource())
	var undefined *evaluator.ReferenceUndefinedError
	assert.ErrorAs(t, err, &undefined)
}

func TestCheck(t *testing.T) {
	rt := runtime.New()
	diags := rt.Check(`fn f(a, a) a; f(1)`, ast.FileSource("x.smk"))
	codes := []string{}
	for _, d := range diags {
		codes = append(codes, d.Code)
	}
	assert.ElementsMatch(t, []string{diagnostics.EDupParam, diagnostics.EArity}, codes)

	diags = rt.Check(`let = 1`, ast.FileSource("x.smk"))
	require.Len(t, diags, 1)
	assert.Equal(t, diagnostics.EParse, diags[0].Code)
}

func TestCheckSeesGlobals(t *testing.T) {
	rt := runtime.New()
	assert.NotEmpty(t, rt.Check(`x + 1`, ast.ReplSource()))
	run(t, rt, `let x = 1`)
	assert.Empty(t, rt.Check(`x + 1`, ast.ReplSource()))
}

func TestFormat(t *testing.T) {
	rt := runtime.New()
	out, err := rt.Format(`let x=1;x`, ast.FileSource("f.smk"))
	require.NoError(t, err)
	assert.Equal(t, "let x = 1;\nx\n", out)

	_, err = rt.Format(`(`, ast.FileSource("f.smk"))
	assert.Error(t, err)
}

func TestTokens(t *testing.T) {
	rt := runtime.New()
	toks, err := rt.Tokens(`let x = 1`, ast.ReplSource())
	require.NoError(t, err)
	require.Len(t, toks, 4)
	assert.Equal(t, lexer.Let, toks[0].Kind)
	assert.Equal(t, lexer.Integer, toks[3].Kind)
}

func TestDiagnosticError(t *testing.T) {
	assert.NoError(t, runtime.AsError(nil))

	err := runtime.AsError([]diagnostics.Diagnostic{
		diagnostics.MakeDiag(diagnostics.EArity, "one", nil, ""),
		diagnostics.MakeDiag(diagnostics.EUnbound, "two", nil, ""),
	})
	require.Error(t, err)
	assert.Equal(t, "E_ARITY: one; E_UNBOUND: two", err.Error())
	assert.Equal(t, diagnostics.EArity, diagnostics.FromError(err, diagnostics.EInternal).Code)
}
