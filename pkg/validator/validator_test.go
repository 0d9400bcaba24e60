package validator_test

import (
	"strings"
	"testing"

	"github.com/thomasrohde/smoke/pkg/ast"
	"github.com/thomasrohde/smoke/pkg/diagnostics"
	"github.com/thomasrohde/smoke/pkg/parser"
	"github.com/thomasrohde/smoke/pkg/validator"
)

// helper parses source and validates, returning diagnostics from validation only.
// It fatals on parse errors so test cases focus on validator behavior.
func mustParseAndValidate(t *testing.T, source string, opts ...validator.Option) []diagnostics.Diagnostic {
	t.Helper()
	prog, err := parser.ParseSource(source, ast.FileSource("test.smk"))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return validator.Validate(prog, opts...)
}

// assertNoDiags asserts zero diagnostics were produced.
func assertNoDiags(t *testing.T, diags []diagnostics.Diagnostic) {
	t.Helper()
	if len(diags) != 0 {
		t.Errorf("expected no diagnostics, got %d:\n  %s", len(diags), describe(diags))
	}
}

// assertDiagCount asserts the expected number of diagnostics.
func assertDiagCount(t *testing.T, diags []diagnostics.Diagnostic, expected int) {
	t.Helper()
	if len(diags) != expected {
		t.Errorf("expected %d diagnostics, got %d:\n  %s", expected, len(diags), describe(diags))
	}
}

// assertHasCode asserts that at least one diagnostic with the given code exists.
func assertHasCode(t *testing.T, diags []diagnostics.Diagnostic, code string) {
	t.Helper()
	for _, d := range diags {
		if d.Code == code {
			return
		}
	}
	var codes []string
	for _, d := range diags {
		codes = append(codes, d.Code)
	}
	t.Errorf("expected diagnostic code %s, got codes: %v", code, codes)
}

func describe(diags []diagnostics.Diagnostic) string {
	var msgs []string
	for _, d := range diags {
		msgs = append(msgs, d.Code+": "+d.Message)
	}
	return strings.Join(msgs, "\n  ")
}

// --- Valid programs ---

func TestValidProgram(t *testing.T) {
	diags := mustParseAndValidate(t, `
let x = 1;
fn add(a, b) { a + b };
add(x, 2.5)
`)
	assertNoDiags(t, diags)
}

func TestValidEmptyProgram(t *testing.T) {
	assertNoDiags(t, mustParseAndValidate(t, ""))
}

func TestValidEqualityOfMixedLiterals(t *testing.T) {
	assertNoDiags(t, mustParseAndValidate(t, `1 == "a"; nil != true`))
}

func TestValidFloatDivisionByZero(t *testing.T) {
	assertNoDiags(t, mustParseAndValidate(t, `1.0 / 0; 1 / 0.0`))
}

func TestValidDynamicReference(t *testing.T) {
	// y is bound by the caller, not lexically.
	diags := mustParseAndValidate(t, `fn show() { y }; fn outer(y) { show() }; outer(1)`)
	assertNoDiags(t, diags)
}

// --- Duplicate parameters ---

func TestDuplicateParam(t *testing.T) {
	diags := mustParseAndValidate(t, `fn f(a, a) { a }`)
	assertDiagCount(t, diags, 1)
	assertHasCode(t, diags, diagnostics.EDupParam)
	if diags[0].Span == nil || diags[0].Span.StartLine != 1 {
		t.Errorf("expected span on line 1, got %v", diags[0].Span)
	}
}

func TestDuplicateParamEachRepeat(t *testing.T) {
	diags := mustParseAndValidate(t, `fn f(a, b, a, a) { b }`)
	assertDiagCount(t, diags, 2)
}

func TestDuplicateParamNested(t *testing.T) {
	diags := mustParseAndValidate(t, `fn outer() { fn inner(x, x) { x } }`)
	assertDiagCount(t, diags, 1)
	assertHasCode(t, diags, diagnostics.EDupParam)
}

// --- Arity ---

func TestArityTooMany(t *testing.T) {
	diags := mustParseAndValidate(t, `fn f(a) { a }; f(1, 2)`)
	assertDiagCount(t, diags, 1)
	assertHasCode(t, diags, diagnostics.EArity)
	if !strings.Contains(diags[0].Message, "takes 1 argument(s) but is called with 2") {
		t.Errorf("unexpected message: %s", diags[0].Message)
	}
}

func TestArityTooFew(t *testing.T) {
	diags := mustParseAndValidate(t, `fn f(a, b) { a }; { f(1) }`)
	assertDiagCount(t, diags, 1)
	assertHasCode(t, diags, diagnostics.EArity)
}

func TestArityInsideBody(t *testing.T) {
	diags := mustParseAndValidate(t, `fn f(a) { a }; fn g() { f() }`)
	assertHasCode(t, diags, diagnostics.EArity)
}

func TestAritySkippedWhenRebound(t *testing.T) {
	diags := mustParseAndValidate(t, `fn f(a) { a }; fn g(a, b) { a }; let f = g; f(1, 2)`)
	assertNoDiags(t, diags)
}

func TestAritySkippedWhenShadowedByParam(t *testing.T) {
	diags := mustParseAndValidate(t, `fn f(a) { a }; fn call(f) { f(1, 2) }`)
	assertNoDiags(t, diags)
}

func TestAritySkippedForKnownNames(t *testing.T) {
	diags := mustParseAndValidate(t, `fn f(a) { a }; f(1, 2)`, validator.WithKnownNames("f"))
	assertNoDiags(t, diags)
}

// --- Unbound references ---

func TestUnboundReference(t *testing.T) {
	diags := mustParseAndValidate(t, `x + 1`)
	assertDiagCount(t, diags, 1)
	assertHasCode(t, diags, diagnostics.EUnbound)
	if diags[0].Hint == "" {
		t.Error("expected a hint")
	}
}

func TestUnboundInsideFunctionBody(t *testing.T) {
	diags := mustParseAndValidate(t, `fn f() { missing }`)
	assertHasCode(t, diags, diagnostics.EUnbound)
}

func TestKnownNamesAreBound(t *testing.T) {
	diags := mustParseAndValidate(t, `x + 1`, validator.WithKnownNames("x"))
	assertNoDiags(t, diags)
}

func TestDeclaredLaterIsBound(t *testing.T) {
	// Declaration order is a run-time concern; the name exists somewhere.
	assertNoDiags(t, mustParseAndValidate(t, `fn f() { later }; let later = 1`))
}

// --- Literal operand types ---

func TestLiteralTypeErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		code   string
	}{
		{"string operand", `1 + "a"`, diagnostics.EType},
		{"nil operand", `nil * 2`, diagnostics.EType},
		{"bool comparison", `true < 1`, diagnostics.EType},
		{"not on integer", `!1`, diagnostics.EType},
		{"negate string", `-"s"`, diagnostics.EType},
		{"call literal", `1(2)`, diagnostics.EType},
		{"integer division by zero", `4 / 0`, diagnostics.EDivZero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := mustParseAndValidate(t, tt.source)
			assertDiagCount(t, diags, 1)
			assertHasCode(t, diags, tt.code)
		})
	}
}

func TestLeftOperandReportedFirst(t *testing.T) {
	diags := mustParseAndValidate(t, `"a" - nil`)
	assertDiagCount(t, diags, 1)
	if !strings.Contains(diags[0].Message, "found String") {
		t.Errorf("expected left operand to be reported, got %s", diags[0].Message)
	}
}

func TestMultipleDiagnosticsCollected(t *testing.T) {
	diags := mustParseAndValidate(t, `fn f(a, a) { a }; f(); y`)
	assertDiagCount(t, diags, 3)
	assertHasCode(t, diags, diagnostics.EDupParam)
	assertHasCode(t, diags, diagnostics.EArity)
	assertHasCode(t, diags, diagnostics.EUnbound)
}
