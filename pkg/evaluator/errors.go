package evaluator

import (
	"fmt"

	"github.com/thomasrohde/smoke/pkg/ast"
	"github.com/thomasrohde/smoke/pkg/diagnostics"
)

func spanPtr(s ast.Span) *ast.Span {
	return &s
}

// TypeError reports an operand or callee of the wrong kind.
type TypeError struct {
	Expected string
	Found    string
	Span     ast.Span
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("expected value of type %s but found %s", e.Expected, e.Found)
}

// Diagnostic implements diagnostics.Diagnoser.
func (e *TypeError) Diagnostic() diagnostics.Diagnostic {
	return diagnostics.MakeDiag(diagnostics.EType, e.Error(), spanPtr(e.Span), "")
}

// ReferenceUndefinedError reports a name no enclosing scope binds.
type ReferenceUndefinedError struct {
	Name string
	Span ast.Span
}

func (e *ReferenceUndefinedError) Error() string {
	return fmt.Sprintf("reference by name %s was not in scope", e.Name)
}

// Diagnostic implements diagnostics.Diagnoser.
func (e *ReferenceUndefinedError) Diagnostic() diagnostics.Diagnostic {
	return diagnostics.MakeDiag(diagnostics.EUnbound, e.Error(), spanPtr(e.Span),
		fmt.Sprintf("declare it first with `let %s = ...`", e.Name))
}

// ArityError reports a call whose argument count differs from the
// function's parameter count.
type ArityError struct {
	Name     string
	Expected int
	Found    int
	Span     ast.Span
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("function %s takes %d argument(s) but was called with %d", e.Name, e.Expected, e.Found)
}

// Diagnostic implements diagnostics.Diagnoser.
func (e *ArityError) Diagnostic() diagnostics.Diagnostic {
	return diagnostics.MakeDiag(diagnostics.EArity, e.Error(), spanPtr(e.Span), "")
}

// DivisionByZeroError reports integer division by zero.
type DivisionByZeroError struct {
	Span ast.Span
}

func (e *DivisionByZeroError) Error() string {
	return "integer division by zero"
}

// Diagnostic implements diagnostics.Diagnoser.
func (e *DivisionByZeroError) Diagnostic() diagnostics.Diagnostic {
	return diagnostics.MakeDiag(diagnostics.EDivZero, e.Error(), spanPtr(e.Span),
		"divide floats instead to get an infinity")
}

// DepthError reports evaluation nested deeper than the configured limit,
// usually runaway recursion.
type DepthError struct {
	Limit int
	Span  ast.Span
}

func (e *DepthError) Error() string {
	return fmt.Sprintf("evaluation depth exceeds %d", e.Limit)
}

// Diagnostic implements diagnostics.Diagnoser.
func (e *DepthError) Diagnostic() diagnostics.Diagnostic {
	return diagnostics.MakeDiag(diagnostics.EDepth, e.Error(), spanPtr(e.Span), "check for unbounded recursion")
}

// InternalError marks an evaluator state that should be unreachable.
type InternalError struct {
	Message string
}

func (e *InternalError) Error() string {
	return "internal evaluator error: " + e.Message
}

// Diagnostic implements diagnostics.Diagnoser.
func (e *InternalError) Diagnostic() diagnostics.Diagnostic {
	return diagnostics.MakeDiag(diagnostics.EInternal, e.Message, nil, "this is a bug in the Smoke evaluator")
}
