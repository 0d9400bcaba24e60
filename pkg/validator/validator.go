// Package validator implements static checks of Smoke programs.
//
// Every diagnostic it reports names an error the program would certainly
// raise if the offending expression were evaluated. Names resolve
// dynamically at run time, so checks that depend on a binding only fire
// when the program binds that name in exactly one place.
package validator

import (
	"fmt"

	"github.com/thomasrohde/smoke/pkg/ast"
	"github.com/thomasrohde/smoke/pkg/diagnostics"
	"github.com/thomasrohde/smoke/pkg/evaluator"
)

// Option configures Validate.
type Option func(*validator)

// WithKnownNames treats names as already bound, for example the globals of a
// REPL session.
func WithKnownNames(names ...string) Option {
	return func(v *validator) {
		for _, n := range names {
			v.known[n] = true
		}
	}
}

type validator struct {
	diags []diagnostics.Diagnostic
	known map[string]bool
	// binds counts how many declarations and parameters bind each name.
	binds map[string]int
	// fns holds top-level function declarations by name.
	fns map[string]*ast.Function
}

// Validate performs static analysis on a program and returns diagnostics.
func Validate(program *ast.Program, opts ...Option) []diagnostics.Diagnostic {
	v := &validator{
		known: make(map[string]bool),
		binds: make(map[string]int),
		fns:   make(map[string]*ast.Function),
	}
	for _, opt := range opts {
		opt(v)
	}

	for _, e := range program.Body {
		v.collect(e)
	}
	for _, e := range program.Body {
		if d, ok := e.(*ast.Declaration); ok {
			if fn, ok := d.Value.(*ast.Function); ok {
				v.fns[d.Name] = fn
			}
		}
	}
	for _, e := range program.Body {
		v.validateExpr(e)
	}

	return v.diags
}

func (v *validator) addDiag(code, msg string, span ast.Span, hint string) {
	v.diags = append(v.diags, diagnostics.MakeDiag(code, msg, &span, hint))
}

// collect records every name the program can bind.
func (v *validator) collect(expr ast.Expr) {
	walk(expr, func(e ast.Expr) {
		switch n := e.(type) {
		case *ast.Declaration:
			v.binds[n.Name]++
		case *ast.Function:
			for _, p := range n.Params {
				v.binds[p]++
			}
		}
	})
}

// walk visits expr and all its sub-expressions, parents first.
func walk(expr ast.Expr, visit func(ast.Expr)) {
	if expr == nil {
		return
	}
	visit(expr)
	switch n := expr.(type) {
	case *ast.Declaration:
		walk(n.Value, visit)
	case *ast.Grouping:
		for _, c := range n.Children {
			walk(c, visit)
		}
	case *ast.UnaryExpr:
		walk(n.Operand, visit)
	case *ast.BinaryExpr:
		walk(n.Left, visit)
		walk(n.Right, visit)
	case *ast.Function:
		walk(n.Body, visit)
	case *ast.Application:
		walk(n.Callee, visit)
		for _, a := range n.Args {
			walk(a, visit)
		}
	}
}

func (v *validator) validateExpr(expr ast.Expr) {
	walk(expr, func(e ast.Expr) {
		switch n := e.(type) {
		case *ast.Reference:
			v.validateReference(n)
		case *ast.Function:
			v.validateParams(n)
		case *ast.UnaryExpr:
			v.validateUnary(n)
		case *ast.BinaryExpr:
			v.validateBinary(n)
		case *ast.Application:
			v.validateApplication(n)
		}
	})
}

func (v *validator) validateReference(n *ast.Reference) {
	if v.binds[n.Name] == 0 && !v.known[n.Name] {
		v.addDiag(diagnostics.EUnbound,
			fmt.Sprintf("reference by name %s is never declared", n.Name), n.Span,
			fmt.Sprintf("declare it with `let %s = ...` or `fn %s(...)`", n.Name, n.Name))
	}
}

func (v *validator) validateParams(fn *ast.Function) {
	seen := make(map[string]bool, len(fn.Params))
	for _, p := range fn.Params {
		if seen[p] {
			v.addDiag(diagnostics.EDupParam,
				fmt.Sprintf("function %s declares parameter %s more than once", fn.Name, p), fn.Span, "")
		}
		seen[p] = true
	}
}

// literalKind reports the runtime kind a literal evaluates to.
func literalKind(e ast.Expr) (evaluator.Kind, bool) {
	switch e.(type) {
	case *ast.NilLiteral:
		return evaluator.KindNil, true
	case *ast.BoolLiteral:
		return evaluator.KindBool, true
	case *ast.IntLiteral:
		return evaluator.KindInteger, true
	case *ast.FloatLiteral:
		return evaluator.KindFloat, true
	case *ast.StrLiteral:
		return evaluator.KindString, true
	}
	return 0, false
}

func isNumeric(k evaluator.Kind) bool {
	return k == evaluator.KindInteger || k == evaluator.KindFloat
}

func (v *validator) typeDiag(expected string, found evaluator.Kind, span ast.Span) {
	v.addDiag(diagnostics.EType,
		fmt.Sprintf("expected value of type %s but found %s", expected, found), span, "")
}

func (v *validator) validateUnary(n *ast.UnaryExpr) {
	k, ok := literalKind(n.Operand)
	if !ok {
		return
	}
	switch n.Op {
	case ast.OpNot:
		if k != evaluator.KindBool {
			v.typeDiag(evaluator.KindBool.String(), k, n.Operand.NodeSpan())
		}
	case ast.OpNeg:
		if !isNumeric(k) {
			v.typeDiag("Integer or Float", k, n.Operand.NodeSpan())
		}
	}
}

func (v *validator) validateBinary(n *ast.BinaryExpr) {
	if n.Op == ast.OpEqEq || n.Op == ast.OpNotEq {
		return
	}
	// The left operand is checked first, as the evaluator does.
	if k, ok := literalKind(n.Left); ok && !isNumeric(k) {
		v.typeDiag("Integer or Float", k, n.Left.NodeSpan())
		return
	}
	if k, ok := literalKind(n.Right); ok && !isNumeric(k) {
		v.typeDiag("Integer or Float", k, n.Right.NodeSpan())
		return
	}
	if n.Op == ast.OpDiv {
		_, leftInt := n.Left.(*ast.IntLiteral)
		if right, ok := n.Right.(*ast.IntLiteral); ok && leftInt && right.Value == 0 {
			v.addDiag(diagnostics.EDivZero, "integer division by zero", n.Span, "")
		}
	}
}

func (v *validator) validateApplication(n *ast.Application) {
	if k, ok := literalKind(n.Callee); ok {
		v.typeDiag(evaluator.KindFunction.String(), k, n.Callee.NodeSpan())
		return
	}
	ref, ok := n.Callee.(*ast.Reference)
	if !ok || v.binds[ref.Name] != 1 || v.known[ref.Name] {
		return
	}
	fn, ok := v.fns[ref.Name]
	if !ok {
		return
	}
	if len(n.Args) != len(fn.Params) {
		v.addDiag(diagnostics.EArity,
			fmt.Sprintf("function %s takes %d argument(s) but is called with %d", fn.Name, len(fn.Params), len(n.Args)),
			n.Span, fmt.Sprintf("declared at %s", fn.Span))
	}
}
