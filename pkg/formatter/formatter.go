// Package formatter implements the Smoke source code formatter.
package formatter

import (
	"math"
	"strconv"
	"strings"

	"github.com/thomasrohde/smoke/pkg/ast"
)

const (
	indent      = "  "
	inlineWidth = 72
)

// Precedence table for binary operators (higher = tighter binding)
var precedence = map[ast.BinaryOp]int{
	ast.OpEqEq: 1, ast.OpNotEq: 1,
	ast.OpGt: 2, ast.OpLt: 2, ast.OpGtEq: 2, ast.OpLtEq: 2,
	ast.OpAdd: 3, ast.OpSub: 3,
	ast.OpMul: 4, ast.OpDiv: 4,
}

// needsParens reports whether child must be wrapped to keep its shape when
// printed as an operand of parentOp.
func needsParens(child ast.Expr, parentOp ast.BinaryOp, isRight bool) bool {
	switch c := child.(type) {
	case *ast.Declaration, *ast.Function:
		// Their value extends as far right as possible.
		return true
	case *ast.BinaryExpr:
		childPrec := precedence[c.Op]
		parentPrec := precedence[parentOp]
		if childPrec < parentPrec {
			return true
		}
		// Operators are left-associative.
		return childPrec == parentPrec && isRight
	}
	return false
}

// Format pretty-prints a Smoke AST back to source code. The output parses to
// the same tree.
func Format(program *ast.Program) string {
	if len(program.Body) == 0 {
		return ""
	}
	lines := make([]string, len(program.Body))
	for i, e := range program.Body {
		lines[i] = formatExpr(e, 0)
		if i < len(program.Body)-1 {
			lines[i] += ";"
		}
	}
	return strings.Join(lines, "\n") + "\n"
}

// FormatExpr pretty-prints a single expression.
func FormatExpr(e ast.Expr) string {
	return formatExpr(e, 0)
}

func formatExpr(e ast.Expr, depth int) string {
	switch expr := e.(type) {
	case *ast.NilLiteral:
		return "nil"
	case *ast.BoolLiteral:
		if expr.Value {
			return "true"
		}
		return "false"
	case *ast.IntLiteral:
		return strconv.FormatInt(expr.Value, 10)
	case *ast.FloatLiteral:
		return formatFloatLiteral(expr.Value)
	case *ast.StrLiteral:
		// Strings have no escapes.
		return `"` + expr.Value + `"`
	case *ast.Reference:
		return expr.Name
	case *ast.Declaration:
		if fn, ok := expr.Value.(*ast.Function); ok && fn.Name == expr.Name {
			return formatFn(fn, depth)
		}
		return "let " + expr.Name + " = " + formatExpr(expr.Value, depth)
	case *ast.Function:
		return formatFn(expr, depth)
	case *ast.Grouping:
		if expr.Braced {
			return formatBlock(expr.Children, depth)
		}
		parts := make([]string, len(expr.Children))
		for i, c := range expr.Children {
			parts[i] = formatExpr(c, depth)
		}
		return "(" + strings.Join(parts, "; ") + ")"
	case *ast.BinaryExpr:
		leftStr := formatExpr(expr.Left, depth)
		rightStr := formatExpr(expr.Right, depth)
		if needsParens(expr.Left, expr.Op, false) {
			leftStr = "(" + leftStr + ")"
		}
		if needsParens(expr.Right, expr.Op, true) {
			rightStr = "(" + rightStr + ")"
		}
		return leftStr + " " + string(expr.Op) + " " + rightStr
	case *ast.UnaryExpr:
		operandStr := formatExpr(expr.Operand, depth)
		switch expr.Operand.(type) {
		case *ast.BinaryExpr, *ast.Declaration, *ast.Function:
			operandStr = "(" + operandStr + ")"
		}
		return string(expr.Op) + operandStr
	case *ast.Application:
		callee := formatExpr(expr.Callee, depth)
		switch expr.Callee.(type) {
		case *ast.BinaryExpr, *ast.UnaryExpr, *ast.Declaration, *ast.Function:
			callee = "(" + callee + ")"
		}
		args := make([]string, len(expr.Args))
		for i, a := range expr.Args {
			args[i] = formatExpr(a, depth)
		}
		return callee + "(" + strings.Join(args, ", ") + ")"
	}
	return ""
}

func formatFn(fn *ast.Function, depth int) string {
	return "fn " + fn.Name + "(" + strings.Join(fn.Params, ", ") + ") " + formatExpr(fn.Body, depth)
}

func formatBlock(children []ast.Expr, depth int) string {
	if len(children) == 0 {
		return "{}"
	}

	// Try inline first
	inlineParts := make([]string, len(children))
	for i, c := range children {
		inlineParts[i] = formatExpr(c, depth+1)
	}
	inline := "{ " + strings.Join(inlineParts, "; ") + " }"
	if len(inline) <= inlineWidth && !strings.Contains(inline, "\n") {
		return inline
	}

	// Multi-line
	inner := strings.Repeat(indent, depth+1)
	outer := strings.Repeat(indent, depth)
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = inner + formatExpr(c, depth+1)
	}
	return "{\n" + strings.Join(parts, ";\n") + "\n" + outer + "}"
}

func formatFloatLiteral(value float64) string {
	// Literals are never negative, and an overflowing literal lexes as +Inf.
	if math.IsInf(value, 1) {
		return "1e999"
	}
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return strconv.FormatFloat(value, 'f', -1, 64)
	}

	raw := strconv.FormatFloat(value, 'g', -1, 64)
	if strings.ContainsAny(raw, "eE") {
		expanded := expandScientificNotation(raw)
		if !strings.Contains(expanded, ".") {
			expanded += ".0"
		}
		return expanded
	}
	if !strings.Contains(raw, ".") {
		raw += ".0"
	}
	return raw
}

func expandScientificNotation(value string) string {
	lower := strings.ToLower(value)
	parts := strings.SplitN(lower, "e", 2)
	if len(parts) != 2 {
		return value
	}

	mantissa := parts[0]
	exponent, err := strconv.Atoi(parts[1])
	if err != nil {
		return value
	}

	sign := ""
	digits := mantissa
	if strings.HasPrefix(digits, "-") {
		sign = "-"
		digits = digits[1:]
	}

	dotIdx := strings.Index(digits, ".")
	intPart := digits
	fracPart := ""
	if dotIdx >= 0 {
		intPart = digits[:dotIdx]
		fracPart = digits[dotIdx+1:]
	}

	compact := intPart + fracPart
	decimalIndex := len(intPart) + exponent

	if decimalIndex <= 0 {
		return sign + "0." + strings.Repeat("0", -decimalIndex) + compact
	}
	if decimalIndex >= len(compact) {
		return sign + compact + strings.Repeat("0", decimalIndex-len(compact)) + ".0"
	}
	return sign + compact[:decimalIndex] + "." + compact[decimalIndex:]
}
