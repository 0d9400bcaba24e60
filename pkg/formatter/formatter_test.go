package formatter_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomasrohde/smoke/pkg/ast"
	"github.com/thomasrohde/smoke/pkg/formatter"
	"github.com/thomasrohde/smoke/pkg/parser"
)

func mustParse(t *testing.T, source string) *ast.Program {
	t.Helper()
	prog, err := parser.ParseSource(source, ast.FileSource("test.smk"))
	require.NoError(t, err)
	return prog
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"empty", "", ""},
		{"literals", `nil;true;  false; 42 ;1.50; "hi there"`, "nil;\ntrue;\nfalse;\n42;\n1.5;\n\"hi there\"\n"},
		{"let", `let   x=1+2*3`, "let x = 1 + 2 * 3\n"},
		{"fn", `fn add(a,b,){a+b}`, "fn add(a, b) { a + b }\n"},
		{"nullary fn", `fn k() 7`, "fn k() 7\n"},
		{"call", `add( 1 ,2 )(3)`, "add(1, 2)(3)\n"},
		{"empty block", `{ }`, "{}\n"},
		{"parens kept", `(1 + 2) * 3`, "(1 + 2) * 3\n"},
		{"unary", `- -1; !true; -(1)`, "--1;\n!true;\n-(1)\n"},
		{"comparison", `1<2==true`, "1 < 2 == true\n"},
		{"exponent float", `1e3; 2.5e-3`, "1000.0;\n0.0025\n"},
		{"overflowing float", `1e400`, "1e999\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatter.Format(mustParse(t, tt.source)))
		})
	}
}

func TestFormatLongBlockBreaks(t *testing.T) {
	src := `fn long(alpha, beta, gamma) { let firstTotal = alpha + beta; let secondTotal = beta * gamma; firstTotal - secondTotal }`
	want := "fn long(alpha, beta, gamma) {\n" +
		"  let firstTotal = alpha + beta;\n" +
		"  let secondTotal = beta * gamma;\n" +
		"  firstTotal - secondTotal\n" +
		"}\n"
	assert.Equal(t, want, formatter.Format(mustParse(t, src)))
}

func TestFormatNestedBlockIndents(t *testing.T) {
	src := `{ 1; { let someLongName = 100000; let anotherLongName = 200000; someLongName + anotherLongName } }`
	got := formatter.Format(mustParse(t, src))
	assert.Contains(t, got, "\n    let someLongName = 100000;\n")
	assert.True(t, strings.HasSuffix(got, "  }\n}\n"))
}

func TestNeedsParensForSyntheticTrees(t *testing.T) {
	one := &ast.IntLiteral{Value: 1}
	two := &ast.IntLiteral{Value: 2}
	three := &ast.IntLiteral{Value: 3}

	// 1 - (2 - 3) has no grouping node but must keep its shape.
	right := &ast.BinaryExpr{Op: ast.OpSub, Left: one, Right: &ast.BinaryExpr{Op: ast.OpSub, Left: two, Right: three}}
	assert.Equal(t, "1 - (2 - 3)", formatter.FormatExpr(right))

	left := &ast.BinaryExpr{Op: ast.OpMul, Left: &ast.BinaryExpr{Op: ast.OpAdd, Left: one, Right: two}, Right: three}
	assert.Equal(t, "(1 + 2) * 3", formatter.FormatExpr(left))

	let := &ast.BinaryExpr{Op: ast.OpAdd, Left: &ast.Declaration{Name: "x", Value: one}, Right: two}
	assert.Equal(t, "(let x = 1) + 2", formatter.FormatExpr(let))

	neg := &ast.UnaryExpr{Op: ast.OpNeg, Operand: &ast.BinaryExpr{Op: ast.OpAdd, Left: one, Right: two}}
	assert.Equal(t, "-(1 + 2)", formatter.FormatExpr(neg))
}

func TestFormatRoundTrip(t *testing.T) {
	sources := []string{
		`let x = 1; let y = 2.5; x * y - 3 / 4`,
		`fn add(a, b) { a + b }; add(add(1, 2), 3)`,
		`fn k() { fn inner(z) { z * 2 } }; k()(21)`,
		`{ let a = 1; { let b = a; b } }; (1)`,
		`!(1 < 2) != false; -(-1)`,
		`"no escapes here"; nil == nil`,
		`fn outer(f) { f(1, 2, 3) + f(4, 5, 6) * f(7, 8, 9) - f(10, 11, 12) / f(13, 14, 15) }`,
	}

	for _, src := range sources {
		t.Run(src, func(t *testing.T) {
			first := mustParse(t, src)
			formatted := formatter.Format(first)
			second := mustParse(t, formatted)
			assert.Equal(t, ast.Describe(first), ast.Describe(second))
			assert.Equal(t, formatted, formatter.Format(second), "formatting is idempotent")
		})
	}
}
