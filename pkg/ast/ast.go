// Package ast defines the Smoke language AST node types.
package ast

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Origin tells where a piece of source text came from.
type Origin int

const (
	OriginFile Origin = iota
	OriginRepl
	OriginInternal
)

func (o Origin) String() string {
	switch o {
	case OriginFile:
		return "file"
	case OriginRepl:
		return "repl"
	case OriginInternal:
		return "internal"
	}
	return "unknown"
}

// MarshalText renders the origin by name in JSON diagnostics.
func (o Origin) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Source identifies a unit of source text handed to the tokenizer.
type Source struct {
	Origin Origin
	File   string
}

// FileSource returns a Source for a named file.
func FileSource(name string) Source { return Source{Origin: OriginFile, File: name} }

// ReplSource returns a Source for an interactive submission.
func ReplSource() Source { return Source{Origin: OriginRepl} }

// Span represents a source location range. Lines and columns are 1-based;
// columns count runes.
type Span struct {
	Origin    Origin `json:"origin"`
	File      string `json:"file,omitempty"`
	StartLine int    `json:"startLine"`
	StartCol  int    `json:"startCol"`
	EndLine   int    `json:"endLine"`
	EndCol    int    `json:"endCol"`
}

// String renders the start of the span as file:line:col.
func (s Span) String() string {
	switch s.Origin {
	case OriginInternal:
		return "<internal>"
	case OriginRepl:
		return fmt.Sprintf("<repl>:%d:%d", s.StartLine, s.StartCol)
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.StartLine, s.StartCol)
}

// To returns a span covering s through end.
func (s Span) To(end Span) Span {
	s.EndLine = end.EndLine
	s.EndCol = end.EndCol
	return s
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Kind() string
	NodeSpan() Span
}

// BinaryOp represents a binary operator.
type BinaryOp string

const (
	OpAdd   BinaryOp = "+"
	OpSub   BinaryOp = "-"
	OpMul   BinaryOp = "*"
	OpDiv   BinaryOp = "/"
	OpGt    BinaryOp = ">"
	OpLt    BinaryOp = "<"
	OpGtEq  BinaryOp = ">="
	OpLtEq  BinaryOp = "<="
	OpEqEq  BinaryOp = "=="
	OpNotEq BinaryOp = "!="
)

var binaryNames = map[BinaryOp]string{
	OpAdd:   "Add",
	OpSub:   "Subtract",
	OpMul:   "Multiply",
	OpDiv:   "Divide",
	OpGt:    "Greater",
	OpLt:    "Less",
	OpGtEq:  "GreaterEqual",
	OpLtEq:  "LessEqual",
	OpEqEq:  "Equal",
	OpNotEq: "NotEqual",
}

// Name returns the operator's descriptive name, e.g. "Subtract".
func (op BinaryOp) Name() string {
	if n, ok := binaryNames[op]; ok {
		return n
	}
	return string(op)
}

// UnaryOp represents a unary operator.
type UnaryOp string

const (
	OpNeg UnaryOp = "-"
	OpNot UnaryOp = "!"
)

// Name returns the operator's descriptive name, e.g. "Negate".
func (op UnaryOp) Name() string {
	switch op {
	case OpNeg:
		return "Negate"
	case OpNot:
		return "Not"
	}
	return string(op)
}

// --- Expr is the interface for all expression nodes ---

type Expr interface {
	Node
	exprNode() // sealed marker
}

// --- Literal is the interface for constant expressions ---

type Literal interface {
	Expr
	literalNode() // sealed marker
}

// --- Literal Expressions ---

type NilLiteral struct {
	Span Span
}

func (n *NilLiteral) Kind() string   { return "NilLiteral" }
func (n *NilLiteral) NodeSpan() Span { return n.Span }
func (n *NilLiteral) exprNode()      {}
func (n *NilLiteral) literalNode()   {}

type BoolLiteral struct {
	Span  Span
	Value bool
}

func (n *BoolLiteral) Kind() string   { return "BoolLiteral" }
func (n *BoolLiteral) NodeSpan() Span { return n.Span }
func (n *BoolLiteral) exprNode()      {}
func (n *BoolLiteral) literalNode()   {}

type IntLiteral struct {
	Span  Span
	Value int64
}

func (n *IntLiteral) Kind() string   { return "IntLiteral" }
func (n *IntLiteral) NodeSpan() Span { return n.Span }
func (n *IntLiteral) exprNode()      {}
func (n *IntLiteral) literalNode()   {}

type FloatLiteral struct {
	Span  Span
	Value float64
}

func (n *FloatLiteral) Kind() string   { return "FloatLiteral" }
func (n *FloatLiteral) NodeSpan() Span { return n.Span }
func (n *FloatLiteral) exprNode()      {}
func (n *FloatLiteral) literalNode()   {}

type StrLiteral struct {
	Span  Span
	Value string
}

func (n *StrLiteral) Kind() string   { return "StrLiteral" }
func (n *StrLiteral) NodeSpan() Span { return n.Span }
func (n *StrLiteral) exprNode()      {}
func (n *StrLiteral) literalNode()   {}

// --- Bindings ---

// Declaration binds Name in the innermost scope. Value is a *Function for
// `fn name(...) body`.
type Declaration struct {
	Span  Span
	Name  string
	Value Expr
}

func (n *Declaration) Kind() string   { return "Declaration" }
func (n *Declaration) NodeSpan() Span { return n.Span }
func (n *Declaration) exprNode()      {}

type Reference struct {
	Span Span
	Name string
}

func (n *Reference) Kind() string   { return "Reference" }
func (n *Reference) NodeSpan() Span { return n.Span }
func (n *Reference) exprNode()      {}

// --- Structure ---

// Grouping evaluates Children in a fresh scope. Braced is true for `{ ... }`
// blocks and false for parenthesised expressions.
type Grouping struct {
	Span     Span
	Children []Expr
	Braced   bool
}

func (n *Grouping) Kind() string   { return "Grouping" }
func (n *Grouping) NodeSpan() Span { return n.Span }
func (n *Grouping) exprNode()      {}

// --- Operators ---

type UnaryExpr struct {
	Span    Span
	Op      UnaryOp
	Operand Expr
}

func (n *UnaryExpr) Kind() string   { return "UnaryExpr" }
func (n *UnaryExpr) NodeSpan() Span { return n.Span }
func (n *UnaryExpr) exprNode()      {}

type BinaryExpr struct {
	Span  Span
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (n *BinaryExpr) Kind() string   { return "BinaryExpr" }
func (n *BinaryExpr) NodeSpan() Span { return n.Span }
func (n *BinaryExpr) exprNode()      {}

// --- Functions ---

type Function struct {
	Span   Span
	Name   string
	Params []string
	Body   Expr
}

func (n *Function) Kind() string   { return "Function" }
func (n *Function) NodeSpan() Span { return n.Span }
func (n *Function) exprNode()      {}

type Application struct {
	Span   Span
	Callee Expr
	Args   []Expr
}

func (n *Application) Kind() string   { return "Application" }
func (n *Application) NodeSpan() Span { return n.Span }
func (n *Application) exprNode()      {}

// --- Program ---

// Program is a `;`-separated sequence of top-level expressions. It is
// evaluated in the caller's current scope.
type Program struct {
	Span Span
	Body []Expr
}

func (n *Program) Kind() string   { return "Program" }
func (n *Program) NodeSpan() Span { return n.Span }

// Describe renders a node as a compact nested term, e.g.
// `Add(1, Multiply(2, 3))`.
func Describe(n Node) string {
	var b strings.Builder
	describe(&b, n)
	return b.String()
}

func describe(b *strings.Builder, n Node) {
	switch n := n.(type) {
	case *NilLiteral:
		b.WriteString("nil")
	case *BoolLiteral:
		b.WriteString(strconv.FormatBool(n.Value))
	case *IntLiteral:
		b.WriteString(strconv.FormatInt(n.Value, 10))
	case *FloatLiteral:
		b.WriteString(FormatFloat(n.Value))
	case *StrLiteral:
		b.WriteString(strconv.Quote(n.Value))
	case *Reference:
		b.WriteString(n.Name)
	case *Declaration:
		b.WriteString("Let(")
		b.WriteString(n.Name)
		b.WriteString(", ")
		describe(b, n.Value)
		b.WriteString(")")
	case *Grouping:
		if n.Braced {
			b.WriteString("Block(")
		} else {
			b.WriteString("Group(")
		}
		describeList(b, n.Children)
		b.WriteString(")")
	case *UnaryExpr:
		b.WriteString(n.Op.Name())
		b.WriteString("(")
		describe(b, n.Operand)
		b.WriteString(")")
	case *BinaryExpr:
		b.WriteString(n.Op.Name())
		b.WriteString("(")
		describe(b, n.Left)
		b.WriteString(", ")
		describe(b, n.Right)
		b.WriteString(")")
	case *Function:
		fmt.Fprintf(b, "Fn(%s, [%s], ", n.Name, strings.Join(n.Params, ", "))
		describe(b, n.Body)
		b.WriteString(")")
	case *Application:
		b.WriteString("Call(")
		describe(b, n.Callee)
		for _, a := range n.Args {
			b.WriteString(", ")
			describe(b, a)
		}
		b.WriteString(")")
	case *Program:
		for i, e := range n.Body {
			if i > 0 {
				b.WriteString("; ")
			}
			describe(b, e)
		}
	default:
		fmt.Fprintf(b, "<%s>", n.Kind())
	}
}

func describeList(b *strings.Builder, exprs []Expr) {
	for i, e := range exprs {
		if i > 0 {
			b.WriteString(", ")
		}
		describe(b, e)
	}
}

// FormatFloat renders a float so that it always reads back as a float:
// whole numbers keep a trailing ".0".
func FormatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if math.IsInf(f, 0) || math.IsNaN(f) || strings.ContainsAny(s, ".e") {
		return s
	}
	return s + ".0"
}
