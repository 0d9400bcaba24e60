// Package parser implements the Smoke language parser.
package parser

import (
	"errors"
	"fmt"

	"github.com/thomasrohde/smoke/pkg/ast"
	"github.com/thomasrohde/smoke/pkg/diagnostics"
	"github.com/thomasrohde/smoke/pkg/lexer"
)

// DefaultMaxDepth bounds expression nesting.
const DefaultMaxDepth = 512

// endOfSource is what UnexpectedTokenError.Found holds when input ran out.
const endOfSource = "end of source"

// UnexpectedTokenError reports a token the grammar does not allow at this
// point. Found is the quoted lexeme, or "end of source".
type UnexpectedTokenError struct {
	Expected string
	Found    string
	Span     ast.Span
	Hint     string
}

func (e *UnexpectedTokenError) Error() string {
	return fmt.Sprintf("expected %s but found %s at %s", e.Expected, e.Found, e.Span)
}

// Diagnostic implements diagnostics.Diagnoser.
func (e *UnexpectedTokenError) Diagnostic() diagnostics.Diagnostic {
	span := e.Span
	return diagnostics.MakeDiag(diagnostics.EParse,
		fmt.Sprintf("expected %s but found %s", e.Expected, e.Found), &span, e.Hint)
}

// InternalError marks a parser state that should be unreachable. It is a
// bug in the parser, not in the program being parsed.
type InternalError struct {
	Message string
}

func (e *InternalError) Error() string {
	return "internal parser error: " + e.Message
}

// Diagnostic implements diagnostics.Diagnoser.
func (e *InternalError) Diagnostic() diagnostics.Diagnostic {
	return diagnostics.MakeDiag(diagnostics.EInternal, e.Message, nil, "this is a bug in the Smoke parser")
}

// DepthError reports expression nesting beyond the configured limit.
type DepthError struct {
	Limit int
	Span  ast.Span
}

func (e *DepthError) Error() string {
	return fmt.Sprintf("expression nesting exceeds %d levels at %s", e.Limit, e.Span)
}

// Diagnostic implements diagnostics.Diagnoser.
func (e *DepthError) Diagnostic() diagnostics.Diagnostic {
	span := e.Span
	return diagnostics.MakeDiag(diagnostics.EDepth,
		fmt.Sprintf("expression nesting exceeds %d levels", e.Limit), &span, "")
}

// IsIncomplete reports whether err was caused by the input ending early, so
// that more input could complete it. An unterminated string counts.
func IsIncomplete(err error) bool {
	var ue *UnexpectedTokenError
	if errors.As(err, &ue) {
		return ue.Found == endOfSource
	}
	var le *lexer.UnrecognizedCharacterError
	return errors.As(err, &le) && le.Char == '"'
}

// Option configures Parse.
type Option func(*parser)

// WithMaxDepth sets the expression nesting limit. Zero or less keeps the
// default.
func WithMaxDepth(n int) Option {
	return func(p *parser) {
		if n > 0 {
			p.maxDepth = n
		}
	}
}

type parser struct {
	tokens   []lexer.TokenExt
	pos      int
	depth    int
	maxDepth int
	err      error
}

// Parse builds a program from a token stream. The first error stops parsing.
func Parse(tokens []lexer.TokenExt, opts ...Option) (*ast.Program, error) {
	p := &parser{tokens: tokens, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(p)
	}
	prog := p.parseProgram()
	if p.err != nil {
		return nil, p.err
	}
	return prog, nil
}

// ParseSource tokenizes source and parses it.
func ParseSource(source string, src ast.Source, opts ...Option) (*ast.Program, error) {
	tokens, err := lexer.Tokenize(source, src)
	if err != nil {
		return nil, err
	}
	return Parse(tokens, opts...)
}

func (p *parser) atEnd() bool {
	return p.pos >= len(p.tokens)
}

func (p *parser) peek() (lexer.Kind, bool) {
	if p.atEnd() {
		return 0, false
	}
	return p.tokens[p.pos].Kind, true
}

func (p *parser) check(kind lexer.Kind) bool {
	k, ok := p.peek()
	return ok && k == kind
}

func (p *parser) advance() lexer.TokenExt {
	tok := p.tokens[p.pos]
	p.pos++
	return tok
}

// endSpan is an empty span just past the last token.
func (p *parser) endSpan() ast.Span {
	if len(p.tokens) == 0 {
		return ast.Span{StartLine: 1, StartCol: 1, EndLine: 1, EndCol: 1}
	}
	last := p.tokens[len(p.tokens)-1].Lexeme.Span
	last.StartLine, last.StartCol = last.EndLine, last.EndCol
	return last
}

func (p *parser) fail(err error) ast.Expr {
	if p.err == nil {
		p.err = err
	}
	return nil
}

func (p *parser) unexpected(expected string) ast.Expr {
	if p.atEnd() {
		return p.fail(&UnexpectedTokenError{Expected: expected, Found: endOfSource, Span: p.endSpan()})
	}
	tok := p.tokens[p.pos]
	err := &UnexpectedTokenError{
		Expected: expected,
		Found:    fmt.Sprintf("'%s'", tok.Lexeme.Content),
		Span:     tok.Lexeme.Span,
	}
	if isReserved(tok.Kind) {
		err.Hint = fmt.Sprintf("%q is a reserved word with no meaning yet", tok.Lexeme.Content)
	}
	return p.fail(err)
}

func (p *parser) expect(kind lexer.Kind, expected string) (lexer.TokenExt, bool) {
	if !p.check(kind) {
		p.unexpected(expected)
		return lexer.TokenExt{}, false
	}
	return p.advance(), true
}

// enter counts one level of nesting; every successful enter is paired with
// a deferred leave.
func (p *parser) enter() bool {
	p.depth++
	if p.depth > p.maxDepth {
		span := p.endSpan()
		if !p.atEnd() {
			span = p.tokens[p.pos].Lexeme.Span
		}
		p.fail(&DepthError{Limit: p.maxDepth, Span: span})
		return false
	}
	return true
}

func (p *parser) leave() {
	p.depth--
}

func isReserved(k lexer.Kind) bool {
	switch k {
	case lexer.If, lexer.Else, lexer.For, lexer.While, lexer.Return:
		return true
	}
	return false
}

func unaryOp(k lexer.Kind) (ast.UnaryOp, bool) {
	switch k {
	case lexer.Bang:
		return ast.OpNot, true
	case lexer.Minus:
		return ast.OpNeg, true
	}
	return "", false
}

func binaryOp(k lexer.Kind) (ast.BinaryOp, bool) {
	switch k {
	case lexer.EqualEqual:
		return ast.OpEqEq, true
	case lexer.BangEqual:
		return ast.OpNotEq, true
	case lexer.Greater:
		return ast.OpGt, true
	case lexer.GreaterEqual:
		return ast.OpGtEq, true
	case lexer.Less:
		return ast.OpLt, true
	case lexer.LessEqual:
		return ast.OpLtEq, true
	case lexer.Plus:
		return ast.OpAdd, true
	case lexer.Minus:
		return ast.OpSub, true
	case lexer.Star:
		return ast.OpMul, true
	case lexer.Slash:
		return ast.OpDiv, true
	}
	return "", false
}

// --- Program ---

func (p *parser) parseProgram() *ast.Program {
	prog := &ast.Program{}
	if len(p.tokens) > 0 {
		prog.Span = p.tokens[0].Lexeme.Span.To(p.tokens[len(p.tokens)-1].Lexeme.Span)
	}

	for !p.atEnd() {
		if p.check(lexer.Semicolon) {
			p.advance()
			continue
		}
		expr := p.parseExpression()
		if expr == nil {
			return nil
		}
		prog.Body = append(prog.Body, expr)
		if !p.atEnd() && !p.check(lexer.Semicolon) {
			p.unexpected(`";" or end of source`)
			return nil
		}
	}
	return prog
}

// --- Precedence climbing ---

// binaryLevels lists operator tokens from loosest to tightest binding.
var binaryLevels = [][]lexer.Kind{
	{lexer.EqualEqual, lexer.BangEqual},
	{lexer.Greater, lexer.GreaterEqual, lexer.Less, lexer.LessEqual},
	{lexer.Plus, lexer.Minus},
	{lexer.Star, lexer.Slash},
}

func (p *parser) parseExpression() ast.Expr {
	if !p.enter() {
		return nil
	}
	defer p.leave()
	return p.parseBinary(0)
}

func (p *parser) matchAny(kinds []lexer.Kind) (lexer.Kind, bool) {
	k, ok := p.peek()
	if !ok {
		return 0, false
	}
	for _, want := range kinds {
		if k == want {
			return k, true
		}
	}
	return 0, false
}

func (p *parser) parseOperand(level int) ast.Expr {
	if level+1 < len(binaryLevels) {
		return p.parseBinary(level + 1)
	}
	return p.parseUnary()
}

func (p *parser) parseBinary(level int) ast.Expr {
	left := p.parseOperand(level)
	if left == nil {
		return nil
	}

	for {
		kind, ok := p.matchAny(binaryLevels[level])
		if !ok {
			return left
		}
		tok := p.advance()
		op, ok := binaryOp(kind)
		if !ok {
			return p.fail(&InternalError{Message: fmt.Sprintf("token %s is not a binary operator", tok.Token)})
		}
		right := p.parseOperand(level)
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpr{
			Span:  left.NodeSpan().To(right.NodeSpan()),
			Op:    op,
			Left:  left,
			Right: right,
		}
	}
}

func (p *parser) parseUnary() ast.Expr {
	kind, ok := p.matchAny([]lexer.Kind{lexer.Bang, lexer.Minus})
	if !ok {
		return p.parseCall()
	}
	if !p.enter() {
		return nil
	}
	defer p.leave()

	start := p.advance()
	op, ok := unaryOp(kind)
	if !ok {
		return p.fail(&InternalError{Message: fmt.Sprintf("token %s is not a unary operator", start.Token)})
	}
	operand := p.parseUnary()
	if operand == nil {
		return nil
	}
	return &ast.UnaryExpr{
		Span:    start.Lexeme.Span.To(operand.NodeSpan()),
		Op:      op,
		Operand: operand,
	}
}

func (p *parser) parseCall() ast.Expr {
	expr := p.parsePrimary()
	if expr == nil {
		return nil
	}

	for p.check(lexer.LeftParen) {
		p.advance()
		var args []ast.Expr
		if !p.check(lexer.RightParen) {
			for {
				arg := p.parseExpression()
				if arg == nil {
					return nil
				}
				args = append(args, arg)
				if !p.check(lexer.Comma) {
					break
				}
				p.advance()
			}
		}
		end, ok := p.expect(lexer.RightParen, "closing delimiter ')'")
		if !ok {
			return nil
		}
		expr = &ast.Application{
			Span:   expr.NodeSpan().To(end.Lexeme.Span),
			Callee: expr,
			Args:   args,
		}
	}
	return expr
}

func (p *parser) parsePrimary() ast.Expr {
	kind, ok := p.peek()
	if !ok {
		return p.unexpected("expression")
	}

	switch kind {
	case lexer.Nil:
		tok := p.advance()
		return &ast.NilLiteral{Span: tok.Lexeme.Span}

	case lexer.Bool:
		tok := p.advance()
		return &ast.BoolLiteral{Span: tok.Lexeme.Span, Value: tok.Bool}

	case lexer.Integer:
		tok := p.advance()
		return &ast.IntLiteral{Span: tok.Lexeme.Span, Value: tok.Int}

	case lexer.Float:
		tok := p.advance()
		return &ast.FloatLiteral{Span: tok.Lexeme.Span, Value: tok.Float}

	case lexer.Str:
		tok := p.advance()
		return &ast.StrLiteral{Span: tok.Lexeme.Span, Value: tok.Str}

	case lexer.Identifier:
		tok := p.advance()
		return &ast.Reference{Span: tok.Lexeme.Span, Name: tok.Str}

	case lexer.LeftParen:
		start := p.advance()
		expr := p.parseExpression()
		if expr == nil {
			return nil
		}
		end, ok := p.expect(lexer.RightParen, "closing delimiter ')'")
		if !ok {
			return nil
		}
		return &ast.Grouping{
			Span:     start.Lexeme.Span.To(end.Lexeme.Span),
			Children: []ast.Expr{expr},
		}

	case lexer.LeftBrace:
		return p.parseBlock()

	case lexer.Let:
		return p.parseLet()

	case lexer.Function:
		return p.parseFn()

	default:
		return p.unexpected("expression")
	}
}

func (p *parser) parseBlock() ast.Expr {
	start := p.advance()
	block := &ast.Grouping{Braced: true}

	if !p.check(lexer.RightBrace) {
		for {
			expr := p.parseExpression()
			if expr == nil {
				return nil
			}
			block.Children = append(block.Children, expr)
			if !p.check(lexer.Semicolon) {
				break
			}
			p.advance()
		}
	}

	end, ok := p.expect(lexer.RightBrace, "closing delimiter '}'")
	if !ok {
		return nil
	}
	block.Span = start.Lexeme.Span.To(end.Lexeme.Span)
	return block
}

func (p *parser) parseLet() ast.Expr {
	start := p.advance()
	name, ok := p.expect(lexer.Identifier, "identifier")
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.Equal, "assignment operator"); !ok {
		return nil
	}
	value := p.parseExpression()
	if value == nil {
		return nil
	}
	return &ast.Declaration{
		Span:  start.Lexeme.Span.To(value.NodeSpan()),
		Name:  name.Str,
		Value: value,
	}
}

// parseFn desugars `fn name(params) body` into a declaration of a function
// value. A trailing comma after the last parameter is allowed.
func (p *parser) parseFn() ast.Expr {
	start := p.advance()
	name, ok := p.expect(lexer.Identifier, "function name")
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.LeftParen, "opening delimiter '('"); !ok {
		return nil
	}

	var params []string
	for p.check(lexer.Identifier) {
		params = append(params, p.advance().Str)
		if !p.check(lexer.Comma) {
			break
		}
		p.advance()
	}
	if _, ok := p.expect(lexer.RightParen, "closing delimiter ')'"); !ok {
		return nil
	}

	body := p.parseExpression()
	if body == nil {
		return nil
	}
	span := start.Lexeme.Span.To(body.NodeSpan())
	return &ast.Declaration{
		Span: span,
		Name: name.Str,
		Value: &ast.Function{
			Span:   span,
			Name:   name.Str,
			Params: params,
			Body:   body,
		},
	}
}
