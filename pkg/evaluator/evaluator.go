package evaluator

import (
	"fmt"
	"strconv"
	"time"

	"github.com/thomasrohde/smoke/pkg/ast"
)

// TraceEventType identifies the type of a trace event.
type TraceEventType string

const (
	TraceScopePush TraceEventType = "scope_push"
	TraceScopePop  TraceEventType = "scope_pop"
	TraceCallStart TraceEventType = "call_start"
	TraceCallEnd   TraceEventType = "call_end"
)

// TraceEvent represents a single trace event emitted during evaluation.
type TraceEvent struct {
	Timestamp string            `json:"ts"`
	RunID     string            `json:"runId,omitempty"`
	Event     TraceEventType    `json:"event"`
	Span      *ast.Span         `json:"span,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithMaxDepth sets the evaluation depth limit. Zero or less keeps the
// default.
func WithMaxDepth(n int) Option {
	return func(ev *Evaluator) {
		if n > 0 {
			ev.depth.limit = n
		}
	}
}

// WithTrace registers a callback that receives every trace event.
func WithTrace(fn func(TraceEvent)) Option {
	return func(ev *Evaluator) {
		ev.trace = fn
	}
}

// WithRunID tags trace events with id.
func WithRunID(id string) Option {
	return func(ev *Evaluator) {
		ev.runID = id
	}
}

// Evaluator walks AST nodes against an Environment. It is not safe for
// concurrent use.
type Evaluator struct {
	depth depthTracker
	trace func(TraceEvent)
	runID string
	stats Stats
}

// New creates an Evaluator.
func New(opts ...Option) *Evaluator {
	ev := &Evaluator{depth: depthTracker{limit: DefaultMaxDepth}}
	for _, opt := range opts {
		opt(ev)
	}
	return ev
}

// SetRunID changes the id attached to subsequent trace events.
func (ev *Evaluator) SetRunID(id string) {
	ev.runID = id
}

// Stats returns the work counters accumulated so far.
func (ev *Evaluator) Stats() Stats {
	return ev.stats
}

func (ev *Evaluator) emit(event TraceEventType, span ast.Span, data map[string]string) {
	if ev.trace == nil {
		return
	}
	ev.trace(TraceEvent{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		RunID:     ev.runID,
		Event:     event,
		Span:      &span,
		Data:      data,
	})
}

// Evaluate reduces node to a value against env. A *ast.Program is evaluated
// in env's current innermost frame; any other expression follows its own
// scoping rules. The first error aborts evaluation and is returned as is.
func (ev *Evaluator) Evaluate(node ast.Node, env *Environment) (Value, error) {
	if env == nil {
		return nil, &InternalError{Message: "evaluate called without an environment"}
	}
	switch n := node.(type) {
	case *ast.Program:
		return ev.EvaluateProgram(n, env)
	case ast.Expr:
		return ev.eval(n, env)
	}
	return nil, &InternalError{Message: fmt.Sprintf("cannot evaluate %T", node)}
}

// EvaluateProgram evaluates each top-level expression in order in env's
// innermost frame, so declarations persist for later programs. The result is
// the last expression's value, or nil for an empty program.
func (ev *Evaluator) EvaluateProgram(p *ast.Program, env *Environment) (Value, error) {
	if env == nil {
		return nil, &InternalError{Message: "evaluate called without an environment"}
	}
	var result Value = NewNil()
	for _, expr := range p.Body {
		v, err := ev.eval(expr, env)
		if err != nil {
			return nil, err
		}
		result = v
	}
	return result, nil
}

func (ev *Evaluator) eval(expr ast.Expr, env *Environment) (Value, error) {
	if err := ev.depth.enter(expr.NodeSpan()); err != nil {
		return nil, err
	}
	defer ev.depth.leave()
	ev.stats.Evaluations++
	if ev.depth.depth > ev.stats.PeakDepth {
		ev.stats.PeakDepth = ev.depth.depth
	}

	switch e := expr.(type) {
	case *ast.NilLiteral:
		return NewNil(), nil
	case *ast.BoolLiteral:
		return NewBool(e.Value), nil
	case *ast.IntLiteral:
		return NewInt(e.Value), nil
	case *ast.FloatLiteral:
		return NewFloat(e.Value), nil
	case *ast.StrLiteral:
		return NewString(e.Value), nil

	case *ast.Declaration:
		val, err := ev.eval(e.Value, env)
		if err != nil {
			return nil, err
		}
		env.Declare(e.Name, val)
		return NewNil(), nil

	case *ast.Reference:
		h, ok := env.Resolve(e.Name)
		if !ok {
			return nil, &ReferenceUndefinedError{Name: e.Name, Span: e.Span}
		}
		val, err := env.Load(h)
		if err != nil {
			return nil, &InternalError{Message: fmt.Sprintf("reference %s: %s", e.Name, err)}
		}
		return val, nil

	case *ast.Grouping:
		return ev.evalGrouping(e, env)

	case *ast.UnaryExpr:
		return ev.evalUnary(e, env)

	case *ast.BinaryExpr:
		return ev.evalBinary(e, env)

	case *ast.Function:
		return NewFunc(e), nil

	case *ast.Application:
		return ev.evalApplication(e, env)
	}

	return nil, &InternalError{Message: fmt.Sprintf("unknown expression type: %s", expr.Kind())}
}

// withScope runs body inside a fresh innermost frame. The frame is popped on
// every exit path.
func (ev *Evaluator) withScope(env *Environment, span ast.Span, body func() (Value, error)) (Value, error) {
	env.Push()
	ev.stats.ScopePushes++
	depth := strconv.Itoa(env.Depth())
	ev.emit(TraceScopePush, span, map[string]string{"depth": depth})
	defer func() {
		env.Pop()
		ev.emit(TraceScopePop, span, map[string]string{"depth": depth})
	}()
	return body()
}

func (ev *Evaluator) evalGrouping(e *ast.Grouping, env *Environment) (Value, error) {
	return ev.withScope(env, e.Span, func() (Value, error) {
		var result Value = NewNil()
		for _, child := range e.Children {
			v, err := ev.eval(child, env)
			if err != nil {
				return nil, err
			}
			result = v
		}
		return result, nil
	})
}

func (ev *Evaluator) evalUnary(e *ast.UnaryExpr, env *Environment) (Value, error) {
	operand, err := ev.eval(e.Operand, env)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case ast.OpNot:
		b, ok := operand.(BoolValue)
		if !ok {
			return nil, &TypeError{Expected: KindBool.String(), Found: operand.Kind().String(), Span: e.Operand.NodeSpan()}
		}
		return NewBool(!b.Value), nil

	case ast.OpNeg:
		switch n := operand.(type) {
		case IntValue:
			return NewInt(-n.Value), nil
		case FloatValue:
			return NewFloat(-n.Value), nil
		}
		return nil, &TypeError{Expected: "Integer or Float", Found: operand.Kind().String(), Span: e.Operand.NodeSpan()}
	}

	return nil, &InternalError{Message: fmt.Sprintf("unknown unary operator: %s", e.Op)}
}

func (ev *Evaluator) evalBinary(e *ast.BinaryExpr, env *Environment) (Value, error) {
	left, err := ev.eval(e.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := ev.eval(e.Right, env)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case ast.OpEqEq:
		return NewBool(Equal(left, right)), nil
	case ast.OpNotEq:
		return NewBool(!Equal(left, right)), nil
	}

	ln, ok := AsNumber(left)
	if !ok {
		return nil, &TypeError{Expected: "Integer or Float", Found: left.Kind().String(), Span: e.Left.NodeSpan()}
	}
	rn, ok := AsNumber(right)
	if !ok {
		return nil, &TypeError{Expected: "Integer or Float", Found: right.Kind().String(), Span: e.Right.NodeSpan()}
	}

	ln, rn = Coerce(ln, rn)
	if ln.IsFloat {
		return floatOp(e, ln.Float, rn.Float)
	}
	return intOp(e, ln.Int, rn.Int)
}

// intOp applies op to integers. Addition, subtraction and multiplication
// wrap on overflow; division truncates toward zero.
func intOp(e *ast.BinaryExpr, a, b int64) (Value, error) {
	switch e.Op {
	case ast.OpAdd:
		return NewInt(a + b), nil
	case ast.OpSub:
		return NewInt(a - b), nil
	case ast.OpMul:
		return NewInt(a * b), nil
	case ast.OpDiv:
		if b == 0 {
			return nil, &DivisionByZeroError{Span: e.Span}
		}
		return NewInt(a / b), nil
	case ast.OpGt:
		return NewBool(a > b), nil
	case ast.OpGtEq:
		return NewBool(a >= b), nil
	case ast.OpLt:
		return NewBool(a < b), nil
	case ast.OpLtEq:
		return NewBool(a <= b), nil
	}
	return nil, &InternalError{Message: fmt.Sprintf("unknown binary operator: %s", e.Op)}
}

// floatOp applies op to floats with IEEE semantics.
func floatOp(e *ast.BinaryExpr, a, b float64) (Value, error) {
	switch e.Op {
	case ast.OpAdd:
		return NewFloat(a + b), nil
	case ast.OpSub:
		return NewFloat(a - b), nil
	case ast.OpMul:
		return NewFloat(a * b), nil
	case ast.OpDiv:
		return NewFloat(a / b), nil
	case ast.OpGt:
		return NewBool(a > b), nil
	case ast.OpGtEq:
		return NewBool(a >= b), nil
	case ast.OpLt:
		return NewBool(a < b), nil
	case ast.OpLtEq:
		return NewBool(a <= b), nil
	}
	return nil, &InternalError{Message: fmt.Sprintf("unknown binary operator: %s", e.Op)}
}

func (ev *Evaluator) evalApplication(e *ast.Application, env *Environment) (Value, error) {
	callee, err := ev.eval(e.Callee, env)
	if err != nil {
		return nil, err
	}
	fn, ok := callee.(FuncValue)
	if !ok {
		return nil, &TypeError{Expected: KindFunction.String(), Found: callee.Kind().String(), Span: e.Callee.NodeSpan()}
	}

	args := make([]Value, len(e.Args))
	for i, arg := range e.Args {
		v, err := ev.eval(arg, env)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	params := fn.Params()
	if len(args) != len(params) {
		return nil, &ArityError{Name: fn.Name(), Expected: len(params), Found: len(args), Span: e.Span}
	}

	ev.stats.Calls++
	ev.emit(TraceCallStart, e.Span, map[string]string{"fn": fn.Name(), "args": strconv.Itoa(len(args))})
	defer ev.emit(TraceCallEnd, e.Span, map[string]string{"fn": fn.Name()})

	return ev.withScope(env, e.Span, func() (Value, error) {
		for i, name := range params {
			env.Declare(name, args[i])
		}
		return ev.eval(fn.Body(), env)
	})
}
