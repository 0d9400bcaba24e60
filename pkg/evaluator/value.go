// Package evaluator implements the Smoke value model, the scoped
// environment and the tree-walking evaluator.
package evaluator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/thomasrohde/smoke/pkg/ast"
)

// Kind names the runtime type of a value.
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindInteger
	KindFloat
	KindString
	KindFunction
	KindScope
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "Nil"
	case KindBool:
		return "Bool"
	case KindInteger:
		return "Integer"
	case KindFloat:
		return "Float"
	case KindString:
		return "String"
	case KindFunction:
		return "Function"
	case KindScope:
		return "Scope"
	}
	return "Unknown"
}

// Value is the interface for all Smoke runtime values.
// The sealed marker restricts implementations to this package.
type Value interface {
	Kind() Kind
	value() // sealed marker
}

// NilValue is the absence of a value.
type NilValue struct{}

func (NilValue) Kind() Kind { return KindNil }
func (NilValue) value()     {}

// BoolValue represents a boolean value.
type BoolValue struct {
	Value bool
}

func (BoolValue) Kind() Kind { return KindBool }
func (BoolValue) value()     {}

// IntValue represents a 64-bit signed integer.
type IntValue struct {
	Value int64
}

func (IntValue) Kind() Kind { return KindInteger }
func (IntValue) value()     {}

// FloatValue represents a 64-bit float.
type FloatValue struct {
	Value float64
}

func (FloatValue) Kind() Kind { return KindFloat }
func (FloatValue) value()     {}

// StrValue represents a string value.
type StrValue struct {
	Value string
}

func (StrValue) Kind() Kind { return KindString }
func (StrValue) value()     {}

// FuncValue is a user function. It holds only its name, parameters and
// body; names in the body resolve against the scopes live at call time.
type FuncValue struct {
	Decl *ast.Function
}

func (FuncValue) Kind() Kind { return KindFunction }
func (FuncValue) value()     {}

// Name returns the declared function name.
func (f FuncValue) Name() string { return f.Decl.Name }

// Params returns the parameter names in order.
func (f FuncValue) Params() []string { return f.Decl.Params }

// Body returns the function body.
func (f FuncValue) Body() ast.Expr { return f.Decl.Body }

// Binding is one name/value pair of a scope.
type Binding struct {
	Name  string
	Value Value
}

// ScopeValue is a scope frame turned into a value, bindings in declaration
// order.
type ScopeValue struct {
	Bindings []Binding
}

func (ScopeValue) Kind() Kind { return KindScope }
func (ScopeValue) value()     {}

// Get returns the value bound to name in the scope.
func (s ScopeValue) Get(name string) (Value, bool) {
	for _, b := range s.Bindings {
		if b.Name == name {
			return b.Value, true
		}
	}
	return nil, false
}

// NewNil creates a nil value.
func NewNil() Value {
	return NilValue{}
}

// NewBool creates a boolean value.
func NewBool(b bool) Value {
	return BoolValue{Value: b}
}

// NewInt creates an integer value.
func NewInt(n int64) Value {
	return IntValue{Value: n}
}

// NewFloat creates a float value.
func NewFloat(f float64) Value {
	return FloatValue{Value: f}
}

// NewString creates a string value.
func NewString(s string) Value {
	return StrValue{Value: s}
}

// NewFunc creates a function value from its declaration.
func NewFunc(decl *ast.Function) Value {
	return FuncValue{Decl: decl}
}

// --- Numbers ---

// Number is the coercion target shared by the numeric operators: either an
// integer or a float.
type Number struct {
	IsFloat bool
	Int     int64
	Float   float64
}

// AsNumber views v as a Number. Only Integer and Float values qualify.
func AsNumber(v Value) (Number, bool) {
	switch n := v.(type) {
	case IntValue:
		return Number{Int: n.Value}, true
	case FloatValue:
		return Number{IsFloat: true, Float: n.Value}, true
	}
	return Number{}, false
}

// AsFloat widens n to a float.
func (n Number) AsFloat() float64 {
	if n.IsFloat {
		return n.Float
	}
	return float64(n.Int)
}

// Value converts n back into a runtime value.
func (n Number) Value() Value {
	if n.IsFloat {
		return FloatValue{Value: n.Float}
	}
	return IntValue{Value: n.Int}
}

// Coerce brings two numbers to a common representation: both stay integers
// when both are integers, otherwise both become floats.
func Coerce(a, b Number) (Number, Number) {
	if !a.IsFloat && !b.IsFloat {
		return a, b
	}
	return Number{IsFloat: true, Float: a.AsFloat()}, Number{IsFloat: true, Float: b.AsFloat()}
}

// --- Equality ---

// Equal compares two values structurally. There is no numeric coercion:
// Integer(1) and Float(1.0) are different values.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	switch av := a.(type) {
	case NilValue:
		_, ok := b.(NilValue)
		return ok

	case BoolValue:
		bv, ok := b.(BoolValue)
		return ok && av.Value == bv.Value

	case IntValue:
		bv, ok := b.(IntValue)
		return ok && av.Value == bv.Value

	case FloatValue:
		bv, ok := b.(FloatValue)
		return ok && av.Value == bv.Value

	case StrValue:
		bv, ok := b.(StrValue)
		return ok && av.Value == bv.Value

	case FuncValue:
		bv, ok := b.(FuncValue)
		return ok && av.Decl == bv.Decl

	case ScopeValue:
		bv, ok := b.(ScopeValue)
		if !ok || len(av.Bindings) != len(bv.Bindings) {
			return false
		}
		for i := range av.Bindings {
			if av.Bindings[i].Name != bv.Bindings[i].Name || !Equal(av.Bindings[i].Value, bv.Bindings[i].Value) {
				return false
			}
		}
		return true
	}

	return false
}

// --- Display ---

// Inspect renders v the way the REPL echoes it.
func Inspect(v Value) string {
	switch val := v.(type) {
	case nil, NilValue:
		return "nil"
	case BoolValue:
		return strconv.FormatBool(val.Value)
	case IntValue:
		return strconv.FormatInt(val.Value, 10)
	case FloatValue:
		return ast.FormatFloat(val.Value)
	case StrValue:
		return strconv.Quote(val.Value)
	case FuncValue:
		return fmt.Sprintf("<fn %s(%s)>", val.Name(), strings.Join(val.Params(), ", "))
	case ScopeValue:
		parts := make([]string, len(val.Bindings))
		for i, b := range val.Bindings {
			parts[i] = b.Name + " = " + Inspect(b.Value)
		}
		return "{" + strings.Join(parts, "; ") + "}"
	}
	return fmt.Sprintf("<%T>", v)
}

// Describe renders v tagged with its kind, e.g. `Float(3.0)`.
func Describe(v Value) string {
	if v == nil {
		return "Nil"
	}
	switch v.Kind() {
	case KindNil:
		return "Nil"
	case KindFunction, KindScope:
		return v.Kind().String() + " " + Inspect(v)
	}
	return fmt.Sprintf("%s(%s)", v.Kind(), Inspect(v))
}
