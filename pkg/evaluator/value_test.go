package evaluator_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomasrohde/smoke/pkg/ast"
	"github.com/thomasrohde/smoke/pkg/evaluator"
)

func TestNewValues(t *testing.T) {
	fn := &ast.Function{Name: "f"}
	tests := []struct {
		value evaluator.Value
		kind  evaluator.Kind
	}{
		{evaluator.NewNil(), evaluator.KindNil},
		{evaluator.NewBool(true), evaluator.KindBool},
		{evaluator.NewInt(42), evaluator.KindInteger},
		{evaluator.NewFloat(3.14), evaluator.KindFloat},
		{evaluator.NewString("hello"), evaluator.KindString},
		{evaluator.NewFunc(fn), evaluator.KindFunction},
		{evaluator.ScopeValue{}, evaluator.KindScope},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.value.Kind())
		})
	}
}

func TestEqualIsStructural(t *testing.T) {
	fnA := &ast.Function{Name: "f"}
	fnB := &ast.Function{Name: "f"}
	scope := func(v int64) evaluator.Value {
		return evaluator.ScopeValue{Bindings: []evaluator.Binding{{Name: "x", Value: evaluator.NewInt(v)}}}
	}

	tests := []struct {
		name string
		a, b evaluator.Value
		want bool
	}{
		{"nil", evaluator.NewNil(), evaluator.NewNil(), true},
		{"bools", evaluator.NewBool(true), evaluator.NewBool(true), true},
		{"different bools", evaluator.NewBool(true), evaluator.NewBool(false), false},
		{"ints", evaluator.NewInt(1), evaluator.NewInt(1), true},
		{"int vs float", evaluator.NewInt(1), evaluator.NewFloat(1), false},
		{"floats", evaluator.NewFloat(0.5), evaluator.NewFloat(0.5), true},
		{"nan", evaluator.NewFloat(math.NaN()), evaluator.NewFloat(math.NaN()), false},
		{"strings", evaluator.NewString("a"), evaluator.NewString("a"), true},
		{"nil vs bool", evaluator.NewNil(), evaluator.NewBool(false), false},
		{"same function", evaluator.NewFunc(fnA), evaluator.NewFunc(fnA), true},
		{"different function", evaluator.NewFunc(fnA), evaluator.NewFunc(fnB), false},
		{"scopes", scope(1), scope(1), true},
		{"different scopes", scope(1), scope(2), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, evaluator.Equal(tt.a, tt.b))
		})
	}
}

func TestCoerce(t *testing.T) {
	i, _ := evaluator.AsNumber(evaluator.NewInt(2))
	f, _ := evaluator.AsNumber(evaluator.NewFloat(0.5))

	a, b := evaluator.Coerce(i, i)
	assert.False(t, a.IsFloat)
	assert.False(t, b.IsFloat)

	a, b = evaluator.Coerce(i, f)
	assert.True(t, a.IsFloat)
	assert.True(t, b.IsFloat)
	assert.Equal(t, 2.0, a.Float)
	assert.Equal(t, evaluator.NewFloat(2), a.Value())

	_, ok := evaluator.AsNumber(evaluator.NewString("1"))
	assert.False(t, ok)
}

func TestInspect(t *testing.T) {
	fn := &ast.Function{Name: "add", Params: []string{"a", "b"}}
	assert.Equal(t, "nil", evaluator.Inspect(evaluator.NewNil()))
	assert.Equal(t, "true", evaluator.Inspect(evaluator.NewBool(true)))
	assert.Equal(t, "-7", evaluator.Inspect(evaluator.NewInt(-7)))
	assert.Equal(t, "3.0", evaluator.Inspect(evaluator.NewFloat(3)))
	assert.Equal(t, `"hi"`, evaluator.Inspect(evaluator.NewString("hi")))
	assert.Equal(t, "<fn add(a, b)>", evaluator.Inspect(evaluator.NewFunc(fn)))
	assert.Equal(t, "{x = 1; y = nil}", evaluator.Inspect(evaluator.ScopeValue{Bindings: []evaluator.Binding{
		{Name: "x", Value: evaluator.NewInt(1)},
		{Name: "y", Value: evaluator.NewNil()},
	}}))
}

func TestDescribeValue(t *testing.T) {
	assert.Equal(t, "Float(3.0)", evaluator.Describe(evaluator.NewFloat(3)))
	assert.Equal(t, "Integer(2)", evaluator.Describe(evaluator.NewInt(2)))
	assert.Equal(t, "Nil", evaluator.Describe(evaluator.NewNil()))
	assert.Equal(t, `String("s")`, evaluator.Describe(evaluator.NewString("s")))
}

func TestValueToJSON(t *testing.T) {
	fn := &ast.Function{Name: "add", Params: []string{"a", "b"}}
	tests := []struct {
		name  string
		value evaluator.Value
		want  string
	}{
		{"nil", evaluator.NewNil(), "null"},
		{"bool", evaluator.NewBool(false), "false"},
		{"int", evaluator.NewInt(5), "5"},
		{"whole float", evaluator.NewFloat(3), "3.0"},
		{"float", evaluator.NewFloat(0.25), "0.25"},
		{"inf", evaluator.NewFloat(math.Inf(-1)), `"-Inf"`},
		{"string", evaluator.NewString("a\"b"), `"a\"b"`},
		{"function", evaluator.NewFunc(fn), `{"fn":"add","params":["a","b"]}`},
		{"nullary function", evaluator.NewFunc(&ast.Function{Name: "k"}), `{"fn":"k","params":[]}`},
		{"empty scope", evaluator.ScopeValue{}, "{}"},
		{"scope keeps order", evaluator.ScopeValue{Bindings: []evaluator.Binding{
			{Name: "z", Value: evaluator.NewInt(1)},
			{Name: "a", Value: evaluator.NewFloat(2)},
		}}, `{"z":1,"a":2.0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := evaluator.ValueToJSON(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}
