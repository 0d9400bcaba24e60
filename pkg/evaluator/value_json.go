package evaluator

import (
	"encoding/json"
	"math"

	"github.com/thomasrohde/smoke/pkg/ast"
)

// ValueToJSON marshals a Value to JSON bytes.
// Scopes keep declaration order. Floats always carry a decimal point or
// exponent so they read back as floats; non-finite floats become strings.
func ValueToJSON(v Value) ([]byte, error) {
	raw := valueToRaw(v)
	return json.Marshal(raw)
}

func valueToRaw(v Value) any {
	if v == nil {
		return nil
	}

	switch val := v.(type) {
	case NilValue:
		return nil

	case BoolValue:
		return val.Value

	case IntValue:
		return val.Value

	case FloatValue:
		if math.IsInf(val.Value, 0) || math.IsNaN(val.Value) {
			return ast.FormatFloat(val.Value)
		}
		return json.Number(ast.FormatFloat(val.Value))

	case StrValue:
		return val.Value

	case FuncValue:
		params := val.Params()
		if params == nil {
			params = []string{}
		}
		return orderedObject{
			{key: "fn", raw: val.Name()},
			{key: "params", raw: params},
		}

	case ScopeValue:
		obj := make(orderedObject, len(val.Bindings))
		for i, b := range val.Bindings {
			obj[i] = entry{key: b.Name, raw: valueToRaw(b.Value)}
		}
		return obj
	}

	return nil
}

type entry struct {
	key string
	raw any
}

// orderedObject preserves key order in JSON output.
type orderedObject []entry

func (o orderedObject) MarshalJSON() ([]byte, error) {
	if len(o) == 0 {
		return []byte("{}"), nil
	}

	buf := []byte{'{'}
	for i, e := range o {
		if i > 0 {
			buf = append(buf, ',')
		}
		keyBytes, err := json.Marshal(e.key)
		if err != nil {
			return nil, err
		}
		buf = append(buf, keyBytes...)
		buf = append(buf, ':')

		valBytes, err := json.Marshal(e.raw)
		if err != nil {
			return nil, err
		}
		buf = append(buf, valBytes...)
	}
	buf = append(buf, '}')
	return buf, nil
}
