package value

import (
	"encoding/json"
	"math"
)

// ToJSON marshals a Value to JSON bytes. Integers output without a
// decimal point.
func ToJSON(v Value) ([]byte, error) {
	return json.Marshal(toRaw(v))
}

func toRaw(v Value) any {
	if v == nil {
		return nil
	}

	switch val := v.(type) {
	case Int:
		return val.Value

	case Float:
		return val.Value

	case Bool:
		return val.Value

	case Str:
		return val.Value

	case Array:
		items := make([]any, len(val.Items))
		for i, item := range val.Items {
			items[i] = toRaw(item)
		}
		return items
	}

	return nil
}

// FromJSON converts a JSON value to a Value. Whole JSON numbers decode as
// Int so run inputs keep integer identity.
func FromJSON(data json.RawMessage) (Value, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return fromRaw(raw), nil
}

// FromInputs converts a decoded JSON object into a run-inputs map.
func FromInputs(raw map[string]any) map[string]Value {
	inputs := make(map[string]Value, len(raw))
	for k, v := range raw {
		inputs[k] = fromRaw(v)
	}
	return inputs
}

func fromRaw(v any) Value {
	switch val := v.(type) {
	case bool:
		return NewBool(val)
	case float64:
		if val == math.Trunc(val) && val >= math.MinInt64 && val <= math.MaxInt64 {
			return NewInt(int64(val))
		}
		return NewFloat(val)
	case string:
		return NewStr(val)
	case []any:
		items := make([]Value, len(val))
		for i, item := range val {
			items[i] = fromRaw(item)
		}
		return NewArray(items)
	}
	// Objects and nulls have no EcoLang value type; callers treat them
	// as the empty string input.
	return NewStr("")
}
