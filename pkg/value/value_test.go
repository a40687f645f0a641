package value_test

import (
	"encoding/json"
	"testing"

	"github.com/ecorun/ecolang/pkg/value"
)

func TestTruthy(t *testing.T) {
	tests := []struct {
		name string
		v    value.Value
		want bool
	}{
		{"zero int", value.NewInt(0), false},
		{"nonzero int", value.NewInt(3), true},
		{"zero float", value.NewFloat(0), false},
		{"nonzero float", value.NewFloat(0.5), true},
		{"false", value.NewBool(false), false},
		{"true", value.NewBool(true), true},
		{"empty string", value.NewStr(""), false},
		{"string", value.NewStr("x"), true},
		{"empty array", value.NewArray(nil), false},
		{"array", value.NewArray([]value.Value{value.NewInt(1)}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := value.Truthy(tt.v); got != tt.want {
				t.Errorf("Truthy(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestEqualNumeric(t *testing.T) {
	if !value.Equal(value.NewInt(2), value.NewFloat(2)) {
		t.Error("2 should equal 2.0")
	}
	if value.Equal(value.NewInt(2), value.NewStr("2")) {
		t.Error("2 should not equal \"2\"")
	}
}

func TestEqualArray(t *testing.T) {
	a := value.NewArray([]value.Value{value.NewInt(1), value.NewStr("x")})
	b := value.NewArray([]value.Value{value.NewInt(1), value.NewStr("x")})
	c := value.NewArray([]value.Value{value.NewInt(1)})
	if !value.Equal(a, b) {
		t.Error("equal arrays compared unequal")
	}
	if value.Equal(a, c) {
		t.Error("arrays of different length compared equal")
	}
}

func TestDisplay(t *testing.T) {
	tests := []struct {
		name string
		v    value.Value
		want string
	}{
		{"int", value.NewInt(8), "8"},
		{"negative int", value.NewInt(-3), "-3"},
		{"integral float", value.NewFloat(2), "2.0"},
		{"fractional float", value.NewFloat(0.5), "0.5"},
		{"bool", value.NewBool(true), "true"},
		{"string", value.NewStr("hi"), "hi"},
		{"array", value.NewArray([]value.Value{value.NewInt(1), value.NewStr("a")}), `[1, "a"]`},
		{"empty array", value.NewArray(nil), "[]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := value.Display(tt.v); got != tt.want {
				t.Errorf("Display = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFromInputs(t *testing.T) {
	inputs := value.FromInputs(map[string]any{
		"city":  "Aarhus",
		"count": float64(4),
		"ratio": 1.5,
		"flag":  true,
	})

	if s, ok := inputs["city"].(value.Str); !ok || s.Value != "Aarhus" {
		t.Errorf("city = %#v, want Str Aarhus", inputs["city"])
	}
	if n, ok := inputs["count"].(value.Int); !ok || n.Value != 4 {
		t.Errorf("count = %#v, want Int 4", inputs["count"])
	}
	if f, ok := inputs["ratio"].(value.Float); !ok || f.Value != 1.5 {
		t.Errorf("ratio = %#v, want Float 1.5", inputs["ratio"])
	}
	if b, ok := inputs["flag"].(value.Bool); !ok || !b.Value {
		t.Errorf("flag = %#v, want Bool true", inputs["flag"])
	}
}

func TestToJSONIntStaysIntegral(t *testing.T) {
	b, err := value.ToJSON(value.NewArray([]value.Value{value.NewInt(2), value.NewFloat(2.5)}))
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	if string(b) != "[2,2.5]" {
		t.Errorf("got %s, want [2,2.5]", b)
	}
}

func TestFromJSONWholeNumbersDecodeAsInt(t *testing.T) {
	v, err := value.FromJSON(json.RawMessage(`[3, 3.5, "x", true]`))
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	arr, ok := v.(value.Array)
	if !ok {
		t.Fatalf("got %#v, want Array", v)
	}
	if n, ok := arr.Items[0].(value.Int); !ok || n.Value != 3 {
		t.Errorf("item 0 = %#v, want Int 3", arr.Items[0])
	}
	if f, ok := arr.Items[1].(value.Float); !ok || f.Value != 3.5 {
		t.Errorf("item 1 = %#v, want Float 3.5", arr.Items[1])
	}
}
