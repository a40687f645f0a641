package expr

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ecorun/ecolang/pkg/value"
)

// builtinFn implements one whitelisted builtin. The returned Error, if
// any, has its column filled in by the call site.
type builtinFn func(args []value.Value, m Meter) (value.Value, *Error)

// builtins is the complete set of callable functions available to
// expressions. The table is fixed at compile time; nothing evaluated
// code does can extend it.
var builtins = map[string]builtinFn{
	"len":      builtinLength,
	"length":   builtinLength,
	"toNumber": builtinToNumber,
	"toString": builtinToString,
	"array":    builtinArray,
	"append":   builtinAppend,
	"at":       builtinAt,
	"ecoOps":   builtinEcoOps,
}

// IsBuiltin reports whether name is a callable builtin.
func IsBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}

func builtinLength(args []value.Value, _ Meter) (value.Value, *Error) {
	if len(args) != 1 {
		return nil, evalErr("length expects 1 arg", 0)
	}
	switch v := args[0].(type) {
	case value.Str:
		return value.NewInt(int64(utf8.RuneCountInString(v.Value))), nil
	case value.Array:
		return value.NewInt(int64(len(v.Items))), nil
	}
	return nil, evalErr("length expects a string or array", 0)
}

// builtinToNumber converts strings and numbers to a number. A string
// containing '.' parses as a float; any other string parses as an
// integer; floats truncate toward zero.
func builtinToNumber(args []value.Value, _ Meter) (value.Value, *Error) {
	if len(args) != 1 {
		return nil, evalErr("toNumber expects 1 arg", 0)
	}
	switch v := args[0].(type) {
	case value.Str:
		text := strings.TrimSpace(v.Value)
		if strings.Contains(text, ".") {
			f, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, evalErr("toNumber failed", 0)
			}
			return value.NewFloat(f), nil
		}
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, evalErr("toNumber failed", 0)
		}
		return value.NewInt(n), nil
	case value.Int:
		return v, nil
	case value.Float:
		return value.NewInt(int64(v.Value)), nil
	case value.Bool:
		if v.Value {
			return value.NewInt(1), nil
		}
		return value.NewInt(0), nil
	}
	return nil, evalErr("toNumber failed", 0)
}

func builtinToString(args []value.Value, _ Meter) (value.Value, *Error) {
	if len(args) != 1 {
		return nil, evalErr("toString expects 1 arg", 0)
	}
	return value.NewStr(value.Display(args[0])), nil
}

func builtinArray(args []value.Value, _ Meter) (value.Value, *Error) {
	if len(args) != 0 {
		return nil, evalErr("array expects 0 args", 0)
	}
	return value.NewArray(nil), nil
}

// builtinAppend returns a new array; the argument array is never
// mutated.
func builtinAppend(args []value.Value, _ Meter) (value.Value, *Error) {
	if len(args) != 2 {
		return nil, evalErr("append expects 2 args", 0)
	}
	arr, ok := args[0].(value.Array)
	if !ok {
		return nil, evalErr("append first arg must be array", 0)
	}
	items := make([]value.Value, 0, len(arr.Items)+1)
	items = append(items, arr.Items...)
	items = append(items, args[1])
	return value.NewArray(items), nil
}

func builtinAt(args []value.Value, _ Meter) (value.Value, *Error) {
	if len(args) != 2 {
		return nil, evalErr("at expects 2 args", 0)
	}
	arr, ok := args[0].(value.Array)
	if !ok {
		return nil, evalErr("at first arg must be array", 0)
	}
	if !value.IsNumber(args[1]) {
		return nil, evalErr("index out of range", 0)
	}
	idx := int64(numOf(args[1]))
	if idx < 0 || idx >= int64(len(arr.Items)) {
		return nil, evalErr("index out of range", 0)
	}
	return arr.Items[idx], nil
}

func builtinEcoOps(args []value.Value, m Meter) (value.Value, *Error) {
	if len(args) != 0 {
		return nil, evalErr("ecoOps expects 0 args", 0)
	}
	return value.NewInt(m.Ops()), nil
}
