package expr

import (
	"fmt"
	"math"

	"github.com/ecorun/ecolang/pkg/value"
)

// Env resolves variable names during evaluation. Constants and function
// parameters are provided through the same interface; the evaluator
// never writes back.
type Env interface {
	Lookup(name string) (value.Value, bool)
}

// Meter records the operation cost of evaluation. Every visited node
// charges one math op; whitelisted builtin calls charge one extra op in
// the general category.
type Meter interface {
	ChargeMath()
	ChargeCall()
	Ops() int64
}

// Eval computes the value of a parsed expression. Errors carry the
// column of the failing node; callers translate them into diagnostics
// with full line positions.
func Eval(node Node, env Env, m Meter) (value.Value, *Error) {
	m.ChargeMath()
	switch n := node.(type) {
	case *IntLit:
		return value.NewInt(n.Value), nil
	case *FloatLit:
		return value.NewFloat(n.Value), nil
	case *BoolLit:
		return value.NewBool(n.Value), nil
	case *StrLit:
		return value.NewStr(n.Value), nil
	case *Ident:
		v, ok := env.Lookup(n.Name)
		if !ok {
			return nil, evalErr(fmt.Sprintf("Undefined variable '%s'", n.Name), n.Col)
		}
		return v, nil
	case *Binary:
		return evalBinary(n, env, m)
	case *Compare:
		return evalCompare(n, env, m)
	case *Logic:
		return evalLogic(n, env, m)
	case *Unary:
		return evalUnary(n, env, m)
	case *Call:
		return evalCall(n, env, m)
	}
	return nil, evalErr("Unsupported expression", node.Pos())
}

// numOf returns the float64 form of a value already known to be numeric.
func numOf(v value.Value) float64 {
	f, _ := value.AsFloat(v)
	return f
}

func evalBinary(n *Binary, env Env, m Meter) (value.Value, *Error) {
	left, err := Eval(n.Left, env, m)
	if err != nil {
		return nil, err
	}
	right, err := Eval(n.Right, env, m)
	if err != nil {
		return nil, err
	}

	if n.Op == OpAdd {
		// String concatenation coerces the other side to its display
		// form, so say "x = " + 3 works without explicit toString.
		_, lStr := left.(value.Str)
		_, rStr := right.(value.Str)
		if lStr || rStr {
			return value.NewStr(asConcat(left) + asConcat(right)), nil
		}
	}

	if !value.IsNumber(left) || !value.IsNumber(right) {
		return nil, evalErr(fmt.Sprintf("Unsupported operands for '%s': %s and %s",
			n.Op, value.TypeName(left), value.TypeName(right)), n.Col)
	}

	li, lInt := left.(value.Int)
	ri, rInt := right.(value.Int)
	bothInt := lInt && rInt

	switch n.Op {
	case OpAdd:
		if bothInt {
			return value.NewInt(li.Value + ri.Value), nil
		}
		return value.NewFloat(numOf(left) + numOf(right)), nil

	case OpSub:
		if bothInt {
			return value.NewInt(li.Value - ri.Value), nil
		}
		return value.NewFloat(numOf(left) - numOf(right)), nil

	case OpMul:
		if bothInt {
			return value.NewInt(li.Value * ri.Value), nil
		}
		return value.NewFloat(numOf(left) * numOf(right)), nil

	case OpDiv:
		rf := numOf(right)
		if rf == 0 {
			return nil, evalErr("Division by zero", n.Col)
		}
		return value.NewFloat(numOf(left) / rf), nil

	case OpFloorDiv:
		if bothInt {
			if ri.Value == 0 {
				return nil, evalErr("Division by zero", n.Col)
			}
			return value.NewInt(floorDivInt(li.Value, ri.Value)), nil
		}
		rf := numOf(right)
		if rf == 0 {
			return nil, evalErr("Division by zero", n.Col)
		}
		return value.NewFloat(math.Floor(numOf(left) / rf)), nil

	case OpMod:
		if bothInt {
			if ri.Value == 0 {
				return nil, evalErr("Division by zero", n.Col)
			}
			return value.NewInt(modInt(li.Value, ri.Value)), nil
		}
		rf := numOf(right)
		if rf == 0 {
			return nil, evalErr("Division by zero", n.Col)
		}
		lf := numOf(left)
		return value.NewFloat(lf - math.Floor(lf/rf)*rf), nil

	case OpPow:
		if math.Abs(numOf(right)) > 8 {
			return nil, evalErr("Exponent too large; max 8", n.Col)
		}
		if bothInt && ri.Value >= 0 {
			if res, ok := powInt(li.Value, ri.Value); ok {
				return value.NewInt(res), nil
			}
		}
		return value.NewFloat(math.Pow(numOf(left), numOf(right))), nil
	}

	return nil, evalErr(fmt.Sprintf("Unsupported binary op '%s'", n.Op), n.Col)
}

// asConcat renders a value for string concatenation.
func asConcat(v value.Value) string {
	if s, ok := v.(value.Str); ok {
		return s.Value
	}
	return value.Display(v)
}

// floorDivInt implements floored integer division, matching the sign
// convention where -7 // 2 == -4.
func floorDivInt(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// modInt implements floored modulo: the result takes the sign of the
// divisor, so -7 % 3 == 2.
func modInt(a, b int64) int64 {
	r := a % b
	if r != 0 && ((r < 0) != (b < 0)) {
		r += b
	}
	return r
}

// powInt computes base**exp for a non-negative exponent. ok is false
// when the result overflows int64; the caller falls back to float.
func powInt(base, exp int64) (int64, bool) {
	var result int64 = 1
	for i := int64(0); i < exp; i++ {
		prev := result
		result *= base
		if base != 0 && result/base != prev {
			return 0, false
		}
	}
	return result, true
}

func evalCompare(n *Compare, env Env, m Meter) (value.Value, *Error) {
	left, err := Eval(n.Left, env, m)
	if err != nil {
		return nil, err
	}
	right, err := Eval(n.Right, env, m)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case OpEq:
		return value.NewBool(value.Equal(left, right)), nil
	case OpNeq:
		return value.NewBool(!value.Equal(left, right)), nil
	}

	// Ordering requires both operands to be numbers or both strings.
	if value.IsNumber(left) && value.IsNumber(right) {
		lf, rf := numOf(left), numOf(right)
		return value.NewBool(orderHolds(n.Op, lf < rf, lf == rf)), nil
	}
	ls, lok := left.(value.Str)
	rs, rok := right.(value.Str)
	if lok && rok {
		return value.NewBool(orderHolds(n.Op, ls.Value < rs.Value, ls.Value == rs.Value)), nil
	}
	return nil, evalErr(fmt.Sprintf("Cannot compare %s and %s",
		value.TypeName(left), value.TypeName(right)), n.Col)
}

func orderHolds(op CompareOp, less, equal bool) bool {
	switch op {
	case OpLt:
		return less
	case OpLtEq:
		return less || equal
	case OpGt:
		return !less && !equal
	case OpGtEq:
		return !less
	}
	return false
}

func evalLogic(n *Logic, env Env, m Meter) (value.Value, *Error) {
	left, err := Eval(n.Left, env, m)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case OpAnd:
		if !value.Truthy(left) {
			return value.NewBool(false), nil
		}
		right, err := Eval(n.Right, env, m)
		if err != nil {
			return nil, err
		}
		return value.NewBool(value.Truthy(right)), nil
	case OpOr:
		if value.Truthy(left) {
			return value.NewBool(true), nil
		}
		right, err := Eval(n.Right, env, m)
		if err != nil {
			return nil, err
		}
		return value.NewBool(value.Truthy(right)), nil
	}
	return nil, evalErr("Unsupported boolean op", n.Col)
}

func evalUnary(n *Unary, env Env, m Meter) (value.Value, *Error) {
	operand, err := Eval(n.Operand, env, m)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case OpNot:
		return value.NewBool(!value.Truthy(operand)), nil
	case OpPos, OpNeg:
		if !value.IsNumber(operand) {
			return nil, evalErr(fmt.Sprintf("Unary '%s' requires a number, got %s",
				n.Op, value.TypeName(operand)), n.Col)
		}
		if n.Op == OpPos {
			return operand, nil
		}
		if i, ok := operand.(value.Int); ok {
			return value.NewInt(-i.Value), nil
		}
		return value.NewFloat(-numOf(operand)), nil
	}
	return nil, evalErr("Unsupported unary op", n.Col)
}

func evalCall(n *Call, env Env, m Meter) (value.Value, *Error) {
	fn, ok := builtins[n.Name]
	if !ok {
		return nil, evalErr(fmt.Sprintf("Unsupported function call '%s'", n.Name), n.Col)
	}
	args := make([]value.Value, len(n.Args))
	for i, a := range n.Args {
		v, err := Eval(a, env, m)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	m.ChargeCall()
	result, err := fn(args, m)
	if err != nil {
		err.Col = n.Col
		return nil, err
	}
	return result, nil
}
