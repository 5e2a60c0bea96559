// Package ops provides a built-in operation registry for executing
// computation graphs whose call targets are scalar arithmetic. It backs the
// run command and is handy as a ready-made registry in tests.
//
// All operations work on float64. Integer arguments are widened, which keeps
// graphs imported from JSON (where every number decodes as float64) and
// graphs built in Go interchangeable.
package ops

import (
	"fmt"
	"math"

	"github.com/matzehuels/graphsplit/pkg/ir"
)

// Registry returns a fresh registry with all built-in operations. The
// returned map may be extended by the caller.
func Registry() ir.OpRegistry {
	return ir.OpRegistry{
		"add":  binary("add", func(a, b float64) float64 { return a + b }),
		"sub":  binary("sub", func(a, b float64) float64 { return a - b }),
		"mul":  binary("mul", func(a, b float64) float64 { return a * b }),
		"div":  divide,
		"pow":  binary("pow", math.Pow),
		"min":  binary("min", math.Min),
		"max":  binary("max", math.Max),
		"neg":  unary("neg", func(a float64) float64 { return -a }),
		"abs":  unary("abs", math.Abs),
		"relu": unary("relu", func(a float64) float64 { return math.Max(a, 0) }),
	}
}

func unary(name string, f func(float64) float64) ir.OpFunc {
	return func(args []any, _ map[string]any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("%s: want 1 argument, got %d", name, len(args))
		}
		a, err := toFloat(name, args[0])
		if err != nil {
			return nil, err
		}
		return f(a), nil
	}
}

func binary(name string, f func(float64, float64) float64) ir.OpFunc {
	return func(args []any, _ map[string]any) (any, error) {
		a, b, err := twoFloats(name, args)
		if err != nil {
			return nil, err
		}
		return f(a, b), nil
	}
}

func divide(args []any, _ map[string]any) (any, error) {
	a, b, err := twoFloats("div", args)
	if err != nil {
		return nil, err
	}
	if b == 0 {
		return nil, fmt.Errorf("div: division by zero")
	}
	return a / b, nil
}

func twoFloats(name string, args []any) (float64, float64, error) {
	if len(args) != 2 {
		return 0, 0, fmt.Errorf("%s: want 2 arguments, got %d", name, len(args))
	}
	a, err := toFloat(name, args[0])
	if err != nil {
		return 0, 0, err
	}
	b, err := toFloat(name, args[1])
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func toFloat(name string, v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("%s: want a number, got %T", name, v)
	}
}
