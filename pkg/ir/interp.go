package ir

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// OpFunc implements one opaque operation for the interpreter.
type OpFunc func(args []any, kwargs map[string]any) (any, error)

// OpRegistry maps call_function targets to their implementations.
type OpRegistry map[string]OpFunc

// GetItemOp is the reserved call_function target for indexing into a
// multi-value result. It is built into the interpreter: the first argument
// must evaluate to a []any and the second must be an integer literal
// (int, or the whole float64 a JSON decode produces).
const GetItemOp = "getitem"

// Invoke evaluates the module's graph, binding args positionally to the
// graph's placeholders in declaration order.
func Invoke(m *Module, ops OpRegistry, args ...any) (any, error) {
	if m.graph == nil {
		return nil, errors.New("module has no graph")
	}
	phs := m.graph.Placeholders()
	if len(args) != len(phs) {
		return nil, fmt.Errorf("module takes %d inputs, got %d", len(phs), len(args))
	}
	inputs := make(map[string]any, len(phs))
	for i, p := range phs {
		inputs[p.Name] = args[i]
	}
	return Interpret(m, ops, inputs)
}

// Interpret evaluates the module's graph with placeholders bound by name.
// Sub-modules referenced by call_module nodes are evaluated recursively with
// positional arguments; callable attributes of type [OpFunc] are called
// directly. The [GetItemOp] function is always available.
//
// Interpret is the reference executor used by tests and the CLI run command;
// it makes no attempt at being fast.
func Interpret(m *Module, ops OpRegistry, inputs map[string]any) (any, error) {
	if m.graph == nil {
		return nil, errors.New("module has no graph")
	}

	env := make(map[*Node]any, m.graph.NodeCount())

	for _, n := range m.graph.Nodes() {
		switch n.Op {
		case OpPlaceholder:
			v, ok := inputs[n.Name]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrMissingInput, n.Name)
			}
			env[n] = v

		case OpGetAttr:
			v, err := m.resolveTarget(n.Target)
			if err != nil {
				return nil, err
			}
			env[n] = v

		case OpCallFunction:
			args, kwargs, err := evalCall(n, env)
			if err != nil {
				return nil, err
			}
			if n.Target == GetItemOp {
				v, err := getItem(args)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", n.Name, err)
				}
				env[n] = v
				continue
			}
			fn, ok := ops[n.Target]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownOp, n.Target)
			}
			v, err := fn(args, kwargs)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", n.Name, err)
			}
			env[n] = v

		case OpCallModule:
			attr, err := m.resolveTarget(n.Target)
			if err != nil {
				return nil, err
			}
			args, kwargs, err := evalCall(n, env)
			if err != nil {
				return nil, err
			}
			var v any
			switch fn := attr.(type) {
			case *Module:
				v, err = Invoke(fn, ops, args...)
			case OpFunc:
				v, err = fn(args, kwargs)
			default:
				return nil, fmt.Errorf("%w: %s", ErrNotCallable, n.Target)
			}
			if err != nil {
				return nil, fmt.Errorf("%s: %w", n.Name, err)
			}
			env[n] = v

		case OpOutput:
			v, err := evalArg(n.Args[0], env)
			if err != nil {
				return nil, err
			}
			env[n] = v
		}
	}

	return evalArg(m.graph.Result(), env)
}

// resolveTarget looks up a node target: exact attribute names win (registries
// may hold dotted names directly), otherwise the dotted path is walked.
func (m *Module) resolveTarget(target string) (any, error) {
	if v, ok := m.attrs[target]; ok {
		return v, nil
	}
	return m.Resolve(strings.Split(target, "."))
}

func evalCall(n *Node, env map[*Node]any) ([]any, map[string]any, error) {
	args := make([]any, len(n.Args))
	for i, a := range n.Args {
		v, err := evalArg(a, env)
		if err != nil {
			return nil, nil, err
		}
		args[i] = v
	}
	var kwargs map[string]any
	if len(n.Kwargs) > 0 {
		kwargs = make(map[string]any, len(n.Kwargs))
		for k, a := range n.Kwargs {
			v, err := evalArg(a, env)
			if err != nil {
				return nil, nil, err
			}
			kwargs[k] = v
		}
	}
	return args, kwargs, nil
}

func evalArg(a Arg, env map[*Node]any) (any, error) {
	switch v := a.(type) {
	case *Node:
		val, ok := env[v]
		if !ok {
			return nil, fmt.Errorf("node %s referenced before evaluation", v.Name)
		}
		return val, nil
	case []Arg:
		out := make([]any, len(v))
		for i, e := range v {
			val, err := evalArg(e, env)
			if err != nil {
				return nil, err
			}
			out[i] = val
		}
		return out, nil
	case map[string]Arg:
		out := make(map[string]any, len(v))
		for k, e := range v {
			val, err := evalArg(e, env)
			if err != nil {
				return nil, err
			}
			out[k] = val
		}
		return out, nil
	default:
		return a, nil
	}
}

func getItem(args []any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("getitem takes 2 arguments, got %d", len(args))
	}
	seq, ok := args[0].([]any)
	if !ok {
		return nil, fmt.Errorf("getitem: first argument is %T, not a sequence", args[0])
	}
	idx, ok := intIndex(args[1])
	if !ok {
		return nil, fmt.Errorf("getitem: index %v (%T) is not an integer", args[1], args[1])
	}
	if idx < 0 || idx >= len(seq) {
		return nil, fmt.Errorf("getitem: index %d out of range [0,%d)", idx, len(seq))
	}
	return seq[idx], nil
}

// intIndex widens a getitem index to int. Graphs decoded from JSON carry
// their indices as float64, so whole floats are accepted too.
func intIndex(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		if n == math.Trunc(n) {
			return int(n), true
		}
	}
	return 0, false
}
