// Package builtins holds the standard providers: loop position helpers,
// site-wide globals and configured literals.
package builtins

import (
	"github.com/sambeau/viewscope/pkg/viewscope/errors"
	"github.com/sambeau/viewscope/pkg/viewscope/item"
	"github.com/sambeau/viewscope/pkg/viewscope/provider"
)

// BasicIterator exposes the loop position to templates: $First, $Last,
// $EvenOdd, $Pos, $Modulus(3) and so on.
type BasicIterator struct {
	pos     int
	total   int
	methods provider.MethodTable
}

// NewBasicIterator is the factory registered with provider.Registry.AddIterator.
func NewBasicIterator() provider.IteratorProvider {
	it := &BasicIterator{total: 1}
	it.methods = it.table()
	return it
}

// TemplateIteratorVariables implements provider.IteratorProvider.
func (it *BasicIterator) TemplateIteratorVariables() []provider.Variable {
	return provider.Methods(it.methods.Names()...)
}

// SetIteratorProperties implements provider.IteratorProvider.
func (it *BasicIterator) SetIteratorProperties(pos, total int) {
	it.pos, it.total = pos, total
}

// CallTemplateMethod implements provider.Invoker.
func (it *BasicIterator) CallTemplateMethod(method string, args []any) (any, error) {
	return it.methods.Call("BasicIterator", method, args)
}

func (it *BasicIterator) first() bool { return it.pos == 0 }
func (it *BasicIterator) last() bool  { return it.pos == it.total-1 }

// odd counts from start, so that with the default of 1 the first item is odd.
func (it *BasicIterator) odd(start int) bool { return (it.pos+start)%2 != 0 }

func (it *BasicIterator) table() provider.MethodTable {
	flag := func(fn func() bool) provider.MethodFunc {
		return func(args []any) (any, error) { return fn(), nil }
	}
	word := func(fn func() bool, w string) provider.MethodFunc {
		return func(args []any) (any, error) {
			if fn() {
				return w, nil
			}
			return "", nil
		}
	}
	middle := func() bool { return !it.first() && !it.last() }

	return provider.MethodTable{
		"First":        {Fn: flag(it.first), Arity: "0"},
		"Last":         {Fn: flag(it.last), Arity: "0"},
		"Middle":       {Fn: flag(middle), Arity: "0"},
		"MiddleString": {Fn: word(middle, "middle"), Arity: "0"},
		"FirstLast": {
			Fn: func(args []any) (any, error) {
				switch {
				case it.first() && it.last():
					return "first last", nil
				case it.first():
					return "first", nil
				case it.last():
					return "last", nil
				}
				return "", nil
			},
			Arity: "0",
		},
		"Even": {
			Fn: func(args []any) (any, error) {
				start, err := optInt("Even", args, 0, 1)
				return !it.odd(start), err
			},
			Arity: "0-1",
		},
		"Odd": {
			Fn: func(args []any) (any, error) {
				start, err := optInt("Odd", args, 0, 1)
				return it.odd(start), err
			},
			Arity: "0-1",
		},
		"EvenOdd": {
			Fn: func(args []any) (any, error) {
				start, err := optInt("EvenOdd", args, 0, 1)
				if it.odd(start) {
					return "odd", err
				}
				return "even", err
			},
			Arity: "0-1",
		},
		"Pos": {
			Fn: func(args []any) (any, error) {
				start, err := optInt("Pos", args, 0, 1)
				return it.pos + start, err
			},
			Arity:       "0-1",
			Description: "position counting from start (default 1)",
		},
		"FromEnd": {
			Fn: func(args []any) (any, error) {
				end, err := optInt("FromEnd", args, 0, 1)
				return it.total - it.pos - 1 + end, err
			},
			Arity:       "0-1",
			Description: "position counting back from the last item",
		},
		"TotalItems": {
			Fn:    func(args []any) (any, error) { return it.total, nil },
			Arity: "0",
		},
		"Modulus": {
			Fn: func(args []any) (any, error) {
				mod, err := optInt("Modulus", args, 0, 0)
				if err != nil {
					return nil, err
				}
				start, err := optInt("Modulus", args, 1, 1)
				if err != nil {
					return nil, err
				}
				if mod == 0 {
					return nil, errors.NewArgType("Modulus", 0, "a non-zero integer", args[0])
				}
				return (it.pos + start) % mod, nil
			},
			Arity: "1-2",
		},
		"MultipleOf": {
			Fn: func(args []any) (any, error) {
				factor, err := optInt("MultipleOf", args, 0, 0)
				if err != nil {
					return nil, err
				}
				offset, err := optInt("MultipleOf", args, 1, 1)
				if err != nil {
					return nil, err
				}
				if factor == 0 {
					return nil, errors.NewArgType("MultipleOf", 0, "a non-zero integer", args[0])
				}
				return (it.pos+offset)%factor == 0, nil
			},
			Arity: "1-2",
		},
	}
}

// optInt returns args[i] as an int, or def when the argument is absent.
func optInt(function string, args []any, i, def int) (int, error) {
	if i >= len(args) {
		return def, nil
	}
	n, ok := item.ToInt(args[i])
	if !ok {
		return 0, errors.NewArgType(function, i, "an integer", args[i])
	}
	return n, nil
}
