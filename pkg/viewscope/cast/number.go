package cast

import (
	"math"
	"strconv"

	"golang.org/x/text/currency"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/sambeau/viewscope/pkg/viewscope/item"
	"github.com/sambeau/viewscope/pkg/viewscope/provider"
)

func (f *Field) float() float64 {
	v, _ := item.ToFloat(f.value)
	return v
}

func numberExists(f *Field) bool { return f.float() != 0 }

func newBoolean(r *Registry, name string) *Field {
	truth := func(f *Field) bool {
		switch v := f.value.(type) {
		case string:
			b, err := strconv.ParseBool(v)
			return err == nil && b
		}
		return item.Truthy(f.value)
	}
	f := &Field{
		render: func(f *Field) string {
			if truth(f) {
				return "1"
			}
			return "0"
		},
		exists: truth,
	}
	f.methods = provider.MethodTable{
		"Nice": {
			Fn: func(args []any) (any, error) {
				if truth(f) {
					return "yes", nil
				}
				return "no", nil
			},
			Arity: "0",
		},
		"NiceAsBoolean": {
			Fn:    func(args []any) (any, error) { return strconv.FormatBool(truth(f)), nil },
			Arity: "0",
		},
	}
	return f
}

func newInt(r *Registry, name string) *Field {
	f := &Field{
		render: func(f *Field) string { return strconv.FormatInt(int64(f.float()), 10) },
		exists: numberExists,
	}
	nice := func(args []any) (any, error) {
		p := message.NewPrinter(r.tag())
		return p.Sprintf("%v", number.Decimal(int64(f.float()))), nil
	}
	f.methods = provider.MethodTable{
		"Nice":      {Fn: nice, Arity: "0", Description: "digits grouped for the locale"},
		"Formatted": {Fn: nice, Arity: "0"},
		"Times": {
			Fn: func(args []any) (any, error) {
				n := int(f.float())
				if n < 0 {
					n = 0
				}
				out := make([]any, n)
				for i := range out {
					out[i] = i + 1
				}
				return item.NewList(out...), nil
			},
			Arity:       "0",
			Description: "a list 1..n for looping",
		},
	}
	return f
}

func newDecimal(r *Registry, name string) *Field {
	f := &Field{
		render: func(f *Field) string { return strconv.FormatFloat(f.float(), 'f', 2, 64) },
		exists: numberExists,
	}
	f.methods = provider.MethodTable{
		"Nice": {
			Fn: func(args []any) (any, error) {
				scale := 2
				if len(args) > 0 {
					var err error
					if scale, err = intArg("Nice", args, 0); err != nil {
						return nil, err
					}
				}
				p := message.NewPrinter(r.tag())
				return p.Sprintf("%v", number.Decimal(f.float(), number.Scale(scale))), nil
			},
			Arity: "0-1",
		},
		"Int": {
			Fn:    func(args []any) (any, error) { return int(math.Round(f.float())), nil },
			Arity: "0",
		},
	}
	return f
}

func newCurrency(r *Registry, name string) *Field {
	unit, err := currency.ParseISO(r.currency)
	if err != nil {
		unit = currency.USD
	}
	nice := func(f *Field) string {
		p := message.NewPrinter(r.tag())
		return p.Sprintf("%v", currency.Symbol(unit.Amount(f.float())))
	}
	f := &Field{
		render: nice,
		exists: numberExists,
	}
	f.methods = provider.MethodTable{
		"Nice": {
			Fn:    func(args []any) (any, error) { return nice(f), nil },
			Arity: "0",
		},
		"ISO": {
			Fn: func(args []any) (any, error) {
				p := message.NewPrinter(r.tag())
				return p.Sprintf("%v", currency.ISO(unit.Amount(f.float()))), nil
			},
			Arity: "0",
		},
		"Amount": {
			Fn:    func(args []any) (any, error) { return f.float(), nil },
			Arity: "0",
		},
	}
	return f
}

func newPercentage(r *Registry, name string) *Field {
	nice := func(f *Field) string {
		p := message.NewPrinter(r.tag())
		return p.Sprintf("%v", number.Percent(f.float()))
	}
	f := &Field{
		render: nice,
		exists: numberExists,
	}
	f.methods = provider.MethodTable{
		"Nice": {
			Fn:    func(args []any) (any, error) { return nice(f), nil },
			Arity: "0",
		},
	}
	return f
}
