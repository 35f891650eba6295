package lookup

import (
	"github.com/sambeau/viewscope/pkg/viewscope/stack"
)

// Scope is the presenter surface a chain runs against.
type Scope interface {
	Locally() *stack.Scope
	ResetLocalScope()
	Obj(name string, args []any) error
	Self() any
	XMLVal(property string, args []any) (string, error)
	HasValue(property string, args []any) (bool, error)
	PushScope()
	PopScope() error
	Next() (int, bool, error)
}

func evalArgs(s Scope, args []Arg) ([]any, error) {
	if len(args) == 0 {
		return nil, nil
	}
	out := make([]any, len(args))
	for i, a := range args {
		if a.Chain == nil {
			out[i] = a.Literal
			continue
		}
		v, err := a.Chain.Value(s)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// walk starts a lookup chain and moves through steps. On error the chain
// is ended.
func walk(s Scope, steps []Step) error {
	s.Locally()
	for _, step := range steps {
		args, err := evalArgs(s, step.Args)
		if err == nil {
			err = s.Obj(step.Name, args)
		}
		if err != nil {
			s.ResetLocalScope()
			return err
		}
	}
	return nil
}

func isNavigation(name string) bool { return name == "Up" || name == "Top" }

// Value renders the chain: every step but the last is entered with Obj and
// the last is rendered with XML_val.
func (c *Chain) Value(s Scope) (string, error) {
	last := c.Steps[len(c.Steps)-1]
	if isNavigation(last.Name) {
		if err := walk(s, c.Steps); err != nil {
			return "", err
		}
		return stack.Render(s.Self())
	}

	if err := walk(s, c.Steps[:len(c.Steps)-1]); err != nil {
		return "", err
	}
	args, err := evalArgs(s, last.Args)
	if err != nil {
		s.ResetLocalScope()
		return "", err
	}
	return s.XMLVal(last.Name, args)
}

// Has reports whether the chain's final value exists.
func (c *Chain) Has(s Scope) (bool, error) {
	last := c.Steps[len(c.Steps)-1]
	if err := walk(s, c.Steps[:len(c.Steps)-1]); err != nil {
		return false, err
	}
	args, err := evalArgs(s, last.Args)
	if err != nil {
		s.ResetLocalScope()
		return false, err
	}
	return s.HasValue(last.Name, args)
}

// Enter opens a block on the chain's value. Each successful Enter must be
// matched by a PopScope.
func Enter(s Scope, c *Chain) error {
	if err := walk(s, c.Steps); err != nil {
		return err
	}
	s.PushScope()
	return nil
}

// With runs fn with the chain's value as the current scope.
func With(s Scope, c *Chain, fn func() error) error {
	if err := Enter(s, c); err != nil {
		return err
	}
	err := fn()
	if popErr := s.PopScope(); err == nil {
		err = popErr
	}
	return err
}

// Loop runs fn once per element of the chain's value, with the element as
// the current scope.
func Loop(s Scope, c *Chain, fn func(i int) error) error {
	if err := Enter(s, c); err != nil {
		return err
	}

	var err error
	for {
		var (
			i  int
			ok bool
		)
		if i, ok, err = s.Next(); err != nil || !ok {
			break
		}
		if err = fn(i); err != nil {
			break
		}
	}
	if popErr := s.PopScope(); err == nil {
		err = popErr
	}
	return err
}
