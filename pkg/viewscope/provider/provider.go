// Package provider builds the global and iterator property registries that
// inject template-wide values into every scope.
package provider

import (
	"fmt"
	"sync"

	"github.com/sambeau/viewscope/pkg/viewscope/errors"
)

// Invoker dispatches a provider method by name. It is the callable half of
// an Invocable descriptor.
type Invoker interface {
	CallTemplateMethod(method string, args []any) (any, error)
}

// GlobalProvider exposes template globals.
type GlobalProvider interface {
	TemplateGlobalVariables() []Variable
}

// IteratorProvider exposes position-aware properties. SetIteratorProperties
// is called with the loop position and total before every property access.
type IteratorProvider interface {
	Invoker
	TemplateIteratorVariables() []Variable
	SetIteratorProperties(pos, total int)
}

// Variable is one exposed name as returned by a provider.
//
// A Variable with a Method is invoked through the provider; a Variable with
// Literal set yields Value directly. Name defaults to Method.
type Variable struct {
	Name    string
	Method  string
	Value   any
	Literal bool
	Casting string
}

// Methods exposes methods under their own names.
func Methods(names ...string) []Variable {
	vars := make([]Variable, len(names))
	for i, n := range names {
		vars[i] = Variable{Name: n, Method: n}
	}
	return vars
}

// Alias exposes method under a different template name.
func Alias(name, method string) Variable {
	return Variable{Name: name, Method: method}
}

// Value exposes a literal value.
func Value(name string, v any, casting string) Variable {
	return Variable{Name: name, Value: v, Literal: true, Casting: casting}
}

// Descriptor is a resolved registry entry: either a *Literal or an *Invocable.
type Descriptor interface {
	DescriptorName() string
	Casting() string
	Implementer() any
}

// Literal is a descriptor with a static value.
type Literal struct {
	Name        string
	Value       any
	Cast        string
	implementer any
}

func (d *Literal) DescriptorName() string { return d.Name }
func (d *Literal) Casting() string        { return d.Cast }
func (d *Literal) Implementer() any       { return d.implementer }

// Invocable is a descriptor resolved by calling Method on its implementer.
type Invocable struct {
	Name        string
	Method      string
	Cast        string
	implementer any
	call        func(args []any) (any, error)
}

func (d *Invocable) DescriptorName() string { return d.Name }
func (d *Invocable) Casting() string        { return d.Cast }
func (d *Invocable) Implementer() any       { return d.implementer }

// Callable reports whether the descriptor has something to call.
func (d *Invocable) Callable() bool { return d.call != nil }

func newDescriptor(v Variable, implementer any, defaultCast string) (Descriptor, string, error) {
	name := v.Name
	if name == "" {
		name = v.Method
	}
	if name == "" {
		return nil, "", errors.New("CONF-0004", map[string]any{"Provider": fmt.Sprintf("%T", implementer)})
	}

	if v.Method != "" {
		cast := v.Casting
		if cast == "" {
			cast = defaultCast
		}
		d := &Invocable{Name: name, Method: v.Method, Cast: cast, implementer: implementer}
		if inv, ok := implementer.(Invoker); ok {
			method := v.Method
			d.call = func(args []any) (any, error) {
				return inv.CallTemplateMethod(method, args)
			}
		}
		return d, name, nil
	}
	if v.Literal {
		return &Literal{Name: name, Value: v.Value, Cast: v.Casting, implementer: implementer}, name, nil
	}
	// Neither a value nor a method. Kept so that the failure surfaces when
	// the property is used.
	return &Invocable{Name: name, Cast: v.Casting, implementer: implementer}, name, nil
}

// Materialize computes the raw value of a descriptor.
func Materialize(d Descriptor, args []any) (any, error) {
	switch desc := d.(type) {
	case *Invocable:
		if desc.call == nil {
			return nil, errors.New("CONF-0001", map[string]any{"Property": desc.Name})
		}
		return desc.call(args)
	case *Literal:
		return desc.Value, nil
	}
	return nil, errors.New("CONF-0001", map[string]any{"Property": fmt.Sprintf("%v", d)})
}

// IteratorEntry is an iterator descriptor bound to its provider instance.
type IteratorEntry struct {
	Descriptor
	provider IteratorProvider
	mu       *sync.Mutex
}

// Resolve runs the provider's position setup and materializes the value.
// Setup and call are serialized per provider instance, since the instance
// is shared by every presenter using the registry.
func (e *IteratorEntry) Resolve(pos, total int, args []any) (any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.provider.SetIteratorProperties(pos, total)
	return Materialize(e.Descriptor, args)
}
