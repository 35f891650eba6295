// Package item defines the capabilities an object must offer to be placed in
// template scope, plus the concrete Map and List items used by data sources.
package item

import (
	"fmt"
	"reflect"
	"time"
)

// Func is a method-valued field. It receives the template call arguments.
type Func func(args []any) (any, error)

// Resolver resolves a named property or method on an item.
// found is false when the item has no such member.
type Resolver interface {
	TryResolve(name string, args []any) (value any, found bool, err error)
}

// FieldHaver reports whether the item natively has a member called name.
type FieldHaver interface {
	HasField(name string) bool
}

// Item is the full capability set of a scope item.
type Item interface {
	Resolver
	FieldHaver
}

// Exister is implemented by values with their own notion of emptiness.
type Exister interface {
	Exists() bool
}

// Renderer is implemented by values that can render themselves into a template.
type Renderer interface {
	ForTemplate() string
}

// Iterable is a list that can be looped over.
type Iterable interface {
	Len() int
	At(i int) any
}

// Caster supplies a cast type for a field's raw value.
type Caster interface {
	CastingFor(field string) string
}

// Lister lists known member names, for "did you mean" hints.
type Lister interface {
	FieldNames() []string
}

// IsObject reports whether v is already a template object and must not be
// wrapped in a cast field.
func IsObject(v any) bool {
	switch v.(type) {
	case Resolver, Renderer:
		return true
	}
	return false
}

// Truthy is the existence test for values that are not Exister implementations.
func Truthy(v any) bool {
	if v == nil {
		return false
	}
	switch val := v.(type) {
	case Exister:
		return val.Exists()
	case bool:
		return val
	case string:
		return val != ""
	case int:
		return val != 0
	case int64:
		return val != 0
	case float64:
		return val != 0
	case time.Time:
		return !val.IsZero()
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	}
	return true
}

// TypeName returns a short name for v used in error messages.
func TypeName(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case *Map:
		return "Map"
	case *List:
		return "List"
	case interface{ TypeName() string }:
		return val.TypeName()
	}
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return fmt.Sprintf("%T", v)
}

// Wrap converts plain Go maps and slices into Map and List items,
// recursively. Other values are returned unchanged.
func Wrap(v any) any {
	switch val := v.(type) {
	case map[string]any:
		m := NewMap()
		for _, k := range sortedKeys(val) {
			m.Set(k, Wrap(val[k]))
		}
		return m
	case []any:
		items := make([]any, len(val))
		for i, e := range val {
			items[i] = Wrap(e)
		}
		return NewList(items...)
	case []map[string]any:
		items := make([]any, len(val))
		for i, e := range val {
			items[i] = Wrap(e)
		}
		return NewList(items...)
	case func(args []any) (any, error):
		return Func(val)
	}
	return v
}
