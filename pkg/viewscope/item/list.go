package item

import (
	"fmt"
)

// List is an iterable sequence of values.
type List struct {
	items []any
}

// NewList creates a List holding items.
func NewList(items ...any) *List {
	return &List{items: items}
}

// Len implements Iterable.
func (l *List) Len() int { return len(l.items) }

// At implements Iterable.
func (l *List) At(i int) any { return l.items[i] }

// Append adds an item to the end of the list.
func (l *List) Append(v any) { l.items = append(l.items, v) }

// Items returns a copy of the underlying values.
func (l *List) Items() []any {
	return append([]any(nil), l.items...)
}

// Exists implements Exister. An empty list does not exist.
func (l *List) Exists() bool { return len(l.items) > 0 }

var listFields = []string{"Count", "Exists", "First", "Last", "Limit", "Me", "Reverse"}

// HasField implements FieldHaver.
func (l *List) HasField(name string) bool {
	for _, f := range listFields {
		if f == name {
			return true
		}
	}
	return false
}

// FieldNames implements Lister.
func (l *List) FieldNames() []string {
	return append([]string(nil), listFields...)
}

// TryResolve implements Resolver.
func (l *List) TryResolve(name string, args []any) (any, bool, error) {
	switch name {
	case "Count":
		return len(l.items), true, nil
	case "Exists":
		return len(l.items) > 0, true, nil
	case "First":
		if len(l.items) == 0 {
			return nil, true, nil
		}
		return l.items[0], true, nil
	case "Last":
		if len(l.items) == 0 {
			return nil, true, nil
		}
		return l.items[len(l.items)-1], true, nil
	case "Me":
		return l, true, nil
	case "Reverse":
		out := make([]any, len(l.items))
		for i, v := range l.items {
			out[len(l.items)-1-i] = v
		}
		return NewList(out...), true, nil
	case "Limit":
		res, err := l.limit(args)
		return res, true, err
	}
	return nil, false, nil
}

func (l *List) limit(args []any) (*List, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, fmt.Errorf("Limit expects 1 or 2 arguments, got %d", len(args))
	}
	n, ok := ToInt(args[0])
	if !ok {
		return nil, fmt.Errorf("Limit: count must be an integer, got %T", args[0])
	}
	offset := 0
	if len(args) == 2 {
		if offset, ok = ToInt(args[1]); !ok {
			return nil, fmt.Errorf("Limit: offset must be an integer, got %T", args[1])
		}
	}
	if offset < 0 {
		offset = 0
	}
	if offset > len(l.items) {
		offset = len(l.items)
	}
	end := offset + n
	if n < 0 || end > len(l.items) {
		end = len(l.items)
	}
	return NewList(l.items[offset:end]...), nil
}
