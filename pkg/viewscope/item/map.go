package item

import "sort"

// Map is an ordered set of named fields. Field values may be plain values,
// nested items, or Func methods that are invoked with the call arguments.
type Map struct {
	keys    []string
	values  map[string]any
	casting map[string]string
}

// NewMap creates an empty Map.
func NewMap() *Map {
	return &Map{
		values:  make(map[string]any),
		casting: make(map[string]string),
	}
}

// MapOf builds a Map from alternating key/value pairs, keeping their order.
func MapOf(pairs ...any) *Map {
	m := NewMap()
	for i := 0; i+1 < len(pairs); i += 2 {
		if k, ok := pairs[i].(string); ok {
			m.Set(k, pairs[i+1])
		}
	}
	return m
}

// Set stores a field, keeping first-insertion order.
func (m *Map) Set(key string, value any) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the raw field value without invoking methods.
func (m *Map) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Delete removes a field.
func (m *Map) Delete(key string) {
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns field names in insertion order.
func (m *Map) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Len returns the number of fields.
func (m *Map) Len() int { return len(m.keys) }

// SetCasting records the cast type used when field is rendered.
func (m *Map) SetCasting(field, castType string) {
	m.casting[field] = castType
}

// CastingFor implements Caster.
func (m *Map) CastingFor(field string) string {
	return m.casting[field]
}

// HasField implements FieldHaver.
func (m *Map) HasField(name string) bool {
	if name == "Me" {
		return true
	}
	_, ok := m.values[name]
	return ok
}

// TryResolve implements Resolver. Func fields are called with args;
// anything else ignores args.
func (m *Map) TryResolve(name string, args []any) (any, bool, error) {
	v, ok := m.values[name]
	if !ok {
		if name == "Me" {
			return m, true, nil
		}
		return nil, false, nil
	}
	if fn, ok := v.(Func); ok {
		res, err := fn(args)
		return res, true, err
	}
	return v, true, nil
}

// FieldNames implements Lister.
func (m *Map) FieldNames() []string {
	return m.Keys()
}

// Exists implements Exister. An empty map does not exist.
func (m *Map) Exists() bool {
	return len(m.keys) > 0
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
