// Package cast provides the typed wrappers that raw values are placed in
// before they reach a template. Every wrapper renders itself with
// ForTemplate and exposes its own template methods ($Date.Nice,
// $Content.LimitCharacters(20), ...).
package cast

import (
	"sort"
	"sync"

	"github.com/sambeau/viewscope/pkg/viewscope/errors"
	"github.com/sambeau/viewscope/pkg/viewscope/item"
	"github.com/sambeau/viewscope/pkg/viewscope/provider"
)

// Field is a cast wrapper bound to a property name.
type Field struct {
	typ     string
	name    string
	value   any
	render  func(f *Field) string
	exists  func(f *Field) bool
	methods provider.MethodTable
	casting map[string]string
}

// Name returns the property name the field was created for.
func (f *Field) Name() string { return f.name }

// Value returns the raw value.
func (f *Field) Value() any { return f.value }

// SetValue replaces the raw value.
func (f *Field) SetValue(v any) { f.value = v }

// TypeName returns the cast type, e.g. "Text".
func (f *Field) TypeName() string { return f.typ }

// ForTemplate implements item.Renderer.
func (f *Field) ForTemplate() string { return f.render(f) }

// Exists implements item.Exister.
func (f *Field) Exists() bool {
	if f.exists != nil {
		return f.exists(f)
	}
	return item.Truthy(f.value)
}

// HasField implements item.FieldHaver.
func (f *Field) HasField(name string) bool {
	_, ok := f.methods[name]
	return ok
}

// TryResolve implements item.Resolver by dispatching to the field's methods.
func (f *Field) TryResolve(name string, args []any) (any, bool, error) {
	if _, ok := f.methods[name]; !ok {
		return nil, false, nil
	}
	v, err := f.methods.Call(f.typ, name, args)
	return v, true, err
}

// CastingFor implements item.Caster for method results.
func (f *Field) CastingFor(method string) string {
	return f.casting[method]
}

// FieldNames implements item.Lister.
func (f *Field) FieldNames() []string {
	return f.methods.Names()
}

// Factory builds an empty field of one cast type.
type Factory func(r *Registry, name string) *Field

// Registry maps cast type names to factories and carries the formatting
// locale.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	locale    string
	currency  string
}

// Option configures a Registry.
type Option func(*Registry)

// WithLocale sets the locale used by number and date casts, e.g. "en_GB".
func WithLocale(locale string) Option {
	return func(r *Registry) { r.locale = locale }
}

// WithCurrency sets the ISO 4217 code used by the Currency cast.
func WithCurrency(code string) Option {
	return func(r *Registry) { r.currency = code }
}

// NewRegistry creates a registry holding the built-in cast types.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		factories: make(map[string]Factory),
		locale:    "en_US",
		currency:  "USD",
	}
	for _, opt := range opts {
		opt(r)
	}
	for name, f := range builtins {
		r.factories[name] = f
	}
	return r
}

var builtins = map[string]Factory{
	"Text":        newText,
	"Varchar":     newText,
	"HTMLText":    newHTMLText,
	"HTMLVarchar": newHTMLText,
	"Boolean":     newBoolean,
	"Int":         newInt,
	"Decimal":     newDecimal,
	"Currency":    newCurrency,
	"Percentage":  newPercentage,
	"Date":        newDate,
	"Datetime":    newDatetime,
	"Markdown":    newMarkdown,
}

// Register adds or replaces a cast type.
func (r *Registry) Register(typ string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[typ] = f
}

// Has reports whether typ is a known cast type.
func (r *Registry) Has(typ string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[typ]
	return ok
}

// Types returns the known cast type names, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Locale returns the formatting locale.
func (r *Registry) Locale() string { return r.locale }

// New instantiates an empty field of type typ bound to property name.
func (r *Registry) New(typ, name string) (*Field, error) {
	r.mu.RLock()
	factory, ok := r.factories[typ]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.New("CONF-0002", map[string]any{"Cast": typ, "Property": name})
	}
	f := factory(r, name)
	f.name = name
	if f.typ == "" {
		f.typ = typ
	}
	return f, nil
}

// Cast wraps raw in a new field of type typ.
func (r *Registry) Cast(typ, name string, raw any) (*Field, error) {
	f, err := r.New(typ, name)
	if err != nil {
		return nil, err
	}
	f.SetValue(raw)
	return f, nil
}
