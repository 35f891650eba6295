package provider

import (
	"fmt"
	"sort"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/sambeau/viewscope/pkg/viewscope/errors"
	"github.com/sambeau/viewscope/pkg/viewscope/logging"
)

// Registry holds the global and iterator property tables. Providers are
// added up front; the tables are built once, on first lookup or an explicit
// Build, and are read-only afterwards.
type Registry struct {
	defaultCast string
	log         *logging.Logger

	mu        sync.Mutex
	globals   []GlobalProvider
	iterators []func() IteratorProvider
	built     bool

	once     sync.Once
	buildErr error

	globalTable   map[string]Descriptor
	iteratorTable map[string]*IteratorEntry
}

// Option configures a Registry.
type Option func(*Registry)

// WithDefaultCast sets the cast applied to method entries that don't name one.
func WithDefaultCast(castType string) Option {
	return func(r *Registry) { r.defaultCast = castType }
}

// WithLogger sets the registry logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Registry) { r.log = l }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		defaultCast: "Text",
		log:         logging.Discard,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AddGlobal registers a global provider. It fails once the registry is built.
func (r *Registry) AddGlobal(p GlobalProvider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.built {
		return errors.New("CONF-0003", map[string]any{"Provider": fmt.Sprintf("%T", p)})
	}
	r.globals = append(r.globals, p)
	return nil
}

// AddIterator registers an iterator provider factory. The factory is called
// exactly once, when the registry is built.
func (r *Registry) AddIterator(factory func() IteratorProvider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.built {
		return errors.New("CONF-0003", map[string]any{"Provider": "iterator provider"})
	}
	r.iterators = append(r.iterators, factory)
	return nil
}

// Build scans the registered providers. Only the first call does any work;
// later calls return the first call's result.
func (r *Registry) Build() error {
	r.once.Do(func() {
		r.mu.Lock()
		r.built = true
		globals := append([]GlobalProvider(nil), r.globals...)
		iterators := append([]func() IteratorProvider(nil), r.iterators...)
		r.mu.Unlock()

		r.buildErr = r.build(globals, iterators)
	})
	return r.buildErr
}

func (r *Registry) build(globals []GlobalProvider, iterators []func() IteratorProvider) error {
	r.globalTable = make(map[string]Descriptor)
	r.iteratorTable = make(map[string]*IteratorEntry)

	owners := make(map[string]any)
	for _, p := range globals {
		for _, v := range p.TemplateGlobalVariables() {
			d, name, err := newDescriptor(v, p, r.defaultCast)
			if err != nil {
				return err
			}
			key := normalizeName(name)
			if prev, dup := owners[key]; dup {
				return duplicateName("global", name, prev, p)
			}
			owners[key] = p
			r.globalTable[key] = d
		}
	}

	owners = make(map[string]any)
	for _, factory := range iterators {
		p := factory()
		mu := &sync.Mutex{}
		for _, v := range p.TemplateIteratorVariables() {
			d, name, err := newDescriptor(v, p, r.defaultCast)
			if err != nil {
				return err
			}
			key := normalizeName(name)
			if prev, dup := owners[key]; dup {
				return duplicateName("iterator", name, prev, p)
			}
			owners[key] = p
			r.iteratorTable[key] = &IteratorEntry{Descriptor: d, provider: p, mu: mu}
		}
	}

	r.log.Debug("provider registry built",
		"globals", len(r.globalTable),
		"iterators", len(r.iteratorTable))
	return nil
}

// duplicateName reports two providers, or one provider twice, exposing
// the same normalized name.
func duplicateName(kind, name string, first, second any) error {
	return errors.New("CONF-0005", map[string]any{
		"Kind":     kind,
		"Property": name,
		"First":    fmt.Sprintf("%T", first),
		"Second":   fmt.Sprintf("%T", second),
	})
}

// Global looks up a global property. The first letter is case-insensitive.
func (r *Registry) Global(name string) (Descriptor, bool) {
	if r.Build() != nil {
		return nil, false
	}
	d, ok := r.globalTable[normalizeName(name)]
	return d, ok
}

// Iterator looks up an iterator property. The first letter is case-insensitive.
func (r *Registry) Iterator(name string) (*IteratorEntry, bool) {
	if r.Build() != nil {
		return nil, false
	}
	e, ok := r.iteratorTable[normalizeName(name)]
	return e, ok
}

// Names returns every exposed name, sorted, as registered.
func (r *Registry) Names() []string {
	if r.Build() != nil {
		return nil
	}
	names := make([]string, 0, len(r.globalTable)+len(r.iteratorTable))
	for _, d := range r.globalTable {
		names = append(names, d.DescriptorName())
	}
	for _, e := range r.iteratorTable {
		names = append(names, e.DescriptorName())
	}
	sort.Strings(names)
	return names
}

// DefaultCast returns the registry's default cast type.
func (r *Registry) DefaultCast() string { return r.defaultCast }

// normalizeName lower-cases the first letter, so that "modulePath" and
// "ModulePath" share one key.
func normalizeName(name string) string {
	first, size := utf8.DecodeRuneInString(name)
	if first == utf8.RuneError {
		return name
	}
	return string(unicode.ToLower(first)) + name[size:]
}
