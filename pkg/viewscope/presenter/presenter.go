// Package presenter resolves template properties against the scope stack,
// injecting overlay, underlay, iterator and global values ahead of the
// current item's own members.
//
// Resolution order for a name P:
//
//  1. the overlay
//  2. the current item, if it has a member called P
//  3. the underlay
//  4. iterator properties, set up with the loop position
//  5. global properties
//
// A name that none of these supply is resolved on the item itself.
package presenter

import (
	"errors"

	"github.com/sambeau/viewscope/pkg/viewscope/cast"
	scopeerrors "github.com/sambeau/viewscope/pkg/viewscope/errors"
	"github.com/sambeau/viewscope/pkg/viewscope/item"
	"github.com/sambeau/viewscope/pkg/viewscope/logging"
	"github.com/sambeau/viewscope/pkg/viewscope/provider"
	"github.com/sambeau/viewscope/pkg/viewscope/stack"
)

// Injected is a value supplied by the presenter rather than the item.
// Obj is the cast form of Value; it is nil when casting was not requested.
type Injected struct {
	Value  any
	Obj    any
	Source string
}

// Presenter is a scope stack with value injection.
type Presenter struct {
	*stack.Scope

	overlay  map[string]any
	underlay map[string]any

	reg         *provider.Registry
	casts       *cast.Registry
	defaultCast string
	inherited   *stack.Scope
	log         *logging.Logger
}

// Option configures a Presenter.
type Option func(*Presenter)

// WithCasts sets the cast registry used to wrap raw values.
func WithCasts(r *cast.Registry) Option {
	return func(p *Presenter) { p.casts = r }
}

// WithDefaultCast overrides the cast applied to values with no casting of
// their own. It defaults to the provider registry's default cast.
func WithDefaultCast(castType string) Option {
	return func(p *Presenter) { p.defaultCast = castType }
}

// WithLogger sets the presenter logger.
func WithLogger(l *logging.Logger) Option {
	return func(p *Presenter) { p.log = l }
}

// WithInheritedScope starts the presenter at the loop position of an
// enclosing scope, for included templates.
func WithInheritedScope(s *stack.Scope) Option {
	return func(p *Presenter) { p.inherited = s }
}

// New creates a presenter over root. The provider registry is built on
// first use and shared by every presenter given the same registry.
func New(root any, overlay, underlay map[string]any, reg *provider.Registry, opts ...Option) (*Presenter, error) {
	if reg == nil {
		reg = provider.NewRegistry()
	}
	p := &Presenter{
		overlay:  overlay,
		underlay: underlay,
		reg:      reg,
		log:      logging.Discard,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.overlay == nil {
		p.overlay = map[string]any{}
	}
	if p.casts == nil {
		p.casts = cast.NewRegistry()
	}
	if p.defaultCast == "" {
		p.defaultCast = reg.DefaultCast()
	}
	if !p.casts.Has(p.defaultCast) {
		return nil, scopeerrors.New("CONF-0002", map[string]any{"Cast": p.defaultCast, "Property": "default_cast"})
	}
	if err := reg.Build(); err != nil {
		return nil, err
	}

	scopeOpts := []stack.Option{stack.WithCast(p.castRaw)}
	if p.inherited != nil {
		scopeOpts = append(scopeOpts, stack.WithInherited(p.inherited))
	}
	p.Scope = stack.New(root, scopeOpts...)
	p.Scope.SetLookup(p.GetObj)
	return p, nil
}

// Overlay returns the current overlay.
func (p *Presenter) Overlay() map[string]any { return p.overlay }

// SetOverlay replaces the current overlay.
func (p *Presenter) SetOverlay(overlay map[string]any) {
	if overlay == nil {
		overlay = map[string]any{}
	}
	p.overlay = overlay
}

// Underlay returns the underlay.
func (p *Presenter) Underlay() map[string]any { return p.underlay }

// Registry returns the provider registry.
func (p *Presenter) Registry() *provider.Registry { return p.reg }

// InjectedValue looks name up in the overlay, underlay and provider
// registries. ok is false when the current item should resolve name
// itself. An overlay or underlay key matches even when its value is nil.
// A provider entry with no value source is a configuration error.
func (p *Presenter) InjectedValue(name string, args []any, doCast bool) (inj Injected, ok bool, err error) {
	on := p.Item()

	var (
		raw     any
		casting string
		source  string
	)
	if v, found := p.overlay[name]; found {
		raw, source = v, "overlay"
	} else if h, native := on.(item.FieldHaver); native && h.HasField(name) {
		return Injected{}, false, nil
	} else if v, found := p.underlay[name]; found {
		raw, source = v, "underlay"
	} else if e, found := p.reg.Iterator(name); found {
		pos, total := p.Position()
		if raw, err = e.Resolve(pos, total, args); err != nil {
			return Injected{}, false, err
		}
		casting, source = e.Casting(), "iterator"
	} else if d, found := p.reg.Global(name); found {
		if raw, err = provider.Materialize(d, args); err != nil {
			return Injected{}, false, err
		}
		casting, source = d.Casting(), "global"
	} else {
		return Injected{}, false, nil
	}

	if p.log.Enabled(logging.LevelDebug) {
		p.log.Debug("injected value", "name", name, "source", source)
	}

	inj = Injected{Value: raw, Source: source}
	if !doCast {
		return inj, true, nil
	}
	if inj.Obj, err = p.castValue(name, raw, casting); err != nil {
		return Injected{}, false, err
	}
	return inj, true, nil
}

func (p *Presenter) castValue(name string, raw any, casting string) (any, error) {
	raw = item.Wrap(raw)
	if item.IsObject(raw) {
		return raw, nil
	}
	if casting == "" {
		casting = p.defaultCast
	}
	f, err := p.casts.Cast(casting, name, raw)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// castRaw wraps values the current item returns for its own members.
func (p *Presenter) castRaw(name string, raw any, casting string) (any, error) {
	return p.castValue(name, raw, casting)
}

// GetObj resolves name to an object, preferring injected values.
func (p *Presenter) GetObj(name string, args []any) (any, error) {
	inj, ok, err := p.InjectedValue(name, args, true)
	if err != nil {
		return nil, err
	}
	if ok {
		return inj.Obj, nil
	}
	return p.Scope.ItemObj(name, args)
}

// Obj moves the scope as stack.Scope.Obj does. Up and Top also bring back
// the overlay saved at the target frame when the current overlay is empty.
func (p *Presenter) Obj(name string, args []any) error {
	switch name {
	case "Up":
		if up := p.UpIndex(); up >= 0 {
			p.restoreOverlay(up)
		}
	case "Top":
		p.restoreOverlay(0)
	}
	return p.Scope.Obj(name, args)
}

func (p *Presenter) restoreOverlay(i int) {
	if len(p.overlay) != 0 {
		return
	}
	if saved, ok := p.FrameOverlay(i); ok {
		p.overlay = saved
	}
}

// PushScope enters a block. When the block has a parent frame the overlay
// is saved against it and the block starts with an empty one; otherwise
// the overlay stays visible in the block.
func (p *Presenter) PushScope() {
	p.Scope.PushScope()
	if up := p.UpIndex(); up >= 0 {
		p.SetFrameOverlay(up, p.overlay)
		p.overlay = map[string]any{}
	}
}

// PopScope leaves a block, restoring the overlay saved against its parent.
func (p *Presenter) PopScope() error {
	if p.Depth() == 0 {
		return scopeerrors.New("NAV-0002", nil)
	}
	if up := p.UpIndex(); up >= 0 {
		if saved, ok := p.FrameOverlay(up); ok {
			p.overlay = saved
		}
	}
	return p.Scope.PopScope()
}

// Dispatch runs a template accessor. Injected values are answered here;
// anything else goes to the item through the scope stack.
func (p *Presenter) Dispatch(method, property string, args []any) (any, error) {
	inj, ok, err := p.InjectedValue(property, args, true)
	if err != nil {
		p.ResetLocalScope()
		return nil, err
	}
	if !ok {
		return p.Scope.Dispatch(method, property, args)
	}

	defer p.ResetLocalScope()
	if method == stack.MethodHasValue {
		if e, isExister := inj.Obj.(item.Exister); isExister {
			return e.Exists(), nil
		}
		return item.Truthy(inj.Obj), nil
	}
	return stack.Render(inj.Obj)
}

// HasValue reports whether property resolves to a value that exists.
// Properties that cannot be found do not exist.
func (p *Presenter) HasValue(property string, args []any) (bool, error) {
	v, err := p.Dispatch(stack.MethodHasValue, property, args)
	if err != nil {
		if errors.Is(err, scopeerrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	b, _ := v.(bool)
	return b, nil
}

// XMLVal renders property for a template.
func (p *Presenter) XMLVal(property string, args []any) (string, error) {
	v, err := p.Dispatch(stack.MethodXMLVal, property, args)
	if err != nil {
		return "", err
	}
	s, _ := v.(string)
	return s, nil
}
