// Package stack implements the scope stack a template walks while it
// renders: entering sub-objects, looping over lists, and returning to an
// enclosing scope with Up and Top.
//
// Every lookup chain in a template runs as
//
//	s.Locally(); s.Obj("A", nil); s.Obj("B", nil); s.Dispatch(MethodXMLVal, "C", nil)
//
// and blocks wrap their body in PushScope/PopScope, so that frames pushed by
// a chain are discarded again once the chain finishes.
package stack

import (
	"errors"

	scopeerrors "github.com/sambeau/viewscope/pkg/viewscope/errors"
	"github.com/sambeau/viewscope/pkg/viewscope/item"
)

// Method names understood by Dispatch.
const (
	MethodHasValue = "hasValue"
	MethodXMLVal   = "XML_val"
)

const noIndex = -1

// Frame is one entry of the item stack.
type Frame struct {
	Item         any
	Iterator     Iterator
	Total        int
	PopIndex     int
	UpIndex      int
	CurrentIndex int

	// Overlay is the presenter overlay saved against this frame when a
	// child scope was pushed. Nil when nothing was saved.
	Overlay map[string]any
}

// LookupFunc resolves name against the current scope. The data presenter
// installs one to inject overlay and provider values.
type LookupFunc func(name string, args []any) (any, error)

// CastFunc wraps a raw value for property name. casting is the type the
// owning item asked for, or "" for the default.
type CastFunc func(name string, raw any, casting string) (any, error)

// Scope is the item stack plus the state of the frame currently in use.
type Scope struct {
	frames []Frame

	item         any
	iterator     Iterator
	total        int
	popIndex     int
	upIndex      int
	currentIndex int

	localIndex int
	localStack [][]Frame
	depth      int

	lookup LookupFunc
	cast   CastFunc
}

// Option configures a Scope.
type Option func(*Scope)

// WithCast sets the function used to wrap raw item values.
func WithCast(fn CastFunc) Option {
	return func(s *Scope) { s.cast = fn }
}

// WithInherited starts the scope inside the loop position of parent, so
// that an included template still sees its caller's iterator.
func WithInherited(parent *Scope) Option {
	return func(s *Scope) {
		if parent == nil {
			return
		}
		s.frames[0].Iterator = parent.iterator
		s.frames[0].Total = parent.total
	}
}

// New creates a scope whose top frame holds root.
func New(root any, opts ...Option) *Scope {
	s := &Scope{
		frames: []Frame{{
			Item:     root,
			PopIndex: noIndex,
			UpIndex:  noIndex,
		}},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.restore(s.frames[0])
	s.popIndex = noIndex
	return s
}

// SetLookup installs the resolver used by Obj for ordinary names.
func (s *Scope) SetLookup(fn LookupFunc) { s.lookup = fn }

// Item returns the current item: the element under the iterator when
// looping, the frame's item otherwise.
func (s *Scope) Item() any {
	if s.iterator != nil {
		return s.iterator.Current()
	}
	return s.item
}

// Position returns the loop position and total. Outside a loop the scope
// behaves like a list of one.
func (s *Scope) Position() (pos, total int) {
	if s.iterator != nil {
		return s.iterator.Key(), s.total
	}
	return 0, 1
}

func (s *Scope) restore(f Frame) {
	s.item = f.Item
	s.iterator = f.Iterator
	s.total = f.Total
	s.popIndex = f.PopIndex
	s.upIndex = f.UpIndex
	s.currentIndex = f.CurrentIndex
}

func (s *Scope) current() Frame {
	return Frame{
		Item:         s.item,
		Iterator:     s.iterator,
		Total:        s.total,
		PopIndex:     noIndex,
		UpIndex:      s.upIndex,
		CurrentIndex: s.currentIndex,
	}
}

// Locally starts a lookup chain from the current block's frame. Frames
// above it are set aside until ResetLocalScope.
func (s *Scope) Locally() *Scope {
	s.restore(s.frames[s.localIndex])
	tail := append([]Frame(nil), s.frames[s.localIndex+1:]...)
	s.localStack = append(s.localStack, tail)
	s.frames = s.frames[:s.localIndex+1]
	return s
}

// ResetLocalScope ends a lookup chain, dropping the frames it pushed and
// restoring whatever Locally set aside.
func (s *Scope) ResetLocalScope() {
	var previous []Frame
	if n := len(s.localStack); n > 0 {
		previous = s.localStack[n-1]
		s.localStack = s.localStack[:n-1]
	}
	s.frames = append(s.frames[:s.localIndex+1], previous...)
	s.restore(s.frames[len(s.frames)-1])
}

// Obj moves the scope to a sub-object of the current item, or to the
// parent ("Up") or root ("Top") frame. Up at the root frame fails with a
// navigation error.
func (s *Scope) Obj(name string, args []any) error {
	switch name {
	case "Up":
		if s.upIndex == noIndex {
			return scopeerrors.New("NAV-0001", map[string]any{"Name": name})
		}
		s.navigate(s.frames[s.upIndex])
	case "Top":
		s.navigate(s.frames[0])
	default:
		v, err := s.GetObj(name, args)
		if err != nil {
			return err
		}
		s.item = v
		s.iterator = nil
		if s.currentIndex > 0 {
			s.upIndex = s.currentIndex
		} else {
			s.upIndex = len(s.frames) - 1
		}
		s.currentIndex = len(s.frames)
	}
	s.frames = append(s.frames, s.current())
	return nil
}

// navigate restores an ancestor frame, keeping the current pop index.
func (s *Scope) navigate(f Frame) {
	s.item = f.Item
	s.iterator = f.Iterator
	s.total = f.Total
	s.upIndex = f.UpIndex
	s.currentIndex = f.CurrentIndex
}

// GetObj resolves name through the installed lookup, falling back to the
// current item.
func (s *Scope) GetObj(name string, args []any) (any, error) {
	if s.lookup != nil {
		return s.lookup(name, args)
	}
	return s.ItemObj(name, args)
}

// ItemObj resolves name on the current item itself and casts the result.
// Me is the item.
func (s *Scope) ItemObj(name string, args []any) (any, error) {
	on := s.Item()
	if name == "Me" {
		return s.Cast(nil, name, on)
	}
	r, ok := on.(item.Resolver)
	if !ok {
		return nil, scopeerrors.NewNotFound(name, item.TypeName(on), nil)
	}
	v, found, err := r.TryResolve(name, args)
	if err != nil {
		return nil, err
	}
	if !found {
		var names []string
		if l, ok := on.(item.Lister); ok {
			names = l.FieldNames()
		}
		return nil, scopeerrors.NewNotFound(name, item.TypeName(on), names)
	}
	return s.Cast(on, name, v)
}

// Cast wraps v unless it is already a template object. on supplies the
// casting hint for name.
func (s *Scope) Cast(on any, name string, v any) (any, error) {
	if s.cast == nil || item.IsObject(v) {
		return v, nil
	}
	casting := ""
	if c, ok := on.(item.Caster); ok {
		casting = c.CastingFor(name)
	}
	return s.cast(name, v, casting)
}

// Self returns the current item and ends the lookup chain.
func (s *Scope) Self() any {
	v := s.Item()
	s.ResetLocalScope()
	return v
}

// PushScope makes the current frame the base of a new block.
func (s *Scope) PushScope() *Scope {
	newLocalIndex := len(s.frames) - 1
	s.popIndex = s.localIndex
	s.frames[newLocalIndex].PopIndex = s.localIndex
	s.localIndex = newLocalIndex
	// A new block starts without the enclosing loop's iterator.
	s.iterator = nil
	s.frames[newLocalIndex].Iterator = nil
	s.depth++
	return s
}

// PopScope leaves the innermost block.
func (s *Scope) PopScope() error {
	if s.depth == 0 {
		return scopeerrors.New("NAV-0002", nil)
	}
	s.depth--
	s.localIndex = s.popIndex
	s.ResetLocalScope()
	return nil
}

// Next advances the loop over the current block's item. It returns the
// new position, or ok=false when the list is exhausted or empty.
func (s *Scope) Next() (key int, ok bool, err error) {
	if s.item == nil {
		return 0, false, nil
	}
	if s.iterator == nil {
		it, iterable := NewIterator(s.item)
		if !iterable {
			return 0, false, scopeerrors.New("TYPE-0001", map[string]any{"Type": item.TypeName(s.item)})
		}
		s.iterator = it
		s.frames[s.localIndex].Iterator = it
		s.total = count(it)
		s.frames[s.localIndex].Total = s.total
		it.Rewind()
	} else {
		s.iterator.Next()
	}
	s.ResetLocalScope()

	if !s.iterator.Valid() {
		return 0, false, nil
	}
	return s.iterator.Key(), true, nil
}

// Dispatch runs a template accessor against the current item and ends the
// lookup chain. hasValue and XML_val are handled here; any other method
// is resolved on the item with property prepended to args.
func (s *Scope) Dispatch(method, property string, args []any) (any, error) {
	defer s.ResetLocalScope()

	switch method {
	case MethodHasValue:
		return s.hasValue(property, args)
	case MethodXMLVal:
		return s.xmlVal(property, args)
	}

	on := s.Item()
	r, ok := on.(item.Resolver)
	if !ok {
		return nil, scopeerrors.NewUnknownMethod(method, item.TypeName(on), nil)
	}
	v, found, err := r.TryResolve(method, append([]any{property}, args...))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, scopeerrors.NewUnknownMethod(method, item.TypeName(on), nil)
	}
	return v, nil
}

func (s *Scope) hasValue(property string, args []any) (bool, error) {
	v, err := s.ItemObj(property, args)
	if err != nil {
		if errors.Is(err, scopeerrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return item.Truthy(v), nil
}

func (s *Scope) xmlVal(property string, args []any) (string, error) {
	v, err := s.ItemObj(property, args)
	if err != nil {
		return "", err
	}
	return Render(v)
}

// Render returns the template representation of a resolved object.
func Render(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case item.Renderer:
		return val.ForTemplate(), nil
	case string:
		return val, nil
	}
	return "", scopeerrors.New("TYPE-0003", map[string]any{"Type": item.TypeName(v)})
}

// UpIndex returns the index of the parent frame, or -1 at the root.
func (s *Scope) UpIndex() int { return s.upIndex }

// LocalIndex returns the index of the current block's frame.
func (s *Scope) LocalIndex() int { return s.localIndex }

// Depth returns the number of blocks pushed and not yet popped.
func (s *Scope) Depth() int { return s.depth }

// Frames returns a copy of the item stack.
func (s *Scope) Frames() []Frame {
	return append([]Frame(nil), s.frames...)
}

// FrameOverlay returns the overlay saved against frame i.
func (s *Scope) FrameOverlay(i int) (map[string]any, bool) {
	if i < 0 || i >= len(s.frames) || s.frames[i].Overlay == nil {
		return nil, false
	}
	return s.frames[i].Overlay, true
}

// SetFrameOverlay saves an overlay against frame i.
func (s *Scope) SetFrameOverlay(i int, overlay map[string]any) {
	if i < 0 || i >= len(s.frames) {
		return
	}
	if overlay == nil {
		overlay = map[string]any{}
	}
	s.frames[i].Overlay = overlay
}
