package stack

import "github.com/sambeau/viewscope/pkg/viewscope/item"

// Iterator walks a list being looped over in a template.
type Iterator interface {
	Rewind()
	Valid() bool
	Key() int
	Current() any
	Next()
}

type listIterator struct {
	list item.Iterable
	pos  int
}

func (it *listIterator) Rewind()      { it.pos = 0 }
func (it *listIterator) Valid() bool  { return it.pos >= 0 && it.pos < it.list.Len() }
func (it *listIterator) Key() int     { return it.pos }
func (it *listIterator) Next()        { it.pos++ }
func (it *listIterator) Len() int     { return it.list.Len() }
func (it *listIterator) Current() any {
	if !it.Valid() {
		return nil
	}
	return it.list.At(it.pos)
}

// NewIterator returns an iterator over v. ok is false if v cannot be looped.
func NewIterator(v any) (Iterator, bool) {
	switch val := v.(type) {
	case Iterator:
		return val, true
	case item.Iterable:
		return &listIterator{list: val}, true
	case []any:
		return &listIterator{list: item.NewList(val...)}, true
	}
	return nil, false
}

// count returns the number of elements it yields, leaving it rewound.
func count(it Iterator) int {
	if l, ok := it.(interface{ Len() int }); ok {
		return l.Len()
	}
	n := 0
	for it.Rewind(); it.Valid(); it.Next() {
		n++
	}
	it.Rewind()
	return n
}
