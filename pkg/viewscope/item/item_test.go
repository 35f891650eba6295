package item

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMap_OrderAndResolve(t *testing.T) {
	m := MapOf("Title", "Home", "Content", "Welcome")
	m.Set("Link", Func(func(args []any) (any, error) {
		if len(args) > 0 {
			return "/home/" + ToString(args[0]), nil
		}
		return "/home", nil
	}))
	m.Set("Title", "Start")

	if diff := cmp.Diff([]string{"Title", "Content", "Link"}, m.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}

	tests := []struct {
		name  string
		args  []any
		want  any
		found bool
	}{
		{"Title", nil, "Start", true},
		{"Link", nil, "/home", true},
		{"Link", []any{"edit"}, "/home/edit", true},
		{"Missing", nil, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found, err := m.TryResolve(tt.name, tt.args)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if found != tt.found || got != tt.want {
				t.Errorf("TryResolve(%q) = %v, %v; want %v, %v", tt.name, got, found, tt.want, tt.found)
			}
		})
	}

	if !m.HasField("Me") {
		t.Error("Map should expose Me")
	}
	if me, _, _ := m.TryResolve("Me", nil); me != m {
		t.Error("Me should resolve to the map itself")
	}
}

func TestMap_Delete(t *testing.T) {
	m := MapOf("A", 1, "B", 2, "C", 3)
	m.Delete("B")
	m.Delete("Z")
	if diff := cmp.Diff([]string{"A", "C"}, m.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
}

func TestList_Fields(t *testing.T) {
	l := NewList("a", "b", "c", "d")

	count, _, _ := l.TryResolve("Count", nil)
	if count != 4 {
		t.Errorf("Count = %v, want 4", count)
	}
	first, _, _ := l.TryResolve("First", nil)
	last, _, _ := l.TryResolve("Last", nil)
	if first != "a" || last != "d" {
		t.Errorf("First/Last = %v/%v, want a/d", first, last)
	}

	rev, _, _ := l.TryResolve("Reverse", nil)
	if diff := cmp.Diff([]any{"d", "c", "b", "a"}, rev.(*List).Items()); diff != "" {
		t.Errorf("Reverse mismatch (-want +got):\n%s", diff)
	}

	lim, _, err := l.TryResolve("Limit", []any{2, "1"})
	if err != nil {
		t.Fatalf("Limit: %v", err)
	}
	if diff := cmp.Diff([]any{"b", "c"}, lim.(*List).Items()); diff != "" {
		t.Errorf("Limit mismatch (-want +got):\n%s", diff)
	}

	if _, _, err := l.TryResolve("Limit", nil); err == nil {
		t.Error("Limit without arguments should fail")
	}
	if _, found, _ := l.TryResolve("Nope", nil); found {
		t.Error("unknown list field should not be found")
	}
}

func TestWrap(t *testing.T) {
	v := Wrap(map[string]any{
		"Title":    "Home",
		"Children": []any{map[string]any{"Title": "About"}},
	})
	m, ok := v.(*Map)
	if !ok {
		t.Fatalf("Wrap returned %T, want *Map", v)
	}
	children, _ := m.Get("Children")
	list, ok := children.(*List)
	if !ok || list.Len() != 1 {
		t.Fatalf("Children = %#v, want one-item List", children)
	}
	if _, ok := list.At(0).(*Map); !ok {
		t.Errorf("nested map not wrapped: %T", list.At(0))
	}
}

func TestTruthyAndIsObject(t *testing.T) {
	tests := []struct {
		v      any
		truthy bool
		object bool
	}{
		{nil, false, false},
		{"", false, false},
		{"x", true, false},
		{0, false, false},
		{3, true, false},
		{false, false, false},
		{NewList(), false, true},
		{MapOf("A", 1), true, true},
	}
	for _, tt := range tests {
		if got := Truthy(tt.v); got != tt.truthy {
			t.Errorf("Truthy(%#v) = %v, want %v", tt.v, got, tt.truthy)
		}
		if got := IsObject(tt.v); got != tt.object {
			t.Errorf("IsObject(%#v) = %v, want %v", tt.v, got, tt.object)
		}
	}
}
