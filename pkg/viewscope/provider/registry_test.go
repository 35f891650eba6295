package provider

import (
	stderrors "errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sambeau/viewscope/pkg/viewscope/errors"
)

type countingGlobals struct {
	scans   int
	methods MethodTable
}

func newCountingGlobals() *countingGlobals {
	g := &countingGlobals{}
	g.methods = MethodTable{
		"ModulePath": {
			Fn: func(args []any) (any, error) {
				return "vendor/" + args[0].(string), nil
			},
			Arity: "1",
		},
		"SiteName": {
			Fn:    func(args []any) (any, error) { return "Example", nil },
			Arity: "0",
		},
	}
	return g
}

func (g *countingGlobals) TemplateGlobalVariables() []Variable {
	g.scans++
	vars := []Variable{Alias("modulePath", "ModulePath")}
	vars = append(vars, Methods("SiteName")...)
	vars = append(vars, Value("Version", "1.2", "Varchar"))
	return vars
}

func (g *countingGlobals) CallTemplateMethod(method string, args []any) (any, error) {
	return g.methods.Call("countingGlobals", method, args)
}

type positionProbe struct {
	pos, total int
	calls      [][2]int
}

func (p *positionProbe) TemplateIteratorVariables() []Variable { return Methods("Pos") }
func (p *positionProbe) SetIteratorProperties(pos, total int) {
	p.pos, p.total = pos, total
	p.calls = append(p.calls, [2]int{pos, total})
}
func (p *positionProbe) CallTemplateMethod(method string, args []any) (any, error) {
	return p.pos + 1, nil
}

func TestRegistry_BuildsOnce(t *testing.T) {
	g := newCountingGlobals()
	factoryCalls := 0
	r := NewRegistry()
	if err := r.AddGlobal(g); err != nil {
		t.Fatal(err)
	}
	if err := r.AddIterator(func() IteratorProvider {
		factoryCalls++
		return &positionProbe{}
	}); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Global("SiteName")
			r.Iterator("Pos")
		}()
	}
	wg.Wait()
	if err := r.Build(); err != nil {
		t.Fatal(err)
	}

	if g.scans != 1 {
		t.Errorf("global provider scanned %d times, want 1", g.scans)
	}
	if factoryCalls != 1 {
		t.Errorf("iterator factory called %d times, want 1", factoryCalls)
	}
}

func TestRegistry_FrozenAfterBuild(t *testing.T) {
	r := NewRegistry()
	r.Build()
	err := r.AddGlobal(newCountingGlobals())
	if !stderrors.Is(err, errors.ErrRegistryFrozen) {
		t.Errorf("AddGlobal after build = %v, want ErrRegistryFrozen", err)
	}
}

func TestRegistry_CaseInsensitiveFirstLetter(t *testing.T) {
	r := NewRegistry(WithDefaultCast("HTMLText"))
	r.AddGlobal(newCountingGlobals())

	lower, ok := r.Global("modulePath")
	if !ok {
		t.Fatal("modulePath not found")
	}
	upper, ok := r.Global("ModulePath")
	if !ok {
		t.Fatal("ModulePath not found")
	}
	if lower != upper {
		t.Error("modulePath and ModulePath should share one descriptor")
	}
	if _, ok := r.Global("MODULEPATH"); ok {
		t.Error("only the first letter is case-insensitive")
	}

	inv, ok := upper.(*Invocable)
	if !ok {
		t.Fatalf("descriptor is %T, want *Invocable", upper)
	}
	if inv.Casting() != "HTMLText" {
		t.Errorf("Casting() = %q, want registry default HTMLText", inv.Casting())
	}
	v, err := Materialize(inv, []any{"framework"})
	if err != nil || v != "vendor/framework" {
		t.Errorf("Materialize = %v, %v", v, err)
	}
}

func TestRegistry_Literal(t *testing.T) {
	r := NewRegistry()
	r.AddGlobal(newCountingGlobals())

	d, ok := r.Global("version")
	if !ok {
		t.Fatal("version not found")
	}
	lit, ok := d.(*Literal)
	if !ok {
		t.Fatalf("descriptor is %T, want *Literal", d)
	}
	if lit.Casting() != "Varchar" || lit.Value != "1.2" {
		t.Errorf("literal = %+v", lit)
	}
}

func TestRegistry_Names(t *testing.T) {
	r := NewRegistry()
	r.AddGlobal(newCountingGlobals())
	r.AddIterator(func() IteratorProvider { return &positionProbe{} })

	want := []string{"Pos", "SiteName", "Version", "modulePath"}
	if diff := cmp.Diff(want, r.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
}

type unnamed struct{}

func (unnamed) TemplateGlobalVariables() []Variable { return []Variable{{}} }

func TestRegistry_UnnamedVariable(t *testing.T) {
	r := NewRegistry()
	r.AddGlobal(unnamed{})
	if err := r.Build(); err == nil {
		t.Error("expected build error for unnamed variable")
	}
	if _, ok := r.Global("x"); ok {
		t.Error("lookups should fail after a failed build")
	}
}

type plainGlobals struct{}

func (plainGlobals) TemplateGlobalVariables() []Variable {
	return []Variable{{Name: "Broken"}, {Name: "NoInvoker", Method: "Run"}}
}

func TestMaterialize_NoValueSource(t *testing.T) {
	r := NewRegistry()
	r.AddGlobal(plainGlobals{})

	for _, name := range []string{"Broken", "NoInvoker"} {
		d, ok := r.Global(name)
		if !ok {
			t.Fatalf("%s not registered", name)
		}
		_, err := Materialize(d, nil)
		if !stderrors.Is(err, errors.ErrNoValueSource) {
			t.Errorf("Materialize(%s) error = %v, want ErrNoValueSource", name, err)
		}
	}
}

func TestIteratorEntry_Resolve(t *testing.T) {
	probe := &positionProbe{}
	r := NewRegistry()
	r.AddIterator(func() IteratorProvider { return probe })

	e, ok := r.Iterator("pos")
	if !ok {
		t.Fatal("pos not found")
	}
	v, err := e.Resolve(2, 5, nil)
	if err != nil || v != 3 {
		t.Errorf("Resolve = %v, %v; want 3", v, err)
	}
	if diff := cmp.Diff([][2]int{{2, 5}}, probe.calls); diff != "" {
		t.Errorf("setup calls mismatch (-want +got):\n%s", diff)
	}
}

func TestMethodTable_Arity(t *testing.T) {
	g := newCountingGlobals()
	if _, err := g.CallTemplateMethod("ModulePath", nil); err == nil {
		t.Error("expected arity error")
	}
	_, err := g.CallTemplateMethod("ModulPath", []any{"x"})
	if !stderrors.Is(err, errors.ErrUnknownMethod) {
		t.Errorf("error = %v, want ErrUnknownMethod", err)
	}
}

func TestCheckArity(t *testing.T) {
	tests := []struct {
		spec string
		got  int
		want bool
	}{
		{"0", 0, true},
		{"1", 0, false},
		{"0-1", 1, true},
		{"0-1", 2, false},
		{"1+", 3, true},
		{"1+", 0, false},
		{"??", 9, true},
	}
	for _, tt := range tests {
		if got := CheckArity(tt.spec, tt.got); got != tt.want {
			t.Errorf("CheckArity(%q, %d) = %v, want %v", tt.spec, tt.got, got, tt.want)
		}
	}
}

type extraGlobals struct{ vars []Variable }

func (g extraGlobals) TemplateGlobalVariables() []Variable { return g.vars }

func TestRegistry_DuplicateNames(t *testing.T) {
	tests := []struct {
		name  string
		setup func(r *Registry)
	}{
		{"two global providers", func(r *Registry) {
			r.AddGlobal(newCountingGlobals())
			r.AddGlobal(extraGlobals{vars: []Variable{Value("SiteName", "Other", "")}})
		}},
		{"first letter differs", func(r *Registry) {
			r.AddGlobal(newCountingGlobals())
			r.AddGlobal(extraGlobals{vars: []Variable{Value("version", "2.0", "")}})
		}},
		{"one provider twice", func(r *Registry) {
			r.AddGlobal(extraGlobals{vars: []Variable{Value("Owner", "a", ""), Value("Owner", "b", "")}})
		}},
		{"two iterator providers", func(r *Registry) {
			r.AddIterator(func() IteratorProvider { return &positionProbe{} })
			r.AddIterator(func() IteratorProvider { return &positionProbe{} })
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			tt.setup(r)
			if err := r.Build(); !stderrors.Is(err, errors.ErrDuplicateName) {
				t.Errorf("Build() = %v, want ErrDuplicateName", err)
			}
		})
	}

	// The same name in the global and iterator tables is not a collision.
	r := NewRegistry()
	r.AddGlobal(extraGlobals{vars: []Variable{Value("Pos", 0, "")}})
	r.AddIterator(func() IteratorProvider { return &positionProbe{} })
	if err := r.Build(); err != nil {
		t.Errorf("Build() with Pos in both tables = %v", err)
	}
}
