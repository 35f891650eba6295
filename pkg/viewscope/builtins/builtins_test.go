package builtins

import (
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sambeau/viewscope/pkg/viewscope/cast"
	"github.com/sambeau/viewscope/pkg/viewscope/errors"
	"github.com/sambeau/viewscope/pkg/viewscope/item"
	"github.com/sambeau/viewscope/pkg/viewscope/logging"
	"github.com/sambeau/viewscope/pkg/viewscope/presenter"
	"github.com/sambeau/viewscope/pkg/viewscope/provider"
)

func call(t *testing.T, inv provider.Invoker, method string, args ...any) any {
	t.Helper()
	v, err := inv.CallTemplateMethod(method, args)
	if err != nil {
		t.Fatalf("%s: %v", method, err)
	}
	return v
}

func TestBasicIterator(t *testing.T) {
	it := NewBasicIterator()

	type row struct {
		First, Last, Middle bool
		FirstLast, EvenOdd  string
		Pos, FromEnd        any
	}
	var got []row
	for pos := 0; pos < 4; pos++ {
		it.SetIteratorProperties(pos, 4)
		got = append(got, row{
			First:     call(t, it, "First").(bool),
			Last:      call(t, it, "Last").(bool),
			Middle:    call(t, it, "Middle").(bool),
			FirstLast: call(t, it, "FirstLast").(string),
			EvenOdd:   call(t, it, "EvenOdd").(string),
			Pos:       call(t, it, "Pos"),
			FromEnd:   call(t, it, "FromEnd"),
		})
	}
	want := []row{
		{true, false, false, "first", "odd", 1, 4},
		{false, false, true, "", "even", 2, 3},
		{false, false, true, "", "odd", 3, 2},
		{false, true, false, "last", "even", 4, 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("iterator rows mismatch (-want +got):\n%s", diff)
	}

	it.SetIteratorProperties(0, 1)
	if got := call(t, it, "FirstLast"); got != "first last" {
		t.Errorf("single item FirstLast = %q", got)
	}

	it.SetIteratorProperties(5, 10)
	tests := []struct {
		method string
		args   []any
		want   any
	}{
		{"Pos", []any{0}, 5},
		{"FromEnd", []any{0}, 4},
		{"TotalItems", nil, 10},
		{"Even", nil, true},
		{"Odd", []any{0}, true},
		{"Modulus", []any{4}, 2},
		{"Modulus", []any{4, 0}, 1},
		{"MultipleOf", []any{3}, true},
		{"MultipleOf", []any{3, 0}, false},
		{"MiddleString", nil, "middle"},
	}
	for _, tt := range tests {
		if got := call(t, it, tt.method, tt.args...); got != tt.want {
			t.Errorf("%s%v = %v, want %v", tt.method, tt.args, got, tt.want)
		}
	}

	if _, err := it.CallTemplateMethod("Modulus", []any{0}); err == nil {
		t.Error("Modulus(0) should fail")
	}
	if _, err := it.CallTemplateMethod("Pos", []any{"x"}); err == nil {
		t.Error("Pos(x) should fail")
	}
	if _, err := it.CallTemplateMethod("Modulus", nil); !stderrors.Is(err, &errors.ScopeError{Code: "ARITY-0001"}) {
		t.Errorf("Modulus() = %v, want arity error", err)
	}
}

func TestSite(t *testing.T) {
	fixed := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	site := NewSite(
		WithBaseURL("/blog"),
		WithLocale("en_GB"),
		WithModules(map[string]string{"framework": "vendor/silverstripe/framework"}),
		WithClock(func() time.Time { return fixed }),
	)

	tests := map[string]any{
		"BaseHref":        "/blog/",
		"AbsoluteBaseURL": "http://localhost/blog/",
		"CurrentLocale":   "en_GB",
		"Now":             fixed,
	}
	for method, want := range tests {
		if got := call(t, site, method); got != want {
			t.Errorf("%s = %v, want %v", method, got, want)
		}
	}
	if got := call(t, site, "ModulePath", "framework"); got != "vendor/silverstripe/framework" {
		t.Errorf("ModulePath = %v", got)
	}

	_, err := site.CallTemplateMethod("ModulePath", []any{"framwork"})
	if err == nil || !strings.Contains(err.Error(), "unknown module") || !strings.Contains(err.Error(), "framework") {
		t.Errorf("ModulePath(framwork) = %v, want unknown module with suggestion", err)
	}

	if lang := site.CurrentLanguage(); !strings.Contains(lang, "English") {
		t.Errorf("CurrentLanguage = %q", lang)
	}

	abs := NewSite(WithAbsoluteBaseURL("https://example.com"))
	if got := abs.AbsoluteBaseURL(); got != "https://example.com/" {
		t.Errorf("AbsoluteBaseURL = %q", got)
	}
}

func TestLiterals(t *testing.T) {
	l := NewLiterals(map[string]any{"Footer:HTMLText": "<b>bye</b>", "Owner": "Sam"})
	want := []provider.Variable{
		provider.Value("Footer", "<b>bye</b>", "HTMLText"),
		provider.Value("Owner", "Sam", ""),
	}
	if diff := cmp.Diff(want, l.TemplateGlobalVariables()); diff != "" {
		t.Errorf("variables mismatch (-want +got):\n%s", diff)
	}
}

func TestRegister_EndToEnd(t *testing.T) {
	reg := provider.NewRegistry()
	site := NewSite(
		WithModules(map[string]string{"framework": "vendor/silverstripe/framework"}),
		WithClock(func() time.Time { return time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC) }),
	)
	err := Register(reg, site, map[string]any{"Footer:HTMLText": "<b>bye</b>"}, logging.Discard)
	if err != nil {
		t.Fatal(err)
	}

	root := item.MapOf("Items", item.NewList(
		item.MapOf("Title", "A"),
		item.MapOf("Title", "B"),
	))
	p, err := presenter.New(root, nil, nil, reg, presenter.WithCasts(cast.NewRegistry(cast.WithLocale("en_GB"))))
	if err != nil {
		t.Fatal(err)
	}

	render := func(property string, args ...any) string {
		t.Helper()
		p.Locally()
		v, err := p.XMLVal(property, args)
		if err != nil {
			t.Fatalf("%s: %v", property, err)
		}
		return v
	}

	if got := render("ModulePath", "framework"); got != "vendor/silverstripe/framework" {
		t.Errorf("ModulePath = %q", got)
	}
	if got := render("Footer"); got != "<b>bye</b>" {
		t.Errorf("Footer = %q", got)
	}
	if got := render("Now"); got != "05/03/2024 09:30" {
		t.Errorf("Now = %q", got)
	}
	if got := render("i18nLocale"); got != "en_US" {
		t.Errorf("i18nLocale = %q", got)
	}

	p.Locally()
	if err := p.Obj("Items", nil); err != nil {
		t.Fatal(err)
	}
	p.PushScope()
	var out []string
	for {
		_, ok, err := p.Next()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		out = append(out, render("Title")+":"+render("Pos")+":"+render("FirstLast"))
	}
	if err := p.PopScope(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"A:1:first", "B:2:last"}, out); diff != "" {
		t.Errorf("loop mismatch (-want +got):\n%s", diff)
	}
}
