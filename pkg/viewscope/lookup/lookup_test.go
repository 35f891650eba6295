package lookup

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sambeau/viewscope/pkg/viewscope/builtins"
	"github.com/sambeau/viewscope/pkg/viewscope/errors"
	"github.com/sambeau/viewscope/pkg/viewscope/item"
	"github.com/sambeau/viewscope/pkg/viewscope/presenter"
	"github.com/sambeau/viewscope/pkg/viewscope/provider"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  *Chain
	}{
		{"$Title", &Chain{Steps: []Step{{Name: "Title"}}}},
		{"Up.Title", &Chain{Steps: []Step{{Name: "Up"}, {Name: "Title"}}}},
		{`$ModulePath("framework")`, &Chain{Steps: []Step{
			{Name: "ModulePath", Args: []Arg{{Literal: "framework"}}},
		}}},
		{`$Content.LimitCharacters(20, '...').UpperCase`, &Chain{Steps: []Step{
			{Name: "Content"},
			{Name: "LimitCharacters", Args: []Arg{{Literal: 20}, {Literal: "..."}}},
			{Name: "UpperCase"},
		}}},
		{"$Modulus(3, -1.5, true, null, framework)", &Chain{Steps: []Step{
			{Name: "Modulus", Args: []Arg{{Literal: 3}, {Literal: -1.5}, {Literal: true}, {}, {Literal: "framework"}}},
		}}},
		{"$Greet($Up.Name)", &Chain{Steps: []Step{
			{Name: "Greet", Args: []Arg{{Chain: &Chain{Steps: []Step{{Name: "Up"}, {Name: "Name"}}}}}},
		}}},
		{"$Items()", &Chain{Steps: []Step{{Name: "Items"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	for _, input := range []string{"", "$", "$Title.", "$Title(", `$Title("x`, "$Title(1 2)", "$Title extra", "$A(1..2)"} {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			var se *errors.ScopeError
			if !stderrors.As(err, &se) || se.Code != "PARSE-0001" {
				t.Errorf("Parse(%q) = %v, want parse error", input, err)
			}
		})
	}
}

func TestChainString(t *testing.T) {
	for _, input := range []string{
		"$Title",
		"$Up.Title",
		`$ModulePath("framework")`,
		`$Modulus(3, 1.5, true, null)`,
		"$Greet($Up.Name)",
	} {
		c, err := Parse(input)
		if err != nil {
			t.Fatal(err)
		}
		if got := c.String(); got != input {
			t.Errorf("String() = %q, want %q", got, input)
		}
	}
}

func newPresenter(t *testing.T) *presenter.Presenter {
	t.Helper()
	reg := provider.NewRegistry()
	site := builtins.NewSite(builtins.WithModules(map[string]string{"framework": "vendor/framework"}))
	if err := builtins.Register(reg, site, map[string]any{"Owner": "Sam"}, nil); err != nil {
		t.Fatal(err)
	}
	root := item.MapOf(
		"Title", "Home & Garden",
		"Name", "Root",
		"Greet", item.Func(func(args []any) (any, error) {
			return "Hello, " + item.ToString(args[0]), nil
		}),
		"Child", item.MapOf("Title", "Kid", "Name", "Child"),
		"Items", item.NewList(
			item.MapOf("Title", "A", "Tags", item.NewList("x", "y")),
			item.MapOf("Title", "B", "Tags", item.NewList()),
			item.MapOf("Title", "C", "Tags", item.NewList("z")),
		),
	)
	p, err := presenter.New(root, nil, nil, reg)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestValue(t *testing.T) {
	p := newPresenter(t)
	tests := []struct {
		chain string
		want  string
	}{
		{"$Title", "Home &amp; Garden"},
		{"$Title.RAW", "Home & Garden"},
		{"$Child.Title", "Kid"},
		{"$Child.Up.Title", "Home &amp; Garden"},
		{"$ModulePath(framework)", "vendor/framework"},
		{"$Owner", "Sam"},
		{"$Greet($Child.Name)", "Hello, Child"},
		{"$Greet($Owner)", "Hello, Sam"},
		{"$Items.Count", "3"},
		{"$Pos", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.chain, func(t *testing.T) {
			c, err := Parse(tt.chain)
			if err != nil {
				t.Fatal(err)
			}
			got, err := c.Value(p)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if n := len(p.Frames()); n != 1 {
				t.Errorf("left %d frames", n)
			}
		})
	}
}

func TestValue_Errors(t *testing.T) {
	p := newPresenter(t)
	for _, chain := range []string{"$Up", "$Up.Title", "$Nope", "$Child.Nope", "$Greet($Nope)"} {
		c, err := Parse(chain)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := c.Value(p); err == nil {
			t.Errorf("%s: expected error", chain)
		}
		if n := len(p.Frames()); n != 1 {
			t.Errorf("%s: left %d frames", chain, n)
		}
	}
}

func TestWithAndLoop(t *testing.T) {
	p := newPresenter(t)

	child, _ := Parse("$Child")
	var inside string
	err := With(p, child, func() error {
		c, _ := Parse("$Title")
		var err error
		inside, err = c.Value(p)
		return err
	})
	if err != nil || inside != "Kid" {
		t.Errorf("With(Child) Title = %q, %v", inside, err)
	}

	items, _ := Parse("$Items")
	title, _ := Parse("$Title")
	var got []string
	err = Loop(p, items, func(i int) error {
		v, err := title.Value(p)
		got = append(got, v)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"A", "B", "C"}, got); diff != "" {
		t.Errorf("loop mismatch (-want +got):\n%s", diff)
	}
	if p.Depth() != 0 {
		t.Errorf("depth after loop = %d", p.Depth())
	}

	stop := stderrors.New("stop")
	if err := Loop(p, items, func(i int) error { return stop }); err != stop {
		t.Errorf("Loop error = %v, want stop", err)
	}
	if p.Depth() != 0 {
		t.Errorf("depth after failed loop = %d", p.Depth())
	}
}

func TestTemplate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"text only", "plain text, $5 off", "plain text, $5 off"},
		{"values", "<h1>$Title</h1> by {$Owner}.", "<h1>Home &amp; Garden</h1> by Sam."},
		{"braces join words", "{$Owner}s", "Sams"},
		{
			"loop",
			"<% loop $Items %>{$Pos}.$Title<% if not $Last %>, <% end_if %><% end_loop %>",
			"1.A, 2.B, 3.C",
		},
		{
			"nested loop",
			"<% loop $Items %>{$Title}(<% loop $Tags %>$Up.Title$Me<% end_loop %>)<% end_loop %>",
			"A(AxAy)B()C(Cz)",
		},
		{"with", "<% with $Child %>$Title of $Up.Name<% end_with %>", "Kid of Root"},
		{"if else", "<% if $Nope %>yes<% else %>no<% end_if %>", "no"},
		{"if", "<% if $Items %>has items<% end_if %>", "has items"},
		{"first last", "<% loop $Items %>[$FirstLast]<% end_loop %>", "[first][][last]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPresenter(t)
			got, err := Interpolate(p, tt.text)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if p.Depth() != 0 || len(p.Frames()) != 1 {
				t.Errorf("scope not restored: depth=%d frames=%d", p.Depth(), len(p.Frames()))
			}
		})
	}
}

func TestParseTemplate_Errors(t *testing.T) {
	for _, text := range []string{
		"<% loop $Items %>unclosed",
		"<% with $Child %><% end_loop %>",
		"<% end_if %>",
		"<% include Foo %>",
		"<% if $A ",
		"{$Title",
	} {
		if _, err := ParseTemplate(text); err == nil {
			t.Errorf("ParseTemplate(%q): expected error", text)
		} else if !strings.Contains(err.Error(), "lookup") {
			t.Errorf("ParseTemplate(%q) error = %v", text, err)
		}
	}
}
