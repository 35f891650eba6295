package builtins

import (
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/sambeau/viewscope/pkg/viewscope/errors"
	"github.com/sambeau/viewscope/pkg/viewscope/item"
	"github.com/sambeau/viewscope/pkg/viewscope/provider"
)

// Site provides site-wide globals: base URLs, module paths, the locale
// and the current time.
type Site struct {
	baseURL         string
	absoluteBaseURL string
	locale          string
	modules         map[string]string
	now             func() time.Time
	methods         provider.MethodTable
}

// SiteOption configures a Site.
type SiteOption func(*Site)

// WithBaseURL sets the path the site is served under, e.g. "/blog/".
func WithBaseURL(u string) SiteOption {
	return func(s *Site) { s.baseURL = u }
}

// WithAbsoluteBaseURL sets the full site URL, e.g. "https://example.com/".
func WithAbsoluteBaseURL(u string) SiteOption {
	return func(s *Site) { s.absoluteBaseURL = u }
}

// WithLocale sets the site locale, e.g. "en_GB".
func WithLocale(locale string) SiteOption {
	return func(s *Site) { s.locale = locale }
}

// WithModules sets the module name to path table used by ModulePath.
func WithModules(modules map[string]string) SiteOption {
	return func(s *Site) { s.modules = modules }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) SiteOption {
	return func(s *Site) { s.now = now }
}

// NewSite creates the site globals provider.
func NewSite(opts ...SiteOption) *Site {
	s := &Site{
		baseURL: "/",
		locale:  "en_US",
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.methods = s.table()
	return s
}

// TemplateGlobalVariables implements provider.GlobalProvider.
func (s *Site) TemplateGlobalVariables() []provider.Variable {
	vars := provider.Methods("BaseHref", "AbsoluteBaseURL", "ModulePath", "CurrentLocale", "CurrentLanguage")
	return append(vars,
		provider.Alias("BaseURL", "BaseHref"),
		provider.Alias("i18nLocale", "CurrentLocale"),
		provider.Variable{Name: "Now", Method: "Now", Casting: "Datetime"},
	)
}

// CallTemplateMethod implements provider.Invoker.
func (s *Site) CallTemplateMethod(method string, args []any) (any, error) {
	return s.methods.Call("Site", method, args)
}

// BaseHref returns the base path with a trailing slash.
func (s *Site) BaseHref() string {
	if !strings.HasSuffix(s.baseURL, "/") {
		return s.baseURL + "/"
	}
	return s.baseURL
}

// AbsoluteBaseURL returns the full site URL. Without a configured host the
// base path is resolved against http://localhost.
func (s *Site) AbsoluteBaseURL() string {
	if s.absoluteBaseURL != "" {
		if !strings.HasSuffix(s.absoluteBaseURL, "/") {
			return s.absoluteBaseURL + "/"
		}
		return s.absoluteBaseURL
	}
	base, _ := url.Parse("http://localhost/")
	ref, err := url.Parse(s.BaseHref())
	if err != nil {
		return base.String()
	}
	return base.ResolveReference(ref).String()
}

// ModulePath returns the configured path for a module.
func (s *Site) ModulePath(name string) (string, error) {
	if p, ok := s.modules[name]; ok {
		return p, nil
	}
	names := make([]string, 0, len(s.modules))
	for n := range s.modules {
		names = append(names, n)
	}
	sort.Strings(names)
	err := errors.New("UNDEF-0003", map[string]any{"Module": name})
	if suggestion := errors.FindClosestMatch(name, names); suggestion != "" {
		err.Hints = append(err.Hints, "Did you mean `"+suggestion+"`?")
	}
	return "", err
}

// CurrentLanguage returns the locale's language name in that language.
func (s *Site) CurrentLanguage() string {
	tag, err := language.Parse(strings.ReplaceAll(s.locale, "_", "-"))
	if err != nil {
		return s.locale
	}
	return display.Self.Name(tag)
}

func (s *Site) table() provider.MethodTable {
	str := func(fn func() string) provider.MethodFunc {
		return func(args []any) (any, error) { return fn(), nil }
	}
	return provider.MethodTable{
		"BaseHref":        {Fn: str(s.BaseHref), Arity: "0"},
		"AbsoluteBaseURL": {Fn: str(s.AbsoluteBaseURL), Arity: "0"},
		"CurrentLocale":   {Fn: str(func() string { return s.locale }), Arity: "0"},
		"CurrentLanguage": {Fn: str(s.CurrentLanguage), Arity: "0"},
		"ModulePath": {
			Fn: func(args []any) (any, error) {
				return s.ModulePath(item.ToString(args[0]))
			},
			Arity:       "1",
			Description: "resource path of a named module",
		},
		"Now": {
			Fn:    func(args []any) (any, error) { return s.now(), nil },
			Arity: "0",
		},
	}
}
