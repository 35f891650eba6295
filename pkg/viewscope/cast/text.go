package cast

import (
	"html"
	"strings"
	"text/template"
	"unicode/utf8"

	xhtml "golang.org/x/net/html"

	"github.com/sambeau/viewscope/pkg/viewscope/errors"
	"github.com/sambeau/viewscope/pkg/viewscope/item"
	"github.com/sambeau/viewscope/pkg/viewscope/provider"
)

const ellipsis = "..."

// rawCastings marks method results that are already safe HTML.
var rawCastings = map[string]string{
	"RAW": "HTMLText",
	"XML": "HTMLText",
	"ATT": "HTMLText",
	"JS":  "HTMLText",
}

func (f *Field) text() string {
	return item.ToString(f.value)
}

func newText(r *Registry, name string) *Field {
	f := &Field{
		render:  func(f *Field) string { return html.EscapeString(f.text()) },
		exists:  func(f *Field) bool { return f.text() != "" },
		casting: rawCastings,
	}
	f.methods = textMethods(func() string { return f.text() })
	return f
}

func newHTMLText(r *Registry, name string) *Field {
	f := &Field{
		render:  func(f *Field) string { return f.text() },
		exists:  func(f *Field) bool { return strings.TrimSpace(f.text()) != "" },
		casting: rawCastings,
	}
	// Length limits and case changes work on the text without markup.
	f.methods = textMethods(func() string { return PlainText(f.text()) })
	f.methods["RAW"] = provider.MethodEntry{
		Fn:    func(args []any) (any, error) { return f.text(), nil },
		Arity: "0",
	}
	f.methods["XML"] = provider.MethodEntry{
		Fn:    func(args []any) (any, error) { return html.EscapeString(f.text()), nil },
		Arity: "0",
	}
	f.methods["Summary"] = provider.MethodEntry{
		Fn: func(args []any) (any, error) {
			n := 50
			if len(args) > 0 {
				var err error
				if n, err = intArg("Summary", args, 0); err != nil {
					return nil, err
				}
			}
			return limitWords(PlainText(f.text()), n, ellipsis), nil
		},
		Arity:       "0-1",
		Description: "plain text limited to n words (default 50)",
	}
	return f
}

func textMethods(src func() string) provider.MethodTable {
	return provider.MethodTable{
		"RAW": {
			Fn:    func(args []any) (any, error) { return src(), nil },
			Arity: "0",
		},
		"XML": {
			Fn:    func(args []any) (any, error) { return html.EscapeString(src()), nil },
			Arity: "0",
		},
		"ATT": {
			Fn:    func(args []any) (any, error) { return html.EscapeString(src()), nil },
			Arity: "0",
		},
		"JS": {
			Fn:    func(args []any) (any, error) { return template.JSEscapeString(src()), nil },
			Arity: "0",
		},
		"Plain": {
			Fn:    func(args []any) (any, error) { return src(), nil },
			Arity: "0",
		},
		"LowerCase": {
			Fn:    func(args []any) (any, error) { return strings.ToLower(src()), nil },
			Arity: "0",
		},
		"UpperCase": {
			Fn:    func(args []any) (any, error) { return strings.ToUpper(src()), nil },
			Arity: "0",
		},
		"Length": {
			Fn:    func(args []any) (any, error) { return utf8.RuneCountInString(src()), nil },
			Arity: "0",
		},
		"LimitCharacters": {
			Fn: func(args []any) (any, error) {
				n, suffix, err := limitArgs("LimitCharacters", args)
				if err != nil {
					return nil, err
				}
				return limitChars(src(), n, suffix), nil
			},
			Arity:       "1-2",
			Description: "truncate to n characters, appending suffix",
		},
		"LimitWordCount": {
			Fn: func(args []any) (any, error) {
				n, suffix, err := limitArgs("LimitWordCount", args)
				if err != nil {
					return nil, err
				}
				return limitWords(src(), n, suffix), nil
			},
			Arity:       "1-2",
			Description: "truncate to n words, appending suffix",
		},
		"FirstSentence": {
			Fn:    func(args []any) (any, error) { return firstSentence(src()), nil },
			Arity: "0",
		},
		"FirstParagraph": {
			Fn: func(args []any) (any, error) {
				para, _, _ := strings.Cut(strings.TrimSpace(src()), "\n\n")
				return para, nil
			},
			Arity: "0",
		},
	}
}

func intArg(function string, args []any, i int) (int, error) {
	n, ok := item.ToInt(args[i])
	if !ok {
		return 0, errors.NewArgType(function, i, "integer", args[i])
	}
	return n, nil
}

func limitArgs(function string, args []any) (int, string, error) {
	n, err := intArg(function, args, 0)
	if err != nil {
		return 0, "", err
	}
	suffix := ellipsis
	if len(args) > 1 {
		suffix = item.ToString(args[1])
	}
	return n, suffix, nil
}

func limitChars(s string, n int, suffix string) string {
	if n < 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimRight(string(runes[:n]), " ") + suffix
}

func limitWords(s string, n int, suffix string) string {
	words := strings.Fields(s)
	if n < 0 || len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + suffix
}

func firstSentence(s string) string {
	s = strings.TrimSpace(s)
	for i, r := range s {
		if r == '.' || r == '!' || r == '?' {
			return s[:i+1]
		}
	}
	return s
}

// PlainText strips markup from an HTML fragment, keeping text content.
// Block-level elements are separated by spaces.
func PlainText(fragment string) string {
	z := xhtml.NewTokenizer(strings.NewReader(fragment))
	var sb strings.Builder
	for {
		switch z.Next() {
		case xhtml.ErrorToken:
			return strings.Join(strings.Fields(sb.String()), " ")
		case xhtml.TextToken:
			sb.Write(z.Text())
		case xhtml.StartTagToken, xhtml.EndTagToken, xhtml.SelfClosingTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "p", "br", "div", "li", "h1", "h2", "h3", "h4", "h5", "h6", "tr", "td":
				sb.WriteByte(' ')
			}
		}
	}
}
