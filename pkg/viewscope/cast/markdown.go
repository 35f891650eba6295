package cast

import (
	"bytes"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/sambeau/viewscope/pkg/viewscope/provider"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// RenderMarkdown converts Markdown source to HTML. Conversion errors leave
// the source escaped as plain text.
func RenderMarkdown(src string) string {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return html.EscapeString(src)
	}
	return buf.String()
}

func newMarkdown(r *Registry, name string) *Field {
	f := &Field{
		render:  func(f *Field) string { return RenderMarkdown(f.text()) },
		exists:  func(f *Field) bool { return strings.TrimSpace(f.text()) != "" },
		casting: map[string]string{"HTML": "HTMLText", "RAW": "HTMLText"},
	}
	f.methods = provider.MethodTable{
		"HTML": {
			Fn:    func(args []any) (any, error) { return RenderMarkdown(f.text()), nil },
			Arity: "0",
		},
		"RAW": {
			Fn:    func(args []any) (any, error) { return f.text(), nil },
			Arity: "0",
		},
		"Plain": {
			Fn:    func(args []any) (any, error) { return PlainText(RenderMarkdown(f.text())), nil },
			Arity: "0",
		},
		"Summary": {
			Fn: func(args []any) (any, error) {
				n := 50
				if len(args) > 0 {
					var err error
					if n, err = intArg("Summary", args, 0); err != nil {
						return nil, err
					}
				}
				return limitWords(PlainText(RenderMarkdown(f.text())), n, ellipsis), nil
			},
			Arity: "0-1",
		},
	}
	return f
}
