package lookup

import (
	"strings"
)

// Template is text with $chain and {$chain} references and the block
// tags <% with %>, <% loop %> and <% if %>.
//
//	<% loop $Items %>{$Pos}. $Title<% if $Last %><% else %>, <% end_if %><% end_loop %>
type Template struct {
	nodes []node
}

type node interface {
	exec(s Scope, sb *strings.Builder) error
}

type textNode string

func (n textNode) exec(s Scope, sb *strings.Builder) error {
	sb.WriteString(string(n))
	return nil
}

type valueNode struct{ chain *Chain }

func (n valueNode) exec(s Scope, sb *strings.Builder) error {
	v, err := n.chain.Value(s)
	if err != nil {
		return err
	}
	sb.WriteString(v)
	return nil
}

type withNode struct {
	chain *Chain
	body  []node
}

func (n withNode) exec(s Scope, sb *strings.Builder) error {
	return With(s, n.chain, func() error { return execNodes(s, n.body, sb) })
}

type loopNode struct {
	chain *Chain
	body  []node
}

func (n loopNode) exec(s Scope, sb *strings.Builder) error {
	return Loop(s, n.chain, func(int) error { return execNodes(s, n.body, sb) })
}

type ifNode struct {
	chain *Chain
	not   bool
	then  []node
	els   []node
}

func (n ifNode) exec(s Scope, sb *strings.Builder) error {
	has, err := n.chain.Has(s)
	if err != nil {
		return err
	}
	if has != n.not {
		return execNodes(s, n.then, sb)
	}
	return execNodes(s, n.els, sb)
}

func execNodes(s Scope, nodes []node, sb *strings.Builder) error {
	for _, n := range nodes {
		if err := n.exec(s, sb); err != nil {
			return err
		}
	}
	return nil
}

// Execute renders the template against s.
func (t *Template) Execute(s Scope) (string, error) {
	var sb strings.Builder
	if err := execNodes(s, t.nodes, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Interpolate parses and renders text in one go.
func Interpolate(s Scope, text string) (string, error) {
	t, err := ParseTemplate(text)
	if err != nil {
		return "", err
	}
	return t.Execute(s)
}

// ParseTemplate parses template text.
func ParseTemplate(text string) (*Template, error) {
	p := &parser{src: text}
	nodes, end, err := p.nodes()
	if err != nil {
		return nil, err
	}
	if end != "" {
		return nil, p.fail("unexpected <% " + end + " %>")
	}
	return &Template{nodes: nodes}, nil
}

// nodes parses until the end of the text or a closing tag, which is
// returned as end ("else", "end_if", ...).
func (p *parser) nodes() (nodes []node, end string, err error) {
	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			nodes = append(nodes, textNode(text.String()))
			text.Reset()
		}
	}

	for p.pos < len(p.src) {
		rest := p.src[p.pos:]
		switch {
		case strings.HasPrefix(rest, "<%"):
			flush()
			n, closing, err := p.tag()
			if err != nil {
				return nil, "", err
			}
			if closing != "" {
				return nodes, closing, nil
			}
			nodes = append(nodes, n)

		case strings.HasPrefix(rest, "{$"):
			flush()
			p.start = p.pos
			p.pos += 2
			c, err := p.chain()
			if err != nil {
				return nil, "", err
			}
			if p.peek() != '}' {
				return nil, "", p.fail("expected }")
			}
			p.pos++
			nodes = append(nodes, valueNode{c})

		case rest[0] == '$' && len(rest) > 1 && isIdentStart(rest[1]):
			flush()
			p.start = p.pos
			p.pos++
			c, err := p.chain()
			if err != nil {
				return nil, "", err
			}
			nodes = append(nodes, valueNode{c})

		default:
			text.WriteByte(rest[0])
			p.pos++
		}
	}
	flush()
	return nodes, "", nil
}

// tag parses one <% ... %> tag. Block tags consume their body and closing
// tag; closing tags are returned by name.
func (p *parser) tag() (node, string, error) {
	p.start = p.pos
	closeAt := strings.Index(p.src[p.pos:], "%>")
	if closeAt < 0 {
		return nil, "", p.fail("unclosed <%")
	}
	inner := strings.TrimSpace(p.src[p.pos+2 : p.pos+closeAt])
	p.pos += closeAt + 2

	keyword, arg, _ := strings.Cut(inner, " ")
	arg = strings.TrimSpace(arg)
	switch keyword {
	case "else", "end_if", "end_with", "end_loop":
		return nil, keyword, nil
	case "with", "loop", "if":
	default:
		return nil, "", p.fail("unknown tag " + keyword)
	}

	not := false
	if keyword == "if" {
		if rest, ok := strings.CutPrefix(arg, "not "); ok {
			not, arg = true, strings.TrimSpace(rest)
		}
	}
	c, err := Parse(arg)
	if err != nil {
		return nil, "", err
	}

	body, end, err := p.nodes()
	if err != nil {
		return nil, "", err
	}
	switch keyword {
	case "with":
		if end != "end_with" {
			return nil, "", p.fail("<% with %> closed by " + closer(end))
		}
		return withNode{c, body}, "", nil
	case "loop":
		if end != "end_loop" {
			return nil, "", p.fail("<% loop %> closed by " + closer(end))
		}
		return loopNode{c, body}, "", nil
	}

	n := ifNode{chain: c, not: not, then: body}
	if end == "else" {
		if n.els, end, err = p.nodes(); err != nil {
			return nil, "", err
		}
	}
	if end != "end_if" {
		return nil, "", p.fail("<% if %> closed by " + closer(end))
	}
	return n, "", nil
}

func closer(end string) string {
	if end == "" {
		return "end of text"
	}
	return "<% " + end + " %>"
}
