// Package lookup parses template lookup chains such as $Up.Title or
// $ModulePath("framework") and runs them against a presenter the way
// compiled templates do.
package lookup

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sambeau/viewscope/pkg/viewscope/errors"
)

// Chain is a dotted lookup: $A.B(1).C
type Chain struct {
	Steps []Step
}

// Step is one name in a chain with its call arguments.
type Step struct {
	Name string
	Args []Arg
}

// Arg is a call argument: a literal, or a nested chain evaluated to its
// rendered value.
type Arg struct {
	Literal any
	Chain   *Chain
}

// String returns the chain in template syntax.
func (c *Chain) String() string {
	var sb strings.Builder
	sb.WriteByte('$')
	for i, s := range c.Steps {
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(s.Name)
		if len(s.Args) == 0 {
			continue
		}
		sb.WriteByte('(')
		for j, a := range s.Args {
			if j > 0 {
				sb.WriteString(", ")
			}
			switch v := a.Literal.(type) {
			case nil:
				if a.Chain != nil {
					sb.WriteString(a.Chain.String())
				} else {
					sb.WriteString("null")
				}
			case string:
				sb.WriteString(strconv.Quote(v))
			default:
				fmt.Fprint(&sb, v)
			}
		}
		sb.WriteByte(')')
	}
	return sb.String()
}

// Parse parses a single chain. The leading $ is optional.
func Parse(input string) (*Chain, error) {
	p := &parser{src: strings.TrimSpace(input)}
	if p.peek() == '$' {
		p.pos++
	}
	c, err := p.chain()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, p.fail("unexpected " + strconv.Quote(p.src[p.pos:p.pos+1]))
	}
	return c, nil
}

type parser struct {
	src   string
	pos   int
	start int // where the current chain or tag began
}

func (p *parser) fail(reason string) error {
	input := p.src[p.start:]
	if len(input) > 40 {
		input = input[:40] + "..."
	}
	return errors.New("PARSE-0001", map[string]any{
		"Input":  strconv.Quote(input),
		"Reason": reason,
		"Offset": p.pos - p.start,
	})
}

func (p *parser) peek() byte {
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *parser) peekAt(n int) byte {
	if p.pos+n < len(p.src) {
		return p.src[p.pos+n]
	}
	return 0
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isIdent(c byte) bool {
	return isIdentStart(c) || ('0' <= c && c <= '9')
}

func (p *parser) ident() string {
	start := p.pos
	if !isIdentStart(p.peek()) {
		return ""
	}
	for p.pos < len(p.src) && isIdent(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

// chain reads Name(args).Name... A dot only continues the chain when a
// name follows it, so "$Title." ends a sentence.
func (p *parser) chain() (*Chain, error) {
	c := &Chain{}
	for {
		name := p.ident()
		if name == "" {
			return nil, p.fail("expected a name")
		}
		step := Step{Name: name}
		if p.peek() == '(' {
			args, err := p.args()
			if err != nil {
				return nil, err
			}
			step.Args = args
		}
		c.Steps = append(c.Steps, step)

		if p.peek() == '.' && isIdentStart(p.peekAt(1)) {
			p.pos++
			continue
		}
		return c, nil
	}
}

func (p *parser) args() ([]Arg, error) {
	p.pos++ // (
	var args []Arg
	p.skipSpace()
	if p.peek() == ')' {
		p.pos++
		return args, nil
	}
	for {
		p.skipSpace()
		a, err := p.arg()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return args, nil
		case 0:
			return nil, p.fail("unclosed argument list")
		default:
			return nil, p.fail("unexpected " + strconv.Quote(string(p.peek())) + " in arguments")
		}
	}
}

func (p *parser) arg() (Arg, error) {
	c := p.peek()
	switch {
	case c == '"' || c == '\'':
		s, err := p.quoted(c)
		return Arg{Literal: s}, err
	case c == '$':
		p.pos++
		nested, err := p.chain()
		return Arg{Chain: nested}, err
	case c == '-' || ('0' <= c && c <= '9'):
		return p.number()
	case isIdentStart(c):
		word := p.ident()
		switch word {
		case "true":
			return Arg{Literal: true}, nil
		case "false":
			return Arg{Literal: false}, nil
		case "null":
			return Arg{}, nil
		}
		// Bare words are strings: $ModulePath(framework)
		return Arg{Literal: word}, nil
	}
	return Arg{}, p.fail("expected an argument")
}

func (p *parser) quoted(q byte) (string, error) {
	p.pos++
	var sb strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '\\' && p.pos+1 < len(p.src):
			sb.WriteByte(p.src[p.pos+1])
			p.pos += 2
		case c == q:
			p.pos++
			return sb.String(), nil
		default:
			sb.WriteByte(c)
			p.pos++
		}
	}
	return "", p.fail("unterminated string")
}

func (p *parser) number() (Arg, error) {
	start := p.pos
	if p.peek() == '-' {
		p.pos++
	}
	for p.pos < len(p.src) && (('0' <= p.src[p.pos] && p.src[p.pos] <= '9') || p.src[p.pos] == '.') {
		p.pos++
	}
	text := p.src[start:p.pos]
	if n, err := strconv.Atoi(text); err == nil {
		return Arg{Literal: n}, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		p.pos = start
		return Arg{}, p.fail("invalid number " + strconv.Quote(text))
	}
	return Arg{Literal: f}, nil
}
