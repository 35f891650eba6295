package repl

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sambeau/viewscope/pkg/viewscope/item"
	"github.com/sambeau/viewscope/pkg/viewscope/lookup"
	"github.com/sambeau/viewscope/pkg/viewscope/presenter"
)

type block struct {
	kind  string // "with" or "loop"
	chain string
}

// Session is the REPL state: a presenter plus the blocks opened with :with
// and :loop.
type Session struct {
	p      *presenter.Presenter
	blocks []block
}

// NewSession starts a session at the presenter's root scope.
func NewSession(p *presenter.Presenter) *Session {
	return &Session{p: p}
}

// Prompt shows the open blocks, innermost last.
func (s *Session) Prompt() string {
	if len(s.blocks) == 0 {
		return PROMPT
	}
	parts := make([]string, len(s.blocks))
	for i, b := range s.blocks {
		parts[i] = b.chain
	}
	return strings.Join(parts, " > ") + " " + PROMPT
}

// Eval runs one input line. Lines starting with ':' are commands, a lone
// lookup chain is rendered with XML_val and anything else is interpolated
// as template text.
func (s *Session) Eval(line string) (string, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil
	}
	if strings.HasPrefix(line, ":") {
		cmd, arg, _ := strings.Cut(line, " ")
		return s.command(cmd, strings.TrimSpace(arg))
	}
	if c, err := lookup.Parse(line); err == nil {
		return c.Value(s.p)
	}
	return lookup.Interpolate(s.p, line)
}

func (s *Session) command(cmd, arg string) (string, error) {
	switch cmd {
	case ":help", ":h", ":?":
		return helpText, nil
	case ":with":
		return s.open("with", arg)
	case ":loop":
		return s.open("loop", arg)
	case ":next":
		return s.next()
	case ":end":
		return s.end()
	case ":overlay":
		return s.overlay(arg), nil
	case ":stack":
		return s.stack(), nil
	case ":names":
		return strings.Join(s.p.Registry().Names(), " "), nil
	}
	return "", fmt.Errorf("unknown command %s (type :help for commands)", cmd)
}

func (s *Session) open(kind, arg string) (string, error) {
	if arg == "" {
		return "", fmt.Errorf(":%s needs a lookup chain", kind)
	}
	c, err := lookup.Parse(arg)
	if err != nil {
		return "", err
	}
	if err := lookup.Enter(s.p, c); err != nil {
		return "", err
	}
	s.blocks = append(s.blocks, block{kind: kind, chain: c.String()})
	if kind == "with" {
		return "", nil
	}

	_, ok, err := s.p.Next()
	if err != nil || !ok {
		s.pop()
		if err != nil {
			return "", err
		}
		return "(empty loop)", nil
	}
	return s.position(), nil
}

func (s *Session) next() (string, error) {
	if len(s.blocks) == 0 || s.blocks[len(s.blocks)-1].kind != "loop" {
		return "", fmt.Errorf(":next outside a loop")
	}
	_, ok, err := s.p.Next()
	if err != nil {
		return "", err
	}
	if !ok {
		s.pop()
		return "(end of loop)", nil
	}
	return s.position(), nil
}

func (s *Session) end() (string, error) {
	if len(s.blocks) == 0 {
		return "", fmt.Errorf(":end without an open block")
	}
	return "", s.pop()
}

func (s *Session) pop() error {
	s.blocks = s.blocks[:len(s.blocks)-1]
	return s.p.PopScope()
}

func (s *Session) position() string {
	pos, total := s.p.Position()
	return fmt.Sprintf("[%d/%d] %s", pos+1, total, item.TypeName(s.p.Item()))
}

// overlay lists the overlay, sets "Name value" or removes "Name".
func (s *Session) overlay(arg string) string {
	ov := s.p.Overlay()
	if arg == "" {
		if len(ov) == 0 {
			return "(empty overlay)"
		}
		keys := make([]string, 0, len(ov))
		for k := range ov {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var sb strings.Builder
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte('\n')
			}
			fmt.Fprintf(&sb, "  %s = %v", k, ov[k])
		}
		return sb.String()
	}

	name, value, found := strings.Cut(arg, " ")
	if !found {
		delete(ov, name)
		return "removed " + name
	}
	ov[name] = strings.TrimSpace(value)
	return "set " + name
}

func (s *Session) stack() string {
	var sb strings.Builder
	for i, f := range s.p.Frames() {
		if i > 0 {
			sb.WriteByte('\n')
		}
		marker := " "
		if i == s.p.LocalIndex() {
			marker = "*"
		}
		fmt.Fprintf(&sb, "%s %d %s up=%d pop=%d", marker, i, item.TypeName(f.Item), f.UpIndex, f.PopIndex)
		if f.Iterator != nil {
			fmt.Fprintf(&sb, " loop=%d/%d", f.Iterator.Key()+1, f.Total)
		}
		if len(f.Overlay) > 0 {
			fmt.Fprintf(&sb, " overlay=%d", len(f.Overlay))
		}
	}
	fmt.Fprintf(&sb, "\ndepth %d", s.p.Depth())
	return sb.String()
}

// Names returns the names completion offers in the current scope: the
// current item's fields followed by every registry name.
func (s *Session) Names() []string {
	var names []string
	if l, ok := s.p.Item().(item.Lister); ok {
		names = append(names, l.FieldNames()...)
	}
	return append(names, s.p.Registry().Names()...)
}

// Complete returns candidate lines for the last name being typed.
func (s *Session) Complete(line string) []string {
	start := strings.LastIndexAny(line, " $.(,{") + 1
	prefix := line[start:]
	if prefix == "" {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for _, name := range s.Names() {
		if strings.HasPrefix(name, prefix) && !seen[name] {
			seen[name] = true
			out = append(out, line[:start]+name)
		}
	}
	return out
}

const helpText = `REPL Commands:
  :help, :h, :?        Show this help
  :with $Chain         Enter the chain's value as a new scope
  :loop $Chain         Loop over the chain's value (first item)
  :next                Move to the next loop item
  :end                 Close the innermost :with or :loop
  :overlay [Name [v]]  List, set or remove overlay values
  :stack               Show the item stack
  :names               Show global and iterator names
  exit, quit           Exit the REPL

Anything else is a lookup chain ($Up.Title) or template text.`
