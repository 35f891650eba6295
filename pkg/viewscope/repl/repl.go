// Package repl is an interactive explorer for a presenter's scope: type
// lookup chains, open blocks with :with and :loop and inspect the stack.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"

	"github.com/sambeau/viewscope/pkg/viewscope/presenter"
)

const PROMPT = ">> "

const historyLimit = 1000

const LOGO = `
█░█ █ █▀▀ █░█░█ █▀ █▀▀ █▀█ █▀█ █▀▀
▀▄▀ █ ██▄ ▀▄▀▄▀ ▄█ █▄▄ █▄█ █▀▀ ██▄ `

// Interactive reports whether in is a terminal.
func Interactive(in io.Reader) bool {
	f, ok := in.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Start runs the REPL against p. On a terminal it uses line editing,
// history and tab completion; otherwise it reads plain lines from in and
// prints only results, so it can be scripted.
func Start(in io.Reader, out io.Writer, p *presenter.Presenter, version string) {
	s := NewSession(p)
	if !Interactive(in) {
		runPlain(in, out, s)
		return
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(s.Complete)

	// History is optional: a second REPL holding the lock runs without it.
	history, err := OpenHistory(DefaultHistoryPath())
	if err == nil {
		defer history.Close()
		if lines, err := history.Recent(historyLimit); err == nil && len(lines) > 0 {
			line.ReadHistory(strings.NewReader(strings.Join(lines, "\n") + "\n"))
		}
	}

	fmt.Fprintf(out, "%s", LOGO)
	fmt.Fprintln(out, "v", version)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Type 'exit' or Ctrl+D to quit")
	fmt.Fprintln(out, "Type ':help' for REPL commands")
	fmt.Fprintln(out, "")

	for {
		input, err := line.Prompt(s.Prompt())
		if err != nil {
			if err == liner.ErrPromptAborted {
				fmt.Fprintln(out, "^C")
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(out, "\nGoodbye!")
				return
			}
			fmt.Fprintf(out, "Error reading input: %v\n", err)
			continue
		}
		trimmed := strings.TrimSpace(input)
		if trimmed == "exit" || trimmed == "quit" {
			fmt.Fprintln(out, "Goodbye!")
			return
		}
		if trimmed != "" {
			line.AppendHistory(input)
			if history != nil {
				history.Add(input)
			}
		}
		evalLine(out, s, trimmed)
	}
}

func runPlain(in io.Reader, out io.Writer, s *Session) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		trimmed := strings.TrimSpace(scanner.Text())
		if trimmed == "exit" || trimmed == "quit" {
			return
		}
		evalLine(out, s, trimmed)
	}
}

func evalLine(out io.Writer, s *Session, input string) {
	result, err := s.Eval(input)
	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return
	}
	if result != "" {
		io.WriteString(out, result)
		io.WriteString(out, "\n")
	}
}
