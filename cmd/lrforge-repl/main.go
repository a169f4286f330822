/*
Lrforge-repl runs an interactive token-pushing session against the demo
sum grammar, printing a trace of every shift/reduce/accept step. It
exists to exercise runtime.Parser's push-based interface from a TTY, the
way tqi exercises the game engine from a TTY.

Usage:

	lrforge-repl

Type a whitespace-separated sequence of tokens, one of "NUM" or "+", per
line, for example:

	NUM + NUM + NUM

Type "QUIT" to exit.
*/
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/dekarrin/lrforge"
	"github.com/dekarrin/lrforge/grammar"
	"github.com/dekarrin/lrforge/runtime"
	"github.com/dekarrin/lrforge/symtab"
)

const (
	ExitSuccess = iota
	ExitInitError
)

func main() {
	returnCode := ExitSuccess
	defer func() { os.Exit(returnCode) }()

	g, syms, err := demoGrammar()
	if err != nil {
		fmt.Fprintf(os.Stderr, "lrforge-repl: %v\n", err)
		returnCode = ExitInitError
		return
	}

	result, err := lrforge.Build(g)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lrforge-repl: %v\n", err)
		returnCode = ExitInitError
		return
	}
	for _, c := range result.Conflicts {
		fmt.Fprintf(os.Stderr, "lrforge-repl: warning: %s\n", c.String())
	}

	rl, err := readline.NewEx(&readline.Config{Prompt: "lrforge> "})
	if err != nil {
		fmt.Fprintf(os.Stderr, "lrforge-repl: create readline config: %v\n", err)
		returnCode = ExitInitError
		return
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == io.EOF {
				return
			}
			fmt.Fprintf(os.Stderr, "lrforge-repl: %v\n", err)
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "QUIT") {
			return
		}

		runSentence(g, result, syms, line)
	}
}

// runSentence tokenizes one whitespace-separated line and pushes it
// through a fresh parser, printing every step the trace hook observes.
func runSentence(g *grammar.Grammar, result *lrforge.Result, syms map[string]symtab.SymbolId, line string) {
	p := runtime.New(g, result.Table)
	p.SetTrace(func(e runtime.Event) {
		switch e.Kind {
		case runtime.EventShift:
			fmt.Printf("  shift -> state %d\n", e.State)
		case runtime.EventReduce:
			fmt.Printf("  reduce rule %d -> state %d\n", e.Rule, e.State)
		case runtime.EventAccept:
			fmt.Println("  accept")
		}
	})

	reduceFn := func(rule grammar.Rule, rhs []any) any {
		if rule.Action.Name == "add" {
			return rhs[0].(int) + rhs[2].(int)
		}
		if len(rhs) == 1 {
			return rhs[0]
		}
		return nil
	}

	var numVal int
	for _, word := range strings.Fields(line) {
		id, ok := syms[word]
		if !ok {
			fmt.Printf("unrecognized token %q\n", word)
			return
		}
		var value any
		if word == "NUM" {
			numVal++
			value = numVal
		}
		if err := p.Push(runtime.Token{Terminal: id, Value: value}, reduceFn); err != nil {
			fmt.Println(err)
			return
		}
	}

	result2, err := p.Finish(reduceFn)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("result: %v\n", result2)
}

func demoGrammar() (*grammar.Grammar, map[string]symtab.SymbolId, error) {
	tab := symtab.New()

	plus, err := tab.InternTerminal("+")
	if err != nil {
		return nil, nil, err
	}
	num, err := tab.InternTerminal("NUM")
	if err != nil {
		return nil, nil, err
	}
	tab.FinalizeTerminals()

	e, err := tab.InternNonTerminal("E")
	if err != nil {
		return nil, nil, err
	}
	term, err := tab.InternNonTerminal("T")
	if err != nil {
		return nil, nil, err
	}

	b := grammar.NewBuilder(tab)
	b.SetStart(e)
	b.AddRule(e, []symtab.SymbolId{e.ID, plus.ID, term.ID}, grammar.Named("add"))
	b.AddRule(e, []symtab.SymbolId{term.ID}, grammar.Passthrough)
	b.AddRule(term, []symtab.SymbolId{num.ID}, grammar.Passthrough)

	g, err := b.Build()
	if err != nil {
		return nil, nil, err
	}

	return g, map[string]symtab.SymbolId{"+": plus.ID, "NUM": num.ID}, nil
}
