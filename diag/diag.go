// Package diag turns a runtime.SyntaxError (or a raw automaton state) into
// the human-facing message spec.md §4.7 describes: the offending token,
// an Oxford-comma list of what would have been accepted instead, and an
// "after: ..." trailer derived from the accessing-symbol walk back to the
// automaton's start state.
package diag

import (
	"fmt"
	"strings"

	"github.com/dekarrin/lrforge/automaton"
	"github.com/dekarrin/lrforge/grammar"
	"github.com/dekarrin/lrforge/internal/util"
	"github.com/dekarrin/lrforge/symtab"
	"github.com/dekarrin/lrforge/table"
	"github.com/dekarrin/rosed"
	"golang.org/x/text/width"
)

// maxActiveItems caps how many of a state's items the formatter will
// render in the "active productions" block — past this, a long closure
// buries the useful cases in noise.
const maxActiveItems = 8

// Formatter renders diagnostics against one compiled grammar/table/
// automaton triple.
type Formatter struct {
	g *grammar.Grammar
	t *table.Compiled
	d *automaton.DFA
}

// New returns a Formatter for the given build outputs.
func New(g *grammar.Grammar, t *table.Compiled, d *automaton.DFA) *Formatter {
	return &Formatter{g: g, t: t, d: d}
}

// SyntaxError renders a single-message diagnostic for an unexpected token
// in state, following spec.md §4.7: a headline naming the bad token, an
// "expected: A, B, or C" line built with the same Oxford-comma joiner the
// teacher's text-list helper uses, an "after: ..." trailer, and a capped
// dump of the state's still-active items.
func (f *Formatter) SyntaxError(state int, got symtab.SymbolId, expected []symtab.SymbolId) string {
	gotName := f.g.Symtab.Name(got)

	names := make([]string, len(expected))
	for i, e := range expected {
		names[i] = f.g.Symtab.Name(e)
	}

	headline := fmt.Sprintf("unexpected %s", gotName)
	expectedLine := "expected: " + util.MakeTextList(names)
	afterLine := "after: " + f.after(state)

	body := headline + "\n" + expectedLine + "\n" + afterLine + "\n" + f.activeItems(state)

	return rosed.Edit(body).String()
}

// after renders spec.md's accessing-symbol trailer: the whole chain of
// symbols walked from state 0 down to state, space-joined. Since DFA
// states don't retain a unique predecessor, automaton.ShortestPaths'
// first-discovered shortest path is used — deterministic because it
// always explores transitions in ascending symbol order.
func (f *Formatter) after(state int) string {
	path := automaton.ShortestPaths(f.d)[state]
	if len(path) == 0 {
		return "(start)"
	}

	names := make([]string, len(path))
	for i, sym := range path {
		names[i] = f.g.Symtab.Name(sym)
	}
	return strings.Join(names, " ")
}

// activeItems renders up to maxActiveItems of state's items, in the
// "LHS -> α • β, lookahead" form Item.String produces. The LHS column is
// padded to the widest LHS name among the shown items, measured with
// east-asian-width awareness so a grammar naming its non-terminals with
// wide runes still lines up instead of padding by rune count alone.
func (f *Formatter) activeItems(state int) string {
	items := f.d.States[state].Items
	n := len(items)
	shown := n
	if shown > maxActiveItems {
		shown = maxActiveItems
	}

	lhsNames := make([]string, shown)
	lhsWidth := 0
	for i := 0; i < shown; i++ {
		name := f.g.Symtab.Name(f.g.Rules[items[i].Rule].LHS)
		lhsNames[i] = name
		if w := displayWidth(name); w > lhsWidth {
			lhsWidth = w
		}
	}

	out := "active productions:"
	for i := 0; i < shown; i++ {
		pad := strings.Repeat(" ", lhsWidth-displayWidth(lhsNames[i]))
		out += "\n  " + pad + items[i].String(f.g)
	}
	if n > shown {
		out += fmt.Sprintf("\n  ... and %d more", n-shown)
	}
	return out
}

// displayWidth measures s the way a fixed-width terminal would render it:
// east-asian wide and fullwidth runes count twice, everything else once.
func displayWidth(s string) int {
	total := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			total += 2
		default:
			total++
		}
	}
	return total
}

// Conflict renders a build-time conflict report in the same style as
// SyntaxError, reusing Conflict.Example for the minimal counter-example
// trailer instead of the accessing-symbol walk.
func (f *Formatter) Conflict(c grammar.Conflict) string {
	return rosed.Edit(c.String() + "\n  reached via: " + c.Example(f.g.Symtab)).String()
}
