package grammar

import (
	"fmt"

	"github.com/dekarrin/lrforge/symtab"
)

// ConflictKind distinguishes the two residual conflict shapes the
// item-automaton builder can report, mirroring nihei9-vartan's
// shiftReduceConflict/reduceReduceConflict pair (grammar/parsing_table.go)
// generalized into a single exported type.
type ConflictKind int

const (
	ShiftReduce ConflictKind = iota
	ReduceReduce
)

// Conflict is a residual shift/reduce or reduce/reduce conflict that the
// precedence lifter could not resolve (the conflicting terminal isn't a
// prec-terminal, or two reduces collide on the same lookahead). Per
// spec.md §7, the builder never silently picks a winner for these: they
// are always surfaced in the build result's conflict list.
type Conflict struct {
	Kind ConflictKind

	State    int
	Symbol   symtab.SymbolId
	ShiftTo  int // meaningful for ShiftReduce
	Rule     int // meaningful for ShiftReduce and as the first rule of ReduceReduce
	OtherRule int // meaningful for ReduceReduce

	// Path is a shortest sequence of symbols (terminals and
	// non-terminals) from the start state that reaches State,
	// supplementing the distilled spec with the original Rust
	// implementation's minimal counter-example extraction (src/lr.rs).
	// Set by automaton.Resolve from ShortestPaths; empty for state 0.
	Path []symtab.SymbolId
}

// Example renders Path as a human-readable token sequence, the minimal
// counter-example that reaches the conflicting state.
func (c Conflict) Example(tab *symtab.Table) string {
	if len(c.Path) == 0 {
		return "(start)"
	}
	s := ""
	for i, sym := range c.Path {
		if i > 0 {
			s += " "
		}
		s += tab.Name(sym)
	}
	return s
}

func (c Conflict) String() string {
	switch c.Kind {
	case ShiftReduce:
		return fmt.Sprintf("shift/reduce conflict in state %d on %d: shift to %d or reduce rule %d", c.State, c.Symbol, c.ShiftTo, c.Rule)
	case ReduceReduce:
		return fmt.Sprintf("reduce/reduce conflict in state %d on %d: reduce rule %d or rule %d", c.State, c.Symbol, c.Rule, c.OtherRule)
	default:
		return "unknown conflict"
	}
}
