package table

import (
	"fmt"

	"github.com/dekarrin/lrforge/automaton"
	"github.com/dekarrin/lrforge/grammar"
	"github.com/dekarrin/lrforge/symtab"
	"github.com/dekarrin/rosed"
)

// rowError is the sentinel stored in check[] for a slot no row has
// claimed. Column ids (terminal ids, and states in their role as goto
// columns) are always non-negative, so -1 never collides with a real
// column and safely marks "free" during packing and "miss" during lookup.
const rowError = -1

// Compiled is the fully row-displacement-compressed parsing table: one
// shared data/check array backs every action row (one per state) and
// every goto row (one per non-terminal, transposed so column is state).
// Lookup is O(1): index actionBase[state]+terminal into data[], confirm
// check[] agrees, else fall back to DefaultReduce[state] or report an
// error; Goto works the same way indexed by non-terminal instead.
type Compiled struct {
	NumTerminals int
	NumStates    int
	Rules        []grammar.Rule
	Symtab       *symtab.Table

	data  []int32
	check []int32

	actionBase []int32 // indexed by state
	gotoBase   []int32 // indexed by non-terminal id minus NumTerminals

	// DefaultReduce holds, per state, the rule index every terminal with
	// no data[]/check[] hit should reduce by, or -1 if the state has no
	// default (spec.md §4.5's "default reduce" extraction).
	DefaultReduce []int32

	// DefaultGoto holds, per non-terminal (indexed by nonTerminal id minus
	// NumTerminals), the goto target every state with no data[]/check[]
	// hit on that non-terminal should use, or -1 if the non-terminal has
	// no default. gotoBase is indexed the same way: goto rows are
	// transposed from the resolution's state-major shape so that row is
	// non-terminal and column is state (spec.md §3, §4.5), which is what
	// lets a non-terminal funneling into the same state from nearly every
	// predecessor collapse to one default entry instead of a dense row.
	DefaultGoto []int32
}

// actionRaw looks up the raw packed ActionEntry for (state, terminal),
// without default-reduce fallback — used by Action and by the
// compressor's self-check in validate.
func (c *Compiled) actionRaw(state, terminal int) (ActionEntry, bool) {
	idx := int(c.actionBase[state]) + terminal
	if idx < 0 || idx >= len(c.data) || int(c.check[idx]) != terminal {
		return 0, false
	}
	return ActionEntry(uint32(c.data[idx])), true
}

// Action returns the resolved ActionEntry for (state, terminal), applying
// the default-reduce fallback a direct table hit lacks. ok is false only
// when the cell is a genuine parse error (no entry, no default).
func (c *Compiled) Action(state, terminal int) (ActionEntry, bool) {
	if e, ok := c.actionRaw(state, terminal); ok {
		return e, true
	}
	if dr := c.DefaultReduce[state]; dr >= 0 {
		return EncodeReduce(int(dr)), true
	}
	return 0, false
}

// Goto returns the target state for (state, non-terminal), or -1 if none.
// Goto rows are stored transposed (row = non-terminal, column = state), so
// the lookup indexes gotoBase/DefaultGoto by the non-terminal and probes
// the shared data/check arrays at state's column within that row.
func (c *Compiled) Goto(state, nonTerminal int) int {
	ntIdx := nonTerminal - c.NumTerminals
	idx := int(c.gotoBase[ntIdx]) + state
	if idx < 0 || idx >= len(c.data) || int(c.check[idx]) != state {
		if dg := c.DefaultGoto[ntIdx]; dg >= 0 {
			return int(dg)
		}
		return -1
	}
	return int(c.data[idx])
}

// validate enforces the one global invariant row-displacement packing
// can't check locally: Accept must occur exactly once across the whole
// table (a grammar with a correctly injected single __start rule can
// never legitimately reach Accept from two different cells). Only action
// cells are counted: goto cells hold plain state numbers.
func (c *Compiled) validate() error {
	count := 0
	for s := 0; s < c.NumStates; s++ {
		for t := 0; t < c.NumTerminals; t++ {
			if e, ok := c.actionRaw(s, t); ok && e.IsAccept() {
				count++
			}
		}
	}
	if count != 1 {
		return fmt.Errorf("table: expected exactly one Accept entry, found %d", count)
	}
	return nil
}

// equivalentTo reports whether every (state, terminal) action and (state,
// non-terminal) goto the compressed table answers agrees with the dense
// resolution it was compressed from. Used only by the compressor's own
// test suite to assert lookup equivalence directly instead of spot-
// checking a handful of cells.
func (c *Compiled) equivalentTo(res automaton.Resolution) bool {
	for s, rst := range res.States {
		for t := 0; t < c.NumTerminals; t++ {
			term := symtab.SymbolId(t)
			want, wantOK := rst.Actions[term]
			got, gotOK := c.Action(s, t)
			if !wantOK {
				if gotOK {
					return false
				}
				continue
			}
			if !gotOK {
				return false
			}
			if !actionMatches(want, got) {
				return false
			}
		}
		for nt, target := range rst.Gotos {
			if c.Goto(s, int(nt)) != target {
				return false
			}
		}
	}
	return true
}

func actionMatches(want automaton.ResolvedAction, got ActionEntry) bool {
	tag, target, rule := got.Decode()
	switch want.Kind {
	case automaton.ActionShift:
		return tag == TagShift && target == want.Target
	case automaton.ActionReduce:
		return tag == TagReduce && rule == want.Rule
	case automaton.ActionShiftOrReduce:
		return tag == TagShiftOrReduce && target == want.Target && rule == want.Rule
	case automaton.ActionAccept:
		return got.IsAccept()
	default:
		return false
	}
}

// String renders a human-readable dump of the table's rule list, in the
// teacher's rosed table-backed diagnostic style (parse/lalr.go's own
// String method builds the same kind of dump for its dense table).
func (c *Compiled) String() string {
	header := fmt.Sprintf("table: %d states, %d terminals, %d packed cells", c.NumStates, c.NumTerminals, len(c.data))

	data := make([][]string, 0, len(c.Rules))
	for i, r := range c.Rules {
		data = append(data, []string{fmt.Sprintf("%d", i), r.String(c.Symtab)})
	}

	return rosed.
		Edit(header + "\n").
		InsertTableOpts(-1, data, 10, rosed.Options{
			TableHeaders:             true,
			NoTrailingLineSeparators: true,
		}).
		String()
}
