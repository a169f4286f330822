package automaton

import (
	"sort"

	"github.com/dekarrin/lrforge/grammar"
	"github.com/dekarrin/lrforge/symtab"
)

// ActionKind is the decision attached to one (state, terminal) cell after
// conflict resolution.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionShift
	ActionReduce
	ActionShiftOrReduce // deferred to runtime precedence comparison
	ActionAccept
)

// ResolvedAction is the single decision table.Compress packs into one
// ActionEntry for a given (state, terminal) cell.
type ResolvedAction struct {
	Kind   ActionKind
	Target int // shift target state, for ActionShift and ActionShiftOrReduce
	Rule   int // reduce rule, for ActionReduce and ActionShiftOrReduce
}

// ResolvedState is one state's full action row plus its goto row.
type ResolvedState struct {
	Actions map[symtab.SymbolId]ResolvedAction
	Gotos   map[symtab.SymbolId]int

	// DefaultRule, if >= 0, is the rule every terminal with no explicit
	// entry in Actions should reduce by — the degenerate case of a state
	// whose only item is one completed rule with one lookahead, which
	// table.Compress turns into its DefaultReduce entry instead of a dense
	// row.
	DefaultRule int
}

// Resolution is the fully resolved automaton: one ResolvedState per DFA
// state, plus every residual conflict the precedence lifter could not
// defer to runtime.
type Resolution struct {
	States    []ResolvedState
	Conflicts []grammar.Conflict
}

// Resolve lifts precedence into shift/reduce decisions on prec-terminals
// (left as ActionShiftOrReduce for runtime.Parser to settle using the
// incoming token's actual Precedence) and resolves every other conflict
// by conventional generator default (shift wins a shift/reduce tie;
// lowest rule-declaration-index wins a reduce/reduce tie), recording each
// such default-resolved conflict in Conflicts so callers can audit or
// reject an ambiguous grammar. Spec.md §4.3.
func Resolve(g *grammar.Grammar, d *DFA) Resolution {
	res := Resolution{States: make([]ResolvedState, len(d.States))}
	paths := ShortestPaths(d)

	for s, st := range d.States {
		actions := map[symtab.SymbolId]ResolvedAction{}
		gotos := map[symtab.SymbolId]int{}
		defaultRule := -1

		reduceRules := map[symtab.SymbolId][]int{}
		for _, it := range st.Items {
			if it.AtEnd(g) {
				reduceRules[it.Lookahead] = append(reduceRules[it.Lookahead], it.Rule)
			}
		}
		for la := range reduceRules {
			sort.Ints(reduceRules[la])
		}

		terminals := map[symtab.SymbolId]bool{}
		for sym := range st.Transitions {
			if g.Symtab.IsTerminal(sym) {
				terminals[sym] = true
			}
		}
		for la := range reduceRules {
			terminals[la] = true
		}

		var termList []symtab.SymbolId
		for t := range terminals {
			termList = append(termList, t)
		}
		sort.Slice(termList, func(i, j int) bool { return termList[i] < termList[j] })

		for _, t := range termList {
			shiftTarget, hasShift := st.Transitions[t]
			reduces := reduceRules[t]

			// accept: augmenting rule 0 complete with EOF lookahead.
			if t == symtab.EOF {
				isAccept := false
				for _, r := range reduces {
					if r == g.StartRule {
						isAccept = true
					}
				}
				if isAccept && !hasShift {
					actions[t] = ResolvedAction{Kind: ActionAccept}
					continue
				}
			}

			switch {
			case hasShift && len(reduces) == 0:
				actions[t] = ResolvedAction{Kind: ActionShift, Target: shiftTarget}

			case !hasShift && len(reduces) == 1:
				actions[t] = ResolvedAction{Kind: ActionReduce, Rule: reduces[0]}

			case !hasShift && len(reduces) > 1:
				winner := reduces[0]
				actions[t] = ResolvedAction{Kind: ActionReduce, Rule: winner}
				for _, other := range reduces[1:] {
					res.Conflicts = append(res.Conflicts, grammar.Conflict{
						Kind: grammar.ReduceReduce, State: s, Symbol: t,
						Rule: winner, OtherRule: other, Path: paths[s],
					})
				}

			case hasShift && len(reduces) >= 1:
				winner := reduces[0]
				if g.Symtab.IsPrecTerminal(t) {
					actions[t] = ResolvedAction{Kind: ActionShiftOrReduce, Target: shiftTarget, Rule: winner}
				} else {
					actions[t] = ResolvedAction{Kind: ActionShift, Target: shiftTarget}
					res.Conflicts = append(res.Conflicts, grammar.Conflict{
						Kind: grammar.ShiftReduce, State: s, Symbol: t,
						ShiftTo: shiftTarget, Rule: winner, Path: paths[s],
					})
				}
				for _, other := range reduces[1:] {
					res.Conflicts = append(res.Conflicts, grammar.Conflict{
						Kind: grammar.ReduceReduce, State: s, Symbol: t,
						Rule: winner, OtherRule: other, Path: paths[s],
					})
				}
			}
		}

		for sym, target := range st.Transitions {
			if g.Symtab.IsNonTerminal(sym) {
				gotos[sym] = target
			}
		}

		// a state whose only item is a completed non-augmenting rule (one
		// lookahead) reduces on every terminal by that rule: table.Compress uses
		// this as its default-reduce row instead of storing one entry per
		// terminal in the dense tables (spec.md §4.5).
		if len(st.Items) == 1 && st.Items[0].AtEnd(g) && st.Items[0].Rule != g.StartRule {
			defaultRule = st.Items[0].Rule
		}

		res.States[s] = ResolvedState{Actions: actions, Gotos: gotos, DefaultRule: defaultRule}
	}

	return res
}

// ShortestPaths returns, for every state, the shortest sequence of symbols
// (by edge count) from state 0 that reaches it — the minimal counter-
// example path attached to reported conflicts, and the same walk diag's
// "after: ..." trailer renders for a syntax error's state.
func ShortestPaths(d *DFA) map[int][]symtab.SymbolId {
	paths := map[int][]symtab.SymbolId{0: nil}
	queue := []int{0}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		var syms []symtab.SymbolId
		for sym := range d.States[cur].Transitions {
			syms = append(syms, sym)
		}
		sort.Slice(syms, func(i, j int) bool { return syms[i] < syms[j] })

		for _, sym := range syms {
			target := d.States[cur].Transitions[sym]
			if _, seen := paths[target]; seen {
				continue
			}
			p := make([]symtab.SymbolId, len(paths[cur])+1)
			copy(p, paths[cur])
			p[len(p)-1] = sym
			paths[target] = p
			queue = append(queue, target)
		}
	}
	return paths
}
