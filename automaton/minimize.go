package automaton

import (
	"sort"
	"strconv"

	"github.com/dekarrin/lrforge/grammar"
	"github.com/dekarrin/lrforge/internal/util"
	"github.com/dekarrin/lrforge/symtab"
)

// Minimize performs an optional further compression pass over an already
// built LALR(1) automaton: partition refinement (Hopcroft-style) merging
// states that are observationally equivalent on every input symbol and
// every reduce decision. Spec.md §4.4 requires the initial partition to
// separate states with no completed item ("non-reduce") from states
// grouped by which rule they reduce by — two states that reduce different
// rules, or reduce and also have differing shift behavior, can never end
// up in the same refined block.
//
// This never changes the language accepted or the conflict set: it is a
// pure state-count reduction, applied right after BuildLALR1 and before
// conflict resolution runs over the (possibly now-merged) states.
func Minimize(g *grammar.Grammar, d *DFA) *DFA {
	n := len(d.States)
	if n == 0 {
		return d
	}

	block := make([]int, n)
	initial := initialPartition(g, d)
	for b, members := range initial {
		for _, s := range members {
			block[s] = b
		}
	}
	numBlocks := len(initial)

	symbols := allTransitionSymbols(d)

	for {
		signature := make([]string, n)
		for s := 0; s < n; s++ {
			signature[s] = blockSignature(d, block, s, symbols)
		}

		newBlockOf := map[string]int{}
		var order []string
		for s := 0; s < n; s++ {
			key := signature[s]
			if _, ok := newBlockOf[key]; !ok {
				order = append(order, key)
			}
		}
		sort.Strings(order)
		for i, key := range order {
			newBlockOf[key] = i
		}

		newBlock := make([]int, n)
		for s := 0; s < n; s++ {
			newBlock[s] = newBlockOf[signature[s]]
		}

		block = newBlock
		// a signature starts with the state's current block, so the new
		// partition refines the old one: an unchanged block count means it
		// is stable, even where the sort has renumbered the blocks.
		if len(order) == numBlocks {
			break
		}
		numBlocks = len(order)
	}

	return rebuildFromPartition(d, block, numBlocks)
}

// initialPartition groups states by (is state 0? never merge it alone is
// not required, but keep determinism) then by reduce signature: states
// with no completed items form one class; states with completed items are
// grouped by the sorted set of rule indices they can reduce.
func initialPartition(g *grammar.Grammar, d *DFA) [][]int {
	classOf := map[string][]int{}
	for s, st := range d.States {
		var rules []int
		for _, it := range st.Items {
			if it.AtEnd(g) {
				rules = append(rules, it.Rule)
			}
		}
		sort.Ints(rules)
		key := ""
		for i, r := range rules {
			if i > 0 {
				key += ","
			}
			key += strconv.Itoa(r)
		}
		classOf[key] = append(classOf[key], s)
	}

	var keys []string
	for k := range classOf {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([][]int, 0, len(keys))
	for _, k := range keys {
		members := classOf[k]
		sort.Ints(members)
		out = append(out, members)
	}
	return out
}

func allTransitionSymbols(d *DFA) []symtab.SymbolId {
	seen := util.NewSet[symtab.SymbolId]()
	for _, st := range d.States {
		for sym := range st.Transitions {
			seen.Add(sym)
		}
	}
	return seen.Elements()
}

// blockSignature builds a state's refinement signature: its current block
// id plus, for every symbol in the automaton's alphabet, the block of the
// state it transitions to (or -1 if none). Two states in the same current
// block with identical signatures stay merged; any difference splits them.
func blockSignature(d *DFA, block []int, s int, symbols []symtab.SymbolId) string {
	key := strconv.Itoa(block[s])
	for _, sym := range symbols {
		target, ok := d.States[s].Transitions[sym]
		if !ok {
			key += ";-"
			continue
		}
		key += ";" + strconv.Itoa(block[target])
	}
	return key
}

func rebuildFromPartition(d *DFA, block []int, numBlocks int) *DFA {
	// block numbers follow sorted signatures, so the start state's block
	// need not be 0; swap it with block 0 so the start state stays state 0
	if z := block[0]; z != 0 {
		swapped := make([]int, len(block))
		for s, b := range block {
			switch b {
			case z:
				b = 0
			case 0:
				b = z
			}
			swapped[s] = b
		}
		block = swapped
	}

	repOf := make([]int, numBlocks)
	seen := make([]bool, numBlocks)
	for s := 0; s < len(d.States); s++ {
		b := block[s]
		if !seen[b] {
			seen[b] = true
			repOf[b] = s
		}
	}

	out := &DFA{Predecessors: map[int][]Edge{}}
	for b := 0; b < numBlocks; b++ {
		rep := d.States[repOf[b]]
		trans := map[symtab.SymbolId]int{}
		for sym, target := range rep.Transitions {
			trans[sym] = block[target]
		}
		out.States = append(out.States, State{
			Items:        rep.Items,
			Transitions:  trans,
			Accessing:    rep.Accessing,
			HasAccessing: rep.HasAccessing,
		})
	}
	for from, st := range out.States {
		for sym, to := range st.Transitions {
			out.Predecessors[to] = append(out.Predecessors[to], Edge{From: from, On: sym, To: to})
		}
	}
	return out
}
