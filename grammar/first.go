package grammar

import (
	"sort"

	"github.com/dekarrin/lrforge/symtab"
)

// epsilon is a sentinel id outside the real symbol space, used internally
// by FirstSets to mark "this sequence can derive the empty string". It is
// never a real SymbolId since real ids are dense starting at EOF=0 and
// this package never hands epsilon out through a public API.
const epsilon = symtab.SymbolId(1<<32 - 1)

// FirstSets computes FIRST(X) for every symbol X (terminal and
// non-terminal) in g by fixed-point iteration, following spec.md §4.2 step
// 2: FIRST(terminal) = {terminal}; FIRST(A) is built up from the FIRST
// sets of the symbols in each of A's productions, short-circuiting at the
// first symbol whose FIRST set doesn't contain epsilon. This mirrors
// nihei9-vartan's grammar/first.go, generalized from its uint16 symbol
// type to symtab.SymbolId.
type FirstSets struct {
	sets map[symtab.SymbolId]map[symtab.SymbolId]bool
}

// NewFirstSets computes and returns the FIRST sets for every symbol of g.
func NewFirstSets(g *Grammar) *FirstSets {
	fs := &FirstSets{sets: map[symtab.SymbolId]map[symtab.SymbolId]bool{}}

	for id := uint32(0); id < uint32(g.Symtab.NumTerminals()); id++ {
		t := symtab.SymbolId(id)
		fs.sets[t] = map[symtab.SymbolId]bool{t: true}
	}

	for _, r := range g.Rules {
		if _, ok := fs.sets[r.LHS]; !ok {
			fs.sets[r.LHS] = map[symtab.SymbolId]bool{}
		}
	}

	changed := true
	for changed {
		changed = false
		for _, r := range g.Rules {
			added := fs.addFirstOfSequence(r.LHS, r.RHS)
			if added {
				changed = true
			}
		}
	}

	return fs
}

// addFirstOfSequence adds FIRST(seq) into FIRST(into), returning whether
// anything new was added. An empty seq contributes epsilon.
func (fs *FirstSets) addFirstOfSequence(into symtab.SymbolId, seq []symtab.SymbolId) bool {
	changed := false
	if len(seq) == 0 {
		changed = fs.add(into, epsilon) || changed
		return changed
	}

	for _, sym := range seq {
		symFirst := fs.sets[sym]
		for t := range symFirst {
			if t == epsilon {
				continue
			}
			changed = fs.add(into, t) || changed
		}
		if !symFirst[epsilon] {
			// sym can't derive ε: the sequence's FIRST set stops growing here.
			return changed
		}
	}
	// every symbol in seq can derive ε, so the whole sequence can too.
	changed = fs.add(into, epsilon) || changed
	return changed
}

func (fs *FirstSets) add(sym, t symtab.SymbolId) bool {
	if fs.sets[sym] == nil {
		fs.sets[sym] = map[symtab.SymbolId]bool{}
	}
	if fs.sets[sym][t] {
		return false
	}
	fs.sets[sym][t] = true
	return true
}

// Of returns FIRST(sym), excluding the internal epsilon marker.
func (fs *FirstSets) Of(sym symtab.SymbolId) SymbolSet {
	out := SymbolSet{}
	for t := range fs.sets[sym] {
		if t == epsilon {
			continue
		}
		out[t] = struct{}{}
	}
	return out
}

// OfSequence returns FIRST(seq · lookahead): the FIRST set of a symbol
// sequence followed by a fallback lookahead terminal used when the whole
// sequence can derive ε. This is exactly the set closure() needs when
// computing an LR(1) item's propagated lookaheads (spec.md §4.2 step 4).
func (fs *FirstSets) OfSequence(seq []symtab.SymbolId, lookahead symtab.SymbolId) SymbolSet {
	out := SymbolSet{}
	for _, sym := range seq {
		symFirst := fs.sets[sym]
		nullable := false
		for t := range symFirst {
			if t == epsilon {
				nullable = true
				continue
			}
			out[t] = struct{}{}
		}
		if !nullable {
			return out
		}
	}
	out[lookahead] = struct{}{}
	return out
}

// SymbolSet is a minimal set-of-ids type used by grammar and automaton for
// FIRST sets and item lookahead sets.
type SymbolSet map[symtab.SymbolId]struct{}

// Elements returns the set's members in ascending order, so that callers
// which fold them into a deterministic output (closure construction, item
// set naming) never depend on map iteration order.
func (s SymbolSet) Elements() []symtab.SymbolId {
	out := make([]symtab.SymbolId, 0, len(s))
	for e := range s {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
