// Package automaton builds the LALR(1) viable-prefix automaton: an NFA of
// LR(1) items connected by shifts and ε-edges across non-terminal
// predictions, subset-constructed into a DFA via the LR(1)-canonical
// construction, then merged by LR(0) core following the teacher's
// internal/ictiobus/automaton.NewLALR1ViablePrefixDFA (generalized from
// string-keyed items to symtab.SymbolId-keyed ones), optionally minimized
// further by Hopcroft-style partition refinement.
package automaton

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dekarrin/lrforge/grammar"
	"github.com/dekarrin/lrforge/symtab"
)

// Item is an LR(1) item: rule index, dot position, and one lookahead
// terminal, exactly spec.md's data model.
type Item struct {
	Rule      int
	Dot       int
	Lookahead symtab.SymbolId
}

// AtEnd reports whether the dot has reached the end of the rule's RHS.
func (it Item) AtEnd(g *grammar.Grammar) bool {
	return it.Dot >= len(g.Rules[it.Rule].RHS)
}

// NextSymbol returns the symbol immediately after the dot, and whether one
// exists.
func (it Item) NextSymbol(g *grammar.Grammar) (symtab.SymbolId, bool) {
	rhs := g.Rules[it.Rule].RHS
	if it.Dot >= len(rhs) {
		return 0, false
	}
	return rhs[it.Dot], true
}

// Advance returns the item with its dot moved one symbol to the right.
func (it Item) Advance() Item {
	return Item{Rule: it.Rule, Dot: it.Dot + 1, Lookahead: it.Lookahead}
}

// String renders an item as "LHS -> α • β, lookahead", matching the
// rendering spec.md §4.7 asks the diagnostic formatter to produce.
func (it Item) String(g *grammar.Grammar) string {
	r := g.Rules[it.Rule]
	var sb strings.Builder
	sb.WriteString(g.Symtab.Name(r.LHS))
	sb.WriteString(" ->")
	for i, sym := range r.RHS {
		if i == it.Dot {
			sb.WriteString(" •")
		}
		sb.WriteString(" ")
		sb.WriteString(g.Symtab.Name(sym))
	}
	if it.Dot == len(r.RHS) {
		sb.WriteString(" •")
	}
	sb.WriteString(", ")
	sb.WriteString(g.Symtab.Name(it.Lookahead))
	return sb.String()
}

// itemKey is a canonical, deterministic encoding of an Item used as a map
// key — spec.md §9 forbids hash-ordered iteration in any output-determining
// loop, so item sets are identified by this sorted string encoding rather
// than by pointer identity or pseudo-random map order.
func itemKey(it Item) string {
	return strconv.Itoa(it.Rule) + ":" + strconv.Itoa(it.Dot) + ":" + strconv.Itoa(int(it.Lookahead))
}

// itemSet is a deduplicated set of LR(1) items.
type itemSet map[string]Item

func newItemSet(items ...Item) itemSet {
	s := make(itemSet, len(items))
	for _, it := range items {
		s[itemKey(it)] = it
	}
	return s
}

func (s itemSet) add(it Item) bool {
	k := itemKey(it)
	if _, ok := s[k]; ok {
		return false
	}
	s[k] = it
	return true
}

func (s itemSet) addAll(o itemSet) bool {
	changed := false
	for _, it := range o {
		if s.add(it) {
			changed = true
		}
	}
	return changed
}

// sorted returns the set's items in a deterministic order: by rule, then
// dot, then lookahead.
func (s itemSet) sorted() []Item {
	out := make([]Item, 0, len(s))
	for _, it := range s {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Rule != b.Rule {
			return a.Rule < b.Rule
		}
		if a.Dot != b.Dot {
			return a.Dot < b.Dot
		}
		return a.Lookahead < b.Lookahead
	})
	return out
}

// key returns a canonical string identity for the whole set: concatenating
// each member's itemKey in sorted order. Two itemSets with the same key
// contain exactly the same items.
func (s itemSet) key() string {
	sorted := s.sorted()
	parts := make([]string, len(sorted))
	for i, it := range sorted {
		parts[i] = itemKey(it)
	}
	return strings.Join(parts, "|")
}

// coreKey is like key but ignores lookaheads, identifying only the LR(0)
// core (rule, dot) pairs — used to find states to merge into LALR(1).
func (s itemSet) coreKey() string {
	cores := map[string]struct{}{}
	for _, it := range s {
		cores[fmt.Sprintf("%d:%d", it.Rule, it.Dot)] = struct{}{}
	}
	keys := make([]string, 0, len(cores))
	for k := range cores {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, "|")
}
