// Package grammar holds the augmented grammar intermediate representation
// that automaton, table, and runtime are built from: rules addressed by
// dense SymbolId rather than by name, a per-rule action tag, and the
// injected __start rule that spec.md's data model requires. This plays the
// role the teacher's (unretrieved) internal/ictiobus/grammar/grammar.go
// played for ictiobus, generalized from string symbols to symtab.SymbolId.
package grammar

import (
	"fmt"

	"github.com/dekarrin/lrforge/symtab"
)

// ActionKind distinguishes the handful of reduction-action shapes spec.md
// names: a user-named semantic action, a plain passthrough, a structural
// node construction, or one of the synthetic list/option constructors used
// to desugar `?`, `*`, `+`, and separator lists in a higher-level grammar
// syntax without that desugaring leaking into the core.
type ActionKind int

const (
	ActionNamed ActionKind = iota
	ActionPassthrough
	ActionStructural
	ActionOptSome
	ActionOptNone
	ActionVecEmpty
	ActionVecSingle
	ActionVecAppend
)

func (k ActionKind) String() string {
	switch k {
	case ActionNamed:
		return "named"
	case ActionPassthrough:
		return "passthrough"
	case ActionStructural:
		return "structural"
	case ActionOptSome:
		return "opt-some"
	case ActionOptNone:
		return "opt-none"
	case ActionVecEmpty:
		return "vec-empty"
	case ActionVecSingle:
		return "vec-single"
	case ActionVecAppend:
		return "vec-append"
	default:
		return "unknown"
	}
}

// Action tags a Rule with how the runtime's reduce event should be
// interpreted by the host. Name is only meaningful when Kind is
// ActionNamed.
type Action struct {
	Kind ActionKind
	Name string
}

// Passthrough is the zero-configuration action used for rules whose only
// job is to thread a single child value upward (`A -> B` desugarings).
var Passthrough = Action{Kind: ActionPassthrough}

// Named builds a Action tagging a rule with a user-supplied semantic
// action name.
func Named(name string) Action {
	return Action{Kind: ActionNamed, Name: name}
}

// Rule is a single production `LHS -> RHS...` tagged with how the runtime
// should report its reduction. Rules are identified by their index in
// Grammar.Rules; rule 0 is always the injected `__start -> S` rule.
type Rule struct {
	LHS    symtab.SymbolId
	RHS    []symtab.SymbolId
	Action Action
}

func (r Rule) String(tab *symtab.Table) string {
	s := tab.Name(r.LHS) + " ->"
	if len(r.RHS) == 0 {
		return s + " ε"
	}
	for _, sym := range r.RHS {
		s += " " + tab.Name(sym)
	}
	return s
}

// Grammar is an augmented, dense-id grammar: a symbol table plus an ordered
// rule list whose rule 0 is always `__start -> S` for the original start
// symbol S.
type Grammar struct {
	Symtab     *symtab.Table
	Rules      []Rule
	StartRule  int            // always 0
	OrigStart  symtab.SymbolId // the grammar's own start symbol, before augmentation
	StartSymID symtab.SymbolId // the injected __start non-terminal
}

// RulesFor returns the indices of every rule whose LHS is lhs, in the order
// they were declared. Rule indices follow declaration order, and
// automaton.Resolve breaks reduce/reduce ties by the lowest rule index.
func (g *Grammar) RulesFor(lhs symtab.SymbolId) []int {
	var out []int
	for i, r := range g.Rules {
		if r.LHS == lhs {
			out = append(out, i)
		}
	}
	return out
}

// Builder assembles a Grammar from a symtab.Table and a sequence of
// AddRule calls, injecting the augmented start rule on Build.
type Builder struct {
	tab       *symtab.Table
	rules     []Rule
	origStart symtab.SymbolId
	startSet  bool
}

// NewBuilder returns a Builder over the given (already-finalized-terminal)
// symbol table.
func NewBuilder(tab *symtab.Table) *Builder {
	return &Builder{tab: tab}
}

// SetStart declares the grammar's start non-terminal.
func (b *Builder) SetStart(start symtab.Symbol) {
	b.origStart = start.ID
	b.startSet = true
}

// AddRule appends a rule to the grammar under construction and returns its
// eventual index (offset by the one injected augmenting rule).
func (b *Builder) AddRule(lhs symtab.Symbol, rhs []symtab.SymbolId, action Action) int {
	b.rules = append(b.rules, Rule{LHS: lhs.ID, RHS: rhs, Action: action})
	return len(b.rules) // +1 because rule 0 is injected
}

// Build validates the accumulated rules and returns the augmented Grammar.
func (b *Builder) Build() (*Grammar, error) {
	if !b.startSet {
		return nil, fmt.Errorf("grammar: no start symbol declared")
	}
	if !b.tab.IsNonTerminal(b.origStart) {
		return nil, fmt.Errorf("grammar: start symbol %q is not a non-terminal", b.tab.Name(b.origStart))
	}
	for i, r := range b.rules {
		if !b.tab.IsNonTerminal(r.LHS) {
			return nil, fmt.Errorf("grammar: rule %d has non-non-terminal LHS %q", i, b.tab.Name(r.LHS))
		}
	}

	startSym, err := b.tab.InternNonTerminal("__start")
	if err != nil {
		return nil, fmt.Errorf("grammar: injecting augmented start symbol: %w", err)
	}

	allRules := make([]Rule, 0, len(b.rules)+1)
	allRules = append(allRules, Rule{
		LHS:    startSym.ID,
		RHS:    []symtab.SymbolId{b.origStart},
		Action: Passthrough,
	})
	allRules = append(allRules, b.rules...)

	return &Grammar{
		Symtab:     b.tab,
		Rules:      allRules,
		StartRule:  0,
		OrigStart:  b.origStart,
		StartSymID: startSym.ID,
	}, nil
}
