// Package lrforge builds deterministic LALR(1) parsing tables, enriched
// with runtime operator precedence, from an in-memory grammar. Build is
// the single entry point: construct the automaton, lift precedence into
// deferred shift/reduce decisions on prec-terminals, optionally minimize
// the state count, then row-displacement-compress the result into a
// table.Compiled a runtime.Parser can walk.
package lrforge

import (
	"errors"
	"fmt"

	"github.com/dekarrin/lrforge/automaton"
	"github.com/dekarrin/lrforge/grammar"
	"github.com/dekarrin/lrforge/internal/lgerrors"
	"github.com/dekarrin/lrforge/table"
)

// BuildOption configures Build. Build starts from spec.md's defaults
// (minimization on) before applying any option.
type BuildOption func(*buildConfig)

type buildConfig struct {
	minimize bool
}

// WithMinimization toggles the post-LALR Hopcroft-style state-merging
// pass (spec.md §4.4). Enabled by default; pass false to keep the table
// shaped exactly like the canonical LALR(1) automaton, which can make a
// generated table easier to cross-reference against a hand traced
// derivation during debugging.
func WithMinimization(enabled bool) BuildOption {
	return func(c *buildConfig) { c.minimize = enabled }
}

// Result is everything a build produced: the compiled table ready for
// runtime.New, the automaton it was compressed from (kept for diag), and
// every conflict the precedence lifter could not resolve automatically.
type Result struct {
	Table     *table.Compiled
	Automaton *automaton.DFA
	Conflicts []grammar.Conflict
}

// Build compiles g into a Result. A non-empty Result.Conflicts does not
// by itself make err non-nil: spec.md leaves it to the caller to decide
// whether a reported conflict is acceptable (many real grammars carry a
// handful of expected, intentionally-shift-wins conflicts). err is only
// set when the build itself cannot produce a well-formed table, e.g. an
// unreachable Accept invariant violation.
func Build(g *grammar.Grammar, opts ...BuildOption) (*Result, error) {
	cfg := buildConfig{minimize: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	if g == nil {
		return nil, fmt.Errorf("lrforge: %w", lgerrors.ErrNilGrammar)
	}

	dfa, err := automaton.BuildLALR1(g)
	if err != nil {
		return nil, fmt.Errorf("lrforge: building automaton: %w", err)
	}

	if cfg.minimize {
		dfa = automaton.Minimize(g, dfa)
	}

	res := automaton.Resolve(g, dfa)

	compiled, err := table.Compress(g, res)
	if err != nil {
		return nil, fmt.Errorf("lrforge: %w", errors.Join(lgerrors.ErrCorruptTable, err))
	}

	return &Result{Table: compiled, Automaton: dfa, Conflicts: res.Conflicts}, nil
}
