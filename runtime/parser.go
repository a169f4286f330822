// Package runtime drives a compiled table one token at a time, the
// push-based interpreter spec.md §4.6 specifies: callers feed tokens in
// and read back reduce/shift/accept events instead of the parser pulling
// from a lexer itself, so it composes with any tokenization strategy
// (including one that decides a prec-terminal's precedence from context
// immediately before pushing it).
package runtime

import (
	"fmt"

	"github.com/dekarrin/lrforge/grammar"
	"github.com/dekarrin/lrforge/internal/util"
	"github.com/dekarrin/lrforge/symtab"
	"github.com/dekarrin/lrforge/table"
)

// Token is one input symbol pushed into the parser. Prec is only read
// when Terminal names a prec-terminal and the table has a deferred
// shift-or-reduce decision for it; it is ignored otherwise.
type Token struct {
	Terminal symtab.SymbolId
	Value    any
	Prec     grammar.Precedence
}

// EventKind distinguishes the three observable steps a push can produce.
type EventKind int

const (
	EventShift EventKind = iota
	EventReduce
	EventAccept
)

// Event is reported to an optional trace hook after every step, letting a
// caller render a parse trace without the parser itself knowing anything
// about presentation.
type Event struct {
	Kind  EventKind
	State int
	Rule  int // meaningful for EventReduce
}

// frame is one stack entry: the state reached plus, for prec-terminal
// shifts, the precedence that is now "inherited" by whatever sits on top
// of it — spec.md §4.6's mechanism for resolving a later shift/reduce
// decision against the precedence of the operator already on the stack.
type frame struct {
	state   int
	value   any
	prec    grammar.Precedence
	hasPrec bool
}

// Parser is a single push-based LALR(1) parse in progress. The zero value
// is not usable; construct with New.
type Parser struct {
	g      *grammar.Grammar
	t      *table.Compiled
	stack  util.Stack[frame]
	trace  func(Event)
	done   bool
	result any
}

// New returns a Parser ready to accept tokens for grammar g compiled into
// t, starting in state 0.
func New(g *grammar.Grammar, t *table.Compiled) *Parser {
	p := &Parser{g: g, t: t}
	p.stack.Push(frame{state: 0})
	return p
}

// SetTrace installs a hook called after every shift, reduce, and accept
// step. Pass nil to disable tracing.
func (p *Parser) SetTrace(fn func(Event)) { p.trace = fn }

// State returns the state on top of the stack.
func (p *Parser) State() int { return p.stack.Peek().state }

// ReduceFunc is called by Push/Finish for every reduce step so the host
// can build its own value out of the RHS values being popped. Callers
// that don't need semantic values may pass nil, in which case reduced
// values are simply nil.
type ReduceFunc func(rule grammar.Rule, rhsValues []any) any

// Push advances the parse by one input token, performing every reduce the
// table calls for before the eventual shift, per spec.md §4.6's step
// loop: at each iteration, look up the action for the current state and
// the pushed token; reduce and loop if the cell says reduce or defers to
// a losing precedence comparison; shift and return once the cell says
// shift (or accept and return, for EOF).
func (p *Parser) Push(tok Token, reduceFn ReduceFunc) error {
	if p.done {
		return fmt.Errorf("runtime: parser already finished")
	}

	for {
		state := p.State()
		entry, ok := p.t.Action(state, int(tok.Terminal))
		if !ok {
			return p.errorAt(state, tok.Terminal)
		}

		tag, target, rule := entry.Decode()

		switch tag {
		case table.TagShift:
			p.pushFrame(target, tok.Value, tok)
			p.emit(Event{Kind: EventShift, State: target})
			return nil

		case table.TagReduce:
			p.reduce(rule, reduceFn)

		case table.TagShiftOrReduce:
			if p.shiftWins(tok) {
				p.pushFrame(target, tok.Value, tok)
				p.emit(Event{Kind: EventShift, State: target})
				return nil
			}
			p.reduce(rule, reduceFn)

		case table.TagAccept:
			p.done = true
			p.result = p.stack.Peek().value
			p.emit(Event{Kind: EventAccept, State: state})
			return nil

		default:
			return p.errorAt(state, tok.Terminal)
		}
	}
}

// Finish pushes the synthetic EOF terminal, draining any final reduces,
// and returns the accepted value. It is an error to call Finish before
// the grammar's sentence is actually complete (the table will report a
// parse error via errorAt in that case).
func (p *Parser) Finish(reduceFn ReduceFunc) (any, error) {
	if err := p.Push(Token{Terminal: symtab.EOF}, reduceFn); err != nil {
		return nil, err
	}
	if !p.done {
		return nil, fmt.Errorf("runtime: input not fully consumed at EOF")
	}
	return p.result, nil
}

// shiftWins decides a deferred shift-or-reduce cell using the rule
// spec.md §4.6 lays out: the incoming token's precedence against the
// precedence inherited by the state on top of the stack. A token with no
// precedence recorded on the stack frame below it always shifts (there is
// nothing to compare against, so the conflict can't have been real at
// this point in the derivation).
func (p *Parser) shiftWins(tok Token) bool {
	top := p.stack.Peek()
	if !top.hasPrec {
		return true
	}
	if top.prec.Level != tok.Prec.Level {
		return top.prec.Level < tok.Prec.Level
	}
	return tok.Prec.Assoc == grammar.AssocRight
}

func (p *Parser) pushFrame(state int, value any, tok Token) {
	f := frame{state: state, value: value}
	if p.g.Symtab.IsPrecTerminal(tok.Terminal) {
		f.prec = tok.Prec
		f.hasPrec = true
	} else {
		// a token without precedence inherits the frame below it
		below := p.stack.Peek()
		f.prec, f.hasPrec = below.prec, below.hasPrec
	}
	p.stack.Push(f)
}

func (p *Parser) reduce(ruleIdx int, reduceFn ReduceFunc) {
	rule := p.g.Rules[ruleIdx]
	n := len(rule.RHS)

	rhs := p.stack.Of[p.stack.Len()-n:]
	rhsValues := make([]any, n)
	var inheritedPrec grammar.Precedence
	hasPrec := false
	for i, f := range rhs {
		rhsValues[i] = f.value
		if f.hasPrec {
			// the reduced rule's effective precedence is that of its
			// rightmost prec-terminal, so a chain of same-associativity
			// operators keeps comparing against the operator actually
			// used, not whatever sat on the stack before this rule began.
			inheritedPrec, hasPrec = f.prec, true
		}
	}

	p.stack.Of = p.stack.Of[:p.stack.Len()-n]

	fromState := p.State()
	target := p.t.Goto(fromState, int(rule.LHS))

	var value any
	if reduceFn != nil {
		value = reduceFn(rule, rhsValues)
	}

	p.stack.Push(frame{state: target, value: value, prec: inheritedPrec, hasPrec: hasPrec})
	p.emit(Event{Kind: EventReduce, State: target, Rule: ruleIdx})
}

func (p *Parser) emit(e Event) {
	if p.trace != nil {
		p.trace(e)
	}
}

func (p *Parser) errorAt(state int, got symtab.SymbolId) error {
	return &SyntaxError{State: state, Got: got, Expected: p.expectedAt(state)}
}

// expectedAt returns every terminal the table would accept in state,
// sorted ascending, for SyntaxError's message and for the diag package's
// richer formatter.
func (p *Parser) expectedAt(state int) []symtab.SymbolId {
	var out []symtab.SymbolId
	for id := uint32(0); id < p.g.Symtab.NumTerminals(); id++ {
		if _, ok := p.t.Action(state, int(id)); ok {
			out = append(out, symtab.SymbolId(id))
		}
	}
	return out
}

// SyntaxError reports an unexpected token with the set of terminals that
// would have been accepted instead.
type SyntaxError struct {
	State    int
	Got      symtab.SymbolId
	Expected []symtab.SymbolId
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("runtime: unexpected token %d in state %d (%d alternatives expected)", e.Got, e.State, len(e.Expected))
}
