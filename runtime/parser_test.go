package runtime

import (
	"testing"

	"github.com/dekarrin/lrforge/automaton"
	"github.com/dekarrin/lrforge/grammar"
	"github.com/dekarrin/lrforge/symtab"
	"github.com/dekarrin/lrforge/table"
	"github.com/stretchr/testify/require"
)

// buildSumParser compiles `E -> E '+' T | T; T -> NUM` end to end and
// returns a ready Parser plus its terminal ids.
func buildSumParser(t *testing.T) (*Parser, *grammar.Grammar, map[string]symtab.SymbolId) {
	t.Helper()
	tab := symtab.New()

	plus, err := tab.InternTerminal("+")
	require.NoError(t, err)
	num, err := tab.InternTerminal("NUM")
	require.NoError(t, err)
	tab.FinalizeTerminals()

	e, err := tab.InternNonTerminal("E")
	require.NoError(t, err)
	tt, err := tab.InternNonTerminal("T")
	require.NoError(t, err)

	b := grammar.NewBuilder(tab)
	b.SetStart(e)
	b.AddRule(e, []symtab.SymbolId{e.ID, plus.ID, tt.ID}, grammar.Named("add"))
	b.AddRule(e, []symtab.SymbolId{tt.ID}, grammar.Passthrough)
	b.AddRule(tt, []symtab.SymbolId{num.ID}, grammar.Passthrough)

	g, err := b.Build()
	require.NoError(t, err)

	d, err := automaton.BuildLALR1(g)
	require.NoError(t, err)
	res := automaton.Resolve(g, d)
	require.Empty(t, res.Conflicts)

	compiled, err := table.Compress(g, res)
	require.NoError(t, err)

	syms := map[string]symtab.SymbolId{"+": plus.ID, "NUM": num.ID, "E": e.ID, "T": tt.ID}
	return New(g, compiled), g, syms
}

func sumReduce(rule grammar.Rule, rhs []any) any {
	switch rule.Action.Name {
	case "add":
		return rhs[0].(int) + rhs[2].(int)
	default:
		if len(rhs) == 1 {
			return rhs[0]
		}
		return nil
	}
}

func Test_Parser_acceptsSingleNumber(t *testing.T) {
	p, _, syms := buildSumParser(t)

	require.NoError(t, p.Push(Token{Terminal: syms["NUM"], Value: 7}, sumReduce))
	result, err := p.Finish(sumReduce)
	require.NoError(t, err)
	require.Equal(t, 7, result)
}

func Test_Parser_acceptsChainOfAdds(t *testing.T) {
	p, _, syms := buildSumParser(t)

	tokens := []Token{
		{Terminal: syms["NUM"], Value: 1},
		{Terminal: syms["+"]},
		{Terminal: syms["NUM"], Value: 2},
		{Terminal: syms["+"]},
		{Terminal: syms["NUM"], Value: 3},
	}
	for _, tok := range tokens {
		require.NoError(t, p.Push(tok, sumReduce))
	}
	result, err := p.Finish(sumReduce)
	require.NoError(t, err)
	require.Equal(t, 6, result)
}

func Test_Parser_reportsSyntaxErrorWithExpectedSet(t *testing.T) {
	p, _, syms := buildSumParser(t)

	err := p.Push(Token{Terminal: syms["+"]}, sumReduce)
	require.Error(t, err)

	var synErr *SyntaxError
	require.ErrorAs(t, err, &synErr)
	require.NotEmpty(t, synErr.Expected)
}

func Test_Parser_traceHookSeesEveryStep(t *testing.T) {
	p, _, syms := buildSumParser(t)

	var events []Event
	p.SetTrace(func(e Event) { events = append(events, e) })

	require.NoError(t, p.Push(Token{Terminal: syms["NUM"], Value: 1}, sumReduce))
	require.NoError(t, p.Push(Token{Terminal: syms["+"]}, sumReduce))
	require.NoError(t, p.Push(Token{Terminal: syms["NUM"], Value: 2}, sumReduce))
	_, err := p.Finish(sumReduce)
	require.NoError(t, err)

	require.NotEmpty(t, events)
	require.Equal(t, EventAccept, events[len(events)-1].Kind)
}

func Test_Parser_deferredPrecedenceChoosesAssociativity(t *testing.T) {
	tab := symtab.New()
	plus, err := tab.InternPrecTerminal("+")
	require.NoError(t, err)
	num, err := tab.InternTerminal("NUM")
	require.NoError(t, err)
	tab.FinalizeTerminals()

	e, err := tab.InternNonTerminal("E")
	require.NoError(t, err)

	b := grammar.NewBuilder(tab)
	b.SetStart(e)
	b.AddRule(e, []symtab.SymbolId{e.ID, plus.ID, e.ID}, grammar.Named("add"))
	b.AddRule(e, []symtab.SymbolId{num.ID}, grammar.Passthrough)
	g, err := b.Build()
	require.NoError(t, err)

	d, err := automaton.BuildLALR1(g)
	require.NoError(t, err)
	res := automaton.Resolve(g, d)
	require.Empty(t, res.Conflicts)

	compiled, err := table.Compress(g, res)
	require.NoError(t, err)

	p := New(g, compiled)
	left := grammar.Precedence{Level: 1, Assoc: grammar.AssocLeft}

	addReduce := func(rule grammar.Rule, rhs []any) any {
		if rule.Action.Name == "add" {
			return "(" + rhs[0].(string) + "+" + rhs[2].(string) + ")"
		}
		if len(rhs) == 1 {
			return rhs[0]
		}
		return nil
	}

	require.NoError(t, p.Push(Token{Terminal: num.ID, Value: "1"}, addReduce))
	require.NoError(t, p.Push(Token{Terminal: plus.ID, Prec: left}, addReduce))
	require.NoError(t, p.Push(Token{Terminal: num.ID, Value: "2"}, addReduce))
	require.NoError(t, p.Push(Token{Terminal: plus.ID, Prec: left}, addReduce))
	require.NoError(t, p.Push(Token{Terminal: num.ID, Value: "3"}, addReduce))
	result, err := p.Finish(addReduce)
	require.NoError(t, err)
	require.Equal(t, "((1+2)+3)", result)
}
