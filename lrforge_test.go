package lrforge

import (
	"testing"

	"github.com/dekarrin/lrforge/grammar"
	"github.com/dekarrin/lrforge/runtime"
	"github.com/dekarrin/lrforge/symtab"
	"github.com/stretchr/testify/require"
)

func buildSumGrammar(t *testing.T) (*grammar.Grammar, map[string]symtab.SymbolId) {
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

	return g, map[string]symtab.SymbolId{"+": plus.ID, "NUM": num.ID, "E": e.ID, "T": tt.ID}
}

func Test_Build_sumGrammarHasNoConflicts(t *testing.T) {
	g, _ := buildSumGrammar(t)
	res, err := Build(g)
	require.NoError(t, err)
	require.Empty(t, res.Conflicts)
}

func Test_Build_withMinimizationDisabled_stillProducesAWorkingTable(t *testing.T) {
	g, syms := buildSumGrammar(t)
	res, err := Build(g, WithMinimization(false))
	require.NoError(t, err)

	p := runtime.New(g, res.Table)
	require.NoError(t, p.Push(runtime.Token{Terminal: syms["NUM"], Value: 3}, nil))
	_, err = p.Finish(nil)
	require.NoError(t, err)
}

func Test_Build_nilGrammarErrors(t *testing.T) {
	_, err := Build(nil)
	require.Error(t, err)
}

func Test_Build_endToEndParsesSentence(t *testing.T) {
	g, syms := buildSumGrammar(t)
	res, err := Build(g)
	require.NoError(t, err)

	p := runtime.New(g, res.Table)
	reduce := func(rule grammar.Rule, rhs []any) any {
		if rule.Action.Name == "add" {
			return rhs[0].(int) + rhs[2].(int)
		}
		if len(rhs) == 1 {
			return rhs[0]
		}
		return nil
	}

	require.NoError(t, p.Push(runtime.Token{Terminal: syms["NUM"], Value: 10}, reduce))
	require.NoError(t, p.Push(runtime.Token{Terminal: syms["+"]}, reduce))
	require.NoError(t, p.Push(runtime.Token{Terminal: syms["NUM"], Value: 5}, reduce))
	result, err := p.Finish(reduce)
	require.NoError(t, err)
	require.Equal(t, 15, result)
}
