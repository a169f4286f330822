package persist

import (
	"testing"

	"github.com/dekarrin/lrforge/automaton"
	"github.com/dekarrin/lrforge/grammar"
	"github.com/dekarrin/lrforge/symtab"
	"github.com/dekarrin/lrforge/table"
	"github.com/stretchr/testify/require"
)

func buildSumGrammar(t *testing.T) *grammar.Grammar {
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
	return g
}

func Test_Fingerprint_isDeterministicAcrossCalls(t *testing.T) {
	g := buildSumGrammar(t)
	a := Fingerprint(g)
	b := Fingerprint(g)
	require.Equal(t, a, b)
}

func Test_SaveLoad_roundTripsRuleList(t *testing.T) {
	g := buildSumGrammar(t)
	d, err := automaton.BuildLALR1(g)
	require.NoError(t, err)
	res := automaton.Resolve(g, d)
	compiled, err := table.Compress(g, res)
	require.NoError(t, err)

	data, err := Save(compiled)
	require.NoError(t, err)

	loaded, err := Load(data)
	require.NoError(t, err)

	require.Equal(t, len(compiled.Rules), len(loaded.Rules))
	require.Equal(t, compiled.NumStates, loaded.NumStates)
}

func Test_Load_rejectsCorruptedChecksum(t *testing.T) {
	g := buildSumGrammar(t)
	d, err := automaton.BuildLALR1(g)
	require.NoError(t, err)
	res := automaton.Resolve(g, d)
	compiled, err := table.Compress(g, res)
	require.NoError(t, err)

	data, err := Save(compiled)
	require.NoError(t, err)

	data[0] ^= 0xff
	_, err = Load(data)
	require.Error(t, err)
}
