/*
Lrforge-build compiles a grammar description into a cached parsing table.

This is a thin demo driver: it exists to exercise the build pipeline and
the on-disk cache end to end, not to parse a real external grammar
notation (that concern belongs to a higher-level tool layered on top of
this module).

Usage:

	lrforge-build [flags]

The flags are:

	-c, --config FILE
		Load the cache directory (cache_dir) from the given TOML config
		file instead of "./.lrforge.toml".

	-n, --no-minimize
		Skip the post-LALR state-minimization pass.

	--dump-automaton
		Print the built automaton's states and transitions to stderr.
*/
package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/dekarrin/lrforge"
	"github.com/dekarrin/lrforge/buildcache"
	"github.com/dekarrin/lrforge/grammar"
	"github.com/dekarrin/lrforge/persist"
	"github.com/dekarrin/lrforge/symtab"
	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
)

const (
	ExitSuccess = iota
	ExitConfigError
	ExitBuildError
)

var (
	returnCode    = ExitSuccess
	configFile    = pflag.StringP("config", "c", ".lrforge.toml", "Project config file")
	noMinimize    = pflag.BoolP("no-minimize", "n", false, "Skip the post-LALR minimization pass")
	dumpAutomaton = pflag.Bool("dump-automaton", false, "Print the built automaton's states and transitions to stderr")
)

// projectConfig is the shape of a .lrforge.toml file.
type projectConfig struct {
	CacheDir string `toml:"cache_dir"`
}

func main() {
	defer func() { os.Exit(returnCode) }()
	pflag.Parse()

	var cfg projectConfig
	if _, err := toml.DecodeFile(*configFile, &cfg); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "lrforge-build: reading config: %v\n", err)
			returnCode = ExitConfigError
			return
		}
		cfg.CacheDir = "."
	}

	g, err := demoGrammar()
	if err != nil {
		fmt.Fprintf(os.Stderr, "lrforge-build: %v\n", err)
		returnCode = ExitBuildError
		return
	}

	var opts []lrforge.BuildOption
	if *noMinimize {
		opts = append(opts, lrforge.WithMinimization(false))
	}

	result, err := lrforge.Build(g, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lrforge-build: %v\n", err)
		returnCode = ExitBuildError
		return
	}

	for _, c := range result.Conflicts {
		fmt.Fprintf(os.Stderr, "lrforge-build: warning: %s\n", c.String())
	}

	if *dumpAutomaton {
		fmt.Fprint(os.Stderr, result.Automaton.String(g))
	}

	st, err := buildcache.Open(cfg.CacheDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lrforge-build: opening cache: %v\n", err)
		returnCode = ExitBuildError
		return
	}
	defer st.Close()

	fp := persist.Fingerprint(g)
	if err := st.Put(fp, result.Table); err != nil {
		fmt.Fprintf(os.Stderr, "lrforge-build: caching table: %v\n", err)
		returnCode = ExitBuildError
		return
	}

	blob, _ := persist.Save(result.Table)
	fmt.Printf("built table %s: %d states, %s on disk\n", fp, result.Table.NumStates, humanize.Bytes(uint64(len(blob))))
}

// demoGrammar builds the same small sum grammar used throughout this
// module's tests, so the binary has something to compile without a real
// grammar source format to parse.
func demoGrammar() (*grammar.Grammar, error) {
	tab := symtab.New()

	plus, err := tab.InternTerminal("+")
	if err != nil {
		return nil, err
	}
	num, err := tab.InternTerminal("NUM")
	if err != nil {
		return nil, err
	}
	tab.FinalizeTerminals()

	e, err := tab.InternNonTerminal("E")
	if err != nil {
		return nil, err
	}
	term, err := tab.InternNonTerminal("T")
	if err != nil {
		return nil, err
	}

	b := grammar.NewBuilder(tab)
	b.SetStart(e)
	b.AddRule(e, []symtab.SymbolId{e.ID, plus.ID, term.ID}, grammar.Named("add"))
	b.AddRule(e, []symtab.SymbolId{term.ID}, grammar.Passthrough)
	b.AddRule(term, []symtab.SymbolId{num.ID}, grammar.Passthrough)

	return b.Build()
}
