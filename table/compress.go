package table

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/dekarrin/lrforge/automaton"
	"github.com/dekarrin/lrforge/grammar"
)

// row is one sparse action row (one per state, column = terminal id) or
// goto row (one per non-terminal, column = state index) before packing: a
// map from column index to the int32 value that belongs in data[] there.
type row map[int]int32

// Compress packs a resolved automaton into row-displacement tables. Two
// independent passes are run — one for action rows (one per state, keyed
// by terminal), one for goto rows (one per non-terminal, keyed by state) —
// sharing the same
// data/check backing array, the classic technique for compacting sparse
// transition tables (spec.md §4.5).
func Compress(g *grammar.Grammar, res automaton.Resolution) (*Compiled, error) {
	numStates := len(res.States)
	numTerms := int(g.Symtab.NumTerminals())
	numNonTerms := g.Symtab.NumSymbols() - numTerms

	actionRows := make([]row, numStates)
	defaultReduce := make([]int32, numStates)
	for s, st := range res.States {
		r := row{}
		for sym, act := range st.Actions {
			var packed ActionEntry
			switch act.Kind {
			case automaton.ActionShift:
				packed = EncodeShift(act.Target)
			case automaton.ActionReduce:
				packed = EncodeReduce(act.Rule)
			case automaton.ActionShiftOrReduce:
				packed = EncodeShiftOrReduce(act.Target, act.Rule)
			case automaton.ActionAccept:
				packed = EncodeAccept()
			default:
				continue
			}
			col := int(sym)
			// a cell whose action equals the row's eventual default
			// reduce needn't be stored at all; that check happens after
			// DefaultReduce is known, in omitDefaultCells below.
			r[col] = int32(uint32(packed))
		}
		actionRows[s] = r

		if st.DefaultRule >= 0 {
			defaultReduce[s] = int32(st.DefaultRule)
		} else {
			defaultReduce[s] = -1
		}
	}
	omitDefaultCells(actionRows, defaultReduce)

	// goto rows are transposed from the state-major shape Resolution hands
	// us: row index is the non-terminal, column is the state that gotos on
	// it (spec.md §3, §4.5), so that a non-terminal funneling into the same
	// target from most of its reaching states can have that target pulled
	// out as a per-non-terminal default_goto the same way defaultReduce is
	// pulled per state above.
	gotoRows := make([]row, numNonTerms)
	for nt := range gotoRows {
		gotoRows[nt] = row{}
	}
	for s, st := range res.States {
		for sym, target := range st.Gotos {
			ntIdx := int(sym) - numTerms
			gotoRows[ntIdx][s] = int32(target)
		}
	}
	defaultGoto := extractDefaultGoto(gotoRows)

	data, check, actionBase := pack(actionRows, numStates)
	data, check, gotoBase := packInto(gotoRows, numNonTerms, data, check)

	c := &Compiled{
		NumTerminals:  numTerms,
		NumStates:     numStates,
		Rules:         g.Rules,
		Symtab:        g.Symtab,
		data:          data,
		check:         check,
		actionBase:    actionBase,
		gotoBase:      gotoBase,
		DefaultReduce: defaultReduce,
		DefaultGoto:   defaultGoto,
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// extractDefaultGoto picks, per non-terminal row, the most frequent goto
// target as that non-terminal's default_goto (spec.md §4.5) and deletes
// every cell that merely repeats it, mirroring omitDefaultCells' role for
// action rows. Rows are walked in ascending column (state) order so a
// count tie is always broken the same way regardless of map iteration
// order.
func extractDefaultGoto(rows []row) []int32 {
	defaultGoto := make([]int32, len(rows))
	for nt, r := range rows {
		if len(r) == 0 {
			defaultGoto[nt] = -1
			continue
		}

		counts := map[int32]int{}
		for _, v := range r {
			counts[v]++
		}
		best := int32(-1)
		bestCount := -1
		for _, col := range sortedCols(r) {
			v := r[col]
			if counts[v] > bestCount {
				bestCount = counts[v]
				best = v
			}
		}
		defaultGoto[nt] = best

		for col, v := range r {
			if v == best {
				delete(r, col)
			}
		}
	}
	return defaultGoto
}

// omitDefaultCells drops every action-row entry that merely repeats the
// state's default reduce, so the packer never has to make room for it.
func omitDefaultCells(rows []row, defaultReduce []int32) {
	for s, r := range rows {
		dr := defaultReduce[s]
		if dr < 0 {
			continue
		}
		want := int32(uint32(EncodeReduce(int(dr))))
		for col, val := range r {
			if val == want {
				delete(r, col)
			}
		}
	}
}

// pack is a convenience wrapper over packInto for a fresh data/check pair.
func pack(rows []row, numRows int) ([]int32, []int32, []int32) {
	return packInto(rows, numRows, nil, nil)
}

// packInto runs row-displacement packing for rows, appending into the
// given (possibly already-populated, by a previous packInto call for a
// different row kind) data/check arrays so action and goto rows can share
// one backing store. Rows are deduplicated: two rows (whether keyed by
// state, for action rows, or by non-terminal, for goto rows) with
// identical contents get the same base and only the first one packed
// actually writes any cells.
//
// check[] stores the column id, not the index of the row that claimed the
// slot (spec.md §4.5): that is what makes the dedup above sound. A
// deduped row never writes its own cells, so a lookup against it has to
// be validated purely by "does this slot hold an entry for this column",
// which identical rows trivially agree on regardless of which one of them
// physically occupies the slot. Rows with different contents never share
// a base (findDisplacement skips every base already in use), so a slot
// holding a probe's own column was written by that row or an identical one.
func packInto(rows []row, numRows int, data, check []int32) ([]int32, []int32, []int32) {
	base := make([]int32, numRows)

	type dedupKey = string
	seenBase := map[dedupKey]int32{}

	order := sortedRowIndices(rows, numRows)

	for _, s := range order {
		r := rows[s]
		if len(r) == 0 {
			// an empty row owns no slot; this base sends every probe below
			// index 0, so each lookup in the row misses
			base[s] = math.MinInt32
			continue
		}

		key := rowDedupKey(r)
		if b, ok := seenBase[key]; ok {
			base[s] = b
			continue
		}

		cols := sortedCols(r)
		b := findDisplacement(data, check, cols)
		for _, col := range cols {
			idx := int(b) + col
			for idx >= len(data) {
				data = append(data, 0)
				check = append(check, rowError)
			}
			data[idx] = r[col]
			check[idx] = int32(col)
		}
		base[s] = b
		seenBase[key] = b
	}

	return data, check, base
}

// findDisplacement finds the smallest non-negative base b, not already the
// base of another row, such that every column in cols lands on a free
// (check[...]==rowError) or out-of-range slot in data/check.
func findDisplacement(data, check []int32, cols []int) int32 {
	// check[] holds only the column, so a filled slot idx belongs to the
	// row whose base is idx - check[idx]
	used := map[int]bool{}
	for idx, chk := range check {
		if chk != rowError {
			used[idx-int(chk)] = true
		}
	}
	for b := 0; ; b++ {
		if used[b] {
			continue
		}
		ok := true
		for _, col := range cols {
			idx := b + col
			if idx < len(check) && check[idx] != rowError {
				ok = false
				break
			}
		}
		if ok {
			return int32(b)
		}
	}
}

func sortedCols(r row) []int {
	cols := make([]int, 0, len(r))
	for c := range r {
		cols = append(cols, c)
	}
	sort.Ints(cols)
	return cols
}

func sortedRowIndices(rows []row, numRows int) []int {
	idx := make([]int, numRows)
	for i := range idx {
		idx[i] = i
	}
	// larger rows are packed first, a standard row-displacement heuristic
	// that tends to produce a denser final array; ties broken by row
	// index to keep packing output deterministic.
	sort.Slice(idx, func(i, j int) bool {
		li, lj := len(rows[idx[i]]), len(rows[idx[j]])
		if li != lj {
			return li > lj
		}
		return idx[i] < idx[j]
	})
	return idx
}

func rowDedupKey(r row) string {
	cols := sortedCols(r)
	var sb strings.Builder
	for _, c := range cols {
		sb.WriteString(strconv.Itoa(c))
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(int(r[c])))
		sb.WriteByte('|')
	}
	return sb.String()
}
