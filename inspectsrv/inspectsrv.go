// Package inspectsrv exposes a read-only HTTP view over a buildcache
// Store: fetch a cached table's summary as JSON by fingerprint, for a
// developer poking at a build from a browser instead of a REPL. There is
// no route that lists the cached fingerprints.
// Routing follows the teacher's server/api package's use of
// chi.URLParam for path parameters.
package inspectsrv

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dekarrin/lrforge/buildcache"
	"github.com/dekarrin/lrforge/table"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Router builds the read-only inspection router over st.
func Router(st *buildcache.Store) http.Handler {
	r := chi.NewRouter()

	r.Get("/tables/{fingerprint}", handleGetTable(st))
	r.Get("/tables/{fingerprint}/states/{state}", handleGetState(st))
	r.Get("/healthz", handleHealthz)

	return r
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type tableSummary struct {
	Fingerprint  string `json:"fingerprint"`
	NumStates    int    `json:"num_states"`
	NumTerminals int    `json:"num_terminals"`
	NumRules     int    `json:"num_rules"`
}

func handleGetTable(st *buildcache.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "fingerprint")
		fp, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, "malformed fingerprint: "+err.Error(), http.StatusBadRequest)
			return
		}

		t, ok, err := st.Get(fp)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if !ok {
			http.Error(w, "no table cached under that fingerprint", http.StatusNotFound)
			return
		}

		summary := tableSummary{
			Fingerprint:  raw,
			NumStates:    t.NumStates,
			NumTerminals: t.NumTerminals,
			NumRules:     len(t.Rules),
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(summary)
	}
}

// cellView is one terminal's resolved action within a single state's row,
// rendered for a developer reading the build output, not for a machine
// re-ingesting the table.
type cellView struct {
	Terminal int    `json:"terminal"`
	Tag      string `json:"tag"`
	Target   int    `json:"target,omitempty"`
	Rule     int    `json:"rule,omitempty"`
}

func handleGetState(st *buildcache.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "fingerprint")
		fp, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, "malformed fingerprint: "+err.Error(), http.StatusBadRequest)
			return
		}
		state, err := strconv.Atoi(chi.URLParam(r, "state"))
		if err != nil {
			http.Error(w, "malformed state index: "+err.Error(), http.StatusBadRequest)
			return
		}

		t, ok, err := st.Get(fp)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if !ok {
			http.Error(w, "no table cached under that fingerprint", http.StatusNotFound)
			return
		}
		if state < 0 || state >= t.NumStates {
			http.Error(w, "state index out of range", http.StatusNotFound)
			return
		}

		var cells []cellView
		for term := 0; term < t.NumTerminals; term++ {
			entry, ok := t.Action(state, term)
			if !ok {
				continue
			}
			cells = append(cells, cellViewOf(term, entry))
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(cells)
	}
}

func cellViewOf(terminal int, entry table.ActionEntry) cellView {
	tag, target, rule := entry.Decode()
	v := cellView{Terminal: terminal}
	switch tag {
	case table.TagShift:
		v.Tag, v.Target = "shift", target
	case table.TagReduce:
		v.Tag, v.Rule = "reduce", rule
	case table.TagShiftOrReduce:
		v.Tag, v.Target, v.Rule = "shift-or-reduce", target, rule
	case table.TagAccept:
		v.Tag = "accept"
	default:
		v.Tag = "error"
	}
	return v
}
