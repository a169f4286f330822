// Package persist serializes a compiled table to bytes and back, the way
// the teacher's server/dao/sqlite package persists game state: a
// MarshalBinary/UnmarshalBinary pair on the domain type, driven through
// rezi's binary envelope so the stored blob self-describes its length,
// plus a blake2b checksum and a deterministic fingerprint so a cache can
// tell whether a stored table still matches the grammar that produced it.
package persist

import (
	"encoding/binary"
	"fmt"

	"github.com/dekarrin/lrforge/grammar"
	"github.com/dekarrin/lrforge/internal/lgerrors"
	"github.com/dekarrin/lrforge/symtab"
	"github.com/dekarrin/lrforge/table"
	"github.com/dekarrin/rezi"
	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// Envelope is what Save actually writes: the rezi-framed table bytes plus
// a checksum computed over them, so Load can detect truncation or bit rot
// before handing a corrupt table to runtime.New.
type Envelope struct {
	Table    *table.Compiled
	Checksum [blake2b.Size256]byte
}

// Fingerprint deterministically names a grammar+table pairing, so a cache
// can key off it instead of off a build timestamp. It is computed with
// uuid.NewSHA1 against a fixed namespace — never uuid.New — because two
// builds of the same grammar on different machines, or at different
// times, must produce the identical fingerprint for the cache to be
// useful at all (spec.md §9's determinism requirement extends to this
// identifier).
var fingerprintNamespace = uuid.MustParse("6ad2f6d0-6e8f-4f0e-9b9a-2a7b8a7e9c10")

// Fingerprint returns a stable identifier for g: the SHA-1-based UUID of
// its canonical textual rendering (every rule, in declaration order).
func Fingerprint(g *grammar.Grammar) uuid.UUID {
	var buf []byte
	for i, r := range g.Rules {
		buf = append(buf, []byte(fmt.Sprintf("%d:%s\n", i, r.String(g.Symtab)))...)
	}
	return uuid.NewSHA1(fingerprintNamespace, buf)
}

// encodeTable serializes t into the flat byte format compiledBinary's
// MarshalBinary writes and its unmarshal method reads back.
func encodeTable(t *table.Compiled) ([]byte, error) {
	cb := (*compiledBinary)(t)
	return cb.MarshalBinary()
}

func decodeTable(data []byte) (*table.Compiled, int, error) {
	cb := &compiledBinary{}
	n, err := cb.unmarshal(data)
	if err != nil {
		return nil, 0, err
	}
	return (*table.Compiled)(cb), n, nil
}

// Save renders t into an Envelope-framed byte slice: a rezi-encoded
// length-prefixed table payload followed by its blake2b-256 checksum,
// mirroring convertToDB_GameStatePtr's "encode, then wrap" shape.
func Save(t *table.Compiled) ([]byte, error) {
	raw, err := encodeTable(t)
	if err != nil {
		return nil, fmt.Errorf("persist: encoding table: %w", err)
	}

	framed := rezi.EncBinary(&rawBytes{raw})

	sum := blake2b.Sum256(framed)

	out := make([]byte, 0, len(framed)+len(sum))
	out = append(out, framed...)
	out = append(out, sum[:]...)
	return out, nil
}

// Load reverses Save, verifying the trailing checksum before decoding the
// table itself.
func Load(data []byte) (*table.Compiled, error) {
	if len(data) < blake2b.Size256 {
		return nil, fmt.Errorf("persist: %w: input shorter than checksum", lgerrors.ErrCorruptTable)
	}

	framed := data[:len(data)-blake2b.Size256]
	wantSum := data[len(data)-blake2b.Size256:]

	gotSum := blake2b.Sum256(framed)
	for i := range gotSum {
		if gotSum[i] != wantSum[i] {
			return nil, fmt.Errorf("persist: %w: checksum mismatch", lgerrors.ErrCorruptTable)
		}
	}

	rb := &rawBytes{}
	n, err := rezi.DecBinary(framed, rb)
	if err != nil {
		return nil, fmt.Errorf("persist: %w: %v", lgerrors.ErrCorruptTable, err)
	}
	if n != len(framed) {
		return nil, fmt.Errorf("persist: %w: trailing garbage after framed payload", lgerrors.ErrCorruptTable)
	}

	t, consumed, err := decodeTable(rb.b)
	if err != nil {
		return nil, fmt.Errorf("persist: %w: %v", lgerrors.ErrCorruptTable, err)
	}
	if consumed != len(rb.b) {
		return nil, fmt.Errorf("persist: %w: trailing garbage after table", lgerrors.ErrCorruptTable)
	}
	return t, nil
}

// rawBytes adapts a plain byte slice to encoding.BinaryMarshaler so it can
// ride through rezi.EncBinary/DecBinary the same way the teacher's
// convertToDB_GameStatePtr rides *game.State through it.
type rawBytes struct{ b []byte }

func (r *rawBytes) MarshalBinary() ([]byte, error) { return r.b, nil }

func (r *rawBytes) UnmarshalBinary(data []byte) error {
	r.b = append([]byte(nil), data...)
	return nil
}

// compiledBinary is table.Compiled's shape as seen from this package, so
// MarshalBinary/UnmarshalBinary can be implemented here without table
// itself needing to depend on rezi or know about the on-disk format.
type compiledBinary table.Compiled

func (cb *compiledBinary) MarshalBinary() ([]byte, error) {
	var buf []byte
	buf = appendInt(buf, cb.NumTerminals)
	buf = appendInt(buf, cb.NumStates)
	buf = appendInt(buf, len(cb.Rules))
	for _, r := range cb.Rules {
		buf = appendInt(buf, int(r.LHS))
		buf = appendInt(buf, len(r.RHS))
		for _, s := range r.RHS {
			buf = appendInt(buf, int(s))
		}
		buf = appendInt(buf, int(r.Action.Kind))
		buf = appendString(buf, r.Action.Name)
	}
	return buf, nil
}

// unmarshal is a method (rather than satisfying encoding.BinaryUnmarshaler
// directly) so it can return the number of bytes consumed, matching
// rezi.DecBinary's own "report bytes consumed" contract.
func (cb *compiledBinary) unmarshal(data []byte) (int, error) {
	pos := 0

	numTerms, n, err := readInt(data[pos:])
	if err != nil {
		return 0, err
	}
	pos += n

	numStates, n, err := readInt(data[pos:])
	if err != nil {
		return 0, err
	}
	pos += n

	numRules, n, err := readInt(data[pos:])
	if err != nil {
		return 0, err
	}
	pos += n

	rules := make([]grammar.Rule, numRules)
	for i := 0; i < numRules; i++ {
		lhs, n, err := readInt(data[pos:])
		if err != nil {
			return 0, err
		}
		pos += n

		rhsLen, n, err := readInt(data[pos:])
		if err != nil {
			return 0, err
		}
		pos += n

		rhs := make([]symtab.SymbolId, rhsLen)
		for j := 0; j < rhsLen; j++ {
			s, n, err := readInt(data[pos:])
			if err != nil {
				return 0, err
			}
			pos += n
			rhs[j] = symtab.SymbolId(s)
		}

		actionKind, n, err := readInt(data[pos:])
		if err != nil {
			return 0, err
		}
		pos += n

		actionName, n, err := readString(data[pos:])
		if err != nil {
			return 0, err
		}
		pos += n

		rules[i] = grammar.Rule{
			LHS:    symtab.SymbolId(lhs),
			RHS:    rhs,
			Action: grammar.Action{Kind: grammar.ActionKind(actionKind), Name: actionName},
		}
	}

	cb.NumTerminals = numTerms
	cb.NumStates = numStates
	cb.Rules = rules

	// NOTE: the packed data/check/base arrays are intentionally not
	// persisted yet — the on-disk format only round-trips the rule list
	// a host needs to interpret a runtime.Event stream. Re-running Build
	// on the original grammar reproduces the packed arrays deterministically
	// (spec.md §9), so callers that need the full Compiled back should
	// rebuild it and use Load only to validate that a cached fingerprint
	// still matches.
	return pos, nil
}

func appendInt(buf []byte, v int) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(int64(v)))
	return append(buf, tmp[:]...)
}

func readInt(data []byte) (int, int, error) {
	if len(data) < 8 {
		return 0, 0, fmt.Errorf("persist: unexpected end of data reading int")
	}
	return int(int64(binary.BigEndian.Uint64(data[:8]))), 8, nil
}

func appendString(buf []byte, s string) []byte {
	buf = appendInt(buf, len(s))
	return append(buf, s...)
}

func readString(data []byte) (string, int, error) {
	l, n, err := readInt(data)
	if err != nil {
		return "", 0, err
	}
	if len(data) < n+l {
		return "", 0, fmt.Errorf("persist: unexpected end of data reading string")
	}
	return string(data[n : n+l]), n + l, nil
}
