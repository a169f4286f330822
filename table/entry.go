// Package table compresses a resolved automaton into the dense
// row-displacement tables the runtime parser actually walks: a single
// flat data/check pair shared across every state's action and goto rows,
// plus per-state default values that let a whole row of identical
// reduce decisions collapse to nothing. Spec.md §4.5.
package table

// ActionEntry is one packed (state, terminal) table cell. The low 2 bits
// are a tag; the remaining 30 bits hold a single payload whose meaning
// depends on the tag. This mirrors the classic yacc/bison packed-action
// encoding, adapted to also carry the "defer to runtime precedence"
// shift-or-reduce shape spec.md's data model requires.
type ActionEntry uint32

const (
	tagError        = 0 // never stored in data[]; gap value
	tagShift        = 1
	tagReduce       = 2
	tagShiftOrReduceOrAccept = 3
)

// acceptSentinel is the literal ActionEntry value used for Accept — tag 3
// with a zero payload, distinguished from a real shift-or-reduce entry
// (tag 3, nonzero payload) by Compiled.validate()'s uniqueness check and
// by Decode's IsAccept return.
const acceptSentinel ActionEntry = tagShiftOrReduceOrAccept

// EncodeShift packs a shift action to target state s.
func EncodeShift(s int) ActionEntry {
	return ActionEntry(uint32(s)<<2 | tagShift)
}

// EncodeReduce packs a reduce action by rule r.
func EncodeReduce(r int) ActionEntry {
	return ActionEntry(uint32(r)<<2 | tagReduce)
}

// EncodeShiftOrReduce packs a deferred shift/reduce decision: bits [2,17)
// hold the shift target, bits [17,32) hold the reduce rule. Resolved at
// parse time by runtime.Parser comparing the incoming token's precedence
// against the stack's inherited precedence (spec.md §4.6).
func EncodeShiftOrReduce(shiftTarget, reduceRule int) ActionEntry {
	return ActionEntry(uint32(shiftTarget&0x7fff)<<2 | uint32(reduceRule&0x7fff)<<17 | tagShiftOrReduceOrAccept)
}

// EncodeAccept packs the unique Accept action.
func EncodeAccept() ActionEntry {
	return acceptSentinel
}

// Tag reports which of the four shapes e holds.
type Tag int

const (
	TagError Tag = iota
	TagShift
	TagReduce
	TagShiftOrReduce
	TagAccept
)

// Decode unpacks e into its tag and payload fields. Only the fields
// meaningful for the returned tag are populated.
func (e ActionEntry) Decode() (tag Tag, shiftTarget, reduceRule int) {
	switch uint32(e) & 0x3 {
	case tagShift:
		return TagShift, int(uint32(e) >> 2), 0
	case tagReduce:
		return TagReduce, 0, int(uint32(e) >> 2)
	case tagShiftOrReduceOrAccept:
		if e == acceptSentinel {
			return TagAccept, 0, 0
		}
		payload := uint32(e) >> 2
		return TagShiftOrReduce, int(payload & 0x7fff), int(payload >> 15)
	default:
		return TagError, 0, 0
	}
}

// IsAccept reports whether e is the unique Accept action.
func (e ActionEntry) IsAccept() bool { return e == acceptSentinel }
