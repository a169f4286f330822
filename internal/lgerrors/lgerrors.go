// Package lgerrors holds the sentinel errors wrapped by lrforge's public
// errors, letting callers use errors.Is instead of string matching. This
// plays the role the teacher's (unretrieved) internal/ictiobus/icterrors
// package played for ictiobus. Build's errors wrap ErrNilGrammar or
// ErrCorruptTable, and persist's decode errors wrap ErrCorruptTable; the
// errors of symtab, grammar and runtime wrap none of these.
package lgerrors

import "errors"

var (
	// ErrNilGrammar is returned when Build is called with a nil grammar.
	ErrNilGrammar = errors.New("grammar is nil")

	// ErrSymbolRedeclared names the case of one name interned under two
	// different kinds. symtab does not return it: re-interning a name
	// returns the Symbol already interned under that name.
	ErrSymbolRedeclared = errors.New("symbol already declared under a different kind")

	// ErrNotFinalized names the case of a non-terminal interned before
	// FinalizeTerminals, or a terminal after it. symtab reports those
	// cases with its own errors, which do not wrap this one.
	ErrNotFinalized = errors.New("terminal set not finalized")

	// ErrConflict is returned by callers that choose to treat any residual
	// build conflict as fatal (Build itself never returns this; it is
	// exposed for callers implementing that stricter policy).
	ErrConflict = errors.New("grammar has an unresolved conflict")

	// ErrParse wraps every runtime.SyntaxError surfaced through a higher
	// level API that wants a single sentinel to errors.Is against.
	ErrParse = errors.New("parse error")

	// ErrCorruptTable is returned when a compiled table fails its
	// internal consistency check, or when persist fails to decode one.
	ErrCorruptTable = errors.New("corrupt or inconsistent parsing table")
)
