package grammar

// Assoc is the associativity carried by a prec-terminal at parse time,
// used by runtime.Parser to break a deferred shift/reduce tie.
type Assoc int

const (
	AssocLeft Assoc = iota
	AssocRight
	AssocNonAssoc
)

func (a Assoc) String() string {
	switch a {
	case AssocLeft:
		return "left"
	case AssocRight:
		return "right"
	case AssocNonAssoc:
		return "nonassoc"
	default:
		return "unknown"
	}
}

// Precedence is the (level, associativity) pair a prec-terminal token
// carries at parse time. Unlike a conventional yacc-style generator, this
// is never attached to a terminal or rule at build time: the grammar only
// records which terminals ARE prec-terminals (symtab.KindPrecTerminal);
// the actual level is supplied per-token at runtime by the lexer/caller,
// which is what lets one grammar parse languages whose operator precedence
// table isn't fixed until runtime (spec.md §3, runtime operator
// precedence).
type Precedence struct {
	Level int32
	Assoc Assoc
}

// Tighter reports whether p binds tighter than o: a strictly higher level,
// or the same level with left associativity (so the already-reduced
// left operand wins and a shift is refused).
func (p Precedence) Tighter(o Precedence) bool {
	if p.Level != o.Level {
		return p.Level > o.Level
	}
	return p.Assoc == AssocLeft
}
