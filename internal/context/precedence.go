package context

// PrecedenceTable is the operator-precedence state shared between the
// parser and codegen (spec §3 "Precedence table", §5 "Shared
// precedence table", and design note "Shared precedence table"). It
// is owned by AstContext rather than a package-level global, per the
// design note's direction to avoid hidden globals: both the parser
// and codegen take the table from the AstContext they are handed.
//
// 1 is the lowest precedence, 100 the highest; an operator absent
// from the table is not a registered binary operator.
type PrecedenceTable struct {
	prec map[byte]int
}

// NewPrecedenceTable returns a table seeded with the built-in
// operators from spec §3/§6.2.
func NewPrecedenceTable() *PrecedenceTable {
	return &PrecedenceTable{
		prec: map[byte]int{
			'=': 2,
			'<': 10,
			'+': 20,
			'-': 30,
			'*': 40,
		},
	}
}

// Get returns the precedence of op, or 0 if op is not registered.
func (t *PrecedenceTable) Get(op byte) int {
	return t.prec[op]
}

// Set installs or overwrites the precedence of op. Called by the
// parser when a `binary` prototype is accepted, and idempotently by
// codegen when the corresponding function is lowered.
func (t *PrecedenceTable) Set(op byte, prec int) {
	t.prec[op] = prec
}

// Delete removes op's precedence entry. Used by codegen to roll back
// a precedence-table entry it installed when the enclosing function
// definition subsequently fails (see codegen.go).
func (t *PrecedenceTable) Delete(op byte) {
	delete(t.prec, op)
}

// Has reports whether op has a registered precedence.
func (t *PrecedenceTable) Has(op byte) bool {
	_, ok := t.prec[op]
	return ok
}
