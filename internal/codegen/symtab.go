package codegen

import "yorkie/internal/emitter"

// symtab is the codegen pass's scoped table of named stack slots. It
// is grounded on the same save/restore shadowing discipline the
// original Kaleidoscope NamedValues map uses around `var` and `for`:
// a binding shadows any outer one for the lifetime of its construct,
// then the outer slot (if any) is restored.
type symtab struct {
	vars map[string]emitter.Value
}

func newSymtab() *symtab {
	return &symtab{vars: map[string]emitter.Value{}}
}

// lookup returns the alloca slot bound to name, if any.
func (s *symtab) lookup(name string) (emitter.Value, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// bind installs name -> slot, returning the previous binding (if any)
// so the caller can restore it later with restore.
func (s *symtab) bind(name string, slot emitter.Value) (prev emitter.Value, hadPrev bool) {
	prev, hadPrev = s.vars[name]
	s.vars[name] = slot
	return prev, hadPrev
}

// restore re-installs a shadowed binding, or removes it entirely if
// hadPrev is false.
func (s *symtab) restore(name string, prev emitter.Value, hadPrev bool) {
	if hadPrev {
		s.vars[name] = prev
	} else {
		delete(s.vars, name)
	}
}
