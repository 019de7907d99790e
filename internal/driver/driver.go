// Package driver runs the ordered pass pipeline described in spec
// §4.4: "Parse", an optional "Dump", and "CodeGen", each a named
// thunk over a shared *context.AstContext. It is the Go descendant of
// the original source's own Driver/Pass pair
// (original_source/include/Driver.h,
// original_source/lib/Infrastructure/Driver.cpp), which is itself a
// named list of PassClosure values run in registration order — the
// one piece of this module's architecture grounded directly in the
// original rather than the teacher, since the teacher has no
// multi-pass pipeline of its own (gosh2 is parse-then-evaluate, one
// shot).
package driver

import (
	"fmt"
)

// Pass is one named unit of work in the pipeline. Run reports an
// error if the pass failed; later passes do not run.
type Pass struct {
	Name string
	Run  func() error
}

// Driver holds an ordered list of passes and executes them in
// registration order, stopping at the first failure.
type Driver struct {
	passes []Pass
}

// New returns an empty Driver.
func New() *Driver { return &Driver{} }

// Add appends a named pass to the pipeline.
func (d *Driver) Add(name string, run func() error) {
	d.passes = append(d.passes, Pass{Name: name, Run: run})
}

// Run executes every registered pass in order. A panicking pass is
// recovered and converted into a pass failure rather than crashing
// the process, matching spec §4.4's framing of pass failure as a
// normal, surfaced outcome rather than an exceptional one.
func (d *Driver) Run() error {
	for _, p := range d.passes {
		if err := runPass(p); err != nil {
			return fmt.Errorf("pass %q: %w", p.Name, err)
		}
	}
	return nil
}

func runPass(p Pass) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return p.Run()
}
