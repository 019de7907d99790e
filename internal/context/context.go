// Package context holds the AstContext shared across the compiler's
// passes: the parsed functions for one translation unit, plus the
// precedence table that the parser and codegen both read and write
// (spec §3, §5; design note "Shared precedence table").
package context

import "yorkie/internal/ast"

// AstContext is populated by the Parse pass and read by every pass
// that follows it (Dump, CodeGen).
type AstContext struct {
	FileName  string
	Functions []*ast.Function
	Externs   []*ast.Prototype

	Precedence *PrecedenceTable
}

// New creates an empty AstContext for the given source file name,
// with the precedence table seeded per spec §6.2.
func New(fileName string) *AstContext {
	return &AstContext{
		FileName:   fileName,
		Precedence: NewPrecedenceTable(),
	}
}

// AddFunction appends a parsed function to the context, in source
// order.
func (c *AstContext) AddFunction(fn *ast.Function) {
	c.Functions = append(c.Functions, fn)
}

// AddExtern appends an extern declaration to the context, in source
// order.
func (c *AstContext) AddExtern(proto *ast.Prototype) {
	c.Externs = append(c.Externs, proto)
}
