// Package dumper implements the diagnostic AST pretty-printer pass
// (spec §2 "Dumper"), driven by the CLI's --print-ast flag. It offers
// two renderings of the same AstContext: a hand-rolled String() walk,
// one definition per line, grounded on ast.Expr's own Dump()
// methods, and a github.com/kr/pretty-backed structural dump for
// tests and verbose diagnostics that want the full field-level shape
// rather than the source-like rendering.
package dumper

import (
	"fmt"
	"strings"

	"github.com/kr/pretty"

	"yorkie/internal/context"
)

// String renders every extern and function in ctx using each node's
// own Dump() method, one definition per line: all externs first, then
// all functions, each group in source order.
func String(ctx *context.AstContext) string {
	var b strings.Builder
	for _, e := range ctx.Externs {
		fmt.Fprintf(&b, "extern %s\n", e.Dump())
	}
	for _, fn := range ctx.Functions {
		fmt.Fprintf(&b, "%s\n", fn.Dump())
	}
	return b.String()
}

// Pretty renders ctx's functions and externs with kr/pretty, field by
// field, for callers that want the literal tree shape rather than a
// source-like reconstruction (tests asserting exact structure). Like
// String, it lists all externs before all functions.
func Pretty(ctx *context.AstContext) string {
	var b strings.Builder
	for _, e := range ctx.Externs {
		fmt.Fprintf(&b, "%# v\n", pretty.Formatter(e))
	}
	for _, fn := range ctx.Functions {
		fmt.Fprintf(&b, "%# v\n", pretty.Formatter(fn))
	}
	return b.String()
}
