package parser

import (
	"testing"

	"github.com/kr/pretty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yorkie/internal/ast"
	"yorkie/internal/context"
)

func parseAll(t *testing.T, src string) (*context.AstContext, []string) {
	t.Helper()
	ctx := context.New("test.yk")
	p := New(src, ctx)
	bag := p.ParseTopLevel()

	var msgs []string
	for _, d := range bag.All() {
		msgs = append(msgs, d.Error())
	}
	return ctx, msgs
}

func TestParserArithmeticPrecedence(t *testing.T) {
	ctx, errs := parseAll(t, "def t() 1 + 2 * 3 end")
	require.Empty(t, errs)
	require.Len(t, ctx.Functions, 1)

	fn := ctx.Functions[0]
	assert.Equal(t, "t", fn.Proto.Name)
	require.Len(t, fn.Body, 1)

	bin, ok := fn.Body[0].(*ast.BinaryExpr)
	require.True(t, ok, "expected top-level binary expr, got %# v", pretty.Formatter(fn.Body[0]))
	assert.Equal(t, byte('+'), bin.Op)

	rhs, ok := bin.RHS.(*ast.BinaryExpr)
	require.True(t, ok, "expected RHS to be a binary expr, got %# v", pretty.Formatter(bin.RHS))
	assert.Equal(t, byte('*'), rhs.Op)
}

func TestParserUserDefinedBinaryOperator(t *testing.T) {
	src := `
def binary| 5 (a b) if a then 1 else b end end
def t() 0 | 7 end
`
	ctx, errs := parseAll(t, src)
	require.Empty(t, errs)
	require.Len(t, ctx.Functions, 2)

	opFn := ctx.Functions[0]
	assert.Equal(t, "binary|", opFn.Proto.Name)
	assert.True(t, opFn.Proto.IsBinaryOp())
	assert.Equal(t, 5, opFn.Proto.Precedence)
	assert.Equal(t, byte('|'), opFn.Proto.OperatorName())

	tFn := ctx.Functions[1]
	bin, ok := tFn.Body[0].(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, byte('|'), bin.Op)
}

func TestParserPrecedenceOrdering(t *testing.T) {
	// Invariant (spec §8): for declared binary operators with
	// precedences p1 > p2, "a OP2 b OP1 c" parses as
	// Binary(OP2, a, Binary(OP1, b, c)).
	src := `
def binary^ 60 (a b) a end
def binary~ 10 (a b) a end
def t() a ~ b ^ c end
`
	ctx, errs := parseAll(t, src)
	require.Empty(t, errs)

	tFn := ctx.Functions[2]
	outer, ok := tFn.Body[0].(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, byte('~'), outer.Op)

	inner, ok := outer.RHS.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, byte('^'), inner.Op)
}

func TestParserForLoopDefaultStep(t *testing.T) {
	ctx, errs := parseAll(t, "def loop(n) for i = 0, i < n in printd(i) end end")
	require.Empty(t, errs)

	forExpr, ok := ctx.Functions[0].Body[0].(*ast.ForExpr)
	require.True(t, ok)
	assert.Equal(t, "i", forExpr.Var)
	assert.Nil(t, forExpr.Step)
}

func TestParserVarShadowing(t *testing.T) {
	ctx, errs := parseAll(t, "def t() var a = 2 in var a = a + 1 in a end end end")
	require.Empty(t, errs)

	outer, ok := ctx.Functions[0].Body[0].(*ast.VarExpr)
	require.True(t, ok)
	require.Len(t, outer.Bindings, 1)
	assert.Equal(t, "a", outer.Bindings[0].Name)

	inner, ok := outer.Body.(*ast.VarExpr)
	require.True(t, ok)
	require.Len(t, inner.Bindings, 1)
	assert.Equal(t, "a", inner.Bindings[0].Name)
}

func TestParserRecursion(t *testing.T) {
	ctx, errs := parseAll(t, "def fib(n) if n < 2 then n else fib(n-1) + fib(n-2) end end")
	require.Empty(t, errs)
	require.Len(t, ctx.Functions, 1)
	assert.Equal(t, "fib", ctx.Functions[0].Proto.Name)
}

func TestParserSyntaxErrorRecovery(t *testing.T) {
	src := "def bad( end\ndef good() 1 end"
	ctx, errs := parseAll(t, src)

	require.NotEmpty(t, errs, "expected at least one diagnostic for the malformed definition")
	require.Len(t, ctx.Functions, 1, "parser should recover and still produce the valid function")
	assert.Equal(t, "good", ctx.Functions[0].Proto.Name)
}

func TestParserInvalidPrecedenceRejected(t *testing.T) {
	_, errs := parseAll(t, "def binary| 200 (a b) a end")
	require.NotEmpty(t, errs)
}

func TestParserUnaryOperatorArity(t *testing.T) {
	_, errs := parseAll(t, "def unary!(a b) a end")
	require.NotEmpty(t, errs, "unary prototype with two args should be rejected")
}

func TestParserExternDeclaration(t *testing.T) {
	ctx, errs := parseAll(t, "extern sin(x)")
	require.Empty(t, errs)
	require.Len(t, ctx.Externs, 1)
	assert.Equal(t, "sin", ctx.Externs[0].Name)
}

func TestParserTopLevelExpressionBecomesMain(t *testing.T) {
	ctx, errs := parseAll(t, "1 + 2")
	require.Empty(t, errs)
	require.Len(t, ctx.Functions, 1)
	assert.Equal(t, "main", ctx.Functions[0].Proto.Name)
}

func TestParserCompoundBodyValueIsLast(t *testing.T) {
	ctx, errs := parseAll(t, "def t() 1; 2; 3 end")
	require.Empty(t, errs)
	require.Len(t, ctx.Functions[0].Body, 3)
	num, ok := ctx.Functions[0].Body[2].(*ast.NumberExpr)
	require.True(t, ok)
	assert.Equal(t, 3.0, num.Value)
}
