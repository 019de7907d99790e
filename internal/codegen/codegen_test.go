package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yorkie/internal/context"
	"yorkie/internal/emitter"
	"yorkie/internal/parser"
)

func compile(t *testing.T, src string) (*emitter.Module, *context.AstContext) {
	t.Helper()
	ctx := context.New("test.yk")
	p := parser.New(src, ctx)
	parseDiags := p.ParseTopLevel()
	require.Empty(t, parseDiags.All(), "parse errors: %v", parseDiags.All())

	em := emitter.New()
	cg := New(em, ctx)
	diags := cg.Run()
	require.Empty(t, diags.All(), "codegen errors: %v", diags.All())

	return em, ctx
}

func TestCodegenArithmeticEmitsInstructions(t *testing.T) {
	em, _ := compile(t, "def t() 1 + 2 * 3 end")
	dump := em.Dump()
	assert.Contains(t, dump, "fmul")
	assert.Contains(t, dump, "fadd")
	assert.Contains(t, dump, "define")
}

func TestCodegenMainReturnsI32Zero(t *testing.T) {
	em, _ := compile(t, "1 + 2")
	dump := em.Dump()
	assert.Contains(t, dump, "main")
	assert.Contains(t, dump, "ret 0")
}

func TestCodegenIfEmitsPhiAndBranches(t *testing.T) {
	em, _ := compile(t, "def t(a) if a then 1 else 2 end end")
	dump := em.Dump()
	assert.Contains(t, dump, "condbr")
	assert.Contains(t, dump, "phi")
}

func TestCodegenForEmitsLoopWithoutPhi(t *testing.T) {
	em, _ := compile(t, "def loop(n) for i = 0, i < n in i end end")
	dump := em.Dump()
	assert.Contains(t, dump, "loop:")
	assert.Contains(t, dump, "afterloop:")
	assert.NotContains(t, dump, "phi")
}

func TestCodegenVarShadowingUsesDistinctSlots(t *testing.T) {
	em, _ := compile(t, "def t() var a = 2 in var a = a + 1 in a end end end")
	dump := em.Dump()
	assert.Contains(t, dump, "alloca")
	assert.Equal(t, 2, strings.Count(dump, "alloca"), "outer and inner a need one slot each")
}

func TestCodegenUnaryOperatorDispatch(t *testing.T) {
	em, _ := compile(t, `
def unary!(a) if a then 0 else 1 end end
def t() !0 end
`)
	dump := em.Dump()
	assert.Contains(t, dump, "call unary!")
}

func TestCodegenUndefinedUnaryOperatorFails(t *testing.T) {
	ctx := context.New("test.yk")
	p := parser.New("def t() !0 end", ctx)
	require.Empty(t, p.ParseTopLevel().All())

	em := emitter.New()
	cg := New(em, ctx)
	diags := cg.Run()
	require.NotEmpty(t, diags.All())
}

func TestCodegenUserBinaryOperatorDispatch(t *testing.T) {
	em, _ := compile(t, `
def binary| 5 (a b) if a then 1 else b end end
def t() 0 | 7 end
`)
	dump := em.Dump()
	assert.Contains(t, dump, "call binary|")
}

func TestCodegenRecursiveCallResolves(t *testing.T) {
	em, _ := compile(t, "def fib(n) if n < 2 then n else fib(n-1) + fib(n-2) end end")
	dump := em.Dump()
	assert.Contains(t, dump, "call fib")
}

func TestCodegenAssignmentStoresToSlot(t *testing.T) {
	em, _ := compile(t, "def t() var a = 1 in a = a + 1 end end")
	dump := em.Dump()
	assert.Contains(t, dump, "store")
	assert.Equal(t, 2, strings.Count(dump, "store"), "one store for the initializer, one for the assignment")
}

func TestCodegenUnknownVariableFails(t *testing.T) {
	ctx := context.New("test.yk")
	p := parser.New("def t() unknownvar end", ctx)
	require.Empty(t, p.ParseTopLevel().All())

	em := emitter.New()
	cg := New(em, ctx)
	diags := cg.Run()
	require.NotEmpty(t, diags.All())
}

func TestCodegenArityMismatchFails(t *testing.T) {
	ctx := context.New("test.yk")
	p := parser.New("extern sin(x)\ndef t() sin(1, 2) end", ctx)
	require.Empty(t, p.ParseTopLevel().All())

	em := emitter.New()
	cg := New(em, ctx)
	diags := cg.Run()
	require.NotEmpty(t, diags.All())
}

func TestCodegenFailureErasesFunctionButContinues(t *testing.T) {
	ctx := context.New("test.yk")
	p := parser.New("def bad() nosuchvar end\ndef good() 42 end", ctx)
	require.Empty(t, p.ParseTopLevel().All())

	em := emitter.New()
	cg := New(em, ctx)
	diags := cg.Run()
	require.NotEmpty(t, diags.All())

	dump := em.Dump()
	assert.NotContains(t, dump, "bad")
	assert.Contains(t, dump, "good")
}

func TestCodegenBuiltinFFIFunctionsAlwaysAvailable(t *testing.T) {
	em, _ := compile(t, "def t(x) printd(putchard(x)) end")
	dump := em.Dump()
	assert.Contains(t, dump, "declare")
	assert.Contains(t, dump, "call putchard")
	assert.Contains(t, dump, "call printd")
}

func TestCodegenExternDeclared(t *testing.T) {
	em, _ := compile(t, "extern sin(x)\ndef t() sin(1) end")
	dump := em.Dump()
	assert.Contains(t, dump, "declare")
	assert.Contains(t, dump, "call sin")
}
