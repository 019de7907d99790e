package dumper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yorkie/internal/context"
	"yorkie/internal/parser"
)

func parse(t *testing.T, src string) *context.AstContext {
	t.Helper()
	ctx := context.New("test.yk")
	p := parser.New(src, ctx)
	diags := p.ParseTopLevel()
	require.Empty(t, diags.All())
	return ctx
}

func TestDumperStringRendersSourceLikeForm(t *testing.T) {
	ctx := parse(t, "extern sin(x)\ndef t() 1 + 2 * 3 end")
	out := String(ctx)
	assert.Contains(t, out, "extern sin(x)")
	assert.Contains(t, out, "def t()")
	assert.Contains(t, out, "(1 + (2 * 3))")
}

func TestDumperPrettyRendersFieldStructure(t *testing.T) {
	ctx := parse(t, "def t() 1 + 2 end")
	out := Pretty(ctx)
	assert.Contains(t, out, "BinaryExpr")
	assert.Contains(t, out, "Op:")
}
