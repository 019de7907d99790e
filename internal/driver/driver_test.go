package driver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriverRunsPassesInOrder(t *testing.T) {
	var order []string
	d := New()
	d.Add("first", func() error { order = append(order, "first"); return nil })
	d.Add("second", func() error { order = append(order, "second"); return nil })

	require.NoError(t, d.Run())
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestDriverStopsOnFirstFailure(t *testing.T) {
	var ran []string
	d := New()
	d.Add("parse", func() error { ran = append(ran, "parse"); return errors.New("boom") })
	d.Add("codegen", func() error { ran = append(ran, "codegen"); return nil })

	err := d.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `pass "parse"`)
	assert.Equal(t, []string{"parse"}, ran)
}

func TestDriverRecoversPanicAsFailure(t *testing.T) {
	d := New()
	d.Add("CodeGen", func() error { panic("unexpected nil pointer") })

	err := d.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")
}

func TestDriverOptionalPassCanBeSkipped(t *testing.T) {
	var ran []string
	d := New()
	d.Add("Parse", func() error { ran = append(ran, "Parse"); return nil })
	// "Dump" is conditionally registered by the caller; omitting it here
	// models --print-ast being off.
	d.Add("CodeGen", func() error { ran = append(ran, "CodeGen"); return nil })

	require.NoError(t, d.Run())
	assert.Equal(t, []string{"Parse", "CodeGen"}, ran)
}
