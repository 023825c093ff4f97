package lox

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuntimeErrorFormat(t *testing.T) {
	err := NewRuntimeError(Synthetic("x", 7), "Variable '%s' is not defined.", "x")
	assert.Equal(t, "Variable 'x' is not defined.\n[line 7]", err.Error())
	assert.False(t, IsStatic(err))
}

func TestErrorListErr(t *testing.T) {
	var empty ErrorList
	assert.NoError(t, empty.Err())

	first := errors.New("first")
	list := ErrorList{first, errors.New("second")}
	assert.Equal(t, "first\nsecond", list.Err().Error())
	assert.ErrorIs(t, list.Err(), first)
}

func TestRenderHighlightsSource(t *testing.T) {
	source := "var x = 1;\nprint -\"s\";\nprint x;"
	err := NewSession(nil).Eval(t.Context(), source)
	require.Error(t, err)

	out := Render(err, "test.lox", source, false)
	assert.NotContains(t, out, "\x1b[", "color disabled")

	lines := strings.Split(out, "\n")
	assert.Equal(t, "Error: Operand must be a number.", lines[0])
	assert.Equal(t, "[line 2]", lines[1])
	assert.Contains(t, out, "--> test.lox:2:7")
	assert.Contains(t, out, `  2 | print -"s";`)
	assert.Contains(t, out, "\n"+strings.Repeat(" ", 13)+"^\n")
	assert.Contains(t, out, "  1 | var x = 1;")
	assert.Contains(t, out, "  3 | print x;")
}

func TestRenderEveryStaticError(t *testing.T) {
	source := "print ;\nprint 1;\nvar = 2;"
	_, err := Parse(source)
	require.Error(t, err)

	out := Render(err, "bad.lox", source, false)
	assert.Contains(t, out, "Error: [line 1] Error at ';': Expect expression.")
	assert.Contains(t, out, "--> bad.lox:1:7")
	assert.Contains(t, out, "Error: [line 3] Error at '=': Expect variable name.")
	assert.Contains(t, out, "--> bad.lox:3:5")
}

func TestRenderUnlocatedError(t *testing.T) {
	err := errors.New("plain failure")
	assert.Equal(t, "plain failure", Render(err, "x.lox", "", false))
}
