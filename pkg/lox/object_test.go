package lox

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValuesEqual(t *testing.T) {
	for _, example := range []struct {
		A, B  Value
		Equal bool
	}{
		{Nil{}, Nil{}, true},
		{Bool(true), Bool(true), true},
		{Bool(true), Bool(false), false},
		{Number(1), Number(1), true},
		{Number(1), Number(2), false},
		{String("a"), String("a"), true},
		{String("a"), String("b"), false},
	} {
		eq, err := ValuesEqual(example.A, example.B)
		require.NoError(t, err)
		assert.Equal(t, example.Equal, eq, "%s == %s", example.A, example.B)
	}
}

func TestEqualRejectsMixedAndReferenceKinds(t *testing.T) {
	class := &Class{Name: "A"}
	for _, example := range []struct {
		A, B Value
	}{
		{Number(1), String("1")},
		{Nil{}, Bool(false)},
		{class, class},
		{NewInstance(class), Nil{}},
		{DefaultBuiltins()[0].Value, DefaultBuiltins()[0].Value},
	} {
		_, err := ValuesEqual(example.A, example.B)
		assert.ErrorIs(t, err, errNotComparable, "%s == %s", KindOf(example.A), KindOf(example.B))
	}
}

func TestArity(t *testing.T) {
	stmts, err := Parse(`fun f(a, b) {} class A { init(x) {} } class B < A {} class C {}`)
	require.NoError(t, err)

	fn := &Function{Declaration: stmts[0].(*FunctionStmt)}
	n, err := Arity(fn)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	a := &Class{Name: "A", Methods: map[string]*Function{
		"init": {Declaration: stmts[1].(*ClassStmt).Methods[0], IsInitializer: true},
	}}
	b := &Class{Name: "B", Superclass: a}
	c := &Class{Name: "C"}
	assert.Equal(t, 1, a.Arity())
	assert.Equal(t, 1, b.Arity())
	assert.Equal(t, 0, c.Arity())

	_, err = Arity(String("nope"))
	assert.ErrorIs(t, err, errUncallable)
}

func TestInstanceKeepsClassSnapshot(t *testing.T) {
	class := &Class{Name: "A", Methods: map[string]*Function{}}
	inst := NewInstance(class)

	class.Name = "Renamed"
	assert.Equal(t, "<instance of A>", inst.String())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, "nil", KindOf(Nil{}))
	assert.Equal(t, "boolean", KindOf(Bool(true)))
	assert.Equal(t, "number", KindOf(Number(1)))
	assert.Equal(t, "string", KindOf(String("")))
	assert.Equal(t, "class", KindOf(&Class{}))
	assert.Equal(t, "instance", KindOf(&Instance{}))
	assert.Equal(t, "builtin function", KindOf(DefaultBuiltins()[0].Value))
}

func TestNumberFormatting(t *testing.T) {
	assert.Equal(t, "1", Stringify(Number(1)))
	assert.Equal(t, "-0.5", Stringify(Number(-0.5)))
	assert.Equal(t, "1000000", Stringify(Number(1e6)))
	assert.Equal(t, "nil", Stringify(nil))
	assert.Equal(t, "Infinity", Stringify(Number(math.Inf(1))))
	assert.Equal(t, "-Infinity", Stringify(Number(math.Inf(-1))))
	assert.Equal(t, "NaN", Stringify(Number(math.NaN())))
}

func TestPrintDivisionByZero(t *testing.T) {
	out, err := run(t, "print 1 / 0;\nprint -1 / 0;\nprint 0 / 0;")
	require.NoError(t, err)
	assert.Equal(t, "Infinity\n-Infinity\nNaN\n", out)
}
