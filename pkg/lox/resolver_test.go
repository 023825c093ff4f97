package lox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolve(t *testing.T, source string) ([]Stmt, Resolution, error) {
	t.Helper()
	stmts, err := Parse(source)
	require.NoError(t, err)
	locals, err := Resolve(stmts, DefaultBuiltins().Names())
	return stmts, locals, err
}

func TestResolveShadowingDistances(t *testing.T) {
	stmts, locals, err := resolve(t, `
{
  var a = 1;
  {
    print a;
    var a = 2;
    print a;
  }
}
`)
	require.NoError(t, err)

	outer := stmts[0].(*BlockStmt)
	inner := outer.Statements[1].(*BlockStmt)
	before := inner.Statements[0].(*PrintStmt).Expression.(*VariableExpr)
	after := inner.Statements[2].(*PrintStmt).Expression.(*VariableExpr)

	assert.Equal(t, 1, locals[before.Name.ID])
	assert.Equal(t, 0, locals[after.Name.ID])
}

func TestResolveGlobalsAreDynamic(t *testing.T) {
	stmts, locals, err := resolve(t, `
var g = 1;
fun f() { return g; }
`)
	require.NoError(t, err)

	ret := stmts[1].(*FunctionStmt).Body[0].(*ReturnStmt)
	_, tracked := locals[ret.Value.(*VariableExpr).Name.ID]
	assert.False(t, tracked, "globals should not be resolved to a distance")
}

func TestResolveBuiltinsFromOutermostScope(t *testing.T) {
	stmts, locals, err := resolve(t, `
fun f() {
  {
    return clock;
  }
}
`)
	require.NoError(t, err)

	block := stmts[0].(*FunctionStmt).Body[0].(*BlockStmt)
	ret := block.Statements[0].(*ReturnStmt)
	assert.Equal(t, 2, locals[ret.Value.(*VariableExpr).Name.ID])
}

func TestResolveAssignment(t *testing.T) {
	stmts, locals, err := resolve(t, `
fun f(x) {
  fun g() { x = 2; }
}
`)
	require.NoError(t, err)

	g := stmts[0].(*FunctionStmt).Body[0].(*FunctionStmt)
	assign := g.Body[0].(*ExpressionStmt).Expression.(*AssignExpr)
	assert.Equal(t, 1, locals[assign.Name.ID])
}

func TestResolveThisAndSuper(t *testing.T) {
	stmts, locals, err := resolve(t, `
class A { m() {} }
class B < A {
  m() { return super.m() or this; }
}
`)
	require.NoError(t, err)

	m := stmts[1].(*ClassStmt).Methods[0]
	or := m.Body[0].(*ReturnStmt).Value.(*LogicalExpr)
	super := or.Left.(*CallExpr).Callee.(*SuperExpr)
	this := or.Right.(*ThisExpr)

	// method body scope -> this scope -> super scope
	assert.Equal(t, 2, locals[super.Keyword.ID])
	assert.Equal(t, 1, locals[this.Keyword.ID])
}

func TestResolveSelfReferenceInInitializer(t *testing.T) {
	_, _, err := resolve(t, `var a = a;`)
	assert.NoError(t, err, "globals may refer to themselves")

	_, _, err = resolve(t, `{ var a = a; }`)
	require.Error(t, err)
	assert.Equal(t, "[line 1] Error at 'a': Can't read local variable in its own initializer.", err.Error())

	_, _, err = resolve(t, "{ var a = a; }\nvar a = 1;")
	require.Error(t, err, "globals declared later are not enclosing bindings")
}

func TestResolveInitializerReadsEnclosingBinding(t *testing.T) {
	stmts, locals, err := resolve(t, `
var x = 10;
{
  var y = 1;
  {
    var x = x + 1;
    var y = y + 1;
    var pi = pi;
  }
}
`)
	require.NoError(t, err)

	outer := stmts[1].(*BlockStmt)
	inner := outer.Statements[1].(*BlockStmt)
	initializer := func(i int) *VariableExpr {
		switch e := inner.Statements[i].(*VarStmt).Initializer.(type) {
		case *BinaryExpr:
			return e.Left.(*VariableExpr)
		default:
			return e.(*VariableExpr)
		}
	}

	_, tracked := locals[initializer(0).Name.ID]
	assert.False(t, tracked, "enclosing global stays dynamic")
	assert.Equal(t, 1, locals[initializer(1).Name.ID])
	assert.Equal(t, 2, locals[initializer(2).Name.ID])
}

func TestResolveInitializerSeesDeclaredGlobals(t *testing.T) {
	stmts, err := Parse(`{ var x = x; }`)
	require.NoError(t, err)

	r := NewResolver(DefaultBuiltins().Names())
	r.DeclareGlobals("x")
	_, err = r.Resolve(stmts)
	assert.NoError(t, err)
}

func TestResolveRedeclaration(t *testing.T) {
	_, _, err := resolve(t, `var a = 1; var a = 2;`)
	assert.NoError(t, err, "globals may be redeclared")

	_, _, err = resolve(t, `{ var a = 1; var a = 2; }`)
	require.Error(t, err)
	assert.Equal(t, "[line 1] Error at 'a': Already a variable with this name in this scope.", err.Error())

	_, _, err = resolve(t, `fun f(a, a) {}`)
	require.Error(t, err)
	assert.Equal(t, "[line 1] Error at 'a': Already a variable with this name in this scope.", err.Error())

	_, _, err = resolve(t, `{ var clock = 1; }`)
	assert.NoError(t, err, "locals may shadow builtins")
}

func TestResolveErrors(t *testing.T) {
	for _, example := range []struct {
		Source string
		Error  string
	}{
		{`return 1;`, `[line 1] Error at 'return': Can't return from top-level code.`},
		{`class A { init() { return 5; } }`, `[line 1] Error at 'return': Can't return a value from an initializer.`},
		{`print this;`, `[line 1] Error at 'this': Can't use 'this' outside of a class.`},
		{`fun f() { return this; }`, `[line 1] Error at 'this': Can't use 'this' outside of a class.`},
		{`super.m();`, `[line 1] Error at 'super': Can't use 'super' outside of a class.`},
		{`class A { m() { super.m(); } }`, `[line 1] Error at 'super': Can't use 'super' in a class with no superclass.`},
		{`class A < A {}`, `[line 1] Error at 'A': A class can't inherit from itself.`},
	} {
		t.Run(example.Source, func(t *testing.T) {
			_, _, err := resolve(t, example.Source)
			require.Error(t, err)
			assert.Equal(t, example.Error, err.Error())

			var resolveErr *ResolveError
			assert.ErrorAs(t, err, &resolveErr)
			assert.True(t, IsStatic(err))
		})
	}
}

func TestResolveAllowsBareReturnInInitializer(t *testing.T) {
	_, _, err := resolve(t, `class A { init() { return; } }`)
	assert.NoError(t, err)
}

func TestResolveThisInNestedFunction(t *testing.T) {
	_, _, err := resolve(t, `
class A {
  m() {
    fun inner() { return this; }
    return inner;
  }
}
`)
	assert.NoError(t, err)
}

func TestResolveCollectsErrorsAcrossStatements(t *testing.T) {
	_, _, err := resolve(t, "return 1;\nprint this;\n{ var a = a; }\nprint 1;")
	require.Error(t, err)

	var list ErrorList
	require.ErrorAs(t, err, &list)
	assert.Len(t, list, 3)
	assert.Equal(t, ""+
		"[line 1] Error at 'return': Can't return from top-level code.\n"+
		"[line 2] Error at 'this': Can't use 'this' outside of a class.\n"+
		"[line 3] Error at 'a': Can't read local variable in its own initializer.",
		err.Error())
}

func TestResolveStateResetsAfterError(t *testing.T) {
	// the failing class body must not leave the resolver thinking it is
	// still inside a class or function
	_, _, err := resolve(t, "class A { m() { { var x = x; } } }\nprint this;\nreturn;")
	require.Error(t, err)

	var list ErrorList
	require.ErrorAs(t, err, &list)
	assert.Len(t, list, 3)
}

func TestStaticErrorsPreventExecution(t *testing.T) {
	out, err := run(t, "print \"ran\";\nreturn;")
	require.Error(t, err)
	assert.True(t, IsStatic(err))
	assert.Empty(t, out)
}
