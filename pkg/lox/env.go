package lox

import (
	"maps"
	"slices"

	"github.com/pkg/errors"
)

// Environment is one lexical scope: a block, a call activation, or the
// synthetic scopes holding `super` and `this`. Closures keep a pointer to the
// Environment they were declared in, so scopes live as long as anything
// references them.
type Environment struct {
	parent *Environment
	values map[string]Value
}

func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		parent: parent,
		values: make(map[string]Value),
	}
}

// Names lists the names bound in this scope.
func (e *Environment) Names() []string {
	return slices.Sorted(maps.Keys(e.values))
}

// Define binds name in this scope only, replacing any existing binding.
func (e *Environment) Define(name string, value Value) {
	e.values[name] = value
}

// Get looks name up in this scope only.
func (e *Environment) Get(name string) (Value, bool) {
	v, ok := e.values[name]
	return v, ok
}

// Assign rebinds an existing name in this scope only. It reports false if
// the name was never defined here.
func (e *Environment) Assign(name string, value Value) bool {
	if _, ok := e.values[name]; !ok {
		return false
	}
	e.values[name] = value
	return true
}

// GetAt reads name from the scope exactly distance hops up the chain.
//
// The resolver guarantees the binding exists; a miss means the resolver and
// evaluator disagree about scope shape, so it panics.
func (e *Environment) GetAt(distance int, name string) Value {
	v, ok := e.ancestor(distance).values[name]
	if !ok {
		panic(errors.Errorf("resolved variable %q missing at distance %d", name, distance))
	}
	return v
}

// AssignAt rebinds name in the scope exactly distance hops up the chain.
func (e *Environment) AssignAt(distance int, name string, value Value) {
	scope := e.ancestor(distance)
	if _, ok := scope.values[name]; !ok {
		panic(errors.Errorf("resolved variable %q missing at distance %d", name, distance))
	}
	scope.values[name] = value
}

func (e *Environment) ancestor(distance int) *Environment {
	env := e
	for i := 0; i < distance; i++ {
		if env.parent == nil {
			panic(errors.Errorf("scope distance %d walks past the global scope", distance))
		}
		env = env.parent
	}
	return env
}
