package lox

import (
	"context"
	"math"
	"slices"
	"time"
)

// Builtin is a name bound in the global scope before any program runs.
type Builtin struct {
	Name  string
	Value Value
}

// Builtins is the table used to seed both the resolver's outermost scope and
// the interpreter's globals, so the two always agree.
type Builtins []Builtin

// DefaultBuiltins returns clock() and pi.
func DefaultBuiltins() Builtins {
	return Builtins{
		{Name: "clock", Value: NativeFunction{clockFn{}}},
		{Name: "pi", Value: Number(math.Pi)},
	}
}

func (b Builtins) Names() []string {
	names := make([]string, len(b))
	for i, builtin := range b {
		names[i] = builtin.Name
	}
	return names
}

// Without returns the table minus the named entries.
func (b Builtins) Without(names ...string) Builtins {
	var out Builtins
	for _, builtin := range b {
		if slices.Contains(names, builtin.Name) {
			continue
		}
		out = append(out, builtin)
	}
	return out
}

// NativeFunc builds a native function value from a Go func.
func NativeFunc(name string, arity int, fn func(ctx context.Context, args []Value) (Value, error)) NativeFunction {
	return NativeFunction{nativeFunc{name: name, arity: arity, fn: fn}}
}

type nativeFunc struct {
	name  string
	arity int
	fn    func(ctx context.Context, args []Value) (Value, error)
}

func (f nativeFunc) Name() string { return f.name }
func (f nativeFunc) Arity() int   { return f.arity }

func (f nativeFunc) Invoke(ctx context.Context, args []Value) (Value, error) {
	return f.fn(ctx, args)
}

// clockFn returns seconds since the Unix epoch.
type clockFn struct{}

func (clockFn) Name() string { return "clock" }
func (clockFn) Arity() int   { return 0 }

func (clockFn) Invoke(context.Context, []Value) (Value, error) {
	return Number(float64(time.Now().UnixNano()) / float64(time.Second)), nil
}
