package lox

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/pkg/errors"
)

// Value is a runtime value. Implementations are limited to the types in this
// file: Nil, Bool, Number, String, *Function, *Class, *Instance and
// NativeFunction.
type Value interface {
	String() string
	value()
}

type Nil struct{}

type Bool bool

type Number float64

type String string

func (Nil) value()            {}
func (Bool) value()           {}
func (Number) value()         {}
func (String) value()         {}
func (*Function) value()      {}
func (*Class) value()         {}
func (*Instance) value()      {}
func (NativeFunction) value() {}

func (Nil) String() string { return "nil" }

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

func (n Number) String() string {
	switch {
	case math.IsInf(float64(n), 1):
		return "Infinity"
	case math.IsInf(float64(n), -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(float64(n), 'f', -1, 64)
}

func (s String) String() string { return string(s) }

// Function is a user-defined function or method together with the
// environment it closes over.
type Function struct {
	Declaration   *FunctionStmt
	Closure       *Environment
	IsInitializer bool
}

func (f *Function) Name() string {
	return f.Declaration.Name.Lexeme
}

func (f *Function) Arity() int {
	return len(f.Declaration.Params)
}

func (f *Function) String() string {
	return fmt.Sprintf("<fn %s>", f.Name())
}

// Bind returns a copy of the method whose closure defines `this` as inst.
func (f *Function) Bind(inst *Instance) *Function {
	env := NewEnvironment(f.Closure)
	env.Define("this", inst)
	return &Function{
		Declaration:   f.Declaration,
		Closure:       env,
		IsInitializer: f.IsInitializer,
	}
}

// Class is a class value. Instances copy the struct when they are created,
// so rebinding the class name later does not change existing instances.
type Class struct {
	Name       string
	Superclass *Class
	Methods    map[string]*Function
}

func (c *Class) String() string {
	return fmt.Sprintf("<class %s>", c.Name)
}

// FindMethod looks up a method on the class and then up the superclass chain.
func (c *Class) FindMethod(name string) (*Function, bool) {
	for class := c; class != nil; class = class.Superclass {
		if m, ok := class.Methods[name]; ok {
			return m, true
		}
	}
	return nil, false
}

// Arity is the arity of init, or 0 when the class has none.
func (c *Class) Arity() int {
	if init, ok := c.FindMethod("init"); ok {
		return init.Arity()
	}
	return 0
}

type Instance struct {
	Class  Class
	Fields map[string]Value
}

func NewInstance(class *Class) *Instance {
	return &Instance{
		Class:  *class,
		Fields: make(map[string]Value),
	}
}

func (i *Instance) String() string {
	return fmt.Sprintf("<instance of %s>", i.Class.Name)
}

// Get returns a field, or else a method bound to i. Fields shadow methods.
func (i *Instance) Get(name string) (Value, bool) {
	if v, ok := i.Fields[name]; ok {
		return v, true
	}
	if m, ok := i.Class.FindMethod(name); ok {
		return m.Bind(i), true
	}
	return nil, false
}

func (i *Instance) Set(name string, value Value) {
	i.Fields[name] = value
}

// Native is a function implemented in Go.
type Native interface {
	Name() string
	Arity() int
	Invoke(ctx context.Context, args []Value) (Value, error)
}

// NativeFunction adapts a Native into a Value.
type NativeFunction struct {
	Native
}

func (n NativeFunction) String() string {
	return fmt.Sprintf("<builtin-fn %s>", n.Name())
}

var (
	errUncallable    = errors.New("value is not callable")
	errNotComparable = errors.New("values are not comparable")
)

// IsTruthy reports whether v counts as true in a condition: everything but
// nil and false.
func IsTruthy(v Value) bool {
	switch v := v.(type) {
	case nil, Nil:
		return false
	case Bool:
		return bool(v)
	default:
		return true
	}
}

// ValuesEqual compares two primitives of the same kind. Any other pairing fails
// with errNotComparable.
func ValuesEqual(a, b Value) (bool, error) {
	switch a := a.(type) {
	case Nil:
		if _, ok := b.(Nil); ok {
			return true, nil
		}
	case Bool:
		if b, ok := b.(Bool); ok {
			return a == b, nil
		}
	case Number:
		if b, ok := b.(Number); ok {
			return a == b, nil
		}
	case String:
		if b, ok := b.(String); ok {
			return a == b, nil
		}
	}
	return false, errors.WithMessagef(errNotComparable, "%s and %s", KindOf(a), KindOf(b))
}

// Arity returns the number of arguments v expects when called.
func Arity(v Value) (int, error) {
	switch v := v.(type) {
	case *Function:
		return v.Arity(), nil
	case *Class:
		return v.Arity(), nil
	case NativeFunction:
		return v.Arity(), nil
	default:
		return 0, errUncallable
	}
}

// KindOf names the runtime kind of a value.
func KindOf(v Value) string {
	switch v.(type) {
	case Nil:
		return "nil"
	case Bool:
		return "boolean"
	case Number:
		return "number"
	case String:
		return "string"
	case *Function:
		return "function"
	case *Class:
		return "class"
	case *Instance:
		return "instance"
	case NativeFunction:
		return "builtin function"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Stringify renders a value the way print does.
func Stringify(v Value) string {
	if v == nil {
		return Nil{}.String()
	}
	return v.String()
}
