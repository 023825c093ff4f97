package lox

import (
	"context"
	"errors"
	"fmt"
)

func (in *Interpreter) evaluateCall(ctx context.Context, env *Environment, e *CallExpr) (Value, error) {
	callee, err := in.evaluate(ctx, env, e.Callee)
	if err != nil {
		return nil, err
	}

	args := make([]Value, 0, len(e.Args))
	for _, arg := range e.Args {
		v, err := in.evaluate(ctx, env, arg)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	arity, err := Arity(callee)
	if err != nil {
		if errors.Is(err, errUncallable) {
			return nil, NewRuntimeError(e.Paren, "Can only call functions and classes.")
		}
		return nil, err
	}
	if len(args) != arity {
		return nil, NewRuntimeError(e.Paren, "Expected %d arguments but got %d.", arity, len(args))
	}

	v, err := in.Call(ctx, callee, args)
	if err != nil {
		if errors.Is(err, errUncallable) {
			return nil, NewRuntimeError(e.Paren, "Can only call functions and classes.")
		}
		var runtimeErr *RuntimeError
		if !errors.As(err, &runtimeErr) {
			// native failures are reported at the call site
			return nil, &RuntimeError{Token: e.Paren, Message: err.Error(), Err: err}
		}
		return nil, err
	}
	return v, nil
}

// Call invokes a function, class or native function. The caller is
// responsible for checking the argument count against Arity.
func (in *Interpreter) Call(ctx context.Context, callee Value, args []Value) (Value, error) {
	switch fn := callee.(type) {
	case *Function:
		return in.callFunction(ctx, fn, args)

	case *Class:
		inst := NewInstance(fn)
		if init, ok := fn.FindMethod("init"); ok {
			if _, err := in.callFunction(ctx, init.Bind(inst), args); err != nil {
				return nil, err
			}
		}
		return inst, nil

	case NativeFunction:
		v, err := fn.Invoke(ctx, args)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fn.Name(), err)
		}
		return v, nil

	default:
		return nil, errUncallable
	}
}

// callFunction runs the body in a fresh scope whose parent is the closure.
// This is the only place a return completion is consumed.
func (in *Interpreter) callFunction(ctx context.Context, fn *Function, args []Value) (Value, error) {
	env := NewEnvironment(fn.Closure)
	for i, param := range fn.Declaration.Params {
		env.Define(param.Lexeme, args[i])
	}

	res, err := in.executeBlock(ctx, env, fn.Declaration.Body)
	if err != nil {
		return nil, err
	}

	if fn.IsInitializer {
		return fn.Closure.GetAt(0, "this"), nil
	}
	if res.returning {
		return res.value, nil
	}
	return Nil{}, nil
}
