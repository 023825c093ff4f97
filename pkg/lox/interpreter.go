package lox

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vito/lox/pkg/ioctx"
)

// Interpreter executes resolved programs against a persistent global scope.
// It is not safe for concurrent use; run separate interpreters instead.
type Interpreter struct {
	globals *Environment
	locals  Resolution
}

// NewInterpreter creates an interpreter whose globals are seeded with
// builtins. The same table must be given to the resolver.
func NewInterpreter(builtins Builtins) *Interpreter {
	globals := NewEnvironment(nil)
	for _, b := range builtins {
		globals.Define(b.Name, b.Value)
	}
	return &Interpreter{
		globals: globals,
		locals:  Resolution{},
	}
}

// Globals returns the global scope.
func (in *Interpreter) Globals() *Environment {
	return in.globals
}

// Interpret runs a resolved program. Print output goes to the stdout writer
// in ctx. The first runtime error stops the run; globals defined before it
// stay defined.
func (in *Interpreter) Interpret(ctx context.Context, stmts []Stmt, locals Resolution) error {
	in.locals.Merge(locals)
	for _, stmt := range stmts {
		res, err := in.execute(ctx, in.globals, stmt)
		if err != nil {
			return err
		}
		if res.returning {
			// the resolver rejects top-level returns
			panic(fmt.Sprintf("return escaped to top level: %s", Stringify(res.value)))
		}
	}
	return nil
}

// completion is the outcome of executing a statement: either it finished
// normally or a return statement is unwinding to the nearest call.
type completion struct {
	returning bool
	value     Value
}

var normal = completion{}

func (in *Interpreter) execute(ctx context.Context, env *Environment, stmt Stmt) (completion, error) {
	switch s := stmt.(type) {
	case *ExpressionStmt:
		_, err := in.evaluate(ctx, env, s.Expression)
		return normal, err

	case *PrintStmt:
		v, err := in.evaluate(ctx, env, s.Expression)
		if err != nil {
			return normal, err
		}
		if _, err := fmt.Fprintln(ioctx.StdoutFromContext(ctx), Stringify(v)); err != nil {
			return normal, fmt.Errorf("print: %w", err)
		}
		return normal, nil

	case *VarStmt:
		var v Value = Nil{}
		if s.Initializer != nil {
			var err error
			v, err = in.evaluate(ctx, env, s.Initializer)
			if err != nil {
				return normal, err
			}
		}
		env.Define(s.Name.Lexeme, v)
		return normal, nil

	case *BlockStmt:
		return in.executeBlock(ctx, NewEnvironment(env), s.Statements)

	case *IfStmt:
		cond, err := in.evaluate(ctx, env, s.Condition)
		if err != nil {
			return normal, err
		}
		if IsTruthy(cond) {
			return in.execute(ctx, env, s.ThenBranch)
		}
		if s.ElseBranch != nil {
			return in.execute(ctx, env, s.ElseBranch)
		}
		return normal, nil

	case *WhileStmt:
		for {
			cond, err := in.evaluate(ctx, env, s.Condition)
			if err != nil {
				return normal, err
			}
			if !IsTruthy(cond) {
				return normal, nil
			}
			res, err := in.execute(ctx, env, s.Body)
			if err != nil || res.returning {
				return res, err
			}
		}

	case *FunctionStmt:
		env.Define(s.Name.Lexeme, &Function{
			Declaration: s,
			Closure:     env,
		})
		return normal, nil

	case *ClassStmt:
		return normal, in.executeClass(ctx, env, s)

	case *ReturnStmt:
		var v Value = Nil{}
		if s.Value != nil {
			var err error
			v, err = in.evaluate(ctx, env, s.Value)
			if err != nil {
				return normal, err
			}
		}
		return completion{returning: true, value: v}, nil

	default:
		return normal, fmt.Errorf("execute: unhandled statement %T", stmt)
	}
}

func (in *Interpreter) executeBlock(ctx context.Context, env *Environment, stmts []Stmt) (completion, error) {
	for _, stmt := range stmts {
		res, err := in.execute(ctx, env, stmt)
		if err != nil || res.returning {
			return res, err
		}
	}
	return normal, nil
}

func (in *Interpreter) executeClass(ctx context.Context, env *Environment, s *ClassStmt) error {
	var superclass *Class
	if s.Superclass != nil {
		v, err := in.evaluate(ctx, env, s.Superclass)
		if err != nil {
			return err
		}
		class, ok := v.(*Class)
		if !ok {
			return NewRuntimeError(s.Superclass.Name, "Superclass must be a class.")
		}
		superclass = class
	}

	// bound first so methods can refer to the class by name
	env.Define(s.Name.Lexeme, Nil{})

	methodEnv := env
	if superclass != nil {
		methodEnv = NewEnvironment(env)
		methodEnv.Define("super", superclass)
	}

	methods := make(map[string]*Function, len(s.Methods))
	for _, m := range s.Methods {
		methods[m.Name.Lexeme] = &Function{
			Declaration:   m,
			Closure:       methodEnv,
			IsInitializer: m.Name.Lexeme == "init",
		}
	}

	env.Assign(s.Name.Lexeme, &Class{
		Name:       s.Name.Lexeme,
		Superclass: superclass,
		Methods:    methods,
	})

	slog.Debug("defined class", "name", s.Name.Lexeme, "methods", len(methods), "line", s.Name.Line)
	return nil
}

func (in *Interpreter) evaluate(ctx context.Context, env *Environment, expr Expr) (Value, error) {
	switch e := expr.(type) {
	case *LiteralExpr:
		return e.Value, nil

	case *GroupingExpr:
		return in.evaluate(ctx, env, e.Expression)

	case *VariableExpr:
		return in.lookUpVariable(env, e.Name)

	case *ThisExpr:
		return in.lookUpVariable(env, e.Keyword)

	case *AssignExpr:
		v, err := in.evaluate(ctx, env, e.Value)
		if err != nil {
			return nil, err
		}
		if distance, ok := in.locals[e.Name.ID]; ok {
			env.AssignAt(distance, e.Name.Lexeme, v)
			return v, nil
		}
		if !in.globals.Assign(e.Name.Lexeme, v) {
			return nil, NewRuntimeError(e.Name, "Variable '%s' is not defined.", e.Name.Lexeme)
		}
		return v, nil

	case *UnaryExpr:
		right, err := in.evaluate(ctx, env, e.Right)
		if err != nil {
			return nil, err
		}
		switch e.Operator.Type {
		case Minus:
			n, ok := right.(Number)
			if !ok {
				return nil, NewRuntimeError(e.Operator, "Operand must be a number.")
			}
			return -n, nil
		case Bang:
			return Bool(!IsTruthy(right)), nil
		}
		return nil, NewRuntimeError(e.Operator, "Unknown unary operator '%s'.", e.Operator.Lexeme)

	case *BinaryExpr:
		left, err := in.evaluate(ctx, env, e.Left)
		if err != nil {
			return nil, err
		}
		right, err := in.evaluate(ctx, env, e.Right)
		if err != nil {
			return nil, err
		}
		return binary(e.Operator, left, right)

	case *LogicalExpr:
		left, err := in.evaluate(ctx, env, e.Left)
		if err != nil {
			return nil, err
		}
		if e.Operator.Type == Or {
			if IsTruthy(left) {
				return left, nil
			}
		} else if !IsTruthy(left) {
			return left, nil
		}
		return in.evaluate(ctx, env, e.Right)

	case *CallExpr:
		return in.evaluateCall(ctx, env, e)

	case *GetExpr:
		obj, err := in.evaluate(ctx, env, e.Object)
		if err != nil {
			return nil, err
		}
		inst, ok := obj.(*Instance)
		if !ok {
			return nil, NewRuntimeError(e.Name, "Only instances have properties.")
		}
		v, found := inst.Get(e.Name.Lexeme)
		if !found {
			return nil, NewRuntimeError(e.Name, "Undefined property '%s'.", e.Name.Lexeme)
		}
		return v, nil

	case *SetExpr:
		obj, err := in.evaluate(ctx, env, e.Object)
		if err != nil {
			return nil, err
		}
		inst, ok := obj.(*Instance)
		if !ok {
			return nil, NewRuntimeError(e.Name, "Only instances have properties.")
		}
		v, err := in.evaluate(ctx, env, e.Value)
		if err != nil {
			return nil, err
		}
		inst.Set(e.Name.Lexeme, v)
		return v, nil

	case *SuperExpr:
		return in.evaluateSuper(env, e)

	default:
		return nil, fmt.Errorf("evaluate: unhandled expression %T", expr)
	}
}

// lookUpVariable reads a resolved local at its distance, or falls back to a
// dynamic global lookup.
func (in *Interpreter) lookUpVariable(env *Environment, name Token) (Value, error) {
	if distance, ok := in.locals[name.ID]; ok {
		return env.GetAt(distance, name.Lexeme), nil
	}
	if v, ok := in.globals.Get(name.Lexeme); ok {
		return v, nil
	}
	return nil, NewRuntimeError(name, "Variable '%s' is not defined.", name.Lexeme)
}

func (in *Interpreter) evaluateSuper(env *Environment, e *SuperExpr) (Value, error) {
	distance, ok := in.locals[e.Keyword.ID]
	if !ok {
		return nil, NewRuntimeError(e.Keyword, "Can't use 'super' outside of a class.")
	}
	superclass := env.GetAt(distance, "super").(*Class)
	// the `this` scope sits directly inside the `super` scope
	this := env.GetAt(distance-1, "this").(*Instance)

	method, found := superclass.FindMethod(e.Method.Lexeme)
	if !found {
		return nil, NewRuntimeError(e.Method, "Undefined property '%s'.", e.Method.Lexeme)
	}
	return method.Bind(this), nil
}

func binary(op Token, left, right Value) (Value, error) {
	switch op.Type {
	case EqualEqual, BangEqual:
		eq, err := ValuesEqual(left, right)
		if err != nil {
			return nil, NewRuntimeError(op, "Can only compare booleans, strings, and numbers for equality.")
		}
		if op.Type == BangEqual {
			return Bool(!eq), nil
		}
		return Bool(eq), nil

	case Plus:
		switch l := left.(type) {
		case Number:
			if r, ok := right.(Number); ok {
				return l + r, nil
			}
		case String:
			if r, ok := right.(String); ok {
				return l + r, nil
			}
		}
		return nil, NewRuntimeError(op, "Operands must be two numbers or two strings.")
	}

	l, lok := left.(Number)
	r, rok := right.(Number)
	if !lok || !rok {
		return nil, NewRuntimeError(op, "Operands must be numbers.")
	}

	switch op.Type {
	case Minus:
		return l - r, nil
	case Slash:
		return l / r, nil
	case Star:
		return l * r, nil
	case Greater:
		return Bool(l > r), nil
	case GreaterEqual:
		return Bool(l >= r), nil
	case Less:
		return Bool(l < r), nil
	case LessEqual:
		return Bool(l <= r), nil
	}
	return nil, NewRuntimeError(op, "Unknown binary operator '%s'.", op.Lexeme)
}
