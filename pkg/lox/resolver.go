package lox

import (
	"fmt"
)

// Resolution maps each resolved variable occurrence to the number of scopes
// between its use and its definition. Occurrences that are not present are
// globals and are looked up dynamically.
type Resolution map[TokenID]int

// Merge copies every entry of other into r.
func (r Resolution) Merge(other Resolution) {
	for id, depth := range other {
		r[id] = depth
	}
}

type functionKind int

const (
	fnNone functionKind = iota
	fnFunction
	fnInitializer
	fnMethod
)

type classKind int

const (
	classNone classKind = iota
	classClass
	classSubclass
)

// Resolver computes binding distances for a program and reports static
// scoping errors.
type Resolver struct {
	// scopes[0] holds the built-in names; declarations made while it is the
	// only scope are globals and are not tracked.
	scopes []map[string]bool
	locals Resolution

	// globals declared at top level so far
	globals map[string]bool

	currentFunction functionKind
	currentClass    classKind
}

// NewResolver creates a resolver whose outermost scope lists the given
// built-in names.
func NewResolver(builtins []string) *Resolver {
	base := make(map[string]bool, len(builtins))
	for _, name := range builtins {
		base[name] = true
	}
	return &Resolver{
		scopes:  []map[string]bool{base},
		locals:  Resolution{},
		globals: map[string]bool{},
	}
}

// DeclareGlobals records globals defined by earlier programs, such as a
// prelude or previous REPL input.
func (r *Resolver) DeclareGlobals(names ...string) {
	for _, name := range names {
		r.globals[name] = true
	}
}

// Resolve resolves a program. A statement with an error is abandoned and
// resolution carries on with the next top-level statement, so one pass can
// report several errors.
func Resolve(stmts []Stmt, builtins []string) (Resolution, error) {
	return NewResolver(builtins).Resolve(stmts)
}

func (r *Resolver) Resolve(stmts []Stmt) (Resolution, error) {
	var errs ErrorList
	for _, stmt := range stmts {
		if err := r.stmt(stmt); err != nil {
			errs = append(errs, err)
			r.scopes = r.scopes[:1]
			r.currentFunction = fnNone
			r.currentClass = classNone
		}
	}
	return r.locals, errs.Err()
}

func (r *Resolver) stmts(stmts []Stmt) error {
	for _, stmt := range stmts {
		if err := r.stmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) stmt(stmt Stmt) error {
	switch s := stmt.(type) {
	case *BlockStmt:
		r.beginScope()
		defer r.endScope()
		return r.stmts(s.Statements)

	case *VarStmt:
		if err := r.declare(s.Name); err != nil {
			return err
		}
		if s.Initializer != nil {
			if err := r.expr(s.Initializer); err != nil {
				return err
			}
		}
		r.define(s.Name)
		return nil

	case *FunctionStmt:
		if err := r.declare(s.Name); err != nil {
			return err
		}
		// defined eagerly so the function can refer to itself
		r.define(s.Name)
		return r.function(s, fnFunction)

	case *ClassStmt:
		return r.class(s)

	case *ExpressionStmt:
		return r.expr(s.Expression)

	case *PrintStmt:
		return r.expr(s.Expression)

	case *IfStmt:
		if err := r.expr(s.Condition); err != nil {
			return err
		}
		if err := r.stmt(s.ThenBranch); err != nil {
			return err
		}
		if s.ElseBranch != nil {
			return r.stmt(s.ElseBranch)
		}
		return nil

	case *WhileStmt:
		if err := r.expr(s.Condition); err != nil {
			return err
		}
		return r.stmt(s.Body)

	case *ReturnStmt:
		if r.currentFunction == fnNone {
			return &ResolveError{Token: s.Keyword, Message: "Can't return from top-level code."}
		}
		if s.Value != nil {
			if r.currentFunction == fnInitializer {
				return &ResolveError{Token: s.Keyword, Message: "Can't return a value from an initializer."}
			}
			return r.expr(s.Value)
		}
		return nil

	default:
		return fmt.Errorf("resolve: unhandled statement %T", stmt)
	}
}

func (r *Resolver) class(s *ClassStmt) error {
	enclosingClass := r.currentClass
	r.currentClass = classClass
	defer func() { r.currentClass = enclosingClass }()

	if err := r.declare(s.Name); err != nil {
		return err
	}
	r.define(s.Name)

	if s.Superclass != nil {
		if s.Superclass.Name.Lexeme == s.Name.Lexeme {
			return &ResolveError{Token: s.Superclass.Name, Message: "A class can't inherit from itself."}
		}
		r.currentClass = classSubclass
		if err := r.expr(s.Superclass); err != nil {
			return err
		}

		r.beginScope()
		defer r.endScope()
		r.scope()["super"] = true
	}

	r.beginScope()
	defer r.endScope()
	r.scope()["this"] = true

	for _, method := range s.Methods {
		kind := fnMethod
		if method.Name.Lexeme == "init" {
			kind = fnInitializer
		}
		if err := r.function(method, kind); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) function(fn *FunctionStmt, kind functionKind) error {
	enclosing := r.currentFunction
	r.currentFunction = kind
	defer func() { r.currentFunction = enclosing }()

	r.beginScope()
	defer r.endScope()

	for _, param := range fn.Params {
		if err := r.declare(param); err != nil {
			return err
		}
		r.define(param)
	}
	return r.stmts(fn.Body)
}

func (r *Resolver) expr(expr Expr) error {
	switch e := expr.(type) {
	case *VariableExpr:
		if len(r.scopes) > 1 {
			if defined, ok := r.scope()[e.Name.Lexeme]; ok && !defined {
				return r.resolveEnclosing(e.Name)
			}
		}
		r.resolveLocal(e.Name)
		return nil

	case *AssignExpr:
		if err := r.expr(e.Value); err != nil {
			return err
		}
		r.resolveLocal(e.Name)
		return nil

	case *BinaryExpr:
		if err := r.expr(e.Left); err != nil {
			return err
		}
		return r.expr(e.Right)

	case *LogicalExpr:
		if err := r.expr(e.Left); err != nil {
			return err
		}
		return r.expr(e.Right)

	case *UnaryExpr:
		return r.expr(e.Right)

	case *CallExpr:
		if err := r.expr(e.Callee); err != nil {
			return err
		}
		for _, arg := range e.Args {
			if err := r.expr(arg); err != nil {
				return err
			}
		}
		return nil

	case *GetExpr:
		return r.expr(e.Object)

	case *SetExpr:
		if err := r.expr(e.Value); err != nil {
			return err
		}
		return r.expr(e.Object)

	case *ThisExpr:
		if r.currentClass == classNone {
			return &ResolveError{Token: e.Keyword, Message: "Can't use 'this' outside of a class."}
		}
		r.resolveLocal(e.Keyword)
		return nil

	case *SuperExpr:
		switch r.currentClass {
		case classNone:
			return &ResolveError{Token: e.Keyword, Message: "Can't use 'super' outside of a class."}
		case classClass:
			return &ResolveError{Token: e.Keyword, Message: "Can't use 'super' in a class with no superclass."}
		}
		r.resolveLocal(e.Keyword)
		return nil

	case *GroupingExpr:
		return r.expr(e.Expression)

	case *LiteralExpr:
		return nil

	default:
		return fmt.Errorf("resolve: unhandled expression %T", expr)
	}
}

func (r *Resolver) beginScope() {
	r.scopes = append(r.scopes, map[string]bool{})
}

func (r *Resolver) endScope() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

func (r *Resolver) scope() map[string]bool {
	return r.scopes[len(r.scopes)-1]
}

// declare marks name as declared but not yet initialized in the innermost
// scope. Globals are only recorded by name.
func (r *Resolver) declare(name Token) error {
	if len(r.scopes) == 1 {
		r.globals[name.Lexeme] = true
		return nil
	}
	scope := r.scope()
	if _, ok := scope[name.Lexeme]; ok {
		return &ResolveError{Token: name, Message: "Already a variable with this name in this scope."}
	}
	scope[name.Lexeme] = false
	return nil
}

func (r *Resolver) define(name Token) {
	if len(r.scopes) == 1 {
		return
	}
	r.scope()[name.Lexeme] = true
}

func (r *Resolver) resolveLocal(name Token) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if _, ok := r.scopes[i][name.Lexeme]; ok {
			r.locals[name.ID] = len(r.scopes) - 1 - i
			return
		}
	}
}

// resolveEnclosing resolves a read of a variable inside its own initializer.
// The new binding isn't visible yet, so the read refers to whatever the name
// meant in the enclosing scopes; with no such binding it's an error.
func (r *Resolver) resolveEnclosing(name Token) error {
	for i := len(r.scopes) - 2; i >= 0; i-- {
		if _, ok := r.scopes[i][name.Lexeme]; ok {
			r.locals[name.ID] = len(r.scopes) - 1 - i
			return nil
		}
	}
	if r.globals[name.Lexeme] {
		return nil
	}
	return &ResolveError{Token: name, Message: "Can't read local variable in its own initializer."}
}
