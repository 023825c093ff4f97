package lox

// Expr is an expression node. The set of implementations is closed; the
// evaluator and resolver switch over all of them.
type Expr interface {
	exprNode()
}

// Stmt is a statement node. The set of implementations is closed.
type Stmt interface {
	stmtNode()
}

type LiteralExpr struct {
	Value Value
}

type VariableExpr struct {
	Name Token
}

type AssignExpr struct {
	Name  Token
	Value Expr
}

type BinaryExpr struct {
	Left     Expr
	Operator Token
	Right    Expr
}

// LogicalExpr is a short-circuiting `and` / `or`.
type LogicalExpr struct {
	Left     Expr
	Operator Token
	Right    Expr
}

type UnaryExpr struct {
	Operator Token
	Right    Expr
}

type CallExpr struct {
	Callee Expr
	// Paren is the closing parenthesis, kept for error reporting.
	Paren Token
	Args  []Expr
}

type GetExpr struct {
	Object Expr
	Name   Token
}

type SetExpr struct {
	Object Expr
	Name   Token
	Value  Expr
}

type ThisExpr struct {
	Keyword Token
}

type SuperExpr struct {
	Keyword Token
	Method  Token
}

type GroupingExpr struct {
	Expression Expr
}

func (*LiteralExpr) exprNode()  {}
func (*VariableExpr) exprNode() {}
func (*AssignExpr) exprNode()   {}
func (*BinaryExpr) exprNode()   {}
func (*LogicalExpr) exprNode()  {}
func (*UnaryExpr) exprNode()    {}
func (*CallExpr) exprNode()     {}
func (*GetExpr) exprNode()      {}
func (*SetExpr) exprNode()      {}
func (*ThisExpr) exprNode()     {}
func (*SuperExpr) exprNode()    {}
func (*GroupingExpr) exprNode() {}

type ExpressionStmt struct {
	Expression Expr
}

type PrintStmt struct {
	Expression Expr
}

type VarStmt struct {
	Name Token
	// Initializer is nil for `var x;`.
	Initializer Expr
}

type BlockStmt struct {
	Statements []Stmt
}

type IfStmt struct {
	Condition  Expr
	ThenBranch Stmt
	// ElseBranch is nil when there is no else clause.
	ElseBranch Stmt
}

type WhileStmt struct {
	Condition Expr
	Body      Stmt
}

type FunctionStmt struct {
	Name   Token
	Params []Token
	Body   []Stmt
}

type ClassStmt struct {
	Name       Token
	Superclass *VariableExpr
	Methods    []*FunctionStmt
}

type ReturnStmt struct {
	Keyword Token
	// Value is nil for a bare `return;`.
	Value Expr
}

func (*ExpressionStmt) stmtNode() {}
func (*PrintStmt) stmtNode()      {}
func (*VarStmt) stmtNode()        {}
func (*BlockStmt) stmtNode()      {}
func (*IfStmt) stmtNode()         {}
func (*WhileStmt) stmtNode()      {}
func (*FunctionStmt) stmtNode()   {}
func (*ClassStmt) stmtNode()      {}
func (*ReturnStmt) stmtNode()     {}
