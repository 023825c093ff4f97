package lox

import (
	"fmt"
	"strings"
)

// Sprint renders an expression or statement as a parenthesized prefix form,
// e.g. (+ 1 (* 2 3)).
func Sprint(node any) string {
	var p printer
	switch n := node.(type) {
	case Expr:
		p.expr(n)
	case Stmt:
		p.stmt(n)
	case []Stmt:
		for i, s := range n {
			if i > 0 {
				p.WriteString("\n")
			}
			p.stmt(s)
		}
	default:
		fmt.Fprintf(&p, "<%T>", node)
	}
	return p.String()
}

type printer struct {
	strings.Builder
}

func (p *printer) parens(name string, parts ...any) {
	p.WriteString("(")
	p.WriteString(name)
	for _, part := range parts {
		p.WriteString(" ")
		switch v := part.(type) {
		case Expr:
			p.expr(v)
		case Stmt:
			p.stmt(v)
		case []Stmt:
			p.WriteString("(")
			for i, s := range v {
				if i > 0 {
					p.WriteString(" ")
				}
				p.stmt(s)
			}
			p.WriteString(")")
		case Token:
			p.WriteString(v.Lexeme)
		case string:
			p.WriteString(v)
		}
	}
	p.WriteString(")")
}

func (p *printer) expr(expr Expr) {
	switch e := expr.(type) {
	case *LiteralExpr:
		if s, ok := e.Value.(String); ok {
			fmt.Fprintf(p, "%q", string(s))
		} else {
			p.WriteString(Stringify(e.Value))
		}
	case *VariableExpr:
		p.WriteString(e.Name.Lexeme)
	case *AssignExpr:
		p.parens("=", e.Name, e.Value)
	case *BinaryExpr:
		p.parens(e.Operator.Lexeme, e.Left, e.Right)
	case *LogicalExpr:
		p.parens(e.Operator.Lexeme, e.Left, e.Right)
	case *UnaryExpr:
		p.parens(e.Operator.Lexeme, e.Right)
	case *GroupingExpr:
		p.parens("group", e.Expression)
	case *CallExpr:
		parts := []any{e.Callee}
		for _, arg := range e.Args {
			parts = append(parts, arg)
		}
		p.parens("call", parts...)
	case *GetExpr:
		p.parens(".", e.Object, e.Name)
	case *SetExpr:
		p.parens("=", &GetExpr{Object: e.Object, Name: e.Name}, e.Value)
	case *ThisExpr:
		p.WriteString("this")
	case *SuperExpr:
		p.parens("super", e.Method)
	default:
		fmt.Fprintf(p, "<%T>", expr)
	}
}

func (p *printer) stmt(stmt Stmt) {
	switch s := stmt.(type) {
	case *ExpressionStmt:
		p.parens(";", s.Expression)
	case *PrintStmt:
		p.parens("print", s.Expression)
	case *VarStmt:
		if s.Initializer == nil {
			p.parens("var", s.Name)
		} else {
			p.parens("var", s.Name, "=", s.Initializer)
		}
	case *BlockStmt:
		p.parens("block", s.Statements)
	case *IfStmt:
		if s.ElseBranch == nil {
			p.parens("if", s.Condition, s.ThenBranch)
		} else {
			p.parens("if-else", s.Condition, s.ThenBranch, s.ElseBranch)
		}
	case *WhileStmt:
		p.parens("while", s.Condition, s.Body)
	case *FunctionStmt:
		params := make([]string, len(s.Params))
		for i, param := range s.Params {
			params[i] = param.Lexeme
		}
		p.parens("fun", s.Name, "("+strings.Join(params, " ")+")", s.Body)
	case *ClassStmt:
		parts := []any{s.Name}
		if s.Superclass != nil {
			parts = append(parts, "<", s.Superclass.Name)
		}
		for _, m := range s.Methods {
			parts = append(parts, Stmt(m))
		}
		p.parens("class", parts...)
	case *ReturnStmt:
		if s.Value == nil {
			p.WriteString("(return)")
		} else {
			p.parens("return", s.Value)
		}
	default:
		fmt.Fprintf(p, "<%T>", stmt)
	}
}
