package lox

import (
	"fmt"
	"sync/atomic"
)

// TokenType identifies the lexical class of a Token.
type TokenType int

const (
	// Single-character tokens.
	LeftParen TokenType = iota
	RightParen
	LeftBrace
	RightBrace
	Comma
	Dot
	Minus
	Plus
	Semicolon
	Slash
	Star

	// One or two character tokens.
	Bang
	BangEqual
	Equal
	EqualEqual
	Greater
	GreaterEqual
	Less
	LessEqual

	// Literals.
	Identifier
	StringLit
	NumberLit

	// Keywords.
	And
	ClassKw
	Else
	False
	For
	Fun
	If
	NilKw
	Or
	Print
	Return
	SuperKw
	ThisKw
	True
	Var
	While

	EOF
)

var tokenTypeNames = [...]string{
	LeftParen:    "LEFT_PAREN",
	RightParen:   "RIGHT_PAREN",
	LeftBrace:    "LEFT_BRACE",
	RightBrace:   "RIGHT_BRACE",
	Comma:        "COMMA",
	Dot:          "DOT",
	Minus:        "MINUS",
	Plus:         "PLUS",
	Semicolon:    "SEMICOLON",
	Slash:        "SLASH",
	Star:         "STAR",
	Bang:         "BANG",
	BangEqual:    "BANG_EQUAL",
	Equal:        "EQUAL",
	EqualEqual:   "EQUAL_EQUAL",
	Greater:      "GREATER",
	GreaterEqual: "GREATER_EQUAL",
	Less:         "LESS",
	LessEqual:    "LESS_EQUAL",
	Identifier:   "IDENTIFIER",
	StringLit:    "STRING",
	NumberLit:    "NUMBER",
	And:          "AND",
	ClassKw:      "CLASS",
	Else:         "ELSE",
	False:        "FALSE",
	For:          "FOR",
	Fun:          "FUN",
	If:           "IF",
	NilKw:        "NIL",
	Or:           "OR",
	Print:        "PRINT",
	Return:       "RETURN",
	SuperKw:      "SUPER",
	ThisKw:       "THIS",
	True:         "TRUE",
	Var:          "VAR",
	While:        "WHILE",
	EOF:          "EOF",
}

func (t TokenType) String() string {
	if int(t) < 0 || int(t) >= len(tokenTypeNames) {
		return fmt.Sprintf("TokenType(%d)", int(t))
	}
	return tokenTypeNames[t]
}

var keywords = map[string]TokenType{
	"and":    And,
	"class":  ClassKw,
	"else":   Else,
	"false":  False,
	"for":    For,
	"fun":    Fun,
	"if":     If,
	"nil":    NilKw,
	"or":     Or,
	"print":  Print,
	"return": Return,
	"super":  SuperKw,
	"this":   ThisKw,
	"true":   True,
	"var":    Var,
	"while":  While,
}

// TokenID is the identity of a single token occurrence. Two tokens with the
// same lexeme are still distinct keys in a Resolution.
type TokenID uint64

var lastTokenID atomic.Uint64

func nextTokenID() TokenID {
	return TokenID(lastTokenID.Add(1))
}

// Token is an immutable lexeme produced by the Scanner.
type Token struct {
	Type    TokenType
	Lexeme  string
	Literal Value // Number or String for literal tokens, nil otherwise
	Line    int
	Column  int
	ID      TokenID
}

// NewToken creates a token with a fresh identity.
func NewToken(typ TokenType, lexeme string, literal Value, line, column int) Token {
	return Token{
		Type:    typ,
		Lexeme:  lexeme,
		Literal: literal,
		Line:    line,
		Column:  column,
		ID:      nextTokenID(),
	}
}

// Synthetic returns an identifier token that did not come from source text,
// e.g. for desugared code or tests.
func Synthetic(name string, line int) Token {
	return NewToken(Identifier, name, nil, line, 0)
}

func (t Token) String() string {
	if t.Literal != nil {
		return fmt.Sprintf("%s %s %s", t.Type, t.Lexeme, t.Literal)
	}
	return fmt.Sprintf("%s %s", t.Type, t.Lexeme)
}

func (t Token) GetSourceLocation() *SourceLocation {
	return &SourceLocation{
		Line:   t.Line,
		Column: t.Column,
		Length: len(t.Lexeme),
	}
}
