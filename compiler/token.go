// Package compiler implements the expression-to-assembly compiler: a
// lexer, a precedence-aware shunting-yard engine with unary
// disambiguation, and a postfix-to-text emitter.
package compiler

import "fmt"

// TokenType classifies a lexed token.
type TokenType int

// Token kinds, per the machine's token model: a token is one of {Number,
// Register, Operator, LeftParen, RightParen}.
const (
	TokenNumber TokenType = iota
	TokenRegister
	TokenOperator
	TokenLeftParen
	TokenRightParen
	tokenEOF
)

var tokenNames = map[TokenType]string{
	TokenNumber:     "NUMBER",
	TokenRegister:   "REGISTER",
	TokenOperator:   "OPERATOR",
	TokenLeftParen:  "LPAREN",
	TokenRightParen: "RPAREN",
	tokenEOF:        "EOF",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token is one lexical unit of an infix expression.
type Token struct {
	Type TokenType
	// Lexeme is the raw text: the digit string for Number/Register (the
	// '@' prefix is not included), or the operator's symbol.
	Lexeme string
	Pos    int

	// Precedence, RightAssoc and Unary are populated for TokenOperator
	// only.
	Precedence int
	RightAssoc bool
	Unary      bool
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d", t.Type, t.Lexeme, t.Pos)
}
