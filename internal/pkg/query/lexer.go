package query

import (
	"fmt"
	"strings"
	"unicode"
)

// TokenType represents the type of a lexical token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIdent
	TokenString
	TokenColon
	TokenLParen
	TokenRParen
	TokenAnd
	TokenOr
	TokenNot
	TokenNeq // !=
	TokenGt  // >
	TokenGte // >=
	TokenLt  // <
	TokenLte // <=
	TokenIllegal
)

// Token represents a lexical token.
type Token struct {
	Type  TokenType
	Value string
}

func (t Token) String() string {
	if t.Type == TokenEOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", t.Value)
}

// Lexer tokenizes query input.
type Lexer struct {
	input string
	pos   int
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF}
	}

	ch := l.input[l.pos]
	switch ch {
	case ':':
		l.pos++
		return Token{Type: TokenColon, Value: ":"}
	case '(':
		l.pos++
		return Token{Type: TokenLParen, Value: "("}
	case ')':
		l.pos++
		return Token{Type: TokenRParen, Value: ")"}
	case '!':
		if l.peek() == '=' {
			l.pos += 2
			return Token{Type: TokenNeq, Value: "!="}
		}
		l.pos++
		return Token{Type: TokenIllegal, Value: "!"}
	case '>':
		if l.peek() == '=' {
			l.pos += 2
			return Token{Type: TokenGte, Value: ">="}
		}
		l.pos++
		return Token{Type: TokenGt, Value: ">"}
	case '<':
		if l.peek() == '=' {
			l.pos += 2
			return Token{Type: TokenLte, Value: "<="}
		}
		l.pos++
		return Token{Type: TokenLt, Value: "<"}
	case '"':
		return l.readString()
	}

	if isIdentChar(ch) {
		return l.readIdent()
	}

	l.pos++
	return Token{Type: TokenIllegal, Value: string(ch)}
}

func (l *Lexer) peek() byte {
	if l.pos+1 < len(l.input) {
		return l.input[l.pos+1]
	}
	return 0
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) && unicode.IsSpace(rune(l.input[l.pos])) {
		l.pos++
	}
}

// readString reads a double-quoted string; \" and \\ are unescaped.
// An unterminated string yields TokenIllegal.
func (l *Lexer) readString() Token {
	l.pos++
	var b strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		switch {
		case ch == '\\' && l.pos+1 < len(l.input):
			b.WriteByte(l.input[l.pos+1])
			l.pos += 2
		case ch == '"':
			l.pos++
			return Token{Type: TokenString, Value: b.String()}
		default:
			b.WriteByte(ch)
			l.pos++
		}
	}
	return Token{Type: TokenIllegal, Value: "unterminated string"}
}

func (l *Lexer) readIdent() Token {
	start := l.pos
	for l.pos < len(l.input) && isIdentChar(l.input[l.pos]) {
		l.pos++
	}
	value := l.input[start:l.pos]

	switch upper := strings.ToUpper(value); upper {
	case "AND":
		return Token{Type: TokenAnd, Value: upper}
	case "OR":
		return Token{Type: TokenOr, Value: upper}
	case "NOT":
		return Token{Type: TokenNot, Value: upper}
	}
	return Token{Type: TokenIdent, Value: value}
}

// isIdentChar accepts the characters of field names, numbers and simple
// paths such as src/logs/mod.rs.
func isIdentChar(ch byte) bool {
	r := rune(ch)
	return unicode.IsLetter(r) || unicode.IsDigit(r) ||
		ch == '_' || ch == '-' || ch == '.' || ch == '/' || ch >= 0x80
}
