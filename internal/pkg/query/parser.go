package query

import (
	"errors"
	"fmt"
)

var ErrSyntax = errors.New("query syntax error")

// Parser parses query strings into an AST.
type Parser struct {
	lexer   *Lexer
	current Token
}

// Parse parses input and returns the AST root. An empty (or all-blank)
// input returns a nil Node, which matches everything.
func Parse(input string) (Node, error) {
	p := &Parser{lexer: NewLexer(input)}
	p.advance()
	if p.current.Type == TokenEOF {
		return nil, nil
	}

	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.current.Type != TokenEOF {
		return nil, p.errorf("unexpected %v", p.current)
	}
	return node, nil
}

func (p *Parser) advance() {
	p.current = p.lexer.NextToken()
}

func (p *Parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSyntax, fmt.Sprintf(format, args...))
}

// parseOr handles OR, the lowest precedence.
func (p *Parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.current.Type == TokenOr {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: "OR", Left: left, Right: right}
	}
	return left, nil
}

// parseAnd handles AND. Adjacent terms without an operator are joined with
// an implicit AND.
func (p *Parser) parseAnd() (Node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}

	for {
		switch p.current.Type {
		case TokenAnd:
			p.advance()
		case TokenIdent, TokenString, TokenNot, TokenLParen:
		default:
			return left, nil
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: "AND", Left: left, Right: right}
	}
}

func (p *Parser) parseNot() (Node, error) {
	if p.current.Type == TokenNot {
		p.advance()
		expr, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return NotExpr{Expr: expr}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (Node, error) {
	switch p.current.Type {
	case TokenLParen:
		p.advance()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.current.Type != TokenRParen {
			return nil, p.errorf("expected ')' but got %v", p.current)
		}
		p.advance()
		return expr, nil

	case TokenString:
		value := p.current.Value
		p.advance()
		return MatchExpr{Value: value, Op: OpContains}, nil

	case TokenIdent:
		key := p.current.Value
		p.advance()

		var op Op
		switch p.current.Type {
		case TokenColon:
			op = OpEq
		case TokenNeq:
			op = OpNeq
		case TokenGt:
			op = OpGt
		case TokenGte:
			op = OpGte
		case TokenLt:
			op = OpLt
		case TokenLte:
			op = OpLte
		default:
			return MatchExpr{Value: key, Op: OpContains}, nil
		}
		p.advance()
		return p.parseValue(key, op)

	default:
		return nil, p.errorf("unexpected %v", p.current)
	}
}

// parseValue parses the value following key and op.
func (p *Parser) parseValue(key string, op Op) (Node, error) {
	switch p.current.Type {
	case TokenString, TokenIdent:
		value := p.current.Value
		p.advance()
		if !knownField(key) {
			return nil, p.errorf("unknown field %q", key)
		}
		if isOrdering(op) && !numericField(key) {
			return nil, p.errorf("operator %s needs a numeric field, got %q", op, key)
		}
		return MatchExpr{Key: key, Value: value, Op: op}, nil
	default:
		return nil, p.errorf("expected value after %s%s but got %v", key, op, p.current)
	}
}

func isOrdering(op Op) bool {
	return op == OpGt || op == OpGte || op == OpLt || op == OpLte
}
