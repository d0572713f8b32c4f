package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nlstn/go-odata-sql/internal/edm"
)

// ASTParser parses filter expressions into an AST
type ASTParser struct {
	tokens  []*Token
	current int
}

// NewASTParser creates a new AST parser
func NewASTParser(tokens []*Token) *ASTParser {
	return &ASTParser{
		tokens:  tokens,
		current: 0,
	}
}

// ParseExpression tokenizes and parses input in one step.
func ParseExpression(input string) (ASTNode, error) {
	tokens, err := NewTokenizer(input).TokenizeAll()
	if err != nil {
		return nil, err
	}
	return NewASTParser(tokens).Parse()
}

// currentToken returns the current token
func (p *ASTParser) currentToken() *Token {
	if p.current >= len(p.tokens) {
		return &Token{Type: TokenEOF}
	}
	return p.tokens[p.current]
}

// advance moves to the next token
func (p *ASTParser) advance() *Token {
	token := p.currentToken()
	if p.current < len(p.tokens)-1 {
		p.current++
	}
	return token
}

// expect checks if the current token matches the expected type and advances
func (p *ASTParser) expect(tokenType TokenType) error {
	token := p.currentToken()
	if token.Type != tokenType {
		return fmt.Errorf("expected %v, got %v at position %d", tokenType, token.Type, token.Pos)
	}
	p.advance()
	return nil
}

// Parse parses the tokens into an AST
func (p *ASTParser) Parse() (ASTNode, error) {
	if p.currentToken().Type == TokenEOF {
		return nil, errEmptyExpression
	}

	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	// Verify all tokens were consumed (except EOF)
	if p.currentToken().Type != TokenEOF {
		return nil, fmt.Errorf("unexpected %v after expression at position %d",
			p.currentToken().Type, p.currentToken().Pos)
	}

	return node, nil
}

// parseOr handles OR expressions (lowest precedence)
func (p *ASTParser) parseOr() (ASTNode, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.currentToken().Type == TokenLogical && p.currentToken().Value == "or" {
		op := p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{
			Left:     left,
			Operator: op.Value,
			Right:    right,
		}
	}

	return left, nil
}

// parseAnd handles AND expressions
func (p *ASTParser) parseAnd() (ASTNode, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}

	for p.currentToken().Type == TokenLogical && p.currentToken().Value == "and" {
		op := p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{
			Left:     left,
			Operator: op.Value,
			Right:    right,
		}
	}

	return left, nil
}

// parseNot handles NOT expressions
func (p *ASTParser) parseNot() (ASTNode, error) {
	if p.currentToken().Type == TokenNot {
		op := p.advance()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{
			Operator: op.Value,
			Operand:  operand,
		}, nil
	}

	return p.parseComparison()
}

// parseComparison handles comparison expressions
func (p *ASTParser) parseComparison() (ASTNode, error) {
	left, err := p.parseArithmetic()
	if err != nil {
		return nil, err
	}

	if p.currentToken().Type == TokenOperator {
		op := p.advance()
		right, err := p.parseArithmetic()
		if err != nil {
			return nil, err
		}
		return &ComparisonExpr{
			Left:     left,
			Operator: op.Value,
			Right:    right,
		}, nil
	}

	return left, nil
}

// parseArithmetic handles add and sub
func (p *ASTParser) parseArithmetic() (ASTNode, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	for p.currentToken().Type == TokenArithmetic &&
		(p.currentToken().Value == "add" || p.currentToken().Value == "sub") {
		op := p.advance()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{
			Left:     left,
			Operator: op.Value,
			Right:    right,
		}
	}

	return left, nil
}

// parseTerm handles mul, div and mod
func (p *ASTParser) parseTerm() (ASTNode, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for p.currentToken().Type == TokenArithmetic &&
		(p.currentToken().Value == "mul" || p.currentToken().Value == "div" ||
			p.currentToken().Value == "mod") {
		op := p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{
			Left:     left,
			Operator: op.Value,
			Right:    right,
		}
	}

	return left, nil
}

// parseUnary handles unary minus
func (p *ASTParser) parseUnary() (ASTNode, error) {
	if p.currentToken().Type == TokenMinus {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Operator: "-", Operand: operand}, nil
	}
	return p.parsePrimary()
}

// parsePrimary handles primary expressions (literals, identifiers, method calls, grouped expressions)
func (p *ASTParser) parsePrimary() (ASTNode, error) {
	token := p.currentToken()

	if token.Type == TokenLParen {
		return p.parseGroupedExpression()
	}

	if node, ok, err := p.parseLiteral(token); ok || err != nil {
		return node, err
	}

	if token.Type == TokenIdentifier {
		return p.parseIdentifierOrFunctionCall(token)
	}

	if token.Type == TokenEOF {
		return nil, fmt.Errorf("%w at position %d", errUnexpectedEnd, token.Pos)
	}
	return nil, fmt.Errorf("unexpected %v at position %d", token.Type, token.Pos)
}

// parseGroupedExpression parses a grouped expression like (expr)
func (p *ASTParser) parseGroupedExpression() (ASTNode, error) {
	p.advance() // consume '('
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	return &GroupExpr{Expr: expr}, nil
}

// parseLiteral parses literal tokens. ok is false when token is not a literal.
func (p *ASTParser) parseLiteral(token *Token) (node ASTNode, ok bool, err error) {
	var typ edm.SimpleType
	switch token.Type {
	case TokenString:
		typ = edm.String
	case TokenNumber:
		typ, err = numberType(token.Value)
		if err != nil {
			return nil, true, fmt.Errorf("%w at position %d", err, token.Pos)
		}
	case TokenBoolean:
		typ = edm.Boolean
	case TokenNull:
		typ = edm.Null
	case TokenDateTime:
		typ = edm.DateTime
	case TokenDateTimeOffset:
		typ = edm.DateTimeOffset
	case TokenTime:
		typ = edm.Time
	case TokenGuid:
		typ = edm.Guid
	case TokenBinary:
		typ = edm.Binary
	default:
		return nil, false, nil
	}
	p.advance()
	return &LiteralExpr{Type: typ, Text: token.Value}, true, nil
}

// numberType derives the primitive type of a numeric literal from its suffix
// and shape.
func numberType(text string) (edm.SimpleType, error) {
	switch text[len(text)-1] {
	case 'L', 'l':
		return edm.Int64, nil
	case 'M', 'm':
		return edm.Decimal, nil
	case 'd', 'D':
		return edm.Double, nil
	case 'f', 'F':
		return edm.Single, nil
	}
	if strings.ContainsAny(text, "eE") {
		return edm.Double, nil
	}
	if strings.Contains(text, ".") {
		return edm.Decimal, nil
	}
	if _, err := strconv.ParseInt(text, 10, 32); err == nil {
		return edm.Int32, nil
	}
	if _, err := strconv.ParseInt(text, 10, 64); err == nil {
		return edm.Int64, nil
	}
	return "", fmt.Errorf("%w: %s", errInvalidNumber, text)
}

// parseIdentifierOrFunctionCall parses a property path or a method call
func (p *ASTParser) parseIdentifierOrFunctionCall(token *Token) (ASTNode, error) {
	p.advance()

	if p.currentToken().Type == TokenLParen {
		return p.parseFunctionCall(token)
	}

	path := []string{token.Value}
	for p.currentToken().Type == TokenSlash {
		p.advance() // consume '/'
		next := p.currentToken()
		if next.Type != TokenIdentifier {
			return nil, fmt.Errorf("expected identifier after '/' in property path at position %d", next.Pos)
		}
		path = append(path, next.Value)
		p.advance()
	}

	return &IdentifierExpr{Path: path, Pos: token.Pos}, nil
}

// parseFunctionCall parses a method call like substringof('x', Name)
func (p *ASTParser) parseFunctionCall(name *Token) (ASTNode, error) {
	p.advance() // consume '('

	var args []ASTNode

	if p.currentToken().Type != TokenRParen {
		for {
			arg, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)

			if p.currentToken().Type == TokenComma {
				p.advance()
			} else {
				break
			}
		}
	}

	if err := p.expect(TokenRParen); err != nil {
		return nil, err
	}

	return &FunctionCallExpr{
		Function: strings.ToLower(name.Value),
		Args:     args,
		Pos:      name.Pos,
	}, nil
}
