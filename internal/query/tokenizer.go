package query

import (
	"fmt"
	"strings"
	"unicode"
)

// TokenType represents the type of a token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIdentifier
	TokenString
	TokenNumber
	TokenBoolean
	TokenNull
	TokenOperator
	TokenLogical
	TokenNot
	TokenLParen
	TokenRParen
	TokenComma
	TokenArithmetic
	TokenSlash
	TokenMinus
	TokenEquals
	TokenDateTime
	TokenDateTimeOffset
	TokenTime
	TokenGuid
	TokenBinary
)

var tokenNames = map[TokenType]string{
	TokenEOF:            "end of input",
	TokenIdentifier:     "identifier",
	TokenString:         "string",
	TokenNumber:         "number",
	TokenBoolean:        "boolean",
	TokenNull:           "null",
	TokenOperator:       "operator",
	TokenLogical:        "logical operator",
	TokenNot:            "not",
	TokenLParen:         "'('",
	TokenRParen:         "')'",
	TokenComma:          "','",
	TokenArithmetic:     "arithmetic operator",
	TokenSlash:          "'/'",
	TokenMinus:          "'-'",
	TokenEquals:         "'='",
	TokenDateTime:       "datetime literal",
	TokenDateTimeOffset: "datetimeoffset literal",
	TokenTime:           "time literal",
	TokenGuid:           "guid literal",
	TokenBinary:         "binary literal",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// typedLiteralPrefixes maps the prefixes of quoted typed literals
// (datetime'2014-10-02T09:14:00') to their token type.
var typedLiteralPrefixes = map[string]TokenType{
	"datetime":       TokenDateTime,
	"datetimeoffset": TokenDateTimeOffset,
	"time":           TokenTime,
	"guid":           TokenGuid,
	"x":              TokenBinary,
	"binary":         TokenBinary,
}

var arithmeticOperators = map[string]struct{}{
	"add": {}, "sub": {}, "mul": {}, "div": {}, "mod": {},
}

// Token represents a single token in the filter expression
type Token struct {
	Type  TokenType
	Value string
	Pos   int
}

// Tokenizer tokenizes OData filter expressions
type Tokenizer struct {
	input string
	pos   int
	ch    rune
}

// NewTokenizer creates a new tokenizer
func NewTokenizer(input string) *Tokenizer {
	t := &Tokenizer{
		input: input,
		pos:   0,
	}
	if len(input) > 0 {
		t.ch = rune(input[0])
	}
	return t
}

// advance moves to the next character
func (t *Tokenizer) advance() {
	t.pos++
	if t.pos >= len(t.input) {
		t.ch = 0 // EOF
	} else {
		t.ch = rune(t.input[t.pos])
	}
}

// peek looks ahead without advancing
func (t *Tokenizer) peek() rune {
	if t.pos+1 >= len(t.input) {
		return 0
	}
	return rune(t.input[t.pos+1])
}

// skipWhitespace skips whitespace characters
func (t *Tokenizer) skipWhitespace() {
	for t.ch == ' ' || t.ch == '\t' || t.ch == '\n' || t.ch == '\r' {
		t.advance()
	}
}

// readString reads a single quoted string. A doubled quote ('') is an
// escaped quote.
func (t *Tokenizer) readString() (string, error) {
	start := t.pos
	t.advance() // skip opening quote

	var result strings.Builder
	for {
		if t.ch == 0 {
			return "", fmt.Errorf("%w at position %d", errUnterminatedString, start)
		}
		if t.ch == '\'' {
			if t.peek() == '\'' {
				result.WriteByte('\'')
				t.advance()
				t.advance()
				continue
			}
			t.advance() // skip closing quote
			return result.String(), nil
		}
		result.WriteByte(byte(t.ch))
		t.advance()
	}
}

// readNumber reads a number including an optional type suffix (L, M, d, f).
func (t *Tokenizer) readNumber() string {
	var result strings.Builder

	if t.ch == '-' {
		result.WriteRune(t.ch)
		t.advance()
	}

	for unicode.IsDigit(t.ch) {
		result.WriteRune(t.ch)
		t.advance()
	}

	if t.ch == '.' && unicode.IsDigit(t.peek()) {
		result.WriteRune(t.ch)
		t.advance()
		for unicode.IsDigit(t.ch) {
			result.WriteRune(t.ch)
			t.advance()
		}
	}

	if t.ch == 'e' || t.ch == 'E' {
		result.WriteRune(t.ch)
		t.advance()
		if t.ch == '+' || t.ch == '-' {
			result.WriteRune(t.ch)
			t.advance()
		}
		for unicode.IsDigit(t.ch) {
			result.WriteRune(t.ch)
			t.advance()
		}
	}

	switch t.ch {
	case 'L', 'l', 'M', 'm', 'd', 'D', 'f', 'F':
		if !isIdentifierChar(t.peek()) {
			result.WriteRune(t.ch)
			t.advance()
		}
	}

	return result.String()
}

func isIdentifierChar(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'
}

// readIdentifier reads an identifier or keyword
func (t *Tokenizer) readIdentifier() string {
	var result strings.Builder

	for t.ch != 0 && isIdentifierChar(t.ch) {
		result.WriteRune(t.ch)
		t.advance()
	}

	return result.String()
}

// NextToken returns the next token
func (t *Tokenizer) NextToken() (*Token, error) {
	t.skipWhitespace()

	if t.ch == 0 {
		return &Token{Type: TokenEOF, Pos: t.pos}, nil
	}

	pos := t.pos

	if t.ch == '\'' {
		value, err := t.readString()
		if err != nil {
			return nil, err
		}
		return &Token{Type: TokenString, Value: value, Pos: pos}, nil
	}

	if token := t.tokenizeNumber(pos); token != nil {
		return token, nil
	}

	if token := t.tokenizeSpecialChar(pos); token != nil {
		return token, nil
	}

	if unicode.IsLetter(t.ch) || t.ch == '_' || t.ch == '$' {
		return t.tokenizeIdentifierOrKeyword(pos)
	}

	return nil, fmt.Errorf("%w '%c' at position %d", errUnexpectedCharacter, t.ch, t.pos)
}

// tokenizeNumber tokenizes numeric literals
func (t *Tokenizer) tokenizeNumber(pos int) *Token {
	if unicode.IsDigit(t.ch) || (t.ch == '-' && unicode.IsDigit(t.peek())) {
		value := t.readNumber()
		return &Token{Type: TokenNumber, Value: value, Pos: pos}
	}
	return nil
}

// tokenizeSpecialChar tokenizes special characters (parentheses, comma, slash, minus)
func (t *Tokenizer) tokenizeSpecialChar(pos int) *Token {
	switch t.ch {
	case '(':
		t.advance()
		return &Token{Type: TokenLParen, Value: "(", Pos: pos}
	case ')':
		t.advance()
		return &Token{Type: TokenRParen, Value: ")", Pos: pos}
	case ',':
		t.advance()
		return &Token{Type: TokenComma, Value: ",", Pos: pos}
	case '/':
		t.advance()
		return &Token{Type: TokenSlash, Value: "/", Pos: pos}
	case '-':
		t.advance()
		return &Token{Type: TokenMinus, Value: "-", Pos: pos}
	case '=':
		t.advance()
		return &Token{Type: TokenEquals, Value: "=", Pos: pos}
	}
	return nil
}

// tokenizeIdentifierOrKeyword tokenizes identifiers, keywords and typed
// literals such as datetime'2014-10-02T09:14:00'.
func (t *Tokenizer) tokenizeIdentifierOrKeyword(pos int) (*Token, error) {
	var value string
	if t.ch == '$' {
		t.advance()
		value = "$" + t.readIdentifier()
	} else {
		value = t.readIdentifier()
	}
	lower := strings.ToLower(value)

	if t.ch == '\'' {
		if typ, ok := typedLiteralPrefixes[lower]; ok {
			text, err := t.readString()
			if err != nil {
				return nil, err
			}
			return &Token{Type: typ, Value: text, Pos: pos}, nil
		}
	}

	// add, sub, mul, div and mod are infix operators in OData v2; followed by
	// '(' they are read as identifiers so the parser rejects them as unknown
	// methods.
	if _, arithmetic := arithmeticOperators[lower]; !arithmetic || t.ch != '(' {
		if token := t.classifyKeyword(lower, pos); token != nil {
			return token, nil
		}
	}

	return &Token{Type: TokenIdentifier, Value: value, Pos: pos}, nil
}

// classifyKeyword classifies a keyword and returns the appropriate token
func (t *Tokenizer) classifyKeyword(lower string, pos int) *Token {
	switch lower {
	case "and":
		return &Token{Type: TokenLogical, Value: "and", Pos: pos}
	case "or":
		return &Token{Type: TokenLogical, Value: "or", Pos: pos}
	case "not":
		return &Token{Type: TokenNot, Value: "not", Pos: pos}
	case "true", "false":
		return &Token{Type: TokenBoolean, Value: lower, Pos: pos}
	case "null":
		return &Token{Type: TokenNull, Value: "null", Pos: pos}
	case "eq", "ne", "gt", "ge", "lt", "le":
		return &Token{Type: TokenOperator, Value: lower, Pos: pos}
	case "add", "sub", "mul", "div", "mod":
		return &Token{Type: TokenArithmetic, Value: lower, Pos: pos}
	}
	return nil
}

// TokenizeAll returns all tokens from the input
func (t *Tokenizer) TokenizeAll() ([]*Token, error) {
	var tokens []*Token

	for {
		token, err := t.NextToken()
		if err != nil {
			return nil, err
		}

		tokens = append(tokens, token)

		if token.Type == TokenEOF {
			break
		}
	}

	return tokens, nil
}
