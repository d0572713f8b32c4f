package query

import (
	"errors"
	"testing"
)

func TestTokenizer(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []TokenType
	}{
		{
			name:  "Simple comparison",
			input: "Price gt 100",
			expected: []TokenType{
				TokenIdentifier,
				TokenOperator,
				TokenNumber,
				TokenEOF,
			},
		},
		{
			name:  "With parentheses",
			input: "(Price gt 100)",
			expected: []TokenType{
				TokenLParen,
				TokenIdentifier,
				TokenOperator,
				TokenNumber,
				TokenRParen,
				TokenEOF,
			},
		},
		{
			name:  "Logical AND",
			input: "Price gt 100 and Category eq 'Electronics'",
			expected: []TokenType{
				TokenIdentifier,
				TokenOperator,
				TokenNumber,
				TokenLogical,
				TokenIdentifier,
				TokenOperator,
				TokenString,
				TokenEOF,
			},
		},
		{
			name:  "NOT operator",
			input: "not(Status eq 'ERROR')",
			expected: []TokenType{
				TokenNot,
				TokenLParen,
				TokenIdentifier,
				TokenOperator,
				TokenString,
				TokenRParen,
				TokenEOF,
			},
		},
		{
			name:  "Method call",
			input: "substringof('x', Name)",
			expected: []TokenType{
				TokenIdentifier,
				TokenLParen,
				TokenString,
				TokenComma,
				TokenIdentifier,
				TokenRParen,
				TokenEOF,
			},
		},
		{
			name:  "Navigation path",
			input: "Header/MessageGuid eq null",
			expected: []TokenType{
				TokenIdentifier,
				TokenSlash,
				TokenIdentifier,
				TokenOperator,
				TokenNull,
				TokenEOF,
			},
		},
		{
			name:  "Arithmetic",
			input: "Price mul 2 add 1",
			expected: []TokenType{
				TokenIdentifier,
				TokenArithmetic,
				TokenNumber,
				TokenArithmetic,
				TokenNumber,
				TokenEOF,
			},
		},
		{
			name:  "Typed literals",
			input: "datetime'2014-10-02T09:14:00' guid'01234567-89ab-cdef-0123-456789abcdef' X'0F' time'PT13H' datetimeoffset'2014-10-02T09:14:00Z'",
			expected: []TokenType{
				TokenDateTime,
				TokenGuid,
				TokenBinary,
				TokenTime,
				TokenDateTimeOffset,
				TokenEOF,
			},
		},
		{
			name:  "Unary minus before identifier",
			input: "-Price",
			expected: []TokenType{
				TokenMinus,
				TokenIdentifier,
				TokenEOF,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := NewTokenizer(tt.input).TokenizeAll()
			if err != nil {
				t.Fatalf("TokenizeAll() error = %v", err)
			}
			if len(tokens) != len(tt.expected) {
				t.Fatalf("got %d tokens, want %d: %v", len(tokens), len(tt.expected), tokens)
			}
			for i, token := range tokens {
				if token.Type != tt.expected[i] {
					t.Errorf("token %d: got %v, want %v", i, token.Type, tt.expected[i])
				}
			}
		})
	}
}

func TestTokenizerValues(t *testing.T) {
	tests := []struct {
		name  string
		input string
		typ   TokenType
		value string
	}{
		{"escaped quote", "'O''Neil'", TokenString, "O'Neil"},
		{"long suffix", "42L", TokenNumber, "42L"},
		{"decimal suffix", "1.5M", TokenNumber, "1.5M"},
		{"negative number", "-7", TokenNumber, "-7"},
		{"exponent", "1e10", TokenNumber, "1e10"},
		{"keyword case", "EQ", TokenOperator, "eq"},
		{"boolean", "True", TokenBoolean, "true"},
		{"datetime text", "datetime'2014-10-02T09:14:00'", TokenDateTime, "2014-10-02T09:14:00"},
		{"dollar identifier", "$count", TokenIdentifier, "$count"},
		{"arithmetic keyword as method", "add(", TokenIdentifier, "add"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := NewTokenizer(tt.input).NextToken()
			if err != nil {
				t.Fatalf("NextToken() error = %v", err)
			}
			if token.Type != tt.typ || token.Value != tt.value {
				t.Errorf("NextToken() = %v %q, want %v %q", token.Type, token.Value, tt.typ, tt.value)
			}
		})
	}
}

func TestTokenizerErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"unterminated string", "Name eq 'abc", errUnterminatedString},
		{"unterminated typed literal", "datetime'2014", errUnterminatedString},
		{"unexpected character", "Name eq #", errUnexpectedCharacter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTokenizer(tt.input).TokenizeAll()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("TokenizeAll() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
