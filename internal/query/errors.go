package query

import "errors"

var (
	// Tokenizer and parser errors
	errEmptyExpression     = errors.New("empty expression")
	errUnexpectedEnd       = errors.New("unexpected end of expression")
	errUnexpectedCharacter = errors.New("unexpected character")
	errUnterminatedString  = errors.New("unterminated string literal")
	errInvalidNumber       = errors.New("invalid number literal")

	// $orderby errors
	errEmptyOrderByItem = errors.New("empty $orderby item")

	// Resource path errors
	errEmptyResourcePath  = errors.New("empty resource path")
	errInvalidKeyLiteral  = errors.New("invalid key predicate")
	errUnbalancedKeyParen = errors.New("unbalanced parentheses in key predicate")
)
