package query

import "strings"

// splitTopLevel splits s on sep, ignoring separators inside parentheses or
// single-quoted strings. Parts are trimmed; empty parts are kept so callers
// can reject them.
func splitTopLevel(s string, sep rune) []string {
	var parts []string
	var current strings.Builder
	depth := 0
	inString := false

	for _, ch := range s {
		switch {
		case ch == '\'':
			inString = !inString
		case inString:
		case ch == '(':
			depth++
		case ch == ')':
			depth--
		case ch == sep && depth == 0:
			parts = append(parts, strings.TrimSpace(current.String()))
			current.Reset()
			continue
		}
		current.WriteRune(ch)
	}

	return append(parts, strings.TrimSpace(current.String()))
}

// splitPath splits a property path on '/' and trims every segment.
func splitPath(path string) []string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = strings.TrimSpace(s)
	}
	return segments
}
