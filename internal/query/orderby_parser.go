package query

import (
	"strings"

	"github.com/nlstn/go-odata-sql/internal/edm"
	"github.com/nlstn/go-odata-sql/internal/odataerr"
)

// OrderByItem is a single $orderby term.
type OrderByItem struct {
	Expr       Expr
	Descending bool
}

// ParseOrderBy parses the $orderby query option against target. Terms are
// full expressions followed by an optional asc or desc.
func ParseOrderBy(orderByStr string, target *edm.EntityType) ([]OrderByItem, error) {
	parts := splitTopLevel(orderByStr, ',')
	result := make([]OrderByItem, 0, len(parts))

	for _, part := range parts {
		if part == "" {
			return nil, odataerr.BadRequest("Invalid $orderby").Wrap(errEmptyOrderByItem)
		}

		text, descending, err := splitDirection(part)
		if err != nil {
			return nil, err
		}

		node, err := parseCached(text)
		if err != nil {
			return nil, odataerr.BadRequest("Invalid $orderby").Wrap(err)
		}
		expr, err := Resolve(node, target)
		if err != nil {
			return nil, err
		}

		result = append(result, OrderByItem{Expr: expr, Descending: descending})
	}

	return result, nil
}

// splitDirection strips a trailing asc or desc from an $orderby term.
func splitDirection(term string) (string, bool, error) {
	idx := strings.LastIndexAny(term, " \t")
	if idx < 0 {
		return term, false, nil
	}
	last := term[idx+1:]
	if strings.ContainsAny(last, "()'") {
		return term, false, nil
	}
	switch strings.ToLower(last) {
	case "asc":
		return strings.TrimSpace(term[:idx]), false, nil
	case "desc":
		return strings.TrimSpace(term[:idx]), true, nil
	}
	// "Name up" is a misspelled direction; longer terms are expressions.
	if len(strings.Fields(term)) == 2 {
		return "", false, odataerr.BadRequest("invalid direction '%s', expected 'asc' or 'desc'", last)
	}
	return term, false, nil
}
