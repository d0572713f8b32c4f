// Package sqlquery builds parameterized SELECT statements from resolved OData
// expressions. A SelectBuilder is created per request, fed the select list,
// filter, navigation and ordering of the request, and rendered once with
// Build.
package sqlquery

import (
	"github.com/nlstn/go-odata-sql/internal/dialect"
)

// Context carries the settings a statement is rendered for.
type Context struct {
	// Product selects the pagination syntax and the parameterized view syntax.
	Product dialect.Product

	// CaseSensitive double quotes table, alias and column identifiers.
	CaseSensitive bool

	// OpenSQL addresses ORDER BY and GROUP BY columns by their select alias
	// instead of the qualified column.
	OpenSQL bool
}

// DefaultContext renders for PostgreSQL with case-insensitive identifiers.
func DefaultContext() Context {
	return Context{Product: dialect.PostgreSQL}
}

func (c Context) product() dialect.Product {
	if c.Product == "" {
		return dialect.PostgreSQL
	}
	return c.Product
}

func (c Context) quote(name string) string {
	return dialect.QuoteIf(c.CaseSensitive, name)
}
