// Package dialect holds the per-database syntax that differs between the
// SQL engines statements are generated for: pagination and identifier
// quoting.
package dialect

import (
	"fmt"
	"strings"
)

// Product identifies a database family.
type Product string

const (
	Derby      Product = "derby"
	PostgreSQL Product = "postgresql"
	HANA       Product = "hana"
	SybaseASE  Product = "sybase_ase"
	MySQL      Product = "mysql"
	H2         Product = "h2"
	SQLite     Product = "sqlite"
)

// Products lists the supported database families.
var Products = []Product{Derby, PostgreSQL, HANA, SybaseASE, MySQL, H2, SQLite}

// Parse resolves a product name case-insensitively. "postgres" is accepted
// as an alias for PostgreSQL.
func Parse(name string) (Product, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "postgres" {
		return PostgreSQL, nil
	}
	for _, p := range Products {
		if string(p) == lower {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown database product %q", name)
}

// capabilities is the fixed syntax table of one product.
type capabilities struct {
	fetchFirst             bool
	requiresLimitForOffset bool
	unboundedLimit         string
}

var productCapabilities = map[Product]capabilities{
	Derby:      {fetchFirst: true},
	PostgreSQL: {},
	HANA:       {},
	SybaseASE:  {},
	MySQL:      {requiresLimitForOffset: true, unboundedLimit: "18446744073709551615"},
	H2:         {},
	SQLite:     {requiresLimitForOffset: true, unboundedLimit: "-1"},
}

func (p Product) caps() capabilities {
	return productCapabilities[p]
}

// UsesFetchFirst reports whether the product pages with FETCH FIRST n ROWS ONLY.
func (p Product) UsesFetchFirst() bool {
	return p.caps().fetchFirst
}

// RequiresLimitForOffset reports whether an OFFSET needs a LIMIT in front of it.
func (p Product) RequiresLimitForOffset() bool {
	return p.caps().requiresLimitForOffset
}

// Limit renders the row limit, or "" when top is not positive.
func (p Product) Limit(top int) string {
	if top <= 0 {
		return ""
	}
	if p.UsesFetchFirst() {
		return fmt.Sprintf("FETCH FIRST %d ROWS ONLY", top)
	}
	return fmt.Sprintf("LIMIT %d", top)
}

// Offset renders the row offset, or "" when skip is not positive.
func (p Product) Offset(skip int) string {
	if skip <= 0 {
		return ""
	}
	if p.UsesFetchFirst() {
		return fmt.Sprintf("OFFSET %d ROWS", skip)
	}
	return fmt.Sprintf("OFFSET %d", skip)
}

// Paging renders limit and offset in the order the product expects.
func (p Product) Paging(top, skip int) string {
	limit, offset := p.Limit(top), p.Offset(skip)
	switch {
	case offset == "":
		return limit
	case p.UsesFetchFirst():
		return strings.TrimSpace(offset + " " + limit)
	case limit == "" && p.RequiresLimitForOffset():
		return "LIMIT " + p.caps().unboundedLimit + " " + offset
	}
	return strings.TrimSpace(limit + " " + offset)
}

// Quote wraps name in double quotes. Already quoted names are returned as is.
func Quote(name string) string {
	if len(name) >= 2 && strings.HasPrefix(name, `"`) && strings.HasSuffix(name, `"`) {
		return name
	}
	return `"` + name + `"`
}

// QuoteIf quotes name when caseSensitive is set.
func QuoteIf(caseSensitive bool, name string) string {
	if caseSensitive {
		return Quote(name)
	}
	return name
}
