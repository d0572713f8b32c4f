package sqlquery

import (
	"strings"

	"github.com/nlstn/go-odata-sql/internal/edm"
)

// GroupByClause lists the grouping keys of an aggregation view: every mapped
// column that is not folded into an aggregate function.
type GroupByClause struct {
	b      *SelectBuilder
	target *edm.EntityType
}

func (g *GroupByClause) evaluate() (string, error) {
	tb, err := g.b.binding(g.target)
	if err != nil {
		return "", err
	}
	var keys []string
	for _, p := range g.target.Properties() {
		if !p.IsSimple() || !tb.IsPropertyMapped(p.Name) || tb.IsParameter(p.Name) {
			continue
		}
		fn, err := g.b.aggregateFunction(g.target, p)
		if err != nil {
			return "", err
		}
		if fn != "" {
			continue
		}
		ref, err := g.b.sortColumn(g.target, p)
		if err != nil {
			return "", err
		}
		keys = append(keys, ref)
	}
	return strings.Join(keys, ", "), nil
}
