package sqlquery

import (
	"strings"

	"github.com/nlstn/go-odata-sql/internal/edm"
	"github.com/nlstn/go-odata-sql/internal/odataerr"
	"github.com/nlstn/go-odata-sql/internal/query"
)

// OrderByClause renders the ORDER BY terms of a statement.
type OrderByClause struct {
	b      *SelectBuilder
	target *edm.EntityType
	items  []query.OrderByItem
}

func (o *OrderByClause) evaluate() (string, error) {
	terms := make([]string, 0, len(o.items))
	for _, item := range o.items {
		owner, prop, err := orderTarget(o.target, item.Expr)
		if err != nil {
			return "", err
		}
		ref, err := o.b.sortColumn(owner, prop)
		if err != nil {
			return "", err
		}
		if item.Descending {
			terms = append(terms, ref+" DESC")
		} else {
			terms = append(terms, ref+" ASC")
		}
	}
	return strings.Join(terms, ", "), nil
}

// orderTarget resolves an ordering term to the property it sorts by.
func orderTarget(target *edm.EntityType, e query.Expr) (*edm.EntityType, *edm.Property, error) {
	var (
		owner *edm.EntityType
		prop  *edm.Property
	)
	switch n := e.(type) {
	case *query.Property:
		owner, prop = n.Owner, n.Property
		if owner == nil {
			owner = target
		}
	case *query.Member:
		owner, prop = n.Owner, n.Property
	default:
		return nil, nil, odataerr.NotImplemented("OrderBy is implemented only for properties or member properties")
	}
	if !prop.IsSimple() {
		return nil, nil, odataerr.BadRequest("Cannot order by %s property %s", strings.ToLower(prop.Kind.String()), prop.Name)
	}
	return owner, prop, nil
}

// sortColumn addresses a property in ORDER BY and GROUP BY. View parameters
// are only available through their select alias, quoted as in the select
// list so that mixed case names survive.
func (b *SelectBuilder) sortColumn(owner *edm.EntityType, prop *edm.Property) (string, error) {
	tb, err := b.binding(owner)
	if err != nil {
		return "", err
	}
	if !tb.IsPropertyMapped(prop.Name) {
		return "", odataerr.Internal("Order by transient property %s of type %s is not allowed", prop.Name, owner.FQN())
	}
	if tb.IsParameter(prop.Name) {
		alias, err := b.columnAlias(owner, prop)
		if err != nil {
			return "", err
		}
		return `"` + alias + `"`, nil
	}
	if b.ctx.OpenSQL {
		return b.columnAlias(owner, prop)
	}
	info, err := b.column(owner, prop)
	if err != nil {
		return "", err
	}
	return info.Name, nil
}
