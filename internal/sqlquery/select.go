package sqlquery

import (
	"strings"

	"github.com/nlstn/go-odata-sql/internal/binding"
	"github.com/nlstn/go-odata-sql/internal/dialect"
	"github.com/nlstn/go-odata-sql/internal/edm"
	"github.com/nlstn/go-odata-sql/internal/odataerr"
	"github.com/nlstn/go-odata-sql/internal/query"
)

// selectTarget pairs a type with one of its simple properties. The slice
// index of a selectTarget is its column ordinal.
type selectTarget struct {
	owner    *edm.EntityType
	property *edm.Property
}

// SelectClause is the column list, FROM clause and paging of a statement.
type SelectClause struct {
	b       *SelectBuilder
	selects []*edm.Property
	expand  []query.ExpandPath
	count   bool
	top     int
	skip    int

	target        *edm.EntityType
	keyPredicates []query.KeyPredicate
	columns       []selectTarget
	parameters    []selectTarget
}

// Top limits the number of rows. Nil leaves the limit unset.
func (s *SelectClause) Top(top *int) *SelectClause {
	if top != nil {
		s.top = *top
	}
	return s
}

// Skip sets the row offset. Zero is treated as unset, since clients commonly
// send $skip=0.
func (s *SelectClause) Skip(skip *int) *SelectClause {
	if skip != nil && *skip > 0 {
		s.skip = *skip
	} else if skip != nil {
		s.skip = 0
	}
	return s
}

// Target returns the type in the FROM clause.
func (s *SelectClause) Target() *edm.EntityType { return s.target }

// From sets the selected type and resolves the column list. keyPredicates
// supply the input parameters of a parameterized view.
func (s *SelectClause) From(target *edm.EntityType, keyPredicates []query.KeyPredicate) (*SelectBuilder, error) {
	s.b.tableAlias(target)
	s.target = target
	s.keyPredicates = keyPredicates

	tb, err := s.b.binding(target)
	if err != nil {
		return nil, err
	}
	for _, name := range tb.Parameters() {
		p, ok := target.Property(name)
		if !ok || !p.IsSimple() {
			return nil, odataerr.Internal("Parameter %s is not a simple property of %s", name, target.FQN())
		}
		s.parameters = append(s.parameters, selectTarget{owner: target, property: p})
	}
	if len(s.parameters) > 0 && len(keyPredicates) == 0 {
		return nil, odataerr.BadRequest("Collection %s is not directly accessible.", target.Name)
	}
	if s.count {
		return s.b, nil
	}

	for _, p := range selectedProperties(s.selects, target) {
		if tb.IsParameter(p.Name) {
			continue
		}
		if err := s.addProperty(target, p); err != nil {
			return nil, err
		}
	}

	for _, path := range s.expand {
		to := target
		for _, nav := range path {
			expanded := nav.Target
			for _, p := range expanded.Properties() {
				if err := s.addProperty(expanded, p); err != nil {
					return nil, err
				}
			}
			if _, err := s.b.Join(expanded, to); err != nil {
				return nil, err
			}
			to = expanded
		}
	}
	return s.b, nil
}

// addProperty appends p of owner to the column list. Complex properties
// contribute their simple members and a join to the complex type's table.
// Transient properties have no column and are left out.
func (s *SelectClause) addProperty(owner *edm.EntityType, p *edm.Property) error {
	switch p.Kind {
	case edm.KindSimple:
		tb, err := s.b.binding(owner)
		if err != nil {
			return err
		}
		if !tb.IsPropertyMapped(p.Name) {
			return nil
		}
		for _, c := range s.columns {
			if c.owner.FQN() == owner.FQN() && c.property.Name == p.Name {
				return nil
			}
		}
		s.columns = append(s.columns, selectTarget{owner: owner, property: p})
		return nil
	case edm.KindComplex:
		if _, err := s.b.Join(p.Target, owner); err != nil {
			return err
		}
		for _, member := range p.Target.Properties() {
			if err := s.addProperty(p.Target, member); err != nil {
				return err
			}
		}
		return nil
	}
	return odataerr.Internal("Unable to handle property %s of %s", p.Name, owner.FQN())
}

// selectedProperties returns selects followed by the keys of target that are
// not selected. A nil selects means all properties.
func selectedProperties(selects []*edm.Property, target *edm.EntityType) []*edm.Property {
	if selects == nil {
		return target.Properties()
	}
	out := append([]*edm.Property(nil), selects...)
	for _, key := range target.KeyProperties() {
		found := false
		for _, p := range selects {
			if p.Name == key.Name {
				found = true
				break
			}
		}
		if !found {
			out = append(out, key)
		}
	}
	return out
}

// columnList renders the projection and returns the parameters bound in it.
func (s *SelectClause) columnList() (string, []Param, []SelectColumn, error) {
	if s.count {
		return "COUNT(*)", nil, nil, nil
	}

	var (
		items   []string
		params  []Param
		columns []SelectColumn
	)
	tb, err := s.b.binding(s.target)
	if err != nil {
		return "", nil, nil, err
	}
	if tb.KeyGenerated() && len(s.columns) > 0 {
		items = append(items, `row_number() over() AS "`+RowNumberLabel+`"`)
		columns = append(columns, SelectColumn{Label: RowNumberLabel, Type: s.target})
	}

	for _, c := range s.columns {
		info, err := s.b.column(c.owner, c.property)
		if err != nil {
			return "", nil, nil, err
		}
		alias, err := s.b.columnAlias(c.owner, c.property)
		if err != nil {
			return "", nil, nil, err
		}
		item := info.Name + ` AS "` + alias + `"`
		if fn, err := s.b.aggregateFunction(c.owner, c.property); err != nil {
			return "", nil, nil, err
		} else if fn != "" {
			item = fn + "(" + info.Name + `) AS "` + alias + `"`
		}
		items = append(items, item)
		columns = append(columns, SelectColumn{Label: alias, Type: c.owner, Property: c.property})
	}

	for _, p := range s.parameters {
		param, err := s.parameterValue(p)
		if err != nil {
			return "", nil, nil, err
		}
		alias, err := s.b.columnAlias(p.owner, p.property)
		if err != nil {
			return "", nil, nil, err
		}
		items = append(items, `? AS "`+alias+`"`)
		params = append(params, param)
		columns = append(columns, SelectColumn{Label: alias, Type: p.owner, Property: p.property})
	}
	return strings.Join(items, ", "), params, columns, nil
}

// from renders the FROM clause and returns the view parameters bound in it.
func (s *SelectClause) from() (string, []Param, error) {
	table, err := s.b.tableName(s.target)
	if err != nil {
		return "", nil, err
	}
	alias := s.b.ctx.quote(s.b.tableAlias(s.target))
	if len(s.parameters) == 0 {
		return table + " AS " + alias, nil, nil
	}

	tb, err := s.b.binding(s.target)
	if err != nil {
		return "", nil, err
	}
	calcView := s.b.ctx.product() == dialect.HANA && tb.DataStructureType() == binding.CalcView

	var (
		placeholders []string
		params       []Param
	)
	for _, p := range s.parameters {
		param, err := s.parameterValue(p)
		if err != nil {
			return "", nil, err
		}
		params = append(params, param)
		if calcView {
			placeholders = append(placeholders, `placeholder."$$`+p.property.Name+`$$" => ? `)
		} else {
			placeholders = append(placeholders, "?")
		}
	}
	sep := ", "
	if calcView {
		sep = ","
	}
	return table + "(" + strings.Join(placeholders, sep) + ") AS " + alias, params, nil
}

func (s *SelectClause) parameterValue(p selectTarget) (Param, error) {
	for _, kp := range s.keyPredicates {
		if kp.Property.Name != p.property.Name {
			continue
		}
		value, err := kp.Literal.Value()
		if err != nil {
			return Param{}, odataerr.BadRequest("Invalid value %s for input parameter %s", kp.Literal.Text, p.property.Name).Wrap(err)
		}
		info, err := s.b.column(p.owner, p.property)
		if err != nil {
			return Param{}, err
		}
		return Param{Value: value, Type: p.property.Type, Column: info}, nil
	}
	return Param{}, odataerr.BadRequest("Missing input parameter %s", p.property.Name)
}

func (s *SelectClause) paging() string {
	if s.count {
		return ""
	}
	return s.b.ctx.product().Paging(s.top, s.skip)
}
