package sqlquery

import (
	"strings"

	"github.com/nlstn/go-odata-sql/internal/edm"
	"github.com/nlstn/go-odata-sql/internal/odataerr"
	"github.com/nlstn/go-odata-sql/internal/query"
)

// WhereClause is a predicate and the parameters of its placeholders, in
// placeholder order.
type WhereClause struct {
	text   string
	params []Param
	// disjunction marks text whose outermost operator is an unparenthesized OR.
	disjunction bool
}

// NewWhereClause creates a clause from a predicate. The number of params must
// match the number of ? placeholders in text.
func NewWhereClause(text string, params ...Param) *WhereClause {
	return &WhereClause{text: strings.TrimSpace(text), params: append([]Param(nil), params...)}
}

func newDisjunction(text string, params []Param) *WhereClause {
	w := NewWhereClause(text, params...)
	w.disjunction = true
	return w
}

// IsEmpty reports whether the clause has no predicate.
func (w *WhereClause) IsEmpty() bool {
	return w == nil || w.text == ""
}

// String returns the predicate text.
func (w *WhereClause) String() string {
	if w == nil {
		return ""
	}
	return w.text
}

// Params returns the bound parameters.
func (w *WhereClause) Params() []Param {
	if w == nil {
		return nil
	}
	return append([]Param(nil), w.params...)
}

// And appends other with AND. An empty other is ignored; appending to an
// empty clause adopts other without a connective.
func (w *WhereClause) And(other *WhereClause) *WhereClause {
	if other.IsEmpty() {
		return w
	}
	if w.IsEmpty() {
		w.text, w.disjunction = other.text, other.disjunction
		w.params = append(w.params, other.params...)
		return w
	}
	w.text = w.operand() + " AND " + other.operand()
	w.params = append(w.params, other.params...)
	w.disjunction = false
	return w
}

// Or appends other with OR and parenthesizes the combined group.
func (w *WhereClause) Or(other *WhereClause) *WhereClause {
	if other.IsEmpty() {
		return w
	}
	if w.IsEmpty() {
		w.text, w.disjunction = other.text, other.disjunction
		w.params = append(w.params, other.params...)
		return w
	}
	w.text = "(" + w.text + " OR " + other.text + ")"
	w.params = append(w.params, other.params...)
	w.disjunction = false
	return w
}

func (w *WhereClause) operand() string {
	if w.disjunction {
		return "(" + w.text + ")"
	}
	return w.text
}

// keyPredicateClause restricts t to the given key values. Parameters of a
// parameterized view are bound in the FROM clause and skipped here.
func (b *SelectBuilder) keyPredicateClause(t *edm.EntityType, predicates []query.KeyPredicate) (*WhereClause, error) {
	tb, err := b.binding(t)
	if err != nil {
		return nil, err
	}
	var (
		parts  []string
		params []Param
	)
	for _, kp := range predicates {
		if !kp.Property.IsSimple() {
			return nil, odataerr.Internal("Key predicate %s of %s is not a simple property", kp.Property.Name, t.FQN())
		}
		if tb.IsParameter(kp.Property.Name) {
			continue
		}
		info, err := b.column(t, kp.Property)
		if err != nil {
			return nil, err
		}
		value, err := kp.Literal.Value()
		if err != nil {
			return nil, odataerr.BadRequest("Invalid key value %s for %s", kp.Literal.Text, kp.Property.Name).Wrap(err)
		}
		parts = append(parts, info.Name+" = ?")
		params = append(params, Param{Value: value, Type: kp.Property.Type, Column: info})
	}
	return NewWhereClause(strings.Join(parts, " AND "), params...), nil
}
