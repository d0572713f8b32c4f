package sqlquery

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/nlstn/go-odata-sql/internal/binding"
	"github.com/nlstn/go-odata-sql/internal/edm"
	"github.com/nlstn/go-odata-sql/internal/odataerr"
	"github.com/nlstn/go-odata-sql/internal/query"
)

// SelectBuilder assembles one SELECT statement. It is not safe for
// concurrent use; create one per request.
type SelectBuilder struct {
	provider binding.Provider
	ctx      Context
	logger   *slog.Logger

	// aliases[i] is the type behind table alias Ti.
	aliases []*edm.EntityType
	// mappingAliases[i] is the mapping table behind alias MTi.
	mappingAliases []string

	joins   []*JoinClause
	sel     *SelectClause
	where   *WhereClause
	orderBy *OrderByClause
	groupBy *GroupByClause

	serverPaging bool
}

// NewSelectBuilder creates a builder that resolves tables and columns
// through provider.
func NewSelectBuilder(provider binding.Provider, ctx Context) *SelectBuilder {
	return &SelectBuilder{
		provider: provider,
		ctx:      ctx,
		logger:   slog.Default(),
		where:    NewWhereClause(""),
	}
}

// SetLogger sets the logger for alias and join diagnostics.
func (b *SelectBuilder) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	b.logger = logger
}

// Select starts a statement projecting selects (nil for all properties) and
// the properties of the expanded types.
func (b *SelectBuilder) Select(selects []*edm.Property, expand []query.ExpandPath) *SelectClause {
	b.sel = &SelectClause{b: b, selects: selects, expand: expand}
	return b.sel
}

// Count starts a statement projecting COUNT(*).
func (b *SelectBuilder) Count() *SelectClause {
	b.sel = &SelectClause{b: b, count: true}
	return b.sel
}

// SelectClause returns the clause started by Select or Count.
func (b *SelectBuilder) SelectClause() *SelectClause { return b.sel }

// Where returns the accumulated predicate.
func (b *SelectBuilder) Where() *WhereClause { return b.where }

// And appends w to the predicate with AND.
func (b *SelectBuilder) And(w *WhereClause) *SelectBuilder {
	b.where.And(w)
	return b
}

// Or appends w to the predicate with OR.
func (b *SelectBuilder) Or(w *WhereClause) *SelectBuilder {
	b.where.Or(w)
	return b
}

// Filter translates a resolved $filter over target and ANDs it to the
// predicate.
func (b *SelectBuilder) Filter(target *edm.EntityType, filter query.Expr) error {
	w, err := b.whereClause(target, filter)
	if err != nil {
		return err
	}
	b.And(w)
	return nil
}

// RestrictKeys ANDs the key predicates of target to the predicate. View
// parameters among them are bound in the FROM clause and skipped.
func (b *SelectBuilder) RestrictKeys(target *edm.EntityType, predicates []query.KeyPredicate) error {
	w, err := b.keyPredicateClause(target, predicates)
	if err != nil {
		return err
	}
	b.And(w)
	return nil
}

// FilterIn restricts prop of target to ids with an IN list.
func (b *SelectBuilder) FilterIn(target *edm.EntityType, prop *edm.Property, ids []any) error {
	if len(ids) == 0 {
		return nil
	}
	info, err := b.column(target, prop)
	if err != nil {
		return err
	}
	params := make([]Param, len(ids))
	for i, id := range ids {
		params[i] = Param{Value: id, Type: prop.Type, Column: info}
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	b.And(NewWhereClause(info.Name+" IN ("+placeholders+")", params...))
	return nil
}

// Join registers a join bringing start into a query that contains target and
// returns it. Joins are deduplicated by their pair of types; empty joins are
// returned but not registered.
func (b *SelectBuilder) Join(start, target *edm.EntityType) (*JoinClause, error) {
	if start == nil || target == nil {
		return nil, odataerr.Internal("Join requires two structural types")
	}
	j := &JoinClause{b: b, start: start, target: target}
	if j.IsEmpty() {
		return j, nil
	}
	if b.sel != nil && b.sel.target != nil && b.sel.target.FQN() == start.FQN() {
		// start is already the FROM table
		return j, nil
	}
	for _, existing := range b.joins {
		if existing.key() == j.key() {
			return existing, nil
		}
	}
	b.joins = append(b.joins, j)
	b.logger.Debug("Registered join", "start", start.FQN(), "target", target.FQN())
	return j, nil
}

// Joins returns the registered joins in registration order.
func (b *SelectBuilder) Joins() []*JoinClause {
	return append([]*JoinClause(nil), b.joins...)
}

// OrderBy sorts by items. Only property and member terms are supported.
func (b *SelectBuilder) OrderBy(items []query.OrderByItem, target *edm.EntityType) error {
	for _, item := range items {
		switch item.Expr.(type) {
		case *query.Property, *query.Member:
		default:
			b.logger.Error("OrderBy with non property or member expressions is not implemented")
			return odataerr.NotImplemented("OrderBy is implemented only for properties or member properties")
		}
	}
	b.orderBy = &OrderByClause{b: b, target: target, items: items}
	return nil
}

// ValidateOrderBy rejects member terms whose navigation is not expanded: the
// type they sort by would not be joined into the statement.
func (b *SelectBuilder) ValidateOrderBy(items []query.OrderByItem, expand []query.ExpandPath) error {
	for _, item := range items {
		switch n := item.Expr.(type) {
		case *query.Property:
		case *query.Member:
			if !expanded(expand, n.Owner) {
				return odataerr.BadRequest("Missing $expand of the entity in the OrderBy clause")
			}
		default:
			return odataerr.NotImplemented("OrderBy is implemented only for properties or member properties")
		}
	}
	return nil
}

func expanded(expand []query.ExpandPath, t *edm.EntityType) bool {
	for _, path := range expand {
		if path.Expands(t) {
			return true
		}
	}
	return false
}

// GroupBy groups by the non aggregated columns of target when target is an
// aggregation view.
func (b *SelectBuilder) GroupBy(target *edm.EntityType) error {
	tb, err := b.binding(target)
	if err != nil {
		return err
	}
	if tb.HasAggregationType() {
		b.groupBy = &GroupByClause{b: b, target: target}
	}
	return nil
}

// SetServerPaging marks a statement whose limit was imposed by the server.
func (b *SelectBuilder) SetServerPaging(on bool) *SelectBuilder {
	b.serverPaging = on
	return b
}

// ServerPaging reports whether the limit was imposed by the server.
func (b *SelectBuilder) ServerPaging() bool { return b.serverPaging }

// Build renders the statement. Parameters are ordered as their placeholders
// appear: select list, FROM clause, then WHERE clause.
func (b *SelectBuilder) Build() (*Statement, error) {
	if b.sel == nil || b.sel.target == nil {
		return nil, odataerr.Internal("Please initialize the select clause")
	}

	columns, selectParams, selectColumns, err := b.sel.columnList()
	if err != nil {
		return nil, err
	}
	from, fromParams, err := b.sel.from()
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(columns)
	sb.WriteString(" FROM ")
	sb.WriteString(from)
	sb.WriteString(" ")
	for _, j := range b.joins {
		text, err := j.evaluate()
		if err != nil {
			return nil, err
		}
		sb.WriteString(text)
		sb.WriteString(" ")
	}
	if !b.where.IsEmpty() {
		sb.WriteString(" WHERE ")
		sb.WriteString(b.where.String())
		sb.WriteString(" ")
	}
	if b.groupBy != nil {
		groupBy, err := b.groupBy.evaluate()
		if err != nil {
			return nil, err
		}
		if groupBy != "" {
			sb.WriteString("GROUP BY " + groupBy + " ")
		}
	}
	if b.orderBy != nil {
		orderBy, err := b.orderBy.evaluate()
		if err != nil {
			return nil, err
		}
		if orderBy != "" {
			sb.WriteString("ORDER BY " + orderBy + " ")
		}
	}
	sb.WriteString(b.sel.paging())

	params := make([]Param, 0, len(selectParams)+len(fromParams)+len(b.where.params))
	params = append(params, selectParams...)
	params = append(params, fromParams...)
	params = append(params, b.where.params...)

	stmt := &Statement{
		SQL:          normalize(sb.String()),
		Params:       params,
		Columns:      selectColumns,
		ServerPaging: b.serverPaging,
	}
	if !b.sel.count {
		stmt.Limit, stmt.Offset = b.sel.top, b.sel.skip
	}
	b.logger.Debug("Built statement", "fingerprint", stmt.Fingerprint(), "params", len(params))
	return stmt, nil
}

func (b *SelectBuilder) binding(t *edm.EntityType) (binding.TableBinding, error) {
	return b.provider.Binding(t)
}

// tableAlias returns the alias of t, granting the next Tn on first use.
func (b *SelectBuilder) tableAlias(t *edm.EntityType) string {
	for i, a := range b.aliases {
		if a.FQN() == t.FQN() {
			return fmt.Sprintf("T%d", i)
		}
	}
	alias := fmt.Sprintf("T%d", len(b.aliases))
	b.aliases = append(b.aliases, t)
	b.logger.Debug("Grant alias", "alias", alias, "type", t.FQN())
	return alias
}

// mappingTableAlias returns the alias of a many-to-many mapping table,
// granting the next MTn on first use.
func (b *SelectBuilder) mappingTableAlias(table string) string {
	for i, name := range b.mappingAliases {
		if name == table {
			return fmt.Sprintf("MT%d", i)
		}
	}
	alias := fmt.Sprintf("MT%d", len(b.mappingAliases))
	b.mappingAliases = append(b.mappingAliases, table)
	b.logger.Debug("Grant alias", "alias", alias, "table", table)
	return alias
}

func (b *SelectBuilder) tableName(t *edm.EntityType) (string, error) {
	tb, err := b.binding(t)
	if err != nil {
		return "", err
	}
	return b.ctx.quote(tb.TableName()), nil
}

// column returns the alias qualified column of prop, e.g. T0.STATUS.
func (b *SelectBuilder) column(t *edm.EntityType, prop *edm.Property) (binding.ColumnInfo, error) {
	if !prop.IsSimple() {
		return binding.ColumnInfo{}, odataerr.Internal("Unable to get the table column name of complex property %s", prop.Name)
	}
	tb, err := b.binding(t)
	if err != nil {
		return binding.ColumnInfo{}, err
	}
	info, err := tb.ColumnInfo(prop.Name)
	if err != nil {
		return binding.ColumnInfo{}, err
	}
	info.Name = b.ctx.quote(b.tableAlias(t)) + "." + b.ctx.quote(info.Name)
	return info, nil
}

// columnAlias returns the select alias of prop, e.g. STATUS_T0.
func (b *SelectBuilder) columnAlias(t *edm.EntityType, prop *edm.Property) (string, error) {
	if !prop.IsSimple() {
		return "", odataerr.Internal("Unable to get the table column name of complex property %s", prop.Name)
	}
	tb, err := b.binding(t)
	if err != nil {
		return "", err
	}
	name, err := tb.ColumnName(prop.Name)
	if err != nil {
		return "", err
	}
	return name + "_" + b.tableAlias(t), nil
}

func (b *SelectBuilder) joinColumns(from, to *edm.EntityType) ([]string, error) {
	tb, err := b.binding(from)
	if err != nil {
		return nil, err
	}
	return tb.JoinColumnTo(to)
}

// aggregateFunction returns the function prop is aggregated with in the
// select list, or "" when it is selected as is.
func (b *SelectBuilder) aggregateFunction(t *edm.EntityType, prop *edm.Property) (string, error) {
	tb, err := b.binding(t)
	if err != nil {
		return "", err
	}
	if !tb.HasAggregationType() || tb.IsAggregationTypeExplicit() {
		return "", nil
	}
	name, err := tb.ColumnName(prop.Name)
	if err != nil {
		return "", err
	}
	return tb.ColumnAggregationType(name), nil
}
