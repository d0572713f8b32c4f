package sqlquery

import (
	"strings"

	"github.com/nlstn/go-odata-sql/internal/edm"
	"github.com/nlstn/go-odata-sql/internal/odataerr"
	"github.com/nlstn/go-odata-sql/internal/query"
)

// JoinClause brings start into a query that already contains target. Joins
// are LEFT joins; many-to-many relationships go through the mapping table
// both types declare.
type JoinClause struct {
	b      *SelectBuilder
	start  *edm.EntityType
	target *edm.EntityType

	predicates     []query.KeyPredicate
	withPredicates bool
}

func (j *JoinClause) key() string {
	return j.start.FQN() + "->" + j.target.FQN()
}

// IsEmpty reports whether the join is not needed: start and target are the
// same type, or the key predicates of start only bind view parameters.
func (j *JoinClause) IsEmpty() bool {
	if j.start.FQN() == j.target.FQN() {
		return true
	}
	if !j.withPredicates {
		return false
	}
	if len(j.predicates) == 0 {
		return true
	}
	tb, err := j.b.binding(j.start)
	if err != nil {
		return false
	}
	for _, kp := range j.predicates {
		if !tb.IsParameter(kp.Property.Name) {
			return false
		}
	}
	return true
}

// With restricts start to the entity addressed by predicates. It may be
// called once per join.
func (j *JoinClause) With(predicates []query.KeyPredicate) error {
	if j.withPredicates {
		return odataerr.Internal("A where clause for the key predicates of this join expression is already added")
	}
	j.predicates = predicates
	j.withPredicates = true
	where, err := j.b.keyPredicateClause(j.start, predicates)
	if err != nil {
		return err
	}
	j.b.And(where)
	return nil
}

func (j *JoinClause) evaluate() (string, error) {
	if j.IsEmpty() {
		return "", nil
	}
	startBinding, err := j.b.binding(j.start)
	if err != nil {
		return "", err
	}
	targetBinding, err := j.b.binding(j.target)
	if err != nil {
		return "", err
	}

	startMapped := startBinding.HasMappingTable(j.target)
	targetMapped := targetBinding.HasMappingTable(j.start)
	switch {
	case startMapped && targetMapped:
		return j.mappingTableJoin()
	case !startMapped && !targetMapped:
		return j.directJoin()
	case startMapped:
		return "", odataerr.Internal("Missing manyToManyMappingTable definition in the following json file: %s. Both json files need to point to the mapping table", j.target.Name)
	default:
		return "", odataerr.Internal("Missing manyToManyMappingTable definition in the following json file: %s. Both json files need to point to the mapping table", j.start.Name)
	}
}

func (j *JoinClause) directJoin() (string, error) {
	targetColumns, err := j.b.joinColumns(j.target, j.start)
	if err != nil {
		return "", err
	}
	startColumns, err := j.b.joinColumns(j.start, j.target)
	if err != nil {
		return "", err
	}
	table, err := j.b.tableName(j.start)
	if err != nil {
		return "", err
	}
	return j.render(table, j.b.tableAlias(j.start), startColumns, j.b.tableAlias(j.target), targetColumns)
}

// mappingTableJoin joins target to the mapping table, then the mapping table
// to start.
func (j *JoinClause) mappingTableJoin() (string, error) {
	startBinding, _ := j.b.binding(j.start)
	targetBinding, _ := j.b.binding(j.target)

	startTable, err := startBinding.MappingTableName(j.target)
	if err != nil {
		return "", err
	}
	targetTable, err := targetBinding.MappingTableName(j.start)
	if err != nil {
		return "", err
	}
	if startTable != targetTable {
		return "", odataerr.Internal("manyToManyMappingTable name is different in both json files: %s and %s. Both json files need to point to the same mapping table",
			j.target.Name, j.start.Name)
	}
	mappingAlias := j.b.mappingTableAlias(startTable)

	targetColumns, err := j.b.joinColumns(j.target, j.start)
	if err != nil {
		return "", err
	}
	targetMappingColumns, err := targetBinding.MappingTableJoinColumn(j.start)
	if err != nil {
		return "", err
	}
	first, err := j.render(startTable, mappingAlias, targetMappingColumns, j.b.tableAlias(j.target), targetColumns)
	if err != nil {
		return "", err
	}

	startMappingColumns, err := startBinding.MappingTableJoinColumn(j.target)
	if err != nil {
		return "", err
	}
	startColumns, err := j.b.joinColumns(j.start, j.target)
	if err != nil {
		return "", err
	}
	table, err := j.b.tableName(j.start)
	if err != nil {
		return "", err
	}
	second, err := j.render(table, j.b.tableAlias(j.start), startColumns, mappingAlias, startMappingColumns)
	if err != nil {
		return "", err
	}
	return first + " " + second, nil
}

// render writes LEFT JOIN table AS alias ON alias.c1 = other.o1 AND ...
func (j *JoinClause) render(table, alias string, columns []string, otherAlias string, otherColumns []string) (string, error) {
	if len(columns) != len(otherColumns) {
		return "", odataerr.Internal("Join columns of %s and %s do not match: %v and %v", j.start.FQN(), j.target.FQN(), columns, otherColumns)
	}
	q := j.b.ctx.quote
	var sb strings.Builder
	sb.WriteString("LEFT JOIN ")
	sb.WriteString(q(table))
	sb.WriteString(" AS ")
	sb.WriteString(q(alias))
	sb.WriteString(" ON ")
	for i := range columns {
		if i > 0 {
			sb.WriteString(" AND ")
		}
		sb.WriteString(q(alias) + "." + q(columns[i]))
		sb.WriteString(" = ")
		sb.WriteString(q(otherAlias) + "." + q(otherColumns[i]))
	}
	return sb.String(), nil
}
