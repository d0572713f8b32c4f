package sqlquery

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/nlstn/go-odata-sql/internal/binding"
	"github.com/nlstn/go-odata-sql/internal/edm"
)

// Param is a value bound to one ? placeholder.
type Param struct {
	Value any
	Type  edm.SimpleType
	// Column is the alias qualified column the value is compared with or
	// selected as. It is the zero value when the value stands alone.
	Column binding.ColumnInfo
}

// RowNumberLabel is the label of the row number column that leads the
// select list of types with generated keys.
const RowNumberLabel = "row_num"

// SelectColumn describes one column of the select list in ordinal order.
type SelectColumn struct {
	// Label is the result column name, e.g. STATUS_T0.
	Label string
	Type  *edm.EntityType
	// Property is nil for the generated row number column.
	Property *edm.Property
}

// Statement is a rendered SELECT with its parameters in placeholder order.
type Statement struct {
	SQL     string
	Params  []Param
	Columns []SelectColumn

	// Limit and Offset are the rendered paging values, zero when unset.
	Limit  int
	Offset int
	// ServerPaging is set when Limit was imposed by the server page size
	// rather than by $top.
	ServerPaging bool
}

// Column returns the ordinal of the column selecting prop of t, or -1.
func (s *Statement) Column(t *edm.EntityType, prop *edm.Property) int {
	for i, c := range s.Columns {
		if c.Property != nil && c.Property.Name == prop.Name && c.Type.FQN() == t.FQN() {
			return i
		}
	}
	return -1
}

// Args returns the parameter values for database/sql style execution.
func (s *Statement) Args() []any {
	args := make([]any, len(s.Params))
	for i, p := range s.Params {
		args[i] = p.Value
	}
	return args
}

// Fingerprint identifies the statement text independent of its parameters.
func (s *Statement) Fingerprint() uint64 {
	return xxhash.Sum64String(s.SQL)
}

func (s *Statement) String() string {
	if len(s.Params) == 0 {
		return s.SQL
	}
	values := make([]string, len(s.Params))
	for i, p := range s.Params {
		values[i] = fmt.Sprintf("%v", p.Value)
	}
	return s.SQL + " [" + strings.Join(values, ", ") + "]"
}

// normalize collapses runs of whitespace into single spaces. Statements never
// contain inline string literals, so this cannot alter a value.
func normalize(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}
