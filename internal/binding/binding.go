// Package binding maps entity types and their properties onto physical
// tables and columns.
package binding

import (
	"strings"
	"sync"

	"github.com/nlstn/go-odata-sql/internal/edm"
	"github.com/nlstn/go-odata-sql/internal/odataerr"
)

// DataStructureType is the kind of database object behind an entity type.
type DataStructureType string

const (
	Table    DataStructureType = "TABLE"
	View     DataStructureType = "VIEW"
	CalcView DataStructureType = "CALC_VIEW"
)

// ColumnInfo describes the column a property is stored in.
type ColumnInfo struct {
	Name     string
	SQLType  string
	Nullable bool
}

// TableBinding is the physical mapping of one entity or complex type.
type TableBinding interface {
	TableName() string
	DataStructureType() DataStructureType

	IsPropertyMapped(prop string) bool
	ColumnName(prop string) (string, error)
	ColumnInfo(prop string) (ColumnInfo, error)

	// JoinColumnTo returns the columns of this table that join to target.
	JoinColumnTo(target *edm.EntityType) ([]string, error)
	HasMappingTable(target *edm.EntityType) bool
	MappingTableName(target *edm.EntityType) (string, error)
	// MappingTableJoinColumn returns the mapping table columns referencing this table.
	MappingTableJoinColumn(target *edm.EntityType) ([]string, error)

	// Parameters lists the input parameters of a parameterized view.
	Parameters() []string
	IsParameter(prop string) bool
	KeyGenerated() bool

	HasAggregationType() bool
	IsAggregationTypeExplicit() bool
	IsColumnContainedInAggregationProp(column string) bool
	ColumnAggregationType(column string) string
}

// Provider resolves the binding of a type.
type Provider interface {
	Binding(t *edm.EntityType) (TableBinding, error)
}

// MappingTable is the intermediate table of a many-to-many relationship.
type MappingTable struct {
	Name string
	// JoinColumns are the mapping table columns referencing the owning table.
	JoinColumns []string
}

// Aggregation describes a pre-aggregated view.
type Aggregation struct {
	// Explicit means the caller aggregates; columns are neither wrapped in
	// aggregate functions nor removed from GROUP BY.
	Explicit bool
	// Columns maps column names to their aggregate function (SUM, MAX, ...).
	Columns map[string]string
}

// Entity is the TableBinding of one type.
type Entity struct {
	Type      *edm.EntityType
	Table     string
	Structure DataStructureType
	// Columns maps property names to columns.
	Columns map[string]ColumnInfo
	// JoinColumns maps target type FQNs to the local join columns.
	JoinColumns map[string][]string
	// MappingTables maps target type FQNs to many-to-many mapping tables.
	MappingTables map[string]MappingTable
	Params        []string
	Generated     bool
	Aggregation   *Aggregation
}

var _ TableBinding = (*Entity)(nil)

func (e *Entity) TableName() string { return e.Table }

func (e *Entity) DataStructureType() DataStructureType {
	if e.Structure == "" {
		return Table
	}
	return e.Structure
}

func (e *Entity) IsPropertyMapped(prop string) bool {
	_, ok := e.Columns[prop]
	return ok
}

func (e *Entity) ColumnName(prop string) (string, error) {
	info, err := e.ColumnInfo(prop)
	if err != nil {
		return "", err
	}
	return info.Name, nil
}

func (e *Entity) ColumnInfo(prop string) (ColumnInfo, error) {
	info, ok := e.Columns[prop]
	if !ok {
		return ColumnInfo{}, odataerr.Internal("Unable to find binding for type %s and property %s", e.Type.FQN(), prop)
	}
	return info, nil
}

func (e *Entity) JoinColumnTo(target *edm.EntityType) ([]string, error) {
	cols, ok := e.JoinColumns[target.FQN()]
	if !ok || len(cols) == 0 {
		return nil, odataerr.Internal("No join column definition found from type %s to type %s", e.Type.FQN(), target.FQN())
	}
	return cols, nil
}

func (e *Entity) HasMappingTable(target *edm.EntityType) bool {
	_, ok := e.MappingTables[target.FQN()]
	return ok
}

func (e *Entity) MappingTableName(target *edm.EntityType) (string, error) {
	mt, ok := e.MappingTables[target.FQN()]
	if !ok {
		return "", odataerr.Internal("No mapping table definition found from type %s to type %s", e.Type.FQN(), target.FQN())
	}
	return mt.Name, nil
}

func (e *Entity) MappingTableJoinColumn(target *edm.EntityType) ([]string, error) {
	mt, ok := e.MappingTables[target.FQN()]
	if !ok || len(mt.JoinColumns) == 0 {
		return nil, odataerr.Internal("No mapping table join column definition found from type %s to type %s", e.Type.FQN(), target.FQN())
	}
	return mt.JoinColumns, nil
}

func (e *Entity) Parameters() []string { return append([]string(nil), e.Params...) }

func (e *Entity) IsParameter(prop string) bool {
	for _, p := range e.Params {
		if p == prop {
			return true
		}
	}
	return false
}

func (e *Entity) KeyGenerated() bool { return e.Generated }

func (e *Entity) HasAggregationType() bool { return e.Aggregation != nil }

func (e *Entity) IsAggregationTypeExplicit() bool {
	return e.Aggregation != nil && e.Aggregation.Explicit
}

func (e *Entity) IsColumnContainedInAggregationProp(column string) bool {
	return e.ColumnAggregationType(column) != ""
}

func (e *Entity) ColumnAggregationType(column string) string {
	if e.Aggregation == nil {
		return ""
	}
	return strings.ToUpper(e.Aggregation.Columns[column])
}

// Registry is a Provider keyed by type FQN. It is safe for concurrent reads
// once populated.
type Registry struct {
	mu       sync.RWMutex
	bindings map[string]*Entity
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{bindings: make(map[string]*Entity)}
}

// Add registers e under its type's FQN, replacing any earlier binding.
func (r *Registry) Add(e *Entity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings[e.Type.FQN()] = e
}

// Binding implements Provider.
func (r *Registry) Binding(t *edm.EntityType) (TableBinding, error) {
	if t == nil {
		return nil, odataerr.Internal("No table binding for a nil type")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.bindings[t.FQN()]
	if !ok {
		return nil, odataerr.Internal("No table binding found for type %s", t.FQN())
	}
	return e, nil
}

// Entity returns the concrete binding of t.
func (r *Registry) Entity(t *edm.EntityType) (*Entity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.bindings[t.FQN()]
	return e, ok
}
