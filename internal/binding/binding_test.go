package binding

import (
	"errors"
	"reflect"
	"testing"

	"github.com/nlstn/go-odata-sql/internal/edm"
	"github.com/nlstn/go-odata-sql/internal/odataerr"
)

func fixture(t *testing.T) (*edm.EntityType, *edm.EntityType, *Entity) {
	t.Helper()
	sales := edm.NewEntityType("org.example", "Sales")
	region := edm.NewEntityType("org.example", "Region")
	for _, p := range []*edm.Property{
		{Name: "Id", Kind: edm.KindSimple, Type: edm.Int32},
		{Name: "Amount", Kind: edm.KindSimple, Type: edm.Decimal},
		{Name: "Comment", Kind: edm.KindSimple, Type: edm.String},
	} {
		if err := sales.AddProperty(p); err != nil {
			t.Fatal(err)
		}
	}
	e := &Entity{
		Type:  sales,
		Table: "SALES",
		Columns: map[string]ColumnInfo{
			"Id":     {Name: "ID", SQLType: "INTEGER"},
			"Amount": {Name: "AMOUNT", SQLType: "DECIMAL"},
		},
		JoinColumns:   map[string][]string{region.FQN(): {"REGION_ID"}},
		MappingTables: map[string]MappingTable{region.FQN(): {Name: "SALES_REGION", JoinColumns: []string{"SALES_ID"}}},
		Params:        []string{"Year"},
		Aggregation:   &Aggregation{Columns: map[string]string{"AMOUNT": "sum"}},
	}
	return sales, region, e
}

func TestEntityColumns(t *testing.T) {
	_, _, e := fixture(t)

	col, err := e.ColumnName("Amount")
	if err != nil || col != "AMOUNT" {
		t.Fatalf("ColumnName(Amount) = %q, %v", col, err)
	}
	if e.IsPropertyMapped("Comment") {
		t.Error("Comment is transient and must not be mapped")
	}
	_, err = e.ColumnName("Comment")
	if !errors.Is(err, odataerr.ErrInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if err.Error() != "Unable to find binding for type org.example.Sales and property Comment" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if e.DataStructureType() != Table {
		t.Errorf("default data structure type = %s", e.DataStructureType())
	}
}

func TestEntityJoins(t *testing.T) {
	sales, region, e := fixture(t)

	cols, err := e.JoinColumnTo(region)
	if err != nil || !reflect.DeepEqual(cols, []string{"REGION_ID"}) {
		t.Fatalf("JoinColumnTo = %v, %v", cols, err)
	}
	if !e.HasMappingTable(region) || e.HasMappingTable(sales) {
		t.Error("HasMappingTable mismatch")
	}
	name, err := e.MappingTableName(region)
	if err != nil || name != "SALES_REGION" {
		t.Errorf("MappingTableName = %q, %v", name, err)
	}
	_, err = e.JoinColumnTo(sales)
	if err == nil || err.Error() != "No join column definition found from type org.example.Sales to type org.example.Sales" {
		t.Errorf("unexpected error %v", err)
	}
}

func TestEntityAggregation(t *testing.T) {
	_, _, e := fixture(t)

	if !e.HasAggregationType() || e.IsAggregationTypeExplicit() {
		t.Fatal("expected implicit aggregation")
	}
	if !e.IsColumnContainedInAggregationProp("AMOUNT") || e.IsColumnContainedInAggregationProp("ID") {
		t.Error("aggregation column mismatch")
	}
	if got := e.ColumnAggregationType("AMOUNT"); got != "SUM" {
		t.Errorf("ColumnAggregationType = %q, want SUM", got)
	}
	if !e.IsParameter("Year") || e.IsParameter("Id") {
		t.Error("IsParameter mismatch")
	}
}

func TestRegistry(t *testing.T) {
	sales, region, e := fixture(t)
	r := NewRegistry()
	r.Add(e)

	b, err := r.Binding(sales)
	if err != nil || b.TableName() != "SALES" {
		t.Fatalf("Binding(sales) = %v, %v", b, err)
	}
	if _, err := r.Binding(region); !errors.Is(err, odataerr.ErrInternal) {
		t.Errorf("expected internal error for unbound type, got %v", err)
	}
}
