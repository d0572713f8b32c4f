// Package metadata builds the entity data model and its table bindings from
// model documents or gorm-tagged structs.
package metadata

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nlstn/go-odata-sql/internal/binding"
	"github.com/nlstn/go-odata-sql/internal/edm"
)

// Catalog is a model together with the bindings of its types.
type Catalog struct {
	Model    *edm.Model
	Bindings *binding.Registry
}

// Document is the on-disk model format. JSON documents are accepted too,
// since JSON is a subset of YAML.
type Document struct {
	Namespace    string         `yaml:"namespace"`
	Types        []TypeDoc      `yaml:"types"`
	ComplexTypes []TypeDoc      `yaml:"complexTypes"`
	EntitySets   []EntitySetDoc `yaml:"entitySets"`
}

// TypeDoc describes one entity or complex type and its table binding.
type TypeDoc struct {
	Name      string `yaml:"name"`
	Table     string `yaml:"table"`
	Structure string `yaml:"dataStructureType"`
	// EntitySet defaults to the type name unless the document lists its
	// entity sets explicitly. Ignored for complex types.
	EntitySet     string                     `yaml:"entitySet"`
	Keys          []string                   `yaml:"keys"`
	KeyGenerated  bool                       `yaml:"keyGenerated"`
	Parameters    []string                   `yaml:"parameters"`
	Aggregation   *AggregationDoc            `yaml:"aggregation"`
	Properties    []PropertyDoc              `yaml:"properties"`
	Navigations   []NavigationDoc            `yaml:"navigations"`
	Joins         map[string][]string        `yaml:"joinColumns"`
	MappingTables map[string]MappingTableDoc `yaml:"mappingTables"`
}

// PropertyDoc describes a simple or complex property. Complex properties name
// a complex type in Complex and carry no column.
type PropertyDoc struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Complex  string `yaml:"complex"`
	Column   string `yaml:"column"`
	SQLType  string `yaml:"sqlType"`
	Nullable *bool  `yaml:"nullable"`
}

// NavigationDoc describes a navigation property.
type NavigationDoc struct {
	Name         string `yaml:"name"`
	Target       string `yaml:"target"`
	Multiplicity string `yaml:"multiplicity"`
}

// MappingTableDoc describes a many-to-many mapping table seen from one side.
type MappingTableDoc struct {
	Name        string   `yaml:"name"`
	JoinColumns []string `yaml:"joinColumns"`
}

// AggregationDoc describes a pre-aggregated view.
type AggregationDoc struct {
	Explicit bool              `yaml:"explicit"`
	Columns  map[string]string `yaml:"columns"`
}

// LoadFile reads a model document from path.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model %s: %w", path, err)
	}
	catalog, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid model %s: %w", path, err)
	}
	return catalog, nil
}

// Load reads a model document from r.
func Load(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates a model document.
func Parse(data []byte) (*Catalog, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	return doc.Build()
}

// Build creates the catalog described by d. Types are declared first so
// properties and navigations may reference types declared later.
func (d *Document) Build() (*Catalog, error) {
	if d.Namespace == "" {
		return nil, fmt.Errorf("model namespace is required")
	}
	model := edm.NewModel(d.Namespace)
	registry := binding.NewRegistry()

	declared := make(map[*TypeDoc]*edm.EntityType)
	declare := func(doc *TypeDoc, complex bool) error {
		if doc.Name == "" {
			return fmt.Errorf("type without name")
		}
		t := edm.NewEntityType(d.Namespace, doc.Name)
		if complex {
			t = edm.NewComplexType(d.Namespace, doc.Name)
		}
		if err := model.AddType(t); err != nil {
			return err
		}
		declared[doc] = t
		return nil
	}
	for i := range d.ComplexTypes {
		if err := declare(&d.ComplexTypes[i], true); err != nil {
			return nil, err
		}
	}
	for i := range d.Types {
		if err := declare(&d.Types[i], false); err != nil {
			return nil, err
		}
	}

	for i := range d.ComplexTypes {
		doc := &d.ComplexTypes[i]
		if err := d.buildType(model, registry, doc, declared[doc]); err != nil {
			return nil, err
		}
	}
	for i := range d.Types {
		doc := &d.Types[i]
		t := declared[doc]
		if err := d.buildType(model, registry, doc, t); err != nil {
			return nil, err
		}
		if len(t.KeyNames()) == 0 {
			return nil, fmt.Errorf("entity type %s must declare at least one key", t.FQN())
		}
		if doc.EntitySet == "" && len(d.EntitySets) == 0 {
			if err := model.AddEntitySet(doc.Name, t); err != nil {
				return nil, err
			}
		} else if doc.EntitySet != "" {
			if err := model.AddEntitySet(doc.EntitySet, t); err != nil {
				return nil, err
			}
		}
	}

	for _, set := range d.EntitySets {
		t, ok := model.Type(set.Type)
		if !ok {
			return nil, fmt.Errorf("entity set %s references unknown type %s", set.Name, set.Type)
		}
		if err := model.AddEntitySet(set.Name, t); err != nil {
			return nil, err
		}
	}

	return &Catalog{Model: model, Bindings: registry}, nil
}

// EntitySetDoc exposes a type under an explicit set name.
type EntitySetDoc struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

func (d *Document) buildType(model *edm.Model, registry *binding.Registry, doc *TypeDoc, t *edm.EntityType) error {
	entity := &binding.Entity{
		Type:          t,
		Table:         doc.Table,
		Structure:     binding.DataStructureType(strings.ToUpper(doc.Structure)),
		Columns:       make(map[string]binding.ColumnInfo),
		JoinColumns:   make(map[string][]string),
		MappingTables: make(map[string]binding.MappingTable),
		Params:        doc.Parameters,
		Generated:     doc.KeyGenerated,
	}
	if entity.Table == "" {
		entity.Table = strings.ToUpper(doc.Name)
	}
	switch entity.DataStructureType() {
	case binding.Table, binding.View, binding.CalcView:
	default:
		return fmt.Errorf("type %s: unknown data structure type %s", t.FQN(), doc.Structure)
	}

	for _, p := range doc.Properties {
		prop, info, err := buildProperty(model, t, p)
		if err != nil {
			return err
		}
		if err := t.AddProperty(prop); err != nil {
			return err
		}
		if info != nil {
			entity.Columns[prop.Name] = *info
		}
	}
	for _, param := range doc.Parameters {
		if _, ok := t.Property(param); !ok {
			return fmt.Errorf("type %s: parameter %s is not a property", t.FQN(), param)
		}
	}

	for _, nav := range doc.Navigations {
		target, ok := model.Type(nav.Target)
		if !ok {
			return fmt.Errorf("type %s: navigation %s targets unknown type %s", t.FQN(), nav.Name, nav.Target)
		}
		multiplicity := edm.Multiplicity(nav.Multiplicity)
		switch multiplicity {
		case "":
			multiplicity = edm.MultiplicityOne
		case edm.MultiplicityOne, edm.MultiplicityZeroOrOne, edm.MultiplicityMany:
		default:
			return fmt.Errorf("type %s: navigation %s has invalid multiplicity %s", t.FQN(), nav.Name, nav.Multiplicity)
		}
		if err := t.AddProperty(&edm.Property{
			Name:         nav.Name,
			Kind:         edm.KindNavigation,
			Target:       target,
			Multiplicity: multiplicity,
			Nullable:     multiplicity != edm.MultiplicityOne,
		}); err != nil {
			return err
		}
	}

	for targetName, cols := range doc.Joins {
		target, ok := model.Type(targetName)
		if !ok {
			return fmt.Errorf("type %s: join columns reference unknown type %s", t.FQN(), targetName)
		}
		entity.JoinColumns[target.FQN()] = cols
	}
	for targetName, mt := range doc.MappingTables {
		target, ok := model.Type(targetName)
		if !ok {
			return fmt.Errorf("type %s: mapping table references unknown type %s", t.FQN(), targetName)
		}
		entity.MappingTables[target.FQN()] = binding.MappingTable{Name: mt.Name, JoinColumns: mt.JoinColumns}
	}

	if doc.Aggregation != nil {
		columns := make(map[string]string, len(doc.Aggregation.Columns))
		for col, fn := range doc.Aggregation.Columns {
			columns[col] = strings.ToUpper(fn)
		}
		entity.Aggregation = &binding.Aggregation{Explicit: doc.Aggregation.Explicit, Columns: columns}
	}

	if len(doc.Keys) > 0 {
		if err := t.SetKeys(doc.Keys...); err != nil {
			return err
		}
	}

	registry.Add(entity)
	return nil
}

// buildProperty resolves the EDM type of a property from its declared type
// or, failing that, its SQL type.
func buildProperty(model *edm.Model, owner *edm.EntityType, p PropertyDoc) (*edm.Property, *binding.ColumnInfo, error) {
	if p.Complex != "" {
		target, ok := model.Type(p.Complex)
		if !ok || !target.Complex {
			return nil, nil, fmt.Errorf("type %s: property %s references unknown complex type %s", owner.FQN(), p.Name, p.Complex)
		}
		return &edm.Property{Name: p.Name, Kind: edm.KindComplex, Target: target, Nullable: true}, nil, nil
	}

	var typ edm.SimpleType
	switch {
	case p.Type != "":
		name := p.Type
		if !strings.HasPrefix(name, "Edm.") {
			name = "Edm." + name
		}
		if !edm.IsValidType(name) {
			return nil, nil, fmt.Errorf("type %s: property %s has unknown type %s", owner.FQN(), p.Name, p.Type)
		}
		typ = edm.SimpleType(name)
	case p.SQLType != "":
		t, err := edm.FromSQLType(p.SQLType)
		if err != nil {
			return nil, nil, fmt.Errorf("type %s: property %s: %w", owner.FQN(), p.Name, err)
		}
		typ = t
	default:
		return nil, nil, fmt.Errorf("type %s: property %s needs a type or sqlType", owner.FQN(), p.Name)
	}

	nullable := true
	if p.Nullable != nil {
		nullable = *p.Nullable
	}
	prop := &edm.Property{Name: p.Name, Kind: edm.KindSimple, Type: typ, Nullable: nullable}

	if p.Column == "" {
		// Transient property without a column.
		return prop, nil, nil
	}
	return prop, &binding.ColumnInfo{Name: p.Column, SQLType: p.SQLType, Nullable: nullable}, nil
}
