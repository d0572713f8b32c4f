package metadata

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"gorm.io/gorm/schema"

	"github.com/nlstn/go-odata-sql/internal/binding"
	"github.com/nlstn/go-odata-sql/internal/edm"
)

// schemaCache is shared by all FromStructs calls, the way gorm shares one
// cache per *gorm.DB.
var schemaCache sync.Map

// FromStructs derives a catalog from gorm models. Table and column names
// follow namer (schema.NamingStrategy{} when nil); entity sets are the
// pluralized struct names. Every navigation target must be passed too.
//
// The odata struct tag refines a field:
//
//	key        marks a key property; defaults to the gorm primary key
//	param      marks an input parameter of a parameterized view
//	generated  marks the key as synthetic
//	sqltype=X  overrides the recorded SQL type
//	aggregate=F wraps the column in aggregate function F
func FromStructs(namespace string, namer schema.Namer, entities ...any) (*Catalog, error) {
	if namer == nil {
		namer = schema.NamingStrategy{}
	}
	model := edm.NewModel(namespace)
	registry := binding.NewRegistry()

	schemas := make([]*schema.Schema, 0, len(entities))
	types := make(map[reflect.Type]*edm.EntityType, len(entities))
	for _, entity := range entities {
		sch, err := schema.Parse(entity, &schemaCache, namer)
		if err != nil {
			return nil, fmt.Errorf("failed to analyze %T: %w", entity, err)
		}
		t := edm.NewEntityType(namespace, sch.Name)
		if err := model.AddType(t); err != nil {
			return nil, err
		}
		schemas = append(schemas, sch)
		types[sch.ModelType] = t
	}

	entitiesByType := make(map[*edm.EntityType]*binding.Entity, len(schemas))
	for _, sch := range schemas {
		t := types[sch.ModelType]
		entity, err := analyzeSchema(sch, t)
		if err != nil {
			return nil, err
		}
		entitiesByType[t] = entity
	}

	for _, sch := range schemas {
		if err := analyzeRelationships(sch, types, entitiesByType); err != nil {
			return nil, err
		}
	}

	for _, sch := range schemas {
		t := types[sch.ModelType]
		registry.Add(entitiesByType[t])
		if err := model.AddEntitySet(pluralize(sch.Name), t); err != nil {
			return nil, err
		}
	}

	return &Catalog{Model: model, Bindings: registry}, nil
}

// analyzeSchema adds the column-backed fields of sch to t.
func analyzeSchema(sch *schema.Schema, t *edm.EntityType) (*binding.Entity, error) {
	entity := &binding.Entity{
		Type:          t,
		Table:         sch.Table,
		Structure:     binding.Table,
		Columns:       make(map[string]binding.ColumnInfo),
		JoinColumns:   make(map[string][]string),
		MappingTables: make(map[string]binding.MappingTable),
	}

	var keys []string
	for _, field := range sch.Fields {
		if field.DBName == "" || !field.Readable {
			continue
		}
		typ, err := edm.FromGoType(field.FieldType)
		if err != nil {
			// Scanner types such as gorm.DeletedAt: fall back to the gorm data type.
			if typ, err = edm.FromSQLType(sqlTypeOf(field)); err != nil {
				return nil, fmt.Errorf("field %s.%s: %w", sch.Name, field.Name, err)
			}
		}

		tags := parseODataTag(field.Tag.Get("odata"))
		nullable := !field.NotNull && !field.PrimaryKey
		if field.FieldType.Kind() == reflect.Ptr {
			nullable = true
		}
		if err := t.AddProperty(&edm.Property{Name: field.Name, Kind: edm.KindSimple, Type: typ, Nullable: nullable}); err != nil {
			return nil, err
		}

		sqlType := tags["sqltype"]
		if sqlType == "" {
			sqlType = sqlTypeOf(field)
		}
		entity.Columns[field.Name] = binding.ColumnInfo{Name: field.DBName, SQLType: sqlType, Nullable: nullable}

		if _, ok := tags["key"]; ok {
			keys = append(keys, field.Name)
		}
		if _, ok := tags["param"]; ok {
			entity.Params = append(entity.Params, field.Name)
			entity.Structure = binding.View
		}
		if _, ok := tags["generated"]; ok {
			entity.Generated = true
		}
		if fn := tags["aggregate"]; fn != "" {
			if entity.Aggregation == nil {
				entity.Aggregation = &binding.Aggregation{Columns: make(map[string]string)}
			}
			entity.Aggregation.Columns[field.DBName] = strings.ToUpper(fn)
		}
	}

	if len(keys) == 0 {
		for _, field := range sch.PrimaryFields {
			keys = append(keys, field.Name)
		}
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("entity %s must have at least one key property (use `odata:\"key\"` tag or a gorm primary key)", sch.Name)
	}
	if err := t.SetKeys(keys...); err != nil {
		return nil, err
	}
	return entity, nil
}

// analyzeRelationships turns the gorm relationships of sch into navigation
// properties and records the join columns on both ends.
func analyzeRelationships(sch *schema.Schema, types map[reflect.Type]*edm.EntityType, entities map[*edm.EntityType]*binding.Entity) error {
	owner := types[sch.ModelType]
	// Relations is a map; walk the fields to keep declaration order.
	for _, field := range sch.Fields {
		rel, ok := sch.Relationships.Relations[field.Name]
		if !ok || rel.Polymorphic != nil {
			continue
		}
		target, ok := types[rel.FieldSchema.ModelType]
		if !ok {
			return fmt.Errorf("navigation %s.%s targets %s, which was not passed to FromStructs", sch.Name, rel.Name, rel.FieldSchema.Name)
		}

		multiplicity := edm.MultiplicityZeroOrOne
		if rel.Type == schema.HasMany || rel.Type == schema.Many2Many {
			multiplicity = edm.MultiplicityMany
		}
		if err := owner.AddProperty(&edm.Property{
			Name:         rel.Name,
			Kind:         edm.KindNavigation,
			Target:       target,
			Multiplicity: multiplicity,
			Nullable:     true,
		}); err != nil {
			return err
		}

		ownerEntity, targetEntity := entities[owner], entities[target]
		if rel.Type == schema.Many2Many {
			addMappingTable(rel, owner, target, ownerEntity, targetEntity)
			continue
		}

		var ownerCols, targetCols []string
		for _, ref := range rel.References {
			if ref.PrimaryKey == nil || ref.ForeignKey == nil {
				continue
			}
			if ref.OwnPrimaryKey {
				ownerCols = append(ownerCols, ref.PrimaryKey.DBName)
				targetCols = append(targetCols, ref.ForeignKey.DBName)
			} else {
				ownerCols = append(ownerCols, ref.ForeignKey.DBName)
				targetCols = append(targetCols, ref.PrimaryKey.DBName)
			}
		}
		ownerEntity.JoinColumns[target.FQN()] = ownerCols
		if _, declared := targetEntity.JoinColumns[owner.FQN()]; !declared {
			targetEntity.JoinColumns[owner.FQN()] = targetCols
		}
	}
	return nil
}

func addMappingTable(rel *schema.Relationship, owner, target *edm.EntityType, ownerEntity, targetEntity *binding.Entity) {
	var ownerKeys, ownerRefs, targetKeys, targetRefs []string
	for _, ref := range rel.References {
		if ref.PrimaryKey == nil || ref.ForeignKey == nil {
			continue
		}
		if ref.OwnPrimaryKey {
			ownerKeys = append(ownerKeys, ref.PrimaryKey.DBName)
			ownerRefs = append(ownerRefs, ref.ForeignKey.DBName)
		} else {
			targetKeys = append(targetKeys, ref.PrimaryKey.DBName)
			targetRefs = append(targetRefs, ref.ForeignKey.DBName)
		}
	}

	ownerEntity.JoinColumns[target.FQN()] = ownerKeys
	ownerEntity.MappingTables[target.FQN()] = binding.MappingTable{Name: rel.JoinTable.Table, JoinColumns: ownerRefs}
	if _, declared := targetEntity.MappingTables[owner.FQN()]; !declared {
		targetEntity.JoinColumns[owner.FQN()] = targetKeys
		targetEntity.MappingTables[owner.FQN()] = binding.MappingTable{Name: rel.JoinTable.Table, JoinColumns: targetRefs}
	}
}

// sqlTypeOf approximates the column type gorm would migrate field to.
func sqlTypeOf(field *schema.Field) string {
	if t, ok := field.TagSettings["TYPE"]; ok {
		return strings.ToUpper(t)
	}
	switch field.DataType {
	case schema.Bool:
		return "BOOLEAN"
	case schema.Int, schema.Uint:
		if field.Size > 32 {
			return "BIGINT"
		}
		return "INTEGER"
	case schema.Float:
		return "DOUBLE"
	case schema.String:
		return "VARCHAR"
	case schema.Time:
		return "TIMESTAMP"
	case schema.Bytes:
		return "BLOB"
	}
	return strings.ToUpper(string(field.DataType))
}

// parseODataTag splits key,param,aggregate=SUM into a map.
func parseODataTag(tag string) map[string]string {
	result := make(map[string]string)
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, _ := strings.Cut(part, "=")
		result[strings.ToLower(name)] = value
	}
	return result
}

// pluralize creates a simple pluralized form of the entity name
func pluralize(word string) string {
	if word == "" {
		return word
	}

	switch {
	case strings.HasSuffix(word, "y") && len(word) > 1 && !isVowel(rune(word[len(word)-2])):
		// Category -> Categories, but Key -> Keys
		return word[:len(word)-1] + "ies"
	case strings.HasSuffix(word, "s") || strings.HasSuffix(word, "x") || strings.HasSuffix(word, "z") ||
		strings.HasSuffix(word, "ch") || strings.HasSuffix(word, "sh"):
		return word + "es"
	default:
		return word + "s"
	}
}

// isVowel checks if a rune is a vowel
func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u', 'A', 'E', 'I', 'O', 'U':
		return true
	default:
		return false
	}
}
