package query

import (
	"github.com/nlstn/go-odata-sql/internal/edm"
	"github.com/nlstn/go-odata-sql/internal/odataerr"
)

// ParseSelect parses the $select query option and returns the selected
// simple and complex properties of target in request order. A nil result
// selects every property.
//
// Paths into expanded entities (Entity5/Name) are validated but contribute
// no properties: expanded entities are always read in full. A path into a
// complex property selects the whole complex property.
func ParseSelect(selectStr string, target *edm.EntityType) ([]*edm.Property, error) {
	var result []*edm.Property
	seen := make(map[string]bool)

	for _, part := range splitTopLevel(selectStr, ',') {
		if part == "" {
			return nil, odataerr.BadRequest("Invalid $select: empty item")
		}
		if part == "*" {
			return nil, nil
		}

		segments := splitPath(part)
		prop, ok := target.Property(segments[0])
		if !ok {
			return nil, odataerr.BadRequest("Property %s not found on type %s", segments[0], target.FQN())
		}

		if prop.Kind == edm.KindNavigation {
			if _, err := ResolvePath(target, segments); err != nil {
				return nil, err
			}
			continue
		}
		if len(segments) > 1 && prop.Kind == edm.KindSimple {
			return nil, odataerr.BadRequest("Property %s of type %s has no member %s", prop.Name, prop.Type, segments[1])
		}

		if !seen[prop.Name] {
			seen[prop.Name] = true
			result = append(result, prop)
		}
	}

	if result == nil {
		// Only navigation paths were selected; keys still identify the entity.
		result = []*edm.Property{}
	}
	return result, nil
}
