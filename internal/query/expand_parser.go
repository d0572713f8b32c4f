package query

import (
	"github.com/nlstn/go-odata-sql/internal/edm"
	"github.com/nlstn/go-odata-sql/internal/odataerr"
)

// ExpandPath is one comma-separated $expand item: a chain of navigation
// properties starting at the target entity type.
type ExpandPath []*edm.Property

// Types returns the entity types the path visits, excluding the start type.
func (p ExpandPath) Types() []*edm.EntityType {
	types := make([]*edm.EntityType, len(p))
	for i, nav := range p {
		types[i] = nav.Target
	}
	return types
}

// Expands reports whether the path visits t.
func (p ExpandPath) Expands(t *edm.EntityType) bool {
	for _, nav := range p {
		if nav.Target == t {
			return true
		}
	}
	return false
}

// ParseExpand parses the $expand query option. OData v2 expand items are
// plain navigation paths such as Entity2/Entity3; nested query options are
// not part of the protocol version.
func ParseExpand(expandStr string, target *edm.EntityType) ([]ExpandPath, error) {
	parts := splitTopLevel(expandStr, ',')
	result := make([]ExpandPath, 0, len(parts))

	for _, part := range parts {
		if part == "" {
			return nil, odataerr.BadRequest("Invalid $expand: empty item")
		}
		path, err := parseExpandPath(part, target)
		if err != nil {
			return nil, err
		}
		result = append(result, path)
	}

	return result, nil
}

func parseExpandPath(text string, target *edm.EntityType) (ExpandPath, error) {
	current := target
	var path ExpandPath
	for _, segment := range splitPath(text) {
		prop, ok := current.Property(segment)
		if !ok {
			return nil, odataerr.BadRequest("Navigation property %s not found on type %s", segment, current.FQN())
		}
		if prop.Kind != edm.KindNavigation {
			return nil, odataerr.BadRequest("Property %s of type %s is not a navigation property", segment, current.FQN())
		}
		path = append(path, prop)
		current = prop.Target
	}
	return path, nil
}
