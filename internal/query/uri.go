package query

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/nlstn/go-odata-sql/internal/edm"
	"github.com/nlstn/go-odata-sql/internal/odataerr"
)

// KeyPredicate binds a key or input parameter property to a literal value.
type KeyPredicate struct {
	Property *edm.Property
	Literal  *Literal
}

// Resource is a parsed resource path: an entity set, optionally addressed by
// key, optionally followed by one navigation and a trailing $count.
type Resource struct {
	StartSet      *edm.EntitySet
	KeyPredicates []KeyPredicate

	// Navigation is set for Set(key)/Nav paths.
	Navigation          *edm.Property
	TargetSet           *edm.EntitySet
	TargetKeyPredicates []KeyPredicate

	Count bool
}

// Target returns the entity type the request reads.
func (r *Resource) Target() *edm.EntityType {
	return r.TargetSet.Type
}

// IsEntity reports whether the path addresses a single entity.
func (r *Resource) IsEntity() bool {
	if r.Navigation == nil {
		return len(r.KeyPredicates) > 0 && coversKeys(r.StartSet.Type, r.KeyPredicates)
	}
	if len(r.TargetKeyPredicates) > 0 {
		return true
	}
	return r.Navigation.Multiplicity != edm.MultiplicityMany
}

func coversKeys(t *edm.EntityType, predicates []KeyPredicate) bool {
	for _, key := range t.KeyNames() {
		found := false
		for _, p := range predicates {
			if p.Property.Name == key {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// ParseResource parses a resource path relative to the service root, for
// example Employees('42')/Orders/$count.
func ParseResource(model *edm.Model, path string) (*Resource, error) {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		return nil, odataerr.BadRequest("Invalid resource path").Wrap(errEmptyResourcePath)
	}
	if unescaped, err := url.PathUnescape(path); err == nil {
		path = unescaped
	}

	segments := splitTopLevel(path, '/')
	if segments[len(segments)-1] == "$count" {
		segments = segments[:len(segments)-1]
		if len(segments) == 0 {
			return nil, odataerr.BadRequest("Invalid resource path").Wrap(errEmptyResourcePath)
		}
		res, err := parseSegments(model, segments)
		if err != nil {
			return nil, err
		}
		res.Count = true
		return res, nil
	}
	return parseSegments(model, segments)
}

func parseSegments(model *edm.Model, segments []string) (*Resource, error) {
	if len(segments) > 2 {
		return nil, odataerr.NotImplemented("Resource paths with more than one navigation are not supported: %s", strings.Join(segments, "/"))
	}

	name, keyText, err := splitSegment(segments[0])
	if err != nil {
		return nil, err
	}
	set, ok := model.EntitySet(name)
	if !ok {
		return nil, odataerr.BadRequest("Entity set %s not found", name)
	}
	predicates, err := parseKeyPredicates(set.Type, keyText)
	if err != nil {
		return nil, err
	}

	res := &Resource{StartSet: set, KeyPredicates: predicates, TargetSet: set}
	if len(segments) == 1 {
		return res, nil
	}

	if len(predicates) == 0 {
		return nil, odataerr.BadRequest("Navigation from %s requires a key predicate", set.Name)
	}
	navName, navKeyText, err := splitSegment(segments[1])
	if err != nil {
		return nil, err
	}
	nav, ok := set.Type.Property(navName)
	if !ok || nav.Kind != edm.KindNavigation {
		if ok {
			return nil, odataerr.NotImplemented("Property access %s is not supported", navName)
		}
		return nil, odataerr.BadRequest("Navigation property %s not found on type %s", navName, set.Type.FQN())
	}
	targetSet, ok := model.EntitySetOf(nav.Target)
	if !ok {
		return nil, odataerr.Internal("No entity set found for type %s", nav.Target.FQN())
	}
	targetPredicates, err := parseKeyPredicates(targetSet.Type, navKeyText)
	if err != nil {
		return nil, err
	}

	res.Navigation = nav
	res.TargetSet = targetSet
	res.TargetKeyPredicates = targetPredicates
	return res, nil
}

// splitSegment splits Name(keys) into its name and the key text between the
// parentheses.
func splitSegment(segment string) (string, string, error) {
	open := strings.IndexByte(segment, '(')
	if open < 0 {
		return segment, "", nil
	}
	if !strings.HasSuffix(segment, ")") {
		return "", "", odataerr.BadRequest("Invalid resource segment %s", segment).Wrap(errUnbalancedKeyParen)
	}
	return segment[:open], segment[open+1 : len(segment)-1], nil
}

// parseKeyPredicates parses '42', 42L or K1=1,K2='x'. A single unnamed value
// addresses the sole key property.
func parseKeyPredicates(t *edm.EntityType, text string) ([]KeyPredicate, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	parts := splitTopLevel(text, ',')
	result := make([]KeyPredicate, 0, len(parts))

	for _, part := range parts {
		name, value, named := cutAssignment(part)
		var prop *edm.Property
		if named {
			p, ok := t.Property(name)
			if !ok || p.Kind != edm.KindSimple {
				return nil, odataerr.BadRequest("Key property %s not found on type %s", name, t.FQN())
			}
			prop = p
		} else {
			keys := t.KeyProperties()
			if len(parts) != 1 || len(keys) != 1 {
				return nil, odataerr.BadRequest("Type %s requires named key predicates", t.FQN())
			}
			prop = keys[0]
		}

		lit, err := parseKeyLiteral(prop, value)
		if err != nil {
			return nil, err
		}
		result = append(result, KeyPredicate{Property: prop, Literal: lit})
	}

	return result, nil
}

// cutAssignment splits Name=value outside of quotes.
func cutAssignment(part string) (string, string, bool) {
	for i, ch := range part {
		if ch == '\'' {
			return "", part, false
		}
		if ch == '=' {
			return strings.TrimSpace(part[:i]), strings.TrimSpace(part[i+1:]), true
		}
	}
	return "", part, false
}

// parseKeyLiteral reads a single literal and coerces it to the property type.
func parseKeyLiteral(prop *edm.Property, text string) (*Literal, error) {
	node, err := ParseExpression(text)
	if err != nil {
		return nil, odataerr.BadRequest("Invalid key predicate for %s", prop.Name).Wrap(err)
	}
	lit, ok := node.(*LiteralExpr)
	if !ok || lit.Type == edm.Null {
		return nil, odataerr.BadRequest("Invalid key predicate for %s", prop.Name).Wrap(errInvalidKeyLiteral)
	}

	coerced := &Literal{Type: prop.Type, Text: lit.Text}
	if _, err := coerced.Value(); err != nil {
		return nil, odataerr.BadRequest("Invalid key predicate for %s", prop.Name).
			Wrap(fmt.Errorf("%w: %v", errInvalidKeyLiteral, err))
	}
	return coerced, nil
}
