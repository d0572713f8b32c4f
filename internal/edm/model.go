// Package edm models the entity data model a request is translated against:
// entity and complex types, their properties, entity sets, and the
// primitive types of OData v2 with their literal coercion rules.
package edm

import (
	"fmt"
	"strings"
)

// Kind classifies a property.
type Kind int

const (
	KindSimple Kind = iota
	KindComplex
	KindNavigation
)

func (k Kind) String() string {
	switch k {
	case KindSimple:
		return "SIMPLE"
	case KindComplex:
		return "COMPLEX"
	case KindNavigation:
		return "NAVIGATION"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Multiplicity of a navigation end.
type Multiplicity string

const (
	MultiplicityOne       Multiplicity = "1"
	MultiplicityZeroOrOne Multiplicity = "0..1"
	MultiplicityMany      Multiplicity = "*"
)

// Property is a named member of an EntityType.
type Property struct {
	Name string
	Kind Kind

	// Type is set for simple properties.
	Type SimpleType

	// Target is the complex type of a complex property or the entity type a
	// navigation property leads to.
	Target *EntityType

	Multiplicity Multiplicity
	Nullable     bool
}

// IsSimple reports whether p holds a primitive value.
func (p *Property) IsSimple() bool { return p.Kind == KindSimple }

// EntityType is a structural type: an entity type or, when Complex is set,
// a complex type.
type EntityType struct {
	Namespace string
	Name      string
	Complex   bool

	props []*Property
	keys  []string
}

// NewEntityType creates an empty entity type.
func NewEntityType(namespace, name string) *EntityType {
	return &EntityType{Namespace: namespace, Name: name}
}

// NewComplexType creates an empty complex type.
func NewComplexType(namespace, name string) *EntityType {
	return &EntityType{Namespace: namespace, Name: name, Complex: true}
}

// FQN returns the namespace qualified name.
func (t *EntityType) FQN() string {
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

func (t *EntityType) String() string { return t.FQN() }

// AddProperty appends p in declaration order.
func (t *EntityType) AddProperty(p *Property) error {
	if p == nil || p.Name == "" {
		return fmt.Errorf("property of %s must have a name", t.FQN())
	}
	if _, ok := t.Property(p.Name); ok {
		return fmt.Errorf("duplicate property %s on %s", p.Name, t.FQN())
	}
	if p.Kind == KindSimple && p.Type == "" {
		return fmt.Errorf("simple property %s on %s has no type", p.Name, t.FQN())
	}
	if p.Kind != KindSimple && p.Target == nil {
		return fmt.Errorf("%s property %s on %s has no target type", strings.ToLower(p.Kind.String()), p.Name, t.FQN())
	}
	t.props = append(t.props, p)
	return nil
}

// SetKeys declares the key properties in key order. Keys must be simple properties.
func (t *EntityType) SetKeys(names ...string) error {
	for _, name := range names {
		p, ok := t.Property(name)
		if !ok {
			return fmt.Errorf("key property %s not found on %s", name, t.FQN())
		}
		if p.Kind != KindSimple {
			return fmt.Errorf("key property %s on %s must be simple", name, t.FQN())
		}
	}
	t.keys = append([]string(nil), names...)
	return nil
}

// Property looks up a property of any kind by name.
func (t *EntityType) Property(name string) (*Property, bool) {
	for _, p := range t.props {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// Properties returns the simple and complex properties in declaration order.
func (t *EntityType) Properties() []*Property {
	out := make([]*Property, 0, len(t.props))
	for _, p := range t.props {
		if p.Kind != KindNavigation {
			out = append(out, p)
		}
	}
	return out
}

// NavigationProperties returns the navigation properties in declaration order.
func (t *EntityType) NavigationProperties() []*Property {
	var out []*Property
	for _, p := range t.props {
		if p.Kind == KindNavigation {
			out = append(out, p)
		}
	}
	return out
}

// KeyNames returns the key property names in key order.
func (t *EntityType) KeyNames() []string {
	return append([]string(nil), t.keys...)
}

// KeyProperties returns the key properties in key order.
func (t *EntityType) KeyProperties() []*Property {
	out := make([]*Property, 0, len(t.keys))
	for _, k := range t.keys {
		if p, ok := t.Property(k); ok {
			out = append(out, p)
		}
	}
	return out
}

// IsKey reports whether name is one of the key properties.
func (t *EntityType) IsKey(name string) bool {
	for _, k := range t.keys {
		if k == name {
			return true
		}
	}
	return false
}

// EntitySet is an addressable collection of entities of one type.
type EntitySet struct {
	Name string
	Type *EntityType
}

// Model is the set of types and entity sets of one service.
type Model struct {
	Namespace string

	types []*EntityType
	sets  []*EntitySet
}

// NewModel creates an empty model.
func NewModel(namespace string) *Model {
	return &Model{Namespace: namespace}
}

// AddType registers an entity or complex type.
func (m *Model) AddType(t *EntityType) error {
	if t.Namespace == "" {
		t.Namespace = m.Namespace
	}
	if _, ok := m.Type(t.FQN()); ok {
		return fmt.Errorf("duplicate type %s", t.FQN())
	}
	m.types = append(m.types, t)
	return nil
}

// Type looks up a type by qualified or simple name.
func (m *Model) Type(name string) (*EntityType, bool) {
	for _, t := range m.types {
		if t.FQN() == name {
			return t, true
		}
	}
	for _, t := range m.types {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// Types returns all registered types in registration order.
func (m *Model) Types() []*EntityType {
	return append([]*EntityType(nil), m.types...)
}

// AddEntitySet exposes t under name.
func (m *Model) AddEntitySet(name string, t *EntityType) error {
	if t.Complex {
		return fmt.Errorf("complex type %s cannot back entity set %s", t.FQN(), name)
	}
	if _, ok := m.EntitySet(name); ok {
		return fmt.Errorf("duplicate entity set %s", name)
	}
	m.sets = append(m.sets, &EntitySet{Name: name, Type: t})
	return nil
}

// EntitySet looks up an entity set by name.
func (m *Model) EntitySet(name string) (*EntitySet, bool) {
	for _, s := range m.sets {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// EntitySetOf returns the first entity set exposing t.
func (m *Model) EntitySetOf(t *EntityType) (*EntitySet, bool) {
	for _, s := range m.sets {
		if s.Type == t {
			return s, true
		}
	}
	return nil, false
}

// EntitySets returns all entity sets in registration order.
func (m *Model) EntitySets() []*EntitySet {
	return append([]*EntitySet(nil), m.sets...)
}
