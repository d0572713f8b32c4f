package edm

import "testing"

func newHeader(t *testing.T) *EntityType {
	t.Helper()
	header := NewEntityType("org.example", "Entity1")
	for _, p := range []*Property{
		{Name: "MessageGuid", Kind: KindSimple, Type: String},
		{Name: "Status", Kind: KindSimple, Type: String},
		{Name: "LogEnd", Kind: KindSimple, Type: DateTime},
	} {
		if err := header.AddProperty(p); err != nil {
			t.Fatalf("AddProperty(%s): %v", p.Name, err)
		}
	}
	if err := header.SetKeys("MessageGuid"); err != nil {
		t.Fatalf("SetKeys: %v", err)
	}
	return header
}

func TestEntityTypeProperties(t *testing.T) {
	header := newHeader(t)
	attr := NewEntityType("org.example", "Entity2")
	if err := attr.AddProperty(&Property{Name: "Id", Kind: KindSimple, Type: String}); err != nil {
		t.Fatal(err)
	}
	if err := header.AddProperty(&Property{Name: "Attributes", Kind: KindNavigation, Target: attr, Multiplicity: MultiplicityMany}); err != nil {
		t.Fatal(err)
	}

	if header.FQN() != "org.example.Entity1" {
		t.Errorf("FQN() = %s", header.FQN())
	}
	props := header.Properties()
	if len(props) != 3 || props[0].Name != "MessageGuid" || props[2].Name != "LogEnd" {
		t.Fatalf("unexpected properties %v", props)
	}
	navs := header.NavigationProperties()
	if len(navs) != 1 || navs[0].Target != attr {
		t.Fatalf("unexpected navigation properties %v", navs)
	}
	if !header.IsKey("MessageGuid") || header.IsKey("Status") {
		t.Error("IsKey mismatch")
	}
	keys := header.KeyProperties()
	if len(keys) != 1 || keys[0].Name != "MessageGuid" {
		t.Errorf("KeyProperties() = %v", keys)
	}
}

func TestEntityTypeValidation(t *testing.T) {
	header := newHeader(t)

	if err := header.AddProperty(&Property{Name: "Status", Kind: KindSimple, Type: String}); err == nil {
		t.Error("expected duplicate property error")
	}
	if err := header.AddProperty(&Property{Name: "Untyped", Kind: KindSimple}); err == nil {
		t.Error("expected missing type error")
	}
	if err := header.AddProperty(&Property{Name: "Nav", Kind: KindNavigation}); err == nil {
		t.Error("expected missing target error")
	}
	if err := header.SetKeys("Missing"); err == nil {
		t.Error("expected missing key error")
	}
}

func TestModelLookup(t *testing.T) {
	m := NewModel("org.example")
	header := newHeader(t)
	address := NewComplexType("", "Address")

	if err := m.AddType(header); err != nil {
		t.Fatal(err)
	}
	if err := m.AddType(address); err != nil {
		t.Fatal(err)
	}
	if address.Namespace != "org.example" {
		t.Errorf("complex type namespace = %q", address.Namespace)
	}
	if err := m.AddEntitySet("Entities1", header); err != nil {
		t.Fatal(err)
	}
	if err := m.AddEntitySet("Addresses", address); err == nil {
		t.Error("complex type must not back an entity set")
	}
	if err := m.AddEntitySet("Entities1", header); err == nil {
		t.Error("expected duplicate entity set error")
	}

	if got, ok := m.Type("Entity1"); !ok || got != header {
		t.Error("lookup by simple name failed")
	}
	if got, ok := m.Type("org.example.Entity1"); !ok || got != header {
		t.Error("lookup by FQN failed")
	}
	set, ok := m.EntitySetOf(header)
	if !ok || set.Name != "Entities1" {
		t.Errorf("EntitySetOf() = %v, %v", set, ok)
	}
}
