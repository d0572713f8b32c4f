// Package testmodel provides the entity model shared by the package tests:
// a message header with user defined attributes, a composite-key entity with
// a complex property, a many-to-many pair, a parameterized calculation view,
// an aggregation view and a generated-key view with line items.
package testmodel

import (
	_ "embed"
	"sync"

	"github.com/nlstn/go-odata-sql/internal/metadata"
)

//go:embed model.yaml
var document []byte

var (
	once    sync.Once
	catalog *metadata.Catalog
	err     error
)

// Catalog returns the parsed test model. It panics if model.yaml is invalid.
func Catalog() *metadata.Catalog {
	once.Do(func() {
		catalog, err = metadata.Parse(document)
	})
	if err != nil {
		panic("testmodel: " + err.Error())
	}
	return catalog
}

// Document returns the raw model document.
func Document() []byte {
	return append([]byte(nil), document...)
}
