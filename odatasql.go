// Package odatasql translates OData v2 read requests into parameterized SQL
// SELECT statements.
//
// A Translator owns an entity data model together with the table bindings
// of its types. Each request path and its system query options ($filter,
// $select, $expand, $orderby, $top, $skip, $skiptoken) become one Statement:
// SQL text with positional ? placeholders, the values bound to them in
// placeholder order, and the select list labels used to read result rows.
//
//	catalog, err := odatasql.LoadModel("model.yaml")
//	if err != nil {
//	    return err
//	}
//	tr := odatasql.NewTranslator(catalog, odatasql.WithProduct(odatasql.PostgreSQL))
//	stmt, err := tr.Translate(ctx, "Entities1", url.Values{"$filter": {"Status eq 'DONE'"}})
//	if err != nil {
//	    return err
//	}
//	rows, err := db.Raw(stmt.SQL, stmt.Args()...).Rows()
package odatasql

import (
	"io"

	"gorm.io/gorm/schema"

	"github.com/nlstn/go-odata-sql/internal/dialect"
	"github.com/nlstn/go-odata-sql/internal/metadata"
	"github.com/nlstn/go-odata-sql/internal/query"
	"github.com/nlstn/go-odata-sql/internal/sqlquery"
)

// Statement is a rendered SELECT statement with its bound parameters.
type Statement = sqlquery.Statement

// Param is a value bound to one placeholder of a Statement.
type Param = sqlquery.Param

// SelectColumn describes one column of the select list.
type SelectColumn = sqlquery.SelectColumn

// Catalog is an entity data model together with the table bindings of its
// types.
type Catalog = metadata.Catalog

// Resource is a parsed resource path.
type Resource = query.Resource

// Options are the parsed system query options of a request.
type Options = query.Options

// Product identifies the database family statements are rendered for.
type Product = dialect.Product

// Supported database products.
const (
	Derby      = dialect.Derby
	PostgreSQL = dialect.PostgreSQL
	HANA       = dialect.HANA
	SybaseASE  = dialect.SybaseASE
	MySQL      = dialect.MySQL
	H2         = dialect.H2
	SQLite     = dialect.SQLite
)

// ParseProduct resolves a database product name case-insensitively.
func ParseProduct(name string) (Product, error) {
	return dialect.Parse(name)
}

// LoadModel reads a YAML or JSON model document from path.
func LoadModel(path string) (*Catalog, error) {
	return metadata.LoadFile(path)
}

// ReadModel reads a YAML or JSON model document from r.
func ReadModel(r io.Reader) (*Catalog, error) {
	return metadata.Load(r)
}

// ModelFromStructs derives a model from gorm-tagged structs. Tables and
// columns follow gorm's default naming strategy.
func ModelFromStructs(namespace string, entities ...any) (*Catalog, error) {
	return metadata.FromStructs(namespace, schema.NamingStrategy{}, entities...)
}
