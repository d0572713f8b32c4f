package edm

import (
	"fmt"
	"reflect"
	"strings"
)

// SimpleType is the name of an OData v2 primitive type.
type SimpleType string

const (
	Binary         SimpleType = "Edm.Binary"
	Boolean        SimpleType = "Edm.Boolean"
	Byte           SimpleType = "Edm.Byte"
	DateTime       SimpleType = "Edm.DateTime"
	DateTimeOffset SimpleType = "Edm.DateTimeOffset"
	Decimal        SimpleType = "Edm.Decimal"
	Double         SimpleType = "Edm.Double"
	Guid           SimpleType = "Edm.Guid"
	Int16          SimpleType = "Edm.Int16"
	Int32          SimpleType = "Edm.Int32"
	Int64          SimpleType = "Edm.Int64"
	SByte          SimpleType = "Edm.SByte"
	Single         SimpleType = "Edm.Single"
	String         SimpleType = "Edm.String"
	Time           SimpleType = "Edm.Time"
	Null           SimpleType = "Null"
)

// LiteralParser converts the text of a literal into the Go value bound as a
// statement parameter.
type LiteralParser func(raw string) (any, error)

// literalParsers is filled by the init functions of this package and is
// read-only afterwards.
var literalParsers = map[SimpleType]LiteralParser{}

func registerType(t SimpleType, parser LiteralParser) {
	literalParsers[t] = parser
}

// IsValidType checks if a type name is a known primitive type.
func IsValidType(name string) bool {
	_, ok := literalParsers[SimpleType(name)]
	return ok
}

// ParseLiteral coerces raw into the Go value for type t. Date and time types
// become UTC time.Time values, Edm.Decimal a decimal.Decimal, Edm.Guid a
// uuid.UUID. Null yields nil.
func ParseLiteral(t SimpleType, raw string) (any, error) {
	parser, ok := literalParsers[t]
	if !ok {
		return nil, fmt.Errorf("unknown EDM type: %s", t)
	}
	return parser(raw)
}

// IsDateTime reports whether t carries a point in time.
func (t SimpleType) IsDateTime() bool {
	return t == DateTime || t == DateTimeOffset || t == Time
}

// IsNumeric reports whether t is an integral or floating point type.
func (t SimpleType) IsNumeric() bool {
	switch t {
	case Byte, SByte, Int16, Int32, Int64, Single, Double, Decimal:
		return true
	}
	return false
}

// FromSQLType maps a column's SQL type to the primitive type used for its
// property. DATETIME and TIMESTAMP variants are both date-time columns.
func FromSQLType(sqlType string) (SimpleType, error) {
	upper := strings.ToUpper(strings.TrimSpace(sqlType))
	if i := strings.IndexByte(upper, '('); i >= 0 {
		upper = strings.TrimSpace(upper[:i])
	}
	switch upper {
	case "VARCHAR", "NVARCHAR", "CHAR", "NCHAR", "TEXT", "CLOB", "NCLOB", "CHARACTER VARYING", "STRING", "ALPHANUM", "SHORTTEXT":
		return String, nil
	case "INTEGER", "INT", "INT4", "MEDIUMINT":
		return Int32, nil
	case "BIGINT", "INT8":
		return Int64, nil
	case "SMALLINT", "INT2":
		return Int16, nil
	case "TINYINT":
		return Byte, nil
	case "DECIMAL", "NUMERIC", "SMALLDECIMAL", "MONEY":
		return Decimal, nil
	case "DOUBLE", "DOUBLE PRECISION", "FLOAT", "FLOAT8":
		return Double, nil
	case "REAL", "FLOAT4":
		return Single, nil
	case "BOOLEAN", "BOOL", "BIT":
		return Boolean, nil
	case "DATE", "DATETIME", "TIMESTAMP", "SECONDDATE", "TIMESTAMP WITHOUT TIME ZONE":
		return DateTime, nil
	case "TIMESTAMPTZ", "TIMESTAMP WITH TIME ZONE":
		return DateTimeOffset, nil
	case "TIME":
		return Time, nil
	case "UUID":
		return Guid, nil
	case "BLOB", "BINARY", "VARBINARY", "BYTEA":
		return Binary, nil
	}
	return "", fmt.Errorf("unsupported SQL type: %s", sqlType)
}

// FromGoType infers the EDM type from a Go type
func FromGoType(goType reflect.Type) (SimpleType, error) {
	if goType == nil {
		return "", fmt.Errorf("nil type")
	}

	if goType.Kind() == reflect.Ptr {
		goType = goType.Elem()
	}

	if goType.PkgPath() == "time" && goType.Name() == "Time" {
		return DateTime, nil
	}
	if goType.PkgPath() == "github.com/shopspring/decimal" && goType.Name() == "Decimal" {
		return Decimal, nil
	}
	if goType.PkgPath() == "github.com/google/uuid" && goType.Name() == "UUID" {
		return Guid, nil
	}
	if goType.PkgPath() == "database/sql" && strings.HasPrefix(goType.Name(), "Null") && goType.Kind() == reflect.Struct {
		// sql.NullString and friends carry the value in their first field
		return FromGoType(goType.Field(0).Type)
	}

	if (goType.Kind() == reflect.Slice || goType.Kind() == reflect.Array) && goType.Elem().Kind() == reflect.Uint8 {
		return Binary, nil
	}

	switch goType.Kind() {
	case reflect.String:
		return String, nil
	case reflect.Int, reflect.Int32:
		return Int32, nil
	case reflect.Int64, reflect.Uint, reflect.Uint32, reflect.Uint64:
		return Int64, nil
	case reflect.Int16:
		return Int16, nil
	case reflect.Int8:
		return SByte, nil
	case reflect.Uint16:
		return Int32, nil
	case reflect.Uint8:
		return Byte, nil
	case reflect.Float32:
		return Single, nil
	case reflect.Float64:
		return Double, nil
	case reflect.Bool:
		return Boolean, nil
	default:
		return "", fmt.Errorf("unsupported Go type: %s", goType.String())
	}
}
