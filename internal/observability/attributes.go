// Package observability provides OpenTelemetry-based instrumentation for the
// OData to SQL translator.
//
// It covers tracing of translations and statement execution, metrics, and
// structured logging enriched with trace context.
//
// All observability features are opt-in. When not configured, no-op
// implementations are used.
package observability

import "go.opentelemetry.io/otel/attribute"

// Instrumentation identity constants
const (
	// TracerName is the instrumentation name for tracing.
	TracerName = "github.com/nlstn/go-odata-sql"
	// MeterName is the instrumentation name for metrics.
	MeterName = "github.com/nlstn/go-odata-sql"
)

// Semantic attribute keys following OpenTelemetry conventions.
const (
	// Resource attributes
	AttrEntitySet  = "odata.entity_set"
	AttrEntityType = "odata.entity_type"
	AttrOperation  = "odata.operation"
	AttrPath       = "odata.path"

	// Query option attributes
	AttrQueryFilter  = "odata.query.filter"
	AttrQueryExpand  = "odata.query.expand"
	AttrQuerySelect  = "odata.query.select"
	AttrQueryOrderBy = "odata.query.orderby"
	AttrQueryTop     = "odata.query.top"
	AttrQuerySkip    = "odata.query.skip"

	// Statement attributes
	AttrStatementFingerprint = "odatasql.statement.fingerprint"
	AttrStatementParams      = "odatasql.statement.params"
	AttrProduct              = "odatasql.product"
	AttrServerPaging         = "odatasql.server_paging"

	// Result attributes
	AttrResultCount = "odata.result.count"

	// Error attributes
	AttrErrorCode = "odata.error.code"
)

// Operation types for the odata.operation attribute.
const (
	OpReadCollection = "read_collection"
	OpReadEntity     = "read_entity"
	OpCount          = "count"
	OpReadIDs        = "read_ids"
	OpReadIn         = "read_in"
)

// Log field keys for structured logging with trace context.
const (
	LogFieldEntitySet   = "odata.entity_set"
	LogFieldOperation   = "odata.operation"
	LogFieldFingerprint = "fingerprint"
	LogFieldParams      = "params"
	LogFieldTraceID     = "trace_id"
	LogFieldSpanID      = "span_id"
	LogFieldDuration    = "duration_ms"
	LogFieldError       = "error"
)

// EntitySetAttr creates an attribute for the entity set name.
func EntitySetAttr(name string) attribute.KeyValue {
	return attribute.String(AttrEntitySet, name)
}

// EntityTypeAttr creates an attribute for the entity type name.
func EntityTypeAttr(name string) attribute.KeyValue {
	return attribute.String(AttrEntityType, name)
}

// OperationAttr creates an attribute for the operation type.
func OperationAttr(op string) attribute.KeyValue {
	return attribute.String(AttrOperation, op)
}

// PathAttr creates an attribute for the resource path.
func PathAttr(path string) attribute.KeyValue {
	return attribute.String(AttrPath, path)
}

// ProductAttr creates an attribute for the database product.
func ProductAttr(product string) attribute.KeyValue {
	return attribute.String(AttrProduct, product)
}

// ResultCountAttr creates an attribute for the result count.
func ResultCountAttr(count int64) attribute.KeyValue {
	return attribute.Int64(AttrResultCount, count)
}

// QueryFilterAttr creates an attribute for the $filter expression.
func QueryFilterAttr(filter string) attribute.KeyValue {
	return attribute.String(AttrQueryFilter, filter)
}

// QueryExpandAttr creates an attribute for the $expand expression.
func QueryExpandAttr(expand string) attribute.KeyValue {
	return attribute.String(AttrQueryExpand, expand)
}

// QuerySelectAttr creates an attribute for the $select expression.
func QuerySelectAttr(selectExpr string) attribute.KeyValue {
	return attribute.String(AttrQuerySelect, selectExpr)
}

// QueryOrderByAttr creates an attribute for the $orderby expression.
func QueryOrderByAttr(orderby string) attribute.KeyValue {
	return attribute.String(AttrQueryOrderBy, orderby)
}

// QueryTopAttr creates an attribute for the $top value.
func QueryTopAttr(top int) attribute.KeyValue {
	return attribute.Int(AttrQueryTop, top)
}

// QuerySkipAttr creates an attribute for the $skip value.
func QuerySkipAttr(skip int) attribute.KeyValue {
	return attribute.Int(AttrQuerySkip, skip)
}

// FingerprintAttr creates an attribute for a statement fingerprint.
func FingerprintAttr(fingerprint uint64) attribute.KeyValue {
	return attribute.Int64(AttrStatementFingerprint, int64(fingerprint))
}

// ParamCountAttr creates an attribute for the number of bound parameters.
func ParamCountAttr(n int) attribute.KeyValue {
	return attribute.Int(AttrStatementParams, n)
}

// ServerPagingAttr records whether the server imposed the row limit.
func ServerPagingAttr(on bool) attribute.KeyValue {
	return attribute.Bool(AttrServerPaging, on)
}

// ErrorCodeAttr creates an attribute for the error code.
func ErrorCodeAttr(code string) attribute.KeyValue {
	return attribute.String(AttrErrorCode, code)
}
