package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the translator metric instruments.
type Metrics struct {
	translateDuration metric.Float64Histogram
	statementCount    metric.Int64Counter
	paramCount        metric.Int64Histogram
	resultCount       metric.Int64Histogram
	dbQueryDuration   metric.Float64Histogram
	errorCount        metric.Int64Counter
}

// NewMetrics creates a new Metrics instance with the given MeterProvider.
func NewMetrics(mp metric.MeterProvider) *Metrics {
	meter := mp.Meter(MeterName)
	m := &Metrics{}

	// Instrument creation only fails for invalid names or units; fall back
	// to an undescribed instrument so the remaining metrics keep working.
	var err error

	m.translateDuration, err = meter.Float64Histogram(
		"odatasql.translate.duration",
		metric.WithDescription("Duration of request translations in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		m.translateDuration, _ = meter.Float64Histogram("odatasql.translate.duration")
	}

	m.statementCount, err = meter.Int64Counter(
		"odatasql.statement.count",
		metric.WithDescription("Total number of generated statements"),
		metric.WithUnit("{statement}"),
	)
	if err != nil {
		m.statementCount, _ = meter.Int64Counter("odatasql.statement.count")
	}

	m.paramCount, err = meter.Int64Histogram(
		"odatasql.statement.params",
		metric.WithDescription("Number of parameters bound per statement"),
		metric.WithUnit("{param}"),
	)
	if err != nil {
		m.paramCount, _ = meter.Int64Histogram("odatasql.statement.params")
	}

	m.resultCount, err = meter.Int64Histogram(
		"odatasql.result.count",
		metric.WithDescription("Number of rows returned by executed statements"),
		metric.WithUnit("{row}"),
	)
	if err != nil {
		m.resultCount, _ = meter.Int64Histogram("odatasql.result.count")
	}

	m.dbQueryDuration, err = meter.Float64Histogram(
		"odatasql.db.query.duration",
		metric.WithDescription("Duration of database queries in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		m.dbQueryDuration, _ = meter.Float64Histogram("odatasql.db.query.duration")
	}

	m.errorCount, err = meter.Int64Counter(
		"odatasql.error.count",
		metric.WithDescription("Total number of translation errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		m.errorCount, _ = meter.Int64Counter("odatasql.error.count")
	}

	return m
}

// RecordTranslate records a completed translation.
func (m *Metrics) RecordTranslate(ctx context.Context, entitySet, operation string, params int, duration time.Duration) {
	attrs := metric.WithAttributes(
		EntitySetAttr(entitySet),
		OperationAttr(operation),
	)
	m.translateDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	m.statementCount.Add(ctx, 1, attrs)
	m.paramCount.Record(ctx, int64(params), attrs)
}

// RecordResultCount records the number of rows an executed statement returned.
func (m *Metrics) RecordResultCount(ctx context.Context, entitySet string, count int64) {
	m.resultCount.Record(ctx, count, metric.WithAttributes(EntitySetAttr(entitySet)))
}

// RecordDBQuery records metrics for a database query.
func (m *Metrics) RecordDBQuery(ctx context.Context, operation string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("db.operation", operation))
	m.dbQueryDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordError records a failed translation.
func (m *Metrics) RecordError(ctx context.Context, entitySet, operation, errorCode string) {
	attrs := metric.WithAttributes(
		EntitySetAttr(entitySet),
		OperationAttr(operation),
		ErrorCodeAttr(errorCode),
	)
	m.errorCount.Add(ctx, 1, attrs)
}
