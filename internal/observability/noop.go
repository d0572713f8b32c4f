package observability

import (
	"go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// NewNoopTracer creates a tracer that does nothing.
func NewNoopTracer() *Tracer {
	return &Tracer{
		tracer:      tracenoop.NewTracerProvider().Tracer(""),
		serviceName: "",
	}
}

// NewNoopMetrics creates metrics that do nothing.
func NewNoopMetrics() *Metrics {
	meter := noop.NewMeterProvider().Meter("")
	m := &Metrics{}

	m.translateDuration, _ = meter.Float64Histogram("odatasql.translate.duration") //nolint:errcheck
	m.statementCount, _ = meter.Int64Counter("odatasql.statement.count")           //nolint:errcheck
	m.paramCount, _ = meter.Int64Histogram("odatasql.statement.params")            //nolint:errcheck
	m.resultCount, _ = meter.Int64Histogram("odatasql.result.count")               //nolint:errcheck
	m.dbQueryDuration, _ = meter.Float64Histogram("odatasql.db.query.duration")    //nolint:errcheck
	m.errorCount, _ = meter.Int64Counter("odatasql.error.count")                   //nolint:errcheck

	return m
}
