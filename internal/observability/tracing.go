package observability

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer wraps an OpenTelemetry tracer with translator-specific span creation methods.
type Tracer struct {
	tracer      trace.Tracer
	serviceName string
}

// NewTracer creates a new Tracer using the given TracerProvider.
func NewTracer(tp trace.TracerProvider, serviceName string) *Tracer {
	return &Tracer{
		tracer:      tp.Tracer(TracerName),
		serviceName: serviceName,
	}
}

// StartSpan starts a new span with the given name and attributes.
func (t *Tracer) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartTranslate starts a span for translating a request path.
func (t *Tracer) StartTranslate(ctx context.Context, path string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "odatasql.translate", trace.WithAttributes(PathAttr(path)))
}

// StartBuild starts a span for building one statement.
func (t *Tracer) StartBuild(ctx context.Context, entitySet, operation string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "odatasql.build", trace.WithAttributes(
		EntitySetAttr(entitySet),
		OperationAttr(operation),
	))
}

// StartExecute starts a span for running a translated statement.
func (t *Tracer) StartExecute(ctx context.Context, fingerprint uint64) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "odatasql.execute", trace.WithAttributes(FingerprintAttr(fingerprint)))
}

// StartRequest starts a span for an HTTP request.
func (t *Tracer) StartRequest(ctx context.Context, r *http.Request) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "odatasql.request", trace.WithAttributes(
		attribute.String("http.method", r.Method),
		attribute.String("http.url", r.URL.String()),
		attribute.String("http.route", r.URL.Path),
	))
}

// SetHTTPStatus sets the HTTP status code on the current span.
func (t *Tracer) SetHTTPStatus(ctx context.Context, statusCode int) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.Int("http.status_code", statusCode))
	if statusCode >= 400 {
		span.SetStatus(codes.Error, http.StatusText(statusCode))
	}
}

// RecordError records an error on the span.
func (t *Tracer) RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// AddQueryOptions adds the raw system query options as span attributes.
func (t *Tracer) AddQueryOptions(span trace.Span, values url.Values) {
	var attrs []attribute.KeyValue
	if v := values.Get("$filter"); v != "" {
		attrs = append(attrs, QueryFilterAttr(v))
	}
	if v := values.Get("$expand"); v != "" {
		attrs = append(attrs, QueryExpandAttr(v))
	}
	if v := values.Get("$select"); v != "" {
		attrs = append(attrs, QuerySelectAttr(v))
	}
	if v := values.Get("$orderby"); v != "" {
		attrs = append(attrs, QueryOrderByAttr(v))
	}
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
}

// LoggerWithTrace returns a logger enriched with trace context.
func LoggerWithTrace(ctx context.Context, logger *slog.Logger) *slog.Logger {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return logger
	}
	return logger.With(
		slog.String(LogFieldTraceID, span.SpanContext().TraceID().String()),
		slog.String(LogFieldSpanID, span.SpanContext().SpanID().String()),
	)
}
