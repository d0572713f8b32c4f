package observability

import (
	"net/http"

	servertiming "github.com/mitchellh/go-server-timing"
	"go.opentelemetry.io/otel/trace"
)

// HTTPMiddleware returns an HTTP middleware that traces requests and, when
// enabled, collects Server-Timing metrics and database time for them.
func HTTPMiddleware(cfg *Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if cfg.IsEnabled() {
				var span trace.Span
				ctx, span = cfg.Tracer().StartRequest(ctx, r)
				defer span.End()
			}
			if cfg.ServerTimingEnabled() {
				ctx = WithDBTimeAccumulator(ctx)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
		if cfg.ServerTimingEnabled() {
			handler = servertiming.Middleware(handler, nil)
		}
		return handler
	}
}
