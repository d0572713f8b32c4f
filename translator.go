package odatasql

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/nlstn/go-odata-sql/internal/observability"
	"github.com/nlstn/go-odata-sql/internal/odataerr"
	"github.com/nlstn/go-odata-sql/internal/query"
	"github.com/nlstn/go-odata-sql/internal/skiptoken"
)

// Operations a request translates into.
const (
	OpReadCollection = observability.OpReadCollection
	OpReadEntity     = observability.OpReadEntity
	OpCount          = observability.OpCount
	OpReadIDs        = observability.OpReadIDs
	OpReadIn         = observability.OpReadIn
)

// Translator turns OData read requests against one model into SQL
// statements. A Translator is safe for concurrent use once all interceptors
// have been added.
type Translator struct {
	catalog      *Catalog
	cfg          *Config
	interceptors []ReadInterceptor
}

// Request is a parsed read request.
type Request struct {
	Resource *Resource
	Options  *Options
}

// Operation returns the operation the request translates into.
func (r *Request) Operation() string {
	switch {
	case r.Resource.Count:
		return OpCount
	case r.Resource.IsEntity():
		return OpReadEntity
	}
	return OpReadCollection
}

// NewTranslator creates a translator for catalog.
func NewTranslator(catalog *Catalog, opts ...Option) *Translator {
	return NewTranslatorWithConfig(catalog, NewConfig(opts...))
}

// NewTranslatorWithConfig creates a translator for catalog with cfg.
func NewTranslatorWithConfig(catalog *Catalog, cfg *Config) *Translator {
	if cfg == nil {
		cfg = NewConfig()
	}
	cfg.applyDefaults()
	return &Translator{catalog: catalog, cfg: cfg}
}

// AddInterceptor appends i to the read interceptor chain.
func (t *Translator) AddInterceptor(i ReadInterceptor) {
	t.interceptors = append(t.interceptors, i)
}

// Config returns the translator configuration.
func (t *Translator) Config() *Config {
	return t.cfg
}

// Catalog returns the model the translator reads.
func (t *Translator) Catalog() *Catalog {
	return t.catalog
}

// Middleware returns HTTP middleware that starts a request span and, with
// Server-Timing enabled, reports the translate and db timings of the
// requests it wraps.
func (t *Translator) Middleware() func(http.Handler) http.Handler {
	return observability.HTTPMiddleware(t.cfg.observability)
}

// ParseRequest parses a resource path and its system query options. A query
// string appended to path is merged into values; values take precedence.
func (t *Translator) ParseRequest(path string, values url.Values) (*Request, error) {
	path, values, err := splitQuery(path, values)
	if err != nil {
		return nil, err
	}

	res, err := query.ParseResource(t.catalog.Model, path)
	if err != nil {
		return nil, err
	}
	opts, err := query.ParseOptions(values, res.Target())
	if err != nil {
		return nil, err
	}
	return &Request{Resource: res, Options: opts}, nil
}

// splitQuery separates a query string appended to path and merges it with
// values. Entries in values take precedence.
func splitQuery(path string, values url.Values) (string, url.Values, error) {
	p, rawQuery, ok := strings.Cut(path, "?")
	if !ok {
		return path, values, nil
	}
	parsed, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", nil, odataerr.BadRequest("Invalid query string").Wrap(err)
	}
	for k, v := range values {
		parsed[k] = v
	}
	return p, parsed, nil
}

// Translate parses a request and builds its statement: a count for paths
// ending in /$count, a single entity read for paths addressing one entity,
// and a collection read otherwise.
func (t *Translator) Translate(ctx context.Context, path string, values url.Values) (*Statement, error) {
	obs := t.cfg.observability
	ctx, span := obs.Tracer().StartTranslate(ctx, path)
	defer span.End()
	if obs != nil && obs.EnableQueryOptionTracing {
		obs.Tracer().AddQueryOptions(span, values)
	}
	timing := observability.StartServerTiming(ctx, "translate")
	defer timing.Stop()

	req, err := t.ParseRequest(path, values)
	if err != nil {
		obs.Tracer().RecordError(span, err)
		observability.LoggerWithTrace(ctx, t.cfg.Logger).Warn("Invalid request",
			"path", path, observability.LogFieldError, err)
		return nil, err
	}
	return t.BuildStatement(ctx, req)
}

// BuildStatement builds the statement for an already parsed request.
func (t *Translator) BuildStatement(ctx context.Context, req *Request) (*Statement, error) {
	switch req.Operation() {
	case OpCount:
		return t.BuildSelectCount(ctx, req)
	case OpReadEntity:
		return t.BuildSelectEntity(ctx, req)
	}
	return t.BuildSelectEntitySet(ctx, req)
}

// NextLink returns the link to the page after stmt, or "" when there is none.
// A next link is only handed out for server-side paging, when the page read
// with stmt came back full. requestURI is the request relative to the service
// root, for example Entities1?$filter=Status%20eq%20'A'.
func (t *Translator) NextLink(requestURI string, stmt *Statement, rows int) string {
	if stmt == nil || !stmt.ServerPaging || stmt.Limit <= 0 || rows < stmt.Limit {
		return ""
	}
	next, ok := skiptoken.Next(stmt.Offset, stmt.Limit)
	if !ok {
		return ""
	}
	return skiptoken.NextLink(requestURI, next)
}
