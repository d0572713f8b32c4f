package odatasql

import (
	"context"

	"github.com/nlstn/go-odata-sql/internal/edm"
	"github.com/nlstn/go-odata-sql/internal/query"
	"github.com/nlstn/go-odata-sql/internal/sqlquery"
)

// ReadInterceptor runs after a read statement has been assembled and before
// it is rendered. Interceptors can narrow the statement with additional
// filters or reject the request by returning an error.
//
// Interceptors run in registration order. The first error stops the chain
// and is returned to the caller unchanged; return an *InterceptorError to
// choose the HTTP status.
//
// Example:
//
//	// Restrict every read of Entities1 to the tenant of the caller.
//	tr.AddInterceptor(odatasql.ReadInterceptorFunc(func(ctx context.Context, rc *odatasql.ReadContext) error {
//	    if rc.EntitySet != "Entities1" {
//	        return nil
//	    }
//	    return rc.Filter(fmt.Sprintf("Sender eq '%s'", tenantFromContext(ctx)))
//	}))
type ReadInterceptor interface {
	// OnRead is called once per translated read request.
	OnRead(ctx context.Context, rc *ReadContext) error
}

// ReadInterceptorFunc adapts a function to the ReadInterceptor interface.
type ReadInterceptorFunc func(ctx context.Context, rc *ReadContext) error

// OnRead calls f(ctx, rc).
func (f ReadInterceptorFunc) OnRead(ctx context.Context, rc *ReadContext) error {
	return f(ctx, rc)
}

// ReadContext describes the read an interceptor is called for.
type ReadContext struct {
	// EntitySet is the name of the entity set the statement reads.
	EntitySet string

	// Operation is one of the Op* constants.
	Operation string

	// Resource is the parsed resource path.
	Resource *Resource

	// Options are the parsed system query options. Interceptors must not
	// modify them; the statement has already been assembled from them.
	Options *Options

	target  *edm.EntityType
	builder *sqlquery.SelectBuilder
}

// Filter ANDs an additional $filter expression, written against the entity
// type the statement reads, to the WHERE clause.
func (rc *ReadContext) Filter(expr string) error {
	e, err := query.ResolveFilter(expr, rc.target)
	if err != nil {
		return err
	}
	return rc.builder.Filter(rc.target, e)
}

// EntityType returns the name of the entity type the statement reads.
func (rc *ReadContext) EntityType() string {
	return rc.target.Name
}

func (t *Translator) intercept(ctx context.Context, rc *ReadContext) error {
	for _, i := range t.interceptors {
		if err := i.OnRead(ctx, rc); err != nil {
			return err
		}
	}
	return nil
}
