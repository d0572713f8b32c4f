package odatasql

import (
	"context"
	"time"

	"github.com/nlstn/go-odata-sql/internal/edm"
	"github.com/nlstn/go-odata-sql/internal/observability"
	"github.com/nlstn/go-odata-sql/internal/odataerr"
	"github.com/nlstn/go-odata-sql/internal/query"
	"github.com/nlstn/go-odata-sql/internal/skiptoken"
	"github.com/nlstn/go-odata-sql/internal/sqlquery"
)

// BuildSelectCount builds SELECT COUNT(*) for a $count request. $top and
// $skip are not supported together with $count.
func (t *Translator) BuildSelectCount(ctx context.Context, req *Request) (*Statement, error) {
	return t.build(ctx, req, OpCount, func(b *sqlquery.SelectBuilder, target *edm.EntityType) error {
		if req.Options.Top != nil || req.Options.Skip != nil {
			return odataerr.NotImplemented("$top and $skip are not supported together with $count")
		}
		if _, err := b.Count().From(target, targetKeys(req.Resource)); err != nil {
			return err
		}
		if err := t.joinStart(b, req.Resource, target); err != nil {
			return err
		}
		return filter(b, target, req.Options.Filter)
	})
}

// BuildSelectEntity builds the statement reading one entity addressed by its
// key, or by the key of its parent and a to-one navigation.
func (t *Translator) BuildSelectEntity(ctx context.Context, req *Request) (*Statement, error) {
	return t.build(ctx, req, OpReadEntity, func(b *sqlquery.SelectBuilder, target *edm.EntityType) error {
		opts := req.Options
		if _, err := b.Select(opts.Select, opts.Expand).From(target, targetKeys(req.Resource)); err != nil {
			return err
		}
		if err := filter(b, target, opts.Filter); err != nil {
			return err
		}
		if err := t.joinStart(b, req.Resource, target); err != nil {
			return err
		}
		if req.Resource.Navigation != nil && len(req.Resource.TargetKeyPredicates) > 0 {
			if err := b.RestrictKeys(target, req.Resource.TargetKeyPredicates); err != nil {
				return err
			}
		}
		return b.GroupBy(target)
	})
}

// BuildSelectEntitySet builds the statement reading a collection. The page is
// limited to the server page size when $top is absent or larger. Rows are
// ordered by the key properties unless $orderby is given.
func (t *Translator) BuildSelectEntitySet(ctx context.Context, req *Request) (*Statement, error) {
	return t.build(ctx, req, OpReadCollection, func(b *sqlquery.SelectBuilder, target *edm.EntityType) error {
		opts := req.Options
		top, skip, err := t.paging(b, opts)
		if err != nil {
			return err
		}
		if _, err := b.Select(opts.Select, opts.Expand).Top(top).Skip(skip).From(target, targetKeys(req.Resource)); err != nil {
			return err
		}
		if err := filter(b, target, opts.Filter); err != nil {
			return err
		}
		if err := t.joinStart(b, req.Resource, target); err != nil {
			return err
		}
		if err := orderBy(b, target, opts); err != nil {
			return err
		}
		return b.GroupBy(target)
	})
}

// BuildSelectEntitySetIDs builds the first statement of a paged $expand read:
// the key values of the page, selected without the expanded types so that
// $top and $skip count entities instead of joined rows. The expanded types
// are still joined, since $orderby may sort by them.
func (t *Translator) BuildSelectEntitySetIDs(ctx context.Context, req *Request) (*Statement, error) {
	return t.build(ctx, req, OpReadIDs, func(b *sqlquery.SelectBuilder, target *edm.EntityType) error {
		opts := req.Options
		top, skip, err := t.paging(b, opts)
		if err != nil {
			return err
		}
		if _, err := b.Select(target.KeyProperties(), nil).Top(top).Skip(skip).From(target, targetKeys(req.Resource)); err != nil {
			return err
		}
		if err := filter(b, target, opts.Filter); err != nil {
			return err
		}
		if err := t.joinStart(b, req.Resource, target); err != nil {
			return err
		}
		for _, path := range opts.Expand {
			to := target
			for _, nav := range path {
				if _, err := b.Join(nav.Target, to); err != nil {
					return err
				}
				to = nav.Target
			}
		}
		return orderBy(b, target, opts)
	})
}

// BuildSelectEntitySetIn builds the second statement of a paged $expand read:
// the entities whose key is one of ids, together with their expanded
// entities. $filter, $top and $skip were applied when ids were read. Only
// single-property keys are supported.
func (t *Translator) BuildSelectEntitySetIn(ctx context.Context, req *Request, ids []any) (*Statement, error) {
	return t.build(ctx, req, OpReadIn, func(b *sqlquery.SelectBuilder, target *edm.EntityType) error {
		keys := target.KeyProperties()
		if len(keys) != 1 {
			return odataerr.NotImplemented("Paged $expand is supported only for entity types with a single key property, %s has %d", target.Name, len(keys))
		}
		opts := req.Options
		if _, err := b.Select(opts.Select, opts.Expand).From(target, targetKeys(req.Resource)); err != nil {
			return err
		}
		if err := b.FilterIn(target, keys[0], ids); err != nil {
			return err
		}
		if err := t.joinStart(b, req.Resource, target); err != nil {
			return err
		}
		if err := orderBy(b, target, opts); err != nil {
			return err
		}
		return b.GroupBy(target)
	})
}

// assembleFunc adds the clauses of one statement kind to b.
type assembleFunc func(b *sqlquery.SelectBuilder, target *edm.EntityType) error

// build runs assemble and the read interceptors against a fresh builder and
// renders the statement, recording the span, metrics and log entry of the
// translation.
func (t *Translator) build(ctx context.Context, req *Request, op string, assemble assembleFunc) (*Statement, error) {
	set := req.Resource.TargetSet.Name
	target := req.Resource.Target()
	obs := t.cfg.observability

	ctx, span := obs.Tracer().StartBuild(ctx, set, op)
	defer span.End()

	logger := observability.LoggerWithTrace(ctx, t.cfg.Logger).With(
		observability.LogFieldEntitySet, set,
		observability.LogFieldOperation, op,
	)
	start := time.Now()

	b := sqlquery.NewSelectBuilder(t.catalog.Bindings, t.cfg.sqlContext())
	b.SetLogger(logger)

	stmt, err := func() (*Statement, error) {
		if err := assemble(b, target); err != nil {
			return nil, err
		}
		rc := &ReadContext{
			EntitySet: set,
			Operation: op,
			Resource:  req.Resource,
			Options:   req.Options,
			target:    target,
			builder:   b,
		}
		if err := t.intercept(ctx, rc); err != nil {
			return nil, err
		}
		return b.Build()
	}()
	elapsed := time.Since(start)

	if err != nil {
		obs.Tracer().RecordError(span, err)
		obs.Metrics().RecordError(ctx, set, op, errorCode(err))
		if MapErrorToHTTPStatus(err) >= 500 {
			logger.Error("Translation failed", observability.LogFieldError, err)
		} else {
			logger.Warn("Translation rejected", observability.LogFieldError, err)
		}
		return nil, err
	}

	span.SetAttributes(
		observability.FingerprintAttr(stmt.Fingerprint()),
		observability.ParamCountAttr(len(stmt.Params)),
		observability.ServerPagingAttr(stmt.ServerPaging),
	)
	obs.Metrics().RecordTranslate(ctx, set, op, len(stmt.Params), elapsed)
	logger.Debug("Translated request",
		observability.LogFieldFingerprint, stmt.Fingerprint(),
		observability.LogFieldParams, len(stmt.Params),
		observability.LogFieldDuration, elapsed.Milliseconds(),
	)
	return stmt, nil
}

// paging returns the effective $top and $skip of a collection read and
// marks b when the server page size applies.
func (t *Translator) paging(b *sqlquery.SelectBuilder, opts *Options) (*int, *int, error) {
	skip, err := skiptoken.EffectiveSkip(opts.Skip, opts.SkipToken)
	if err != nil {
		return nil, nil, err
	}
	if opts.Top == nil || *opts.Top > t.cfg.PagingSize {
		b.SetServerPaging(true)
		size := t.cfg.PagingSize
		return &size, skip, nil
	}
	top := *opts.Top
	return &top, skip, nil
}

// joinStart restricts the statement to the start entity of the path: the
// addressed entity itself, or the parent of a navigation.
func (t *Translator) joinStart(b *sqlquery.SelectBuilder, res *Resource, target *edm.EntityType) error {
	if len(res.KeyPredicates) == 0 {
		return nil
	}
	j, err := b.Join(res.StartSet.Type, target)
	if err != nil {
		return err
	}
	return j.With(res.KeyPredicates)
}

// targetKeys returns the key predicates addressing the target entity type.
// They carry the input parameters of parameterized views.
func targetKeys(res *Resource) []query.KeyPredicate {
	if res.Navigation == nil {
		return res.KeyPredicates
	}
	return res.TargetKeyPredicates
}

func filter(b *sqlquery.SelectBuilder, target *edm.EntityType, e query.Expr) error {
	if e == nil {
		return nil
	}
	return b.Filter(target, e)
}

// orderBy applies $orderby, or the key properties in ascending order when it
// is absent.
func orderBy(b *sqlquery.SelectBuilder, target *edm.EntityType, opts *Options) error {
	items := opts.OrderBy
	if len(items) == 0 {
		for _, key := range target.KeyProperties() {
			items = append(items, query.OrderByItem{Expr: &query.Property{Property: key, Owner: target}})
		}
	}
	if err := b.ValidateOrderBy(items, opts.Expand); err != nil {
		return err
	}
	return b.OrderBy(items, target)
}
