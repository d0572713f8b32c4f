package odatasql

import (
	"context"
	"database/sql"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/nlstn/go-odata-sql/internal/edm"
	"github.com/nlstn/go-odata-sql/internal/observability"
	"github.com/nlstn/go-odata-sql/internal/odataerr"
)

// Runner executes translated statements through gorm.
type Runner struct {
	db         *gorm.DB
	translator *Translator
}

// Result is the outcome of a read executed by a Runner.
type Result struct {
	// Operation is the operation the request translated into.
	Operation string

	// Statement is the statement that produced Rows, or the count.
	Statement *Statement

	// Rows maps the select list labels to the values of each row.
	Rows []map[string]any

	// Count is set for $count requests and for $inlinecount=allpages.
	Count *int64

	// NextLink is the link to the next page when server-side paging cut the
	// result short.
	NextLink string
}

// NewRunner creates a runner executing statements of tr on db. When the
// translator has observability configured, database spans and Server-Timing
// callbacks are registered on db.
func NewRunner(db *gorm.DB, tr *Translator) (*Runner, error) {
	obs := tr.cfg.observability
	if obs.IsEnabled() {
		if err := observability.RegisterGORMCallbacks(db, obs); err != nil {
			return nil, fmt.Errorf("failed to register tracing callbacks: %w", err)
		}
	}
	if obs.ServerTimingEnabled() {
		if err := observability.RegisterServerTimingCallbacks(db); err != nil {
			return nil, fmt.Errorf("failed to register server timing callbacks: %w", err)
		}
	}
	return &Runner{db: db, translator: tr}, nil
}

// Translator returns the translator the runner builds statements with.
func (r *Runner) Translator() *Translator {
	return r.translator
}

// Rows executes stmt and returns the open result set.
func (r *Runner) Rows(ctx context.Context, stmt *Statement) (*sql.Rows, error) {
	obs := r.translator.cfg.observability
	ctx, span := obs.Tracer().StartExecute(ctx, stmt.Fingerprint())
	defer span.End()
	timing := observability.StartServerTimingWithDesc(ctx, "db", "database")
	defer timing.Stop()

	start := time.Now()
	rows, err := r.db.WithContext(ctx).Raw(stmt.SQL, stmt.Args()...).Rows()
	obs.Metrics().RecordDBQuery(ctx, "select", time.Since(start))
	if err != nil {
		obs.Tracer().RecordError(span, err)
		return nil, err
	}
	return rows, nil
}

// Count executes a count statement.
func (r *Runner) Count(ctx context.Context, stmt *Statement) (int64, error) {
	obs := r.translator.cfg.observability
	ctx, span := obs.Tracer().StartExecute(ctx, stmt.Fingerprint())
	defer span.End()

	start := time.Now()
	var count int64
	err := r.db.WithContext(ctx).Raw(stmt.SQL, stmt.Args()...).Scan(&count).Error
	obs.Metrics().RecordDBQuery(ctx, "count", time.Since(start))
	if err != nil {
		obs.Tracer().RecordError(span, err)
		return 0, err
	}
	return count, nil
}

// Query executes stmt and reads all rows.
func (r *Runner) Query(ctx context.Context, stmt *Statement) ([]map[string]any, error) {
	rows, err := r.Rows(ctx, stmt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var result []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(columns))
		for i, name := range columns {
			if b, ok := values[i].([]byte); ok {
				row[name] = string(b)
				continue
			}
			row[name] = values[i]
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// Read translates and executes a read request. Collections with $expand are
// read in two steps: the keys of the page first, then the entities with
// those keys joined with their expanded entities, so that $top counts
// entities rather than joined rows.
func (r *Runner) Read(ctx context.Context, path string, values url.Values) (*Result, error) {
	tr := r.translator
	path, values, err := splitQuery(path, values)
	if err != nil {
		return nil, err
	}
	req, err := tr.ParseRequest(path, values)
	if err != nil {
		return nil, err
	}
	set := req.Resource.TargetSet.Name
	obs := tr.cfg.observability

	var result *Result
	switch req.Operation() {
	case OpCount:
		stmt, err := tr.BuildSelectCount(ctx, req)
		if err != nil {
			return nil, err
		}
		count, err := r.Count(ctx, stmt)
		if err != nil {
			return nil, err
		}
		return &Result{Operation: OpCount, Statement: stmt, Count: &count}, nil

	case OpReadEntity:
		stmt, err := tr.BuildSelectEntity(ctx, req)
		if err != nil {
			return nil, err
		}
		rows, err := r.Query(ctx, stmt)
		if err != nil {
			return nil, err
		}
		result = &Result{Statement: stmt, Rows: rows}

	default:
		result, err = r.readCollection(ctx, req, requestURI(path, values))
		if err != nil {
			return nil, err
		}
	}

	if req.Options.InlineCount {
		countReq := &Request{Resource: req.Resource, Options: withoutPaging(req.Options)}
		stmt, err := tr.BuildSelectCount(ctx, countReq)
		if err != nil {
			return nil, err
		}
		count, err := r.Count(ctx, stmt)
		if err != nil {
			return nil, err
		}
		result.Count = &count
	}

	result.Operation = req.Operation()
	obs.Metrics().RecordResultCount(ctx, set, int64(len(result.Rows)))
	return result, nil
}

func (r *Runner) readCollection(ctx context.Context, req *Request, uri string) (*Result, error) {
	tr := r.translator
	if len(req.Options.Expand) == 0 || len(req.Resource.Target().KeyProperties()) != 1 {
		stmt, err := tr.BuildSelectEntitySet(ctx, req)
		if err != nil {
			return nil, err
		}
		rows, err := r.Query(ctx, stmt)
		if err != nil {
			return nil, err
		}
		return &Result{Statement: stmt, Rows: rows, NextLink: tr.NextLink(uri, stmt, len(rows))}, nil
	}

	idStmt, err := tr.BuildSelectEntitySetIDs(ctx, req)
	if err != nil {
		return nil, err
	}
	target := req.Resource.Target()
	ids, read, err := r.readIDs(ctx, idStmt, target, target.KeyProperties()[0])
	if err != nil {
		return nil, err
	}
	nextLink := tr.NextLink(uri, idStmt, read)
	if len(ids) == 0 {
		return &Result{Statement: idStmt, NextLink: nextLink}, nil
	}

	stmt, err := tr.BuildSelectEntitySetIn(ctx, req, ids)
	if err != nil {
		return nil, err
	}
	rows, err := r.Query(ctx, stmt)
	if err != nil {
		return nil, err
	}
	return &Result{Statement: stmt, Rows: rows, NextLink: nextLink}, nil
}

// readIDs reads the key column of every row, skipping repeated values that
// joined rows produce. read is the number of rows including repeats.
func (r *Runner) readIDs(ctx context.Context, stmt *Statement, target *edm.EntityType, key *edm.Property) (ids []any, read int, err error) {
	ordinal := stmt.Column(target, key)
	if ordinal < 0 {
		return nil, 0, odataerr.Internal("Key %s of %s is not selected", key.Name, target.FQN())
	}
	label := stmt.Columns[ordinal].Label

	rows, err := r.Rows(ctx, stmt)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, 0, err
	}
	index := slices.Index(columns, label)
	if index < 0 {
		return nil, 0, odataerr.Internal("Result has no column %s", label)
	}
	seen := make(map[string]bool)
	for rows.Next() {
		read++
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, 0, err
		}
		id := values[index]
		if b, ok := id.([]byte); ok {
			id = string(b)
		}
		key := fmt.Sprint(id)
		if seen[key] {
			continue
		}
		seen[key] = true
		ids = append(ids, id)
	}
	return ids, read, rows.Err()
}

func withoutPaging(opts *Options) *Options {
	out := *opts
	out.Top, out.Skip, out.SkipToken = nil, nil, ""
	out.OrderBy = nil
	return &out
}

// requestURI renders path and values in a stable order, keeping the $ of
// system query options readable.
func requestURI(path string, values url.Values) string {
	if len(values) == 0 {
		return path
	}
	var parts []string
	for _, k := range slices.Sorted(maps.Keys(values)) {
		name := url.QueryEscape(strings.TrimPrefix(k, "$"))
		if strings.HasPrefix(k, "$") {
			name = "$" + name
		}
		for _, v := range values[k] {
			parts = append(parts, name+"="+url.QueryEscape(v))
		}
	}
	return path + "?" + strings.Join(parts, "&")
}
