package odatasql_test

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	odatasql "github.com/nlstn/go-odata-sql"
)

func TestInterceptorAddsFilter(t *testing.T) {
	tr := newTranslator()
	tr.AddInterceptor(odatasql.ReadInterceptorFunc(func(ctx context.Context, rc *odatasql.ReadContext) error {
		return rc.Filter("Sender eq 'tenant-a'")
	}))

	stmt := translate(t, tr, "Entities1", url.Values{"$filter": {"Status eq 'DONE'"}})
	if !strings.Contains(stmt.SQL, "WHERE T0.STATUS = ? AND T0.SENDER = ? ORDER BY") {
		t.Errorf("SQL = %q", stmt.SQL)
	}
	if len(stmt.Params) != 2 || stmt.Params[1].Value != "tenant-a" {
		t.Errorf("Params = %+v", stmt.Params)
	}

	count := translate(t, tr, "Entities1/$count", nil)
	if count.SQL != "SELECT COUNT(*) FROM MPLHEADER AS T0 WHERE T0.SENDER = ?" {
		t.Errorf("count SQL = %q", count.SQL)
	}
}

func TestInterceptorSeesNavigationTarget(t *testing.T) {
	tr := newTranslator()
	var got []string
	tr.AddInterceptor(odatasql.ReadInterceptorFunc(func(ctx context.Context, rc *odatasql.ReadContext) error {
		got = append(got, rc.EntitySet+"/"+rc.EntityType()+"/"+rc.Operation)
		if rc.Resource == nil || rc.Options == nil {
			t.Error("ReadContext without resource or options")
		}
		return nil
	}))

	translate(t, tr, "Entities1('a')/HeaderAttributes", nil)
	translate(t, tr, "Entities2(1)/Header", nil)

	want := []string{
		"Entities2/Entity2/" + odatasql.OpReadCollection,
		"Entities1/Entity1/" + odatasql.OpReadEntity,
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("intercepted = %v, want %v", got, want)
	}
}

func TestInterceptorRejects(t *testing.T) {
	tr := newTranslator()
	calls := 0
	tr.AddInterceptor(odatasql.ReadInterceptorFunc(func(ctx context.Context, rc *odatasql.ReadContext) error {
		calls++
		if rc.Operation == odatasql.OpCount {
			return odatasql.NewInterceptorError(http.StatusForbidden, "Counting is not allowed")
		}
		return nil
	}))
	tr.AddInterceptor(odatasql.ReadInterceptorFunc(func(ctx context.Context, rc *odatasql.ReadContext) error {
		calls++
		return nil
	}))

	_, err := tr.Translate(context.Background(), "Entities1/$count", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if status := odatasql.MapErrorToHTTPStatus(err); status != http.StatusForbidden {
		t.Errorf("status = %d, want %d", status, http.StatusForbidden)
	}
	if calls != 1 {
		t.Errorf("interceptor calls = %d, want 1", calls)
	}

	calls = 0
	translate(t, tr, "Entities1", nil)
	if calls != 2 {
		t.Errorf("interceptor calls = %d, want 2", calls)
	}
}

func TestInterceptorInvalidFilter(t *testing.T) {
	tr := newTranslator()
	tr.AddInterceptor(odatasql.ReadInterceptorFunc(func(ctx context.Context, rc *odatasql.ReadContext) error {
		return rc.Filter("Unknown eq 1")
	}))

	_, err := tr.Translate(context.Background(), "Entities1", nil)
	if !odatasql.IsBadRequest(err) {
		t.Errorf("error = %v, want bad request", err)
	}
}
