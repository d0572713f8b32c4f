package sqlquery

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/nlstn/go-odata-sql/internal/edm"
	"github.com/nlstn/go-odata-sql/internal/odataerr"
	"github.com/nlstn/go-odata-sql/internal/query"
	"github.com/nlstn/go-odata-sql/internal/testmodel"
)

func entityType(t *testing.T, name string) *edm.EntityType {
	t.Helper()
	et, ok := testmodel.Catalog().Model.Type(name)
	if !ok {
		t.Fatalf("type %s not found", name)
	}
	return et
}

func newBuilder(ctx Context) *SelectBuilder {
	return NewSelectBuilder(testmodel.Catalog().Bindings, ctx)
}

func resolveFilter(t *testing.T, target *edm.EntityType, filter string) query.Expr {
	t.Helper()
	expr, err := query.ResolveFilter(filter, target)
	if err != nil {
		t.Fatalf("ResolveFilter(%q) error = %v", filter, err)
	}
	return expr
}

func translateFilter(t *testing.T, typeName, filter string) (*WhereClause, error) {
	t.Helper()
	target := entityType(t, typeName)
	b := newBuilder(DefaultContext())
	b.tableAlias(target)
	return b.whereClause(target, resolveFilter(t, target, filter))
}

func TestVisitorPredicates(t *testing.T) {
	tests := []struct {
		name   string
		filter string
		want   string
		params []string
	}{
		{
			name:   "comparison and datetime",
			filter: "Status eq 'DONE' and LogEnd lt datetime'2014-10-02T09:14:00'",
			want:   "T0.STATUS = ? AND T0.LOGEND < ?",
			params: []string{"DONE", "2014-10-02 09:14:00 +0000 UTC"},
		},
		{
			name:   "all comparison operators",
			filter: "Id ne 1 and Id gt 2 and Id ge 3 and Id lt 4 and Id le 5",
			want:   "T0.ID <> ? AND T0.ID > ? AND T0.ID >= ? AND T0.ID < ? AND T0.ID <= ?",
			params: []string{"1", "2", "3", "4", "5"},
		},
		{
			name:   "precedence keeps or group",
			filter: "(not(Status eq 'A') or Sender eq 'B') and not(Receiver eq 'C') or Status eq 'D'",
			want:   "(NOT(T0.STATUS = ?) OR T0.SENDER = ?) AND NOT(T0.RECEIVER = ?) OR T0.STATUS = ?",
			params: []string{"A", "B", "C", "D"},
		},
		{
			name:   "and binds tighter than or",
			filter: "Status eq 'A' and Sender eq 'B' or Receiver eq 'C'",
			want:   "T0.STATUS = ? AND T0.SENDER = ? OR T0.RECEIVER = ?",
			params: []string{"A", "B", "C"},
		},
		{
			name:   "or nested in and",
			filter: "Id eq 1 and (Status eq 'A' or Status eq 'B')",
			want:   "T0.ID = ? AND (T0.STATUS = ? OR T0.STATUS = ?)",
			params: []string{"1", "A", "B"},
		},
		{
			name:   "is null",
			filter: "Status eq null",
			want:   "T0.STATUS IS NULL",
		},
		{
			name:   "is not null",
			filter: "Status ne null",
			want:   "T0.STATUS IS NOT NULL",
		},
		{
			name:   "literal on the left",
			filter: "'DONE' eq Status",
			want:   "? = T0.STATUS",
			params: []string{"DONE"},
		},
		{
			name:   "startswith",
			filter: "startswith(Status, 'x')",
			want:   "T0.STATUS LIKE ?",
			params: []string{"x%"},
		},
		{
			name:   "endswith",
			filter: "endswith(Status, 'x')",
			want:   "T0.STATUS LIKE ?",
			params: []string{"%x"},
		},
		{
			name:   "substringof",
			filter: "substringof('x', Status)",
			want:   "T0.STATUS LIKE ?",
			params: []string{"%x%"},
		},
		{
			name:   "like against column",
			filter: "startswith(Status, Sender)",
			want:   "T0.STATUS LIKE T0.SENDER",
		},
		{
			name:   "concat",
			filter: "concat(Status, 'x') eq 'ax'",
			want:   "CONCAT(T0.STATUS,?) = ?",
			params: []string{"x", "ax"},
		},
		{
			name:   "string functions",
			filter: "tolower(Status) eq 'a' and toupper(Sender) eq 'B' and length(Receiver) gt 3",
			want:   "LOWER(T0.STATUS) = ? AND UPPER(T0.SENDER) = ? AND LENGTH(T0.RECEIVER) > ?",
			params: []string{"a", "B", "3"},
		},
		{
			name:   "not of a column",
			filter: "not(Status eq 'A')",
			want:   "NOT(T0.STATUS = ?)",
			params: []string{"A"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := translateFilter(t, "Entity1", tt.filter)
			if err != nil {
				t.Fatalf("whereClause() error = %v", err)
			}
			if w.String() != tt.want {
				t.Errorf("whereClause() = %q, want %q", w.String(), tt.want)
			}
			params := w.Params()
			if len(params) != len(tt.params) {
				t.Fatalf("params = %v, want %v", params, tt.params)
			}
			if got := strings.Count(w.String(), "?"); got != len(params) {
				t.Errorf("placeholders = %d, params = %d", got, len(params))
			}
			for i, p := range params {
				if got := fmt.Sprint(p.Value); got != tt.params[i] {
					t.Errorf("params[%d] = %s, want %s", i, got, tt.params[i])
				}
			}
		})
	}
}

func TestVisitorParamColumns(t *testing.T) {
	w, err := translateFilter(t, "Entity1", "Status eq 'DONE' and 'x' eq Sender and LogEnd lt datetime'2014-10-02T09:14:00'")
	if err != nil {
		t.Fatal(err)
	}
	params := w.Params()
	want := []string{"T0.STATUS", "T0.SENDER", "T0.LOGEND"}
	for i, p := range params {
		if p.Column.Name != want[i] {
			t.Errorf("params[%d].Column = %q, want %q", i, p.Column.Name, want[i])
		}
	}
	if params[2].Type != edm.DateTime {
		t.Errorf("params[2].Type = %s, want Edm.DateTime", params[2].Type)
	}
	if _, ok := params[2].Value.(time.Time); !ok {
		t.Errorf("datetime literal bound as %T, want time.Time", params[2].Value)
	}
}

func TestVisitorDisjunctionFlag(t *testing.T) {
	w, err := translateFilter(t, "Entity1", "Status eq 'A' or Status eq 'B'")
	if err != nil {
		t.Fatal(err)
	}
	key := NewWhereClause("T0.MESSAGEGUID = ?", Param{Value: "k"})
	key.And(w)
	if key.String() != "T0.MESSAGEGUID = ? AND (T0.STATUS = ? OR T0.STATUS = ?)" {
		t.Errorf("And(filter) = %q", key.String())
	}
}

func TestVisitorErrors(t *testing.T) {
	tests := []struct {
		name    string
		filter  string
		wantErr error
		message string
	}{
		{"startswith on literal", "startswith('x', Status)", odataerr.ErrBadRequest, "Invalid startswith usage"},
		{"endswith on literal", "endswith('x', Status)", odataerr.ErrBadRequest, "Invalid like syntax"},
		{"substringof on literal", "substringof(Status, 'x')", odataerr.ErrBadRequest, "Invalid substringof usage"},
		{"arithmetic", "Id add 1 eq 2", odataerr.ErrNotImplemented, ""},
		{"unsupported method", "indexof(Status, 'a') eq 1", odataerr.ErrNotImplemented, ""},
		{"navigation compared", "HeaderAttributes eq null", odataerr.ErrNotImplemented, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := translateFilter(t, "Entity1", tt.filter)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if tt.message != "" && !strings.Contains(err.Error(), tt.message) {
				t.Errorf("error = %q, want %q", err.Error(), tt.message)
			}
		})
	}
}

func TestVisitorUnmappedProperty(t *testing.T) {
	_, err := translateFilter(t, "Revenue", "Comment eq 'x'")
	if !errors.Is(err, odataerr.ErrInternal) {
		t.Fatalf("error = %v, want internal error", err)
	}
	if !strings.Contains(err.Error(), "Unable to find binding for type org.example.Revenue and property Comment") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestVisitorMemberRegistersJoin(t *testing.T) {
	attr := entityType(t, "Entity2")
	b := newBuilder(DefaultContext())
	b.tableAlias(attr)

	w, err := b.whereClause(attr, resolveFilter(t, attr, "Header/Status eq 'A' and Header/Sender eq 'B'"))
	if err != nil {
		t.Fatal(err)
	}
	if w.String() != "T1.STATUS = ? AND T1.SENDER = ?" {
		t.Errorf("whereClause() = %q", w.String())
	}
	if len(b.Joins()) != 1 {
		t.Errorf("joins = %d, want 1 (deduplicated)", len(b.Joins()))
	}
}

func TestVisitorComplexMember(t *testing.T) {
	e4 := entityType(t, "Entity4")
	b := newBuilder(DefaultContext())
	b.tableAlias(e4)

	w, err := b.whereClause(e4, resolveFilter(t, e4, "Address/City eq 'Berlin'"))
	if err != nil {
		t.Fatal(err)
	}
	if w.String() != "T1.CITY = ?" {
		t.Errorf("whereClause() = %q", w.String())
	}
	joins := b.Joins()
	if len(joins) != 1 || joins[0].start.Name != "Address" {
		t.Fatalf("joins = %v", joins)
	}
	text, err := joins[0].evaluate()
	if err != nil {
		t.Fatal(err)
	}
	if text != "LEFT JOIN ENTITY4_ADDRESS AS T1 ON T1.ENTITY4_ID4_1 = T0.ID4_1 AND T1.ENTITY4_ID4_2 = T0.ID4_2" {
		t.Errorf("join = %q", text)
	}
}
