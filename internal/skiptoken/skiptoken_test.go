package skiptoken

import (
	"errors"
	"math"
	"net/http"
	"testing"

	"github.com/nlstn/go-odata-sql/internal/odataerr"
)

func intPtr(i int) *int { return &i }

func TestParse(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantOK  bool
		wantErr string
	}{
		{raw: "", want: 0},
		{raw: "  ", want: 0},
		{raw: "0", want: 0, wantOK: true},
		{raw: "1000", want: 1000, wantOK: true},
		{raw: "abc", wantErr: "$skipToken must be a number"},
		{raw: "1.5", wantErr: "$skipToken must be a number"},
		{raw: "-1", wantErr: "$skipToken must be a positive number equal or greater than zero"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok, err := Parse(tt.raw)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("Parse(%q) expected error", tt.raw)
				}
				if !errors.Is(err, odataerr.ErrRangeNotSatisfiable) {
					t.Errorf("Parse(%q) error = %v, want range not satisfiable", tt.raw, err)
				}
				if odataerr.StatusCode(err) != http.StatusRequestedRangeNotSatisfiable {
					t.Errorf("status = %d, want 416", odataerr.StatusCode(err))
				}
				var oe *odataerr.Error
				if !errors.As(err, &oe) || oe.Message != tt.wantErr {
					t.Errorf("message = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.raw, err)
			}
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Parse(%q) = %d, %v, want %d, %v", tt.raw, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestEffectiveSkip(t *testing.T) {
	tests := []struct {
		name  string
		skip  *int
		token string
		want  *int
	}{
		{"skip and token", intPtr(3), "5", intPtr(8)},
		{"token without skip", nil, "5", intPtr(5)},
		{"skip without token", intPtr(3), "", intPtr(3)},
		{"neither", nil, "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EffectiveSkip(tt.skip, tt.token)
			if err != nil {
				t.Fatal(err)
			}
			if (got == nil) != (tt.want == nil) || (got != nil && *got != *tt.want) {
				t.Errorf("EffectiveSkip() = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := EffectiveSkip(intPtr(1), "x"); err == nil {
		t.Error("expected an error for an invalid token")
	}

	_, err := EffectiveSkip(intPtr(math.MaxInt), "1")
	if !errors.Is(err, odataerr.ErrRangeNotSatisfiable) {
		t.Errorf("EffectiveSkip(MaxInt, 1) error = %v, want range not satisfiable", err)
	}
	if got, err := EffectiveSkip(intPtr(math.MaxInt-1), "1"); err != nil || *got != math.MaxInt {
		t.Errorf("EffectiveSkip(MaxInt-1, 1) = %v, %v", got, err)
	}
}

func TestNext(t *testing.T) {
	if next, ok := Next(4, 2); !ok || next != 6 {
		t.Errorf("Next(4, 2) = %d, %v", next, ok)
	}
	if _, ok := Next(math.MaxInt-1, 2); ok {
		t.Error("Next() past MaxInt reported ok")
	}
}

func TestNextLink(t *testing.T) {
	tests := []struct {
		uri  string
		next int
		want string
	}{
		{"Entities1", 1000, "Entities1?$skiptoken=1000"},
		{"Entities1?$filter=Status%20eq%20'A'", 1000, "Entities1?$filter=Status%20eq%20'A'&$skiptoken=1000"},
		{"Entities1?$skip=5&$top=2000&$skiptoken=1000", 2005, "Entities1?$top=2000&$skiptoken=2005"},
		{"Entities1?%24skip=5&$orderby=Id", 1005, "Entities1?$orderby=Id&$skiptoken=1005"},
	}
	for _, tt := range tests {
		if got := NextLink(tt.uri, tt.next); got != tt.want {
			t.Errorf("NextLink(%q) = %q, want %q", tt.uri, got, tt.want)
		}
	}
}
