package dialect

import "testing"

func TestParse(t *testing.T) {
	tests := map[string]Product{
		"derby":      Derby,
		"POSTGRESQL": PostgreSQL,
		"postgres":   PostgreSQL,
		" hana ":     HANA,
		"sqlite":     SQLite,
	}
	for in, want := range tests {
		got, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", in, err)
		}
		if got != want {
			t.Errorf("Parse(%q) = %s, want %s", in, got, want)
		}
	}
	if _, err := Parse("oracle"); err == nil {
		t.Error("expected error for unknown product")
	}
}

func TestPaging(t *testing.T) {
	tests := []struct {
		name    string
		product Product
		top     int
		skip    int
		want    string
	}{
		{"derby limit", Derby, 1000, 0, "FETCH FIRST 1000 ROWS ONLY"},
		{"derby offset first", Derby, 2, 6, "OFFSET 6 ROWS FETCH FIRST 2 ROWS ONLY"},
		{"postgres limit offset", PostgreSQL, 2, 6, "LIMIT 2 OFFSET 6"},
		{"postgres offset only", PostgreSQL, 0, 6, "OFFSET 6"},
		{"sqlite offset only", SQLite, 0, 6, "LIMIT -1 OFFSET 6"},
		{"mysql offset only", MySQL, -1, 3, "LIMIT 18446744073709551615 OFFSET 3"},
		{"hana limit", HANA, 10, 0, "LIMIT 10"},
		{"nothing", H2, -1, -1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.product.Paging(tt.top, tt.skip); got != tt.want {
				t.Errorf("Paging(%d, %d) = %q, want %q", tt.top, tt.skip, got, tt.want)
			}
		})
	}
}

func TestQuote(t *testing.T) {
	if got := Quote("T0"); got != `"T0"` {
		t.Errorf("Quote(T0) = %s", got)
	}
	if got := Quote(`"T0"`); got != `"T0"` {
		t.Errorf("Quote must be idempotent, got %s", got)
	}
	if got := QuoteIf(false, "COL"); got != "COL" {
		t.Errorf("QuoteIf(false) = %s", got)
	}
	if got := QuoteIf(true, "COL"); got != `"COL"` {
		t.Errorf("QuoteIf(true) = %s", got)
	}
}
