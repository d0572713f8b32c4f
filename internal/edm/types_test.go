package edm

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestFromGoTypeTable(t *testing.T) {
	tests := []struct {
		name     string
		goType   reflect.Type
		expected SimpleType
		wantErr  bool
	}{
		{"nil type", nil, "", true},
		{"pointer to string", reflect.TypeOf((*string)(nil)), String, false},
		{"time.Time", reflect.TypeOf(time.Time{}), DateTime, false},
		{"decimal.Decimal", reflect.TypeOf(decimal.Decimal{}), Decimal, false},
		{"uuid.UUID", reflect.TypeOf(uuid.UUID{}), Guid, false},
		{"byte slice", reflect.TypeOf([]byte{}), Binary, false},
		{"int", reflect.TypeOf(int(0)), Int32, false},
		{"int64", reflect.TypeOf(int64(0)), Int64, false},
		{"float64", reflect.TypeOf(float64(0)), Double, false},
		{"bool", reflect.TypeOf(true), Boolean, false},
		{"map", reflect.TypeOf(map[string]int{}), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromGoType(tt.goType)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %s", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("FromGoType() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestFromSQLType(t *testing.T) {
	tests := map[string]SimpleType{
		"VARCHAR(255)":             String,
		"integer":                  Int32,
		"BIGINT":                   Int64,
		"DECIMAL(10,2)":            Decimal,
		"DATETIME":                 DateTime,
		"TIMESTAMP":                DateTime,
		"DATE":                     DateTime,
		"TIMESTAMP WITH TIME ZONE": DateTimeOffset,
		"TIME":                     Time,
		"BOOLEAN":                  Boolean,
		"UUID":                     Guid,
	}
	for sqlType, want := range tests {
		got, err := FromSQLType(sqlType)
		if err != nil {
			t.Fatalf("FromSQLType(%q) error: %v", sqlType, err)
		}
		if got != want {
			t.Errorf("FromSQLType(%q) = %s, want %s", sqlType, got, want)
		}
	}

	if _, err := FromSQLType("GEOMETRY"); err == nil {
		t.Error("expected error for unsupported SQL type")
	}
}

func TestParseLiteral(t *testing.T) {
	logEnd := time.Date(2014, 10, 2, 9, 14, 0, 0, time.UTC)
	id := uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e")

	tests := []struct {
		name string
		typ  SimpleType
		raw  string
		want any
	}{
		{"string", String, "ERROR", "ERROR"},
		{"int32", Int32, "11", int64(11)},
		{"int64 suffix", Int64, "42L", int64(42)},
		{"byte", Byte, "255", int64(255)},
		{"double suffix", Double, "1.5d", 1.5},
		{"boolean", Boolean, "true", true},
		{"guid", Guid, id.String(), id},
		{"datetime", DateTime, "2014-10-02T09:14:00", logEnd},
		{"datetime minutes", DateTime, "2014-10-02T09:14", logEnd},
		{"datetimeoffset", DateTimeOffset, "2014-10-02T11:14:00+02:00", logEnd},
		{"time duration", Time, "PT13H20M", "13:20:00"},
		{"time clock", Time, "13:20:05", "13:20:05"},
		{"binary", Binary, "0aff", []byte{0x0a, 0xff}},
		{"null", Null, "null", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLiteral(tt.typ, tt.raw)
			if err != nil {
				t.Fatalf("ParseLiteral(%s, %q) error: %v", tt.typ, tt.raw, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseLiteral(%s, %q) = %#v, want %#v", tt.typ, tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseLiteralDecimal(t *testing.T) {
	got, err := ParseLiteral(Decimal, "12.50M")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d, ok := got.(decimal.Decimal)
	if !ok {
		t.Fatalf("expected decimal.Decimal, got %T", got)
	}
	if !d.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("got %s, want 12.5", d)
	}
}

func TestParseLiteralErrors(t *testing.T) {
	tests := []struct {
		typ SimpleType
		raw string
	}{
		{Int32, "abc"},
		{Int16, "70000"},
		{Byte, "-1"},
		{Boolean, "yes"},
		{Guid, "not-a-guid"},
		{DateTime, "02.10.2014"},
		{Time, "PT25H"},
		{Decimal, "1.2.3"},
		{SimpleType("Edm.Geography"), "x"},
	}
	for _, tt := range tests {
		if _, err := ParseLiteral(tt.typ, tt.raw); err == nil {
			t.Errorf("ParseLiteral(%s, %q) expected error", tt.typ, tt.raw)
		}
	}
}
