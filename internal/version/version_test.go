package version

import (
	"net/url"
	"testing"
)

func TestVersion_String(t *testing.T) {
	tests := []struct {
		version  Version
		expected string
	}{
		{V1, "1.0"},
		{V2, "2.0"},
		{Version{3, 12}, "3.12"},
	}

	for _, tt := range tests {
		if got := tt.version.String(); got != tt.expected {
			t.Errorf("Version.String() = %v, want %v", got, tt.expected)
		}
	}
}

func TestVersion_LessThanOrEqual(t *testing.T) {
	tests := []struct {
		name     string
		v1       Version
		v2       Version
		expected bool
	}{
		{"1.0 <= 1.0", V1, V1, true},
		{"1.0 <= 2.0", V1, V2, true},
		{"2.0 <= 1.0", V2, V1, false},
		{"2.0 <= 2.5", V2, Version{2, 5}, true},
		{"3.0 <= 2.5", Version{3, 0}, Version{2, 5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v1.LessThanOrEqual(tt.v2); got != tt.expected {
				t.Errorf("%v.LessThanOrEqual(%v) = %v, want %v", tt.v1, tt.v2, got, tt.expected)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    Version
		wantErr bool
	}{
		{input: "2.0", want: V2},
		{input: "1.0;NetFx", want: V1},
		{input: " 2 ", want: V2},
		{input: "3.0", want: Version{3, 0}},
		{input: "", wantErr: true},
		{input: "two", wantErr: true},
		{input: "2.x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNegotiate(t *testing.T) {
	tests := []struct {
		maxVersion string
		want       Version
		wantErr    bool
	}{
		{maxVersion: "", want: V2},
		{maxVersion: "2.0", want: V2},
		{maxVersion: "3.0", want: V2},
		{maxVersion: "1.0", want: V1},
		{maxVersion: "1.5;Silverlight", want: V1},
		{maxVersion: "0.9", wantErr: true},
		{maxVersion: "abc", wantErr: true},
	}

	for _, tt := range tests {
		got, err := Negotiate(tt.maxVersion)
		if (err != nil) != tt.wantErr {
			t.Errorf("Negotiate(%q) error = %v, wantErr %v", tt.maxVersion, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("Negotiate(%q) = %v, want %v", tt.maxVersion, got, tt.want)
		}
	}
}

func TestRequired(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		values url.Values
		want   Version
	}{
		{"plain read", "Entities1", url.Values{"$filter": {"Status eq 'A'"}, "$top": {"3"}}, V1},
		{"count segment", "Entities1/$count", nil, V2},
		{"select", "Entities1", url.Values{"$select": {"Status"}}, V2},
		{"inlinecount", "Entities1", url.Values{"$inlinecount": {"allpages"}}, V2},
		{"skiptoken", "Entities1", url.Values{"$skiptoken": {"10"}}, V2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Required(tt.path, tt.values); got != tt.want {
				t.Errorf("Required() = %v, want %v", got, tt.want)
			}
		})
	}
}
