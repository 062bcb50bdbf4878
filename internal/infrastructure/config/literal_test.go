package config

import (
	"reflect"
	"testing"
)

func TestParseLiteral(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    any
		wantErr bool
	}{
		{name: "integer", raw: "42", want: 42},
		{name: "negative integer", raw: "-7", want: -7},
		{name: "hex integer", raw: "0x1f", want: 31},
		{name: "octal prefix", raw: "0o17", want: 15},
		{name: "zero", raw: "0", want: 0},
		{name: "leading zero float", raw: "0.5", want: 0.5},
		{name: "zero padded", raw: "0123", want: "0123", wantErr: true},
		{name: "zero padded non-octal digits", raw: "089", want: "089", wantErr: true},
		{name: "signed zero padded", raw: "-007", want: "-007", wantErr: true},
		{name: "int64 overflow", raw: "12345678901234567890123", want: "12345678901234567890123", wantErr: true},
		{name: "float", raw: "2.5", want: 2.5},
		{name: "exponent float", raw: "1e3", want: 1000.0},
		{name: "true", raw: "true", want: true},
		{name: "False mixed case", raw: "False", want: false},
		{name: "int list", raw: "[1, 2]", want: []any{1, 2}},
		{name: "quoted string list", raw: "['a', 'b']", want: []any{"a", "b"}},
		{name: "quoted number stays string", raw: "['12']", want: []any{"12"}},
		{name: "nested list", raw: `[["^x$", "y"]]`, want: []any{[]any{"^x$", "y"}}},
		{name: "empty list", raw: "[]", want: []any{}},
		{name: "single quoted", raw: "'abc'", want: "abc"},
		{name: "double quoted", raw: `"abc"`, want: "abc"},
		{name: "bare word", raw: "Europe/Paris", want: "Europe/Paris", wantErr: true},
		{name: "Inf stays string", raw: "Inf", want: "Inf", wantErr: true},
		{name: "NaN stays string", raw: "NaN", want: "NaN", wantErr: true},
		{name: "mapping in list rejected", raw: "[{a: 1}]", want: "[{a: 1}]", wantErr: true},
		{name: "comma list without brackets", raw: "a,b", want: "a,b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLiteral(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLiteral(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseLiteral(%q) = %#v, want %#v", tt.raw, got, tt.want)
			}
		})
	}
}
