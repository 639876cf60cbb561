package jsondoc

import (
	"testing"
)

func TestParsePreservesMemberOrder(t *testing.T) {
	doc, err := Parse([]byte(`{"zebra": 1, "apple": 2, "mango": 3}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := []string{"zebra", "apple", "mango"}
	if len(doc.Members) != len(want) {
		t.Fatalf("len(Members) = %d, want %d", len(doc.Members), len(want))
	}
	for i, key := range want {
		if doc.Members[i].Key != key {
			t.Errorf("Members[%d].Key = %q, want %q", i, doc.Members[i].Key, key)
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"object order", `{"z":1,"a":{"y":true,"b":null},"m":[1,2,3]}`},
		{"number formatting", `{"a":1.50,"b":1e3,"c":-0.25}`},
		{"nested arrays", `[[1,2],["a","b"],[]]`},
		{"escaped strings", `{"text":"line\nbreak \"quoted\""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte(tt.input))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			out, err := doc.MarshalJSON()
			if err != nil {
				t.Fatalf("MarshalJSON() error = %v", err)
			}
			reparsed, err := Parse(out)
			if err != nil {
				t.Fatalf("Parse(round-trip) error = %v", err)
			}
			if !doc.Equal(reparsed) {
				t.Errorf("round-trip mismatch: %s -> %s", tt.input, out)
			}
		})
	}
}

func TestParseRejectsTrailingData(t *testing.T) {
	if _, err := Parse([]byte(`{"a":1} {"b":2}`)); err == nil {
		t.Error("Parse() error = nil, want error for trailing data")
	}
}

func TestScalarString(t *testing.T) {
	doc, err := Parse([]byte(`{"s":"hi","n":2.50,"b":true,"z":null,"arr":[1]}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	tests := []struct {
		key  string
		want string
	}{
		{"s", "hi"},
		{"n", "2.50"},
		{"b", "true"},
		{"z", "null"},
		{"arr", ""},
	}

	for _, tt := range tests {
		v, ok := doc.Field(tt.key)
		if !ok {
			t.Fatalf("Field(%q) not found", tt.key)
		}
		if got := v.ScalarString(); got != tt.want {
			t.Errorf("ScalarString(%s) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestIsScalar(t *testing.T) {
	doc, err := Parse([]byte(`{"s":"x","n":1,"b":false,"z":null,"o":{},"a":[]}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	scalars := map[string]bool{"s": true, "n": true, "b": true, "z": true, "o": false, "a": false}
	for key, want := range scalars {
		v, _ := doc.Field(key)
		if got := v.IsScalar(); got != want {
			t.Errorf("IsScalar(%s) = %v, want %v", key, got, want)
		}
	}
}

func TestFromAnySortsKeys(t *testing.T) {
	v := FromAny(map[string]any{"zebra": 1, "apple": 2})
	if len(v.Members) != 2 {
		t.Fatalf("len(Members) = %d, want 2", len(v.Members))
	}
	if v.Members[0].Key != "apple" || v.Members[1].Key != "zebra" {
		t.Errorf("keys = [%s %s], want [apple zebra]", v.Members[0].Key, v.Members[1].Key)
	}
}

func TestFieldFirstDuplicateWins(t *testing.T) {
	doc, err := Parse([]byte(`{"k":"first","k":"second"}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	v, ok := doc.Field("k")
	if !ok {
		t.Fatal("Field(k) not found")
	}
	if v.Str != "first" {
		t.Errorf("Field(k) = %q, want %q", v.Str, "first")
	}
}
