package access

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestReflectAccessor_IsContainer(t *testing.T) {
	acc := Default()

	tests := []struct {
		name string
		v    any
		want bool
	}{
		{"map", map[string]any{}, true},
		{"slice", []any{1}, true},
		{"array", [2]int{1, 2}, true},
		{"struct", struct{ X int }{}, true},
		{"pointer to struct", &struct{ X int }{}, true},
		{"string", "hello", false},
		{"int", 42, false},
		{"nil", nil, false},
		{"nil pointer", (*struct{ X int })(nil), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := acc.IsContainer(tt.v); got != tt.want {
				t.Errorf("IsContainer(%v) = %t, want %t", tt.v, got, tt.want)
			}
		})
	}
}

func TestReflectAccessor_EntriesOrdering(t *testing.T) {
	acc := Default()

	// Map entries sort by key for deterministic enumeration.
	got := acc.Entries(map[string]any{"c": 3, "a": 1, "b": 2})
	want := []Entry{{Key: "a", Value: 1}, {Key: "b", Value: 2}, {Key: "c", Value: 3}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("map Entries() = %v, want %v", got, want)
	}

	// Int-keyed maps sort numerically.
	got = acc.Entries(map[int]string{10: "x", 2: "y"})
	want = []Entry{{Key: 2, Value: "y"}, {Key: 10, Value: "x"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("int map Entries() = %v, want %v", got, want)
	}

	// Slices keep positional order with int keys.
	got = acc.Entries([]any{"x", "y"})
	want = []Entry{{Key: 0, Value: "x"}, {Key: 1, Value: "y"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("slice Entries() = %v, want %v", got, want)
	}
}

func TestReflectAccessor_Get(t *testing.T) {
	acc := Default()

	tests := []struct {
		name      string
		v         any
		key       any
		want      any
		wantFound bool
	}{
		{"map hit", map[string]any{"a": 1}, "a", 1, true},
		{"map miss", map[string]any{"a": 1}, "b", nil, false},
		{"map null value hit", map[string]any{"a": nil}, "a", nil, true},
		{"slice index", []any{"x", "y"}, 1, "y", true},
		{"slice negative index", []any{"x", "y", "z"}, -1, "z", true},
		{"slice out of range", []any{"x"}, 5, nil, false},
		{"slice string index", []any{"x", "y"}, "1", "y", true},
		{"slice non-numeric key", []any{"x"}, "a", nil, false},
		{"int-keyed map via string", map[int]string{3: "v"}, "3", "v", true},
		{"string-keyed map via int", map[string]any{"7": "v"}, 7, "v", true},
		{"string-keyed map via int miss", map[string]any{"a": "v"}, 7, nil, false},
		{"named-string-keyed map", map[label]int{"x": 9}, "x", 9, true},
		{"int64-keyed map via int", map[int64]string{7: "v"}, 7, "v", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := acc.Get(tt.v, tt.key)
			if found != tt.wantFound {
				t.Fatalf("Get(%v, %v) found = %t, want %t", tt.v, tt.key, found, tt.wantFound)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Get(%v, %v) = %#v, want %#v", tt.v, tt.key, got, tt.want)
			}
		})
	}
}

type label string

type account struct {
	Name    string
	balance int
}

func (a account) Balance() int { return a.balance }

func (a *account) GetLabel() string { return a.Name + "!" }

func TestReflectAccessor_Structs(t *testing.T) {
	acc := Default()
	v := account{Name: "ada", balance: 12}

	got, found := acc.Get(v, "Name")
	if !found || got != "ada" {
		t.Errorf("Get(Name) = %#v, %t, want ada, true", got, found)
	}

	// Unexported fields are invisible.
	if _, found := acc.Get(v, "balance"); found {
		t.Error("Get(balance) should not expose an unexported field")
	}

	// Zero-argument getters double as members.
	got, found = acc.Get(v, "Balance")
	if !found || got != 12 {
		t.Errorf("Get(Balance) = %#v, %t, want 12, true", got, found)
	}

	// The Get-prefixed form is tried for pointer receivers.
	got, found = acc.Get(&v, "Label")
	if !found || got != "ada!" {
		t.Errorf("Get(Label) = %#v, %t, want ada!, true", got, found)
	}

	entries := acc.Entries(v)
	wantKeys := []any{"Name", "Balance"}
	if len(entries) != len(wantKeys) {
		t.Fatalf("struct Entries() = %v, want keys %v", entries, wantKeys)
	}
	for i, k := range wantKeys {
		if entries[i].Key != k {
			t.Errorf("entry %d key = %v, want %v", i, entries[i].Key, k)
		}
	}
}

func TestReflectAccessor_Countable(t *testing.T) {
	acc := Default()

	if !acc.IsCountable([]any{1, 2}) || acc.Len([]any{1, 2}) != 2 {
		t.Error("slices should be countable with their length")
	}
	if !acc.IsCountable(map[string]any{"a": 1}) || acc.Len(map[string]any{"a": 1}) != 1 {
		t.Error("maps should be countable with their size")
	}
	if acc.IsCountable(struct{}{}) {
		t.Error("structs are enumerable but not countable")
	}
	if acc.IsCountable("abc") {
		t.Error("strings are not countable containers")
	}
}

func TestStringify(t *testing.T) {
	tests := []struct {
		name   string
		v      any
		want   string
		wantOK bool
	}{
		{"string", "x", "x", true},
		{"int", 42, "42", true},
		{"int64", int64(-3), "-3", true},
		{"float", 1.5, "1.5", true},
		{"bool", true, "true", true},
		{"json number", json.Number("99"), "99", true},
		{"nil", nil, "", false},
		{"map", map[string]any{}, "", false},
		{"slice", []any{}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Stringify(tt.v)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Stringify(%#v) = %q, %t, want %q, %t", tt.v, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestKeyString(t *testing.T) {
	if got := KeyString("name"); got != "name" {
		t.Errorf("KeyString(name) = %q", got)
	}
	if got := KeyString(7); got != "7" {
		t.Errorf("KeyString(7) = %q, want 7", got)
	}
}
