package query

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	proppath "github.com/Nandan108/prop-path"
)

func decodeDoc(t *testing.T, data string) any {
	t.Helper()
	doc, err := DecodeJSON([]byte(data))
	if err != nil {
		t.Fatalf("DecodeJSON() error = %v", err)
	}
	return doc
}

func TestCompile_PropPath(t *testing.T) {
	q, err := Compile("user.name", LangPropPath, proppath.ThrowNever)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if q.Source() != "user.name" {
		t.Errorf("Source() = %q, want user.name", q.Source())
	}

	doc := decodeDoc(t, `{"user": {"name": "ada"}}`)
	got, err := q.Eval(doc, nil)
	if err != nil {
		t.Fatalf("Eval() error = %v", err)
	}
	if got != "ada" {
		t.Errorf("Eval() = %#v, want ada", got)
	}
}

func TestCompile_JSONPath(t *testing.T) {
	doc := decodeDoc(t, `{"items": [{"id": 1}, {"id": 2}]}`)

	tests := []struct {
		expr string
		want any
	}{
		{"$.items[0].id", json.Number("1")},
		{"$.items[*].id", []any{json.Number("1"), json.Number("2")}},
		{"$.nope", nil},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			q, err := Compile(tt.expr, LangJSONPath, proppath.ThrowNever)
			if err != nil {
				t.Fatalf("Compile() error = %v", err)
			}
			got, err := q.Eval(doc, nil)
			if err != nil {
				t.Fatalf("Eval() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Eval(%q) = %#v, want %#v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	if _, err := Compile("a.b.", LangPropPath, proppath.ThrowNever); !errors.Is(err, ErrExpression) {
		t.Errorf("bad proppath error = %v, want ErrExpression", err)
	}
	if _, err := Compile("$[", LangJSONPath, proppath.ThrowNever); !errors.Is(err, ErrExpression) {
		t.Errorf("bad jsonpath error = %v, want ErrExpression", err)
	}
	if _, err := Compile("a", Lang("xpath"), proppath.ThrowNever); !errors.Is(err, ErrExpression) {
		t.Errorf("unknown language error = %v, want ErrExpression", err)
	}
}

func TestCompileSpec(t *testing.T) {
	q, err := CompileSpec([]byte("who: user.name"), proppath.ThrowNever)
	if err != nil {
		t.Fatalf("CompileSpec() error = %v", err)
	}

	doc := decodeDoc(t, `{"user": {"name": "ada"}}`)
	got, err := q.Eval(doc, nil)
	if err != nil {
		t.Fatalf("Eval() error = %v", err)
	}
	want := map[string]any{"who": "ada"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Eval() = %#v, want %#v", got, want)
	}
}

func TestEval_ExtraRoots(t *testing.T) {
	q, err := Compile("$env.region ?? doc.region", LangPropPath, proppath.ThrowNever)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	doc := decodeDoc(t, `{"region": "fallback"}`)
	extra := proppath.RootsOf("env", map[string]any{"region": "eu"})

	got, err := q.Eval(doc, extra)
	if err != nil {
		t.Fatalf("Eval() error = %v", err)
	}
	if got != "eu" {
		t.Errorf("Eval() = %#v, want eu", got)
	}
}

func TestDecodeJSON(t *testing.T) {
	doc, err := DecodeJSON([]byte(`{"n": 12345678901234567890}`))
	if err != nil {
		t.Fatalf("DecodeJSON() error = %v", err)
	}

	// Numbers decode as json.Number so precision survives.
	m := doc.(map[string]any)
	if _, ok := m["n"].(json.Number); !ok {
		t.Errorf("number decoded as %T, want json.Number", m["n"])
	}

	if _, err := DecodeJSON(nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("DecodeJSON(nil) error = %v, want ErrInvalidInput", err)
	}
	if _, err := DecodeJSON([]byte("{broken")); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("DecodeJSON(broken) error = %v, want ErrInvalidInput", err)
	}
}

func TestDecodeYAML(t *testing.T) {
	doc, err := DecodeYAML([]byte("user:\n  name: ada"))
	if err != nil {
		t.Fatalf("DecodeYAML() error = %v", err)
	}

	m := doc.(map[string]any)
	user := m["user"].(map[string]any)
	if user["name"] != "ada" {
		t.Errorf("decoded name = %v, want ada", user["name"])
	}

	if _, err := DecodeYAML(nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("DecodeYAML(nil) error = %v, want ErrInvalidInput", err)
	}
}
