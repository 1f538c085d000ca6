// Package query evaluates an expression against decoded input documents for
// the CLI: PropPath natively, or standard JSONPath (RFC 9535) for
// comparison and migration of existing queries.
package query

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/theory/jsonpath"

	proppath "github.com/Nandan108/prop-path"
)

var (
	// ErrInvalidInput indicates empty or undecodable input data.
	ErrInvalidInput = errors.New("query: invalid input")

	// ErrExpression indicates the expression failed to compile.
	ErrExpression = errors.New("query: invalid expression")
)

// Lang selects the expression language.
type Lang string

const (
	LangPropPath Lang = "proppath"
	LangJSONPath Lang = "jsonpath"
)

// Query is a compiled expression in either language, reusable across
// documents.
type Query struct {
	source string
	pp     *proppath.Extractor
	jp     *jsonpath.Path
}

// Compile compiles source in the given language. mode and any extra options
// only apply to PropPath; JSONPath queries never throw.
func Compile(source string, lang Lang, mode proppath.ThrowMode, opts ...proppath.Option) (*Query, error) {
	switch lang {
	case LangPropPath:
		ex, err := proppath.Compile(source, append([]proppath.Option{proppath.WithMode(mode)}, opts...)...)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrExpression, err)
		}
		return &Query{source: source, pp: ex}, nil

	case LangJSONPath:
		p, err := jsonpath.Parse(source)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrExpression, err)
		}
		return &Query{source: source, jp: p}, nil

	default:
		return nil, fmt.Errorf("%w: unknown language %q", ErrExpression, lang)
	}
}

// CompileSpec compiles a structured YAML extraction spec (PropPath only).
func CompileSpec(spec []byte, mode proppath.ThrowMode, opts ...proppath.Option) (*Query, error) {
	ex, err := proppath.CompileYAML(spec, append([]proppath.Option{proppath.WithMode(mode)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExpression, err)
	}
	return &Query{source: string(spec), pp: ex}, nil
}

// Source returns the original expression text.
func (q *Query) Source() string {
	return q.source
}

// Eval runs the query against one document mounted as the root named "doc",
// alongside any extra named roots.
func (q *Query) Eval(doc any, extra *proppath.Roots) (any, error) {
	if q.jp != nil {
		results := q.jp.Select(doc)
		switch len(results) {
		case 0:
			return nil, nil
		case 1:
			return results[0], nil
		default:
			return []any(results), nil
		}
	}

	roots := proppath.RootsOf("doc", doc)
	if extra != nil {
		for _, name := range extra.Names() {
			v, _ := extra.Get(name)
			roots.Set(name, v)
		}
	}
	return q.pp.Extract(roots)
}

// DecodeJSON decodes one JSON document. Numbers decode as json.Number so
// integer keys and values survive round-trips.
func DecodeJSON(data []byte) (any, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidInput)
	}

	var doc any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return doc, nil
}

// DecodeYAML decodes one YAML document.
func DecodeYAML(data []byte) (any, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidInput)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return doc, nil
}
