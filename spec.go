package proppath

import (
	"fmt"
	"sort"

	"github.com/goccy/go-yaml"

	"github.com/Nandan108/prop-path/internal/cache"
	"github.com/Nandan108/prop-path/internal/compiler"
	"github.com/Nandan108/prop-path/internal/evalctx"
)

// specNode is one node of a structured PathSpec: a compiled leaf expression,
// or a map/list mirroring the desired output shape 1:1.
type specNode struct {
	chain  *compiler.Chain
	keys   []string // deterministic map traversal order
	kids   map[string]*specNode
	list   []*specNode
	isList bool
}

// CompileSpec compiles a structured PathSpec: a nested map/slice structure
// whose leaves are expression strings. Extraction returns the same shape
// with each leaf replaced by its extracted value. Leaves are independently
// compiled (and independently memoized).
func CompileSpec(spec any, opts ...Option) (*Extractor, error) {
	o := buildOptions(opts)
	node, err := compileSpecNode(spec, o)
	if err != nil {
		return nil, err
	}
	return &Extractor{mode: o.mode, opts: o, shape: node}, nil
}

// CompileYAML compiles a structured PathSpec from YAML (or JSON, which YAML
// subsumes). The whole document is memoized by content hash.
func CompileYAML(data []byte, opts ...Option) (*Extractor, error) {
	o := buildOptions(opts)

	key := cache.Key("yaml\x00"+string(data), uint8(o.mode))
	if o.cache != nil {
		if v, ok := o.cache.Get(key); ok {
			return v.(*Extractor).withOptions(o), nil
		}
	}

	var spec any
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("proppath: invalid spec document: %w", err)
	}

	ex, err := CompileSpec(spec, opts...)
	if err != nil {
		return nil, err
	}

	if o.cache != nil {
		o.cache.Put(key, ex)
	}
	return ex, nil
}

func compileSpecNode(spec any, o options) (*specNode, error) {
	switch s := spec.(type) {
	case string:
		leaf, err := compileLeaf(s, o)
		if err != nil {
			return nil, err
		}
		return &specNode{chain: leaf}, nil

	case map[string]any:
		node := &specNode{kids: make(map[string]*specNode, len(s))}
		for k := range s {
			node.keys = append(node.keys, k)
		}
		sort.Strings(node.keys)
		for _, k := range node.keys {
			kid, err := compileSpecNode(s[k], o)
			if err != nil {
				return nil, fmt.Errorf("spec key %q: %w", k, err)
			}
			node.kids[k] = kid
		}
		return node, nil

	case []any:
		node := &specNode{isList: true}
		for i, item := range s {
			kid, err := compileSpecNode(item, o)
			if err != nil {
				return nil, fmt.Errorf("spec index %d: %w", i, err)
			}
			node.list = append(node.list, kid)
		}
		return node, nil

	default:
		return nil, fmt.Errorf("proppath: spec leaves must be expression strings, got %T", spec)
	}
}

// compileLeaf compiles one leaf expression with the spec's options, going
// through the configured cache like a standalone Compile would.
func compileLeaf(source string, o options) (*compiler.Chain, error) {
	key := cache.Key(source, uint8(o.mode))
	if o.cache != nil {
		if v, ok := o.cache.Get(key); ok {
			return v.(*Extractor).chain, nil
		}
	}

	ex, err := compileOne(source, o)
	if err != nil {
		return nil, err
	}
	if o.cache != nil {
		o.cache.Put(key, ex)
	}
	return ex.chain, nil
}

func (n *specNode) eval(ctx *evalctx.Ctx) (any, error) {
	switch {
	case n.chain != nil:
		ctx.Keys.Reset()
		ctx.Values.Reset()
		return n.chain.Eval(ctx, nil)

	case n.isList:
		out := make([]any, 0, len(n.list))
		for _, kid := range n.list {
			v, err := kid.eval(ctx)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil

	default:
		out := make(map[string]any, len(n.kids))
		for _, k := range n.keys {
			v, err := n.kids[k].eval(ctx)
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil
	}
}
