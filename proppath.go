// Package proppath compiles PropPath expressions into reusable, side-effect
// free extraction routines over arbitrary nested data: maps, sequences, and
// objects exposing named members.
//
// An expression is compiled once and invoked many times against different
// root sets:
//
//	ex, err := proppath.Compile("users.*.name")
//	out, err := ex.Extract(proppath.RootsOf("data", tree))
//
// The language supports dotted key lookups, slices (start:end), bracketed
// multi-extraction with result keys ([a, k => b]), flattening (~), shallow
// and recursive wildcards (*, **), regex filters (/pat/flags), value-history
// references (^n), fallback chains (a ?? b ?? "default") and per-segment
// throw-mode prefixes (?, !, !!).
package proppath

import (
	"fmt"

	"github.com/Nandan108/prop-path/internal/ast"
	"github.com/Nandan108/prop-path/internal/cache"
	"github.com/Nandan108/prop-path/internal/compiler"
	"github.com/Nandan108/prop-path/internal/evalctx"
	"github.com/Nandan108/prop-path/internal/parser"
)

// ThrowMode controls how lookup failures are handled during extraction.
type ThrowMode = ast.ThrowMode

const (
	// ThrowNever absorbs all failures as null results.
	ThrowNever = ast.ModeNever
	// ThrowOnMissing makes the absence of a key or element fatal; null
	// values are tolerated.
	ThrowOnMissing = ast.ModeMissing
	// ThrowOnNull makes both absence and null values fatal.
	ThrowOnNull = ast.ModeNull
)

// SyntaxError reports malformed expression text at compile time.
type SyntaxError = evalctx.SyntaxError

// EvalError reports a throwing-mode violation during extraction. It carries
// a structured code, a dotted property path, diagnostic parameters, and the
// root set of the failing invocation.
type EvalError = evalctx.EvalError

// Code identifies one distinct evaluation failure condition.
type Code = evalctx.Code

const (
	CodeContainerExpected   = evalctx.CodeContainerExpected
	CodeKeyNotFound         = evalctx.CodeKeyNotFound
	CodeNullRequired        = evalctx.CodeNullRequired
	CodeSliceMissingKeys    = evalctx.CodeSliceMissingKeys
	CodeSliceContainsNull   = evalctx.CodeSliceContainsNull
	CodeRegexNoMatch        = evalctx.CodeRegexNoMatch
	CodeFlattenEmpty        = evalctx.CodeFlattenEmpty
	CodeOnEachEmpty         = evalctx.CodeOnEachEmpty
	CodeStackRefOutOfBounds = evalctx.CodeStackRefOutOfBounds
	CodeBracketOnNull       = evalctx.CodeBracketOnNull
	CodeInvalidKeyType      = evalctx.CodeInvalidKeyType
	CodeRootNotFound        = evalctx.CodeRootNotFound
	CodeBadRootName         = evalctx.CodeBadRootName
	CodeNoRoots             = evalctx.CodeNoRoots
)

var defaultCache = cache.NewMemory()

// ClearCache drops every compiled extractor from the process-wide cache.
func ClearCache() {
	defaultCache.Clear()
}

// Extractor is a compiled expression (or structured expression tree). The
// compiled step tree is immutable; one Extractor is safe for concurrent use
// because each Extract call runs on its own evaluation context.
type Extractor struct {
	source string
	mode   ast.ThrowMode
	opts   options

	chain *compiler.Chain // single-expression mode
	shape *specNode       // structured mode
}

// Compile parses and compiles a single expression. Results are memoized in
// the configured cache keyed by source text and default throw mode.
func Compile(source string, opts ...Option) (*Extractor, error) {
	o := buildOptions(opts)

	key := cache.Key(source, uint8(o.mode))
	if o.cache != nil {
		if v, ok := o.cache.Get(key); ok {
			return v.(*Extractor).withOptions(o), nil
		}
	}

	ex, err := compileOne(source, o)
	if err != nil {
		return nil, err
	}

	if o.cache != nil {
		o.cache.Put(key, ex)
	}
	return ex, nil
}

func compileOne(source string, o options) (*Extractor, error) {
	ctx := evalctx.New(o.mode, o.accessor)
	ctx.OnParseFailure = o.onParseFailure

	tree, err := parser.Parse(source, ctx)
	if err != nil {
		return nil, err
	}

	chain, err := compiler.CompileChain(tree, o.mode, false, false)
	if err != nil {
		return nil, err
	}

	return &Extractor{source: source, mode: o.mode, opts: o, chain: chain}, nil
}

// withOptions rebinds a cached extractor to the calling compilation's
// options. The cache key covers source and mode only, so the compiled step
// tree is shared while each caller keeps its own accessor and hooks.
func (e *Extractor) withOptions(o options) *Extractor {
	clone := *e
	clone.opts = o
	return &clone
}

// MustCompile is Compile that panics on error, for expressions known at
// build time.
func MustCompile(source string, opts ...Option) *Extractor {
	ex, err := Compile(source, opts...)
	if err != nil {
		panic(fmt.Sprintf("proppath: %v", err))
	}
	return ex
}

// Source returns the expression text the extractor was compiled from.
func (e *Extractor) Source() string {
	return e.source
}

// Extract runs the compiled expression against the given roots and returns
// the extracted value or structurally-reshaped composite. Roots are
// validated on every call since compilation happens before they are known.
func (e *Extractor) Extract(roots *Roots, opts ...CallOption) (any, error) {
	co := buildCallOptions(opts)

	ctx := evalctx.New(e.mode, e.opts.accessor)
	ctx.OnEvalFailure = co.onFailure

	if err := validateRoots(ctx, roots); err != nil {
		return nil, err
	}
	ctx.SetRoots(roots.names, roots.vals)

	if e.chain != nil {
		return e.chain.Eval(ctx, nil)
	}
	return e.shape.eval(ctx)
}

// Get compiles expr (with default options) and extracts from a single root
// named "root". One-shot convenience around Compile and Extract.
func Get(expr string, value any) (any, error) {
	ex, err := Compile(expr)
	if err != nil {
		return nil, err
	}
	return ex.Extract(RootsOf("root", value))
}

func validateRoots(ctx *evalctx.Ctx, roots *Roots) error {
	if roots == nil || len(roots.names) == 0 {
		return ctx.Fail(evalctx.CodeNoRoots, nil)
	}
	for _, name := range roots.names {
		if !identLike(name) {
			return ctx.Fail(evalctx.CodeBadRootName, map[string]any{"name": name})
		}
	}
	return nil
}

func identLike(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
		case i > 0 && (c == '-' || (c >= '0' && c <= '9')):
		default:
			return false
		}
	}
	return true
}
