// Package compiler lowers a parsed PropPath AST into a tree of composable
// evaluation steps. Compilation is a single pass: each segment becomes one
// pipeline stage wired to consume the previous stage's output. Throw modes
// are resolved at compile time; the shared evaluation context is threaded
// explicitly through every step at run time.
package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Nandan108/prop-path/internal/access"
	"github.com/Nandan108/prop-path/internal/ast"
	"github.com/Nandan108/prop-path/internal/evalctx"
)

// Step consumes the current value plus the shared context and produces the
// next value. Steps mutate the context's stacks as they run but never touch
// the roots.
type Step func(ctx *evalctx.Ctx, v any) (any, error)

// Chain is a compiled fallback chain: alternatives tried in declared order
// until one yields non-null.
type Chain struct {
	elems []chainElem
}

type chainElem struct {
	run Step
	key *resolvedKey // nil when the element produces no result key
}

// resolvedKey is a result key with compile-time resolution already applied:
// either a literal value or a dynamic sub-path evaluated per match.
type resolvedKey struct {
	literal any
	dynamic Step
}

// ElemResult is the outcome of one bracket chain: the value, its resolved
// result key, and whether the element was dropped because its dynamic key
// did not resolve to a stringable value.
type ElemResult struct {
	Value   any
	Key     any
	HasKey  bool
	Dropped bool
}

// CompileChain compiles a chain for the given ambient mode. Every element
// except the last is forced to the non-throwing mode so earlier failures
// fall through to the next alternative. force propagates that forcing into
// nested structures.
func CompileChain(ch *ast.Chain, ambient ast.ThrowMode, force, insideBracket bool) (*Chain, error) {
	compiled := &Chain{}
	var inherited *ast.ResultKey

	for i, elem := range ch.Elements {
		elemForce := force || i < len(ch.Elements)-1

		declared := elementKey(elem)
		if declared != nil {
			inherited = declared
		}

		var run Step
		var err error
		switch e := elem.(type) {
		case ast.Literal:
			val := e.Value
			run = func(_ *evalctx.Ctx, _ any) (any, error) { return val, nil }
		case *ast.Path:
			run, err = CompilePath(e.Segments, ambient, elemForce)
			if err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("compiler: unknown chain element %T", elem)
		}

		key, err := compileKey(inherited, elem, ambient)
		if err != nil {
			return nil, err
		}

		compiled.elems = append(compiled.elems, chainElem{run: run, key: key})
	}

	return compiled, nil
}

func elementKey(elem ast.ChainElement) *ast.ResultKey {
	switch e := elem.(type) {
	case ast.Literal:
		return e.Key
	case *ast.Path:
		return e.Key
	default:
		return nil
	}
}

// compileKey resolves an element's result key. Preserved keys resolve
// statically to the '@'-flagged key segment, falling back to the element's
// first key-shaped segment. Dynamic keys compile to a sub-path always run in
// non-throwing mode: an unresolvable key drops the element, never aborts.
func compileKey(rk *ast.ResultKey, elem ast.ChainElement, ambient ast.ThrowMode) (*resolvedKey, error) {
	if rk == nil {
		return nil, nil
	}

	switch {
	case rk.Dynamic != nil:
		step, err := CompilePath(rk.Dynamic.Segments, ambient, true)
		if err != nil {
			return nil, err
		}
		return &resolvedKey{dynamic: step}, nil

	case rk.Preserved:
		path, ok := elem.(*ast.Path)
		if !ok {
			return nil, nil
		}
		if key, ok := preservedKey(path.Segments); ok {
			return &resolvedKey{literal: key}, nil
		}
		return nil, nil

	default:
		return &resolvedKey{literal: rk.Literal}, nil
	}
}

func preservedKey(segments []ast.Segment) (any, bool) {
	var first any
	haveFirst := false
	for _, seg := range segments {
		key, ok := seg.(ast.Key)
		if !ok {
			continue
		}
		if key.Preserve {
			return key.Key, true
		}
		if !haveFirst {
			first = key.Key
			haveFirst = true
		}
	}
	return first, haveFirst
}

// Eval runs the chain at root level, returning the raw winning value.
func (c *Chain) Eval(ctx *evalctx.Ctx, v any) (any, error) {
	res, err := c.eval(ctx, v)
	if err != nil {
		return nil, err
	}
	return res.Value, nil
}

// EvalElem runs the chain inside a bracket, additionally resolving the
// winning element's result key against the same upstream value.
func (c *Chain) EvalElem(ctx *evalctx.Ctx, v any) (ElemResult, error) {
	return c.eval(ctx, v)
}

func (c *Chain) eval(ctx *evalctx.Ctx, v any) (ElemResult, error) {
	snap := ctx.Snapshot()

	for _, elem := range c.elems {
		val, err := elem.run(ctx, v)
		ctx.Rewind(snap)
		if err != nil {
			return ElemResult{}, err
		}
		if val == nil {
			continue
		}
		return c.resolveKey(ctx, elem, v, val, snap)
	}

	// All alternatives came up null. A statically-known result key still
	// names the entry so keyed brackets keep their shape.
	if last := c.elems[len(c.elems)-1]; last.key != nil && last.key.dynamic == nil {
		return ElemResult{Key: last.key.literal, HasKey: true}, nil
	}
	return ElemResult{}, nil
}

func (c *Chain) resolveKey(ctx *evalctx.Ctx, elem chainElem, upstream, val any, snap evalctx.Snapshot) (ElemResult, error) {
	if elem.key == nil {
		return ElemResult{Value: val}, nil
	}
	if elem.key.dynamic == nil {
		return ElemResult{Value: val, Key: elem.key.literal, HasKey: true}, nil
	}

	keyVal, err := elem.key.dynamic(ctx, upstream)
	ctx.Rewind(snap)
	if err != nil {
		return ElemResult{}, err
	}
	switch k := keyVal.(type) {
	case int:
		return ElemResult{Value: val, Key: k, HasKey: true}, nil
	case nil:
		return ElemResult{Value: val, Dropped: true}, nil
	default:
		s, ok := access.Stringify(keyVal)
		if !ok {
			// Not a stringable key: drop this element from keyed output
			// rather than aborting the whole bracket.
			return ElemResult{Value: val, Dropped: true}, nil
		}
		return ElemResult{Value: val, Key: s, HasKey: true}, nil
	}
}

type compiledSeg struct {
	label string
	mode  ast.ThrowMode
	run   Step
}

// CompilePath compiles a segment list into one pipeline step. force
// overrides every segment's throw mode to non-throwing; missing roots raise
// regardless.
func CompilePath(segments []ast.Segment, ambient ast.ThrowMode, force bool) (Step, error) {
	var pipeline []compiledSeg

	for i := 0; i < len(segments); i++ {
		seg := segments[i]

		if each, ok := seg.(ast.OnEach); ok {
			// OnEach owns the remainder of the path as a downstream
			// sub-extractor applied once per matched element. A flatten
			// further down reshapes the collected output, so the downstream
			// stops there and the pipeline resumes at the flatten.
			rest := segments[i+1:]
			split := len(rest)
			for j, s := range rest {
				if _, isFlatten := s.(ast.Flatten); isFlatten {
					split = j
					break
				}
			}

			var downstream Step
			if split > 0 {
				var err error
				downstream, err = CompilePath(rest[:split], ambient, force)
				if err != nil {
					return nil, err
				}
			}

			mode := effectiveMode(each.Mode, ambient, force)
			pipeline = append(pipeline, compiledSeg{
				label: onEachLabel(each),
				mode:  mode,
				run:   compileOnEach(each, downstream, mode),
			})

			i += split
			continue
		}

		cs, err := compileSegment(seg, ambient, force)
		if err != nil {
			return nil, err
		}
		pipeline = append(pipeline, cs)
	}

	return func(ctx *evalctx.Ctx, v any) (any, error) {
		cur := v
		for _, seg := range pipeline {
			ctx.PushKey(seg.label, seg.mode)
			next, err := seg.run(ctx, cur)
			if err != nil {
				return nil, err
			}
			ctx.Values.Push(next)
			cur = next
		}
		return cur, nil
	}, nil
}

func effectiveMode(own, ambient ast.ThrowMode, force bool) ast.ThrowMode {
	if force {
		return ast.ModeNever
	}
	return own.Resolve(ambient)
}

func compileSegment(seg ast.Segment, ambient ast.ThrowMode, force bool) (compiledSeg, error) {
	switch s := seg.(type) {
	case ast.Root:
		return compiledSeg{label: rootLabel(s), mode: ambient, run: compileRoot(s)}, nil

	case ast.Key:
		mode := effectiveMode(s.Mode, ambient, force)
		return compiledSeg{label: access.KeyString(s.Key), mode: mode, run: compileKeySeg(s, mode)}, nil

	case ast.Slice:
		mode := effectiveMode(s.Mode, ambient, force)
		return compiledSeg{label: sliceLabel(s), mode: mode, run: compileSlice(s, mode)}, nil

	case ast.Bracket:
		mode := effectiveMode(s.Mode, ambient, force)
		run, err := compileBracket(s, mode, force)
		if err != nil {
			return compiledSeg{}, err
		}
		return compiledSeg{label: "[]", mode: mode, run: run}, nil

	case ast.Flatten:
		mode := effectiveMode(s.Mode, ambient, force)
		return compiledSeg{label: "~", mode: mode, run: compileFlatten(s, mode)}, nil

	case ast.RegexFilter:
		mode := effectiveMode(s.Mode, ambient, force)
		return compiledSeg{label: "/" + s.Pattern.String() + "/", mode: mode, run: compileRegexFilter(s, mode)}, nil

	case ast.StackRef:
		mode := effectiveMode(s.Mode, ambient, force)
		return compiledSeg{label: "^" + strconv.Itoa(s.Index), mode: mode, run: compileStackRef(s, mode)}, nil

	default:
		return compiledSeg{}, fmt.Errorf("compiler: unknown segment %T", seg)
	}
}

func rootLabel(s ast.Root) string {
	if s.Name == "" {
		return "$"
	}
	return "$" + s.Name
}

func sliceLabel(s ast.Slice) string {
	var b strings.Builder
	if s.Start != nil {
		b.WriteString(strconv.Itoa(*s.Start))
	}
	b.WriteByte(':')
	if s.End != nil {
		b.WriteString(strconv.Itoa(*s.End))
	}
	return b.String()
}

func onEachLabel(s ast.OnEach) string {
	if s.Depth >= ast.RecursiveDepth {
		return "**"
	}
	return "*"
}

// compileRoot resolves a named input tree. A missing root raises regardless
// of throw mode, listing the valid root names.
func compileRoot(s ast.Root) Step {
	return func(ctx *evalctx.Ctx, _ any) (any, error) {
		val, ok := ctx.Root(s.Name)
		if !ok {
			return nil, ctx.Fail(evalctx.CodeRootNotFound, map[string]any{
				"root":      s.Name,
				"available": ctx.RootNames,
			})
		}
		return val, nil
	}
}

func compileKeySeg(s ast.Key, mode ast.ThrowMode) Step {
	key := s.Key
	return func(ctx *evalctx.Ctx, v any) (any, error) {
		if !ctx.Accessor.IsContainer(v) {
			if mode == ast.ModeNever {
				return nil, nil
			}
			return nil, ctx.Fail(evalctx.CodeContainerExpected, map[string]any{
				"observed": typeName(v),
			})
		}

		val, found := ctx.Accessor.Get(v, key)
		if !found {
			if mode == ast.ModeNever {
				return nil, nil
			}
			return nil, ctx.Fail(evalctx.CodeKeyNotFound, map[string]any{"key": key})
		}
		if val == nil && mode == ast.ModeNull {
			return nil, ctx.Fail(evalctx.CodeNullRequired, map[string]any{"key": key})
		}
		return val, nil
	}
}

// compileSlice realizes a half-open range with negative bounds resolved
// against the container length. Omitting both bounds returns the container
// unchanged.
func compileSlice(s ast.Slice, mode ast.ThrowMode) Step {
	return func(ctx *evalctx.Ctx, v any) (any, error) {
		if !ctx.Accessor.IsContainer(v) {
			if mode == ast.ModeNever {
				return nil, nil
			}
			return nil, ctx.Fail(evalctx.CodeContainerExpected, map[string]any{
				"observed": typeName(v),
			})
		}

		if s.Start == nil && s.End == nil {
			return v, nil
		}

		if !ctx.Accessor.IsCountable(v) {
			if mode == ast.ModeNever {
				return nil, nil
			}
			return nil, ctx.Fail(evalctx.CodeContainerExpected, map[string]any{
				"observed": typeName(v),
			})
		}

		length := ctx.Accessor.Len(v)
		start, end := resolveBounds(s, length)

		requested := end - start
		lo, hi := clamp(start, length), clamp(end, length)
		if hi < lo {
			hi = lo
		}

		entries := ctx.Accessor.Entries(v)[lo:hi]
		out := make([]any, 0, len(entries))
		for _, e := range entries {
			out = append(out, e.Value)
		}

		if (mode == ast.ModeMissing || mode == ast.ModeNull) && len(out) < requested {
			return nil, ctx.Fail(evalctx.CodeSliceMissingKeys, map[string]any{
				"expected": requested,
				"got":      len(out),
			})
		}
		if mode == ast.ModeNull {
			for _, val := range out {
				if val == nil {
					return nil, ctx.Fail(evalctx.CodeSliceContainsNull, nil)
				}
			}
		}
		return out, nil
	}
}

func resolveBounds(s ast.Slice, length int) (int, int) {
	start := 0
	if s.Start != nil {
		start = *s.Start
		if start < 0 {
			start += length
		}
	}
	end := length
	if s.End != nil {
		end = *s.End
		if end < 0 {
			end += length
		}
	}
	return start, end
}

func clamp(n, length int) int {
	if n < 0 {
		return 0
	}
	if n > length {
		return length
	}
	return n
}

// compileBracket evaluates every element chain against the same upstream
// value, collecting keyed and positional results. A single unkeyed result
// collapses to its bare value.
func compileBracket(s ast.Bracket, mode ast.ThrowMode, force bool) (Step, error) {
	chains := make([]*Chain, 0, len(s.Chains))
	for i := range s.Chains {
		c, err := CompileChain(&s.Chains[i], mode, force, true)
		if err != nil {
			return nil, err
		}
		chains = append(chains, c)
	}

	preserve := s.PreserveKey
	return func(ctx *evalctx.Ctx, v any) (any, error) {
		if v == nil {
			if mode == ast.ModeNever {
				return nil, nil
			}
			return nil, ctx.Fail(evalctx.CodeBracketOnNull, nil)
		}

		snap := ctx.Snapshot()
		results := make([]ElemResult, 0, len(chains))
		for _, c := range chains {
			res, err := c.EvalElem(ctx, v)
			ctx.Rewind(snap)
			if err != nil {
				return nil, err
			}
			if res.Dropped {
				continue
			}
			results = append(results, res)
		}

		if len(results) == 1 && !results[0].HasKey && !preserve {
			return results[0].Value, nil
		}

		return collect(results, preserve), nil
	}, nil
}

// collect assembles bracket output: positional when nothing is keyed,
// associative otherwise, with later duplicate keys overwriting earlier ones.
func collect(results []ElemResult, preserve bool) any {
	keyed := preserve
	for _, r := range results {
		if r.HasKey {
			keyed = true
			break
		}
	}

	if !keyed {
		out := make([]any, 0, len(results))
		for _, r := range results {
			out = append(out, r.Value)
		}
		return out
	}

	out := make(map[string]any, len(results))
	pos := 0
	for _, r := range results {
		if r.HasKey {
			out[access.KeyString(r.Key)] = r.Value
		} else {
			out[strconv.Itoa(pos)] = r.Value
			pos++
		}
	}
	return out
}

// compileFlatten merges one nesting level of the upstream container.
func compileFlatten(s ast.Flatten, mode ast.ThrowMode) Step {
	preserve := s.PreserveKeys
	return func(ctx *evalctx.Ctx, v any) (any, error) {
		entries, err := containerEntries(ctx, v, mode, evalctx.CodeFlattenEmpty)
		if err != nil || entries == nil {
			return nil, err
		}
		if len(entries) == 0 {
			return emptyResult(preserve), nil
		}

		var merged []access.Entry
		for _, e := range entries {
			if ctx.Accessor.IsContainer(e.Value) {
				merged = append(merged, ctx.Accessor.Entries(e.Value)...)
			} else {
				merged = append(merged, e)
			}
		}

		if mode == ast.ModeNull && len(merged) == 0 {
			return nil, ctx.Fail(evalctx.CodeFlattenEmpty, nil)
		}

		if preserve {
			out := make(map[string]any, len(merged))
			for _, e := range merged {
				out[access.KeyString(e.Key)] = e.Value
			}
			return out, nil
		}
		out := make([]any, 0, len(merged))
		for _, e := range merged {
			out = append(out, e.Value)
		}
		return out, nil
	}
}

// compileOnEach walks the upstream value depth-first up to the segment's
// depth, skipping null values, and pipes every match through the downstream
// sub-extractor.
func compileOnEach(s ast.OnEach, downstream Step, mode ast.ThrowMode) Step {
	preserve := s.PreserveKey
	depth := s.Depth
	return func(ctx *evalctx.Ctx, v any) (any, error) {
		entries, err := containerEntries(ctx, v, mode, evalctx.CodeOnEachEmpty)
		if err != nil || entries == nil {
			return nil, err
		}
		if len(entries) == 0 {
			return emptyResult(preserve), nil
		}

		var matched []access.Entry
		walk(ctx, entries, depth, &matched)

		results := make([]access.Entry, 0, len(matched))
		for _, m := range matched {
			res := m.Value
			if downstream != nil {
				snap := ctx.Snapshot()
				ctx.PushKey(access.KeyString(m.Key), mode)
				ctx.Values.Push(m.Value)
				res, err = downstream(ctx, m.Value)
				ctx.Rewind(snap)
				if err != nil {
					return nil, err
				}
			}
			if res == nil {
				continue
			}
			results = append(results, access.Entry{Key: m.Key, Value: res})
		}

		if mode == ast.ModeNull && len(results) == 0 {
			return nil, ctx.Fail(evalctx.CodeOnEachEmpty, nil)
		}

		if preserve {
			out := make(map[string]any, len(results))
			for _, e := range results {
				out[access.KeyString(e.Key)] = e.Value
			}
			return out, nil
		}
		out := make([]any, 0, len(results))
		for _, e := range results {
			out = append(out, e.Value)
		}
		return out, nil
	}
}

// walk emits every non-null descendant in pre-order. The depth bound keeps
// traversal of cyclic or self-referential structures finite.
func walk(ctx *evalctx.Ctx, entries []access.Entry, depth int, out *[]access.Entry) {
	for _, e := range entries {
		if e.Value == nil {
			continue
		}
		*out = append(*out, e)
		if depth > 1 && ctx.Accessor.IsContainer(e.Value) {
			walk(ctx, ctx.Accessor.Entries(e.Value), depth-1, out)
		}
	}
}

// compileRegexFilter keeps entries whose key or stringable value matches.
// Output keys are always preserved; value filtering without key correlation
// would be meaningless.
func compileRegexFilter(s ast.RegexFilter, mode ast.ThrowMode) Step {
	re := s.Pattern
	byKey := s.ByKey
	return func(ctx *evalctx.Ctx, v any) (any, error) {
		entries, err := containerEntries(ctx, v, mode, evalctx.CodeRegexNoMatch)
		if err != nil || entries == nil {
			return nil, err
		}
		if len(entries) == 0 {
			return map[string]any{}, nil
		}

		out := make(map[string]any)
		for _, e := range entries {
			if byKey {
				if re.MatchString(access.KeyString(e.Key)) {
					out[access.KeyString(e.Key)] = e.Value
				}
				continue
			}
			str, ok := access.Stringify(e.Value)
			if ok && re.MatchString(str) {
				out[access.KeyString(e.Key)] = e.Value
			}
		}

		if mode == ast.ModeNull && len(out) == 0 {
			return nil, ctx.Fail(evalctx.CodeRegexNoMatch, map[string]any{
				"pattern": re.String(),
			})
		}
		return out, nil
	}
}

// compileStackRef re-reads a previously computed value without consuming it.
func compileStackRef(s ast.StackRef, mode ast.ThrowMode) Step {
	index := s.Index
	return func(ctx *evalctx.Ctx, _ any) (any, error) {
		val, ok := ctx.Values.At(index)
		if !ok {
			if mode == ast.ModeNever {
				return nil, nil
			}
			return nil, ctx.Fail(evalctx.CodeStackRefOutOfBounds, map[string]any{
				"index": index,
				"depth": ctx.Values.Len(),
			})
		}
		return val, nil
	}
}

// containerEntries applies the shared failure table for container-consuming
// operations: a non-container input is null or fatal depending on mode, an
// empty container is fatal under either throwing mode. A nil, nil return
// means the caller should yield null.
func containerEntries(ctx *evalctx.Ctx, v any, mode ast.ThrowMode, emptyCode evalctx.Code) ([]access.Entry, error) {
	if !ctx.Accessor.IsContainer(v) {
		if mode == ast.ModeNever {
			return nil, nil
		}
		return nil, ctx.Fail(evalctx.CodeContainerExpected, map[string]any{
			"observed": typeName(v),
		})
	}

	entries := ctx.Accessor.Entries(v)
	if len(entries) == 0 {
		if mode != ast.ModeNever {
			return nil, ctx.Fail(emptyCode, map[string]any{"reason": "empty container"})
		}
		entries = []access.Entry{}
	}
	return entries, nil
}

func emptyResult(preserve bool) any {
	if preserve {
		return map[string]any{}
	}
	return []any{}
}

func typeName(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%T", v)
}
