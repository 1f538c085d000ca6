// Package parser implements the recursive-descent PropPath grammar over the
// token sequence: chains of fallback alternatives, paths of prefixed
// segments, and bracketed sub-chains. The parser owns no runtime state; all
// failure reporting goes through the evaluation context.
package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Nandan108/prop-path/internal/ast"
	"github.com/Nandan108/prop-path/internal/evalctx"
	"github.com/Nandan108/prop-path/internal/lexer"
)

// Parse tokenizes the source and parses one top-level chain.
func Parse(source string, ctx *evalctx.Ctx) (*ast.Chain, error) {
	toks, err := lexer.Tokenize(source)
	if err != nil {
		if se, ok := err.(*evalctx.SyntaxError); ok {
			return nil, ctx.FailParse(se)
		}
		return nil, err
	}

	p := &parser{src: source, toks: toks, ctx: ctx}
	chain, err := p.parseChain(false)
	if err != nil {
		return nil, err
	}
	if p.peek().Kind != lexer.EOF {
		return nil, p.fail(p.peek(), fmt.Sprintf("unexpected %s", p.peek().Kind))
	}
	return chain, nil
}

// ParseChain parses a fallback chain from an existing token sequence.
// insideBracket suppresses the implicit default root on member paths, since
// the parent container is already known.
func ParseChain(toks []lexer.Token, ctx *evalctx.Ctx, insideBracket bool) (*ast.Chain, error) {
	p := &parser{toks: toks, ctx: ctx}
	return p.parseChain(insideBracket)
}

type parser struct {
	src  string
	toks []lexer.Token
	pos  int
	ctx  *evalctx.Ctx
}

func (p *parser) peek() lexer.Token {
	if p.pos >= len(p.toks) {
		return lexer.Token{Kind: lexer.EOF}
	}
	return p.toks[p.pos]
}

func (p *parser) peekAt(offset int) lexer.Token {
	if p.pos+offset >= len(p.toks) {
		return lexer.Token{Kind: lexer.EOF}
	}
	return p.toks[p.pos+offset]
}

func (p *parser) next() lexer.Token {
	t := p.peek()
	p.pos++
	return t
}

func (p *parser) fail(at lexer.Token, msg string) error {
	near := at.Text
	if near == "" && p.src != "" && at.Pos < len(p.src) {
		near = p.src[at.Pos:]
		if len(near) > 12 {
			near = near[:12]
		}
	}
	return p.ctx.FailParse(&evalctx.SyntaxError{
		Source: p.src,
		Offset: at.Pos,
		Near:   near,
		Msg:    msg,
	})
}

// terminatesElement reports whether a token ends the current chain element.
func terminatesElement(k lexer.Kind) bool {
	switch k {
	case lexer.EOF, lexer.Coalesce, lexer.Comma, lexer.RBracket, lexer.Arrow:
		return true
	default:
		return false
	}
}

func (p *parser) parseChain(insideBracket bool) (*ast.Chain, error) {
	chain := &ast.Chain{}

	for {
		elem, err := p.parseElement(insideBracket)
		if err != nil {
			return nil, err
		}

		// 'key =>' reinterprets the element just parsed as the result key
		// of the element that follows.
		if p.peek().Kind == lexer.Arrow {
			if !insideBracket {
				return nil, p.fail(p.peek(), "result keys ('=>') are only allowed inside brackets")
			}
			arrow := p.next()
			key, keyErr := elementToKey(elem)
			if keyErr != "" {
				return nil, p.fail(arrow, keyErr)
			}
			elem, err = p.parseElement(insideBracket)
			if err != nil {
				return nil, err
			}
			elem, keyErr = attachKey(elem, key)
			if keyErr != "" {
				return nil, p.fail(arrow, keyErr)
			}
		}

		chain.Elements = append(chain.Elements, elem)

		if p.peek().Kind != lexer.Coalesce {
			return chain, nil
		}
		p.next()
	}
}

// elementToKey converts the left side of '=>' into a result key: a quoted or
// integer literal is used as-is, anything else must be a path evaluated as a
// dynamic key.
func elementToKey(elem ast.ChainElement) (*ast.ResultKey, string) {
	switch e := elem.(type) {
	case ast.Literal:
		if e.Key != nil {
			return nil, "key expression cannot itself carry a result key"
		}
		return &ast.ResultKey{Literal: e.Value}, ""
	case *ast.Path:
		if e.Key != nil {
			return nil, "key expression cannot itself carry a result key"
		}
		return &ast.ResultKey{Dynamic: e}, ""
	default:
		return nil, "invalid key expression"
	}
}

func attachKey(elem ast.ChainElement, key *ast.ResultKey) (ast.ChainElement, string) {
	switch e := elem.(type) {
	case ast.Literal:
		if e.Key != nil {
			return nil, "element already carries a result key"
		}
		e.Key = key
		return e, ""
	case *ast.Path:
		if e.Key != nil {
			return nil, "element already carries a result key"
		}
		e.Key = key
		return e, ""
	default:
		return nil, "invalid element for result key"
	}
}

// parseElement parses one chain alternative: a path, or a lone quoted/integer
// literal reinterpreted as a value rather than a lookup.
func (p *parser) parseElement(insideBracket bool) (ast.ChainElement, error) {
	t := p.peek()

	if (t.Kind == lexer.String || t.Kind == lexer.Int) && terminatesElement(p.peekAt(1).Kind) {
		p.next()
		return ast.Literal{Value: t.Val}, nil
	}

	return p.parsePath(insideBracket)
}

func (p *parser) parsePath(insideBracket bool) (*ast.Path, error) {
	path := &ast.Path{}
	preserveSeen := false

	// Explicit root: '$' with an optional name. Omitting it inserts the
	// implicit default root unless the path is nested inside a bracket.
	if p.peek().Kind == lexer.Dollar {
		p.next()
		root := ast.Root{}
		if p.peek().Kind == lexer.Ident {
			root.Name = p.next().Text
		}
		path.Segments = append(path.Segments, root)
		if terminatesElement(p.peek().Kind) {
			return path, nil // bare '$name' selects the whole tree
		}
		if p.peek().Kind == lexer.Dot {
			p.next()
		}
	} else if !insideBracket {
		path.Segments = append(path.Segments, ast.Root{})
	}

	for {
		seg, preserve, err := p.parseSegment()
		if err != nil {
			return nil, err
		}
		if preserve {
			if preserveSeen {
				return nil, p.fail(p.peek(), "at most one '@' per path")
			}
			preserveSeen = true
			if key, ok := seg.(ast.Key); ok && key.Preserve {
				path.Key = &ast.ResultKey{Preserved: true}
			}
		}
		path.Segments = append(path.Segments, seg)

		t := p.peek()
		if terminatesElement(t.Kind) {
			break
		}
		if t.Kind == lexer.Dot {
			p.next()
			if terminatesElement(p.peek().Kind) {
				return nil, p.fail(p.peek(), "path cannot end with '.'")
			}
		}
	}

	if len(path.Segments) == 0 {
		return nil, p.fail(p.peek(), "empty path")
	}
	return path, nil
}

// parseSegment parses '[throwPrefix] [@] body'. The returned bool reports
// whether the segment carried the preserve-key flag.
func (p *parser) parseSegment() (ast.Segment, bool, error) {
	mode, err := p.parseThrowPrefix()
	if err != nil {
		return nil, false, err
	}

	preserve := false
	if p.peek().Kind == lexer.At {
		p.next()
		preserve = true
	}

	seg, err := p.parseSegmentBody(mode, preserve)
	return seg, preserve, err
}

// parseThrowPrefix consumes '?', '!' or '!!'. Combining '?' with '!'/'!!' on
// the same segment is a syntax error.
func (p *parser) parseThrowPrefix() (ast.ThrowMode, error) {
	mode := ast.ModeInherit
	switch p.peek().Kind {
	case lexer.Question:
		p.next()
		mode = ast.ModeNever
	case lexer.Bang:
		p.next()
		mode = ast.ModeMissing
	case lexer.DoubleBang:
		p.next()
		mode = ast.ModeNull
	default:
		return mode, nil
	}

	switch p.peek().Kind {
	case lexer.Question, lexer.Bang, lexer.DoubleBang:
		return mode, p.fail(p.peek(), "conflicting throw-mode prefixes")
	}
	return mode, nil
}

func (p *parser) parseSegmentBody(mode ast.ThrowMode, preserve bool) (ast.Segment, error) {
	t := p.peek()

	switch t.Kind {
	case lexer.Ident:
		p.next()
		return ast.Key{Key: t.Text, Mode: mode, Preserve: preserve}, nil

	case lexer.String:
		p.next()
		return ast.Key{Key: t.Val, Mode: mode, Preserve: preserve}, nil

	case lexer.Int:
		p.next()
		if p.peek().Kind == lexer.Colon {
			start := t.Val.(int)
			return p.parseSliceEnd(&start, mode), nil
		}
		return ast.Key{Key: t.Val, Mode: mode, Preserve: preserve}, nil

	case lexer.Colon:
		return p.parseSliceEnd(nil, mode), nil

	case lexer.LBracket:
		return p.parseBracket(mode, preserve)

	case lexer.Tilde:
		p.next()
		return ast.Flatten{PreserveKeys: preserve, Mode: mode}, nil

	case lexer.Star:
		return p.parseOnEach(mode, preserve)

	case lexer.Caret:
		return p.parseStackRef(mode)

	case lexer.Regex:
		p.next()
		re, err := compileRegex(t.Val.(lexer.RegexParts))
		if err != nil {
			return nil, p.fail(t, err.Error())
		}
		return ast.RegexFilter{Pattern: re, ByKey: preserve, Mode: mode}, nil

	case lexer.Dollar:
		return nil, p.fail(t, "'$' is only allowed at the start of a path")

	default:
		return nil, p.fail(t, fmt.Sprintf("unexpected %s, expected a path segment", t.Kind))
	}
}

func (p *parser) parseSliceEnd(start *int, mode ast.ThrowMode) ast.Segment {
	p.next() // ':'
	slice := ast.Slice{Start: start, Mode: mode}
	if p.peek().Kind == lexer.Int {
		end := p.next().Val.(int)
		slice.End = &end
	}
	return slice
}

// parseOnEach counts consecutive stars: '*' visits direct children, '**' is
// the recursive form.
func (p *parser) parseOnEach(mode ast.ThrowMode, preserve bool) (ast.Segment, error) {
	stars := 0
	for p.peek().Kind == lexer.Star {
		p.next()
		stars++
	}
	switch stars {
	case 1:
		return ast.OnEach{Depth: 1, PreserveKey: preserve, Mode: mode}, nil
	case 2:
		return ast.OnEach{Depth: ast.RecursiveDepth, PreserveKey: preserve, Mode: mode}, nil
	default:
		return nil, p.fail(p.peek(), "at most two consecutive '*'")
	}
}

// parseStackRef accepts '^' (parent), '^N' (N steps back), or a caret run
// '^^^' counting one step per caret.
func (p *parser) parseStackRef(mode ast.ThrowMode) (ast.Segment, error) {
	carets := 0
	for p.peek().Kind == lexer.Caret {
		p.next()
		carets++
	}
	if carets == 1 && p.peek().Kind == lexer.Int {
		t := p.next()
		n := t.Val.(int)
		if n < 0 {
			return nil, p.fail(t, "stack reference index cannot be negative")
		}
		return ast.StackRef{Index: n, Mode: mode}, nil
	}
	return ast.StackRef{Index: carets, Mode: mode}, nil
}

func (p *parser) parseBracket(mode ast.ThrowMode, preserve bool) (ast.Segment, error) {
	open := p.next() // '['
	br := ast.Bracket{PreserveKey: preserve, Mode: mode}

	for {
		if p.peek().Kind == lexer.RBracket {
			p.next()
			break
		}
		chain, err := p.parseChain(true)
		if err != nil {
			return nil, err
		}
		br.Chains = append(br.Chains, *chain)

		switch p.peek().Kind {
		case lexer.Comma:
			p.next() // trailing commas are tolerated
		case lexer.RBracket:
		case lexer.EOF:
			return nil, p.fail(open, "unterminated bracket, missing ']'")
		default:
			return nil, p.fail(p.peek(), fmt.Sprintf("unexpected %s inside bracket", p.peek().Kind))
		}
	}

	if len(br.Chains) == 0 {
		return nil, p.fail(open, "empty bracket")
	}
	return br, nil
}

// compileRegex maps PropPath regex flags onto Go syntax: i, m and s become
// inline flags, u is implicit in RE2, and x strips unescaped whitespace from
// the pattern.
func compileRegex(parts lexer.RegexParts) (*regexp.Regexp, error) {
	pattern := parts.Pattern
	var goFlags string
	for _, f := range []string{"i", "m", "s"} {
		if strings.Contains(parts.Flags, f) {
			goFlags += f
		}
	}
	if strings.Contains(parts.Flags, "x") {
		pattern = stripWhitespace(pattern)
	}
	if goFlags != "" {
		pattern = "(?" + goFlags + ")" + pattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex literal: %v", err)
	}
	return re, nil
}

func stripWhitespace(pattern string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c == '\\' && i+1 < len(pattern) {
			b.WriteByte(c)
			b.WriteByte(pattern[i+1])
			i++
			continue
		}
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
