package lexer

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/Nandan108/prop-path/internal/evalctx"
)

func kinds(toks []Token) []Kind {
	out := make([]Kind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []Kind
	}{
		{
			name:   "empty source",
			source: "",
			want:   []Kind{EOF},
		},
		{
			name:   "simple path",
			source: "foo.bar",
			want:   []Kind{Ident, Dot, Ident, EOF},
		},
		{
			name:   "root and index",
			source: "$user.emails.0",
			want:   []Kind{Dollar, Ident, Dot, Ident, Dot, Int, EOF},
		},
		{
			name:   "throw prefixes",
			source: "?a.!b.!!c",
			want:   []Kind{Question, Ident, Dot, Bang, Ident, Dot, DoubleBang, Ident, EOF},
		},
		{
			name:   "coalesce chain",
			source: "a ?? b ?? 'x'",
			want:   []Kind{Ident, Coalesce, Ident, Coalesce, String, EOF},
		},
		{
			name:   "bracket with result key",
			source: "[a, k => b]",
			want:   []Kind{LBracket, Ident, Comma, Ident, Arrow, Ident, RBracket, EOF},
		},
		{
			name:   "slice",
			source: "items.1:-2",
			want:   []Kind{Ident, Dot, Int, Colon, Int, EOF},
		},
		{
			name:   "wildcards and flatten",
			source: "list*~@",
			want:   []Kind{Ident, Star, Tilde, At, EOF},
		},
		{
			name:   "stack refs",
			source: "^^.x ?? ^2",
			want:   []Kind{Caret, Caret, Dot, Ident, Coalesce, Caret, Int, EOF},
		},
		{
			name:   "regex literal",
			source: "items./^a/i",
			want:   []Kind{Ident, Dot, Regex, EOF},
		},
		{
			name:   "line comment dropped",
			source: "a.b // trailing\n.c",
			want:   []Kind{Ident, Dot, Ident, Dot, Ident, EOF},
		},
		{
			name:   "block comment dropped",
			source: "a/* note */.b",
			want:   []Kind{Ident, Dot, Ident, EOF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := Tokenize(tt.source)
			if err != nil {
				t.Fatalf("Tokenize(%q) error = %v", tt.source, err)
			}
			if got := kinds(toks); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) kinds = %v, want %v", tt.source, got, tt.want)
			}
		})
	}
}

func TestTokenize_Values(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   any
	}{
		{"int", "42", 42},
		{"negative int", "-2", -2},
		{"explicit positive int", "+7", 7},
		{"single quoted string", "'hello'", "hello"},
		{"double quoted string", `"hi there"`, "hi there"},
		{"escaped newline", `'a\nb'`, "a\nb"},
		{"escaped tab", `'a\tb'`, "a\tb"},
		{"escaped quote", `'it\'s'`, "it's"},
		{"escaped backslash", `'a\\b'`, `a\b`},
		{"regex", "/^ab?/im", RegexParts{Pattern: "^ab?", Flags: "im"}},
		{"regex with escaped slash", `/a\/b/`, RegexParts{Pattern: `a\/b`, Flags: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := Tokenize(tt.source)
			if err != nil {
				t.Fatalf("Tokenize(%q) error = %v", tt.source, err)
			}
			if len(toks) != 2 {
				t.Fatalf("Tokenize(%q) = %d tokens, want literal + EOF", tt.source, len(toks))
			}
			if !reflect.DeepEqual(toks[0].Val, tt.want) {
				t.Errorf("Tokenize(%q) value = %#v, want %#v", tt.source, toks[0].Val, tt.want)
			}
		})
	}
}

func TestTokenize_Errors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		msg    string
	}{
		{"unterminated string", "'abc", "unterminated string literal"},
		{"unterminated regex", "/abc", "unterminated regex literal"},
		{"unterminated block comment", "a /* b", "unterminated block comment"},
		{"unsupported regex flag", "/a/z", "unsupported regex flag"},
		{"stray character", "a.#b", "unrecognized character"},
		{"lone minus", "a.-", "unrecognized character"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.source)
			if err == nil {
				t.Fatalf("Tokenize(%q) expected error", tt.source)
			}

			var syntaxErr *evalctx.SyntaxError
			if !errors.As(err, &syntaxErr) {
				t.Fatalf("Tokenize(%q) error type = %T, want *evalctx.SyntaxError", tt.source, err)
			}
			if !strings.Contains(syntaxErr.Msg, tt.msg) {
				t.Errorf("Tokenize(%q) message = %q, want substring %q", tt.source, syntaxErr.Msg, tt.msg)
			}
		})
	}
}

func TestTokenize_Positions(t *testing.T) {
	toks, err := Tokenize("ab.cd")
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}

	wantPos := []int{0, 2, 3, 5}
	for i, tok := range toks {
		if tok.Pos != wantPos[i] {
			t.Errorf("token %d (%s) position = %d, want %d", i, tok.Kind, tok.Pos, wantPos[i])
		}
	}
}

func TestTokenizeWithComments(t *testing.T) {
	toks, err := TokenizeWithComments("a // one\n.b /* two */")
	if err != nil {
		t.Fatalf("TokenizeWithComments() error = %v", err)
	}

	want := []Kind{Ident, Comment, Dot, Ident, Comment, EOF}
	if got := kinds(toks); !reflect.DeepEqual(got, want) {
		t.Errorf("TokenizeWithComments() kinds = %v, want %v", got, want)
	}

	if toks[1].Text != "// one" {
		t.Errorf("line comment text = %q, want %q", toks[1].Text, "// one")
	}
	if toks[4].Text != "/* two */" {
		t.Errorf("block comment text = %q, want %q", toks[4].Text, "/* two */")
	}
}
