package lexer

import "fmt"

// Kind classifies a lexed token.
type Kind uint8

const (
	EOF Kind = iota
	Dot
	Comma
	LBracket
	RBracket
	Colon
	Dollar
	At
	Tilde
	Caret
	Star
	Question   // ?
	Bang       // !
	DoubleBang // !!
	Coalesce   // ??
	Arrow      // =>
	Ident
	Int
	String
	Regex
	Comment // only emitted by TokenizeWithComments
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "end of input"
	case Dot:
		return "'.'"
	case Comma:
		return "','"
	case LBracket:
		return "'['"
	case RBracket:
		return "']'"
	case Colon:
		return "':'"
	case Dollar:
		return "'$'"
	case At:
		return "'@'"
	case Tilde:
		return "'~'"
	case Caret:
		return "'^'"
	case Star:
		return "'*'"
	case Question:
		return "'?'"
	case Bang:
		return "'!'"
	case DoubleBang:
		return "'!!'"
	case Coalesce:
		return "'??'"
	case Arrow:
		return "'=>'"
	case Ident:
		return "identifier"
	case Int:
		return "integer"
	case String:
		return "string literal"
	case Regex:
		return "regex literal"
	case Comment:
		return "comment"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// RegexParts holds an uncompiled regex literal; the parser compiles it so
// pattern errors surface as syntax errors with source positions.
type RegexParts struct {
	Pattern string
	Flags   string
}

// Token is one lexical unit. Tokens are produced once per compile and
// consumed by the parser only.
type Token struct {
	Kind Kind
	Text string // raw source text
	Pos  int    // byte offset into the source
	Val  any    // decoded string, int, or RegexParts for literals
}
