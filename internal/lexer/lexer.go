// Package lexer turns PropPath source text into a flat token sequence,
// stripping whitespace and comments and decoding quoted, integer and regex
// literals.
package lexer

import (
	"strconv"
	"strings"

	"github.com/Nandan108/prop-path/internal/evalctx"
)

const regexFlags = "imsux"

// Tokenize scans the whole source and returns its tokens terminated by EOF.
// Comments and whitespace are dropped. It is total and deterministic; an
// unrecognized byte or unterminated literal yields a SyntaxError.
func Tokenize(source string) ([]Token, error) {
	return scan(source, false)
}

// TokenizeWithComments is Tokenize with comment tokens kept, for debug dumps.
func TokenizeWithComments(source string) ([]Token, error) {
	return scan(source, true)
}

func scan(source string, keepComments bool) ([]Token, error) {
	s := scanner{src: source, keepComments: keepComments}
	return s.run()
}

type scanner struct {
	src          string
	pos          int
	toks         []Token
	keepComments bool
}

func (s *scanner) run() ([]Token, error) {
	for s.pos < len(s.src) {
		start := s.pos
		c := s.src[s.pos]

		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			s.pos++

		case c == '/':
			if err := s.scanSlash(start); err != nil {
				return nil, err
			}

		case c == '\'' || c == '"':
			if err := s.scanString(start, c); err != nil {
				return nil, err
			}

		case c >= '0' && c <= '9':
			s.scanInt(start)

		case c == '-' || c == '+':
			if s.pos+1 < len(s.src) && isDigit(s.src[s.pos+1]) {
				s.pos++
				s.scanInt(start)
			} else {
				return nil, s.errAt(start, "unrecognized character "+strconv.QuoteRune(rune(c)))
			}

		case isIdentStart(c):
			s.scanIdent(start)

		default:
			if err := s.scanOperator(start, c); err != nil {
				return nil, err
			}
		}
	}

	s.emit(EOF, s.pos, "", nil)
	return s.toks, nil
}

func (s *scanner) emit(kind Kind, pos int, text string, val any) {
	s.toks = append(s.toks, Token{Kind: kind, Text: text, Pos: pos, Val: val})
}

func (s *scanner) errAt(pos int, msg string) error {
	near := s.src[pos:]
	if len(near) > 12 {
		near = near[:12]
	}
	return &evalctx.SyntaxError{Source: s.src, Offset: pos, Near: near, Msg: msg}
}

func (s *scanner) scanOperator(start int, c byte) error {
	two := ""
	if s.pos+1 < len(s.src) {
		two = s.src[s.pos : s.pos+2]
	}

	switch two {
	case "??":
		s.pos += 2
		s.emit(Coalesce, start, two, nil)
		return nil
	case "!!":
		s.pos += 2
		s.emit(DoubleBang, start, two, nil)
		return nil
	case "=>":
		s.pos += 2
		s.emit(Arrow, start, two, nil)
		return nil
	}

	var kind Kind
	switch c {
	case '.':
		kind = Dot
	case ',':
		kind = Comma
	case '[':
		kind = LBracket
	case ']':
		kind = RBracket
	case ':':
		kind = Colon
	case '$':
		kind = Dollar
	case '@':
		kind = At
	case '~':
		kind = Tilde
	case '^':
		kind = Caret
	case '*':
		kind = Star
	case '?':
		kind = Question
	case '!':
		kind = Bang
	default:
		return s.errAt(start, "unrecognized character "+strconv.QuoteRune(rune(c)))
	}

	s.pos++
	s.emit(kind, start, s.src[start:s.pos], nil)
	return nil
}

// scanSlash handles the three meanings of '/': line comment, block comment,
// and regex literal.
func (s *scanner) scanSlash(start int) error {
	if s.pos+1 < len(s.src) {
		switch s.src[s.pos+1] {
		case '/':
			end := strings.IndexByte(s.src[s.pos:], '\n')
			if end == -1 {
				end = len(s.src) - s.pos
			}
			if s.keepComments {
				s.emit(Comment, start, s.src[start:start+end], nil)
			}
			s.pos += end
			return nil
		case '*':
			end := strings.Index(s.src[s.pos+2:], "*/")
			if end == -1 {
				return s.errAt(start, "unterminated block comment")
			}
			stop := s.pos + 2 + end + 2
			if s.keepComments {
				s.emit(Comment, start, s.src[start:stop], nil)
			}
			s.pos = stop
			return nil
		}
	}
	return s.scanRegex(start)
}

func (s *scanner) scanRegex(start int) error {
	s.pos++ // opening '/'
	var pattern strings.Builder
	for {
		if s.pos >= len(s.src) {
			return s.errAt(start, "unterminated regex literal")
		}
		c := s.src[s.pos]
		if c == '\\' && s.pos+1 < len(s.src) {
			pattern.WriteByte(c)
			pattern.WriteByte(s.src[s.pos+1])
			s.pos += 2
			continue
		}
		if c == '/' {
			s.pos++
			break
		}
		pattern.WriteByte(c)
		s.pos++
	}

	flagStart := s.pos
	for s.pos < len(s.src) && isIdentStart(s.src[s.pos]) {
		s.pos++
	}
	flags := s.src[flagStart:s.pos]
	for i := 0; i < len(flags); i++ {
		if !strings.ContainsRune(regexFlags, rune(flags[i])) {
			return s.errAt(flagStart+i, "unsupported regex flag "+strconv.QuoteRune(rune(flags[i])))
		}
	}

	s.emit(Regex, start, s.src[start:s.pos], RegexParts{Pattern: pattern.String(), Flags: flags})
	return nil
}

func (s *scanner) scanString(start int, quote byte) error {
	s.pos++ // opening quote
	var out strings.Builder
	for {
		if s.pos >= len(s.src) {
			return s.errAt(start, "unterminated string literal")
		}
		c := s.src[s.pos]
		switch c {
		case quote:
			s.pos++
			s.emit(String, start, s.src[start:s.pos], out.String())
			return nil
		case '\\':
			if s.pos+1 >= len(s.src) {
				return s.errAt(start, "unterminated string literal")
			}
			out.WriteByte(unescape(s.src[s.pos+1]))
			s.pos += 2
		default:
			out.WriteByte(c)
			s.pos++
		}
	}
}

func unescape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	default:
		return c // \\, \', \" and anything else stand for themselves
	}
}

func (s *scanner) scanInt(start int) {
	for s.pos < len(s.src) && isDigit(s.src[s.pos]) {
		s.pos++
	}
	text := s.src[start:s.pos]
	n, _ := strconv.Atoi(text)
	s.emit(Int, start, text, n)
}

func (s *scanner) scanIdent(start int) {
	s.pos++
	for s.pos < len(s.src) && isIdentPart(s.src[s.pos]) {
		s.pos++
	}
	text := s.src[start:s.pos]
	s.emit(Ident, start, text, text)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == '-'
}
