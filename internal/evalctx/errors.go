package evalctx

import (
	"fmt"
	"sort"
	"strings"
)

// Code identifies one distinct evaluation failure condition.
type Code uint8

const (
	CodeContainerExpected Code = iota + 1
	CodeKeyNotFound
	CodeNullRequired
	CodeSliceMissingKeys
	CodeSliceContainsNull
	CodeRegexNoMatch
	CodeFlattenEmpty
	CodeOnEachEmpty
	CodeStackRefOutOfBounds
	CodeBracketOnNull
	CodeInvalidKeyType
	CodeRootNotFound
	CodeBadRootName
	CodeNoRoots
)

func (c Code) String() string {
	switch c {
	case CodeContainerExpected:
		return "container-expected"
	case CodeKeyNotFound:
		return "key-not-found"
	case CodeNullRequired:
		return "null-required"
	case CodeSliceMissingKeys:
		return "slice-missing-keys"
	case CodeSliceContainsNull:
		return "slice-contains-null"
	case CodeRegexNoMatch:
		return "regex-no-match"
	case CodeFlattenEmpty:
		return "flatten-empty"
	case CodeOnEachEmpty:
		return "on-each-empty"
	case CodeStackRefOutOfBounds:
		return "stack-ref-out-of-bounds"
	case CodeBracketOnNull:
		return "bracket-on-null"
	case CodeInvalidKeyType:
		return "invalid-key-type"
	case CodeRootNotFound:
		return "root-not-found"
	case CodeBadRootName:
		return "bad-root-name"
	case CodeNoRoots:
		return "no-roots"
	default:
		return "unknown"
	}
}

// SyntaxError reports malformed expression text. It is always fatal to
// compilation and carries the source plus the offending region.
type SyntaxError struct {
	Source string
	Offset int
	Near   string
	Msg    string
}

func (e *SyntaxError) Error() string {
	if e.Near != "" {
		return fmt.Sprintf("syntax error at offset %d near %q: %s", e.Offset, e.Near, e.Msg)
	}
	return fmt.Sprintf("syntax error at offset %d: %s", e.Offset, e.Msg)
}

// EvalError reports a throwing-mode violation during traversal. It doubles as
// the failure snapshot handed to custom failure hooks.
type EvalError struct {
	Code   Code
	Path   string         // dotted property path built from the key stack
	Params map[string]any // offending key, observed type, ...
	Roots  map[string]any // original root set, for debugging
}

func (e *EvalError) Error() string {
	var b strings.Builder
	b.WriteString(e.Code.String())
	if e.Path != "" {
		b.WriteString(" at ")
		b.WriteString(e.Path)
	}
	if len(e.Params) > 0 {
		keys := make([]string, 0, len(e.Params))
		for k := range e.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, e.Params[k]))
		}
		b.WriteString(" (")
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString(")")
	}
	return b.String()
}
