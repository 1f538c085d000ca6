// Package render formats extraction results for CLI output, either as JSON
// or through a user-supplied text template.
package render

import (
	"encoding/json"
	"strconv"
	"strings"
	"text/template"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// Result is the data handed to an output template: one extraction outcome
// for one input document.
type Result struct {
	Doc    int    // zero-based document index within the run
	File   string // input file name, or "-" for stdin
	Source string // the expression text
	Value  any    // the extracted value
}

// FuncMap exposes the helper functions available in output templates.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"uuidv4": generateUUIDv4,
		"uuid":   generateUUIDv4, // alias for uuidv4

		"now":       timeNow,
		"timestamp": timeUnix,
		"rfc3339":   timeNow,

		"upper": strings.ToUpper,
		"lower": strings.ToLower,
		"title": titleCase,
		"trim":  strings.TrimSpace,

		"json":       marshalJSON,
		"jsonIndent": marshalJSONIndent,
	}
}

func generateUUIDv4() string {
	return uuid.New().String()
}

func timeNow() string {
	return time.Now().Format(time.RFC3339)
}

func timeUnix() string {
	return strconv.FormatInt(time.Now().Unix(), 10)
}

// titleCase uses proper Unicode word boundaries.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			runes := []rune(word)
			runes[0] = unicode.ToUpper(runes[0])
			words[i] = string(runes)
		}
	}
	return strings.Join(words, " ")
}

func marshalJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func marshalJSONIndent(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// New builds a template with the render helpers installed. Missing keys are
// errors so typos surface instead of printing "<no value>".
func New(name string) *template.Template {
	return template.New(name).Option("missingkey=error").Funcs(FuncMap())
}

// Template parses an output template once for reuse across documents.
func Template(text string) (*template.Template, error) {
	return New("output").Parse(text)
}

// Apply renders one result through a parsed template.
func Apply(tmpl *template.Template, res Result) (string, error) {
	var buf strings.Builder
	if err := tmpl.Execute(&buf, res); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// JSON renders a result value as a single JSON line, the default output mode.
func JSON(v any) (string, error) {
	return marshalJSON(v)
}

// JSONIndent renders a result value as indented JSON for human consumption.
func JSONIndent(v any) (string, error) {
	return marshalJSONIndent(v)
}
