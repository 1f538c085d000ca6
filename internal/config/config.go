// Package config handles command-line argument parsing and validation
// for the prop-path CLI tool.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	proppath "github.com/Nandan108/prop-path"
	"github.com/Nandan108/prop-path/internal/exit"
	"github.com/Nandan108/prop-path/internal/query"
)

var (
	ErrNoArguments       = errors.New("no arguments provided")
	ErrNoExpression      = errors.New("an expression or -spec file is required")
	ErrInvalidMode       = errors.New("invalid -mode (want never, missing or null)")
	ErrInvalidLang       = errors.New("invalid -lang (want proppath or jsonpath)")
	ErrInvalidColor      = errors.New("invalid -color (want auto, always or never)")
	ErrInvalidRootFormat = errors.New("invalid -root format, expected name=file")
	ErrEmptyRootName     = errors.New("root name cannot be empty")
)

// RootMount binds a named evaluation root to an input file.
// Order is preserved so the first mount stays the default root.
type RootMount struct {
	Name string
	File string
}

// Config holds the parsed command-line configuration.
type Config struct {
	Expression string
	SpecFile   string
	Files      []string
	Lang       query.Lang
	Mode       proppath.ThrowMode
	YAML       bool
	NDJSON     bool
	Rate       float64
	Template   string
	Indent     bool
	NoCache    bool
	Color      exit.ColorMode
	Roots      []RootMount
}

// rootsFlag implements flag.Value for parsing repeated -root flags.
type rootsFlag []RootMount

// String returns a string representation of the roots flag for flag.Value interface.
func (r *rootsFlag) String() string {
	var pairs []string
	for _, m := range *r {
		pairs = append(pairs, m.Name+"="+m.File)
	}
	return strings.Join(pairs, ",")
}

// Set parses and stores a root mount in name=file format for flag.Value interface.
func (r *rootsFlag) Set(value string) error {
	parts := strings.SplitN(value, "=", 2)
	if len(parts) != 2 {
		return fmt.Errorf("%w, got: %s", ErrInvalidRootFormat, value)
	}

	name := strings.TrimSpace(parts[0])
	if name == "" {
		return ErrEmptyRootName
	}

	*r = append(*r, RootMount{Name: name, File: parts[1]})
	return nil
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Expression == "" && c.SpecFile == "" {
		return ErrNoExpression
	}

	if c.SpecFile != "" {
		if _, err := os.Stat(c.SpecFile); err != nil {
			return fmt.Errorf("spec file %s not found: %w", c.SpecFile, err)
		}
	}

	for _, file := range c.Files {
		if file == "-" {
			continue
		}
		if _, err := os.Stat(file); err != nil {
			return fmt.Errorf("input file %s not found: %w", file, err)
		}
	}

	for _, m := range c.Roots {
		if _, err := os.Stat(m.File); err != nil {
			return fmt.Errorf("root file %s not found: %w", m.File, err)
		}
	}

	return nil
}

func parseMode(s string) (proppath.ThrowMode, error) {
	switch s {
	case "never":
		return proppath.ThrowNever, nil
	case "missing":
		return proppath.ThrowOnMissing, nil
	case "null":
		return proppath.ThrowOnNull, nil
	default:
		return 0, fmt.Errorf("%w, got: %s", ErrInvalidMode, s)
	}
}

func parseColor(s string) (exit.ColorMode, error) {
	switch s {
	case "auto":
		return exit.ColorAuto, nil
	case "always":
		return exit.ColorAlways, nil
	case "never":
		return exit.ColorNever, nil
	default:
		return 0, fmt.Errorf("%w, got: %s", ErrInvalidColor, s)
	}
}

func parseLang(s string) (query.Lang, error) {
	switch s {
	case "proppath":
		return query.LangPropPath, nil
	case "jsonpath":
		return query.LangJSONPath, nil
	default:
		return "", fmt.Errorf("%w, got: %s", ErrInvalidLang, s)
	}
}

// Parse parses command-line arguments and returns a validated Config.
// If parsing fails or help is requested, returns nil config and exit result.
func Parse(args []string) (*Config, *exit.Result) {
	if len(args) == 0 {
		return nil, exit.Errorf("Error: %v\n\n%s", ErrNoArguments, Usage())
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)

	// Suppress the default usage output since we handle it ourselves
	fs.Usage = func() {}
	// Suppress error output since we handle it ourselves
	fs.SetOutput(io.Discard)

	var (
		mode     = fs.String("mode", "never", "Throw mode: never, missing or null")
		lang     = fs.String("lang", "proppath", "Query language: proppath or jsonpath")
		specFile = fs.String("spec", "", "Path to YAML extraction spec file")
		template = fs.String("template", "", "Path to Go text/template file for output rendering")
		rate     = fs.Float64("rate", 0, "Rate limit in documents per second for NDJSON input (0 for unlimited)")
		ndjson   = fs.Bool("ndjson", false, "Treat input as newline-delimited JSON documents")
		yamlIn   = fs.Bool("yaml", false, "Parse input documents as YAML instead of JSON")
		indent   = fs.Bool("indent", false, "Indent JSON output")
		noCache  = fs.Bool("no-cache", false, "Disable the compiled expression cache")
		colorArg = fs.String("color", "auto", "Colorize failure output: auto, always or never")
		roots    rootsFlag
	)

	fs.Var(&roots, "root", "Extra named root in format name=file (can be used multiple times)")

	if err := fs.Parse(args[1:]); err != nil {
		if err == flag.ErrHelp {
			return nil, exit.Success(Usage())
		}
		return nil, exit.Errorf("Error: failed to parse arguments: %v\n\n%s", err, Usage())
	}

	rest := fs.Args()

	config := &Config{
		SpecFile: *specFile,
		YAML:     *yamlIn,
		NDJSON:   *ndjson,
		Rate:     *rate,
		Template: *template,
		Indent:   *indent,
		NoCache:  *noCache,
		Roots:    roots,
	}

	// The first positional argument is the expression unless a spec file
	// supplies the queries; remaining arguments are input files.
	if *specFile == "" {
		if len(rest) == 0 {
			return nil, exit.Errorf("Error: %v\n\n%s", ErrNoExpression, Usage())
		}
		config.Expression = rest[0]
		rest = rest[1:]
	}
	config.Files = rest

	var err error
	if config.Mode, err = parseMode(*mode); err != nil {
		return nil, exit.Errorf("Error: %v\n\n%s", err, Usage())
	}
	if config.Lang, err = parseLang(*lang); err != nil {
		return nil, exit.Errorf("Error: %v\n\n%s", err, Usage())
	}
	if config.Color, err = parseColor(*colorArg); err != nil {
		return nil, exit.Errorf("Error: %v\n\n%s", err, Usage())
	}
	exit.SetColorMode(config.Color)

	if config.Lang == query.LangJSONPath && config.SpecFile != "" {
		return nil, exit.Errorf("Error: -spec requires -lang proppath\n\n%s", Usage())
	}

	if err := config.Validate(); err != nil {
		return nil, exit.Errorf("Error: %v\n\n%s", err, Usage())
	}

	return config, nil
}

// Usage returns a usage string for the CLI tool.
func Usage() string {
	return `prop-path - compiled path queries over JSON and YAML documents

Usage: prop-path [options] <expression> [file1] [file2] ...
       prop-path [options] -spec spec.yaml [file1] ...

Reads documents from the given files, or from stdin when no file (or "-")
is given. The document is bound to the root named "doc".

Options:
  --mode MODE             Throw mode: never, missing or null (default: never)
  --lang LANG             Query language: proppath or jsonpath (default: proppath)
  --spec FILE             YAML extraction spec mapping result keys to expressions
  --template FILE         Go text/template file applied to each result
  --root NAME=FILE        Extra named root loaded from FILE (can be used multiple times)
  --yaml                  Parse input documents as YAML instead of JSON
  --ndjson                Treat input as newline-delimited JSON documents
  --rate N                Rate limit in documents per second for NDJSON (0 for unlimited)
  --indent                Indent JSON output
  --no-cache              Disable the compiled expression cache
  --color MODE            Colorize failure output: auto, always or never (default: auto)
  -h, --help              Show this help message

Examples:
  prop-path 'items*.name' data.json           # Name of every item
  prop-path 'user.email ?? contact.email' -   # First non-null address, from stdin
  prop-path --mode missing 'a.b.c' data.json  # Raise on missing keys
  prop-path --spec extract.yaml data.json     # Structured extraction
  prop-path --lang jsonpath '$.items[*]' data.json`
}
