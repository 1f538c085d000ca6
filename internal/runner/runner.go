// Package runner drives the prop-path CLI pipeline: decode input documents,
// evaluate the compiled query against each, and render the results.
package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"text/template"

	proppath "github.com/Nandan108/prop-path"
	"github.com/Nandan108/prop-path/internal/config"
	"github.com/Nandan108/prop-path/internal/exit"
	"github.com/Nandan108/prop-path/internal/query"
	"github.com/Nandan108/prop-path/internal/ratelimit"
	"github.com/Nandan108/prop-path/internal/render"
)

// Runner evaluates one compiled query over a sequence of input documents.
type Runner struct {
	config    *config.Config
	query     *query.Query
	tmpl      *template.Template
	extras    *proppath.Roots
	limiter   *ratelimit.Limiter
	input     io.Reader
	output    io.Writer
	errOutput io.Writer
}

// New creates a new Runner with the provided configuration.
// If creation fails, returns nil runner and exit result.
func New(cfg *config.Config) (*Runner, *exit.Result) {
	var opts []proppath.Option
	if cfg.NoCache {
		opts = append(opts, proppath.WithoutCache())
	}

	var (
		q   *query.Query
		err error
	)
	if cfg.SpecFile != "" {
		data, readErr := os.ReadFile(cfg.SpecFile)
		if readErr != nil {
			return nil, exit.Errorf("Error reading spec file: %v\n", readErr)
		}
		q, err = query.CompileSpec(data, cfg.Mode, opts...)
	} else {
		q, err = query.Compile(cfg.Expression, cfg.Lang, cfg.Mode, opts...)
	}
	if err != nil {
		return nil, exit.Errorf("Error: %v\n", err)
	}

	var tmpl *template.Template
	if cfg.Template != "" {
		text, readErr := os.ReadFile(cfg.Template)
		if readErr != nil {
			return nil, exit.Errorf("Error reading template file: %v\n", readErr)
		}
		tmpl, err = render.Template(string(text))
		if err != nil {
			return nil, exit.Errorf("Error parsing template: %v\n", err)
		}
	}

	extras, exitResult := loadRoots(cfg)
	if exitResult != nil {
		return nil, exitResult
	}

	return &Runner{
		config:    cfg,
		query:     q,
		tmpl:      tmpl,
		extras:    extras,
		limiter:   ratelimit.New(cfg.Rate),
		input:     os.Stdin,
		output:    os.Stdout,
		errOutput: os.Stderr,
	}, nil
}

// loadRoots decodes each -root mount so extra named roots are shared across
// all input documents.
func loadRoots(cfg *config.Config) (*proppath.Roots, *exit.Result) {
	if len(cfg.Roots) == 0 {
		return nil, nil
	}

	extras := proppath.NewRoots()
	for _, mount := range cfg.Roots {
		data, err := os.ReadFile(mount.File)
		if err != nil {
			return nil, exit.Errorf("Error reading root %s: %v\n", mount.Name, err)
		}
		doc, err := decode(cfg, data)
		if err != nil {
			return nil, exit.Errorf("Error decoding root %s: %v\n", mount.Name, err)
		}
		extras.Set(mount.Name, doc)
	}

	return extras, nil
}

func decode(cfg *config.Config, data []byte) (any, error) {
	if cfg.YAML {
		return query.DecodeYAML(data)
	}
	return query.DecodeJSON(data)
}

// SetInput overrides the stdin source, used by tests.
func (r *Runner) SetInput(in io.Reader) {
	r.input = in
}

// SetOutput overrides the result destination, used by tests.
func (r *Runner) SetOutput(w io.Writer) {
	r.output = w
}

// SetErrorOutput overrides the error destination, used by tests.
func (r *Runner) SetErrorOutput(w io.Writer) {
	r.errOutput = w
}

func (r *Runner) logf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.errOutput, format, args...)
}

// Run processes every input file in order and returns the process exit code.
// Evaluation stops at the first failing document.
func (r *Runner) Run(ctx context.Context) int {
	files := r.config.Files
	if len(files) == 0 {
		files = []string{"-"}
	}

	doc := 0
	for _, file := range files {
		n, err := r.runFile(ctx, file, doc)
		doc += n
		if err != nil {
			if ctx.Err() != nil {
				r.logf("\nInterrupted after %d documents\n", doc)
				return 1
			}
			r.logf("Error: %s: %v\n", file, err)
			return 1
		}
	}

	return 0
}

// runFile evaluates the query against every document in one file and returns
// how many documents were processed.
func (r *Runner) runFile(ctx context.Context, file string, firstDoc int) (int, error) {
	in, closer, err := r.open(file)
	if err != nil {
		return 0, err
	}
	defer closer()

	if r.config.NDJSON {
		return r.runStream(ctx, in, file, firstDoc)
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return 0, err
	}
	doc, err := decode(r.config, data)
	if err != nil {
		return 0, err
	}
	if err := r.emit(doc, file, firstDoc); err != nil {
		return 0, err
	}
	return 1, nil
}

func (r *Runner) open(file string) (io.Reader, func(), error) {
	if file == "-" {
		return r.input, func() {}, nil
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

// runStream decodes one JSON document per line, honoring the rate limit and
// context cancellation between documents. Blank lines are skipped.
func (r *Runner) runStream(ctx context.Context, in io.Reader, file string, firstDoc int) (int, error) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	count := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		if err := r.limiter.Wait(ctx); err != nil {
			return count, err
		}

		doc, err := query.DecodeJSON(line)
		if err != nil {
			return count, fmt.Errorf("document %d: %w", firstDoc+count, err)
		}
		if err := r.emit(doc, file, firstDoc+count); err != nil {
			return count, err
		}
		count++
	}

	return count, scanner.Err()
}

// maxLineSize bounds a single NDJSON document.
const maxLineSize = 16 * 1024 * 1024

// emit evaluates one document and writes the rendered result.
func (r *Runner) emit(doc any, file string, index int) error {
	value, err := r.query.Eval(doc, r.extras)
	if err != nil {
		return err
	}

	var out string
	switch {
	case r.tmpl != nil:
		out, err = render.Apply(r.tmpl, render.Result{
			Doc:    index,
			File:   file,
			Source: r.query.Source(),
			Value:  value,
		})
	case r.config.Indent:
		out, err = render.JSONIndent(value)
	default:
		out, err = render.JSON(value)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(r.output, out)
	return err
}
