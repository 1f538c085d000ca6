package proppath

import (
	"github.com/Nandan108/prop-path/internal/access"
	"github.com/Nandan108/prop-path/internal/ast"
	"github.com/Nandan108/prop-path/internal/cache"
)

type options struct {
	mode           ast.ThrowMode
	cache          cache.Cache
	accessor       access.Accessor
	onParseFailure func(*SyntaxError) error
}

// Option configures compilation.
type Option func(*options)

func buildOptions(opts []Option) options {
	o := options{
		mode:     ast.ModeNever,
		cache:    defaultCache,
		accessor: access.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithMode sets the default throw mode. Segments may still override it with
// '?', '!' and '!!' prefixes.
func WithMode(mode ThrowMode) Option {
	return func(o *options) {
		o.mode = mode
	}
}

// WithCache replaces the process-wide extractor cache for this compilation,
// letting tests assert cache population in isolation.
func WithCache(c cache.Cache) Option {
	return func(o *options) {
		o.cache = c
	}
}

// WithoutCache disables memoization for this compilation.
func WithoutCache() Option {
	return func(o *options) {
		o.cache = nil
	}
}

// WithAccessor substitutes the container-access capability, for hosts with
// bespoke container kinds.
func WithAccessor(a access.Accessor) Option {
	return func(o *options) {
		o.accessor = a
	}
}

// WithParseFailureHook observes compile-time failures before they abort
// compilation. The hook may return a replacement error.
func WithParseFailureHook(hook func(*SyntaxError) error) Option {
	return func(o *options) {
		o.onParseFailure = hook
	}
}

type callOptions struct {
	onFailure func(*EvalError) error
}

// CallOption configures a single Extract invocation.
type CallOption func(*callOptions)

func buildCallOptions(opts []CallOption) callOptions {
	var co callOptions
	for _, opt := range opts {
		opt(&co)
	}
	return co
}

// OnFailure installs a failure hook for one invocation only. The hook
// receives the failure snapshot and may return the host's own error
// representation; it never leaks into later calls of the same cached
// extractor.
func OnFailure(hook func(*EvalError) error) CallOption {
	return func(co *callOptions) {
		co.onFailure = hook
	}
}
