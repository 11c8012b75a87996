package jsrt

import (
	"time"

	"github.com/joeycumines/jsrt/jserr"
	"github.com/joeycumines/jsrt/value"
)

// runtimeOptions holds configuration applied when constructing a Runtime.
type runtimeOptions struct {
	gcThreshold        int
	timeout            time.Duration
	maxCallDepth       int
	parser             Parser
	unhandledRejection func(reason value.Value)
	bytecode           bool
	sourceMap          *jserr.SourceMapResolver
}

// RuntimeOption configures a Runtime at construction time, mirroring
// eventloop/options.go's functional-option pattern: each option is a small
// closure-backed value applied in order, later options overriding earlier
// ones for the same field.
type RuntimeOption interface {
	applyRuntime(*runtimeOptions)
}

type runtimeOptionFunc func(*runtimeOptions)

func (f runtimeOptionFunc) applyRuntime(o *runtimeOptions) { f(o) }

// WithGCThreshold sets the heap's allocation-count trigger for a
// mark-and-sweep collection; zero keeps the heap's own default.
func WithGCThreshold(n int) RuntimeOption {
	return runtimeOptionFunc(func(o *runtimeOptions) { o.gcThreshold = n })
}

// WithTimeout bounds total wall-clock execution time across every Step
// call since Prepare; zero (the default) means no timeout.
func WithTimeout(d time.Duration) RuntimeOption {
	return runtimeOptionFunc(func(o *runtimeOptions) { o.timeout = d })
}

// WithMaxCallDepth overrides the interpreter's recursion guard; zero
// keeps its own default (2000).
func WithMaxCallDepth(n int) RuntimeOption {
	return runtimeOptionFunc(func(o *runtimeOptions) { o.maxCallDepth = n })
}

// WithParser supplies the source-to-AST front end Prepare/ProvideModule
// use to turn host-supplied text into an *ast.Program. A Runtime built
// without one can still be driven via PrepareProgram/ProvideModuleProgram
// against an already-parsed Program, but Prepare/ProvideModule (the
// string-taking forms) return an error until one is configured.
func WithParser(p Parser) RuntimeOption {
	return runtimeOptionFunc(func(o *runtimeOptions) { o.parser = p })
}

// WithUnhandledRejection registers a callback invoked once per Step for
// every promise that settled rejected with no handler ever attached,
// mirroring the host-reporting hook most embedders expect (Node's
// 'unhandledRejection', a browser's onunhandledrejection). reason is the
// promise's rejection value.
func WithUnhandledRejection(fn func(reason value.Value)) RuntimeOption {
	return runtimeOptionFunc(func(o *runtimeOptions) { o.unhandledRejection = fn })
}

// WithSourceMap attaches a source map resolver (see
// jserr.NewSourceMapResolver) so a thrown error's Location/Stack fields
// report positions in the host's original source rather than whatever
// generated/compiled text was actually handed to Prepare — the same
// resolution a browser devtools pane or Node's own source-map support does
// for a TypeScript/bundled program.
func WithSourceMap(r *jserr.SourceMapResolver) RuntimeOption {
	return runtimeOptionFunc(func(o *runtimeOptions) { o.sourceMap = r })
}

// WithBytecodeCompiler turns on jsrt/bytecode: every interpreted function
// is attempted for lowering to register bytecode at creation time,
// falling back to the tree walker for any function outside the compiled
// subset. The default (not set) never compiles.
func WithBytecodeCompiler() RuntimeOption {
	return runtimeOptionFunc(func(o *runtimeOptions) { o.bytecode = true })
}
