package jserr

import "github.com/go-sourcemap/sourcemap"

// SourceMapResolver resolves generated-source stack positions back to the
// original source a host compiled from (TypeScript, a bundler, a minifier),
// wrapping go-sourcemap/sourcemap's Consumer the same way the rest of this
// module wraps a single third-party type behind a small typed accessor.
type SourceMapResolver struct {
	consumer *sourcemap.Consumer
}

// NewSourceMapResolver parses a source map (the raw JSON a host read from a
// ".js.map" file or a "//# sourceMappingURL=data:..." inline comment) into a
// resolver. mapURL is passed through to sourcemap.Parse for resolving a
// relative "sources" entry; pass "" when sources are already absolute or
// resolution isn't needed.
func NewSourceMapResolver(mapURL string, data []byte) (*SourceMapResolver, error) {
	c, err := sourcemap.Parse(mapURL, data)
	if err != nil {
		return nil, err
	}
	return &SourceMapResolver{consumer: c}, nil
}

// Resolve rewrites a single generated-position frame to its original
// source location. A position the map has no entry for (e.g. a frame from
// hand-written runtime glue rather than the mapped bundle) is returned
// unchanged.
func (r *SourceMapResolver) Resolve(frame StackFrame) StackFrame {
	if r == nil || r.consumer == nil {
		return frame
	}
	file, fn, line, col, ok := r.consumer.Source(frame.Line, frame.Column)
	if !ok {
		return frame
	}
	out := frame
	if file != "" {
		out.File = file
	}
	if fn != "" {
		out.FunctionName = fn
	}
	out.Line, out.Column = line, col
	return out
}

// ResolveStack maps Resolve over every frame, innermost first.
func (r *SourceMapResolver) ResolveStack(frames []StackFrame) []StackFrame {
	if r == nil || len(frames) == 0 {
		return frames
	}
	out := make([]StackFrame, len(frames))
	for i, f := range frames {
		out[i] = r.Resolve(f)
	}
	return out
}

// ResolveLocation rewrites a single error location the same way Resolve
// does for a stack frame.
func (r *SourceMapResolver) ResolveLocation(loc *SourceLocation) *SourceLocation {
	if r == nil || r.consumer == nil || loc == nil {
		return loc
	}
	resolved := r.Resolve(StackFrame{File: loc.File, Line: loc.Line, Column: loc.Column})
	out := *loc
	out.File, out.Line, out.Column = resolved.File, resolved.Line, resolved.Column
	return &out
}
