package interp

import (
	"strconv"
	"strings"

	"github.com/joeycumines/jsrt/jserr"
	"github.com/joeycumines/jsrt/value"
)

// ExtractThrown unwraps err into the JS value it carries if err is an
// uncaught Throw completion escaping RunProgram/ProvideModule (see
// interpreter.go's RunProgram, which wraps a top-level throw this way via
// ThrowValue). Any other error (including a non-Throw controlSignal,
// which would indicate an internal bug reaching the program boundary) is
// reported as not-extractable.
func (it *Interpreter) ExtractThrown(err error) (value.Value, bool) {
	c, ok := asControlSignal(err)
	if !ok || c.Kind != Throw {
		return value.Undef, false
	}
	return c.Value, true
}

// ThrownToJSError converts an uncaught JS throw value into the host-facing
// error taxonomy: reading `name`/`message`/`stack` off an Error-shaped
// object the same way a host's top-level catch would, and falling back to
// jserr.Thrown for an arbitrary non-Error thrown value. Used at the
// scheduler.Step boundary so a host never has to understand this
// package's internal controlSignal representation.
func (it *Interpreter) ThrownToJSError(v value.Value) *jserr.JSError {
	if !v.IsObject() {
		return jserr.Thrown(it.primitiveDebugString(v))
	}
	obj := it.Object(v.AsObject())
	if obj == nil {
		return jserr.Thrown(it.primitiveDebugString(v))
	}
	name := it.stringPropOr(obj, "name", "Error")
	message := it.stringPropOr(obj, "message", "")
	je := &jserr.JSError{Kind: kindFromErrorName(name), Message: message, Value: v}
	je.Stack = parseStackFrames(it.stringPropOr(obj, "stack", ""))
	return je
}

// parseStackFrames recovers structured frames from formatStack's rendered
// "    at fn (file:line:col)" lines (the first line is the "Name:
// message" header, not a frame).
func parseStackFrames(stack string) []jserr.StackFrame {
	var frames []jserr.StackFrame
	for _, line := range strings.Split(stack, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "at ") {
			continue
		}
		line = strings.TrimPrefix(line, "at ")
		open := strings.LastIndex(line, "(")
		if open < 0 || !strings.HasSuffix(line, ")") {
			continue
		}
		fn := strings.TrimSpace(line[:open])
		loc := line[open+1 : len(line)-1]
		file, lineNo, col := splitLocation(loc)
		frames = append(frames, jserr.StackFrame{FunctionName: fn, File: file, Line: lineNo, Column: col})
	}
	return frames
}

func splitLocation(loc string) (file string, line, col int) {
	parts := strings.Split(loc, ":")
	if len(parts) < 2 {
		return loc, 0, 0
	}
	col, _ = strconv.Atoi(parts[len(parts)-1])
	line, _ = strconv.Atoi(parts[len(parts)-2])
	file = strings.Join(parts[:len(parts)-2], ":")
	return file, line, col
}

func (it *Interpreter) stringPropOr(obj *value.Object, key, fallback string) string {
	p, ok := obj.GetOwn(value.NewStringKey(it.Intern_, key))
	if !ok || p.IsAccessor() {
		return fallback
	}
	s, err := value.ToStringValue(it.Intern_, it, p.Val)
	if err != nil {
		return fallback
	}
	return s.Content()
}

func (it *Interpreter) primitiveDebugString(v value.Value) string {
	s, err := value.ToStringValue(it.Intern_, it, v)
	if err != nil {
		return "value"
	}
	return s.Content()
}

func kindFromErrorName(name string) jserr.Kind {
	switch name {
	case "TypeError":
		return jserr.KindType
	case "RangeError":
		return jserr.KindRange
	case "ReferenceError":
		return jserr.KindReference
	case "SyntaxError":
		return jserr.KindSyntax
	default:
		return jserr.KindThrownValue
	}
}
