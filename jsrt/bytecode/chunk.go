package bytecode

// SourceSpan is a bytecode-offset-to-source-span entry, letting a host
// map a thrown error or a profiler sample back to source text.
type SourceSpan struct {
	InstrIndex int
	Line, Col  int
}

// FuncInfo names the function a Chunk was compiled from, for stack
// traces and the VM's own re-entrancy bookkeeping.
type FuncInfo struct {
	Name       string
	ParamCount int
}

// Chunk is one compiled function body: an instruction array, number and
// string constant pools (kept as plain Go values rather than
// value.Value/intern.String so the compiler never needs a live
// Interpreter — OpLoadConst/OpLoadStringConst resolve them against the
// VM's own heap and intern table at run time), a register count (capped
// at 256, see maxRegisters), and a source map. NumRegisters includes the
// parameter/local registers the compiler allocated during lowering.
type Chunk struct {
	Code         []Instr
	NumConsts    []float64
	StrConsts    []string
	SourceMap    []SourceSpan
	NumRegisters int
	Func         FuncInfo
}

const maxRegisters = 256
