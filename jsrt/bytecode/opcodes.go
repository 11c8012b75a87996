// Package bytecode lowers a subset of jsrt/ast to a register bytecode and
// executes it with a small VM that shares jsrt/interp's value model, GC
// heap, and environment chain: a compiled function is just another
// FunctionData payload Call re-enters instead of walking the AST.
//
// Only the "hot" expression/statement shapes are compiled (arithmetic,
// comparisons, plain control flow, property access, calls); anything
// else — destructuring, generators/async, classes, for-in/of, switch,
// try/finally, spread, labeled break/continue — makes Compile fail, and
// the caller leaves that function on the tree walker rather than
// half-compiling it. A chunk is an instruction array rather than a packed
// byte stream: real register VMs pack operands into a byte buffer for
// cache density, but that buffer is only worth the bug surface once a
// profiler says so, and this code is never run before landing — an
// Instr slice is the safer idiomatic-Go rendition of the same contract.
package bytecode

// Op is one bytecode instruction's opcode. Each Instr's A/B/C/D fields
// mean different things per opcode; see the comment on each constant.
type Op byte

const (
	OpNop Op = iota

	OpLoadConst       // A=dst, B=index into Chunk.NumConsts
	OpLoadStringConst // A=dst, B=index into Chunk.StrConsts
	OpLoadUndef // A=dst
	OpLoadNull  // A=dst
	OpLoadTrue  // A=dst
	OpLoadFalse // A=dst
	OpMove      // A=dst, B=src

	OpLoadVar    // A=dst, Str=name
	OpStoreVar   // A=src, Str=name
	OpDeclareVar // A=src, Str=name, B=1 if mutable, C=1 if initialized at declare time

	OpBinary // A=dst, B=lhs, C=rhs, Str=operator (ApplyBinary's vocabulary)
	OpUnary  // A=dst, B=src, Str=operator (ApplyUnary's vocabulary: "!", "+", "-", "~", "typeof", "void")
	OpNot    // A=dst, B=src — logical !, always boolean-coercing
	OpTypeof // A=dst, Str=identifier name — typeof on a bare identifier, tolerating an unbound reference

	OpJump             // A=target instruction index
	OpJumpIfTrue       // A=src, B=target
	OpJumpIfFalse      // A=src, B=target
	OpJumpIfNullish    // A=src, B=target
	OpJumpIfNotNullish // A=src, B=target

	OpGetProp // A=dst, B=objReg, C=keyReg (used when Computed), Str=name (used when !Computed), D=1 if Computed
	OpSetProp // A=objReg, B=valReg, C=keyReg (used when Computed), Str=name (used when !Computed), D=1 if Computed

	OpCall      // A=dst, B=calleeReg, C=thisReg (-1 = undefined), D=argStart; Args=argCount
	OpConstruct // A=dst, B=calleeReg, D=argStart; Args=argCount
	OpReturn    // A=src (-1 = undefined)
	OpThrow     // A=src

	OpPushTry // A=handler target instruction index, B=excReg
	OpPopTry

	OpTemplateConcat // A=dst, B=start register, Args=count of registers to ToString+concat
)

// Instr is one bytecode instruction. Field meaning is opcode-dependent;
// see the Op constants above. Args carries OpCall/OpConstruct's argument
// count and OpTemplateConcat's part count, kept separate from A-D since
// those opcodes already use every other slot.
type Instr struct {
	Op   Op
	A, B, C, D int
	Str  string
	Args int
}
