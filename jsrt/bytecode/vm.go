package bytecode

import (
	"log"

	"github.com/joeycumines/jsrt/env"
	"github.com/joeycumines/jsrt/interp"
	"github.com/joeycumines/jsrt/jserr"
	"github.com/joeycumines/jsrt/value"
)

func internalBug(format string, args ...any) error {
	log.Printf("[jsrt/bytecode] internal invariant violated: "+format, args...)
	return jserr.Internal(format, args...)
}

// tryFrame is one entry of the VM's try/catch handler stack.
type tryFrame struct {
	target int
	excReg int
}

// vm executes one Chunk against a live Interpreter. A fresh vm is built
// per call (mirroring callInterpreted's per-call guard/env), not pooled,
// since register contents must not leak between reentrant/recursive
// invocations of the same compiled function.
type vm struct {
	it     *interp.Interpreter
	chunk  *Chunk
	scope  env.Env
	regs   []value.Value
	tries  []tryFrame
}

func newVM(it *interp.Interpreter, chunk *Chunk, scope env.Env) *vm {
	return &vm{
		it:    it,
		chunk: chunk,
		scope: scope,
		regs:  make([]value.Value, chunk.NumRegisters),
	}
}

// run executes the chunk to completion, returning its return value or a
// thrown error (already wrapped via Throw/ThrowValue, matching what
// jsrt/interp's own statement execution returns).
func (m *vm) run() (value.Value, error) {
	ip := 0
	for ip < len(m.chunk.Code) {
		in := m.chunk.Code[ip]
		next, result, done, err := m.step(in, ip)
		if err != nil {
			handled, newIP := m.tryHandle(err)
			if !handled {
				return value.Undef, err
			}
			ip = newIP
			continue
		}
		if done {
			return result, nil
		}
		ip = next
	}
	return value.Undef, nil
}

// tryHandle looks for the innermost live try handler; if found, it binds
// the thrown value into the handler's exception register and jumps
// there, consuming that handler (handlers don't nest around their own
// catch body in this VM — a throw inside a catch block propagates to
// the next outer handler, which is already true here since tries is
// popped before jumping).
func (m *vm) tryHandle(err error) (bool, int) {
	if len(m.tries) == 0 {
		return false, 0
	}
	frame := m.tries[len(m.tries)-1]
	m.tries = m.tries[:len(m.tries)-1]
	m.regs[frame.excReg] = m.it.ThrowableValue(err)
	return true, frame.target
}

// step executes one instruction, returning the next IP (for straight-line
// and jump flow), or (value, true) if a Return was hit.
func (m *vm) step(in Instr, ip int) (nextIP int, result value.Value, done bool, err error) {
	switch in.Op {
	case OpNop:
		return ip + 1, value.Undef, false, nil

	case OpLoadConst:
		m.regs[in.A] = value.NewNumber(m.chunk.NumConsts[in.B])
	case OpLoadStringConst:
		m.regs[in.A] = m.it.StringValue(m.chunk.StrConsts[in.B])
	case OpLoadUndef:
		m.regs[in.A] = value.Undef
	case OpLoadNull:
		m.regs[in.A] = value.Nul
	case OpLoadTrue:
		m.regs[in.A] = value.True
	case OpLoadFalse:
		m.regs[in.A] = value.False
	case OpMove:
		m.regs[in.A] = m.regs[in.B]

	case OpLoadVar:
		v, gerr := m.scope.Get(m.it.Heap_, in.Str, false)
		if gerr != nil {
			return 0, value.Undef, false, m.it.JSErrToThrow(gerr)
		}
		m.regs[in.A] = v
	case OpStoreVar:
		if serr := m.scope.Set(m.it.Heap_, in.Str, m.regs[in.A]); serr != nil {
			return 0, value.Undef, false, m.it.JSErrToThrow(serr)
		}
	case OpDeclareVar:
		if derr := m.scope.Define(m.it.Heap_, in.Str, m.regs[in.A], in.B == 1, in.C == 1); derr != nil {
			return 0, value.Undef, false, m.it.JSErrToThrow(derr)
		}

	case OpBinary:
		v, berr := m.it.ApplyBinary(in.Str, m.regs[in.B], m.regs[in.C])
		if berr != nil {
			return 0, value.Undef, false, berr
		}
		m.regs[in.A] = v
	case OpUnary:
		v, uerr := m.it.ApplyUnary(in.Str, m.regs[in.B])
		if uerr != nil {
			return 0, value.Undef, false, uerr
		}
		m.regs[in.A] = v
	case OpNot:
		m.regs[in.A] = value.NewBool(!value.ToBoolean(m.regs[in.B]))
	case OpTypeof:
		v, gerr := m.scope.Get(m.it.Heap_, in.Str, true)
		if gerr != nil {
			return 0, value.Undef, false, m.it.JSErrToThrow(gerr)
		}
		m.regs[in.A] = m.it.TypeOfValue(v)

	case OpJump:
		return in.A, value.Undef, false, nil
	case OpJumpIfTrue:
		if value.ToBoolean(m.regs[in.A]) {
			return in.B, value.Undef, false, nil
		}
	case OpJumpIfFalse:
		if !value.ToBoolean(m.regs[in.A]) {
			return in.B, value.Undef, false, nil
		}
	case OpJumpIfNullish:
		if m.regs[in.A].IsNullish() {
			return in.B, value.Undef, false, nil
		}
	case OpJumpIfNotNullish:
		if !m.regs[in.A].IsNullish() {
			return in.B, value.Undef, false, nil
		}

	case OpGetProp:
		objVal := m.regs[in.B]
		if !objVal.IsObject() {
			return 0, value.Undef, false, m.it.ThrowValue(m.it.NewTypeErrorValue("cannot read properties of non-object"))
		}
		key, kerr := m.propKey(in)
		if kerr != nil {
			return 0, value.Undef, false, kerr
		}
		v, gerr := m.it.GetProperty(objVal.AsObject(), key)
		if gerr != nil {
			return 0, value.Undef, false, gerr
		}
		m.regs[in.A] = v
	case OpSetProp:
		objVal := m.regs[in.A]
		if !objVal.IsObject() {
			return 0, value.Undef, false, m.it.ThrowValue(m.it.NewTypeErrorValue("cannot set properties of non-object"))
		}
		key, kerr := m.propKey(in)
		if kerr != nil {
			return 0, value.Undef, false, kerr
		}
		if serr := m.it.SetProperty(objVal.AsObject(), key, m.regs[in.B]); serr != nil {
			return 0, value.Undef, false, serr
		}

	case OpCall:
		callee := m.regs[in.B]
		this := value.Undef
		if in.C >= 0 {
			this = m.regs[in.C]
		}
		args := m.args(in.D, in.Args)
		v, cerr := m.it.Call(callee, this, args)
		if cerr != nil {
			return 0, value.Undef, false, cerr
		}
		m.regs[in.A] = v
	case OpConstruct:
		callee := m.regs[in.B]
		args := m.args(in.D, in.Args)
		v, cerr := m.it.Construct(callee, args)
		if cerr != nil {
			return 0, value.Undef, false, cerr
		}
		m.regs[in.A] = v

	case OpReturn:
		if in.A < 0 {
			return 0, value.Undef, true, nil
		}
		return 0, m.regs[in.A], true, nil
	case OpThrow:
		return 0, value.Undef, false, m.it.ThrowValue(m.regs[in.A])

	case OpPushTry:
		m.tries = append(m.tries, tryFrame{target: in.A, excReg: in.B})
	case OpPopTry:
		if len(m.tries) > 0 {
			m.tries = m.tries[:len(m.tries)-1]
		}

	case OpTemplateConcat:
		s := ""
		for i := 0; i < in.Args; i++ {
			part, terr := value.ToStringValue(m.it.Intern_, m.it, m.regs[in.B+i])
			if terr != nil {
				return 0, value.Undef, false, m.it.JSErrToThrow(terr)
			}
			s += part.Content()
		}
		m.regs[in.A] = m.it.StringValue(s)

	default:
		return 0, value.Undef, false, m.it.JSErrToThrow(internalBug("bytecode: unknown opcode %v", in.Op))
	}
	return ip + 1, value.Undef, false, nil
}

func (m *vm) propKey(in Instr) (value.PropertyKey, error) {
	if in.D == 1 {
		keyVal := m.regs[in.C]
		k, err := value.PropertyKeyFromValue(m.it.Intern_, m.it, keyVal)
		if err != nil {
			return value.PropertyKey{}, m.it.JSErrToThrow(err)
		}
		return k, nil
	}
	return value.NewStringKey(m.it.Intern_, in.Str), nil
}

func (m *vm) args(start, count int) []value.Value {
	if count == 0 {
		return nil
	}
	out := make([]value.Value, count)
	copy(out, m.regs[start:start+count])
	return out
}
