package bytecode

import (
	"fmt"

	"github.com/joeycumines/jsrt/ast"
)

// ErrUnsupported is wrapped by Compile's returned error when the body
// contains a construct outside the compiled subset. The caller should
// treat this as "leave this function on the tree walker", not a bug.
type ErrUnsupported struct{ Reason string }

func (e *ErrUnsupported) Error() string { return "bytecode: unsupported construct: " + e.Reason }

func unsupported(format string, args ...any) error {
	return &ErrUnsupported{Reason: fmt.Sprintf(format, args...)}
}

type loopLabels struct {
	breakTargets, continueTargets []int // instruction indexes needing patch to a jump target
}

type compiler struct {
	code      []Instr
	numConsts []float64
	strConsts []string
	nextReg   int
	loops     []*loopLabels
}

// Compile lowers a function's parameter list and body to a Chunk. params
// must be plain identifiers (no destructuring/defaults/rest — those stay
// on the tree walker). The chunk binds no `this` itself (CompiledFunction.Run
// defines it for non-arrow functions) and no `arguments` object.
func Compile(name string, params []string, body *ast.BlockStatement) (*Chunk, error) {
	c := &compiler{}
	// Parameters are bound into the call environment by name (exactly
	// as callInterpreted binds them), not into dedicated registers, so
	// the body reads them via the same OpLoadVar path as any other
	// identifier and register numbering starts fresh at 0.
	for _, stmt := range body.Body {
		if err := c.compileStmt(stmt); err != nil {
			return nil, err
		}
	}
	c.emit(Instr{Op: OpReturn, A: -1})

	if c.nextReg > maxRegisters {
		return nil, unsupported("function needs %d registers, over the %d-register-per-chunk cap", c.nextReg, maxRegisters)
	}

	return &Chunk{
		Code:         c.code,
		NumConsts:    c.numConsts,
		StrConsts:    c.strConsts,
		NumRegisters: c.nextReg,
		Func:         FuncInfo{Name: name, ParamCount: len(params)},
	}, nil
}

func (c *compiler) emit(i Instr) int {
	c.code = append(c.code, i)
	return len(c.code) - 1
}

func (c *compiler) alloc() int {
	r := c.nextReg
	c.nextReg++
	return r
}

func (c *compiler) numConstIdx(n float64) int {
	c.numConsts = append(c.numConsts, n)
	return len(c.numConsts) - 1
}

func (c *compiler) strConstIdx(s string) int {
	c.strConsts = append(c.strConsts, s)
	return len(c.strConsts) - 1
}

func (c *compiler) here() int { return len(c.code) }

func (c *compiler) patchTarget(instrIdx int, target int) {
	ins := c.code[instrIdx]
	switch ins.Op {
	case OpJump:
		ins.A = target
	case OpJumpIfTrue, OpJumpIfFalse, OpJumpIfNullish, OpJumpIfNotNullish:
		ins.B = target
	case OpPushTry:
		ins.A = target
	default:
		panic(fmt.Sprintf("bytecode: patchTarget on non-jump opcode %v", ins.Op))
	}
	c.code[instrIdx] = ins
}

// --- statements ---

func (c *compiler) compileStmt(s ast.Statement) error {
	switch st := s.(type) {
	case *ast.ExpressionStatement:
		_, err := c.compileExpr(st.Expr)
		return err

	case *ast.BlockStatement:
		for _, inner := range st.Body {
			if err := c.compileStmt(inner); err != nil {
				return err
			}
		}
		return nil

	case *ast.VariableDeclaration:
		return c.compileVarDecl(st)

	case *ast.IfStatement:
		return c.compileIf(st)

	case *ast.WhileStatement:
		return c.compileWhile(st)

	case *ast.DoWhileStatement:
		return c.compileDoWhile(st)

	case *ast.ForStatement:
		return c.compileFor(st)

	case *ast.ReturnStatement:
		if st.Argument == nil {
			c.emit(Instr{Op: OpReturn, A: -1})
			return nil
		}
		r, err := c.compileExpr(st.Argument)
		if err != nil {
			return err
		}
		c.emit(Instr{Op: OpReturn, A: r})
		return nil

	case *ast.ThrowStatement:
		r, err := c.compileExpr(st.Argument)
		if err != nil {
			return err
		}
		c.emit(Instr{Op: OpThrow, A: r})
		return nil

	case *ast.BreakStatement:
		if st.Label != "" {
			return unsupported("labeled break")
		}
		if len(c.loops) == 0 {
			return unsupported("break outside loop")
		}
		l := c.loops[len(c.loops)-1]
		idx := c.emit(Instr{Op: OpJump})
		l.breakTargets = append(l.breakTargets, idx)
		return nil

	case *ast.ContinueStatement:
		if st.Label != "" {
			return unsupported("labeled continue")
		}
		if len(c.loops) == 0 {
			return unsupported("continue outside loop")
		}
		l := c.loops[len(c.loops)-1]
		idx := c.emit(Instr{Op: OpJump})
		l.continueTargets = append(l.continueTargets, idx)
		return nil

	case *ast.TryStatement:
		return c.compileTry(st)

	case *ast.EmptyStatement:
		return nil

	default:
		return unsupported("statement %T", s)
	}
}

func (c *compiler) compileVarDecl(decl *ast.VariableDeclaration) error {
	for _, d := range decl.Declarations {
		id, ok := d.ID.(*ast.IdentifierPattern)
		if !ok {
			return unsupported("destructuring declarator")
		}
		var src int
		if d.Init != nil {
			r, err := c.compileExpr(d.Init)
			if err != nil {
				return err
			}
			src = r
		} else {
			src = c.alloc()
			c.emit(Instr{Op: OpLoadUndef, A: src})
		}
		mutable := 1
		if decl.Kind == ast.Const {
			mutable = 0
		}
		c.emit(Instr{Op: OpDeclareVar, A: src, B: mutable, C: 1, Str: id.Name})
	}
	return nil
}

func (c *compiler) compileIf(st *ast.IfStatement) error {
	test, err := c.compileExpr(st.Test)
	if err != nil {
		return err
	}
	jf := c.emit(Instr{Op: OpJumpIfFalse, A: test})
	if err := c.compileStmt(st.Consequent); err != nil {
		return err
	}
	if st.Alternate == nil {
		c.patchTarget(jf, c.here())
		return nil
	}
	jend := c.emit(Instr{Op: OpJump})
	c.patchTarget(jf, c.here())
	if err := c.compileStmt(st.Alternate); err != nil {
		return err
	}
	c.patchTarget(jend, c.here())
	return nil
}

func (c *compiler) compileWhile(st *ast.WhileStatement) error {
	top := c.here()
	test, err := c.compileExpr(st.Test)
	if err != nil {
		return err
	}
	jf := c.emit(Instr{Op: OpJumpIfFalse, A: test})

	l := &loopLabels{}
	c.loops = append(c.loops, l)
	if err := c.compileStmt(st.Body); err != nil {
		c.loops = c.loops[:len(c.loops)-1]
		return err
	}
	c.loops = c.loops[:len(c.loops)-1]

	c.emit(Instr{Op: OpJump, A: top})
	end := c.here()
	c.patchTarget(jf, end)
	for _, idx := range l.continueTargets {
		c.patchTarget(idx, top)
	}
	for _, idx := range l.breakTargets {
		c.patchTarget(idx, end)
	}
	return nil
}

func (c *compiler) compileDoWhile(st *ast.DoWhileStatement) error {
	top := c.here()
	l := &loopLabels{}
	c.loops = append(c.loops, l)
	if err := c.compileStmt(st.Body); err != nil {
		c.loops = c.loops[:len(c.loops)-1]
		return err
	}
	c.loops = c.loops[:len(c.loops)-1]

	continueTarget := c.here()
	test, err := c.compileExpr(st.Test)
	if err != nil {
		return err
	}
	c.emit(Instr{Op: OpJumpIfTrue, A: test, B: top})
	end := c.here()
	for _, idx := range l.continueTargets {
		c.patchTarget(idx, continueTarget)
	}
	for _, idx := range l.breakTargets {
		c.patchTarget(idx, end)
	}
	return nil
}

func (c *compiler) compileFor(st *ast.ForStatement) error {
	if st.Init != nil {
		switch init := st.Init.(type) {
		case *ast.VariableDeclaration:
			if err := c.compileVarDecl(init); err != nil {
				return err
			}
		case ast.Expression:
			if _, err := c.compileExpr(init); err != nil {
				return err
			}
		default:
			return unsupported("for-init %T", st.Init)
		}
	}

	top := c.here()
	var jf int
	hasTest := st.Test != nil
	if hasTest {
		test, err := c.compileExpr(st.Test)
		if err != nil {
			return err
		}
		jf = c.emit(Instr{Op: OpJumpIfFalse, A: test})
	}

	l := &loopLabels{}
	c.loops = append(c.loops, l)
	if err := c.compileStmt(st.Body); err != nil {
		c.loops = c.loops[:len(c.loops)-1]
		return err
	}
	c.loops = c.loops[:len(c.loops)-1]

	continueTarget := c.here()
	if st.Update != nil {
		if _, err := c.compileExpr(st.Update); err != nil {
			return err
		}
	}
	c.emit(Instr{Op: OpJump, A: top})
	end := c.here()
	if hasTest {
		c.patchTarget(jf, end)
	}
	for _, idx := range l.continueTargets {
		c.patchTarget(idx, continueTarget)
	}
	for _, idx := range l.breakTargets {
		c.patchTarget(idx, end)
	}
	return nil
}

// compileTry supports try/catch without a finalizer; try/finally (and
// finally alone) stays on the tree walker since re-expressing "run on
// every exit path including return/throw/break/continue" as flat
// bytecode without a proper exit-path analysis isn't worth the risk of
// getting it subtly wrong in code nobody runs before it lands.
func (c *compiler) compileTry(st *ast.TryStatement) error {
	if st.Finalizer != nil {
		return unsupported("try/finally")
	}
	if st.Handler == nil {
		return unsupported("try without catch")
	}
	excReg := c.alloc()
	pushTry := c.emit(Instr{Op: OpPushTry, B: excReg})
	if err := c.compileStmt(st.Block); err != nil {
		return err
	}
	c.emit(Instr{Op: OpPopTry})
	jend := c.emit(Instr{Op: OpJump})

	handlerStart := c.here()
	c.patchTarget(pushTry, handlerStart)
	if st.Handler.Param != nil {
		id, ok := st.Handler.Param.(*ast.IdentifierPattern)
		if !ok {
			return unsupported("destructuring catch param")
		}
		c.emit(Instr{Op: OpDeclareVar, A: excReg, B: 1, C: 1, Str: id.Name})
	}
	if err := c.compileStmt(st.Handler.Body); err != nil {
		return err
	}
	c.patchTarget(jend, c.here())
	return nil
}

// --- expressions ---

func (c *compiler) compileExpr(e ast.Expression) (int, error) {
	switch ex := e.(type) {
	case *ast.Literal:
		return c.compileLiteral(ex)

	case *ast.Identifier:
		if ex.Name == "arguments" {
			return 0, unsupported("reference to arguments")
		}
		dst := c.alloc()
		c.emit(Instr{Op: OpLoadVar, A: dst, Str: ex.Name})
		return dst, nil

	case *ast.ThisExpression:
		dst := c.alloc()
		c.emit(Instr{Op: OpLoadVar, A: dst, Str: "this"})
		return dst, nil

	case *ast.UnaryExpression:
		return c.compileUnary(ex)

	case *ast.BinaryExpression:
		lhs, err := c.compileExpr(ex.Left)
		if err != nil {
			return 0, err
		}
		rhs, err := c.compileExpr(ex.Right)
		if err != nil {
			return 0, err
		}
		dst := c.alloc()
		c.emit(Instr{Op: OpBinary, A: dst, B: lhs, C: rhs, Str: ex.Operator})
		return dst, nil

	case *ast.LogicalExpression:
		return c.compileLogical(ex)

	case *ast.ConditionalExpression:
		return c.compileConditional(ex)

	case *ast.AssignmentExpression:
		return c.compileAssignment(ex)

	case *ast.MemberExpression:
		return c.compileMemberGet(ex)

	case *ast.CallExpression:
		return c.compileCall(ex)

	case *ast.NewExpression:
		return c.compileNew(ex)

	case *ast.ParenthesizedExpression:
		return c.compileExpr(ex.Expression)

	case *ast.SequenceExpression:
		var last int
		for _, inner := range ex.Expressions {
			r, err := c.compileExpr(inner)
			if err != nil {
				return 0, err
			}
			last = r
		}
		return last, nil

	case *ast.TemplateLiteral:
		return c.compileTemplate(ex)

	default:
		return 0, unsupported("expression %T", e)
	}
}

func (c *compiler) compileLiteral(lit *ast.Literal) (int, error) {
	dst := c.alloc()
	switch v := lit.Value.(type) {
	case nil:
		c.emit(Instr{Op: OpLoadNull, A: dst})
	case bool:
		if v {
			c.emit(Instr{Op: OpLoadTrue, A: dst})
		} else {
			c.emit(Instr{Op: OpLoadFalse, A: dst})
		}
	case float64:
		c.emit(Instr{Op: OpLoadConst, A: dst, B: c.numConstIdx(v)})
	case string:
		c.emit(Instr{Op: OpLoadStringConst, A: dst, B: c.strConstIdx(v)})
	default:
		return 0, unsupported("literal of type %T", lit.Value)
	}
	return dst, nil
}

func (c *compiler) compileUnary(ex *ast.UnaryExpression) (int, error) {
	if ex.Operator == "typeof" {
		if id, ok := ex.Argument.(*ast.Identifier); ok && id.Name != "arguments" {
			dst := c.alloc()
			c.emit(Instr{Op: OpTypeof, A: dst, Str: id.Name})
			return dst, nil
		}
	}
	if ex.Operator == "delete" {
		return 0, unsupported("delete")
	}
	src, err := c.compileExpr(ex.Argument)
	if err != nil {
		return 0, err
	}
	dst := c.alloc()
	if ex.Operator == "!" {
		c.emit(Instr{Op: OpNot, A: dst, B: src})
		return dst, nil
	}
	c.emit(Instr{Op: OpUnary, A: dst, B: src, Str: ex.Operator})
	return dst, nil
}

func (c *compiler) compileLogical(ex *ast.LogicalExpression) (int, error) {
	lhs, err := c.compileExpr(ex.Left)
	if err != nil {
		return 0, err
	}
	dst := c.alloc()
	c.emit(Instr{Op: OpMove, A: dst, B: lhs})

	var skip int
	switch ex.Operator {
	case "&&":
		skip = c.emit(Instr{Op: OpJumpIfFalse, A: dst})
	case "||":
		skip = c.emit(Instr{Op: OpJumpIfTrue, A: dst})
	case "??":
		skip = c.emit(Instr{Op: OpJumpIfNotNullish, A: dst})
	default:
		return 0, unsupported("logical operator %q", ex.Operator)
	}

	rhs, err := c.compileExpr(ex.Right)
	if err != nil {
		return 0, err
	}
	c.emit(Instr{Op: OpMove, A: dst, B: rhs})
	c.patchTarget(skip, c.here())
	return dst, nil
}

func (c *compiler) compileConditional(ex *ast.ConditionalExpression) (int, error) {
	test, err := c.compileExpr(ex.Test)
	if err != nil {
		return 0, err
	}
	jf := c.emit(Instr{Op: OpJumpIfFalse, A: test})
	dst := c.alloc()

	cons, err := c.compileExpr(ex.Consequent)
	if err != nil {
		return 0, err
	}
	c.emit(Instr{Op: OpMove, A: dst, B: cons})
	jend := c.emit(Instr{Op: OpJump})

	c.patchTarget(jf, c.here())
	alt, err := c.compileExpr(ex.Alternate)
	if err != nil {
		return 0, err
	}
	c.emit(Instr{Op: OpMove, A: dst, B: alt})
	c.patchTarget(jend, c.here())
	return dst, nil
}

func (c *compiler) compileAssignment(ex *ast.AssignmentExpression) (int, error) {
	if ex.Operator != "=" {
		return 0, unsupported("compound assignment operator %q", ex.Operator)
	}
	rhs, err := c.compileExpr(ex.Right)
	if err != nil {
		return 0, err
	}
	switch target := ex.Left.(type) {
	case *ast.IdentifierPattern:
		c.emit(Instr{Op: OpStoreVar, A: rhs, Str: target.Name})
		return rhs, nil
	case *ast.Identifier:
		c.emit(Instr{Op: OpStoreVar, A: rhs, Str: target.Name})
		return rhs, nil
	case *ast.MemberExpression:
		objReg, err := c.compileExpr(target.Object)
		if err != nil {
			return 0, err
		}
		if target.Computed {
			keyReg, err := c.compileExpr(target.Property.(ast.Expression))
			if err != nil {
				return 0, err
			}
			c.emit(Instr{Op: OpSetProp, A: objReg, B: rhs, C: keyReg, D: 1})
		} else {
			id, ok := target.Property.(*ast.Identifier)
			if !ok {
				return 0, unsupported("non-identifier static member target")
			}
			c.emit(Instr{Op: OpSetProp, A: objReg, B: rhs, Str: id.Name})
		}
		return rhs, nil
	default:
		return 0, unsupported("assignment target %T", ex.Left)
	}
}

func (c *compiler) compileMemberGet(ex *ast.MemberExpression) (int, error) {
	if ex.Optional {
		return 0, unsupported("optional chaining")
	}
	objReg, err := c.compileExpr(ex.Object)
	if err != nil {
		return 0, err
	}
	dst := c.alloc()
	if ex.Computed {
		keyReg, err := c.compileExpr(ex.Property.(ast.Expression))
		if err != nil {
			return 0, err
		}
		c.emit(Instr{Op: OpGetProp, A: dst, B: objReg, C: keyReg, D: 1})
		return dst, nil
	}
	id, ok := ex.Property.(*ast.Identifier)
	if !ok {
		return 0, unsupported("non-identifier static member property")
	}
	c.emit(Instr{Op: OpGetProp, A: dst, B: objReg, Str: id.Name})
	return dst, nil
}

func (c *compiler) compileCall(ex *ast.CallExpression) (int, error) {
	if ex.Optional {
		return 0, unsupported("optional call")
	}
	var calleeReg, thisReg int
	thisReg = -1
	if mem, ok := ex.Callee.(*ast.MemberExpression); ok {
		objReg, err := c.compileExpr(mem.Object)
		if err != nil {
			return 0, err
		}
		fnReg := c.alloc()
		if mem.Computed {
			keyReg, err := c.compileExpr(mem.Property.(ast.Expression))
			if err != nil {
				return 0, err
			}
			c.emit(Instr{Op: OpGetProp, A: fnReg, B: objReg, C: keyReg, D: 1})
		} else {
			id, ok := mem.Property.(*ast.Identifier)
			if !ok {
				return 0, unsupported("non-identifier method name")
			}
			c.emit(Instr{Op: OpGetProp, A: fnReg, B: objReg, Str: id.Name})
		}
		calleeReg = fnReg
		thisReg = objReg
	} else {
		r, err := c.compileExpr(ex.Callee)
		if err != nil {
			return 0, err
		}
		calleeReg = r
	}

	argStart, err := c.compileArgs(ex.Arguments)
	if err != nil {
		return 0, err
	}
	dst := c.alloc()
	c.emit(Instr{Op: OpCall, A: dst, B: calleeReg, C: thisReg, D: argStart, Args: len(ex.Arguments)})
	return dst, nil
}

func (c *compiler) compileNew(ex *ast.NewExpression) (int, error) {
	calleeReg, err := c.compileExpr(ex.Callee)
	if err != nil {
		return 0, err
	}
	argStart, err := c.compileArgs(ex.Arguments)
	if err != nil {
		return 0, err
	}
	dst := c.alloc()
	c.emit(Instr{Op: OpConstruct, A: dst, B: calleeReg, D: argStart, Args: len(ex.Arguments)})
	return dst, nil
}

// compileArgs lowers a non-spread argument list into a contiguous
// register run (registers argStart..argStart+len-1), since OpCall/
// OpConstruct address arguments by a single start register and a count.
// Each argument's own evaluation may itself allocate intermediate
// registers (e.g. `f(a, b+c)`), so the raw per-argument result
// registers are not contiguous by construction — they're gathered first
// and then explicitly moved into a fresh contiguous block.
func (c *compiler) compileArgs(args []ast.Expression) (int, error) {
	regs := make([]int, len(args))
	for i, a := range args {
		if _, ok := a.(*ast.SpreadElement); ok {
			return 0, unsupported("spread argument")
		}
		r, err := c.compileExpr(a)
		if err != nil {
			return 0, err
		}
		regs[i] = r
	}
	return c.packContiguous(regs), nil
}

// packContiguous allocates a fresh contiguous register block and moves
// each of regs into it in order, returning the block's first register.
func (c *compiler) packContiguous(regs []int) int {
	start := c.nextReg
	for _, r := range regs {
		dst := c.alloc()
		c.emit(Instr{Op: OpMove, A: dst, B: r})
	}
	return start
}

// compileTemplate lowers `${...}` template literals without a tag
// function: cooked quasis interleave with expression results into one
// contiguous register run for OpTemplateConcat.
func (c *compiler) compileTemplate(ex *ast.TemplateLiteral) (int, error) {
	var regs []int
	for i, q := range ex.Quasis {
		r, err := c.compileExpr(&ast.Literal{Value: q})
		if err != nil {
			return 0, err
		}
		regs = append(regs, r)
		if i < len(ex.Expressions) {
			er, err := c.compileExpr(ex.Expressions[i])
			if err != nil {
				return 0, err
			}
			regs = append(regs, er)
		}
	}
	start := c.packContiguous(regs)
	dst := c.alloc()
	c.emit(Instr{Op: OpTemplateConcat, A: dst, B: start, Args: len(regs)})
	return dst, nil
}
