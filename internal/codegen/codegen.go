// Package codegen lowers a parsed AstContext to SSA IR through an
// Emitter, following the eight-step function-lowering algorithm and
// the per-node lowering table in spec §4.3. It implements ast.Visitor
// so that dispatch over expression variants reads the same way the
// teacher's own recursive evaluate-over-AST passes do (executor.go's
// evaluateCommand/evaluatePipeline family): one function per node
// shape, errors returned as values rather than thrown.
package codegen

import (
	"path/filepath"

	"yorkie/internal/ast"
	"yorkie/internal/context"
	"yorkie/internal/diag"
	"yorkie/internal/emitter"
	"yorkie/internal/token"
)

// builtinProtos are the two host-provided FFI functions spec §6.2
// requires be linked into every module regardless of whether the
// source declares them itself: putchard writes one byte to stderr,
// printd writes "%f\n" to stderr. Both are host responsibilities; this
// compiler only needs their signatures to resolve calls.
var builtinProtos = []*ast.Prototype{
	{Name: "putchard", Args: []string{"char"}},
	{Name: "printd", Args: []string{"val"}},
}

// CodeGen lowers one AstContext into one Emitter module. It is not
// reusable across contexts; construct a fresh one per run.
type CodeGen struct {
	em  emitter.Emitter
	ctx *context.AstContext

	protos  map[string]*ast.Prototype // name -> prototype, across externs and definitions.
	defined map[string]bool          // name -> has a body been emitted.

	syms *symtab

	// debugScopes is the lexical-scope stack fed to the Emitter's
	// optional debug-info surface, the Go shape of
	// original_source/lib/toy.cpp's `KSDbgInfo.LexicalBlocks` vector:
	// pushed on function entry, popped on exit, consulted by gen to
	// stamp SetCurrentLocation before every codegen'd expression
	// (toy.cpp's `emitLocation`, called at the top of every ExprAST
	// codegen method).
	debugScopes []emitter.DebugScope

	f64 emitter.Type
	i32 emitter.Type

	// result/failed form the single-register return channel the
	// Visitor dispatch writes to, read back immediately by gen.
	result emitter.Value
	failed bool

	diags diag.Bag
}

// New creates a CodeGen that will lower ctx's functions and externs
// through em.
func New(em emitter.Emitter, ctx *context.AstContext) *CodeGen {
	return &CodeGen{
		em:      em,
		ctx:     ctx,
		protos:  map[string]*ast.Prototype{},
		defined: map[string]bool{},
	}
}

// Run lowers every extern and function in the context, in source
// order, and returns every diagnostic raised along the way. A
// function whose body fails to codegen is erased from the module and
// excluded from output, but does not stop the remaining functions
// from being lowered (spec §4.3 step 8 only specifies per-function
// rollback, not a whole-run abort).
func (cg *CodeGen) Run() *diag.Bag {
	cg.em.NewModule(cg.ctx.FileName)
	cg.f64 = cg.em.F64Type()
	cg.i32 = cg.em.I32Type()

	if cg.em.DebugInfoSupported() {
		dir, file := filepath.Split(cg.ctx.FileName)
		if dir == "" {
			dir = "."
		}
		cg.em.CreateFile(file, dir)
		cg.em.CreateCompileUnit(file, dir)
	}

	for _, p := range builtinProtos {
		if _, exists := cg.protos[p.Name]; !exists {
			cg.protos[p.Name] = p
		}
	}
	for _, p := range cg.ctx.Externs {
		cg.protos[p.Name] = p
	}
	for _, fn := range cg.ctx.Functions {
		cg.protos[fn.Proto.Name] = fn.Proto
	}

	for _, p := range builtinProtos {
		cg.declareFunction(p, true)
	}
	for _, p := range cg.ctx.Externs {
		cg.declareFunction(p, true)
	}
	for _, fn := range cg.ctx.Functions {
		cg.declareFunction(fn.Proto, false)
	}
	for _, fn := range cg.ctx.Functions {
		cg.genFunction(fn)
	}

	cg.em.Finalize()
	return &cg.diags
}

func (cg *CodeGen) fnType(proto *ast.Prototype) emitter.Type {
	ret := cg.f64
	if proto.Name == "main" {
		ret = cg.i32
	}
	args := make([]emitter.Type, len(proto.Args))
	for i := range args {
		args[i] = cg.f64
	}
	return cg.em.FnType(ret, args, false)
}

// declareFunction materializes the IR declaration for proto if it
// does not already exist (spec §4.3 "Prototype lowering").
func (cg *CodeGen) declareFunction(proto *ast.Prototype, external bool) emitter.Function {
	if fn, ok := cg.em.FindFunction(proto.Name); ok {
		return fn
	}
	fn := cg.em.DeclareFunction(proto.Name, cg.fnType(proto), external)
	cg.em.SetFunctionParamNames(fn, proto.Args)
	return fn
}

// genFunction implements spec §4.3's eight-step function-lowering
// algorithm.
func (cg *CodeGen) genFunction(fn *ast.Function) {
	proto := fn.Proto

	if cg.defined[proto.Name] {
		cg.diags.Add(diag.Sem(loc(proto.Line), "Function cannot be redefined"))
		return
	}

	irFn := cg.declareFunction(proto, false)

	// Step 3: codegen re-installs the precedence entry idempotently;
	// the parser already installed it at parse time (spec §4.2, §9
	// open question #2), so this is a no-op unless the function was
	// reached some other way.
	installedPrecedence := false
	if proto.IsBinaryOp() {
		op := proto.OperatorName()
		installedPrecedence = !cg.ctx.Precedence.Has(op)
		cg.ctx.Precedence.Set(op, proto.Precedence)
	}

	rollback := func() {
		cg.em.EraseFunction(irFn)
		if installedPrecedence {
			cg.ctx.Precedence.Delete(proto.OperatorName())
		}
	}

	entry := cg.em.CreateBlock(irFn, "entry")
	cg.em.SetInsertPoint(entry)
	cg.syms = newSymtab()

	var scope emitter.DebugScope
	if cg.em.DebugInfoSupported() {
		scope = cg.em.CreateFunctionDebugScope(irFn, proto.Name, proto.Line)
		cg.debugScopes = append(cg.debugScopes, scope)
		defer func() { cg.debugScopes = cg.debugScopes[:len(cg.debugScopes)-1] }()
		for i, argName := range proto.Args {
			cg.em.CreateParameterVar(scope, argName, i+1, proto.Line)
		}
	}

	for i, argName := range proto.Args {
		param := cg.em.FunctionParam(irFn, i)
		slot := cg.em.Alloca(cg.f64, argName)
		cg.em.Store(param, slot)
		cg.syms.bind(argName, slot)
		if scope != nil {
			cg.em.InsertDeclare(slot, scope, entry)
		}
	}

	var result emitter.Value
	for _, expr := range fn.Body {
		v, failed := cg.gen(expr)
		if failed {
			rollback()
			return
		}
		result = v
	}

	if proto.Name == "main" {
		cg.em.Ret(cg.em.IntConst(32, 0))
	} else {
		cg.em.Ret(result)
	}

	if err := cg.em.VerifyFunction(irFn); err != nil {
		cg.diags.Add(diag.Verify(loc(proto.Line), "%s", err))
		rollback()
		return
	}

	cg.defined[proto.Name] = true
}

func loc(line int) token.Location { return token.Location{Line: line} }

// currentDebugScope returns the innermost entry of the debug-scope
// stack, mirroring toy.cpp's `KSDbgInfo.LexicalBlocks.back()`.
func (cg *CodeGen) currentDebugScope() (emitter.DebugScope, bool) {
	if len(cg.debugScopes) == 0 {
		return nil, false
	}
	return cg.debugScopes[len(cg.debugScopes)-1], true
}

// gen lowers e and returns its value and whether lowering failed.
// failed is reset on entry so a stale flag from an unrelated call
// never leaks into this one. Before dispatching, it stamps the
// Emitter's current source location from e, the Go shape of toy.cpp's
// `emitLocation` call at the top of every ExprAST::codegen method.
func (cg *CodeGen) gen(e ast.Expr) (emitter.Value, bool) {
	cg.failed = false
	if cg.em.DebugInfoSupported() {
		if scope, ok := cg.currentDebugScope(); ok {
			l := e.Location()
			cg.em.SetCurrentLocation(l.Line, l.Col, scope)
		}
	}
	e.Accept(cg)
	return cg.result, cg.failed
}

func (cg *CodeGen) fail(loc token.Location, format string, args ...any) {
	cg.diags.Add(diag.Sem(loc, format, args...))
	cg.result = nil
	cg.failed = true
}

// --- ast.Visitor ---

func (cg *CodeGen) VisitNumber(n *ast.NumberExpr) {
	cg.result = cg.em.FPConst(n.Value)
}

func (cg *CodeGen) VisitVariable(n *ast.VariableExpr) {
	slot, ok := cg.syms.lookup(n.Name)
	if !ok {
		cg.fail(n.Loc, "unknown variable name %q", n.Name)
		return
	}
	cg.result = cg.em.Load(cg.f64, slot, n.Name)
}

func (cg *CodeGen) VisitUnary(n *ast.UnaryExpr) {
	operand, failed := cg.gen(n.Operand)
	if failed {
		return
	}
	fn, ok := cg.em.FindFunction("unary" + string(n.Op))
	if !ok {
		cg.fail(n.Loc, "unknown unary operator %q", string(n.Op))
		return
	}
	v, err := cg.em.Call(fn, []emitter.Value{operand}, "unop")
	if err != nil {
		cg.fail(n.Loc, "%s", err)
		return
	}
	cg.result = v
}

func (cg *CodeGen) VisitBinary(n *ast.BinaryExpr) {
	if n.Op == '=' {
		cg.genAssign(n)
		return
	}

	l, failed := cg.gen(n.LHS)
	if failed {
		return
	}
	r, failed := cg.gen(n.RHS)
	if failed {
		return
	}

	switch n.Op {
	case '+':
		cg.result = cg.em.FAdd(l, r, "addtmp")
	case '-':
		cg.result = cg.em.FSub(l, r, "subtmp")
	case '*':
		cg.result = cg.em.FMul(l, r, "multmp")
	case '<':
		cmp := cg.em.FCmpULT(l, r, "cmptmp")
		cg.result = cg.em.UIToFP(cmp, cg.f64, "booltmp")
	default:
		fn, ok := cg.em.FindFunction("binary" + string(n.Op))
		if !ok {
			cg.fail(n.Loc, "invalid binary operator %q", string(n.Op))
			return
		}
		v, err := cg.em.Call(fn, []emitter.Value{l, r}, "binop")
		if err != nil {
			cg.fail(n.Loc, "%s", err)
			return
		}
		cg.result = v
	}
}

func (cg *CodeGen) genAssign(n *ast.BinaryExpr) {
	dst, ok := n.LHS.(*ast.VariableExpr)
	if !ok {
		cg.fail(n.Loc, "destination of '=' must be a variable")
		return
	}
	val, failed := cg.gen(n.RHS)
	if failed {
		return
	}
	slot, ok := cg.syms.lookup(dst.Name)
	if !ok {
		cg.fail(n.Loc, "unknown variable name %q", dst.Name)
		return
	}
	cg.em.Store(val, slot)
	cg.result = val
}

func (cg *CodeGen) VisitCall(n *ast.CallExpr) {
	fn, ok := cg.em.FindFunction(n.Callee)
	proto, protoOK := cg.protos[n.Callee]
	if !ok || !protoOK {
		cg.fail(n.Loc, "unknown function referenced: %q", n.Callee)
		return
	}
	if len(n.Args) != len(proto.Args) {
		cg.fail(n.Loc, "Incorrect # arguments passed")
		return
	}

	args := make([]emitter.Value, len(n.Args))
	for i, a := range n.Args {
		v, failed := cg.gen(a)
		if failed {
			return
		}
		args[i] = v
	}

	v, err := cg.em.Call(fn, args, "calltmp")
	if err != nil {
		cg.fail(n.Loc, "%s", err)
		return
	}
	cg.result = v
}

func (cg *CodeGen) VisitIf(n *ast.IfExpr) {
	condV, failed := cg.gen(n.Cond)
	if failed {
		return
	}
	cond := cg.em.FCmpONE(condV, cg.em.FPConst(0), "ifcond")

	parent := cg.em.GetBlockParent(cg.em.GetCurrentBlock())
	thenB := cg.em.CreateBlock(parent, "then")
	elseB := cg.em.CreateBlock(parent, "else")
	mergeB := cg.em.CreateBlock(parent, "ifcont")

	cg.em.CondBr(cond, thenB, elseB)

	cg.em.SetInsertPoint(thenB)
	thenV, failed := cg.gen(n.Then)
	if failed {
		return
	}
	cg.em.Br(mergeB)
	thenEndB := cg.em.GetCurrentBlock()

	cg.em.SetInsertPoint(elseB)
	elseV, failed := cg.gen(n.Else)
	if failed {
		return
	}
	cg.em.Br(mergeB)
	elseEndB := cg.em.GetCurrentBlock()

	cg.em.SetInsertPoint(mergeB)
	cg.result = cg.em.Phi(cg.f64, []emitter.PhiIncoming{
		{Val: thenV, Block: thenEndB},
		{Val: elseV, Block: elseEndB},
	}, "iftmp")
}

func (cg *CodeGen) VisitFor(n *ast.ForExpr) {
	startV, failed := cg.gen(n.Start)
	if failed {
		return
	}

	slot := cg.em.Alloca(cg.f64, n.Var)
	cg.em.Store(startV, slot)
	prev, hadPrev := cg.syms.bind(n.Var, slot)
	defer cg.syms.restore(n.Var, prev, hadPrev)

	parent := cg.em.GetBlockParent(cg.em.GetCurrentBlock())
	loopB := cg.em.CreateBlock(parent, "loop")
	afterB := cg.em.CreateBlock(parent, "afterloop")

	cg.em.Br(loopB)
	cg.em.SetInsertPoint(loopB)

	if _, failed := cg.gen(n.Body); failed {
		return
	}

	var stepV emitter.Value
	if n.Step != nil {
		v, failed := cg.gen(n.Step)
		if failed {
			return
		}
		stepV = v
	} else {
		stepV = cg.em.FPConst(1)
	}

	cur := cg.em.Load(cg.f64, slot, n.Var)
	next := cg.em.FAdd(cur, stepV, "nextvar")
	cg.em.Store(next, slot)

	endV, failed := cg.gen(n.End)
	if failed {
		return
	}
	endCond := cg.em.FCmpONE(endV, cg.em.FPConst(0), "loopcond")
	cg.em.CondBr(endCond, loopB, afterB)

	cg.em.SetInsertPoint(afterB)
	cg.result = cg.em.FPConst(0)
}

// VisitVar implements the "install-after-init" ordering fixed by
// spec §9 / SPEC_FULL.md open-question decision 4: every initializer
// is evaluated against the enclosing scope before any binding in this
// var is installed, so `var a = .., b = a in ..` sees the *outer* a in
// b's initializer, not the fresh one. Bindings are installed in a
// second pass, in declaration order, once all initializers are in.
func (cg *CodeGen) VisitVar(n *ast.VarExpr) {
	type init struct {
		name string
		val  emitter.Value
	}
	inits := make([]init, 0, len(n.Bindings))
	for _, b := range n.Bindings {
		var initV emitter.Value
		if b.Init != nil {
			v, failed := cg.gen(b.Init)
			if failed {
				return
			}
			initV = v
		} else {
			initV = cg.em.FPConst(0)
		}
		inits = append(inits, init{b.Name, initV})
	}

	type shadow struct {
		name    string
		prev    emitter.Value
		hadPrev bool
	}
	shadows := make([]shadow, 0, len(inits))
	restoreAll := func() {
		for i := len(shadows) - 1; i >= 0; i-- {
			cg.syms.restore(shadows[i].name, shadows[i].prev, shadows[i].hadPrev)
		}
	}

	for _, in := range inits {
		slot := cg.em.Alloca(cg.f64, in.name)
		cg.em.Store(in.val, slot)
		prev, hadPrev := cg.syms.bind(in.name, slot)
		shadows = append(shadows, shadow{in.name, prev, hadPrev})
	}

	bodyV, failed := cg.gen(n.Body)
	restoreAll()
	if failed {
		return
	}
	cg.result = bodyV
}

func (cg *CodeGen) VisitCompound(n *ast.CompoundExpr) {
	var v emitter.Value
	for _, e := range n.Exprs {
		vv, failed := cg.gen(e)
		if failed {
			return
		}
		v = vv
	}
	cg.result = v
}
