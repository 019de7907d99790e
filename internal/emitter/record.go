package emitter

import (
	"fmt"
	"sort"
	"strings"
)

// Module is a structured, in-memory reference Emitter. It records
// each instruction as a node in a plain tree instead of binding a
// real LLVM, which is exactly the "testable stub emitter that records
// IR as a structured tree" design note calls sufficient (spec §9).
// It is modeled on the teacher's CmdIO split between a real
// *exec.Cmd-backed implementation and a synthetic in-memory one
// (executor/cmd.go, executor/builtins.go): Module plays the role of
// the synthetic side, satisfying the same interface a real backend
// would.
type Module struct {
	name       string
	dataLayout string
	flags      map[string]int

	functions map[string]*recFunction
	order     []string // function names, in declaration order.

	curFn    *recFunction
	curBlock *recBlock

	debugFile, debugDir string
	finalized           bool
}

// New returns an empty reference Module. It implements
// emitter.Emitter.
func New() *Module {
	return &Module{flags: map[string]int{}, functions: map[string]*recFunction{}}
}

type recType struct {
	kind     string // "f64", "i32", or "fn".
	ret      *recType
	args     []*recType
	variadic bool
}

func (t *recType) String() string {
	if t.kind != "fn" {
		return t.kind
	}
	parts := make([]string, len(t.args))
	for i, a := range t.args {
		parts[i] = a.String()
	}
	variadicSuffix := ""
	if t.variadic {
		variadicSuffix = ", ..."
	}
	return fmt.Sprintf("(%s%s) -> %s", strings.Join(parts, ", "), variadicSuffix, t.ret.String())
}

type recValue struct {
	op       string // e.g. "fpconst", "load", "fadd", "param", "null".
	name     string
	ty       *recType
	fconst   float64
	iconst   int64
	operands []*recValue
	// target/blocks used by terminators, phi.
	blocks []*recBlock
	incoming []PhiIncoming
	callee   *recFunction
}

func (v *recValue) String() string {
	if v == nil {
		return "<nil>"
	}
	switch v.op {
	case "fpconst":
		return fmt.Sprintf("%g", v.fconst)
	case "intconst":
		return fmt.Sprintf("%d", v.iconst)
	case "null":
		return fmt.Sprintf("null(%s)", v.ty)
	case "param":
		return fmt.Sprintf("%%%s", v.name)
	default:
		if v.name != "" {
			return fmt.Sprintf("%%%s", v.name)
		}
		return fmt.Sprintf("%%%s.tmp", v.op)
	}
}

type recBlock struct {
	name   string
	fn     *recFunction
	instrs []*recValue
}

type recFunction struct {
	name     string
	ty       *recType
	external bool
	erased   bool
	blocks   []*recBlock
	params   []*recValue

	debugScope *debugScope
}

type debugScope struct {
	fnName string
	line   int
}

// --- Module lifecycle ---

func (m *Module) NewModule(name string)            { m.name = name }
func (m *Module) SetDataLayout(layout string)       { m.dataLayout = layout }
func (m *Module) AddModuleFlag(name string, val int) { m.flags[name] = val }

// Dump renders the recorded module as a readable, deterministic text
// form (declaration order, not map iteration order).
func (m *Module) Dump() string {
	var b strings.Builder
	fmt.Fprintf(&b, "; module %q\n", m.name)
	if m.dataLayout != "" {
		fmt.Fprintf(&b, "; data layout %q\n", m.dataLayout)
	}
	var flagNames []string
	for k := range m.flags {
		flagNames = append(flagNames, k)
	}
	sort.Strings(flagNames)
	for _, k := range flagNames {
		fmt.Fprintf(&b, "!module_flag %q = %d\n", k, m.flags[k])
	}
	for _, name := range m.order {
		fn := m.functions[name]
		if fn.erased {
			continue
		}
		dumpFunction(&b, fn)
	}
	return b.String()
}

func dumpFunction(b *strings.Builder, fn *recFunction) {
	linkage := "define"
	if fn.external {
		linkage = "declare"
	}
	fmt.Fprintf(b, "%s %s %s\n", linkage, fn.ty, fn.name)
	for _, blk := range fn.blocks {
		fmt.Fprintf(b, "%s:\n", blk.name)
		for _, instr := range blk.instrs {
			fmt.Fprintf(b, "  %s\n", dumpInstr(instr))
		}
	}
}

func dumpInstr(v *recValue) string {
	switch v.op {
	case "br":
		return fmt.Sprintf("br label %%%s", v.blocks[0].name)
	case "condbr":
		return fmt.Sprintf("condbr %s, label %%%s, label %%%s", v.operands[0], v.blocks[0].name, v.blocks[1].name)
	case "ret":
		if len(v.operands) == 0 {
			return "ret void"
		}
		return fmt.Sprintf("ret %s", v.operands[0])
	case "store":
		return fmt.Sprintf("store %s, %s", v.operands[0], v.operands[1])
	case "call":
		args := make([]string, len(v.operands))
		for i, o := range v.operands {
			args[i] = o.String()
		}
		return fmt.Sprintf("%%%s = call %s(%s)", v.name, v.callee.name, strings.Join(args, ", "))
	case "phi":
		parts := make([]string, len(v.incoming))
		for i, in := range v.incoming {
			parts[i] = fmt.Sprintf("[%s, %%%s]", in.Val, in.Block.(*recBlock).name)
		}
		return fmt.Sprintf("%%%s = phi %s %s", v.name, v.ty, strings.Join(parts, ", "))
	default:
		args := make([]string, len(v.operands))
		for i, o := range v.operands {
			args[i] = o.String()
		}
		return fmt.Sprintf("%%%s = %s %s", v.name, v.op, strings.Join(args, ", "))
	}
}

// --- Types ---

func (m *Module) F64Type() Type { return &recType{kind: "f64"} }
func (m *Module) I32Type() Type { return &recType{kind: "i32"} }

func (m *Module) FnType(ret Type, args []Type, variadic bool) Type {
	t := &recType{kind: "fn", ret: ret.(*recType), variadic: variadic}
	for _, a := range args {
		t.args = append(t.args, a.(*recType))
	}
	return t
}

// --- Constants ---

func (m *Module) FPConst(v float64) Value { return &recValue{op: "fpconst", fconst: v} }

func (m *Module) IntConst(bits int, v int64) Value {
	return &recValue{op: "intconst", iconst: v}
}

func (m *Module) NullValue(ty Type) Value {
	return &recValue{op: "null", ty: ty.(*recType)}
}

// --- Functions and blocks ---

func (m *Module) DeclareFunction(name string, ty Type, external bool) Function {
	if fn, ok := m.functions[name]; ok {
		return fn
	}
	fn := &recFunction{name: name, ty: ty.(*recType), external: external}
	m.functions[name] = fn
	m.order = append(m.order, name)
	return fn
}

func (m *Module) FindFunction(name string) (Function, bool) {
	fn, ok := m.functions[name]
	if !ok {
		return nil, false
	}
	return fn, true
}

func (m *Module) FunctionParam(fn Function, i int) Value {
	f := fn.(*recFunction)
	if i < len(f.params) {
		return f.params[i]
	}
	return &recValue{op: "param", name: fmt.Sprintf("arg%d", i)}
}

func (m *Module) SetFunctionParamNames(fn Function, names []string) {
	f := fn.(*recFunction)
	f.params = make([]*recValue, len(names))
	for i, n := range names {
		f.params[i] = &recValue{op: "param", name: n}
	}
}

func (m *Module) CreateBlock(fn Function, name string) Block {
	f := fn.(*recFunction)
	blk := &recBlock{name: name, fn: f}
	f.blocks = append(f.blocks, blk)
	return blk
}

func (m *Module) SetInsertPoint(b Block) {
	blk := b.(*recBlock)
	m.curBlock = blk
	m.curFn = blk.fn
}

func (m *Module) GetCurrentBlock() Block { return m.curBlock }

func (m *Module) GetBlockParent(b Block) Function { return b.(*recBlock).fn }

func (m *Module) EraseFunction(fn Function) {
	f := fn.(*recFunction)
	f.erased = true
}

// --- Instructions ---

func (m *Module) emit(v *recValue) *recValue {
	m.curBlock.instrs = append(m.curBlock.instrs, v)
	return v
}

func (m *Module) Alloca(ty Type, name string) Value {
	// Per spec §6.3, alloca must land in the function's entry block.
	entry := m.curFn.blocks[0]
	v := &recValue{op: "alloca", name: name, ty: ty.(*recType)}
	entry.instrs = append(entry.instrs, v)
	return v
}

func (m *Module) Load(ty Type, ptr Value, name string) Value {
	return m.emit(&recValue{op: "load", name: name, ty: ty.(*recType), operands: []*recValue{ptr.(*recValue)}})
}

func (m *Module) Store(val Value, ptr Value) {
	m.emit(&recValue{op: "store", operands: []*recValue{val.(*recValue), ptr.(*recValue)}})
}

func (m *Module) FAdd(l, r Value, name string) Value {
	return m.emit(&recValue{op: "fadd", name: name, operands: []*recValue{l.(*recValue), r.(*recValue)}})
}

func (m *Module) FSub(l, r Value, name string) Value {
	return m.emit(&recValue{op: "fsub", name: name, operands: []*recValue{l.(*recValue), r.(*recValue)}})
}

func (m *Module) FMul(l, r Value, name string) Value {
	return m.emit(&recValue{op: "fmul", name: name, operands: []*recValue{l.(*recValue), r.(*recValue)}})
}

func (m *Module) FCmpULT(l, r Value, name string) Value {
	return m.emit(&recValue{op: "fcmp_ult", name: name, operands: []*recValue{l.(*recValue), r.(*recValue)}})
}

func (m *Module) FCmpONE(l, r Value, name string) Value {
	return m.emit(&recValue{op: "fcmp_one", name: name, operands: []*recValue{l.(*recValue), r.(*recValue)}})
}

func (m *Module) UIToFP(v Value, ty Type, name string) Value {
	return m.emit(&recValue{op: "uitofp", name: name, ty: ty.(*recType), operands: []*recValue{v.(*recValue)}})
}

func (m *Module) Br(target Block) {
	m.emit(&recValue{op: "br", blocks: []*recBlock{target.(*recBlock)}})
}

func (m *Module) CondBr(cond Value, thenB, elseB Block) {
	m.emit(&recValue{op: "condbr", operands: []*recValue{cond.(*recValue)}, blocks: []*recBlock{thenB.(*recBlock), elseB.(*recBlock)}})
}

func (m *Module) Call(fn Function, args []Value, name string) (Value, error) {
	f := fn.(*recFunction)
	if f.erased {
		return nil, fmt.Errorf("emitter: call to erased function %q", f.name)
	}
	ops := make([]*recValue, len(args))
	for i, a := range args {
		ops[i] = a.(*recValue)
	}
	return m.emit(&recValue{op: "call", name: name, callee: f, operands: ops}), nil
}

func (m *Module) Ret(v Value) {
	if v == nil {
		m.emit(&recValue{op: "ret"})
		return
	}
	m.emit(&recValue{op: "ret", operands: []*recValue{v.(*recValue)}})
}

func (m *Module) Phi(ty Type, incoming []PhiIncoming, name string) Value {
	v := &recValue{op: "phi", name: name, ty: ty.(*recType), incoming: incoming}
	return m.emit(v)
}

func (m *Module) VerifyFunction(fn Function) error {
	f := fn.(*recFunction)
	if len(f.blocks) == 0 && !f.external {
		return fmt.Errorf("emitter: function %q has no basic blocks", f.name)
	}
	for _, blk := range f.blocks {
		if len(blk.instrs) == 0 {
			return fmt.Errorf("emitter: block %q in function %q is empty", blk.name, f.name)
		}
		last := blk.instrs[len(blk.instrs)-1]
		if last.op != "br" && last.op != "condbr" && last.op != "ret" {
			return fmt.Errorf("emitter: block %q in function %q has no terminator", blk.name, f.name)
		}
	}
	return nil
}

// --- Debug info ---

// DebugInfoSupported reports true: the reference Emitter tracks
// enough scope/line bookkeeping to exercise codegen's optional
// debug-info path in tests, even though it emits no real DWARF.
func (m *Module) DebugInfoSupported() bool { return true }

func (m *Module) CreateCompileUnit(file, dir string) { m.debugFile, m.debugDir = file, dir }
func (m *Module) CreateFile(name, dir string)        { m.debugFile, m.debugDir = name, dir }

func (m *Module) CreateFunctionDebugScope(fn Function, name string, line int) DebugScope {
	f := fn.(*recFunction)
	f.debugScope = &debugScope{fnName: name, line: line}
	return f.debugScope
}

func (m *Module) CreateParameterVar(scope DebugScope, name string, argNo, line int) {}

func (m *Module) InsertDeclare(val Value, scope DebugScope, block Block) {}

func (m *Module) SetCurrentLocation(line, col int, scope DebugScope) {}

func (m *Module) Finalize() { m.finalized = true }
