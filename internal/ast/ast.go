// Package ast defines the tagged expression tree produced by the
// Yorkie parser and consumed by codegen.
package ast

import (
	"fmt"
	"strings"

	"yorkie/internal/token"
)

// Expr is the closed set of expression-node variants. Every node
// carries a SourceLocation and accepts a Visitor. Children are owned
// exclusively by their parent; the tree is acyclic.
type Expr interface {
	isExpr()
	Location() token.Location
	Accept(v Visitor)
	Dump() string
}

// Visitor is the hook for tree-walking passes that do not want to use
// a type switch directly (see codegen for the concrete consumer).
type Visitor interface {
	VisitNumber(*NumberExpr)
	VisitVariable(*VariableExpr)
	VisitUnary(*UnaryExpr)
	VisitBinary(*BinaryExpr)
	VisitCall(*CallExpr)
	VisitIf(*IfExpr)
	VisitFor(*ForExpr)
	VisitVar(*VarExpr)
	VisitCompound(*CompoundExpr)
}

// NumberExpr is a numeric literal.
type NumberExpr struct {
	Loc   token.Location
	Value float64
}

func (*NumberExpr) isExpr()                 {}
func (e *NumberExpr) Location() token.Location { return e.Loc }
func (e *NumberExpr) Accept(v Visitor)       { v.VisitNumber(e) }
func (e *NumberExpr) Dump() string          { return fmt.Sprintf("%g", e.Value) }

// VariableExpr references a named variable.
type VariableExpr struct {
	Loc  token.Location
	Name string
}

func (*VariableExpr) isExpr()                    {}
func (e *VariableExpr) Location() token.Location { return e.Loc }
func (e *VariableExpr) Accept(v Visitor)         { v.VisitVariable(e) }
func (e *VariableExpr) Dump() string             { return e.Name }

// UnaryExpr applies a prefix operator to a single operand.
type UnaryExpr struct {
	Loc     token.Location
	Op      byte
	Operand Expr
}

func (*UnaryExpr) isExpr()                    {}
func (e *UnaryExpr) Location() token.Location { return e.Loc }
func (e *UnaryExpr) Accept(v Visitor)         { v.VisitUnary(e) }
func (e *UnaryExpr) Dump() string             { return fmt.Sprintf("(%c%s)", e.Op, e.Operand.Dump()) }

// BinaryExpr applies an infix operator to two operands. Op is the
// printable operator byte.
type BinaryExpr struct {
	Loc      token.Location
	Op       byte
	LHS, RHS Expr
}

func (*BinaryExpr) isExpr()                    {}
func (e *BinaryExpr) Location() token.Location { return e.Loc }
func (e *BinaryExpr) Accept(v Visitor)         { v.VisitBinary(e) }
func (e *BinaryExpr) Dump() string {
	return fmt.Sprintf("(%s %c %s)", e.LHS.Dump(), e.Op, e.RHS.Dump())
}

// CallExpr invokes a named function with positional arguments.
type CallExpr struct {
	Loc    token.Location
	Callee string
	Args   []Expr
}

func (*CallExpr) isExpr()                    {}
func (e *CallExpr) Location() token.Location { return e.Loc }
func (e *CallExpr) Accept(v Visitor)         { v.VisitCall(e) }
func (e *CallExpr) Dump() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.Dump()
	}
	return fmt.Sprintf("%s(%s)", e.Callee, strings.Join(args, ", "))
}

// IfExpr is a conditional expression; both branches are mandatory.
type IfExpr struct {
	Loc              token.Location
	Cond, Then, Else Expr
}

func (*IfExpr) isExpr()                    {}
func (e *IfExpr) Location() token.Location { return e.Loc }
func (e *IfExpr) Accept(v Visitor)         { v.VisitIf(e) }
func (e *IfExpr) Dump() string {
	return fmt.Sprintf("(if %s then %s else %s)", e.Cond.Dump(), e.Then.Dump(), e.Else.Dump())
}

// ForExpr is a counting loop. Step may be nil, in which case it
// defaults to 1.0 at codegen time.
type ForExpr struct {
	Loc              token.Location
	Var              string
	Start, End, Step Expr // Step may be nil.
	Body             Expr
}

func (*ForExpr) isExpr()                    {}
func (e *ForExpr) Location() token.Location { return e.Loc }
func (e *ForExpr) Accept(v Visitor)         { v.VisitFor(e) }
func (e *ForExpr) Dump() string {
	step := "1"
	if e.Step != nil {
		step = e.Step.Dump()
	}
	return fmt.Sprintf("(for %s = %s, %s, %s in %s)", e.Var, e.Start.Dump(), e.End.Dump(), step, e.Body.Dump())
}

// VarBinding is one name/init pair within a VarExpr.
type VarBinding struct {
	Name string
	Init Expr // nil means "default-initialize to 0.0".
}

// VarExpr introduces one or more scoped, mutable bindings for the
// duration of Body. Initializers are evaluated against the enclosing
// scope, before any binding in Bindings is installed (see codegen).
type VarExpr struct {
	Loc      token.Location
	Bindings []VarBinding
	Body     Expr
}

func (*VarExpr) isExpr()                    {}
func (e *VarExpr) Location() token.Location { return e.Loc }
func (e *VarExpr) Accept(v Visitor)         { v.VisitVar(e) }
func (e *VarExpr) Dump() string {
	parts := make([]string, len(e.Bindings))
	for i, b := range e.Bindings {
		if b.Init == nil {
			parts[i] = b.Name
		} else {
			parts[i] = fmt.Sprintf("%s = %s", b.Name, b.Init.Dump())
		}
	}
	return fmt.Sprintf("(var %s in %s)", strings.Join(parts, ", "), e.Body.Dump())
}

// CompoundExpr is an ordered, non-empty sequence of expressions; its
// value is the value of the last one.
type CompoundExpr struct {
	Loc   token.Location
	Exprs []Expr
}

func (*CompoundExpr) isExpr()                    {}
func (e *CompoundExpr) Location() token.Location { return e.Loc }
func (e *CompoundExpr) Accept(v Visitor)         { v.VisitCompound(e) }
func (e *CompoundExpr) Dump() string {
	parts := make([]string, len(e.Exprs))
	for i, x := range e.Exprs {
		parts[i] = x.Dump()
	}
	return strings.Join(parts, "; ")
}

// ProtoKind distinguishes a regular function prototype from an
// operator-overload prototype.
type ProtoKind int

const (
	Regular ProtoKind = iota
	UnaryOp
	BinaryOp
)

// Prototype is a function's signature: its name, parameter names, and
// (for operator prototypes) kind and precedence.
//
// Invariant: Kind == UnaryOp implies len(Args) == 1; Kind == BinaryOp
// implies len(Args) == 2. When Kind is an operator kind, Name is
// already mangled as "unary"+op or "binary"+op.
type Prototype struct {
	Name       string
	Args       []string
	Kind       ProtoKind
	Precedence int
	Line       int
}

// IsUnaryOp reports whether the prototype declares a unary operator.
func (p *Prototype) IsUnaryOp() bool { return p.Kind == UnaryOp && len(p.Args) == 1 }

// IsBinaryOp reports whether the prototype declares a binary operator.
func (p *Prototype) IsBinaryOp() bool { return p.Kind == BinaryOp && len(p.Args) == 2 }

// OperatorName returns the operator byte for an operator prototype: the
// last character of its mangled Name. Panics if the prototype is not
// an operator prototype — callers must check IsUnaryOp/IsBinaryOp
// first.
func (p *Prototype) OperatorName() byte {
	if !p.IsUnaryOp() && !p.IsBinaryOp() {
		panic("ast: OperatorName called on non-operator prototype")
	}
	return p.Name[len(p.Name)-1]
}

func (p *Prototype) Dump() string {
	return fmt.Sprintf("%s(%s)", p.Name, strings.Join(p.Args, ", "))
}

// Function is a function definition: a prototype plus a non-empty,
// ordered sequence of body expressions whose last value is the
// function's return value.
type Function struct {
	Proto *Prototype
	Body  []Expr
}

func (f *Function) Dump() string {
	parts := make([]string, len(f.Body))
	for i, x := range f.Body {
		parts[i] = x.Dump()
	}
	return fmt.Sprintf("def %s %s end", f.Proto.Dump(), strings.Join(parts, "; "))
}
