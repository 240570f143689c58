package ast

import (
	"strings"
)

// Expr is a trial expression inside a requires block.
type Expr interface {
	Node
	exprNode()
}

// Var names a local of the enclosing requires block.
type Var struct {
	Name string
}

func (v *Var) exprNode()      {}
func (v *Var) String() string { return v.Name }

// IntLit is the literal 1.
type IntLit struct{}

func (l *IntLit) exprNode()      {}
func (l *IntLit) String() string { return "1" }

// Unary applies an operator such as "pre++", "post--", "unary*" or "!".
type Unary struct {
	Op string
	X  Expr
}

func (u *Unary) exprNode() {}
func (u *Unary) String() string {
	x := u.X.String()
	switch {
	case strings.HasPrefix(u.Op, "post"):
		return x + strings.TrimPrefix(u.Op, "post")
	case strings.HasPrefix(u.Op, "pre"):
		return strings.TrimPrefix(u.Op, "pre") + x
	case strings.HasPrefix(u.Op, "unary"):
		return strings.TrimPrefix(u.Op, "unary") + x
	}
	return u.Op + x
}

// Binary applies an operator. "[]" is subscripting.
type Binary struct {
	Op   string
	X, Y Expr
}

func (b *Binary) exprNode() {}
func (b *Binary) String() string {
	if b.Op == "[]" {
		return b.X.String() + "[" + b.Y.String() + "]"
	}
	return b.X.String() + " " + b.Op + " " + b.Y.String()
}

// Call invokes a callable local: f(args...).
type Call struct {
	Fn   Expr
	Args []Expr
}

func (c *Call) exprNode()      {}
func (c *Call) String() string { return c.Fn.String() + "(" + joinExprs(c.Args) + ")" }

// Method calls a member function: c.size().
type Method struct {
	Recv Expr
	Name string
	Args []Expr
}

func (m *Method) exprNode() {}
func (m *Method) String() string {
	return m.Recv.String() + "." + m.Name + "(" + joinExprs(m.Args) + ")"
}

// Invoke is an unqualified call to a free function: begin(c).
type Invoke struct {
	Name string
	Args []Expr
}

func (i *Invoke) exprNode()      {}
func (i *Invoke) String() string { return i.Name + "(" + joinExprs(i.Args) + ")" }

// Swap exchanges two operands with the generic swap in scope.
type Swap struct {
	X, Y Expr
}

func (s *Swap) exprNode()      {}
func (s *Swap) String() string { return "swap(" + s.X.String() + ", " + s.Y.String() + ")" }

// Cond is the conditional operator.
type Cond struct {
	Cond, Then, Else Expr
}

func (c *Cond) exprNode() {}
func (c *Cond) String() string {
	return c.Cond.String() + " ? " + c.Then.String() + " : " + c.Else.String()
}

// Spread expands a local parameter pack into call arguments.
type Spread struct {
	Name string
}

func (s *Spread) exprNode()      {}
func (s *Spread) String() string { return s.Name + "..." }

func joinExprs(es []Expr) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}
