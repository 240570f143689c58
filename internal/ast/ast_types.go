package ast

import (
	"github.com/funvibe/concepts/internal/typesystem"
)

// --- Type functions ---

// TypeFn computes a type from the concept's parameters and, inside a
// requires block, its locals. A type function that cannot be formed makes
// the enclosing requirement false.
type TypeFn interface {
	Node
	typeNode()
}

// Param is a concept parameter.
type Param struct {
	Name string
}

func (p *Param) typeNode()      {}
func (p *Param) String() string { return p.Name }

// Pack expands the variadic concept parameter into an argument list.
type Pack struct {
	Name string
}

func (p *Pack) typeNode()      {}
func (p *Pack) String() string { return p.Name + "..." }

type LRef struct {
	Of TypeFn
}

func (r *LRef) typeNode()      {}
func (r *LRef) String() string { return r.Of.String() + "&" }

type RRef struct {
	Of TypeFn
}

func (r *RRef) typeNode()      {}
func (r *RRef) String() string { return r.Of.String() + "&&" }

type Const struct {
	Of TypeFn
}

func (c *Const) typeNode()      {}
func (c *Const) String() string { return "const " + c.Of.String() }

type Ptr struct {
	To TypeFn
}

func (p *Ptr) typeNode()      {}
func (p *Ptr) String() string { return p.To.String() + "*" }

// Member is the nested type Owner::Name.
type Member struct {
	Owner TypeFn
	Name  string
}

func (m *Member) typeNode()      {}
func (m *Member) String() string { return m.Owner.String() + "::" + m.Name }

// Decltype is the declared type of an expression over the block's locals.
type Decltype struct {
	Expr Expr
}

func (d *Decltype) typeNode()      {}
func (d *Decltype) String() string { return "decltype(" + d.Expr.String() + ")" }

// DifferenceType is iterator_traits<Of>::difference_type.
type DifferenceType struct {
	Of TypeFn
}

func (d *DifferenceType) typeNode() {}
func (d *DifferenceType) String() string {
	return "iterator_traits<" + d.Of.String() + ">::difference_type"
}

// AllocTraits is allocator_traits<Alloc>::Name.
type AllocTraits struct {
	Alloc TypeFn
	Name  string
}

func (a *AllocTraits) typeNode() {}
func (a *AllocTraits) String() string {
	return "allocator_traits<" + a.Alloc.String() + ">::" + a.Name
}

type CommonType struct {
	Args []TypeFn
}

func (c *CommonType) typeNode()      {}
func (c *CommonType) String() string { return "common_type<" + joinTypes(c.Args) + ">" }

// TypeExpr is a written type whose variables name concept parameters, such
// as size_t or I::value_type.
type TypeExpr struct {
	Type typesystem.Type
}

func (t *TypeExpr) typeNode()      {}
func (t *TypeExpr) String() string { return t.Type.String() }
