package ast

import "fmt"

// Inspect traverses a node tree in depth-first order, calling f for each
// node. If f returns false the node's children are skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	switch node := n.(type) {
	case *And:
		for _, t := range node.Terms {
			Inspect(t, f)
		}
	case *Or:
		for _, t := range node.Terms {
			Inspect(t, f)
		}
	case *Not:
		Inspect(node.Term, f)
	case *Ref:
		inspectTypes(node.Args, f)
	case *Trait:
		inspectTypes(node.Args, f)
	case *Requires:
		for _, l := range node.Locals {
			Inspect(l, f)
		}
		for _, c := range node.Clauses {
			Inspect(c, f)
		}
	case *Local:
		Inspect(node.Type, f)
	case *Valid:
		Inspect(node.Expr, f)
	case *Returns:
		Inspect(node.Expr, f)
		Inspect(node.Shape, f)
	case *TypeName:
		Inspect(node.Type, f)
	case *Nested:
		Inspect(node.Formula, f)
	case *ConvertibleTo:
		Inspect(node.Type, f)
	case *Unary:
		Inspect(node.X, f)
	case *Binary:
		Inspect(node.X, f)
		Inspect(node.Y, f)
	case *Call:
		Inspect(node.Fn, f)
		inspectExprs(node.Args, f)
	case *Method:
		Inspect(node.Recv, f)
		inspectExprs(node.Args, f)
	case *Invoke:
		inspectExprs(node.Args, f)
	case *Swap:
		Inspect(node.X, f)
		Inspect(node.Y, f)
	case *Cond:
		Inspect(node.Cond, f)
		Inspect(node.Then, f)
		Inspect(node.Else, f)
	case *LRef:
		Inspect(node.Of, f)
	case *RRef:
		Inspect(node.Of, f)
	case *Const:
		Inspect(node.Of, f)
	case *Ptr:
		Inspect(node.To, f)
	case *Member:
		Inspect(node.Owner, f)
	case *Decltype:
		Inspect(node.Expr, f)
	case *DifferenceType:
		Inspect(node.Of, f)
	case *AllocTraits:
		Inspect(node.Alloc, f)
	case *CommonType:
		inspectTypes(node.Args, f)
	case *Satisfies, *Noexcept, *Var, *IntLit, *Spread, *Param, *Pack, *TypeExpr:
	default:
		panic(fmt.Sprintf("ast.Inspect: unexpected node type %T", n))
	}
}

func inspectTypes(ts []TypeFn, f func(Node) bool) {
	for _, t := range ts {
		Inspect(t, f)
	}
}

func inspectExprs(es []Expr, f func(Node) bool) {
	for _, e := range es {
		Inspect(e, f)
	}
}
