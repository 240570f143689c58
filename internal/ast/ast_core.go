// Package ast holds the syntax of concept bodies: boolean formulas over
// concept references and trait queries, requires blocks of trial
// expressions, and the type functions that compute formula arguments.
package ast

import (
	"fmt"
	"strings"
)

// Node is the base interface for all concept body nodes.
type Node interface {
	String() string
}

// Formula is a Node that evaluates to true or false.
type Formula interface {
	Node
	formulaNode()
}

// Clause is one requirement inside a requires block.
type Clause interface {
	Node
	clauseNode()
}

// Shape constrains the result of a formed expression.
type Shape interface {
	Node
	shapeNode()
}

// And holds when every term holds. Terms are checked left to right.
type And struct {
	Terms []Formula
}

func (a *And) formulaNode() {}
func (a *And) String() string {
	return joinFormulas(a.Terms, " && ")
}

// Or holds when any term holds.
type Or struct {
	Terms []Formula
}

func (o *Or) formulaNode() {}
func (o *Or) String() string {
	return joinFormulas(o.Terms, " || ")
}

type Not struct {
	Term Formula
}

func (n *Not) formulaNode()   {}
func (n *Not) String() string { return "!" + group(n.Term) }

// Ref applies another concept: Comparable<A, B>.
type Ref struct {
	Concept string
	Args    []TypeFn
}

func (r *Ref) formulaNode()   {}
func (r *Ref) String() string { return r.Concept + "<" + joinTypes(r.Args) + ">" }

// Trait queries a primitive classification: Integral(A).
type Trait struct {
	Name string
	Args []TypeFn
}

func (t *Trait) formulaNode()   {}
func (t *Trait) String() string { return t.Name + "(" + joinTypes(t.Args) + ")" }

// Requires introduces locals and holds when every clause holds.
type Requires struct {
	Locals  []*Local
	Clauses []Clause
}

func (r *Requires) formulaNode() {}
func (r *Requires) String() string {
	locals := make([]string, len(r.Locals))
	for i, l := range r.Locals {
		locals[i] = l.String()
	}
	clauses := make([]string, len(r.Clauses))
	for i, c := range r.Clauses {
		clauses[i] = c.String() + ";"
	}
	return fmt.Sprintf("requires(%s) { %s }", strings.Join(locals, ", "), strings.Join(clauses, " "))
}

// Local declares a variable of a requires block. A Pack type declares a
// parameter pack.
type Local struct {
	Name string
	Type TypeFn
}

func (l *Local) String() string {
	if p, ok := l.Type.(*Pack); ok {
		return p.Name + "... " + l.Name
	}
	return l.Type.String() + " " + l.Name
}

// IsPack reports whether the local is a parameter pack.
func (l *Local) IsPack() bool {
	_, ok := l.Type.(*Pack)
	return ok
}

// Valid requires the expression to be formed.
type Valid struct {
	Expr Expr
}

func (v *Valid) clauseNode()    {}
func (v *Valid) String() string { return v.Expr.String() }

// Returns requires the expression to be formed and its result to match Shape.
type Returns struct {
	Expr  Expr
	Shape Shape
}

func (r *Returns) clauseNode() {}
func (r *Returns) String() string {
	if _, ok := r.Shape.(*Noexcept); ok {
		return "{" + r.Expr.String() + "} noexcept"
	}
	return "{" + r.Expr.String() + "} -> " + r.Shape.String()
}

// TypeName requires the type to exist.
type TypeName struct {
	Type TypeFn
}

func (t *TypeName) clauseNode()    {}
func (t *TypeName) String() string { return "typename " + t.Type.String() }

// Nested requires a formula, which may name the block's locals through
// Decltype.
type Nested struct {
	Formula Formula
}

func (n *Nested) clauseNode()    {}
func (n *Nested) String() string { return "requires " + n.Formula.String() }

// ConvertibleTo: the result implicitly converts to Type.
type ConvertibleTo struct {
	Type TypeFn
}

func (c *ConvertibleTo) shapeNode()     {}
func (c *ConvertibleTo) String() string { return c.Type.String() }

// Satisfies: the decayed result type satisfies Concept.
type Satisfies struct {
	Concept string
}

func (s *Satisfies) shapeNode()     {}
func (s *Satisfies) String() string { return s.Concept }

// Noexcept: the expression cannot throw.
type Noexcept struct{}

func (n *Noexcept) shapeNode()     {}
func (n *Noexcept) String() string { return "noexcept" }

func joinFormulas(fs []Formula, sep string) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = group(f)
	}
	return strings.Join(parts, sep)
}

func group(f Formula) string {
	switch f.(type) {
	case *And, *Or:
		return "(" + f.String() + ")"
	}
	return f.String()
}

func joinTypes(ts []TypeFn) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}
