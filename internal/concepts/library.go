package concepts

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/funvibe/concepts/internal/ast"
)

var (
	ErrUnknownConcept = errors.New("unknown concept")
	ErrArity          = errors.New("wrong number of type arguments")
	ErrCyclicConcept  = errors.New("cyclic concept definition")
	ErrInvalidConcept = errors.New("invalid concept definition")
	ErrNotConcrete    = errors.New("is not a concrete type")
)

// Layer is where a concept sits in the taxonomy.
type Layer int

const (
	// LayerTrait concepts query a primitive classification.
	LayerTrait Layer = iota
	// LayerOperation concepts form trial expressions.
	LayerOperation
	// LayerComposite concepts combine other concepts.
	LayerComposite
)

func (l Layer) String() string {
	switch l {
	case LayerTrait:
		return "trait"
	case LayerOperation:
		return "operation"
	default:
		return "composite"
	}
}

// Concept is a named boolean function over type parameters.
type Concept struct {
	Name   string
	Params []string
	// Defaults maps a trailing parameter to the parameter it defaults to,
	// as in Comparable<A, B = A>.
	Defaults map[string]string
	// Variadic makes the last parameter a pack.
	Variadic bool
	// Hidden concepts are helpers, not listed by default.
	Hidden bool
	Doc    string
	Body   ast.Formula
}

func (c *Concept) String() string {
	params := make([]string, len(c.Params))
	for i, p := range c.Params {
		switch {
		case c.Variadic && i == len(c.Params)-1:
			params[i] = p + "..."
		case c.Defaults[p] != "":
			params[i] = p + " = " + c.Defaults[p]
		default:
			params[i] = p
		}
	}
	return fmt.Sprintf("%s<%s>", c.Name, strings.Join(params, ", "))
}

// Signature is the concept head followed by its body.
func (c *Concept) Signature() string {
	return c.String() + " = " + c.Body.String()
}

// Arity returns the accepted number of type arguments; max is -1 for
// variadic concepts.
func (c *Concept) Arity() (min, max int) {
	fixed := len(c.Params)
	if c.Variadic {
		fixed--
	}
	min = fixed
	for i := fixed - 1; i >= 0 && c.Defaults[c.Params[i]] != ""; i-- {
		min--
	}
	if c.Variadic {
		return min, -1
	}
	return min, fixed
}

func (c *Concept) CheckArity(n int) error {
	min, max := c.Arity()
	if n < min || (max >= 0 && n > max) {
		want := fmt.Sprintf("%d", min)
		switch {
		case max < 0:
			want = fmt.Sprintf("at least %d", min)
		case max != min:
			want = fmt.Sprintf("%d to %d", min, max)
		}
		return fmt.Errorf("%w: %s takes %s, got %d", ErrArity, c.Name, want, n)
	}
	return nil
}

// Layer classifies the concept by the shape of its body.
func (c *Concept) Layer() Layer {
	layer := LayerTrait
	ast.Inspect(c.Body, func(n ast.Node) bool {
		switch n.(type) {
		case *ast.Ref:
			layer = LayerComposite
			return false
		case *ast.Requires:
			if layer == LayerTrait {
				layer = LayerOperation
			}
		}
		return true
	})
	return layer
}

// Dependencies lists the concepts the body refers to, sorted.
func (c *Concept) Dependencies() []string {
	seen := map[string]bool{}
	ast.Inspect(c.Body, func(n ast.Node) bool {
		switch node := n.(type) {
		case *ast.Ref:
			seen[node.Concept] = true
		case *ast.Satisfies:
			seen[node.Concept] = true
		}
		return true
	})
	deps := make([]string, 0, len(seen))
	for name := range seen {
		deps = append(deps, name)
	}
	sort.Strings(deps)
	return deps
}

// Library is a validated, acyclic set of concepts. It is immutable once
// built.
type Library struct {
	concepts map[string]*Concept
	order    []string
}

// NewLibrary validates the definitions and checks that no concept depends
// on itself.
func NewLibrary(defs ...Concept) (*Library, error) {
	return (&Library{concepts: map[string]*Concept{}}).Extend(defs...)
}

// Extend returns a new library holding the receiver's concepts plus defs.
// Redefining an existing name is an error.
func (l *Library) Extend(defs ...Concept) (*Library, error) {
	next := &Library{concepts: make(map[string]*Concept, len(l.concepts)+len(defs))}
	for name, c := range l.concepts {
		next.concepts[name] = c
	}
	next.order = append(next.order, l.order...)
	for i := range defs {
		c := defs[i]
		if c.Name == "" {
			return nil, fmt.Errorf("%w: concept #%d has no name", ErrInvalidConcept, i)
		}
		if _, dup := next.concepts[c.Name]; dup {
			return nil, fmt.Errorf("%w: %s defined twice", ErrInvalidConcept, c.Name)
		}
		next.concepts[c.Name] = &c
		next.order = append(next.order, c.Name)
	}
	for _, c := range defs {
		if err := next.validate(next.concepts[c.Name]); err != nil {
			return nil, err
		}
	}
	if err := next.checkCycles(); err != nil {
		return nil, err
	}
	return next, nil
}

func (l *Library) Lookup(name string) (*Concept, bool) {
	c, ok := l.concepts[name]
	return c, ok
}

// Names lists concept names in definition order.
func (l *Library) Names(includeHidden bool) []string {
	names := make([]string, 0, len(l.order))
	for _, name := range l.order {
		if includeHidden || !l.concepts[name].Hidden {
			names = append(names, name)
		}
	}
	return names
}

func (l *Library) Len() int { return len(l.concepts) }

// Fingerprint hashes every definition, so stored verdicts are never reused
// across different libraries.
func (l *Library) Fingerprint() string {
	h := sha256.New()
	for _, name := range l.order {
		h.Write([]byte(l.concepts[name].Signature()))
		h.Write([]byte("\n"))
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// validate checks every reference in a concept body: concepts and traits
// exist and receive the right number of arguments, parameters and locals
// are declared, and packs appear only where they expand.
func (l *Library) validate(c *Concept) error {
	if c.Body == nil {
		return fmt.Errorf("%w: %s has no body", ErrInvalidConcept, c.Name)
	}
	params := map[string]bool{}
	for i, p := range c.Params {
		if params[p] {
			return fmt.Errorf("%w: %s declares parameter %s twice", ErrInvalidConcept, c.Name, p)
		}
		params[p] = true
		if def, ok := c.Defaults[p]; ok && (!params[def] || def == p) {
			return fmt.Errorf("%w: %s: default of %s must name an earlier parameter", ErrInvalidConcept, c.Name, p)
		}
		if c.Variadic && i == len(c.Params)-1 && c.Defaults[p] != "" {
			return fmt.Errorf("%w: %s: parameter pack %s cannot have a default", ErrInvalidConcept, c.Name, p)
		}
	}
	pack := ""
	if c.Variadic {
		if len(c.Params) == 0 {
			return fmt.Errorf("%w: variadic %s has no parameters", ErrInvalidConcept, c.Name)
		}
		pack = c.Params[len(c.Params)-1]
	}
	v := &validator{lib: l, concept: c, params: params, pack: pack}
	v.formula(c.Body, nil)
	if v.err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidConcept, c.Name, v.err)
	}
	return nil
}

type scope struct {
	locals map[string]bool
	packs  map[string]bool
	outer  *scope
}

func (s *scope) lookup(name string) (found, pack bool) {
	for sc := s; sc != nil; sc = sc.outer {
		if sc.locals[name] {
			return true, false
		}
		if sc.packs[name] {
			return true, true
		}
	}
	return false, false
}

type validator struct {
	lib     *Library
	concept *Concept
	params  map[string]bool
	pack    string
	err     error
}

func (v *validator) fail(format string, args ...interface{}) {
	if v.err == nil {
		v.err = fmt.Errorf(format, args...)
	}
}

func (v *validator) formula(f ast.Formula, sc *scope) {
	switch node := f.(type) {
	case *ast.And:
		for _, t := range node.Terms {
			v.formula(t, sc)
		}
	case *ast.Or:
		for _, t := range node.Terms {
			v.formula(t, sc)
		}
	case *ast.Not:
		v.formula(node.Term, sc)
	case *ast.Ref:
		target, ok := v.lib.concepts[node.Concept]
		if !ok {
			v.fail("%w: %s", ErrUnknownConcept, node.Concept)
			return
		}
		v.arguments(node.Args, sc, target.CheckArity)
	case *ast.Trait:
		leaf, ok := lookupLeaf(node.Name)
		if !ok {
			v.fail("unknown trait %s", node.Name)
			return
		}
		v.arguments(node.Args, sc, leaf.checkArity)
	case *ast.Requires:
		inner := &scope{locals: map[string]bool{}, packs: map[string]bool{}, outer: sc}
		for _, l := range node.Locals {
			if l.IsPack() {
				if p := l.Type.(*ast.Pack); p.Name != v.pack {
					v.fail("%s is not a parameter pack", p.Name)
				}
				inner.packs[l.Name] = true
				continue
			}
			v.typeFn(l.Type, inner)
			inner.locals[l.Name] = true
		}
		for _, c := range node.Clauses {
			v.clause(c, inner)
		}
	case nil:
		v.fail("empty formula")
	default:
		v.fail("unexpected formula %T", f)
	}
}

func (v *validator) arguments(args []ast.TypeFn, sc *scope, check func(int) error) {
	expands := false
	for _, a := range args {
		if p, ok := a.(*ast.Pack); ok {
			if p.Name != v.pack {
				v.fail("%s is not a parameter pack", p.Name)
			}
			expands = true
			continue
		}
		v.typeFn(a, sc)
	}
	if !expands {
		if err := check(len(args)); err != nil {
			v.fail("%w", err)
		}
	}
}

func (v *validator) clause(c ast.Clause, sc *scope) {
	switch node := c.(type) {
	case *ast.Valid:
		v.expr(node.Expr, sc)
	case *ast.Returns:
		v.expr(node.Expr, sc)
		switch shape := node.Shape.(type) {
		case *ast.ConvertibleTo:
			v.typeFn(shape.Type, sc)
		case *ast.Satisfies:
			target, ok := v.lib.concepts[shape.Concept]
			if !ok {
				v.fail("%w: %s", ErrUnknownConcept, shape.Concept)
			} else if err := target.CheckArity(1); err != nil {
				v.fail("%w", err)
			}
		case *ast.Noexcept:
		default:
			v.fail("unexpected shape %T", node.Shape)
		}
	case *ast.TypeName:
		v.typeFn(node.Type, sc)
	case *ast.Nested:
		v.formula(node.Formula, sc)
	default:
		v.fail("unexpected clause %T", c)
	}
}

func (v *validator) expr(e ast.Expr, sc *scope) {
	switch node := e.(type) {
	case *ast.Var:
		if found, pack := sc.lookup(node.Name); !found || pack {
			v.fail("undeclared local %s", node.Name)
		}
	case *ast.IntLit:
	case *ast.Unary:
		v.expr(node.X, sc)
	case *ast.Binary:
		v.expr(node.X, sc)
		v.expr(node.Y, sc)
	case *ast.Call:
		v.expr(node.Fn, sc)
		v.exprs(node.Args, sc)
	case *ast.Method:
		v.expr(node.Recv, sc)
		v.exprs(node.Args, sc)
	case *ast.Invoke:
		v.exprs(node.Args, sc)
	case *ast.Swap:
		v.expr(node.X, sc)
		v.expr(node.Y, sc)
	case *ast.Cond:
		v.expr(node.Cond, sc)
		v.expr(node.Then, sc)
		v.expr(node.Else, sc)
	case *ast.Spread:
		v.fail("pack %s expanded outside an argument list", node.Name)
	default:
		v.fail("unexpected expression %T", e)
	}
}

func (v *validator) exprs(es []ast.Expr, sc *scope) {
	for _, e := range es {
		if s, ok := e.(*ast.Spread); ok {
			if found, pack := sc.lookup(s.Name); !found || !pack {
				v.fail("%s is not a local parameter pack", s.Name)
			}
			continue
		}
		v.expr(e, sc)
	}
}

func (v *validator) typeFn(t ast.TypeFn, sc *scope) {
	switch node := t.(type) {
	case *ast.Param:
		if !v.params[node.Name] || node.Name == v.pack {
			v.fail("undeclared parameter %s", node.Name)
		}
	case *ast.Pack:
		v.fail("pack %s expanded outside an argument list", node.Name)
	case *ast.LRef:
		v.typeFn(node.Of, sc)
	case *ast.RRef:
		v.typeFn(node.Of, sc)
	case *ast.Const:
		v.typeFn(node.Of, sc)
	case *ast.Ptr:
		v.typeFn(node.To, sc)
	case *ast.Member:
		v.typeFn(node.Owner, sc)
	case *ast.Decltype:
		if sc == nil {
			v.fail("decltype(%s) outside a requires block", node.Expr)
			return
		}
		v.expr(node.Expr, sc)
	case *ast.DifferenceType:
		v.typeFn(node.Of, sc)
	case *ast.AllocTraits:
		v.typeFn(node.Alloc, sc)
	case *ast.CommonType:
		v.arguments(node.Args, sc, func(n int) error {
			if n == 0 {
				return fmt.Errorf("%w: common_type needs an argument", ErrArity)
			}
			return nil
		})
	case *ast.TypeExpr:
		for _, tv := range node.Type.FreeTypeVariables() {
			if !v.params[tv.Name] || tv.Name == v.pack {
				v.fail("undeclared parameter %s in %s", tv.Name, node.Type)
			}
		}
	default:
		v.fail("unexpected type function %T", t)
	}
}

// checkCycles runs a depth-first search over concept references.
func (l *Library) checkCycles() error {
	const (
		unvisited = iota
		active
		done
	)
	state := make(map[string]int, len(l.concepts))
	var path []string
	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case active:
			start := 0
			for i, p := range path {
				if p == name {
					start = i
				}
			}
			cycle := append(append([]string{}, path[start:]...), name)
			return fmt.Errorf("%w: %s", ErrCyclicConcept, strings.Join(cycle, " -> "))
		case done:
			return nil
		}
		state[name] = active
		path = append(path, name)
		for _, dep := range l.concepts[name].Dependencies() {
			if err := visit(dep); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		state[name] = done
		return nil
	}
	for _, name := range l.order {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}
