package concepts

import (
	"fmt"
	"strings"

	"github.com/funvibe/concepts/internal/analyzer"
	"github.com/funvibe/concepts/internal/ast"
	"github.com/funvibe/concepts/internal/traits"
	"github.com/funvibe/concepts/internal/typesystem"
)

// env binds the parameters of the concept being evaluated and the locals
// of the enclosing requires blocks.
type env struct {
	types  map[string]typesystem.Type
	pack   []typesystem.Type
	locals map[string]analyzer.Operand
	packs  map[string][]analyzer.Operand
	outer  *env
}

func (e *Engine) bind(c *Concept, args []typesystem.Type) *env {
	en := &env{types: make(map[string]typesystem.Type, len(c.Params))}
	fixed := len(c.Params)
	if c.Variadic {
		fixed--
		en.pack = append([]typesystem.Type(nil), args[fixed:]...)
	}
	for i := 0; i < fixed; i++ {
		p := c.Params[i]
		if i < len(args) {
			en.types[p] = args[i]
		} else {
			en.types[p] = en.types[c.Defaults[p]]
		}
	}
	return en
}

func (en *env) child() *env {
	return &env{
		types:  en.types,
		pack:   en.pack,
		locals: map[string]analyzer.Operand{},
		packs:  map[string][]analyzer.Operand{},
		outer:  en,
	}
}

func (en *env) local(name string) (analyzer.Operand, bool) {
	for cur := en; cur != nil; cur = cur.outer {
		if op, ok := cur.locals[name]; ok {
			return op, true
		}
	}
	return analyzer.Operand{}, false
}

func (en *env) localPack(name string) ([]analyzer.Operand, bool) {
	for cur := en; cur != nil; cur = cur.outer {
		if ops, ok := cur.packs[name]; ok {
			return ops, true
		}
	}
	return nil, false
}

// formula returns nil when f holds and the first failing constituent
// otherwise. An unsatisfied disjunction reports its last alternative.
func (e *Engine) formula(f ast.Formula, en *env) *Failure {
	switch node := f.(type) {
	case *ast.And:
		for _, t := range node.Terms {
			if fl := e.formula(t, en); fl != nil {
				return fl
			}
		}
		return nil

	case *ast.Or:
		var last *Failure
		for _, t := range node.Terms {
			fl := e.formula(t, en)
			if fl == nil {
				return nil
			}
			last = fl
		}
		return last

	case *ast.Not:
		if e.formula(node.Term, en) == nil {
			return &Failure{Subject: "!" + e.subject(node.Term, en), Reason: "negated requirement holds"}
		}
		return nil

	case *ast.Ref:
		args, err := e.typeArgs(node.Args, en)
		if err != nil {
			return &Failure{Subject: node.String(), Reason: err.Error()}
		}
		c, _ := e.lib.Lookup(node.Concept)
		if err := c.CheckArity(len(args)); err != nil {
			return &Failure{Subject: node.String(), Reason: err.Error()}
		}
		v := e.evaluate(c, args)
		if v.Satisfied {
			return nil
		}
		return &Failure{Subject: v.Query(), Cause: v.Failure}

	case *ast.Trait:
		args, err := e.typeArgs(node.Args, en)
		if err != nil {
			return &Failure{Subject: node.String(), Reason: err.Error()}
		}
		l, _ := lookupLeaf(node.Name)
		if err := l.checkArity(len(args)); err != nil {
			return &Failure{Subject: node.String(), Reason: err.Error()}
		}
		if l.eval(e.an, args) {
			return nil
		}
		return &Failure{
			Subject: node.Name + "(" + strings.Join(spellTypes(args), ", ") + ")",
			Reason:  "does not hold",
		}

	case *ast.Requires:
		inner := en.child()
		for _, l := range node.Locals {
			if l.IsPack() {
				ops := make([]analyzer.Operand, len(en.pack))
				for i, t := range en.pack {
					if err := e.declarable(t); err != nil {
						return &Failure{Subject: l.String(), Reason: err.Error()}
					}
					ops[i] = analyzer.Local(t)
				}
				inner.packs[l.Name] = ops
				continue
			}
			t, err := e.typeFn(l.Type, inner)
			if err == nil {
				err = e.declarable(t)
			}
			if err != nil {
				return &Failure{Subject: l.String(), Reason: err.Error()}
			}
			inner.locals[l.Name] = analyzer.Local(t)
		}
		for _, c := range node.Clauses {
			if fl := e.clause(c, inner); fl != nil {
				return fl
			}
		}
		return nil
	}
	return &Failure{Subject: fmt.Sprintf("%v", f), Reason: "unsupported formula"}
}

// declarable reports whether a requires block may declare a local of type t.
func (e *Engine) declarable(t typesystem.Type) error {
	if traits.IsVoid(e.u, t) {
		return fmt.Errorf("cannot declare a local of type %s", t)
	}
	if traits.IsAbstract(e.u, t) {
		return fmt.Errorf("cannot declare a local of abstract type %s", t)
	}
	return nil
}

func (e *Engine) clause(c ast.Clause, en *env) *Failure {
	switch node := c.(type) {
	case *ast.Valid:
		if _, err := e.expr(node.Expr, en); err != nil {
			return &Failure{Subject: node.String(), Reason: reason(err)}
		}
		return nil

	case *ast.Returns:
		res, err := e.expr(node.Expr, en)
		if err != nil {
			return &Failure{Subject: node.String(), Reason: reason(err)}
		}
		switch shape := node.Shape.(type) {
		case *ast.ConvertibleTo:
			to, err := e.typeFn(shape.Type, en)
			if err != nil {
				return &Failure{Subject: node.String(), Reason: err.Error()}
			}
			if !e.an.ImplicitlyConvertible(res.Value, to) {
				return &Failure{Subject: node.String(), Reason: fmt.Sprintf("%s does not convert to %s", res.Value, to)}
			}
		case *ast.Satisfies:
			target, _ := e.lib.Lookup(shape.Concept)
			v := e.evaluate(target, []typesystem.Type{e.an.Decay(res.Value.Decltype())})
			if !v.Satisfied {
				return &Failure{Subject: node.String(), Cause: &Failure{Subject: v.Query(), Cause: v.Failure}}
			}
		case *ast.Noexcept:
			if !res.Noexcept {
				return &Failure{Subject: node.String(), Reason: "may throw"}
			}
		}
		return nil

	case *ast.TypeName:
		if _, err := e.typeFn(node.Type, en); err != nil {
			return &Failure{Subject: node.String(), Reason: err.Error()}
		}
		return nil

	case *ast.Nested:
		return e.formula(node.Formula, en)
	}
	return &Failure{Subject: fmt.Sprintf("%v", c), Reason: "unsupported clause"}
}

func reason(err error) string {
	return strings.TrimPrefix(err.Error(), analyzer.ErrNotFormed.Error()+": ")
}

// expr forms a trial expression. The result is noexcept only when every
// subexpression is.
func (e *Engine) expr(x ast.Expr, en *env) (analyzer.Result, error) {
	switch node := x.(type) {
	case *ast.Var:
		op, ok := en.local(node.Name)
		if !ok {
			return analyzer.Result{}, fmt.Errorf("undeclared local %s", node.Name)
		}
		return analyzer.Result{Value: op, Noexcept: true}, nil

	case *ast.IntLit:
		return analyzer.Result{Value: analyzer.Literal(), Noexcept: true}, nil

	case *ast.Unary:
		sub, err := e.expr(node.X, en)
		if err != nil {
			return analyzer.Result{}, err
		}
		return combine(e.an.Unary(node.Op, sub.Value))(sub)

	case *ast.Binary:
		subs, err := e.exprs([]ast.Expr{node.X, node.Y}, en)
		if err != nil {
			return analyzer.Result{}, err
		}
		return combine(e.an.Binary(node.Op, subs[0].Value, subs[1].Value))(subs...)

	case *ast.Call:
		fn, err := e.expr(node.Fn, en)
		if err != nil {
			return analyzer.Result{}, err
		}
		args, err := e.exprs(node.Args, en)
		if err != nil {
			return analyzer.Result{}, err
		}
		return combine(e.an.Call(fn.Value, values(args)...))(append(args, fn)...)

	case *ast.Method:
		recv, err := e.expr(node.Recv, en)
		if err != nil {
			return analyzer.Result{}, err
		}
		args, err := e.exprs(node.Args, en)
		if err != nil {
			return analyzer.Result{}, err
		}
		return combine(e.an.Method(recv.Value, node.Name, values(args)...))(append(args, recv)...)

	case *ast.Invoke:
		args, err := e.exprs(node.Args, en)
		if err != nil {
			return analyzer.Result{}, err
		}
		return combine(e.an.Invoke(node.Name, values(args)...))(args...)

	case *ast.Swap:
		subs, err := e.exprs([]ast.Expr{node.X, node.Y}, en)
		if err != nil {
			return analyzer.Result{}, err
		}
		return combine(e.an.Swap(subs[0].Value, subs[1].Value))(subs...)

	case *ast.Cond:
		subs, err := e.exprs([]ast.Expr{node.Cond, node.Then, node.Else}, en)
		if err != nil {
			return analyzer.Result{}, err
		}
		return combine(e.an.Conditional(subs[0].Value, subs[1].Value, subs[2].Value))(subs...)
	}
	return analyzer.Result{}, fmt.Errorf("unsupported expression %v", x)
}

// exprs forms a list of expressions, expanding local packs.
func (e *Engine) exprs(xs []ast.Expr, en *env) ([]analyzer.Result, error) {
	var out []analyzer.Result
	for _, x := range xs {
		if s, ok := x.(*ast.Spread); ok {
			ops, ok := en.localPack(s.Name)
			if !ok {
				return nil, fmt.Errorf("undeclared pack %s", s.Name)
			}
			for _, op := range ops {
				out = append(out, analyzer.Result{Value: op, Noexcept: true})
			}
			continue
		}
		res, err := e.expr(x, en)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

func values(rs []analyzer.Result) []analyzer.Operand {
	ops := make([]analyzer.Operand, len(rs))
	for i, r := range rs {
		ops[i] = r.Value
	}
	return ops
}

func combine(res analyzer.Result, err error) func(subs ...analyzer.Result) (analyzer.Result, error) {
	return func(subs ...analyzer.Result) (analyzer.Result, error) {
		if err != nil {
			return analyzer.Result{}, err
		}
		for _, s := range subs {
			res.Noexcept = res.Noexcept && s.Noexcept
		}
		return res, nil
	}
}

// subject spells a concept reference or trait with its arguments
// substituted. Other formulas keep their parameter names.
func (e *Engine) subject(f ast.Formula, en *env) string {
	switch node := f.(type) {
	case *ast.Ref:
		if args, err := e.typeArgs(node.Args, en); err == nil {
			return node.Concept + "<" + strings.Join(spellTypes(args), ", ") + ">"
		}
	case *ast.Trait:
		if args, err := e.typeArgs(node.Args, en); err == nil {
			return node.Name + "(" + strings.Join(spellTypes(args), ", ") + ")"
		}
	case *ast.And, *ast.Or:
		return "(" + f.String() + ")"
	}
	return f.String()
}

func (e *Engine) typeArgs(fns []ast.TypeFn, en *env) ([]typesystem.Type, error) {
	var out []typesystem.Type
	for _, fn := range fns {
		if _, ok := fn.(*ast.Pack); ok {
			out = append(out, en.pack...)
			continue
		}
		t, err := e.typeFn(fn, en)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// typeFn computes a type argument. The error explains why the type cannot
// be formed.
func (e *Engine) typeFn(fn ast.TypeFn, en *env) (typesystem.Type, error) {
	switch node := fn.(type) {
	case *ast.Param:
		t, ok := en.types[node.Name]
		if !ok {
			return nil, fmt.Errorf("unbound parameter %s", node.Name)
		}
		return t, nil

	case *ast.LRef, *ast.RRef:
		var of ast.TypeFn
		rvalue := false
		if r, ok := node.(*ast.RRef); ok {
			of, rvalue = r.Of, true
		} else {
			of = node.(*ast.LRef).Of
		}
		t, err := e.typeFn(of, en)
		if err != nil {
			return nil, err
		}
		if traits.IsVoid(e.u, t) {
			return nil, fmt.Errorf("reference to %s", t)
		}
		if rvalue {
			return typesystem.RRef(t), nil
		}
		return typesystem.LRef(t), nil

	case *ast.Const:
		t, err := e.typeFn(node.Of, en)
		if err != nil {
			return nil, err
		}
		return typesystem.WithQual(t, true, false), nil

	case *ast.Ptr:
		t, err := e.typeFn(node.To, en)
		if err != nil {
			return nil, err
		}
		if traits.IsReference(e.u, t) {
			return nil, fmt.Errorf("pointer to reference %s", t)
		}
		return typesystem.Canonical(typesystem.TPointer{Elem: t}), nil

	case *ast.Member:
		owner, err := e.typeFn(node.Owner, en)
		if err != nil {
			return nil, err
		}
		t, ok := e.an.MemberType(owner, node.Name)
		if !ok {
			return nil, fmt.Errorf("%s has no member type %s", owner, node.Name)
		}
		return typesystem.Canonical(t), nil

	case *ast.Decltype:
		res, err := e.expr(node.Expr, en)
		if err != nil {
			return nil, fmt.Errorf("%s: %s", node, reason(err))
		}
		return res.Value.Decltype(), nil

	case *ast.DifferenceType:
		it, err := e.typeFn(node.Of, en)
		if err != nil {
			return nil, err
		}
		t, ok := e.an.DifferenceType(it)
		if !ok {
			return nil, fmt.Errorf("%s has no difference type", it)
		}
		return typesystem.Canonical(t), nil

	case *ast.AllocTraits:
		alloc, err := e.typeFn(node.Alloc, en)
		if err != nil {
			return nil, err
		}
		t, ok := e.an.AllocatorTraits(alloc, node.Name)
		if !ok {
			return nil, fmt.Errorf("allocator_traits<%s> has no %s", alloc, node.Name)
		}
		return typesystem.Canonical(t), nil

	case *ast.CommonType:
		args, err := e.typeArgs(node.Args, en)
		if err != nil {
			return nil, err
		}
		t, ok := e.an.CommonType(args...)
		if !ok {
			return nil, fmt.Errorf("no common type of %s", strings.Join(spellTypes(args), ", "))
		}
		return typesystem.Canonical(t), nil

	case *ast.TypeExpr:
		subst := make(typesystem.Subst, len(en.types))
		for name, t := range en.types {
			subst[name] = t
		}
		t, err := e.u.Normalize(node.Type.Apply(subst))
		if err != nil {
			return nil, err
		}
		return t, nil
	}
	return nil, fmt.Errorf("unsupported type function %v", fn)
}
