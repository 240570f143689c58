package analyzer

import (
	"strings"

	"github.com/funvibe/concepts/internal/symbols"
	"github.com/funvibe/concepts/internal/traits"
	"github.com/funvibe/concepts/internal/typesystem"
)

// view is a non-class stand-in for an operand of a built-in operator: the
// operand itself, or the result of one of its conversion functions.
type view struct {
	op       Operand
	rank     int
	noexcept bool
}

func (a *Analyzer) views(x Operand) []view {
	inst, ok := a.classInstance(x.Type)
	if !ok {
		rank := rankExact
		if a.isUnscopedEnum(x.Type) {
			rank = rankPromotion
		}
		return []view{{op: x, rank: rank, noexcept: true}}
	}
	var out []view
	for _, conv := range a.conversionFunctions(inst) {
		if conv.Explicit || conv.IsTemplate() {
			continue
		}
		if _, ok := objectRank(x, conv.Const); !ok {
			continue
		}
		conv, ok := a.normalizeFunction(conv)
		if !ok {
			continue
		}
		res := a.returned(conv.Result)
		if a.isClass(res.Type) {
			continue
		}
		out = append(out, view{op: res, rank: rankUserDefined, noexcept: !conv.MayThrow})
	}
	return out
}

// builtinCandidates forms the built-in operator for every combination of
// operand views.
func (a *Analyzer) builtinCandidates(op string, args []Operand) []match {
	switch op {
	case "!", "&&", "||":
		m := match{noexcept: true, usable: true, trivial: true}
		for _, arg := range args {
			conv, ok := a.contextualBool(arg)
			if !ok {
				return nil
			}
			m.ranks = append(m.ranks, conv.rank)
			m.noexcept = m.noexcept && conv.noexcept
		}
		m.result = Operand{Type: boolType, Category: PRValue}
		return []match{m}
	case "unary&":
		if args[0].Category != LValue {
			return nil
		}
		return []match{{
			ranks:    []int{rankExact},
			result:   Operand{Type: typesystem.TPointer{Elem: args[0].Type}, Category: PRValue},
			noexcept: true,
			usable:   true,
			trivial:  true,
		}}
	}

	var out []match
	var walk func(i int, picked []view)
	walk = func(i int, picked []view) {
		if i == len(args) {
			ops := make([]Operand, len(picked))
			m := match{noexcept: true, usable: true, trivial: true}
			for j, v := range picked {
				ops[j] = v.op
				m.ranks = append(m.ranks, v.rank)
				m.noexcept = m.noexcept && v.noexcept
			}
			res, ok := a.builtin(op, ops)
			if !ok {
				return
			}
			m.result = res.Value
			m.noexcept = m.noexcept && res.Noexcept
			out = append(out, m)
			return
		}
		for _, v := range a.views(args[i]) {
			walk(i+1, append(picked[:i:i], v))
		}
	}
	walk(0, make([]view, 0, len(args)))
	return out
}

func (a *Analyzer) builtin(op string, args []Operand) (Result, bool) {
	switch len(args) {
	case 1:
		v, ok := a.builtinUnary(op, args[0])
		return Result{Value: v, Noexcept: true}, ok
	case 2:
		return a.builtinBinary(op, args[0], args[1])
	}
	return Result{}, false
}

func (a *Analyzer) builtinUnary(op string, x Operand) (Operand, bool) {
	v := a.valueType(x.Type)
	switch op {
	case "unary+":
		if a.arithmeticLike(v) {
			return a.Prvalue(a.promote(v)), true
		}
		if traits.IsPointer(a.u, v) {
			return a.Prvalue(v), true
		}
	case "unary-":
		if a.arithmeticLike(v) {
			return a.Prvalue(a.promote(v)), true
		}
	case "~":
		if a.integralLike(v) {
			return a.Prvalue(a.promote(v)), true
		}
	case "unary*":
		if elem, ok := pointee(v); ok && !isVoid(elem) {
			return Operand{Type: typesystem.Canonical(elem), Category: LValue}, true
		}
	case "pre++", "pre--", "post++", "post--":
		if !a.modifiable(x) {
			return Operand{}, false
		}
		t := unqualified(x.Type)
		_, isPtr := a.objectPointer(t)
		if !isPtr && (!traits.IsArithmetic(a.u, t) || isBool(t)) {
			return Operand{}, false
		}
		if strings.HasPrefix(op, "pre") {
			return x, true
		}
		return a.Prvalue(t), true
	}
	return Operand{}, false
}

func (a *Analyzer) builtinBinary(op string, x, y Operand) (Result, bool) {
	l, r := a.valueType(x.Type), a.valueType(y.Type)
	ok := func(t typesystem.Type) (Result, bool) {
		return Result{Value: a.Prvalue(t), Noexcept: true}, true
	}
	switch op {
	case "+", "-", "*", "/":
		if a.arithmeticLike(l) && a.arithmeticLike(r) {
			return ok(a.usualArithmetic(l, r))
		}
		if op == "+" || op == "-" {
			if _, isPtr := a.objectPointer(l); isPtr && a.integralLike(r) {
				return ok(l)
			}
		}
		if op == "+" {
			if _, isPtr := a.objectPointer(r); isPtr && a.integralLike(l) {
				return ok(r)
			}
		}
		if op == "-" {
			le, lok := a.objectPointer(l)
			re, rok := a.objectPointer(r)
			if lok && rok && typesystem.Equal(unqualified(le), unqualified(re)) {
				return ok(symbols.DifferenceType)
			}
		}
	case "%", "&", "|", "^":
		if a.integralLike(l) && a.integralLike(r) {
			return ok(a.usualArithmetic(l, r))
		}
	case "<<", ">>":
		if a.integralLike(l) && a.integralLike(r) {
			return ok(a.promote(l))
		}
	case "<", ">", "<=", ">=", "==", "!=":
		if a.comparable(op, l, r) {
			return ok(boolType)
		}
	case "=":
		return a.builtinAssign(x, y)
	case "+=", "-=", "*=", "/=", "%=", "<<=", ">>=", "&=", "|=", "^=":
		if a.compoundAssignable(op, x, r) {
			return Result{Value: x, Noexcept: true}, true
		}
	case "[]":
		if elem, isPtr := a.objectPointer(l); isPtr && a.integralLike(r) {
			return Result{Value: Operand{Type: typesystem.Canonical(elem), Category: LValue}, Noexcept: true}, true
		}
		if elem, isPtr := a.objectPointer(r); isPtr && a.integralLike(l) {
			return Result{Value: Operand{Type: typesystem.Canonical(elem), Category: LValue}, Noexcept: true}, true
		}
	}
	return Result{}, false
}

func (a *Analyzer) comparable(op string, l, r typesystem.Type) bool {
	equality := op == "==" || op == "!="
	switch {
	case a.arithmeticLike(l) && a.arithmeticLike(r):
		return true
	case traits.IsScopedEnum(a.u, l) || traits.IsScopedEnum(a.u, r):
		return typesystem.Equal(l, r)
	case traits.IsMemberPointer(a.u, l) || traits.IsMemberPointer(a.u, r):
		return equality && (typesystem.Equal(l, r) || isNull(l) || isNull(r))
	case isNull(l) || isNull(r):
		if !equality {
			return false
		}
	}
	_, ok := a.compositePointer(l, r)
	return ok
}

// compositePointer is the common type of two pointer operands.
func (a *Analyzer) compositePointer(l, r typesystem.Type) (typesystem.Type, bool) {
	lp, lok := l.(typesystem.TPointer)
	rp, rok := r.(typesystem.TPointer)
	switch {
	case isNull(l) && isNull(r):
		return l, true
	case isNull(l) && rok:
		return r, true
	case lok && isNull(r):
		return l, true
	case !lok || !rok:
		return nil, false
	}
	le, lc, lv := typesystem.StripQual(typesystem.Canonical(lp.Elem))
	re, rc, rv := typesystem.StripQual(typesystem.Canonical(rp.Elem))
	var elem typesystem.Type
	switch {
	case typesystem.Equal(le, re):
		elem = le
	case isVoid(le) || isVoid(re):
		_, lf := le.(typesystem.TFunc)
		_, rf := re.(typesystem.TFunc)
		if lf || rf {
			return nil, false
		}
		elem = voidType
	case traits.IsBaseOf(a.u, le, re):
		elem = le
	case traits.IsBaseOf(a.u, re, le):
		elem = re
	default:
		return nil, false
	}
	return typesystem.TPointer{Elem: typesystem.WithQual(elem, lc || rc, lv || rv)}, true
}

func (a *Analyzer) builtinAssign(x, y Operand) (Result, bool) {
	if !a.modifiable(x) || a.isClass(x.Type) {
		return Result{}, false
	}
	conv, ok := a.implicitConversion(y, unqualified(x.Type), true)
	if !ok {
		return Result{}, false
	}
	return Result{Value: x, Noexcept: conv.noexcept}, true
}

func (a *Analyzer) compoundAssignable(op string, x Operand, r typesystem.Type) bool {
	if !a.modifiable(x) {
		return false
	}
	t := unqualified(x.Type)
	switch op {
	case "+=", "-=":
		if _, isPtr := a.objectPointer(t); isPtr {
			return a.integralLike(r)
		}
		return traits.IsArithmetic(a.u, t) && a.arithmeticLike(r)
	case "*=", "/=":
		return traits.IsArithmetic(a.u, t) && a.arithmeticLike(r)
	}
	return traits.IsIntegral(a.u, t) && a.integralLike(r)
}
