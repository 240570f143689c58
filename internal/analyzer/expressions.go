package analyzer

import (
	"strings"

	"github.com/funvibe/concepts/internal/symbols"
	"github.com/funvibe/concepts/internal/traits"
	"github.com/funvibe/concepts/internal/typesystem"
)

// Operator tokens accepted by Unary.
var unaryOps = map[string]bool{
	"unary+": true, "unary-": true, "unary*": true, "unary&": true,
	"~": true, "!": true,
	"pre++": true, "pre--": true, "post++": true, "post--": true,
}

// Operator tokens accepted by Binary.
var binaryOps = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true,
	"&": true, "|": true, "^": true, "<<": true, ">>": true,
	"<": true, ">": true, "<=": true, ">=": true, "==": true, "!=": true,
	"&&": true, "||": true, "=": true, "[]": true,
	"+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"<<=": true, ">>=": true, "&=": true, "|=": true, "^=": true,
}

func IsUnaryOperator(op string) bool  { return unaryOps[op] }
func IsBinaryOperator(op string) bool { return binaryOps[op] }

// memberOnly operators are never looked up as free functions.
func memberOnly(op string) bool {
	return op == "=" || op == "[]" || op == "()"
}

func (a *Analyzer) Unary(op string, x Operand) (Result, error) {
	if !unaryOps[op] {
		return Result{}, notFormed("unknown unary operator %q", op)
	}
	return a.operator(op, []Operand{x})
}

func (a *Analyzer) Binary(op string, x, y Operand) (Result, error) {
	if !binaryOps[op] {
		return Result{}, notFormed("unknown binary operator %q", op)
	}
	return a.operator(op, []Operand{x, y})
}

func (a *Analyzer) operator(op string, args []Operand) (Result, error) {
	m, err := a.resolveOperator(op, args)
	if err != nil {
		return Result{}, err
	}
	return Result{Value: m.result, Noexcept: m.noexcept}, nil
}

// resolveOperator gathers member, free and built-in candidates for an
// operator expression and selects the best one.
func (a *Analyzer) resolveOperator(op string, args []Operand) (match, error) {
	var cands []candidate
	overloadable := false
	for _, arg := range args {
		if a.isClass(arg.Type) || traits.IsEnum(a.u, arg.Type) {
			overloadable = true
		}
	}
	if overloadable {
		if inst, ok := a.classInstance(args[0].Type); ok {
			obj := args[0]
			for _, fn := range a.lookupMethods(inst, op) {
				cands = append(cands, candidate{fn: fn, object: &obj})
			}
			if op == "=" {
				cands = append(cands, a.assignmentMembers(inst, &obj)...)
			}
		}
		if !memberOnly(op) {
			for _, fn := range a.u.Functions(op) {
				cands = append(cands, candidate{fn: fn})
			}
		}
	}

	var viable []match
	for _, c := range cands {
		rest := args
		if c.object != nil {
			rest = args[1:]
		}
		if m, ok := a.matchFunction(c, rest, true); ok {
			viable = append(viable, m)
		}
	}
	viable = append(viable, a.builtinCandidates(op, args)...)

	spelled := spell(op)
	if len(viable) == 0 {
		return match{}, notFormed("no viable %s for %s", spelled, describe(args))
	}
	best, ok := selectBest(viable)
	if !ok {
		return match{}, notFormed("ambiguous %s for %s", spelled, describe(args))
	}
	if !best.usable {
		return match{}, notFormed("%s for %s selects a deleted function", spelled, describe(args))
	}
	return best, nil
}

// assignmentMembers are the copy and move assignment operators of a class.
func (a *Analyzer) assignmentMembers(inst *symbols.Instance, obj *Operand) []candidate {
	self := unqualified(inst.Type)
	sm := inst.Decl.Special
	var out []candidate
	if sm.CopyAssign.Declared() {
		out = append(out, candidate{
			fn:      symbols.Function{Name: "=", Params: []typesystem.Type{typesystem.ConstLRef(self)}, Result: typesystem.LRef(self)},
			object:  obj,
			special: &sm.CopyAssign,
		})
	}
	if sm.MoveAssign.Declared() {
		out = append(out, candidate{
			fn:      symbols.Function{Name: "=", Params: []typesystem.Type{typesystem.RRef(self)}, Result: typesystem.LRef(self)},
			object:  obj,
			special: &sm.MoveAssign,
		})
	}
	return out
}

func spell(op string) string {
	switch {
	case strings.HasPrefix(op, "unary"):
		return "operator" + strings.TrimPrefix(op, "unary")
	case strings.HasPrefix(op, "pre"):
		return "prefix operator" + strings.TrimPrefix(op, "pre")
	case strings.HasPrefix(op, "post"):
		return "postfix operator" + strings.TrimPrefix(op, "post")
	}
	return "operator" + op
}

// Method forms obj.name(args...).
func (a *Analyzer) Method(obj Operand, name string, args ...Operand) (Result, error) {
	inst, ok := a.classInstance(obj.Type)
	if !ok {
		return Result{}, notFormed("%s has no member %s", obj, name)
	}
	methods := a.lookupMethods(inst, name)
	if len(methods) == 0 {
		return Result{}, notFormed("%s has no member %s", obj, name)
	}
	cands := make([]candidate, len(methods))
	for i, fn := range methods {
		cands[i] = candidate{fn: fn, object: &obj}
	}
	return a.call(name, cands, args)
}

// Invoke forms an unqualified call name(args...) to free functions.
func (a *Analyzer) Invoke(name string, args ...Operand) (Result, error) {
	fns := a.u.Functions(name)
	if len(fns) == 0 {
		return Result{}, notFormed("no function %s", name)
	}
	cands := make([]candidate, len(fns))
	for i, fn := range fns {
		cands[i] = candidate{fn: fn}
	}
	return a.call(name, cands, args)
}

// Call forms f(args...) for a function, a pointer to function or a class
// object with a call operator.
func (a *Analyzer) Call(f Operand, args ...Operand) (Result, error) {
	if a.isClass(f.Type) {
		inst, ok := a.classInstance(f.Type)
		if !ok {
			return Result{}, notFormed("%s is not callable", f)
		}
		methods := a.lookupMethods(inst, "()")
		if len(methods) == 0 {
			return Result{}, notFormed("%s is not callable", f)
		}
		cands := make([]candidate, len(methods))
		for i, fn := range methods {
			cands[i] = candidate{fn: fn, object: &f}
		}
		return a.call("operator()", cands, args)
	}

	t := unqualified(f.Type)
	if elem, ok := pointee(t); ok {
		t = unqualified(elem)
	}
	ft, ok := t.(typesystem.TFunc)
	if !ok {
		return Result{}, notFormed("%s is not callable", f)
	}
	fn := symbols.Function{Params: ft.Params, Result: ft.ReturnType, MayThrow: !ft.Noexcept}
	if isVoid(ft.ReturnType) {
		fn.Result = nil
	}
	if ft.IsVariadic && len(args) > len(ft.Params) {
		// C varargs accept any non-class trailing argument
		for _, extra := range args[len(ft.Params):] {
			if a.isClass(extra.Type) {
				return Result{}, notFormed("cannot pass %s through ...", extra)
			}
		}
		args = args[:len(ft.Params)]
	}
	return a.call(f.Type.String(), []candidate{{fn: fn}}, args)
}

func (a *Analyzer) call(name string, cands []candidate, args []Operand) (Result, error) {
	viable, best, ok := a.resolve(cands, args, true)
	switch {
	case len(viable) == 0:
		return Result{}, notFormed("no viable %s(%s)", name, describe(args))
	case !ok:
		return Result{}, notFormed("ambiguous %s(%s)", name, describe(args))
	case !best.usable:
		return Result{}, notFormed("%s(%s) selects a deleted function", name, describe(args))
	}
	return Result{Value: best.result, Noexcept: best.noexcept}, nil
}

// Conditional forms c ? x : y.
func (a *Analyzer) Conditional(c, x, y Operand) (Result, error) {
	cond, ok := a.contextualBool(c)
	if !ok {
		return Result{}, notFormed("%s is not contextually convertible to bool", c)
	}
	res, ok := a.conditional(x, y)
	if !ok {
		return Result{}, notFormed("operands of ?: have no common type: %s", describe([]Operand{x, y}))
	}
	return Result{Value: res, Noexcept: cond.noexcept}, nil
}

// conditional is the result of a conditional expression whose branches
// are x and y.
func (a *Analyzer) conditional(x, y Operand) (Operand, bool) {
	if typesystem.Equal(x.Type, y.Type) && x.Category == y.Category && x.Category != PRValue {
		return x, true
	}
	if isVoid(x.Type) && isVoid(y.Type) {
		return Operand{Type: voidType, Category: PRValue}, true
	}
	xu, yu := unqualified(x.Type), unqualified(y.Type)
	if a.isClass(xu) || a.isClass(yu) {
		if typesystem.Equal(xu, yu) {
			return a.Prvalue(xu), true
		}
		toY := a.ImplicitlyConvertible(x, yu)
		toX := a.ImplicitlyConvertible(y, xu)
		switch {
		case toY && !toX:
			return a.Prvalue(yu), true
		case toX && !toY:
			return a.Prvalue(xu), true
		}
		return Operand{}, false
	}
	l, r := a.valueType(x.Type), a.valueType(y.Type)
	switch {
	case typesystem.Equal(l, r):
		return a.Prvalue(l), true
	case a.arithmeticLike(l) && a.arithmeticLike(r):
		return a.Prvalue(a.usualArithmetic(l, r)), true
	}
	if t, ok := a.compositePointer(l, r); ok {
		return a.Prvalue(t), true
	}
	if traits.IsMemberPointer(a.u, l) && isNull(r) {
		return a.Prvalue(l), true
	}
	if isNull(l) && traits.IsMemberPointer(a.u, r) {
		return a.Prvalue(r), true
	}
	return Operand{}, false
}
