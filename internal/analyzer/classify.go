package analyzer

import (
	"github.com/funvibe/concepts/internal/symbols"
	"github.com/funvibe/concepts/internal/traits"
	"github.com/funvibe/concepts/internal/typesystem"
)

var (
	voidType = typesystem.TCon{Name: symbols.Void}
	boolType = typesystem.TCon{Name: symbols.Bool}
	intType  = typesystem.TCon{Name: symbols.Int}
)

var unsignedOf = map[string]string{
	"char":  "uchar",
	"schar": "uchar",
	"short": "ushort",
	"int":   "uint",
	"long":  "ulong",
	"llong": "ullong",
}

func unqualified(t typesystem.Type) typesystem.Type {
	u, _, _ := typesystem.StripQual(typesystem.Canonical(t))
	return u
}

func fundamental(t typesystem.Type) (symbols.FundamentalInfo, string, bool) {
	con, ok := unqualified(t).(typesystem.TCon)
	if !ok {
		return symbols.FundamentalInfo{}, "", false
	}
	info, ok := symbols.LookupFundamental(con.Name)
	return info, con.Name, ok
}

func isVoid(t typesystem.Type) bool {
	_, name, ok := fundamental(t)
	return ok && name == symbols.Void
}

func isNull(t typesystem.Type) bool {
	_, name, ok := fundamental(t)
	return ok && name == symbols.Nullptr
}

func isBool(t typesystem.Type) bool {
	_, name, ok := fundamental(t)
	return ok && name == symbols.Bool
}

func pointee(t typesystem.Type) (typesystem.Type, bool) {
	p, ok := unqualified(t).(typesystem.TPointer)
	if !ok {
		return nil, false
	}
	return p.Elem, true
}

// objectPointer is a pointer whose pointee is a complete object type usable
// in pointer arithmetic.
func (a *Analyzer) objectPointer(t typesystem.Type) (typesystem.Type, bool) {
	elem, ok := pointee(t)
	if !ok || isVoid(elem) {
		return nil, false
	}
	if _, isFunc := typesystem.Canonical(elem).(typesystem.TFunc); isFunc {
		return nil, false
	}
	return elem, true
}

func (a *Analyzer) isClass(t typesystem.Type) bool {
	return traits.IsClass(a.u, t) || traits.IsUnion(a.u, t)
}

func (a *Analyzer) classInstance(t typesystem.Type) (*symbols.Instance, bool) {
	if !a.isClass(t) {
		return nil, false
	}
	return a.u.Resolve(t)
}

func (a *Analyzer) isUnscopedEnum(t typesystem.Type) bool {
	return traits.IsEnum(a.u, t) && !traits.IsScopedEnum(a.u, t)
}

// arithmeticLike covers the operands of the built-in arithmetic operators:
// arithmetic types and unscoped enumerations.
func (a *Analyzer) arithmeticLike(t typesystem.Type) bool {
	return traits.IsArithmetic(a.u, t) || a.isUnscopedEnum(t)
}

func (a *Analyzer) integralLike(t typesystem.Type) bool {
	return traits.IsIntegral(a.u, t) || a.isUnscopedEnum(t)
}

func (a *Analyzer) underlying(t typesystem.Type) typesystem.Type {
	inst, ok := a.u.Resolve(t)
	if !ok || inst.Decl.Underlying == nil {
		return intType
	}
	if n, err := a.u.Normalize(inst.Decl.Underlying); err == nil {
		return n
	}
	return intType
}

// promote applies integral promotion. Under LP64 every integral type of
// lower rank than int fits in int.
func (a *Analyzer) promote(t typesystem.Type) typesystem.Type {
	t = unqualified(t)
	if a.isUnscopedEnum(t) {
		t = unqualified(a.underlying(t))
	}
	info, _, ok := fundamental(t)
	if ok && info.Integral && info.Rank < 3 {
		return intType
	}
	return t
}

// usualArithmetic is the common type of the operands of a binary
// arithmetic operator.
func (a *Analyzer) usualArithmetic(l, r typesystem.Type) typesystem.Type {
	l, r = a.promote(l), a.promote(r)
	li, lname, _ := fundamental(l)
	ri, rname, _ := fundamental(r)
	switch {
	case li.Floating || ri.Floating:
		if !ri.Floating || (li.Floating && li.Rank >= ri.Rank) {
			return l
		}
		return r
	case lname == rname:
		return l
	case li.Signed == ri.Signed:
		if li.Rank >= ri.Rank {
			return l
		}
		return r
	}
	uns, sig := l, r
	ui, si := li, ri
	if li.Signed {
		uns, sig = r, l
		ui, si = ri, li
	}
	switch {
	case ui.Rank >= si.Rank:
		return uns
	case si.Size > ui.Size:
		return sig
	}
	_, sname, _ := fundamental(sig)
	return typesystem.TCon{Name: unsignedOf[sname]}
}

// valueType is the type of the operand after lvalue-to-rvalue,
// array-to-pointer and function-to-pointer conversion.
func (a *Analyzer) valueType(t typesystem.Type) typesystem.Type {
	t = typesystem.Canonical(t)
	switch typ := t.(type) {
	case typesystem.TArray:
		return typesystem.TPointer{Elem: typ.Elem}
	case typesystem.TFunc:
		return typesystem.TPointer{Elem: typ}
	}
	if a.isClass(t) {
		return t
	}
	return unqualified(t)
}

// modifiable reports a modifiable lvalue of non-array object type.
func (a *Analyzer) modifiable(x Operand) bool {
	if x.Category != LValue || typesystem.IsConst(x.Type) {
		return false
	}
	switch typesystem.Canonical(x.Type).(type) {
	case typesystem.TArray, typesystem.TFunc:
		return false
	}
	return !isVoid(x.Type)
}

// Decay is std::decay: references and cv-qualifiers are stripped, arrays and
// functions become pointers.
func (a *Analyzer) Decay(t typesystem.Type) typesystem.Type {
	return typesystem.Decay(t)
}
