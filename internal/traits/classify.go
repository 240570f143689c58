// Package traits implements the primitive classification layer: total,
// side-effect-free answers about a type as declared in a universe.
// Arguments are expected to be normalised (see symbols.Universe.Normalize).
package traits

import (
	"github.com/funvibe/concepts/internal/symbols"
	"github.com/funvibe/concepts/internal/typesystem"
)

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

func category(u *symbols.Universe, t typesystem.Type) (symbols.Category, *symbols.Instance, bool) {
	switch unqualified(t).(type) {
	case typesystem.TCon, typesystem.TApp:
	default:
		return 0, nil, false
	}
	inst, ok := u.Resolve(t)
	if !ok {
		return 0, nil, false
	}
	return inst.Decl.Category, inst, true
}

func IsVoid(_ *symbols.Universe, t typesystem.Type) bool {
	_, name, ok := fundamental(t)
	return ok && name == symbols.Void
}

func IsNull(_ *symbols.Universe, t typesystem.Type) bool {
	_, name, ok := fundamental(t)
	return ok && name == symbols.Nullptr
}

func IsIntegral(_ *symbols.Universe, t typesystem.Type) bool {
	info, _, ok := fundamental(t)
	return ok && info.Integral
}

func IsFloatingPoint(_ *symbols.Universe, t typesystem.Type) bool {
	info, _, ok := fundamental(t)
	return ok && info.Floating
}

func IsArithmetic(u *symbols.Universe, t typesystem.Type) bool {
	return IsIntegral(u, t) || IsFloatingPoint(u, t)
}

func IsArray(_ *symbols.Universe, t typesystem.Type) bool {
	_, ok := unqualified(t).(typesystem.TArray)
	return ok
}

func IsBoundedArray(_ *symbols.Universe, t typesystem.Type) bool {
	a, ok := unqualified(t).(typesystem.TArray)
	return ok && a.Len != typesystem.Unbounded
}

func IsEnum(u *symbols.Universe, t typesystem.Type) bool {
	c, _, ok := category(u, t)
	return ok && c == symbols.Enum
}

func IsScopedEnum(u *symbols.Universe, t typesystem.Type) bool {
	c, inst, ok := category(u, t)
	return ok && c == symbols.Enum && inst.Decl.Scoped
}

func IsUnion(u *symbols.Universe, t typesystem.Type) bool {
	c, _, ok := category(u, t)
	return ok && c == symbols.Union
}

func IsClass(u *symbols.Universe, t typesystem.Type) bool {
	c, _, ok := category(u, t)
	return ok && c == symbols.Class
}

func IsFunction(_ *symbols.Universe, t typesystem.Type) bool {
	_, ok := typesystem.Canonical(t).(typesystem.TFunc)
	return ok
}

func IsPointer(_ *symbols.Universe, t typesystem.Type) bool {
	_, ok := unqualified(t).(typesystem.TPointer)
	return ok
}

func IsLValueReference(_ *symbols.Universe, t typesystem.Type) bool {
	r, ok := typesystem.Canonical(t).(typesystem.TRef)
	return ok && !r.RValue
}

func IsRValueReference(_ *symbols.Universe, t typesystem.Type) bool {
	r, ok := typesystem.Canonical(t).(typesystem.TRef)
	return ok && r.RValue
}

func IsReference(_ *symbols.Universe, t typesystem.Type) bool {
	_, ok := typesystem.Canonical(t).(typesystem.TRef)
	return ok
}

func IsMemberPointer(_ *symbols.Universe, t typesystem.Type) bool {
	_, ok := unqualified(t).(typesystem.TMemberPtr)
	return ok
}

func IsMemberFunctionPointer(_ *symbols.Universe, t typesystem.Type) bool {
	mp, ok := unqualified(t).(typesystem.TMemberPtr)
	if !ok {
		return false
	}
	_, isFunc := typesystem.Canonical(mp.Member).(typesystem.TFunc)
	return isFunc
}

func IsMemberObjectPointer(u *symbols.Universe, t typesystem.Type) bool {
	return IsMemberPointer(u, t) && !IsMemberFunctionPointer(u, t)
}

func IsFundamental(_ *symbols.Universe, t typesystem.Type) bool {
	_, _, ok := fundamental(t)
	return ok
}

func IsScalar(u *symbols.Universe, t typesystem.Type) bool {
	return IsArithmetic(u, t) || IsEnum(u, t) || IsPointer(u, t) || IsMemberPointer(u, t) || IsNull(u, t)
}

// IsObject is true for every type that is not a function, a reference or void.
func IsObject(u *symbols.Universe, t typesystem.Type) bool {
	return !IsFunction(u, t) && !IsReference(u, t) && !IsVoid(u, t)
}

func IsCompound(u *symbols.Universe, t typesystem.Type) bool {
	return !IsFundamental(u, t)
}

func IsConst(_ *symbols.Universe, t typesystem.Type) bool {
	return typesystem.IsConst(t)
}

func IsVolatile(_ *symbols.Universe, t typesystem.Type) bool {
	return typesystem.IsVolatile(t)
}

// IsConstReference is true exactly for lvalue references to const types.
func IsConstReference(_ *symbols.Universe, t typesystem.Type) bool {
	r, ok := typesystem.Canonical(t).(typesystem.TRef)
	return ok && !r.RValue && typesystem.IsConst(r.Elem)
}

func IsSigned(u *symbols.Universe, t typesystem.Type) bool {
	info, _, ok := fundamental(t)
	return ok && (info.Integral || info.Floating) && info.Signed
}

func IsUnsigned(u *symbols.Universe, t typesystem.Type) bool {
	info, _, ok := fundamental(t)
	return ok && info.Integral && !info.Signed
}

// element strips cv-qualification and array extents.
func element(t typesystem.Type) typesystem.Type {
	t = unqualified(t)
	for {
		a, ok := t.(typesystem.TArray)
		if !ok {
			return t
		}
		t = unqualified(a.Elem)
	}
}

func classInstance(u *symbols.Universe, t typesystem.Type) (*symbols.Instance, bool) {
	c, inst, ok := category(u, t)
	if !ok || (c != symbols.Class && c != symbols.Union) {
		return nil, false
	}
	return inst, true
}

// IsTriviallyCopyable: scalars, and classes whose copy and move operations are
// trivial or unavailable (at least one available) with a trivial destructor.
func IsTriviallyCopyable(u *symbols.Universe, t typesystem.Type) bool {
	e := element(t)
	if IsScalar(u, e) {
		return true
	}
	inst, ok := classInstance(u, e)
	if !ok {
		return false
	}
	sm := inst.Decl.Special
	ops := []symbols.Special{sm.CopyCtor, sm.MoveCtor, sm.CopyAssign, sm.MoveAssign}
	available := false
	for _, op := range ops {
		if op.Usable() {
			available = true
			if !op.IsTrivial() {
				return false
			}
		}
	}
	return available && sm.Dtor.IsTrivial()
}

// IsTrivial is trivially copyable plus a trivial, usable default constructor.
func IsTrivial(u *symbols.Universe, t typesystem.Type) bool {
	if !IsTriviallyCopyable(u, t) {
		return false
	}
	e := element(t)
	if IsScalar(u, e) {
		return true
	}
	inst, _ := classInstance(u, e)
	dc := inst.Decl.Special.DefaultCtor
	return dc.Usable() && dc.IsTrivial()
}

func IsStandardLayout(u *symbols.Universe, t typesystem.Type) bool {
	e := element(t)
	if IsScalar(u, e) {
		return true
	}
	inst, ok := classInstance(u, e)
	return ok && inst.Decl.Flags.StandardLayout
}

func IsPOD(u *symbols.Universe, t typesystem.Type) bool {
	return IsTrivial(u, t) && IsStandardLayout(u, t)
}

func IsLiteral(u *symbols.Universe, t typesystem.Type) bool {
	if IsReference(u, t) || IsVoid(u, t) {
		return true
	}
	e := element(t)
	if IsScalar(u, e) {
		return true
	}
	inst, ok := classInstance(u, e)
	if !ok {
		return false
	}
	return inst.Decl.Flags.Literal || IsTrivial(u, e)
}

func IsEmpty(u *symbols.Universe, t typesystem.Type) bool {
	inst, ok := classInstance(u, t)
	return ok && inst.Decl.Category == symbols.Class && inst.Decl.Flags.Empty
}

// IsPolymorphic is inherited from any base.
func IsPolymorphic(u *symbols.Universe, t typesystem.Type) bool {
	return anyInHierarchy(u, t, func(d *symbols.TypeDecl) bool { return d.Flags.Polymorphic })
}

func IsAbstract(u *symbols.Universe, t typesystem.Type) bool {
	inst, ok := classInstance(u, t)
	return ok && inst.Decl.Flags.Abstract
}

func HasVirtualDestructor(u *symbols.Universe, t typesystem.Type) bool {
	return anyInHierarchy(u, t, func(d *symbols.TypeDecl) bool { return d.Flags.VirtualDtor })
}

func anyInHierarchy(u *symbols.Universe, t typesystem.Type, pred func(*symbols.TypeDecl) bool) bool {
	inst, ok := classInstance(u, t)
	if !ok {
		return false
	}
	if pred(inst.Decl) {
		return true
	}
	for _, b := range inst.Bases() {
		if anyInHierarchy(u, b, pred) {
			return true
		}
	}
	return false
}

func IsSame(_ *symbols.Universe, a, b typesystem.Type) bool {
	return typesystem.Equal(a, b)
}

// IsBaseOf reports whether base is derived or a (transitive) base of
// derived. Both must be non-union classes; cv-qualifiers are ignored.
func IsBaseOf(u *symbols.Universe, base, derived typesystem.Type) bool {
	if !IsClass(u, base) || !IsClass(u, derived) {
		return false
	}
	return derivesFrom(u, unqualified(derived), unqualified(base))
}

func derivesFrom(u *symbols.Universe, derived, base typesystem.Type) bool {
	if typesystem.Equal(derived, base) {
		return true
	}
	inst, ok := u.Resolve(derived)
	if !ok {
		return false
	}
	for _, b := range inst.Bases() {
		if derivesFrom(u, b, base) {
			return true
		}
	}
	return false
}
