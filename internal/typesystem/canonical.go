package typesystem

// Canonical normalises a descriptor so that equal types print equally:
// nested qualifiers merge, qualifiers on references and functions vanish,
// qualifiers on arrays move to the element, and references collapse.
func Canonical(t Type) Type {
	switch typ := t.(type) {
	case nil:
		return nil
	case TQual:
		elem := Canonical(typ.Elem)
		if !typ.Const && !typ.Volatile {
			return elem
		}
		switch e := elem.(type) {
		case TQual:
			return TQual{Elem: e.Elem, Const: typ.Const || e.Const, Volatile: typ.Volatile || e.Volatile}
		case TRef, TFunc:
			return elem
		case TArray:
			return TArray{Elem: Canonical(TQual{Elem: e.Elem, Const: typ.Const, Volatile: typ.Volatile}), Len: e.Len}
		}
		return TQual{Elem: elem, Const: typ.Const, Volatile: typ.Volatile}
	case TRef:
		elem := Canonical(typ.Elem)
		if inner, ok := elem.(TRef); ok {
			// T& && -> T&, T&& && -> T&&, T&& & -> T&.
			return TRef{Elem: inner.Elem, RValue: typ.RValue && inner.RValue}
		}
		return TRef{Elem: elem, RValue: typ.RValue}
	case TPointer:
		return TPointer{Elem: Canonical(typ.Elem)}
	case TArray:
		return TArray{Elem: Canonical(typ.Elem), Len: typ.Len}
	case TApp:
		args := make([]Type, len(typ.Args))
		for i, a := range typ.Args {
			args[i] = Canonical(a)
		}
		return TApp{Constructor: Canonical(typ.Constructor), Args: args, KindVal: typ.KindVal}
	case TFunc:
		params := make([]Type, len(typ.Params))
		for i, p := range typ.Params {
			params[i] = Canonical(p)
		}
		return TFunc{Params: params, ReturnType: Canonical(typ.ReturnType), IsVariadic: typ.IsVariadic, Noexcept: typ.Noexcept}
	case TMemberPtr:
		return TMemberPtr{Class: Canonical(typ.Class), Member: Canonical(typ.Member)}
	case TMember:
		return TMember{Owner: Canonical(typ.Owner), Name: typ.Name}
	default:
		return t
	}
}

// Equal reports whether two descriptors denote the same type.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return Canonical(a).String() == Canonical(b).String()
}

// StripRef removes one level of reference.
func StripRef(t Type) Type {
	if r, ok := t.(TRef); ok {
		return r.Elem
	}
	return t
}

// StripQual removes top-level cv-qualification and reports it.
func StripQual(t Type) (Type, bool, bool) {
	if q, ok := t.(TQual); ok {
		return q.Elem, q.Const, q.Volatile
	}
	return t, false, false
}

// Unqualified strips references and then top-level qualifiers.
func Unqualified(t Type) Type {
	u, _, _ := StripQual(Canonical(StripRef(Canonical(t))))
	return u
}

// IsConst reports top-level const, looking through arrays to their element.
func IsConst(t Type) bool {
	switch typ := Canonical(t).(type) {
	case TQual:
		return typ.Const
	case TArray:
		return IsConst(typ.Elem)
	}
	return false
}

// IsVolatile reports top-level volatile, looking through arrays to their element.
func IsVolatile(t Type) bool {
	switch typ := Canonical(t).(type) {
	case TQual:
		return typ.Volatile
	case TArray:
		return IsVolatile(typ.Elem)
	}
	return false
}

// WithQual adds qualifiers to t.
func WithQual(t Type, isConst, isVolatile bool) Type {
	if !isConst && !isVolatile {
		return t
	}
	return Canonical(TQual{Elem: t, Const: isConst, Volatile: isVolatile})
}

// LRef builds T&, ConstLRef builds const T&, RRef builds T&&.
func LRef(t Type) Type      { return Canonical(TRef{Elem: t}) }
func ConstLRef(t Type) Type { return Canonical(TRef{Elem: TQual{Elem: t, Const: true}}) }
func RRef(t Type) Type      { return Canonical(TRef{Elem: t, RValue: true}) }

// Decay applies array-to-pointer and function-to-pointer conversion after
// stripping references and top-level qualifiers.
func Decay(t Type) Type {
	u := Unqualified(t)
	switch typ := u.(type) {
	case TArray:
		return TPointer{Elem: typ.Elem}
	case TFunc:
		return TPointer{Elem: typ}
	}
	return u
}
