package typesystem

import "fmt"

// Unify attempts to find a substitution that makes t1 and t2 equal.
// Candidate types are ground, so unifying a template parameter pattern against
// a candidate is one-way matching: only variables of the pattern get bound.
func Unify(t1, t2 Type) (Subst, error) {
	return unifyInternal(Canonical(t1), Canonical(t2))
}

func unifyInternal(t1, t2 Type) (Subst, error) {
	if v, ok := t1.(TVar); ok {
		return Bind(v, t2)
	}
	if v, ok := t2.(TVar); ok {
		return Bind(v, t1)
	}

	switch a := t1.(type) {
	case TCon:
		b, ok := t2.(TCon)
		if !ok {
			return nil, errUnify(t1, t2)
		}
		if a.Name != b.Name {
			return nil, errUnifyMsg(t1, t2, "type constant mismatch")
		}
		return Subst{}, nil

	case TApp:
		b, ok := t2.(TApp)
		if !ok {
			return nil, errUnify(t1, t2)
		}
		if len(a.Args) != len(b.Args) {
			return nil, errMismatch(fmt.Sprintf("type arguments length mismatch: %d vs %d", len(a.Args), len(b.Args)))
		}
		s, err := unifyInternal(a.Constructor, b.Constructor)
		if err != nil {
			return nil, err
		}
		return unifyList(s, a.Args, b.Args)

	case TPointer:
		b, ok := t2.(TPointer)
		if !ok {
			return nil, errUnify(t1, t2)
		}
		return unifyInternal(a.Elem, b.Elem)

	case TRef:
		b, ok := t2.(TRef)
		if !ok || a.RValue != b.RValue {
			return nil, errUnify(t1, t2)
		}
		return unifyInternal(a.Elem, b.Elem)

	case TQual:
		b, ok := t2.(TQual)
		if !ok || a.Const != b.Const || a.Volatile != b.Volatile {
			return nil, errUnifyMsg(t1, t2, "qualifier mismatch")
		}
		return unifyInternal(a.Elem, b.Elem)

	case TArray:
		b, ok := t2.(TArray)
		if !ok || a.Len != b.Len {
			return nil, errUnify(t1, t2)
		}
		return unifyInternal(a.Elem, b.Elem)

	case TFunc:
		b, ok := t2.(TFunc)
		if !ok || len(a.Params) != len(b.Params) || a.IsVariadic != b.IsVariadic {
			return nil, errUnify(t1, t2)
		}
		s, err := unifyList(Subst{}, a.Params, b.Params)
		if err != nil {
			return nil, err
		}
		if a.ReturnType == nil || b.ReturnType == nil {
			if a.ReturnType != b.ReturnType {
				return nil, errUnify(t1, t2)
			}
			return s, nil
		}
		s2, err := unifyInternal(a.ReturnType.Apply(s), b.ReturnType.Apply(s))
		if err != nil {
			return nil, err
		}
		return s.Compose(s2), nil

	case TMemberPtr:
		b, ok := t2.(TMemberPtr)
		if !ok {
			return nil, errUnify(t1, t2)
		}
		return unifyList(Subst{}, []Type{a.Class, a.Member}, []Type{b.Class, b.Member})

	case TMember:
		b, ok := t2.(TMember)
		if !ok || a.Name != b.Name {
			return nil, errUnify(t1, t2)
		}
		return unifyInternal(a.Owner, b.Owner)
	}

	return nil, errUnify(t1, t2)
}

func unifyList(s Subst, as, bs []Type) (Subst, error) {
	for i := range as {
		s2, err := unifyInternal(as[i].Apply(s), bs[i].Apply(s))
		if err != nil {
			return nil, err
		}
		s = s.Compose(s2)
	}
	return s, nil
}

// Bind binds a type variable to a type after kind and occurs checks.
func Bind(tv TVar, t Type) (Subst, error) {
	if tVal, ok := t.(TVar); ok && tVal.Name == tv.Name {
		return Subst{}, nil
	}

	if !tv.Kind().Equal(t.Kind()) {
		return nil, errMismatch(fmt.Sprintf("kind mismatch: variable %s has kind %s, but type %s has kind %s",
			tv.Name, tv.Kind(), t, t.Kind()))
	}

	if OccursCheck(tv, t) {
		return nil, errMismatch(fmt.Sprintf("infinite type detected: %s in %s", tv, t))
	}

	return Subst{tv.Name: t}, nil
}

// OccursCheck returns true if tv appears free in t.
func OccursCheck(tv TVar, t Type) bool {
	for _, v := range t.FreeTypeVariables() {
		if v.Name == tv.Name {
			return true
		}
	}
	return false
}

func errUnify(t1, t2 Type) error {
	return fmt.Errorf("cannot unify %s with %s", t1, t2)
}

func errUnifyMsg(t1, t2 Type, msg string) error {
	return fmt.Errorf("%s: %s vs %s", msg, t1, t2)
}

func errMismatch(msg string) error {
	return fmt.Errorf("type mismatch: %s", msg)
}

// Match is one-way unification: only variables of pattern may be bound.
// A variable occurring in t is treated as an opaque constant.
func Match(pattern, t Type) (Subst, error) {
	s, err := Unify(pattern, t)
	if err != nil {
		return nil, err
	}
	bindable := map[string]bool{}
	for _, v := range pattern.FreeTypeVariables() {
		bindable[v.Name] = true
	}
	for name := range s {
		if !bindable[name] {
			return nil, errMismatch(fmt.Sprintf("cannot bind %s of the matched type", name))
		}
	}
	return s, nil
}
