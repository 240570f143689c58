package symbols

import (
	"fmt"

	"github.com/funvibe/concepts/internal/typesystem"
)

// Normalize resolves aliases and dependent member types, checks template
// arity and returns the canonical descriptor. Type variables are left alone.
func (u *Universe) Normalize(t typesystem.Type) (typesystem.Type, error) {
	n, err := u.normalize(t)
	if err != nil {
		return nil, err
	}
	if _, err := typesystem.KindCheck(n); err != nil {
		return nil, err
	}
	return typesystem.Canonical(n), nil
}

func (u *Universe) normalize(t typesystem.Type) (typesystem.Type, error) {
	switch typ := t.(type) {
	case nil:
		return nil, nil
	case typesystem.TVar:
		return typ, nil
	case typesystem.TCon:
		if target, ok := u.LookupAlias(typ.Name); ok {
			return u.normalize(target)
		}
		decl, ok := u.LookupType(typ.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownType, typ.Name)
		}
		if decl.IsTemplate() {
			return nil, fmt.Errorf("template %s used without arguments", typ.Name)
		}
		return typesystem.TCon{Name: decl.Name}, nil
	case typesystem.TApp:
		con, ok := typ.Constructor.(typesystem.TCon)
		if !ok {
			return nil, fmt.Errorf("cannot apply type arguments to %s", typ.Constructor)
		}
		decl, ok := u.LookupType(con.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownType, con.Name)
		}
		if len(decl.Params) != len(typ.Args) {
			return nil, fmt.Errorf("template %s takes %d type arguments, got %d", con.Name, len(decl.Params), len(typ.Args))
		}
		args := make([]typesystem.Type, len(typ.Args))
		for i, a := range typ.Args {
			na, err := u.normalize(a)
			if err != nil {
				return nil, err
			}
			args[i] = na
		}
		return typesystem.TApp{Constructor: typesystem.TCon{Name: decl.Name, KindVal: decl.Kind()}, Args: args}, nil
	case typesystem.TPointer:
		elem, err := u.normalize(typ.Elem)
		if err != nil {
			return nil, err
		}
		return typesystem.TPointer{Elem: elem}, nil
	case typesystem.TRef:
		elem, err := u.normalize(typ.Elem)
		if err != nil {
			return nil, err
		}
		return typesystem.TRef{Elem: elem, RValue: typ.RValue}, nil
	case typesystem.TQual:
		elem, err := u.normalize(typ.Elem)
		if err != nil {
			return nil, err
		}
		return typesystem.TQual{Elem: elem, Const: typ.Const, Volatile: typ.Volatile}, nil
	case typesystem.TArray:
		elem, err := u.normalize(typ.Elem)
		if err != nil {
			return nil, err
		}
		return typesystem.TArray{Elem: elem, Len: typ.Len}, nil
	case typesystem.TFunc:
		params := make([]typesystem.Type, len(typ.Params))
		for i, p := range typ.Params {
			np, err := u.normalize(p)
			if err != nil {
				return nil, err
			}
			params[i] = np
		}
		ret, err := u.normalize(typ.ReturnType)
		if err != nil {
			return nil, err
		}
		return typesystem.TFunc{Params: params, ReturnType: ret, IsVariadic: typ.IsVariadic, Noexcept: typ.Noexcept}, nil
	case typesystem.TMemberPtr:
		class, err := u.normalize(typ.Class)
		if err != nil {
			return nil, err
		}
		member, err := u.normalize(typ.Member)
		if err != nil {
			return nil, err
		}
		return typesystem.TMemberPtr{Class: class, Member: member}, nil
	case typesystem.TMember:
		owner, err := u.normalize(typ.Owner)
		if err != nil {
			return nil, err
		}
		if len(owner.FreeTypeVariables()) > 0 {
			return typesystem.TMember{Owner: owner, Name: typ.Name}, nil
		}
		inst, ok := u.Resolve(owner)
		if !ok {
			return nil, fmt.Errorf("%w: %s has no members", ErrUnknownMember, owner)
		}
		member, ok := inst.Decl.MemberTypes[typ.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %s::%s", ErrUnknownMember, owner, typ.Name)
		}
		return u.normalize(member.Apply(inst.Subst))
	default:
		return t, nil
	}
}

// Instance is a declaration seen through a concrete type: a plain class or a
// template specialisation with its arguments bound.
type Instance struct {
	Decl     *TypeDecl
	Type     typesystem.Type
	Subst    typesystem.Subst
	universe *Universe
}

// Resolve finds the declaration behind a normalised type, ignoring top-level
// qualifiers. Pointers, references, arrays and functions have no declaration.
func (u *Universe) Resolve(t typesystem.Type) (*Instance, bool) {
	base, _, _ := typesystem.StripQual(typesystem.Canonical(t))
	switch typ := base.(type) {
	case typesystem.TCon:
		decl, ok := u.LookupType(typ.Name)
		if !ok || decl.IsTemplate() {
			return nil, false
		}
		return &Instance{Decl: decl, Type: typ, Subst: typesystem.Subst{}, universe: u}, true
	case typesystem.TApp:
		con, ok := typ.Constructor.(typesystem.TCon)
		if !ok {
			return nil, false
		}
		decl, ok := u.LookupType(con.Name)
		if !ok || len(decl.Params) != len(typ.Args) {
			return nil, false
		}
		subst := make(typesystem.Subst, len(decl.Params))
		for i, p := range decl.Params {
			subst[p] = typ.Args[i]
		}
		return &Instance{Decl: decl, Type: typ, Subst: subst, universe: u}, true
	}
	return nil, false
}

// Category reports the declaration category of t, if it has a declaration.
func (u *Universe) Category(t typesystem.Type) (Category, bool) {
	inst, ok := u.Resolve(t)
	if !ok {
		return 0, false
	}
	return inst.Decl.Category, true
}

// MemberType returns the normalised member type Name of the instance.
func (in *Instance) MemberType(name string) (typesystem.Type, bool) {
	t, ok := in.Decl.MemberTypes[name]
	if !ok {
		return nil, false
	}
	n, err := in.universe.Normalize(t.Apply(in.Subst))
	if err != nil {
		return nil, false
	}
	return n, true
}

// Methods returns the member functions called name with class template
// parameters substituted.
func (in *Instance) Methods(name string) []Function {
	var out []Function
	for _, m := range in.Decl.Methods {
		if m.Name == name {
			out = append(out, in.normalizeFunction(m.Apply(in.Subst)))
		}
	}
	return out
}

// Ctors returns the non-special constructors.
func (in *Instance) Ctors() []Function {
	out := make([]Function, 0, len(in.Decl.Ctors))
	for _, c := range in.Decl.Ctors {
		out = append(out, in.normalizeFunction(c.Apply(in.Subst)))
	}
	return out
}

// Conversions returns the conversion operators; Result is the target type.
func (in *Instance) Conversions() []Function {
	out := make([]Function, 0, len(in.Decl.Conversions))
	for _, c := range in.Decl.Conversions {
		out = append(out, in.normalizeFunction(c.Apply(in.Subst)))
	}
	return out
}

// Bases returns the direct base classes.
func (in *Instance) Bases() []typesystem.Type {
	out := make([]typesystem.Type, 0, len(in.Decl.Bases))
	for _, b := range in.Decl.Bases {
		if n, err := in.universe.Normalize(b.Apply(in.Subst)); err == nil {
			out = append(out, n)
		}
	}
	return out
}

// normalizeFunction resolves member types in a signature after substitution.
// Parts that fail to resolve are kept as written and fail later matching.
func (in *Instance) normalizeFunction(f Function) Function {
	f.Params = append([]typesystem.Type(nil), f.Params...)
	for i, p := range f.Params {
		if n, err := in.universe.Normalize(p); err == nil {
			f.Params[i] = n
		}
	}
	if f.Result != nil {
		if n, err := in.universe.Normalize(f.Result); err == nil {
			f.Result = n
		}
	}
	return f
}
