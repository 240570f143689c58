package typesystem

import (
	"fmt"
	"strconv"
	"strings"
)

// Type is the interface for all candidate type descriptors.
type Type interface {
	String() string
	Apply(Subst) Type
	FreeTypeVariables() []TVar
	Kind() Kind
}

// Unbounded is the TArray length of an array of unknown bound (T[]).
const Unbounded = -1

// TVar represents a type parameter (e.g. 'T' in a template or generic algorithm).
type TVar struct {
	Name    string
	KindVal Kind
}

func (t TVar) String() string { return t.Name }

func (t TVar) Kind() Kind {
	if t.KindVal == nil {
		return Star
	}
	return t.KindVal
}

func (t TVar) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[string]bool))
}

func (t TVar) FreeTypeVariables() []TVar {
	return []TVar{t}
}

// ApplyWithCycleCheck applies substitution with cycle detection.
// This is the main entry point for substitution application.
func ApplyWithCycleCheck(t Type, s Subst, visited map[string]bool) Type {
	if t == nil {
		return nil
	}

	switch typ := t.(type) {
	case TVar:
		if visited[typ.Name] {
			return typ
		}
		if replacement, ok := s[typ.Name]; ok {
			if tv, ok := replacement.(TVar); ok && tv.Name == typ.Name {
				return typ
			}
			newVisited := copyVisited(visited)
			newVisited[typ.Name] = true
			return ApplyWithCycleCheck(replacement, s, newVisited)
		}
		return typ

	case TCon:
		return typ

	case TApp:
		newArgs := make([]Type, len(typ.Args))
		for i, arg := range typ.Args {
			newArgs[i] = ApplyWithCycleCheck(arg, s, visited)
		}
		return TApp{
			Constructor: ApplyWithCycleCheck(typ.Constructor, s, visited),
			Args:        newArgs,
			KindVal:     typ.KindVal,
		}

	case TPointer:
		return TPointer{Elem: ApplyWithCycleCheck(typ.Elem, s, visited)}

	case TRef:
		return TRef{Elem: ApplyWithCycleCheck(typ.Elem, s, visited), RValue: typ.RValue}

	case TQual:
		return TQual{Elem: ApplyWithCycleCheck(typ.Elem, s, visited), Const: typ.Const, Volatile: typ.Volatile}

	case TArray:
		return TArray{Elem: ApplyWithCycleCheck(typ.Elem, s, visited), Len: typ.Len}

	case TFunc:
		newParams := make([]Type, len(typ.Params))
		for i, p := range typ.Params {
			newParams[i] = ApplyWithCycleCheck(p, s, visited)
		}
		return TFunc{
			Params:     newParams,
			ReturnType: ApplyWithCycleCheck(typ.ReturnType, s, visited),
			IsVariadic: typ.IsVariadic,
			Noexcept:   typ.Noexcept,
		}

	case TMemberPtr:
		return TMemberPtr{
			Class:  ApplyWithCycleCheck(typ.Class, s, visited),
			Member: ApplyWithCycleCheck(typ.Member, s, visited),
		}

	case TMember:
		return TMember{Owner: ApplyWithCycleCheck(typ.Owner, s, visited), Name: typ.Name}

	case TForall:
		// Quantified variables shadow the substitution.
		newSubst := make(Subst)
		bound := make(map[string]bool)
		for _, v := range typ.Vars {
			bound[v.Name] = true
		}
		for k, v := range s {
			if !bound[k] {
				newSubst[k] = v
			}
		}
		newConstraints := make([]Constraint, len(typ.Constraints))
		for i, c := range typ.Constraints {
			newArgs := make([]Type, len(c.Args))
			for j, arg := range c.Args {
				newArgs[j] = ApplyWithCycleCheck(arg, newSubst, visited)
			}
			newConstraints[i] = Constraint{Trait: c.Trait, Args: newArgs}
		}
		return TForall{
			Vars:        typ.Vars,
			Constraints: newConstraints,
			Type:        ApplyWithCycleCheck(typ.Type, newSubst, visited),
		}

	default:
		return t.Apply(s)
	}
}

func copyVisited(m map[string]bool) map[string]bool {
	newMap := make(map[string]bool, len(m))
	for k, v := range m {
		newMap[k] = v
	}
	return newMap
}

// TCon represents a named type: a fundamental type (int, double, void),
// a declared class, union or enum, or a template constructor (List, Complex).
type TCon struct {
	Name    string
	Module  string // Optional catalog the declaration came from
	KindVal Kind
}

func (t TCon) Kind() Kind {
	if t.KindVal != nil {
		return t.KindVal
	}
	return Star
}

func (t TCon) String() string {
	if t.Module != "" {
		return t.Module + "." + t.Name
	}
	return t.Name
}

func (t TCon) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[string]bool))
}

func (t TCon) FreeTypeVariables() []TVar {
	return []TVar{}
}

// TApp represents a template application (e.g. List<int>).
type TApp struct {
	Constructor Type
	Args        []Type
	KindVal     Kind // Cache the kind
}

func (t TApp) Kind() Kind {
	if t.KindVal != nil {
		return t.KindVal
	}
	k := t.Constructor.Kind()
	for range t.Args {
		arrow, ok := k.(KArrow)
		if !ok {
			return Star
		}
		k = arrow.Right
	}
	return k
}

func (t TApp) String() string {
	if len(t.Args) == 0 {
		return t.Constructor.String()
	}
	return fmt.Sprintf("%s<%s>", t.Constructor.String(), joinTypes(t.Args))
}

func (t TApp) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[string]bool))
}

func (t TApp) FreeTypeVariables() []TVar {
	vars := []TVar{}
	vars = append(vars, t.Constructor.FreeTypeVariables()...)
	for _, arg := range t.Args {
		vars = append(vars, arg.FreeTypeVariables()...)
	}
	return uniqueTVars(vars)
}

// TPointer represents a pointer to Elem (T*).
type TPointer struct {
	Elem Type
}

func (t TPointer) Kind() Kind { return Star }

func (t TPointer) String() string {
	if _, ok := t.Elem.(TFunc); ok {
		return "(" + t.Elem.String() + ")*"
	}
	return t.Elem.String() + "*"
}

func (t TPointer) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[string]bool))
}

func (t TPointer) FreeTypeVariables() []TVar { return t.Elem.FreeTypeVariables() }

// TRef represents an lvalue (T&) or rvalue (T&&) reference.
type TRef struct {
	Elem   Type
	RValue bool
}

func (t TRef) Kind() Kind { return Star }

func (t TRef) String() string {
	elem := t.Elem.String()
	if _, ok := t.Elem.(TFunc); ok {
		elem = "(" + elem + ")"
	}
	if t.RValue {
		return elem + "&&"
	}
	return elem + "&"
}

func (t TRef) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[string]bool))
}

func (t TRef) FreeTypeVariables() []TVar { return t.Elem.FreeTypeVariables() }

// TQual represents a const and/or volatile qualified type.
type TQual struct {
	Elem     Type
	Const    bool
	Volatile bool
}

func (t TQual) Kind() Kind { return Star }

func (t TQual) String() string {
	var quals []string
	if t.Const {
		quals = append(quals, "const")
	}
	if t.Volatile {
		quals = append(quals, "volatile")
	}
	q := strings.Join(quals, " ")
	if q == "" {
		return t.Elem.String()
	}
	// Qualifiers on a pointer follow the star: int* const.
	if _, ok := t.Elem.(TPointer); ok {
		return t.Elem.String() + " " + q
	}
	return q + " " + t.Elem.String()
}

func (t TQual) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[string]bool))
}

func (t TQual) FreeTypeVariables() []TVar { return t.Elem.FreeTypeVariables() }

// TArray represents an array of Len elements, or of unknown bound when Len is Unbounded.
type TArray struct {
	Elem Type
	Len  int
}

func (t TArray) Kind() Kind { return Star }

func (t TArray) String() string {
	if t.Len == Unbounded {
		return t.Elem.String() + "[]"
	}
	return t.Elem.String() + "[" + strconv.Itoa(t.Len) + "]"
}

func (t TArray) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[string]bool))
}

func (t TArray) FreeTypeVariables() []TVar { return t.Elem.FreeTypeVariables() }

// TFunc represents a function type (e.g. fn(int, int) -> bool noexcept).
type TFunc struct {
	Params     []Type
	ReturnType Type
	IsVariadic bool
	Noexcept   bool
}

func (t TFunc) Kind() Kind { return Star }

func (t TFunc) String() string {
	params := []string{}
	for _, p := range t.Params {
		params = append(params, p.String())
	}
	if t.IsVariadic {
		params = append(params, "...")
	}
	ret := "void"
	if t.ReturnType != nil {
		ret = t.ReturnType.String()
	}
	s := fmt.Sprintf("fn(%s) -> %s", strings.Join(params, ", "), ret)
	if t.Noexcept {
		s += " noexcept"
	}
	return s
}

func (t TFunc) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[string]bool))
}

func (t TFunc) FreeTypeVariables() []TVar {
	vars := []TVar{}
	for _, p := range t.Params {
		vars = append(vars, p.FreeTypeVariables()...)
	}
	if t.ReturnType != nil {
		vars = append(vars, t.ReturnType.FreeTypeVariables()...)
	}
	return uniqueTVars(vars)
}

// TMemberPtr represents a pointer to a member of Class. Member is a function
// type for member function pointers and any other type for data members.
type TMemberPtr struct {
	Class  Type
	Member Type
}

func (t TMemberPtr) Kind() Kind { return Star }

func (t TMemberPtr) String() string {
	return fmt.Sprintf("memptr<%s, %s>", t.Class, t.Member)
}

func (t TMemberPtr) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[string]bool))
}

func (t TMemberPtr) FreeTypeVariables() []TVar {
	return uniqueTVars(append(t.Class.FreeTypeVariables(), t.Member.FreeTypeVariables()...))
}

// TMember is a dependent member type (Owner::Name), e.g. List<int>::iterator.
// It is resolved against the owner's declaration by the Universe.
type TMember struct {
	Owner Type
	Name  string
}

func (t TMember) Kind() Kind { return Star }

func (t TMember) String() string { return t.Owner.String() + "::" + t.Name }

func (t TMember) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[string]bool))
}

func (t TMember) FreeTypeVariables() []TVar { return t.Owner.FreeTypeVariables() }

// Constraint attaches a named concept to type arguments
// (e.g. RandomAccessIterator<I> or Swappable<I, J>).
type Constraint struct {
	Trait string
	Args  []Type
}

func (c Constraint) String() string {
	return fmt.Sprintf("%s<%s>", c.Trait, joinTypes(c.Args))
}

// TForall represents a constrained generic signature:
// forall I J. (I, J) -> void where Swappable<I, J>.
type TForall struct {
	Vars        []TVar
	Constraints []Constraint
	Type        Type
}

func (t TForall) Kind() Kind { return Star }

func (t TForall) String() string {
	vars := []string{}
	for _, v := range t.Vars {
		vars = append(vars, v.String())
	}
	s := fmt.Sprintf("forall %s. %s", strings.Join(vars, " "), t.Type)
	if len(t.Constraints) > 0 {
		cs := []string{}
		for _, c := range t.Constraints {
			cs = append(cs, c.String())
		}
		s += " where " + strings.Join(cs, ", ")
	}
	return s
}

func (t TForall) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[string]bool))
}

func (t TForall) FreeTypeVariables() []TVar {
	bound := make(map[string]bool)
	for _, v := range t.Vars {
		bound[v.Name] = true
	}
	free := t.Type.FreeTypeVariables()
	for _, c := range t.Constraints {
		for _, arg := range c.Args {
			free = append(free, arg.FreeTypeVariables()...)
		}
	}
	result := []TVar{}
	for _, v := range free {
		if !bound[v.Name] {
			result = append(result, v)
		}
	}
	return uniqueTVars(result)
}

// Subst is a mapping from Type Variables to Types.
type Subst map[string]Type

// Compose combines two substitutions.
func (s1 Subst) Compose(s2 Subst) Subst {
	subst := Subst{}
	for k, v := range s2 {
		subst[k] = v
	}
	for k, v := range s1 {
		subst[k] = v.Apply(s2)
	}
	return subst
}

func uniqueTVars(vars []TVar) []TVar {
	unique := []TVar{}
	seen := map[string]bool{}
	for _, v := range vars {
		if !seen[v.Name] {
			seen[v.Name] = true
			unique = append(unique, v)
		}
	}
	return unique
}

func joinTypes(ts []Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}
