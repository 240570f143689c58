package analyzer

import (
	"github.com/funvibe/concepts/internal/symbols"
	"github.com/funvibe/concepts/internal/traits"
	"github.com/funvibe/concepts/internal/typesystem"
)

// Mode selects the plain, trivial or nothrow flavour of a construction,
// assignment or destruction check.
type Mode int

const (
	Plain Mode = iota
	Trivially
	Nothrow
)

func (m Mode) String() string {
	switch m {
	case Trivially:
		return "trivially"
	case Nothrow:
		return "nothrow"
	default:
		return "plain"
	}
}

// selection is the outcome of choosing how an object gets initialised.
type selection struct {
	noexcept bool
	trivial  bool
}

func (s selection) satisfies(mode Mode) bool {
	switch mode {
	case Trivially:
		return s.trivial
	case Nothrow:
		return s.noexcept
	}
	return true
}

// Constructible is std::is_constructible and its trivially/nothrow variants:
// the definition T t(declval<Args>()...) is well-formed.
func (a *Analyzer) Constructible(mode Mode, t typesystem.Type, args ...typesystem.Type) bool {
	ops := make([]Operand, len(args))
	for i, arg := range args {
		if isVoid(arg) {
			return false
		}
		ops[i] = Declval(arg)
	}
	sel, ok := a.construct(t, ops, true, true)
	if !ok {
		return false
	}
	if a.isClass(t) {
		dtor, ok := a.destruction(t)
		if !ok {
			return false
		}
		sel.noexcept = sel.noexcept && dtor.noexcept
	}
	return sel.satisfies(mode)
}

// construct initialises an object of type t from args. direct admits
// explicit constructors and conversion functions.
func (a *Analyzer) construct(t typesystem.Type, args []Operand, direct, allowUser bool) (selection, bool) {
	t = typesystem.Canonical(t)
	switch typ := t.(type) {
	case typesystem.TRef:
		if len(args) != 1 {
			return selection{}, false
		}
		conv, ok := a.bindReference(args[0], typ, allowUser)
		return selection{noexcept: conv.noexcept, trivial: conv.rank != rankUserDefined}, ok
	case typesystem.TFunc:
		return selection{}, false
	case typesystem.TArray:
		if typ.Len == typesystem.Unbounded || len(args) != 0 {
			return selection{}, false
		}
		return a.construct(typ.Elem, nil, direct, allowUser)
	}
	if isVoid(t) {
		return selection{}, false
	}
	if a.isClass(t) {
		return a.constructClass(t, args, direct, allowUser)
	}

	switch len(args) {
	case 0:
		return selection{noexcept: true, trivial: true}, true
	case 1:
		x := args[0]
		if a.isClass(x.Type) {
			if !allowUser {
				return selection{}, false
			}
			conv, ok := a.userConversion(x, unqualified(t), direct)
			return selection{noexcept: conv.noexcept}, ok
		}
		_, ok := a.standardConversion(a.valueType(x.Type), t)
		return selection{noexcept: true, trivial: true}, ok
	}
	return selection{}, false
}

func (a *Analyzer) constructClass(t typesystem.Type, args []Operand, direct, allowUser bool) (selection, bool) {
	inst, ok := a.u.Resolve(t)
	if !ok || traits.IsAbstract(a.u, t) {
		return selection{}, false
	}
	self := unqualified(t)
	sm := inst.Decl.Special
	var cands []candidate
	if len(args) == 0 && sm.DefaultCtor.Declared() {
		cands = append(cands, candidate{fn: symbols.Function{Name: inst.Decl.Name}, special: &sm.DefaultCtor})
	}
	if len(args) == 1 {
		if sm.CopyCtor.Declared() {
			cands = append(cands, candidate{
				fn:      symbols.Function{Name: inst.Decl.Name, Params: []typesystem.Type{typesystem.ConstLRef(self)}},
				special: &sm.CopyCtor,
			})
		}
		if sm.MoveCtor.Declared() {
			cands = append(cands, candidate{
				fn:      symbols.Function{Name: inst.Decl.Name, Params: []typesystem.Type{typesystem.RRef(self)}},
				special: &sm.MoveCtor,
			})
		}
	}
	for _, ctor := range inst.Ctors() {
		if ctor.Explicit && !direct {
			continue
		}
		cands = append(cands, candidate{fn: ctor})
	}

	viable, best, ok := a.resolve(cands, args, allowUser)
	if len(viable) == 0 || !ok || !best.usable {
		return selection{}, false
	}
	return selection{noexcept: best.noexcept, trivial: best.trivial}, true
}

// Assignable is std::is_assignable and its variants: declval<T>() =
// declval<U>() is well-formed.
func (a *Analyzer) Assignable(mode Mode, t, u typesystem.Type) bool {
	if isVoid(t) || isVoid(u) {
		return false
	}
	m, err := a.resolveOperator("=", []Operand{Declval(t), Declval(u)})
	if err != nil {
		return false
	}
	return selection{noexcept: m.noexcept, trivial: m.trivial}.satisfies(mode)
}

// Destructible is std::is_destructible and its variants.
func (a *Analyzer) Destructible(mode Mode, t typesystem.Type) bool {
	sel, ok := a.destruction(t)
	return ok && sel.satisfies(mode)
}

func (a *Analyzer) destruction(t typesystem.Type) (selection, bool) {
	t = typesystem.Canonical(t)
	switch typ := t.(type) {
	case typesystem.TRef:
		return selection{noexcept: true, trivial: true}, true
	case typesystem.TFunc:
		return selection{}, false
	case typesystem.TArray:
		if typ.Len == typesystem.Unbounded {
			return selection{}, false
		}
		return a.destruction(typ.Elem)
	}
	if isVoid(t) {
		return selection{}, false
	}
	inst, ok := a.classInstance(t)
	if !ok {
		return selection{noexcept: true, trivial: true}, true
	}
	dtor := inst.Decl.Special.Dtor
	if !dtor.Usable() {
		return selection{}, false
	}
	sel := selection{noexcept: !dtor.MayThrow, trivial: dtor.IsTrivial()}
	for _, b := range inst.Bases() {
		bs, ok := a.destruction(b)
		if !ok {
			return selection{}, false
		}
		sel.trivial = sel.trivial && bs.trivial
		sel.noexcept = sel.noexcept && bs.noexcept
	}
	return sel, true
}
