package analyzer

import (
	"github.com/funvibe/concepts/internal/symbols"
	"github.com/funvibe/concepts/internal/traits"
	"github.com/funvibe/concepts/internal/typesystem"
)

// Ranks of implicit conversion sequences, best first.
const (
	rankExact = iota
	rankQualification
	rankPromotion
	rankConversion
	rankUserDefined
)

type conversion struct {
	rank     int
	noexcept bool
}

var exact = conversion{rank: rankExact, noexcept: true}

// ImplicitlyConvertible reports whether x copy-initialises an object or
// reference of type to.
func (a *Analyzer) ImplicitlyConvertible(x Operand, to typesystem.Type) bool {
	if isVoid(to) {
		return isVoid(x.Type)
	}
	_, ok := a.implicitConversion(x, to, true)
	return ok
}

// Convertible is std::is_convertible: a function returning to can return an
// expression of type from.
func (a *Analyzer) Convertible(from, to typesystem.Type) bool {
	to = typesystem.Canonical(to)
	if isVoid(to) {
		return isVoid(from)
	}
	switch to.(type) {
	case typesystem.TArray, typesystem.TFunc:
		return false
	}
	if isVoid(from) {
		return false
	}
	return a.ImplicitlyConvertible(Declval(from), to)
}

// implicitConversion forms the implicit conversion sequence from x to to.
// allowUser admits one user-defined conversion.
func (a *Analyzer) implicitConversion(x Operand, to typesystem.Type, allowUser bool) (conversion, bool) {
	to = typesystem.Canonical(to)
	if r, ok := to.(typesystem.TRef); ok {
		return a.bindReference(x, r, allowUser)
	}
	if isVoid(x.Type) || isVoid(to) {
		return conversion{}, false
	}
	target := unqualified(to)
	source := unqualified(x.Type)

	if a.isClass(target) {
		if a.isClass(source) && (typesystem.Equal(source, target) || traits.IsBaseOf(a.u, target, source)) {
			sel, ok := a.construct(target, []Operand{x}, false, false)
			if !ok {
				return conversion{}, false
			}
			rank := rankExact
			if !typesystem.Equal(source, target) {
				rank = rankConversion
			}
			return conversion{rank: rank, noexcept: sel.noexcept}, true
		}
		if !allowUser {
			return conversion{}, false
		}
		return a.userConversion(x, target, false)
	}
	if a.isClass(source) {
		if !allowUser {
			return conversion{}, false
		}
		return a.userConversion(x, target, false)
	}
	rank, ok := a.standardConversion(a.valueType(x.Type), target)
	return conversion{rank: rank, noexcept: true}, ok
}

// standardConversion converts between non-class value types.
func (a *Analyzer) standardConversion(from, to typesystem.Type) (int, bool) {
	from, to = unqualified(from), unqualified(to)
	if typesystem.Equal(from, to) {
		return rankExact, true
	}
	switch {
	case traits.IsArithmetic(a.u, to):
		if a.arithmeticLike(from) {
			if a.isPromotion(from, to) {
				return rankPromotion, true
			}
			return rankConversion, true
		}
		if isBool(to) && (traits.IsPointer(a.u, from) || traits.IsMemberPointer(a.u, from)) {
			return rankConversion, true
		}
	case traits.IsPointer(a.u, to):
		if isNull(from) {
			return rankConversion, true
		}
		fromElem, ok := pointee(from)
		if !ok {
			return 0, false
		}
		return a.pointerConversion(fromElem, to.(typesystem.TPointer).Elem)
	case traits.IsMemberPointer(a.u, to):
		if isNull(from) {
			return rankConversion, true
		}
	}
	return 0, false
}

func (a *Analyzer) isPromotion(from, to typesystem.Type) bool {
	_, fname, _ := fundamental(from)
	_, tname, _ := fundamental(to)
	if fname == "float" && tname == symbols.Double {
		return true
	}
	if !a.integralLike(from) {
		return false
	}
	return typesystem.Equal(a.promote(from), to)
}

// pointerConversion converts a pointer to fromElem into a pointer to toElem.
func (a *Analyzer) pointerConversion(fromElem, toElem typesystem.Type) (int, bool) {
	fu, fc, fv := typesystem.StripQual(typesystem.Canonical(fromElem))
	tu, tc, tv := typesystem.StripQual(typesystem.Canonical(toElem))
	if (fc && !tc) || (fv && !tv) {
		return 0, false
	}
	switch {
	case typesystem.Equal(fu, tu):
		if fc == tc && fv == tv {
			return rankExact, true
		}
		return rankQualification, true
	case isVoid(tu):
		if _, isFunc := fu.(typesystem.TFunc); isFunc {
			return 0, false
		}
		return rankConversion, true
	case traits.IsBaseOf(a.u, tu, fu):
		return rankConversion, true
	}
	ff, ok1 := fu.(typesystem.TFunc)
	tf, ok2 := tu.(typesystem.TFunc)
	if ok1 && ok2 && ff.Noexcept && !tf.Noexcept {
		ff.Noexcept = false
		if typesystem.Equal(ff, tf) {
			return rankQualification, true
		}
	}
	return 0, false
}

// bindReference binds a reference of type ref to x, directly when the types
// are reference-compatible and through a temporary otherwise.
func (a *Analyzer) bindReference(x Operand, ref typesystem.TRef, allowUser bool) (conversion, bool) {
	tu, tc, tv := typesystem.StripQual(typesystem.Canonical(ref.Elem))
	fu, fc, fv := typesystem.StripQual(typesystem.Canonical(x.Type))
	constOnly := tc && !tv

	if _, isFunc := tu.(typesystem.TFunc); isFunc {
		if x.Category == LValue && typesystem.Equal(tu, fu) {
			return exact, true
		}
		return conversion{}, false
	}

	same := typesystem.Equal(tu, fu)
	related := same || (a.isClass(tu) && a.isClass(fu) && traits.IsBaseOf(a.u, tu, fu))
	if related {
		if (fc && !tc) || (fv && !tv) {
			return conversion{}, false
		}
		rank := rankExact
		switch {
		case !same:
			rank = rankConversion
		case fc != tc || fv != tv:
			rank = rankQualification
		}
		switch {
		case !ref.RValue && x.Category == LValue:
			return conversion{rank: rank, noexcept: true}, true
		case !ref.RValue && constOnly:
			// rvalues prefer rvalue references
			return conversion{rank: max(rank, rankQualification), noexcept: true}, true
		case ref.RValue && x.Category != LValue:
			return conversion{rank: rank, noexcept: true}, true
		}
		return conversion{}, false
	}

	if !ref.RValue && !constOnly {
		return conversion{}, false
	}
	conv, ok := a.implicitConversion(x, tu, allowUser)
	if !ok {
		return conversion{}, false
	}
	return conv, true
}

// userConversion applies one converting constructor or conversion function.
// direct admits explicit ones.
func (a *Analyzer) userConversion(x Operand, target typesystem.Type, direct bool) (conversion, bool) {
	var viable []match

	if inst, ok := a.classInstance(target); ok && !traits.IsAbstract(a.u, target) {
		for _, ctor := range inst.Ctors() {
			if ctor.Explicit && !direct {
				continue
			}
			if m, ok := a.matchFunction(candidate{fn: ctor}, []Operand{x}, false); ok {
				m.result = a.Prvalue(target)
				viable = append(viable, m)
			}
		}
	}

	if inst, ok := a.classInstance(x.Type); ok {
		for _, conv := range a.conversionFunctions(inst) {
			if conv.Explicit && !direct {
				continue
			}
			obj := x
			m, ok := a.matchFunction(candidate{fn: conv, object: &obj}, nil, false)
			if !ok {
				continue
			}
			second, ok := a.implicitConversion(m.result, target, false)
			if !ok {
				continue
			}
			// The object rank is the first step; the second standard
			// conversion decides between conversion functions.
			m.ranks = []int{second.rank}
			m.noexcept = m.noexcept && second.noexcept
			viable = append(viable, m)
		}
	}

	best, ok := selectBest(viable)
	if !ok || !best.usable {
		return conversion{}, false
	}
	return conversion{rank: rankUserDefined, noexcept: best.noexcept}, true
}

// conversionFunctions collects the conversion operators of a class and its
// bases.
func (a *Analyzer) conversionFunctions(inst *symbols.Instance) []symbols.Function {
	out := inst.Conversions()
	for _, b := range inst.Bases() {
		if bi, ok := a.u.Resolve(b); ok {
			out = append(out, a.conversionFunctions(bi)...)
		}
	}
	return out
}

// contextualBool is the conversion of x in if, !, && and the condition of
// ?:, where explicit conversion functions apply.
func (a *Analyzer) contextualBool(x Operand) (conversion, bool) {
	if a.isClass(x.Type) {
		return a.userConversion(x, boolType, true)
	}
	v := a.valueType(x.Type)
	if isNull(v) {
		return conversion{rank: rankConversion, noexcept: true}, true
	}
	rank, ok := a.standardConversion(v, boolType)
	return conversion{rank: rank, noexcept: true}, ok
}
