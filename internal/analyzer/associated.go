package analyzer

import (
	"github.com/funvibe/concepts/internal/symbols"
	"github.com/funvibe/concepts/internal/typesystem"
)

// CommonType is std::common_type over any number of types: the decayed type
// of a conditional expression between declval operands, folded left.
func (a *Analyzer) CommonType(ts ...typesystem.Type) (typesystem.Type, bool) {
	if len(ts) == 0 {
		return nil, false
	}
	acc := a.Decay(ts[0])
	for _, t := range ts[1:] {
		next, ok := a.commonType2(acc, t)
		if !ok {
			return nil, false
		}
		acc = next
	}
	return acc, true
}

func (a *Analyzer) commonType2(x, y typesystem.Type) (typesystem.Type, bool) {
	dx, dy := a.Decay(x), a.Decay(y)
	if typesystem.Equal(dx, dy) {
		return dx, true
	}
	res, ok := a.conditional(Declval(dx), Declval(dy))
	if !ok {
		return nil, false
	}
	return a.Decay(res.Type), true
}

// MemberType resolves the nested type t::name, searching bases when the class
// itself does not declare it.
func (a *Analyzer) MemberType(t typesystem.Type, name string) (typesystem.Type, bool) {
	if _, isRef := typesystem.Canonical(t).(typesystem.TRef); isRef {
		return nil, false
	}
	inst, ok := a.u.Resolve(t)
	if !ok {
		return nil, false
	}
	return a.memberType(inst, name)
}

func (a *Analyzer) memberType(inst *symbols.Instance, name string) (typesystem.Type, bool) {
	if mt, ok := inst.MemberType(name); ok {
		return mt, true
	}
	for _, b := range inst.Bases() {
		if bi, ok := a.u.Resolve(b); ok {
			if mt, ok := a.memberType(bi, name); ok {
				return mt, true
			}
		}
	}
	return nil, false
}

// DifferenceType is iterator_traits<I>::difference_type: ptrdiff_t for
// object pointers, the declared member type otherwise.
func (a *Analyzer) DifferenceType(t typesystem.Type) (typesystem.Type, bool) {
	if _, ok := a.objectPointer(t); ok {
		return symbols.DifferenceType, true
	}
	return a.MemberType(t, "difference_type")
}

// AllocatorTraits is allocator_traits<A>::name: the member the allocator
// declares, or the default derived from its value_type.
func (a *Analyzer) AllocatorTraits(alloc typesystem.Type, name string) (typesystem.Type, bool) {
	if mt, ok := a.MemberType(alloc, name); ok {
		return mt, true
	}
	value, ok := a.MemberType(alloc, "value_type")
	if !ok {
		return nil, false
	}
	var t typesystem.Type
	switch name {
	case "value_type":
		t = value
	case "pointer":
		t = typesystem.TPointer{Elem: value}
	case "const_pointer":
		t = typesystem.TPointer{Elem: typesystem.WithQual(value, true, false)}
	case "void_pointer":
		t = typesystem.TPointer{Elem: voidType}
	case "const_void_pointer":
		t = typesystem.TPointer{Elem: typesystem.WithQual(voidType, true, false)}
	case "difference_type":
		t = symbols.DifferenceType
	case "size_type":
		diff, ok := a.AllocatorTraits(alloc, "difference_type")
		if !ok {
			return nil, false
		}
		_, dname, _ := fundamental(diff)
		uname, ok := unsignedOf[dname]
		if !ok {
			return nil, false
		}
		t = typesystem.TCon{Name: uname}
	default:
		return nil, false
	}
	return typesystem.Canonical(t), true
}
