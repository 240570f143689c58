package analyzer

import (
	"github.com/funvibe/concepts/internal/typesystem"
)

// Swap forms swap(x, y) as an unqualified call with the generic swap in
// scope: a declared swap overload wins, otherwise the generic one applies.
func (a *Analyzer) Swap(x, y Operand) (Result, error) {
	if res, err := a.Invoke("swap", x, y); err == nil {
		return res, nil
	}
	return a.genericSwap(x, y)
}

// genericSwap swaps two lvalues of one type through move construction and
// move assignment, and arrays of equal bound element by element.
func (a *Analyzer) genericSwap(x, y Operand) (Result, error) {
	if x.Category != LValue || y.Category != LValue {
		return Result{}, notFormed("swap needs lvalues, got %s", describe([]Operand{x, y}))
	}
	if !typesystem.Equal(x.Type, y.Type) {
		return Result{}, notFormed("no swap for %s", describe([]Operand{x, y}))
	}
	t := typesystem.Canonical(x.Type)
	if arr, ok := t.(typesystem.TArray); ok {
		if arr.Len == typesystem.Unbounded {
			return Result{}, notFormed("cannot swap arrays of unknown bound")
		}
		elem := Local(arr.Elem)
		return a.Swap(elem, elem)
	}
	if !a.Constructible(Plain, t, typesystem.RRef(t)) {
		return Result{}, notFormed("swap: %s is not move constructible", t)
	}
	if !a.Assignable(Plain, typesystem.LRef(t), typesystem.RRef(t)) {
		return Result{}, notFormed("swap: %s is not move assignable", t)
	}
	nothrow := a.Constructible(Nothrow, t, typesystem.RRef(t)) && a.Assignable(Nothrow, typesystem.LRef(t), typesystem.RRef(t))
	return Result{Value: Operand{Type: voidType, Category: PRValue}, Noexcept: nothrow}, nil
}
