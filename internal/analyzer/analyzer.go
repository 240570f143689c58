// Package analyzer forms trial expressions over candidate types. Each
// expression is either formed, yielding a typed operand and a noexcept flag,
// or not formed; nothing is evaluated.
//
// The rules follow a C++-like object model: operands carry a value category,
// built-in operators apply promotions and the usual arithmetic conversions,
// and class operands go through overload resolution over the member and free
// functions declared in the universe.
//
// An Analyzer only reads its universe and is safe for concurrent use.
package analyzer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/funvibe/concepts/internal/symbols"
	"github.com/funvibe/concepts/internal/typesystem"
)

// ErrNotFormed is wrapped by every error reporting an ill-formed expression.
var ErrNotFormed = errors.New("expression not formed")

func notFormed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFormed, fmt.Sprintf(format, args...))
}

type ValueCategory int

const (
	PRValue ValueCategory = iota
	LValue
	XValue
)

func (c ValueCategory) String() string {
	switch c {
	case LValue:
		return "lvalue"
	case XValue:
		return "xvalue"
	default:
		return "prvalue"
	}
}

// Operand is the static description of an expression: its type, which is
// never a reference, and its value category.
type Operand struct {
	Type     typesystem.Type
	Category ValueCategory
}

func (o Operand) String() string {
	return o.Category.String() + " " + o.Type.String()
}

// Decltype is the declared type of the parenthesised expression: T& for an
// lvalue, T&& for an xvalue and T for a prvalue.
func (o Operand) Decltype() typesystem.Type {
	switch o.Category {
	case LValue:
		return typesystem.LRef(o.Type)
	case XValue:
		return typesystem.RRef(o.Type)
	}
	return o.Type
}

// Local is a named variable declared with type t. Naming a variable always
// yields an lvalue of the referred type.
func Local(t typesystem.Type) Operand {
	return Operand{Type: typesystem.StripRef(typesystem.Canonical(t)), Category: LValue}
}

// Declval is the operand of a call returning t&&, collapsed: an lvalue for
// lvalue references and an xvalue otherwise.
func Declval(t typesystem.Type) Operand {
	t = typesystem.Canonical(t)
	if r, ok := t.(typesystem.TRef); ok {
		if r.RValue {
			return Operand{Type: r.Elem, Category: XValue}
		}
		return Operand{Type: r.Elem, Category: LValue}
	}
	if _, ok := t.(typesystem.TFunc); ok {
		return Operand{Type: t, Category: LValue}
	}
	return Operand{Type: t, Category: XValue}
}

// Literal is an integer literal: a prvalue int.
func Literal() Operand {
	return Operand{Type: intType, Category: PRValue}
}

// Result of a formed expression.
type Result struct {
	Value    Operand
	Noexcept bool
}

func (r Result) String() string {
	s := r.Value.String()
	if r.Noexcept {
		s += " noexcept"
	}
	return s
}

type Analyzer struct {
	u *symbols.Universe
}

func New(u *symbols.Universe) *Analyzer {
	return &Analyzer{u: u}
}

func (a *Analyzer) Universe() *symbols.Universe {
	return a.u
}

// Prvalue is a temporary of type t. Non-class prvalues are never
// cv-qualified.
func (a *Analyzer) Prvalue(t typesystem.Type) Operand {
	t = typesystem.Canonical(t)
	if !a.isClass(t) {
		if _, isArray := t.(typesystem.TArray); !isArray {
			t = unqualified(t)
		}
	}
	return Operand{Type: t, Category: PRValue}
}

// returned is the operand produced by calling a function whose result type
// is t; nil means void.
func (a *Analyzer) returned(t typesystem.Type) Operand {
	if t == nil {
		return Operand{Type: voidType, Category: PRValue}
	}
	t = typesystem.Canonical(t)
	if r, ok := t.(typesystem.TRef); ok {
		if r.RValue {
			if _, isFunc := r.Elem.(typesystem.TFunc); !isFunc {
				return Operand{Type: r.Elem, Category: XValue}
			}
		}
		return Operand{Type: r.Elem, Category: LValue}
	}
	return a.Prvalue(t)
}

func describe(ops []Operand) string {
	parts := make([]string, len(ops))
	for i, o := range ops {
		parts[i] = o.String()
	}
	return strings.Join(parts, ", ")
}
