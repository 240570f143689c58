package traits

import (
	"sort"

	"github.com/funvibe/concepts/internal/symbols"
	"github.com/funvibe/concepts/internal/typesystem"
)

// Predicate is a classification over one or two types.
type Predicate func(u *symbols.Universe, args ...typesystem.Type) bool

type Info struct {
	Name  string
	Arity int
	Eval  Predicate
}

func unary(f func(*symbols.Universe, typesystem.Type) bool) Predicate {
	return func(u *symbols.Universe, args ...typesystem.Type) bool { return f(u, args[0]) }
}

func binary(f func(*symbols.Universe, typesystem.Type, typesystem.Type) bool) Predicate {
	return func(u *symbols.Universe, args ...typesystem.Type) bool { return f(u, args[0], args[1]) }
}

var registry = map[string]Info{}

func register(name string, arity int, p Predicate) {
	registry[name] = Info{Name: name, Arity: arity, Eval: p}
}

func init() {
	register("Void", 1, unary(IsVoid))
	register("Null", 1, unary(IsNull))
	register("Integral", 1, unary(IsIntegral))
	register("FloatingPoint", 1, unary(IsFloatingPoint))
	register("ArithmeticType", 1, unary(IsArithmetic))
	register("Array", 1, unary(IsArray))
	register("Enum", 1, unary(IsEnum))
	register("Union", 1, unary(IsUnion))
	register("Class", 1, unary(IsClass))
	register("Function", 1, unary(IsFunction))
	register("Pointer", 1, unary(IsPointer))
	register("lValue", 1, unary(IsLValueReference))
	register("rValue", 1, unary(IsRValueReference))
	register("Reference", 1, unary(IsReference))
	register("MemberObjectPointer", 1, unary(IsMemberObjectPointer))
	register("MemberFunctionPointer", 1, unary(IsMemberFunctionPointer))
	register("MemberPointer", 1, unary(IsMemberPointer))
	register("Fundamental", 1, unary(IsFundamental))
	register("Scalar", 1, unary(IsScalar))
	register("Object", 1, unary(IsObject))
	register("Compound", 1, unary(IsCompound))
	register("Const", 1, unary(IsConst))
	register("Volatile", 1, unary(IsVolatile))
	register("Trivial", 1, unary(IsTrivial))
	register("TriviallyCopyableType", 1, unary(IsTriviallyCopyable))
	register("StandardLayout", 1, unary(IsStandardLayout))
	register("POD", 1, unary(IsPOD))
	register("Literal", 1, unary(IsLiteral))
	register("Empty", 1, unary(IsEmpty))
	register("Polymorphic", 1, unary(IsPolymorphic))
	register("Abstract", 1, unary(IsAbstract))
	register("Signed", 1, unary(IsSigned))
	register("Unsigned", 1, unary(IsUnsigned))
	register("VirtualDestructor", 1, unary(HasVirtualDestructor))
	register("ConstReference", 1, unary(IsConstReference))
	register("Same", 2, binary(IsSame))
	register("Derived", 2, binary(func(u *symbols.Universe, a, b typesystem.Type) bool {
		// Derived<A, B>: A derives from B.
		return IsBaseOf(u, b, a)
	}))
}

// Lookup returns the classification registered under name.
func Lookup(name string) (Info, bool) {
	info, ok := registry[name]
	return info, ok
}

// Names lists every registered classification, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
