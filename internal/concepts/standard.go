package concepts

import (
	"fmt"
	"sync"

	"github.com/funvibe/concepts/internal/ast"
	"github.com/funvibe/concepts/internal/typesystem"
)

var (
	standard     *Library
	standardOnce sync.Once
)

// Standard returns the built-in concept vocabulary. It is built once and
// shared.
func Standard() *Library {
	standardOnce.Do(func() {
		lib, err := NewLibrary(standardConcepts()...)
		if err != nil {
			panic(fmt.Sprintf("standard concepts: %v", err))
		}
		standard = lib
	})
	return standard
}

// --- builders ---

func param(name string) ast.TypeFn           { return &ast.Param{Name: name} }
func pack(name string) ast.TypeFn            { return &ast.Pack{Name: name} }
func lref(t ast.TypeFn) ast.TypeFn           { return &ast.LRef{Of: t} }
func rref(t ast.TypeFn) ast.TypeFn           { return &ast.RRef{Of: t} }
func constOf(t ast.TypeFn) ast.TypeFn        { return &ast.Const{Of: t} }
func decltypeOf(x ast.Expr) ast.TypeFn       { return &ast.Decltype{Expr: x} }
func diffType(t ast.TypeFn) ast.TypeFn       { return &ast.DifferenceType{Of: t} }
func commonType(ts ...ast.TypeFn) ast.TypeFn { return &ast.CommonType{Args: ts} }

func member(owner ast.TypeFn, name string) ast.TypeFn {
	return &ast.Member{Owner: owner, Name: name}
}

func allocTraits(alloc ast.TypeFn, name string) ast.TypeFn {
	return &ast.AllocTraits{Alloc: alloc, Name: name}
}

func fixed(t typesystem.Type) ast.TypeFn { return &ast.TypeExpr{Type: t} }

func ref(name string, args ...ast.TypeFn) ast.Formula   { return &ast.Ref{Concept: name, Args: args} }
func trait(name string, args ...ast.TypeFn) ast.Formula { return &ast.Trait{Name: name, Args: args} }
func allOf(fs ...ast.Formula) ast.Formula               { return &ast.And{Terms: fs} }
func anyOf(fs ...ast.Formula) ast.Formula               { return &ast.Or{Terms: fs} }
func not(f ast.Formula) ast.Formula                     { return &ast.Not{Term: f} }

func requires(locals []*ast.Local, clauses ...ast.Clause) ast.Formula {
	return &ast.Requires{Locals: locals, Clauses: clauses}
}

// vars declares locals from name/type pairs.
func vars(pairs ...interface{}) []*ast.Local {
	var out []*ast.Local
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, &ast.Local{Name: pairs[i].(string), Type: pairs[i+1].(ast.TypeFn)})
	}
	return out
}

func valid(x ast.Expr) ast.Clause { return &ast.Valid{Expr: x} }
func returns(x ast.Expr, t ast.TypeFn) ast.Clause {
	return &ast.Returns{Expr: x, Shape: &ast.ConvertibleTo{Type: t}}
}
func boolean(x ast.Expr) ast.Clause {
	return &ast.Returns{Expr: x, Shape: &ast.Satisfies{Concept: "Boolean"}}
}
func noexcept(x ast.Expr) ast.Clause   { return &ast.Returns{Expr: x, Shape: &ast.Noexcept{}} }
func typename(t ast.TypeFn) ast.Clause { return &ast.TypeName{Type: t} }
func nested(f ast.Formula) ast.Clause  { return &ast.Nested{Formula: f} }

func v(name string) ast.Expr                { return &ast.Var{Name: name} }
func one() ast.Expr                         { return &ast.IntLit{} }
func un(op string, x ast.Expr) ast.Expr     { return &ast.Unary{Op: op, X: x} }
func bin(op string, x, y ast.Expr) ast.Expr { return &ast.Binary{Op: op, X: x, Y: y} }
func swap(x, y ast.Expr) ast.Expr           { return &ast.Swap{X: x, Y: y} }
func spread(name string) ast.Expr           { return &ast.Spread{Name: name} }

func call(f ast.Expr, args ...ast.Expr) ast.Expr {
	return &ast.Call{Fn: f, Args: args}
}

func method(recv ast.Expr, name string, args ...ast.Expr) ast.Expr {
	return &ast.Method{Recv: recv, Name: name, Args: args}
}

func cond(c, x, y ast.Expr) ast.Expr { return &ast.Cond{Cond: c, Then: x, Else: y} }

var (
	tA = param("A")
	tB = param("B")
	tC = param("C")
	tF = param("F")
	tH = param("H")
	tI = param("I")
	tK = param("K")
	tP = param("P")

	sizeT = fixed(typesystem.TCon{Name: "size_t"})
)

func unary(name, p string, body ast.Formula, doc string) Concept {
	return Concept{Name: name, Params: []string{p}, Body: body, Doc: doc}
}

// pair declares Name<A, B = A>.
func pair(name string, body ast.Formula, doc string) Concept {
	return Concept{Name: name, Params: []string{"A", "B"}, Defaults: map[string]string{"B": "A"}, Body: body, Doc: doc}
}

func helper(name string, body ast.Formula) Concept {
	c := pair(name, body, "")
	c.Hidden = true
	return c
}

// symmetric checks a helper in all four orderings.
func symmetric(helper string) ast.Formula {
	return allOf(ref(helper, tA), ref(helper, tB), ref(helper, tA, tB), ref(helper, tB, tA))
}

// forward checks a helper on each type and from A to B only.
func forward(helper string) ast.Formula {
	return allOf(ref(helper, tA), ref(helper, tB), ref(helper, tA, tB))
}

var traitConcepts = []struct{ name, doc string }{
	{"Void", "void, possibly cv-qualified"},
	{"Null", "the null pointer type"},
	{"Integral", "bool, character and integer types"},
	{"FloatingPoint", "float, double, long double"},
	{"ArithmeticType", "integral or floating point"},
	{"Array", "bounded or unbounded array"},
	{"Enum", "scoped or unscoped enumeration"},
	{"Union", ""},
	{"Class", "class type, not a union"},
	{"Function", ""},
	{"Pointer", "object or function pointer"},
	{"lValue", "lvalue reference"},
	{"rValue", "rvalue reference"},
	{"MemberObjectPointer", ""},
	{"MemberFunctionPointer", ""},
	{"Fundamental", "arithmetic, void or null pointer"},
	{"Scalar", ""},
	{"Object", "not a function, reference or void"},
	{"Compound", ""},
	{"Reference", ""},
	{"MemberPointer", ""},
	{"Const", ""},
	{"Volatile", ""},
	{"Trivial", ""},
	{"TriviallyCopyableType", "trivially copyable classification"},
	{"StandardLayout", ""},
	{"POD", ""},
	{"Literal", ""},
	{"Empty", ""},
	{"Polymorphic", ""},
	{"Abstract", ""},
	{"Signed", ""},
	{"Unsigned", ""},
	{"VirtualDestructor", ""},
	{"ConstReference", "const T&"},
}

func standardConcepts() []Concept {
	var cs []Concept

	cs = append(cs, unary("Boolean", "A", requires(vars("a", tA),
		valid(cond(v("a"), one(), one())),
		valid(cond(un("!", v("a")), one(), one())),
	), "usable as a condition, directly and negated"))

	for _, tc := range traitConcepts {
		cs = append(cs, unary(tc.name, "A", trait(tc.name, tA), tc.doc))
	}
	cs = append(cs,
		unary("PODType", "A", ref("POD", tA), ""),
		Concept{Name: "Same", Params: []string{"A", "B"}, Body: trait("Same", tA, tB)},
		Concept{Name: "Derived", Params: []string{"A", "B"}, Body: trait("Derived", tA, tB), Doc: "A derives from B"},
		Concept{Name: "Convertible", Params: []string{"A", "B"}, Body: trait("Convertible", tA, tB), Doc: "A implicitly converts to B"},
	)

	// construction, assignment and destruction
	for _, mode := range []string{"", "Trivially", "Nothrow"} {
		cs = append(cs,
			Concept{Name: mode + "Constructible", Params: []string{"A", "Args"}, Variadic: true,
				Body: trait(mode+"Constructible", tA, pack("Args"))},
			unary(mode+"DefaultConstructible", "A", ref(mode+"Constructible", tA), ""),
			unary(mode+"CopyConstructible", "A", ref(mode+"Constructible", tA, lref(constOf(tA))), ""),
			unary(mode+"MoveConstructible", "A", ref(mode+"Constructible", tA, rref(tA)), ""),
			Concept{Name: mode + "Assignable", Params: []string{"A", "B"}, Body: trait(mode+"Assignable", tA, tB)},
			unary(mode+"CopyAssignable", "A", ref(mode+"Assignable", lref(tA), lref(constOf(tA))), ""),
			unary(mode+"MoveAssignable", "A", ref(mode+"Assignable", lref(tA), rref(tA)), ""),
			unary(mode+"Destructible", "A", trait(mode+"Destructible", tA), ""),
		)
	}

	cs = append(cs,
		unary("Moveable", "A", allOf(ref("Object", tA), ref("MoveConstructible", tA), ref("MoveAssignable", tA)), ""),
		unary("TriviallyMoveable", "A", allOf(ref("Object", tA), ref("TriviallyMoveConstructible", tA), ref("TriviallyMoveAssignable", tA)), ""),
		unary("NothrowMoveable", "A", allOf(ref("Object", tA), ref("NothrowMoveConstructible", tA), ref("NothrowMoveAssignable", tA), ref("NothrowDestructible", tA)), ""),
		unary("Copyable", "A", allOf(ref("Object", tA), ref("CopyConstructible", tA), ref("CopyAssignable", tA)), ""),
		unary("TriviallyCopyable", "A", allOf(ref("Object", tA), ref("TriviallyCopyConstructible", tA), ref("TriviallyCopyAssignable", tA)), ""),
		unary("NothrowCopyable", "A", allOf(ref("Object", tA), ref("NothrowCopyConstructible", tA), ref("NothrowCopyAssignable", tA)), ""),
		Concept{Name: "Compatible", Params: []string{"A", "B"}, Body: allOf(ref("Convertible", tA, tB), ref("Convertible", tB, tA)),
			Doc: "each type converts to the other"},
		Concept{Name: "Common", Params: []string{"Args"}, Variadic: true,
			Body: requires(nil, typename(commonType(pack("Args")))), Doc: "the types have a common type"},
	)

	// callables
	callArgs := call(v("f"), spread("args"))
	cs = append(cs,
		Concept{Name: "Callable", Params: []string{"F", "Args"}, Variadic: true,
			Body: requires(vars("f", tF, "args", pack("Args")), valid(callArgs))},
		Concept{Name: "FunctionObject", Params: []string{"F", "Args"}, Variadic: true,
			Body: allOf(ref("Object", tF), ref("Callable", tF, pack("Args")))},
		Concept{Name: "Predicate", Params: []string{"F", "Args"}, Variadic: true,
			Body: requires(vars("f", tF, "args", pack("Args")), boolean(callArgs)),
			Doc:  "callable with a boolean-testable result"},
		Concept{Name: "UnaryPredicate", Params: []string{"F", "A"}, Body: ref("Predicate", tF, tA)},
		Concept{Name: "BinaryPredicate", Params: []string{"F", "A", "B"}, Body: ref("Predicate", tF, tA, tB)},
		Concept{Name: "Operator", Params: []string{"F", "Args"}, Variadic: true,
			Body: allOf(ref("Callable", tF, pack("Args")), requires(vars("f", tF, "args", pack("Args")),
				nested(not(ref("Void", decltypeOf(callArgs)))))),
			Doc: "callable with a non-void result"},
		Concept{Name: "UnaryOperator", Params: []string{"F", "A"}, Body: ref("Operator", tF, tA)},
		Concept{Name: "BinaryOperator", Params: []string{"F", "A", "B"}, Body: ref("Operator", tF, tA, tB)},
		unary("Dereferenceable", "P", allOf(ref("Object", tP), requires(vars("p", tP),
			valid(un("unary*", v("p"))),
			nested(ref("Reference", decltypeOf(un("unary*", v("p"))))),
		)), "*p yields a reference"),
	)

	// swap
	deref := func(name string) ast.TypeFn { return decltypeOf(un("unary*", v(name))) }
	cs = append(cs,
		helper("__Swappable", requires(vars("a", tA, "b", tB), valid(swap(v("a"), v("b"))))),
		pair("Swappable", symmetric("__Swappable"), "swap(a, b) in all four orderings"),
		helper("__NothrowSwappable", requires(vars("a", tA, "b", tB), noexcept(swap(v("a"), v("b"))))),
		pair("NothrowSwappable", symmetric("__NothrowSwappable"), ""),
		pair("ValueSwappable", allOf(ref("Dereferenceable", tA), ref("Dereferenceable", tB),
			requires(vars("a", tA, "b", tB), nested(ref("Swappable", deref("a"), deref("b"))))),
			"the referred values are swappable"),
		pair("NothrowValueSwappable", allOf(ref("Dereferenceable", tA), ref("Dereferenceable", tB),
			requires(vars("a", tA, "b", tB), nested(ref("NothrowSwappable", deref("a"), deref("b"))))), ""),
	)

	// equality and ordering
	ab := vars("a", tA, "b", tB)
	a, b := v("a"), v("b")
	cs = append(cs,
		helper("__EqualityComparable", requires(ab, boolean(bin("==", a, b)))),
		pair("EqualityComparable", symmetric("__EqualityComparable"), "a == b in all four orderings"),
		helper("__LessThanComparable", requires(ab, boolean(bin("<", a, b)))),
		pair("LessThanComparable", symmetric("__LessThanComparable"), ""),
		helper("__Comparable", requires(ab, boolean(bin("==", a, b)), boolean(bin("!=", a, b)))),
		pair("Comparable", symmetric("__Comparable"), "== and != in all four orderings"),
		helper("__Ordered", requires(ab,
			boolean(bin("<", a, b)), boolean(bin("<=", a, b)),
			boolean(bin(">", a, b)), boolean(bin(">=", a, b)))),
		pair("WeaklyOrdered", symmetric("__Ordered"), "the relational operators in all four orderings"),
		pair("Ordered", allOf(ref("WeaklyOrdered", tA, tB), ref("Comparable", tA, tB)), "WeaklyOrdered and Comparable"),
	)

	// increment and decrement
	la := vars("a", tA)
	cs = append(cs,
		unary("PreIncrementable", "A", requires(la, returns(un("pre++", a), lref(tA))), "++a yields A&"),
		unary("PostIncrementable", "A", requires(la, returns(un("post++", a), tA)), "a++ yields A"),
		unary("Incrementable", "A", allOf(ref("PreIncrementable", tA), ref("PostIncrementable", tA)), ""),
		unary("PreDecrementable", "A", requires(la, returns(un("pre--", a), lref(tA))), "--a yields A&"),
		unary("PostDecrementable", "A", requires(la, returns(un("post--", a), tA)), "a-- yields A"),
		unary("Decrementable", "A", allOf(ref("PreDecrementable", tA), ref("PostDecrementable", tA)), ""),
	)

	cs = append(cs, iteratorConcepts()...)
	cs = append(cs, arithmeticConcepts()...)
	cs = append(cs, containerConcepts()...)
	return cs
}

func iteratorConcepts() []Concept {
	it := vars("i", tI)
	star := decltypeOf(un("unary*", v("i")))
	i1, i2, n := v("i1"), v("i2"), v("n")
	cs := []Concept{
		unary("Iterator", "I", allOf(
			ref("Object", tI), ref("CopyConstructible", tI), ref("CopyAssignable", tI), ref("Destructible", tI),
			ref("Swappable", tI), ref("Dereferenceable", tI), ref("PreIncrementable", tI),
		), "copyable, swappable, dereferenceable and pre-incrementable"),
		unary("MutableIterator", "I", allOf(ref("Iterator", tI), requires(it, nested(not(ref("ConstReference", star))))), "*i is not a const reference"),
		unary("ConstIterator", "I", allOf(ref("Iterator", tI), requires(it, nested(ref("ConstReference", star)))), "*i is a const reference"),
		unary("OutputIterator", "I", ref("MutableIterator", tI), ""),
		unary("InputIterator", "I", allOf(ref("Iterator", tI), ref("Comparable", tI)), "Iterator with == and !="),
		unary("ForwardIterator", "I", allOf(ref("InputIterator", tI), ref("Incrementable", tI), ref("DefaultConstructible", tI)), ""),
		unary("BidirectionalIterator", "I", allOf(ref("ForwardIterator", tI), ref("Decrementable", tI)), ""),
		unary("RandomAccessIterator", "I", allOf(
			ref("BidirectionalIterator", tI), ref("Ordered", tI),
			requires(vars("i1", tI, "i2", tI, "n", diffType(tI)),
				returns(bin("-", i2, i1), diffType(tI)),
				returns(bin("+", i1, n), tI),
				returns(bin("+", n, i1), tI),
				returns(bin("-", i1, n), tI),
				returns(bin("+=", i1, n), tI),
				returns(bin("-=", i1, n), tI),
				valid(bin("[]", i1, n)),
				nested(ref("Reference", decltypeOf(bin("[]", i1, n)))),
			),
		), "distance arithmetic, ordering and subscripting"),
	}
	for _, level := range []string{"Input", "Forward", "Bidirectional", "RandomAccess"} {
		for _, flavour := range []string{"Mutable", "Const"} {
			cs = append(cs, unary(flavour+level+"Iterator", "I",
				allOf(ref(flavour+"Iterator", tI), ref(level+"Iterator", tI)), ""))
		}
	}
	return cs
}

func arithmeticConcepts() []Concept {
	a, b := v("a"), v("b")
	ab := vars("a", tA, "b", tB)
	common := commonType(tA, tB)
	cs := []Concept{
		helper("__ArithmeticAdd", requires(ab,
			returns(un("unary+", a), tA),
			returns(un("unary-", a), tA),
			returns(bin("+", a, b), common),
			returns(bin("-", a, b), common),
			returns(bin("+=", a, b), lref(tA)),
			returns(bin("-=", a, b), lref(tA)),
		)),
		pair("ArithmeticAdd", symmetric("__ArithmeticAdd"), "+a, -a, a + b, a - b, a += b, a -= b in all four orderings"),
		pair("CompatibleArithmeticAdd", forward("__ArithmeticAdd"), "ArithmeticAdd from A to B only"),
		helper("__ArithmeticMul", requires(ab,
			returns(bin("*", a, b), common),
			returns(bin("/", a, b), common),
			returns(bin("*=", a, b), lref(tA)),
			returns(bin("/=", a, b), lref(tA)),
		)),
		pair("ArithmeticMul", symmetric("__ArithmeticMul"), "a * b, a / b, a *= b, a /= b in all four orderings"),
		pair("CompatibleArithmeticMul", forward("__ArithmeticMul"), "ArithmeticMul from A to B only"),
		pair("Arithmetic", allOf(ref("ArithmeticAdd", tA, tB), ref("ArithmeticMul", tA, tB)), ""),
		pair("CompatibleArithmetic", allOf(ref("CompatibleArithmeticAdd", tA, tB), ref("CompatibleArithmeticMul", tA, tB)),
			"a scalar combines with a richer type without the reverse"),
		helper("__Bitmask", requires(ab,
			returns(un("~", a), tA),
			returns(bin("|", a, b), common),
			returns(bin("&", a, b), common),
			returns(bin("^", a, b), common),
			returns(bin("|=", a, b), lref(tA)),
			returns(bin("&=", a, b), lref(tA)),
			returns(bin("^=", a, b), lref(tA)),
		)),
		pair("Bitmask", symmetric("__Bitmask"), "~ | & ^ and their assignments in all four orderings"),
		pair("CompatibleBitmask", forward("__Bitmask"), "Bitmask from A to B only"),
		unary("ShiftableBitmask", "A", allOf(ref("Bitmask", tA), requires(vars("a", tA),
			returns(bin("<<", a, one()), tA),
			returns(bin(">>", a, one()), tA),
			returns(bin("<<=", a, one()), lref(tA)),
			returns(bin(">>=", a, one()), lref(tA)),
		)), "Bitmask that shifts in place and by value"),
	}
	return cs
}

func containerConcepts() []Concept {
	c := v("c")
	cv := vars("c", tC)
	mt := func(name string) ast.TypeFn { return member(tC, name) }
	pointer := allocTraits(tA, "pointer")
	return []Concept{
		unary("Container", "C", anyOf(ref("Array", tC), allOf(
			ref("Object", tC), ref("DefaultConstructible", tC), ref("CopyConstructible", tC), ref("Destructible", tC),
			ref("CopyAssignable", tC), ref("Comparable", tC), ref("Swappable", tC),
			requires(cv,
				typename(mt("value_type")),
				typename(mt("reference")),
				typename(mt("const_reference")),
				typename(mt("iterator")),
				typename(mt("const_iterator")),
				typename(mt("difference_type")),
				typename(mt("size_type")),
				returns(method(c, "size"), mt("size_type")),
				returns(method(c, "max_size"), mt("size_type")),
				boolean(method(c, "empty")),
				returns(method(c, "begin"), mt("iterator")),
				returns(method(c, "end"), mt("iterator")),
				returns(method(c, "cbegin"), mt("const_iterator")),
				returns(method(c, "cend"), mt("const_iterator")),
				nested(ref("InputIterator", mt("iterator"))),
				nested(ref("ConstInputIterator", mt("const_iterator"))),
			),
		)), "an array, or a regular object exposing the container types and accessors"),
		unary("ReversibleContainer", "C", anyOf(ref("Array", tC), allOf(
			ref("Container", tC),
			requires(cv,
				typename(mt("reverse_iterator")),
				typename(mt("const_reverse_iterator")),
				returns(method(c, "rbegin"), mt("reverse_iterator")),
				returns(method(c, "rend"), mt("reverse_iterator")),
				returns(method(c, "crbegin"), mt("const_reverse_iterator")),
				returns(method(c, "crend"), mt("const_reverse_iterator")),
				nested(ref("InputIterator", mt("reverse_iterator"))),
				nested(ref("ConstInputIterator", mt("const_reverse_iterator"))),
			),
		)), "a Container with reverse iteration"),
		unary("Allocator", "A", allOf(
			ref("Object", tA), ref("Moveable", tA), ref("Copyable", tA), ref("Comparable", tA),
			requires(vars("a", tA),
				typename(member(tA, "value_type")),
				typename(pointer),
				typename(allocTraits(tA, "const_pointer")),
				typename(allocTraits(tA, "void_pointer")),
				typename(allocTraits(tA, "value_type")),
				typename(allocTraits(tA, "size_type")),
				typename(allocTraits(tA, "difference_type")),
			),
			requires(vars("a", tA, "ptr", pointer),
				returns(method(v("a"), "allocate", one()), pointer),
				valid(method(v("a"), "deallocate", v("ptr"), one())),
			),
			ref("MutableRandomAccessIterator", pointer),
			ref("ConstRandomAccessIterator", allocTraits(tA, "const_pointer")),
		), "allocates and deallocates through random-access pointers"),
		Concept{Name: "Hash", Params: []string{"H", "K"}, Body: allOf(
			ref("CopyConstructible", tH), ref("Destructible", tH),
			requires(vars("h", tH, "k", tK), returns(call(v("h"), v("k")), sizeT)),
		), Doc: "h(k) yields a size_t"},
	}
}
