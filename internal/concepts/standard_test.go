package concepts_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/concepts/internal/catalog"
	"github.com/funvibe/concepts/internal/concepts"
	"github.com/funvibe/concepts/internal/parser"
	"github.com/funvibe/concepts/internal/symbols"
	"github.com/funvibe/concepts/internal/typesystem"
)

func newEngine(t *testing.T, opts ...concepts.Option) *concepts.Engine {
	t.Helper()
	return concepts.NewEngine(concepts.Standard(), catalog.MustPrelude(), opts...)
}

func holds(t *testing.T, e *concepts.Engine, query string) bool {
	t.Helper()
	v, err := e.EvaluateQuery(context.Background(), query)
	require.NoError(t, err, query)
	return v.Satisfied
}

func types(t *testing.T, srcs ...string) []typesystem.Type {
	t.Helper()
	out := make([]typesystem.Type, len(srcs))
	for i, src := range srcs {
		typ, err := parser.ParseType(src)
		require.NoError(t, err, src)
		out[i] = typ
	}
	return out
}

func TestDemoBattery(t *testing.T) {
	e := newEngine(t)

	tests := []struct {
		query string
		want  bool
	}{
		{"Incrementable<int>", true},
		{"Bitmask<int>", true},
		{"Bitmask<float>", false},
		{"ShiftableBitmask<int>", true},
		{"Ordered<int, float>", true},
		{"Ordered<Complex<float>>", false},
		{"Arithmetic<int>", true},
		{"Arithmetic<Complex<float>>", true},
		{"CompatibleArithmetic<Complex<float>, float>", true},
		{"CompatibleArithmetic<float, Complex<float>>", false},
		{"Swappable<int>", true},
		{"ValueSwappable<int*>", true},
		{"RandomAccessIterator<int*>", true},
		{"BidirectionalIterator<List<int>::iterator>", true},
		{"RandomAccessIterator<List<int>::iterator>", false},
		{"ForwardIterator<HashSet<int>::iterator>", true},
		{"BidirectionalIterator<HashSet<int>::iterator>", false},
		{"ReversibleContainer<List<int>>", true},
		{"Container<HashSet<int>>", true},
		{"ReversibleContainer<HashSet<int>>", false},
		{"Container<int[]>", true},
		{"Allocator<Allocator<int>>", true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, holds(t, e, tt.query))
		})
	}
}

func TestVocabulary(t *testing.T) {
	e := newEngine(t)

	tests := []struct {
		query string
		want  bool
	}{
		{"Boolean<bool>", true},
		{"Boolean<int*>", true},
		{"Boolean<Complex<float>>", false},
		{"Integral<char>", true},
		{"Integral<float>", false},
		{"PODType<int>", true},
		{"Same<int, int>", true},
		{"Derived<Circle, Shape>", true},
		{"Derived<Shape, Circle>", false},
		{"Convertible<int, double>", true},
		{"Compatible<int, double>", true},
		{"Compatible<int, int*>", false},
		{"Common<int, float>", true},
		{"Common<int, int*>", false},
		{"Common<int, long, double>", true},
		{"DefaultConstructible<int>", true},
		{"DefaultConstructible<int&>", false},
		{"CopyConstructible<Widget>", false},
		{"MoveConstructible<Widget>", true},
		{"Moveable<Widget>", true},
		{"Copyable<Widget>", false},
		{"Copyable<Complex<float>>", true},
		{"TriviallyCopyable<int>", true},
		{"Constructible<Complex<float>, float, float>", true},
		{"Constructible<Complex<float>, float, float, float>", false},
		{"Constructible<Circle, double>", true},
		{"Convertible<double, Circle>", false},
		{"Destructible<int>", true},
		{"Destructible<void>", false},
		{"Callable<Hash<int>, int>", true},
		{"Callable<Hash<int>, int, int>", false},
		{"FunctionObject<Hash<int>, int>", true},
		{"Predicate<Hash<int>, int>", true},
		{"UnaryOperator<Hash<int>, int>", true},
		{"Dereferenceable<int*>", true},
		{"Dereferenceable<int>", false},
		{"Swappable<Widget>", true},
		{"Swappable<int, long>", false},
		{"EqualityComparable<Complex<float>, float>", true},
		{"LessThanComparable<int, double>", true},
		{"Iterator<int>", false},
		{"OutputIterator<List<int>::iterator>", true},
		{"MutableRandomAccessIterator<int*>", true},
		{"MutableRandomAccessIterator<const int*>", false},
		{"ConstRandomAccessIterator<const int*>", true},
		{"ConstForwardIterator<HashSet<int>::iterator>", true},
		{"MutableInputIterator<HashSet<int>::iterator>", false},
		{"Container<int[4]>", true},
		{"Container<int>", false},
		{"Hash<Hash<int>, int>", true},
		{"Hash<int, int>", false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, holds(t, e, tt.query))
		})
	}
}

var battery = []string{
	"int", "bool", "char", "float", "double", "int*", "const int*",
	"Complex<float>", "Complex<double>", "List<int>::iterator", "HashSet<int>::iterator",
	"Widget", "Mode", "Color",
}

func TestSymmetricPairLaw(t *testing.T) {
	e := newEngine(t)
	symmetric := []string{
		"EqualityComparable", "LessThanComparable", "Comparable", "WeaklyOrdered", "Ordered",
		"Swappable", "NothrowSwappable", "ArithmeticAdd", "ArithmeticMul", "Arithmetic", "Bitmask",
	}

	for _, name := range symmetric {
		t.Run(name, func(t *testing.T) {
			for _, a := range battery {
				for _, b := range battery {
					ab := holds(t, e, fmt.Sprintf("%s<%s, %s>", name, a, b))
					ba := holds(t, e, fmt.Sprintf("%s<%s, %s>", name, b, a))
					assert.Equal(t, ab, ba, "%s<%s, %s>", name, a, b)
				}
			}
		})
	}
}

func TestCompatibleArithmeticIsDirectional(t *testing.T) {
	e := newEngine(t)

	forward := holds(t, e, "CompatibleArithmetic<Complex<float>, float>")
	backward := holds(t, e, "CompatibleArithmetic<float, Complex<float>>")
	assert.NotEqual(t, forward, backward)

	// The symmetric family demands both directions.
	assert.False(t, holds(t, e, "Arithmetic<Complex<float>, float>"))
}

func TestIteratorHierarchy(t *testing.T) {
	e := newEngine(t)
	iterators := append([]string{
		"ListConstIter<int>", "ReverseIterator<List<int>::iterator>", "char*", "const char*",
		"void*", "int[3]", "Vector<int>::iterator",
	}, battery...)
	levels := []string{"RandomAccessIterator", "BidirectionalIterator", "ForwardIterator", "InputIterator", "Iterator"}

	for _, it := range iterators {
		t.Run(it, func(t *testing.T) {
			for i := 0; i+1 < len(levels); i++ {
				if holds(t, e, levels[i]+"<"+it+">") {
					assert.True(t, holds(t, e, levels[i+1]+"<"+it+">"), "%s<%s> without %s", levels[i], it, levels[i+1])
				}
			}
			for _, level := range levels {
				mutable := holds(t, e, "Mutable"+level+"<"+it+">")
				constant := holds(t, e, "Const"+level+"<"+it+">")
				assert.False(t, mutable && constant, "%s<%s> is both mutable and const", level, it)
				if mutable || constant {
					assert.True(t, holds(t, e, level+"<"+it+">"))
				}
			}
		})
	}
}

func TestCompositeEqualsFormula(t *testing.T) {
	e := newEngine(t)
	formulas := map[string][]string{
		"Ordered":               {"WeaklyOrdered", "Comparable"},
		"Arithmetic":            {"ArithmeticAdd", "ArithmeticMul"},
		"Incrementable":         {"PreIncrementable", "PostIncrementable"},
		"Decrementable":         {"PreDecrementable", "PostDecrementable"},
		"Moveable":              {"Object", "MoveConstructible", "MoveAssignable"},
		"Copyable":              {"Object", "CopyConstructible", "CopyAssignable"},
		"Iterator":              {"Object", "CopyConstructible", "CopyAssignable", "Destructible", "Swappable", "Dereferenceable", "PreIncrementable"},
		"InputIterator":         {"Iterator", "Comparable"},
		"ForwardIterator":       {"InputIterator", "Incrementable", "DefaultConstructible"},
		"BidirectionalIterator": {"ForwardIterator", "Decrementable"},
	}

	for name, parts := range formulas {
		t.Run(name, func(t *testing.T) {
			for _, typ := range battery {
				want := true
				for _, p := range parts {
					want = want && holds(t, e, p+"<"+typ+">")
				}
				assert.Equal(t, want, holds(t, e, name+"<"+typ+">"), "%s<%s>", name, typ)
			}
		})
	}
}

func TestIdempotence(t *testing.T) {
	e := newEngine(t)
	queries := []string{"Ordered<int, float>", "Ordered<Complex<float>>", "Allocator<Allocator<int>>"}

	for _, q := range queries {
		first, err := e.EvaluateQuery(context.Background(), q)
		require.NoError(t, err)
		second, err := e.EvaluateQuery(context.Background(), q)
		require.NoError(t, err)
		assert.Equal(t, first, second)

		e.Forget()
		fresh, err := e.EvaluateQuery(context.Background(), q)
		require.NoError(t, err)
		assert.Equal(t, first, fresh)
	}
}

func TestFailureNamesFirstFailingConstituent(t *testing.T) {
	e := newEngine(t)

	v, err := e.Evaluate("Ordered", types(t, "Complex<float>")...)
	require.NoError(t, err)
	require.False(t, v.Satisfied)
	require.NotNil(t, v.Failure)

	assert.Equal(t, []string{
		"WeaklyOrdered<Complex<float>, Complex<float>>",
		"__Ordered<Complex<float>>",
		"{a < b} -> Boolean",
	}, v.Failure.Chain())
	assert.Contains(t, v.Failure.Leaf().Reason, "operator<")

	v, err = e.Evaluate("BidirectionalIterator", types(t, "HashSet<int>::iterator")...)
	require.NoError(t, err)
	require.False(t, v.Satisfied)
	assert.Equal(t, "Decrementable<HashSetIter<int>>", v.Failure.Subject)
	assert.Equal(t, "{--a} -> A&", v.Failure.Leaf().Subject)
}

func TestTraitFailure(t *testing.T) {
	e := newEngine(t)

	v, err := e.Evaluate("Integral", types(t, "float")...)
	require.NoError(t, err)
	assert.False(t, v.Satisfied)
	assert.Equal(t, "Integral(float)", v.Failure.Subject)
	assert.Equal(t, "Integral<float>: Integral(float): does not hold", v.String())
}

const bitsCatalog = `
name: bits
types:
  - name: Mask
    flags: [standard_layout, literal]
    ctors:
      - params: [int]
    methods:
      - {name: "|=", params: ["const Mask&"], result: "Mask&"}
      - {name: "&=", params: ["const Mask&"], result: "Mask&"}
      - {name: "^=", params: ["const Mask&"], result: "Mask&"}
      - {name: "==", params: ["const Mask&"], result: bool, const: true}
      - {name: "!=", params: ["const Mask&"], result: bool, const: true}

  - name: ListAlloc
    params: [T]
    flags: [empty, standard_layout, literal]
    special:
      default_ctor: user
      copy_ctor: user
      move_ctor: absent
      move_assign: absent
      dtor: user
    member_types:
      value_type: T
      pointer: "ListIter<T>"
      const_pointer: "ListConstIter<T>"
      size_type: size_t
      difference_type: ptrdiff_t
    methods:
      - {name: allocate, params: [size_t], result: "ListIter<T>", throws: true}
      - {name: deallocate, params: ["ListIter<T>", size_t]}

functions:
  - {name: "~", params: ["const Mask&"], result: Mask}
  - {name: "|", params: ["const Mask&", "const Mask&"], result: Mask}
  - {name: "&", params: ["const Mask&", "const Mask&"], result: Mask}
  - {name: "^", params: ["const Mask&", "const Mask&"], result: Mask}
  - {name: "==", type_params: [T, U], params: ["const ListAlloc<T>&", "const ListAlloc<U>&"], result: bool}
  - {name: "!=", type_params: [T, U], params: ["const ListAlloc<T>&", "const ListAlloc<U>&"], result: bool}
`

func bitsEngine(t *testing.T) *concepts.Engine {
	t.Helper()
	c, err := catalog.Parse([]byte(bitsCatalog), "bits.yaml")
	require.NoError(t, err)
	u := symbols.NewEnclosedUniverse(catalog.MustPrelude())
	require.NoError(t, c.Install(u, []byte(bitsCatalog)))
	return concepts.NewEngine(concepts.Standard(), u)
}

func TestBitmaskFamily(t *testing.T) {
	e := bitsEngine(t)

	tests := []struct {
		query string
		want  bool
	}{
		{"Bitmask<Mask>", true},
		{"ShiftableBitmask<Mask>", false},
		{"ShiftableBitmask<uint>", true},
		{"CompatibleBitmask<Mask, Mask>", true},
		{"CompatibleBitmask<Mask, int>", true},
		{"CompatibleBitmask<int, Mask>", false},
		{"Bitmask<Mask, int>", false},
		{"CompatibleBitmask<float, float>", false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, holds(t, e, tt.query))
		})
	}

	v, err := e.EvaluateQuery(context.Background(), "ShiftableBitmask<Mask>")
	require.NoError(t, err)
	require.NotNil(t, v.Failure)
	assert.Contains(t, v.Failure.Leaf().Subject, "a << 1")
}

func TestAllocatorPointerMustBeRandomAccess(t *testing.T) {
	e := bitsEngine(t)

	assert.True(t, holds(t, e, "Allocator<Allocator<double>>"))
	assert.True(t, holds(t, e, "Comparable<ListAlloc<int>>"))
	assert.True(t, holds(t, e, "MutableBidirectionalIterator<ListAlloc<int>::pointer>"))

	v, err := e.EvaluateQuery(context.Background(), "Allocator<ListAlloc<int>>")
	require.NoError(t, err)
	require.False(t, v.Satisfied)
	assert.Equal(t, "MutableRandomAccessIterator<ListIter<int>>", v.Failure.Subject)
	assert.Contains(t, v.Failure.Chain(), "RandomAccessIterator<ListIter<int>>")
}
