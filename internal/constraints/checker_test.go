package constraints

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/concepts/internal/catalog"
	"github.com/funvibe/concepts/internal/concepts"
	"github.com/funvibe/concepts/internal/diagnostics"
	"github.com/funvibe/concepts/internal/parser"
	"github.com/funvibe/concepts/internal/symbols"
	"github.com/funvibe/concepts/internal/typesystem"
)

type countingRecorder struct {
	mu    sync.Mutex
	calls map[string]int
}

func (r *countingRecorder) Instantiated(algorithm string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calls == nil {
		r.calls = map[string]int{}
	}
	r.calls[algorithm]++
}

func newChecker(t *testing.T, opts ...Option) *Checker {
	t.Helper()
	return NewChecker(concepts.NewEngine(concepts.Standard(), catalog.MustPrelude()), opts...)
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

func TestInstantiate(t *testing.T) {
	c := newChecker(t)
	ctx := context.Background()

	sort := MustParse("sort: forall I. (I, I) -> void where MutableRandomAccessIterator<I>")
	inst, err := c.Instantiate(ctx, sort, types(t, "int*")...)
	require.NoError(t, err)
	assert.Equal(t, "fn(int*, int*) -> void", inst.Signature.String())
	assert.Equal(t, []string{"int*"}, inst.Args)
	require.Len(t, inst.Verdicts, 1)
	assert.True(t, inst.Verdicts[0].Satisfied)
	assert.Equal(t, "sort<int*>: fn(int*, int*) -> void", inst.String())

	swapRanges := MustParse("swapRanges: forall I J. (I, I, J) -> J where ForwardIterator<I>, ValueSwappable<I, J>")
	inst, err = c.Instantiate(ctx, swapRanges, types(t, "List<int>::iterator", "int*")...)
	require.NoError(t, err)
	assert.Equal(t, "fn(ListIter<int>, ListIter<int>, int*) -> int*", inst.Signature.String())
	assert.Len(t, inst.Verdicts, 2)
}

func TestInstantiateUnmet(t *testing.T) {
	c := newChecker(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		decl     string
		args     []string
		code     diagnostics.ErrorCode
		chain    []string
		contains string
	}{
		{
			name:  "composite",
			decl:  "sort: forall I. (I, I) -> void where MutableRandomAccessIterator<I>",
			args:  []string{"List<int>::iterator"},
			code:  diagnostics.ErrC002,
			chain: []string{"MutableRandomAccessIterator<ListIter<int>>", "RandomAccessIterator<ListIter<int>>"},
		},
		{
			name:     "trait",
			decl:     "abs: forall T. (T) -> T where Integral<T>",
			args:     []string{"float"},
			code:     diagnostics.ErrC001,
			chain:    []string{"Integral<float>", "Integral(float)"},
			contains: "does not hold",
		},
		{
			name:     "operation",
			decl:     "advance: forall I. (I&) -> void where PreDecrementable<I>",
			args:     []string{"HashSet<int>::iterator"},
			code:     diagnostics.ErrC001,
			chain:    []string{"PreDecrementable<HashSetIter<int>>", "{--a} -> A&"},
			contains: "advance<HashSetIter<int>>",
		},
		{
			name:     "second constraint",
			decl:     "reverse: forall I. (I, I) -> void where ForwardIterator<I>, BidirectionalIterator<I>",
			args:     []string{"HashSet<int>::iterator"},
			code:     diagnostics.ErrC002,
			chain:    []string{"BidirectionalIterator<HashSetIter<int>>", "Decrementable<HashSetIter<int>>"},
			contains: "reverse<HashSetIter<int>>",
		},
		{
			name:     "missing associated type",
			decl:     "first: forall C. (C&) -> void where InputIterator<C::iterator>",
			args:     []string{"int"},
			code:     diagnostics.ErrC002,
			chain:    []string{"InputIterator<int::iterator>", "int::iterator"},
			contains: "first<int>: InputIterator<int::iterator>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Instantiate(ctx, MustParse(tt.decl), types(t, tt.args...)...)
			require.Error(t, err)

			var unmet *UnmetConstraintError
			require.True(t, errors.As(err, &unmet), "got %T: %v", err, err)
			assert.Equal(t, tt.code, unmet.Code())
			assert.True(t, errors.Is(err, diagnostics.Code(tt.code)))
			assert.Equal(t, tt.chain, unmet.Chain()[:len(tt.chain)])
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}

			var decl *DeclarationError
			assert.False(t, errors.As(err, &decl))
		})
	}
}

func TestValidate(t *testing.T) {
	c := newChecker(t)

	tests := []struct {
		name    string
		alg     *Algorithm
		wantErr error
		msg     string
	}{
		{
			name:    "unknown concept",
			alg:     MustParse("sort: forall I. (I, I) -> void where Sortable<I>"),
			wantErr: concepts.ErrUnknownConcept,
			msg:     "sort: Sortable<I>",
		},
		{
			name:    "arity",
			alg:     MustParse("eq: forall T. (T, T) -> bool where Same<T>"),
			wantErr: concepts.ErrArity,
			msg:     "Same takes 2, got 1",
		},
		{
			name:    "unknown type in constraint",
			alg:     MustParse("f: forall T. (T) -> void where Same<T, Gizmo>"),
			wantErr: symbols.ErrUnknownType,
			msg:     "Gizmo",
		},
		{
			name:    "unknown type in signature",
			alg:     MustParse("g: forall T. (T, Gizmo) -> void where Integral<T>"),
			wantErr: symbols.ErrUnknownType,
			msg:     "C003",
		},
		{
			name: "undeclared parameter",
			alg: &Algorithm{Name: "h", Signature: typesystem.TForall{
				Vars: []typesystem.TVar{{Name: "T"}},
				Type: typesystem.TFunc{Params: []typesystem.Type{typesystem.TVar{Name: "T"}}},
				Constraints: []typesystem.Constraint{
					{Trait: "Swappable", Args: []typesystem.Type{typesystem.TVar{Name: "T"}, typesystem.TVar{Name: "U"}}},
				},
			}},
			wantErr: ErrUnknownParameter,
			msg:     "unknown type parameter: U",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Validate(tt.alg)
			require.Error(t, err)

			var decl *DeclarationError
			require.True(t, errors.As(err, &decl), "got %T: %v", err, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, diagnostics.Code(diagnostics.ErrC003))
			assert.Contains(t, err.Error(), tt.msg)

			code, ok := diagnostics.CodeOf(err)
			assert.True(t, ok)
			assert.Equal(t, diagnostics.ErrC003, code)

			_, err = c.Instantiate(context.Background(), tt.alg, types(t, "int")...)
			assert.True(t, errors.As(err, &decl))
		})
	}
}

func TestInstantiateArguments(t *testing.T) {
	c := newChecker(t)
	ctx := context.Background()
	sort := MustParse("sort: forall I. (I, I) -> void where RandomAccessIterator<I>")

	_, err := c.Instantiate(ctx, sort, types(t, "int*", "int*")...)
	assert.ErrorIs(t, err, ErrTypeArguments)

	_, err = c.Instantiate(ctx, sort, types(t, "Gizmo")...)
	assert.ErrorIs(t, err, symbols.ErrUnknownType)

	_, err = c.Instantiate(ctx, sort, typesystem.TVar{Name: "X"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a concrete type")
}

func TestInstantiationsAreMemoised(t *testing.T) {
	rec := &countingRecorder{}
	c := newChecker(t, WithRecorder(rec))
	ctx := context.Background()
	sort := MustParse("sort: forall I. (I, I) -> void where RandomAccessIterator<I>")

	first, err := c.Instantiate(ctx, sort, types(t, "int*")...)
	require.NoError(t, err)
	second, err := c.Instantiate(ctx, sort, types(t, "int*")...)
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err1 := c.Instantiate(ctx, sort, types(t, "List<int>::iterator")...)
	_, err2 := c.Instantiate(ctx, sort, types(t, "List<int>::iterator")...)
	require.Error(t, err1)
	assert.Equal(t, err1, err2)
	assert.Equal(t, 2, rec.calls["sort"])

	c.Forget()
	_, err = c.Instantiate(ctx, sort, types(t, "int*")...)
	require.NoError(t, err)
	assert.Equal(t, 3, rec.calls["sort"])
}

func TestParseErrorsAreSyntaxDiagnostics(t *testing.T) {
	_, err := Parse("sort: (I) -> void")
	require.Error(t, err)
	code, ok := diagnostics.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, diagnostics.ErrC004, code)
}
