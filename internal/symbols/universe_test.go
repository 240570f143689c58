package symbols

import (
	"errors"
	"testing"

	"github.com/funvibe/concepts/internal/typesystem"
)

func listUniverse(t *testing.T) *Universe {
	t.Helper()
	u := NewUniverse()
	T := typesystem.TVar{Name: "T"}
	listOf := func(arg typesystem.Type) typesystem.Type {
		return typesystem.TApp{Constructor: typesystem.TCon{Name: "List"}, Args: []typesystem.Type{arg}}
	}
	iterOf := func(arg typesystem.Type) typesystem.Type {
		return typesystem.TApp{Constructor: typesystem.TCon{Name: "ListIter"}, Args: []typesystem.Type{arg}}
	}

	if err := u.DefineType(&TypeDecl{
		Name:     "ListIter",
		Category: Class,
		Params:   []string{"T"},
		MemberTypes: map[string]typesystem.Type{
			"reference":       typesystem.TRef{Elem: T},
			"difference_type": typesystem.TCon{Name: "ptrdiff_t"},
		},
		Methods: []Function{
			{Name: "unary*", Result: typesystem.TRef{Elem: T}, Const: true},
		},
	}); err != nil {
		t.Fatalf("DefineType(ListIter): %v", err)
	}
	if err := u.DefineType(&TypeDecl{
		Name:     "List",
		Category: Class,
		Params:   []string{"T"},
		MemberTypes: map[string]typesystem.Type{
			"value_type": T,
			"iterator":   iterOf(T),
			"size_type":  typesystem.TCon{Name: "size_t"},
		},
		Methods: []Function{
			{Name: "begin", Result: typesystem.TMember{Owner: listOf(T), Name: "iterator"}},
		},
	}); err != nil {
		t.Fatalf("DefineType(List): %v", err)
	}
	return u
}

func TestBuiltins(t *testing.T) {
	u := NewUniverse()
	for _, name := range []string{"int", "bool", "double", "void", "nullptr_t", "ullong"} {
		decl, ok := u.LookupType(name)
		if !ok {
			t.Errorf("builtin %s not found", name)
			continue
		}
		if decl.Category != Fundamental {
			t.Errorf("%s category = %s, want fundamental", name, decl.Category)
		}
	}

	info, ok := LookupFundamental("bool")
	if !ok || info.Signed || !info.Integral {
		t.Errorf("bool should be an unsigned integral type, got %+v", info)
	}
	if info, _ := LookupFundamental("char"); !info.Signed {
		t.Errorf("plain char should be signed")
	}
}

func TestNormalize(t *testing.T) {
	u := listUniverse(t)

	testCases := []struct {
		name  string
		input typesystem.Type
		want  string
	}{
		{
			name:  "alias",
			input: typesystem.TPointer{Elem: typesystem.TCon{Name: "size_t"}},
			want:  "ulong*",
		},
		{
			name:  "member type",
			input: typesystem.TMember{Owner: typesystem.TApp{Constructor: typesystem.TCon{Name: "List"}, Args: []typesystem.Type{typesystem.TCon{Name: "int"}}}, Name: "iterator"},
			want:  "ListIter<int>",
		},
		{
			name: "member of member",
			input: typesystem.TMember{
				Owner: typesystem.TMember{Owner: typesystem.TApp{Constructor: typesystem.TCon{Name: "List"}, Args: []typesystem.Type{typesystem.TCon{Name: "int"}}}, Name: "iterator"},
				Name:  "difference_type",
			},
			want: "long",
		},
		{
			name:  "const qualified owner",
			input: typesystem.TMember{Owner: typesystem.TQual{Elem: typesystem.TApp{Constructor: typesystem.TCon{Name: "List"}, Args: []typesystem.Type{typesystem.TCon{Name: "float"}}}, Const: true}, Name: "value_type"},
			want:  "float",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := u.Normalize(tc.input)
			if err != nil {
				t.Fatalf("Normalize(%s) error: %v", tc.input, err)
			}
			if got.String() != tc.want {
				t.Errorf("Normalize(%s) = %s, want %s", tc.input, got, tc.want)
			}
		})
	}
}

func TestNormalizeErrors(t *testing.T) {
	u := listUniverse(t)

	if _, err := u.Normalize(typesystem.TCon{Name: "Widget"}); !errors.Is(err, ErrUnknownType) {
		t.Errorf("expected ErrUnknownType, got %v", err)
	}
	if _, err := u.Normalize(typesystem.TCon{Name: "List"}); err == nil {
		t.Errorf("bare template name should not normalise")
	}
	listInt := typesystem.TApp{Constructor: typesystem.TCon{Name: "List"}, Args: []typesystem.Type{typesystem.TCon{Name: "int"}}}
	if _, err := u.Normalize(typesystem.TMember{Owner: listInt, Name: "reverse_iterator"}); !errors.Is(err, ErrUnknownMember) {
		t.Errorf("expected ErrUnknownMember, got %v", err)
	}
	if _, err := u.Normalize(typesystem.TMember{Owner: typesystem.TCon{Name: "int"}, Name: "value_type"}); !errors.Is(err, ErrUnknownMember) {
		t.Errorf("expected ErrUnknownMember for a fundamental owner, got %v", err)
	}
}

func TestInstanceMethods(t *testing.T) {
	u := listUniverse(t)
	listInt := typesystem.TApp{Constructor: typesystem.TCon{Name: "List"}, Args: []typesystem.Type{typesystem.TCon{Name: "int"}}}

	inst, ok := u.Resolve(listInt)
	if !ok {
		t.Fatalf("Resolve(%s) failed", listInt)
	}
	begins := inst.Methods("begin")
	if len(begins) != 1 {
		t.Fatalf("expected one begin overload, got %d", len(begins))
	}
	if got := begins[0].Result.String(); got != "ListIter<int>" {
		t.Errorf("begin() result = %s, want ListIter<int>", got)
	}

	// The declaration itself must stay generic.
	decl, _ := u.LookupType("List")
	if _, ok := decl.Methods[0].Result.(typesystem.TMember); !ok {
		t.Errorf("declaration was mutated: %s", decl.Methods[0].Result)
	}
}

func TestEnclosedUniverse(t *testing.T) {
	outer := listUniverse(t)
	inner := NewEnclosedUniverse(outer)

	if err := inner.DefineType(&TypeDecl{Name: "Widget", Category: Class}); err != nil {
		t.Fatalf("DefineType: %v", err)
	}
	if err := inner.DefineType(&TypeDecl{Name: "Widget", Category: Class}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
	if _, ok := inner.LookupType("List"); !ok {
		t.Errorf("outer declarations should be visible")
	}
	if _, ok := outer.LookupType("Widget"); ok {
		t.Errorf("inner declarations must not leak outwards")
	}

	before := inner.Fingerprint()
	inner.AddSource("widgets.yaml", []byte("types: [Widget]"))
	if inner.Fingerprint() == before {
		t.Errorf("fingerprint should change when a source is added")
	}
	if outer.Fingerprint() == inner.Fingerprint() {
		t.Errorf("inner and outer fingerprints should differ")
	}
}
