package analyzer_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/funvibe/concepts/internal/analyzer"
	"github.com/funvibe/concepts/internal/catalog"
	"github.com/funvibe/concepts/internal/parser"
	"github.com/funvibe/concepts/internal/typesystem"
)

func newAnalyzer(t *testing.T) *analyzer.Analyzer {
	t.Helper()
	return analyzer.New(catalog.MustPrelude())
}

func typ(t *testing.T, an *analyzer.Analyzer, src string) typesystem.Type {
	t.Helper()
	parsed, err := parser.ParseType(src)
	if err != nil {
		t.Fatalf("ParseType(%q): %v", src, err)
	}
	n, err := an.Universe().Normalize(parsed)
	if err != nil {
		t.Fatalf("Normalize(%q): %v", src, err)
	}
	return n
}

func TestUnaryOperators(t *testing.T) {
	an := newAnalyzer(t)

	tests := []struct {
		op      string
		operand string
		want    string // decltype of the result, empty when not formed
	}{
		{"pre++", "int", "int&"},
		{"post++", "int", "int"},
		{"pre--", "double", "double&"},
		{"pre++", "bool", ""},
		{"pre++", "const int", ""},
		{"pre++", "int*", "int*&"},
		{"pre++", "void*", ""},
		{"pre++", "ListIter<int>", "ListIter<int>&"},
		{"post--", "HashSetIter<int>", ""},
		{"unary-", "char", "int"},
		{"unary-", "Mode", "int"},
		{"unary-", "Color", ""},
		{"unary+", "Complex<float>", "Complex<float>"},
		{"~", "short", "int"},
		{"~", "float", ""},
		{"~", "ulong", "ulong"},
		{"!", "int*", "bool"},
		{"!", "Number", "bool"},
		{"!", "Color", ""},
		{"unary*", "int*", "int&"},
		{"unary*", "const int*", "const int&"},
		{"unary*", "void*", ""},
		{"unary*", "int[3]", "int&"},
		{"unary*", "ListIter<int>", "int&"},
		{"unary*", "HashSetIter<int>", "const int&"},
		{"unary*", "ReverseIterator<ListConstIter<int>>", "const int&"},
		{"unary&", "Foo", "Foo*"},
	}

	for _, tt := range tests {
		t.Run(tt.op+" "+tt.operand, func(t *testing.T) {
			res, err := an.Unary(tt.op, analyzer.Local(typ(t, an, tt.operand)))
			if tt.want == "" {
				if err == nil {
					t.Fatalf("expected %s %s not to be formed, got %s", tt.op, tt.operand, res)
				}
				if !errors.Is(err, analyzer.ErrNotFormed) {
					t.Errorf("error %v does not wrap ErrNotFormed", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := res.Value.Decltype().String(); got != tt.want {
				t.Errorf("decltype = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBinaryOperators(t *testing.T) {
	an := newAnalyzer(t)

	tests := []struct {
		op   string
		l, r string
		want string
	}{
		{"+", "int", "float", "float"},
		{"+", "char", "short", "int"},
		{"+", "int", "uint", "uint"},
		{"+", "long", "uint", "long"},
		{"+", "llong", "ulong", "ullong"},
		{"*", "float", "double", "double"},
		{"%", "int", "double", ""},
		{"|", "int", "int", "int"},
		{"|", "float", "float", ""},
		{"<<", "char", "long", "int"},
		{"<", "int", "float", "bool"},
		{"==", "int*", "const int*", "bool"},
		{"==", "int*", "nullptr_t", "bool"},
		{"<", "int*", "nullptr_t", ""},
		{"==", "Circle*", "Shape*", "bool"},
		{"==", "Color", "Color", "bool"},
		{"==", "Color", "int", ""},
		{"<", "Mode", "int", "bool"},
		{"+", "int*", "long", "int*"},
		{"+", "long", "int*", "int*"},
		{"-", "int*", "int*", "long"},
		{"-", "int*", "double*", ""},
		{"+=", "int", "double", "int&"},
		{"+=", "int*", "int", "int*&"},
		{"*=", "int*", "int", ""},
		{"<<=", "int", "int", "int&"},
		{"<<=", "float", "int", ""},
		{"=", "int", "double", "int&"},
		{"=", "Color", "int", ""},
		{"[]", "int*", "long", "int&"},
		{"[]", "Vector<int>", "int", "int&"},
		{"[]", "List<int>", "int", ""},
		{"&&", "int", "Number", "bool"},
		// Complex arithmetic: class templates with mixed operands
		{"+", "Complex<float>", "Complex<float>", "Complex<float>"},
		{"+", "Complex<float>", "float", "Complex<float>"},
		{"+", "float", "Complex<float>", "Complex<float>"},
		{"+", "Complex<float>", "int", ""},
		{"+=", "Complex<float>", "float", "Complex<float>&"},
		{"+=", "Complex<float>", "Complex<double>", "Complex<float>&"},
		{"+=", "float", "Complex<float>", ""},
		{"<", "Complex<float>", "Complex<float>", ""},
		{"==", "Complex<float>", "float", "bool"},
		// member operators and conversion functions
		{"==", "ListIter<int>", "ListIter<int>", "bool"},
		{"<", "ListIter<int>", "ListIter<int>", ""},
		{"+", "Number", "int", "int"},
		{"+", "Number", "double", "double"},
		{"==", "Allocator<int>", "Allocator<char>", "bool"},
		{"<", "String", "String", "bool"},
		{"=", "Widget", "Widget", ""}, // copy assignment is deleted
	}

	for _, tt := range tests {
		t.Run(tt.l+" "+tt.op+" "+tt.r, func(t *testing.T) {
			res, err := an.Binary(tt.op, analyzer.Local(typ(t, an, tt.l)), analyzer.Local(typ(t, an, tt.r)))
			if tt.want == "" {
				if err == nil {
					t.Fatalf("expected not formed, got %s", res)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := res.Value.Decltype().String(); got != tt.want {
				t.Errorf("decltype = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMoveOnlyAssignment(t *testing.T) {
	an := newAnalyzer(t)
	w := typ(t, an, "Widget")

	_, err := an.Binary("=", analyzer.Local(w), analyzer.Local(w))
	if err == nil || !strings.Contains(err.Error(), "deleted") {
		t.Fatalf("copy assignment of Widget should select the deleted operator, got %v", err)
	}
	res, err := an.Binary("=", analyzer.Local(w), analyzer.Declval(w))
	if err != nil {
		t.Fatalf("move assignment: %v", err)
	}
	if got := res.Value.Decltype().String(); got != "Widget&" {
		t.Errorf("decltype = %s, want Widget&", got)
	}
}

func TestMethodsAndCalls(t *testing.T) {
	an := newAnalyzer(t)

	list := analyzer.Local(typ(t, an, "List<int>"))
	constList := analyzer.Local(typ(t, an, "const List<int>"))

	tests := []struct {
		name string
		obj  analyzer.Operand
		args []analyzer.Operand
		want string
	}{
		{"size", list, nil, "ulong"},
		{"begin", list, nil, "ListIter<int>"},
		{"begin", constList, nil, "ListConstIter<int>"},
		{"rbegin", list, nil, "ReverseIterator<ListIter<int>>"},
		{"front", constList, nil, "const int&"},
		{"clear", constList, nil, ""},
		{"push_back", list, []analyzer.Operand{analyzer.Literal()}, "void"},
		{"missing", list, nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.obj.Type.String()+"."+tt.name, func(t *testing.T) {
			res, err := an.Method(tt.obj, tt.name, tt.args...)
			if tt.want == "" {
				if err == nil {
					t.Fatalf("expected not formed, got %s", res)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := res.Value.Decltype().String(); got != tt.want {
				t.Errorf("decltype = %s, want %s", got, tt.want)
			}
		})
	}

	t.Run("method declared by a base", func(t *testing.T) {
		res, err := an.Method(analyzer.Local(typ(t, an, "Circle")), "area")
		if err != nil || res.Value.Type.String() != "double" {
			t.Fatalf("Circle.area() = %v, %v", res, err)
		}
	})

	t.Run("function object", func(t *testing.T) {
		res, err := an.Call(analyzer.Local(typ(t, an, "Hash<int>")), analyzer.Local(typ(t, an, "int")))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Value.Type.String() != "ulong" || !res.Noexcept {
			t.Errorf("h(k) = %s, want noexcept prvalue ulong", res)
		}
	})

	t.Run("function pointer", func(t *testing.T) {
		fp := analyzer.Local(typ(t, an, "(fn(int, double) -> bool noexcept)*"))
		res, err := an.Call(fp, analyzer.Literal(), analyzer.Literal())
		if err != nil || !res.Noexcept {
			t.Fatalf("call = %v, %v", res, err)
		}
		if _, err := an.Call(fp, analyzer.Literal()); err == nil {
			t.Error("call with too few arguments should not be formed")
		}
	})
}

func TestSwap(t *testing.T) {
	an := newAnalyzer(t)

	tests := []struct {
		a, b     string
		formed   bool
		noexcept bool
	}{
		{"int", "int", true, true},
		{"int", "long", false, false},
		{"const int", "const int", false, false},
		{"int[3]", "int[3]", true, true},
		{"int[3]", "int[4]", false, false},
		{"List<int>", "List<int>", true, true},
		{"Widget", "Widget", true, true},
		{"Shape", "Shape", false, false},
		{"Complex<float>", "Complex<float>", true, true},
		{"String", "String", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.a+"<->"+tt.b, func(t *testing.T) {
			res, err := an.Swap(analyzer.Local(typ(t, an, tt.a)), analyzer.Local(typ(t, an, tt.b)))
			if (err == nil) != tt.formed {
				t.Fatalf("formed = %v, want %v (err %v)", err == nil, tt.formed, err)
			}
			if tt.formed && res.Noexcept != tt.noexcept {
				t.Errorf("noexcept = %v, want %v", res.Noexcept, tt.noexcept)
			}
		})
	}
}

func TestConversions(t *testing.T) {
	an := newAnalyzer(t)

	tests := []struct {
		from, to string
		want     bool
	}{
		{"int", "double", true},
		{"int", "int&", false},
		{"int&", "int&", true},
		{"int&", "const int&", true},
		{"int", "const int&", true},
		{"int", "int&&", true},
		{"int&", "int&&", false},
		{"int*", "const int*", true},
		{"const int*", "int*", false},
		{"int*", "void*", true},
		{"int*", "bool", true},
		{"nullptr_t", "Foo*", true},
		{"Circle*", "Shape*", true},
		{"Shape*", "Circle*", false},
		{"Mode", "int", true},
		{"int", "Mode", false},
		{"Color", "int", false},
		{"float", "Complex<float>", true},
		{"int", "Complex<float>", true},
		{"Complex<float>", "float", false},
		{"Number", "int", true},
		{"Number", "long", true},
		{"Number", "bool", true}, // through the implicit int conversion
		{"int", "Number", true},
		{"double", "ReverseIterator<ListIter<int>>", false},
		{"ListIter<int>", "ListConstIter<int>", true},
		{"Widget", "Widget", true},
		{"const Widget&", "Widget", false},
		{"Circle", "Circle", true},
		{"int[3]", "int*", true},
		{"void", "void", true},
		{"int", "void", false},
		{"const char*", "String", true},
	}
	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			if got := an.Convertible(typ(t, an, tt.from), typ(t, an, tt.to)); got != tt.want {
				t.Errorf("Convertible<%s, %s> = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestCommonType(t *testing.T) {
	an := newAnalyzer(t)

	tests := []struct {
		types []string
		want  string
	}{
		{[]string{"int"}, "int"},
		{[]string{"const int&"}, "int"},
		{[]string{"int", "float"}, "float"},
		{[]string{"char", "short"}, "int"},
		{[]string{"int", "int", "long"}, "long"},
		{[]string{"int*", "const int*"}, "const int*"},
		{[]string{"int*", "void*"}, "void*"},
		{[]string{"Circle*", "Shape*"}, "Shape*"},
		{[]string{"int[3]", "int*"}, "int*"},
		{[]string{"Complex<float>", "float"}, "Complex<float>"},
		{[]string{"float", "Complex<float>"}, "Complex<float>"},
		{[]string{"Number", "int"}, ""}, // converts both ways
		{[]string{"Foo", "int"}, ""},
		{[]string{"Circle", "Shape"}, ""}, // Shape is abstract
	}
	for _, tt := range tests {
		name := ""
		args := make([]typesystem.Type, len(tt.types))
		for i, s := range tt.types {
			args[i] = typ(t, an, s)
			name += s + ";"
		}
		t.Run(name, func(t *testing.T) {
			got, ok := an.CommonType(args...)
			if tt.want == "" {
				if ok {
					t.Fatalf("expected no common type, got %s", got)
				}
				return
			}
			if !ok {
				t.Fatalf("no common type, want %s", tt.want)
			}
			if got.String() != tt.want {
				t.Errorf("common type = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAssociatedTypes(t *testing.T) {
	an := newAnalyzer(t)

	t.Run("difference types", func(t *testing.T) {
		for src, want := range map[string]string{
			"int*":          "long",
			"const char*":   "long",
			"ListIter<int>": "long",
		} {
			got, ok := an.DifferenceType(typ(t, an, src))
			if !ok || got.String() != want {
				t.Errorf("DifferenceType(%s) = %v, %v; want %s", src, got, ok, want)
			}
		}
		if _, ok := an.DifferenceType(typ(t, an, "void*")); ok {
			t.Error("void* has no difference type")
		}
		if _, ok := an.DifferenceType(typ(t, an, "Foo")); ok {
			t.Error("Foo has no difference type")
		}
	})

	t.Run("allocator traits", func(t *testing.T) {
		alloc := typ(t, an, "Allocator<int>")
		for name, want := range map[string]string{
			"value_type":      "int",
			"pointer":         "int*",
			"const_pointer":   "const int*",
			"void_pointer":    "void*",
			"size_type":       "ulong",
			"difference_type": "long",
		} {
			got, ok := an.AllocatorTraits(alloc, name)
			if !ok || got.String() != want {
				t.Errorf("allocator_traits::%s = %v, %v; want %s", name, got, ok, want)
			}
		}
		if _, ok := an.AllocatorTraits(typ(t, an, "Foo"), "pointer"); ok {
			t.Error("Foo is not an allocator")
		}
	})

	t.Run("member types", func(t *testing.T) {
		got, ok := an.MemberType(typ(t, an, "ReverseIterator<ListConstIter<int>>"), "reference")
		if !ok || got.String() != "const int&" {
			t.Errorf("reference = %v, %v", got, ok)
		}
		if _, ok := an.MemberType(typ(t, an, "List<int>&"), "value_type"); ok {
			t.Error("references have no member types")
		}
	})
}
