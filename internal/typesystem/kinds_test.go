package typesystem

import (
	"testing"
)

func TestKinds(t *testing.T) {
	if Star.String() != "*" {
		t.Errorf("KStar.String() = %s, want *", Star.String())
	}

	arrow := MakeArrow(Star, Star) // * -> *
	if arrow.String() != "(* -> *)" {
		t.Errorf("Arrow string = %s, want (* -> *)", arrow.String())
	}

	arrow2 := KArrow{Left: Star, Right: Star}
	if !arrow.Equal(arrow2) {
		t.Errorf("Arrows should be equal")
	}

	if arrow.Equal(Star) {
		t.Errorf("Arrow should not equal Star")
	}

	if got := Arity(TemplateKind(2)); got != 2 {
		t.Errorf("Arity(TemplateKind(2)) = %d, want 2", got)
	}
}

func TestTypeKinds(t *testing.T) {
	intType := TCon{Name: "int", KindVal: Star}
	listCon := TCon{Name: "List", KindVal: TemplateKind(1)}
	mapCon := TCon{Name: "Map", KindVal: TemplateKind(2)}

	tests := []struct {
		name     string
		typ      Type
		wantKind Kind
	}{
		{name: "int", typ: intType, wantKind: Star},
		{name: "List constructor", typ: listCon, wantKind: MakeArrow(Star, Star)},
		{name: "TVar", typ: TVar{Name: "T"}, wantKind: Star},
		{name: "List<int>", typ: TApp{Constructor: listCon, Args: []Type{intType}}, wantKind: Star},
		{name: "Map<int> partial", typ: TApp{Constructor: mapCon, Args: []Type{intType}}, wantKind: MakeArrow(Star, Star)},
		{name: "pointer", typ: TPointer{Elem: intType}, wantKind: Star},
		{name: "function", typ: TFunc{Params: []Type{intType}, ReturnType: intType}, wantKind: Star},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.typ.Kind()
			if !got.Equal(tt.wantKind) {
				t.Errorf("%s Kind() = %s, want %s", tt.name, got, tt.wantKind)
			}
		})
	}
}

func TestKindCheck(t *testing.T) {
	intType := TCon{Name: "int", KindVal: Star}
	listCon := TCon{Name: "List", KindVal: TemplateKind(1)}

	tests := []struct {
		name    string
		typ     Type
		wantErr bool
	}{
		{name: "List<int>", typ: TApp{Constructor: listCon, Args: []Type{intType}}},
		{name: "List<int, int>", typ: TApp{Constructor: listCon, Args: []Type{intType, intType}}, wantErr: true},
		{name: "int<int>", typ: TApp{Constructor: intType, Args: []Type{intType}}, wantErr: true},
		{name: "List*", typ: TPointer{Elem: listCon}, wantErr: true},
		{name: "fn(List) -> int", typ: TFunc{Params: []Type{listCon}, ReturnType: intType}, wantErr: true},
		{name: "List<int>&", typ: TRef{Elem: TApp{Constructor: listCon, Args: []Type{intType}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := KindCheck(tt.typ)
			if (err != nil) != tt.wantErr {
				t.Errorf("KindCheck(%s) error = %v, wantErr %v", tt.typ, err, tt.wantErr)
			}
		})
	}
}

func TestUnify(t *testing.T) {
	intType := TCon{Name: "int"}
	floatType := TCon{Name: "float"}
	complexCon := TCon{Name: "Complex", KindVal: TemplateKind(1)}
	tVar := TVar{Name: "T"}
	complexOf := func(arg Type) Type { return TApp{Constructor: complexCon, Args: []Type{arg}} }

	tests := []struct {
		name    string
		t1      Type
		t2      Type
		wantT   string
		wantErr bool
	}{
		{name: "Complex<T> ~ Complex<float>", t1: complexOf(tVar), t2: complexOf(floatType), wantT: "float"},
		{name: "T* ~ const int*", t1: TPointer{Elem: tVar}, t2: TPointer{Elem: TQual{Elem: intType, Const: true}}, wantT: "const int"},
		{name: "Complex<T> ~ int", t1: complexOf(tVar), t2: intType, wantErr: true},
		{name: "int ~ float", t1: intType, t2: floatType, wantErr: true},
		{name: "T& ~ int&&", t1: TRef{Elem: tVar}, t2: TRef{Elem: intType, RValue: true}, wantErr: true},
		{name: "T ~ T*", t1: tVar, t2: TPointer{Elem: tVar}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Unify(tt.t1, tt.t2)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unify() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && tt.wantT != "" {
				if got := s["T"].String(); got != tt.wantT {
					t.Errorf("T = %s, want %s", got, tt.wantT)
				}
			}
		})
	}
}
