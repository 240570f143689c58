package symbols

import (
	"errors"

	"github.com/funvibe/concepts/internal/typesystem"
)

var (
	ErrUnknownType   = errors.New("unknown type")
	ErrUnknownMember = errors.New("unknown member type")
	ErrDuplicate     = errors.New("duplicate declaration")
)

type Category int

const (
	Fundamental Category = iota
	Class
	Union
	Enum
)

func (c Category) String() string {
	switch c {
	case Fundamental:
		return "fundamental"
	case Class:
		return "class"
	case Union:
		return "union"
	case Enum:
		return "enum"
	}
	return "unknown"
}

// SpecialState describes how a special member function is declared.
type SpecialState int

const (
	Trivial      SpecialState = iota // implicitly declared, trivial
	Defaulted                        // implicitly declared or defaulted, non-trivial
	UserProvided                     // user-provided body
	Deleted                          // declared as deleted, still takes part in overload resolution
	Absent                           // not declared at all
)

func (s SpecialState) String() string {
	switch s {
	case Trivial:
		return "trivial"
	case Defaulted:
		return "defaulted"
	case UserProvided:
		return "user"
	case Deleted:
		return "deleted"
	case Absent:
		return "absent"
	}
	return "unknown"
}

// ParseSpecialState maps the catalog spelling of a state.
func ParseSpecialState(s string) (SpecialState, bool) {
	switch s {
	case "", "trivial":
		return Trivial, true
	case "defaulted":
		return Defaulted, true
	case "user":
		return UserProvided, true
	case "deleted":
		return Deleted, true
	case "absent":
		return Absent, true
	}
	return Trivial, false
}

type Special struct {
	State    SpecialState
	MayThrow bool
}

// Declared reports whether the member takes part in overload resolution.
func (s Special) Declared() bool { return s.State != Absent }

// Usable reports whether a call selecting the member is well-formed.
func (s Special) Usable() bool { return s.State != Absent && s.State != Deleted }

func (s Special) IsTrivial() bool { return s.State == Trivial }

type SpecialMembers struct {
	DefaultCtor Special
	CopyCtor    Special
	MoveCtor    Special
	CopyAssign  Special
	MoveAssign  Special
	Dtor        Special
}

type Flags struct {
	Polymorphic    bool
	Abstract       bool
	Empty          bool
	StandardLayout bool
	Literal        bool
	Final          bool
	VirtualDtor    bool
}

// Function describes a constructor, method, member operator, conversion
// operator or free function. Operators are named by their token: "==",
// "pre++", "post++", "unary*", "unary-", "[]", "()", "=", "+=".
type Function struct {
	Name       string
	TypeParams []string
	Params     []typesystem.Type
	Defaults   int             // trailing parameters with default arguments
	Result     typesystem.Type // nil means void
	Const      bool            // const-qualified member function
	Explicit   bool
	MayThrow   bool
}

func (f Function) IsTemplate() bool { return len(f.TypeParams) > 0 }

// MinArgs is the smallest argument count the function accepts.
func (f Function) MinArgs() int {
	return len(f.Params) - f.Defaults
}

// Apply substitutes class template parameters into the signature.
func (f Function) Apply(s typesystem.Subst) Function {
	if len(s) == 0 {
		return f
	}
	out := f
	out.Params = make([]typesystem.Type, len(f.Params))
	for i, p := range f.Params {
		out.Params[i] = p.Apply(s)
	}
	if f.Result != nil {
		out.Result = f.Result.Apply(s)
	}
	return out
}

// TypeDecl is a declared type: a fundamental type, a class, a union or an
// enumeration, possibly a template over Params.
type TypeDecl struct {
	Name        string
	Category    Category
	Params      []string
	Origin      string
	Scoped      bool            // scoped enumeration
	Underlying  typesystem.Type // enumeration underlying type
	Flags       Flags
	Bases       []typesystem.Type
	Special     SpecialMembers
	Ctors       []Function
	Conversions []Function
	MemberTypes map[string]typesystem.Type
	Methods     []Function
}

func (d *TypeDecl) IsTemplate() bool { return len(d.Params) > 0 }

// Kind returns the kind of the declared name: * for plain types, * -> ... for templates.
func (d *TypeDecl) Kind() typesystem.Kind {
	return typesystem.TemplateKind(len(d.Params))
}

// TypeVars returns the template parameters as type variables.
func (d *TypeDecl) TypeVars() []typesystem.Type {
	vars := make([]typesystem.Type, len(d.Params))
	for i, p := range d.Params {
		vars[i] = typesystem.TVar{Name: p}
	}
	return vars
}
