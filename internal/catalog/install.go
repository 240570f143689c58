package catalog

import (
	"fmt"

	"github.com/funvibe/concepts/internal/diagnostics"
	"github.com/funvibe/concepts/internal/parser"
	"github.com/funvibe/concepts/internal/symbols"
	"github.com/funvibe/concepts/internal/typesystem"
)

// Install declares every type, alias and function of the catalog in u and
// then checks that all type expressions resolve. Content is folded into the
// universe fingerprint.
func (c *Catalog) Install(u *symbols.Universe, content []byte) error {
	for alias, expr := range c.Aliases {
		t, err := parser.ParseType(expr)
		if err != nil {
			return c.errorf(err, "alias %s", alias)
		}
		if err := u.DefineAlias(alias, t); err != nil {
			return c.errorf(err, "alias %s", alias)
		}
	}

	decls := make([]*symbols.TypeDecl, 0, len(c.Types))
	for _, spec := range c.Types {
		decl, err := c.buildDecl(spec)
		if err != nil {
			return err
		}
		if err := u.DefineType(decl); err != nil {
			return c.errorf(err, "type %s", spec.Name)
		}
		decls = append(decls, decl)
	}

	fns := make([]symbols.Function, 0, len(c.Functions))
	for _, spec := range c.Functions {
		fn, err := buildFunction(spec, nil)
		if err != nil {
			return c.errorf(err, "function %s", spec.Name)
		}
		u.DefineFunction(fn)
		fns = append(fns, fn)
	}

	// Second pass: every name used must now be declared somewhere.
	for _, decl := range decls {
		if err := checkDecl(u, decl); err != nil {
			return c.errorf(err, "type %s", decl.Name)
		}
	}
	for _, fn := range fns {
		if err := checkFunction(u, fn); err != nil {
			return c.errorf(err, "function %s", fn.Name)
		}
	}

	u.AddSource(c.Name, content)
	return nil
}

func (c *Catalog) errorf(cause error, format string, args ...interface{}) error {
	d := diagnostics.Wrap(diagnostics.ErrC005, cause, format, args...)
	d.Pos.File = c.Name
	return d
}

func (c *Catalog) buildDecl(spec TypeSpec) (*symbols.TypeDecl, error) {
	decl := &symbols.TypeDecl{
		Name:        spec.Name,
		Params:      spec.Params,
		Origin:      c.Name,
		Scoped:      spec.Scoped,
		MemberTypes: make(map[string]typesystem.Type, len(spec.MemberTypes)),
	}
	vars := spec.Params

	switch spec.Kind {
	case "union":
		decl.Category = symbols.Union
	case "enum":
		decl.Category = symbols.Enum
		underlying, err := parser.ParseType(spec.Underlying)
		if err != nil {
			return nil, c.errorf(err, "type %s: underlying", spec.Name)
		}
		decl.Underlying = underlying
	default:
		decl.Category = symbols.Class
	}

	for _, f := range spec.Flags {
		switch f {
		case "polymorphic":
			decl.Flags.Polymorphic = true
		case "abstract":
			decl.Flags.Abstract = true
			decl.Flags.Polymorphic = true
		case "empty":
			decl.Flags.Empty = true
		case "standard_layout":
			decl.Flags.StandardLayout = true
		case "literal":
			decl.Flags.Literal = true
		case "final":
			decl.Flags.Final = true
		case "virtual_destructor":
			decl.Flags.VirtualDtor = true
			decl.Flags.Polymorphic = true
		}
	}
	if decl.Category == symbols.Enum {
		decl.Flags.StandardLayout = true
		decl.Flags.Literal = true
	}

	for _, b := range spec.Bases {
		t, err := parser.ParseType(b, vars...)
		if err != nil {
			return nil, c.errorf(err, "type %s: base %s", spec.Name, b)
		}
		decl.Bases = append(decl.Bases, t)
	}

	special, err := buildSpecial(spec.Special)
	if err != nil {
		return nil, c.errorf(err, "type %s", spec.Name)
	}
	decl.Special = special

	for i, ctor := range spec.Ctors {
		fn, err := buildFunction(ctor, vars)
		if err != nil {
			return nil, c.errorf(err, "type %s: ctors[%d]", spec.Name, i)
		}
		fn.Name = spec.Name
		decl.Ctors = append(decl.Ctors, fn)
	}

	for i, conv := range spec.Conversions {
		to, err := parser.ParseType(conv.To, vars...)
		if err != nil {
			return nil, c.errorf(err, "type %s: conversions[%d]", spec.Name, i)
		}
		decl.Conversions = append(decl.Conversions, symbols.Function{
			Name:     "operator " + to.String(),
			Result:   to,
			Const:    true,
			Explicit: conv.Explicit,
			MayThrow: conv.Throws,
		})
	}

	for name, expr := range spec.MemberTypes {
		t, err := parser.ParseType(expr, vars...)
		if err != nil {
			return nil, c.errorf(err, "type %s: member type %s", spec.Name, name)
		}
		decl.MemberTypes[name] = t
	}

	for _, m := range spec.Methods {
		fn, err := buildFunction(m, vars)
		if err != nil {
			return nil, c.errorf(err, "type %s: method %s", spec.Name, m.Name)
		}
		decl.Methods = append(decl.Methods, fn)
	}
	return decl, nil
}

func buildSpecial(spec SpecialSpec) (symbols.SpecialMembers, error) {
	var sm symbols.SpecialMembers
	targets := []struct {
		in  MemberState
		out *symbols.Special
	}{
		{spec.DefaultCtor, &sm.DefaultCtor},
		{spec.CopyCtor, &sm.CopyCtor},
		{spec.MoveCtor, &sm.MoveCtor},
		{spec.CopyAssign, &sm.CopyAssign},
		{spec.MoveAssign, &sm.MoveAssign},
		{spec.Dtor, &sm.Dtor},
	}
	for _, t := range targets {
		state, ok := symbols.ParseSpecialState(t.in.State)
		if !ok {
			return sm, fmt.Errorf("unknown special member state %q", t.in.State)
		}
		*t.out = symbols.Special{State: state, MayThrow: t.in.Throws}
	}
	return sm, nil
}

// buildFunction parses a signature. classVars are the enclosing template
// parameters; the function's own type parameters are added to them.
func buildFunction(spec FunctionSpec, classVars []string) (symbols.Function, error) {
	vars := append(append([]string(nil), classVars...), spec.TypeParams...)
	fn := symbols.Function{
		Name:       spec.Name,
		TypeParams: spec.TypeParams,
		Defaults:   spec.Defaults,
		Const:      spec.Const,
		Explicit:   spec.Explicit,
		MayThrow:   spec.Throws,
	}
	for _, p := range spec.Params {
		t, err := parser.ParseType(p, vars...)
		if err != nil {
			return fn, err
		}
		fn.Params = append(fn.Params, t)
	}
	if spec.Result != "" {
		t, err := parser.ParseType(spec.Result, vars...)
		if err != nil {
			return fn, err
		}
		fn.Result = t
	}
	return fn, nil
}

func checkDecl(u *symbols.Universe, decl *symbols.TypeDecl) error {
	check := func(what string, t typesystem.Type) error {
		if t == nil {
			return nil
		}
		if _, err := u.Normalize(t); err != nil {
			return fmt.Errorf("%s: %w", what, err)
		}
		return nil
	}
	if err := check("underlying", decl.Underlying); err != nil {
		return err
	}
	for _, b := range decl.Bases {
		if err := check("base", b); err != nil {
			return err
		}
	}
	for name, t := range decl.MemberTypes {
		if err := check("member type "+name, t); err != nil {
			return err
		}
	}
	for _, group := range [][]symbols.Function{decl.Ctors, decl.Conversions, decl.Methods} {
		for _, fn := range group {
			if err := checkFunction(u, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkFunction(u *symbols.Universe, fn symbols.Function) error {
	for i, p := range fn.Params {
		if _, err := u.Normalize(p); err != nil {
			return fmt.Errorf("%s: parameter %d: %w", fn.Name, i+1, err)
		}
	}
	if fn.Result != nil {
		if _, err := u.Normalize(fn.Result); err != nil {
			return fmt.Errorf("%s: result: %w", fn.Name, err)
		}
	}
	return nil
}
