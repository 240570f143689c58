// Package gotypes imports the named types of a Go package as catalog types.
//
// Go's operator rules are mapped onto the same declarations a catalog file
// would carry: a defined numeric type gets the arithmetic operators of its
// underlying type, comparable types get == and !=, ordered types get the
// relational operators, and methods become member functions (const for value
// receivers). Structs holding a lock lose their copy operations, matching
// the rule go vet enforces. Conversions between a defined type and its
// underlying type are explicit in both directions.
package gotypes

import (
	"context"
	"errors"
	"fmt"
	"go/types"
	"os"
	"strconv"
	"strings"

	"golang.org/x/tools/go/packages"
	"gopkg.in/yaml.v3"

	"github.com/funvibe/concepts/internal/catalog"
	"github.com/funvibe/concepts/internal/symbols"
)

// ErrNoPackages is returned when the patterns match nothing.
var ErrNoPackages = errors.New("no packages matched")

// Import is the catalog derived from one Go package.
type Import struct {
	Path    string
	Catalog *catalog.Catalog

	// Skipped lists declarations that have no catalog counterpart.
	Skipped []Skip
}

// Skip records a type or method left out of the catalog.
type Skip struct {
	Type   string
	Member string
	Reason string
}

func (s Skip) String() string {
	if s.Member == "" {
		return s.Type + ": " + s.Reason
	}
	return s.Type + "." + s.Member + ": " + s.Reason
}

// CatalogName is the catalog name used for the package at path.
func CatalogName(path string) string {
	return "go:" + path
}

// Load type-checks the packages matching patterns, relative to dir, and
// imports each of them.
func Load(ctx context.Context, dir string, patterns ...string) ([]*Import, error) {
	cfg := &packages.Config{
		Context: ctx,
		Mode: packages.NeedName |
			packages.NeedTypes |
			packages.NeedImports |
			packages.NeedDeps,
		Dir: dir,
		Env: append(os.Environ(), "GOWORK=off"),
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("loading packages: %w", err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPackages, strings.Join(patterns, " "))
	}

	var errs []string
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			errs = append(errs, fmt.Sprintf("%s: %s", pkg.PkgPath, e.Msg))
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("package errors:\n  %s", strings.Join(errs, "\n  "))
	}

	imports := make([]*Import, 0, len(pkgs))
	for _, pkg := range pkgs {
		imports = append(imports, FromPackage(pkg.Types))
	}
	return imports, nil
}

// FromPackage builds the catalog for the exported named types of pkg.
func FromPackage(pkg *types.Package) *Import {
	imp := &Import{
		Path:    pkg.Path(),
		Catalog: &catalog.Catalog{Name: CatalogName(pkg.Path())},
	}
	m := &mapper{pkg: pkg, imp: imp, declared: make(map[*types.TypeName]bool)}

	scope := pkg.Scope()
	var named []*types.Named
	for _, name := range scope.Names() {
		tn, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || !tn.Exported() || tn.IsAlias() {
			continue
		}
		n, ok := tn.Type().(*types.Named)
		if !ok {
			continue
		}
		switch n.Underlying().(type) {
		case *types.Interface:
			imp.skip(name, "", "interface types have no value semantics")
			continue
		case *types.Signature:
			imp.skip(name, "", "function types are not imported")
			continue
		case *types.Chan:
			imp.skip(name, "", "channel types are not imported")
			continue
		}
		m.declared[tn] = true
		named = append(named, n)
	}
	for _, n := range named {
		m.declare(n)
	}
	return imp
}

func (imp *Import) skip(typ, member, reason string) {
	imp.Skipped = append(imp.Skipped, Skip{Type: typ, Member: member, Reason: reason})
}

// YAML renders the catalog in catalog file syntax.
func (imp *Import) YAML() ([]byte, error) {
	return yaml.Marshal(imp.Catalog)
}

// Install declares the imported types in a new scope enclosing base.
func (imp *Import) Install(base *symbols.Universe) (*symbols.Universe, error) {
	data, err := imp.YAML()
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", imp.Catalog.Name, err)
	}
	c, err := catalog.Parse(data, imp.Catalog.Name)
	if err != nil {
		return nil, err
	}
	u := symbols.NewEnclosedUniverse(base)
	if err := c.Install(u, data); err != nil {
		return nil, err
	}
	return u, nil
}

// InstallAll installs each import in its own scope, in order.
func InstallAll(base *symbols.Universe, imports []*Import) (*symbols.Universe, error) {
	u := base
	for _, imp := range imports {
		inner, err := imp.Install(u)
		if err != nil {
			return nil, err
		}
		u = inner
	}
	return u, nil
}

type mapper struct {
	pkg      *types.Package
	imp      *Import
	declared map[*types.TypeName]bool

	// type parameters in scope, by identity
	params map[*types.TypeParam]string
}

var basicNames = map[types.BasicKind]string{
	types.Bool:          "bool",
	types.Int8:          "schar",
	types.Uint8:         "uchar",
	types.Int16:         "short",
	types.Uint16:        "ushort",
	types.Int32:         "int",
	types.Uint32:        "uint",
	types.Int:           "long",
	types.Int64:         "long",
	types.Uint:          "ulong",
	types.Uint64:        "ulong",
	types.Uintptr:       "ulong",
	types.Float32:       "float",
	types.Float64:       "double",
	types.Complex64:     "Complex<float>",
	types.Complex128:    "Complex<double>",
	types.String:        "String",
	types.UnsafePointer: "void*",
}

// expr spells t as a catalog type expression.
func (m *mapper) expr(t types.Type) (string, error) {
	switch t := types.Unalias(t).(type) {
	case *types.Basic:
		if name, ok := basicNames[t.Kind()]; ok {
			return name, nil
		}
		return "", fmt.Errorf("untyped %s", t)
	case *types.TypeParam:
		if name, ok := m.params[t]; ok {
			return name, nil
		}
		return "", fmt.Errorf("type parameter %s is out of scope", t)
	case *types.Pointer:
		elem, err := m.expr(t.Elem())
		if err != nil {
			return "", err
		}
		return elem + "*", nil
	case *types.Array:
		elem, err := m.expr(t.Elem())
		if err != nil {
			return "", err
		}
		return elem + "[" + strconv.FormatInt(t.Len(), 10) + "]", nil
	case *types.Named:
		obj := t.Origin().Obj()
		if obj.Pkg() != m.pkg || !m.declared[obj] {
			return "", fmt.Errorf("%s is not imported", types.TypeString(t, nil))
		}
		args := t.TypeArgs()
		if args == nil || args.Len() == 0 {
			return obj.Name(), nil
		}
		spelled := make([]string, args.Len())
		for i := 0; i < args.Len(); i++ {
			s, err := m.expr(args.At(i))
			if err != nil {
				return "", err
			}
			spelled[i] = s
		}
		return obj.Name() + "<" + strings.Join(spelled, ", ") + ">", nil
	default:
		return "", fmt.Errorf("%s has no catalog spelling", types.TypeString(t, nil))
	}
}

func (m *mapper) declare(n *types.Named) {
	obj := n.Obj()
	spec := catalog.TypeSpec{Name: obj.Name(), Kind: "class"}

	m.params = make(map[*types.TypeParam]string)
	self := obj.Name()
	if tps := n.TypeParams(); tps != nil && tps.Len() > 0 {
		names := make([]string, tps.Len())
		for i := 0; i < tps.Len(); i++ {
			tp := tps.At(i)
			names[i] = tp.Obj().Name()
			m.params[tp] = names[i]
		}
		spec.Params = names
		self += "<" + strings.Join(names, ", ") + ">"
	}

	var free []catalog.FunctionSpec
	switch u := n.Underlying().(type) {
	case *types.Basic:
		free = m.basic(&spec, self, u)
	case *types.Struct:
		if u.NumFields() == 0 {
			spec.Flags = append(spec.Flags, "empty")
		}
		if containsLock(n, nil) {
			spec.Special.CopyCtor = catalog.MemberState{State: "deleted"}
			spec.Special.CopyAssign = catalog.MemberState{State: "deleted"}
			spec.Special.MoveCtor = catalog.MemberState{State: "absent"}
			spec.Special.MoveAssign = catalog.MemberState{State: "absent"}
		}
	case *types.Pointer:
		if elem, err := m.expr(u.Elem()); err == nil {
			spec.MemberTypes = map[string]string{"element_type": elem}
			spec.Methods = append(spec.Methods, catalog.FunctionSpec{Name: "unary*", Result: elem + "&", Const: true})
		} else {
			m.imp.skip(obj.Name(), "unary*", err.Error())
		}
	case *types.Slice:
		m.indexed(&spec, u.Elem(), "size_t", false)
	case *types.Array:
		m.indexed(&spec, u.Elem(), "size_t", false)
	case *types.Map:
		key, err := m.expr(u.Key())
		if err != nil {
			m.imp.skip(obj.Name(), "key_type", err.Error())
			break
		}
		spec.MemberTypes = map[string]string{"key_type": key}
		m.indexed(&spec, u.Elem(), "const "+key+"&", true)
	}

	if types.Comparable(n) {
		free = append(free, comparison("==", self), comparison("!=", self))
	}
	if len(spec.Params) > 0 {
		for i := range free {
			free[i].TypeParams = spec.Params
		}
	}

	m.methods(&spec, n)
	m.imp.Catalog.Types = append(m.imp.Catalog.Types, spec)
	m.imp.Catalog.Functions = append(m.imp.Catalog.Functions, free...)
}

// indexed adds the element member types and the index operator.
func (m *mapper) indexed(spec *catalog.TypeSpec, elem types.Type, index string, mapped bool) {
	e, err := m.expr(elem)
	if err != nil {
		m.imp.skip(spec.Name, "[]", err.Error())
		return
	}
	if spec.MemberTypes == nil {
		spec.MemberTypes = make(map[string]string)
	}
	if mapped {
		spec.MemberTypes["mapped_type"] = e
	} else {
		spec.MemberTypes["value_type"] = e
	}
	spec.Methods = append(spec.Methods, catalog.FunctionSpec{Name: "[]", Params: []string{index}, Result: e + "&"})
}

func comparison(op, self string) catalog.FunctionSpec {
	ref := "const " + self + "&"
	return catalog.FunctionSpec{Name: op, Params: []string{ref, ref}, Result: "bool"}
}

// basic declares the conversions and operators a defined type inherits
// from its basic underlying type.
func (m *mapper) basic(spec *catalog.TypeSpec, self string, u *types.Basic) []catalog.FunctionSpec {
	under, ok := basicNames[u.Kind()]
	if !ok {
		m.imp.skip(spec.Name, "", "untyped underlying type")
		return nil
	}
	spec.Flags = append(spec.Flags, "standard_layout", "literal")
	spec.Ctors = append(spec.Ctors, catalog.FunctionSpec{Params: []string{under}, Explicit: true})
	spec.Conversions = append(spec.Conversions, catalog.ConversionSpec{To: under, Explicit: true})

	info := u.Info()
	ref := "const " + self + "&"
	binary := func(op, result string) catalog.FunctionSpec {
		return catalog.FunctionSpec{Name: op, Params: []string{ref, ref}, Result: result}
	}
	compound := func(op, param string) catalog.FunctionSpec {
		return catalog.FunctionSpec{Name: op + "=", Params: []string{param}, Result: self + "&"}
	}

	var free []catalog.FunctionSpec
	var ops []string
	switch {
	case info&types.IsNumeric != 0:
		ops = []string{"+", "-", "*", "/"}
		if info&types.IsInteger != 0 {
			ops = append(ops, "%", "&", "|", "^")
		}
	case info&types.IsString != 0:
		ops = []string{"+"}
		spec.Methods = append(spec.Methods, catalog.FunctionSpec{Name: "[]", Params: []string{"size_t"}, Result: "uchar", Const: true})
	case info&types.IsBoolean != 0:
		free = append(free,
			binary("&&", self), binary("||", self),
			catalog.FunctionSpec{Name: "!", Params: []string{ref}, Result: self})
	}
	for _, op := range ops {
		free = append(free, binary(op, self))
		spec.Methods = append(spec.Methods, compound(op, ref))
	}

	if info&types.IsInteger != 0 {
		for _, op := range []string{"<<", ">>"} {
			free = append(free, catalog.FunctionSpec{Name: op, Params: []string{ref, "ulong"}, Result: self})
			spec.Methods = append(spec.Methods, compound(op, "ulong"))
		}
		free = append(free, catalog.FunctionSpec{Name: "~", Params: []string{ref}, Result: self})
	}
	if info&types.IsNumeric != 0 {
		free = append(free,
			catalog.FunctionSpec{Name: "unary+", Params: []string{ref}, Result: self},
			catalog.FunctionSpec{Name: "unary-", Params: []string{ref}, Result: self})
		spec.Methods = append(spec.Methods,
			catalog.FunctionSpec{Name: "pre++", Result: self + "&"},
			catalog.FunctionSpec{Name: "post++", Result: self},
			catalog.FunctionSpec{Name: "pre--", Result: self + "&"},
			catalog.FunctionSpec{Name: "post--", Result: self})
	}
	if info&types.IsOrdered != 0 {
		for _, op := range []string{"<", "<=", ">", ">="} {
			free = append(free, binary(op, "bool"))
		}
	}
	return free
}

// methods declares the methods of n. Value receivers become const member
// functions; pointer receivers need a mutable object.
func (m *mapper) methods(spec *catalog.TypeSpec, n *types.Named) {
	for i := 0; i < n.NumMethods(); i++ {
		fn := n.Method(i)
		if !fn.Exported() {
			continue
		}
		sig := fn.Type().(*types.Signature)
		if rtps := sig.RecvTypeParams(); rtps != nil {
			for j := 0; j < rtps.Len() && j < len(spec.Params); j++ {
				m.params[rtps.At(j)] = spec.Params[j]
			}
		}
		f, err := m.signature(fn.Name(), sig)
		if err != nil {
			m.imp.skip(spec.Name, fn.Name(), err.Error())
			continue
		}
		_, ptr := types.Unalias(sig.Recv().Type()).(*types.Pointer)
		f.Const = !ptr
		spec.Methods = append(spec.Methods, f)
	}
}

func (m *mapper) signature(name string, sig *types.Signature) (catalog.FunctionSpec, error) {
	f := catalog.FunctionSpec{Name: name}
	if sig.Variadic() {
		return f, errors.New("variadic methods are not imported")
	}
	if sig.Results().Len() > 1 {
		return f, errors.New("multiple results are not imported")
	}
	for i := 0; i < sig.Params().Len(); i++ {
		p, err := m.expr(sig.Params().At(i).Type())
		if err != nil {
			return f, fmt.Errorf("parameter %d: %w", i+1, err)
		}
		f.Params = append(f.Params, p)
	}
	if sig.Results().Len() == 1 {
		r, err := m.expr(sig.Results().At(0).Type())
		if err != nil {
			return f, fmt.Errorf("result: %w", err)
		}
		f.Result = r
	}
	return f, nil
}

// containsLock reports whether copying a value of t copies a lock: t, or a
// struct field or array element within it, has pointer Lock and Unlock
// methods that its value type lacks.
func containsLock(t types.Type, seen map[types.Type]bool) bool {
	if seen == nil {
		seen = make(map[types.Type]bool)
	}
	if seen[t] {
		return false
	}
	seen[t] = true

	if n, ok := types.Unalias(t).(*types.Named); ok {
		ptr := types.NewMethodSet(types.NewPointer(n))
		val := types.NewMethodSet(n)
		if hasMethod(ptr, "Lock") && hasMethod(ptr, "Unlock") && !hasMethod(val, "Lock") {
			return true
		}
	}
	switch u := t.Underlying().(type) {
	case *types.Struct:
		for i := 0; i < u.NumFields(); i++ {
			if containsLock(u.Field(i).Type(), seen) {
				return true
			}
		}
	case *types.Array:
		return containsLock(u.Elem(), seen)
	}
	return false
}

func hasMethod(ms *types.MethodSet, name string) bool {
	for i := 0; i < ms.Len(); i++ {
		if ms.At(i).Obj().Name() == name {
			return true
		}
	}
	return false
}
