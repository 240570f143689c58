// Package catalog loads type declarations from YAML into a symbols.Universe.
//
// A catalog describes candidate types the way a compiler would see them:
// their category, template parameters, special member functions, constructors,
// conversion operators, member types, methods and member operators, plus free
// operator and swap overloads. The prelude catalog is embedded and describes a
// small standard library (Complex, List, HashSet, Vector, Allocator, Hash,
// String and a few classification fixtures).
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Catalog is the top-level structure of a catalog file.
type Catalog struct {
	// Name identifies the catalog in diagnostics and fingerprints.
	// Defaults to the file name.
	Name string `yaml:"name"`

	// Aliases maps an alias to a type expression (e.g. "string: String").
	Aliases map[string]string `yaml:"aliases,omitempty"`

	// Types lists the declared types.
	Types []TypeSpec `yaml:"types"`

	// Functions lists free functions: operator overloads named by their
	// token ("==", "+", "unary-") and swap overloads.
	Functions []FunctionSpec `yaml:"functions,omitempty"`
}

// TypeSpec declares one class, union or enumeration, possibly a template.
type TypeSpec struct {
	Name string `yaml:"name"`

	// Kind is "class" (default), "union" or "enum".
	Kind string `yaml:"kind,omitempty"`

	// Params are the template parameters. Type expressions inside the
	// declaration may refer to them by name.
	Params []string `yaml:"params,omitempty"`

	// Scoped marks an enum class. Underlying defaults to int.
	Scoped     bool   `yaml:"scoped,omitempty"`
	Underlying string `yaml:"underlying,omitempty"`

	// Flags: polymorphic, abstract, empty, standard_layout, literal, final,
	// virtual_destructor.
	Flags []string `yaml:"flags,omitempty"`

	Bases []string `yaml:"bases,omitempty"`

	// Special describes the six special member functions. Omitted members
	// are implicitly declared and trivial.
	Special SpecialSpec `yaml:"special,omitempty"`

	Ctors       []FunctionSpec    `yaml:"ctors,omitempty"`
	Conversions []ConversionSpec  `yaml:"conversions,omitempty"`
	MemberTypes map[string]string `yaml:"member_types,omitempty"`

	// Methods lists named member functions and member operators.
	Methods []FunctionSpec `yaml:"methods,omitempty"`
}

type SpecialSpec struct {
	DefaultCtor MemberState `yaml:"default_ctor,omitempty"`
	CopyCtor    MemberState `yaml:"copy_ctor,omitempty"`
	MoveCtor    MemberState `yaml:"move_ctor,omitempty"`
	CopyAssign  MemberState `yaml:"copy_assign,omitempty"`
	MoveAssign  MemberState `yaml:"move_assign,omitempty"`
	Dtor        MemberState `yaml:"dtor,omitempty"`
}

// MemberState is written either as a bare state ("deleted") or as a mapping
// ({state: user, throws: true}).
type MemberState struct {
	State  string `yaml:"state"`
	Throws bool   `yaml:"throws,omitempty"`
}

func (m *MemberState) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		m.State = value.Value
		return nil
	}
	type plain MemberState
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*m = MemberState(p)
	return nil
}

// FunctionSpec declares a constructor, method, member operator or free function.
type FunctionSpec struct {
	Name string `yaml:"name,omitempty"`

	// TypeParams makes the function a template; its parameters are deduced
	// from the arguments.
	TypeParams []string `yaml:"type_params,omitempty"`

	Params []string `yaml:"params,omitempty"`

	// Defaults is the number of trailing parameters with default arguments.
	Defaults int `yaml:"defaults,omitempty"`

	// Result is the return type; empty means void.
	Result string `yaml:"result,omitempty"`

	Const    bool `yaml:"const,omitempty"`
	Explicit bool `yaml:"explicit,omitempty"`
	Throws   bool `yaml:"throws,omitempty"`
}

// ConversionSpec declares a conversion operator.
type ConversionSpec struct {
	To       string `yaml:"to"`
	Explicit bool   `yaml:"explicit,omitempty"`
	Throws   bool   `yaml:"throws,omitempty"`
}

// LoadFile reads and parses a catalog file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse parses catalog content from bytes.
// The path argument is used for error messages and as the default name.
func Parse(data []byte, path string) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := c.validate(path); err != nil {
		return nil, err
	}
	c.setDefaults(path)
	return &c, nil
}

var validFlags = map[string]bool{
	"polymorphic":        true,
	"abstract":           true,
	"empty":              true,
	"standard_layout":    true,
	"literal":            true,
	"final":              true,
	"virtual_destructor": true,
}

var validStates = map[string]bool{
	"": true, "trivial": true, "defaulted": true, "user": true, "deleted": true, "absent": true,
}

// validate checks the catalog for errors that do not need a universe.
// Unknown type names are reported when the catalog is installed.
func (c *Catalog) validate(path string) error {
	seen := make(map[string]bool)
	for i, t := range c.Types {
		if t.Name == "" {
			return fmt.Errorf("%s: types[%d]: name is required", path, i)
		}
		if seen[t.Name] {
			return fmt.Errorf("%s: types[%d]: duplicate type %s", path, i, t.Name)
		}
		seen[t.Name] = true

		switch t.Kind {
		case "", "class", "union":
			if t.Scoped || t.Underlying != "" {
				return fmt.Errorf("%s: types[%d] (%s): scoped/underlying only apply to enums", path, i, t.Name)
			}
		case "enum":
			if len(t.Params) > 0 {
				return fmt.Errorf("%s: types[%d] (%s): enums cannot be templates", path, i, t.Name)
			}
		default:
			return fmt.Errorf("%s: types[%d] (%s): unknown kind %q (must be class, union or enum)", path, i, t.Name, t.Kind)
		}

		for _, f := range t.Flags {
			if !validFlags[f] {
				return fmt.Errorf("%s: types[%d] (%s): unknown flag %q", path, i, t.Name, f)
			}
		}

		states := map[string]MemberState{
			"default_ctor": t.Special.DefaultCtor,
			"copy_ctor":    t.Special.CopyCtor,
			"move_ctor":    t.Special.MoveCtor,
			"copy_assign":  t.Special.CopyAssign,
			"move_assign":  t.Special.MoveAssign,
			"dtor":         t.Special.Dtor,
		}
		for member, st := range states {
			if !validStates[st.State] {
				return fmt.Errorf("%s: types[%d] (%s): special.%s: unknown state %q", path, i, t.Name, member, st.State)
			}
		}
		if t.Special.Dtor.State == "absent" {
			return fmt.Errorf("%s: types[%d] (%s): special.dtor cannot be absent", path, i, t.Name)
		}

		for j, m := range t.Methods {
			if m.Name == "" {
				return fmt.Errorf("%s: types[%d] (%s): methods[%d]: name is required", path, i, t.Name, j)
			}
			if err := validateFunction(m); err != nil {
				return fmt.Errorf("%s: types[%d] (%s): methods[%d] (%s): %w", path, i, t.Name, j, m.Name, err)
			}
		}
		for j, ctor := range t.Ctors {
			if ctor.Result != "" || ctor.Const {
				return fmt.Errorf("%s: types[%d] (%s): ctors[%d]: constructors have no result or const qualifier", path, i, t.Name, j)
			}
			if err := validateFunction(ctor); err != nil {
				return fmt.Errorf("%s: types[%d] (%s): ctors[%d]: %w", path, i, t.Name, j, err)
			}
		}
		for j, conv := range t.Conversions {
			if conv.To == "" {
				return fmt.Errorf("%s: types[%d] (%s): conversions[%d]: to is required", path, i, t.Name, j)
			}
		}
	}

	for i, f := range c.Functions {
		if f.Name == "" {
			return fmt.Errorf("%s: functions[%d]: name is required", path, i)
		}
		if f.Const {
			return fmt.Errorf("%s: functions[%d] (%s): free functions cannot be const", path, i, f.Name)
		}
		if err := validateFunction(f); err != nil {
			return fmt.Errorf("%s: functions[%d] (%s): %w", path, i, f.Name, err)
		}
	}
	return nil
}

func validateFunction(f FunctionSpec) error {
	if f.Defaults < 0 || f.Defaults > len(f.Params) {
		return fmt.Errorf("defaults must be between 0 and %d", len(f.Params))
	}
	return nil
}

// setDefaults fills in default values for optional fields.
func (c *Catalog) setDefaults(path string) {
	if c.Name == "" {
		c.Name = path
	}
	for i := range c.Types {
		if c.Types[i].Kind == "" {
			c.Types[i].Kind = "class"
		}
		if c.Types[i].Kind == "enum" && c.Types[i].Underlying == "" {
			c.Types[i].Underlying = "int"
		}
	}
}
