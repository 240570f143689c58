package constraints

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/funvibe/concepts/internal/ast"
	"github.com/funvibe/concepts/internal/concepts"
	"github.com/funvibe/concepts/internal/parser"
	"github.com/funvibe/concepts/internal/typesystem"
)

// File is an algorithm file: composite concepts built from the library's
// vocabulary, and algorithms constrained by them.
//
//	concepts:
//	  - name: SortableRange
//	    params: [C]
//	    all: ["RandomAccessIterator<C::iterator>", "LessThanComparable<C::value_type>"]
//	algorithms:
//	  - name: sort
//	    signature: "forall C. (C&) -> void where SortableRange<C>"
type File struct {
	Path       string          `yaml:"-"`
	Concepts   []ConceptSpec   `yaml:"concepts,omitempty"`
	Algorithms []AlgorithmSpec `yaml:"algorithms"`
}

// ConceptSpec defines a composite concept. Its body is the conjunction of
// All, at least one of Any, and none of None.
type ConceptSpec struct {
	Name   string   `yaml:"name"`
	Params []string `yaml:"params"`
	Doc    string   `yaml:"doc,omitempty"`
	All    []string `yaml:"all,omitempty"`
	Any    []string `yaml:"any,omitempty"`
	None   []string `yaml:"none,omitempty"`
}

type AlgorithmSpec struct {
	Name      string `yaml:"name"`
	Signature string `yaml:"signature"`
	Doc       string `yaml:"doc,omitempty"`
}

// LoadFile reads and parses an algorithm file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading algorithms %s: %w", path, err)
	}
	return ParseFile(data, path)
}

// ParseFile parses algorithm file content. The path is used in error
// messages.
func ParseFile(data []byte, path string) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	f.Path = path
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) validate() error {
	seen := make(map[string]bool)
	for i, c := range f.Concepts {
		if c.Name == "" {
			return fmt.Errorf("%s: concepts[%d]: name is required", f.Path, i)
		}
		if len(c.Params) == 0 {
			return fmt.Errorf("%s: concepts[%d]: %s has no params", f.Path, i, c.Name)
		}
		if len(c.All)+len(c.Any)+len(c.None) == 0 {
			return fmt.Errorf("%s: concepts[%d]: %s has no requirements", f.Path, i, c.Name)
		}
	}
	for i, a := range f.Algorithms {
		if a.Name == "" {
			return fmt.Errorf("%s: algorithms[%d]: name is required", f.Path, i)
		}
		if a.Signature == "" {
			return fmt.Errorf("%s: algorithms[%d]: %s has no signature", f.Path, i, a.Name)
		}
		if seen[a.Name] {
			return fmt.Errorf("%s: algorithms[%d]: duplicate algorithm %s", f.Path, i, a.Name)
		}
		seen[a.Name] = true
	}
	return nil
}

// Module is a compiled algorithm file.
type Module struct {
	Concepts   []concepts.Concept
	Algorithms []*Algorithm
}

// Lookup finds an algorithm by name.
func (m *Module) Lookup(name string) (*Algorithm, bool) {
	for _, a := range m.Algorithms {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

// Compile parses every requirement and signature. Concepts still have to be
// added to a library, which checks their references.
func (f *File) Compile() (*Module, error) {
	m := &Module{}
	for i, spec := range f.Concepts {
		c, err := spec.concept()
		if err != nil {
			return nil, fmt.Errorf("%s: concepts[%d]: %s: %w", f.Path, i, spec.Name, err)
		}
		m.Concepts = append(m.Concepts, c)
	}
	for i, spec := range f.Algorithms {
		alg, err := Parse(spec.Signature)
		if err != nil {
			return nil, fmt.Errorf("%s: algorithms[%d]: %s: %w", f.Path, i, spec.Name, err)
		}
		if alg.Name != "" && alg.Name != spec.Name {
			return nil, fmt.Errorf("%s: algorithms[%d]: signature names %s, not %s", f.Path, i, alg.Name, spec.Name)
		}
		alg.Name = spec.Name
		alg.Doc = spec.Doc
		m.Algorithms = append(m.Algorithms, alg)
	}
	return m, nil
}

func (s ConceptSpec) concept() (concepts.Concept, error) {
	var terms []ast.Formula
	refs := func(queries []string) ([]ast.Formula, error) {
		var out []ast.Formula
		for _, q := range queries {
			ref, err := s.ref(q)
			if err != nil {
				return nil, err
			}
			out = append(out, ref)
		}
		return out, nil
	}

	all, err := refs(s.All)
	if err != nil {
		return concepts.Concept{}, err
	}
	terms = append(terms, all...)

	anyOf, err := refs(s.Any)
	if err != nil {
		return concepts.Concept{}, err
	}
	switch len(anyOf) {
	case 0:
	case 1:
		terms = append(terms, anyOf[0])
	default:
		terms = append(terms, &ast.Or{Terms: anyOf})
	}

	none, err := refs(s.None)
	if err != nil {
		return concepts.Concept{}, err
	}
	for _, n := range none {
		terms = append(terms, &ast.Not{Term: n})
	}

	var body ast.Formula = &ast.And{Terms: terms}
	if len(terms) == 1 {
		body = terms[0]
	}
	return concepts.Concept{Name: s.Name, Params: s.Params, Doc: s.Doc, Body: body}, nil
}

// ref parses "Concept<args>"; bare parameters become concept parameters and
// anything else a type expression over them.
func (s ConceptSpec) ref(query string) (*ast.Ref, error) {
	q, err := parser.ParseQuery(query, s.Params...)
	if err != nil {
		return nil, err
	}
	ref := &ast.Ref{Concept: q.Trait}
	for _, arg := range q.Args {
		if tv, ok := arg.(typesystem.TVar); ok {
			ref.Args = append(ref.Args, &ast.Param{Name: tv.Name})
			continue
		}
		ref.Args = append(ref.Args, &ast.TypeExpr{Type: arg})
	}
	return ref, nil
}
