// Package constraints enforces concept requirements on generic algorithm
// declarations. An algorithm names its type parameters and the concepts
// they must satisfy; instantiating it with concrete types either yields the
// instantiated signature or a diagnostic naming the first unmet concept.
package constraints

import (
	"github.com/funvibe/concepts/internal/parser"
	"github.com/funvibe/concepts/internal/typesystem"
)

// Algorithm is a constrained generic declaration:
//
//	sort: forall I. (I, I) -> void where MutableRandomAccessIterator<I>
type Algorithm struct {
	Name      string
	Signature typesystem.TForall
	Doc       string
}

// Parse reads an algorithm from its textual form. A missing "name:" prefix
// leaves Name empty.
func Parse(src string) (*Algorithm, error) {
	decl, err := parser.ParseDeclaration(src)
	if err != nil {
		return nil, err
	}
	return &Algorithm{Name: decl.Name, Signature: decl.Signature}, nil
}

// MustParse is Parse for declarations known to be well formed.
func MustParse(src string) *Algorithm {
	alg, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return alg
}

func (a *Algorithm) Params() []string {
	names := make([]string, len(a.Signature.Vars))
	for i, v := range a.Signature.Vars {
		names[i] = v.Name
	}
	return names
}

func (a *Algorithm) String() string {
	if a.Name == "" {
		return a.Signature.String()
	}
	return a.Name + ": " + a.Signature.String()
}

// label names the algorithm in diagnostics.
func (a *Algorithm) label() string {
	if a.Name == "" {
		return "<anonymous>"
	}
	return a.Name
}
