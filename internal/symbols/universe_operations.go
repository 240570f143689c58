package symbols

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/funvibe/concepts/internal/typesystem"
)

// Universe holds type declarations, aliases and free functions. Lookups fall
// through to the outer universe, so a user catalog can extend the prelude
// without copying it.
type Universe struct {
	types   map[string]*TypeDecl
	aliases map[string]typesystem.Type

	// Free functions by name: operator tokens and "swap"
	funcs map[string][]Function

	// Catalog sources folded into the fingerprint
	sources []source

	outer *Universe
}

type source struct {
	name string
	hash [sha256.Size]byte
}

func NewEmptyUniverse() *Universe {
	return &Universe{
		types:   make(map[string]*TypeDecl),
		aliases: make(map[string]typesystem.Type),
		funcs:   make(map[string][]Function),
	}
}

// NewUniverse creates a universe enclosed by the builtins.
func NewUniverse() *Universe {
	return NewEnclosedUniverse(GetBuiltins())
}

func NewEnclosedUniverse(outer *Universe) *Universe {
	u := NewEmptyUniverse()
	u.outer = outer
	return u
}

// Outer returns the enclosing universe
func (u *Universe) Outer() *Universe {
	return u.outer
}

// DefineType registers a declaration. Redefining a name in the same scope is
// an error; shadowing an outer declaration is allowed.
func (u *Universe) DefineType(decl *TypeDecl) error {
	if _, ok := u.types[decl.Name]; ok {
		return fmt.Errorf("%w: type %s", ErrDuplicate, decl.Name)
	}
	if _, ok := u.aliases[decl.Name]; ok {
		return fmt.Errorf("%w: type %s is an alias", ErrDuplicate, decl.Name)
	}
	if decl.MemberTypes == nil {
		decl.MemberTypes = make(map[string]typesystem.Type)
	}
	u.types[decl.Name] = decl
	return nil
}

func (u *Universe) DefineAlias(name string, target typesystem.Type) error {
	if _, ok := u.types[name]; ok {
		return fmt.Errorf("%w: alias %s names a type", ErrDuplicate, name)
	}
	u.aliases[name] = target
	return nil
}

// DefineFunction registers a free function or operator overload.
func (u *Universe) DefineFunction(fn Function) {
	u.funcs[fn.Name] = append(u.funcs[fn.Name], fn)
}

func (u *Universe) LookupType(name string) (*TypeDecl, bool) {
	if decl, ok := u.types[name]; ok {
		return decl, true
	}
	if u.outer != nil {
		return u.outer.LookupType(name)
	}
	return nil, false
}

func (u *Universe) LookupAlias(name string) (typesystem.Type, bool) {
	if t, ok := u.aliases[name]; ok {
		return t, true
	}
	if u.outer != nil {
		return u.outer.LookupAlias(name)
	}
	return nil, false
}

// Functions returns every free overload of name, innermost scope first.
func (u *Universe) Functions(name string) []Function {
	var out []Function
	for s := u; s != nil; s = s.outer {
		out = append(out, s.funcs[name]...)
	}
	return out
}

// TypeNames lists every visible declared type name, sorted.
func (u *Universe) TypeNames() []string {
	seen := make(map[string]bool)
	for s := u; s != nil; s = s.outer {
		for name := range s.types {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AddSource records catalog content that contributed declarations.
func (u *Universe) AddSource(name string, content []byte) {
	u.sources = append(u.sources, source{name: name, hash: sha256.Sum256(content)})
}

// Fingerprint identifies the declarations visible from u. Verdicts persisted
// under one fingerprint are only valid for the same set of catalogs.
func (u *Universe) Fingerprint() string {
	h := sha256.New()
	var chain []*Universe
	for s := u; s != nil; s = s.outer {
		chain = append(chain, s)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		for _, src := range chain[i].sources {
			h.Write([]byte(src.name))
			h.Write([]byte("\x00"))
			h.Write(src.hash[:])
		}
		h.Write([]byte("\x01"))
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
