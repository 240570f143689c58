package symbols

import (
	"sync"

	"github.com/funvibe/concepts/internal/typesystem"
)

// FundamentalInfo classifies a fundamental type under the LP64 data model.
type FundamentalInfo struct {
	Integral bool
	Floating bool
	Signed   bool
	Rank     int // integer conversion rank, or floating rank
	Size     int
}

const (
	Void    = "void"
	Nullptr = "nullptr_t"
	Bool    = "bool"
	Int     = "int"
	Long    = "long"
	ULong   = "ulong"
	Double  = "double"
)

var fundamentals = map[string]FundamentalInfo{
	Void:      {},
	Nullptr:   {Size: 8},
	Bool:      {Integral: true, Rank: 0, Size: 1},
	"char":    {Integral: true, Signed: true, Rank: 1, Size: 1},
	"schar":   {Integral: true, Signed: true, Rank: 1, Size: 1},
	"uchar":   {Integral: true, Rank: 1, Size: 1},
	"short":   {Integral: true, Signed: true, Rank: 2, Size: 2},
	"ushort":  {Integral: true, Rank: 2, Size: 2},
	Int:       {Integral: true, Signed: true, Rank: 3, Size: 4},
	"uint":    {Integral: true, Rank: 3, Size: 4},
	Long:      {Integral: true, Signed: true, Rank: 4, Size: 8},
	ULong:     {Integral: true, Rank: 4, Size: 8},
	"llong":   {Integral: true, Signed: true, Rank: 5, Size: 8},
	"ullong":  {Integral: true, Rank: 5, Size: 8},
	"float":   {Floating: true, Signed: true, Rank: 1, Size: 4},
	Double:    {Floating: true, Signed: true, Rank: 2, Size: 8},
	"ldouble": {Floating: true, Signed: true, Rank: 3, Size: 16},
}

var builtinAliases = map[string]string{
	"size_t":    ULong,
	"ptrdiff_t": Long,
}

// SizeType and DifferenceType are the normalised size_t and ptrdiff_t.
var (
	SizeType       typesystem.Type = typesystem.TCon{Name: ULong}
	DifferenceType typesystem.Type = typesystem.TCon{Name: Long}
)

// LookupFundamental reports the classification of a fundamental type name.
func LookupFundamental(name string) (FundamentalInfo, bool) {
	info, ok := fundamentals[name]
	return info, ok
}

// Singleton table of fundamental types
var (
	builtins     *Universe
	builtinsOnce sync.Once
)

// GetBuiltins returns the shared universe holding the fundamental types and
// their aliases. Every other universe chains to it.
func GetBuiltins() *Universe {
	builtinsOnce.Do(func() {
		builtins = NewEmptyUniverse()
		builtins.initBuiltins()
	})
	return builtins
}

// ResetBuiltins resets the builtins singleton (for testing only).
func ResetBuiltins() {
	builtinsOnce = sync.Once{}
	builtins = nil
}

func (u *Universe) initBuiltins() {
	const origin = "builtin"
	for name := range fundamentals {
		u.types[name] = &TypeDecl{
			Name:     name,
			Category: Fundamental,
			Origin:   origin,
			Flags:    Flags{StandardLayout: name != Void, Literal: true},
		}
	}
	for alias, target := range builtinAliases {
		u.aliases[alias] = typesystem.TCon{Name: target}
	}
	u.AddSource(origin, []byte("lp64"))
}
