package concepts

import (
	"fmt"

	"github.com/funvibe/concepts/internal/analyzer"
	"github.com/funvibe/concepts/internal/traits"
	"github.com/funvibe/concepts/internal/typesystem"
)

// leaf is a trait query usable in a concept body: either a primitive
// classification or a lifecycle question answered by the analyzer.
type leaf struct {
	name     string
	arity    int
	variadic bool
	eval     func(an *analyzer.Analyzer, args []typesystem.Type) bool
}

func (l leaf) checkArity(n int) error {
	if n < l.arity || (!l.variadic && n > l.arity) {
		return fmt.Errorf("%w: trait %s takes %d, got %d", ErrArity, l.name, l.arity, n)
	}
	return nil
}

func constructible(mode analyzer.Mode) func(*analyzer.Analyzer, []typesystem.Type) bool {
	return func(an *analyzer.Analyzer, args []typesystem.Type) bool {
		return an.Constructible(mode, args[0], args[1:]...)
	}
}

func assignable(mode analyzer.Mode) func(*analyzer.Analyzer, []typesystem.Type) bool {
	return func(an *analyzer.Analyzer, args []typesystem.Type) bool {
		return an.Assignable(mode, args[0], args[1])
	}
}

func destructible(mode analyzer.Mode) func(*analyzer.Analyzer, []typesystem.Type) bool {
	return func(an *analyzer.Analyzer, args []typesystem.Type) bool {
		return an.Destructible(mode, args[0])
	}
}

var lifecycleLeaves = map[string]leaf{
	"Constructible":          {arity: 1, variadic: true, eval: constructible(analyzer.Plain)},
	"TriviallyConstructible": {arity: 1, variadic: true, eval: constructible(analyzer.Trivially)},
	"NothrowConstructible":   {arity: 1, variadic: true, eval: constructible(analyzer.Nothrow)},
	"Assignable":             {arity: 2, eval: assignable(analyzer.Plain)},
	"TriviallyAssignable":    {arity: 2, eval: assignable(analyzer.Trivially)},
	"NothrowAssignable":      {arity: 2, eval: assignable(analyzer.Nothrow)},
	"Destructible":           {arity: 1, eval: destructible(analyzer.Plain)},
	"TriviallyDestructible":  {arity: 1, eval: destructible(analyzer.Trivially)},
	"NothrowDestructible":    {arity: 1, eval: destructible(analyzer.Nothrow)},
	"Convertible": {arity: 2, eval: func(an *analyzer.Analyzer, args []typesystem.Type) bool {
		return an.Convertible(args[0], args[1])
	}},
}

func lookupLeaf(name string) (leaf, bool) {
	if l, ok := lifecycleLeaves[name]; ok {
		l.name = name
		return l, true
	}
	info, ok := traits.Lookup(name)
	if !ok {
		return leaf{}, false
	}
	return leaf{
		name:  name,
		arity: info.Arity,
		eval: func(an *analyzer.Analyzer, args []typesystem.Type) bool {
			return info.Eval(an.Universe(), args...)
		},
	}, true
}
