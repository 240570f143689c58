package typesystem

import "fmt"

// Kind represents the "type of a type".
// * (Star) is the kind of proper types (int, List<int>).
// * -> * is the kind of one-parameter templates (List, Complex).
type Kind interface {
	String() string
	Equal(Kind) bool
}

// KStar represents the kind of a value type (*).
type KStar struct{}

func (k KStar) String() string { return "*" }
func (k KStar) Equal(other Kind) bool {
	if _, ok := other.(KWildcard); ok {
		return true
	}
	_, ok := other.(KStar)
	return ok
}

// KWildcard represents a kind that matches any other kind.
// Used for catalog entries whose arity is checked elsewhere.
type KWildcard struct{}

func (k KWildcard) String() string        { return "?" }
func (k KWildcard) Equal(other Kind) bool { return true }

// KArrow represents a template kind (k1 -> k2).
type KArrow struct {
	Left  Kind
	Right Kind
}

func (k KArrow) String() string {
	return fmt.Sprintf("(%s -> %s)", k.Left.String(), k.Right.String())
}

func (k KArrow) Equal(other Kind) bool {
	if _, ok := other.(KWildcard); ok {
		return true
	}
	o, ok := other.(KArrow)
	if !ok {
		return false
	}
	return k.Left.Equal(o.Left) && k.Right.Equal(o.Right)
}

var Star Kind = KStar{}
var AnyKind Kind = KWildcard{}

// MakeArrow builds an N-ary arrow, e.g. MakeArrow(Star, Star, Star) is * -> * -> *.
func MakeArrow(args ...Kind) Kind {
	if len(args) == 0 {
		return Star
	}
	if len(args) == 1 {
		return args[0]
	}
	return KArrow{Left: args[0], Right: MakeArrow(args[1:]...)}
}

// TemplateKind returns the kind of a template taking arity type parameters.
func TemplateKind(arity int) Kind {
	kinds := make([]Kind, arity+1)
	for i := range kinds {
		kinds[i] = Star
	}
	return MakeArrow(kinds...)
}

// Arity counts the parameters of an arrow kind.
func Arity(k Kind) int {
	n := 0
	for {
		arrow, ok := k.(KArrow)
		if !ok {
			return n
		}
		n++
		k = arrow.Right
	}
}
