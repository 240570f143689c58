package typesystem

import "fmt"

// UnifyKinds attempts to unify two kinds.
func UnifyKinds(k1, k2 Kind) error {
	if k1.Equal(k2) {
		return nil
	}
	return fmt.Errorf("kind mismatch: expected %s, got %s", k1, k2)
}

// KindCheck validates that a type is well-kinded and returns its kind.
// Every component of a compound type must be a proper type (kind *);
// template constructors may only appear applied to the right number of arguments.
func KindCheck(t Type) (Kind, error) {
	if t == nil {
		return nil, fmt.Errorf("cannot check kind of nil type")
	}

	switch typ := t.(type) {
	case TCon:
		return typ.Kind(), nil
	case TVar:
		return typ.Kind(), nil
	case TApp:
		return checkTAppKind(typ)
	case TPointer:
		return Star, requireStar("pointee", typ.Elem)
	case TRef:
		return Star, requireStar("referenced type", typ.Elem)
	case TQual:
		return Star, requireStar("qualified type", typ.Elem)
	case TArray:
		return Star, requireStar("array element", typ.Elem)
	case TMember:
		return Star, requireStar("member owner", typ.Owner)
	case TMemberPtr:
		if err := requireStar("member pointer class", typ.Class); err != nil {
			return nil, err
		}
		return Star, requireStar("member pointer target", typ.Member)
	case TFunc:
		for _, p := range typ.Params {
			if err := requireStar("function parameter", p); err != nil {
				return nil, err
			}
		}
		if typ.ReturnType != nil {
			if err := requireStar("function return type", typ.ReturnType); err != nil {
				return nil, err
			}
		}
		return Star, nil
	case TForall:
		if err := requireStar("generic signature", typ.Type); err != nil {
			return nil, err
		}
		return Star, nil
	default:
		return Star, nil
	}
}

func requireStar(what string, t Type) error {
	k, err := KindCheck(t)
	if err != nil {
		return err
	}
	if !k.Equal(Star) {
		return fmt.Errorf("%s must be a type (kind *), got %s of kind %s", what, t, k)
	}
	return nil
}

func checkTAppKind(t TApp) (Kind, error) {
	kCtor, err := KindCheck(t.Constructor)
	if err != nil {
		return nil, err
	}

	currKind := kCtor
	for _, arg := range t.Args {
		kArg, err := KindCheck(arg)
		if err != nil {
			return nil, err
		}

		arrow, ok := currKind.(KArrow)
		if !ok {
			if _, wild := currKind.(KWildcard); wild {
				continue
			}
			return nil, fmt.Errorf("cannot apply type argument %s to %s of kind %s", arg, t.Constructor, kCtor)
		}
		if err := UnifyKinds(arrow.Left, kArg); err != nil {
			return nil, fmt.Errorf("applying %s: %w", t.Constructor, err)
		}
		currKind = arrow.Right
	}
	return currKind, nil
}
