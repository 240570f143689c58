package constraints

import (
	"errors"
	"strings"

	"github.com/funvibe/concepts/internal/concepts"
	"github.com/funvibe/concepts/internal/diagnostics"
)

var (
	ErrUnknownParameter = errors.New("unknown type parameter")
	ErrTypeArguments    = errors.New("wrong number of type arguments")
)

// DeclarationError rejects an ill-formed algorithm declaration. It is a
// definition-time error, distinct from a candidate that fails a constraint.
type DeclarationError struct {
	Algorithm string
	// Constraint is the offending constraint as written, empty when the
	// signature itself is at fault.
	Constraint string
	Err        error
}

func (e *DeclarationError) Error() string { return e.Diagnostic().Error() }

func (e *DeclarationError) Diagnostic() *diagnostics.DiagnosticError {
	if e.Constraint == "" {
		return diagnostics.Wrap(diagnostics.ErrC003, e.Err, "%s", e.Algorithm)
	}
	return diagnostics.Wrap(diagnostics.ErrC003, e.Err, "%s: %s", e.Algorithm, e.Constraint)
}

func (e *DeclarationError) Unwrap() error { return e.Diagnostic() }

// UnmetConstraintError rejects an instantiation whose type arguments do not
// satisfy a constraint.
type UnmetConstraintError struct {
	Algorithm string
	// Args spell the instantiation's type arguments.
	Args []string
	// Verdict is the failed evaluation of the first unmet constraint, with
	// the algorithm's parameters substituted.
	Verdict concepts.Verdict
	Layer   concepts.Layer
}

// Code is C002 for an unmet composite concept and C001 for an unmet trait or
// operation predicate.
func (e *UnmetConstraintError) Code() diagnostics.ErrorCode {
	if e.Layer == concepts.LayerComposite {
		return diagnostics.ErrC002
	}
	return diagnostics.ErrC001
}

func (e *UnmetConstraintError) Error() string { return e.Diagnostic().Error() }

func (e *UnmetConstraintError) Diagnostic() *diagnostics.DiagnosticError {
	return diagnostics.NewError(e.Code(), diagnostics.Position{}, "%s<%s>: %s",
		e.Algorithm, strings.Join(e.Args, ", "), e.Verdict)
}

func (e *UnmetConstraintError) Unwrap() error { return e.Diagnostic() }

// Chain lists the failing constituents from the unmet constraint down to
// the failing requirement.
func (e *UnmetConstraintError) Chain() []string {
	chain := []string{e.Verdict.Query()}
	if e.Verdict.Failure != nil {
		chain = append(chain, e.Verdict.Failure.Chain()...)
	}
	return chain
}
