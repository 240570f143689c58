package server

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"

	"github.com/funvibe/concepts/internal/concepts"
	"github.com/funvibe/concepts/internal/constraints"
	"github.com/funvibe/concepts/internal/diagnostics"
	"github.com/funvibe/concepts/internal/symbols"
)

// ErrorBody is the JSON form of a rejected request.
type ErrorBody struct {
	Error string `json:"error"`
	// Code is the diagnostic code, if any.
	Code string `json:"code,omitempty"`
	// Chain lists the failing constituents of an unmet constraint.
	Chain []string `json:"chain,omitempty"`
}

type errorKind int

const (
	kindInternal errorKind = iota
	kindNotFound
	kindInvalid
	kindUnmet
	kindCanceled
)

func classify(err error) errorKind {
	var unmet *constraints.UnmetConstraintError
	switch {
	case errors.As(err, &unmet):
		return kindUnmet
	case errors.Is(err, concepts.ErrUnknownConcept), errors.Is(err, ErrUnknownAlgorithm):
		return kindNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return kindCanceled
	}
	if _, coded := diagnostics.CodeOf(err); coded {
		return kindInvalid
	}
	for _, target := range []error{
		concepts.ErrArity, concepts.ErrNotConcrete,
		constraints.ErrTypeArguments, constraints.ErrUnknownParameter,
		symbols.ErrUnknownType, symbols.ErrUnknownMember,
	} {
		if errors.Is(err, target) {
			return kindInvalid
		}
	}
	return kindInternal
}

func httpStatus(err error) int {
	switch classify(err) {
	case kindNotFound:
		return http.StatusNotFound
	case kindInvalid:
		return http.StatusBadRequest
	case kindUnmet:
		return http.StatusUnprocessableEntity
	case kindCanceled:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func grpcCode(err error) codes.Code {
	switch classify(err) {
	case kindNotFound:
		return codes.NotFound
	case kindInvalid:
		return codes.InvalidArgument
	case kindUnmet:
		return codes.FailedPrecondition
	case kindCanceled:
		return codes.Canceled
	}
	return codes.Internal
}

func errorBody(err error) ErrorBody {
	body := ErrorBody{Error: err.Error()}
	if code, ok := diagnostics.CodeOf(err); ok {
		body.Code = string(code)
	}
	var unmet *constraints.UnmetConstraintError
	if errors.As(err, &unmet) {
		body.Chain = unmet.Chain()
	}
	return body
}
