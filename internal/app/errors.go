package service

import (
	"errors"

	"github.com/robostorm/robostorm/pkg/errs"
)

// Sentinel kinds for dispatcher errors.
var (
	ErrMissingFields          = errors.New("missing required fields")
	ErrUnknownOperation       = errors.New("unknown operation")
	ErrInvalidParameters      = errors.New("invalid parameters")
	ErrEntityNotFound         = errors.New("entity not found")
	ErrInvalidInteractionType = errors.New("invalid interaction type")
	ErrNotEnoughCandidates    = errors.New("not enough candidates")
	ErrDependencyFailure      = errors.New("dependency failure")
	ErrDependencyTimeout      = errs.SubKind("dependency timeout", ErrDependencyFailure)
	ErrNotStarted             = errors.New("service not started")
)

const missingFieldsMessage = "Missing required fields: tool and action are required"

// kindCodes is ordered so sub kinds are matched before their parents.
var kindCodes = []struct {
	kind error
	code string
}{
	{ErrMissingFields, "MissingFields"},
	{ErrUnknownOperation, "UnknownOperation"},
	{ErrInvalidParameters, "InvalidParameters"},
	{ErrEntityNotFound, "EntityNotFound"},
	{ErrInvalidInteractionType, "InvalidInteractionType"},
	{ErrNotEnoughCandidates, "NotEnoughCandidates"},
	{ErrDependencyTimeout, "DependencyTimeout"},
	{ErrDependencyFailure, "DependencyFailure"},
}

// Code returns the envelope error code for err, or "Internal" when err has
// no known kind.
func Code(err error) string {
	for _, kc := range kindCodes {
		if errors.Is(err, kc.kind) {
			return kc.code
		}
	}
	return "Internal"
}

// publicMessage renders err for the response envelope. Dependency failures
// are reported by kind only so store internals do not leak to callers.
func publicMessage(err error) string {
	switch {
	case errors.Is(err, ErrMissingFields):
		return missingFieldsMessage
	case errors.Is(err, ErrDependencyTimeout):
		return ErrDependencyTimeout.Error()
	case errors.Is(err, ErrDependencyFailure):
		return ErrDependencyFailure.Error()
	}
	var opErr *errs.OpError
	for cur := err; errors.As(cur, &opErr); cur = opErr.Err {
		if opErr.Kind == nil {
			continue
		}
		if opErr.Err != nil {
			return opErr.Kind.Error() + ": " + opErr.Err.Error()
		}
		return opErr.Kind.Error()
	}
	return err.Error()
}
