// Package errs provides the operation error wrapper shared by every layer.
//
// Each package declares its own sentinel kinds in errors.go and wraps
// failures with the operation that produced them:
//
//	return errs.WrapKind("service.getComparisonData", ErrEntityNotFound, err)
//
// errors.Is matches both the kind and the underlying cause.
package errs

import (
	"errors"
	"strings"
)

// OpError records the operation, the error kind and the underlying cause.
type OpError struct {
	Op   string
	Kind error
	Err  error
}

func (e *OpError) Error() string {
	parts := make([]string, 0, 3)
	if e.Op != "" {
		parts = append(parts, e.Op)
	}
	if e.Kind != nil {
		parts = append(parts, e.Kind.Error())
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *OpError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind returns an error of kind with no further cause.
func NewKind(op string, kind error) error {
	return &OpError{Op: op, Kind: kind}
}

// WrapKind classifies err as kind.
func WrapKind(op string, kind, err error) error {
	return &OpError{Op: op, Kind: kind, Err: err}
}

// Wrap annotates err with op, keeping the kind of err if it has one.
// It returns nil when err is nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Err: err}
}

// KindOf returns the outermost kind attached to err, or nil.
func KindOf(err error) error {
	var opErr *OpError
	for errors.As(err, &opErr) {
		if opErr.Kind != nil {
			return opErr.Kind
		}
		err = opErr.Err
	}
	return nil
}

// subKind is a kind that also matches a broader parent kind.
type subKind struct {
	msg    string
	parent error
}

func (k *subKind) Error() string { return k.msg }
func (k *subKind) Unwrap() error { return k.parent }

// SubKind declares a kind that is a special case of parent, so that
// errors.Is(err, parent) holds for errors of the new kind.
func SubKind(msg string, parent error) error {
	return &subKind{msg: msg, parent: parent}
}
