// Package errdef defines the error kinds handlers can report. The middleware.ErrorHandler maps
// each kind to an HTTP status code.
package errdef

import (
	"errors"
	"fmt"
)

// kind doubles as the sentinel errors.Is compares against.
type kind uint8

const (
	badRequest kind = iota + 1
	unauthorized
	forbidden
	notFound
	duplicated
	conflict
	unsupportedMediaType
	payloadTooLarge
)

var kindNames = map[kind]string{
	badRequest:           "bad request",
	unauthorized:         "unauthorized",
	forbidden:            "forbidden",
	notFound:             "not found",
	duplicated:           "duplicated",
	conflict:             "conflict",
	unsupportedMediaType: "unsupported media type",
	payloadTooLarge:      "payload too large",
}

func (k kind) Error() string {
	return kindNames[k]
}

type kindError struct {
	kind kind
	err  error
}

func (e kindError) Error() string { return e.err.Error() }

func (e kindError) Unwrap() error { return e.err }

func (e kindError) Is(target error) bool {
	k, ok := target.(kind)
	return ok && k == e.kind
}

func newError(k kind, format string, a ...any) error {
	return kindError{kind: k, err: fmt.Errorf(format, a...)}
}

func NewBadRequest(format string, a ...any) error { return newError(badRequest, format, a...) }

func IsBadRequest(err error) bool { return errors.Is(err, badRequest) }

// NewUnauthorized is used when the caller couldn't be identified.
func NewUnauthorized(format string, a ...any) error { return newError(unauthorized, format, a...) }

func IsUnauthorized(err error) bool { return errors.Is(err, unauthorized) }

// NewForbidden is used when the caller is known but not allowed to do what was asked.
func NewForbidden(format string, a ...any) error { return newError(forbidden, format, a...) }

func IsForbidden(err error) bool { return errors.Is(err, forbidden) }

func NewNotFound(format string, a ...any) error { return newError(notFound, format, a...) }

func IsNotFound(err error) bool { return errors.Is(err, notFound) }

// NewDuplicated is used when a unique value, like an email, is already taken.
func NewDuplicated(format string, a ...any) error { return newError(duplicated, format, a...) }

func IsDuplicated(err error) bool { return errors.Is(err, duplicated) }

// NewConflict is used when the request can't be applied to the current state of a resource.
func NewConflict(format string, a ...any) error { return newError(conflict, format, a...) }

func IsConflict(err error) bool { return errors.Is(err, conflict) }

// NewUnsupportedMediaType is used for request bodies or uploads of a type we don't accept.
func NewUnsupportedMediaType(format string, a ...any) error {
	return newError(unsupportedMediaType, format, a...)
}

func IsUnsupportedMediaType(err error) bool { return errors.Is(err, unsupportedMediaType) }

// NewPayloadTooLarge is used for uploads above the configured limit.
func NewPayloadTooLarge(format string, a ...any) error {
	return newError(payloadTooLarge, format, a...)
}

func IsPayloadTooLarge(err error) bool { return errors.Is(err, payloadTooLarge) }
