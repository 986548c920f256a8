package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error kinds. Every error the core returns unwraps to exactly one of these.
var (
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrInternal     = errors.New("internal error")
)

var (
	ErrUserExists         = newKindError(ErrConflict, "email already exists")
	ErrInvalidCredentials = newKindError(ErrUnauthorized, "invalid credentials")
	ErrInvalidToken       = newKindError(ErrUnauthorized, "invalid token")
	ErrUserNotFound       = newKindError(ErrNotFound, "user not found")
	ErrNoteNotFound       = newKindError(ErrNotFound, "note not found")
)

type kindError struct {
	kind error
	msg  string
}

func newKindError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

// ValidationError lists the request fields that failed validation, keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError from field/message pairs.
func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k])
	}
	return strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// InternalError hides a storage or unexpected failure behind ErrInternal while keeping
// the cause for logs.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

func (e *InternalError) Is(target error) bool { return target == ErrInternal }

// IsKnown reports whether err already belongs to the domain taxonomy.
func IsKnown(err error) bool {
	for _, kind := range []error{ErrConflict, ErrUnauthorized, ErrNotFound, ErrValidation, ErrInternal} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// Internal wraps err into an InternalError unless it is already a domain error.
func Internal(op string, err error) error {
	if err == nil || IsKnown(err) {
		return err
	}
	return &InternalError{Op: op, Err: err}
}
