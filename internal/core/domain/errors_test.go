package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelKinds(t *testing.T) {
	cases := []struct {
		err  error
		kind error
	}{
		{ErrUserExists, ErrConflict},
		{ErrInvalidCredentials, ErrUnauthorized},
		{ErrInvalidToken, ErrUnauthorized},
		{ErrUserNotFound, ErrNotFound},
		{ErrNoteNotFound, ErrNotFound},
		{NewValidationError(map[string]string{"title": "title is required"}), ErrValidation},
	}
	for _, tc := range cases {
		if !errors.Is(tc.err, tc.kind) {
			t.Fatalf("%v should unwrap to %v", tc.err, tc.kind)
		}
	}
}

func TestInternal_WrapsUnknownErrors(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal("notes.create", cause)

	if !errors.Is(err, ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be preserved")
	}
	var ie *InternalError
	if !errors.As(err, &ie) || ie.Op != "notes.create" {
		t.Fatalf("unexpected internal error: %#v", err)
	}
}

func TestInternal_PassesDomainErrorsThrough(t *testing.T) {
	wrapped := fmt.Errorf("find note: %w", ErrNoteNotFound)
	if got := Internal("notes.find", wrapped); got != wrapped {
		t.Fatalf("expected domain error unchanged, got %v", got)
	}
	if Internal("noop", nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}

func TestValidationError_MessageIsSorted(t *testing.T) {
	err := NewValidationError(map[string]string{
		"title": "title is required",
		"body":  "body is required",
	})
	if got := err.Error(); got != "body is required; title is required" {
		t.Fatalf("unexpected message %q", got)
	}
}
