package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeNotFound, "document not found")
		if err.Error() != "[NOT_FOUND] document not found" {
			t.Errorf("expected [NOT_FOUND] document not found, got %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("unexpected EOF")
		err := Wrap(original, CodeValidationError, "malformed test document")
		expected := "[VALIDATION_ERROR] malformed test document: unexpected EOF"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
		if !errors.Is(err, original) {
			t.Error("expected wrapped error to unwrap to the original")
		}
	})

	t.Run("ContextIsSorted", func(t *testing.T) {
		err := Internal("shared scope missing").
			WithContext(CtxVariable, "token").
			WithContext(CtxScope, "/1")
		expected := "[INTERNAL_ERROR] shared scope missing (scope=/1 variable=token)"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := New(CodeValidationError, "invalid input")
		if !IsCode(err, CodeValidationError) {
			t.Error("expected IsCode to return true for CodeValidationError")
		}
		if IsCode(err, CodeNotFound) {
			t.Error("expected IsCode to return false for CodeNotFound")
		}
	})

	t.Run("IsCodeThroughFmtWrap", func(t *testing.T) {
		err := fmt.Errorf("scenario checkout: %w", New(CodeInternal, "broken"))
		if !IsCode(err, CodeInternal) {
			t.Error("expected IsCode to see through fmt.Errorf wrapping")
		}
		if CodeOf(errors.New("plain")) != "" {
			t.Error("expected empty code for plain errors")
		}
	})

	t.Run("AddContext", func(t *testing.T) {
		err := AddContext(New(CodeNotFound, "missing"), CtxPath, "a.json")
		var de *DomainError
		if !errors.As(err, &de) {
			t.Fatal("expected DomainError")
		}
		if de.Context[CtxPath] != "a.json" {
			t.Errorf("expected path context, got %v", de.Context)
		}

		plain := AddContext(errors.New("disk full"), CtxOperation, "write")
		if !IsCode(plain, CodeInternal) {
			t.Error("expected plain errors to be wrapped as internal")
		}
	})
}
