package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeNotFound, "scratch snapshot is empty")
		if err.Error() != "[NOT_FOUND] scratch snapshot is empty" {
			t.Errorf("expected [NOT_FOUND] scratch snapshot is empty, got %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("unexpected end of JSON input")
		err := Wrap(original, CodeMalformedState, "parse baseline")
		expected := "[MALFORMED_STATE] parse baseline: unexpected end of JSON input"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := New(CodeValidationError, "unknown input format")
		if !IsCode(err, CodeValidationError) {
			t.Error("expected IsCode to return true for CodeValidationError")
		}
		if IsCode(err, CodeNotFound) {
			t.Error("expected IsCode to return false for CodeNotFound")
		}
	})

	t.Run("IsCodeThroughFmtWrap", func(t *testing.T) {
		inner := Wrap(errors.New("boom"), CodeRegressionDetected, "ratchet failed")
		err := fmt.Errorf("check: %w", inner)
		if !IsCode(err, CodeRegressionDetected) {
			t.Error("expected IsCode to see through fmt wrapping")
		}
		if CodeOf(err) != CodeRegressionDetected {
			t.Errorf("expected CodeOf to return REGRESSION_DETECTED, got %s", CodeOf(err))
		}
	})

	t.Run("AddContext", func(t *testing.T) {
		err := AddContext(New(CodeIO, "write baseline"), CtxPath, "eslint-ratchet.json")
		expected := "[IO_ERROR] write baseline map[path:eslint-ratchet.json]"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}

		plain := AddContext(errors.New("boom"), CtxOperation, "load")
		if CodeOf(plain) != CodeInternal {
			t.Errorf("expected plain error to be wrapped as INTERNAL_ERROR, got %s", CodeOf(plain))
		}
		if CodeOf(errors.New("x")) != CodeInternal {
			t.Error("expected CodeOf to default to INTERNAL_ERROR")
		}
	})
}
