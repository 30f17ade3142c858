package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	t.Parallel()

	err := NewValidationError("text", "must not be empty")
	assert.Equal(t, "validation failed on text: must not be empty", err.Error())
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestModelError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("classify: %w", &ModelError{Service: "classifier", Provider: "gemini", Err: ErrMalformedOutput})
	assert.ErrorIs(t, err, ErrMalformedOutput)

	var me *ModelError
	assert.True(t, errors.As(err, &me))
	assert.Equal(t, "gemini", me.Provider)
	assert.Contains(t, err.Error(), "classifier (gemini)")
}
