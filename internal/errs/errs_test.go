package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	err := Validationf("media kind %q not supported", "archive")
	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "archive")

	wrapped := fmt.Errorf("upload rejected: %w", err)
	assert.True(t, IsValidation(wrapped))

	assert.False(t, IsValidation(errors.New("other")))
}

func TestExtractionErrorTransience(t *testing.T) {
	transient := Transientf("connection refused")
	terminal := Terminalf("corrupt input")

	assert.True(t, IsTransient(transient))
	assert.False(t, IsTransient(terminal))
	assert.False(t, IsTransient(errors.New("plain")))

	t.Run("wrapping preserves transience", func(t *testing.T) {
		wrapped := fmt.Errorf("strategy failed: %w", transient)
		assert.True(t, IsTransient(wrapped))
	})
}

func TestWithMethod(t *testing.T) {
	t.Run("keeps transience and attaches the method", func(t *testing.T) {
		err := WithMethod("ocr-primary", Transientf("quota exceeded"))
		require.True(t, IsTransient(err))
		assert.Contains(t, err.Error(), "ocr-primary")
		assert.Contains(t, err.Error(), "transient")
	})

	t.Run("plain errors become terminal", func(t *testing.T) {
		err := WithMethod("native", errors.New("boom"))
		assert.False(t, IsTransient(err))
		assert.Contains(t, err.Error(), "native")
	})
}

func TestNotReadyError(t *testing.T) {
	err := &NotReadyError{FileID: "abc123", Status: "processing"}
	assert.True(t, IsNotReady(err))
	assert.Contains(t, err.Error(), "abc123")
	assert.Contains(t, err.Error(), "processing")
	assert.False(t, IsNotReady(ErrNotFound))
}
