package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plandraft/docchunk/pkg/types"
)

func TestDocchunkError(t *testing.T) {
	t.Run("NewDocchunkError", func(t *testing.T) {
		err := NewDocchunkError(types.ErrorTypeValidation, ErrCodeValidation, "test error")

		assert.Equal(t, types.ErrorTypeValidation, err.Type)
		assert.Equal(t, ErrCodeValidation, err.Code)
		assert.Equal(t, "test error", err.Message)
		assert.Nil(t, err.Cause)
		assert.Empty(t, err.Details)
		assert.Empty(t, err.StackTrace)
	})

	t.Run("NewDocchunkErrorWithCause", func(t *testing.T) {
		cause := errors.New("underlying error")
		err := NewDocchunkErrorWithCause(types.ErrorTypeInternal, ErrCodeInternal, "wrapped error", cause)

		assert.Equal(t, types.ErrorTypeInternal, err.Type)
		assert.Equal(t, ErrCodeInternal, err.Code)
		assert.Equal(t, "wrapped error", err.Message)
		assert.Equal(t, cause, err.Cause)
	})

	t.Run("Error", func(t *testing.T) {
		err := NewDocchunkError(types.ErrorTypeValidation, ErrCodeValidation, "test error")
		expected := "[VALIDATION_ERROR] validation: test error"
		assert.Equal(t, expected, err.Error())

		cause := errors.New("underlying error")
		errWithCause := NewDocchunkErrorWithCause(types.ErrorTypeInternal, ErrCodeInternal, "wrapped error", cause)
		expectedWithCause := "[INTERNAL_ERROR] internal: wrapped error (caused by: underlying error)"
		assert.Equal(t, expectedWithCause, errWithCause.Error())
	})

	t.Run("Unwrap", func(t *testing.T) {
		cause := errors.New("underlying error")
		err := NewDocchunkErrorWithCause(types.ErrorTypeInternal, ErrCodeInternal, "wrapped error", cause)

		assert.Equal(t, cause, err.Unwrap())
		assert.True(t, errors.Is(err, cause))

		errWithoutCause := NewDocchunkError(types.ErrorTypeValidation, ErrCodeValidation, "test error")
		assert.Nil(t, errWithoutCause.Unwrap())
	})

	t.Run("WithDetail", func(t *testing.T) {
		err := NewDocchunkError(types.ErrorTypeValidation, ErrCodeValidation, "test error")

		result := err.WithDetail("field", "max_chunk_size")
		assert.Same(t, err, result)
		assert.Equal(t, "max_chunk_size", err.Details["field"])

		err.WithDetail("value", 0).WithDetail("required", true)
		assert.Len(t, err.Details, 3)
	})

	t.Run("WithStackTrace", func(t *testing.T) {
		err := NewDocchunkError(types.ErrorTypeInternal, ErrCodeInternal, "test error")
		err.WithStackTrace()
		assert.NotEmpty(t, err.StackTrace)
		assert.Contains(t, err.StackTrace, "errors_test.go")
	})
}

func TestErrorConstructors(t *testing.T) {
	t.Run("Validation", func(t *testing.T) {
		err := NewMissingFieldError("provider")
		assert.Equal(t, ErrCodeMissingField, err.Code)
		assert.Equal(t, "provider", err.Details["field"])

		err = NewInvalidFormatError("encoding", "tiktoken encoding name")
		assert.Equal(t, ErrCodeInvalidFormat, err.Code)
		assert.Equal(t, "encoding", err.Details["field"])
	})

	t.Run("Resource", func(t *testing.T) {
		err := NewChunkNotFoundError("abc-123")
		assert.Equal(t, types.ErrorTypeNotFound, err.Type)
		assert.Equal(t, "abc-123", err.Details["chunk_id"])
	})

	t.Run("Tokenizer", func(t *testing.T) {
		cause := errors.New("dictionary download failed")
		err := NewEncodingFailedError("cl100k_base", cause)
		assert.Equal(t, ErrCodeEncodingFailed, err.Code)
		assert.Equal(t, "cl100k_base", err.Details["encoding"])
		assert.Equal(t, cause, err.Cause)
	})

	t.Run("Parsing", func(t *testing.T) {
		err := NewUnsupportedFormatError("application/zip")
		assert.Equal(t, ErrCodeUnsupportedFormat, err.Code)
		assert.Equal(t, "application/zip", err.Details["content_type"])
	})

	t.Run("LLM", func(t *testing.T) {
		err := NewLLMTimeoutError("gpt-4o-mini")
		assert.Equal(t, types.ErrorTypeExternal, err.Type)
		assert.Equal(t, "gpt-4o-mini", err.Details["model"])
	})

	t.Run("Embedding", func(t *testing.T) {
		err := NewDimensionMismatchError(1536, 768)
		assert.Equal(t, ErrCodeDimensionMismatch, err.Code)
		assert.Equal(t, 1536, err.Details["expected"])
		assert.Equal(t, 768, err.Details["actual"])
	})

	t.Run("Config", func(t *testing.T) {
		err := NewConfigNotFoundError("/etc/docchunk.yaml")
		assert.Equal(t, ErrCodeConfigNotFound, err.Code)
		assert.Equal(t, "/etc/docchunk.yaml", err.Details["config_path"])
	})
}

func TestErrorHelpers(t *testing.T) {
	t.Run("IsDocchunkError", func(t *testing.T) {
		derr := NewInternalError("boom")
		assert.True(t, IsDocchunkError(derr))
		assert.False(t, IsDocchunkError(errors.New("plain")))
	})

	t.Run("GetDocchunkError", func(t *testing.T) {
		derr := NewInternalError("boom")
		assert.Same(t, derr, GetDocchunkError(derr))
		assert.Nil(t, GetDocchunkError(errors.New("plain")))
	})

	t.Run("WrapError", func(t *testing.T) {
		cause := errors.New("io failure")
		err := WrapError(cause, types.ErrorTypeInternal, ErrCodeFileError, "read failed")
		require.NotNil(t, err)
		assert.Equal(t, cause, err.Cause)
		assert.Equal(t, ErrCodeFileError, err.Code)
	})
}

func TestErrorList(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		el := NewErrorList()
		assert.False(t, el.HasErrors())
		assert.Nil(t, el.ToError())
	})

	t.Run("AddAndJoin", func(t *testing.T) {
		el := NewErrorList()
		el.Add(NewValidationError("first"))
		el.Add(NewInternalError("second"))

		require.True(t, el.HasErrors())
		require.NotNil(t, el.ToError())
		assert.Contains(t, el.Error(), "first")
		assert.Contains(t, el.Error(), "second")
		assert.Contains(t, el.Error(), "; ")
	})

	t.Run("Collect", func(t *testing.T) {
		el := Collect(NewValidationError("only"), nil)
		assert.Len(t, el.Errors, 1)
	})
}
