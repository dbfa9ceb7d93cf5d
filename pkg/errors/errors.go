// Package errors provides structured error handling for docchunk
package errors

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/plandraft/docchunk/pkg/types"
)

// ErrorCode represents specific error codes
type ErrorCode string

const (
	// Validation errors
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrCodeMissingField  ErrorCode = "MISSING_FIELD"
	ErrCodeInvalidFormat ErrorCode = "INVALID_FORMAT"

	// Resource errors
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeChunkNotFound ErrorCode = "CHUNK_NOT_FOUND"

	// System errors
	ErrCodeInternal    ErrorCode = "INTERNAL_ERROR"
	ErrCodeTimeout     ErrorCode = "TIMEOUT"
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"

	// Tokenizer errors
	ErrCodeTokenizerError ErrorCode = "TOKENIZER_ERROR"
	ErrCodeEncodingFailed ErrorCode = "ENCODING_FAILED"

	// Parsing errors
	ErrCodeParseError        ErrorCode = "PARSE_ERROR"
	ErrCodeUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"

	// LLM errors
	ErrCodeLLMError       ErrorCode = "LLM_ERROR"
	ErrCodeLLMTimeout     ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMAPIError    ErrorCode = "LLM_API_ERROR"
	ErrCodeLLMRateLimited ErrorCode = "LLM_RATE_LIMITED"

	// Embedding errors
	ErrCodeEmbeddingError    ErrorCode = "EMBEDDING_ERROR"
	ErrCodeDimensionMismatch ErrorCode = "DIMENSION_MISMATCH"

	// Configuration errors
	ErrCodeConfigError    ErrorCode = "CONFIG_ERROR"
	ErrCodeConfigNotFound ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  ErrorCode = "CONFIG_INVALID"

	// File system errors
	ErrCodeFileError    ErrorCode = "FILE_ERROR"
	ErrCodeFileNotFound ErrorCode = "FILE_NOT_FOUND"
)

// DocchunkError represents a structured error in docchunk
type DocchunkError struct {
	Type       types.ErrorType        `json:"type"`
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"stack_trace,omitempty"`
}

// Error implements the error interface
func (e *DocchunkError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (caused by: %v)", e.Code, e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *DocchunkError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *DocchunkError) WithDetail(key string, value interface{}) *DocchunkError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithStackTrace adds a stack trace to the error
func (e *DocchunkError) WithStackTrace() *DocchunkError {
	e.StackTrace = getStackTrace()
	return e
}

// NewDocchunkError creates a new docchunk error
func NewDocchunkError(errType types.ErrorType, code ErrorCode, message string) *DocchunkError {
	return &DocchunkError{
		Type:    errType,
		Code:    code,
		Message: message,
	}
}

// NewDocchunkErrorWithCause creates a new docchunk error with a cause
func NewDocchunkErrorWithCause(errType types.ErrorType, code ErrorCode, message string, cause error) *DocchunkError {
	return &DocchunkError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Validation error constructors
func NewValidationError(message string) *DocchunkError {
	return NewDocchunkError(types.ErrorTypeValidation, ErrCodeValidation, message)
}

func NewInvalidInputError(message string) *DocchunkError {
	return NewDocchunkError(types.ErrorTypeValidation, ErrCodeInvalidInput, message)
}

func NewMissingFieldError(field string) *DocchunkError {
	return NewDocchunkError(types.ErrorTypeValidation, ErrCodeMissingField,
		fmt.Sprintf("missing required field: %s", field)).WithDetail("field", field)
}

func NewInvalidFormatError(field, expectedFormat string) *DocchunkError {
	return NewDocchunkError(types.ErrorTypeValidation, ErrCodeInvalidFormat,
		fmt.Sprintf("invalid format for field %s, expected: %s", field, expectedFormat)).
		WithDetail("field", field).WithDetail("expected_format", expectedFormat)
}

// Resource error constructors
func NewNotFoundError(resource string) *DocchunkError {
	return NewDocchunkError(types.ErrorTypeNotFound, ErrCodeNotFound,
		fmt.Sprintf("%s not found", resource)).WithDetail("resource", resource)
}

func NewChunkNotFoundError(chunkID string) *DocchunkError {
	return NewDocchunkError(types.ErrorTypeNotFound, ErrCodeChunkNotFound,
		fmt.Sprintf("chunk not found: %s", chunkID)).WithDetail("chunk_id", chunkID)
}

// System error constructors
func NewInternalError(message string) *DocchunkError {
	return NewDocchunkError(types.ErrorTypeInternal, ErrCodeInternal, message)
}

func NewInternalErrorWithCause(message string, cause error) *DocchunkError {
	return NewDocchunkErrorWithCause(types.ErrorTypeInternal, ErrCodeInternal, message, cause)
}

func NewTimeoutError(operation string) *DocchunkError {
	return NewDocchunkError(types.ErrorTypeInternal, ErrCodeTimeout,
		fmt.Sprintf("%s operation timed out", operation)).WithDetail("operation", operation)
}

func NewRateLimitedError(message string) *DocchunkError {
	return NewDocchunkError(types.ErrorTypeInternal, ErrCodeRateLimited, message)
}

// Tokenizer error constructors
func NewTokenizerError(message string) *DocchunkError {
	return NewDocchunkError(types.ErrorTypeInternal, ErrCodeTokenizerError, message)
}

func NewEncodingFailedError(encoding string, cause error) *DocchunkError {
	return NewDocchunkErrorWithCause(types.ErrorTypeInternal, ErrCodeEncodingFailed,
		fmt.Sprintf("failed to load encoding: %s", encoding), cause).WithDetail("encoding", encoding)
}

// Parsing error constructors
func NewParseError(message string, cause error) *DocchunkError {
	return NewDocchunkErrorWithCause(types.ErrorTypeValidation, ErrCodeParseError, message, cause)
}

func NewUnsupportedFormatError(contentType string) *DocchunkError {
	return NewDocchunkError(types.ErrorTypeValidation, ErrCodeUnsupportedFormat,
		fmt.Sprintf("unsupported content type: %s", contentType)).WithDetail("content_type", contentType)
}

// LLM error constructors
func NewLLMError(message string) *DocchunkError {
	return NewDocchunkError(types.ErrorTypeExternal, ErrCodeLLMError, message)
}

func NewLLMTimeoutError(model string) *DocchunkError {
	return NewDocchunkError(types.ErrorTypeExternal, ErrCodeLLMTimeout,
		fmt.Sprintf("LLM request timed out: %s", model)).WithDetail("model", model)
}

func NewLLMAPIError(message string, cause error) *DocchunkError {
	return NewDocchunkErrorWithCause(types.ErrorTypeExternal, ErrCodeLLMAPIError, message, cause)
}

func NewLLMRateLimitedError(model string) *DocchunkError {
	return NewDocchunkError(types.ErrorTypeExternal, ErrCodeLLMRateLimited,
		fmt.Sprintf("LLM rate limited: %s", model)).WithDetail("model", model)
}

// Embedding error constructors
func NewEmbeddingError(message string, cause error) *DocchunkError {
	return NewDocchunkErrorWithCause(types.ErrorTypeExternal, ErrCodeEmbeddingError, message, cause)
}

func NewDimensionMismatchError(expected, actual int) *DocchunkError {
	return NewDocchunkError(types.ErrorTypeExternal, ErrCodeDimensionMismatch,
		fmt.Sprintf("embedding dimension mismatch: expected %d, got %d", expected, actual)).
		WithDetail("expected", expected).WithDetail("actual", actual)
}

// Configuration error constructors
func NewConfigError(message string) *DocchunkError {
	return NewDocchunkError(types.ErrorTypeValidation, ErrCodeConfigError, message)
}

func NewConfigNotFoundError(configPath string) *DocchunkError {
	return NewDocchunkError(types.ErrorTypeNotFound, ErrCodeConfigNotFound,
		fmt.Sprintf("configuration file not found: %s", configPath)).WithDetail("config_path", configPath)
}

func NewConfigInvalidError(message string) *DocchunkError {
	return NewDocchunkError(types.ErrorTypeValidation, ErrCodeConfigInvalid, message)
}

// File system error constructors
func NewFileError(message string) *DocchunkError {
	return NewDocchunkError(types.ErrorTypeInternal, ErrCodeFileError, message)
}

func NewFileNotFoundError(filePath string) *DocchunkError {
	return NewDocchunkError(types.ErrorTypeNotFound, ErrCodeFileNotFound,
		fmt.Sprintf("file not found: %s", filePath)).WithDetail("file_path", filePath)
}

// Helper functions
func getStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var trace strings.Builder
	for {
		frame, more := frames.Next()
		if !more {
			break
		}
		trace.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
	}

	return trace.String()
}

// IsDocchunkError checks if an error is a DocchunkError
func IsDocchunkError(err error) bool {
	_, ok := err.(*DocchunkError)
	return ok
}

// GetDocchunkError extracts a DocchunkError from an error
func GetDocchunkError(err error) *DocchunkError {
	if derr, ok := err.(*DocchunkError); ok {
		return derr
	}
	return nil
}

// WrapError wraps an error as a DocchunkError
func WrapError(err error, errType types.ErrorType, code ErrorCode, message string) *DocchunkError {
	return NewDocchunkErrorWithCause(errType, code, message, err)
}

// ErrorList represents a list of errors
type ErrorList struct {
	Errors []*DocchunkError `json:"errors"`
}

// Error implements the error interface
func (el *ErrorList) Error() string {
	var messages []string
	for _, err := range el.Errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// Add adds an error to the list
func (el *ErrorList) Add(err *DocchunkError) {
	el.Errors = append(el.Errors, err)
}

// HasErrors returns true if there are errors
func (el *ErrorList) HasErrors() bool {
	return len(el.Errors) > 0
}

// ToError returns the ErrorList as an error if it has errors, otherwise nil
func (el *ErrorList) ToError() error {
	if el.HasErrors() {
		return el
	}
	return nil
}

// NewErrorList creates a new error list
func NewErrorList() *ErrorList {
	return &ErrorList{
		Errors: make([]*DocchunkError, 0),
	}
}

// Collect collects multiple errors into an ErrorList
func Collect(errors ...*DocchunkError) *ErrorList {
	el := NewErrorList()
	for _, err := range errors {
		if err != nil {
			el.Add(err)
		}
	}
	return el
}
