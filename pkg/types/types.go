// Package types defines the core types shared across docchunk
package types

// MessageRole represents the role of a message in a conversation
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleSystem    MessageRole = "system"
)

// MessageDict represents a single message in a conversation
type MessageDict struct {
	Role    MessageRole `json:"role" validate:"required,oneof=user assistant system"`
	Content string      `json:"content" validate:"required"`
}

// MessageList represents a list of messages in a conversation
type MessageList []MessageDict

// BackendType represents the type of provider backend (LLM, embedder)
type BackendType string

const (
	BackendOpenAI BackendType = "openai"
	BackendOllama BackendType = "ollama"
	BackendMock   BackendType = "mock"
)

// EmbeddingVector represents an embedding vector
type EmbeddingVector []float32

// Error types for better error handling
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeInternal   ErrorType = "internal"
	ErrorTypeExternal   ErrorType = "external"
)
