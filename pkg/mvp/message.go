package mvp

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// MessageStatus tracks the lifecycle of an assistant message.
type MessageStatus string

const (
	StatusStreaming MessageStatus = "streaming"
	StatusComplete  MessageStatus = "complete"
	StatusError     MessageStatus = "error"
)

// Message is one entry in the builder transcript. Messages live only for the
// current builder session; they are never persisted across restarts except as
// part of a session snapshot.
type Message struct {
	ID        string        `json:"id"`
	Role      Role          `json:"role"`
	Content   string        `json:"content"`
	Timestamp time.Time     `json:"timestamp"`
	Files     []string      `json:"files,omitempty"`
	Status    MessageStatus `json:"status,omitempty"`
}

// NewUserMessage creates a complete user message.
func NewUserMessage(content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Content:   content,
		Timestamp: time.Now(),
		Status:    StatusComplete,
	}
}

// NewAssistantMessage creates an in-progress assistant message.
func NewAssistantMessage() Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Timestamp: time.Now(),
		Status:    StatusStreaming,
	}
}
