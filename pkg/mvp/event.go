package mvp

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// EventType discriminates the stream event union.
type EventType string

const (
	EventContent       EventType = "content"
	EventFileOperation EventType = "file_operation"
	EventSandboxURL    EventType = "sandbox_url"
	EventComplete      EventType = "complete"
)

// File operation statuses sent by the backend.
const (
	FileOpProcessing = "processing"
	FileOpCompleted  = "completed"
)

// Event is one decoded generation stream event.
type Event struct {
	Type EventType `json:"type"`

	// content
	Content string `json:"content,omitempty"`

	// file_operation
	Status string `json:"status,omitempty"`
	Path   string `json:"path,omitempty"`

	// sandbox_url
	URL  string `json:"url,omitempty"`
	Mock bool   `json:"mock,omitempty"`

	// complete
	FilesGenerated int    `json:"files_generated,omitempty"`
	Message        string `json:"message,omitempty"`
}

// ParseEvent decodes a single stream payload. The payload is validated before
// unmarshalling so a garbled line can be skipped cheaply.
func ParseEvent(data []byte) (Event, error) {
	if !gjson.ValidBytes(data) {
		return Event{}, fmt.Errorf("invalid JSON payload")
	}

	typ := gjson.GetBytes(data, "type")
	if !typ.Exists() || typ.String() == "" {
		return Event{}, fmt.Errorf("payload carries no type")
	}

	var evt Event
	if err := json.Unmarshal(data, &evt); err != nil {
		return Event{}, fmt.Errorf("failed to unmarshal %s event: %w", typ.String(), err)
	}
	return evt, nil
}
