package mvp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"nexora/pkg/api"
)

// contentPreviewLimit caps how much of the accumulating response is mirrored
// into the in-progress assistant message while streaming.
const contentPreviewLimit = 300

// Session holds the state of one MVP builder round-trip: the transcript, the
// created-file list, and the sandbox URL. All fields are guarded by a mutex
// because the stream consumer runs on its own goroutine while the UI reads.
type Session struct {
	mu sync.Mutex

	ProjectID string

	messages   []Message
	buffer     strings.Builder
	files      []string
	sandboxURL string
	statusLine string
	generating bool
	currentID  string
}

// NewSession creates an empty builder session.
func NewSession(projectID string) *Session {
	return &Session{ProjectID: projectID}
}

// Messages returns a copy of the transcript.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Files returns a copy of the created-file list.
func (s *Session) Files() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.files))
	copy(out, s.files)
	return out
}

// FilesGenerated returns the created-file counter.
func (s *Session) FilesGenerated() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

// SandboxURL returns the live preview URL, if any.
func (s *Session) SandboxURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sandboxURL
}

// StatusLine returns the transient progress line ("creating src/app.ts ...").
func (s *Session) StatusLine() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLine
}

// Generating reports whether a stream is in flight.
func (s *Session) Generating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generating
}

// ResponseText returns the full accumulated assistant response.
func (s *Session) ResponseText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer.String()
}

// Generate drives one full generation round: records the prompt, opens the
// stream, and mutates the transcript as events arrive. onChange (may be nil)
// fires after every state change so the owning view can re-render. Cancelling
// ctx aborts the stream; the session is then failed rather than left hanging.
func (s *Session) Generate(ctx context.Context, client *api.Client, prompt string, onChange func()) error {
	notify := func() {
		if onChange != nil {
			onChange()
		}
	}

	s.begin(prompt)
	notify()

	stream, err := OpenStream(ctx, client, GenerateRequest{Prompt: prompt, ProjectID: s.ProjectID})
	if err != nil {
		s.fail(err)
		notify()
		return err
	}
	defer stream.Close()

	for {
		evt, ok := stream.Next()
		if !ok {
			break
		}
		s.apply(evt)
		notify()
	}

	if err := stream.Err(); err != nil {
		s.fail(err)
		notify()
		return err
	}

	// A stream that ends without a complete event still finalizes; the
	// backend closing the connection is treated as completion.
	s.finishIfStreaming()
	notify()
	return nil
}

// begin records the user prompt and the in-progress assistant reply.
func (s *Session) begin(prompt string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := NewUserMessage(prompt)
	assistant := NewAssistantMessage()
	assistant.Content = "Working on it..."

	s.messages = append(s.messages, user, assistant)
	s.currentID = assistant.ID
	s.buffer.Reset()
	s.generating = true
	s.statusLine = ""
}

// apply folds one stream event into the session state.
func (s *Session) apply(evt Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch evt.Type {
	case EventContent:
		s.buffer.WriteString(evt.Content)
		s.setCurrentContent(preview(s.buffer.String()))

	case EventFileOperation:
		switch evt.Status {
		case FileOpProcessing:
			s.statusLine = "creating " + evt.Path
		case FileOpCompleted:
			s.files = append(s.files, evt.Path)
			s.statusLine = ""
		}

	case EventSandboxURL:
		if evt.URL != "" && !evt.Mock {
			s.sandboxURL = evt.URL
		}

	case EventComplete:
		s.finalize()

	default:
		slog.Debug("ignoring unknown stream event", "type", evt.Type)
	}
}

// fail rewrites the in-progress assistant message into an error message and
// resets generation state.
func (s *Session) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := s.current()
	if msg != nil {
		msg.Content = "Generation failed: " + err.Error()
		msg.Status = StatusError
	}
	s.generating = false
	s.statusLine = ""
	s.currentID = ""
}

// finishIfStreaming finalizes if the stream ended without a complete event.
func (s *Session) finishIfStreaming() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generating {
		s.finalize()
	}
}

// finalize closes out the in-progress assistant message with the file-count
// summary. Caller must hold the lock.
func (s *Session) finalize() {
	msg := s.current()
	if msg != nil {
		msg.Content = fmt.Sprintf("MVP generated: %d files created.", len(s.files))
		msg.Files = append([]string(nil), s.files...)
		msg.Status = StatusComplete
	}
	s.generating = false
	s.statusLine = ""
	s.currentID = ""
}

// current returns the in-progress assistant message. Caller must hold the lock.
func (s *Session) current() *Message {
	if s.currentID == "" {
		return nil
	}
	for i := range s.messages {
		if s.messages[i].ID == s.currentID {
			return &s.messages[i]
		}
	}
	return nil
}

// setCurrentContent updates the in-progress message. Caller must hold the lock.
func (s *Session) setCurrentContent(content string) {
	if msg := s.current(); msg != nil {
		msg.Content = content
	}
}

// preview truncates the accumulating response for in-transcript display.
func preview(text string) string {
	if len(text) <= contentPreviewLimit {
		return text
	}
	return text[:contentPreviewLimit] + "..."
}

// Snapshot is the persistable subset of a builder session.
type Snapshot struct {
	ProjectID  string    `json:"project_id,omitempty"`
	Messages   []Message `json:"messages"`
	Files      []string  `json:"files,omitempty"`
	SandboxURL string    `json:"sandbox_url,omitempty"`
}

// Snapshot captures the session for the periodic state-save task. An in-flight
// generation is snapshotted as-is; the streaming message keeps its status.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ProjectID:  s.ProjectID,
		Messages:   make([]Message, len(s.messages)),
		Files:      append([]string(nil), s.files...),
		SandboxURL: s.sandboxURL,
	}
	copy(snap.Messages, s.messages)
	return snap
}

// Restore replaces the session state from a snapshot. Only valid while no
// generation is in flight.
func (s *Session) Restore(snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generating {
		return fmt.Errorf("cannot restore while generating")
	}

	s.ProjectID = snap.ProjectID
	s.messages = make([]Message, len(snap.Messages))
	copy(s.messages, snap.Messages)
	s.files = append([]string(nil), snap.Files...)
	s.sandboxURL = snap.SandboxURL
	s.buffer.Reset()
	s.statusLine = ""
	s.currentID = ""
	return nil
}

// MarshalSnapshot encodes a snapshot for the state store.
func MarshalSnapshot(snap Snapshot) ([]byte, error) {
	return json.Marshal(snap)
}

// UnmarshalSnapshot decodes a snapshot from the state store.
func UnmarshalSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to parse session snapshot: %w", err)
	}
	return snap, nil
}
