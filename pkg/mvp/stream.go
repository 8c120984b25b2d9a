package mvp

import (
	"context"
	"log/slog"

	"nexora/pkg/api"

	"github.com/openai/openai-go/v3/packages/ssestream"
)

const streamPath = "/api/mvp/stream"

// GenerateRequest starts one generation round.
type GenerateRequest struct {
	Prompt    string `json:"prompt"`
	ProjectID string `json:"project_id,omitempty"`
}

// Stream consumes the generation endpoint's SSE response. Cancelling the
// context passed to OpenStream aborts the read loop; closing the stream
// releases the connection.
type Stream struct {
	decoder ssestream.Decoder
}

// OpenStream posts the prompt and attaches a decoder to the event stream.
func OpenStream(ctx context.Context, client *api.Client, req GenerateRequest) (*Stream, error) {
	resp, err := client.Stream(ctx, streamPath, req)
	if err != nil {
		return nil, err
	}
	return &Stream{decoder: ssestream.NewDecoder(resp)}, nil
}

// Next returns the next well-formed event. Malformed payloads are logged and
// skipped; the stream keeps going. Returns false when the stream ends, errors
// out, or is cancelled.
func (s *Stream) Next() (Event, bool) {
	for s.decoder.Next() {
		raw := s.decoder.Event()
		evt, err := ParseEvent([]byte(raw.Data))
		if err != nil {
			slog.Warn("skipping malformed stream event", "error", err, "size", len(raw.Data))
			continue
		}
		return evt, true
	}
	return Event{}, false
}

// Err returns the terminal stream error, if any.
func (s *Stream) Err() error {
	return s.decoder.Err()
}

// Close releases the underlying response body.
func (s *Stream) Close() error {
	return s.decoder.Close()
}
