package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"nexora/pkg/config"
	"nexora/pkg/session"
)

const (
	refreshPath = "/api/auth/refresh"
	maxPreview  = 200
)

// ErrSessionExpired is returned when a 401 could not be recovered by a token
// refresh. Callers drop back to the login view and the stored session is
// already cleared.
var ErrSessionExpired = errors.New("session expired")

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
}

// errorBody is the backend's JSON error envelope.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Client handles all HTTP interactions with the NEXORA backend.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string

	sessions *session.Store
}

// NewClient creates a client for the configured backend.
func NewClient(cfg config.APIConfig, sessions *session.Store) *Client {
	return &Client{
		BaseURL: strings.TrimRight(cfg.BaseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		UserAgent: "nexora-cli/1.0",
		sessions:  sessions,
	}
}

// requestOptions controls per-request behavior.
type requestOptions struct {
	skipAuth bool
}

// RequestOption customizes a single request.
type RequestOption func(*requestOptions)

// SkipAuth sends the request without an Authorization header and without the
// 401 refresh-and-retry cycle. Used for login, refresh, and health checks.
func SkipAuth() RequestOption {
	return func(o *requestOptions) { o.skipAuth = true }
}

// Get issues a GET and decodes the JSON response into out (out may be nil).
func (c *Client) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out, opts...)
}

// Post issues a POST with a JSON body and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.doJSON(ctx, http.MethodPost, path, body, out, opts...)
}

// Put issues a PUT with a JSON body and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.doJSON(ctx, http.MethodPut, path, body, out, opts...)
}

// Patch issues a PATCH with a JSON body and decodes the response into out.
func (c *Client) Patch(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.doJSON(ctx, http.MethodPatch, path, body, out, opts...)
}

// Delete issues a DELETE and decodes the JSON response into out.
func (c *Client) Delete(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.doJSON(ctx, http.MethodDelete, path, nil, out, opts...)
}

// Upload sends a multipart form with one file part plus extra fields.
func (c *Client) Upload(ctx context.Context, path, field, filename string, file io.Reader, fields map[string]string, out any, opts ...RequestOption) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("failed to copy file contents: %w", err)
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return fmt.Errorf("failed to write form field %s: %w", k, err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, path, buf.Bytes(), writer.FormDataContentType(), "", opts...)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeResponse(resp, out)
}

// Stream issues a request whose response body is consumed incrementally by
// the caller (the SSE generation endpoint). On success the response body is
// left open; on a non-2xx status it is drained into an *APIError and closed.
func (c *Client) Stream(ctx context.Context, path string, body any, opts ...RequestOption) (*http.Response, error) {
	data, err := marshalBody(body)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodPost, path, data, "application/json", "text/event-stream", opts...)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// doJSON runs a JSON request/response cycle.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	data, err := marshalBody(body)
	if err != nil {
		return err
	}

	contentType := ""
	if data != nil {
		contentType = "application/json"
	}

	resp, err := c.do(ctx, method, path, data, contentType, "", opts...)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeResponse(resp, out)
}

// do sends the request, running the refresh-and-retry cycle on 401. The body
// is a byte slice so the retry can replay it. Non-2xx responses are converted
// into *APIError.
func (c *Client) do(ctx context.Context, method, path string, body []byte, contentType, accept string, opts ...RequestOption) (*http.Response, error) {
	var options requestOptions
	for _, opt := range opts {
		opt(&options)
	}

	token := ""
	if !options.skipAuth && c.sessions != nil {
		token = c.sessions.Token()
	}

	resp, err := c.send(ctx, method, path, body, contentType, accept, token)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && !options.skipAuth {
		drainAndClose(resp.Body)

		newToken, refreshErr := c.refreshSession(ctx)
		if refreshErr != nil {
			slog.Warn("token refresh failed, clearing session", "error", refreshErr)
			if c.sessions != nil {
				if clearErr := c.sessions.Clear(); clearErr != nil {
					slog.Error("failed to clear session", "error", clearErr)
				}
			}
			return nil, fmt.Errorf("%w: %v", ErrSessionExpired, refreshErr)
		}

		slog.Debug("retrying request with refreshed token", "method", method, "path", path)
		resp, err = c.send(ctx, method, path, body, contentType, accept, newToken)
		if err != nil {
			return nil, err
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := readAPIError(resp)
		resp.Body.Close()
		return nil, apiErr
	}

	return resp, nil
}

// send performs a single HTTP round trip.
func (c *Client) send(ctx context.Context, method, path string, body []byte, contentType, accept, token string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("User-Agent", c.UserAgent)

	slog.Debug("api_request",
		"method", method,
		"path", path,
		"token", maskToken(token),
		"request_size", len(body),
	)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		slog.Error("api_request_failed", "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("request failed: %w", err)
	}

	slog.Debug("api_response",
		"method", method,
		"path", path,
		"status_code", resp.StatusCode,
		"content_type", resp.Header.Get("Content-Type"),
	)

	return resp, nil
}

// refreshSession exchanges the stored refresh token for a new token pair and
// persists it. Returns the new access token.
func (c *Client) refreshSession(ctx context.Context) (string, error) {
	if c.sessions == nil {
		return "", fmt.Errorf("no session store configured")
	}

	refreshToken := c.sessions.RefreshToken()
	if refreshToken == "" {
		return "", fmt.Errorf("no refresh token stored")
	}

	var out RefreshResponse
	err := c.Post(ctx, refreshPath, RefreshRequest{RefreshToken: refreshToken}, &out, SkipAuth())
	if err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", fmt.Errorf("refresh response carried no token")
	}

	expiresAt := time.Time{}
	if out.ExpiresIn > 0 {
		expiresAt = time.Now().Add(time.Duration(out.ExpiresIn) * time.Second)
	}
	if err := c.sessions.SetTokens(out.Token, out.RefreshToken, expiresAt); err != nil {
		return "", fmt.Errorf("failed to persist refreshed tokens: %w", err)
	}

	return out.Token, nil
}

func marshalBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return data, nil
}

func decodeResponse(resp *http.Response, out any) error {
	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// readAPIError builds an *APIError from an error response body.
func readAPIError(resp *http.Response) *APIError {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		body = nil
	}

	message := ""
	var envelope errorBody
	if json.Unmarshal(body, &envelope) == nil {
		if envelope.Error != "" {
			message = envelope.Error
		} else if envelope.Message != "" {
			message = envelope.Message
		}
	}
	if message == "" {
		message = strings.TrimSpace(string(body))
		if len(message) > maxPreview {
			message = message[:maxPreview] + "..."
		}
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
	}

	slog.Error("api_error_response", "status_code", resp.StatusCode, "message", message)
	return &APIError{StatusCode: resp.StatusCode, Message: message}
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64*1024))
	_ = body.Close()
}

// maskToken hides the middle of a token for logging.
func maskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
