package api

// RefreshRequest exchanges a refresh token for a new token pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshResponse is the backend's answer to a refresh request.
type RefreshResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
}

// LoginRequest carries the user's credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is a successful sign-in.
type LoginResponse struct {
	UserID       string `json:"user_id"`
	UserName     string `json:"user_name"`
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	Credits      int    `json:"credits"`
	Subscription string `json:"subscription"`
}

// AccountResponse is the current account state (credits are metered
// server-side and consumed by generation actions).
type AccountResponse struct {
	UserID       string `json:"user_id"`
	UserName     string `json:"user_name"`
	Credits      int    `json:"credits"`
	Subscription string `json:"subscription"`
}

// CheckoutRequest asks the payment service wrapper for a checkout session.
type CheckoutRequest struct {
	Plan string `json:"plan"`
}

// CheckoutResponse carries the opaque payment redirect URL.
type CheckoutResponse struct {
	CheckoutURL string `json:"checkout_url"`
	SessionID   string `json:"session_id,omitempty"`
}

// ChartRequest asks the chart-image service wrapper to render a chart.
type ChartRequest struct {
	Title  string    `json:"title,omitempty"`
	Type   string    `json:"type"` // "bar", "line", "pie"
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// ChartResponse carries the URL of the rendered PNG.
type ChartResponse struct {
	ImageURL string `json:"image_url"`
}

// ErrorReport is a client-side error queued for the backend's error monitor.
type ErrorReport struct {
	Message    string `json:"message"`
	Context    string `json:"context,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

// HealthResponse is the backend liveness probe result.
type HealthResponse struct {
	Status string `json:"status"`
}

// ProjectFilesResponse is the flat listing of a generated project.
type ProjectFilesResponse struct {
	ProjectID string            `json:"project_id"`
	Files     map[string]string `json:"files"`
}

// RepoExportRequest asks the source-control wrapper to create a repository
// for the generated project.
type RepoExportRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Private     bool   `json:"private"`
}

// RepoExportResponse carries what the client needs to push: the clone URL and
// a short-lived access token for HTTPS basic auth.
type RepoExportResponse struct {
	RepoURL     string `json:"repo_url"`
	CloneURL    string `json:"clone_url"`
	AccessToken string `json:"access_token"`
}
