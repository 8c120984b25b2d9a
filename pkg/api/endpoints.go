package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"nexora/pkg/session"
)

// Login signs in and installs the resulting session into the store.
func (c *Client) Login(ctx context.Context, email, password string) (session.Session, error) {
	var out LoginResponse
	if err := c.Post(ctx, "/api/auth/login", LoginRequest{Email: email, Password: password}, &out, SkipAuth()); err != nil {
		return session.Session{}, err
	}

	expiresAt := time.Time{}
	if out.ExpiresIn > 0 {
		expiresAt = time.Now().Add(time.Duration(out.ExpiresIn) * time.Second)
	}

	s := session.Session{
		UserID:       out.UserID,
		UserName:     out.UserName,
		AuthToken:    out.Token,
		RefreshToken: out.RefreshToken,
		ExpiresAt:    expiresAt,
		Credits:      out.Credits,
		Subscription: out.Subscription,
	}

	if c.sessions != nil {
		if err := c.sessions.Replace(s); err != nil {
			return session.Session{}, fmt.Errorf("failed to persist session: %w", err)
		}
	}
	return s, nil
}

// Logout tells the backend to revoke the tokens, then clears local state.
// The local session is cleared even when the revoke call fails.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.Post(ctx, "/api/auth/logout", nil, nil); err != nil {
		slog.Warn("logout revoke failed", "error", err)
	}
	if c.sessions != nil {
		return c.sessions.Clear()
	}
	return nil
}

// Account fetches the current credits and subscription and mirrors them into
// the session store.
func (c *Client) Account(ctx context.Context) (AccountResponse, error) {
	var out AccountResponse
	if err := c.Get(ctx, "/api/account", &out); err != nil {
		return AccountResponse{}, err
	}

	if c.sessions != nil {
		err := c.sessions.Update(func(s *session.Session) {
			s.Credits = out.Credits
			s.Subscription = out.Subscription
			if out.UserName != "" {
				s.UserName = out.UserName
			}
		})
		if err != nil {
			slog.Warn("failed to mirror account into session", "error", err)
		}
	}
	return out, nil
}

// CreateCheckout asks the payment wrapper for a checkout session. The
// returned URL is opened by the user; payment itself is opaque to the client.
func (c *Client) CreateCheckout(ctx context.Context, plan string) (CheckoutResponse, error) {
	var out CheckoutResponse
	if err := c.Post(ctx, "/api/billing/checkout", CheckoutRequest{Plan: plan}, &out); err != nil {
		return CheckoutResponse{}, err
	}
	if out.CheckoutURL == "" {
		return CheckoutResponse{}, fmt.Errorf("checkout response carried no URL")
	}
	return out, nil
}

// GenerateChart asks the chart-image wrapper to render a chart and returns
// the PNG URL.
func (c *Client) GenerateChart(ctx context.Context, req ChartRequest) (ChartResponse, error) {
	var out ChartResponse
	if err := c.Post(ctx, "/api/charts", req, &out); err != nil {
		return ChartResponse{}, err
	}
	if out.ImageURL == "" {
		return ChartResponse{}, fmt.Errorf("chart response carried no image URL")
	}
	return out, nil
}

// DownloadFile fetches an absolute URL (e.g. a chart PNG) to a local path.
func (c *Client) DownloadFile(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create download request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Message: "download failed"}
	}

	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", destPath, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("failed to write %s: %w", destPath, err)
	}
	return nil
}

// ReportErrors flushes queued client errors to the backend's error monitor.
func (c *Client) ReportErrors(ctx context.Context, reports []ErrorReport) error {
	if len(reports) == 0 {
		return nil
	}
	return c.Post(ctx, "/api/errors", reports, nil)
}

// Health probes backend liveness. No auth: the probe must work while
// signed out.
func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	var out HealthResponse
	if err := c.Get(ctx, "/api/health", &out, SkipAuth()); err != nil {
		return HealthResponse{}, err
	}
	return out, nil
}

// ProjectFiles fetches the flat path -> content map of a generated project.
func (c *Client) ProjectFiles(ctx context.Context, projectID string) (map[string]string, error) {
	if projectID == "" {
		return nil, fmt.Errorf("project id is required")
	}
	var out ProjectFilesResponse
	if err := c.Get(ctx, "/api/mvp/files?project_id="+url.QueryEscape(projectID), &out); err != nil {
		return nil, err
	}
	return out.Files, nil
}

// CreateRepoExport asks the source-control wrapper to create a repository
// for the generated project.
func (c *Client) CreateRepoExport(ctx context.Context, req RepoExportRequest) (RepoExportResponse, error) {
	var out RepoExportResponse
	if err := c.Post(ctx, "/api/github/export", req, &out); err != nil {
		return RepoExportResponse{}, err
	}
	if out.CloneURL == "" {
		return RepoExportResponse{}, fmt.Errorf("export response carried no clone URL")
	}
	return out, nil
}
