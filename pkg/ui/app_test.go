package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"nexora/pkg/api"
	"nexora/pkg/config"
	"nexora/pkg/mvp"
	"nexora/pkg/notify"
	"nexora/pkg/session"
	"nexora/pkg/statestore"
	"nexora/pkg/ui/components/testutils"

	"github.com/charmbracelet/x/ansi"
)

// newBackend serves the endpoints the app touches during tests.
func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req api.LoginRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"invalid credentials"}`))
			return
		}
		json.NewEncoder(w).Encode(api.LoginResponse{
			UserID: "u1", UserName: "Ada", Token: "tok", RefreshToken: "ref", Credits: 10,
		})
	})

	mux.HandleFunc("/api/mvp/stream", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		lines := []string{
			`{"type":"content","content":"Scaffolding"}`,
			`{"type":"file_operation","status":"completed","path":"src/app.ts"}`,
			`{"type":"sandbox_url","url":"https://sbx.nexora.app/p1"}`,
			`{"type":"complete"}`,
		}
		for _, line := range lines {
			fmt.Fprintf(w, "data: %s\n\n", line)
		}
	})

	mux.HandleFunc("/api/mvp/files", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.ProjectFilesResponse{
			ProjectID: r.URL.Query().Get("project_id"),
			Files:     map[string]string{"src/app.ts": "console.log('hi')"},
		})
	})

	mux.HandleFunc("/api/account", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.AccountResponse{UserID: "u1", UserName: "Ada", Credits: 9})
	})

	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.HealthResponse{Status: "ok"})
	})

	mux.HandleFunc("/api/errors", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

type appFixture struct {
	app      *App
	sessions *session.Store
	gen      *mvp.Session
	center   *notify.Center
}

func newTestApp(t *testing.T, serverURL string, signedIn, guestMode bool) appFixture {
	t.Helper()

	cfg := config.Default()
	cfg.API.BaseURL = serverURL
	cfg.GuestMode = guestMode

	sessions, err := session.Open(filepath.Join(t.TempDir(), "session.json"))
	if err != nil {
		t.Fatalf("session.Open() failed: %v", err)
	}
	if signedIn {
		if err := sessions.Replace(session.Session{UserID: "u1", UserName: "Ada", AuthToken: "tok", Credits: 10}); err != nil {
			t.Fatalf("session.Replace() failed: %v", err)
		}
	}

	states, err := statestore.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("statestore.Open() failed: %v", err)
	}
	t.Cleanup(func() { states.Close() })

	client := api.NewClient(cfg.API, sessions)
	gen := mvp.NewSession("p1")
	center := notify.NewCenter(nil)

	app := NewApp(cfg, client, sessions, gen, center, states)
	app.SetSize(100, 30)
	return appFixture{app: app, sessions: sessions, gen: gen, center: center}
}

func typeKeys(app *App, text string) {
	for _, r := range text {
		app.HandleKey(testutils.NewTextKeyPressMsg(string(r)))
	}
}

func waitFor(t *testing.T, desc string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("Timed out waiting for %s", desc)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNewApp_ModeFollowsSession(t *testing.T) {
	server := newBackend(t)

	if f := newTestApp(t, server.URL, false, false); f.app.Mode() != ModeLogin {
		t.Error("Expected login mode without a stored session")
	}
	if f := newTestApp(t, server.URL, true, false); f.app.Mode() != ModeMain {
		t.Error("Expected main mode with a stored session")
	}
}

func TestHandleKey_CtrlCTwiceQuits(t *testing.T) {
	f := newTestApp(t, newBackend(t).URL, true, false)

	if f.app.HandleKey(testutils.TestKeyCtrlC) {
		t.Fatal("First Ctrl+C must arm, not quit")
	}
	if !f.app.HandleKey(testutils.TestKeyCtrlC) {
		t.Fatal("Second Ctrl+C must quit")
	}
}

func TestHandleKey_OtherKeyDisarmsQuit(t *testing.T) {
	f := newTestApp(t, newBackend(t).URL, true, false)

	f.app.HandleKey(testutils.TestKeyCtrlC)
	typeKeys(f.app, "a")
	if f.app.HandleKey(testutils.TestKeyCtrlC) {
		t.Fatal("Quit must need two consecutive Ctrl+C presses")
	}
}

func TestSignInFlow(t *testing.T) {
	f := newTestApp(t, newBackend(t).URL, false, false)

	typeKeys(f.app, "ada@example.com")
	f.app.HandleKey(testutils.TestKeyEnter)
	typeKeys(f.app, "hunter2")
	f.app.HandleKey(testutils.TestKeyEnter)

	waitFor(t, "sign-in", func() bool { return f.app.Mode() == ModeMain })
	if !f.sessions.Authenticated() {
		t.Error("Expected session persisted after sign-in")
	}
}

func TestSignInFlow_BadCredentials(t *testing.T) {
	f := newTestApp(t, newBackend(t).URL, false, false)

	typeKeys(f.app, "ada@example.com")
	f.app.HandleKey(testutils.TestKeyEnter)
	typeKeys(f.app, "wrong")
	f.app.HandleKey(testutils.TestKeyEnter)

	waitFor(t, "login error", func() bool {
		return strings.Contains(ansi.Strip(f.app.Render()), "Sign-in failed")
	})
	if f.app.Mode() != ModeLogin {
		t.Error("Expected login mode kept after rejection")
	}
}

func TestGuestSession_Gated(t *testing.T) {
	disabled := newTestApp(t, newBackend(t).URL, false, false)
	disabled.app.HandleKey(testutils.TestKeyCtrlG)
	if disabled.app.Mode() != ModeLogin {
		t.Error("Guest shortcut must be inert when disabled")
	}

	enabled := newTestApp(t, newBackend(t).URL, false, true)
	enabled.app.HandleKey(testutils.TestKeyCtrlG)
	waitFor(t, "guest session", func() bool { return enabled.app.Mode() == ModeMain })

	cur := enabled.sessions.Current()
	if !cur.Guest || cur.AuthToken != "" {
		t.Errorf("Expected tokenless guest session, got %+v", cur)
	}
}

func TestGenerateFlow(t *testing.T) {
	f := newTestApp(t, newBackend(t).URL, true, false)

	typeKeys(f.app, "build a todo app")
	f.app.HandleKey(testutils.TestKeyEnter)

	waitFor(t, "generation", func() bool {
		msgs := f.gen.Messages()
		return len(msgs) == 2 && msgs[1].Status == mvp.StatusComplete
	})
	waitFor(t, "explorer refresh", func() bool {
		f.app.mu.Lock()
		defer f.app.mu.Unlock()
		return len(f.app.projectFiles) == 1
	})

	if got := f.gen.SandboxURL(); got != "https://sbx.nexora.app/p1" {
		t.Errorf("Unexpected sandbox URL %q", got)
	}
}

func TestExplorerToggle(t *testing.T) {
	f := newTestApp(t, newBackend(t).URL, true, false)

	f.app.HandleKey(testutils.NewCtrlKeyPressMsg('f'))
	f.app.mu.Lock()
	visible := f.app.files.IsVisible()
	f.app.mu.Unlock()
	if !visible {
		t.Fatal("Expected explorer shown after Ctrl+F")
	}

	f.app.HandleKey(testutils.NewCtrlKeyPressMsg('f'))
	f.app.mu.Lock()
	visible = f.app.files.IsVisible()
	f.app.mu.Unlock()
	if visible {
		t.Error("Expected explorer hidden after second Ctrl+F")
	}
}

func TestFlushErrors_RequeuesOnFailure(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer down.Close()

	f := newTestApp(t, down.URL, true, false)
	f.app.QueueError("boom", "test")

	if err := f.app.FlushErrors(context.Background()); err == nil {
		t.Fatal("Expected flush failure")
	}
	f.app.mu.Lock()
	queued := len(f.app.errQueue)
	f.app.mu.Unlock()
	if queued != 1 {
		t.Errorf("Expected batch requeued, got %d entries", queued)
	}
}

func TestFlushErrors_EmptyQueueNoRequest(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	f := newTestApp(t, server.URL, true, false)
	if err := f.app.FlushErrors(context.Background()); err != nil {
		t.Fatalf("FlushErrors() failed: %v", err)
	}
	if calls != 0 {
		t.Errorf("Expected no request for empty queue, got %d", calls)
	}
}

func TestProbeHealth(t *testing.T) {
	f := newTestApp(t, newBackend(t).URL, true, false)

	if err := f.app.ProbeHealth(context.Background()); err != nil {
		t.Fatalf("ProbeHealth() failed: %v", err)
	}
	if !strings.Contains(ansi.Strip(f.app.Render()), "backend: ok") {
		t.Error("Expected health in status bar")
	}
}

func TestProbeHealth_Down(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	f := newTestApp(t, down.URL, true, false)
	if err := f.app.ProbeHealth(context.Background()); err == nil {
		t.Fatal("Expected probe error")
	}
	if !strings.Contains(ansi.Strip(f.app.Render()), "backend: down") {
		t.Error("Expected down marker in status bar")
	}
}

func TestSaveRestoreState(t *testing.T) {
	backend := newBackend(t)
	f := newTestApp(t, backend.URL, true, false)

	typeKeys(f.app, "build it")
	f.app.HandleKey(testutils.TestKeyEnter)
	waitFor(t, "generation", func() bool {
		msgs := f.gen.Messages()
		return len(msgs) == 2 && msgs[1].Status == mvp.StatusComplete
	})
	if err := f.app.SaveState(context.Background()); err != nil {
		t.Fatalf("SaveState() failed: %v", err)
	}

	f.app.mu.Lock()
	states := f.app.states
	f.app.mu.Unlock()

	// Fresh app over the same store picks the transcript back up
	cfg := config.Default()
	cfg.API.BaseURL = backend.URL
	restored := NewApp(cfg, api.NewClient(cfg.API, f.sessions), f.sessions, mvp.NewSession(""), f.center, states)
	restored.SetSize(100, 30)
	if err := restored.RestoreState(); err != nil {
		t.Fatalf("RestoreState() failed: %v", err)
	}

	restored.mu.Lock()
	msgCount := len(restored.gen.Messages())
	restored.mu.Unlock()
	if msgCount != 2 {
		t.Errorf("Expected transcript restored, got %d messages", msgCount)
	}
}
