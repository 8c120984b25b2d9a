package ui

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"nexora/pkg/api"
	"nexora/pkg/config"
	"nexora/pkg/export"
	"nexora/pkg/mvp"
	"nexora/pkg/notify"
	"nexora/pkg/session"
	"nexora/pkg/statestore"
	"nexora/pkg/ui/components/explorer"
	"nexora/pkg/ui/components/login"
	"nexora/pkg/ui/components/prompt"
	"nexora/pkg/ui/components/statusbar"
	"nexora/pkg/ui/components/toasts"
	"nexora/pkg/ui/components/transcript"
	"nexora/pkg/ui/components/utils"
	"nexora/pkg/ui/styles"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

// Mode selects which top-level view is active.
type Mode int

const (
	ModeLogin Mode = iota
	ModeMain
)

type focusTarget int

const (
	focusPrompt focusTarget = iota
	focusTranscript
)

const statusBarHeight = 1

// App coordinates the panels and owns all cross-component state. Component
// commands are executed synchronously and their messages dispatched back
// through handleMsg.
type App struct {
	mu sync.Mutex

	cfg      config.Config
	client   *api.Client
	sessions *session.Store
	gen      *mvp.Session
	center   *notify.Center
	states   *statestore.Store

	mode    Mode
	focused focusTarget
	width   int
	height  int

	loginPanel *login.Panel
	promptBox  *prompt.Prompt
	chat       *transcript.Transcript
	files      *explorer.Explorer
	status     *statusbar.StatusBar
	toastView  *toasts.Toasts

	projectFiles map[string]string
	previewPath  string
	previewLines []string
	previewY     int

	genCancel context.CancelFunc
	quitArmed bool
	errQueue  []api.ErrorReport

	changed chan struct{}
}

// NewApp wires the panels together. The starting mode depends on whether a
// stored session is still usable; there is never an implicit demo login.
func NewApp(cfg config.Config, client *api.Client, sessions *session.Store, gen *mvp.Session, center *notify.Center, states *statestore.Store) *App {
	a := &App{
		cfg:        cfg,
		client:     client,
		sessions:   sessions,
		gen:        gen,
		center:     center,
		states:     states,
		loginPanel: login.New(cfg.GuestMode),
		promptBox:  prompt.New(),
		chat:       transcript.New(),
		files:      explorer.New(),
		status:     statusbar.New(),
		toastView:  toasts.New(center),
		changed:    make(chan struct{}, 1),
	}

	if sessions.Authenticated() {
		a.mode = ModeMain
	}
	a.syncStatus()
	a.syncTranscript()
	return a
}

// Mode returns the active top-level view.
func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// Changed signals that the view needs a redraw. Coalesced: a pending signal
// absorbs further ones.
func (a *App) Changed() <-chan struct{} {
	return a.changed
}

func (a *App) notifyChanged() {
	select {
	case a.changed <- struct{}{}:
	default:
	}
}

// SetSize distributes the terminal dimensions across the panels.
func (a *App) SetSize(width, height int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.width = width
	a.height = height
	a.layout()
}

// layout recomputes panel sizes. Caller must hold the lock.
func (a *App) layout() {
	mainWidth := a.width
	if a.files.IsVisible() {
		mainWidth = a.width * 2 / 3
		a.files.SetSize(a.width-mainWidth, a.height-statusBarHeight)
	}

	promptHeight := 3
	chatHeight := a.height - statusBarHeight - promptHeight
	if chatHeight < 3 {
		chatHeight = 3
	}

	a.chat.SetSize(mainWidth, chatHeight)
	a.promptBox.SetSize(mainWidth-2, promptHeight)
	a.loginPanel.SetSize(a.width, a.height)
	a.status.SetWidth(a.width)
	a.toastView.SetWidth(a.width / 2)
}

// HandleKey routes a key press. It returns true when the app should quit.
func (a *App) HandleKey(msg tea.KeyPressMsg) bool {
	a.mu.Lock()

	keyStr := msg.String()

	// Quit is armed on the first Ctrl+C and fires on the second.
	if keyStr == "ctrl+c" {
		if a.quitArmed {
			a.mu.Unlock()
			return true
		}
		a.quitArmed = true
		a.status.SetMessage("Press Ctrl+C again to quit")
		a.mu.Unlock()
		a.notifyChanged()
		return false
	}
	if a.quitArmed {
		a.quitArmed = false
		a.status.SetMessage("")
	}

	if a.mode == ModeLogin {
		cmd := a.loginPanel.Update(msg)
		a.mu.Unlock()
		a.dispatch(cmd)
		a.notifyChanged()
		return false
	}

	// File preview overlay swallows navigation keys
	if a.previewPath != "" {
		a.handlePreviewKey(keyStr)
		a.mu.Unlock()
		a.notifyChanged()
		return false
	}

	switch keyStr {
	case "ctrl+f":
		if a.files.IsVisible() {
			a.files.Hide()
		} else {
			a.files.Show()
		}
		a.layout()
		a.mu.Unlock()
		a.notifyChanged()
		return false

	case "ctrl+x":
		cancel := a.genCancel
		a.mu.Unlock()
		if cancel != nil {
			cancel()
			a.center.Notify(notify.LevelWarning, "Generation cancelled", 0)
		}
		return false

	case "ctrl+e":
		a.mu.Unlock()
		go a.exportProject()
		return false

	case "ctrl+d":
		a.mu.Unlock()
		if a.toastView.DismissNewest() {
			a.notifyChanged()
		}
		return false

	case "tab":
		if a.focused == focusPrompt {
			a.focused = focusTranscript
		} else {
			a.focused = focusPrompt
		}
		a.mu.Unlock()
		a.notifyChanged()
		return false
	}

	if a.files.IsVisible() && a.files.ShouldHandleKey(msg) {
		cmd := a.files.Update(msg)
		a.layout()
		a.mu.Unlock()
		a.dispatch(cmd)
		a.notifyChanged()
		return false
	}

	var cmd tea.Cmd
	if a.focused == focusTranscript && a.chat.ShouldHandleKey(msg) {
		cmd = a.chat.Update(msg)
	} else {
		cmd = a.promptBox.Update(msg)
	}
	a.mu.Unlock()
	a.dispatch(cmd)
	a.notifyChanged()
	return false
}

func (a *App) handlePreviewKey(keyStr string) {
	maxScroll := len(a.previewLines) - a.previewBodyHeight()
	if maxScroll < 0 {
		maxScroll = 0
	}

	switch keyStr {
	case "esc", "q":
		a.previewPath = ""
		a.previewLines = nil
		a.previewY = 0
	case "up":
		if a.previewY > 0 {
			a.previewY--
		}
	case "down":
		if a.previewY < maxScroll {
			a.previewY++
		}
	case "pgup":
		a.previewY -= 10
		if a.previewY < 0 {
			a.previewY = 0
		}
	case "pgdown":
		a.previewY += 10
		if a.previewY > maxScroll {
			a.previewY = maxScroll
		}
	}
}

// dispatch runs a component command and routes the resulting message.
func (a *App) dispatch(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	msg := cmd()
	if msg == nil {
		return
	}

	switch m := msg.(type) {
	case prompt.SubmitMsg:
		go a.generate(m.Text)

	case login.SubmitMsg:
		go a.signIn(m.Email, m.Password)

	case login.GuestMsg:
		a.startGuestSession()

	case explorer.FileSelectedMsg:
		a.openPreview(m.Path, m.Content)
	}
}

// generate runs one MVP generation round.
func (a *App) generate(text string) {
	a.mu.Lock()
	if a.gen.Generating() {
		a.mu.Unlock()
		a.center.Notify(notify.LevelWarning, "A generation is already running", 0)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.genCancel = cancel
	a.promptBox.SetLocked(true)
	a.status.SetGenerating(true)
	a.mu.Unlock()
	a.notifyChanged()

	err := a.gen.Generate(ctx, a.client, text, func() {
		a.mu.Lock()
		a.syncTranscript()
		a.mu.Unlock()
		a.notifyChanged()
	})

	a.mu.Lock()
	a.genCancel = nil
	a.promptBox.SetLocked(false)
	a.status.SetGenerating(false)
	a.syncTranscript()
	a.mu.Unlock()

	if err != nil {
		if ctx.Err() == nil {
			a.center.Notify(notify.LevelError, "Generation failed: "+err.Error(), 8*time.Second)
			a.QueueError("generation failed: "+err.Error(), "mvp")
		}
	} else {
		a.center.Notify(notify.LevelSuccess, fmt.Sprintf("MVP ready: %d files", a.gen.FilesGenerated()), 0)
		a.refreshFiles(context.Background())
		a.SaveState(context.Background())
	}
	a.refreshAccount()
	a.notifyChanged()
}

// refreshFiles pulls the generated project listing into the explorer.
func (a *App) refreshFiles(ctx context.Context) {
	a.mu.Lock()
	projectID := a.gen.ProjectID
	a.mu.Unlock()
	if projectID == "" {
		return
	}

	files, err := a.client.ProjectFiles(ctx, projectID)
	if err != nil {
		slog.Warn("Failed to fetch project files", "error", err)
		a.QueueError("file listing failed: "+err.Error(), "explorer")
		return
	}

	a.mu.Lock()
	a.projectFiles = files
	a.files.SetFiles(files)
	if a.previewPath != "" {
		if content, ok := files[a.previewPath]; ok {
			a.setPreviewLocked(a.previewPath, content)
		} else {
			a.previewPath = ""
			a.previewLines = nil
			a.previewY = 0
		}
	}
	a.mu.Unlock()
	a.notifyChanged()
}

// refreshAccount mirrors credits into the status bar after a generation.
func (a *App) refreshAccount() {
	if !a.sessions.Authenticated() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := a.client.Account(ctx); err != nil {
		slog.Debug("Account refresh failed", "error", err)
		return
	}
	a.mu.Lock()
	a.syncStatus()
	a.mu.Unlock()
}

// signIn exchanges credentials for a session.
func (a *App) signIn(email, password string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := a.client.Login(ctx, email, password)
	a.mu.Lock()
	if err != nil {
		a.loginPanel.SetError("Sign-in failed: " + err.Error())
		a.mu.Unlock()
		a.notifyChanged()
		return
	}
	a.mode = ModeMain
	a.loginPanel.Reset()
	a.syncStatus()
	a.mu.Unlock()

	a.center.Notify(notify.LevelSuccess, "Welcome back, "+s.UserName, 0)
	a.notifyChanged()
}

// startGuestSession creates an explicit guest session. Gated on config.
func (a *App) startGuestSession() {
	if !a.cfg.GuestMode {
		return
	}
	guest := session.NewGuest()
	if err := a.sessions.Replace(guest); err != nil {
		a.mu.Lock()
		a.loginPanel.SetError("Could not start guest session: " + err.Error())
		a.mu.Unlock()
		a.notifyChanged()
		return
	}

	a.mu.Lock()
	a.mode = ModeMain
	a.loginPanel.Reset()
	a.syncStatus()
	a.mu.Unlock()

	a.center.Notify(notify.LevelInfo, "Guest session: work is not saved to an account", 8*time.Second)
	a.notifyChanged()
}

// Logout revokes the session and drops back to the sign-in form.
func (a *App) Logout(ctx context.Context) {
	if err := a.client.Logout(ctx); err != nil {
		slog.Warn("Logout failed", "error", err)
	}
	a.mu.Lock()
	a.mode = ModeLogin
	a.loginPanel.Reset()
	a.syncStatus()
	a.mu.Unlock()
	a.notifyChanged()
}

// exportProject pushes the generated files to a fresh GitHub repository.
func (a *App) exportProject() {
	a.mu.Lock()
	files := a.projectFiles
	projectID := a.gen.ProjectID
	a.mu.Unlock()

	if len(files) == 0 {
		a.center.Notify(notify.LevelWarning, "Nothing to export yet", 0)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	repo, err := a.client.CreateRepoExport(ctx, api.RepoExportRequest{
		Name:    "nexora-" + projectID,
		Private: true,
	})
	if err != nil {
		a.center.Notify(notify.LevelError, "Export failed: "+err.Error(), 8*time.Second)
		a.QueueError("repo export failed: "+err.Error(), "export")
		return
	}

	dir, err := os.MkdirTemp("", "nexora-export-")
	if err != nil {
		a.center.Notify(notify.LevelError, "Export failed: "+err.Error(), 8*time.Second)
		return
	}
	defer os.RemoveAll(dir)

	if _, err := export.InitRepo(dir, files); err != nil {
		a.center.Notify(notify.LevelError, "Export failed: "+err.Error(), 8*time.Second)
		return
	}
	err = export.Push(ctx, dir, export.PushOptions{
		CloneURL:    repo.CloneURL,
		AccessToken: repo.AccessToken,
	})
	if err != nil {
		a.center.Notify(notify.LevelError, "Export failed: "+err.Error(), 8*time.Second)
		a.QueueError("push failed: "+err.Error(), "export")
		return
	}

	a.center.Notify(notify.LevelSuccess, "Exported to "+repo.RepoURL, 8*time.Second)
}

func (a *App) openPreview(path, content string) {
	a.mu.Lock()
	a.setPreviewLocked(path, content)
	a.mu.Unlock()
	a.notifyChanged()
}

// setPreviewLocked rewraps the preview content. Caller must hold the lock.
func (a *App) setPreviewLocked(path, content string) {
	a.previewPath = path
	a.previewLines = utils.WrapToWidth(content, a.previewWidth())
	a.previewY = 0
}

// QueueError buffers a client error for the next flush to the backend.
func (a *App) QueueError(message, context string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.errQueue = append(a.errQueue, api.ErrorReport{
		Message:    message,
		Context:    context,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
}

// FlushErrors sends queued errors to the backend. Used as a periodic task;
// failures requeue the batch.
func (a *App) FlushErrors(ctx context.Context) error {
	a.mu.Lock()
	batch := a.errQueue
	a.errQueue = nil
	a.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	if err := a.client.ReportErrors(ctx, batch); err != nil {
		a.mu.Lock()
		a.errQueue = append(batch, a.errQueue...)
		a.mu.Unlock()
		return err
	}
	return nil
}

// ProbeHealth refreshes the backend health segment. Used as a periodic task.
func (a *App) ProbeHealth(ctx context.Context) error {
	out, err := a.client.Health(ctx)
	a.mu.Lock()
	if err != nil {
		a.status.SetHealth("down")
	} else {
		a.status.SetHealth(out.Status)
	}
	a.mu.Unlock()
	a.notifyChanged()
	return err
}

// SaveState persists the generation snapshot. Used as a periodic task and on
// shutdown.
func (a *App) SaveState(ctx context.Context) error {
	if a.states == nil {
		return nil
	}
	data, err := mvp.MarshalSnapshot(a.gen.Snapshot())
	if err != nil {
		return err
	}
	return a.states.Put(statestore.KeyMVPSnapshot, data)
}

// RestoreState reloads the last generation snapshot, if any.
func (a *App) RestoreState() error {
	if a.states == nil {
		return nil
	}
	data, err := a.states.Get(statestore.KeyMVPSnapshot)
	if err != nil || data == nil {
		return err
	}
	snap, err := mvp.UnmarshalSnapshot(data)
	if err != nil {
		return err
	}
	if err := a.gen.Restore(snap); err != nil {
		return err
	}

	a.mu.Lock()
	a.syncTranscript()
	a.mu.Unlock()
	go a.refreshFiles(context.Background())
	return nil
}

// syncStatus mirrors the stored session into the status bar. Caller must
// hold the lock.
func (a *App) syncStatus() {
	cur := a.sessions.Current()
	a.status.SetUser(displayName(cur), cur.Guest)
	a.status.SetCredits(cur.Credits)
}

func displayName(s session.Session) string {
	if s.UserName != "" {
		return s.UserName
	}
	return s.UserID
}

// syncTranscript pushes the session messages into the panel. Caller must
// hold the lock.
func (a *App) syncTranscript() {
	a.chat.SetMessages(a.gen.Messages(), a.gen.ResponseText(), a.gen.SandboxURL())
	if line := a.gen.StatusLine(); line != "" {
		a.status.SetMessage(line)
	} else if !a.quitArmed {
		a.status.SetMessage("")
	}
}

// Render composes the full frame.
func (a *App) Render() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.mode == ModeLogin {
		return lipgloss.JoinVertical(lipgloss.Left,
			a.loginPanel.View(),
			a.toastView.View(),
			a.status.Render(),
		)
	}

	var center string
	if a.previewPath != "" {
		center = a.renderPreview()
	} else {
		center = a.chat.View()
	}

	main := lipgloss.JoinVertical(lipgloss.Left,
		center,
		a.promptBox.View(),
	)

	if a.files.IsVisible() {
		main = lipgloss.JoinHorizontal(lipgloss.Top, main, a.files.View())
	}

	parts := []string{main}
	if overlay := a.toastView.View(); overlay != "" {
		parts = append(parts, overlay)
	}
	parts = append(parts, a.status.Render())

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (a *App) renderPreview() string {
	width := a.previewWidth()
	body := a.previewBodyHeight()

	lines := make([]string, 0, body+2)
	lines = append(lines, utils.PadStyled(styles.TitleStyle.Render(utils.TruncateToWidth(a.previewPath, width)), width))

	start := a.previewY
	end := start + body
	if end > len(a.previewLines) {
		end = len(a.previewLines)
	}
	for i := start; i < end; i++ {
		lines = append(lines, utils.PadStyled(styles.CodeStyle.Render(utils.PadPlain(a.previewLines[i], width)), width))
	}
	for len(lines) < 1+body {
		lines = append(lines, strings.Repeat(" ", width))
	}
	lines = append(lines, utils.PadStyled(styles.FooterStyle.Render(utils.TruncateToWidth("Up/Down Scroll | Esc Close", width)), width))

	return styles.BoxStyleCompact.Render(strings.Join(lines, "\n"))
}

func (a *App) previewWidth() int {
	width := a.width
	if a.files.IsVisible() {
		width = a.width * 2 / 3
	}
	width -= 6
	if width < 20 {
		width = 20
	}
	return width
}

func (a *App) previewBodyHeight() int {
	height := a.height - statusBarHeight - 3 - 4
	if height < 3 {
		height = 3
	}
	return height
}
