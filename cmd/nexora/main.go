package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"nexora/pkg/api"
	"nexora/pkg/config"
	"nexora/pkg/logging"
	"nexora/pkg/monitor"
	"nexora/pkg/mvp"
	"nexora/pkg/notify"
	"nexora/pkg/session"
	"nexora/pkg/statestore"
	"nexora/pkg/ui"
	"nexora/pkg/ui/components/banner"

	tea "charm.land/bubbletea/v2"
	"github.com/google/uuid"
	"golang.org/x/term"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (default ~/.nexora/config.json)")
	guest := flag.Bool("guest", false, "enable the guest session shortcut for this run")
	logout := flag.Bool("logout", false, "clear the stored session before starting")
	flag.Parse()

	if *showVersion {
		printVersion()
		return
	}

	path := *configPath
	if path == "" {
		path = config.GetConfigPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *guest {
		cfg.GuestMode = true
	}

	if _, err := logging.Init(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		os.Exit(1)
	}
	slog.Info("Nexora CLI started", "config", path)

	sessions, err := session.Open(session.DefaultPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening session store: %v\n", err)
		os.Exit(1)
	}
	if *logout {
		if err := sessions.Clear(); err != nil {
			fmt.Fprintf(os.Stderr, "Error clearing session: %v\n", err)
			os.Exit(1)
		}
	}

	client := api.NewClient(cfg.API, sessions)

	states, err := statestore.Open(statestore.DefaultPath())
	if err != nil {
		slog.Warn("State persistence disabled", "error", err)
		states = nil
	}
	if states != nil {
		defer states.Close()
	}

	gen := mvp.NewSession(uuid.NewString())
	center := notify.NewCenter(nil)
	app := ui.NewApp(cfg, client, sessions, gen, center, states)
	if err := app.RestoreState(); err != nil {
		slog.Warn("Could not restore previous state", "error", err)
	}

	if err := run(cfg, app); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, app *ui.App) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("nexora requires an interactive terminal")
	}

	fmt.Print(banner.Message())

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("failed to set raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	if width, height, err := term.GetSize(fd); err == nil {
		app.SetSize(width, height)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := monitor.NewRunner(
		monitor.Task{Name: "health", Interval: cfg.Poll.Health(), Run: app.ProbeHealth},
		monitor.Task{Name: "error-flush", Interval: cfg.Poll.ErrorFlush(), Run: app.FlushErrors},
		monitor.Task{Name: "state-save", Interval: cfg.Poll.StateSave(), Run: app.SaveState},
	)
	runner.Start(ctx)
	defer runner.Stop()

	resize := make(chan os.Signal, 1)
	signal.Notify(resize, syscall.SIGWINCH)
	defer signal.Stop(resize)

	quit := make(chan struct{})
	go readKeys(app, quit)

	draw(app)
	for {
		select {
		case <-ctx.Done():
			return flushState(app)
		case <-quit:
			return flushState(app)
		case <-app.Changed():
			draw(app)
		case <-resize:
			if width, height, err := term.GetSize(fd); err == nil {
				app.SetSize(width, height)
			}
			draw(app)
		}
	}
}

// readKeys decodes stdin into key presses until the app quits or stdin
// closes.
func readKeys(app *ui.App, quit chan struct{}) {
	defer close(quit)

	var pending []byte
	chunk := make([]byte, 64)
	for {
		n, err := os.Stdin.Read(chunk)
		if err != nil {
			return
		}
		pending = append(pending, chunk[:n]...)

		for len(pending) > 0 {
			msg, consumed := ui.DecodeKey(pending)
			if consumed == 0 {
				break
			}
			pending = pending[consumed:]
			if tea.Key(msg) == (tea.Key{}) {
				continue
			}
			if app.HandleKey(msg) {
				return
			}
		}
	}
}

// draw repaints the whole frame. Raw mode needs explicit carriage returns.
func draw(app *ui.App) {
	frame := strings.ReplaceAll(app.Render(), "\n", "\r\n")
	fmt.Print("\x1b[H\x1b[2J" + frame)
}

func flushState(app *ui.App) error {
	if err := app.SaveState(context.Background()); err != nil {
		slog.Warn("Failed to save state on exit", "error", err)
	}
	// Leave the cursor on a fresh line below the UI
	fmt.Print("\r\n")
	return nil
}
