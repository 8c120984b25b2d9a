package toasts

import (
	"strings"
	"testing"
	"time"

	"nexora/pkg/notify"

	"github.com/charmbracelet/x/ansi"
)

func TestView_Empty(t *testing.T) {
	tv := New(notify.NewCenter(nil))
	if got := tv.View(); got != "" {
		t.Errorf("Expected empty view, got %q", got)
	}
}

func TestView_RendersActive(t *testing.T) {
	center := notify.NewCenter(nil)
	tv := New(center)

	center.Notify(notify.LevelSuccess, "project exported", time.Minute)
	center.Notify(notify.LevelError, "generation failed", time.Minute)

	out := ansi.Strip(tv.View())
	if !strings.Contains(out, "project exported") || !strings.Contains(out, "generation failed") {
		t.Errorf("Expected both toasts in view, got %q", out)
	}
}

func TestView_CapsVisibleCount(t *testing.T) {
	center := notify.NewCenter(nil)
	tv := New(center)

	for i := 0; i < 8; i++ {
		center.Notify(notify.LevelInfo, "toast", time.Minute)
	}

	out := ansi.Strip(tv.View())
	if got := strings.Count(out, "toast"); got != maxVisible {
		t.Errorf("Expected %d visible toasts, got %d", maxVisible, got)
	}
}

func TestDismissNewest(t *testing.T) {
	center := notify.NewCenter(nil)
	tv := New(center)

	center.Notify(notify.LevelInfo, "first", time.Minute)
	center.Notify(notify.LevelInfo, "second", time.Minute)

	if !tv.DismissNewest() {
		t.Fatal("Expected a toast dismissed")
	}
	active := center.Active()
	if len(active) != 1 || active[0].Text != "first" {
		t.Errorf("Expected newest dismissed, remaining %+v", active)
	}

	tv.DismissNewest()
	if tv.DismissNewest() {
		t.Error("Expected no-op with nothing active")
	}
}

func TestView_TruncatesLongText(t *testing.T) {
	center := notify.NewCenter(nil)
	tv := New(center)
	tv.SetWidth(24)

	center.Notify(notify.LevelWarning, strings.Repeat("x", 100), time.Minute)

	for _, line := range strings.Split(ansi.Strip(tv.View()), "\n") {
		if w := ansi.StringWidth(line); w > 24 {
			t.Errorf("Toast line %d cells wide: %q", w, line)
		}
	}
}
