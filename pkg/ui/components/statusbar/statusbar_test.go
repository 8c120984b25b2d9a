package statusbar

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func TestRender_Identity(t *testing.T) {
	sb := New()
	sb.SetWidth(80)
	sb.SetUser("Ada", false)
	sb.SetCredits(12)
	sb.SetHealth("ok")

	out := ansi.Strip(sb.Render())
	if !strings.Contains(out, "Ada") {
		t.Errorf("Expected user name in %q", out)
	}
	if !strings.Contains(out, "credits: 12") {
		t.Errorf("Expected credits in %q", out)
	}
	if !strings.Contains(out, "backend: ok") {
		t.Errorf("Expected health in %q", out)
	}
}

func TestRender_SignedOutAndGuest(t *testing.T) {
	sb := New()
	sb.SetWidth(80)

	if out := ansi.Strip(sb.Render()); !strings.Contains(out, "signed out") {
		t.Errorf("Expected signed-out marker in %q", out)
	}

	sb.SetUser("guest-1234", true)
	if out := ansi.Strip(sb.Render()); !strings.Contains(out, "(guest)") {
		t.Errorf("Expected guest marker in %q", out)
	}
}

func TestRender_MessageReplacesIdentity(t *testing.T) {
	sb := New()
	sb.SetWidth(80)
	sb.SetUser("Ada", false)
	sb.SetMessage("project exported")

	out := ansi.Strip(sb.Render())
	if !strings.Contains(out, "project exported") {
		t.Errorf("Expected message in %q", out)
	}
	if strings.Contains(out, "credits") {
		t.Errorf("Expected identity segment suppressed, got %q", out)
	}
}

func TestRender_GeneratingMarker(t *testing.T) {
	sb := New()
	sb.SetWidth(80)
	sb.SetGenerating(true)

	if out := ansi.Strip(sb.Render()); !strings.Contains(out, "generating") {
		t.Errorf("Expected generating marker in %q", out)
	}
}

func TestRender_TruncatesToWidth(t *testing.T) {
	sb := New()
	sb.SetWidth(30)
	sb.SetUser("a-user-with-a-very-long-display-name", false)
	sb.SetHealth("degraded-but-reachable")

	out := ansi.Strip(sb.Render())
	for _, line := range strings.Split(out, "\n") {
		if w := ansi.StringWidth(line); w > 32 {
			t.Errorf("Status line %d cells wide: %q", w, line)
		}
	}
	if !strings.Contains(out, "...") {
		t.Errorf("Expected ellipsis in truncated bar: %q", out)
	}
}
