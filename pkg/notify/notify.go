package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level is the visual severity of a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// DefaultTTL is used when a notification is posted without a duration.
const DefaultTTL = 5 * time.Second

// Notification is one toast.
type Notification struct {
	ID      string
	Level   Level
	Text    string
	Created time.Time
}

// Center manages active toasts. Each notification auto-dismisses after its
// TTL; dismissing it earlier cancels the pending timer so the removal never
// runs twice. Safe for concurrent use.
type Center struct {
	mu       sync.Mutex
	active   []Notification
	timers   map[string]*time.Timer
	onChange func()
}

// NewCenter creates a notification center. onChange (may be nil) fires after
// every add or removal so the owning view can re-render.
func NewCenter(onChange func()) *Center {
	return &Center{
		timers:   make(map[string]*time.Timer),
		onChange: onChange,
	}
}

// Notify posts a toast and schedules its auto-dismissal. A non-positive ttl
// falls back to DefaultTTL.
func (c *Center) Notify(level Level, text string, ttl time.Duration) string {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	n := Notification{
		ID:      uuid.NewString(),
		Level:   level,
		Text:    text,
		Created: time.Now(),
	}

	c.mu.Lock()
	c.active = append(c.active, n)
	c.timers[n.ID] = time.AfterFunc(ttl, func() {
		c.Dismiss(n.ID)
	})
	c.mu.Unlock()

	c.notifyChange()
	return n.ID
}

// Dismiss removes a notification immediately and cancels its pending
// auto-removal. Dismissing an unknown or already-removed ID is a no-op.
func (c *Center) Dismiss(id string) {
	c.mu.Lock()

	timer, ok := c.timers[id]
	if !ok {
		c.mu.Unlock()
		return
	}
	timer.Stop()
	delete(c.timers, id)

	for i, n := range c.active {
		if n.ID == id {
			c.active = append(c.active[:i], c.active[i+1:]...)
			break
		}
	}
	c.mu.Unlock()

	c.notifyChange()
}

// Active returns a copy of the live notifications in posting order.
func (c *Center) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.active))
	copy(out, c.active)
	return out
}

// Clear dismisses everything at once.
func (c *Center) Clear() {
	c.mu.Lock()
	for id, timer := range c.timers {
		timer.Stop()
		delete(c.timers, id)
	}
	c.active = nil
	c.mu.Unlock()

	c.notifyChange()
}

func (c *Center) notifyChange() {
	if c.onChange != nil {
		c.onChange()
	}
}
