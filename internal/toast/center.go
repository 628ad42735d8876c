// Package toast queues transient user-facing messages per browser session.
// All queued toasts are shown simultaneously; each one removes itself after
// its auto-close delay unless dismissed first.
package toast

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

const DefaultAutoClose = 5 * time.Second

// Toast is one queued notification.
type Toast struct {
	ID        string        `json:"id"`
	Kind      Kind          `json:"kind"`
	Title     string        `json:"title,omitempty"`
	Message   string        `json:"message"`
	AutoClose bool          `json:"auto_close"`
	Duration  time.Duration `json:"duration_ms"`
	CreatedAt time.Time     `json:"created_at"`
}

// Options tunes a single toast. NoAutoClose pins the toast until the user
// dismisses it.
type Options struct {
	Title       string
	Duration    time.Duration
	NoAutoClose bool
}

// Center holds the per-session queues and their expiry timers.
type Center struct {
	mu       sync.Mutex
	queues   map[string][]Toast
	timers   map[string]*time.Timer
	fallback time.Duration
	now      func() time.Time
}

func NewCenter(autoClose time.Duration) *Center {
	if autoClose <= 0 {
		autoClose = DefaultAutoClose
	}
	return &Center{
		queues:   make(map[string][]Toast),
		timers:   make(map[string]*time.Timer),
		fallback: autoClose,
		now:      time.Now,
	}
}

// Push queues a toast and returns its id. Ids are timestamp plus a random
// tiebreak; collisions are treated as negligible, not eliminated.
func (c *Center) Push(sessionID string, kind Kind, message string, opts Options) string {
	now := c.now()
	id := fmt.Sprintf("%d-%04d", now.UnixMilli(), rand.Intn(10000))

	duration := opts.Duration
	if duration <= 0 {
		duration = c.fallback
	}

	entry := Toast{
		ID:        id,
		Kind:      kind,
		Title:     opts.Title,
		Message:   message,
		AutoClose: !opts.NoAutoClose,
		Duration:  duration,
		CreatedAt: now,
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.queues[sessionID] = append(c.queues[sessionID], entry)
	if entry.AutoClose {
		key := timerKey(sessionID, id)
		c.timers[key] = time.AfterFunc(duration, func() {
			c.Dismiss(sessionID, id)
		})
	}
	return id
}

// Success, Error, Warning and Info mirror how views raise notifications.
func (c *Center) Success(sessionID, message string) string {
	return c.Push(sessionID, KindSuccess, message, Options{})
}

func (c *Center) Error(sessionID, message string) string {
	return c.Push(sessionID, KindError, message, Options{})
}

func (c *Center) Warning(sessionID, message string) string {
	return c.Push(sessionID, KindWarning, message, Options{})
}

func (c *Center) Info(sessionID, message string) string {
	return c.Push(sessionID, KindInfo, message, Options{})
}

// List returns the session's queue in insertion order.
func (c *Center) List(sessionID string) []Toast {
	c.mu.Lock()
	defer c.mu.Unlock()

	queue := c.queues[sessionID]
	out := make([]Toast, len(queue))
	copy(out, queue)
	return out
}

// Dismiss removes a toast and cancels its pending timer. Dismissing an
// already-expired toast is a no-op.
func (c *Center) Dismiss(sessionID, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := timerKey(sessionID, id)
	if timer, ok := c.timers[key]; ok {
		timer.Stop()
		delete(c.timers, key)
	}

	queue := c.queues[sessionID]
	for i, entry := range queue {
		if entry.ID == id {
			c.queues[sessionID] = append(queue[:i], queue[i+1:]...)
			if len(c.queues[sessionID]) == 0 {
				delete(c.queues, sessionID)
			}
			return true
		}
	}
	return false
}

// Clear drops every toast for the session, timers included.
func (c *Center) Clear(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, entry := range c.queues[sessionID] {
		key := timerKey(sessionID, entry.ID)
		if timer, ok := c.timers[key]; ok {
			timer.Stop()
			delete(c.timers, key)
		}
	}
	delete(c.queues, sessionID)
}

func timerKey(sessionID, id string) string {
	return sessionID + "/" + id
}
