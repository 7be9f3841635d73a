// Package session tracks the current device session: who is using the app and since when.
package session

import (
	"sync"
	"time"
)

// Context holds the current device and session timing.
type Context struct {
	mu      sync.RWMutex
	userID  string
	started time.Time
	now     func() time.Time
}

// NewContext starts a session for userID.
func NewContext(userID string) *Context {
	return NewContextWithClock(userID, time.Now)
}

// NewContextWithClock starts a session using a custom clock.
func NewContextWithClock(userID string, now func() time.Time) *Context {
	return &Context{
		userID:  userID,
		started: now(),
		now:     now,
	}
}

// UserID returns the device/user id.
func (c *Context) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// Started returns when the session started.
func (c *Context) Started() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.started
}

// Duration returns the time elapsed since the session started.
func (c *Context) Duration() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now().Sub(c.started)
}

// Restart begins a new session for the same user and returns the length of the old one.
func (c *Context) Restart() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	d := now.Sub(c.started)
	c.started = now
	return d
}
