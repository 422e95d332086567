// Package notice shows transient messages to the user, the editor's
// equivalent of a toast. The Center keeps a short history so the most recent
// notices can be listed again, and optionally echoes each one to a writer.
package notice

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Level represents the severity of a notice.
type Level string

const (
	// LevelInfo is an informational notice.
	LevelInfo Level = "info"
	// LevelWarning is a warning notice.
	LevelWarning Level = "warning"
	// LevelError is an error notice.
	LevelError Level = "error"
)

// DefaultTimeout is how long a notice stays on screen.
const DefaultTimeout = 4 * time.Second

// Notifier shows notices.
type Notifier interface {
	Notify(message string, level Level)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string, level Level)

// Notify implements Notifier.
func (f NotifierFunc) Notify(message string, level Level) {
	f(message, level)
}

// Discard is a Notifier that drops every notice.
var Discard Notifier = NotifierFunc(func(string, Level) {})

// Notice is a shown message.
type Notice struct {
	Message string
	Level   Level
	Shown   time.Time
	Expires time.Time
}

// Center records notices and echoes them to an optional writer.
type Center struct {
	mu      sync.Mutex
	history []Notice
	limit   int
	timeout time.Duration
	out     io.Writer
	now     func() time.Time
}

// Option configures a Center.
type Option func(*Center)

// WithOutput echoes every notice to w.
func WithOutput(w io.Writer) Option {
	return func(c *Center) {
		c.out = w
	}
}

// WithTimeout sets how long notices stay visible.
func WithTimeout(d time.Duration) Option {
	return func(c *Center) {
		c.timeout = d
	}
}

// WithHistoryLimit bounds the number of remembered notices.
func WithHistoryLimit(n int) Option {
	return func(c *Center) {
		c.limit = n
	}
}

// NewCenter creates a notice center.
func NewCenter(opts ...Option) *Center {
	c := &Center{
		limit:   50,
		timeout: DefaultTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Notify implements Notifier.
func (c *Center) Notify(message string, level Level) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := Notice{
		Message: message,
		Level:   level,
		Shown:   now,
		Expires: now.Add(c.timeout),
	}
	c.history = append(c.history, n)
	if c.limit > 0 && len(c.history) > c.limit {
		c.history = c.history[len(c.history)-c.limit:]
	}

	if c.out != nil {
		if level == LevelInfo {
			fmt.Fprintf(c.out, "» %s\n", message)
		} else {
			fmt.Fprintf(c.out, "» [%s] %s\n", level, message)
		}
	}
}

// History returns remembered notices, oldest first.
func (c *Center) History() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notice, len(c.history))
	copy(out, c.history)
	return out
}

// Visible returns the notices that have not yet expired.
func (c *Center) Visible() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var out []Notice
	for _, n := range c.history {
		if now.Before(n.Expires) {
			out = append(out, n)
		}
	}
	return out
}

// Last returns the most recent notice.
func (c *Center) Last() (Notice, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.history) == 0 {
		return Notice{}, false
	}
	return c.history[len(c.history)-1], true
}
