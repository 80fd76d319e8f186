// Package notify keeps the transient, dismissible notifications shown to the operator.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Level classifies a notification.
type Level int

const (
	LevelSuccess Level = iota
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Notification is one message surfaced to the operator.
type Notification struct {
	ID        uuid.UUID
	Level     Level
	Message   string
	CreatedAt time.Time
}

const subscriberBuffer = 16

// Center stores active notifications and fans new ones out to subscribers.
type Center struct {
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger

	mu     sync.Mutex
	active []Notification
	subs   map[int]chan Notification
	nextID int
}

// NewCenter creates a Center. Notifications older than ttl are dropped by Prune; ttl <= 0 keeps them until dismissed.
func NewCenter(ttl time.Duration, logger *zap.Logger) *Center {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Center{
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
		subs:   make(map[int]chan Notification),
	}
}

// Success publishes a success notification.
func (c *Center) Success(msg string) Notification {
	return c.publish(LevelSuccess, msg)
}

// Error publishes an error notification.
func (c *Center) Error(msg string) Notification {
	return c.publish(LevelError, msg)
}

func (c *Center) publish(level Level, msg string) Notification {
	n := Notification{
		ID:        uuid.New(),
		Level:     level,
		Message:   msg,
		CreatedAt: c.now(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = append(c.active, n)
	for id, ch := range c.subs {
		select {
		case ch <- n:
		default:
			c.logger.Warn("notification subscriber is full, dropping", zap.Int("subscriber", id), zap.Stringer("notification", n.ID))
		}
	}
	c.logger.Debug("notification published", zap.Stringer("level", level), zap.String("message", msg))
	return n
}

// Active returns the notifications that have not been dismissed or pruned, oldest first.
func (c *Center) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.active))
	copy(out, c.active)
	return out
}

// Dismiss removes a notification. Reports whether it was still active.
func (c *Center) Dismiss(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, n := range c.active {
		if n.ID == id {
			c.active = append(c.active[:i], c.active[i+1:]...)
			return true
		}
	}
	return false
}

// Prune drops notifications older than the TTL and returns how many were removed.
func (c *Center) Prune(now time.Time) int {
	if c.ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.active[:0]
	for _, n := range c.active {
		if now.Sub(n.CreatedAt) < c.ttl {
			kept = append(kept, n)
		}
	}
	removed := len(c.active) - len(kept)
	c.active = kept
	return removed
}

// Subscribe returns a channel receiving every notification published from now on,
// and a function that unsubscribes and closes the channel.
func (c *Center) Subscribe() (<-chan Notification, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	ch := make(chan Notification, subscriberBuffer)
	c.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.subs, id)
			close(ch)
		})
	}
}
