package mem

import (
	"context"
	"sync"
	"time"

	"github.com/goserg/meetups/internal/session"
)

// Cache keeps loaded sessions in memory in front of a slower Store, so a
// page view does not hit the database. It assumes it is the only writer of
// the underlying store.
type Cache struct {
	mu       sync.RWMutex
	next     session.Store
	sessions map[string]session.Session
	now      func() time.Time
}

var _ session.Store = (*Cache)(nil)

func New(next session.Store) *Cache {
	return &Cache{
		next:     next,
		sessions: make(map[string]session.Session),
		now:      time.Now,
	}
}

// Save caches the session as the store kept it, with the ID and expiry the
// store assigned. Expired entries are swept on every save.
func (c *Cache) Save(ctx context.Context, s session.Session) (string, error) {
	value, err := c.next.Save(ctx, s)
	if err != nil {
		return "", err
	}
	stored, err := c.next.Load(ctx, value)
	if err != nil {
		return "", err
	}
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, cached := range c.sessions {
		if !cached.Valid(now) {
			delete(c.sessions, k)
		}
	}
	c.sessions[value] = stored
	return value, nil
}

func (c *Cache) Load(ctx context.Context, value string) (session.Session, error) {
	c.mu.RLock()
	s, ok := c.sessions[value]
	c.mu.RUnlock()
	if ok && s.Valid(c.now()) {
		return s, nil
	}
	if ok {
		c.forget(value)
	}

	s, err := c.next.Load(ctx, value)
	if err != nil {
		return session.Session{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[value] = s
	return s, nil
}

func (c *Cache) Delete(ctx context.Context, value string) error {
	c.forget(value)
	return c.next.Delete(ctx, value)
}

func (c *Cache) forget(value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, value)
}

// Len reports how many sessions are held in memory.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}
