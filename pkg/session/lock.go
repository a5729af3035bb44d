package session

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after
// unlocking.
func (c *Controller) acquire(sessionID string) *lockEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		c.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (c *Controller) release(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.locks[sessionID]
	if !exists {
		return // Should not happen if paired correctly
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(c.locks, sessionID)
	}
}

// withLock executes fn while holding the lock for the session. If a
// distributed locker is configured, the cross-replica lock is taken after the
// local one.
func (c *Controller) withLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := c.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		c.release(sessionID)
	}()

	if c.locker != nil {
		// TTL must outlive a worst-case evaluator round trip.
		unlock, err := c.locker.Lock(ctx, sessionID, 60*time.Second)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				c.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
