package service

import (
	"sync"
	"time"

	"facegate/internal/platform/logger"
)

// Timer is the stoppable handle returned by an AfterFunc
type Timer interface {
	Stop() bool
}

// AfterFunc schedules fn after d. StdAfterFunc wraps time.AfterFunc
type AfterFunc func(d time.Duration, fn func()) Timer

// StdAfterFunc is the wall clock AfterFunc
func StdAfterFunc(d time.Duration, fn func()) Timer { return time.AfterFunc(d, fn) }

// Cooldowns is an arena of pending restarts keyed by attempt id.
// At most one timer exists per id, and a cancelled timer never runs its callback
// even if it already fired and is racing for the lock
type Cooldowns struct {
	mu      sync.Mutex
	after   AfterFunc
	pending map[string]*cooldown
	log     logger.Logger
}

type cooldown struct {
	timer Timer
}

// NewCooldowns returns an empty arena. A nil after uses the wall clock
func NewCooldowns(after AfterFunc) *Cooldowns {
	if after == nil {
		after = StdAfterFunc
	}
	return &Cooldowns{
		after:   after,
		pending: map[string]*cooldown{},
		log:     *logger.Named("cooldown"),
	}
}

// Schedule arms fn to run once after d, replacing any pending timer for id
func (c *Cooldowns) Schedule(id string, d time.Duration, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.pending[id]; ok {
		prev.timer.Stop()
		delete(c.pending, id)
	}
	cd := &cooldown{}
	c.pending[id] = cd
	cd.timer = c.after(d, func() {
		c.mu.Lock()
		if c.pending[id] != cd {
			c.mu.Unlock()
			return
		}
		delete(c.pending, id)
		c.mu.Unlock()
		fn()
	})
	c.log.Debug().Str("attempt_id", id).Dur("after", d).Msg("cooldown scheduled")
}

// Cancel stops the pending timer for id. It reports whether one was pending
func (c *Cooldowns) Cancel(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	cd, ok := c.pending[id]
	if !ok {
		return false
	}
	cd.timer.Stop()
	delete(c.pending, id)
	c.log.Debug().Str("attempt_id", id).Msg("cooldown cancelled")
	return true
}

// CancelAll stops every pending timer and returns how many were pending
func (c *Cooldowns) CancelAll() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.pending)
	for id, cd := range c.pending {
		cd.timer.Stop()
		delete(c.pending, id)
	}
	return n
}

// Pending returns the number of armed timers
func (c *Cooldowns) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
