package testkit

import (
	"sort"
	"sync"
	"time"
)

// ManualTimers is a fake timer arena for code that schedules callbacks with time.AfterFunc.
// Nothing fires until the test calls Advance
type ManualTimers struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*ManualTimer
}

// ManualTimer is a single scheduled callback owned by a ManualTimers arena
type ManualTimer struct {
	owner   *ManualTimers
	at      time.Duration
	seq     int
	fn      func()
	stopped bool
	fired   bool
}

// NewManualTimers returns an empty arena positioned at t=0
func NewManualTimers() *ManualTimers { return &ManualTimers{} }

// AfterFunc schedules fn to run once the arena has been advanced by d
func (m *ManualTimers) AfterFunc(d time.Duration, fn func()) *ManualTimer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &ManualTimer{owner: m, at: m.now + d, seq: m.seq, fn: fn}
	m.timers = append(m.timers, t)
	return t
}

// Stop cancels the timer. It reports false when the timer already fired or was stopped
func (t *ManualTimer) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves the arena forward by d and runs every due callback in deadline order.
// Callbacks run outside the arena lock, so they may schedule or stop other timers.
// Returns how many callbacks ran
func (m *ManualTimers) Advance(d time.Duration) int {
	m.mu.Lock()
	m.now += d
	now := m.now
	m.mu.Unlock()

	ran := 0
	for {
		t := m.nextDue(now)
		if t == nil {
			return ran
		}
		t.fn()
		ran++
	}
}

// Pending counts timers that have neither fired nor been stopped
func (m *ManualTimers) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// nextDue marks and returns the earliest live timer due at or before now
func (m *ManualTimers) nextDue(now time.Duration) *ManualTimer {
	m.mu.Lock()
	defer m.mu.Unlock()
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.stopped && !t.fired {
			live = append(live, t)
		}
	}
	m.timers = live
	sort.SliceStable(m.timers, func(i, j int) bool {
		if m.timers[i].at != m.timers[j].at {
			return m.timers[i].at < m.timers[j].at
		}
		return m.timers[i].seq < m.timers[j].seq
	})
	if len(m.timers) == 0 || m.timers[0].at > now {
		return nil
	}
	t := m.timers[0]
	t.fired = true
	return t
}
