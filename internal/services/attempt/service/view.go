package service

import (
	"sync"

	"facegate/internal/platform/logger"
	"facegate/internal/services/attempt/domain"
)

// Views fans one notification out to several views in order
type Views []domain.View

// Notify implements domain.View
func (vs Views) Notify(s domain.Snapshot) {
	for _, v := range vs {
		if v != nil {
			v.Notify(s)
		}
	}
}

// LogView writes operator-facing transitions to the log
type LogView struct {
	log logger.Logger
}

// NewLogView returns a view logging under the "view" component
func NewLogView() *LogView { return &LogView{log: *logger.Named("view")} }

// Notify implements domain.View
func (v *LogView) Notify(s domain.Snapshot) {
	ev := v.log.Info()
	if s.State == domain.FailedTerminal {
		ev = v.log.Warn()
	}
	ev = ev.Str("attempt_id", s.AttemptID).Str("state", s.State.String())
	if s.CurrentLabel != "" {
		ev = ev.Str("action", s.CurrentLabel).Int("step", s.Progress.Cursor+1).Int("of", len(s.Progress.Required))
	}
	if s.Message != "" {
		ev = ev.Str("message", s.Message)
	}
	if s.Identity != "" {
		ev = ev.Str("identity", s.Identity)
	}
	ev.Msg("attempt update")
}

// Hub broadcasts snapshots to subscribers. A slow subscriber loses its oldest
// buffered snapshot rather than blocking the orchestrator
type Hub struct {
	mu   sync.Mutex
	buf  int
	subs map[chan domain.Snapshot]struct{}
	last *domain.Snapshot
}

// NewHub returns a hub whose subscriber channels hold buf snapshots
func NewHub(buf int) *Hub {
	if buf <= 0 {
		buf = 16
	}
	return &Hub{buf: buf, subs: map[chan domain.Snapshot]struct{}{}}
}

// Notify implements domain.View
func (h *Hub) Notify(s domain.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = &s
	for ch := range h.subs {
		offer(ch, s)
	}
}

// Subscribe returns a channel primed with the latest snapshot and a cancel func.
// The channel is closed by cancel
func (h *Hub) Subscribe() (<-chan domain.Snapshot, func()) {
	ch := make(chan domain.Snapshot, h.buf)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	if h.last != nil {
		ch <- *h.last
	}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers returns the current subscriber count
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func offer(ch chan domain.Snapshot, s domain.Snapshot) {
	select {
	case ch <- s:
		return
	default:
	}
	// full: drop the oldest then retry once
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- s:
	default:
	}
}
