package liveness

import (
	perr "facegate/internal/platform/errors"
)

// State is the tracker's position in the challenge walk
type State uint8

const (
	// NotStarted means no challenge has been accepted since the last reset
	NotStarted State = iota
	// InProgress means at least one required action is still pending
	InProgress
	// Satisfied means every required action was completed in order
	Satisfied
)

func (s State) String() string {
	switch s {
	case InProgress:
		return "in_progress"
	case Satisfied:
		return "satisfied"
	default:
		return "not_started"
	}
}

// MarshalText renders the state name in JSON payloads
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText is the inverse of MarshalText
func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "not_started":
		*s = NotStarted
	case "in_progress":
		*s = InProgress
	case "satisfied":
		*s = Satisfied
	default:
		return perr.InvalidArgf("unknown tracker state %q", b)
	}
	return nil
}

// Progress is a value snapshot of the tracker.
// Completed always equals Required[:Cursor]
type Progress struct {
	State     State        `json:"state"`
	Required  []ActionKind `json:"required"`
	Completed []ActionKind `json:"completed"`
	Cursor    int          `json:"cursor"`
}

// Tracker walks a challenge strictly in issued order: no skip, undo or reorder.
// It is not safe for concurrent use; its owner serializes access
type Tracker struct {
	state    State
	required []ActionKind
	cursor   int
}

// NewTracker returns a tracker in NotStarted
func NewTracker() *Tracker { return &Tracker{} }

// Accept replaces any prior progress with ch, cursor at 0.
// An empty challenge is vacuously satisfied
func (t *Tracker) Accept(ch Challenge) {
	t.required = ch.Actions()
	t.cursor = 0
	if len(t.required) == 0 {
		t.state = Satisfied
		return
	}
	t.state = InProgress
}

// CurrentAction returns the pending action while InProgress
func (t *Tracker) CurrentAction() (ActionKind, bool) {
	if t.state != InProgress {
		return "", false
	}
	return t.required[t.cursor], true
}

// CompleteCurrentAction advances the cursor by one.
// Outside InProgress it returns InvalidTransition and changes nothing
func (t *Tracker) CompleteCurrentAction() error {
	if t.state != InProgress {
		return perr.InvalidTransitionf("complete action: no action pending (tracker %s)", t.state)
	}
	t.cursor++
	if t.cursor == len(t.required) {
		t.state = Satisfied
	}
	return nil
}

// IsSatisfied reports whether the challenge walk is complete
func (t *Tracker) IsSatisfied() bool { return t.state == Satisfied }

// Reset clears to NotStarted
func (t *Tracker) Reset() {
	t.state = NotStarted
	t.required = nil
	t.cursor = 0
}

// State returns the current tracker state
func (t *Tracker) State() State { return t.state }

// Completed returns a copy of the completed prefix
func (t *Tracker) Completed() []ActionKind {
	return append([]ActionKind(nil), t.required[:t.cursor]...)
}

// Progress returns a detached snapshot
func (t *Tracker) Progress() Progress {
	return Progress{
		State:     t.state,
		Required:  append([]ActionKind(nil), t.required...),
		Completed: t.Completed(),
		Cursor:    t.cursor,
	}
}
