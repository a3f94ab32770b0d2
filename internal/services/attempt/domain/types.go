// Package domain holds the attempt flow types shared by service, repo and http
package domain

import (
	"strings"
	"time"

	"facegate/internal/core/liveness"
	perr "facegate/internal/platform/errors"
)

// Mode selects which backend flow a capture is submitted to
type Mode string

const (
	// ModeRegister enrolls a face under an IC number
	ModeRegister Mode = "register"
	// ModeVerify matches a face against enrolled identities
	ModeVerify Mode = "verify"
)

// ParseMode accepts register or verify, case-insensitively
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeRegister:
		return ModeRegister, nil
	case ModeVerify:
		return ModeVerify, nil
	}
	return "", perr.InvalidArgf("unknown mode %q", s)
}

// State is the orchestrator's position in one attempt
type State uint8

// Orchestrator states, in flow order
const (
	Idle State = iota
	AwaitingChallenge
	ChallengeInProgress
	ReadyToCapture
	Submitting
	Succeeded
	FailedRetryable
	FailedTerminal
)

var stateNames = [...]string{
	Idle:                "idle",
	AwaitingChallenge:   "awaiting_challenge",
	ChallengeInProgress: "challenge_in_progress",
	ReadyToCapture:      "ready_to_capture",
	Submitting:          "submitting",
	Succeeded:           "succeeded",
	FailedRetryable:     "failed_retryable",
	FailedTerminal:      "failed_terminal",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// MarshalText renders the state name in JSON payloads
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText reads a state name back. Unknown names are rejected
func (s *State) UnmarshalText(b []byte) error {
	for i, name := range stateNames {
		if name == string(b) {
			*s = State(i)
			return nil
		}
	}
	return perr.InvalidArgf("unknown attempt state %q", b)
}

// Terminal reports whether the attempt has finished, successfully or not
func (s State) Terminal() bool {
	return s == Succeeded || s == FailedRetryable || s == FailedTerminal
}

// Failure kinds recorded on snapshots and in the journal.
// Transport level kinds reuse perr code names (network, protocol, device)
const (
	FailureSpoofing = "spoofing"
	FailureNoMatch  = "no_match"
	FailureInvalid  = "invalid"
	FailureRejected = "rejected"
	// FailureEmptyChallenge is a challenge reply with no usable actions
	FailureEmptyChallenge = "empty_challenge"
)

// Outcome classifies a finished submission
type Outcome uint8

// Outcome values
const (
	OutcomeSucceeded Outcome = iota
	OutcomeRetryable
	OutcomeTerminal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeRetryable:
		return "retryable"
	default:
		return "terminal"
	}
}

// CaptureAttempt is one grabbed frame plus the actions completed before it.
// It is consumed by submission and never stored
type CaptureAttempt struct {
	Image     []byte
	Completed []liveness.ActionKind
}

// SubmissionResult is the backend's verdict on one submission
type SubmissionResult struct {
	Success  bool
	Matched  bool
	Message  string
	Identity string
	// Code is the backend's structured failure kind when it sends one
	Code string
}

// Snapshot is the externally observable orchestrator state after a transition
type Snapshot struct {
	Seq              uint64            `json:"seq"`
	AttemptID        string            `json:"attempt_id,omitempty"`
	Mode             Mode              `json:"mode,omitempty"`
	State            State             `json:"state"`
	ICNumber         string            `json:"ic_number,omitempty"`
	ICValid          bool              `json:"ic_valid"`
	ChallengeEnabled bool              `json:"challenge_enabled"`
	Progress         liveness.Progress `json:"progress"`
	CurrentAction    string            `json:"current_action,omitempty"`
	CurrentLabel     string            `json:"current_label,omitempty"`
	Labels           []string          `json:"labels,omitempty"`
	CanCapture       bool              `json:"can_capture"`
	Message          string            `json:"message,omitempty"`
	Identity         string            `json:"identity,omitempty"`
	Failure          string            `json:"failure,omitempty"`
	ErrorCode        perr.ErrorCode    `json:"error_code,omitempty"`
	RestartAt        *time.Time        `json:"restart_at,omitempty"`
}

// OutcomeRecord is one journaled finished attempt. Image data is never part of it
type OutcomeRecord struct {
	AttemptID  string    `json:"attempt_id"`
	Mode       Mode      `json:"mode"`
	State      string    `json:"state"`
	Failure    string    `json:"failure,omitempty"`
	Message    string    `json:"message,omitempty"`
	Identity   string    `json:"identity,omitempty"`
	Actions    int       `json:"actions"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
