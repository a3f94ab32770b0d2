package liveness

import (
	"errors"
	"strings"

	perr "facegate/internal/platform/errors"
)

// ErrEmptyChallenge is the cause of every protocol error NewChallenge returns
var ErrEmptyChallenge = errors.New("empty_challenge")

// Challenge is the ordered, server-issued sequence of actions for one attempt.
// The zero value is an empty challenge
type Challenge struct {
	actions []ActionKind
}

// NewChallenge builds a challenge from raw backend tokens.
// An empty list or a blank token is a protocol error
func NewChallenge(tokens []string) (Challenge, error) {
	if len(tokens) == 0 {
		return Challenge{}, perr.Wrap(ErrEmptyChallenge, perr.ErrorCodeProtocol, "backend issued no actions")
	}
	out := make([]ActionKind, 0, len(tokens))
	for i, t := range tokens {
		t = strings.TrimSpace(t)
		if t == "" {
			return Challenge{}, perr.Wrapf(ErrEmptyChallenge, perr.ErrorCodeProtocol, "action %d is blank", i)
		}
		out = append(out, ActionKind(t))
	}
	return Challenge{actions: out}, nil
}

// Actions returns a copy of the required actions in order
func (c Challenge) Actions() []ActionKind { return append([]ActionKind(nil), c.actions...) }

// Len is the number of required actions
func (c Challenge) Len() int { return len(c.actions) }

// Strings returns the wire form of the actions
func (c Challenge) Strings() []string { return ActionStrings(c.actions) }

// ActionStrings converts actions to their wire tokens
func ActionStrings(actions []ActionKind) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = string(a)
	}
	return out
}
