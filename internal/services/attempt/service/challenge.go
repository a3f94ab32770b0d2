package service

import (
	"context"

	"facegate/internal/core/liveness"
	perr "facegate/internal/platform/errors"
	"facegate/internal/platform/logger"
)

// ChallengeClient fetches one challenge per call and never retries
type ChallengeClient struct {
	backend Backend
}

// NewChallengeClient wraps a backend
func NewChallengeClient(b Backend) *ChallengeClient {
	if b == nil {
		panic("service.ChallengeClient requires a non nil Backend")
	}
	return &ChallengeClient{backend: b}
}

// RequestChallenge returns a non-empty challenge. Failures carry
// ErrorCodeUnavailable (network), ErrorCodeTooManyRequests or
// ErrorCodeProtocol (wrapping liveness.ErrEmptyChallenge for empty_challenge)
func (c *ChallengeClient) RequestChallenge(ctx context.Context) (liveness.Challenge, error) {
	resp, err := c.backend.Challenge(ctx)
	if err != nil {
		return liveness.Challenge{}, err
	}
	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = "challenge refused"
		}
		return liveness.Challenge{}, perr.Unavailablef("%s", msg)
	}
	ch, err := liveness.NewChallenge(resp.Actions)
	if err != nil {
		return liveness.Challenge{}, err
	}
	logger.C(ctx).Debug().Strs("actions", ch.Strings()).Msg("challenge issued")
	return ch, nil
}
