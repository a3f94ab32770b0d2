// Package service runs the liveness attempt flow: challenge issuance, action
// tracking, capture gating, submission and the cooldown restart
package service

import (
	"context"

	"facegate/internal/adapters/recognition"
)

// Backend is the recognition service surface the flow depends on.
// *recognition.Client satisfies it
type Backend interface {
	Challenge(ctx context.Context) (recognition.ChallengeResponse, error)
	Register(ctx context.Context, in recognition.RegisterRequest) (recognition.SubmitResponse, error)
	Verify(ctx context.Context, in recognition.VerifyRequest) (recognition.SubmitResponse, error)
}

var _ Backend = (*recognition.Client)(nil)
