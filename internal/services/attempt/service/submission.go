package service

import (
	"context"
	"strings"

	"facegate/internal/adapters/recognition"
	"facegate/internal/core/liveness"
	"facegate/internal/platform/logger"
	"facegate/internal/services/attempt/domain"
)

// DefaultSpoofMarker is the message substring the backend uses for liveness rejections
const DefaultSpoofMarker = "Anti-spoofing"

// SubmissionCoordinator sends one capture to the register or verify endpoint
// and classifies the verdict
type SubmissionCoordinator struct {
	backend Backend
	marker  string
	encode  func([]byte) (string, error)
}

// NewSubmissionCoordinator wraps a backend. An empty marker disables message sniffing,
// leaving only the structured error code
func NewSubmissionCoordinator(b Backend, marker string) *SubmissionCoordinator {
	if b == nil {
		panic("service.SubmissionCoordinator requires a non nil Backend")
	}
	return &SubmissionCoordinator{backend: b, marker: marker, encode: recognition.EncodeDataURL}
}

// Submit encodes the frame and posts it with the completed action evidence.
// identityHint is only sent for registration. Every failure comes back as a
// *perr.Error value; nothing panics past this call
func (s *SubmissionCoordinator) Submit(ctx context.Context, a domain.CaptureAttempt, mode domain.Mode, identityHint string) (domain.SubmissionResult, error) {
	img, err := s.encode(a.Image)
	if err != nil {
		return domain.SubmissionResult{}, err
	}
	actions := liveness.ActionStrings(a.Completed)

	var resp recognition.SubmitResponse
	switch mode {
	case domain.ModeRegister:
		resp, err = s.backend.Register(ctx, recognition.RegisterRequest{
			ImageData:        img,
			ICNumber:         identityHint,
			CompletedActions: actions,
		})
	default:
		resp, err = s.backend.Verify(ctx, recognition.VerifyRequest{
			ImageData:        img,
			CompletedActions: actions,
		})
	}
	if err != nil {
		return domain.SubmissionResult{}, err
	}

	logger.C(ctx).Debug().
		Int("image_bytes", len(a.Image)).
		Int("actions", len(actions)).
		Bool("success", resp.Success).
		Bool("matched", resp.Matched).
		Str("error_code", string(resp.ErrorCode)).
		Msg("submission answered")

	return domain.SubmissionResult{
		Success:  resp.Success,
		Matched:  resp.Matched,
		Message:  resp.Text(),
		Identity: resp.ICNumber,
		Code:     string(resp.ErrorCode),
	}, nil
}

// Classify maps a verdict to the orchestrator's next state
func (s *SubmissionCoordinator) Classify(mode domain.Mode, r domain.SubmissionResult) domain.Outcome {
	switch {
	case succeeded(mode, r):
		return domain.OutcomeSucceeded
	case s.spoofed(r):
		return domain.OutcomeRetryable
	default:
		return domain.OutcomeTerminal
	}
}

// FailureKind names why a non-successful verdict failed
func (s *SubmissionCoordinator) FailureKind(mode domain.Mode, r domain.SubmissionResult) string {
	switch {
	case succeeded(mode, r):
		return ""
	case s.spoofed(r):
		return domain.FailureSpoofing
	case r.Code != "":
		return r.Code
	case mode == domain.ModeVerify && r.Success && !r.Matched:
		return domain.FailureNoMatch
	default:
		return domain.FailureRejected
	}
}

// verify only counts when the face also matched
func succeeded(mode domain.Mode, r domain.SubmissionResult) bool {
	if mode == domain.ModeVerify {
		return r.Success && r.Matched
	}
	return r.Success
}

// spoofed prefers the structured code and falls back to the case-sensitive marker
func (s *SubmissionCoordinator) spoofed(r domain.SubmissionResult) bool {
	if r.Code != "" {
		return r.Code == string(recognition.ErrorCodeSpoofing)
	}
	return s.marker != "" && strings.Contains(r.Message, s.marker)
}
