package service

import (
	"context"
	"testing"
	"time"

	"facegate/internal/adapters/recognition"
	perr "facegate/internal/platform/errors"
	"facegate/internal/services/attempt/domain"
)

func open(t *testing.T, h *harness) {
	t.Helper()
	if err := h.orc.Open(context.Background()); err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = h.orc.Close() })
}

func mustStart(t *testing.T, h *harness, mode, ic string) domain.Snapshot {
	t.Helper()
	s, err := h.orc.Start(context.Background(), domain.StartInput{Mode: mode, ICNumber: ic})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	return s
}

func mustComplete(t *testing.T, h *harness) domain.Snapshot {
	t.Helper()
	s, err := h.orc.CompleteAction(context.Background())
	if err != nil {
		t.Fatalf("complete action: %v", err)
	}
	return s
}

func TestOrchestrator_VerifyEndToEnd(t *testing.T) {
	b := newBackend("blink", "smile")
	b.submit = recognition.SubmitResponse{Success: true, Matched: true, ICNumber: "A1234567"}
	h := newHarness(b)
	open(t, h)

	s := mustStart(t, h, "verify", "")
	if s.State != domain.ChallengeInProgress || s.CurrentAction != "blink" || s.CurrentLabel != "Blink" {
		t.Fatalf("after start: %+v", s)
	}
	if s.CanCapture {
		t.Fatalf("capture must be gated while the challenge is open")
	}
	if _, err := h.orc.Capture(context.Background()); !perr.IsCode(err, perr.ErrorCodeInvalidTransition) {
		t.Fatalf("early capture err = %v", err)
	}

	s = mustComplete(t, h)
	if s.Progress.Cursor != 1 || s.State != domain.ChallengeInProgress || s.CurrentAction != "smile" {
		t.Fatalf("after blink: %+v", s)
	}
	s = mustComplete(t, h)
	if s.Progress.Cursor != 2 || s.State != domain.ReadyToCapture || !s.CanCapture {
		t.Fatalf("after smile: %+v", s)
	}

	s, err := h.orc.Capture(context.Background())
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if s.State != domain.Succeeded || s.Identity != "A1234567" {
		t.Fatalf("after capture: %+v", s)
	}
	if len(b.verifies) != 1 {
		t.Fatalf("verify calls = %d", len(b.verifies))
	}
	got := b.verifies[0].CompletedActions
	if len(got) != 2 || got[0] != "blink" || got[1] != "smile" {
		t.Fatalf("evidence = %v", got)
	}

	want := []domain.State{
		domain.Idle, domain.AwaitingChallenge, domain.ChallengeInProgress,
		domain.ChallengeInProgress, domain.ReadyToCapture, domain.Submitting, domain.Succeeded,
	}
	states := h.view.states()
	if len(states) != len(want) {
		t.Fatalf("view saw %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("view saw %v, want %v", states, want)
		}
	}
}

func TestOrchestrator_SpoofingRestartsAfterCooldown(t *testing.T) {
	b := newBackend("blink", "smile")
	b.submit = recognition.SubmitResponse{Success: false, Message: "Anti-spoofing check failed: no blink detected"}
	h := newHarness(b)
	open(t, h)

	first := mustStart(t, h, "verify", "")
	mustComplete(t, h)
	mustComplete(t, h)
	s, err := h.orc.Capture(context.Background())
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if s.State != domain.FailedRetryable || s.Failure != domain.FailureSpoofing || s.RestartAt == nil {
		t.Fatalf("after spoof: %+v", s)
	}
	if s.ErrorCode != perr.ErrorCodeSpoofing {
		t.Fatalf("error code = %v", s.ErrorCode)
	}
	if h.orc.PendingRestarts() != 1 || b.calls() != 1 {
		t.Fatalf("pending=%d challenge calls=%d", h.orc.PendingRestarts(), b.calls())
	}

	if n := h.timers.Advance(2999 * time.Millisecond); n != 0 {
		t.Fatalf("restart fired early")
	}
	if n := h.timers.Advance(time.Millisecond); n != 1 {
		t.Fatalf("restart did not fire")
	}

	s = h.orc.Snapshot()
	if b.calls() != 2 {
		t.Fatalf("a new challenge should be requested, calls=%d", b.calls())
	}
	if s.State != domain.ChallengeInProgress || s.Progress.Cursor != 0 || len(s.Progress.Completed) != 0 {
		t.Fatalf("restart did not reset progress: %+v", s)
	}
	if s.AttemptID == first.AttemptID || s.Message != restartMessage || s.Mode != domain.ModeVerify || s.ErrorCode != perr.ErrorCodeUnknown {
		t.Fatalf("restart snapshot %+v", s)
	}
	if h.orc.PendingRestarts() != 0 {
		t.Fatalf("pending restarts after fire = %d", h.orc.PendingRestarts())
	}
}

func TestOrchestrator_NoMatchIsTerminal(t *testing.T) {
	b := newBackend("blink")
	b.submit = recognition.SubmitResponse{Success: false, Message: "No matching face found"}
	h := newHarness(b)
	open(t, h)

	mustStart(t, h, "verify", "")
	mustComplete(t, h)
	s, err := h.orc.Capture(context.Background())
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if s.State != domain.FailedTerminal || s.Message != "No matching face found" || s.Failure != domain.FailureRejected || s.ErrorCode != perr.ErrorCodeInvalidArgument {
		t.Fatalf("snapshot %+v", s)
	}
	if h.orc.PendingRestarts() != 0 {
		t.Fatalf("terminal failure must not schedule a restart")
	}
	h.timers.Advance(time.Minute)
	if b.calls() != 1 {
		t.Fatalf("no automatic challenge expected, calls=%d", b.calls())
	}
}

func TestOrchestrator_VerifiedButUnmatchedIsNoMatch(t *testing.T) {
	b := newBackend("blink")
	b.submit = recognition.SubmitResponse{Success: true, Matched: false, Message: "Face not recognized"}
	h := newHarness(b)
	open(t, h)

	mustStart(t, h, "verify", "")
	mustComplete(t, h)
	s, _ := h.orc.Capture(context.Background())
	if s.State != domain.FailedTerminal || s.Failure != domain.FailureNoMatch || s.ErrorCode != perr.ErrorCodeNotFound {
		t.Fatalf("snapshot %+v", s)
	}
}

func TestOrchestrator_ManualStartCancelsPendingRestart(t *testing.T) {
	b := newBackend("blink")
	b.submit = recognition.SubmitResponse{Success: false, ErrorCode: recognition.ErrorCodeSpoofing, Message: "liveness failed"}
	h := newHarness(b)
	open(t, h)

	mustStart(t, h, "verify", "")
	mustComplete(t, h)
	if s, _ := h.orc.Capture(context.Background()); s.State != domain.FailedRetryable {
		t.Fatalf("structured spoofing code should be retryable: %+v", s)
	}

	manual := mustStart(t, h, "verify", "")
	if h.orc.PendingRestarts() != 0 {
		t.Fatalf("manual start must cancel the pending restart")
	}
	if n := h.timers.Advance(10 * time.Second); n != 0 {
		t.Fatalf("cancelled restart fired %d callbacks", n)
	}
	if b.calls() != 2 {
		t.Fatalf("challenge calls = %d, want 2", b.calls())
	}
	if s := h.orc.Snapshot(); s.AttemptID != manual.AttemptID {
		t.Fatalf("manual attempt clobbered: %s != %s", s.AttemptID, manual.AttemptID)
	}
}

func TestOrchestrator_StructuredCodeBeatsMarker(t *testing.T) {
	b := newBackend("blink")
	b.submit = recognition.SubmitResponse{Success: false, ErrorCode: recognition.ErrorCodeInvalid, Message: "Anti-spoofing model rejected the image format"}
	h := newHarness(b)
	open(t, h)

	mustStart(t, h, "verify", "")
	mustComplete(t, h)
	s, _ := h.orc.Capture(context.Background())
	if s.State != domain.FailedTerminal || s.Failure != domain.FailureInvalid {
		t.Fatalf("snapshot %+v", s)
	}
}

func TestOrchestrator_ChallengeFailures(t *testing.T) {
	cases := []struct {
		name    string
		backend func() *fakeBackend
		code    perr.ErrorCode
		failure string
	}{
		{"network", func() *fakeBackend {
			b := newBackend()
			b.challengeErr = perr.Unavailablef("connection refused")
			return b
		}, perr.ErrorCodeUnavailable, "network"},
		{"empty challenge", func() *fakeBackend { return newBackend() }, perr.ErrorCodeProtocol, "empty_challenge"},
		{"blank action", func() *fakeBackend { return newBackend("blink", " ") }, perr.ErrorCodeProtocol, "empty_challenge"},
		{"refused", func() *fakeBackend {
			b := newBackend()
			b.challenge = recognition.ChallengeResponse{Success: false, Message: "model warming up"}
			return b
		}, perr.ErrorCodeUnavailable, "network"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := tc.backend()
			h := newHarness(b)
			open(t, h)

			s, err := h.orc.Start(context.Background(), domain.StartInput{Mode: "verify"})
			if !perr.IsCode(err, tc.code) {
				t.Fatalf("err = %v, want %v", err, tc.code)
			}
			if s.State != domain.FailedTerminal || s.Failure != tc.failure || s.Message == "" || s.ErrorCode != tc.code {
				t.Fatalf("snapshot %+v", s)
			}
			h.timers.Advance(time.Minute)
			if b.calls() != 1 {
				t.Fatalf("challenge fetch must not be retried, calls=%d", b.calls())
			}
		})
	}
}

func TestOrchestrator_CompleteActionOutsideChallenge(t *testing.T) {
	h := newHarness(newBackend("blink"))
	open(t, h)

	if _, err := h.orc.CompleteAction(context.Background()); !perr.IsCode(err, perr.ErrorCodeInvalidTransition) {
		t.Fatalf("idle err = %v", err)
	}
	mustStart(t, h, "verify", "")
	mustComplete(t, h)
	before := h.orc.Snapshot()
	_, err := h.orc.CompleteAction(context.Background())
	if !perr.IsCode(err, perr.ErrorCodeInvalidTransition) {
		t.Fatalf("satisfied err = %v", err)
	}
	after := h.orc.Snapshot()
	if after.Progress.Cursor != before.Progress.Cursor || after.Seq != before.Seq {
		t.Fatalf("rejected call changed state: %+v -> %+v", before, after)
	}
}

func TestOrchestrator_RegisterNeedsValidIC(t *testing.T) {
	b := newBackend("blink")
	b.submit = recognition.SubmitResponse{Success: true, Message: "Face registered"}
	h := newHarness(b)
	open(t, h)

	mustStart(t, h, "register", "A1")
	s := mustComplete(t, h)
	if s.State != domain.ReadyToCapture || s.ICValid || s.CanCapture {
		t.Fatalf("short ic should close the gate: %+v", s)
	}
	_, err := h.orc.Capture(context.Background())
	if !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
	if e, _ := perr.As(err); e.Field() != "ic_number" {
		t.Fatalf("field = %q", e.Field())
	}

	if s := h.orc.SetICNumber("  A1234567 "); !s.CanCapture || s.ICNumber != "A1234567" {
		t.Fatalf("valid ic should open the gate: %+v", s)
	}
	s, err = h.orc.Capture(context.Background())
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if s.State != domain.Succeeded || s.Identity != "A1234567" || s.Message != "Face registered" {
		t.Fatalf("snapshot %+v", s)
	}
	if len(b.registers) != 1 || b.registers[0].ICNumber != "A1234567" {
		t.Fatalf("register requests %+v", b.registers)
	}
}

func TestOrchestrator_ChallengeDisabled(t *testing.T) {
	b := newBackend("blink")
	b.submit = recognition.SubmitResponse{Success: true, Matched: true, ICNumber: "B7654321"}
	h := newHarness(b, withoutChallenge())
	open(t, h)

	s := mustStart(t, h, "verify", "")
	if s.State != domain.ReadyToCapture || !s.CanCapture || s.ChallengeEnabled {
		t.Fatalf("bypass snapshot %+v", s)
	}
	if b.calls() != 0 {
		t.Fatalf("challenge must not be fetched when disabled")
	}
	s, err := h.orc.Capture(context.Background())
	if err != nil || s.State != domain.Succeeded {
		t.Fatalf("capture: %+v %v", s, err)
	}
	if n := len(b.verifies[0].CompletedActions); n != 0 {
		t.Fatalf("bypass should send no evidence, got %d", n)
	}
}

func TestOrchestrator_DeviceFailures(t *testing.T) {
	t.Run("acquire", func(t *testing.T) {
		h := newHarness(newBackend("blink"))
		h.device.err = errBoom
		err := h.orc.Open(context.Background())
		if !perr.IsCode(err, perr.ErrorCodeDevice) {
			t.Fatalf("err = %v", err)
		}
		if s := h.orc.Snapshot(); s.State != domain.FailedTerminal || s.Failure != "device" {
			t.Fatalf("snapshot %+v", s)
		}
		if _, err := h.orc.Start(context.Background(), domain.StartInput{Mode: "verify"}); !perr.IsCode(err, perr.ErrorCodeDevice) {
			t.Fatalf("start err = %v", err)
		}
	})

	t.Run("grab", func(t *testing.T) {
		h := newHarness(newBackend("blink"))
		open(t, h)
		h.device.stream.err = errBoom

		mustStart(t, h, "verify", "")
		mustComplete(t, h)
		s, err := h.orc.Capture(context.Background())
		if !perr.IsCode(err, perr.ErrorCodeDevice) || s.State != domain.FailedTerminal {
			t.Fatalf("capture %+v %v", s, err)
		}
		if !h.device.stream.closed {
			t.Fatalf("failed stream should be released")
		}
		if _, err := h.orc.Start(context.Background(), domain.StartInput{Mode: "verify"}); !perr.IsCode(err, perr.ErrorCodeDevice) {
			t.Fatalf("session should need a new Open, err = %v", err)
		}
	})
}

func TestOrchestrator_SubmitTransportFailureIsTerminal(t *testing.T) {
	b := newBackend("blink")
	b.submitErr = perr.Unavailablef("recognition POST /api/verify failed")
	h := newHarness(b)
	open(t, h)

	mustStart(t, h, "verify", "")
	mustComplete(t, h)
	s, err := h.orc.Capture(context.Background())
	if !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("err = %v", err)
	}
	if s.State != domain.FailedTerminal || s.Failure != "network" || h.orc.PendingRestarts() != 0 {
		t.Fatalf("snapshot %+v", s)
	}
}

func TestOrchestrator_DropsSupersededSubmission(t *testing.T) {
	b := newBackend("blink")
	b.submit = recognition.SubmitResponse{Success: true, Matched: true, ICNumber: "A1234567"}
	b.entered = make(chan struct{})
	b.release = make(chan struct{})
	h := newHarness(b)
	open(t, h)

	mustStart(t, h, "verify", "")
	mustComplete(t, h)

	type result struct {
		s   domain.Snapshot
		err error
	}
	done := make(chan result, 1)
	go func() {
		s, err := h.orc.Capture(context.Background())
		done <- result{s, err}
	}()
	<-b.entered

	if s := h.orc.Snapshot(); s.State != domain.Submitting || s.CanCapture {
		t.Fatalf("in-flight snapshot %+v", s)
	}
	if _, err := h.orc.Capture(context.Background()); !perr.IsCode(err, perr.ErrorCodeInvalidTransition) {
		t.Fatalf("second capture err = %v", err)
	}

	fresh := mustStart(t, h, "verify", "")
	close(b.release)
	r := <-done
	if !perr.IsCode(r.err, perr.ErrorCodeConflict) {
		t.Fatalf("stale capture err = %v", r.err)
	}
	s := h.orc.Snapshot()
	if s.AttemptID != fresh.AttemptID || s.State != domain.ChallengeInProgress {
		t.Fatalf("stale result leaked into new attempt: %+v", s)
	}
}

func TestOrchestrator_JournalsFinishedAttempts(t *testing.T) {
	b := newBackend("blink", "nod")
	b.submit = recognition.SubmitResponse{Success: true, Matched: true, ICNumber: "A1234567"}
	h := newHarness(b)
	open(t, h)

	mustStart(t, h, "verify", "")
	mustComplete(t, h)
	mustComplete(t, h)
	if _, err := h.orc.Capture(context.Background()); err != nil {
		t.Fatalf("capture: %v", err)
	}
	if err := h.orc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	recs, _ := h.journal.Recent(context.Background(), 10)
	if len(recs) != 1 {
		t.Fatalf("journal records = %d", len(recs))
	}
	r := recs[0]
	if r.State != "succeeded" || r.Identity != "A1234567" || r.Actions != 2 || r.Mode != domain.ModeVerify {
		t.Fatalf("record %+v", r)
	}
	if !h.device.stream.closed {
		t.Fatalf("close should release the stream")
	}
}

func TestOrchestrator_CloseCancelsRestart(t *testing.T) {
	b := newBackend("blink")
	b.submit = recognition.SubmitResponse{Success: false, Message: "Anti-spoofing check failed"}
	h := newHarness(b)
	open(t, h)

	mustStart(t, h, "verify", "")
	mustComplete(t, h)
	_, _ = h.orc.Capture(context.Background())
	if err := h.orc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if n := h.timers.Advance(time.Minute); n != 0 {
		t.Fatalf("restart fired after close")
	}
	if _, err := h.orc.Start(context.Background(), domain.StartInput{Mode: "verify"}); !perr.IsCode(err, perr.ErrorCodeInvalidTransition) {
		t.Fatalf("start after close err = %v", err)
	}
}

func TestOrchestrator_StartValidatesInput(t *testing.T) {
	h := newHarness(newBackend("blink"))
	open(t, h)

	_, err := h.orc.Start(context.Background(), domain.StartInput{Mode: "enroll"})
	if !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("err = %v", err)
	}
	if e, _ := perr.As(err); e.Field() != "mode" {
		t.Fatalf("field = %q", e.Field())
	}
}

func TestOrchestrator_StartModeIgnoresCase(t *testing.T) {
	h := newHarness(newBackend("blink"))
	open(t, h)

	for _, mode := range []string{"Register", " VERIFY "} {
		s, err := h.orc.Start(context.Background(), domain.StartInput{Mode: mode, ICNumber: "A123"})
		if err != nil {
			t.Fatalf("start %q: %v", mode, err)
		}
		want, _ := domain.ParseMode(mode)
		if s.Mode != want || s.State != domain.ChallengeInProgress {
			t.Fatalf("start %q: snapshot %+v", mode, s)
		}
	}
}
