package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"facegate/internal/adapters/recognition"
	"facegate/internal/platform/testkit"
	"facegate/internal/services/attempt/domain"
)

var pngFrame = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type fakeBackend struct {
	mu sync.Mutex

	challenge      recognition.ChallengeResponse
	challengeErr   error
	challengeCalls int

	submit    recognition.SubmitResponse
	submitErr error
	registers []recognition.RegisterRequest
	verifies  []recognition.VerifyRequest

	// when set, submissions signal entered and wait for release
	entered chan struct{}
	release chan struct{}
}

func newBackend(actions ...string) *fakeBackend {
	return &fakeBackend{challenge: recognition.ChallengeResponse{Success: true, Actions: actions}}
}

func (b *fakeBackend) Challenge(context.Context) (recognition.ChallengeResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.challengeCalls++
	return b.challenge, b.challengeErr
}

func (b *fakeBackend) Register(_ context.Context, in recognition.RegisterRequest) (recognition.SubmitResponse, error) {
	b.mu.Lock()
	b.registers = append(b.registers, in)
	b.mu.Unlock()
	return b.answer()
}

func (b *fakeBackend) Verify(_ context.Context, in recognition.VerifyRequest) (recognition.SubmitResponse, error) {
	b.mu.Lock()
	b.verifies = append(b.verifies, in)
	b.mu.Unlock()
	return b.answer()
}

func (b *fakeBackend) answer() (recognition.SubmitResponse, error) {
	if b.entered != nil {
		b.entered <- struct{}{}
		<-b.release
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.submit, b.submitErr
}

func (b *fakeBackend) calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.challengeCalls
}

type fakeStream struct {
	mu     sync.Mutex
	frame  []byte
	err    error
	grabs  int
	closed bool
}

func (s *fakeStream) GrabFrame(context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grabs++
	return s.frame, s.err
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type fakeDevice struct {
	stream   *fakeStream
	err      error
	acquired int
}

func (d *fakeDevice) Acquire(context.Context) (domain.Stream, error) {
	d.acquired++
	if d.err != nil {
		return nil, d.err
	}
	return d.stream, nil
}

type recordView struct {
	mu    sync.Mutex
	snaps []domain.Snapshot
}

func (v *recordView) Notify(s domain.Snapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.snaps = append(v.snaps, s)
}

func (v *recordView) states() []domain.State {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]domain.State, len(v.snaps))
	for i, s := range v.snaps {
		out[i] = s.State
	}
	return out
}

type fakeJournal struct {
	mu   sync.Mutex
	recs []domain.OutcomeRecord
	err  error
}

func (j *fakeJournal) Record(_ context.Context, rec domain.OutcomeRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.recs = append(j.recs, rec)
	return j.err
}

func (j *fakeJournal) Recent(context.Context, int) ([]domain.OutcomeRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]domain.OutcomeRecord(nil), j.recs...), nil
}

type harness struct {
	orc     *Orchestrator
	backend *fakeBackend
	device  *fakeDevice
	view    *recordView
	journal *fakeJournal
	timers  *testkit.ManualTimers
}

type harnessOpt func(*Config)

func withoutChallenge() harnessOpt { return func(c *Config) { c.ChallengeEnabled = false } }

func newHarness(b *fakeBackend, opts ...harnessOpt) *harness {
	h := &harness{
		backend: b,
		device:  &fakeDevice{stream: &fakeStream{frame: pngFrame}},
		view:    &recordView{},
		journal: &fakeJournal{},
		timers:  testkit.NewManualTimers(),
	}
	n := 0
	cfg := Config{
		ChallengeEnabled: true,
		Cooldown:         3 * time.Second,
		AfterFunc:        func(d time.Duration, fn func()) Timer { return h.timers.AfterFunc(d, fn) },
		Now:              func() time.Time { return time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC) },
		NewID: func() string {
			n++
			return "attempt-" + string(rune('0'+n))
		},
	}
	for _, o := range opts {
		o(&cfg)
	}
	h.orc = New(cfg, Parts{
		Challenges: NewChallengeClient(b),
		Submitter:  NewSubmissionCoordinator(b, DefaultSpoofMarker),
		Device:     h.device,
		View:       h.view,
		Journal:    h.journal,
	})
	return h
}

var errBoom = errors.New("boom")
