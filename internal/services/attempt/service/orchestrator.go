package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"facegate/internal/core/liveness"
	perr "facegate/internal/platform/errors"
	"facegate/internal/platform/logger"
	"facegate/internal/platform/validate"
	"facegate/internal/services/attempt/domain"

	"github.com/google/uuid"
)

const (
	// DefaultCooldown is the pause before an automatic restart after a spoofing rejection
	DefaultCooldown = 3 * time.Second

	journalTimeout = 5 * time.Second

	restartMessage = "Liveness check failed, starting a new attempt"
)

// Config tunes an Orchestrator. Zero values get defaults
type Config struct {
	ChallengeEnabled bool
	Cooldown         time.Duration
	Catalog          *liveness.Catalog

	// seams
	AfterFunc AfterFunc
	Now       func() time.Time
	NewID     func() string
}

// Parts are the collaborators an Orchestrator drives
type Parts struct {
	Challenges *ChallengeClient
	Submitter  *SubmissionCoordinator
	Device     domain.Device
	View       domain.View
	// Journal is optional
	Journal domain.JournalPort
}

// Orchestrator owns the single in-flight attempt and the camera stream.
// All state changes happen under mu; the lock is released only around
// device and network calls, and results for a superseded attempt are dropped
type Orchestrator struct {
	mu        sync.Mutex
	cfg       Config
	parts     Parts
	cooldowns *Cooldowns
	log       logger.Logger

	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	stream domain.Stream
	closed bool

	seq       uint64
	attemptID string
	mode      domain.Mode
	state     domain.State
	ic        string
	tracker   *liveness.Tracker
	message   string
	identity  string
	failure   string
	code      perr.ErrorCode
	restartAt time.Time
	startedAt time.Time
}

// New builds an idle Orchestrator. Call Open before Start
func New(cfg Config, p Parts) *Orchestrator {
	if p.Challenges == nil || p.Submitter == nil || p.Device == nil {
		panic("service.Orchestrator requires challenges, submitter and device")
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.Catalog == nil {
		cfg.Catalog = liveness.NewCatalog(nil)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = func() string { return uuid.NewString() }
	}
	base, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		cfg:       cfg,
		parts:     p,
		cooldowns: NewCooldowns(cfg.AfterFunc),
		log:       *logger.Named("orchestrator"),
		base:      base,
		cancel:    cancel,
		tracker:   liveness.NewTracker(),
	}
}

// Open acquires the camera stream once for the session. A device failure
// is fatal: the session moves to FailedTerminal and Start refuses until Open succeeds
func (o *Orchestrator) Open(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return perr.InvalidTransitionf("orchestrator closed")
	}
	if o.stream != nil {
		return nil
	}
	st, err := o.parts.Device.Acquire(ctx)
	if err != nil {
		if !perr.IsCode(err, perr.ErrorCodeDevice) {
			err = perr.Wrap(err, perr.ErrorCodeDevice, "capture device unavailable")
		}
		o.log.Error().Err(err).Msg("capture device acquire failed")
		o.failLocked(err)
		return err
	}
	o.stream = st
	o.log.Info().Msg("capture device acquired")
	return nil
}

// Start discards any prior attempt, cancels its pending restart, and begins
// a fresh one. The returned snapshot reflects the state after the challenge fetch
func (o *Orchestrator) Start(ctx context.Context, in domain.StartInput) (domain.Snapshot, error) {
	in.Mode = strings.ToLower(strings.TrimSpace(in.Mode))
	if err := validate.Struct(in); err != nil {
		return o.Snapshot(), err
	}
	mode, err := domain.ParseMode(in.Mode)
	if err != nil {
		return o.Snapshot(), err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return o.snapshotLocked(), perr.InvalidTransitionf("orchestrator closed")
	}
	if o.stream == nil {
		return o.snapshotLocked(), perr.Devicef("capture device not acquired")
	}
	if n := o.cooldowns.CancelAll(); n > 0 {
		o.log.Debug().Int("cancelled", n).Msg("pending restart discarded by manual start")
	}
	id := o.resetLocked(mode, strings.TrimSpace(in.ICNumber), "")
	err = o.fetchChallengeLocked(logger.WithAttempt(ctx, id, string(mode)), id)
	return o.snapshotLocked(), err
}

// SetICNumber updates the identity hint. Capture gating picks it up immediately
func (o *Orchestrator) SetICNumber(ic string) domain.Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ic = strings.TrimSpace(ic)
	o.notifyLocked()
	return o.snapshotLocked()
}

// CompleteAction marks the current challenge action done.
// Outside ChallengeInProgress it returns InvalidTransition and changes nothing
func (o *Orchestrator) CompleteAction(_ context.Context) (domain.Snapshot, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != domain.ChallengeInProgress {
		return o.snapshotLocked(), perr.InvalidTransitionf("complete action: attempt is %s", o.state)
	}
	if err := o.tracker.CompleteCurrentAction(); err != nil {
		return o.snapshotLocked(), err
	}
	if o.tracker.IsSatisfied() {
		o.state = domain.ReadyToCapture
	}
	o.notifyLocked()
	return o.snapshotLocked(), nil
}

// Capture grabs one frame and submits it. It is refused unless the attempt is
// ReadyToCapture and the capture gate is open, so only one submission is ever in flight
func (o *Orchestrator) Capture(ctx context.Context) (domain.Snapshot, error) {
	o.mu.Lock()
	if o.state != domain.ReadyToCapture {
		s := o.snapshotLocked()
		o.mu.Unlock()
		return s, perr.InvalidTransitionf("capture: attempt is %s", s.State)
	}
	if !o.canCaptureLocked() {
		s := o.snapshotLocked()
		o.mu.Unlock()
		return s, perr.WithField(perr.Validationf("a valid ic number is required before capture"), "ic_number")
	}
	id, mode, ic, stream := o.attemptID, o.mode, o.ic, o.stream
	completed := o.tracker.Completed()
	o.state = domain.Submitting
	o.message = ""
	o.notifyLocked()
	o.mu.Unlock()

	ctx = logger.WithAttempt(ctx, id, string(mode))
	var res domain.SubmissionResult
	frame, err := stream.GrabFrame(ctx)
	if err != nil {
		if !perr.IsCode(err, perr.ErrorCodeDevice) {
			err = perr.Wrap(err, perr.ErrorCodeDevice, "grab frame failed")
		}
	} else {
		res, err = o.parts.Submitter.Submit(ctx, domain.CaptureAttempt{Image: frame, Completed: completed}, mode, ic)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || o.attemptID != id {
		logger.C(ctx).Debug().Msg("dropping result of superseded attempt")
		return o.snapshotLocked(), perr.Conflictf("attempt %s was superseded", id)
	}
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeDevice) {
			o.log.Error().Err(err).Str("attempt_id", id).Msg("capture device failed")
			o.dropStreamLocked()
		}
		o.failLocked(err)
		return o.snapshotLocked(), err
	}
	o.applyLocked(ctx, id, res)
	return o.snapshotLocked(), nil
}

// Snapshot returns the current observable state
func (o *Orchestrator) Snapshot() domain.Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// PendingRestarts reports how many cooldown restarts are armed
func (o *Orchestrator) PendingRestarts() int { return o.cooldowns.Pending() }

// Close cancels pending restarts, waits for journal writes and releases the camera
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	n := o.cooldowns.CancelAll()
	o.cancel()
	st := o.stream
	o.stream = nil
	o.mu.Unlock()

	o.wg.Wait()
	o.log.Info().Int("cancelled_restarts", n).Msg("orchestrator closed")
	if st != nil {
		return st.Close()
	}
	return nil
}

// resetLocked replaces the attempt wholesale and returns the new attempt id
func (o *Orchestrator) resetLocked(mode domain.Mode, ic, message string) string {
	o.attemptID = o.cfg.NewID()
	o.mode = mode
	o.ic = ic
	o.tracker.Reset()
	o.message = message
	o.identity = ""
	o.failure = ""
	o.code = perr.ErrorCodeUnknown
	o.restartAt = time.Time{}
	o.startedAt = o.cfg.Now()
	o.state = domain.Idle
	o.notifyLocked()
	return o.attemptID
}

// fetchChallengeLocked moves attempt id out of Idle. With challenges disabled it
// goes straight to ReadyToCapture. Called and returns with mu held; the lock is
// dropped for the network call
func (o *Orchestrator) fetchChallengeLocked(ctx context.Context, id string) error {
	if !o.cfg.ChallengeEnabled {
		o.state = domain.ReadyToCapture
		o.notifyLocked()
		return nil
	}
	o.state = domain.AwaitingChallenge
	o.notifyLocked()

	o.mu.Unlock()
	ch, err := o.parts.Challenges.RequestChallenge(ctx)
	o.mu.Lock()

	if o.closed || o.attemptID != id {
		logger.C(ctx).Debug().Msg("dropping challenge of superseded attempt")
		return perr.Conflictf("attempt %s was superseded", id)
	}
	if err != nil {
		o.failLocked(err)
		return err
	}
	o.tracker.Accept(ch)
	o.state = domain.ChallengeInProgress
	o.notifyLocked()
	return nil
}

// applyLocked moves a Submitting attempt to its terminal state
func (o *Orchestrator) applyLocked(ctx context.Context, id string, res domain.SubmissionResult) {
	sub := o.parts.Submitter
	switch sub.Classify(o.mode, res) {
	case domain.OutcomeSucceeded:
		o.state = domain.Succeeded
		o.identity = res.Identity
		if o.identity == "" && o.mode == domain.ModeRegister {
			o.identity = o.ic
		}
		o.message = res.Message
		if o.message == "" {
			o.message = successMessage(o.mode)
		}
	case domain.OutcomeRetryable:
		o.state = domain.FailedRetryable
		o.failure = domain.FailureSpoofing
		o.code = perr.ErrorCodeSpoofing
		o.message = res.Message
		o.restartAt = o.cfg.Now().Add(o.cfg.Cooldown)
		o.cooldowns.Schedule(id, o.cfg.Cooldown, func() { o.restart(id) })
		logger.C(ctx).Warn().Str("message", res.Message).Dur("cooldown", o.cfg.Cooldown).Msg("liveness rejected, restart scheduled")
	default:
		o.state = domain.FailedTerminal
		o.failure = sub.FailureKind(o.mode, res)
		o.code = rejectionCode(o.failure)
		o.message = res.Message
		if o.message == "" {
			o.message = "Submission was not accepted"
		}
		logger.C(ctx).Warn().Str("failure", o.failure).Str("message", o.message).Msg("attempt failed")
	}
	o.finishLocked()
}

// restart is the cooldown callback. It only acts if id is still the current
// retryable attempt
func (o *Orchestrator) restart(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || o.attemptID != id || o.state != domain.FailedRetryable {
		return
	}
	newID := o.resetLocked(o.mode, o.ic, restartMessage)
	ctx := logger.WithAttempt(o.base, newID, string(o.mode))
	logger.C(ctx).Info().Str("previous_attempt_id", id).Msg("restarting attempt after cooldown")
	_ = o.fetchChallengeLocked(ctx, newID)
}

// failLocked ends the attempt as FailedTerminal with the error's message
func (o *Orchestrator) failLocked(err error) {
	o.state = domain.FailedTerminal
	o.code = perr.CodeOf(err)
	o.failure = o.code.String()
	if errors.Is(err, liveness.ErrEmptyChallenge) {
		o.failure = domain.FailureEmptyChallenge
	}
	if e, ok := perr.As(err); ok {
		o.message = e.Message()
	} else {
		o.message = err.Error()
	}
	o.log.Warn().Err(err).Str("attempt_id", o.attemptID).Str("failure", o.failure).Msg("attempt failed")
	o.finishLocked()
}

// finishLocked publishes the terminal snapshot and journals it in the background
func (o *Orchestrator) finishLocked() {
	o.notifyLocked()
	if o.parts.Journal == nil || o.attemptID == "" {
		return
	}
	rec := domain.OutcomeRecord{
		AttemptID:  o.attemptID,
		Mode:       o.mode,
		State:      o.state.String(),
		Failure:    o.failure,
		Message:    o.message,
		Identity:   o.identity,
		Actions:    len(o.tracker.Completed()),
		StartedAt:  o.startedAt,
		FinishedAt: o.cfg.Now(),
	}
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(o.base), journalTimeout)
		defer cancel()
		if err := o.parts.Journal.Record(ctx, rec); err != nil {
			o.log.Warn().Err(err).Str("attempt_id", rec.AttemptID).Msg("journal record failed")
		}
	}()
}

func (o *Orchestrator) dropStreamLocked() {
	if o.stream == nil {
		return
	}
	if err := o.stream.Close(); err != nil {
		o.log.Warn().Err(err).Msg("capture stream close failed")
	}
	o.stream = nil
}

// icValidLocked: verification needs no identity hint
func (o *Orchestrator) icValidLocked() bool {
	if o.mode == domain.ModeVerify {
		return true
	}
	return validate.Var(o.ic, "ic_number") == nil
}

func (o *Orchestrator) canCaptureLocked() bool {
	return o.state == domain.ReadyToCapture &&
		liveness.CanCapture(o.icValidLocked(), o.tracker, o.cfg.ChallengeEnabled)
}

func (o *Orchestrator) notifyLocked() {
	o.seq++
	s := o.snapshotLocked()
	o.log.Debug().
		Uint64("seq", s.Seq).
		Str("attempt_id", s.AttemptID).
		Str("state", s.State.String()).
		Int("cursor", s.Progress.Cursor).
		Msg("attempt transition")
	if o.parts.View != nil {
		o.parts.View.Notify(s)
	}
}

func (o *Orchestrator) snapshotLocked() domain.Snapshot {
	p := o.tracker.Progress()
	s := domain.Snapshot{
		Seq:              o.seq,
		AttemptID:        o.attemptID,
		Mode:             o.mode,
		State:            o.state,
		ICNumber:         o.ic,
		ICValid:          o.icValidLocked(),
		ChallengeEnabled: o.cfg.ChallengeEnabled,
		Progress:         p,
		Labels:           o.cfg.Catalog.Labels(p.Required),
		CanCapture:       o.canCaptureLocked(),
		Message:          o.message,
		Identity:         o.identity,
		Failure:          o.failure,
		ErrorCode:        o.code,
	}
	if cur, ok := o.tracker.CurrentAction(); ok {
		s.CurrentAction = string(cur)
		s.CurrentLabel = o.cfg.Catalog.Label(cur)
	}
	if !o.restartAt.IsZero() {
		t := o.restartAt
		s.RestartAt = &t
	}
	return s
}

// rejectionCode is the machine code published for a refused submission
func rejectionCode(failure string) perr.ErrorCode {
	switch failure {
	case domain.FailureSpoofing:
		return perr.ErrorCodeSpoofing
	case domain.FailureNoMatch:
		return perr.ErrorCodeNotFound
	default:
		return perr.ErrorCodeInvalidArgument
	}
}

func successMessage(m domain.Mode) string {
	if m == domain.ModeRegister {
		return "Registration complete"
	}
	return "Identity verified"
}
