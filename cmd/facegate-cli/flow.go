package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	perr "facegate/internal/platform/errors"
	"facegate/internal/services/attempt/domain"
)

// flow walks one operator through an attempt on a terminal
type flow struct {
	orc    domain.OrchestratorPort
	events domain.EventsPort
	in     *bufio.Reader
	out    io.Writer
}

func newFlow(orc domain.OrchestratorPort, events domain.EventsPort, in io.Reader, out io.Writer) *flow {
	return &flow{orc: orc, events: events, in: bufio.NewReader(in), out: out}
}

// run drives the attempt until it succeeds or fails terminally.
// Spoofing rejections wait out the cooldown and continue with the fresh attempt
func (f *flow) run(ctx context.Context, start domain.StartInput) (domain.Snapshot, error) {
	ch, cancel := f.events.Subscribe()
	defer cancel()

	s, err := f.orc.Start(ctx, start)
	if err != nil && !s.State.Terminal() {
		return s, err
	}
	for {
		switch s.State {
		case domain.Succeeded, domain.FailedTerminal:
			f.report(s)
			return s, nil

		case domain.FailedRetryable:
			f.printf("%s\n", s.Message)
			f.printf("retrying shortly...\n")
			s, err = f.await(ctx, ch, s.Seq)

		case domain.ChallengeInProgress:
			f.printf("[%d/%d] %s, then press Enter ", s.Progress.Cursor+1, len(s.Progress.Required), s.CurrentLabel)
			if err = f.line(ctx); err == nil {
				s, err = f.orc.CompleteAction(ctx)
			}

		case domain.ReadyToCapture:
			if !s.CanCapture {
				f.printf("IC number: ")
				var ic string
				if ic, err = f.read(ctx); err == nil {
					s = f.orc.SetICNumber(ic)
					if !s.CanCapture {
						f.printf("IC number must be 3-32 letters, digits or dashes\n")
					}
				}
				break
			}
			f.printf("look at the camera and press Enter to capture ")
			if err = f.line(ctx); err == nil {
				s, err = f.orc.Capture(ctx)
				if perr.IsCode(err, perr.ErrorCodeValidation) {
					err = nil
				}
			}

		default:
			s, err = f.await(ctx, ch, s.Seq)
		}

		if err != nil && !s.State.Terminal() {
			return s, err
		}
	}
}

// await blocks until a snapshot newer than seq arrives
func (f *flow) await(ctx context.Context, ch <-chan domain.Snapshot, seq uint64) (domain.Snapshot, error) {
	for {
		select {
		case <-ctx.Done():
			return f.orc.Snapshot(), ctx.Err()
		case s, ok := <-ch:
			if !ok {
				return f.orc.Snapshot(), perr.Internalf("event stream closed")
			}
			if s.Seq > seq && s.State != domain.Idle && s.State != domain.AwaitingChallenge {
				return s, nil
			}
		}
	}
}

func (f *flow) report(s domain.Snapshot) {
	if s.State == domain.Succeeded {
		if s.Identity != "" {
			f.printf("%s: %s\n", s.Message, s.Identity)
			return
		}
		f.printf("%s\n", s.Message)
		return
	}
	f.printf("failed (%s): %s\n", s.Failure, s.Message)
}

func (f *flow) line(ctx context.Context) error {
	_, err := f.read(ctx)
	return err
}

func (f *flow) read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s, err := f.in.ReadString('\n')
	if err != nil && !(err == io.EOF && s != "") {
		return "", perr.Wrap(err, perr.ErrorCodeInvalidArgument, "operator input closed")
	}
	return strings.TrimSpace(s), nil
}

func (f *flow) printf(format string, a ...any) { _, _ = fmt.Fprintf(f.out, format, a...) }
