package module

import (
	"context"

	"facegate/internal/adapters/capture"
	"facegate/internal/services/attempt/domain"
	"facegate/internal/services/attempt/service"
)

// Ports holds the ports exposed by the attempt module. Journal is nil when disabled
type Ports struct {
	Orchestrator domain.OrchestratorPort
	Events       domain.EventsPort
	Journal      domain.JournalPort
}

// captureDevice adapts a capture.Source to the orchestrator's Device port
type captureDevice struct{ src capture.Source }

func (d captureDevice) Acquire(ctx context.Context) (domain.Stream, error) {
	s, err := d.src.Open(ctx)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// brokenDevice reports a misconfigured source at acquire time so the
// session surfaces it as a device failure instead of refusing to boot
type brokenDevice struct{ err error }

func (d brokenDevice) Acquire(context.Context) (domain.Stream, error) { return nil, d.err }

var (
	_ domain.OrchestratorPort = (*service.Orchestrator)(nil)
	_ domain.EventsPort       = (*service.Hub)(nil)
	_ domain.JournalPort      = (*service.Journal)(nil)
)
