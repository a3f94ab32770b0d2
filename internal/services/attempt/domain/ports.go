package domain

import "context"

// Device is the camera collaborator. Acquire is called once per session
type Device interface {
	Acquire(ctx context.Context) (Stream, error)
}

// Stream is an acquired camera stream
type Stream interface {
	GrabFrame(ctx context.Context) ([]byte, error)
	Close() error
}

// View observes every orchestrator transition. Notify must not block
// and must not call back into the orchestrator
type View interface {
	Notify(s Snapshot)
}

// JournalPort records finished attempts
type JournalPort interface {
	Record(ctx context.Context, rec OutcomeRecord) error
	Recent(ctx context.Context, limit int) ([]OutcomeRecord, error)
}

// OrchestratorPort drives one operator session
type OrchestratorPort interface {
	Start(ctx context.Context, in StartInput) (Snapshot, error)
	SetICNumber(ic string) Snapshot
	CompleteAction(ctx context.Context) (Snapshot, error)
	Capture(ctx context.Context) (Snapshot, error)
	Snapshot() Snapshot
}

// EventsPort streams snapshots to subscribers
type EventsPort interface {
	Subscribe() (<-chan Snapshot, func())
}
