// Package module wires the attempt orchestrator, its adapters and the console routes
package module

import (
	"context"
	"strings"

	"facegate/internal/adapters/capture"
	"facegate/internal/adapters/recognition"
	"facegate/internal/core/liveness"
	"facegate/internal/modkit"
	"facegate/internal/modkit/swaggerkit"
	phttp "facegate/internal/platform/net/http"
	str "facegate/internal/platform/strings"

	"facegate/internal/services/attempt/domain"
	ahttp "facegate/internal/services/attempt/http"
	"facegate/internal/services/attempt/repo"
	"facegate/internal/services/attempt/service"
)

const docPrefix = "/attempts"

// Module owns one orchestrator session and mounts its console routes
type Module struct {
	built  modkit.Built
	prefix string

	orc     *service.Orchestrator
	journal *service.Journal
	ports   Ports
}

// New builds the module. The journal is enabled when deps.PG is set
func New(deps modkit.Deps, o Options, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("attempts"),
		modkit.WithPrefix(docPrefix),
	}, opts...)...)

	backend := recognition.NewClient(recognition.Options{
		BaseURL:   o.BackendURL,
		UserAgent: o.UserAgent,
		Timeout:   o.BackendTimeout,
	})

	var device domain.Device
	if src, err := capture.FromSource(o.CaptureSource); err != nil {
		device = brokenDevice{err: err}
	} else {
		device = captureDevice{src: src}
	}

	hub := service.NewHub(o.EventBuffer)

	m := &Module{built: b, prefix: str.MustPrefix(b.Prefix)}

	parts := service.Parts{
		Challenges: service.NewChallengeClient(backend),
		Submitter:  service.NewSubmissionCoordinator(backend, o.SpoofMarker),
		Device:     device,
		View:       service.Views{hub, service.NewLogView()},
	}
	if deps.PG != nil {
		m.journal = service.NewJournal(deps.PG, repo.NewPG())
		parts.Journal = m.journal
	}

	m.orc = service.New(service.Config{
		ChallengeEnabled: o.ChallengeEnabled,
		Cooldown:         o.Cooldown,
		Catalog:          liveness.NewCatalog(nil),
	}, parts)

	m.ports = Ports{Orchestrator: m.orc, Events: hub}
	if m.journal != nil {
		m.ports.Journal = m.journal
	}

	if b.SwaggerOn && m.prefix != docPrefix {
		swaggerkit.Register(rebasePaths(docPrefix, m.prefix))
	}
	return m
}

// Open prepares the journal schema and acquires the capture device.
// A device failure is fatal to the session: the console keeps serving the
// failed snapshot and Start reports the device error until the process restarts
func (m *Module) Open(ctx context.Context) error {
	if m.journal != nil {
		if err := m.journal.EnsureSchema(ctx); err != nil {
			return err
		}
	}
	return m.orc.Open(ctx)
}

// Close stops the session and releases the camera
func (m *Module) Close() error { return m.orc.Close() }

// Orchestrator exposes the session for non HTTP front ends
func (m *Module) Orchestrator() *service.Orchestrator { return m.orc }

// MountRoutes mounts the console routes under the module prefix
func (m *Module) MountRoutes(r phttp.Router) {
	m.built.Mount(r, func(rr phttp.Router) {
		ahttp.Register(rr, ahttp.Deps{
			Orchestrator: m.ports.Orchestrator,
			Events:       m.ports.Events,
			Journal:      m.ports.Journal,
		})
	})
}

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Name returns the module name
func (m *Module) Name() string { return m.built.Name }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return m.prefix }

// rebasePaths moves documented routes when the module is mounted elsewhere
func rebasePaths(from, to string) swaggerkit.SpecMutator {
	return func(spec map[string]any) {
		paths, ok := spec["paths"].(map[string]any)
		if !ok {
			return
		}
		moved := map[string]any{}
		for k, v := range paths {
			if strings.HasPrefix(k, from) {
				moved[to+strings.TrimPrefix(k, from)] = v
				delete(paths, k)
			}
		}
		for k, v := range moved {
			paths[k] = v
		}
	}
}
