// Package module mounts the meta routes under /meta
package module

import (
	"time"

	"facegate/internal/core/version"
	modkit "facegate/internal/modkit"
	phttp "facegate/internal/platform/net/http"
	str "facegate/internal/platform/strings"

	metahttp "facegate/internal/services/api/meta/http"
)

// Module serves process and dependency status. It has no ports
type Module struct {
	built modkit.Built
	deps  metahttp.Deps
}

// New builds the meta module. The journal check is skipped when deps.PG is nil
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	m := &Module{
		built: modkit.Build(append([]modkit.Option{
			modkit.WithName("meta"),
			modkit.WithPrefix("/meta"),
		}, opts...)...),
		deps: metahttp.Deps{ServiceName: version.Info().Service, StartedAt: time.Now()},
	}
	if deps.PG != nil {
		m.deps.Journal = deps.PG
	}
	return m
}

func (m *Module) MountRoutes(r phttp.Router) {
	m.built.Mount(r, func(rr phttp.Router) { metahttp.Register(rr, m.deps) })
}

func (m *Module) Name() string   { return str.MustString(m.built.Name, "meta module name") }
func (m *Module) Prefix() string { return str.MustPrefix(m.built.Prefix) }
func (m *Module) Ports() any     { return nil }
