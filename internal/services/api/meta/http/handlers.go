// Package http serves the console's liveness, readiness and build info routes
package http

import (
	"context"
	"net/http"
	"time"

	"facegate/internal/core/version"
	phttp "facegate/internal/platform/net/http"
)

// Pinger is implemented by the journal's postgres seam
type Pinger interface {
	Ping(context.Context) error
}

// Deps are the meta route dependencies
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	// Journal is nil when outcomes are not persisted
	Journal any
}

// Register mounts GET /health, /ready and /version on r
func Register(r phttp.Router, d Deps) {
	m := meta{Deps: d, now: time.Now}
	phttp.GetJSON(r, "/health", m.health)
	phttp.GetJSON(r, "/ready", m.ready)
	phttp.GetJSON(r, "/version", func(*http.Request) (any, error) { return version.Info(), nil })
}

type meta struct {
	Deps
	now func() time.Time
}

// Health is the process liveness payload
type Health struct {
	Service string `json:"service" example:"facegate-kiosk"`
	Started string `json:"started" example:"2026-10-18T08:00:00Z"`
	Uptime  int64  `json:"uptime_s" example:"300"`
}

// Check is one dependency probe result. Status is ok, fail, skipped or unknown
type Check struct {
	Name   string `json:"name"   example:"journal"`
	Status string `json:"status" example:"ok"`
	Error  string `json:"error,omitempty"`
}

// Readiness is ok unless a check failed
type Readiness struct {
	Status string  `json:"status" example:"ok"`
	Checks []Check `json:"checks"`
}

// @Summary Liveness and uptime
// @Tags Meta
// @Produce json
// @Success 200 {object} Health
// @Router /meta/health [get]
func (m meta) health(*http.Request) (any, error) {
	return Health{
		Service: m.ServiceName,
		Started: m.StartedAt.UTC().Format(time.RFC3339),
		Uptime:  int64(m.now().Sub(m.StartedAt).Seconds()),
	}, nil
}

// @Summary Readiness with dependency checks
// @Tags Meta
// @Produce json
// @Success 200 {object} Readiness
// @Router /meta/ready [get]
func (m meta) ready(r *http.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	journal := probe(ctx, "journal", m.Journal)
	out := Readiness{Status: "ok", Checks: []Check{journal}}
	if journal.Status == "fail" {
		out.Status = "fail"
	}
	return out, nil
}

func probe(ctx context.Context, name string, dep any) Check {
	c := Check{Name: name, Status: "skipped"}
	if dep == nil {
		return c
	}
	p, ok := dep.(Pinger)
	if !ok {
		c.Status = "unknown"
		return c
	}
	if err := p.Ping(ctx); err != nil {
		c.Status, c.Error = "fail", err.Error()
		return c
	}
	c.Status = "ok"
	return c
}
