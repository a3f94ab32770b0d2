// Package http provides the operator console transport for attempts
package http

import (
	"context"
	"encoding/json"
	"fmt"
	stdhttp "net/http"
	"strconv"
	"time"

	perr "facegate/internal/platform/errors"
	"facegate/internal/platform/logger"
	phttp "facegate/internal/platform/net/http"
	"facegate/internal/platform/validate"
	"facegate/internal/services/attempt/domain"
)

const keepAliveEvery = 15 * time.Second

// Deps are the ports the console drives. Journal may be nil
type Deps struct {
	Orchestrator domain.OrchestratorPort
	Events       domain.EventsPort
	Journal      domain.JournalPort
}

// Register mounts attempt endpoints on the given router
func Register(r phttp.Router, d Deps) {
	h := &handlers{deps: d, keepAlive: keepAliveEvery}
	phttp.PostJSON(r, "/", h.start)
	phttp.PutJSON(r, "/ic", h.setIC)
	phttp.PostJSONNoBody(r, "/actions/complete", h.completeAction)
	phttp.PostJSONNoBody(r, "/capture", h.capture)
	phttp.GetJSON(r, "/current", h.current)
	phttp.GetJSON(r, "/outcomes", h.outcomes)
	r.Get("/events", h.events)
}

type handlers struct {
	deps      Deps
	keepAlive time.Duration
}

// swagger:route POST /attempts Attempts attemptStart
// @Summary Start a new attempt, discarding the current one
// @Tags Attempts
// @Accept json
// @Produce json
// @Param payload body domain.StartInput true "Mode and optional IC number"
// @Success 200 {object} domain.Snapshot "ok"
// @Router /attempts [post]
func (h *handlers) start(r *stdhttp.Request, in domain.StartInput) (any, error) {
	return h.deps.Orchestrator.Start(detach(r), in)
}

// @Summary Update the IC number hint
// @Tags Attempts
// @Accept json
// @Produce json
// @Param payload body domain.ICInput true "IC number"
// @Success 200 {object} domain.Snapshot "ok"
// @Router /attempts/ic [put]
func (h *handlers) setIC(_ *stdhttp.Request, in domain.ICInput) (any, error) {
	return h.deps.Orchestrator.SetICNumber(in.ICNumber), nil
}

// @Summary Confirm the current challenge action
// @Tags Attempts
// @Produce json
// @Success 200 {object} domain.Snapshot "ok"
// @Failure 409 {object} phttp.Envelope "no action pending"
// @Router /attempts/actions/complete [post]
func (h *handlers) completeAction(r *stdhttp.Request) (any, error) {
	return h.deps.Orchestrator.CompleteAction(r.Context())
}

// @Summary Capture a frame and submit it
// @Tags Attempts
// @Produce json
// @Success 200 {object} domain.Snapshot "ok"
// @Failure 400 {object} phttp.Envelope "capture gate closed"
// @Failure 409 {object} phttp.Envelope "not ready to capture"
// @Router /attempts/capture [post]
func (h *handlers) capture(r *stdhttp.Request) (any, error) {
	return h.deps.Orchestrator.Capture(detach(r))
}

// detach keeps request values but ignores client cancellation
func detach(r *stdhttp.Request) context.Context { return context.WithoutCancel(r.Context()) }

// @Summary Current attempt snapshot
// @Tags Attempts
// @Produce json
// @Success 200 {object} domain.Snapshot "ok"
// @Router /attempts/current [get]
func (h *handlers) current(_ *stdhttp.Request) (any, error) {
	return h.deps.Orchestrator.Snapshot(), nil
}

// @Summary Recently finished attempts
// @Tags Attempts
// @Produce json
// @Param limit query int false "1..200, default 50"
// @Success 200 {array} domain.OutcomeRecord "ok"
// @Failure 404 {object} phttp.Envelope "journal disabled"
// @Router /attempts/outcomes [get]
func (h *handlers) outcomes(r *stdhttp.Request) (any, error) {
	if h.deps.Journal == nil {
		return nil, perr.NotFoundf("outcome journal is disabled")
	}
	q := domain.OutcomesQuery{Limit: 50}
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, perr.WithField(perr.InvalidArgf("limit must be an integer"), "limit")
		}
		q.Limit = n
	}
	if err := validate.Struct(q); err != nil {
		return nil, err
	}
	return h.deps.Journal.Recent(r.Context(), q.Limit)
}

// @Summary Server-sent snapshot stream, one event per transition
// @Tags Attempts
// @Produce text/event-stream
// @Success 200 {object} domain.Snapshot "event data"
// @Router /attempts/events [get]
func (h *handlers) events(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	fl, ok := w.(stdhttp.Flusher)
	if !ok || h.deps.Events == nil {
		phttp.RespondError(w, r, perr.Internalf("event streaming unsupported"))
		return
	}
	ch, cancel := h.deps.Events.Subscribe()
	defer cancel()

	hdr := w.Header()
	hdr.Set("Content-Type", "text/event-stream")
	hdr.Set("Cache-Control", "no-cache")
	hdr.Set("Connection", "keep-alive")
	hdr.Set("X-Accel-Buffering", "no")
	w.WriteHeader(stdhttp.StatusOK)
	fl.Flush()

	log := logger.C(r.Context())
	tick := time.NewTicker(h.keepAlive)
	defer tick.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-tick.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			fl.Flush()
		case s, ok := <-ch:
			if !ok {
				return
			}
			b, err := json.Marshal(s)
			if err != nil {
				log.Error().Err(err).Msg("snapshot encode failed")
				continue
			}
			if _, err := fmt.Fprintf(w, "id: %d\nevent: snapshot\ndata: %s\n\n", s.Seq, b); err != nil {
				return
			}
			fl.Flush()
		}
	}
}
