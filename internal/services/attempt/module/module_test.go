package module

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"facegate/internal/modkit"
	"facegate/internal/modkit/module"
	"facegate/internal/platform/config"
	perr "facegate/internal/platform/errors"
	phttp "facegate/internal/platform/net/http"
	"facegate/internal/platform/testkit"
	"facegate/internal/services/attempt/domain"

	"github.com/go-chi/chi/v5"
)

var png = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func backend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/liveness-challenge":
			_, _ = w.Write([]byte(`{"success":true,"actions":["blink","turn_head_left"]}`))
		case "/api/verify":
			var body struct {
				ImageData        string   `json:"image_data"`
				CompletedActions []string `json:"completed_actions"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			if !strings.HasPrefix(body.ImageData, "data:image/png;base64,") || len(body.CompletedActions) != 2 {
				http.Error(w, `{"success":false,"message":"bad payload"}`, http.StatusBadRequest)
				return
			}
			_, _ = w.Write([]byte(`{"success":true,"matched":true,"ic_number":"900101-14-5678"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func frames(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "face.png"), png, 0o600); err != nil {
		t.Fatal(err)
	}
	return dir
}

func call(t *testing.T, h http.Handler, method, path, body string) domain.Snapshot {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("%s %s: status %d body %s", method, path, rr.Code, rr.Body.String())
	}
	var env struct {
		Data domain.Snapshot `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return env.Data
}

func TestModule_VerifyThroughConsole(t *testing.T) {
	m := New(modkit.Deps{}, Options{
		BackendURL:       backend(t).URL,
		ChallengeEnabled: true,
		SpoofMarker:      "Anti-spoofing",
		CaptureSource:    frames(t),
	})
	if err := m.Open(context.Background()); err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })

	r := phttp.AdaptChi(chi.NewRouter())
	r.Route("/api/v1", func(api phttp.Router) { m.MountRoutes(api) })
	h := r.Mux()

	s := call(t, h, http.MethodPost, "/api/v1/attempts", `{"mode":"verify"}`)
	if s.State != domain.ChallengeInProgress || s.CurrentLabel != "Blink" {
		t.Fatalf("after start: %+v", s)
	}
	call(t, h, http.MethodPost, "/api/v1/attempts/actions/complete", "")
	s = call(t, h, http.MethodPost, "/api/v1/attempts/actions/complete", "")
	if !s.CanCapture {
		t.Fatalf("capture should be open: %+v", s)
	}
	s = call(t, h, http.MethodPost, "/api/v1/attempts/capture", "")
	if s.State != domain.Succeeded || s.Identity != "900101-14-5678" {
		t.Fatalf("after capture: %+v", s)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/attempts/outcomes", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("outcomes without journal: %d", rr.Code)
	}
}

func TestModule_PortsAndRegistry(t *testing.T) {
	m := New(modkit.Deps{}, Options{BackendURL: "http://127.0.0.1:1", CaptureSource: frames(t)})
	t.Cleanup(func() { _ = m.Close() })

	if m.Name() != "attempts" || m.Prefix() != "/attempts" {
		t.Fatalf("name %q prefix %q", m.Name(), m.Prefix())
	}
	p := m.Ports().(Ports)
	if p.Orchestrator == nil || p.Events == nil {
		t.Fatalf("ports missing: %+v", p)
	}
	if p.Journal != nil {
		t.Fatalf("journal port should be nil without postgres")
	}
	if got := module.MustPortsOf[domain.EventsPort](m); got == nil {
		t.Fatalf("events port not discoverable")
	}

	module.Reset()
	t.Cleanup(module.Reset)
	module.Register(m.Name(), m.Ports())
	if _, ok := module.PortsAs[Ports]("attempts"); !ok {
		t.Fatalf("registry lookup failed")
	}
}

func TestModule_BadCaptureSourceFailsAtOpen(t *testing.T) {
	m := New(modkit.Deps{}, Options{BackendURL: "http://127.0.0.1:1", CaptureSource: " "})
	t.Cleanup(func() { _ = m.Close() })

	err := m.Open(context.Background())
	if !perr.IsCode(err, perr.ErrorCodeDevice) {
		t.Fatalf("want device error, got %v", err)
	}
	s := m.Orchestrator().Snapshot()
	if s.State != domain.FailedTerminal || s.Failure != "device" {
		t.Fatalf("snapshot after failed open: %+v", s)
	}
	if _, err := m.Orchestrator().Start(context.Background(), domain.StartInput{Mode: "verify"}); !perr.IsCode(err, perr.ErrorCodeDevice) {
		t.Fatalf("start after failed open: %v", err)
	}
}

func TestModule_CustomPrefixRebasesDocs(t *testing.T) {
	testkit.Serial(t)
	m := New(modkit.Deps{}, Options{BackendURL: "http://127.0.0.1:1", CaptureSource: frames(t)},
		modkit.WithPrefix("kiosk"), modkit.WithSwagger(true))
	t.Cleanup(func() { _ = m.Close() })
	if m.Prefix() != "/kiosk" {
		t.Fatalf("prefix %q", m.Prefix())
	}

	spec := map[string]any{"paths": map[string]any{
		"/attempts":         map[string]any{},
		"/attempts/capture": map[string]any{},
		"/other":            map[string]any{},
	}}
	rebasePaths("/attempts", "/kiosk")(spec)
	paths := spec["paths"].(map[string]any)
	for _, k := range []string{"/kiosk", "/kiosk/capture", "/other"} {
		if _, ok := paths[k]; !ok {
			t.Fatalf("missing %s in %v", k, paths)
		}
	}
	if len(paths) != 3 {
		t.Fatalf("stale paths left: %v", paths)
	}
}

func TestFromConfig(t *testing.T) {
	t.Setenv("FACEGATE_BACKEND_URL", "http://recognition.local:5000")
	t.Setenv("FACEGATE_CHALLENGE_ENABLED", "false")
	t.Setenv("FACEGATE_COOLDOWN", "5s")

	o := FromConfig(config.New())
	if o.BackendURL != "http://recognition.local:5000" {
		t.Fatalf("backend url %q", o.BackendURL)
	}
	if o.ChallengeEnabled {
		t.Fatalf("challenge should be disabled")
	}
	if o.Cooldown != 5*time.Second || o.BackendTimeout != 10*time.Second {
		t.Fatalf("durations: %+v", o)
	}
	if o.SpoofMarker != "Anti-spoofing" || o.CaptureSource != "frames" || o.EventBuffer != 16 {
		t.Fatalf("defaults: %+v", o)
	}
}

func TestFromConfig_RequiresBackendURL(t *testing.T) {
	t.Setenv("FACEGATE_BACKEND_URL", "")
	testkit.MustPanic(t, func() { _ = FromConfig(config.New()) })
}
