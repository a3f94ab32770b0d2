package module

import (
	"time"

	"facegate/internal/platform/config"
	"facegate/internal/services/attempt/service"
)

// Options controls the attempt orchestrator, its backend client and capture source
type Options struct {
	BackendURL     string
	BackendTimeout time.Duration
	UserAgent      string

	ChallengeEnabled bool
	Cooldown         time.Duration
	SpoofMarker      string

	// CaptureSource is a frame file, a frame directory, or a camera snapshot URL
	CaptureSource string
	EventBuffer   int
}

// FromConfig reads FACEGATE_* values. BACKEND_URL is required
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("FACEGATE_")
	return Options{
		BackendURL:       c.MustURL("BACKEND_URL").String(),
		BackendTimeout:   c.MayDuration("BACKEND_TIMEOUT", 10*time.Second),
		UserAgent:        c.MayString("USER_AGENT", ""),
		ChallengeEnabled: c.MayBool("CHALLENGE_ENABLED", true),
		Cooldown:         c.MayDuration("COOLDOWN", service.DefaultCooldown),
		SpoofMarker:      c.MayString("SPOOF_MARKER", service.DefaultSpoofMarker),
		CaptureSource:    c.MayString("CAPTURE_SOURCE", "frames"),
		EventBuffer:      c.MayInt("EVENT_BUFFER", 16),
	}
}
