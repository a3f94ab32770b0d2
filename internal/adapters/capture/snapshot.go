package capture

import (
	"context"
	"io"
	"net/http"
	"time"

	"facegate/internal/core/version"
	perr "facegate/internal/platform/errors"
)

const (
	snapshotTimeout = 5 * time.Second
	maxFrame        = 8 << 20
)

// Snapshot pulls one JPEG or PNG per grab from an IP camera snapshot endpoint
type Snapshot struct {
	url    string
	client *http.Client
}

// NewSnapshot creates a snapshot source. client may be nil
func NewSnapshot(url string, client *http.Client) *Snapshot {
	if client == nil {
		client = &http.Client{Timeout: snapshotTimeout}
	}
	return &Snapshot{url: url, client: client}
}

// Open probes the endpoint once so an unreachable camera fails at acquire time
func (s *Snapshot) Open(ctx context.Context) (*Stream, error) {
	b, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	if !isImage(b) {
		return nil, perr.Devicef("camera at %s did not return an image", s.url)
	}
	return newStream(s.fetch, nil), nil
}

func (s *Snapshot) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeDevice, "build snapshot request")
	}
	req.Header.Set("User-Agent", version.UserAgent())
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeDevice, "camera %s unreachable", s.url)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, perr.Devicef("camera %s: unexpected status %d", s.url, resp.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxFrame+1))
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeDevice, "read snapshot")
	}
	if len(b) > maxFrame {
		return nil, perr.Devicef("snapshot exceeds %d bytes", maxFrame)
	}
	return b, nil
}
