// Package recognition is the HTTP client for the remote face recognition backend:
// challenge issuance, registration and verification
package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"facegate/internal/core/version"
	perr "facegate/internal/platform/errors"
	"facegate/internal/platform/logger"
)

const (
	defaultTimeout = 10 * time.Second
	maxBody        = 1 << 20
)

// Options configures the Client
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration

	// HTTPClient overrides the transport, mostly for tests. Timeout is ignored when set
	HTTPClient *http.Client
}

// Client talks to the recognition backend. It never retries;
// retry policy belongs to the caller
type Client struct {
	http *http.Client
	opts Options
	log  logger.Logger
	now  func() time.Time
}

// NewClient creates a new Client with sane defaults
func NewClient(o Options) *Client {
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.UserAgent == "" {
		o.UserAgent = version.UserAgent()
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	hc := o.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: o.Timeout}
	}
	return &Client{
		http: hc,
		opts: o,
		log:  *logger.Named("recognition"),
		now:  time.Now,
	}
}

// response is a fully read backend reply
type response struct {
	status int
	body   []byte
}

func (r response) ok() bool { return r.status >= 200 && r.status < 300 }

// statusErr is the error for a non-2xx reply without a usable body.
// 429 is ErrorCodeTooManyRequests, anything else ErrorCodeUnavailable
func statusErr(status int, format string, a ...any) error {
	code := perr.ErrorCodeUnavailable
	if status == http.StatusTooManyRequests {
		code = perr.ErrorCodeTooManyRequests
	}
	return perr.Newf(code, format, a...)
}

// do issues one request and reads at most 1MiB of the reply.
// Transport failures come back as ErrorCodeUnavailable
func (c *Client) do(ctx context.Context, method, path string, in any) (response, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return response{}, perr.Wrapf(err, perr.ErrorCodeJSON, "recognition encode %s", path)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.opts.BaseURL+path, body)
	if err != nil {
		return response{}, perr.Wrapf(err, perr.ErrorCodeUnknown, "recognition new request failed")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := c.now()
	resp, err := c.http.Do(req)
	lat := c.now().Sub(start)
	if err != nil {
		c.log.Warn().Err(err).Str("method", method).Str("path", path).Dur("latency", lat).Msg("recognition transport error")
		return response{}, perr.Wrapf(err, perr.ErrorCodeUnavailable, "recognition %s %s failed", method, path)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Error().Err(cerr).Str("path", path).Msg("recognition close body failed")
		}
	}()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return response{}, perr.Wrapf(err, perr.ErrorCodeUnavailable, "recognition read %s failed", path)
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Int("bytes", len(b)).
		Dur("latency", lat).
		Msg("recognition http response")

	return response{status: resp.StatusCode, body: b}, nil
}
