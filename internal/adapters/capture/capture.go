// Package capture provides frame sources for kiosks without a native camera binding:
// a directory of still images, an IP camera snapshot URL, or fixed frames
package capture

import (
	"context"
	"strings"
	"sync"

	perr "facegate/internal/platform/errors"

	"github.com/gabriel-vasile/mimetype"
)

// Source opens a frame stream. Open may be called again after the stream is closed
type Source interface {
	Open(ctx context.Context) (*Stream, error)
}

// Stream hands out frames until closed
type Stream struct {
	mu     sync.Mutex
	next   func(ctx context.Context) ([]byte, error)
	done   func() error
	closed bool
}

func newStream(next func(context.Context) ([]byte, error), done func() error) *Stream {
	return &Stream{next: next, done: done}
}

// GrabFrame returns the next frame. Frames that do not sniff as images are refused
func (s *Stream) GrabFrame(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, perr.Devicef("capture stream closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeDevice, "grab frame")
	}
	b, err := s.next(ctx)
	if err != nil {
		return nil, err
	}
	if !isImage(b) {
		return nil, perr.Devicef("frame is %s, not an image", mimetype.Detect(b).String())
	}
	return b, nil
}

// Close releases the stream; closing twice is a no-op
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.done != nil {
		return s.done()
	}
	return nil
}

// FromSource picks a Source for a config string: http(s) URLs become snapshot
// sources, anything else is treated as a file or directory path
func FromSource(src string) (Source, error) {
	src = strings.TrimSpace(src)
	switch {
	case src == "":
		return nil, perr.InvalidArgf("capture source is empty")
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return NewSnapshot(src, nil), nil
	default:
		return NewDir(src), nil
	}
}

func isImage(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	return strings.HasPrefix(mimetype.Detect(b).String(), "image/")
}
