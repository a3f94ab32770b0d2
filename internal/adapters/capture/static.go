package capture

import (
	"context"

	perr "facegate/internal/platform/errors"
)

// Static serves a fixed set of frames in order, then repeats
type Static struct {
	frames [][]byte
}

// NewStatic copies frames into a Static source
func NewStatic(frames ...[]byte) *Static {
	cp := make([][]byte, 0, len(frames))
	for _, f := range frames {
		cp = append(cp, append([]byte(nil), f...))
	}
	return &Static{frames: cp}
}

// Open returns a stream over the frames. No frames means no camera
func (s *Static) Open(context.Context) (*Stream, error) {
	if len(s.frames) == 0 {
		return nil, perr.Devicef("no frames configured")
	}
	i := 0
	next := func(context.Context) ([]byte, error) {
		f := s.frames[i%len(s.frames)]
		i++
		return append([]byte(nil), f...), nil
	}
	return newStream(next, nil), nil
}
