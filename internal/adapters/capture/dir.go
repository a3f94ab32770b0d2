package capture

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	perr "facegate/internal/platform/errors"
	"facegate/internal/platform/logger"

	"github.com/gabriel-vasile/mimetype"
)

// Dir replays still images from a file or directory, cycling in name order.
// Non-image files are skipped when the stream opens
type Dir struct {
	path string
}

// NewDir creates a Dir source rooted at path
func NewDir(path string) *Dir { return &Dir{path: path} }

// Open scans the path and returns a stream over the image files found
func (d *Dir) Open(ctx context.Context) (*Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeDevice, "open capture dir")
	}
	files, err := d.scan()
	if err != nil {
		return nil, err
	}
	logger.Named("capture").Info().
		Str("path", d.path).
		Int("frames", len(files)).
		Msg("capture dir opened")

	i := 0
	next := func(context.Context) ([]byte, error) {
		f := files[i%len(files)]
		i++
		b, err := os.ReadFile(f)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeDevice, "read frame %s", filepath.Base(f))
		}
		return b, nil
	}
	return newStream(next, nil), nil
}

func (d *Dir) scan() ([]string, error) {
	fi, err := os.Stat(d.path)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeDevice, "capture source %s unavailable", d.path)
	}
	if !fi.IsDir() {
		if !imageFile(d.path) {
			return nil, perr.Devicef("capture source %s is not an image", d.path)
		}
		return []string{d.path}, nil
	}

	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeDevice, "list %s", d.path)
	}
	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		p := filepath.Join(d.path, e.Name())
		if imageFile(p) {
			files = append(files, p)
		}
	}
	if len(files) == 0 {
		return nil, perr.Devicef("no image frames in %s", d.path)
	}
	sort.Strings(files)
	return files, nil
}

func imageFile(p string) bool {
	mt, err := mimetype.DetectFile(p)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mt.String(), "image/")
}
