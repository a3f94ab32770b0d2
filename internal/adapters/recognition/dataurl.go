package recognition

import (
	"encoding/base64"
	"strings"

	perr "facegate/internal/platform/errors"

	"github.com/gabriel-vasile/mimetype"
)

// EncodeDataURL turns raw frame bytes into a data URL with a sniffed image MIME type
func EncodeDataURL(frame []byte) (string, error) {
	if len(frame) == 0 {
		return "", perr.Devicef("empty frame")
	}
	mt := mimetype.Detect(frame)
	mime := mt.String()
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	if !strings.HasPrefix(mime, "image/") {
		return "", perr.Devicef("frame is %s, not an image", mime)
	}
	var b strings.Builder
	b.Grow(len("data:;base64,") + len(mime) + base64.StdEncoding.EncodedLen(len(frame)))
	b.WriteString("data:")
	b.WriteString(mime)
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(frame))
	return b.String(), nil
}
