// Package bind decodes and validates console request bodies
package bind

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	perr "facegate/internal/platform/errors"
	"facegate/internal/platform/logger"
	"facegate/internal/platform/validate"
)

var jsonMore = func(dec *json.Decoder) bool { return dec.More() } // seam

// JSONOptions controls parsing
type JSONOptions struct {
	MaxBytes        int64 // 0 means unlimited
	DisallowUnknown bool
	// AllowEmptyBody decodes an empty body as the zero value
	AllowEmptyBody bool
}

// DefaultJSONOptions: 1MB, strict fields, body required
var DefaultJSONOptions = JSONOptions{MaxBytes: 1 << 20, DisallowUnknown: true}

// ParseJSON decodes one JSON value into T and validates it.
// Decode failures are JSON errors, rule failures Validation errors naming the field
func ParseJSON[T any](r *http.Request, opts ...JSONOptions) (T, error) {
	var zero T
	o := DefaultJSONOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			logger.Get().Error().Err(err).Msg("failed to close request body")
		}
	}()

	var body io.Reader = r.Body
	if o.MaxBytes > 0 {
		body = io.LimitReader(body, o.MaxBytes)
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return zero, perr.Wrap(err, perr.ErrorCodeJSON, "read body")
	}

	var dst T
	if len(bytes.TrimSpace(raw)) == 0 {
		if !o.AllowEmptyBody {
			return zero, perr.JSONErrf("empty body")
		}
	} else {
		dec := json.NewDecoder(bytes.NewReader(raw))
		if o.DisallowUnknown {
			dec.DisallowUnknownFields()
		}
		if err := dec.Decode(&dst); err != nil {
			return zero, perr.JSONErrf("invalid JSON: %v", err)
		}
		if jsonMore(dec) {
			return zero, perr.JSONErrf("unexpected trailing data")
		}
	}

	if err := validate.Struct(dst); err != nil {
		if !perr.IsCode(err, perr.ErrorCodeValidation) {
			logger.Get().Error().Err(err).Msg("validator internal error")
			return zero, perr.JSONErrf("validation error")
		}
		return zero, err
	}
	return dst, nil
}
