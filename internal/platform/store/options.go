package store

import (
	"errors"

	"facegate/internal/platform/logger"
)

// Option adjusts a Store before any backend is dialed
type Option func(*Store) error

// WithLogger sends store and query logs to log, tagged component=store
func WithLogger(log logger.Logger) Option {
	return func(s *Store) error {
		s.Log = log.With().Str("component", "store").Logger()
		return nil
	}
}

// WithPG installs a runner that is already open. Open then skips dialing postgres
func WithPG(r TxRunner) Option {
	return func(s *Store) error {
		if r == nil {
			return errors.New("store: nil pg runner")
		}
		s.PG = r
		return nil
	}
}
