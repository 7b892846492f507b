package store

import (
	"fmt"

	"findtime/internal/platform/logger"
)

// Option mutates Store during Open
type Option func(*Store) error

// WithLogger sets the logger handed to the backend clients and tracers
func WithLogger(log logger.Logger) Option {
	return func(s *Store) error {
		s.Log = log
		return nil
	}
}

// WithPingAttempts bounds how often Open pings Postgres before giving up
func WithPingAttempts(n int) Option {
	return func(s *Store) error {
		if n < 1 {
			return fmt.Errorf("store: ping attempts must be positive, got %d", n)
		}
		s.pingAttempts = n
		return nil
	}
}
