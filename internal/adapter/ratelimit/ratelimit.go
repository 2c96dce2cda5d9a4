// Package ratelimit provides per-client request limiters.
package ratelimit

import (
	"errors"
	"time"
)

var ErrInvalidConfig = errors.New("invalid rate limit config")

// Config is the budget of Requests per Window granted to every key.
type Config struct {
	Requests int
	Window   time.Duration
}

func (c Config) validate() error {
	if c.Requests <= 0 {
		return errors.Join(ErrInvalidConfig, errors.New("requests must be positive"))
	}
	if c.Window <= 0 {
		return errors.Join(ErrInvalidConfig, errors.New("window must be positive"))
	}
	return nil
}
