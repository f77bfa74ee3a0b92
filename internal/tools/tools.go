// Package tools wraps the repositories with the operations the workflow
// graphs call. Tools own id generation, UTC timestamps, and lifecycle
// transition checks; graphs stay free of storage detail.
package tools

import "time"

// Option configures a tool set.
type Option func(*settings)

type settings struct {
	clock func() time.Time
}

func newSettings(opts []Option) settings {
	s := settings{clock: time.Now}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithClock overrides the time source, mainly for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *settings) {
		if clock != nil {
			s.clock = clock
		}
	}
}
