package graphs

import (
	"context"
	"fmt"
	"time"

	"github.com/emberfocus/ember/internal/logging"
)

// step is one named stage of a pipeline. A returned error is recorded on
// the state and the pipeline keeps going; only context cancellation
// stops a run.
type step struct {
	name string
	run  func(ctx context.Context, st *State) error
}

// runPipeline executes the steps in order, accumulating soft failures on
// the envelope.
func runPipeline(ctx context.Context, logger *logging.Logger, st *State, steps []step) error {
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("graphs: %s pipeline cancelled: %w", st.Mode, err)
		}
		if err := s.run(ctx, st); err != nil {
			st.AddError(fmt.Sprintf("%s: %v", s.name, err))
			logger.Printf("graphs: %s step %s failed: %v", st.Mode, s.name, err)
		}
	}
	return nil
}

// Option configures a graph.
type Option func(*settings)

type settings struct {
	clock  func() time.Time
	logger *logging.Logger
}

func newSettings(opts []Option) settings {
	s := settings{clock: time.Now}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithClock injects a deterministic clock (primarily for tests).
func WithClock(clock func() time.Time) Option {
	return func(s *settings) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger attaches a file logger. Nil loggers are safe.
func WithLogger(logger *logging.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}
