package ratelimit

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const DefaultSweepInterval = 5 * time.Minute

// Sweeper periodically removes expired entries so abandoned keys do not
// accumulate. It runs only while Run's context is alive.
type Sweeper struct {
	store    Store
	interval time.Duration
	log      zerolog.Logger
}

func NewSweeper(store Store, interval time.Duration, log zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{store: store, interval: interval, log: log}
}

// Run blocks until ctx is cancelled. Sweep errors are logged and the loop
// continues.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce performs a single maintenance pass.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	removed, err := s.store.Sweep(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("rate limit sweep failed")
		return
	}
	if removed > 0 {
		s.log.Debug().Int("removed", removed).Msg("rate limit entries swept")
	}
}
