// Package sweeper runs memory cleanup on a schedule.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"github.com/oceanbase/decaymem-go/pkg/core"
	"github.com/oceanbase/decaymem-go/pkg/observe"
)

// Cleaner is the part of core.Client the sweeper drives.
type Cleaner interface {
	Cleanup(ctx context.Context) (*core.CleanupResult, error)
}

// Config selects when cleanup runs. Exactly one of Schedule and Interval
// must be set.
type Config struct {
	// Schedule is a five-field cron expression, e.g. "*/15 * * * *".
	Schedule string

	// Interval runs cleanup at a fixed period.
	Interval time.Duration
}

// Sweeper calls Cleanup whenever its schedule fires.
type Sweeper struct {
	cleaner  Cleaner
	schedule string
	interval time.Duration
	obs      *observe.Observer
	now      func() time.Time
}

// New validates cfg and returns a Sweeper. A nil observer discards logs.
func New(cleaner Cleaner, cfg Config, obs *observe.Observer) (*Sweeper, error) {
	if cleaner == nil {
		return nil, errors.New("sweeper: cleaner is required")
	}
	switch {
	case cfg.Schedule != "" && cfg.Interval != 0:
		return nil, errors.New("sweeper: set either a schedule or an interval, not both")
	case cfg.Schedule != "":
		if !gronx.New().IsValid(cfg.Schedule) {
			return nil, fmt.Errorf("sweeper: invalid cron expression %q", cfg.Schedule)
		}
	case cfg.Interval < 0:
		return nil, fmt.Errorf("sweeper: negative interval %s", cfg.Interval)
	case cfg.Interval == 0:
		return nil, errors.New("sweeper: a schedule or an interval is required")
	}
	if obs == nil {
		obs = observe.Nop()
	}
	return &Sweeper{
		cleaner:  cleaner,
		schedule: cfg.Schedule,
		interval: cfg.Interval,
		obs:      obs,
		now:      time.Now,
	}, nil
}

// Next returns the first run time strictly after ref.
func (s *Sweeper) Next(ref time.Time) (time.Time, error) {
	if s.schedule == "" {
		return ref.Add(s.interval), nil
	}
	return gronx.NextTickAfter(s.schedule, ref, false)
}

// Run blocks until ctx is done, running one cleanup per tick. Cleanup
// errors are logged and do not stop the loop.
func (s *Sweeper) Run(ctx context.Context) error {
	for {
		next, err := s.Next(s.now())
		if err != nil {
			return fmt.Errorf("sweeper: next run: %w", err)
		}
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		s.sweep(ctx)
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	res, err := s.cleaner.Cleanup(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.obs.Log().Error().Err(err).Msg("scheduled cleanup failed")
		}
		return
	}
	s.obs.Log().Info().
		Int("scanned", res.Scanned).
		Int("deleted", res.Deleted).
		Int("failed", res.Failed).
		Msg("scheduled cleanup finished")
}
