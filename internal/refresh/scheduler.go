package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs RefreshIfNeeded on a fixed interval.
type Scheduler struct {
	cron      *cron.Cron
	refresher *Refresher
	log       *slog.Logger
}

// NewScheduler creates a Scheduler checking the token every interval.
func NewScheduler(r *Refresher, interval time.Duration, log *slog.Logger) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("refresh interval must be positive, got %s", interval)
	}

	c := cron.New()

	s := &Scheduler{
		cron:      c,
		refresher: r,
		log:       log,
	}

	if _, err := c.AddFunc("@every "+interval.String(), s.runRefresh); err != nil {
		return nil, err
	}

	return s, nil
}

// Start begins running scheduled checks.
func (s *Scheduler) Start() {
	s.log.Info("token refresh scheduler started")
	s.cron.Start()
}

// Stop stops the scheduler. The returned context is done once a running
// check has finished.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("token refresh scheduler stopping")
	return s.cron.Stop()
}

// Entries returns the registered cron entries for inspection.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *Scheduler) runRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	ran, err := s.refresher.RefreshIfNeeded(ctx)
	switch {
	case errors.Is(err, ErrNoAPIKey):
		s.log.Debug("scheduled token refresh skipped", "reason", err)
	case err != nil:
		s.log.Error("scheduled token refresh failed", "error", err)
	case ran:
		s.log.Info("scheduled token refresh completed")
	}
}
