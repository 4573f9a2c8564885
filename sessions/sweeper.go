package sessions

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Sweeper periodically purges sessions idle for longer than keepAlive
type Sweeper struct {
	repo      Repo
	keepAlive time.Duration
	now       func() time.Time
	cron      *cron.Cron
}

// NewSweeper schedules Sweep with a five field cron expression or a
// descriptor such as "@every 5m".
func NewSweeper(repo Repo, keepAlive time.Duration, schedule string) (*Sweeper, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	s := &Sweeper{
		repo:      repo,
		keepAlive: keepAlive,
		now:       time.Now,
		cron:      cron.New(cron.WithParser(parser)),
	}
	if _, err := s.cron.AddFunc(schedule, func() { s.Sweep(context.Background()) }); err != nil {
		return nil, errors.Wrapf(err, "[NewSweeper] schedule %q", schedule)
	}
	return s, nil
}

// Sweep deletes expired sessions once
func (s *Sweeper) Sweep(ctx context.Context) int {
	cutoff := s.now().Add(-s.keepAlive)
	n, err := s.repo.DeleteExpired(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Time("cutoff", cutoff).Msg("Failed to sweep expired sessions")
		return 0
	}
	if n > 0 {
		log.Debug().Int("deleted", n).Time("cutoff", cutoff).Msg("Swept expired sessions")
	}
	return n
}

func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for a running sweep to finish
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}
