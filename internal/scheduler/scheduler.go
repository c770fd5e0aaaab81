package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const jobTimeout = 2 * time.Minute

type ImportExpirer interface {
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}

type BulletinArchiver interface {
	ArchiveLapsed(ctx context.Context, now time.Time) (int64, error)
}

// Scheduler runs periodic housekeeping: stale import jobs are expired and
// published bulletins past their validity are archived.
type Scheduler struct {
	cron      *cron.Cron
	spec      string
	imports   ImportExpirer
	bulletins BulletinArchiver
	log       zerolog.Logger
	now       func() time.Time
}

func New(spec string, imports ImportExpirer, bulletins BulletinArchiver, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		spec:      spec,
		imports:   imports,
		bulletins: bulletins,
		log:       log.With().Str("component", "scheduler").Logger(),
		now:       time.Now,
	}
}

// Start registers the housekeeping job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.Housekeeping); err != nil {
		return fmt.Errorf("schedule housekeeping %q: %w", s.spec, err)
	}
	s.log.Info().Str("spec", s.spec).Msg("starting scheduler")
	s.cron.Start()
	return nil
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.log.Info().Msg("stopping scheduler")
	<-s.cron.Stop().Done()
}

// Housekeeping runs both tasks once. A failing task does not skip the other.
func (s *Scheduler) Housekeeping() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	now := s.now()

	if expired, err := s.imports.ExpireStale(ctx, now); err != nil {
		s.log.Error().Err(err).Msg("expire stale import jobs")
	} else if expired > 0 {
		s.log.Info().Int64("count", expired).Msg("expired stale import jobs")
	}

	if archived, err := s.bulletins.ArchiveLapsed(ctx, now); err != nil {
		s.log.Error().Err(err).Msg("archive lapsed bulletins")
	} else if archived > 0 {
		s.log.Info().Int64("count", archived).Msg("archived lapsed bulletins")
	}
}
