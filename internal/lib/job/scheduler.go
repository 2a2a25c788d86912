package job

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler enqueues tasks on cron specs.
type Scheduler struct {
	cron   *cron.Cron
	loc    *time.Location
	logger *zerolog.Logger
}

func newScheduler(loc *time.Location, logger *zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cron.PrintfLogger(logger))),
		),
		loc:    loc,
		logger: logger,
	}
}

// Schedule enqueues the task returned by build every time spec fires.
// build receives the firing time in the scheduler's timezone.
func (j *JobService) Schedule(spec, timezone string, build func(now time.Time) (*asynq.Task, error)) error {
	if j.scheduler == nil {
		loc := time.UTC
		if timezone != "" {
			var err error
			if loc, err = time.LoadLocation(timezone); err != nil {
				return fmt.Errorf("scheduler timezone %q: %w", timezone, err)
			}
		}
		j.scheduler = newScheduler(loc, j.logger)
	}

	s := j.scheduler
	_, err := s.cron.AddFunc(spec, func() {
		task, err := build(time.Now().In(s.loc))
		if err != nil {
			s.logger.Error().Err(err).Str("spec", spec).Msg("failed to build scheduled task")
			return
		}
		if err := j.Enqueue(context.Background(), task); err != nil {
			s.logger.Error().Err(err).Str("type", task.Type()).Msg("failed to enqueue scheduled task")
			return
		}
		s.logger.Info().Str("type", task.Type()).Msg("scheduled task enqueued")
	})
	if err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.logger.Info().Int("entries", len(s.cron.Entries())).Msg("starting scheduler")
	s.cron.Start()
}

// Stop waits for running entries to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Next reports the next firing time of every entry.
func (s *Scheduler) Next() []time.Time {
	entries := s.cron.Entries()
	out := make([]time.Time, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Next)
	}
	return out
}
