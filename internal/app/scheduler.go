package app

import (
	"context"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

type SchedulerState string

const (
	SchedulerIdle    SchedulerState = "idle"
	SchedulerRunning SchedulerState = "running"
	SchedulerWaiting SchedulerState = "waiting"
	SchedulerStopped SchedulerState = "stopped"
)

// Scheduler drives recurring cleanup runs. It always runs once immediately;
// with a cron schedule configured it then re-arms after every run, computing
// the next trigger from the current time so that ticks missed while a run was
// in flight are skipped rather than queued. Runs never overlap.
type Scheduler struct {
	service  Service
	request  RunRequest
	schedule cron.Schedule
	clock    func() time.Time

	mu    sync.Mutex
	state SchedulerState
}

// NewScheduler parses expression as a standard 5-field cron string. An empty
// expression yields a one-shot scheduler that stops after the first run.
func NewScheduler(service Service, request RunRequest, expression string) (*Scheduler, error) {
	scheduler := &Scheduler{
		service: service,
		request: request,
		clock:   service.Clock,
		state:   SchedulerIdle,
	}
	if expression != "" {
		parsed, err := cron.ParseStandard(expression)
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("invalid cron schedule expression").
				WithCause(err)
		}
		scheduler.schedule = parsed
	}
	return scheduler, nil
}

// Start blocks until the scheduler stops. Cancellation is only observed
// between runs: a run already started always completes, so an interrupted
// process never leaves deletions half-applied mid-run.
func (s *Scheduler) Start(ctx context.Context) error {
	s.setState(SchedulerRunning)
	_, err := s.service.Run(context.WithoutCancel(ctx), s.request)
	if s.schedule == nil {
		s.setState(SchedulerStopped)
		return err
	}
	if err != nil {
		log.Error().Err(err).Msg("cleanup run failed, waiting for next tick")
	}
	for {
		next := s.schedule.Next(timeNow(s.clock))
		log.Info().Time("next_run", next).Msg("cleanup scheduled")
		s.setState(SchedulerWaiting)
		timer := time.NewTimer(next.Sub(timeNow(s.clock)))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.setState(SchedulerStopped)
			log.Info().Msg("scheduler stopped")
			return nil
		case <-timer.C:
		}
		s.setState(SchedulerRunning)
		if _, err := s.service.Run(context.WithoutCancel(ctx), s.request); err != nil {
			log.Error().Err(err).Msg("cleanup run failed, waiting for next tick")
		}
	}
}

func (s *Scheduler) State() SchedulerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scheduler) setState(state SchedulerState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}
