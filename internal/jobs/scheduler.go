// Package jobs runs periodic maintenance tasks on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"anoa.com/studentmanager/pkg/apperror"
	"github.com/robfig/cron/v3"
)

type Job interface {
	Name() string
	// Schedule is a standard five-field cron expression. An empty schedule
	// registers the job for on-demand runs only.
	Schedule() string
	Run(ctx context.Context) error
}

type Scheduler struct {
	cron   *cron.Cron
	jobs   []Job
	logger *slog.Logger
}

func NewScheduler(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: logger,
	}
}

// Register adds a job and schedules it when it has a schedule.
func (s *Scheduler) Register(job Job) error {
	schedule := job.Schedule()
	if schedule == "" {
		s.jobs = append(s.jobs, job)
		s.logger.Info("job registered for on-demand runs", "job", job.Name())
		return nil
	}

	if _, err := s.cron.AddFunc(schedule, func() { s.run(context.Background(), job) }); err != nil {
		return fmt.Errorf("schedule %s: %w", job.Name(), err)
	}
	s.jobs = append(s.jobs, job)
	s.logger.Info("job scheduled", "job", job.Name(), "schedule", schedule)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.jobs))
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// RunByName runs a registered job immediately. An unknown name wraps apperror.ErrNotFound.
func (s *Scheduler) RunByName(ctx context.Context, name string) error {
	for _, job := range s.jobs {
		if job.Name() == name {
			return s.run(ctx, job)
		}
	}
	return apperror.New(http.StatusNotFound, fmt.Sprintf("job %q is not registered", name), apperror.ErrNotFound)
}

func (s *Scheduler) run(ctx context.Context, job Job) error {
	s.logger.Info("job started", "job", job.Name())
	if err := job.Run(ctx); err != nil {
		s.logger.Error("job failed", "job", job.Name(), "error", err)
		return err
	}
	s.logger.Info("job completed", "job", job.Name())
	return nil
}
