// Package cron runs scheduled proactive posts. Each job carries a standard
// 5-field cron expression evaluated once per minute against wall-clock time.
package cron

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/adhocore/gronx"
	"github.com/google/uuid"

	"github.com/clawbridge/clawbridge/internal/config"
)

// Poster delivers a job's message into a named channel.
// Implemented by discord.Channel.
type Poster interface {
	PostToChannel(ctx context.Context, channelName, message string) (int, error)
}

// Scheduler ticks once per minute and fires every job whose expression is
// due for that minute. Job failures are logged and do not stop the loop.
type Scheduler struct {
	jobs   []config.CronJob
	poster Poster
	gron   *gronx.Gronx

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a scheduler for the given jobs. Expressions are assumed
// already validated by config.Validate.
func New(jobs []config.CronJob, poster Poster) *Scheduler {
	return &Scheduler{
		jobs:   jobs,
		poster: poster,
		gron:   gronx.New(),
	}
}

// Start launches the tick loop. No-op when there are no jobs.
func (s *Scheduler) Start(ctx context.Context) {
	if len(s.jobs) == 0 {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.run(ctx)
	slog.Info("cron scheduler started", "jobs", len(s.jobs))
}

// Stop cancels the loop and waits for an in-flight tick to finish.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	// Align to the next minute boundary so IsDue sees each minute once.
	now := time.Now()
	next := now.Truncate(time.Minute).Add(time.Minute)
	timer := time.NewTimer(next.Sub(now))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case tick := <-timer.C:
			s.fireDue(ctx, tick)
			now = time.Now()
			next = now.Truncate(time.Minute).Add(time.Minute)
			timer.Reset(next.Sub(now))
		}
	}
}

func (s *Scheduler) fireDue(ctx context.Context, now time.Time) {
	for _, job := range s.jobs {
		due, err := s.gron.IsDue(job.Schedule, now)
		if err != nil {
			slog.Error("cron expression check failed", "job", job.Name, "schedule", job.Schedule, "error", err)
			continue
		}
		if !due {
			continue
		}
		s.runJob(ctx, job)
	}
}

func (s *Scheduler) runJob(ctx context.Context, job config.CronJob) {
	runID := uuid.NewString()
	log := slog.With("job", job.Name, "channel", job.Channel, "run_id", runID)

	chunks, err := s.poster.PostToChannel(ctx, job.Channel, job.Message)
	if err != nil {
		log.Warn("cron post failed", "error", err)
		return
	}
	log.Info("cron post delivered", "chunks", chunks)
}
