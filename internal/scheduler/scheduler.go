// Package scheduler wires up the cron job that periodically announces
// upcoming interviews.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"hiretop/matching-service/internal/interview"
	"hiretop/matching-service/internal/lifecycle"
)

// EventInterviewUpcoming is published once per interview inside the horizon.
const EventInterviewUpcoming = "EVENT_INTERVIEW_UPCOMING"

// Scheduler wraps robfig/cron and manages the reminder sweep.
type Scheduler struct {
	cron    *cron.Cron
	lister  interview.UpcomingLister
	events  lifecycle.EventPublisher
	log     *zap.Logger
	spec    string
	horizon time.Duration
	now     func() time.Time
}

// New creates a Scheduler firing on spec and looking horizon ahead.
func New(lister interview.UpcomingLister, events lifecycle.EventPublisher, log *zap.Logger, spec string, horizon time.Duration) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cronLogger{log}))),
		lister:  lister,
		events:  events,
		log:     log,
		spec:    spec,
		horizon: horizon,
		now:     time.Now,
	}
}

// Start registers the job and starts the scheduler. Also runs one sweep
// immediately so reminders are not delayed by the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		if _, err := s.Sweep(ctx); err != nil {
			s.log.Error("reminder sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.log.Info("cron started", zap.String("spec", s.spec), zap.Duration("horizon", s.horizon))

	go func() {
		if _, err := s.Sweep(ctx); err != nil {
			s.log.Error("initial reminder sweep failed", zap.Error(err))
		}
	}()

	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("cron stopped")
}

// Sweep publishes one reminder per interview starting within the horizon and
// returns how many were published. Individual publish failures are logged
// and skipped.
func (s *Scheduler) Sweep(ctx context.Context) (int, error) {
	now := s.now()
	ivs, err := interview.Upcoming(ctx, s.lister, now, s.horizon)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, iv := range ivs {
		payload := map[string]string{
			"type":             EventInterviewUpcoming,
			"jobInterviewId":   iv.ID.String(),
			"jobApplicationId": iv.JobApplicationID.String(),
			"startedAt":        iv.StartedAt.UTC().Format(time.RFC3339),
			"endedAt":          iv.EndedAt.UTC().Format(time.RFC3339),
		}
		if err := s.events.Publish(ctx, EventInterviewUpcoming, payload); err != nil {
			s.log.Warn("publish reminder failed", zap.String("jobInterviewId", iv.ID.String()), zap.Error(err))
			continue
		}
		sent++
	}

	s.log.Info("reminder sweep complete", zap.Int("interviews", len(ivs)), zap.Int("published", sent))
	return sent, nil
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct{ log *zap.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Sugar().Infow(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
