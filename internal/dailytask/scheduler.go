// Package dailytask assigns periodic practice questions to learners and
// settles their answers into score and level changes.
package dailytask

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/tutorbot/internal/level"
	"github.com/abhisek/tutorbot/internal/logger"
	"github.com/abhisek/tutorbot/internal/metrics"
	"github.com/abhisek/tutorbot/internal/store"
)

// Notifier delivers an assigned task to a learner.
type Notifier interface {
	NotifyTask(ctx context.Context, userID int64, question string) error
}

// SchedulerConfig controls a Scheduler.
type SchedulerConfig struct {
	// Interval is the time between sweeps. Default: 1m.
	Interval time.Duration

	// SendDelay is the pause between deliveries within a sweep.
	SendDelay time.Duration

	// Filter, when set, limits sweeps to the users it accepts.
	Filter func(userID int64) bool

	// Pick chooses a question from a non-empty pool. Default: uniform.
	Pick func(pool []string) string

	// Now returns the current time. Default: time.Now.
	Now func() time.Time
}

// SweepReport summarizes one sweep.
type SweepReport struct {
	ID             string
	Checked        int
	Assigned       int
	NotDue         int
	Pending        int
	EmptyPool      int
	Raced          int
	Failed         int
	DeliveryFailed int
}

// Scheduler periodically assigns due learners a question from their tier.
type Scheduler struct {
	config    SchedulerConfig
	users     store.UserRepo
	questions store.QuestionRepo
	notifier  Notifier
	log       *logger.Logger
	metrics   *metrics.Metrics
}

// NewScheduler creates a Scheduler. log and m may be nil.
func NewScheduler(cfg SchedulerConfig, users store.UserRepo, questions store.QuestionRepo, n Notifier, log *logger.Logger, m *metrics.Metrics) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Pick == nil {
		cfg.Pick = func(pool []string) string { return pool[rand.IntN(len(pool))] }
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{config: cfg, users: users, questions: questions, notifier: n, log: log, metrics: m}
}

// Due reports whether a learner's interval has elapsed since the last task
// or assessment.
func Due(e store.ScheduleEntry, now time.Time) bool {
	return now.Sub(e.LastAssessment) >= time.Duration(e.TaskInterval)*time.Hour
}

// Run sweeps once at startup and then every Interval until ctx ends. A
// failed sweep is logged and the loop continues.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info("daily task scheduler started", "interval", s.config.Interval)
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		if _, err := s.Sweep(ctx, s.config.Now()); err != nil && ctx.Err() == nil {
			s.log.Error("daily task sweep failed", "error", err)
		}
		select {
		case <-ctx.Done():
			s.log.Info("daily task scheduler stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Sweep checks every learner once and assigns and delivers tasks to those
// who are due and have none pending.
func (s *Scheduler) Sweep(ctx context.Context, now time.Time) (SweepReport, error) {
	start := time.Now()
	report := SweepReport{ID: uuid.NewString()}
	log := s.log.With("sweep_id", report.ID)
	defer func() {
		s.metrics.ObserveSweep(time.Since(start))
	}()

	entries, err := s.users.ListSchedule(ctx)
	if err != nil {
		return report, fmt.Errorf("list schedule: %w", err)
	}

	pools := make(map[level.Level][]string)
	sent := 0
	for _, e := range entries {
		if s.config.Filter != nil && !s.config.Filter(e.UserID) {
			continue
		}
		report.Checked++

		if !Due(e, now) {
			report.NotDue++
			s.metrics.SweepSkip(metrics.SkipNotDue)
			continue
		}
		if e.CurrentQuestion != "" {
			report.Pending++
			s.metrics.SweepSkip(metrics.SkipPending)
			continue
		}

		pool, ok := pools[e.Level]
		if !ok {
			pool, err = s.questions.ListByLevel(ctx, e.Level)
			if err != nil {
				if ctx.Err() != nil {
					return report, ctx.Err()
				}
				report.Failed++
				s.metrics.SweepSkip(metrics.SkipFailed)
				log.Error("failed to load question pool", "level", e.Level, "user_id", e.UserID, "error", err)
				continue
			}
			pools[e.Level] = pool
		}
		if len(pool) == 0 {
			log.Warn("no questions available for level", "level", e.Level, "user_id", e.UserID)
			report.EmptyPool++
			s.metrics.SweepSkip(metrics.SkipEmptyPool)
			continue
		}

		question := s.config.Pick(pool)
		assigned, err := s.users.AssignTask(ctx, e.UserID, question, now)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			report.Failed++
			s.metrics.SweepSkip(metrics.SkipFailed)
			log.Error("failed to assign daily task", "user_id", e.UserID, "error", err)
			continue
		}
		if !assigned {
			report.Raced++
			s.metrics.SweepSkip(metrics.SkipRaced)
			continue
		}
		report.Assigned++
		s.metrics.TaskAssigned(e.Level.String())

		if sent > 0 && s.config.SendDelay > 0 {
			t := time.NewTimer(s.config.SendDelay)
			select {
			case <-ctx.Done():
				t.Stop()
				return report, ctx.Err()
			case <-t.C:
			}
		}
		sent++

		// The task stays assigned even if delivery fails.
		if err := s.notifier.NotifyTask(ctx, e.UserID, question); err != nil {
			report.DeliveryFailed++
			s.metrics.DeliveryFailed()
			log.Error("failed to deliver daily task", "user_id", e.UserID, "error", err)
			continue
		}
		log.Debug("daily task delivered", "user_id", e.UserID, "level", e.Level)
	}

	if report.Assigned > 0 || report.EmptyPool > 0 || report.Failed > 0 || report.DeliveryFailed > 0 {
		log.Info("daily task sweep",
			"checked", report.Checked, "assigned", report.Assigned,
			"not_due", report.NotDue, "pending", report.Pending,
			"empty_pool", report.EmptyPool, "raced", report.Raced, "failed", report.Failed,
			"delivery_failed", report.DeliveryFailed)
	}
	return report, nil
}
