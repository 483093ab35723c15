package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/tutorbot/internal/assessment"
	"github.com/abhisek/tutorbot/internal/bot"
	"github.com/abhisek/tutorbot/internal/config"
	"github.com/abhisek/tutorbot/internal/dailytask"
	"github.com/abhisek/tutorbot/internal/grader"
	"github.com/abhisek/tutorbot/internal/llm"
	"github.com/abhisek/tutorbot/internal/logger"
	"github.com/abhisek/tutorbot/internal/metrics"
	"github.com/abhisek/tutorbot/internal/questionbank"
	"github.com/abhisek/tutorbot/internal/store"
)

// services holds the services shared by the bot transports.
type services struct {
	cfg     config.Config
	log     *logger.Logger
	store   *store.Store
	metrics *metrics.Metrics
	grader  *grader.Grader
	flow    *assessment.Flow
	tasks   *dailytask.Updater
}

// openServices opens the store, seeds the practice pools and builds the
// grading stack. logPath redirects logs to a file when set.
func openServices(cmd *cobra.Command, logPath string) (*services, error) {
	ctx := cmd.Context()
	st, cfg, err := openStore(cmd)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.LogMode, logPath)
	if err != nil {
		st.Close()
		return nil, err
	}

	if n, err := st.QuestionRepo().Seed(ctx, seedQuestions()); err != nil {
		st.Close()
		return nil, fmt.Errorf("seed questions: %w", err)
	} else if n > 0 {
		log.Info("seeded practice questions", "count", n)
	}

	provider, llmCfg, err := llm.NewProviderFromEnv(ctx, st.EventRepo(), log)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("LLM provider not configured: %w", err)
	}
	log.Info("grading provider ready", "provider", llmCfg.Provider, "model", llmCfg.Model())

	m := metrics.New()
	gcfg := grader.DefaultConfig()
	gcfg.Timeout = cfg.GradeTimeout
	g := grader.New(provider, gcfg, log, m)

	flow := assessment.New(assessment.Config{DefaultIntervalHours: cfg.DefaultIntervalHours}, g,
		st.UserRepo(), st.AnswerRepo(), log, m)
	tasks := dailytask.NewUpdater(st.UserRepo(), g, cfg.PointDeltas, nil, log)

	return &services{
		cfg:     cfg,
		log:     log,
		store:   st,
		metrics: m,
		grader:  g,
		flow:    flow,
		tasks:   tasks,
	}, nil
}

func (r *services) Close() {
	r.log.Sync()
	r.store.Close()
}

// newBot builds the bot core replying through out.
func (r *services) newBot(out bot.Messenger) *bot.Bot {
	return bot.New(bot.Config{Admins: r.cfg.Admins}, bot.Deps{
		Assessment: r.flow,
		Tasks:      r.tasks,
		Asker:      r.grader,
		Users:      r.store.UserRepo(),
		Questions:  r.store.QuestionRepo(),
	}, out, r.log)
}

// newScheduler builds the daily-task sweep delivering through n. A nil
// filter sweeps every learner.
func (r *services) newScheduler(n dailytask.Notifier, filter func(int64) bool) *dailytask.Scheduler {
	return dailytask.NewScheduler(dailytask.SchedulerConfig{
		Interval:  r.cfg.SweepInterval,
		SendDelay: r.cfg.SendDelay,
		Filter:    filter,
	}, r.store.UserRepo(), r.store.QuestionRepo(), n, r.log, r.metrics)
}

// serveMetrics exposes /metrics on addr until ctx is cancelled.
func (r *services) serveMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	r.log.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

func seedQuestions() []store.Question {
	seeds := questionbank.Seeds()
	out := make([]store.Question, len(seeds))
	for i, s := range seeds {
		out[i] = store.Question{Text: s.Text, Level: s.Level}
	}
	return out
}
