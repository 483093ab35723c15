// Package grader asks an LLM to judge learner answers and to reply to
// free-form questions.
package grader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/tutorbot/internal/llm"
	"github.com/abhisek/tutorbot/internal/logger"
	"github.com/abhisek/tutorbot/internal/metrics"
)

// LLM call purposes, stored with each request event.
const (
	PurposeGradeAssessment = "grade-assessment"
	PurposeGradeTask       = "grade-task"
	PurposeAsk             = "ask"
)

// ErrUnparseable reports model output that is neither a verdict object nor
// a bare 0/1.
var ErrUnparseable = errors.New("unparseable verdict")

// Verdict is the outcome of grading one answer.
type Verdict int

const (
	VerdictIncorrect Verdict = 0
	VerdictCorrect   Verdict = 1
	// VerdictUngraded means no judgement could be obtained. Callers must not
	// score or log the answer.
	VerdictUngraded Verdict = 2
)

func (v Verdict) String() string {
	switch v {
	case VerdictCorrect:
		return "correct"
	case VerdictIncorrect:
		return "incorrect"
	}
	return "ungraded"
}

// Graded reports whether v is a real judgement.
func (v Verdict) Graded() bool {
	return v == VerdictCorrect || v == VerdictIncorrect
}

// Grader judges answers through an llm.Provider.
type Grader struct {
	provider llm.Provider
	config   Config
	log      *logger.Logger
	metrics  *metrics.Metrics
}

// New creates a Grader. log and m may be nil.
func New(provider llm.Provider, cfg Config, log *logger.Logger, m *metrics.Metrics) *Grader {
	if log == nil {
		log = logger.Nop()
	}
	return &Grader{provider: provider, config: cfg, log: log, metrics: m}
}

// Grade judges answer to question. The purpose label is taken from ctx
// (see llm.WithPurpose) and defaults to grade-task. On timeout, provider
// failure or unparseable output it returns VerdictUngraded with the cause.
func (g *Grader) Grade(ctx context.Context, question, answer string) (Verdict, error) {
	if llm.PurposeFrom(ctx) == "unknown" {
		ctx = llm.WithPurpose(ctx, PurposeGradeTask)
	}
	purpose := llm.PurposeFrom(ctx)

	if g.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	v, err := g.grade(ctx, question, answer)
	g.metrics.AnswerGraded(purpose, v.String(), time.Since(start))
	if err != nil {
		g.log.Warn("answer left ungraded", "purpose", purpose, "error", err)
	}
	return v, err
}

func (g *Grader) grade(ctx context.Context, question, answer string) (Verdict, error) {
	req := llm.UserRequest(gradeSystemPrompt, gradeMessage(question, answer))
	req.Schema = VerdictSchema
	req.MaxTokens = g.config.MaxTokens

	var raw string
	resp, err := g.provider.Generate(ctx, req)
	switch {
	case err == nil:
		raw = resp.Text()
	default:
		// A reply that failed the schema may still be a bare 0/1.
		var inv *llm.ErrInvalidResponse
		if !errors.As(err, &inv) || len(inv.Content) == 0 {
			return VerdictUngraded, fmt.Errorf("grade answer: %w", err)
		}
		raw = strings.TrimSpace(string(inv.Content))
	}

	return ParseVerdict(raw)
}

// ParseVerdict reads {"verdict":0|1} or a bare "0"/"1", optionally followed
// by a period.
func ParseVerdict(raw string) (Verdict, error) {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "{") {
		var out struct {
			Verdict *int `json:"verdict"`
		}
		if err := json.Unmarshal([]byte(s), &out); err == nil && out.Verdict != nil {
			switch *out.Verdict {
			case 0:
				return VerdictIncorrect, nil
			case 1:
				return VerdictCorrect, nil
			}
		}
		return VerdictUngraded, fmt.Errorf("%w: %q", ErrUnparseable, truncate(s, 80))
	}

	s = strings.Trim(s, `"`)
	s = strings.TrimSuffix(strings.TrimSpace(s), ".")
	switch s {
	case "1":
		return VerdictCorrect, nil
	case "0":
		return VerdictIncorrect, nil
	}
	return VerdictUngraded, fmt.Errorf("%w: %q", ErrUnparseable, truncate(raw, 80))
}

// Ask answers a free-form question.
func (g *Grader) Ask(ctx context.Context, question string) (string, error) {
	ctx = llm.WithPurpose(ctx, PurposeAsk)
	if g.config.AskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.AskTimeout)
		defer cancel()
	}

	req := llm.UserRequest(askSystemPrompt, question)
	req.MaxTokens = g.config.AskMaxTokens
	req.Temperature = g.config.AskTemperature

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("ask: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("ask: empty reply")
	}
	return text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
