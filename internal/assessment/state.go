package assessment

import (
	"time"

	"github.com/abhisek/tutorbot/internal/level"
)

// Phase is where a learner is in the placement conversation.
type Phase int

const (
	PhaseAwaitingConsent Phase = iota // Offer sent, waiting for start/decline
	PhaseInProgress                   // Answering battery questions
)

func (p Phase) String() string {
	if p == PhaseInProgress {
		return "in_progress"
	}
	return "awaiting_consent"
}

// Session is one learner's in-flight assessment. Sessions live only in
// memory; a restart drops them.
type Session struct {
	// ID correlates log lines for one attempt.
	ID string

	UserID int64
	Name   string
	Phase  Phase

	// Index is the battery position of the question being asked.
	Index int

	// Score is the sum of weights of correctly answered questions so far.
	Score int

	StartedAt time.Time
}

// Question is a battery question as presented to the learner.
type Question struct {
	Text   string
	Number int // 1-based
	Total  int
}

// BeginResult reports what /start did.
type BeginResult struct {
	// Existing is set when the learner is already subscribed; no session
	// was opened.
	Existing bool

	// Restarted is set when an earlier session was discarded.
	Restarted bool

	// BatterySize is the number of questions that will be asked.
	BatterySize int
}

// AnswerResult reports the outcome of one assessment answer.
type AnswerResult struct {
	Correct bool

	// Ungraded means the answer could not be judged. Nothing was recorded
	// and Next is the same question again.
	Ungraded bool

	// Next is the following question, nil when the battery is finished.
	Next *Question

	// Done is set once the learner has been created.
	Done  bool
	Score int
	Level level.Level
}
