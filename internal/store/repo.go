package store

import (
	"context"
	"time"

	"github.com/abhisek/tutorbot/internal/level"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit int       // max results (0 = unlimited)
	From  time.Time // timestamp >= From
	To    time.Time // timestamp <= To
}

// User is a subscribed learner.
type User struct {
	ID              int64
	Name            string
	Score           int
	Level           level.Level
	CurrentQuestion string // empty when no daily task is pending
	JoinTime        time.Time
	LastAssessment  time.Time
	TaskInterval    int // hours between daily tasks
	IsExpert        bool
}

// HasPendingTask reports whether a daily task is waiting for an answer.
func (u *User) HasPendingTask() bool {
	return u.CurrentQuestion != ""
}

// ScheduleEntry is the slice of a user the daily-task sweep needs.
type ScheduleEntry struct {
	UserID          int64
	Level           level.Level
	LastAssessment  time.Time
	TaskInterval    int
	CurrentQuestion string
}

// Question is a practice question in the bank.
type Question struct {
	ID    int
	Text  string
	Level level.Level
}

// Flow labels where an answer record came from.
type Flow string

const (
	FlowAssessment Flow = "assessment"
	FlowDailyTask  Flow = "daily_task"
)

// AnswerRecord is one judged answer. Records are append-only.
type AnswerRecord struct {
	ID        int
	UserID    int64
	Question  string
	Answer    string
	Correct   bool
	Flow      Flow
	Timestamp time.Time
}

// TaskSettlement carries the result of a graded daily task.
type TaskSettlement struct {
	UserID   int64
	Question string // the pending question that was graded
	Answer   string
	Correct  bool
	Score    int
	Level    level.Level
	At       time.Time
}

// UserRepo manages learner rows.
type UserRepo interface {
	// Create inserts a new user.
	Create(ctx context.Context, u *User) error

	// Get returns the user with id, or nil if none exists.
	Get(ctx context.Context, id int64) (*User, error)

	// ListSchedule returns every user's scheduling fields.
	ListSchedule(ctx context.Context) ([]ScheduleEntry, error)

	// AssignTask sets question as pending and stamps the last assessment
	// time, but only if the user has no pending question. Reports whether
	// the assignment happened.
	AssignTask(ctx context.Context, id int64, question string, at time.Time) (bool, error)

	// SettleTask applies a graded answer: it updates score, level and the
	// expert flag, clears the pending question, stamps the last assessment
	// time and appends the answer record, all in one transaction. Nothing
	// is written and false is returned if the pending question is no
	// longer s.Question.
	SettleTask(ctx context.Context, s TaskSettlement) (bool, error)

	// ClearTask drops the pending question without scoring. Reports whether
	// one was pending.
	ClearTask(ctx context.Context, id int64) (bool, error)

	// SetInterval changes the hours between daily tasks. Reports whether the
	// user exists.
	SetInterval(ctx context.Context, id int64, hours int) (bool, error)

	// Delete removes the user. Answer records are kept. Reports whether a
	// row was removed.
	Delete(ctx context.Context, id int64) (bool, error)

	// Top returns up to n users ordered by score, highest first.
	Top(ctx context.Context, n int) ([]User, error)
}

// QuestionRepo manages the practice question bank.
type QuestionRepo interface {
	// Seed inserts questions, ignoring texts that already exist. Returns the
	// number of new rows.
	Seed(ctx context.Context, qs []Question) (int, error)

	// Insert adds one question. Reports false if the text already exists.
	Insert(ctx context.Context, text string, lvl level.Level) (bool, error)

	// Delete removes a question by id. Returns ErrNotFound if absent.
	Delete(ctx context.Context, id int) error

	// List returns every question ordered by id.
	List(ctx context.Context) ([]Question, error)

	// ListByLevel returns the question texts of one tier.
	ListByLevel(ctx context.Context, lvl level.Level) ([]string, error)
}

// AnswerRepo provides append access to the answer log.
type AnswerRepo interface {
	// Append records a judged answer.
	Append(ctx context.Context, rec AnswerRecord) error

	// ListByUser returns a user's most recent records, newest first.
	ListByUser(ctx context.Context, userID int64, limit int) ([]AnswerRecord, error)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a stored LLM request event.
type LLMEvent struct {
	ID        int
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsage aggregates token usage for one purpose or model.
type LLMUsage struct {
	Purpose      string
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error)

	// GetLLMEvent returns one event, or nil if absent.
	GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error)

	// LLMUsageByPurpose aggregates usage per purpose.
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error)

	// LLMUsageByModel aggregates usage per model.
	LLMUsageByModel(ctx context.Context) ([]LLMUsage, error)
}
