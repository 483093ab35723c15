package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/abhisek/tutorbot/internal/level"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "tutorbot.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createUser(t *testing.T, s *Store, id int64, score int, last time.Time) {
	t.Helper()
	lvl := level.FromScore(score)
	err := s.UserRepo().Create(context.Background(), &User{
		ID:             id,
		Name:           "learner",
		Score:          score,
		Level:          lvl,
		JoinTime:       last,
		LastAssessment: last,
		TaskInterval:   24,
	})
	if err != nil {
		t.Fatalf("create user %d: %v", id, err)
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestQuestionSeedIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	repo := s.QuestionRepo()
	ctx := context.Background()

	qs := []Question{
		{Text: "What is Python used for?", Level: level.Beginner},
		{Text: "Explain closures.", Level: level.Intermediate},
	}
	n, err := repo.Seed(ctx, qs)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if n != 2 {
		t.Fatalf("first seed inserted %d, want 2", n)
	}

	n, err = repo.Seed(ctx, qs)
	if err != nil {
		t.Fatalf("reseed: %v", err)
	}
	if n != 0 {
		t.Fatalf("reseed inserted %d, want 0", n)
	}

	ok, err := repo.Insert(ctx, "What is Python used for?", level.Advanced)
	if err != nil {
		t.Fatalf("duplicate insert returned error: %v", err)
	}
	if ok {
		t.Fatal("duplicate insert reported a new row")
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d questions, want 2", len(all))
	}
	if all[0].Level != level.Beginner {
		t.Errorf("duplicate insert changed level to %q", all[0].Level)
	}
}

func TestQuestionListByLevelAndDelete(t *testing.T) {
	s := openTestStore(t)
	repo := s.QuestionRepo()
	ctx := context.Background()

	if _, err := repo.Seed(ctx, []Question{
		{Text: "b1", Level: level.Beginner},
		{Text: "a1", Level: level.Advanced},
		{Text: "b2", Level: level.Beginner},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := repo.ListByLevel(ctx, level.Beginner)
	if err != nil {
		t.Fatalf("list by level: %v", err)
	}
	if len(got) != 2 || got[0] != "b1" || got[1] != "b2" {
		t.Fatalf("beginner pool = %v", got)
	}

	none, err := repo.ListByLevel(ctx, level.Intermediate)
	if err != nil {
		t.Fatalf("list empty level: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("intermediate pool = %v, want empty", none)
	}

	all, _ := repo.List(ctx)
	if err := repo.Delete(ctx, all[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, all[0].ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestUserCreateGetDelete(t *testing.T) {
	s := openTestStore(t)
	repo := s.UserRepo()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	u, err := repo.Get(ctx, 42)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if u != nil {
		t.Fatal("expected nil for missing user")
	}

	createUser(t, s, 42, 15, now)

	u, err = repo.Get(ctx, 42)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u.Score != 15 || u.Level != level.Advanced || !u.IsExpert {
		t.Fatalf("unexpected user: %+v", u)
	}
	if !u.LastAssessment.Equal(now) {
		t.Errorf("last assessment = %v, want %v", u.LastAssessment, now)
	}
	if u.HasPendingTask() {
		t.Error("new user should have no pending task")
	}

	removed, err := repo.Delete(ctx, 42)
	if err != nil || !removed {
		t.Fatalf("delete = %v, %v", removed, err)
	}
	removed, err = repo.Delete(ctx, 42)
	if err != nil || removed {
		t.Fatalf("second delete = %v, %v", removed, err)
	}
}

func TestAssignTaskIsConditional(t *testing.T) {
	s := openTestStore(t)
	repo := s.UserRepo()
	ctx := context.Background()
	start := time.Now().UTC().Add(-48 * time.Hour).Truncate(time.Second)
	createUser(t, s, 7, 3, start)

	at := start.Add(48 * time.Hour)
	ok, err := repo.AssignTask(ctx, 7, "first", at)
	if err != nil || !ok {
		t.Fatalf("first assign = %v, %v", ok, err)
	}

	ok, err = repo.AssignTask(ctx, 7, "second", at.Add(time.Hour))
	if err != nil {
		t.Fatalf("second assign: %v", err)
	}
	if ok {
		t.Fatal("second assign should be refused while a task is pending")
	}

	u, _ := repo.Get(ctx, 7)
	if u.CurrentQuestion != "first" {
		t.Fatalf("pending = %q, want first", u.CurrentQuestion)
	}
	if !u.LastAssessment.Equal(at) {
		t.Errorf("last assessment = %v, want %v", u.LastAssessment, at)
	}
}

func TestSettleTaskWritesUserAndAnswerTogether(t *testing.T) {
	s := openTestStore(t)
	users := s.UserRepo()
	ctx := context.Background()
	start := time.Now().UTC().Add(-48 * time.Hour).Truncate(time.Second)
	createUser(t, s, 9, 12, start)

	if _, err := users.AssignTask(ctx, 9, "q", start); err != nil {
		t.Fatalf("assign: %v", err)
	}

	at := start.Add(time.Hour)
	ok, err := users.SettleTask(ctx, TaskSettlement{
		UserID: 9, Question: "q", Answer: "a", Correct: true,
		Score: 14, Level: level.Advanced, At: at,
	})
	if err != nil || !ok {
		t.Fatalf("settle = %v, %v", ok, err)
	}

	u, _ := users.Get(ctx, 9)
	if u.Score != 14 || u.Level != level.Advanced || !u.IsExpert || u.HasPendingTask() {
		t.Fatalf("unexpected user after settle: %+v", u)
	}

	recs, err := s.AnswerRepo().ListByUser(ctx, 9, 10)
	if err != nil {
		t.Fatalf("list answers: %v", err)
	}
	if len(recs) != 1 || recs[0].Flow != FlowDailyTask || !recs[0].Correct {
		t.Fatalf("answer log = %+v", recs)
	}

	// The task is gone, so a second settle is refused and logs nothing.
	ok, err = users.SettleTask(ctx, TaskSettlement{UserID: 9, Question: "q", Score: 99, Level: level.Advanced, At: at})
	if err != nil || ok {
		t.Fatalf("stale settle = %v, %v", ok, err)
	}
	recs, _ = s.AnswerRepo().ListByUser(ctx, 9, 0)
	if len(recs) != 1 {
		t.Fatalf("stale settle appended a record: %d", len(recs))
	}
}

func TestClearTaskAndInterval(t *testing.T) {
	s := openTestStore(t)
	users := s.UserRepo()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	createUser(t, s, 5, 2, now)

	ok, err := users.ClearTask(ctx, 5)
	if err != nil || ok {
		t.Fatalf("clear without task = %v, %v", ok, err)
	}

	users.AssignTask(ctx, 5, "q", now)
	ok, err = users.ClearTask(ctx, 5)
	if err != nil || !ok {
		t.Fatalf("clear = %v, %v", ok, err)
	}
	u, _ := users.Get(ctx, 5)
	if u.HasPendingTask() || u.Score != 2 {
		t.Fatalf("clear changed more than the task: %+v", u)
	}

	ok, err = users.SetInterval(ctx, 5, 6)
	if err != nil || !ok {
		t.Fatalf("set interval = %v, %v", ok, err)
	}
	ok, _ = users.SetInterval(ctx, 404, 6)
	if ok {
		t.Fatal("set interval on missing user reported success")
	}

	sched, err := users.ListSchedule(ctx)
	if err != nil {
		t.Fatalf("list schedule: %v", err)
	}
	if len(sched) != 1 || sched[0].TaskInterval != 6 {
		t.Fatalf("schedule = %+v", sched)
	}
}

func TestTopOrdersByScore(t *testing.T) {
	s := openTestStore(t)
	now := time.Now().UTC()
	createUser(t, s, 1, 3, now)
	createUser(t, s, 2, 20, now)
	createUser(t, s, 3, 9, now)

	top, err := s.UserRepo().Top(context.Background(), 2)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 2 || top[0].ID != 2 || top[1].ID != 3 {
		t.Fatalf("top = %+v", top)
	}
}

func TestLLMEventsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for _, purpose := range []string{"grade-task", "grade-task", "ask"} {
		err := repo.AppendLLMRequest(ctx, LLMRequestEventData{
			Provider: "mock", Model: "mock", Purpose: purpose,
			InputTokens: 10, OutputTokens: 2, LatencyMs: 100, Success: true,
		})
		if err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	events, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 2})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 2 || events[0].Purpose != "ask" {
		t.Fatalf("events = %+v", events)
	}

	e, err := repo.GetLLMEvent(ctx, events[0].ID)
	if err != nil || e == nil {
		t.Fatalf("get = %v, %v", e, err)
	}
	missing, err := repo.GetLLMEvent(ctx, 9999)
	if err != nil || missing != nil {
		t.Fatalf("get missing = %v, %v", missing, err)
	}

	usage, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if len(usage) != 2 || usage[1].Purpose != "grade-task" || usage[1].Calls != 2 || usage[1].InputTokens != 20 {
		t.Fatalf("usage = %+v", usage)
	}
}
