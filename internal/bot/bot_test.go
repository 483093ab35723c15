package bot

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/tutorbot/internal/assessment"
	"github.com/abhisek/tutorbot/internal/dailytask"
	"github.com/abhisek/tutorbot/internal/grader"
	"github.com/abhisek/tutorbot/internal/level"
	"github.com/abhisek/tutorbot/internal/questionbank"
	"github.com/abhisek/tutorbot/internal/store"
)

const (
	learner = int64(100)
	admin   = int64(1)
)

var now = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeMessenger struct {
	mu      sync.Mutex
	replies []Reply
	nextID  int
	fail    bool
}

func (m *fakeMessenger) Send(_ context.Context, r Reply) (MessageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return MessageRef{}, errors.New("network down")
	}
	m.replies = append(m.replies, r)
	if r.Edit != nil {
		return *r.Edit, nil
	}
	m.nextID++
	return MessageRef{ChatID: r.ChatID, MessageID: m.nextID}, nil
}

func (m *fakeMessenger) texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.replies))
	for i, r := range m.replies {
		out[i] = r.Text
	}
	return out
}

func (m *fakeMessenger) last() Reply {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.replies[len(m.replies)-1]
}

func (m *fakeMessenger) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = nil
}

// queueGrader returns verdicts in order; an empty queue is ungraded.
type queueGrader struct {
	mu       sync.Mutex
	verdicts []grader.Verdict
}

func (g *queueGrader) Grade(context.Context, string, string) (grader.Verdict, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.verdicts) == 0 {
		return grader.VerdictUngraded, grader.ErrUnparseable
	}
	v := g.verdicts[0]
	g.verdicts = g.verdicts[1:]
	return v, nil
}

func (g *queueGrader) push(v ...grader.Verdict) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.verdicts = append(g.verdicts, v...)
}

type fakeAsker struct {
	answer string
	err    error
}

func (a fakeAsker) Ask(context.Context, string) (string, error) {
	return a.answer, a.err
}

type harness struct {
	bot    *Bot
	out    *fakeMessenger
	grader *queueGrader
	st     *store.Store
}

var battery = []questionbank.Weighted{
	{Text: "Q1", Weight: 1},
	{Text: "Q2", Weight: 2},
}

func newHarness(t *testing.T, asker Asker) *harness {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "tutorbot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	g := &queueGrader{}
	clock := func() time.Time { return now }
	flow := assessment.New(assessment.Config{Battery: battery, Now: clock}, g, st.UserRepo(), st.AnswerRepo(), nil, nil)
	tasks := dailytask.NewUpdater(st.UserRepo(), g, nil, clock, nil)
	if asker == nil {
		asker = fakeAsker{answer: "Use a list comprehension."}
	}

	out := &fakeMessenger{}
	b := New(Config{Admins: map[int64]bool{admin: true}}, Deps{
		Assessment: flow,
		Tasks:      tasks,
		Asker:      asker,
		Users:      st.UserRepo(),
		Questions:  st.QuestionRepo(),
	}, out, nil)
	return &harness{bot: b, out: out, grader: g, st: st}
}

func (h *harness) send(userID int64, text string) {
	h.bot.Handle(context.Background(), TextMessage(userID, userID, "Ada", text))
}

func (h *harness) press(userID int64, data string) {
	h.bot.Handle(context.Background(), Incoming{
		UserID: userID, ChatID: userID, Name: "Ada",
		Callback: data, Message: &MessageRef{ChatID: userID, MessageID: 99},
	})
}

func (h *harness) addLearner(t *testing.T, id int64, score int) {
	t.Helper()
	lvl := level.FromScore(score)
	require.NoError(t, h.st.UserRepo().Create(context.Background(), &store.User{
		ID: id, Name: "Grace", Score: score, Level: lvl,
		JoinTime: now, LastAssessment: now, TaskInterval: 24, IsExpert: lvl.IsExpert(),
	}))
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in, cmd, args string
	}{
		{"/start", "start", ""},
		{"/Ask@tutor_bot what is a tuple?", "ask", "what is a tuple?"},
		{"/insert_q What is x?\nbeginner", "insert_q", "What is x?\nbeginner"},
		{"hello", "", ""},
		{"/", "", ""},
	}
	for _, tt := range tests {
		cmd, args := ParseCommand(tt.in)
		assert.Equal(t, tt.cmd, cmd, tt.in)
		assert.Equal(t, tt.args, args, tt.in)
	}
}

func TestAssessmentConversation(t *testing.T) {
	h := newHarness(t, nil)

	h.send(learner, "/start")
	offer := h.out.last()
	assert.Contains(t, offer.Text, "Hello, Ada.")
	assert.Contains(t, offer.Text, "Our assessment has 2 questions.")
	require.Len(t, offer.Buttons, 2)
	assert.Equal(t, CallbackStartAssessment, offer.Buttons[0].Data)

	h.send(learner, "some text")
	assert.Equal(t, msgChooseOption, h.out.last().Text)

	h.out.reset()
	h.press(learner, CallbackStartAssessment)
	replies := h.out.replies
	require.Len(t, replies, 2)
	assert.Equal(t, msgAssessmentBegin, replies[0].Text)
	require.NotNil(t, replies[0].Edit)
	assert.Equal(t, 99, replies[0].Edit.MessageID)
	assert.Equal(t, "Question 1 of 2:\nQ1", replies[1].Text)

	h.grader.push(grader.VerdictCorrect, grader.VerdictCorrect)
	h.out.reset()
	h.send(learner, "a1")
	assert.Equal(t, []string{msgCorrect, "Question 2 of 2:\nQ2"}, h.out.texts())

	h.out.reset()
	h.send(learner, "a2")
	assert.Equal(t, []string{msgCorrect, "Assessment completed! Your level is: beginner"}, h.out.texts())

	u, err := h.st.UserRepo().Get(context.Background(), learner)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, 3, u.Score)

	h.send(learner, "/start")
	assert.Equal(t, "Welcome back, Ada.", h.out.last().Text)
}

func TestAssessmentUngradedAsksAgain(t *testing.T) {
	h := newHarness(t, nil)
	h.send(learner, "/start")
	h.press(learner, CallbackStartAssessment)

	h.out.reset()
	h.send(learner, "a1")
	assert.Equal(t, []string{msgUngraded}, h.out.texts())

	h.grader.push(grader.VerdictIncorrect)
	h.out.reset()
	h.send(learner, "a1 again")
	assert.Equal(t, []string{msgWrong, "Question 2 of 2:\nQ2"}, h.out.texts())
}

func TestDeclineAndCancel(t *testing.T) {
	h := newHarness(t, nil)

	h.send(learner, "/start")
	h.press(learner, CallbackDeclineAssessment)
	assert.Equal(t, msgAssessmentLater, h.out.last().Text)

	h.press(learner, CallbackStartAssessment)
	assert.Equal(t, msgOfferExpired, h.out.last().Text)

	h.send(learner, "/cancel")
	assert.Equal(t, msgNothingToCancel, h.out.last().Text)

	h.send(learner, "/start")
	h.press(learner, CallbackStartAssessment)
	h.send(learner, "/cancel")
	assert.Equal(t, msgAssessmentCancel, h.out.last().Text)

	h.send(learner, "late answer")
	assert.Equal(t, msgNoTask, h.out.last().Text)
}

func TestDailyTaskAnswerAndSkip(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.addLearner(t, learner, 12)

	require.NoError(t, h.bot.NotifyTask(ctx, learner, "What is a decorator?"))
	delivered := h.out.last()
	assert.Equal(t, learner, delivered.ChatID)
	assert.Contains(t, delivered.Text, "What is a decorator?")
	assert.Contains(t, delivered.Text, "/skip")

	h.send(learner, "an answer")
	assert.Equal(t, msgNoTask, h.out.last().Text)

	_, err := h.st.UserRepo().AssignTask(ctx, learner, "What is a decorator?", now)
	require.NoError(t, err)

	h.grader.push(grader.VerdictCorrect)
	h.send(learner, "a function that wraps another")
	assert.Equal(t, taskCorrect(2, 14)+"\nYour level is now advanced.", h.out.last().Text)

	_, err = h.st.UserRepo().AssignTask(ctx, learner, "Explain GIL.", now)
	require.NoError(t, err)

	h.grader.push(grader.VerdictIncorrect)
	h.send(learner, "no idea")
	assert.Equal(t, taskWrong(3, 11)+"\nYour level is now intermediate.", h.out.last().Text)

	h.send(learner, "/skip")
	assert.Equal(t, msgNoTaskToSkip, h.out.last().Text)

	_, err = h.st.UserRepo().AssignTask(ctx, learner, "Explain GIL.", now)
	require.NoError(t, err)
	h.send(learner, "/skip")
	assert.Equal(t, msgTaskSkipped, h.out.last().Text)
}

func TestDailyTaskUngradedKeepsTask(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.addLearner(t, learner, 3)
	_, err := h.st.UserRepo().AssignTask(ctx, learner, "What is a list?", now)
	require.NoError(t, err)

	h.send(learner, "an ordered collection")
	assert.Equal(t, msgUngraded, h.out.last().Text)

	u, err := h.st.UserRepo().Get(ctx, learner)
	require.NoError(t, err)
	assert.True(t, u.HasPendingTask())
	assert.Equal(t, 3, u.Score)
}

func TestLevelIntervalAndLeaderboard(t *testing.T) {
	h := newHarness(t, nil)

	h.send(learner, "/my_level")
	assert.Equal(t, msgNotSubscribed, h.out.last().Text)
	h.send(learner, "/top_learners")
	assert.Equal(t, msgNoLearners, h.out.last().Text)
	h.send(learner, "/task_interval 6")
	assert.Equal(t, msgNotSubscribed, h.out.last().Text)

	h.addLearner(t, learner, 7)
	h.addLearner(t, 200, 20)

	h.send(learner, "/my_level")
	assert.Equal(t, "Your level is intermediate with a score of 7.", h.out.last().Text)

	for _, bad := range []string{"", "0", "721", "six"} {
		h.send(learner, "/task_interval "+bad)
		assert.Equal(t, msgIntervalUsage, h.out.last().Text, bad)
	}
	h.send(learner, "/task_interval 720")
	assert.Equal(t, "You will get a task every 720 hours.", h.out.last().Text)

	h.send(learner, "/top_learners")
	board := h.out.last()
	assert.True(t, board.Markdown)
	lines := strings.Split(board.Text, "\n")
	require.GreaterOrEqual(t, len(lines), 6)
	assert.Equal(t, "🏆 Top Learners 🏆", lines[0])
	assert.Equal(t, fmt.Sprintf("%-10s %-12s %-5s", "Name", "Level", "Score"), lines[2])
	assert.Equal(t, strings.Repeat("-", 30), lines[3])
	assert.Contains(t, lines[4], "advanced")
	assert.Contains(t, lines[5], "intermediate")
}

func TestUnsubscribe(t *testing.T) {
	h := newHarness(t, nil)
	h.addLearner(t, learner, 5)

	h.send(learner, "/unsubscribe")
	confirm := h.out.last()
	require.Len(t, confirm.Buttons, 2)
	assert.Equal(t, CallbackUnsubscribe, confirm.Buttons[0].Data)

	h.press(learner, CallbackStay)
	assert.Equal(t, msgStay, h.out.last().Text)

	h.press(learner, CallbackUnsubscribe)
	assert.Equal(t, msgUnsubscribed, h.out.last().Text)

	u, err := h.st.UserRepo().Get(context.Background(), learner)
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestAsk(t *testing.T) {
	h := newHarness(t, nil)

	h.send(learner, "/ask")
	assert.Equal(t, msgAskUsage, h.out.last().Text)

	h.out.reset()
	h.send(learner, "/ask_cohere how do I flatten a list?")
	replies := h.out.replies
	require.Len(t, replies, 2)
	assert.Equal(t, msgThinking, replies[0].Text)
	require.NotNil(t, replies[1].Edit)
	assert.Equal(t, "Use a list comprehension.", replies[1].Text)

	failing := newHarness(t, fakeAsker{err: context.DeadlineExceeded})
	failing.send(learner, "/ask anything")
	assert.Equal(t, msgAskFailed, failing.out.last().Text)
}

func TestAdminCommands(t *testing.T) {
	h := newHarness(t, nil)

	h.send(learner, "/insert_q What is a set? beginner")
	assert.Equal(t, msgAdminOnly, h.out.last().Text)

	h.send(admin, "/get_questions")
	assert.Equal(t, msgNoQuestions, h.out.last().Text)

	h.send(admin, "/insert_q What is a set?")
	assert.Equal(t, msgInsertUsage, h.out.last().Text)
	h.send(admin, "/insert_q expert")
	assert.Equal(t, msgInsertUsage, h.out.last().Text)

	h.send(admin, "/insert_q What is a set? Beginner")
	assert.Equal(t, "Question added: 'What is a set?' with level: beginner", h.out.last().Text)
	h.send(admin, "/insert_q What is a set? advanced")
	assert.Equal(t, msgDuplicate, h.out.last().Text)

	h.send(admin, "/get_questions")
	assert.Equal(t, "1. What is a set? (beginner)", h.out.last().Text)

	h.send(admin, "/delete_q x")
	assert.Equal(t, msgDeleteUsage, h.out.last().Text)
	h.send(admin, "/delete_q 1")
	assert.Equal(t, "The question with id 1 is deleted.", h.out.last().Text)
	h.send(admin, "/delete_q 1")
	assert.Equal(t, "No question with id 1.", h.out.last().Text)
}

func TestHelpAndUnknown(t *testing.T) {
	h := newHarness(t, nil)

	h.send(learner, "/help")
	assert.NotContains(t, h.out.last().Text, "/insert_q")
	h.send(admin, "/help")
	assert.Contains(t, h.out.last().Text, "/insert_q")

	h.send(learner, "/dance")
	assert.Equal(t, msgUnknownCommand, h.out.last().Text)
}

func TestQuestionPagesSplitLongListings(t *testing.T) {
	var qs []store.Question
	for i := 1; i <= 100; i++ {
		qs = append(qs, store.Question{ID: i, Text: strings.Repeat("x", 90), Level: level.Beginner})
	}
	pages := questionPages(qs)
	require.Greater(t, len(pages), 1)
	total := 0
	for _, p := range pages {
		assert.LessOrEqual(t, len(p), maxMessageLen)
		total += strings.Count(p, "\n") + 1
	}
	assert.Equal(t, 100, total)
}

func TestKeyedMutexReleasesEntries(t *testing.T) {
	k := newKeyedMutex()
	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock(7)
			counter++
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
	assert.Zero(t, k.size())
}
