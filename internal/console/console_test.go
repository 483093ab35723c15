package console

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/tutorbot/internal/bot"
)

type recordingHandler struct {
	mu  sync.Mutex
	got []bot.Incoming
}

func (h *recordingHandler) Handle(_ context.Context, in bot.Incoming) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.got = append(h.got, in)
}

func (h *recordingHandler) last() bot.Incoming {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.got[len(h.got)-1]
}

type recordingSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (s *recordingSender) Send(msg tea.Msg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func key(code rune) tea.Msg {
	return tea.KeyPressMsg{Code: code}
}

func TestMessengerQueuesUntilAttached(t *testing.T) {
	ctx := context.Background()
	m := NewMessenger()

	ref, err := m.Send(ctx, bot.Reply{ChatID: 7, Text: "first"})
	require.NoError(t, err)
	assert.Equal(t, 1, ref.MessageID)

	edited, err := m.Send(ctx, bot.Reply{ChatID: 7, Text: "edited", Edit: &ref})
	require.NoError(t, err)
	assert.Equal(t, ref, edited)

	out := &recordingSender{}
	m.Attach(out)
	require.Eventually(t, func() bool { return out.count() == 2 }, time.Second, 5*time.Millisecond)

	_, err = m.Send(ctx, bot.Reply{ChatID: 7, Text: "second"})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return out.count() == 3 }, time.Second, 5*time.Millisecond)

	out.mu.Lock()
	defer out.mu.Unlock()
	assert.Equal(t, "first", out.msgs[0].(replyMsg).Reply.Text)
	assert.Equal(t, "edited", out.msgs[1].(replyMsg).Reply.Text)
	assert.Equal(t, 2, out.msgs[2].(replyMsg).ID)
}

func TestMessengerRejectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMessenger().Send(ctx, bot.Reply{Text: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInitSendsStart(t *testing.T) {
	h := &recordingHandler{}
	m := newModel(context.Background(), h, Identity{UserID: 7, Name: "Ada"})
	assert.Equal(t, 1, m.busy)

	assert.Equal(t, handledMsg{}, m.greet()())
	assert.Equal(t, "start", h.last().Command)
	assert.Equal(t, int64(7), h.last().UserID)
}

func TestTypedMessageIsDispatched(t *testing.T) {
	h := &recordingHandler{}
	m := newModel(context.Background(), h, Identity{UserID: 7, Name: "Ada"})
	m.busy = 0

	m.input.SetValue("  lists are mutable  ")
	m, cmd := update(t, m, key(tea.KeyEnter))
	require.NotNil(t, cmd)
	assert.Equal(t, 1, m.busy)
	assert.Equal(t, "", m.input.Value())
	require.Len(t, m.transcript, 1)
	assert.True(t, m.transcript[0].fromUser)

	m, _ = update(t, m, cmd())
	assert.Zero(t, m.busy)
	assert.Equal(t, "lists are mutable", h.last().Text)

	m, cmd = update(t, m, key(tea.KeyEnter))
	assert.Nil(t, cmd, "empty input sends nothing")
}

func TestButtonsPressCallbackAndClearOnEdit(t *testing.T) {
	h := &recordingHandler{}
	m := newModel(context.Background(), h, Identity{UserID: 7, Name: "Ada"})

	m, _ = update(t, m, replyMsg{ID: 3, Reply: bot.Reply{
		ChatID: 7,
		Text:   "Take the assessment?",
		Buttons: []bot.Button{
			{Text: "Yes, let's start!", Data: bot.CallbackStartAssessment},
			{Text: "No, maybe later", Data: bot.CallbackDeclineAssessment},
		},
	}})
	require.False(t, m.buttons.Empty())

	m, _ = update(t, m, key(tea.KeyRight))
	assert.Equal(t, 1, m.buttons.Selected)

	m, cmd := update(t, m, key(tea.KeyEnter))
	require.NotNil(t, cmd)
	m, cmd = update(t, m, cmd())
	require.NotNil(t, cmd)
	assert.True(t, m.buttons.Empty())
	cmd()

	in := h.last()
	assert.Equal(t, bot.CallbackDeclineAssessment, in.Callback)
	require.NotNil(t, in.Message)
	assert.Equal(t, 3, in.Message.MessageID)

	m, _ = update(t, m, replyMsg{ID: 3, Reply: bot.Reply{
		ChatID: 7, Text: "Ok, you can start the assessment anytime.", Edit: &bot.MessageRef{ChatID: 7, MessageID: 3},
	}})
	require.Len(t, m.transcript, 2)
	assert.Equal(t, "Ok, you can start the assessment anytime.", m.transcript[0].text)
}

func TestEditWithoutButtonsClearsRow(t *testing.T) {
	m := newModel(context.Background(), &recordingHandler{}, Identity{UserID: 7, Name: "Ada"})
	m, _ = update(t, m, replyMsg{ID: 1, Reply: bot.Reply{Text: "Sure?", Buttons: []bot.Button{{Text: "Yes", Data: "unsubscribe"}}}})
	m, _ = update(t, m, replyMsg{ID: 1, Reply: bot.Reply{Text: "We are glad to have you!", Edit: &bot.MessageRef{MessageID: 1}}})
	assert.True(t, m.buttons.Empty())
	assert.Len(t, m.transcript, 1)
}

func TestRenderTextStripsMarkdown(t *testing.T) {
	out := renderText("🏆 Top\n```\nName  Score\n```\n*bold*", true)
	assert.NotContains(t, out, "```")
	assert.NotContains(t, out, "*")
	assert.Contains(t, out, "Name  Score")
}

func TestTailPadsAndTrims(t *testing.T) {
	assert.Equal(t, "b\nc", tail("a\nb\nc\n", 2))
	assert.Equal(t, 3, len(strings.Split(tail("a", 3), "\n")))
	assert.Equal(t, "", tail("a", 0))
}

func TestViewRendersTranscript(t *testing.T) {
	m := newModel(context.Background(), &recordingHandler{}, Identity{UserID: 7, Name: "Ada"})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = update(t, m, replyMsg{ID: 1, Reply: bot.Reply{Text: "Welcome back, Ada."}})

	out := m.render()
	assert.Contains(t, out, "Welcome back, Ada.")
	assert.Contains(t, out, "Python Tutor")
}
