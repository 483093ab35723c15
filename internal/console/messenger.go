package console

import (
	"context"
	"sync"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/tutorbot/internal/bot"
)

// replyMsg carries a bot reply into the UI loop.
type replyMsg struct {
	ID    int
	Reply bot.Reply
}

// sender is the part of *tea.Program the messenger needs.
type sender interface {
	Send(msg tea.Msg)
}

// Messenger delivers bot replies to the terminal UI. Replies sent before
// the program is attached are queued.
type Messenger struct {
	mu     sync.Mutex
	out    sender
	queued []tea.Msg
	nextID int
}

var _ bot.Messenger = (*Messenger)(nil)

// NewMessenger creates an unattached Messenger.
func NewMessenger() *Messenger {
	return &Messenger{}
}

// Attach starts forwarding replies to out. Queued replies are flushed in
// order on a separate goroutine, since out may not be running yet.
func (m *Messenger) Attach(out sender) {
	go func() {
		for {
			m.mu.Lock()
			queued := m.queued
			m.queued = nil
			if len(queued) == 0 {
				m.out = out
				m.mu.Unlock()
				return
			}
			m.mu.Unlock()

			for _, msg := range queued {
				out.Send(msg)
			}
		}
	}()
}

// Send implements bot.Messenger. Edits keep the id of the edited message.
func (m *Messenger) Send(ctx context.Context, r bot.Reply) (bot.MessageRef, error) {
	if err := ctx.Err(); err != nil {
		return bot.MessageRef{}, err
	}

	m.mu.Lock()
	id := 0
	if r.Edit != nil {
		id = r.Edit.MessageID
	} else {
		m.nextID++
		id = m.nextID
	}
	msg := replyMsg{ID: id, Reply: r}
	out := m.out
	if out == nil {
		m.queued = append(m.queued, msg)
	}
	m.mu.Unlock()

	if out != nil {
		out.Send(msg)
	}
	return bot.MessageRef{ChatID: r.ChatID, MessageID: id}, nil
}
