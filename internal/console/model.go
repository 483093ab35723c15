package console

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/tutorbot/internal/bot"
	"github.com/abhisek/tutorbot/internal/ui/components"
	"github.com/abhisek/tutorbot/internal/ui/layout"
	"github.com/abhisek/tutorbot/internal/ui/theme"
)

// Handler processes one incoming update.
type Handler interface {
	Handle(ctx context.Context, in bot.Incoming)
}

// Identity is the local learner the console speaks for.
type Identity struct {
	UserID int64
	Name   string
}

// handledMsg reports that a dispatched update finished.
type handledMsg struct{}

// entry is one line of the transcript.
type entry struct {
	id       int // message id, zero for the learner's own lines
	fromUser bool
	text     string
	markdown bool
	buttons  []bot.Button
}

// Model is the chat screen.
type Model struct {
	ctx     context.Context
	handler Handler
	who     Identity

	transcript []entry
	input      components.TextInput
	buttons    components.ButtonRow
	buttonsFor int // message id owning the button row
	busy       int

	width  int
	height int
}

func newModel(ctx context.Context, h Handler, who Identity) Model {
	return Model{
		ctx:     ctx,
		handler: h,
		who:     who,
		input:   components.NewTextInput("Type a message or /help", 2000),
		busy:    1, // the greeting dispatched by Init
	}
}

// Init focuses the input and sends /start on the learner's behalf.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.input.Init(), m.greet())
}

func (m Model) greet() tea.Cmd {
	return m.dispatch(bot.TextMessage(m.who.UserID, m.who.UserID, m.who.Name, "/start"))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.SetWidth(msg.Width - 8)
		return m, nil

	case replyMsg:
		m.applyReply(msg)
		return m, nil

	case buttonPressedMsg:
		return m.pressButton(msg.index)

	case handledMsg:
		if m.busy > 0 {
			m.busy--
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "ctrl+c", "ctrl+d":
		return m, tea.Quit
	}

	if !m.buttons.Empty() && m.input.Value() == "" {
		switch key {
		case "left", "right", "tab", "shift+tab", "enter":
			var cmd tea.Cmd
			m.buttons, cmd = m.buttons.Update(msg)
			return m, cmd
		}
	}

	if key == "enter" {
		text := m.input.Value()
		if text == "" {
			return m, nil
		}
		m.input.Reset()
		if text == "/quit" || text == "/exit" {
			return m, tea.Quit
		}
		m.transcript = append(m.transcript, entry{fromUser: true, text: text})
		return m.dispatchText(text)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) dispatchText(text string) (tea.Model, tea.Cmd) {
	m.busy++
	return m, m.dispatch(bot.TextMessage(m.who.UserID, m.who.UserID, m.who.Name, text))
}

// dispatch runs the handler off the UI loop.
func (m Model) dispatch(in bot.Incoming) tea.Cmd {
	ctx, h := m.ctx, m.handler
	return func() tea.Msg {
		h.Handle(ctx, in)
		return handledMsg{}
	}
}

// press sends the callback of button i on the message owning the row.
func (m Model) press(i int) tea.Cmd {
	return func() tea.Msg { return buttonPressedMsg{index: i} }
}

type buttonPressedMsg struct{ index int }

func (m *Model) applyReply(msg replyMsg) {
	e := entry{id: msg.ID, text: msg.Reply.Text, markdown: msg.Reply.Markdown, buttons: msg.Reply.Buttons}

	replaced := false
	if msg.Reply.Edit != nil {
		for i := range m.transcript {
			if m.transcript[i].id == msg.ID {
				m.transcript[i] = e
				replaced = true
				break
			}
		}
	}
	if !replaced {
		m.transcript = append(m.transcript, e)
	}

	switch {
	case len(e.buttons) > 0:
		labels := make([]string, len(e.buttons))
		for i, b := range e.buttons {
			labels[i] = b.Text
		}
		m.buttons = components.NewButtonRow(labels, m.press)
		m.buttonsFor = e.id
	case e.id == m.buttonsFor:
		m.buttons = components.ButtonRow{}
		m.buttonsFor = 0
	}
}

// pressButton dispatches the callback for button i.
func (m Model) pressButton(i int) (tea.Model, tea.Cmd) {
	owner := m.entryByID(m.buttonsFor)
	if owner == nil || i < 0 || i >= len(owner.buttons) {
		return m, nil
	}
	in := bot.Incoming{
		UserID:   m.who.UserID,
		ChatID:   m.who.UserID,
		Name:     m.who.Name,
		Callback: owner.buttons[i].Data,
		Message:  &bot.MessageRef{ChatID: m.who.UserID, MessageID: owner.id},
	}
	m.transcript = append(m.transcript, entry{fromUser: true, text: "[" + owner.buttons[i].Text + "]"})
	m.buttons = components.ButtonRow{}
	m.buttonsFor = 0
	m.busy++
	return m, m.dispatch(in)
}

func (m Model) entryByID(id int) *entry {
	for i := range m.transcript {
		if m.transcript[i].id == id && !m.transcript[i].fromUser {
			return &m.transcript[i]
		}
	}
	return nil
}

func (m Model) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	if m.width == 0 || m.height == 0 {
		return v
	}
	v.SetContent(m.render())
	return v
}

func (m Model) render() string {
	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	status := fmt.Sprintf("%s (%d)", m.who.Name, m.who.UserID)
	if m.busy > 0 {
		status = "thinking…"
	}
	header := layout.RenderHeader("Python Tutor", status, m.width)

	hints := []layout.KeyHint{{Key: "Enter", Description: "Send"}}
	if !m.buttons.Empty() {
		hints = append(hints, layout.KeyHint{Key: "←→", Description: "Choose"})
	}
	hints = append(hints, layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
	footer := layout.RenderFooter(hints, m.width)

	bottom := m.input.View(m.width - 2)
	if !m.buttons.Empty() {
		bottom = m.buttons.View() + "\n" + bottom
	}

	room := m.height - lipgloss.Height(header) - lipgloss.Height(footer) - lipgloss.Height(bottom)
	body := tail(m.renderTranscript(m.width-2), room)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, bottom, footer)
}

func (m Model) renderTranscript(width int) string {
	wrap := lipgloss.NewStyle().Width(width)
	var b strings.Builder
	for _, e := range m.transcript {
		if e.fromUser {
			b.WriteString(theme.UserName.Render(m.who.Name+":") + " " + theme.Body.Render(e.text))
		} else {
			b.WriteString(theme.BotName.Render("tutor:") + " " + wrap.Render(renderText(e.text, e.markdown)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderText turns Telegram-style Markdown into styled terminal text.
func renderText(text string, markdown bool) string {
	if !markdown {
		return theme.Body.Render(text)
	}
	var out []string
	inCode := false
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "```") {
			inCode = !inCode
			continue
		}
		if inCode {
			out = append(out, theme.Code.Render(line))
			continue
		}
		out = append(out, theme.Body.Render(strings.ReplaceAll(line, "*", "")))
	}
	return strings.Join(out, "\n")
}

// tail keeps the last n lines of s, padding to exactly n.
func tail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	for len(lines) < n {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
