// Package telegram connects the bot to the Telegram Bot API using long
// polling.
package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/tutorbot/internal/bot"
	"github.com/abhisek/tutorbot/internal/logger"
)

// Handler processes one incoming update.
type Handler interface {
	Handle(ctx context.Context, in bot.Incoming)
}

// Options tune a Client.
type Options struct {
	// Endpoint overrides the Bot API URL format ("https://host/bot%s/%s").
	Endpoint string

	// PollTimeout is the long-poll timeout in seconds. Defaults to 60.
	PollTimeout int

	// Workers bounds concurrently handled updates. Defaults to 8.
	Workers int
}

// Client is a Telegram transport. It implements bot.Messenger.
type Client struct {
	api  *tgbotapi.BotAPI
	opts Options
	log  *logger.Logger
}

var _ bot.Messenger = (*Client)(nil)

// New authenticates with token and returns a Client. log may be nil.
func New(token string, opts Options, log *logger.Logger) (*Client, error) {
	if opts.Endpoint == "" {
		opts.Endpoint = tgbotapi.APIEndpoint
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 60
	}
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	if log == nil {
		log = logger.Nop()
	}
	_ = tgbotapi.SetLogger(botLogger{log: log})

	api, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, opts.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}
	log.Info("telegram connected", "bot", api.Self.UserName)
	return &Client{api: api, opts: opts, log: log}, nil
}

// Username returns the bot's Telegram handle.
func (c *Client) Username() string {
	return c.api.Self.UserName
}

// Send delivers or edits a message.
func (c *Client) Send(ctx context.Context, r bot.Reply) (bot.MessageRef, error) {
	if err := ctx.Err(); err != nil {
		return bot.MessageRef{}, err
	}

	var msg tgbotapi.Chattable
	if r.Edit != nil {
		edit := tgbotapi.NewEditMessageText(r.Edit.ChatID, r.Edit.MessageID, r.Text)
		if r.Markdown {
			edit.ParseMode = tgbotapi.ModeMarkdown
		}
		if len(r.Buttons) > 0 {
			kb := keyboard(r.Buttons)
			edit.ReplyMarkup = &kb
		}
		msg = edit
	} else {
		m := tgbotapi.NewMessage(r.ChatID, r.Text)
		if r.Markdown {
			m.ParseMode = tgbotapi.ModeMarkdown
		}
		if len(r.Buttons) > 0 {
			m.ReplyMarkup = keyboard(r.Buttons)
		}
		msg = m
	}

	sent, err := c.api.Send(msg)
	if err != nil {
		return bot.MessageRef{}, fmt.Errorf("telegram send to %d: %w", r.ChatID, err)
	}
	ref := bot.MessageRef{ChatID: r.ChatID, MessageID: sent.MessageID}
	if sent.Chat != nil {
		ref.ChatID = sent.Chat.ID
	}
	return ref, nil
}

// Run polls for updates and hands them to h until ctx is cancelled.
// Updates are handled concurrently up to Options.Workers.
func (c *Client) Run(ctx context.Context, h Handler) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = c.opts.PollTimeout
	updates := c.api.GetUpdatesChan(u)
	defer c.api.StopReceivingUpdates()

	var g errgroup.Group
	g.SetLimit(c.opts.Workers)
	defer g.Wait()

	c.log.Info("polling for updates", "workers", c.opts.Workers)
	for {
		select {
		case <-ctx.Done():
			return nil
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			in, ok := c.incoming(upd)
			if !ok {
				continue
			}
			g.Go(func() error {
				h.Handle(ctx, in)
				return nil
			})
		}
	}
}

// incoming converts an update. Updates without a sender or with nothing
// actionable are dropped.
func (c *Client) incoming(upd tgbotapi.Update) (bot.Incoming, bool) {
	if cq := upd.CallbackQuery; cq != nil && cq.From != nil {
		if _, err := c.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
			c.log.Warn("callback ack failed", "user_id", cq.From.ID, "error", err)
		}
		return fromCallback(cq), true
	}
	if m := upd.Message; m != nil && m.From != nil && m.Chat != nil && m.Text != "" {
		return fromMessage(m), true
	}
	return bot.Incoming{}, false
}

func fromMessage(m *tgbotapi.Message) bot.Incoming {
	return bot.TextMessage(m.From.ID, m.Chat.ID, displayName(m.From), m.Text)
}

func fromCallback(cq *tgbotapi.CallbackQuery) bot.Incoming {
	in := bot.Incoming{
		UserID:   cq.From.ID,
		ChatID:   cq.From.ID,
		Name:     displayName(cq.From),
		Callback: cq.Data,
	}
	if cq.Message != nil && cq.Message.Chat != nil {
		in.ChatID = cq.Message.Chat.ID
		in.Message = &bot.MessageRef{ChatID: cq.Message.Chat.ID, MessageID: cq.Message.MessageID}
	}
	return in
}

func displayName(u *tgbotapi.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.UserName
	}
	return name
}

func keyboard(buttons []bot.Button) tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, b := range buttons {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

// botLogger routes the library's own log lines to zap at debug level.
type botLogger struct {
	log *logger.Logger
}

func (l botLogger) Println(v ...interface{}) {
	l.log.Debug(strings.TrimSpace(fmt.Sprintln(v...)), "component", "telegram-bot-api")
}

func (l botLogger) Printf(format string, v ...interface{}) {
	l.log.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "telegram-bot-api")
}
