package telegram

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/hubibot/internal/bot"
)

// Logger defines the logging interface used by Poller.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Handler turns an inbound message into replies. *bot.Bot implements it.
type Handler interface {
	Handle(ctx context.Context, msg bot.Message) []bot.Reply
}

// Backoff bounds between failed getUpdates calls.
const (
	defaultMinBackoff = time.Second
	defaultMaxBackoff = 30 * time.Second

	// sendTimeout bounds delivery of the replies to one message.
	sendTimeout = 15 * time.Second
)

// Poller feeds Bot API updates to a Handler and delivers its replies.
//
// Updates are handled one at a time in arrival order, so replies to one
// chat never interleave.
type Poller struct {
	client  *Client
	handler Handler
	logger  Logger

	offset     int64
	minBackoff time.Duration
	maxBackoff time.Duration
}

// NewPoller creates a poller.
func NewPoller(client *Client, handler Handler) *Poller {
	return &Poller{
		client:     client,
		handler:    handler,
		logger:     noopLogger{},
		minBackoff: defaultMinBackoff,
		maxBackoff: defaultMaxBackoff,
	}
}

// SetLogger sets the logger for the poller.
func (p *Poller) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	p.logger = logger
}

// Run polls until ctx is cancelled. It returns an error only when the bot
// token is rejected at startup.
func (p *Poller) Run(ctx context.Context) error {
	me, err := p.client.GetMe(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil //nolint:nilerr // shutdown during startup
		}
		return fmt.Errorf("checking bot token: %w", err)
	}
	p.logger.Info("telegram polling started", "bot", me.Username)

	backoff := p.minBackoff
	for {
		if ctx.Err() != nil {
			p.logger.Info("telegram polling stopped")
			return nil
		}

		updates, err := p.client.GetUpdates(ctx, p.offset)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			wait := backoff
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
				wait = time.Duration(apiErr.RetryAfter) * time.Second
			}
			p.logger.Warn("telegram getUpdates failed", "error", err, "retry_in", wait)
			select {
			case <-ctx.Done():
			case <-time.After(wait):
			}
			backoff = min(backoff*2, p.maxBackoff)
			continue
		}
		backoff = p.minBackoff

		for _, u := range updates {
			if u.UpdateID >= p.offset {
				p.offset = u.UpdateID + 1
			}
			p.dispatch(ctx, u)
		}
	}
}

// dispatch handles one update.
func (p *Poller) dispatch(ctx context.Context, u Update) {
	m := u.Message
	if m == nil || m.From == nil || m.Text == "" {
		return
	}
	msg := bot.Message{
		ChatID:   m.Chat.ID,
		UserID:   m.From.ID,
		UserName: m.From.Username,
		Text:     m.Text,
	}
	if msg.UserName == "" {
		msg.UserName = m.From.FirstName
	}

	replies := p.handler.Handle(ctx, msg)

	// Replies still go out when the command itself shut the process down.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
	defer cancel()
	for _, r := range replies {
		if err := p.send(sendCtx, msg.ChatID, r); err != nil {
			p.logger.Error("telegram send failed", "chat_id", msg.ChatID, "error", err)
			return
		}
	}
}

// send delivers one reply, splitting long text and retrying Markdown
// replies as plain text when the API rejects the formatting.
func (p *Poller) send(ctx context.Context, chatID int64, r bot.Reply) error {
	if r.Text == "" {
		return nil
	}
	mode := ParseModeNone
	if r.Markdown {
		mode = ParseModeMarkdown
	}
	for _, chunk := range splitText(r.Text, MaxMessageLength) {
		err := p.client.SendMessage(ctx, chatID, chunk, mode)
		var apiErr *APIError
		if err != nil && mode == ParseModeMarkdown && errors.As(err, &apiErr) && apiErr.Code == 400 {
			p.logger.Warn("markdown rejected, resending as plain text", "chat_id", chatID, "error", err)
			err = p.client.SendMessage(ctx, chatID, chunk, ParseModeNone)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
