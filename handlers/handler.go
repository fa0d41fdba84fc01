package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/twingatebot/models"
	"github.com/twingatebot/router"
	"go.uber.org/zap"
)

const (
	CommandStart  = "/start"
	CommandVerify = "/verify"
	CommandHelp   = "/help"
	CommandStatus = "/status"
)

// Sender delivers a reply; bot.Bot implements it.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, f models.Formatting) (models.Ack, error)
}

// StatusSource reports the verification progress of a chat. The state itself
// is kept outside this bot.
type StatusSource interface {
	Status(ctx context.Context, chatID int64) (models.VerificationStatus, error)
}

// NoProgress reports every chat as not verified yet.
type NoProgress struct{}

func (NoProgress) Status(context.Context, int64) (models.VerificationStatus, error) {
	return models.VerificationStatus{MaxLevel: 3}, nil
}

type BotHandler struct {
	sender Sender
	status StatusSource
	format models.Formatting
	logger *zap.SugaredLogger
}

func NewBotHandler(sender Sender, status StatusSource, format models.Formatting, logger *zap.SugaredLogger) *BotHandler {
	if status == nil {
		status = NoProgress{}
	}
	return &BotHandler{
		sender: sender,
		status: status,
		format: format,
		logger: logger.Named("handlers"),
	}
}

// RegisterRoutes binds the bot commands and the default reply.
func (h *BotHandler) RegisterRoutes(r *router.Router) {
	r.Register(CommandStart, h.Start)
	r.Register(CommandVerify, h.Verify)
	r.Register(CommandHelp, h.Help)
	r.Register(CommandStatus, h.Status)
	r.SetDefault(h.Default)
}

func (h *BotHandler) Start(ctx context.Context, chatID int64, sender string) (models.Outbound, error) {
	return h.reply(ctx, chatID, "start", replyData{Name: sender, Status: h.lookupStatus(ctx, chatID)})
}

func (h *BotHandler) Verify(ctx context.Context, chatID int64, sender string) (models.Outbound, error) {
	return h.reply(ctx, chatID, "verify", replyData{Name: sender})
}

func (h *BotHandler) Help(ctx context.Context, chatID int64, sender string) (models.Outbound, error) {
	return h.reply(ctx, chatID, "help", replyData{Name: sender})
}

func (h *BotHandler) Status(ctx context.Context, chatID int64, sender string) (models.Outbound, error) {
	return h.reply(ctx, chatID, "status", replyData{Name: sender, Status: h.lookupStatus(ctx, chatID)})
}

func (h *BotHandler) Default(ctx context.Context, chatID int64, sender string) (models.Outbound, error) {
	return h.reply(ctx, chatID, "default", replyData{Name: sender})
}

// Startup sends the operator notice that the bot is up.
func (h *BotHandler) Startup(ctx context.Context, chatID int64, version string, startedAt time.Time) (models.Outbound, error) {
	return h.reply(ctx, chatID, "startup", replyData{
		Version:   version,
		StartedAt: startedAt.Format("2006-01-02 15:04:05"),
	})
}

func (h *BotHandler) lookupStatus(ctx context.Context, chatID int64) models.VerificationStatus {
	st, err := h.status.Status(ctx, chatID)
	if err != nil {
		h.logger.Warnf("status for chat (%v) unavailable, showing no progress: %v", chatID, err)
		st, _ = NoProgress{}.Status(ctx, chatID)
	}
	return st
}

func (h *BotHandler) reply(ctx context.Context, chatID int64, tmpl string, data replyData) (models.Outbound, error) {
	text, err := render(tmpl, data, h.format)
	if err != nil {
		return models.Outbound{}, fmt.Errorf("render %v reply: %w", tmpl, err)
	}

	format := h.format
	if format != models.FormatHTML {
		format = models.FormatPlain
	}
	out := models.Outbound{ChatID: chatID, Text: text, Formatting: format}

	if _, err := h.sender.SendMessage(ctx, chatID, text, format); err != nil {
		return out, fmt.Errorf("send %v reply to chat (%v): %w", tmpl, chatID, err)
	}
	return out, nil
}
