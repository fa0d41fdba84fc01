package service

import (
	"context"
	"time"

	"github.com/twingatebot/config"
	"github.com/twingatebot/models"
	"go.uber.org/zap"
)

// StartupNotifier renders and sends the operator notice; handlers.BotHandler
// implements it.
type StartupNotifier interface {
	Startup(ctx context.Context, chatID int64, version string, startedAt time.Time) (models.Outbound, error)
}

// NotifyStartup tells the admin chat that the bot is up. It is best effort: a
// failure is logged and reported, never fatal.
func NotifyStartup(ctx context.Context, cfg *config.Config, n StartupNotifier, startedAt time.Time, logger *zap.SugaredLogger) bool {
	logger = logger.Named("startup")
	if cfg.AdminChatID == 0 {
		logger.Debug("ADMIN_CHAT_ID not set, skipping startup notification")
		return false
	}
	if _, err := n.Startup(ctx, cfg.AdminChatID, cfg.Version, startedAt); err != nil {
		logger.Warnf("startup notification to chat (%v) failed: %v", cfg.AdminChatID, err)
		return false
	}
	logger.Infof("startup notification sent to chat (%v)", cfg.AdminChatID)
	return true
}
