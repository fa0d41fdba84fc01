package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/twingatebot/models"
	"github.com/twingatebot/router"
	"go.uber.org/zap"
)

func Logging(logger *zap.SugaredLogger) router.Middleware {
	return func(next router.Handler) router.Handler {
		return func(ctx context.Context, chatID int64, sender string) (models.Outbound, error) {
			start := time.Now()
			cmd := router.CommandFromContext(ctx)
			logger.Debugf("[%v] incoming from chat (%d), sender (%v)", cmd, chatID, sender)

			out, err := next(ctx, chatID, sender)

			if err != nil {
				logger.Warnf("[%v] chat (%d) failed after %v: %v", cmd, chatID, time.Since(start), err)
			} else {
				logger.Infof("[%v] chat (%d) answered in %v", cmd, chatID, time.Since(start))
			}
			return out, err
		}
	}
}

// Recover turns a handler panic into an error so one bad update cannot take
// the poll loop down.
func Recover(logger *zap.SugaredLogger) router.Middleware {
	return func(next router.Handler) router.Handler {
		return func(ctx context.Context, chatID int64, sender string) (out models.Outbound, err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Errorw("handler panic recovered",
						"command", router.CommandFromContext(ctx),
						"chat_id", chatID,
						"panic", r,
					)
					err = fmt.Errorf("handler %v panicked: %v", router.CommandFromContext(ctx), r)
				}
			}()
			return next(ctx, chatID, sender)
		}
	}
}
