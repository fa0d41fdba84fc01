package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twingatebot/config"
	"github.com/twingatebot/models"
	"go.uber.org/zap"
)

type fakeNotifier struct {
	chatID  int64
	version string
	at      time.Time
	calls   int
	err     error
}

func (f *fakeNotifier) Startup(_ context.Context, chatID int64, version string, startedAt time.Time) (models.Outbound, error) {
	f.calls++
	f.chatID, f.version, f.at = chatID, version, startedAt
	return models.Outbound{ChatID: chatID}, f.err
}

func TestNotifyStartup(t *testing.T) {
	at := time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		adminID   int64
		err       error
		wantSent  bool
		wantCalls int
	}{
		{name: "sent", adminID: 589541800, wantSent: true, wantCalls: 1},
		{name: "no admin chat", adminID: 0, wantSent: false, wantCalls: 0},
		{name: "send fails quietly", adminID: 589541800, err: errors.New("network failure"), wantSent: false, wantCalls: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &fakeNotifier{err: tt.err}
			cfg := &config.Config{AdminChatID: tt.adminID, Version: "1.0.3"}

			got := NotifyStartup(context.Background(), cfg, n, at, zap.NewNop().Sugar())
			require.Equal(t, tt.wantSent, got)
			require.Equal(t, tt.wantCalls, n.calls)
			if tt.wantCalls > 0 {
				require.Equal(t, tt.adminID, n.chatID)
				require.Equal(t, "1.0.3", n.version)
				require.Equal(t, at, n.at)
			}
		})
	}
}
