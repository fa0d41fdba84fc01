package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twingatebot/models"
	"github.com/twingatebot/router"
	"go.uber.org/zap"
)

type sent struct {
	chatID int64
	text   string
	format models.Formatting
}

type fakeSender struct {
	sent []sent
	err  error
}

func (f *fakeSender) SendMessage(_ context.Context, chatID int64, text string, format models.Formatting) (models.Ack, error) {
	f.sent = append(f.sent, sent{chatID: chatID, text: text, format: format})
	if f.err != nil {
		return models.Ack{ChatID: chatID}, f.err
	}
	return models.Ack{ChatID: chatID, MessageID: len(f.sent)}, nil
}

type fixedStatus struct {
	st  models.VerificationStatus
	err error
}

func (f fixedStatus) Status(context.Context, int64) (models.VerificationStatus, error) {
	return f.st, f.err
}

func newHandler(s Sender, status StatusSource, f models.Formatting) *BotHandler {
	return NewBotHandler(s, status, f, zap.NewNop().Sugar())
}

func TestBotHandler_Routes(t *testing.T) {
	tests := []struct {
		text     string
		contains string
	}{
		{text: "/start", contains: "Welcome to Twin Gate"},
		{text: "/verify", contains: "Three-Stage Verification Process"},
		{text: "/help", contains: "Help Information"},
		{text: "/status", contains: "Your Verification Status"},
		{text: "/verify now", contains: "I didn't understand that command"},
		{text: "", contains: "I didn't understand that command"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			s := &fakeSender{}
			r := router.New()
			newHandler(s, nil, models.FormatHTML).RegisterRoutes(r)

			out, err := r.Dispatch(context.Background(), models.Message{ChatID: 42, SenderName: "Ada", Text: tt.text})
			require.NoError(t, err)
			require.Len(t, s.sent, 1)
			require.Equal(t, int64(42), s.sent[0].chatID)
			require.Equal(t, models.FormatHTML, s.sent[0].format)
			require.Contains(t, s.sent[0].text, tt.contains)
			require.Equal(t, s.sent[0].text, out.Reply.Text)
		})
	}
}

func TestBotHandler_RegisterRoutes_Commands(t *testing.T) {
	r := router.New()
	newHandler(&fakeSender{}, nil, models.FormatHTML).RegisterRoutes(r)
	require.Equal(t, []string{"/help", "/start", "/status", "/verify"}, r.Commands())
}

func TestBotHandler_Start_ShowsStatusAndEscapesName(t *testing.T) {
	s := &fakeSender{}
	h := newHandler(s, fixedStatus{st: models.VerificationStatus{Level: 2, MaxLevel: 3, SBTTokens: 1, Reputation: 120}}, models.FormatHTML)

	out, err := h.Start(context.Background(), 1, "<Ada>")
	require.NoError(t, err)
	require.Contains(t, out.Text, "<b>Hello &lt;Ada&gt;!</b>")
	require.Contains(t, out.Text, "Verification Level: 2/3")
	require.Contains(t, out.Text, "SBT Tokens: 1")
	require.Contains(t, out.Text, "Reputation Score: 120")
}

func TestBotHandler_Status_FallsBackToNoProgress(t *testing.T) {
	s := &fakeSender{}
	h := newHandler(s, fixedStatus{err: errors.New("db down")}, models.FormatHTML)

	out, err := h.Status(context.Background(), 1, "Ada")
	require.NoError(t, err)
	require.Contains(t, out.Text, "Verification Level: 0/3")
}

func TestBotHandler_PlainFormatting(t *testing.T) {
	s := &fakeSender{}
	h := newHandler(s, nil, models.FormatPlain)

	out, err := h.Default(context.Background(), 1, "Tom & Jerry")
	require.NoError(t, err)
	require.Equal(t, models.FormatPlain, out.Formatting)
	require.NotContains(t, out.Text, "<b>")
	require.Contains(t, out.Text, "Hello Tom & Jerry!")
	require.Contains(t, out.Text, "Available Commands:")
}

func TestBotHandler_SendFailure(t *testing.T) {
	sendErr := errors.New("chat not found")
	s := &fakeSender{err: sendErr}
	h := newHandler(s, nil, models.FormatHTML)

	out, err := h.Help(context.Background(), 5, "Ada")
	require.ErrorIs(t, err, sendErr)
	require.Equal(t, int64(5), out.ChatID)
	require.NotEmpty(t, out.Text)
}

func TestBotHandler_Startup(t *testing.T) {
	s := &fakeSender{}
	h := newHandler(s, nil, models.FormatHTML)

	started := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	out, err := h.Startup(context.Background(), 589541800, "1.0.3", started)
	require.NoError(t, err)
	require.Equal(t, int64(589541800), s.sent[0].chatID)
	require.Contains(t, out.Text, "<b>Version:</b> 1.0.3")
	require.Contains(t, out.Text, "2026-10-18 09:30:00")
}
