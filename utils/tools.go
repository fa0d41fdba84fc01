package utils

import (
	"sort"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/twingatebot/models"
)

func Truncate(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes])
}

// DisplayName picks the best available name for a sender.
func DisplayName(u *tgbotapi.User) string {
	if u == nil {
		return models.DefaultSenderName
	}
	first := strings.TrimSpace(u.FirstName)
	last := strings.TrimSpace(u.LastName)
	username := strings.TrimSpace(u.UserName)
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	case last != "":
		return last
	case username != "":
		return "@" + username
	default:
		return models.DefaultSenderName
	}
}

// UpdateToModel converts a Bot API update. Messages without a chat are dropped,
// they cannot be answered.
func UpdateToModel(u tgbotapi.Update) models.Update {
	out := models.Update{UpdateID: u.UpdateID}
	if u.Message == nil || u.Message.Chat == nil {
		return out
	}
	out.Message = &models.Message{
		MessageID:  u.Message.MessageID,
		ChatID:     u.Message.Chat.ID,
		SenderName: DisplayName(u.Message.From),
		Text:       u.Message.Text,
		Date:       u.Message.Time(),
	}
	return out
}

// UpdatesToModel converts a batch and orders it by ascending update id.
func UpdatesToModel(updates []tgbotapi.Update) []models.Update {
	out := make([]models.Update, 0, len(updates))
	for _, u := range updates {
		out = append(out, UpdateToModel(u))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdateID < out[j].UpdateID })
	return out
}

// MessageToJournal stamps the entry with the message's own date, or the
// current time when the platform sent none.
func MessageToJournal(updateID int, msg *models.Message) *models.JournalEntry {
	const maxRunes = 200
	sentAt := msg.Date
	if sentAt.IsZero() {
		sentAt = time.Now()
	}
	return &models.JournalEntry{
		UpdateID:   updateID,
		ChatID:     msg.ChatID,
		FromName:   msg.SenderName,
		Text:       Truncate(msg.Text, maxRunes),
		ReceivedAt: sentAt,
	}
}
