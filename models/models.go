package models

import (
	"time"

	tgmodels "github.com/go-telegram/bot/models"
)

// DefaultSenderName is used when the platform does not tell who wrote a message.
const DefaultSenderName = "User"

// Update is one inbound event. Message is nil for updates that carry no message
// (edits, callbacks, membership changes and so on).
type Update struct {
	UpdateID int
	Message  *Message
}

type Message struct {
	MessageID  int
	ChatID     int64
	SenderName string
	Text       string
	Date       time.Time
}

// Formatting selects the markup mode of an outbound message.
type Formatting int

const (
	FormatPlain Formatting = iota
	FormatHTML
	FormatMarkdown
	FormatMarkdownV2
)

// ParseMode returns the Bot API parse_mode value, empty for plain text.
func (f Formatting) ParseMode() tgmodels.ParseMode {
	switch f {
	case FormatHTML:
		return tgmodels.ParseModeHTML
	case FormatMarkdown:
		return tgmodels.ParseModeMarkdownV1
	case FormatMarkdownV2:
		return tgmodels.ParseModeMarkdown
	default:
		return ""
	}
}

func (f Formatting) String() string {
	if f == FormatPlain {
		return "plain"
	}
	return string(f.ParseMode())
}

// ParseFormatting maps a parse_mode name to a Formatting. The empty string and
// "plain" select plain text.
func ParseFormatting(s string) (Formatting, bool) {
	switch tgmodels.ParseMode(s) {
	case "", "plain":
		return FormatPlain, true
	case tgmodels.ParseModeHTML:
		return FormatHTML, true
	case tgmodels.ParseModeMarkdownV1:
		return FormatMarkdown, true
	case tgmodels.ParseModeMarkdown:
		return FormatMarkdownV2, true
	}
	return FormatPlain, false
}

// Outbound is a reply produced by a handler.
type Outbound struct {
	ChatID     int64
	Text       string
	Formatting Formatting
}

// Ack confirms a delivered message.
type Ack struct {
	MessageID int
	ChatID    int64
}

// VerificationStatus is the verification progress of a chat.
type VerificationStatus struct {
	Level      int
	MaxLevel   int
	SBTTokens  int
	Reputation int
}

// JournalEntry is the stored form of a dispatched inbound message.
type JournalEntry struct {
	UpdateID   int       `json:"update_id"`
	ChatID     int64     `json:"chat_id"`
	FromName   string    `json:"from_name"`
	Text       string    `json:"text"`
	ReceivedAt time.Time `json:"received_at"`
}
