package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/twingatebot/config"
	"github.com/twingatebot/models"
	"github.com/twingatebot/utils"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const maxResponseBytes = 4 << 20

// Bot talks to the Bot API over HTTP. Every call is bounded by the request
// timeout; getUpdates gets the long-poll wait on top of it.
type Bot struct {
	http           *http.Client
	baseURL        string
	token          string
	requestTimeout time.Duration
	limiter        *rate.Limiter
	logger         *zap.SugaredLogger
}

func NewBot(cfg *config.Config, token string, logger *zap.SugaredLogger) *Bot {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   cfg.RequestTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.TLSHandshakeTimeout = cfg.RequestTimeout

	return &Bot{
		http:           &http.Client{Transport: transport},
		baseURL:        strings.TrimRight(cfg.APIEndpoint, "/"),
		token:          token,
		requestTimeout: cfg.RequestTimeout,
		limiter:        rate.NewLimiter(rate.Limit(cfg.SendRate), cfg.SendBurst),
		logger:         logger.Named("bot"),
	}
}

// envelope is the Bot API response wrapper. OK shadows the embedded field so a
// body without "ok" can be told apart from ok=false.
type envelope struct {
	OK *bool `json:"ok"`
	tgbotapi.APIResponse
}

type sendMessageRequest struct {
	ChatID    int64  `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// FetchUpdates long-polls for updates with update_id >= offset. A successful
// poll with nothing new returns an empty slice and no error.
func (b *Bot) FetchUpdates(ctx context.Context, offset int, wait time.Duration) ([]models.Update, error) {
	const op = "getUpdates"

	ctx, cancel := context.WithTimeout(ctx, b.requestTimeout+wait)
	defer cancel()

	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("timeout", strconv.Itoa(int(wait/time.Second)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.endpoint(op)+"?"+q.Encode(), nil)
	if err != nil {
		return nil, &TransportError{Kind: NetworkFailure, Op: op, Err: err}
	}

	result, status, err := b.do(req, op)
	if err != nil {
		return nil, err
	}

	var raw []json.RawMessage
	if len(result) > 0 {
		if err := json.Unmarshal(result, &raw); err != nil {
			return nil, &TransportError{Kind: MalformedResponse, Op: op, StatusCode: status, Err: fmt.Errorf("decode updates: %w", err)}
		}
	}

	updates := b.decodeUpdates(raw)
	b.logger.Debugf("fetched %d updates from offset %d", len(updates), offset)
	return updates, nil
}

// decodeUpdates decodes a batch element by element. An update that cannot be
// decoded is kept as a bare id so the cursor still moves past it; one without a
// readable update_id is dropped.
func (b *Bot) decodeUpdates(raw []json.RawMessage) []models.Update {
	good := make([]tgbotapi.Update, 0, len(raw))
	var broken []models.Update
	for _, item := range raw {
		var u tgbotapi.Update
		err := json.Unmarshal(item, &u)
		if err == nil {
			good = append(good, u)
			continue
		}

		var id struct {
			UpdateID *int `json:"update_id"`
		}
		if json.Unmarshal(item, &id) != nil || id.UpdateID == nil {
			b.logger.Warnf("dropping update without readable update_id: %v", err)
			continue
		}
		b.logger.Warnf("update %d unreadable, skipping its content: %v", *id.UpdateID, err)
		broken = append(broken, models.Update{UpdateID: *id.UpdateID})
	}

	updates := utils.UpdatesToModel(good)
	if len(broken) == 0 {
		return updates
	}
	updates = append(updates, broken...)
	sort.SliceStable(updates, func(i, j int) bool { return updates[i].UpdateID < updates[j].UpdateID })
	return updates
}

// SendMessage delivers one message. Failures come back as *TransportError.
func (b *Bot) SendMessage(ctx context.Context, chatID int64, text string, f models.Formatting) (models.Ack, error) {
	const op = "sendMessage"
	ack := models.Ack{ChatID: chatID}

	ctx, cancel := context.WithTimeout(ctx, b.requestTimeout)
	defer cancel()

	if err := b.limiter.Wait(ctx); err != nil {
		return ack, &TransportError{Kind: NetworkFailure, Op: op, Err: fmt.Errorf("rate limit wait: %w", err)}
	}

	body, err := json.Marshal(sendMessageRequest{
		ChatID:    chatID,
		Text:      text,
		ParseMode: string(f.ParseMode()),
	})
	if err != nil {
		return ack, &TransportError{Kind: MalformedResponse, Op: op, Err: fmt.Errorf("encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint(op), bytes.NewReader(body))
	if err != nil {
		return ack, &TransportError{Kind: NetworkFailure, Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	result, _, err := b.do(req, op)
	if err != nil {
		return ack, err
	}

	var sent tgbotapi.Message
	if err := json.Unmarshal(result, &sent); err != nil {
		// The platform accepted the message; only the echo is unreadable.
		b.logger.Debugf("send message to chat (%v): unreadable result: %v", chatID, err)
		return ack, nil
	}
	ack.MessageID = sent.MessageID
	return ack, nil
}

// Me returns the bot's username, used to check the token at startup.
func (b *Bot) Me(ctx context.Context) (string, error) {
	const op = "getMe"

	ctx, cancel := context.WithTimeout(ctx, b.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.endpoint(op), nil)
	if err != nil {
		return "", &TransportError{Kind: NetworkFailure, Op: op, Err: err}
	}
	result, status, err := b.do(req, op)
	if err != nil {
		return "", err
	}
	var me tgbotapi.User
	if err := json.Unmarshal(result, &me); err != nil {
		return "", &TransportError{Kind: MalformedResponse, Op: op, StatusCode: status, Err: err}
	}
	return me.UserName, nil
}

func (b *Bot) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", b.baseURL, b.token, method)
}

// do executes req and unwraps the envelope, mapping every failure to a
// TransportError. The HTTP status is returned for errors raised by callers
// while decoding the result.
func (b *Bot) do(req *http.Request, op string) (json.RawMessage, int, error) {
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, 0, &TransportError{Kind: NetworkFailure, Op: op, Err: b.redact(err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, &TransportError{Kind: NetworkFailure, Op: op, StatusCode: resp.StatusCode, Err: b.redact(err)}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.OK == nil {
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, resp.StatusCode, &TransportError{
				Kind:        NetworkFailure,
				Op:          op,
				StatusCode:  resp.StatusCode,
				Description: utils.Truncate(strings.TrimSpace(string(raw)), 200),
			}
		}
		if err == nil {
			err = errors.New("missing ok field")
		}
		return nil, resp.StatusCode, &TransportError{Kind: MalformedResponse, Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	if !*env.OK {
		return nil, resp.StatusCode, &TransportError{
			Kind:        PlatformRejected,
			Op:          op,
			StatusCode:  resp.StatusCode,
			Code:        env.ErrorCode,
			Description: env.Description,
		}
	}
	return env.Result, resp.StatusCode, nil
}

// redact strips the token from errors that embed the request URL.
func (b *Bot) redact(err error) error {
	if b.token == "" || !strings.Contains(err.Error(), b.token) {
		return err
	}
	return fmt.Errorf("%s", strings.ReplaceAll(err.Error(), b.token, "<token>"))
}
