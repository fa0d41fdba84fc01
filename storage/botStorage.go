package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/twingatebot/models"
	"go.uber.org/zap"
)

const saveTimeout = 500 * time.Millisecond

const schema = `CREATE TABLE IF NOT EXISTS updates_messages (
	id            BIGSERIAL PRIMARY KEY,
	update_id     BIGINT      NOT NULL,
	chat_id       BIGINT      NOT NULL,
	from_name     TEXT        NOT NULL,
	text          TEXT        NOT NULL,
	time_stamp    TIMESTAMPTZ NOT NULL,
	db_time_stamp TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
)`

// Execer is the part of pgxpool.Pool the journal uses.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// BotStorage journals dispatched inbound messages.
type BotStorage struct {
	db     Execer
	logger *zap.SugaredLogger
}

func NewBotStorage(db Execer, logger *zap.SugaredLogger) *BotStorage {
	return &BotStorage{db: db, logger: logger.Named("storage")}
}

// EnsureSchema creates the journal table if it does not exist.
func (b *BotStorage) EnsureSchema(ctx context.Context) error {
	if _, err := b.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("storage create updates_messages: %w", err)
	}
	return nil
}

func (b *BotStorage) Save(ctx context.Context, entry *models.JournalEntry) error {
	ctx, cancel := context.WithTimeout(ctx, saveTimeout)
	defer cancel()

	tag, err := b.db.Exec(
		ctx,
		`INSERT INTO updates_messages (update_id, chat_id, from_name, text, time_stamp) VALUES ($1, $2, $3, $4, $5)`,
		entry.UpdateID,
		entry.ChatID,
		entry.FromName,
		entry.Text,
		entry.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("storage insert update %d: %w", entry.UpdateID, err)
	}

	if tag.RowsAffected() != 1 {
		return fmt.Errorf("storage insert update %d: expected 1 row affected, got %d", entry.UpdateID, tag.RowsAffected())
	}

	b.logger.Debugf("saved update %d from chat (%v)", entry.UpdateID, entry.ChatID)
	return nil
}
