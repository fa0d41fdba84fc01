package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"github.com/twingatebot/models"
	"go.uber.org/zap"
)

type fakeExecer struct {
	sql      []string
	args     [][]any
	tag      string
	err      error
	deadline bool
}

func (f *fakeExecer) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	_, f.deadline = ctx.Deadline()
	f.sql = append(f.sql, sql)
	f.args = append(f.args, arguments)
	return pgconn.NewCommandTag(f.tag), f.err
}

func TestBotStorage_Save(t *testing.T) {
	received := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	entry := &models.JournalEntry{UpdateID: 10, ChatID: 123, FromName: "Ada", Text: "/start", ReceivedAt: received}

	tests := []struct {
		name    string
		tag     string
		err     error
		wantErr bool
	}{
		{name: "inserted", tag: "INSERT 0 1"},
		{name: "driver error", err: errors.New("connection refused"), wantErr: true},
		{name: "nothing inserted", tag: "INSERT 0 0", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &fakeExecer{tag: tt.tag, err: tt.err}
			s := NewBotStorage(db, zap.NewNop().Sugar())

			err := s.Save(context.Background(), entry)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.True(t, db.deadline)
			require.Contains(t, db.sql[0], "INSERT INTO updates_messages")
			require.Equal(t, []any{10, int64(123), "Ada", "/start", received}, db.args[0])
		})
	}
}

func TestBotStorage_EnsureSchema(t *testing.T) {
	db := &fakeExecer{tag: "CREATE TABLE"}
	s := NewBotStorage(db, zap.NewNop().Sugar())

	require.NoError(t, s.EnsureSchema(context.Background()))
	require.Contains(t, db.sql[0], "CREATE TABLE IF NOT EXISTS updates_messages")

	db.err = errors.New("permission denied")
	require.Error(t, s.EnsureSchema(context.Background()))
}
