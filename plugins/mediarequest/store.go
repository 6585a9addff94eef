package mediarequest

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Request is one recorded add or remove action.
type Request struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	ChatID    int64     `db:"chat_id"`
	Action    string    `db:"action"`
	Title     string    `db:"title"`
	IMDBID    string    `db:"imdb_id"`
	CreatedAt time.Time `db:"created_at"`
}

// Actions recorded in the request log.
const (
	ActionAdd    = "add"
	ActionRemove = "remove"
)

// RequestLog persists request history in Postgres.
type RequestLog struct {
	db *sqlx.DB
}

// NewRequestLog wraps a database handle.
func NewRequestLog(db *sqlx.DB) *RequestLog {
	return &RequestLog{db: db}
}

// Record inserts one request row.
func (l *RequestLog) Record(ctx context.Context, r Request) error {
	const q = `
		INSERT INTO media_requests (user_id, chat_id, action, title, imdb_id)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := l.db.ExecContext(ctx, q, r.UserID, r.ChatID, r.Action, r.Title, r.IMDBID); err != nil {
		return fmt.Errorf("mediarequest: record request: %w", err)
	}
	return nil
}

// Recent returns the newest requests, newest first.
func (l *RequestLog) Recent(ctx context.Context, limit int) ([]Request, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = `
		SELECT id, user_id, chat_id, action, title, imdb_id, created_at
		FROM media_requests
		ORDER BY created_at DESC
		LIMIT $1`
	var out []Request
	if err := l.db.SelectContext(ctx, &out, q, limit); err != nil {
		return nil, fmt.Errorf("mediarequest: list requests: %w", err)
	}
	return out, nil
}
