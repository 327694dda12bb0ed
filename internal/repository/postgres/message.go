package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/guestbook/internal/apperror"
	"github.com/sakif/guestbook/internal/model"
	"github.com/sakif/guestbook/internal/repository"
)

var _ repository.MessageRepository = (*MessageDB)(nil)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// MessageDB is the messages table.
type MessageDB struct {
	conn *sql.DB
}

func (m *MessageDB) CreateMessage(ctx context.Context, message *model.Message) error {
	message.ID = xid.New().String()
	message.Likes = 0
	message.CreatedAt = time.Now().UTC()

	_, err := m.conn.ExecContext(ctx,
		`INSERT INTO messages (id, message, likes, created_at)
		 VALUES ($1, $2, $3, $4)`,
		message.ID, message.Text, message.Likes, message.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: creating message: %w", err)
	}

	return nil
}

// ListRecentMessages returns newest first. xids sort by creation time, so id
// breaks ties between identical timestamps.
func (m *MessageDB) ListRecentMessages(ctx context.Context, opts repository.ListOptions) ([]model.Message, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	rows, err := m.conn.QueryContext(ctx,
		`SELECT id, message, likes, created_at
		 FROM messages
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing messages: %w", err)
	}
	defer rows.Close()

	messages := make([]model.Message, 0, limit)
	for rows.Next() {
		var msg model.Message
		if err := rows.Scan(&msg.ID, &msg.Text, &msg.Likes, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scanning message row: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating messages: %w", err)
	}

	return messages, nil
}

// IncrementLikes bumps the counter and returns the updated row in one round trip.
func (m *MessageDB) IncrementLikes(ctx context.Context, id string) (*model.Message, error) {
	var msg model.Message

	err := m.conn.QueryRowContext(ctx,
		`UPDATE messages SET likes = likes + 1
		 WHERE id = $1
		 RETURNING id, message, likes, created_at`,
		id,
	).Scan(&msg.ID, &msg.Text, &msg.Likes, &msg.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("message", id)
		}
		return nil, fmt.Errorf("postgres: liking message %s: %w", id, err)
	}

	return &msg, nil
}
