package sqlite

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

// compile-time check that *MessageDB implements repository.MessageRepository
var _ repository.MessageRepository = (*MessageDB)(nil)

const maxListLimit = 100

// MessageDB is the messages table.
type MessageDB struct {
	conn *sql.DB
}

// CreateMessage inserts a new message with zero likes.
//
// Length rules are enforced by the service before we get here; the table only
// guarantees the text is present.
func (m *MessageDB) CreateMessage(ctx context.Context, message *model.Message) error {
	message.ID = xid.New().String()
	message.Likes = 0
	message.CreatedAt = time.Now().UTC()

	_, err := m.conn.ExecContext(ctx,
		`INSERT INTO messages (id, message, likes, created_at)
		 VALUES (?, ?, ?, ?)`,
		message.ID,
		message.Text,
		message.Likes,
		message.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating message: %w", err)
	}

	return nil
}

// ListRecentMessages returns the newest messages first.
//
// ORDER BY created_at DESC = newest first. Two posts inside the same clock
// tick would tie, so rowid (insertion order) breaks the tie.
func (m *MessageDB) ListRecentMessages(ctx context.Context, opts repository.ListOptions) ([]model.Message, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	rows, err := m.conn.QueryContext(ctx,
		`SELECT id, message, likes, created_at
		 FROM messages
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing messages: %w", err)
	}
	// CRITICAL: always close rows when done!
	defer rows.Close()

	messages := make([]model.Message, 0, limit)

	for rows.Next() {
		var msg model.Message
		if err := rows.Scan(&msg.ID, &msg.Text, &msg.Likes, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning message row: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating messages: %w", err)
	}

	return messages, nil
}

// IncrementLikes adds one like and reads the message back.
//
// The increment happens inside SQL (likes = likes + 1), so two concurrent
// likes can never both read 3 and both write 4. RowsAffected == 0 means the
// WHERE clause matched nothing → not found.
func (m *MessageDB) IncrementLikes(ctx context.Context, id string) (*model.Message, error) {
	result, err := m.conn.ExecContext(ctx,
		`UPDATE messages SET likes = likes + 1 WHERE id = ?`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: liking message %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, apperror.NotFound("message", id)
	}

	var msg model.Message
	err = m.conn.QueryRowContext(ctx,
		`SELECT id, message, likes, created_at FROM messages WHERE id = ?`,
		id,
	).Scan(&msg.ID, &msg.Text, &msg.Likes, &msg.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("message", id)
		}
		return nil, fmt.Errorf("sqlite: reading liked message %s: %w", id, err)
	}

	return &msg, nil
}
