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

var _ repository.UserRepository = (*UserDB)(nil)

// UserDB is the users table.
type UserDB struct {
	conn *sql.DB
}

// CreateUser inserts user; the UNIQUE constraints decide duplicate races.
func (u *UserDB) CreateUser(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	user.CreatedAt = time.Now().UTC()

	_, err := u.conn.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, access_token, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Name, user.Email, user.PasswordHash, user.AccessToken, user.CreatedAt,
	)
	if err != nil {
		if column, ok := uniqueViolation(err); ok {
			if column == "" {
				column = "name or email"
			}
			return apperror.Conflict("user", column)
		}
		return fmt.Errorf("postgres: inserting user %q: %w", user.Email, err)
	}

	return nil
}

func (u *UserDB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return u.getUserBy(ctx, "email", email)
}

func (u *UserDB) GetUserByAccessToken(ctx context.Context, token string) (*model.User, error) {
	return u.getUserBy(ctx, "access_token", token)
}

// column is always a constant from this file.
func (u *UserDB) getUserBy(ctx context.Context, column, value string) (*model.User, error) {
	var user model.User

	err := u.conn.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, access_token, created_at
		 FROM users WHERE `+column+` = $1`,
		value,
	).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.AccessToken, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", column)
		}
		return nil, fmt.Errorf("postgres: getting user by %s: %w", column, err)
	}

	return &user, nil
}
