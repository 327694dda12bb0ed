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

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

// UserDB is the users table.
type UserDB struct {
	conn *sql.DB
}

// CreateUser inserts a new user.
//
// There is no "SELECT first, then INSERT" check for duplicates. That would
// race: two requests could both see "no such email" and both insert. Instead
// we INSERT straight away and let the UNIQUE constraints reject the loser,
// then translate SQLite's constraint error into apperror.Conflict.
func (u *UserDB) CreateUser(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	user.CreatedAt = time.Now().UTC()

	_, err := u.conn.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, access_token, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.AccessToken,
		user.CreatedAt,
	)
	if err != nil {
		if column, ok := uniqueViolation(err); ok {
			return apperror.Conflict("user", conflictField(column))
		}
		return fmt.Errorf("sqlite: inserting user %q: %w", user.Email, err)
	}

	return nil
}

// GetUserByEmail retrieves a user by their email address.
// Returns apperror.ErrNotFound if no user exists with that email.
func (u *UserDB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return u.getUserBy(ctx, "email", email)
}

// GetUserByAccessToken retrieves the user holding token.
// Returns apperror.ErrNotFound if the token was never issued.
func (u *UserDB) GetUserByAccessToken(ctx context.Context, token string) (*model.User, error) {
	return u.getUserBy(ctx, "access_token", token)
}

// getUserBy runs a single-row lookup on one of the UNIQUE columns.
// column is always a constant from this file, never user input.
func (u *UserDB) getUserBy(ctx context.Context, column, value string) (*model.User, error) {
	var user model.User

	err := u.conn.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, access_token, created_at
		 FROM users WHERE `+column+` = ?`,
		value,
	).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.AccessToken,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", column)
		}
		return nil, fmt.Errorf("sqlite: getting user by %s: %w", column, err)
	}

	return &user, nil
}

// conflictField maps a users column to the request field a client sent.
// An empty column means SQLite did not say which constraint fired.
func conflictField(column string) string {
	if column == "" {
		return "name or email"
	}
	return column
}
